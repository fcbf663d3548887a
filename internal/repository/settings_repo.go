package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/repair_api/internal/models"
)

// SettingsRepository reads and writes the singleton settings row (id = 1).
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the settings row, or models.DefaultSettings when the row has
// not been created yet. It never writes.
func (r *SettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	const q = `SELECT id, tax_percentage, discount_rules, currency, updated_at FROM settings WHERE id = 1`
	var s models.Settings
	if err := r.db.GetContext(ctx, &s, q); err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return models.DefaultSettings(), nil
		}
		return nil, err
	}
	return &s, nil
}

// Save upserts the singleton row.
func (r *SettingsRepository) Save(ctx context.Context, s *models.Settings) error {
	const q = `
        INSERT INTO settings (id, tax_percentage, discount_rules, currency, updated_at)
        VALUES (1, $1, $2, $3, NOW())
        ON CONFLICT (id) DO UPDATE SET
            tax_percentage = EXCLUDED.tax_percentage,
            discount_rules = EXCLUDED.discount_rules,
            currency = EXCLUDED.currency,
            updated_at = NOW()
        RETURNING id, updated_at`
	return r.db.QueryRowxContext(ctx, q, s.TaxPercentage, s.DiscountRules, s.Currency).Scan(&s.ID, &s.UpdatedAt)
}
