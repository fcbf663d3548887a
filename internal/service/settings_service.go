package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/repair_api/internal/models"
	"github.com/GTDGit/repair_api/internal/utils"
)

// SettingsStore is SettingsReader plus the admin write path.
type SettingsStore interface {
	SettingsReader
	Save(ctx context.Context, s *models.Settings) error
}

// UpdateSettingsRequest replaces the whole settings record.
type UpdateSettingsRequest struct {
	TaxPercentage decimal.Decimal       `json:"taxPercentage"`
	DiscountRules []models.DiscountRule `json:"discountRules"`
	Currency      string                `json:"currency"`
}

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// SettingsService validates and persists global pricing settings.
type SettingsService struct {
	store SettingsStore
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(store SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

// Get returns the current settings (defaults when none were saved).
func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	settings, err := s.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w: %w", utils.ErrUnavailable, err)
	}
	return settings, nil
}

// Update validates req and saves it. The next quote sees the new values.
func (s *SettingsService) Update(ctx context.Context, req *UpdateSettingsRequest) (*models.Settings, error) {
	if err := ValidateSettings(req); err != nil {
		return nil, err
	}

	rules := models.DiscountRules(req.DiscountRules)
	if rules == nil {
		rules = models.DiscountRules{}
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = models.DefaultCurrency
	}

	settings := &models.Settings{
		TaxPercentage: req.TaxPercentage,
		DiscountRules: rules,
		Currency:      currency,
	}
	if err := s.store.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w: %w", utils.ErrUnavailable, err)
	}

	log.Info().
		Str("tax_percentage", settings.TaxPercentage.String()).
		Int("discount_rules", len(settings.DiscountRules)).
		Msg("settings updated")
	return settings, nil
}

// ValidateSettings rejects values the pricing engine would refuse or skip.
func ValidateSettings(req *UpdateSettingsRequest) error {
	if req.TaxPercentage.IsNegative() || req.TaxPercentage.GreaterThan(hundred) {
		return fmt.Errorf("tax percentage must be between 0 and 100: %w", utils.ErrInvalidSettings)
	}
	if c := strings.ToUpper(strings.TrimSpace(req.Currency)); c != "" && !currencyPattern.MatchString(c) {
		return fmt.Errorf("currency must be a 3-letter ISO code: %w", utils.ErrInvalidSettings)
	}

	for i, rule := range req.DiscountRules {
		if _, err := ParseDiscountCondition(rule.Condition); err != nil {
			return fmt.Errorf("discount rule %d: %v: %w", i, err, utils.ErrInvalidSettings)
		}
		switch rule.Type {
		case models.DiscountPercentage:
			if rule.Value.IsNegative() || rule.Value.GreaterThan(hundred) {
				return fmt.Errorf("discount rule %d: percentage must be between 0 and 100: %w", i, utils.ErrInvalidSettings)
			}
		case models.DiscountFixed:
			if rule.Value.IsNegative() {
				return fmt.Errorf("discount rule %d: fixed amount must not be negative: %w", i, utils.ErrInvalidSettings)
			}
		default:
			return fmt.Errorf("discount rule %d: type must be 'percentage' or 'fixed': %w", i, utils.ErrInvalidSettings)
		}
	}
	return nil
}
