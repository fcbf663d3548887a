package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/repair_api/internal/models"
)

// CatalogRepository provides read access to brands, device models, repair
// items and model-specific pricing.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const (
	brandColumns       = `id, name, device_types, is_active, created_at, updated_at`
	deviceModelColumns = `id, brand_id, name, device_type, variants, colors, is_active, created_at, updated_at`
	repairItemColumns  = `id, code, name, device_types, base_price, duration_minutes,
        has_quality_options, quality_options, is_active, created_at, updated_at`
	pricingColumns = `id, device_model_id, repair_item_id, price, duration_minutes, is_active, created_at, updated_at`
)

// GetBrand returns a brand by id regardless of its active flag.
func (r *CatalogRepository) GetBrand(ctx context.Context, id int) (*models.Brand, error) {
	var b models.Brand
	if err := r.db.GetContext(ctx, &b, `SELECT `+brandColumns+` FROM brands WHERE id = $1`, id); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// GetDeviceModel returns a device model by id regardless of its active flag.
func (r *CatalogRepository) GetDeviceModel(ctx context.Context, id int) (*models.DeviceModel, error) {
	var m models.DeviceModel
	if err := r.db.GetContext(ctx, &m, `SELECT `+deviceModelColumns+` FROM device_models WHERE id = $1`, id); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// GetRepairItem returns a repair item by id regardless of its active flag.
func (r *CatalogRepository) GetRepairItem(ctx context.Context, id int) (*models.RepairItem, error) {
	var it models.RepairItem
	if err := r.db.GetContext(ctx, &it, `SELECT `+repairItemColumns+` FROM repair_items WHERE id = $1`, id); err != nil {
		return nil, notFound(err)
	}
	return &it, nil
}

// GetModelRepairPricing returns the active pricing row for the pair.
// The partial unique index guarantees at most one.
func (r *CatalogRepository) GetModelRepairPricing(ctx context.Context, modelID, repairItemID int) (*models.ModelRepairPricing, error) {
	const q = `SELECT ` + pricingColumns + ` FROM model_repair_pricing
        WHERE device_model_id = $1 AND repair_item_id = $2 AND is_active = TRUE
        LIMIT 1`
	var p models.ModelRepairPricing
	if err := r.db.GetContext(ctx, &p, q, modelID, repairItemID); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListActiveBrands returns active brands ordered by name.
func (r *CatalogRepository) ListActiveBrands(ctx context.Context) ([]models.Brand, error) {
	out := []models.Brand{}
	if err := r.db.SelectContext(ctx, &out,
		`SELECT `+brandColumns+` FROM brands WHERE is_active = TRUE ORDER BY name`); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveModelsByBrand returns the active models of a brand ordered by name.
func (r *CatalogRepository) ListActiveModelsByBrand(ctx context.Context, brandID int) ([]models.DeviceModel, error) {
	out := []models.DeviceModel{}
	if err := r.db.SelectContext(ctx, &out,
		`SELECT `+deviceModelColumns+` FROM device_models
        WHERE brand_id = $1 AND is_active = TRUE ORDER BY name`, brandID); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveRepairItemsByDeviceType returns active repair items applicable to t.
func (r *CatalogRepository) ListActiveRepairItemsByDeviceType(ctx context.Context, t models.DeviceType) ([]models.RepairItem, error) {
	out := []models.RepairItem{}
	if err := r.db.SelectContext(ctx, &out,
		`SELECT `+repairItemColumns+` FROM repair_items
        WHERE is_active = TRUE AND $1 = ANY(device_types) ORDER BY name`, string(t)); err != nil {
		return nil, err
	}
	return out, nil
}
