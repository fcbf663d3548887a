package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/repair_api/internal/models"
	"github.com/GTDGit/repair_api/internal/repository"
	"github.com/GTDGit/repair_api/internal/utils"
)

// PriceSource tells where a resolved base amount came from.
type PriceSource string

const (
	PriceSourceOverride PriceSource = "override"
	PriceSourceBase     PriceSource = "base"
)

// ResolvedPrice is the base amount for a (model, repair item) pair together
// with the catalog rows it was derived from.
type ResolvedPrice struct {
	BaseAmount decimal.Decimal
	Source     PriceSource
	Model      *models.DeviceModel
	Item       *models.RepairItem
	Override   *models.ModelRepairPricing
}

// DurationMinutes is the override's duration when an override priced the
// repair, else the item's own estimate.
func (p *ResolvedPrice) DurationMinutes() int {
	if p.Override != nil && p.Override.DurationMinutes > 0 {
		return p.Override.DurationMinutes
	}
	return p.Item.DurationMinutes
}

// CatalogResolver looks up the price row for a model and repair item. It
// holds no state; every call reads the catalog as it is at call time.
type CatalogResolver struct {
	catalog CatalogReader
}

// NewCatalogResolver constructs a CatalogResolver.
func NewCatalogResolver(catalog CatalogReader) *CatalogResolver {
	return &CatalogResolver{catalog: catalog}
}

// ResolvePrice returns the active override price for the pair, falling back
// to the item's base price. Unknown or inactive model, brand or item, and an
// item not applicable to the model's device type, fail with ErrNotFound.
func (r *CatalogResolver) ResolvePrice(ctx context.Context, modelID, repairItemID int) (*ResolvedPrice, error) {
	model, err := r.catalog.GetDeviceModel(ctx, modelID)
	if err != nil {
		return nil, lookupError(err, "device model", modelID)
	}
	if !model.IsActive {
		return nil, fmt.Errorf("device model %d is inactive: %w", modelID, utils.ErrNotFound)
	}

	brand, err := r.catalog.GetBrand(ctx, model.BrandID)
	if err != nil {
		return nil, lookupError(err, "brand", model.BrandID)
	}
	if !brand.IsActive {
		return nil, fmt.Errorf("brand %d is inactive: %w", brand.ID, utils.ErrNotFound)
	}

	item, err := r.catalog.GetRepairItem(ctx, repairItemID)
	if err != nil {
		return nil, lookupError(err, "repair item", repairItemID)
	}
	if !item.IsActive {
		return nil, fmt.Errorf("repair item %d is inactive: %w", repairItemID, utils.ErrNotFound)
	}
	if !item.AppliesTo(model.DeviceType) {
		return nil, fmt.Errorf("repair item %s does not apply to %s: %w", item.Code, model.DeviceType, utils.ErrNotFound)
	}

	override, err := r.catalog.GetModelRepairPricing(ctx, modelID, repairItemID)
	switch {
	case err == nil && override.IsActive:
		return &ResolvedPrice{
			BaseAmount: override.Price,
			Source:     PriceSourceOverride,
			Model:      model,
			Item:       item,
			Override:   override,
		}, nil
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("load pricing for model %d item %d: %w: %w", modelID, repairItemID, utils.ErrUnavailable, err)
	}

	return &ResolvedPrice{
		BaseAmount: item.BasePrice,
		Source:     PriceSourceBase,
		Model:      model,
		Item:       item,
	}, nil
}

// lookupError maps a collaborator error onto the service taxonomy.
func lookupError(err error, what string, id int) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, utils.ErrNotFound)
	}
	return fmt.Errorf("load %s %d: %w: %w", what, id, utils.ErrUnavailable, err)
}
