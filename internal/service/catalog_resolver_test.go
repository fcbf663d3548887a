package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/repair_api/internal/utils"
)

func TestResolvePrice_OverrideWins(t *testing.T) {
	r := NewCatalogResolver(newFakeCatalog())

	got, err := r.ResolvePrice(context.Background(), 1, 11)
	require.NoError(t, err)
	assert.Equal(t, PriceSourceOverride, got.Source)
	assert.Equal(t, "70.00", got.BaseAmount.StringFixed(2))
	assert.Equal(t, 30, got.DurationMinutes())
}

func TestResolvePrice_FallsBackToBase(t *testing.T) {
	r := NewCatalogResolver(newFakeCatalog())

	got, err := r.ResolvePrice(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, PriceSourceBase, got.Source)
	assert.Equal(t, "100.00", got.BaseAmount.StringFixed(2))
	assert.Nil(t, got.Override)
	assert.Equal(t, 60, got.DurationMinutes())
}

func TestResolvePrice_InactiveOverrideIgnored(t *testing.T) {
	cat := newFakeCatalog()
	cat.pricing[pricingKey{1, 11}].IsActive = false

	got, err := NewCatalogResolver(cat).ResolvePrice(context.Background(), 1, 11)
	require.NoError(t, err)
	assert.Equal(t, PriceSourceBase, got.Source)
	assert.Equal(t, "80.00", got.BaseAmount.StringFixed(2))
}

func TestResolvePrice_NotFound(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*fakeCatalog)
		modelID int
		itemID  int
	}{
		{"unknown model", nil, 99, 10},
		{"unknown item", nil, 1, 99},
		{"inactive model", func(c *fakeCatalog) { c.models[1].IsActive = false }, 1, 10},
		{"inactive brand", func(c *fakeCatalog) { c.brands[1].IsActive = false }, 1, 10},
		{"inactive item", func(c *fakeCatalog) { c.items[10].IsActive = false }, 1, 10},
		{"item not for device type", nil, 1, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := newFakeCatalog()
			if tt.mutate != nil {
				tt.mutate(cat)
			}
			_, err := NewCatalogResolver(cat).ResolvePrice(context.Background(), tt.modelID, tt.itemID)
			assert.ErrorIs(t, err, utils.ErrNotFound)
		})
	}
}

func TestResolvePrice_StoreFailureIsUnavailable(t *testing.T) {
	cat := newFakeCatalog()
	cat.failWith = errors.New("connection refused")

	_, err := NewCatalogResolver(cat).ResolvePrice(context.Background(), 1, 10)
	assert.ErrorIs(t, err, utils.ErrUnavailable)
	assert.NotErrorIs(t, err, utils.ErrNotFound)
}
