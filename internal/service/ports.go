package service

import (
	"context"
	"time"

	"github.com/GTDGit/repair_api/internal/models"
)

// CatalogReader is the read side of the catalog consumed by quoting and
// reservation. Missing rows are reported with repository.ErrNotFound.
type CatalogReader interface {
	GetBrand(ctx context.Context, id int) (*models.Brand, error)
	GetDeviceModel(ctx context.Context, id int) (*models.DeviceModel, error)
	GetRepairItem(ctx context.Context, id int) (*models.RepairItem, error)
	GetModelRepairPricing(ctx context.Context, modelID, repairItemID int) (*models.ModelRepairPricing, error)
}

// SettingsReader returns the current global pricing settings, falling back
// to models.DefaultSettings when none were saved.
type SettingsReader interface {
	Get(ctx context.Context) (*models.Settings, error)
}

// BookingLedger records confirmed bookings. InsertIfAbsent must be atomic
// against concurrent inserts for the same (date, slot) and report a lost race
// with repository.ErrLedgerConflict.
type BookingLedger interface {
	FindBooking(ctx context.Context, date, slotLabel string) (*models.Booking, error)
	ListByDate(ctx context.Context, date string) ([]models.Booking, error)
	GetByReference(ctx context.Context, reference string) (*models.Booking, error)
	InsertIfAbsent(ctx context.Context, b *models.Booking) (*models.Booking, error)
}

// ReservationCache remembers the outcome of a reservation under a client
// supplied idempotency key.
type ReservationCache interface {
	Get(ctx context.Context, key string) (*models.Booking, error)
	Set(ctx context.Context, key string, b *models.Booking, ttl time.Duration) error
}
