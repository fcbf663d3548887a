package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/repair_api/internal/models"
	"github.com/GTDGit/repair_api/internal/repository"
)

type pricingKey struct{ model, item int }

type fakeCatalog struct {
	brands   map[int]*models.Brand
	models   map[int]*models.DeviceModel
	items    map[int]*models.RepairItem
	pricing  map[pricingKey]*models.ModelRepairPricing
	failWith error
}

func (f *fakeCatalog) GetBrand(_ context.Context, id int) (*models.Brand, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if b, ok := f.brands[id]; ok {
		return b, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCatalog) GetDeviceModel(_ context.Context, id int) (*models.DeviceModel, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if m, ok := f.models[id]; ok {
		return m, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCatalog) GetRepairItem(_ context.Context, id int) (*models.RepairItem, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if it, ok := f.items[id]; ok {
		return it, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCatalog) GetModelRepairPricing(_ context.Context, modelID, itemID int) (*models.ModelRepairPricing, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if p, ok := f.pricing[pricingKey{modelID, itemID}]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

// newFakeCatalog seeds one brand with a phone (model 1) and a laptop
// (model 2), a screen repair with quality tiers (item 10), a battery repair
// (item 11) and a keyboard repair only laptops get (item 12). Model 1 has an
// override price for the battery.
func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		brands: map[int]*models.Brand{
			1: {ID: 1, Name: "Apple", DeviceTypes: models.DeviceTypes{"smartphone", "laptop"}, IsActive: true},
		},
		models: map[int]*models.DeviceModel{
			1: {ID: 1, BrandID: 1, Name: "iPhone 13", DeviceType: models.DeviceTypeSmartphone, IsActive: true},
			2: {ID: 2, BrandID: 1, Name: "MacBook Air", DeviceType: models.DeviceTypeLaptop, IsActive: true},
		},
		items: map[int]*models.RepairItem{
			10: {
				ID: 10, Code: "screen", Name: "Screen replacement",
				DeviceTypes:       models.DeviceTypes{"smartphone", "tablet"},
				BasePrice:         decimal.NewFromInt(100),
				DurationMinutes:   60,
				HasQualityOptions: true,
				QualityOptions: models.QualityOptions{
					{ID: "standard", Name: "Standard", Multiplier: decimal.NewFromInt(1)},
					{ID: "premium", Name: "Premium", DurationMinutes: 90, Multiplier: decimal.RequireFromString("1.5")},
				},
				IsActive: true,
			},
			11: {
				ID: 11, Code: "battery", Name: "Battery replacement",
				DeviceTypes:     models.DeviceTypes{"smartphone"},
				BasePrice:       decimal.NewFromInt(80),
				DurationMinutes: 45,
				IsActive:        true,
			},
			12: {
				ID: 12, Code: "keyboard", Name: "Keyboard replacement",
				DeviceTypes:     models.DeviceTypes{"laptop"},
				BasePrice:       decimal.NewFromInt(150),
				DurationMinutes: 120,
				IsActive:        true,
			},
		},
		pricing: map[pricingKey]*models.ModelRepairPricing{
			{1, 11}: {ID: 1, DeviceModelID: 1, RepairItemID: 11, Price: decimal.NewFromInt(70), DurationMinutes: 30, IsActive: true},
		},
	}
}

type fakeSettings struct {
	mu       sync.Mutex
	settings *models.Settings
	err      error
	saved    int
}

func (f *fakeSettings) Get(context.Context) (*models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.settings == nil {
		return models.DefaultSettings(), nil
	}
	cp := *f.settings
	return &cp, nil
}

func (f *fakeSettings) Save(_ context.Context, s *models.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	s.ID = 1
	cp := *s
	f.settings = &cp
	f.saved++
	return nil
}

type ledgerKey struct{ date, label string }

// fakeLedger is an in-memory BookingLedger whose InsertIfAbsent is atomic
// under a mutex. With block set every call waits for its context to end.
type fakeLedger struct {
	mu       sync.Mutex
	bookings map[ledgerKey]models.Booking
	nextID   int
	block    bool
	inserts  int
	// insertErr, when set, is returned by InsertIfAbsent.
	insertErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{bookings: make(map[ledgerKey]models.Booking)}
}

func (l *fakeLedger) wait(ctx context.Context) error {
	if !l.block {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (l *fakeLedger) FindBooking(ctx context.Context, date, label string) (*models.Booking, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.bookings[ledgerKey{date, label}]; ok {
		return &b, nil
	}
	return nil, repository.ErrNotFound
}

func (l *fakeLedger) ListByDate(ctx context.Context, date string) ([]models.Booking, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []models.Booking{}
	for k, b := range l.bookings {
		if k.date == date {
			out = append(out, b)
		}
	}
	return out, nil
}

func (l *fakeLedger) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range l.bookings {
		if b.Reference == reference {
			return &b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (l *fakeLedger) InsertIfAbsent(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.insertErr != nil {
		return nil, l.insertErr
	}
	k := ledgerKey{b.BookingDate, b.SlotLabel}
	if _, ok := l.bookings[k]; ok {
		return nil, repository.ErrLedgerConflict
	}
	l.nextID++
	l.inserts++
	stored := *b
	stored.ID = l.nextID
	stored.CreatedAt = time.Now()
	l.bookings[k] = stored
	return &stored, nil
}

type fakeReservationCache struct {
	mu      sync.Mutex
	entries map[string]*models.Booking
	ttls    map[string]time.Duration
}

func newFakeReservationCache() *fakeReservationCache {
	return &fakeReservationCache{
		entries: make(map[string]*models.Booking),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *fakeReservationCache) Get(_ context.Context, key string) (*models.Booking, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.entries[key]; ok {
		return b, nil
	}
	return nil, repository.ErrNotFound
}

func (c *fakeReservationCache) Set(_ context.Context, key string, b *models.Booking, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = b
	c.ttls[key] = ttl
	return nil
}

func strPtr(s string) *string { return &s }
