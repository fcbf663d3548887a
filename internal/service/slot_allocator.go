package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/repair_api/internal/models"
	"github.com/GTDGit/repair_api/internal/repository"
	"github.com/GTDGit/repair_api/internal/utils"
	"github.com/GTDGit/repair_api/pkg/metrics"
)

// Column widths of the bookings table.
const (
	maxCustomerName  = 150
	maxCustomerPhone = 30
	maxCustomerEmail = 150
)

// BookingPayload is the customer and repair part of a reservation.
type BookingPayload struct {
	CustomerName    string  `json:"customerName" binding:"required,max=150"`
	CustomerPhone   string  `json:"customerPhone" binding:"required,max=30"`
	CustomerEmail   *string `json:"customerEmail" binding:"omitempty,email,max=150"`
	ModelID         int     `json:"modelId" binding:"required,min=1"`
	RepairItemID    int     `json:"repairItemId" binding:"required,min=1"`
	QualityOptionID *string `json:"qualityOptionId"`
	Notes           *string `json:"notes"`
}

// SlotAllocator computes day availability from the generated grid and the
// booking ledger, and reserves slots through the ledger's atomic insert.
//
// State per (date, slot) is Open -> Reserved; nothing here ever moves a slot
// back to Open.
type SlotAllocator struct {
	ledger        BookingLedger
	resolver      *CatalogResolver
	schedule      *Schedule
	ledgerTimeout time.Duration
	cache         ReservationCache
	now           func() time.Time
}

// NewSlotAllocator constructs a SlotAllocator. cache may be nil.
func NewSlotAllocator(
	ledger BookingLedger,
	resolver *CatalogResolver,
	schedule *Schedule,
	ledgerTimeout time.Duration,
	cache ReservationCache,
) *SlotAllocator {
	return &SlotAllocator{
		ledger:        ledger,
		resolver:      resolver,
		schedule:      schedule,
		ledgerTimeout: ledgerTimeout,
		cache:         cache,
		now:           time.Now,
	}
}

// Schedule returns the operating schedule slots are generated from.
func (a *SlotAllocator) Schedule() *Schedule {
	return a.schedule
}

// GetAvailability returns the day's slots with IsAvailable cleared for every
// slot a confirmed booking holds. It reads the ledger on every call.
func (a *SlotAllocator) GetAvailability(ctx context.Context, date time.Time) ([]models.Slot, error) {
	slots := GenerateSlots(date, a.schedule)
	if len(slots) == 0 {
		return slots, nil
	}

	day := date.In(a.schedule.Location).Format(DateLayout)
	bookings, err := a.listByDate(ctx, day)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		if b.Status == models.BookingConfirmed {
			taken[b.SlotLabel] = true
		}
	}
	for i := range slots {
		if taken[slots[i].Label] {
			slots[i].IsAvailable = false
		}
	}
	return slots, nil
}

// ReserveSlot books slotLabel on date for payload. Concurrent calls for the
// same (date, slot) yield exactly one booking; the others fail with
// ErrSlotTaken. Ledger timeouts fail with ErrUnavailable, never ErrSlotTaken.
func (a *SlotAllocator) ReserveSlot(ctx context.Context, date time.Time, slotLabel string, payload *BookingPayload) (*models.Booking, error) {
	booking, err := a.reserve(ctx, date, slotLabel, payload)
	metrics.ReservationsTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		log.Info().Err(err).
			Str("date", date.Format(DateLayout)).
			Str("slot_label", slotLabel).
			Msg("reservation rejected")
		return nil, err
	}

	log.Info().
		Str("reference", booking.Reference).
		Str("date", booking.BookingDate).
		Str("slot_label", booking.SlotLabel).
		Msg("slot reserved")
	return booking, nil
}

// ReserveSlotIdempotent is ReserveSlot keyed by a client supplied key: a
// retry with the same key returns the booking created by the first call. A
// key reused for a different reservation fails with ErrInvalidRequest.
func (a *SlotAllocator) ReserveSlotIdempotent(ctx context.Context, key string, date time.Time, slotLabel string, payload *BookingPayload) (*models.Booking, error) {
	if key == "" || a.cache == nil {
		return a.ReserveSlot(ctx, date, slotLabel, payload)
	}

	if cached, err := a.cache.Get(ctx, key); err == nil && cached != nil {
		day := date.In(a.schedule.Location).Format(DateLayout)
		if payload == nil || bookingFingerprint(cached) != requestFingerprint(day, slotLabel, payload) {
			log.Info().Str("reference", cached.Reference).Msg("idempotency key reused for a different reservation")
			return nil, fmt.Errorf("idempotency key was already used for a different booking: %w", utils.ErrInvalidRequest)
		}
		log.Debug().Str("reference", cached.Reference).Msg("returning booking for repeated idempotency key")
		return cached, nil
	}

	booking, err := a.ReserveSlot(ctx, date, slotLabel, payload)
	if err != nil {
		return nil, err
	}

	if err := a.cache.Set(ctx, key, booking, a.idempotencyTTL()); err != nil {
		log.Warn().Err(err).Str("reference", booking.Reference).Msg("failed to cache reservation")
	}
	return booking, nil
}

// GetBooking returns a booking by its public reference.
func (a *SlotAllocator) GetBooking(ctx context.Context, reference string) (*models.Booking, error) {
	if _, err := uuid.Parse(reference); err != nil {
		return nil, fmt.Errorf("booking %q: %w", reference, utils.ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, a.ledgerTimeout)
	defer cancel()

	b, err := a.ledger.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("booking %q: %w", reference, utils.ErrNotFound)
		}
		return nil, fmt.Errorf("ledger lookup: %w: %w", utils.ErrUnavailable, err)
	}
	return b, nil
}

// ListBookings returns the confirmed bookings of date.
func (a *SlotAllocator) ListBookings(ctx context.Context, date time.Time) ([]models.Booking, error) {
	return a.listByDate(ctx, date.In(a.schedule.Location).Format(DateLayout))
}

func (a *SlotAllocator) reserve(ctx context.Context, date time.Time, slotLabel string, payload *BookingPayload) (*models.Booking, error) {
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	slot, err := a.findSlot(date, slotLabel)
	if err != nil {
		return nil, err
	}

	resolved, err := a.resolver.ResolvePrice(ctx, payload.ModelID, payload.RepairItemID)
	if err != nil {
		return nil, err
	}
	optionID := normalizeOptionID(payload.QualityOptionID)
	if optionID != nil {
		if _, err := qualityOption(resolved.Item, *optionID); err != nil {
			return nil, err
		}
	}

	day := date.In(a.schedule.Location).Format(DateLayout)
	b := &models.Booking{
		Reference:       uuid.NewString(),
		BookingDate:     day,
		SlotLabel:       slot.Label,
		SlotStart:       slot.Start,
		SlotEnd:         slot.End,
		CustomerName:    strings.TrimSpace(payload.CustomerName),
		CustomerPhone:   strings.TrimSpace(payload.CustomerPhone),
		CustomerEmail:   payload.CustomerEmail,
		DeviceModelID:   payload.ModelID,
		RepairItemID:    payload.RepairItemID,
		QualityOptionID: optionID,
		Notes:           payload.Notes,
		Status:          models.BookingConfirmed,
	}

	return a.insert(ctx, b)
}

// findSlot checks that slotLabel is part of date's grid and still bookable
// given the lead time and booking horizon.
func (a *SlotAllocator) findSlot(date time.Time, slotLabel string) (*models.Slot, error) {
	slots := GenerateSlots(date, a.schedule)
	if len(slots) == 0 {
		return nil, fmt.Errorf("shop is closed on %s: %w", date.Format(DateLayout), utils.ErrInvalidSlot)
	}

	var slot *models.Slot
	for i := range slots {
		if slots[i].Label == slotLabel {
			slot = &slots[i]
			break
		}
	}
	if slot == nil {
		return nil, fmt.Errorf("slot %q is not offered on %s: %w", slotLabel, date.Format(DateLayout), utils.ErrInvalidSlot)
	}

	now := a.now().In(a.schedule.Location)
	if slot.Start.Before(now.Add(a.schedule.LeadTime)) {
		return nil, fmt.Errorf("slot %q on %s starts too soon: %w", slotLabel, date.Format(DateLayout), utils.ErrInvalidSlot)
	}
	if a.schedule.HorizonDays > 0 {
		last := a.schedule.Day(now).AddDate(0, 0, a.schedule.HorizonDays+1)
		if !slot.Start.Before(last) {
			return nil, fmt.Errorf("%s is beyond the %d day booking horizon: %w", date.Format(DateLayout), a.schedule.HorizonDays, utils.ErrInvalidSlot)
		}
	}
	return slot, nil
}

func (a *SlotAllocator) insert(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, a.ledgerTimeout)
	defer cancel()

	// Fast path; InsertIfAbsent below is what actually guards the slot.
	if _, err := a.ledger.FindBooking(ctx, b.BookingDate, b.SlotLabel); err == nil {
		return nil, fmt.Errorf("slot %q on %s: %w", b.SlotLabel, b.BookingDate, utils.ErrSlotTaken)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("ledger lookup: %w: %w", utils.ErrUnavailable, err)
	}

	start := time.Now()
	created, err := a.ledger.InsertIfAbsent(ctx, b)
	metrics.LedgerLatency.WithLabelValues("insert").Observe(time.Since(start).Seconds())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrLedgerConflict):
			return nil, fmt.Errorf("slot %q on %s: %w", b.SlotLabel, b.BookingDate, utils.ErrSlotTaken)
		case errors.Is(err, repository.ErrRejected):
			return nil, fmt.Errorf("booking details were rejected: %w: %w", utils.ErrInvalidRequest, err)
		}
		return nil, fmt.Errorf("ledger insert: %w: %w", utils.ErrUnavailable, err)
	}
	return created, nil
}

func (a *SlotAllocator) listByDate(ctx context.Context, day string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, a.ledgerTimeout)
	defer cancel()

	start := time.Now()
	bookings, err := a.ledger.ListByDate(ctx, day)
	metrics.LedgerLatency.WithLabelValues("list").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("ledger list %s: %w: %w", day, utils.ErrUnavailable, err)
	}
	return bookings, nil
}

// idempotencyTTL keeps a cached reservation until the end of today in the
// shop's timezone.
func (a *SlotAllocator) idempotencyTTL() time.Duration {
	now := a.now().In(a.schedule.Location)
	eod := a.schedule.Day(now).AddDate(0, 0, 1)
	ttl := eod.Sub(now)
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return ttl
}

func validatePayload(p *BookingPayload) error {
	if p == nil {
		return fmt.Errorf("missing booking details: %w", utils.ErrInvalidRequest)
	}
	if strings.TrimSpace(p.CustomerName) == "" {
		return fmt.Errorf("customer name is required: %w", utils.ErrInvalidRequest)
	}
	if strings.TrimSpace(p.CustomerPhone) == "" {
		return fmt.Errorf("customer phone is required: %w", utils.ErrInvalidRequest)
	}
	if utf8.RuneCountInString(strings.TrimSpace(p.CustomerName)) > maxCustomerName {
		return fmt.Errorf("customer name is longer than %d characters: %w", maxCustomerName, utils.ErrInvalidRequest)
	}
	if utf8.RuneCountInString(strings.TrimSpace(p.CustomerPhone)) > maxCustomerPhone {
		return fmt.Errorf("customer phone is longer than %d characters: %w", maxCustomerPhone, utils.ErrInvalidRequest)
	}
	if p.CustomerEmail != nil && utf8.RuneCountInString(*p.CustomerEmail) > maxCustomerEmail {
		return fmt.Errorf("customer email is longer than %d characters: %w", maxCustomerEmail, utils.ErrInvalidRequest)
	}
	return nil
}

// normalizeOptionID treats an empty quality option id as none selected.
func normalizeOptionID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	return id
}

// reservationFingerprint is what an idempotency key is bound to.
type reservationFingerprint struct {
	date            string
	slotLabel       string
	modelID         int
	repairItemID    int
	qualityOptionID string
	customerPhone   string
}

func bookingFingerprint(b *models.Booking) reservationFingerprint {
	fp := reservationFingerprint{
		date:          b.BookingDate,
		slotLabel:     b.SlotLabel,
		modelID:       b.DeviceModelID,
		repairItemID:  b.RepairItemID,
		customerPhone: b.CustomerPhone,
	}
	if b.QualityOptionID != nil {
		fp.qualityOptionID = *b.QualityOptionID
	}
	return fp
}

func requestFingerprint(day, slotLabel string, p *BookingPayload) reservationFingerprint {
	fp := reservationFingerprint{
		date:          day,
		slotLabel:     slotLabel,
		modelID:       p.ModelID,
		repairItemID:  p.RepairItemID,
		customerPhone: strings.TrimSpace(p.CustomerPhone),
	}
	if id := normalizeOptionID(p.QualityOptionID); id != nil {
		fp.qualityOptionID = *id
	}
	return fp
}
