package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/repair_api/internal/models"
	"github.com/GTDGit/repair_api/internal/repository"
	"github.com/GTDGit/repair_api/internal/utils"
)

// Monday 2026-03-02, 08:00 UTC.
var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newTestAllocator(t *testing.T, ledger *fakeLedger, cache ReservationCache) *SlotAllocator {
	t.Helper()
	a := NewSlotAllocator(ledger, NewCatalogResolver(newFakeCatalog()), testSchedule(t), 50*time.Millisecond, cache)
	a.now = func() time.Time { return testNow }
	return a
}

func testPayload() *BookingPayload {
	return &BookingPayload{
		CustomerName:  "Budi",
		CustomerPhone: "+628123456789",
		ModelID:       1,
		RepairItemID:  10,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGetAvailability_MarksBookedSlots(t *testing.T) {
	ledger := newFakeLedger()
	a := newTestAllocator(t, ledger, nil)
	ctx := context.Background()
	tuesday := day(2026, 3, 3)

	_, err := a.ReserveSlot(ctx, tuesday, "10:00 - 11:00", testPayload())
	require.NoError(t, err)

	first, err := a.GetAvailability(ctx, tuesday)
	require.NoError(t, err)
	second, err := a.GetAvailability(ctx, tuesday)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for _, slot := range first {
		assert.Equal(t, slot.Label != "10:00 - 11:00", slot.IsAvailable, slot.Label)
	}
}

func TestGetAvailability_ClosedDay(t *testing.T) {
	slots, err := newTestAllocator(t, newFakeLedger(), nil).GetAvailability(context.Background(), day(2026, 3, 1))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGetAvailability_LedgerTimeout(t *testing.T) {
	ledger := newFakeLedger()
	ledger.block = true

	_, err := newTestAllocator(t, ledger, nil).GetAvailability(context.Background(), day(2026, 3, 3))
	assert.ErrorIs(t, err, utils.ErrUnavailable)
}

func TestReserveSlot_Success(t *testing.T) {
	ledger := newFakeLedger()
	a := newTestAllocator(t, ledger, nil)

	b, err := a.ReserveSlot(context.Background(), day(2026, 3, 3), "09:00 - 10:00", testPayload())
	require.NoError(t, err)

	_, err = uuid.Parse(b.Reference)
	assert.NoError(t, err)
	assert.Equal(t, "2026-03-03", b.BookingDate)
	assert.Equal(t, "09:00 - 10:00", b.SlotLabel)
	assert.Equal(t, models.BookingConfirmed, b.Status)
	assert.Equal(t, time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC), b.SlotStart)

	got, err := a.GetBooking(context.Background(), b.Reference)
	require.NoError(t, err)
	assert.Equal(t, b.Reference, got.Reference)
}

func TestReserveSlot_SecondAttemptIsTaken(t *testing.T) {
	a := newTestAllocator(t, newFakeLedger(), nil)
	ctx := context.Background()

	_, err := a.ReserveSlot(ctx, day(2026, 3, 3), "11:00 - 12:00", testPayload())
	require.NoError(t, err)

	_, err = a.ReserveSlot(ctx, day(2026, 3, 3), "11:00 - 12:00", testPayload())
	assert.ErrorIs(t, err, utils.ErrSlotTaken)
}

func TestReserveSlot_ConcurrentExactlyOneWins(t *testing.T) {
	ledger := newFakeLedger()
	a := newTestAllocator(t, ledger, nil)
	a.ledgerTimeout = 2 * time.Second

	const n = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		taken   int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := a.ReserveSlot(context.Background(), day(2026, 3, 4), "14:00 - 15:00", testPayload())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case assert.ErrorIs(t, err, utils.ErrSlotTaken):
				taken++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, n-1, taken)
	assert.Equal(t, 1, ledger.inserts)
}

func TestReserveSlot_InvalidSlot(t *testing.T) {
	tests := []struct {
		name  string
		date  time.Time
		label string
	}{
		{"unknown label", day(2026, 3, 3), "09:30 - 10:30"},
		{"closed day", day(2026, 3, 1), "09:00 - 10:00"},
		{"past slot", day(2026, 2, 27), "09:00 - 10:00"},
		{"inside lead time", day(2026, 3, 2), "08:00 - 09:00"},
		{"starts within lead time", day(2026, 3, 2), "09:00 - 10:00"},
		{"beyond horizon", day(2026, 4, 2), "09:00 - 10:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAllocator(t, newFakeLedger(), nil)
			a.now = func() time.Time { return testNow.Add(40 * time.Minute) }

			_, err := a.ReserveSlot(context.Background(), tt.date, tt.label, testPayload())
			assert.ErrorIs(t, err, utils.ErrInvalidSlot)
		})
	}
}

func TestReserveSlot_LastDayOfHorizon(t *testing.T) {
	a := newTestAllocator(t, newFakeLedger(), nil)

	_, err := a.ReserveSlot(context.Background(), day(2026, 4, 1), "09:00 - 10:00", testPayload())
	assert.NoError(t, err)
}

func TestReserveSlot_CatalogAndPayloadErrors(t *testing.T) {
	a := newTestAllocator(t, newFakeLedger(), nil)
	ctx := context.Background()
	tuesday := day(2026, 3, 3)

	p := testPayload()
	p.RepairItemID = 12
	_, err := a.ReserveSlot(ctx, tuesday, "09:00 - 10:00", p)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	p = testPayload()
	p.QualityOptionID = strPtr("gold")
	_, err = a.ReserveSlot(ctx, tuesday, "09:00 - 10:00", p)
	assert.ErrorIs(t, err, utils.ErrInvalidOption)

	p = testPayload()
	p.CustomerPhone = "  "
	_, err = a.ReserveSlot(ctx, tuesday, "09:00 - 10:00", p)
	assert.ErrorIs(t, err, utils.ErrInvalidRequest)

	slots, err := a.GetAvailability(ctx, tuesday)
	require.NoError(t, err)
	assert.True(t, slots[0].IsAvailable)
}

func TestReserveSlot_LedgerTimeoutIsUnavailable(t *testing.T) {
	ledger := newFakeLedger()
	ledger.block = true

	_, err := newTestAllocator(t, ledger, nil).ReserveSlot(context.Background(), day(2026, 3, 3), "09:00 - 10:00", testPayload())
	assert.ErrorIs(t, err, utils.ErrUnavailable)
	assert.NotErrorIs(t, err, utils.ErrSlotTaken)
	assert.True(t, utils.IsRetryable(err))
}

func TestReserveSlotIdempotent_ReplaysFirstBooking(t *testing.T) {
	ledger := newFakeLedger()
	cache := newFakeReservationCache()
	a := newTestAllocator(t, ledger, cache)
	ctx := context.Background()

	first, err := a.ReserveSlotIdempotent(ctx, "key-1", day(2026, 3, 3), "15:00 - 16:00", testPayload())
	require.NoError(t, err)
	again, err := a.ReserveSlotIdempotent(ctx, "key-1", day(2026, 3, 3), "15:00 - 16:00", testPayload())
	require.NoError(t, err)

	assert.Equal(t, first.Reference, again.Reference)
	assert.Equal(t, 1, ledger.inserts)
	assert.Equal(t, 16*time.Hour, cache.ttls["key-1"])

	_, err = a.ReserveSlotIdempotent(ctx, "key-2", day(2026, 3, 3), "15:00 - 16:00", testPayload())
	assert.ErrorIs(t, err, utils.ErrSlotTaken)
}

func TestReserveSlotIdempotent_RejectsKeyReusedForOtherBooking(t *testing.T) {
	ledger := newFakeLedger()
	cache := newFakeReservationCache()
	a := newTestAllocator(t, ledger, cache)
	ctx := context.Background()

	first, err := a.ReserveSlotIdempotent(ctx, "k", day(2026, 3, 3), "09:00 - 10:00", testPayload())
	require.NoError(t, err)

	other := testPayload()
	other.CustomerName = "Sari"
	other.CustomerPhone = "+628987654321"
	_, err = a.ReserveSlotIdempotent(ctx, "k", day(2026, 3, 5), "13:00 - 14:00", other)
	assert.ErrorIs(t, err, utils.ErrInvalidRequest)
	assert.Equal(t, 1, ledger.inserts)

	slots, err := a.GetAvailability(ctx, day(2026, 3, 5))
	require.NoError(t, err)
	for _, slot := range slots {
		assert.True(t, slot.IsAvailable, slot.Label)
	}

	premium := testPayload()
	premium.QualityOptionID = strPtr("premium")
	_, err = a.ReserveSlotIdempotent(ctx, "k", day(2026, 3, 3), "09:00 - 10:00", premium)
	assert.ErrorIs(t, err, utils.ErrInvalidRequest)

	// An empty option id is the same request as no option.
	same := testPayload()
	same.QualityOptionID = strPtr("")
	again, err := a.ReserveSlotIdempotent(ctx, "k", day(2026, 3, 3), "09:00 - 10:00", same)
	require.NoError(t, err)
	assert.Equal(t, first.Reference, again.Reference)
}

func TestReserveSlot_RejectsOverlongCustomerFields(t *testing.T) {
	ledger := newFakeLedger()
	a := newTestAllocator(t, ledger, nil)
	ctx := context.Background()
	tuesday := day(2026, 3, 3)

	long := func(n int) string { return strings.Repeat("a", n) }
	email := long(140) + "@example.com"

	tests := []struct {
		name   string
		mutate func(*BookingPayload)
	}{
		{"name", func(p *BookingPayload) { p.CustomerName = long(151) }},
		{"phone", func(p *BookingPayload) { p.CustomerPhone = strings.Repeat("1", 31) }},
		{"email", func(p *BookingPayload) { p.CustomerEmail = &email }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPayload()
			tt.mutate(p)
			_, err := a.ReserveSlot(ctx, tuesday, "09:00 - 10:00", p)
			assert.ErrorIs(t, err, utils.ErrInvalidRequest)
			assert.False(t, utils.IsRetryable(err))
		})
	}
	assert.Zero(t, ledger.inserts)

	p := testPayload()
	p.CustomerName = strings.Repeat("é", 150)
	_, err := a.ReserveSlot(ctx, tuesday, "09:00 - 10:00", p)
	assert.NoError(t, err)
}

func TestReserveSlot_LedgerRejectionIsNotRetryable(t *testing.T) {
	ledger := newFakeLedger()
	ledger.insertErr = fmt.Errorf("%w: value too long for type character varying(150)", repository.ErrRejected)

	_, err := newTestAllocator(t, ledger, nil).ReserveSlot(context.Background(), day(2026, 3, 3), "09:00 - 10:00", testPayload())
	assert.ErrorIs(t, err, utils.ErrInvalidRequest)
	assert.NotErrorIs(t, err, utils.ErrUnavailable)
	assert.False(t, utils.IsRetryable(err))
}

func TestReserveSlot_EmptyQualityOptionStoredAsNull(t *testing.T) {
	a := newTestAllocator(t, newFakeLedger(), nil)

	p := testPayload()
	p.QualityOptionID = strPtr("")
	b, err := a.ReserveSlot(context.Background(), day(2026, 3, 3), "11:00 - 12:00", p)
	require.NoError(t, err)
	assert.Nil(t, b.QualityOptionID)
}

func TestGetBooking_NotFound(t *testing.T) {
	a := newTestAllocator(t, newFakeLedger(), nil)

	_, err := a.GetBooking(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = a.GetBooking(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestListBookings(t *testing.T) {
	a := newTestAllocator(t, newFakeLedger(), nil)
	ctx := context.Background()

	for _, label := range []string{"09:00 - 10:00", "13:00 - 14:00"} {
		_, err := a.ReserveSlot(ctx, day(2026, 3, 5), label, testPayload())
		require.NoError(t, err)
	}

	got, err := a.ListBookings(ctx, day(2026, 3, 5))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = a.ListBookings(ctx, day(2026, 3, 6))
	require.NoError(t, err)
	assert.Empty(t, got)
}
