package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/repair_api/internal/models"
)

// BookingRepository is the Postgres booking ledger. The partial unique index
// uq_bookings_confirmed_slot on (booking_date, slot_label) WHERE status =
// 'confirmed' is what makes InsertIfAbsent atomic.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// booking_date is rendered as text so it scans into the YYYY-MM-DD string field.
const bookingColumns = `id, reference, to_char(booking_date, 'YYYY-MM-DD') AS booking_date, slot_label,
        slot_start, slot_end, customer_name, customer_phone, customer_email,
        device_model_id, repair_item_id, quality_option_id, notes, status, created_at`

// FindBooking returns the confirmed booking holding (date, slotLabel).
func (r *BookingRepository) FindBooking(ctx context.Context, date, slotLabel string) (*models.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
        WHERE booking_date = $1 AND slot_label = $2 AND status = 'confirmed'
        LIMIT 1`
	var b models.Booking
	if err := r.db.GetContext(ctx, &b, q, date, slotLabel); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// ListByDate returns the confirmed bookings of one date ordered by slot start.
func (r *BookingRepository) ListByDate(ctx context.Context, date string) ([]models.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
        WHERE booking_date = $1 AND status = 'confirmed'
        ORDER BY slot_start`
	out := []models.Booking{}
	if err := r.db.SelectContext(ctx, &out, q, date); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByReference returns a booking by its public reference.
func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1 LIMIT 1`
	var b models.Booking
	if err := r.db.GetContext(ctx, &b, q, reference); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// InsertIfAbsent writes b as a confirmed booking unless one already holds the
// same (date, slot). It is a single statement: a cancelled context leaves
// either the committed row or nothing. Returns ErrLedgerConflict when taken.
func (r *BookingRepository) InsertIfAbsent(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	const q = `
        INSERT INTO bookings (
            reference, booking_date, slot_label, slot_start, slot_end,
            customer_name, customer_phone, customer_email,
            device_model_id, repair_item_id, quality_option_id, notes, status
        ) VALUES (
            $1, $2, $3, $4, $5,
            $6, $7, $8,
            $9, $10, $11, $12, 'confirmed'
        )
        ON CONFLICT (booking_date, slot_label) WHERE status = 'confirmed' DO NOTHING
        RETURNING id, created_at`

	out := *b
	out.Status = models.BookingConfirmed
	err := r.db.QueryRowxContext(ctx, q,
		b.Reference, b.BookingDate, b.SlotLabel, b.SlotStart, b.SlotEnd,
		b.CustomerName, b.CustomerPhone, b.CustomerEmail,
		b.DeviceModelID, b.RepairItemID, b.QualityOptionID, b.Notes,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		if notFound(err) == ErrNotFound {
			return nil, ErrLedgerConflict
		}
		return nil, rejected(err)
	}
	return &out, nil
}
