package models

import "time"

// BookingStatus is the ledger status of a booking.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	// BookingCancelled is written by the back office only; a cancelled row
	// frees its slot.
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is a confirmed reservation of one slot on one date.
type Booking struct {
	ID              int           `db:"id" json:"-"`
	Reference       string        `db:"reference" json:"reference"`
	BookingDate     string        `db:"booking_date" json:"date"` // YYYY-MM-DD in shop timezone
	SlotLabel       string        `db:"slot_label" json:"slotLabel"`
	SlotStart       time.Time     `db:"slot_start" json:"slotStart"`
	SlotEnd         time.Time     `db:"slot_end" json:"slotEnd"`
	CustomerName    string        `db:"customer_name" json:"customerName"`
	CustomerPhone   string        `db:"customer_phone" json:"customerPhone"`
	CustomerEmail   *string       `db:"customer_email" json:"customerEmail,omitempty"`
	DeviceModelID   int           `db:"device_model_id" json:"deviceModelId"`
	RepairItemID    int           `db:"repair_item_id" json:"repairItemId"`
	QualityOptionID *string       `db:"quality_option_id" json:"qualityOptionId,omitempty"`
	Notes           *string       `db:"notes" json:"notes,omitempty"`
	Status          BookingStatus `db:"status" json:"status"`
	CreatedAt       time.Time     `db:"created_at" json:"createdAt"`
}

// Slot is a derived, never persisted, bookable window of a day.
type Slot struct {
	Start       time.Time `json:"startTime"`
	End         time.Time `json:"endTime"`
	Label       string    `json:"label"`
	IsAvailable bool      `json:"isAvailable"`
}
