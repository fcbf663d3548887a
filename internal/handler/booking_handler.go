package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/repair_api/internal/models"
	"github.com/GTDGit/repair_api/internal/service"
	"github.com/GTDGit/repair_api/internal/utils"
)

// Allocator is the slot allocator surface the HTTP layer uses.
type Allocator interface {
	Schedule() *service.Schedule
	GetAvailability(ctx context.Context, date time.Time) ([]models.Slot, error)
	ReserveSlotIdempotent(ctx context.Context, key string, date time.Time, slotLabel string, payload *service.BookingPayload) (*models.Booking, error)
	GetBooking(ctx context.Context, reference string) (*models.Booking, error)
	ListBookings(ctx context.Context, date time.Time) ([]models.Booking, error)
}

// BookingHandler serves availability and reservations.
type BookingHandler struct {
	allocator Allocator
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(allocator Allocator) *BookingHandler {
	return &BookingHandler{allocator: allocator}
}

type createBookingRequest struct {
	Date      string `json:"date" binding:"required"`
	SlotLabel string `json:"slotLabel" binding:"required"`
	service.BookingPayload
}

// AvailabilityResponse lists one day's slots.
type AvailabilityResponse struct {
	Date     string        `json:"date"`
	Timezone string        `json:"timezone"`
	Closed   bool          `json:"closed"`
	Slots    []models.Slot `json:"slots"`
}

// GetAvailability handles GET /v1/availability?date=YYYY-MM-DD.
func (h *BookingHandler) GetAvailability(c *gin.Context) {
	date, ok := h.parseDate(c, c.Query("date"))
	if !ok {
		return
	}

	slots, err := h.allocator.GetAvailability(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}

	schedule := h.allocator.Schedule()
	utils.Success(c, http.StatusOK, "Successfully retrieved availability", AvailabilityResponse{
		Date:     date.Format(service.DateLayout),
		Timezone: schedule.Location.String(),
		Closed:   schedule.IsClosed(date),
		Slots:    slots,
	})
}

// CreateBooking handles POST /v1/bookings. An Idempotency-Key header makes
// retries return the original booking.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	date, ok := h.parseDate(c, req.Date)
	if !ok {
		return
	}

	key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if len(key) > 128 {
		badRequest(c, "Idempotency-Key must be at most 128 characters")
		return
	}

	booking, err := h.allocator.ReserveSlotIdempotent(c.Request.Context(), key, date, req.SlotLabel, &req.BookingPayload)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, http.StatusCreated, "Slot reserved", booking)
}

// GetBooking handles GET /v1/bookings/:reference.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.allocator.GetBooking(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Successfully retrieved booking", booking)
}

// ListBookings handles GET /v1/admin/bookings?date=YYYY-MM-DD.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	date, ok := h.parseDate(c, c.Query("date"))
	if !ok {
		return
	}

	bookings, err := h.allocator.ListBookings(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Successfully retrieved bookings", bookings)
}

func (h *BookingHandler) parseDate(c *gin.Context, raw string) (time.Time, bool) {
	if raw == "" {
		badRequest(c, "date is required (YYYY-MM-DD)")
		return time.Time{}, false
	}
	date, err := h.allocator.Schedule().ParseDate(raw)
	if err != nil {
		badRequest(c, err.Error())
		return time.Time{}, false
	}
	return date, true
}
