package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/GTDGit/repair_api/internal/models"
)

// Store is the subset of RedisClient the reservation cache uses.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// ReservationCache remembers bookings by Idempotency-Key so a retried
// POST /v1/bookings returns the original booking instead of a 409.
type ReservationCache struct {
	store Store
}

// NewReservationCache creates a new ReservationCache.
func NewReservationCache(store Store) *ReservationCache {
	return &ReservationCache{store: store}
}

func (c *ReservationCache) key(idempotencyKey string) string {
	return fmt.Sprintf("booking:idem:%s", idempotencyKey)
}

// Get returns the booking stored under idempotencyKey, or ErrMiss.
func (c *ReservationCache) Get(ctx context.Context, idempotencyKey string) (*models.Booking, error) {
	raw, err := c.store.Get(ctx, c.key(idempotencyKey))
	if err != nil {
		return nil, err
	}

	var b models.Booking
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached booking: %w", err)
	}
	return &b, nil
}

// Set stores b under idempotencyKey for ttl.
func (c *ReservationCache) Set(ctx context.Context, idempotencyKey string, b *models.Booking, ttl time.Duration) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal booking: %w", err)
	}
	return c.store.Set(ctx, c.key(idempotencyKey), string(data), ttl)
}
