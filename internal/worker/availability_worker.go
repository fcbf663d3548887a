package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/repair_api/internal/models"
	"github.com/GTDGit/repair_api/internal/service"
	"github.com/GTDGit/repair_api/pkg/metrics"
)

// AvailabilityReader is the part of the slot allocator the worker samples.
type AvailabilityReader interface {
	Schedule() *service.Schedule
	GetAvailability(ctx context.Context, date time.Time) ([]models.Slot, error)
}

// AvailabilityWorker periodically publishes the number of open slots for
// the next few days as a gauge.
type AvailabilityWorker struct {
	allocator AvailabilityReader
	interval  time.Duration
	days      int
	now       func() time.Time
	published map[string]bool
}

// NewAvailabilityWorker constructs an AvailabilityWorker.
func NewAvailabilityWorker(allocator AvailabilityReader, interval time.Duration, days int) *AvailabilityWorker {
	if days < 1 {
		days = 1
	}
	return &AvailabilityWorker{
		allocator: allocator,
		interval:  interval,
		days:      days,
		now:       time.Now,
		published: make(map[string]bool),
	}
}

// Start runs one sample immediately and then on every tick until ctx is canceled.
func (w *AvailabilityWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Int("days", w.days).Msg("Starting availability worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.run(ctx)
	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Availability worker stopped")
			return
		}
	}
}

func (w *AvailabilityWorker) run(ctx context.Context) {
	schedule := w.allocator.Schedule()
	today := schedule.Day(w.now())

	current := make(map[string]bool, w.days)
	for i := 0; i < w.days; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		date := today.AddDate(0, 0, i)
		label := date.Format(service.DateLayout)
		current[label] = true

		slots, err := w.allocator.GetAvailability(ctx, date)
		if err != nil {
			log.Warn().Err(err).Str("date", label).Msg("Failed to sample availability")
			continue
		}

		open := 0
		for _, s := range slots {
			if s.IsAvailable {
				open++
			}
		}
		metrics.AvailableSlots.WithLabelValues(label).Set(float64(open))
	}

	for label := range w.published {
		if !current[label] {
			metrics.AvailableSlots.DeleteLabelValues(label)
		}
	}
	w.published = current
}
