package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/GTDGit/repair_api/internal/config"
	"github.com/GTDGit/repair_api/internal/models"
)

// DateLayout is the wire and ledger format of calendar dates.
const DateLayout = "2006-01-02"

const labelLayout = "15:04"

// Schedule is the fixed weekly operating schedule slots are generated from.
// Slots are laid out on the wall clock of Location, so on a DST change day
// labels still read "HH:MM" of local time and a local hour that does not
// exist is not offered.
type Schedule struct {
	Location     *time.Location
	OpenMinutes  int // minutes after midnight
	CloseMinutes int
	SlotDuration time.Duration
	ClosedDays   map[time.Weekday]bool
	LeadTime     time.Duration
	HorizonDays  int
}

// NewSchedule validates cfg and builds a Schedule from it.
func NewSchedule(cfg config.ScheduleConfig) (*Schedule, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	open, err := parseClock(cfg.Open)
	if err != nil {
		return nil, fmt.Errorf("invalid open time: %w", err)
	}
	closing, err := parseClock(cfg.Close)
	if err != nil {
		return nil, fmt.Errorf("invalid close time: %w", err)
	}
	if open >= closing {
		return nil, errors.New("open time must be before close time")
	}
	if cfg.SlotDuration < time.Minute {
		return nil, errors.New("slot duration must be at least one minute")
	}
	if cfg.SlotDuration%time.Minute != 0 {
		return nil, errors.New("slot duration must be a whole number of minutes")
	}
	if cfg.SlotDuration > time.Duration(closing-open)*time.Minute {
		return nil, errors.New("slot duration is longer than the opening hours")
	}

	closed := make(map[time.Weekday]bool, len(cfg.ClosedDays))
	for _, d := range cfg.ClosedDays {
		closed[d] = true
	}

	return &Schedule{
		Location:     loc,
		OpenMinutes:  open,
		CloseMinutes: closing,
		SlotDuration: cfg.SlotDuration,
		ClosedDays:   closed,
		LeadTime:     cfg.LeadTime,
		HorizonDays:  cfg.HorizonDays,
	}, nil
}

// parseClock parses "HH:MM" into minutes after midnight.
func parseClock(raw string) (int, error) {
	t, err := time.Parse(labelLayout, raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not HH:MM", raw)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ParseDate parses a YYYY-MM-DD calendar date in the schedule's timezone.
func (s *Schedule) ParseDate(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, raw, s.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a YYYY-MM-DD date", raw)
	}
	return d, nil
}

// Day returns midnight of t's calendar date in the schedule's timezone.
func (s *Schedule) Day(t time.Time) time.Time {
	t = t.In(s.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.Location)
}

// IsClosed reports whether the shop is closed on date.
func (s *Schedule) IsClosed(date time.Time) bool {
	return s.ClosedDays[date.In(s.Location).Weekday()]
}

// GenerateSlots returns the day's contiguous, chronologically ordered slots,
// all marked available. A closed day yields an empty, non-nil slice. A tail
// shorter than the slot duration before closing is not offered.
func GenerateSlots(date time.Time, s *Schedule) []models.Slot {
	slots := []models.Slot{}
	if s == nil || s.IsClosed(date) {
		return slots
	}
	step := int(s.SlotDuration / time.Minute)
	if step <= 0 {
		return slots
	}

	d := date.In(s.Location)
	y, m, day := d.Year(), d.Month(), d.Day()
	at := func(minutes int) time.Time {
		return time.Date(y, m, day, minutes/60, minutes%60, 0, 0, s.Location)
	}

	for from := s.OpenMinutes; from+step <= s.CloseMinutes; from += step {
		start, end := at(from), at(from+step)
		if !end.After(start) {
			continue
		}
		slots = append(slots, models.Slot{
			Start:       start,
			End:         end,
			Label:       clockLabel(from) + " - " + clockLabel(from+step),
			IsAvailable: true,
		})
	}
	return slots
}

func clockLabel(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
