package service

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/repair_api/internal/config"
)

func testScheduleConfig() config.ScheduleConfig {
	return config.ScheduleConfig{
		Timezone:     "UTC",
		Open:         "09:00",
		Close:        "18:00",
		SlotDuration: time.Hour,
		ClosedDays:   []time.Weekday{time.Sunday},
		LeadTime:     30 * time.Minute,
		HorizonDays:  30,
	}
}

func testSchedule(t *testing.T) *Schedule {
	t.Helper()
	s, err := NewSchedule(testScheduleConfig())
	require.NoError(t, err)
	return s
}

func TestGenerateSlots_OpenDay(t *testing.T) {
	s := testSchedule(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // Monday

	slots := GenerateSlots(day, s)
	require.Len(t, slots, 9)
	assert.Equal(t, "09:00 - 10:00", slots[0].Label)
	assert.Equal(t, "17:00 - 18:00", slots[8].Label)
	for i, slot := range slots {
		assert.True(t, slot.IsAvailable)
		assert.Equal(t, time.Hour, slot.End.Sub(slot.Start))
		if i > 0 {
			assert.Equal(t, slots[i-1].End, slot.Start)
		}
	}
}

func TestGenerateSlots_ClosedDayIsEmpty(t *testing.T) {
	slots := GenerateSlots(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), testSchedule(t)) // Sunday
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestGenerateSlots_DropsPartialTail(t *testing.T) {
	cfg := testScheduleConfig()
	cfg.Close = "17:30"
	cfg.SlotDuration = 45 * time.Minute
	s, err := NewSchedule(cfg)
	require.NoError(t, err)

	slots := GenerateSlots(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), s)
	require.Len(t, slots, 11)
	assert.Equal(t, "16:30 - 17:15", slots[len(slots)-1].Label)
}

func TestGenerateSlots_UsesShopTimezone(t *testing.T) {
	cfg := testScheduleConfig()
	s, err := NewSchedule(cfg)
	require.NoError(t, err)
	s.Location = time.FixedZone("WIB", 7*3600)

	// 20:00 UTC on Saturday is already Sunday in UTC+7.
	slots := GenerateSlots(time.Date(2026, 2, 28, 20, 0, 0, 0, time.UTC), s)
	assert.Empty(t, slots)
}

func TestGenerateSlots_DSTLabelsFollowWallClock(t *testing.T) {
	cfg := testScheduleConfig()
	cfg.Timezone = "America/New_York"
	cfg.Open = "00:00"
	cfg.Close = "06:00"
	cfg.ClosedDays = nil
	s, err := NewSchedule(cfg)
	require.NoError(t, err)

	// Clocks jump from 02:00 to 03:00 on 2026-03-08.
	slots := GenerateSlots(time.Date(2026, 3, 8, 0, 0, 0, 0, s.Location), s)
	require.Len(t, slots, 5)

	valid := map[string]bool{
		"00:00 - 01:00": true, "01:00 - 02:00": true, "02:00 - 03:00": true,
		"03:00 - 04:00": true, "04:00 - 05:00": true, "05:00 - 06:00": true,
	}
	for i, slot := range slots {
		assert.True(t, valid[slot.Label], slot.Label)
		assert.Equal(t, time.Hour, slot.End.Sub(slot.Start), slot.Label)
		if i > 0 {
			assert.True(t, slot.Start.After(slots[i-1].Start))
		}
	}
	assert.Equal(t, "00:00 - 01:00", slots[0].Label)
	assert.Equal(t, "05:00 - 06:00", slots[4].Label)
}

func TestNewSchedule_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.ScheduleConfig)
	}{
		{"bad timezone", func(c *config.ScheduleConfig) { c.Timezone = "Mars/Olympus" }},
		{"bad open", func(c *config.ScheduleConfig) { c.Open = "9am" }},
		{"close before open", func(c *config.ScheduleConfig) { c.Close = "08:00" }},
		{"zero duration", func(c *config.ScheduleConfig) { c.SlotDuration = 0 }},
		{"duration longer than day", func(c *config.ScheduleConfig) { c.SlotDuration = 10 * time.Hour }},
		{"fractional minutes", func(c *config.ScheduleConfig) { c.SlotDuration = 90 * time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testScheduleConfig()
			tt.mutate(&cfg)
			_, err := NewSchedule(cfg)
			assert.Error(t, err)
		})
	}
}

func TestSchedule_ParseDate(t *testing.T) {
	s := testSchedule(t)

	d, err := s.ParseDate("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d.Weekday())

	_, err = s.ParseDate("02/03/2026")
	assert.Error(t, err)
}
