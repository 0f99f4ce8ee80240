package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventFilterOffset(t *testing.T) {
	tests := []struct {
		name string
		f    EventFilter
		want int
	}{
		{"first page", EventFilter{Page: 1, Limit: 20}, 0},
		{"third page", EventFilter{Page: 3, Limit: 20}, 40},
		{"unset page", EventFilter{Limit: 20}, 0},
		{"no limit", EventFilter{Page: 5}, 0},
		{"overflow", EventFilter{Page: math.MaxInt, Limit: 100}, math.MaxInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.f.Offset())
		})
	}
}

func TestEventStartsAt(t *testing.T) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		date time.Time
		at   string
		want time.Time
	}{
		{"date only", day, "18:30", day.Add(18*time.Hour + 30*time.Minute)},
		{"twelve hour clock", day, "6:30 PM", day.Add(18*time.Hour + 30*time.Minute)},
		{"date carries the start", day.Add(9 * time.Hour), "18:30", day.Add(9 * time.Hour)},
		{"unreadable time", day, "evening", day},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Event{EventDate: tt.date, EventTime: tt.at}
			assert.True(t, tt.want.Equal(e.StartsAt()), "got %s", e.StartsAt())
		})
	}
}
