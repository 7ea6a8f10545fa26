package core

import (
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	trips := []Trip{
		{
			Date:       time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
			DistanceKm: mustDec(t, "300.00"),
			IsManual:   true,
		},
		{
			Date:       time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC),
			DistanceKm: mustDec(t, "50.25"),
			IsManual:   false,
		},
	}

	s := Summarize(2025, 12, trips)

	if s.TripCount != 2 {
		t.Errorf("TripCount = %d, want 2", s.TripCount)
	}
	if got := s.TotalKm.StringFixed(2); got != "350.25" {
		t.Errorf("TotalKm = %s, want 350.25", got)
	}
	if s.ManualCount != 1 {
		t.Errorf("ManualCount = %d, want 1", s.ManualCount)
	}
	if s.AutomaticCount != 1 {
		t.Errorf("AutomaticCount = %d, want 1", s.AutomaticCount)
	}
	if s.Year != 2025 || s.Month != 12 {
		t.Errorf("period = %d/%d, want 2025/12", s.Year, s.Month)
	}
	if len(s.Trips) != 2 {
		t.Errorf("Trips carries %d entries, want 2", len(s.Trips))
	}
}

func TestSummarizeEmptyMonth(t *testing.T) {
	s := Summarize(2025, 6, nil)

	if s.TripCount != 0 {
		t.Errorf("TripCount = %d, want 0", s.TripCount)
	}
	if got := s.TotalKm.StringFixed(2); got != "0.00" {
		t.Errorf("TotalKm = %s, want 0.00", got)
	}
}
