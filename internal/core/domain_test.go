package core

import (
	"testing"
	"time"
)

func TestFullName(t *testing.T) {
	cases := []struct {
		name string
		user User
		want string
	}{
		{"both names", User{Username: "mk", FirstName: "Matti", LastName: "Korhonen"}, "Matti Korhonen"},
		{"first only", User{Username: "mk", FirstName: "Matti"}, "Matti"},
		{"last only", User{Username: "mk", LastName: "Korhonen"}, "Korhonen"},
		{"fallback to username", User{Username: "mk"}, "mk"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.user.FullName(); got != tc.want {
				t.Errorf("FullName() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPeriodLabel(t *testing.T) {
	if got := PeriodLabel(2025, 12); got != "December 2025" {
		t.Errorf("PeriodLabel(2025, 12) = %q, want %q", got, "December 2025")
	}
	if got := PeriodLabel(2024, 2); got != "February 2024" {
		t.Errorf("PeriodLabel(2024, 2) = %q, want %q", got, "February 2024")
	}
}

func TestPeriodBounds(t *testing.T) {
	cases := []struct {
		year, month int
		wantLast    string
	}{
		{2025, 12, "2025-12-31"},
		{2024, 2, "2024-02-29"}, // leap year
		{2025, 2, "2025-02-28"},
		{2025, 4, "2025-04-30"},
	}
	for _, tc := range cases {
		first, last := PeriodBounds(tc.year, tc.month)
		if first.Day() != 1 || first.Month() != time.Month(tc.month) || first.Year() != tc.year {
			t.Errorf("PeriodBounds(%d, %d) first = %s", tc.year, tc.month, first)
		}
		if got := last.Format("2006-01-02"); got != tc.wantLast {
			t.Errorf("PeriodBounds(%d, %d) last = %s, want %s", tc.year, tc.month, got, tc.wantLast)
		}
	}
}
