package core

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// MaxTripDistanceKm is the upper bound a single trip may carry in the store.
// The validator range (10000) is slightly wider so callers get a clearer
// error before the store rejects the value.
var MaxTripDistanceKm = decimal.RequireFromString("9999.99")

type (
	// Trip is a single recorded business journey owned by one user.
	// Distance is a 2-decimal kilometre value; RouteData holds the raw
	// provider payload for trips created through the distance service.
	Trip struct {
		ID           int64
		UserID       int64
		Date         time.Time // calendar day, midnight UTC
		StartAddress string
		EndAddress   string
		DistanceKm   decimal.Decimal
		Purpose      string
		IsManual     bool
		RouteData    json.RawMessage // nil for manual entries
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// MonthlyReport is a persisted snapshot of one user's trips for a
	// calendar month. TotalKm and TripCount are computed once at generation
	// time and never recomputed. At most one report exists per
	// (user, year, month).
	MonthlyReport struct {
		ID        int64
		UserID    int64
		Year      int
		Month     int // 1-12
		TotalKm   decimal.Decimal
		TripCount int
		PDFFile   string // path relative to the reports dir, empty until rendered
		ExcelFile string
		SentAt    *time.Time // nil until delivery succeeds
		CreatedAt time.Time
	}

	// User owns trips and reports. Company and Phone only matter to the
	// report header.
	User struct {
		ID           int64
		Username     string
		Email        string
		PasswordHash string
		FirstName    string
		LastName     string
		Company      string
		Phone        string
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// MonthSummary is the aggregation result for one user and period,
	// carrying the trips it was computed from.
	MonthSummary struct {
		Year           int
		Month          int
		TripCount      int
		TotalKm        decimal.Decimal
		ManualCount    int
		AutomaticCount int
		Trips          []Trip
	}

	// TripFilter narrows a trip listing. Nil fields match everything.
	TripFilter struct {
		Date       *time.Time
		DateAfter  *time.Time
		DateBefore *time.Time
		IsManual   *bool
	}

	// DistanceResult is the successful outcome of a distance lookup.
	DistanceResult struct {
		DistanceKm      decimal.Decimal
		DistanceMeters  int64
		DurationSeconds int64
		StartAddress    string // geocoded by the provider
		EndAddress      string
		RouteData       json.RawMessage
	}
)

// FullName combines first and last name, falling back to the username.
func (u User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

// PeriodLabel formats a (year, month) pair for report headers,
// e.g. "December 2025".
func PeriodLabel(year, month int) string {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// PeriodBounds returns the first and last calendar day of the month.
func PeriodBounds(year, month int) (first, last time.Time) {
	first = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last = first.AddDate(0, 1, -1)
	return first, last
}
