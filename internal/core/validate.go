// Trip and report input validation.
//
// All validators are pure: they take the value under test (and "today" where
// date arithmetic is involved) and return nil or a *ValidationError with a
// stable code. Nothing here touches the store.
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	maxDistanceKm = decimal.NewFromInt(10000)
	roundStepKm   = decimal.NewFromInt(100)

	// Substrings that have no business in a street address. Matched
	// case-insensitively; covers script/iframe injection and the usual SQL
	// comment/concatenation tokens.
	dangerousAddressPatterns = []string{
		"<script",
		"<iframe",
		"javascript:",
		"--;",
		"/*",
		"*/",
		"||",
		"@@",
	}
)

// MaxTripAgeDays is how far back a trip date may lie. Roughly two years;
// anything older is almost always a typo in the year.
const MaxTripAgeDays = 730

// ParseDistance parses a decimal kilometre value from its wire form.
func ParseDistance(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse distance %q: %w", s, err)
	}
	return d, nil
}

// ValidateDistance checks a trip distance in kilometres. Exact multiples
// of 100 km are accepted; see SuspiciouslyRound.
func ValidateDistance(value decimal.Decimal) error {
	if value.LessThanOrEqual(decimal.Zero) {
		return &ValidationError{
			Field:   "distance_km",
			Code:    "distance_negative",
			Message: "distance must be positive, enter a value greater than 0",
		}
	}
	if value.GreaterThan(maxDistanceKm) {
		return &ValidationError{
			Field:   "distance_km",
			Code:    "distance_too_high",
			Message: "distance seems unreasonably high (max 10000 km), verify the value",
		}
	}
	return nil
}

// SuspiciouslyRound reports whether a distance is an exact multiple of
// 100 km. Such values tend to be estimates rather than measurements;
// callers log them, this package stays pure.
func SuspiciouslyRound(value decimal.Decimal) bool {
	return value.GreaterThanOrEqual(roundStepKm) && value.Mod(roundStepKm).IsZero()
}

// ValidateAddress checks length bounds and rejects injection markers.
// The enforced floor is one character: the original product documentation
// asked for five, but the live behavior accepted anything non-empty and
// users rely on short place names ("Oulu").
func ValidateAddress(field, value string) error {
	if len(value) < 1 {
		return &ValidationError{
			Field:   field,
			Code:    "address_too_short",
			Message: "address is too short, enter a real address or place name",
		}
	}
	if len(value) > 500 {
		return &ValidationError{
			Field:   field,
			Code:    "address_too_long",
			Message: "address is too long, maximum 500 characters",
		}
	}
	lower := strings.ToLower(value)
	for _, p := range dangerousAddressPatterns {
		if strings.Contains(lower, p) {
			return &ValidationError{
				Field:   field,
				Code:    "address_dangerous_chars",
				Message: "address contains invalid characters, use only standard address characters",
			}
		}
	}
	return nil
}

// ValidateTripDate checks that a trip happened, and not too long ago.
// today is passed in so callers and tests control the clock.
func ValidateTripDate(value, today time.Time) error {
	day := truncateToDay(value)
	today = truncateToDay(today)

	if day.After(today) {
		return &ValidationError{
			Field:   "date",
			Code:    "date_future",
			Message: "trip date cannot be in the future",
		}
	}
	if day.Before(today.AddDate(0, 0, -MaxTripAgeDays)) {
		return &ValidationError{
			Field:   "date",
			Code:    "date_too_old",
			Message: fmt.Sprintf("trip date is more than 2 years old (%s), verify the date", day.Format("2006-01-02")),
		}
	}
	return nil
}

// ValidateYearMonth checks a reporting period. Reports exist from 2020
// onwards and may not target a month that has not started yet.
func ValidateYearMonth(year, month int, today time.Time) error {
	if month < 1 || month > 12 {
		return &ValidationError{
			Field:   "month",
			Code:    "invalid_month",
			Message: fmt.Sprintf("invalid month %d, must be between 1 and 12", month),
		}
	}
	if year < 2020 {
		return &ValidationError{
			Field:   "year",
			Code:    "year_too_old",
			Message: fmt.Sprintf("year %d is too old, reports are available from 2020 onwards", year),
		}
	}
	if year > today.Year()+1 {
		return &ValidationError{
			Field:   "year",
			Code:    "year_future",
			Message: fmt.Sprintf("year %d is too far in the future", year),
		}
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	if first.After(truncateToDay(today)) {
		return &ValidationError{
			Field:   "month",
			Code:    "report_date_future",
			Message: fmt.Sprintf("cannot use period %d/%02d, it is in the future", year, month),
		}
	}
	return nil
}

// ValidateTrip runs all field validators over a trip in one pass and
// returns every failure, not just the first.
func ValidateTrip(t Trip, today time.Time) []*ValidationError {
	var errs []*ValidationError
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err.(*ValidationError))
		}
	}
	collect(ValidateTripDate(t.Date, today))
	collect(ValidateAddress("start_address", t.StartAddress))
	collect(ValidateAddress("end_address", t.EndAddress))
	collect(ValidateDistance(t.DistanceKm))
	if t.DistanceKm.GreaterThan(MaxTripDistanceKm) && t.DistanceKm.LessThanOrEqual(maxDistanceKm) {
		errs = append(errs, &ValidationError{
			Field:   "distance_km",
			Code:    "distance_too_high",
			Message: "distance exceeds the single-trip maximum of 9999.99 km",
		})
	}
	if len(t.Purpose) > 500 {
		errs = append(errs, &ValidationError{
			Field:   "purpose",
			Code:    "purpose_too_long",
			Message: "purpose is too long, maximum 500 characters",
		})
	}
	return errs
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
