package core

import "github.com/shopspring/decimal"

// Summarize folds a slice of trips into a MonthSummary. Callers pass trips
// already filtered to one owner and one calendar month; this function only
// adds and counts. TotalKm is exactly 0.00 for an empty slice so summary
// endpoints can show an empty month without a special case — report
// generation applies its own zero-trip policy on top.
func Summarize(year, month int, trips []Trip) MonthSummary {
	s := MonthSummary{
		Year:    year,
		Month:   month,
		TotalKm: decimal.Zero.Round(2),
		Trips:   trips,
	}
	for _, t := range trips {
		s.TripCount++
		s.TotalKm = s.TotalKm.Add(t.DistanceKm)
		if t.IsManual {
			s.ManualCount++
		} else {
			s.AutomaticCount++
		}
	}
	s.TotalKm = s.TotalKm.Round(2)
	return s
}
