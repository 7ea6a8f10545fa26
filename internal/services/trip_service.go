package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kilometri/internal/core"
	"kilometri/internal/log"
	"kilometri/internal/routing"

	"github.com/shopspring/decimal"
)

// TripInput carries the writable fields of a trip.
type TripInput struct {
	Date         time.Time
	StartAddress string
	EndAddress   string
	DistanceKm   string
	Purpose      string
	IsManual     bool
	RouteData    json.RawMessage
}

// TripService orchestrates trip CRUD, distance lookup and monthly
// aggregation.
type TripService struct {
	store    TripStore
	distance routing.DistanceCalculator
	logger   *log.Logger
	now      func() time.Time
}

func NewTripService(store TripStore, distance routing.DistanceCalculator, logger *log.Logger) *TripService {
	return &TripService{
		store:    store,
		distance: distance,
		logger:   logger.WithComponent(log.ComponentTrip),
		now:      time.Now,
	}
}

// CreateTrip validates and stores a new trip for the given user.
func (s *TripService) CreateTrip(ctx context.Context, userID int64, in TripInput) (core.Trip, error) {
	trip, err := s.buildTrip(userID, in)
	if err != nil {
		return core.Trip{}, err
	}

	if err := s.store.CreateTrip(ctx, &trip); err != nil {
		return core.Trip{}, fmt.Errorf("create trip: %w", err)
	}

	s.logger.InfoContext(ctx, "trip created",
		log.FieldOperation, log.OpCreate,
		log.FieldUserID, userID,
		log.FieldTripID, trip.ID,
		log.FieldDistanceKm, trip.DistanceKm.String())
	return trip, nil
}

// GetTrip loads one trip owned by the user.
func (s *TripService) GetTrip(ctx context.Context, userID, tripID int64) (core.Trip, error) {
	return s.store.GetTrip(ctx, userID, tripID)
}

// ListTrips returns the user's trips matching the filter, newest first.
func (s *TripService) ListTrips(ctx context.Context, userID int64, filter core.TripFilter) ([]core.Trip, error) {
	return s.store.ListTrips(ctx, userID, filter)
}

// UpdateTrip replaces the writable fields of an existing trip.
func (s *TripService) UpdateTrip(ctx context.Context, userID, tripID int64, in TripInput) (core.Trip, error) {
	// ownership check happens here; the update below re-filters by user
	if _, err := s.store.GetTrip(ctx, userID, tripID); err != nil {
		return core.Trip{}, err
	}

	trip, err := s.buildTrip(userID, in)
	if err != nil {
		return core.Trip{}, err
	}
	trip.ID = tripID

	if err := s.store.UpdateTrip(ctx, &trip); err != nil {
		return core.Trip{}, fmt.Errorf("update trip: %w", err)
	}

	s.logger.InfoContext(ctx, "trip updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldUserID, userID,
		log.FieldTripID, tripID)
	return trip, nil
}

// DeleteTrip removes a trip owned by the user.
func (s *TripService) DeleteTrip(ctx context.Context, userID, tripID int64) error {
	if err := s.store.DeleteTrip(ctx, userID, tripID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "trip deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldUserID, userID,
		log.FieldTripID, tripID)
	return nil
}

// CalculateDistance validates both addresses and resolves the driving
// distance between them.
func (s *TripService) CalculateDistance(ctx context.Context, startAddress, endAddress string) (core.DistanceResult, error) {
	var errs core.ValidationErrors
	if err := core.ValidateAddress("start_address", startAddress); err != nil {
		errs = append(errs, err.(*core.ValidationError))
	}
	if err := core.ValidateAddress("end_address", endAddress); err != nil {
		errs = append(errs, err.(*core.ValidationError))
	}
	if len(errs) > 0 {
		return core.DistanceResult{}, errs
	}

	return s.distance.Distance(ctx, startAddress, endAddress)
}

// MonthlySummary aggregates one user's trips for a calendar month.
// A month with no trips yields a zero summary, not an error.
func (s *TripService) MonthlySummary(ctx context.Context, userID int64, year, month int) (core.MonthSummary, error) {
	if err := core.ValidateYearMonth(year, month, s.now()); err != nil {
		return core.MonthSummary{}, err
	}

	first, last := core.PeriodBounds(year, month)
	trips, err := s.store.ListTripsByPeriod(ctx, userID, first, last)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("list trips: %w", err)
	}

	return core.Summarize(year, month, trips), nil
}

func (s *TripService) buildTrip(userID int64, in TripInput) (core.Trip, error) {
	km, kmErr := core.ParseDistance(in.DistanceKm)
	if kmErr != nil {
		// placeholder keeps the range checks quiet while the other
		// fields still get validated
		km = decimal.NewFromInt(1)
	}

	trip := core.Trip{
		UserID:       userID,
		Date:         in.Date,
		StartAddress: in.StartAddress,
		EndAddress:   in.EndAddress,
		DistanceKm:   km,
		Purpose:      in.Purpose,
		IsManual:     in.IsManual,
		RouteData:    in.RouteData,
	}

	errs := core.ValidateTrip(trip, s.now())
	if kmErr != nil {
		errs = append(errs, &core.ValidationError{
			Field:   "distance_km",
			Code:    "distance_invalid",
			Message: "distance must be a decimal number",
		})
	}
	if len(errs) > 0 {
		return core.Trip{}, core.ValidationErrors(errs)
	}
	trip.DistanceKm = trip.DistanceKm.Round(2)

	// round multiples of 100 km are usually estimates, not measurements
	if core.SuspiciouslyRound(trip.DistanceKm) {
		s.logger.Warn("suspiciously round distance",
			log.FieldUserID, userID,
			log.FieldDistanceKm, trip.DistanceKm.String())
	}
	return trip, nil
}
