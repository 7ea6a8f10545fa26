package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"kilometri/internal/auth"
	"kilometri/internal/core"
	"kilometri/internal/services"
)

// tripRequest is the writable trip payload shared by create and update.
type tripRequest struct {
	Date         string          `json:"date"`
	StartAddress string          `json:"start_address"`
	EndAddress   string          `json:"end_address"`
	DistanceKm   json.Number     `json:"distance_km"`
	Purpose      string          `json:"purpose"`
	IsManual     bool            `json:"is_manual"`
	RouteData    json.RawMessage `json:"route_data"`
}

func (req tripRequest) toInput() (services.TripInput, error) {
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.Date), time.UTC)
	if err != nil {
		return services.TripInput{}, core.ValidationErrors{{
			Field:   "date",
			Code:    "date_invalid",
			Message: "date must be a YYYY-MM-DD value",
		}}
	}
	return services.TripInput{
		Date:         day,
		StartAddress: strings.TrimSpace(req.StartAddress),
		EndAddress:   strings.TrimSpace(req.EndAddress),
		DistanceKm:   req.DistanceKm.String(),
		Purpose:      strings.TrimSpace(req.Purpose),
		IsManual:     req.IsManual,
		RouteData:    req.RouteData,
	}, nil
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req tripRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	trip, err := s.trips.CreateTrip(r.Context(), userID, in)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toTripResponse(trip))
}

func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	filter, err := parseTripFilter(r)
	if err != nil {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	trips, err := s.trips.ListTrips(r.Context(), userID, filter)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTripResponses(trips))
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := pathID(r)
	if err != nil {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	trip, err := s.trips.GetTrip(r.Context(), userID, id)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTripResponse(trip))
}

func (s *Server) handleUpdateTrip(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := pathID(r)
	if err != nil {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	var req tripRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	trip, err := s.trips.UpdateTrip(r.Context(), userID, id, in)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTripResponse(trip))
}

func (s *Server) handleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := pathID(r)
	if err != nil {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.trips.DeleteTrip(r.Context(), userID, id); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCalculateDistance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartAddress string `json:"start_address"`
		EndAddress   string `json:"end_address"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.trips.CalculateDistance(r.Context(), strings.TrimSpace(req.StartAddress), strings.TrimSpace(req.EndAddress))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, distanceResponse{
		DistanceKm:      result.DistanceKm.StringFixed(2),
		DistanceMeters:  result.DistanceMeters,
		DurationSeconds: result.DurationSeconds,
		StartAddress:    result.StartAddress,
		EndAddress:      result.EndAddress,
		RouteData:       result.RouteData,
	})
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	year, month, err := parseYearMonth(r)
	if err != nil {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.trips.MonthlySummary(r.Context(), userID, year, month)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summaryResponse{
		Year:           summary.Year,
		Month:          summary.Month,
		Period:         core.PeriodLabel(summary.Year, summary.Month),
		TripCount:      summary.TripCount,
		TotalKm:        summary.TotalKm.StringFixed(2),
		ManualCount:    summary.ManualCount,
		AutomaticCount: summary.AutomaticCount,
		Trips:          toTripResponses(summary.Trips),
	})
}
