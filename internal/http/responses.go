package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"kilometri/internal/core"
	"kilometri/internal/log"
	"kilometri/internal/services"
)

// errorEnvelope is the JSON shape of every error response.
type errorEnvelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type tripResponse struct {
	ID           int64           `json:"id"`
	Date         string          `json:"date"`
	StartAddress string          `json:"start_address"`
	EndAddress   string          `json:"end_address"`
	DistanceKm   string          `json:"distance_km"`
	Purpose      string          `json:"purpose,omitempty"`
	IsManual     bool            `json:"is_manual"`
	RouteData    json.RawMessage `json:"route_data,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type reportResponse struct {
	ID        int64      `json:"id"`
	Year      int        `json:"year"`
	Month     int        `json:"month"`
	Period    string     `json:"period"`
	TotalKm   string     `json:"total_km"`
	TripCount int        `json:"trip_count"`
	PDFFile   string     `json:"pdf_file,omitempty"`
	ExcelFile string     `json:"excel_file,omitempty"`
	SentAt    *time.Time `json:"sent_at"`
	CreatedAt time.Time  `json:"created_at"`
}

type summaryResponse struct {
	Year           int            `json:"year"`
	Month          int            `json:"month"`
	Period         string         `json:"period"`
	TripCount      int            `json:"trip_count"`
	TotalKm        string         `json:"total_km"`
	ManualCount    int            `json:"manual_count"`
	AutomaticCount int            `json:"automatic_count"`
	Trips          []tripResponse `json:"trips"`
}

type distanceResponse struct {
	DistanceKm      string          `json:"distance_km"`
	DistanceMeters  int64           `json:"distance_meters"`
	DurationSeconds int64           `json:"duration_seconds"`
	StartAddress    string          `json:"start_address"`
	EndAddress      string          `json:"end_address"`
	RouteData       json.RawMessage `json:"route_data,omitempty"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toTripResponse(t core.Trip) tripResponse {
	return tripResponse{
		ID:           t.ID,
		Date:         t.Date.Format("2006-01-02"),
		StartAddress: t.StartAddress,
		EndAddress:   t.EndAddress,
		DistanceKm:   t.DistanceKm.StringFixed(2),
		Purpose:      t.Purpose,
		IsManual:     t.IsManual,
		RouteData:    t.RouteData,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func toTripResponses(trips []core.Trip) []tripResponse {
	out := make([]tripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, toTripResponse(t))
	}
	return out
}

func toReportResponse(rep core.MonthlyReport) reportResponse {
	return reportResponse{
		ID:        rep.ID,
		Year:      rep.Year,
		Month:     rep.Month,
		Period:    core.PeriodLabel(rep.Year, rep.Month),
		TotalKm:   rep.TotalKm.StringFixed(2),
		TripCount: rep.TripCount,
		PDFFile:   rep.PDFFile,
		ExcelFile: rep.ExcelFile,
		SentAt:    rep.SentAt,
		CreatedAt: rep.CreatedAt,
	}
}

func toUserResponse(u core.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Company:   u.Company,
		Phone:     u.Phone,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response failed", log.FieldError, err.Error())
	}
}

func (s *Server) writeMessage(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorEnvelope{Error: true, Message: message})
}

// writeError maps domain errors onto status codes and the error envelope.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		validationErrs core.ValidationErrors
		validationErr  *core.ValidationError
		addressErr     *core.InvalidAddressError
		conflictErr    *core.ConflictError
		insufficient   *core.InsufficientDataError
		external       *core.ExternalServiceError
	)

	switch {
	case errors.As(err, &validationErrs):
		details := make([]fieldError, 0, len(validationErrs))
		for _, ve := range validationErrs {
			details = append(details, fieldError{Field: ve.Field, Code: ve.Code, Message: ve.Message})
		}
		s.writeJSON(w, http.StatusBadRequest, errorEnvelope{
			Error:   true,
			Message: "validation failed",
			Details: details,
		})

	case errors.As(err, &validationErr):
		s.writeJSON(w, http.StatusBadRequest, errorEnvelope{
			Error:   true,
			Message: "validation failed",
			Details: []fieldError{{Field: validationErr.Field, Code: validationErr.Code, Message: validationErr.Message}},
		})

	case errors.As(err, &addressErr):
		s.writeMessage(w, http.StatusBadRequest, addressErr.Message)

	case errors.As(err, &insufficient):
		s.writeMessage(w, http.StatusBadRequest, insufficient.Message)

	case errors.As(err, &conflictErr):
		s.writeJSON(w, http.StatusConflict, errorEnvelope{
			Error:   true,
			Message: conflictErr.Error(),
			Details: toReportResponse(conflictErr.Existing),
		})

	case errors.As(err, &external):
		s.writeMessage(w, http.StatusServiceUnavailable, "distance service unavailable, try again later")

	case errors.Is(err, core.ErrNotFound):
		s.writeMessage(w, http.StatusNotFound, "not found")

	case errors.Is(err, services.ErrInvalidCredentials):
		s.writeMessage(w, http.StatusUnauthorized, "invalid credentials")

	default:
		log.FromContext(ctx).ErrorContext(ctx, "request failed",
			log.FieldError, err.Error())
		s.writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
