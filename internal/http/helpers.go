package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kilometri/internal/core"
)

type contextKey string

const requestIDKey contextKey = "request_id"

const maxBodyBytes = 1 << 20 // 1 MiB

// decodeJSON reads and decodes a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	return nil
}

// pathID extracts the {id} path segment as a positive int64.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id in path")
	}
	return id, nil
}

// parseYearMonth extracts year and month query parameters, defaulting to
// the current period when absent. Range validation happens in the service;
// non-numeric values are rejected here.
func parseYearMonth(r *http.Request) (year, month int, err error) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.New("year must be a number")
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if month, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.New("month must be a number")
		}
	}
	return year, month, nil
}

// parseTripFilter builds a listing filter from query parameters.
func parseTripFilter(r *http.Request) (core.TripFilter, error) {
	var filter core.TripFilter
	q := r.URL.Query()

	parseDay := func(param string) (*time.Time, error) {
		v := strings.TrimSpace(q.Get(param))
		if v == "" {
			return nil, nil
		}
		day, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%s must be a YYYY-MM-DD date", param)
		}
		return &day, nil
	}

	var err error
	if filter.Date, err = parseDay("date"); err != nil {
		return core.TripFilter{}, err
	}
	if filter.DateAfter, err = parseDay("date_after"); err != nil {
		return core.TripFilter{}, err
	}
	if filter.DateBefore, err = parseDay("date_before"); err != nil {
		return core.TripFilter{}, err
	}

	if v := strings.TrimSpace(q.Get("is_manual")); v != "" {
		manual, err := strconv.ParseBool(v)
		if err != nil {
			return core.TripFilter{}, errors.New("is_manual must be true or false")
		}
		filter.IsManual = &manual
	}
	return filter, nil
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
