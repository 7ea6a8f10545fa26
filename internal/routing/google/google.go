// Package google implements distance lookup against the Google Maps
// Distance Matrix API.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"kilometri/internal/core"
	"kilometri/internal/log"

	"github.com/shopspring/decimal"
	"googlemaps.github.io/maps"
)

var metersPerKm = decimal.NewFromInt(1000)

// matrixAPI is the slice of the maps client we use; tests substitute a fake.
type matrixAPI interface {
	DistanceMatrix(ctx context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error)
}

type Client struct {
	api     matrixAPI
	timeout time.Duration
	logger  *log.Logger
}

func New(apiKey string, timeout time.Duration, logger *log.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("google maps api key is not configured")
	}
	api, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &Client{
		api:     api,
		timeout: timeout,
		logger:  logger.WithComponent(log.ComponentRouting),
	}, nil
}

// routePayload is what gets persisted alongside automatic trips.
type routePayload struct {
	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	DistanceMeters  int64  `json:"distance_meters"`
	DurationSeconds int64  `json:"duration_seconds"`
	Status          string `json:"status"`
}

// Distance queries the Distance Matrix API for a single origin/destination
// pair in driving mode with metric units.
func (c *Client) Distance(ctx context.Context, startAddress, endAddress string) (core.DistanceResult, error) {
	startAddress = strings.TrimSpace(startAddress)
	endAddress = strings.TrimSpace(endAddress)
	if startAddress == "" || endAddress == "" {
		return core.DistanceResult{}, &core.InvalidAddressError{
			Message: "both addresses are required",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{startAddress},
		Destinations: []string{endAddress},
		Mode:         maps.TravelModeDriving,
		Units:        maps.UnitsMetric,
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "distance matrix request failed",
			log.FieldOperation, log.OpLookup, log.FieldError, err.Error())
		return core.DistanceResult{}, &core.ExternalServiceError{
			Message: "distance service is unavailable",
			Err:     err,
		}
	}

	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return core.DistanceResult{}, &core.ExternalServiceError{
			Message: "distance service returned an empty result",
		}
	}

	el := resp.Rows[0].Elements[0]
	switch el.Status {
	case "OK":
		// fall through below
	case "NOT_FOUND":
		return core.DistanceResult{}, &core.InvalidAddressError{
			Message: "one of the addresses could not be found, check the spelling",
		}
	case "ZERO_RESULTS":
		return core.DistanceResult{}, &core.ExternalServiceError{
			Message: "no driving route found between the addresses",
		}
	default:
		return core.DistanceResult{}, &core.ExternalServiceError{
			Message: fmt.Sprintf("distance service returned status %s", el.Status),
		}
	}

	meters := int64(el.Distance.Meters)
	seconds := int64(el.Duration.Seconds())
	km := decimal.NewFromInt(meters).DivRound(metersPerKm, 2)

	origin := startAddress
	if len(resp.OriginAddresses) > 0 && resp.OriginAddresses[0] != "" {
		origin = resp.OriginAddresses[0]
	}
	destination := endAddress
	if len(resp.DestinationAddresses) > 0 && resp.DestinationAddresses[0] != "" {
		destination = resp.DestinationAddresses[0]
	}

	payload, err := json.Marshal(routePayload{
		Origin:          origin,
		Destination:     destination,
		DistanceMeters:  meters,
		DurationSeconds: seconds,
		Status:          el.Status,
	})
	if err != nil {
		return core.DistanceResult{}, fmt.Errorf("marshal route payload: %w", err)
	}

	c.logger.InfoContext(ctx, "distance resolved",
		log.FieldOperation, log.OpLookup,
		log.FieldStartAddress, origin,
		log.FieldEndAddress, destination,
		log.FieldDistanceKm, km.String())

	return core.DistanceResult{
		DistanceKm:      km,
		DistanceMeters:  meters,
		DurationSeconds: seconds,
		StartAddress:    origin,
		EndAddress:      destination,
		RouteData:       payload,
	}, nil
}
