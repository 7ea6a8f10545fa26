// Package routing defines the distance lookup boundary. Implementations
// turn a pair of free-text addresses into a driving distance.
package routing

import (
	"context"

	"kilometri/internal/core"
)

// DistanceCalculator resolves the driving distance between two addresses.
// Implementations return *core.InvalidAddressError when an address cannot
// be resolved and *core.ExternalServiceError for provider failures; no raw
// provider error escapes.
type DistanceCalculator interface {
	Distance(ctx context.Context, startAddress, endAddress string) (core.DistanceResult, error)
}

// Unconfigured stands in when no provider credentials are set. Every
// lookup fails with an ExternalServiceError; the rest of the API keeps
// working with manually entered distances.
type Unconfigured struct{}

func (Unconfigured) Distance(ctx context.Context, startAddress, endAddress string) (core.DistanceResult, error) {
	return core.DistanceResult{}, &core.ExternalServiceError{Message: "distance service is not configured"}
}
