package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// CircuitBreakerFetcher wraps a Fetcher with a circuit breaker. Every URL
// this package fetches (PKGBUILD and .SRCINFO) lives under the one AUR
// cgit host, so a fetcher needs exactly one breaker, not a host-keyed map.
type CircuitBreakerFetcher struct {
	fetcher *Fetcher
	breaker *circuit.Breaker
}

// NewCircuitBreakerFetcher creates a new circuit breaker wrapper for a fetcher.
func NewCircuitBreakerFetcher(f *Fetcher) *CircuitBreakerFetcher {
	// Exponential backoff before the breaker lets traffic through again.
	// Trips once the breaker has counted 5 failures (not necessarily
	// consecutive).
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	return &CircuitBreakerFetcher{
		fetcher: f,
		breaker: circuit.NewBreakerWithOptions(&circuit.Options{
			BackOff:    expBackoff,
			ShouldTrip: circuit.ThresholdTripFunc(5),
		}),
	}
}

// Fetch wraps the underlying fetcher's Fetch with circuit breaker logic.
func (cbf *CircuitBreakerFetcher) Fetch(ctx context.Context, fetchURL string) (*Artifact, error) {
	if !cbf.breaker.Ready() {
		return nil, fmt.Errorf("circuit breaker open for cgit host: %w", ErrUpstreamDown)
	}

	var artifact *Artifact
	err := cbf.breaker.Call(func() error {
		var fetchErr error
		artifact, fetchErr = cbf.fetcher.Fetch(ctx, fetchURL)
		return fetchErr
	}, 0)
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

// Head wraps the underlying fetcher's Head with circuit breaker logic.
func (cbf *CircuitBreakerFetcher) Head(ctx context.Context, headURL string) (size int64, contentType string, err error) {
	if !cbf.breaker.Ready() {
		return 0, "", fmt.Errorf("circuit breaker open for cgit host: %w", ErrUpstreamDown)
	}

	err = cbf.breaker.Call(func() error {
		var headErr error
		size, contentType, headErr = cbf.fetcher.Head(ctx, headURL)
		return headErr
	}, 0)
	return size, contentType, err
}

// Tripped reports whether the breaker is currently open, so a caller like
// Client.HealthCheck can fold cgit reachability into the reported
// HealthStatus without making its own probe request.
func (cbf *CircuitBreakerFetcher) Tripped() bool {
	return cbf.breaker.Tripped()
}
