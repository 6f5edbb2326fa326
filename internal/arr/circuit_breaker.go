// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

package arr

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/corsarr/corsarr/internal/logging"
	"github.com/corsarr/corsarr/internal/metrics"
)

// Ensure CircuitBreakerClient implements API
var _ API = (*CircuitBreakerClient)(nil)

// CircuitBreakerClient wraps a Client with the circuit breaker pattern,
// preventing cascading failures when a media manager is unavailable or
// slow. The breaker uses real time for its interval and timeout
// calculations.
type CircuitBreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewCircuitBreakerClient creates a breaker-guarded client.
// Circuit breaker configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
func NewCircuitBreakerClient(client *Client) *CircuitBreakerClient {
	cbName := string(client.Service()) + "-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Str("breaker", cbName).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("Opening media manager circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: cbName}
}

// Service returns which media manager the wrapped client talks to.
func (cbc *CircuitBreakerClient) Service() Service {
	return cbc.client.Service()
}

func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		}
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	return result, nil
}

// Lookup searches the service with circuit breaker protection.
func (cbc *CircuitBreakerClient) Lookup(ctx context.Context, term string) (*LookupResult, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.Lookup(ctx, term)
	})
	if err != nil {
		return nil, err
	}
	res, ok := result.(*LookupResult)
	if !ok {
		return nil, errors.New("circuit breaker: unexpected result type for Lookup")
	}
	return res, nil
}

// Add adds content with circuit breaker protection.
func (cbc *CircuitBreakerClient) Add(ctx context.Context, contentID int64) (*AddedContent, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.Add(ctx, contentID)
	})
	if err != nil {
		return nil, err
	}
	added, ok := result.(*AddedContent)
	if !ok {
		return nil, errors.New("circuit breaker: unexpected result type for Add")
	}
	return added, nil
}

// Queue fetches the download queue with circuit breaker protection.
func (cbc *CircuitBreakerClient) Queue(ctx context.Context) ([]QueueItem, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.Queue(ctx)
	})
	if err != nil {
		return nil, err
	}
	items, ok := result.([]QueueItem)
	if !ok {
		return nil, errors.New("circuit breaker: unexpected result type for Queue")
	}
	return items, nil
}

// Item fetches a library item detail with circuit breaker protection.
func (cbc *CircuitBreakerClient) Item(ctx context.Context, localID int64) (*ItemDetail, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.Item(ctx, localID)
	})
	if err != nil {
		return nil, err
	}
	detail, ok := result.(*ItemDetail)
	if !ok {
		return nil, errors.New("circuit breaker: unexpected result type for Item")
	}
	return detail, nil
}

// State returns the current circuit breaker state.
func (cbc *CircuitBreakerClient) State() gobreaker.State {
	return cbc.cb.State()
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
