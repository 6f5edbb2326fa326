// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

// Package metrics exposes Prometheus instrumentation for the bot:
// account lifecycle, request tracking, reconciliation, and the circuit
// breakers guarding the remote media services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Account lifecycle

	AccountsProvisioned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corsarr_accounts_provisioned_total",
			Help: "Total number of temporary Jellyfin accounts provisioned",
		},
	)

	SweepRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corsarr_sweep_runs_total",
			Help: "Total number of account expiry sweep passes",
		},
	)

	SweepDeletedAccounts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corsarr_sweep_deleted_accounts_total",
			Help: "Total number of expired accounts deleted by the sweeper",
		},
	)

	SweepFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corsarr_sweep_failures_total",
			Help: "Total number of per-account deletion failures retained for retry",
		},
	)

	// Request tracking

	RequestsTracked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corsarr_requests_tracked_total",
			Help: "Total number of content requests recorded",
		},
		[]string{"service"}, // "radarr" or "sonarr"
	)

	RequestsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corsarr_requests_completed_total",
			Help: "Total number of tracked requests pruned after the remote reported a finished download",
		},
	)

	Reconciliations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corsarr_reconciliations_total",
			Help: "Total number of status reconciliation passes",
		},
	)

	// Circuit breakers around the remote media services

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "corsarr_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"breaker"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corsarr_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"breaker", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corsarr_circuit_breaker_requests_total",
			Help: "Total number of requests through each circuit breaker by outcome",
		},
		[]string{"breaker", "outcome"}, // outcome: "success", "failure", "rejected"
	)
)
