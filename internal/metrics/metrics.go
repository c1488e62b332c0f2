// Package metrics holds the Prometheus collectors of the mock server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blast"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency including simulated delay.",
		Buckets:   []float64{.01, .05, .1, .25, .5, .75, 1, 2.5},
	}, []string{"method", "route"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})

	IdempotentReplays = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Responses replayed for a repeated Idempotency-Key.",
	})

	CodesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_codes_issued_total",
		Help:      "Verification codes issued by delivery method.",
	}, []string{"method"})

	CodeChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_code_checks_total",
		Help:      "Verification code checks by outcome.",
	}, []string{"outcome"})

	CampaignsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "campaigns_created_total",
		Help:      "Campaigns created by package type and payment mode.",
	}, []string{"package_type", "payment_mode"})

	OrdersProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_processed_total",
		Help:      "Checkouts that produced an order.",
	})
)

// Code check outcomes.
const (
	OutcomeVerified  = "verified"
	OutcomeMismatch  = "mismatch"
	OutcomeExhausted = "exhausted"
	OutcomeMissing   = "missing"
)
