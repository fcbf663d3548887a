package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repair_api_http_requests_total",
			Help: "HTTP requests handled, by route and status code",
		},
		[]string{"route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repair_api_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repair_api_quotes_total",
			Help: "Quotes computed, by result",
		},
		[]string{"result"},
	)

	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repair_api_reservations_total",
			Help: "Slot reservation attempts, by result",
		},
		[]string{"result"},
	)

	LedgerLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repair_api_ledger_duration_seconds",
			Help:    "Booking ledger call latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"op"},
	)

	AvailableSlots = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "repair_api_available_slots",
			Help: "Open slots per upcoming date",
		},
		[]string{"date"},
	)
)
