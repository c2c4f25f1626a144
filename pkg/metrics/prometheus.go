package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal *prometheus.CounterVec
	tradesTotal  *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	venueErrors  *prometheus.CounterVec
	openTrades   prometheus.Gauge
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainpulse_signals_total",
				Help: "Signals by resulting status transition",
			},
			[]string{"status"},
		),
		tradesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainpulse_trades_total",
				Help: "Trades by lifecycle event",
			},
			[]string{"event", "venue"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		venueErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainpulse_venue_errors_total",
				Help: "Venue gateway call failures",
			},
			[]string{"venue", "op"},
		),
		openTrades: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "chainpulse_open_trades",
				Help: "Number of trades currently open",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chainpulse_operation_duration_seconds",
				Help:    "Duration of loop iterations and store operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignal records a signal status transition.
func (r *Recorder) RecordSignal(status string) {
	r.signalsTotal.WithLabelValues(status).Inc()
}

// RecordTrade records a trade lifecycle event (opened, closed, failed).
func (r *Recorder) RecordTrade(event, venue string) {
	r.tradesTotal.WithLabelValues(event, venue).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordVenueError records a failed gateway call.
func (r *Recorder) RecordVenueError(venue, op string) {
	r.venueErrors.WithLabelValues(venue, op).Inc()
}

// SetOpenTrades records the current open-trade count.
func (r *Recorder) SetOpenTrades(n int64) {
	r.openTrades.Set(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
