package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Raft metrics
	RaftIsLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticketmesh_raft_is_leader",
			Help: "Whether this node is the Raft leader (1 = leader, 0 = otherwise)",
		},
	)

	RaftTerm = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticketmesh_raft_term",
			Help: "Current Raft term",
		},
	)

	RaftLastLogIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticketmesh_raft_last_log_index",
			Help: "Index of the last entry in the Raft log",
		},
	)

	RaftCommitIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticketmesh_raft_commit_index",
			Help: "Highest log index known to be committed",
		},
	)

	RaftAppliedIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticketmesh_raft_applied_index",
			Help: "Highest log index applied to the state machine",
		},
	)

	RaftElectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketmesh_raft_elections_total",
			Help: "Total number of elections this node has started",
		},
	)

	RaftProposalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketmesh_raft_proposals_total",
			Help: "Total number of proposals by outcome",
		},
		[]string{"outcome"},
	)

	// Booking metrics
	BookingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketmesh_bookings_total",
			Help: "Total number of booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	PaymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketmesh_payments_total",
			Help: "Total number of payment attempts by status",
		},
		[]string{"status"},
	)

	ShowsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticketmesh_shows_total",
			Help: "Total number of shows in the catalog",
		},
	)

	SeatsReserved = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticketmesh_seats_reserved",
			Help: "Total number of reserved seats across all shows",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketmesh_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticketmesh_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// Register registers all metrics with the default Prometheus registry.
// Call once at startup.
func Register() {
	prometheus.MustRegister(
		RaftIsLeader,
		RaftTerm,
		RaftLastLogIndex,
		RaftCommitIndex,
		RaftAppliedIndex,
		RaftElectionsTotal,
		RaftProposalsTotal,
		BookingsTotal,
		PaymentsTotal,
		ShowsTotal,
		SeatsReserved,
		APIRequestsTotal,
		APIRequestDuration,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve starts an HTTP server exposing /metrics and /health on addr.
// It blocks, so callers typically run it in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", HealthHandler)

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

// Timer measures the duration of an operation for a histogram.
type Timer struct {
	start  time.Time
	method string
}

// NewTimer starts a timer for the given API method.
func NewTimer(method string) *Timer {
	return &Timer{start: time.Now(), method: method}
}

// ObserveDuration records the elapsed time.
func (t *Timer) ObserveDuration() {
	APIRequestDuration.WithLabelValues(t.method).Observe(time.Since(t.start).Seconds())
}
