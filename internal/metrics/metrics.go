package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vetadmin",
			Name:      "backend_requests_total",
			Help:      "Count of backend API calls by table, method and outcome.",
		},
		[]string{"table", "method", "outcome"},
	)

	backendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vetadmin",
			Name:      "backend_request_duration_seconds",
			Help:      "Backend API call latency.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"method"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vetadmin",
			Name:      "cache_lookups_total",
			Help:      "Count of page cache lookups by result.",
		},
		[]string{"result"},
	)

	slotToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vetadmin",
			Name:      "slot_toggles_total",
			Help:      "Count of blocked-slot toggles by action.",
		},
		[]string{"action"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vetadmin",
			Name:      "notifications_total",
			Help:      "Count of push notification requests by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	screenLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vetadmin",
			Name:      "screen_loads_total",
			Help:      "Count of console screen loads by screen and outcome.",
		},
		[]string{"screen", "outcome"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vetadmin",
			Name:      "http_requests_total",
			Help:      "Count of console API requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vetadmin",
			Name:      "record_mutations_total",
			Help:      "Count of record writes by table and action.",
		},
		[]string{"table", "action"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			backendRequests,
			backendLatency,
			cacheLookups,
			slotToggles,
			notifications,
			screenLoads,
			mutations,
			httpRequests,
		)
	})
}

func ObserveBackend(table, method, outcome string, elapsed time.Duration) {
	backendRequests.WithLabelValues(table, method, outcome).Inc()
	backendLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

func IncCache(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

func IncSlotToggle(action string) {
	slotToggles.WithLabelValues(action).Inc()
}

func IncNotification(kind, outcome string) {
	notifications.WithLabelValues(kind, outcome).Inc()
}

func IncScreenLoad(screen, outcome string) {
	screenLoads.WithLabelValues(screen, outcome).Inc()
}

func IncMutation(table, action string) {
	mutations.WithLabelValues(table, action).Inc()
}

func IncHTTP(route string, code int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
