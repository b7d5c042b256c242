package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "disaster_admin_"

	ResultSuccess = "success"
	ResultError   = "error"
)

// Collectors are created at package init. Init only registers them, so
// values observed before Init are exported once it runs.
var (
	registerOnce sync.Once

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "api_requests_total",
			Help: "Remote API calls by method, route and result",
		},
		[]string{"method", "route", "result"},
	)
	apiLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "api_request_duration_seconds",
			Help:    "Remote API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	controllerLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "controller_loads_total",
			Help: "Collection loads by entity kind and outcome (applied, stale, error)",
		},
		[]string{"kind", "outcome"},
	)
)

// Init registers the client metrics with reg. Only the first call has an effect.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(apiRequests, apiLatency, controllerLoads)
	})
}

func ObserveAPICall(method, path string, err error, elapsed time.Duration) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	route := Route(path)
	apiRequests.WithLabelValues(method, route, result).Inc()
	apiLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func ObserveLoad(kind, outcome string) {
	controllerLoads.WithLabelValues(kind, outcome).Inc()
}

// Route reduces a request path to its collection segment so entity ids and
// weather locations do not become label values.
func Route(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexAny(path, "/?"); i >= 0 {
		path = path[:i]
	}
	return "/" + path
}
