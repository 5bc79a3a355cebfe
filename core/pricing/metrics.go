package pricing

import "github.com/prometheus/client_golang/prometheus"

var (
	resolutions    *prometheus.CounterVec
	resolveLatency *prometheus.HistogramVec
	resolverErrors *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.HistogramVec, *prometheus.CounterVec) {
	res := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_resolutions_total",
			Help: "Resolved prices by waterfall branch",
		},
		[]string{"source"},
	)
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricing_resolution_duration_seconds",
			Help:    "Time spent resolving a price",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
	errs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_resolver_errors_total",
			Help: "Data source failures recovered by the resolver",
		},
		[]string{"step"},
	)
	return res, lat, errs
}

func init() {
	resolutions, resolveLatency, resolverErrors = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers resolver metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(resolutions, resolveLatency, resolverErrors)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	resolutions, resolveLatency, resolverErrors = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
