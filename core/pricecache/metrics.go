package pricecache

import "github.com/prometheus/client_golang/prometheus"

var (
	cacheLookups *prometheus.CounterVec
	cacheWrites  *prometheus.CounterVec
	storeErrors  *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, *prometheus.CounterVec) {
	lookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_cache_lookups_total",
			Help: "Cache lookups by partition, tier and outcome",
		},
		[]string{"partition", "tier", "outcome"},
	)
	writes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_cache_writes_total",
			Help: "Cache writes by partition and tier",
		},
		[]string{"partition", "tier"},
	)
	errs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_cache_store_errors_total",
			Help: "Persistent store failures swallowed by the cache",
		},
		[]string{"partition", "op"},
	)
	return lookups, writes, errs
}

func init() {
	cacheLookups, cacheWrites, storeErrors = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers cache metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(cacheLookups, cacheWrites, storeErrors)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	cacheLookups, cacheWrites, storeErrors = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
