package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is shared by every cache of a process; each cache labels its series by name.
type Metrics struct {
	Requests  *prometheus.CounterVec
	Refreshes *prometheus.CounterVec
}

// NewMetrics creates and registers the cache metrics on reg.
func NewMetrics(reg prometheus.Registerer, systemName string) *Metrics {
	return &Metrics{
		Requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Subsystem: systemName,
			Name:      "repertoire_cache_requests_total",
			Help:      "Cache lookups, labeled by cache name and the zone the key was in.",
		}, []string{"cache", "zone"}),
		Refreshes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Subsystem: systemName,
			Name:      "repertoire_cache_refreshes_total",
			Help:      "Background refreshes, labeled by cache name and result.",
		}, []string{"cache", "result"}),
	}
}
