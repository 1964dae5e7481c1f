package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formtree_cache_requests_total",
			Help: "Tree cache lookups by result (hit or miss)",
		},
		[]string{"result"},
	)

	CatalogReload = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formtree_catalog_reload_total",
			Help: "Catalog reloads by result (changed, unchanged or failed)",
		},
		[]string{"result"},
	)
)

// WriteTextfile dumps the default registry in the text exposition format.
func WriteTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, prometheus.DefaultGatherer)
}
