package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Set groups the counters the engine reports. Construct one per registry so
// tests can use isolated registries.
type Set struct {
	OrdersAdded     prometheus.Counter
	OrdersCancelled prometheus.Counter
	OrdersAmended   prometheus.Counter
	OrdersRejected  prometheus.Counter
	DepthRequests   prometheus.Counter
	DepthCacheHits  prometheus.Counter
}

func NewSet(reg prometheus.Registerer) *Set {
	factory := promauto.With(reg)
	return &Set{
		OrdersAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookcore_orders_added_total",
			Help: "Orders accepted into the book.",
		}),
		OrdersCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookcore_orders_cancelled_total",
			Help: "Orders removed from the book by cancel or amend.",
		}),
		OrdersAmended: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookcore_orders_amended_total",
			Help: "Amend operations applied to resting orders.",
		}),
		OrdersRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookcore_orders_rejected_total",
			Help: "Order submissions rejected before reaching the book.",
		}),
		DepthRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookcore_depth_requests_total",
			Help: "Depth snapshot requests served.",
		}),
		DepthCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookcore_depth_cache_hits_total",
			Help: "Depth requests answered from the cache.",
		}),
	}
}
