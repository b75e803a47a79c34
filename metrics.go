package bloghost

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	linkbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloghost_linkbacks_total",
			Help: "Linkback submissions by protocol and outcome",
		},
		[]string{"protocol", "outcome"},
	)

	cachePurgesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bloghost_cache_purges_total",
			Help: "Rendered-page cache keys purged by invalidation runs",
		},
	)

	invalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloghost_invalidations_total",
			Help: "Cache invalidation runs by outcome",
		},
		[]string{"outcome"},
	)

	moderationAlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloghost_moderation_alerts_total",
			Help: "Deferred moderation alert jobs by outcome",
		},
		[]string{"outcome"},
	)
)
