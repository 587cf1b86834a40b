// Package observability holds the blog's Prometheus collectors and tracing setup.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthEvents counts authentication attempts by event and outcome.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_auth_events_total",
		Help: "Total number of authentication events",
	}, []string{"event", "outcome"})

	// CommentEvents counts comment operations by action.
	CommentEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_comment_events_total",
		Help: "Total number of comment operations",
	}, []string{"action"})

	// CacheLookups counts cache-aside lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_cache_lookups_total",
		Help: "Total number of cache lookups",
	}, []string{"result"})
)

// RecordAuth increments AuthEvents for the given event and outcome.
func RecordAuth(event, outcome string) {
	AuthEvents.WithLabelValues(event, outcome).Inc()
}

// RecordComment increments CommentEvents for action.
func RecordComment(action string) {
	CommentEvents.WithLabelValues(action).Inc()
}
