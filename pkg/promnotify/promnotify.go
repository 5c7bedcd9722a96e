// Package promnotify exports notify session activity as Prometheus metrics.
package promnotify

import (
	"github.com/delaneyj/reactnotify/notify"
	"github.com/prometheus/client_golang/prometheus"
)

// Observer is a notify.SessionObserver backed by Prometheus collectors.
type Observer struct {
	started     prometheus.Counter
	ended       prometheus.Counter
	collections prometheus.Counter
	properties  prometheus.Counter
	perSession  prometheus.Histogram
}

var _ notify.SessionObserver = (*Observer)(nil)

// New creates the collectors under namespace and registers them with reg.
// A nil reg skips registration.
func New(namespace string, reg prometheus.Registerer) *Observer {
	o := &Observer{
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Sessions opened.",
		}),
		ended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Sessions that flushed at least one notification.",
		}),
		collections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_notifications_total",
			Help:      "Collection change notifications delivered.",
		}),
		properties: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "property_notifications_total",
			Help:      "Property change notifications delivered.",
		}),
		perSession: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notifications_per_session",
			Help:      "Notifications delivered by one session.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(o.started, o.ended, o.collections, o.properties, o.perSession)
	}
	return o
}

func (o *Observer) SessionStarted(notify.SessionID) {
	o.started.Inc()
}

func (o *Observer) SessionEnded(_ notify.SessionID, stats notify.SessionStats) {
	o.ended.Inc()
	o.collections.Add(float64(stats.CollectionNotifications))
	o.properties.Add(float64(stats.PropertyNotifications))
	o.perSession.Observe(float64(stats.CollectionNotifications + stats.PropertyNotifications))
}
