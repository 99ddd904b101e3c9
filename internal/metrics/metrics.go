package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Polls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quakealert_polls_total",
		Help: "Feed polls by result (ok, error)",
	}, []string{"result"})
	EventsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quakealert_events_fetched_total",
		Help: "Events returned by the feed, including already-seen ones",
	})
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quakealert_notifications_total",
		Help: "Notification outcomes (sent, skipped, failed)",
	}, []string{"outcome"})
	PersistErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quakealert_seen_persist_errors_total",
		Help: "Failed writes of the seen-set to durable storage",
	})
	SeenIDs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quakealert_seen_ids",
		Help: "Number of event ids in the seen-set",
	})
	LastPoll = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quakealert_last_poll_timestamp_seconds",
		Help: "Unix time of the last poll attempt",
	})
	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quakealert_fetch_duration_seconds",
		Help:    "Feed request latency",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 9), // 100ms .. ~25s
	})
)
