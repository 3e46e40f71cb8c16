package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

// Prometheus collectors mirroring the counters in Metrics. Registered
// against the default registry so promhttp.Handler (wired in
// topicManagerService/http) can scrape them directly.
var (
	promTopicsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pubsub_topics_total",
		Help: "Current number of topics in the broker registry.",
	})

	promSubscribersTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pubsub_subscribers_total",
		Help: "Current number of active subscribers across all topics.",
	})

	promPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pubsub_messages_published_total",
		Help: "Total number of messages published, by topic.",
	}, []string{"topic"})

	promDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pubsub_messages_delivered_total",
		Help: "Total number of message deliveries, by topic.",
	}, []string{"topic"})

	promDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pubsub_messages_dropped_total",
		Help: "Total number of deliveries rejected by a subscriber queue, by topic. Drop-oldest evictions are not counted.",
	}, []string{"topic"})

	promTopicSubscribers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pubsub_topic_subscribers",
		Help: "Current number of subscribers, by topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(
		promTopicsTotal,
		promSubscribersTotal,
		promPublished,
		promDelivered,
		promDropped,
		promTopicSubscribers,
	)
}

// Handler returns the HTTP handler that exposes the registered collectors
// in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
