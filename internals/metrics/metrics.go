// Package metrics provides metrics collection and reporting for the Pub/Sub system.
//
// The JSON /stats and /health control-plane responses read topic-level
// counters directly off broker.Broker / topic.Topic (message_count,
// subscriber counts) rather than through this package. This package exists
// for the numbers those two endpoints don't carry — per-topic
// published/delivered/dropped breakdowns — and every mutation here is
// mirrored into the Prometheus collectors in prometheus.go so they're
// scrapeable at /metrics.
package metrics

import (
	"sync"
	"sync/atomic"
)

// Metrics tracks various metrics for the Pub/Sub system.
type Metrics struct {
	// Global counters
	totalTopics      uint64
	totalSubscribers uint64
	totalMessages    uint64
	totalDropped     uint64

	// Per-topic metrics
	mu     sync.RWMutex
	topics map[string]*TopicMetrics
}

// TopicMetrics tracks metrics for a specific topic.
type TopicMetrics struct {
	Name        string
	Published   uint64
	Delivered   uint64
	Dropped     uint64
	Subscribers uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		topics: make(map[string]*TopicMetrics),
	}
}

// IncPublished increments the published message counter for a topic.
func (m *Metrics) IncPublished(topic string) {
	atomic.AddUint64(&m.totalMessages, 1)

	m.mu.Lock()
	if m.topics[topic] == nil {
		m.topics[topic] = &TopicMetrics{Name: topic}
	}
	m.topics[topic].Published++
	m.mu.Unlock()

	promPublished.WithLabelValues(topic).Inc()
}

// IncDelivered increments the delivered message counter for a topic.
func (m *Metrics) IncDelivered(topic string, n int) {
	if n <= 0 {
		return
	}

	atomic.AddUint64(&m.totalMessages, uint64(n))

	m.mu.Lock()
	if m.topics[topic] == nil {
		m.topics[topic] = &TopicMetrics{Name: topic}
	}
	m.topics[topic].Delivered += uint64(n)
	m.mu.Unlock()

	promDelivered.WithLabelValues(topic).Add(float64(n))
}

// IncDropped increments the dropped message counter for a topic.
func (m *Metrics) IncDropped(topic string, n int) {
	if n <= 0 {
		return
	}

	atomic.AddUint64(&m.totalDropped, uint64(n))

	m.mu.Lock()
	if m.topics[topic] == nil {
		m.topics[topic] = &TopicMetrics{Name: topic}
	}
	m.topics[topic].Dropped += uint64(n)
	m.mu.Unlock()

	promDropped.WithLabelValues(topic).Add(float64(n))
}

// IncTopics increments the total topics counter.
func (m *Metrics) IncTopics() {
	atomic.AddUint64(&m.totalTopics, 1)
	promTopicsTotal.Set(float64(atomic.LoadUint64(&m.totalTopics)))
}

// DecTopics decrements the total topics counter.
func (m *Metrics) DecTopics() {
	atomic.AddUint64(&m.totalTopics, ^uint64(0))
	promTopicsTotal.Set(float64(atomic.LoadUint64(&m.totalTopics)))
}

// IncSubscribers increments the total subscribers counter.
func (m *Metrics) IncSubscribers() {
	atomic.AddUint64(&m.totalSubscribers, 1)
	promSubscribersTotal.Set(float64(atomic.LoadUint64(&m.totalSubscribers)))
}

// DecSubscribers decrements the total subscribers counter.
func (m *Metrics) DecSubscribers() {
	atomic.AddUint64(&m.totalSubscribers, ^uint64(0))
	promSubscribersTotal.Set(float64(atomic.LoadUint64(&m.totalSubscribers)))
}

// UpdateTopicSubscriberCount updates the subscriber count for a specific topic.
func (m *Metrics) UpdateTopicSubscriberCount(topic string, count int) {
	if count < 0 {
		count = 0
	}

	m.mu.Lock()
	if m.topics[topic] == nil {
		m.topics[topic] = &TopicMetrics{Name: topic}
	}
	m.topics[topic].Subscribers = uint64(count)
	m.mu.Unlock()

	promTopicSubscribers.WithLabelValues(topic).Set(float64(count))
}

// RemoveTopic removes metrics for a specific topic.
func (m *Metrics) RemoveTopic(topic string) {
	m.mu.Lock()
	delete(m.topics, topic)
	m.mu.Unlock()

	promTopicSubscribers.DeleteLabelValues(topic)
}

