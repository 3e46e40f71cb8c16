// Package broker implements the Broker component (spec.md §4.3): the
// single registry of all live topics, and — together with its
// Quiesce/BroadcastShutdown methods — the Shutdown Coordinator of
// §4.5. It owns a registry lock guarding the topic map only; once a
// *topic.Topic is found, mutation of its subscriber set and history
// happens under the topic's own lock, never the registry's, per the
// lock hierarchy spec.md §5 requires (registry lock released before
// entering a topic lock, never the reverse).
package broker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/arvoweaver/streamline-pubsub/internals/config"
	"github.com/arvoweaver/streamline-pubsub/internals/logging"
	"github.com/arvoweaver/streamline-pubsub/internals/metrics"
	"github.com/arvoweaver/streamline-pubsub/internals/models"
	"github.com/arvoweaver/streamline-pubsub/internals/subscriber"
	"github.com/arvoweaver/streamline-pubsub/internals/topic"
)

// TopicInfo describes a topic for listing purposes (GET /topics).
type TopicInfo struct {
	Name            string `json:"name"`
	Subscribers     int    `json:"subscribers"`
	Messages        uint64 `json:"messages"`
	HistoryCapacity int    `json:"history_capacity"`
}

// TopicStats carries the same shape as TopicInfo, named separately so
// the control plane's /stats response can evolve independently of
// /topics without breaking either.
type TopicStats struct {
	Name            string `json:"name"`
	Subscribers     int    `json:"subscribers"`
	Messages        uint64 `json:"messages"`
	HistoryCapacity int    `json:"history_capacity"`
}

// Broker owns every topic in the system.
type Broker struct {
	cfg     *config.Config
	metrics *metrics.Metrics

	mu     sync.RWMutex
	topics map[string]*topic.Topic

	startedAt time.Time
	quiescing atomic.Bool
}

// NewBroker creates a Broker bound to cfg and m. m should be the
// process-wide Metrics instance whose counters /metrics exposes; /stats
// and /health read the topic counters directly instead.
func NewBroker(cfg *config.Config, m *metrics.Metrics) *Broker {
	return &Broker{
		cfg:       cfg,
		metrics:   m,
		topics:    make(map[string]*topic.Topic),
		startedAt: time.Now(),
	}
}

// CreateTopic creates a new, empty topic. Returns ErrTopicAlreadyExists
// if name is already registered.
func (b *Broker) CreateTopic(name string) (*topic.Topic, error) {
	if name == "" {
		return nil, ErrInvalidTopicName
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.topics[name]; exists {
		return nil, ErrTopicAlreadyExists
	}

	t := topic.NewTopic(name, b.cfg.TopicHistorySize)
	b.topics[name] = t
	b.metrics.IncTopics()

	logging.WithTopic(name).Info().Msg("topic created")
	return t, nil
}

// DeleteTopic removes a topic, notifying every active subscriber with
// a direct (non-queued) "topic_deleted" info frame before deactivating
// them, per spec.md §4.3/§8. Their connections stay open.
func (b *Broker) DeleteTopic(name string) error {
	if name == "" {
		return ErrInvalidTopicName
	}

	b.mu.Lock()
	t, exists := b.topics[name]
	if !exists {
		b.mu.Unlock()
		return ErrTopicNotFound
	}
	delete(b.topics, name)
	b.mu.Unlock()

	notice := models.NewInfo(name, models.InfoTopicDeleted)
	for _, clientID := range t.ListSubscriberIDs() {
		sub, found := t.GetSubscriber(clientID)
		if !found || sub.Transport == nil {
			continue
		}
		if err := sub.Transport.Emit(*notice); err != nil {
			logging.WithClient(clientID).Warn().Err(err).Msg("failed to emit topic_deleted notice")
		}
	}

	subscriberCount := t.SubscriberCount()
	t.Close()

	b.metrics.DecTopics()
	b.metrics.RemoveTopic(name)

	logging.WithTopic(name).Info().Int("subscribers_closed", subscriberCount).Msg("topic deleted")
	return nil
}

// GetTopic retrieves a topic by name.
func (b *Broker) GetTopic(name string) (*topic.Topic, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, exists := b.topics[name]
	return t, exists
}

// ListTopics returns summary info for every registered topic.
func (b *Broker) ListTopics() []TopicInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	infos := make([]TopicInfo, 0, len(b.topics))
	for name, t := range b.topics {
		infos = append(infos, TopicInfo{
			Name:            name,
			Subscribers:     t.SubscriberCount(),
			Messages:        t.MessageCount(),
			HistoryCapacity: t.HistoryCapacity(),
		})
	}
	return infos
}

// Stats returns per-topic statistics keyed by topic name.
func (b *Broker) Stats() map[string]TopicStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := make(map[string]TopicStats, len(b.topics))
	for name, t := range b.topics {
		stats[name] = TopicStats{
			Name:            name,
			Subscribers:     t.SubscriberCount(),
			Messages:        t.MessageCount(),
			HistoryCapacity: t.HistoryCapacity(),
		}
	}
	return stats
}

// TopicCount returns the number of registered topics.
func (b *Broker) TopicCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics)
}

// TotalSubscriberCount sums active subscribers across all topics.
func (b *Broker) TotalSubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, t := range b.topics {
		total += t.SubscriberCount()
	}
	return total
}

// Uptime reports how long the broker has been running, for /health.
func (b *Broker) Uptime() time.Duration {
	return time.Since(b.startedAt)
}

// Subscribe looks up topicName (it must already exist — spec.md §4.3
// does not auto-vivify on subscribe, only create_topic does) and
// performs a snapshot-then-insert subscription: sub receives up to
// lastN history entries to replay and is registered for live delivery,
// both under one topic-level critical section so no message is ever
// both replayed and delivered live to the same subscriber (spec.md §5).
func (b *Broker) Subscribe(topicName string, sub *subscriber.Subscriber, lastN int) ([]models.HistoryEntry, error) {
	if b.quiescing.Load() {
		return nil, ErrTopicNotFound
	}

	t, exists := b.GetTopic(topicName)
	if !exists {
		return nil, ErrTopicNotFound
	}

	history, err := t.SubscribeSnapshot(sub, lastN)
	if err != nil {
		return nil, err
	}

	b.metrics.IncSubscribers()
	b.metrics.UpdateTopicSubscriberCount(topicName, t.SubscriberCount())
	return history, nil
}

// Unsubscribe removes clientID's subscription from topicName. Returns
// ErrTopicNotFound if the topic doesn't exist.
func (b *Broker) Unsubscribe(topicName, clientID string) error {
	t, exists := b.GetTopic(topicName)
	if !exists {
		return ErrTopicNotFound
	}

	if removed := t.RemoveSubscriber(clientID); removed {
		b.metrics.DecSubscribers()
		b.metrics.UpdateTopicSubscriberCount(topicName, t.SubscriberCount())
	}
	return nil
}

// Publish looks up topicName (publish does not auto-vivify, per
// spec.md §4.3 and §8 scenario 5) and fans message out to every active
// subscriber, mirroring delivered/dropped counts into metrics.
func (b *Broker) Publish(topicName string, message models.Message) (delivered int, err error) {
	if b.quiescing.Load() {
		return 0, ErrTopicNotFound
	}

	t, exists := b.GetTopic(topicName)
	if !exists {
		return 0, ErrTopicNotFound
	}

	delivered, dropped := t.Publish(message)
	b.metrics.IncPublished(topicName)
	b.metrics.IncDelivered(topicName, delivered)
	b.metrics.IncDropped(topicName, dropped)
	return delivered, nil
}

// Quiesce marks the broker as shutting down: Subscribe and Publish
// start rejecting with ErrTopicNotFound, the first step of the
// Shutdown Coordinator sequence in spec.md §4.5.
func (b *Broker) Quiesce() {
	b.quiescing.Store(true)
}

// IsQuiescing reports whether Quiesce has been called.
func (b *Broker) IsQuiescing() bool {
	return b.quiescing.Load()
}

// BroadcastShutdown sends a direct (non-queued) "server_shutdown" info
// frame to every active subscriber across every topic, the second step
// of the Shutdown Coordinator sequence. It does not deactivate anyone;
// callers are expected to allow the configured drain window to elapse
// before calling Close.
func (b *Broker) BroadcastShutdown(msg string) {
	b.mu.RLock()
	topics := make([]*topic.Topic, 0, len(b.topics))
	for _, t := range b.topics {
		topics = append(topics, t)
	}
	b.mu.RUnlock()

	for _, t := range topics {
		notice := models.NewInfo(t.Name, msg)
		for _, clientID := range t.ListSubscriberIDs() {
			sub, found := t.GetSubscriber(clientID)
			if !found || sub.Transport == nil {
				continue
			}
			if err := sub.Transport.Emit(*notice); err != nil {
				logging.WithClient(clientID).Warn().Err(err).Msg("failed to emit server_shutdown notice")
			}
		}
	}
}

// Close deactivates every subscriber on every topic and clears the
// registry. The final step of the Shutdown Coordinator sequence.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	logging.Logger.Info().Int("topics", len(b.topics)).Msg("closing broker")
	for name, t := range b.topics {
		t.Close()
		logging.WithTopic(name).Debug().Msg("topic closed")
	}
	b.topics = make(map[string]*topic.Topic)
}
