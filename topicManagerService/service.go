// Package topicManagerService provides topic management functionality for the Pub/Sub system.
package topicManagerService

import (
	"time"

	"github.com/arvoweaver/streamline-pubsub/internals/broker"
	"github.com/arvoweaver/streamline-pubsub/internals/config"
	"github.com/arvoweaver/streamline-pubsub/internals/metrics"
	"github.com/arvoweaver/streamline-pubsub/internals/models"
	"github.com/arvoweaver/streamline-pubsub/internals/subscriber"
	"github.com/arvoweaver/streamline-pubsub/internals/topic"
)

// TopicManagerServiceImpl implements the TopicManager interface on top of
// the broker.
type TopicManagerServiceImpl struct {
	broker  *broker.Broker
	cfg     *config.Config
	metrics *metrics.Metrics
}

// NewTopicManagerService creates a new topic manager service with the specified dependencies.
func NewTopicManagerService(b *broker.Broker, cfg *config.Config, m *metrics.Metrics) *TopicManagerServiceImpl {
	return &TopicManagerServiceImpl{
		broker:  b,
		cfg:     cfg,
		metrics: m,
	}
}

// CreateTopic creates a new topic with the specified name.
func (s *TopicManagerServiceImpl) CreateTopic(name string) error {
	_, err := s.broker.CreateTopic(name)
	return err
}

// DeleteTopic deletes a topic with the specified name.
func (s *TopicManagerServiceImpl) DeleteTopic(name string) error {
	return s.broker.DeleteTopic(name)
}

// ListTopics returns a list of all topics with their information.
func (s *TopicManagerServiceImpl) ListTopics() []TopicInfo {
	brokerTopics := s.broker.ListTopics()
	topics := make([]TopicInfo, len(brokerTopics))
	for i, bt := range brokerTopics {
		topics[i] = TopicInfo{
			Name:            bt.Name,
			Subscribers:     bt.Subscribers,
			Messages:        bt.Messages,
			HistoryCapacity: bt.HistoryCapacity,
		}
	}
	return topics
}

// GetTopic returns a topic with the specified name and a boolean indicating if it exists.
func (s *TopicManagerServiceImpl) GetTopic(name string) (*topic.Topic, bool) {
	return s.broker.GetTopic(name)
}

// Stats returns statistics for all topics.
func (s *TopicManagerServiceImpl) Stats() map[string]TopicStats {
	brokerStats := s.broker.Stats()
	stats := make(map[string]TopicStats, len(brokerStats))
	for name, bs := range brokerStats {
		stats[name] = TopicStats{
			Name:            bs.Name,
			Subscribers:     bs.Subscribers,
			Messages:        bs.Messages,
			HistoryCapacity: bs.HistoryCapacity,
		}
	}
	return stats
}

// Uptime reports how long the broker has been running.
func (s *TopicManagerServiceImpl) Uptime() time.Duration {
	return s.broker.Uptime()
}

// Subscribe joins sub to topicName, returning history to replay.
func (s *TopicManagerServiceImpl) Subscribe(topicName string, sub *subscriber.Subscriber, lastN int) ([]models.HistoryEntry, error) {
	return s.broker.Subscribe(topicName, sub, lastN)
}

// Unsubscribe removes clientID's subscription from topicName.
func (s *TopicManagerServiceImpl) Unsubscribe(topicName, clientID string) error {
	return s.broker.Unsubscribe(topicName, clientID)
}

// Publish fans message out to topicName's active subscribers.
func (s *TopicManagerServiceImpl) Publish(topicName string, message models.Message) (int, error) {
	return s.broker.Publish(topicName, message)
}

// Quiesce stops Subscribe/Publish from accepting new work.
func (s *TopicManagerServiceImpl) Quiesce() {
	s.broker.Quiesce()
}

// BroadcastShutdown sends a terminal info frame to every subscriber of every topic.
func (s *TopicManagerServiceImpl) BroadcastShutdown(msg string) {
	s.broker.BroadcastShutdown(msg)
}

// Close deactivates every subscriber on every topic.
func (s *TopicManagerServiceImpl) Close() {
	s.broker.Close()
}
