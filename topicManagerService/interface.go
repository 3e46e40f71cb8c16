// Package topicManagerService provides the interface for topic management
// and broker-facing operations, fronting internals/broker.
package topicManagerService

import (
	"time"

	"github.com/arvoweaver/streamline-pubsub/internals/models"
	"github.com/arvoweaver/streamline-pubsub/internals/subscriber"
	"github.com/arvoweaver/streamline-pubsub/internals/topic"
)

// TopicInfo provides basic information about a topic for listing and monitoring.
type TopicInfo struct {
	Name            string `json:"name"`
	Subscribers     int    `json:"subscribers"`
	Messages        uint64 `json:"messages"`
	HistoryCapacity int    `json:"history_capacity"`
}

// TopicStats provides detailed statistics for a topic.
type TopicStats struct {
	Name            string `json:"name"`
	Subscribers     int    `json:"subscribers"`
	Messages        uint64 `json:"messages"`
	HistoryCapacity int    `json:"history_capacity"`
}

// TopicManager defines the interface for topic management and subscription
// operations. subscriberService depends only on this interface, never on
// internals/broker directly, so the WebSocket layer stays decoupled from
// the broker's concrete registry implementation.
type TopicManager interface {
	// CreateTopic creates a new topic with the specified name.
	// Returns an error if the topic already exists or if the name is invalid.
	CreateTopic(name string) error

	// DeleteTopic deletes a topic and notifies all subscribers.
	// All subscribers are closed and removed from the topic.
	// Returns an error if the topic doesn't exist or if the name is invalid.
	DeleteTopic(name string) error

	// ListTopics returns information about all topics in the system.
	ListTopics() []TopicInfo

	// GetTopic retrieves a topic by name.
	GetTopic(name string) (*topic.Topic, bool)

	// Stats returns detailed statistics for all topics.
	Stats() map[string]TopicStats

	// Uptime reports how long the broker has been running.
	Uptime() time.Duration

	// Subscribe joins sub to topicName, returning up to lastN historical
	// entries to replay. topicName must already exist (via CreateTopic);
	// Subscribe never auto-creates it.
	Subscribe(topicName string, sub *subscriber.Subscriber, lastN int) ([]models.HistoryEntry, error)

	// Unsubscribe removes clientID's subscription from topicName.
	Unsubscribe(topicName, clientID string) error

	// Publish fans message out to topicName's active subscribers.
	Publish(topicName string, message models.Message) (delivered int, err error)

	// Quiesce stops Subscribe/Publish from accepting new work, the
	// first step of the shutdown sequence (spec.md §4.5).
	Quiesce()

	// BroadcastShutdown sends a terminal info frame to every
	// subscriber of every topic.
	BroadcastShutdown(msg string)

	// Close deactivates every subscriber on every topic.
	Close()
}
