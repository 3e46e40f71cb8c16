// Package subscriberService provides subscriber management functionality for the Pub/Sub system.
package subscriberService

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/arvoweaver/streamline-pubsub/topicManagerService"
)

// SubscriberService defines the interface for managing subscribers and handling WebSocket connections.
// The service depends on TopicManager to locate and mutate topics.
type SubscriberService interface {
	// Start initializes the service and prepares resources for operation.
	Start() error

	// Shutdown runs the shutdown coordinator sequence (spec.md §4.5):
	// quiesce, broadcast a terminal info frame, wait out the configured
	// drain window (bounded by ctx), then deactivate every subscriber
	// and close every registered connection.
	Shutdown(ctx context.Context) error

	// GetTopicManager returns the topic manager used by this service.
	// This is needed for WebSocket handlers to access topic operations.
	GetTopicManager() topicManagerService.TopicManager

	// RegisterConnection and UnregisterConnection track live WebSocket
	// connections so Shutdown can force-close whatever the drain window
	// didn't resolve.
	RegisterConnection(conn *websocket.Conn)
	UnregisterConnection(conn *websocket.Conn)

	// ActiveConnectionCount reports the number of live WebSocket
	// connections, surfaced on GET /health alongside the topic-level
	// subscriber counts.
	ActiveConnectionCount() int
}
