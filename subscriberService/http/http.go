// Package http provides HTTP handlers for the subscriber service.
package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/arvoweaver/streamline-pubsub/internals/config"
	"github.com/arvoweaver/streamline-pubsub/subscriberService"
)

// RegisterSubscriberRoutes registers all subscriber service HTTP routes with
// the provided chi router. This function mounts the following endpoints:
//   - GET {cfg.WSPath} - WebSocket endpoint for subscriber connections
func RegisterSubscriberRoutes(r chi.Router, svc subscriberService.SubscriberService, cfg *config.Config) {
	topicManager := svc.GetTopicManager()
	handler := NewWebSocketHandler(topicManager, svc, cfg)
	r.Get(cfg.WSPath, handler.HandleWebSocket)
}
