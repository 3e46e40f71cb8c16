// Package subscriberService provides subscriber management functionality for the Pub/Sub system.
package subscriberService

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arvoweaver/streamline-pubsub/internals/config"
	"github.com/arvoweaver/streamline-pubsub/internals/logging"
	"github.com/arvoweaver/streamline-pubsub/internals/models"
	"github.com/arvoweaver/streamline-pubsub/topicManagerService"
)

// SubscriberServiceImpl implements the SubscriberService interface.
type SubscriberServiceImpl struct {
	cfg      *config.Config
	topicMgr topicManagerService.TopicManager

	connsMu sync.Mutex
	conns   map[*websocket.Conn]struct{}
}

// NewSubscriberService creates a new subscriber service with the specified dependencies.
func NewSubscriberService(cfg *config.Config, topicMgr topicManagerService.TopicManager) *SubscriberServiceImpl {
	return &SubscriberServiceImpl{
		cfg:      cfg,
		topicMgr: topicMgr,
		conns:    make(map[*websocket.Conn]struct{}),
	}
}

// Start initializes the service and prepares resources for operation.
func (s *SubscriberServiceImpl) Start() error {
	logging.WithComponent("subscriberService").Info().Msg("starting subscriber service")
	return nil
}

// Shutdown implements the Shutdown Coordinator sequence of spec.md §4.5:
// quiesce new work, broadcast a terminal info frame to every subscriber,
// wait out the drain window (or until ctx is done, whichever is first),
// then deactivate every subscriber and force-close every connection.
func (s *SubscriberServiceImpl) Shutdown(ctx context.Context) error {
	log := logging.WithComponent("subscriberService")
	log.Info().Msg("shutdown: quiescing")
	s.topicMgr.Quiesce()

	log.Info().Msg("shutdown: broadcasting server_shutdown")
	s.topicMgr.BroadcastShutdown(models.InfoServerShutdown)

	log.Info().Dur("drain_window", s.cfg.ShutdownDrainWindow).Msg("shutdown: draining")
	select {
	case <-time.After(s.cfg.ShutdownDrainWindow):
	case <-ctx.Done():
	}

	s.topicMgr.Close()
	s.closeAllConnections()

	log.Info().Msg("shutdown complete")
	return nil
}

// GetTopicManager returns the topic manager used by this service.
func (s *SubscriberServiceImpl) GetTopicManager() topicManagerService.TopicManager {
	return s.topicMgr
}

// RegisterConnection registers a new WebSocket connection so it can be
// force-closed at shutdown.
func (s *SubscriberServiceImpl) RegisterConnection(conn *websocket.Conn) {
	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()
}

// UnregisterConnection removes a WebSocket connection from tracking.
func (s *SubscriberServiceImpl) UnregisterConnection(conn *websocket.Conn) {
	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()
}

// ActiveConnectionCount returns the number of tracked WebSocket connections.
func (s *SubscriberServiceImpl) ActiveConnectionCount() int {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	return len(s.conns)
}

func (s *SubscriberServiceImpl) closeAllConnections() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()

	for conn := range s.conns {
		conn.Close()
		delete(s.conns, conn)
	}
}
