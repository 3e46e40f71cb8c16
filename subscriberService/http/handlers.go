// Package http provides HTTP handlers for the subscriber service.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/arvoweaver/streamline-pubsub/internals/broker"
	"github.com/arvoweaver/streamline-pubsub/internals/config"
	"github.com/arvoweaver/streamline-pubsub/internals/logging"
	"github.com/arvoweaver/streamline-pubsub/internals/models"
	"github.com/arvoweaver/streamline-pubsub/internals/pump"
	"github.com/arvoweaver/streamline-pubsub/internals/subscriber"
	"github.com/arvoweaver/streamline-pubsub/internals/topic"
	"github.com/arvoweaver/streamline-pubsub/internals/transport"
	"github.com/arvoweaver/streamline-pubsub/subscriberService"
	"github.com/arvoweaver/streamline-pubsub/topicManagerService"
)

// WebSocketHandler manages WebSocket connections and handles client messages.
type WebSocketHandler struct {
	topicManager topicManagerService.TopicManager
	svc          subscriberService.SubscriberService
	cfg          *config.Config
	upgrader     websocket.Upgrader
}

// connectionInfo tracks one WebSocket connection's subscriptions, keyed
// by topic name. Each connection gets a default client_id generated at
// upgrade time; a subscribe/unsubscribe frame may override it by
// supplying its own client_id. Publish frames do not use a client_id.
type connectionInfo struct {
	defaultClientID string
	cancel          context.CancelFunc

	mu   sync.Mutex
	subs map[string]*subscriber.Subscriber // topic -> subscriber
}

// NewWebSocketHandler creates a new WebSocket handler with the specified dependencies.
func NewWebSocketHandler(topicManager topicManagerService.TopicManager, svc subscriberService.SubscriberService, cfg *config.Config) *WebSocketHandler {
	return &WebSocketHandler{
		topicManager: topicManager,
		svc:          svc,
		cfg:          cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for now
			},
		},
	}
}

// HandleWebSocket upgrades the HTTP request to WebSocket and handles the connection.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.svc.RegisterConnection(conn)
	defer func() {
		h.svc.UnregisterConnection(conn)
		conn.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitter := transport.NewEmitter(conn, h.cfg.WriteTimeout)
	connInfo := &connectionInfo{
		defaultClientID: uuid.NewString(),
		cancel:          cancel,
		subs:            make(map[string]*subscriber.Subscriber),
	}
	defer h.cleanupConnection(connInfo)

	log := logging.WithClient(connInfo.defaultClientID)
	log.Info().Msg("WebSocket connection established")

	if err := emitter.Emit(*models.NewConnected(connInfo.defaultClientID)); err != nil {
		log.Warn().Err(err).Msg("failed to send connected frame")
		return
	}

	h.handleMessages(ctx, conn, emitter, connInfo)
}

// handleMessages reads and dispatches incoming WebSocket frames until the
// connection errors out or closes.
func (h *WebSocketHandler) handleMessages(ctx context.Context, conn *websocket.Conn, emitter *transport.Emitter, connInfo *connectionInfo) {
	log := logging.WithClient(connInfo.defaultClientID)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}

		var clientMsg models.WSClientMsg
		if err := json.Unmarshal(raw, &clientMsg); err != nil {
			h.sendError(emitter, "", models.CodeBadRequest, "malformed JSON frame")
			continue
		}

		switch clientMsg.Type {
		case models.FrameSubscribe:
			h.handleSubscribe(ctx, emitter, connInfo, &clientMsg)
		case models.FrameUnsubscribe:
			h.handleUnsubscribe(emitter, connInfo, &clientMsg)
		case models.FramePublish:
			h.handlePublish(emitter, &clientMsg)
		case models.FramePing:
			h.handlePing(emitter, &clientMsg)
		default:
			h.sendError(emitter, clientMsg.RequestID, models.CodeBadRequest, fmt.Sprintf("unknown frame type %q", clientMsg.Type))
		}
	}
}

func (h *WebSocketHandler) resolveClientID(connInfo *connectionInfo, msg *models.WSClientMsg) string {
	if msg.ClientID != "" {
		return msg.ClientID
	}
	return connInfo.defaultClientID
}

// handleSubscribe handles subscription requests: it creates a
// Subscriber, registers it with the broker (snapshot-then-insert), and
// starts a delivery pump. The history snapshot is replayed directly
// over the transport before the pump begins draining live frames, so
// the replay/live ordering law holds: no message is ever delivered
// both as replay and as a live event.
func (h *WebSocketHandler) handleSubscribe(ctx context.Context, emitter *transport.Emitter, connInfo *connectionInfo, msg *models.WSClientMsg) {
	if msg.Topic == "" {
		h.sendError(emitter, msg.RequestID, models.CodeBadRequest, "topic is required")
		return
	}

	clientID := h.resolveClientID(connInfo, msg)

	connInfo.mu.Lock()
	if _, exists := connInfo.subs[msg.Topic]; exists {
		connInfo.mu.Unlock()
		h.sendAck(emitter, msg.RequestID, msg.Topic)
		return
	}
	connInfo.mu.Unlock()

	sub := subscriber.NewSubscriber(clientID, emitter, h.cfg.MaxSubscriberQueueSize, h.cfg.OverflowPolicy)

	history, err := h.topicManager.Subscribe(msg.Topic, sub, msg.LastN)
	if err != nil {
		switch err {
		case broker.ErrTopicNotFound:
			h.sendError(emitter, msg.RequestID, models.CodeTopicNotFound, fmt.Sprintf("topic %q not found", msg.Topic))
		case topic.ErrDuplicateSubscriber:
			h.sendError(emitter, msg.RequestID, models.CodeDuplicateClient, fmt.Sprintf("client_id %q already subscribed to %q", clientID, msg.Topic))
		default:
			h.sendError(emitter, msg.RequestID, models.CodeInternal, "internal error")
		}
		return
	}

	connInfo.mu.Lock()
	connInfo.subs[msg.Topic] = sub
	connInfo.mu.Unlock()

	h.sendAck(emitter, msg.RequestID, msg.Topic)

	for _, entry := range history {
		event := models.NewEvent(models.DeliveryFrame{Topic: msg.Topic, Message: entry.Message, Ts: entry.Ts})
		if err := emitter.Emit(*event); err != nil {
			logging.WithClient(clientID).Warn().Err(err).Str("topic", msg.Topic).Msg("failed to replay history entry")
			return
		}
	}

	go pump.Run(ctx, sub, emitter)

	logging.WithClient(clientID).Info().Str("topic", msg.Topic).Int("replayed", len(history)).Msg("subscribed")
}

// handleUnsubscribe handles unsubscription requests.
func (h *WebSocketHandler) handleUnsubscribe(emitter *transport.Emitter, connInfo *connectionInfo, msg *models.WSClientMsg) {
	if msg.Topic == "" {
		h.sendError(emitter, msg.RequestID, models.CodeBadRequest, "topic is required")
		return
	}

	clientID := h.resolveClientID(connInfo, msg)

	connInfo.mu.Lock()
	delete(connInfo.subs, msg.Topic)
	connInfo.mu.Unlock()

	if err := h.topicManager.Unsubscribe(msg.Topic, clientID); err != nil {
		h.sendError(emitter, msg.RequestID, models.CodeTopicNotFound, fmt.Sprintf("topic %q not found", msg.Topic))
		return
	}

	h.sendAck(emitter, msg.RequestID, msg.Topic)
	logging.WithClient(clientID).Info().Str("topic", msg.Topic).Msg("unsubscribed")
}

// handlePublish handles publish requests.
func (h *WebSocketHandler) handlePublish(emitter *transport.Emitter, msg *models.WSClientMsg) {
	if msg.Topic == "" {
		h.sendError(emitter, msg.RequestID, models.CodeBadRequest, "topic is required")
		return
	}
	if msg.Message == nil {
		h.sendError(emitter, msg.RequestID, models.CodeBadRequest, "message is required")
		return
	}
	if err := msg.Message.ValidateID(); err != nil {
		h.sendError(emitter, msg.RequestID, models.CodeBadRequest, "message.id must be a valid UUID")
		return
	}

	delivered, err := h.topicManager.Publish(msg.Topic, *msg.Message)
	if err != nil {
		h.sendError(emitter, msg.RequestID, models.CodeTopicNotFound, fmt.Sprintf("topic %q not found", msg.Topic))
		return
	}

	h.sendAck(emitter, msg.RequestID, msg.Topic)
	logging.WithTopic(msg.Topic).Debug().Int("delivered", delivered).Msg("published")
}

// handlePing responds to ping messages with pong.
func (h *WebSocketHandler) handlePing(emitter *transport.Emitter, msg *models.WSClientMsg) {
	if err := emitter.Emit(*models.NewPong(msg.RequestID)); err != nil {
		logging.Logger.Warn().Err(err).Msg("failed to emit pong")
	}
}

func (h *WebSocketHandler) sendAck(emitter *transport.Emitter, requestID, topicName string) {
	if err := emitter.Emit(*models.NewAck(requestID, topicName)); err != nil {
		logging.Logger.Warn().Err(err).Msg("failed to emit ack")
	}
}

func (h *WebSocketHandler) sendError(emitter *transport.Emitter, requestID, code, message string) {
	if err := emitter.Emit(*models.NewServerError(requestID, code, message)); err != nil {
		logging.Logger.Warn().Err(err).Msg("failed to emit error frame")
	}
}

// cleanupConnection unsubscribes every topic this connection still holds
// and cancels its delivery pumps.
func (h *WebSocketHandler) cleanupConnection(connInfo *connectionInfo) {
	connInfo.cancel()

	connInfo.mu.Lock()
	defer connInfo.mu.Unlock()

	for topicName, sub := range connInfo.subs {
		if err := h.topicManager.Unsubscribe(topicName, sub.GetClientID()); err != nil {
			logging.WithClient(sub.GetClientID()).Debug().Str("topic", topicName).Msg("unsubscribe on cleanup found topic already gone")
		}
	}
	connInfo.subs = make(map[string]*subscriber.Subscriber)

	logging.WithClient(connInfo.defaultClientID).Info().Msg("connection cleaned up")
}
