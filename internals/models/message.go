// Package models provides data structures for the in-memory Pub/Sub system.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Inbound client frame types (§6).
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FramePublish     = "publish"
	FramePing        = "ping"
)

// Outbound server frame types (§6). FrameConnected is a supplemented
// welcome frame (not named in §6's table) sent once per connection on
// WebSocket upgrade, carrying the generated client_id.
const (
	FrameAck       = "ack"
	FrameEvent     = "event"
	FrameError     = "error"
	FramePong      = "pong"
	FrameInfo      = "info"
	FrameConnected = "connected"
)

// Error codes (§7).
const (
	CodeBadRequest     = "bad_request"
	CodeTopicNotFound  = "topic_not_found"
	CodeSlowConsumer   = "slow_consumer"
	CodeInternal       = "internal"
	CodeDuplicateClient = "duplicate_client_id"
)

// Info lifecycle messages (§4.5, §8).
const (
	InfoTopicDeleted   = "topic_deleted"
	InfoServerShutdown = "server_shutdown"
)

// Message represents a pub/sub message with a UUID identifier and an
// opaque, structurally-unconstrained JSON payload.
type Message struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// ValidateID reports whether the message's ID parses as a UUID, per §3's
// "id must parse as a valid UUID" invariant.
func (m Message) ValidateID() error {
	_, err := uuid.Parse(m.ID)
	return err
}

// NewMessage creates a new Message with the specified ID and payload.
func NewMessage(id string, payload json.RawMessage) Message {
	return Message{ID: id, Payload: payload}
}

// HistoryEntry is one slot in a topic's replay ring: a published message
// paired with the UTC timestamp assigned when Topic.Publish appended it.
type HistoryEntry struct {
	Message Message   `json:"message"`
	Ts      time.Time `json:"ts"`
}

// DeliveryFrame is what fan-out hands to a subscriber's queue: the topic
// name plus the same message/timestamp recorded in history, so the
// enqueue timestamp matches the publish timestamp rather than being
// reassigned at dequeue time.
type DeliveryFrame struct {
	Topic   string    `json:"topic"`
	Message Message   `json:"message"`
	Ts      time.Time `json:"ts"`
}

// WSClientMsg represents an inbound WebSocket client frame, discriminated
// by Type into one of the four shapes named in §6.
type WSClientMsg struct {
	Type      string   `json:"type"`
	Topic     string   `json:"topic,omitempty"`
	ClientID  string   `json:"client_id,omitempty"`
	LastN     int      `json:"last_n,omitempty"`
	Message   *Message `json:"message,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// ServerMsg represents an outbound server frame. At most one of
// Message/Error/Msg/ClientID is populated depending on Type; ack and
// pong frames carry none of them.
type ServerMsg struct {
	Type      string    `json:"type"`
	RequestID string    `json:"request_id,omitempty"`
	Topic     string    `json:"topic,omitempty"`
	Status    string    `json:"status,omitempty"`
	ClientID  string    `json:"client_id,omitempty"`
	Message   *Message  `json:"message,omitempty"`
	Error     *ErrorObj `json:"error,omitempty"`
	Msg       string    `json:"msg,omitempty"`
	Ts        time.Time `json:"ts"`
}

// ErrorObj represents an error with a taxonomy code (§7) and message.
type ErrorObj struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorObj creates a new ErrorObj with the specified code and message.
func NewErrorObj(code, message string) *ErrorObj {
	return &ErrorObj{Code: code, Message: message}
}

// NewServerError creates an "error" ServerMsg carrying the offending
// request_id, if any, so the client can correlate the rejection (§7).
func NewServerError(requestID, code, message string) *ServerMsg {
	return &ServerMsg{
		Type:      FrameError,
		RequestID: requestID,
		Error:     NewErrorObj(code, message),
		Ts:        NowUTC(),
	}
}

// NewAck creates an "ack" ServerMsg for a successful subscribe,
// unsubscribe, or publish.
func NewAck(requestID, topic string) *ServerMsg {
	return &ServerMsg{
		Type:      FrameAck,
		RequestID: requestID,
		Topic:     topic,
		Status:    "ok",
		Ts:        NowUTC(),
	}
}

// NewConnected creates a "connected" welcome ServerMsg carrying the
// generated client_id, sent once per connection on WebSocket upgrade.
func NewConnected(clientID string) *ServerMsg {
	return &ServerMsg{
		Type:     FrameConnected,
		ClientID: clientID,
		Ts:       NowUTC(),
	}
}

// NewPong creates a "pong" ServerMsg in response to a ping.
func NewPong(requestID string) *ServerMsg {
	return &ServerMsg{
		Type:      FramePong,
		RequestID: requestID,
		Ts:        NowUTC(),
	}
}

// NewInfo creates an "info" lifecycle ServerMsg, e.g. topic_deleted or
// server_shutdown (§4.5, §8).
func NewInfo(topic, msg string) *ServerMsg {
	return &ServerMsg{
		Type:  FrameInfo,
		Topic: topic,
		Msg:   msg,
		Ts:    NowUTC(),
	}
}

// NewEvent creates an "event" ServerMsg carrying a delivered message. Ts
// is the frame's enqueue timestamp (established in Topic.Publish), not
// the emission time, so replay and live events stay time-ordered.
func NewEvent(frame DeliveryFrame) *ServerMsg {
	msg := frame.Message
	return &ServerMsg{
		Type:    FrameEvent,
		Topic:   frame.Topic,
		Message: &msg,
		Ts:      frame.Ts,
	}
}

// NewWSClientMsg creates a new WSClientMsg with the specified type.
func NewWSClientMsg(msgType string) *WSClientMsg {
	return &WSClientMsg{Type: msgType}
}

// NewServerMsg creates a new ServerMsg with the specified type and request ID.
func NewServerMsg(msgType, requestID string) *ServerMsg {
	return &ServerMsg{Type: msgType, RequestID: requestID, Ts: NowUTC()}
}

// NowUTC returns the current time in UTC, which time.Time.MarshalJSON
// renders as an ISO-8601 string with a trailing "Z" — the wire format
// every outbound frame's ts field is required to use (§3, §6).
func NowUTC() time.Time {
	return time.Now().UTC()
}
