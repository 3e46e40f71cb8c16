// Package subscriber implements the Subscriber Session: a single
// connected consumer of one topic, with a bounded FIFO delivery queue
// and a drop-oldest (or disconnect) overflow policy.
//
// The Subscriber is deliberately transport-agnostic: it enqueues and
// dequeues DeliveryFrame values and knows nothing about WebSocket
// connections or JSON framing beyond the Transport handle it holds for
// the rare direct-emit paths (topic deletion and shutdown notices,
// overflow-disconnect). The teacher's equivalent type fused the queue,
// the overflow policy, and the WebSocket writer goroutine into one
// struct; here they're split along the lines spec.md draws between the
// Subscriber Session and the Delivery Pump/transport.
package subscriber

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/arvoweaver/streamline-pubsub/internals/logging"
	"github.com/arvoweaver/streamline-pubsub/internals/models"
)

// Overflow policies. DropOldest is the spec default; Disconnect is the
// reserved alternative (slow_consumer).
const (
	PolicyDropOldest = "DROP_OLDEST"
	PolicyDisconnect = "DISCONNECT"
)

// EnqueueResult is the outcome of a non-blocking Enqueue call.
type EnqueueResult int

const (
	// Delivered means the frame was inserted with free capacity to spare.
	Delivered EnqueueResult = iota
	// DroppedOldest means the queue was full, the oldest entry was
	// evicted, and the new frame was inserted in its place.
	DroppedOldest
	// Rejected means the frame was not enqueued at all: the subscriber
	// was inactive, or the drop/insert sequence itself failed.
	Rejected
)

// Transport is the minimal capability a Subscriber needs outside of its
// own queue: the ability to emit a server frame directly, bypassing the
// queue. Used for topic-deletion/shutdown notices and for the
// overflow-disconnect policy. The WebSocket implementation lives in
// internals/transport.
type Transport interface {
	Emit(models.ServerMsg) error
}

// Subscriber represents a single connected consumer of one topic.
type Subscriber struct {
	ClientID  string
	Transport Transport

	policy string
	queue  chan models.DeliveryFrame
	active atomic.Bool
	done   chan struct{}

	closeOnce sync.Once
}

// NewSubscriber creates a subscriber with the given queue capacity (Q)
// and overflow policy. A non-positive capacity falls back to the
// spec's documented default of 100.
func NewSubscriber(clientID string, transport Transport, capacity int, policy string) *Subscriber {
	if capacity <= 0 {
		capacity = 100
	}
	if policy == "" {
		policy = PolicyDropOldest
	}

	s := &Subscriber{
		ClientID:  clientID,
		Transport: transport,
		policy:    policy,
		queue:     make(chan models.DeliveryFrame, capacity),
		done:      make(chan struct{}),
	}
	s.active.Store(true)
	return s
}

// Enqueue attempts a non-blocking insert of frame into the subscriber's
// queue, applying the configured overflow policy when full (§4.1).
func (s *Subscriber) Enqueue(frame models.DeliveryFrame) EnqueueResult {
	if !s.active.Load() {
		return Rejected
	}

	select {
	case s.queue <- frame:
		return Delivered
	default:
	}

	if s.policy == PolicyDisconnect {
		s.disconnectOnOverflow(frame)
		return Rejected
	}

	return s.dropOldestAndInsert(frame)
}

// dropOldestAndInsert discards the head of the queue and inserts frame
// at the tail, per the DROP_OLDEST policy. Both steps are non-blocking;
// if the second step still fails (another producer raced in and
// refilled the freed slot), the frame is rejected rather than delivered.
func (s *Subscriber) dropOldestAndInsert(frame models.DeliveryFrame) EnqueueResult {
	select {
	case <-s.queue:
	default:
	}

	select {
	case s.queue <- frame:
		logging.WithClient(s.ClientID).Warn().
			Str("topic", frame.Topic).
			Msg("dropped oldest queued message: subscriber queue full")
		return DroppedOldest
	default:
		return Rejected
	}
}

// disconnectOnOverflow implements the DISCONNECT policy: best-effort
// notify the client with a slow_consumer error, deactivate, then close
// the transport when it supports closing.
func (s *Subscriber) disconnectOnOverflow(frame models.DeliveryFrame) {
	logging.WithClient(s.ClientID).Warn().
		Str("topic", frame.Topic).
		Msg("disconnecting subscriber: queue overflow under DISCONNECT policy")

	if s.Transport != nil {
		errMsg := models.NewServerError("", models.CodeSlowConsumer, "subscriber queue overflow")
		if err := s.Transport.Emit(*errMsg); err != nil {
			logging.WithClient(s.ClientID).Error().Err(err).Msg("failed to emit slow_consumer notice")
		}
	}
	s.Deactivate()

	if closer, ok := s.Transport.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logging.WithClient(s.ClientID).Error().Err(err).Msg("failed to close transport after overflow")
		}
	}
}

// Next blocks until a frame is available, the context is cancelled, or
// the subscriber is deactivated. On deactivation it performs one final
// non-blocking drain attempt so already-queued frames aren't silently
// lost, then returns ok=false.
func (s *Subscriber) Next(ctx context.Context) (models.DeliveryFrame, bool) {
	select {
	case f := <-s.queue:
		return f, true
	case <-ctx.Done():
		return models.DeliveryFrame{}, false
	case <-s.done:
		select {
		case f := <-s.queue:
			return f, true
		default:
			return models.DeliveryFrame{}, false
		}
	}
}

// Deactivate marks the subscriber inactive. Subsequent Enqueue calls
// reject, and a blocked Next call unblocks (see Next's final-drain
// behavior). Safe to call more than once.
func (s *Subscriber) Deactivate() {
	s.closeOnce.Do(func() {
		s.active.Store(false)
		close(s.done)
	})
}

// IsActive reports whether the subscriber still accepts deliveries.
func (s *Subscriber) IsActive() bool {
	return s.active.Load()
}

// Len returns the current queue length, for diagnostics and tests of
// the |queue| <= Q invariant.
func (s *Subscriber) Len() int {
	return len(s.queue)
}

// GetClientID returns the subscriber's client identifier.
func (s *Subscriber) GetClientID() string {
	return s.ClientID
}
