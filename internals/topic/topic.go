// Package topic implements the Topic component (spec.md §4.2): a named
// channel holding a subscriber set keyed by client_id and a fixed
// capacity history ring, with publish (history append + fan-out) and
// history(last_n) replay.
package topic

import (
	"sync"
	"sync/atomic"

	"github.com/arvoweaver/streamline-pubsub/internals/models"
	"github.com/arvoweaver/streamline-pubsub/internals/ringbuffer"
	"github.com/arvoweaver/streamline-pubsub/internals/subscriber"
)

// Topic represents a named channel for publishing and subscribing to
// messages. All mutation of the subscriber set, the history ring, and
// the message counter happens under mu, held for the full duration of
// publish/history/add-remove, per the locking hierarchy in spec.md §5.
type Topic struct {
	Name string

	mu   sync.Mutex
	subs map[string]*subscriber.Subscriber
	ring *ringbuffer.RingBuffer

	messageCount uint64 // atomic; monotonic per spec.md §3
}

// NewTopic creates a new topic with the specified name and history
// ring capacity (H).
func NewTopic(name string, historyCap int) *Topic {
	if historyCap <= 0 {
		historyCap = 100
	}
	return &Topic{
		Name: name,
		subs: make(map[string]*subscriber.Subscriber),
		ring: ringbuffer.NewRingBuffer(historyCap),
	}
}

// AddSubscriber inserts sub into the topic's subscriber set. Returns
// ErrDuplicateSubscriber if client_id is already present — see
// DESIGN.md's Open Question decision on re-subscribe.
func (t *Topic) AddSubscriber(sub *subscriber.Subscriber) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addSubscriberLocked(sub)
}

func (t *Topic) addSubscriberLocked(sub *subscriber.Subscriber) error {
	if _, exists := t.subs[sub.ClientID]; exists {
		return ErrDuplicateSubscriber
	}
	t.subs[sub.ClientID] = sub
	return nil
}

// RemoveSubscriber removes and deactivates the subscriber identified by
// clientID. Returns whether a removal occurred.
func (t *Topic) RemoveSubscriber(clientID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	sub, exists := t.subs[clientID]
	if !exists {
		return false
	}
	delete(t.subs, clientID)
	sub.Deactivate()
	return true
}

// SubscribeSnapshot atomically snapshots up to lastN history entries
// and inserts sub into the subscriber set, in that order, under a
// single critical section. This is the ordering spec.md §5 requires to
// guarantee no message is both replayed and delivered live to the same
// subscriber: the snapshot is taken before sub can possibly observe a
// live fan-out.
func (t *Topic) SubscribeSnapshot(sub *subscriber.Subscriber, lastN int) ([]models.HistoryEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.subs[sub.ClientID]; exists {
		return nil, ErrDuplicateSubscriber
	}

	history := t.ring.LastN(lastN)
	if err := t.addSubscriberLocked(sub); err != nil {
		return nil, err
	}
	return history, nil
}

// Publish appends message to the history ring, increments the message
// counter, and fans it out to every currently-active subscriber.
// Returns the number of subscribers that accepted the frame (delivered
// or dropped-oldest) and the number that rejected it outright, per
// spec.md §4.2 step 5.
func (t *Topic) Publish(message models.Message) (delivered int, dropped int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts := models.NowUTC()
	t.ring.Push(models.HistoryEntry{Message: message, Ts: ts})
	atomic.AddUint64(&t.messageCount, 1)

	for _, sub := range t.subs {
		if !sub.IsActive() {
			continue
		}
		frame := models.DeliveryFrame{Topic: t.Name, Message: message, Ts: ts}
		switch sub.Enqueue(frame) {
		case subscriber.Delivered, subscriber.DroppedOldest:
			delivered++
		case subscriber.Rejected:
			dropped++
		}
	}
	return delivered, dropped
}

// History returns up to the last n history entries, oldest first.
func (t *Topic) History(lastN int) []models.HistoryEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ring.LastN(lastN)
}

// ListSubscriberIDs returns the client_ids of all active subscribers.
func (t *Topic) ListSubscriberIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.subs))
	for clientID, sub := range t.subs {
		if sub.IsActive() {
			ids = append(ids, clientID)
		}
	}
	return ids
}

// GetSubscriber returns the subscriber for clientID, if present.
func (t *Topic) GetSubscriber(clientID string) (*subscriber.Subscriber, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sub, exists := t.subs[clientID]
	return sub, exists
}

// SubscriberCount returns the number of active subscribers.
func (t *Topic) SubscriberCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, sub := range t.subs {
		if sub.IsActive() {
			count++
		}
	}
	return count
}

// MessageCount returns the total number of messages published to this topic.
func (t *Topic) MessageCount() uint64 {
	return atomic.LoadUint64(&t.messageCount)
}

// HistoryCapacity returns the capacity (H) of the history ring.
func (t *Topic) HistoryCapacity() int {
	return t.ring.Capacity()
}

// Close deactivates every subscriber and clears the subscriber set.
// Does not itself emit notifications; callers (Broker.DeleteTopic,
// the shutdown coordinator) are responsible for notifying subscribers
// before calling Close.
func (t *Topic) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, sub := range t.subs {
		sub.Deactivate()
	}
	t.subs = make(map[string]*subscriber.Subscriber)
}
