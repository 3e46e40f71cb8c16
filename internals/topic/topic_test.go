package topic

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/arvoweaver/streamline-pubsub/internals/models"
	"github.com/arvoweaver/streamline-pubsub/internals/subscriber"
)

type nullTransport struct{}

func (nullTransport) Emit(models.ServerMsg) error { return nil }

func newTestSubscriber(clientID string, q int) *subscriber.Subscriber {
	return subscriber.NewSubscriber(clientID, nullTransport{}, q, subscriber.PolicyDropOldest)
}

func testMessage(id string) models.Message {
	return models.Message{ID: id, Payload: json.RawMessage(`{"test":"data"}`)}
}

func TestNewTopic(t *testing.T) {
	tp := NewTopic("test-topic", 100)
	if tp == nil {
		t.Fatal("NewTopic returned nil")
	}
	if tp.Name != "test-topic" {
		t.Errorf("Expected name 'test-topic', got '%s'", tp.Name)
	}
	if tp.SubscriberCount() != 0 {
		t.Errorf("Expected 0 subscribers, got %d", tp.SubscriberCount())
	}
	if tp.MessageCount() != 0 {
		t.Errorf("Expected 0 messages, got %d", tp.MessageCount())
	}
}

func TestNewTopic_DefaultCapacity(t *testing.T) {
	tp := NewTopic("test-topic", 0)
	if tp.HistoryCapacity() != 100 {
		t.Errorf("Expected default capacity 100, got %d", tp.HistoryCapacity())
	}

	tp = NewTopic("test-topic", -5)
	if tp.HistoryCapacity() != 100 {
		t.Errorf("Expected default capacity 100, got %d", tp.HistoryCapacity())
	}
}

func TestTopic_AddSubscriber(t *testing.T) {
	tp := NewTopic("test-topic", 100)
	sub := newTestSubscriber("client-1", 10)

	if err := tp.AddSubscriber(sub); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp.SubscriberCount() != 1 {
		t.Errorf("Expected 1 subscriber, got %d", tp.SubscriberCount())
	}

	// Re-adding the same client_id is rejected, not replaced.
	sub2 := newTestSubscriber("client-1", 10)
	if err := tp.AddSubscriber(sub2); err != ErrDuplicateSubscriber {
		t.Errorf("expected ErrDuplicateSubscriber, got %v", err)
	}
	if tp.SubscriberCount() != 1 {
		t.Errorf("Expected 1 subscriber after rejected re-add, got %d", tp.SubscriberCount())
	}
}

func TestTopic_RemoveSubscriber(t *testing.T) {
	tp := NewTopic("test-topic", 100)
	sub := newTestSubscriber("client-1", 10)
	tp.AddSubscriber(sub)

	if !tp.RemoveSubscriber("client-1") {
		t.Error("Failed to remove subscriber")
	}
	if tp.SubscriberCount() != 0 {
		t.Errorf("Expected 0 subscribers after removal, got %d", tp.SubscriberCount())
	}
	if sub.IsActive() {
		t.Error("removed subscriber should be deactivated")
	}

	if tp.RemoveSubscriber("non-existent") {
		t.Error("Should not be able to remove non-existent subscriber")
	}
}

func TestTopic_SubscribeSnapshot_DuplicateRejected(t *testing.T) {
	tp := NewTopic("test-topic", 100)
	sub := newTestSubscriber("client-1", 10)
	if _, err := tp.SubscribeSnapshot(sub, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub2 := newTestSubscriber("client-1", 10)
	if _, err := tp.SubscribeSnapshot(sub2, 10); err != ErrDuplicateSubscriber {
		t.Errorf("expected ErrDuplicateSubscriber, got %v", err)
	}
}

func TestTopic_Publish_Basic(t *testing.T) {
	tp := NewTopic("test-topic", 100)
	sub := newTestSubscriber("client-1", 10)
	tp.AddSubscriber(sub)

	delivered, dropped := tp.Publish(testMessage("msg-1"))
	if delivered != 1 {
		t.Errorf("Expected 1 message delivered, got %d", delivered)
	}
	if dropped != 0 {
		t.Errorf("Expected 0 messages dropped, got %d", dropped)
	}
	if tp.MessageCount() != 1 {
		t.Errorf("Expected 1 total message, got %d", tp.MessageCount())
	}
}

func TestTopic_Publish_NoSubscribers(t *testing.T) {
	tp := NewTopic("test-topic", 100)

	delivered, dropped := tp.Publish(testMessage("msg-1"))
	if delivered != 0 || dropped != 0 {
		t.Errorf("expected 0/0, got delivered=%d dropped=%d", delivered, dropped)
	}
	if tp.MessageCount() != 1 {
		t.Errorf("Expected 1 total message, got %d", tp.MessageCount())
	}
}

func TestTopic_Publish_DropOldestPolicy(t *testing.T) {
	tp := NewTopic("test-topic", 100)
	sub := newTestSubscriber("client-1", 2)
	tp.AddSubscriber(sub)

	tp.Publish(testMessage("msg-1"))
	tp.Publish(testMessage("msg-2"))
	delivered, dropped := tp.Publish(testMessage("msg-3"))
	if delivered != 1 || dropped != 0 {
		t.Errorf("drop-oldest overflow should still count as delivered: delivered=%d dropped=%d", delivered, dropped)
	}
	if sub.Len() != 2 {
		t.Errorf("expected queue length capped at 2, got %d", sub.Len())
	}
}

func TestTopic_Publish_DisconnectPolicy(t *testing.T) {
	tp := NewTopic("test-topic", 100)
	sub := subscriber.NewSubscriber("client-1", nullTransport{}, 1, subscriber.PolicyDisconnect)
	tp.AddSubscriber(sub)

	tp.Publish(testMessage("msg-1"))
	delivered, dropped := tp.Publish(testMessage("msg-2"))
	if delivered != 0 || dropped != 1 {
		t.Errorf("overflow under DISCONNECT should be dropped: delivered=%d dropped=%d", delivered, dropped)
	}
	if sub.IsActive() {
		t.Error("subscriber should be disconnected after overflow")
	}
}

func TestTopic_ListSubscriberIDs(t *testing.T) {
	tp := NewTopic("test-topic", 100)
	tp.AddSubscriber(newTestSubscriber("client-1", 10))
	tp.AddSubscriber(newTestSubscriber("client-2", 10))

	ids := tp.ListSubscriberIDs()
	if len(ids) != 2 {
		t.Errorf("Expected 2 subscriber IDs, got %d", len(ids))
	}

	found1, found2 := false, false
	for _, id := range ids {
		if id == "client-1" {
			found1 = true
		}
		if id == "client-2" {
			found2 = true
		}
	}
	if !found1 || !found2 {
		t.Error("Not all expected subscriber IDs found")
	}
}

func TestTopic_History(t *testing.T) {
	tp := NewTopic("test-topic", 5)

	for i := 1; i <= 3; i++ {
		tp.Publish(testMessage(fmt.Sprintf("msg-%d", i)))
	}

	lastN := tp.History(2)
	if len(lastN) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(lastN))
	}
	if lastN[0].Message.ID != "msg-2" {
		t.Errorf("First entry should be 'msg-2', got '%s'", lastN[0].Message.ID)
	}
	if lastN[1].Message.ID != "msg-3" {
		t.Errorf("Second entry should be 'msg-3', got '%s'", lastN[1].Message.ID)
	}
}

func TestTopic_Close(t *testing.T) {
	tp := NewTopic("test-topic", 100)
	sub := newTestSubscriber("client-1", 10)
	tp.AddSubscriber(sub)

	tp.Close()

	if tp.SubscriberCount() != 0 {
		t.Errorf("Expected 0 subscribers after close, got %d", tp.SubscriberCount())
	}
	if sub.IsActive() {
		t.Error("subscriber should be deactivated after topic close")
	}
}

func TestTopic_Concurrency(t *testing.T) {
	tp := NewTopic("test-topic", 1000)
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tp.Publish(testMessage(fmt.Sprintf("goroutine-%d-msg-%d", id, j)))
			}
		}(i)
	}
	wg.Wait()

	if tp.MessageCount() != 500 {
		t.Errorf("Expected 500 messages, got %d", tp.MessageCount())
	}
}

func BenchmarkTopic_Publish(b *testing.B) {
	tp := NewTopic("benchmark-topic", 1000)
	msg := testMessage("benchmark")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tp.Publish(msg)
	}
}
