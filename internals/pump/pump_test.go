package pump

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arvoweaver/streamline-pubsub/internals/models"
	"github.com/arvoweaver/streamline-pubsub/internals/subscriber"
)

// fakeTransport is a Transport that records every emitted frame and can be
// told to fail on the Nth call, for exercising the pump's terminal-error
// exit path without a real WebSocket connection.
type fakeTransport struct {
	mu        sync.Mutex
	sent      []models.ServerMsg
	failAfter int // 0 means never fail
}

func (f *fakeTransport) Emit(msg models.ServerMsg) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter > 0 && len(f.sent) >= f.failAfter {
		return errors.New("simulated transport failure")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func testFrame(id string) models.DeliveryFrame {
	return models.DeliveryFrame{
		Topic:   "orders",
		Message: models.Message{ID: id, Payload: json.RawMessage(`{"n":1}`)},
		Ts:      models.NowUTC(),
	}
}

// TestRun_DrainsUntilDeactivated exercises the normal-drain termination
// path of spec.md §4.4: the pump dequeues every enqueued frame in order
// and hands it to the transport as an "event" frame, exiting once the
// subscriber is deactivated with an empty queue.
func TestRun_DrainsUntilDeactivated(t *testing.T) {
	sub := subscriber.NewSubscriber("c1", nil, 10, subscriber.PolicyDropOldest)
	tr := &fakeTransport{}

	sub.Enqueue(testFrame("1"))
	sub.Enqueue(testFrame("2"))
	sub.Enqueue(testFrame("3"))

	done := make(chan struct{})
	go func() {
		Run(context.Background(), sub, tr)
		close(done)
	}()

	sub.Deactivate()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump did not exit after deactivation")
	}

	if tr.count() != 3 {
		t.Errorf("expected all 3 queued frames drained before exit, got %d", tr.count())
	}
	for i, want := range []string{"1", "2", "3"} {
		if tr.sent[i].Message.ID != want {
			t.Errorf("frame %d: expected message id %q, got %q", i, want, tr.sent[i].Message.ID)
		}
		if tr.sent[i].Type != models.FrameEvent {
			t.Errorf("frame %d: expected type %q, got %q", i, models.FrameEvent, tr.sent[i].Type)
		}
	}
}

// TestRun_ExitsOnContextCancel verifies cooperative cancellation: a pump
// blocked in Next must unblock promptly when its context is cancelled,
// without requiring the subscriber itself to be deactivated.
func TestRun_ExitsOnContextCancel(t *testing.T) {
	sub := subscriber.NewSubscriber("c1", nil, 10, subscriber.PolicyDropOldest)
	tr := &fakeTransport{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		Run(ctx, sub, tr)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump did not exit after context cancellation")
	}
}

// TestRun_ExitsOnEmitError verifies that a single transport emit failure
// terminates only this pump: the subscriber is deactivated so any other
// reader of the same subscriber (e.g. a caller checking IsActive) observes
// the pump is gone, per spec.md §4.4's "terminates this pump only."
func TestRun_ExitsOnEmitError(t *testing.T) {
	sub := subscriber.NewSubscriber("c1", nil, 10, subscriber.PolicyDropOldest)
	tr := &fakeTransport{failAfter: 1}

	sub.Enqueue(testFrame("1"))
	sub.Enqueue(testFrame("2"))

	done := make(chan struct{})
	go func() {
		Run(context.Background(), sub, tr)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump did not exit after a transport emit failure")
	}

	if tr.count() != 1 {
		t.Errorf("expected exactly 1 frame emitted before the failure, got %d", tr.count())
	}
	if sub.IsActive() {
		t.Error("subscriber should be deactivated after its pump hits a terminal emit error")
	}
}

// TestRun_LiveDelivery exercises the common path: frames enqueued while
// the pump is already running are delivered without requiring
// deactivation first.
func TestRun_LiveDelivery(t *testing.T) {
	sub := subscriber.NewSubscriber("c1", nil, 10, subscriber.PolicyDropOldest)
	tr := &fakeTransport{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Run(ctx, sub, tr)

	sub.Enqueue(testFrame("live-1"))

	deadline := time.After(time.Second)
	for {
		if tr.count() >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("pump did not deliver the live-enqueued frame in time")
		case <-time.After(time.Millisecond):
		}
	}

	sub.Deactivate()
}
