package ringbuffer

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/arvoweaver/streamline-pubsub/internals/models"
)

func entry(id string) models.HistoryEntry {
	return models.HistoryEntry{
		Message: models.Message{ID: id, Payload: json.RawMessage(`{"test":"data"}`)},
		Ts:      models.NowUTC(),
	}
}

func TestNewRingBuffer(t *testing.T) {
	rb := NewRingBuffer(10)
	if rb == nil {
		t.Fatal("NewRingBuffer returned nil")
	}
	if rb.Capacity() != 10 {
		t.Errorf("Expected capacity 10, got %d", rb.Capacity())
	}
	if rb.Size() != 0 {
		t.Errorf("Expected size 0, got %d", rb.Size())
	}
	if !rb.IsEmpty() {
		t.Error("New buffer should be empty")
	}
}

func TestRingBuffer_Push(t *testing.T) {
	rb := NewRingBuffer(3)

	rb.Push(entry("1"))
	if rb.Size() != 1 {
		t.Errorf("Expected size 1, got %d", rb.Size())
	}

	rb.Push(entry("2"))
	rb.Push(entry("3"))
	if rb.Size() != 3 {
		t.Errorf("Expected size 3, got %d", rb.Size())
	}
	if !rb.IsFull() {
		t.Error("Buffer should be full")
	}

	// Overwriting (circular behavior)
	rb.Push(entry("4"))
	if rb.Size() != 3 {
		t.Errorf("Expected size 3 after overwrite, got %d", rb.Size())
	}
}

func TestRingBuffer_LastN(t *testing.T) {
	rb := NewRingBuffer(5)

	for i := 1; i <= 5; i++ {
		rb.Push(entry(fmt.Sprintf("%d", i)))
	}

	testCases := []struct {
		n        int
		expected int
	}{
		{0, 0},
		{1, 1},
		{3, 3},
		{5, 5},
		{10, 5}, // More than available
		{-1, 0}, // Negative
	}

	for _, tc := range testCases {
		result := rb.LastN(tc.n)
		if len(result) != tc.expected {
			t.Errorf("LastN(%d) expected %d entries, got %d", tc.n, tc.expected, len(result))
		}
	}

	result := rb.LastN(5)
	if len(result) != 5 {
		t.Fatalf("Expected 5 entries, got %d", len(result))
	}
	if result[0].Message.ID != "1" {
		t.Errorf("First entry should have ID '1', got '%s'", result[0].Message.ID)
	}
	if result[4].Message.ID != "5" {
		t.Errorf("Last entry should have ID '5', got '%s'", result[4].Message.ID)
	}
}

func TestRingBuffer_ThreadSafety(t *testing.T) {
	rb := NewRingBuffer(1000)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rb.Push(entry(fmt.Sprintf("goroutine-%d-msg-%d", id, j)))
			}
		}(i)
	}

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				rb.LastN(10)
				rb.Size()
				rb.IsEmpty()
				rb.IsFull()
			}
		}()
	}

	wg.Wait()

	finalSize := rb.Size()
	if finalSize < 0 || finalSize > rb.Capacity() {
		t.Errorf("Invalid final size: %d", finalSize)
	}
}

func TestRingBuffer_EdgeCases(t *testing.T) {
	rb := NewRingBuffer(0)
	if rb.Capacity() != 100 {
		t.Errorf("Expected default capacity 100, got %d", rb.Capacity())
	}

	rb = NewRingBuffer(-5)
	if rb.Capacity() != 100 {
		t.Errorf("Expected default capacity 100, got %d", rb.Capacity())
	}

	rb = NewRingBuffer(5)
	if !rb.IsEmpty() {
		t.Error("New buffer should be empty")
	}

	result := rb.LastN(10)
	if len(result) != 0 {
		t.Errorf("Empty buffer should return empty slice, got %d items", len(result))
	}
}

func BenchmarkRingBuffer_Push(b *testing.B) {
	rb := NewRingBuffer(1000)
	e := entry("benchmark")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rb.Push(e)
	}
}

func BenchmarkRingBuffer_LastN(b *testing.B) {
	rb := NewRingBuffer(1000)
	for i := 0; i < 1000; i++ {
		rb.Push(entry(fmt.Sprintf("msg-%d", i)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rb.LastN(100)
	}
}
