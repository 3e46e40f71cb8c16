// Package transport implements the WebSocket side of the external
// transport contract spec.md §6 delegates framing to. It is the only
// place that writes to a *websocket.Conn, mirroring the teacher's
// "single writer" discipline — except here that discipline is enforced
// with a mutex rather than a single dedicated goroutine, since both the
// Delivery Pump and direct-emit paths (ack/history replay/topic-deleted/
// shutdown notices) need to write to the same connection.
package transport

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arvoweaver/streamline-pubsub/internals/models"
)

// Emitter adapts a *websocket.Conn to the subscriber.Transport and
// pump.Transport interfaces: Emit(ServerMsg) error.
type Emitter struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	writeMu      sync.Mutex
}

// NewEmitter wraps conn. writeTimeout, if positive, bounds each write
// with a deadline, matching the teacher's WriteTimeout config knob.
func NewEmitter(conn *websocket.Conn, writeTimeout time.Duration) *Emitter {
	return &Emitter{conn: conn, writeTimeout: writeTimeout}
}

// Emit serializes msg as JSON and writes it to the connection. Safe for
// concurrent use; writes are serialized under writeMu.
func (e *Emitter) Emit(msg models.ServerMsg) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if e.writeTimeout > 0 {
		if err := e.conn.SetWriteDeadline(time.Now().Add(e.writeTimeout)); err != nil {
			return err
		}
	}
	return e.conn.WriteJSON(msg)
}

// Close closes the underlying connection.
func (e *Emitter) Close() error {
	return e.conn.Close()
}
