// Package pump implements the Delivery Pump (spec.md §4.4): one
// long-running task per active subscription that drains a Subscriber's
// queue and hands frames to the transport for emission. A pump never
// touches topic state or triggers fan-out — its only job is draining
// one queue.
package pump

import (
	"context"

	"github.com/arvoweaver/streamline-pubsub/internals/logging"
	"github.com/arvoweaver/streamline-pubsub/internals/models"
	"github.com/arvoweaver/streamline-pubsub/internals/subscriber"
)

// Transport is the capability a pump needs to hand off a frame: emit a
// server frame, synchronously, returning an error on transport failure
// (e.g. the peer closed the connection).
type Transport = subscriber.Transport

// Run drains sub's queue, translating each DeliveryFrame into an
// "event" ServerMsg and emitting it via transport, until one of:
//   - sub is observed inactive (Next returns ok=false)
//   - transport.Emit returns an error (terminal for this pump only)
//   - ctx is cancelled
//
// Run blocks; callers start it in its own goroutine per subscription.
func Run(ctx context.Context, sub *subscriber.Subscriber, transport Transport) {
	log := logging.WithClient(sub.GetClientID())
	defer log.Debug().Msg("delivery pump exiting")

	for {
		frame, ok := sub.Next(ctx)
		if !ok {
			return
		}

		event := models.NewEvent(frame)
		if err := transport.Emit(*event); err != nil {
			log.Error().Err(err).Str("topic", frame.Topic).Msg("delivery pump: emit failed, terminating pump")
			sub.Deactivate()
			return
		}
	}
}
