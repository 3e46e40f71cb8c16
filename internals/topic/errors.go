package topic

import "errors"

// ErrDuplicateSubscriber is returned by AddSubscriber/SubscribeSnapshot
// when client_id already has a live subscription on this topic. Per
// spec.md §4.2/§9, re-subscribe under the same client_id is rejected
// rather than silently replacing the prior subscriber — see DESIGN.md's
// Open Question decisions for the rationale.
var ErrDuplicateSubscriber = errors.New("duplicate subscriber client_id")
