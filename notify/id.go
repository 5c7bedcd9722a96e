package notify

import "sync/atomic"

var listenerIDCounter uint64

// ListenerID identifies a subscription. Subscribing twice with the same id is
// a no-op and removal is by id.
type ListenerID uint64

// NewListenerID returns a process-unique, never reused id.
func NewListenerID() ListenerID {
	return ListenerID(atomic.AddUint64(&listenerIDCounter, 1))
}
