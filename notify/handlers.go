package notify

import "sync"

type handlerEntry[F any] struct {
	id ListenerID
	fn F
}

// handlerList is an ordered set of callbacks keyed by ListenerID.
type handlerList[F any] struct {
	mu      sync.RWMutex
	entries []handlerEntry[F]
}

// add inserts fn unless id is already subscribed.
func (h *handlerList[F]) add(id ListenerID, fn F) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.entries {
		if e.id == id {
			return false
		}
	}
	h.entries = append(h.entries, handlerEntry[F]{id: id, fn: fn})
	return true
}

func (h *handlerList[F]) remove(id ListenerID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, e := range h.entries {
		if e.id == id {
			h.entries = append(h.entries[:i:i], h.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (h *handlerList[F]) snapshot() []F {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]F, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.fn
	}
	return out
}

func (h *handlerList[F]) len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
