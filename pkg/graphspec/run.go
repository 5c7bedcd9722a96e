package graphspec

import (
	"sync"

	"github.com/delaneyj/reactnotify/notify"
)

// Event is one flushed property notification.
type Event struct {
	Step     int
	Session  notify.SessionID
	Property string
	Value    any
}

type Trace struct {
	Graph  string
	Steps  int
	Events []Event
}

// Sessions counts the distinct sessions the events were delivered in.
func (t *Trace) Sessions() int {
	seen := map[notify.SessionID]struct{}{}
	for _, e := range t.Events {
		seen[e.Session] = struct{}{}
	}
	return len(seen)
}

// Run builds g on sys, replays its steps and records every notification
// raised along the way.
func Run(sys *notify.System, g *Graph) (*Trace, error) {
	m, err := Build(sys, g)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	trace := &Trace{Graph: g.Name, Steps: len(g.Steps)}

	var (
		mu       sync.Mutex
		step     int
		sessions = map[string]notify.SessionID{}
	)
	stopReactions := m.OnPropertyReaction(func(_ any, session notify.SessionID, name string) {
		mu.Lock()
		sessions[name] = session
		mu.Unlock()
	})
	defer stopReactions()

	stopChanges := m.OnPropertyChanged(func(_ any, name string) {
		value := m.Value(name)
		mu.Lock()
		trace.Events = append(trace.Events, Event{
			Step:     step,
			Session:  sessions[name],
			Property: name,
			Value:    value,
		})
		mu.Unlock()
	})
	defer stopChanges()

	for i, s := range g.Steps {
		mu.Lock()
		step = i + 1
		mu.Unlock()
		for _, a := range s.Set {
			if err := m.Set(a.Property, a.Value); err != nil {
				return trace, err
			}
		}
	}
	return trace, nil
}
