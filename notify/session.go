package notify

import (
	"log/slog"
	"sync"

	"github.com/delaneyj/reactnotify/internal/syncmap"
	mapset "github.com/deckarep/golang-set/v2"
)

// SessionID batches every notification produced by one externally visible
// mutation. Zero means "no session".
type SessionID uint64

// Sequencer hands out session ids.
type Sequencer interface {
	Next() SessionID
}

type lockedSequence struct {
	mu      sync.Mutex
	current SessionID
}

// NewSequencer returns a monotonically increasing, mutex-guarded sequence
// starting at 1. It wraps on overflow and never yields zero.
func NewSequencer() Sequencer {
	return &lockedSequence{}
}

// NewSequencerFrom starts the sequence right after start.
func NewSequencerFrom(start SessionID) Sequencer {
	return &lockedSequence{current: start}
}

func (s *lockedSequence) Next() SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current++
	if s.current == 0 {
		s.current++
	}
	return s.current
}

// SessionStats summarises what a session flushed.
type SessionStats struct {
	CollectionNotifications int
	PropertyNotifications   int
	Targets                 int
}

// SessionObserver is told about session boundaries.
type SessionObserver interface {
	SessionStarted(id SessionID)
	SessionEnded(id SessionID, stats SessionStats)
}

// System owns session numbering and the per-session registries.
type System struct {
	sequencer   Sequencer
	logger      *slog.Logger
	observer    SessionObserver
	collections *syncmap.Map[SessionID, *pendingCollections]
	properties  *syncmap.Map[SessionID, *pendingProperties]
}

// SystemOption configures a System.
type SystemOption func(*System)

// WithSequencer replaces the session id source. Nil keeps the default.
func WithSequencer(s Sequencer) SystemOption {
	return func(sys *System) {
		if s != nil {
			sys.sequencer = s
		}
	}
}

// WithLogger sets the logger used for diagnostics. Nil keeps the default.
func WithLogger(l *slog.Logger) SystemOption {
	return func(sys *System) {
		if l != nil {
			sys.logger = l
		}
	}
}

// WithObserver reports session boundaries to o.
func WithObserver(o SessionObserver) SystemOption {
	return func(sys *System) {
		sys.observer = o
	}
}

// NewSystem creates an isolated session space. Notifiers created against
// different systems never share sessions.
func NewSystem(opts ...SystemOption) *System {
	sys := &System{
		sequencer:   NewSequencer(),
		logger:      slog.Default(),
		collections: syncmap.NewUint64[SessionID, *pendingCollections](),
		properties:  syncmap.NewUint64[SessionID, *pendingProperties](),
	}
	for _, opt := range opts {
		opt(sys)
	}
	return sys
}

var (
	defaultSystemOnce sync.Once
	defaultSystem     *System
)

// DefaultSystem is the lazily created process-wide system.
func DefaultSystem() *System {
	defaultSystemOnce.Do(func() {
		defaultSystem = NewSystem()
	})
	return defaultSystem
}

func (sys *System) Logger() *slog.Logger {
	return sys.logger
}

// StartSession returns a fresh session id.
func (sys *System) StartSession() SessionID {
	id := sys.sequencer.Next()
	if sys.observer != nil {
		sys.observer.SessionStarted(id)
	}
	return id
}

// EndSession drains the session's pending collection then property
// notifications. Ending a session twice is a no-op.
func (sys *System) EndSession(id SessionID) {
	var stats SessionStats
	ended := false

	if pending, ok := sys.collections.LoadAndDelete(id); ok {
		ended = true
		for _, entry := range pending.drain() {
			stats.Targets++
			stats.CollectionNotifications++
			entry.target.FlushCollectionChange(entry.change)
		}
	}

	if pending, ok := sys.properties.LoadAndDelete(id); ok {
		ended = true
		for _, entry := range pending.drain() {
			if !entry.target.NotificationsEnabled() {
				continue
			}
			stats.Targets++
			for _, name := range entry.names {
				stats.PropertyNotifications++
				entry.target.raisePropertyChanged(name)
			}
		}
	}

	if !ended {
		return
	}
	sys.logger.Debug("notify: session flushed",
		slog.Uint64("session", uint64(id)),
		slog.Int("collections", stats.CollectionNotifications),
		slog.Int("properties", stats.PropertyNotifications),
	)
	if sys.observer != nil {
		sys.observer.SessionEnded(id, stats)
	}
}

// Run opens a session, calls fn with it and ends it, even if fn panics.
func (sys *System) Run(fn func(session SessionID)) {
	id := sys.StartSession()
	defer sys.EndSession(id)
	fn(id)
}

// trackProperty records (target, name) for session and reports whether it was
// new.
func (sys *System) trackProperty(session SessionID, target *Notifier, name string) bool {
	if session == 0 {
		return false
	}
	pending := sys.properties.GetOrAdd(session, newPendingProperties)
	return pending.track(target, name)
}

// trackCollection records change for target; a second change for the same
// target in one session is dropped.
func (sys *System) trackCollection(target CollectionReactor, change CollectionChange) {
	if change.Session == 0 {
		return
	}
	pending := sys.collections.GetOrAdd(change.Session, newPendingCollections)
	pending.track(target, change)
}

// PendingSessions reports how many session registries still hold
// undelivered notifications. It is zero whenever no mutation is in flight.
func (sys *System) PendingSessions() int {
	return sys.properties.Len() + sys.collections.Len()
}

type pendingNames struct {
	target *Notifier
	names  []string
	seen   mapset.Set[string]
}

type pendingProperties struct {
	mu      sync.Mutex
	order   []*pendingNames
	targets map[*Notifier]*pendingNames
}

func newPendingProperties() *pendingProperties {
	return &pendingProperties{targets: map[*Notifier]*pendingNames{}}
}

func (p *pendingProperties) track(target *Notifier, name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.targets[target]
	if !ok {
		entry = &pendingNames{target: target, seen: mapset.NewThreadUnsafeSet[string]()}
		p.targets[target] = entry
		p.order = append(p.order, entry)
	}
	if !entry.seen.Add(name) {
		return false
	}
	entry.names = append(entry.names, name)
	return true
}

func (p *pendingProperties) drain() []*pendingNames {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.order
	p.order = nil
	p.targets = map[*Notifier]*pendingNames{}
	return out
}

type pendingCollection struct {
	target CollectionReactor
	change CollectionChange
}

type pendingCollections struct {
	mu      sync.Mutex
	order   []pendingCollection
	targets mapset.Set[CollectionReactor]
}

func newPendingCollections() *pendingCollections {
	return &pendingCollections{targets: mapset.NewThreadUnsafeSet[CollectionReactor]()}
}

func (p *pendingCollections) track(target CollectionReactor, change CollectionChange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.targets.Add(target) {
		return
	}
	p.order = append(p.order, pendingCollection{target: target, change: change})
}

func (p *pendingCollections) drain() []pendingCollection {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.order
	p.order = nil
	p.targets.Clear()
	return out
}
