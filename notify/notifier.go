package notify

import (
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/delaneyj/reactnotify/internal/syncmap"
)

// Notifier is the base reactive object. It stores property values, caches
// computed values, owns the dependency maps declared against it and keeps
// track of the objects it observes through its properties.
//
// Types usually embed a *Notifier and pass themselves with WithOwner so that
// subscribers see the outer value as the source of every notification.
type Notifier struct {
	sys      *System
	id       ListenerID
	owner    any
	disabled atomic.Bool

	values   *syncmap.Map[string, any]
	computed *syncmap.Map[string, any]

	local             *DependencyMap
	refCollections    *DependencyMap
	refItemProperties *ReferenceDependencyMap
	refProperties     *ReferenceDependencyMap

	// reference name -> object currently observed through it
	propertyRefs   *syncmap.Map[string, any]
	collectionRefs *syncmap.Map[string, any]
	itemRefs       *syncmap.Map[string, any]

	propertyChanged  handlerList[PropertyChangedFunc]
	propertyReaction handlerList[PropertyReactionFunc]

	// intercept lets a suspended collection capture reactions instead of
	// raising them.
	intercept func(session SessionID, name string) bool
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithOwner makes owner the source reported to subscribers.
func WithOwner(owner any) NotifierOption {
	return func(n *Notifier) {
		if owner != nil {
			n.owner = owner
		}
	}
}

// NewNotifier creates a notifier bound to sys. A nil sys selects
// DefaultSystem.
func NewNotifier(sys *System, opts ...NotifierOption) *Notifier {
	if sys == nil {
		sys = DefaultSystem()
	}
	n := &Notifier{
		sys:               sys,
		id:                NewListenerID(),
		values:            syncmap.NewString[any](),
		computed:          syncmap.NewString[any](),
		local:             NewDependencyMap(),
		refCollections:    NewDependencyMap(),
		refItemProperties: NewReferenceDependencyMap(),
		refProperties:     NewReferenceDependencyMap(),
		propertyRefs:      syncmap.NewString[any](),
		collectionRefs:    syncmap.NewString[any](),
		itemRefs:          syncmap.NewString[any](),
	}
	n.owner = n
	for _, opt := range opts {
		opt(n)
	}
	// own reactions resolve against the local map before anyone else hears them
	n.propertyReaction.add(n.id, func(_ any, session SessionID, name string) {
		if defs, ok := n.local.Lookup(name); ok {
			n.RaiseDependencies(session, defs)
		}
	})
	return n
}

func (n *Notifier) base() *Notifier { return n }

// ID is the listener id this notifier subscribes to other objects with.
func (n *Notifier) ID() ListenerID { return n.id }

func (n *Notifier) System() *System { return n.sys }

// Source is the value reported as the sender of this notifier's events.
func (n *Notifier) Source() any { return n.owner }

func (n *Notifier) NotificationsEnabled() bool { return !n.disabled.Load() }

// DisableNotifications silences every reaction and change event of n and
// drops its computed values.
func (n *Notifier) DisableNotifications() {
	n.disabled.Store(true)
	n.clearComputed()
}

func (n *Notifier) EnableNotifications() {
	n.disabled.Store(false)
	n.clearComputed()
}

func (n *Notifier) clearComputed() {
	for name := range n.computed.Drain() {
		n.ignore(name)
	}
}

type setConfig struct {
	force bool
}

type SetOption func(*setConfig)

// NotifyWhenUnchanged raises the property even if the new value equals the
// stored one.
func NotifyWhenUnchanged() SetOption {
	return func(c *setConfig) { c.force = true }
}

// GetValue returns the stored value of name, or nil.
func (n *Notifier) GetValue(name string) any {
	v, _ := n.values.Load(name)
	return v
}

// LookupValue is GetValue with a presence flag.
func (n *Notifier) LookupValue(name string) (any, bool) {
	return n.values.Load(name)
}

// Get returns the stored value of name as T, or T's zero value when absent
// or of another type.
func Get[T any](n *Notifier, name string) T {
	v, _ := n.GetValue(name).(T)
	return v
}

// SetValue stores value under name and reports whether it changed. A change
// moves listeners from the old value to the new one and raises name in a
// fresh session.
func (n *Notifier) SetValue(name string, value any, opts ...SetOption) bool {
	var cfg setConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	changed := false
	n.values.AddOrUpdate(name,
		func() any {
			changed = true
			return value
		},
		func(old any) any {
			if valuesEqual(old, value) {
				return old
			}
			changed = true
			return value
		},
	)

	if changed {
		n.ignore(name)
		n.listenTo(name, value)
	}
	if !changed && !cfg.force {
		return false
	}
	n.sys.Run(func(session SessionID) {
		n.ReactToProperty(session, name)
	})
	return changed
}

// InitializeValue stores value and starts listening to it without raising
// anything.
func (n *Notifier) InitializeValue(name string, value any) {
	n.values.Store(name, value)
	n.ignore(name)
	n.listenTo(name, value)
}

// GetComputed returns the cached value of a computed property, calling
// compute on a miss. While notifications are disabled nothing is cached or
// listened to.
func (n *Notifier) GetComputed(name string, compute func() any) any {
	if !n.NotificationsEnabled() {
		return compute()
	}
	if v, ok := n.computed.Load(name); ok {
		return v
	}
	v := compute()
	if !n.computed.TryAdd(name, v) {
		existing, _ := n.computed.Load(name)
		return existing
	}
	n.listenTo(name, v)
	return v
}

// Computed is the typed form of GetComputed.
func Computed[T any](n *Notifier, name string, compute func() T) T {
	v, _ := n.GetComputed(name, func() any { return compute() }).(T)
	return v
}

func (n *Notifier) invalidate(name string) {
	if _, ok := n.computed.LoadAndDelete(name); ok {
		n.ignore(name)
	}
}

// ReactToProperty raises name inside session. Blank names are ignored, and
// so is a second reaction for the same name in the same session.
func (n *Notifier) ReactToProperty(session SessionID, name string) {
	if strings.TrimSpace(name) == "" {
		n.sys.logger.Debug("notify: ignored blank property name", slog.Uint64("session", uint64(session)))
		return
	}
	if n.intercept != nil && n.intercept(session, name) {
		n.invalidate(name)
		return
	}
	if !n.sys.trackProperty(session, n, name) {
		return
	}
	n.invalidate(name)
	if !n.NotificationsEnabled() {
		return
	}
	source := n.Source()
	for _, fn := range n.propertyReaction.snapshot() {
		fn(source, session, name)
	}
}

// RaiseDependencies runs the executions of defs, then raises every dependent
// whose conditions currently hold.
func (n *Notifier) RaiseDependencies(session SessionID, defs *Definitions) {
	if defs == nil {
		return
	}
	for _, exec := range defs.Executions() {
		exec()
	}
	for _, p := range defs.Properties() {
		if p.CanRaise() {
			n.ReactToProperty(session, p.Name())
		}
	}
}

func (n *Notifier) raisePropertyChanged(name string) {
	source := n.Source()
	for _, fn := range n.propertyChanged.snapshot() {
		fn(source, name)
	}
}

func (n *Notifier) AddPropertyChanged(id ListenerID, fn PropertyChangedFunc) {
	if fn != nil {
		n.propertyChanged.add(id, fn)
	}
}

func (n *Notifier) RemovePropertyChanged(id ListenerID) {
	n.propertyChanged.remove(id)
}

func (n *Notifier) AddPropertyReaction(id ListenerID, fn PropertyReactionFunc) {
	if fn != nil && id != n.id {
		n.propertyReaction.add(id, fn)
	}
}

func (n *Notifier) RemovePropertyReaction(id ListenerID) {
	if id != n.id {
		n.propertyReaction.remove(id)
	}
}

// OnPropertyChanged subscribes fn under a fresh listener id and returns the
// matching unsubscribe func.
func (n *Notifier) OnPropertyChanged(fn PropertyChangedFunc) (stop func()) {
	id := NewListenerID()
	n.AddPropertyChanged(id, fn)
	return func() { n.RemovePropertyChanged(id) }
}

func (n *Notifier) OnPropertyReaction(fn PropertyReactionFunc) (stop func()) {
	id := NewListenerID()
	n.AddPropertyReaction(id, fn)
	return func() { n.RemovePropertyReaction(id) }
}

// PropertyChangeFor returns the definitions raised when the local property
// name fires. Use it to attach executions.
func (n *Notifier) PropertyChangeFor(name string) *Definitions {
	return n.local.Get(name)
}

func (n *Notifier) ReferencePropertyChangeFor(reference, property string) *Definitions {
	return n.refProperties.Retrieve(reference).Get(property)
}

func (n *Notifier) CollectionChangeFor(reference string) *Definitions {
	return n.refCollections.Get(reference)
}

func (n *Notifier) CollectionItemPropertyChangeFor(reference, itemProperty string) *Definitions {
	return n.refItemProperties.Retrieve(reference).Get(itemProperty)
}

// Observing returns the object currently observed through reference, if any.
func (n *Notifier) Observing(reference string) (any, bool) {
	if v, ok := n.propertyRefs.Load(reference); ok {
		return v, true
	}
	if v, ok := n.collectionRefs.Load(reference); ok {
		return v, true
	}
	return n.itemRefs.Load(reference)
}

// Close stops observing every referenced object and drops the computed
// cache. Subscribers of n itself are left alone.
func (n *Notifier) Close() {
	n.computed.Drain()
	for _, v := range n.propertyRefs.Drain() {
		n.detachProperty(v)
	}
	for _, v := range n.collectionRefs.Drain() {
		n.detachCollection(v)
	}
	for _, v := range n.itemRefs.Drain() {
		n.detachItemProperty(v)
	}
}
