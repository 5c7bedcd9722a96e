package notify

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
)

// Property names raised by Collection.
const (
	CountProperty     = "Count"
	CapacityProperty  = "Capacity"
	FirstItemProperty = "FirstItem"
	LastItemProperty  = "LastItem"
	IndexerProperty   = "Item[]"
)

// Collection is an observable list. Every structural change raises a
// collection change plus Count, Item[] and, when the ends moved, FirstItem
// and LastItem, all in one session.
type Collection[T any] struct {
	*Notifier

	mu    sync.RWMutex
	items []T
	equal func(a, b T) bool

	collectionChanged  handlerList[CollectionChangedFunc]
	collectionReaction handlerList[CollectionReactionFunc]
	itemReaction       handlerList[ItemPropertyReactionFunc]

	localCollection *Definitions
	localItems      *DependencyMap

	// number of CollectionChanged dispatches in progress
	monitor atomic.Int32
	susp    suspension
}

var (
	_ CollectionReactor   = (*Collection[int])(nil)
	_ ItemPropertyReactor = (*Collection[int])(nil)
	_ PropertyReactor     = (*Collection[int])(nil)
	_ NotificationToggler = (*Collection[int])(nil)
)

type CollectionOption[T any] func(*Collection[T])

func WithCapacity[T any](capacity int) CollectionOption[T] {
	return func(c *Collection[T]) {
		if capacity > cap(c.items) {
			c.items = slices.Grow(c.items, capacity-len(c.items))
		}
	}
}

// WithItems seeds the collection without raising anything.
func WithItems[T any](items ...T) CollectionOption[T] {
	return func(c *Collection[T]) {
		c.items = append(c.items, items...)
	}
}

// WithEqual replaces the equality used by IndexOf, Remove and Contains.
func WithEqual[T any](equal func(a, b T) bool) CollectionOption[T] {
	return func(c *Collection[T]) {
		if equal != nil {
			c.equal = equal
		}
	}
}

func NewCollection[T any](sys *System, opts ...CollectionOption[T]) *Collection[T] {
	c := &Collection[T]{
		equal: func(a, b T) bool {
			return valuesEqual(any(a), any(b))
		},
		localCollection: newDefinitions(),
		localItems:      NewDependencyMap(),
	}
	c.Notifier = NewNotifier(sys, WithOwner(c))
	c.Notifier.intercept = c.queueProperty
	for _, opt := range opts {
		opt(c)
	}

	c.collectionReaction.add(c.id, func(_ any, change CollectionChange) {
		c.RaiseDependencies(change.Session, c.localCollection)
	})
	c.itemReaction.add(c.id, func(_ any, reaction ItemPropertyReaction) {
		if defs, ok := c.localItems.Lookup(reaction.PropertyName); ok {
			c.RaiseDependencies(reaction.Session, defs)
		}
	})
	for _, item := range c.items {
		c.attachItem(item)
	}
	return c
}

func (c *Collection[T]) AddCollectionChanged(id ListenerID, fn CollectionChangedFunc) {
	if fn != nil {
		c.collectionChanged.add(id, fn)
	}
}

func (c *Collection[T]) RemoveCollectionChanged(id ListenerID) {
	c.collectionChanged.remove(id)
}

func (c *Collection[T]) OnCollectionChanged(fn CollectionChangedFunc) (stop func()) {
	id := NewListenerID()
	c.AddCollectionChanged(id, fn)
	return func() { c.RemoveCollectionChanged(id) }
}

func (c *Collection[T]) AddCollectionReaction(id ListenerID, fn CollectionReactionFunc) {
	if fn != nil && id != c.id {
		c.collectionReaction.add(id, fn)
	}
}

func (c *Collection[T]) RemoveCollectionReaction(id ListenerID) {
	if id != c.id {
		c.collectionReaction.remove(id)
	}
}

func (c *Collection[T]) AddItemPropertyReaction(id ListenerID, fn ItemPropertyReactionFunc) {
	if fn != nil && id != c.id {
		c.itemReaction.add(id, fn)
	}
}

func (c *Collection[T]) RemoveItemPropertyReaction(id ListenerID) {
	if id != c.id {
		c.itemReaction.remove(id)
	}
}

// FlushCollectionChange delivers change to CollectionChanged subscribers. The
// session registry calls it when change's session ends.
func (c *Collection[T]) FlushCollectionChange(change CollectionChange) {
	if !c.NotificationsEnabled() {
		return
	}
	c.monitor.Add(1)
	defer c.monitor.Add(-1)
	for _, fn := range c.collectionChanged.snapshot() {
		fn(c, change)
	}
}

// CheckReentrancy fails when a CollectionChanged dispatch is in progress and
// more than one subscriber would observe the mutation.
func (c *Collection[T]) CheckReentrancy() error {
	if c.monitor.Load() > 0 && c.collectionChanged.len() > 1 {
		c.sys.logger.Warn("notify: rejected reentrant collection change",
			slog.Int("subscribers", c.collectionChanged.len()))
		return ErrReentrancy
	}
	return nil
}

// reactToCollection records change for its session and hands it to the
// collection reaction subscribers.
func (c *Collection[T]) reactToCollection(change CollectionChange) {
	if c.queueCollection(change) {
		return
	}
	c.sys.trackCollection(c, change)
	if !c.NotificationsEnabled() {
		return
	}
	for _, fn := range c.collectionReaction.snapshot() {
		fn(c, change)
	}
}

// CollectionChange returns the definitions raised whenever this collection
// changes structurally.
func (c *Collection[T]) CollectionChange() *Definitions {
	return c.localCollection
}

// ItemPropertyChangeFor returns the definitions raised whenever property
// fires on any item.
func (c *Collection[T]) ItemPropertyChangeFor(property string) *Definitions {
	return c.localItems.Get(property)
}

// CollectionMapper extends Mapper with dependencies on the collection itself.
type CollectionMapper struct {
	*Mapper
	collection *Definitions
	items      *DependencyMap
}

func (c *Collection[T]) PropertyOf(name string) *CollectionMapper {
	return &CollectionMapper{
		Mapper:     c.Notifier.PropertyOf(name),
		collection: c.localCollection,
		items:      c.localItems,
	}
}

func (m *CollectionMapper) DependsOnThisCollection(conditions ...Condition) *CollectionMapper {
	m.collection.Affects(m.name, conditions...)
	return m
}

func (m *CollectionMapper) DependsOnThisCollectionItemProperty(property string, conditions ...Condition) *CollectionMapper {
	m.items.Get(property).Affects(m.name, conditions...)
	return m
}

func (m *CollectionMapper) OverridesWithoutBaseReference() *CollectionMapper {
	m.Mapper.OverridesWithoutBaseReference()
	m.collection.Free(m.name)
	m.items.free(m.name)
	return m
}

// ValidateProperties also accepts the collection's own property names.
func (c *Collection[T]) ValidateProperties(known ...string) error {
	set := mapset.NewThreadUnsafeSet[string](known...)
	for _, name := range []string{CountProperty, CapacityProperty, FirstItemProperty, LastItemProperty, IndexerProperty} {
		set.Add(name)
	}
	extra := []*Definitions{c.localCollection}
	c.localItems.Range(func(_ string, defs *Definitions) bool {
		extra = append(extra, defs)
		return true
	})
	return c.validate(set, extra...)
}

// Close detaches the collection from its items and from everything it
// references.
func (c *Collection[T]) Close() {
	for _, item := range c.Items() {
		c.detachItem(item)
	}
	c.Notifier.Close()
}

func (c *Collection[T]) attachItem(item T) {
	if r, ok := any(item).(PropertyReactor); ok && !isNil(item) {
		r.AddPropertyReaction(c.id, c.respondToItemReaction)
	}
}

func (c *Collection[T]) detachItem(item T) {
	if r, ok := any(item).(PropertyReactor); ok && !isNil(item) {
		r.RemovePropertyReaction(c.id)
	}
}

// releaseItem detaches item unless another slot still holds it.
func (c *Collection[T]) releaseItem(item T) {
	c.mu.RLock()
	held := slices.ContainsFunc(c.items, func(v T) bool { return sameObject(any(v), any(item)) })
	c.mu.RUnlock()
	if !held {
		c.detachItem(item)
	}
}

func (c *Collection[T]) respondToItemReaction(source any, session SessionID, name string) {
	reaction := ItemPropertyReaction{Session: session, Item: source, PropertyName: name}
	for _, fn := range c.itemReaction.snapshot() {
		fn(c, reaction)
	}
}

type ends struct {
	first, last       any
	hasFirst, hasLast bool
}

func (c *Collection[T]) endsLocked() ends {
	var e ends
	if n := len(c.items); n > 0 {
		e.first, e.hasFirst = c.items[0], true
		e.last, e.hasLast = c.items[n-1], true
	}
	return e
}

// checkPropertyEnds raises FirstItem and LastItem when the element at either
// end differs from before.
func (c *Collection[T]) checkPropertyEnds(session SessionID, before ends) {
	c.mu.RLock()
	after := c.endsLocked()
	c.mu.RUnlock()
	if before.hasFirst != after.hasFirst || !valuesEqual(before.first, after.first) {
		c.ReactToProperty(session, FirstItemProperty)
	}
	if before.hasLast != after.hasLast || !valuesEqual(before.last, after.last) {
		c.ReactToProperty(session, LastItemProperty)
	}
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Collection[T]) Capacity() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cap(c.items)
}

// SetCapacity resizes the backing array and raises Capacity when it actually
// changed.
func (c *Collection[T]) SetCapacity(capacity int) error {
	c.mu.Lock()
	if capacity < len(c.items) {
		n := len(c.items)
		c.mu.Unlock()
		return fmt.Errorf("%w: capacity %d, count %d", ErrCapacity, capacity, n)
	}
	if capacity == cap(c.items) {
		c.mu.Unlock()
		return nil
	}
	grown := make([]T, len(c.items), capacity)
	copy(grown, c.items)
	c.items = grown
	c.mu.Unlock()

	c.sys.Run(func(session SessionID) {
		c.ReactToProperty(session, CapacityProperty)
	})
	return nil
}

func (c *Collection[T]) At(index int) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.items) {
		var zero T
		return zero, indexError(index, len(c.items))
	}
	return c.items[index], nil
}

// Items returns a copy of the elements.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

func (c *Collection[T]) FirstItem() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.items) == 0 {
		var zero T
		return zero, false
	}
	return c.items[0], true
}

func (c *Collection[T]) LastItem() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.items) == 0 {
		var zero T
		return zero, false
	}
	return c.items[len(c.items)-1], true
}

func (c *Collection[T]) IndexOf(item T) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.IndexFunc(c.items, func(v T) bool { return c.equal(v, item) })
}

func (c *Collection[T]) LastIndexOf(item T) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.items) - 1; i >= 0; i-- {
		if c.equal(c.items[i], item) {
			return i
		}
	}
	return -1
}

func (c *Collection[T]) Contains(item T) bool {
	return c.IndexOf(item) >= 0
}

// Add appends item.
func (c *Collection[T]) Add(item T) error {
	return c.Insert(c.Len(), item)
}

func (c *Collection[T]) Insert(index int, item T) error {
	if err := c.CheckReentrancy(); err != nil {
		return err
	}
	c.mu.Lock()
	if index < 0 || index > len(c.items) {
		n := len(c.items)
		c.mu.Unlock()
		return indexError(index, n)
	}
	before := c.endsLocked()
	c.items = slices.Insert(c.items, index, item)
	c.mu.Unlock()

	c.attachItem(item)
	c.sys.Run(func(session SessionID) {
		c.reactToCollection(AddChange(session, []any{item}, index))
		c.ReactToProperty(session, CountProperty)
		c.ReactToProperty(session, IndexerProperty)
		c.checkPropertyEnds(session, before)
	})
	return nil
}

// Remove removes the first element equal to item and reports whether one was
// found.
func (c *Collection[T]) Remove(item T) (bool, error) {
	index := c.IndexOf(item)
	if index < 0 {
		return false, nil
	}
	if err := c.RemoveAt(index); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Collection[T]) RemoveAt(index int) error {
	if err := c.CheckReentrancy(); err != nil {
		return err
	}
	c.mu.Lock()
	if index < 0 || index >= len(c.items) {
		n := len(c.items)
		c.mu.Unlock()
		return indexError(index, n)
	}
	before := c.endsLocked()
	removed := c.items[index]
	c.items = slices.Delete(c.items, index, index+1)
	c.mu.Unlock()

	c.releaseItem(removed)
	c.sys.Run(func(session SessionID) {
		c.reactToCollection(RemoveChange(session, []any{removed}, index))
		c.ReactToProperty(session, CountProperty)
		c.ReactToProperty(session, IndexerProperty)
		c.checkPropertyEnds(session, before)
	})
	return nil
}

// Set replaces the element at index.
func (c *Collection[T]) Set(index int, item T) error {
	if err := c.CheckReentrancy(); err != nil {
		return err
	}
	c.mu.Lock()
	if index < 0 || index >= len(c.items) {
		n := len(c.items)
		c.mu.Unlock()
		return indexError(index, n)
	}
	before := c.endsLocked()
	old := c.items[index]
	c.items[index] = item
	c.mu.Unlock()

	c.releaseItem(old)
	c.attachItem(item)
	c.sys.Run(func(session SessionID) {
		c.reactToCollection(ReplaceChange(session, item, old, index))
		c.ReactToProperty(session, CountProperty)
		c.ReactToProperty(session, IndexerProperty)
		c.checkPropertyEnds(session, before)
	})
	return nil
}

// Clear removes every element and raises a single reset.
func (c *Collection[T]) Clear() error {
	if err := c.CheckReentrancy(); err != nil {
		return err
	}
	c.mu.Lock()
	before := c.endsLocked()
	removed := c.items
	c.items = make([]T, 0, cap(removed))
	c.mu.Unlock()

	for _, item := range removed {
		c.detachItem(item)
	}
	c.sys.Run(func(session SessionID) {
		c.reactToCollection(ResetChange(session))
		c.ReactToProperty(session, CountProperty)
		c.ReactToProperty(session, IndexerProperty)
		c.checkPropertyEnds(session, before)
	})
	return nil
}

// reorder applies fn to items[index:index+count] and raises a reset. Count is
// not raised.
func (c *Collection[T]) reorder(index, count int, fn func([]T)) error {
	if err := c.CheckReentrancy(); err != nil {
		return err
	}
	c.mu.Lock()
	if err := checkRange(index, count, len(c.items)); err != nil {
		c.mu.Unlock()
		return err
	}
	before := c.endsLocked()
	fn(c.items[index : index+count])
	c.mu.Unlock()

	c.sys.Run(func(session SessionID) {
		c.reactToCollection(ResetChange(session))
		c.ReactToProperty(session, IndexerProperty)
		c.checkPropertyEnds(session, before)
	})
	return nil
}

func (c *Collection[T]) Reverse() error {
	return c.ReverseRange(0, c.Len())
}

func (c *Collection[T]) ReverseRange(index, count int) error {
	return c.reorder(index, count, func(s []T) {
		slices.Reverse(s)
	})
}

// Sort orders the elements with cmp, which follows the slices.SortFunc
// contract.
func (c *Collection[T]) Sort(cmp func(a, b T) int) error {
	return c.SortRange(0, c.Len(), cmp)
}

func (c *Collection[T]) SortRange(index, count int, cmp func(a, b T) int) error {
	if cmp == nil {
		return ErrNilComparer
	}
	return c.reorder(index, count, func(s []T) {
		slices.SortStableFunc(s, cmp)
	})
}

func checkRange(index, count, length int) error {
	switch {
	case index < 0:
		return indexError(index, length)
	case count < 0:
		return fmt.Errorf("%w: %d", ErrNegativeCount, count)
	case length-index < count:
		return fmt.Errorf("%w: index %d and count %d exceed length %d", ErrIndexOutOfRange, index, count, length)
	}
	return nil
}
