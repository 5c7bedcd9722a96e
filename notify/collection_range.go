package notify

import (
	"slices"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// suspension captures the reactions raised while a composite operation runs.
type suspension struct {
	mu          sync.Mutex
	depth       int
	collections []CollectionChange
	properties  []string
	seen        mapset.Set[string]
}

func (c *Collection[T]) queueProperty(_ SessionID, name string) bool {
	c.susp.mu.Lock()
	defer c.susp.mu.Unlock()
	if c.susp.depth == 0 {
		return false
	}
	if c.susp.seen.Add(name) {
		c.susp.properties = append(c.susp.properties, name)
	}
	return true
}

func (c *Collection[T]) queueCollection(change CollectionChange) bool {
	c.susp.mu.Lock()
	defer c.susp.mu.Unlock()
	if c.susp.depth == 0 {
		return false
	}
	c.susp.collections = append(c.susp.collections, change)
	return true
}

func (c *Collection[T]) suspend() (outermost bool) {
	c.susp.mu.Lock()
	defer c.susp.mu.Unlock()
	c.susp.depth++
	if c.susp.depth == 1 {
		c.susp.seen = mapset.NewThreadUnsafeSet[string]()
		return true
	}
	return false
}

func (c *Collection[T]) resume() ([]CollectionChange, []string) {
	c.susp.mu.Lock()
	defer c.susp.mu.Unlock()
	c.susp.depth--
	if c.susp.depth > 0 {
		return nil, nil
	}
	collections, properties := c.susp.collections, c.susp.properties
	c.susp.collections, c.susp.properties, c.susp.seen = nil, nil, nil
	return collections, properties
}

// group runs fn with notifications suspended. fn returns the change that
// stands in for everything it did, or nil to replay the captured changes.
// Queued properties are raised once each in the group's session.
func (c *Collection[T]) group(fn func() (*CollectionChange, error)) error {
	if !c.suspend() {
		substitute, err := fn()
		c.resume()
		if substitute != nil {
			c.queueCollection(*substitute)
		}
		return err
	}

	session := c.sys.StartSession()
	defer c.sys.EndSession(session)

	substitute, err := fn()
	collections, properties := c.resume()

	if substitute != nil {
		change := *substitute
		change.Session = session
		c.reactToCollection(change)
	} else {
		for _, change := range collections {
			c.sys.Run(func(s SessionID) {
				change.Session = s
				c.reactToCollection(change)
			})
		}
	}
	for _, name := range properties {
		c.ReactToProperty(session, name)
	}
	return err
}

// GroupNotifications runs fn with the collection's notifications held back.
// When fn returns, substitute (if not nil) is raised in place of every
// captured collection change and each captured property is raised once.
func (c *Collection[T]) GroupNotifications(substitute *CollectionChange, fn func() error) error {
	return c.group(func() (*CollectionChange, error) {
		err := fn()
		return substitute, err
	})
}

// quietItemWhile silences item for the duration of fn when it supports it.
func quietItemWhile[T any](item T, fn func() error) error {
	t, ok := any(item).(NotificationToggler)
	if !ok || isNil(item) {
		return fn()
	}
	t.DisableNotifications()
	defer t.EnableNotifications()
	return fn()
}

// AddRange appends items and raises a single reset.
func (c *Collection[T]) AddRange(items []T) error {
	if items == nil {
		return ErrNilRange
	}
	if err := c.CheckReentrancy(); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return c.group(func() (*CollectionChange, error) {
		for _, item := range items {
			if err := quietItemWhile(item, func() error { return c.Add(item) }); err != nil {
				return nil, err
			}
		}
		reset := ResetChange(0)
		return &reset, nil
	})
}

// InsertRange inserts items at index and raises one Add change carrying all
// of them.
func (c *Collection[T]) InsertRange(index int, items []T) error {
	if items == nil {
		return ErrNilRange
	}
	if err := c.CheckReentrancy(); err != nil {
		return err
	}
	if n := c.Len(); index < 0 || index > n {
		return indexError(index, n)
	}
	if len(items) == 0 {
		return nil
	}
	return c.group(func() (*CollectionChange, error) {
		for i, item := range items {
			if err := quietItemWhile(item, func() error { return c.Insert(index+i, item) }); err != nil {
				return nil, err
			}
		}
		added := AddChange(0, toAny(items), index)
		return &added, nil
	})
}

// RemoveAll removes every element matching match and returns how many were
// removed.
func (c *Collection[T]) RemoveAll(match func(T) bool) (int, error) {
	if match == nil {
		return 0, ErrNilRange
	}
	if err := c.CheckReentrancy(); err != nil {
		return 0, err
	}
	var removed []any
	err := c.group(func() (*CollectionChange, error) {
		for i := c.Len() - 1; i >= 0; i-- {
			item, err := c.At(i)
			if err != nil {
				continue
			}
			if !match(item) {
				continue
			}
			if err := c.RemoveAt(i); err != nil {
				return nil, err
			}
			removed = append(removed, item)
		}
		if len(removed) == 0 {
			return nil, nil
		}
		slices.Reverse(removed)
		change := RemoveChange(0, removed, -1)
		return &change, nil
	})
	return len(removed), err
}

// RemoveRange removes count elements starting at index and raises one Remove
// change carrying them.
func (c *Collection[T]) RemoveRange(index, count int) error {
	if err := c.CheckReentrancy(); err != nil {
		return err
	}
	if err := checkRange(index, count, c.Len()); err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	return c.group(func() (*CollectionChange, error) {
		removed := make([]any, 0, count)
		for i := 0; i < count; i++ {
			item, err := c.At(index)
			if err != nil {
				return nil, err
			}
			if err := c.RemoveAt(index); err != nil {
				return nil, err
			}
			removed = append(removed, item)
		}
		change := RemoveChange(0, removed, index)
		return &change, nil
	})
}

func toAny[T any](items []T) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

func (c *Collection[T]) Find(match func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if match(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) FindIndex(match func(T) bool) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.IndexFunc(c.items, match)
}

func (c *Collection[T]) FindLast(match func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.items) - 1; i >= 0; i-- {
		if match(c.items[i]) {
			return c.items[i], true
		}
	}
	var zero T
	return zero, false
}

// FindAll returns a new collection, on the same system, holding every match.
func (c *Collection[T]) FindAll(match func(T) bool) *Collection[T] {
	var found []T
	for _, item := range c.Items() {
		if match(item) {
			found = append(found, item)
		}
	}
	return NewCollection(c.sys, WithItems(found...), WithEqual(c.equal))
}

func (c *Collection[T]) Exists(match func(T) bool) bool {
	return c.FindIndex(match) >= 0
}

func (c *Collection[T]) TrueForAll(match func(T) bool) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if !match(item) {
			return false
		}
	}
	return true
}

// ForEach calls fn on a snapshot, so fn may mutate the collection.
func (c *Collection[T]) ForEach(fn func(T)) {
	for _, item := range c.Items() {
		fn(item)
	}
}

// GetRange copies count elements starting at index into a new collection.
func (c *Collection[T]) GetRange(index, count int) (*Collection[T], error) {
	c.mu.RLock()
	if err := checkRange(index, count, len(c.items)); err != nil {
		c.mu.RUnlock()
		return nil, err
	}
	part := slices.Clone(c.items[index : index+count])
	c.mu.RUnlock()
	return NewCollection(c.sys, WithItems(part...), WithEqual(c.equal)), nil
}

// BinarySearch looks item up in a collection sorted by cmp. A nil cmp finds
// nothing.
func (c *Collection[T]) BinarySearch(item T, cmp func(a, b T) int) (int, bool) {
	if cmp == nil {
		return 0, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.BinarySearchFunc(c.items, item, cmp)
}
