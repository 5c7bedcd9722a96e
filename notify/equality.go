package notify

import "reflect"

// valuesEqual compares by value. Comparable dynamic types use ==, everything
// else falls back to reflect.DeepEqual. A struct or array holding an
// interface passes Comparable but can still panic on ==; those fall back too.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if eq, ok := strictEqual(a, b); ok {
		return eq
	}
	return reflect.DeepEqual(a, b)
}

// strictEqual is a == b, with ok false when the types cannot be compared or
// the comparison panics.
func strictEqual(a, b any) (eq, ok bool) {
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false, false
	}
	defer func() {
		if recover() != nil {
			eq, ok = false, false
		}
	}()
	return a == b, true
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

type baseNotifier interface {
	base() *Notifier
}

// identity maps anything embedding a Notifier onto that Notifier so
// reactions can be matched back to the value that was stored.
func identity(v any) any {
	if b, ok := v.(baseNotifier); ok {
		if n := b.base(); n != nil {
			return n
		}
	}
	return v
}

func sameObject(a, b any) bool {
	ia, ib := identity(a), identity(b)
	if ia == nil || ib == nil {
		return false
	}
	eq, _ := strictEqual(ia, ib)
	return eq
}
