package notify

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrReentrancy is returned when a collection with several
	// CollectionChanged subscribers is mutated from inside one of them.
	ErrReentrancy = errors.New("notify: collection reentrancy not allowed")

	ErrIndexOutOfRange = errors.New("notify: index out of range")
	ErrNegativeCount   = errors.New("notify: count must not be negative")
	ErrNilRange        = errors.New("notify: range must not be nil")
	ErrCapacity        = errors.New("notify: capacity is less than the item count")
	ErrNilComparer     = errors.New("notify: comparer must not be nil")
)

// TypeMismatchError is returned when a value written through the untyped
// list surface cannot be converted to the element type.
type TypeMismatchError struct {
	Got  reflect.Type
	Want reflect.Type
}

func (e *TypeMismatchError) Error() string {
	got := "<nil>"
	if e.Got != nil {
		got = e.Got.String()
	}
	return fmt.Sprintf("notify: %s cannot be converted to %s", got, e.Want)
}

// UnknownPropertyError names a declared dependency that refers to a property
// the owner does not expose.
type UnknownPropertyError struct {
	Name string
	// Role is "source" or "dependent".
	Role string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("notify: unknown %s property %q", e.Role, e.Name)
}

func indexError(index, length int) error {
	return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, index, length)
}
