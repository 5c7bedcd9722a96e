package notify

import "reflect"

// AnyList is the untyped view of a Collection, for callers that only know
// the element type at run time.
type AnyList interface {
	Len() int
	GetAny(index int) (any, error)
	SetAny(index int, value any) error
	AddAny(value any) (int, error)
	InsertAny(index int, value any) error
	RemoveAny(value any) (bool, error)
	IndexOfAny(value any) int
	ContainsAny(value any) bool
}

var _ AnyList = (*Collection[int])(nil)

func (c *Collection[T]) elementType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// convert asserts value to T. Nil is accepted only when T can hold it.
func (c *Collection[T]) convert(value any) (T, error) {
	if v, ok := value.(T); ok {
		return v, nil
	}
	var zero T
	if value == nil {
		switch c.elementType().Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return zero, nil
		}
	}
	return zero, &TypeMismatchError{Got: reflect.TypeOf(value), Want: c.elementType()}
}

func (c *Collection[T]) GetAny(index int) (any, error) {
	return c.At(index)
}

func (c *Collection[T]) SetAny(index int, value any) error {
	item, err := c.convert(value)
	if err != nil {
		return err
	}
	return c.Set(index, item)
}

// AddAny appends value and returns its index, or -1 when value is not a T.
func (c *Collection[T]) AddAny(value any) (int, error) {
	item, err := c.convert(value)
	if err != nil {
		return -1, err
	}
	if err := c.Add(item); err != nil {
		return -1, err
	}
	return c.Len() - 1, nil
}

func (c *Collection[T]) InsertAny(index int, value any) error {
	item, err := c.convert(value)
	if err != nil {
		return err
	}
	return c.Insert(index, item)
}

// RemoveAny removes the first element equal to value. Values of another type
// are never contained, so they report false without an error.
func (c *Collection[T]) RemoveAny(value any) (bool, error) {
	item, err := c.convert(value)
	if err != nil {
		return false, nil
	}
	return c.Remove(item)
}

func (c *Collection[T]) IndexOfAny(value any) int {
	item, err := c.convert(value)
	if err != nil {
		return -1
	}
	return c.IndexOf(item)
}

func (c *Collection[T]) ContainsAny(value any) bool {
	return c.IndexOfAny(value) >= 0
}
