package kernel

// TakeCell holds at most one value and moves it out on Take.
//
// It is the handoff point for buffers that cross an asynchronous boundary: a buffer
// lives in exactly one cell or driver at a time. An empty cell means the buffer is
// currently lent out (an operation is in flight).
//
// There is no locking; all access happens in the kernel context.
type TakeCell[T any] struct {
	v  T
	ok bool
}

// NewTakeCell returns a cell holding v.
func NewTakeCell[T any](v T) TakeCell[T] {
	return TakeCell[T]{v: v, ok: true}
}

// Take moves the value out of the cell, leaving it empty.
func (c *TakeCell[T]) Take() (T, bool) {
	var zero T
	if !c.ok {
		return zero, false
	}
	v := c.v
	c.v = zero
	c.ok = false
	return v, true
}

// Replace stores v and returns the previous value, if any.
func (c *TakeCell[T]) Replace(v T) (old T, hadOld bool) {
	old, hadOld = c.v, c.ok
	c.v = v
	c.ok = true
	return old, hadOld
}

// Put stores v, dropping any previous value.
func (c *TakeCell[T]) Put(v T) {
	_, _ = c.Replace(v)
}

// IsSome reports whether the cell holds a value.
func (c *TakeCell[T]) IsSome() bool { return c.ok }

// Map lends the value to fn without moving it out. fn must not retain it.
func (c *TakeCell[T]) Map(fn func(T)) bool {
	if !c.ok {
		return false
	}
	fn(c.v)
	return true
}

// OptionalCell holds at most one small value.
type OptionalCell[T any] struct {
	v  T
	ok bool
}

func (c *OptionalCell[T]) Set(v T) {
	c.v = v
	c.ok = true
}

func (c *OptionalCell[T]) Get() (T, bool) { return c.v, c.ok }

func (c *OptionalCell[T]) Clear() {
	var zero T
	c.v = zero
	c.ok = false
}

func (c *OptionalCell[T]) IsSome() bool { return c.ok }

// Map calls fn with the value, if present.
func (c *OptionalCell[T]) Map(fn func(T)) bool {
	if !c.ok {
		return false
	}
	fn(c.v)
	return true
}
