package repository

// Optional is the result of a single-row find: a value or nothing, never an error on a miss
type Optional[T any] struct {
	value   T
	present bool
}

// Some wraps a present value
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// None returns an empty Optional
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// IsPresent reports whether a value is held
func (o Optional[T]) IsPresent() bool {
	return o.present
}

// IsEmpty reports whether no value is held
func (o Optional[T]) IsEmpty() bool {
	return !o.present
}

// OrElse returns the value, or def when empty
func (o Optional[T]) OrElse(def T) T {
	if o.present {
		return o.value
	}
	return def
}

// MustGet returns the value and panics when empty. Intended for tests.
func (o Optional[T]) MustGet() T {
	if !o.present {
		panic("repository: MustGet on empty Optional")
	}
	return o.value
}

func optionalFrom[M, T any](m *M, convert func(*M) T) Optional[T] {
	if m == nil {
		return None[T]()
	}
	return Some(convert(m))
}
