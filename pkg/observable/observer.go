package observable

import (
	"unsafe"
	"weak"
)

// Observer identifies a subscriber without keeping it alive. Two Observers are
// the same subscriber when they were built from the same pointer (or token).
type Observer struct {
	id    any
	alive func() bool
}

// ObserverOf returns a weak identity for o. Once o is garbage collected the
// identity no longer resolves and its handlers are dropped on the next
// notification pass.
//
// o must point to a type with a non-zero size: distinct zero-size values may
// share an address and cannot be tracked weakly. ObserverOf panics with
// ErrInvalidObserver for them; use ObserverToken instead.
func ObserverOf[O any](o *O) Observer {
	if o == nil {
		return Observer{}
	}
	if unsafe.Sizeof(*o) == 0 {
		panic(ErrInvalidObserver)
	}
	wp := weak.Make(o)
	return Observer{
		id:    wp,
		alive: func() bool { return wp.Value() != nil },
	}
}

// ObserverToken builds an identity from a comparable key. alive reports whether
// the owner still exists; nil means the token never expires.
func ObserverToken[K comparable](key K, alive func() bool) Observer {
	return Observer{id: key, alive: alive}
}

// IsZero reports whether o was built from a nil pointer or never initialised.
func (o Observer) IsZero() bool {
	return o.id == nil
}

func (o Observer) same(other Observer) bool {
	return o.id == other.id
}

func (o Observer) isAlive() bool {
	return o.alive == nil || o.alive()
}

// Handlers is one subscription's bundle of callbacks. Every field is optional.
type Handlers[T any] struct {
	Insert    func(value T, at int)
	Update    func(value T, at int)
	Remove    func(value T, at int)
	RemoveAll func(old []T)
	Move      func(value T, from, to int)
}

// structural reports whether the bundle reacts to at least one change that
// alters positions. Update alone is not enough to keep a view in step.
func (h Handlers[T]) structural() bool {
	return h.Insert != nil || h.Remove != nil || h.Move != nil || h.RemoveAll != nil
}

type registration[T any] struct {
	observer Observer
	handlers []Handlers[T]
}
