package observable

import (
	"iter"
	"slices"

	"github.com/zeusync/listsync/internal/core/observability/log"
	"github.com/zeusync/listsync/pkg/sequence"
)

var nopLogger log.Log = log.Nop()

// OrderMode tells whether insertions honour an explicit index or a comparator.
type OrderMode uint8

const (
	// OrderFree places elements where the caller asks.
	OrderFree OrderMode = iota
	// OrderEnforced places every inserted element by the active comparator.
	OrderEnforced
)

func (m OrderMode) String() string {
	if m == OrderEnforced {
		return "enforced"
	}
	return "free"
}

// Array is an ordered collection that reports every structural change to its
// observers synchronously, in the order the changes happen.
//
// Array is NOT thread-safe. It must be owned and mutated by a single goroutine,
// and handlers must not mutate the array they are observing.
type Array[T any] struct {
	values     []T
	observers  []registration[T]
	less       Less[T]
	onPresence func(bool)
	logger     log.Log

	notifying bool
}

// New creates an Array holding a copy of initial, in the given order.
func New[T any](initial []T, opts ...Option[T]) *Array[T] {
	a := &Array[T]{
		values: slices.Clone(initial),
		logger: nopLogger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Len returns the number of elements.
func (a *Array[T]) Len() int {
	return len(a.values)
}

// At returns the element at index i.
func (a *Array[T]) At(i int) T {
	a.checkIndex("At", i, len(a.values))
	return a.values[i]
}

// Values returns a copy of the current elements.
func (a *Array[T]) Values() []T {
	return slices.Clone(a.values)
}

// All iterates over index/element pairs in presentation order.
func (a *Array[T]) All() iter.Seq2[int, T] {
	return slices.All(a.values)
}

// Mode reports whether a comparator is currently enforcing order.
func (a *Array[T]) Mode() OrderMode {
	if a.less != nil {
		return OrderEnforced
	}
	return OrderFree
}

// Append adds v at the end, or, when ordering is enforced, right before the
// first element v sorts before. It returns the index v ended up at.
func (a *Array[T]) Append(v T) int {
	a.checkMutable("Append")

	at := len(a.values)
	if a.less != nil {
		if i := sequence.From(a.values).IndexOf(func(other T) bool { return a.less(v, other) }); i >= 0 {
			at = i
		}
	}
	return a.insertAt(v, at)
}

// Insert puts v at index at. When ordering is enforced the index is ignored
// and v is placed as by Append. It returns the index v ended up at.
func (a *Array[T]) Insert(v T, at int) int {
	a.checkMutable("Insert")

	if a.less != nil {
		return a.Append(v)
	}
	a.checkIndex("Insert", at, len(a.values)+1)
	return a.insertAt(v, at)
}

// Replace overwrites the element at index at without moving it, even when
// ordering is enforced. Call Resort afterwards if the new value may be out of
// place.
func (a *Array[T]) Replace(at int, v T) {
	a.checkMutable("Replace")
	a.checkIndex("Replace", at, len(a.values))

	a.values[at] = v
	a.notify(func(h Handlers[T]) {
		if h.Update != nil {
			h.Update(v, at)
		}
	})
}

// RemoveAt deletes and returns the element at index at.
func (a *Array[T]) RemoveAt(at int) T {
	a.checkMutable("RemoveAt")
	a.checkIndex("RemoveAt", at, len(a.values))

	v := a.values[at]
	a.values = slices.Delete(a.values, at, at+1)
	a.notify(func(h Handlers[T]) {
		if h.Remove != nil {
			h.Remove(v, at)
		}
	})
	return v
}

// RemoveAll clears the array and reports the previous contents in a single
// notification.
func (a *Array[T]) RemoveAll() {
	a.checkMutable("RemoveAll")

	old := a.values
	a.values = nil
	a.notify(func(h Handlers[T]) {
		if h.RemoveAll != nil {
			h.RemoveAll(old)
		}
	})
}

func (a *Array[T]) insertAt(v T, at int) int {
	a.values = slices.Insert(a.values, at, v)
	a.notify(func(h Handlers[T]) {
		if h.Insert != nil {
			h.Insert(v, at)
		}
	})
	return at
}

// relocate moves the element at from so that it ends up at index to,
// replacing it with v, and reports a single move.
func (a *Array[T]) relocate(v T, from, to int) {
	a.values = slices.Delete(a.values, from, from+1)
	a.values = slices.Insert(a.values, to, v)
	a.notify(func(h Handlers[T]) {
		if h.Move != nil {
			h.Move(v, from, to)
		}
	})
}

func (a *Array[T]) checkMutable(op string) {
	if a.notifying {
		a.logger.Error("reentrant mutation", log.String("op", op))
		panic(ErrReentrantMutation)
	}
}

func (a *Array[T]) checkIndex(op string, i, limit int) {
	if i < 0 || i >= limit {
		panic(&IndexError{Op: op, Index: i, Len: len(a.values)})
	}
}
