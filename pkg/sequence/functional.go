package sequence

import (
	"iter"
	"slices"
)

// Iterator is a generic, immutable, chainable iterator for any type T.
type Iterator[T any] struct {
	seq iter.Seq[T]
}

// From creates a new Iterator over a slice of T. The slice is not copied.
func From[T any](data []T) *Iterator[T] {
	return &Iterator[T]{
		seq: func(yield func(T) bool) {
			for _, v := range data {
				if !yield(v) {
					return
				}
			}
		},
	}
}

// FromSeq wraps an existing iter.Seq.
func FromSeq[T any](seq iter.Seq[T]) *Iterator[T] {
	return &Iterator[T]{seq: seq}
}

// Seq returns the underlying sequence function for the iterator.
func (i *Iterator[T]) Seq() iter.Seq[T] {
	return i.seq
}

// Pull converts the iterator into a pull-style next/stop pair.
func (i *Iterator[T]) Pull() (next func() (T, bool), stop func()) {
	return iter.Pull(i.Seq())
}

// Collect exhausts the iterator and returns a slice of all elements.
func (i *Iterator[T]) Collect() []T {
	var out []T
	i.seq(func(v T) bool {
		out = append(out, v)
		return true
	})
	return out
}

// SortStable returns a new Iterator with elements sorted by less. Elements that
// compare equal keep their relative order.
func (i *Iterator[T]) SortStable(less func(a, b T) bool) *Iterator[T] {
	data := i.Collect()
	slices.SortStableFunc(data, func(a, b T) int {
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		default:
			return 0
		}
	})
	return From(data)
}

// Filter returns a new Iterator containing only elements that satisfy the predicate.
func (i *Iterator[T]) Filter(pred func(T) bool) *Iterator[T] {
	return &Iterator[T]{
		seq: func(yield func(T) bool) {
			i.seq(func(v T) bool {
				if pred(v) {
					return yield(v)
				}
				return true
			})
		},
	}
}

// Find returns the first element matching the predicate, or false if not found.
func (i *Iterator[T]) Find(pred func(T) bool) (T, bool) {
	var found T
	ok := false
	i.seq(func(v T) bool {
		if pred(v) {
			found = v
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

// IndexOf returns the position of the first element matching the predicate,
// or -1 when nothing matches.
func (i *Iterator[T]) IndexOf(pred func(T) bool) int {
	idx, pos := -1, 0
	i.seq(func(v T) bool {
		if pred(v) {
			idx = pos
			return false
		}
		pos++
		return true
	})
	return idx
}

// Count returns the number of elements in the iterator.
func (i *Iterator[T]) Count() int {
	count := 0
	i.seq(func(_ T) bool {
		count++
		return true
	})
	return count
}

// Reverse returns a new Iterator with elements in reverse order (eager).
func (i *Iterator[T]) Reverse() *Iterator[T] {
	data := i.Collect()
	slices.Reverse(data)
	return From(data)
}

// ToArray applies callback to each element and returns the results.
func ToArray[T any, S any](it *Iterator[T], callback func(T) S) []S {
	var arr []S
	it.seq(func(v T) bool {
		arr = append(arr, callback(v))
		return true
	})
	return arr
}
