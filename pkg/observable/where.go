package observable

import "github.com/zeusync/listsync/pkg/sequence"

// IndexWhere returns the index of the first element matching pred, or -1.
func (a *Array[T]) IndexWhere(pred func(T) bool) int {
	return sequence.From(a.values).IndexOf(pred)
}

// RemoveWhere removes the first element matching pred and returns the index it
// had. ok is false when nothing matched.
func (a *Array[T]) RemoveWhere(pred func(T) bool) (index int, ok bool) {
	index = a.IndexWhere(pred)
	if index < 0 {
		return -1, false
	}
	a.RemoveAt(index)
	return index, true
}

// RemoveAllWhere removes every element matching pred, highest index first,
// one notification each. It returns how many elements were removed.
func (a *Array[T]) RemoveAllWhere(pred func(T) bool) int {
	removed := 0
	for i := len(a.values) - 1; i >= 0; i-- {
		if pred(a.values[i]) {
			a.RemoveAt(i)
			removed++
		}
	}
	return removed
}

// ReplaceWhere replaces the first element matching pred with v.
func (a *Array[T]) ReplaceWhere(pred func(T) bool, v T) (index int, ok bool) {
	index = a.IndexWhere(pred)
	if index < 0 {
		return -1, false
	}
	a.Replace(index, v)
	return index, true
}

// InsertAfter inserts v right after the first element matching pred, or at the
// end when nothing matches. It returns the index v ended up at, which under
// enforced ordering is wherever the comparator put it.
func (a *Array[T]) InsertAfter(v T, pred func(T) bool) int {
	index := a.IndexWhere(pred)
	if index < 0 {
		index = len(a.values) - 1
	}
	return a.Insert(v, index+1)
}
