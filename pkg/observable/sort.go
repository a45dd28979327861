package observable

import (
	"slices"

	"github.com/zeusync/listsync/pkg/sequence"
)

// StartSorting replaces the comparator and resorts immediately. A nil less
// switches the array back to free ordering.
func (a *Array[T]) StartSorting(less Less[T]) {
	a.checkMutable("StartSorting")
	a.less = less
	a.Resort()
}

// Resort reorders the elements by the active comparator, reporting one move
// per displaced element. Target slots are filled from the last to the first;
// for each slot the element that belongs there is pulled out of its current
// position. The sort is stable, so the same input always yields the same
// sequence of moves.
func (a *Array[T]) Resort() {
	a.checkMutable("Resort")
	if a.less == nil {
		return
	}

	// ids[k] is the original index of the element now at position k.
	ids := make([]int, len(a.values))
	for i := range ids {
		ids[i] = i
	}
	snapshot := slices.Clone(a.values)
	sorted := sequence.From(ids).SortStable(func(x, y int) bool {
		return a.less(snapshot[x], snapshot[y])
	}).Collect()

	to := len(a.values) - 1
	for k := len(sorted) - 1; k >= 0; k-- {
		from := slices.Index(ids, sorted[k])
		if from != to {
			id := ids[from]
			ids = slices.Delete(ids, from, from+1)
			ids = slices.Insert(ids, to, id)
			a.relocate(a.values[from], from, to)
		}
		to--
	}
}
