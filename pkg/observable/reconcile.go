package observable

import "github.com/zeusync/listsync/pkg/sequence"

// Reconcile turns the array into target, reporting the changes needed to get
// there. When ordering is enforced target is sorted first (stably).
//
// Both sequences are walked from the tail:
//   - equal tails: the stored element is refreshed with the target value,
//     silently, and both cursors step back;
//   - the target element exists earlier in the array: it is moved to the
//     current tail slot and both cursors step back;
//   - otherwise the target element is inserted right after the current tail
//     slot and only the target cursor steps back.
//
// Leftover array elements are then removed from the tail inward, and leftover
// target elements are inserted at the head. Reconciling twice with the same
// target reports nothing the second time.
func (a *Array[T]) Reconcile(target []T, isEqual func(a, b T) bool) {
	a.checkMutable("Reconcile")

	targets := target
	if a.less != nil {
		targets = sequence.From(target).SortStable(a.less).Collect()
	}

	newIdx := len(targets) - 1
	existingIdx := len(a.values) - 1

	for newIdx >= 0 && existingIdx >= 0 {
		next := targets[newIdx]

		if isEqual(next, a.values[existingIdx]) {
			a.values[existingIdx] = next
			newIdx--
			existingIdx--
			continue
		}

		found := sequence.From(a.values[:existingIdx+1]).IndexOf(func(v T) bool {
			return isEqual(v, next)
		})
		if found >= 0 {
			a.relocate(next, found, existingIdx)
			existingIdx--
			newIdx--
			continue
		}

		a.insertAt(next, existingIdx+1)
		newIdx--
	}

	for ; existingIdx >= 0; existingIdx-- {
		a.RemoveAt(existingIdx)
	}

	for ; newIdx >= 0; newIdx-- {
		a.insertAt(targets[newIdx], 0)
	}
}
