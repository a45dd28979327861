package observable

import "slices"

type ChangeKind uint8

const (
	ChangeInsert ChangeKind = iota + 1
	ChangeUpdate
	ChangeRemove
	ChangeRemoveAll
	ChangeMove
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeInsert:
		return "insert"
	case ChangeUpdate:
		return "update"
	case ChangeRemove:
		return "remove"
	case ChangeRemoveAll:
		return "remove_all"
	case ChangeMove:
		return "move"
	default:
		return "unknown"
	}
}

// Change is one notification flattened into a value. Index is the affected
// position (the destination for moves). From and To are only set for moves,
// Old only for remove-all.
type Change[T any] struct {
	Kind  ChangeKind
	Index int
	From  int
	To    int
	Value T
	Old   []T
}

// Funnel returns a bundle that forwards every kind of change to fn.
func Funnel[T any](fn func(Change[T])) Handlers[T] {
	return Handlers[T]{
		Insert: func(v T, at int) {
			fn(Change[T]{Kind: ChangeInsert, Index: at, Value: v})
		},
		Update: func(v T, at int) {
			fn(Change[T]{Kind: ChangeUpdate, Index: at, Value: v})
		},
		Remove: func(v T, at int) {
			fn(Change[T]{Kind: ChangeRemove, Index: at, Value: v})
		},
		RemoveAll: func(old []T) {
			fn(Change[T]{Kind: ChangeRemoveAll, Old: slices.Clone(old)})
		},
		Move: func(v T, from, to int) {
			fn(Change[T]{Kind: ChangeMove, Index: to, From: from, To: to, Value: v})
		},
	}
}

// Recorder keeps every change it is handed, in order.
type Recorder[T any] struct {
	Changes []Change[T]
}

func (r *Recorder[T]) Handlers() Handlers[T] {
	return Funnel(func(c Change[T]) {
		r.Changes = append(r.Changes, c)
	})
}

// Kinds returns the kind of every recorded change.
func (r *Recorder[T]) Kinds() []ChangeKind {
	kinds := make([]ChangeKind, len(r.Changes))
	for i, c := range r.Changes {
		kinds[i] = c.Kind
	}
	return kinds
}

func (r *Recorder[T]) Reset() {
	r.Changes = nil
}
