package script

import (
	"fmt"
	"strings"

	"github.com/zeusync/listsync/internal/config"
	"github.com/zeusync/listsync/pkg/observable"
)

// Apply runs ops against arr in order, stopping at the first invalid one.
// Indices are checked up front, so a bad script returns an *OpError instead of
// tripping the array's bounds panic.
func Apply(arr *observable.Array[string], ops []Op, keySep string) error {
	for i, op := range ops {
		if err := applyOne(arr, op, keySep); err != nil {
			return &OpError{Step: i, Op: op, Err: err}
		}
	}
	return nil
}

func applyOne(arr *observable.Array[string], op Op, keySep string) error {
	switch op.Op {
	case OpAppend:
		arr.Append(op.Value)

	case OpInsert:
		at, err := index(op, arr.Len()+1, arr.Mode() == observable.OrderFree)
		if err != nil {
			return err
		}
		arr.Insert(op.Value, at)

	case OpReplace:
		at, err := index(op, arr.Len(), true)
		if err != nil {
			return err
		}
		arr.Replace(at, op.Value)

	case OpRemove:
		at, err := index(op, arr.Len(), true)
		if err != nil {
			return err
		}
		arr.RemoveAt(at)

	case OpRemoveAll:
		arr.RemoveAll()

	case OpSort:
		arr.StartSorting(op.Order.Less())

	case OpResort:
		arr.Resort()

	case OpSync:
		arr.Reconcile(op.Values, sameKey(keySep))

	case OpRemoveWhere:
		pred, err := matcher(op)
		if err != nil {
			return err
		}
		arr.RemoveWhere(pred)

	case OpRemoveAllWhere:
		pred, err := matcher(op)
		if err != nil {
			return err
		}
		arr.RemoveAllWhere(pred)

	case OpReplaceWhere:
		pred, err := matcher(op)
		if err != nil {
			return err
		}
		arr.ReplaceWhere(pred, op.Value)

	case OpInsertAfter:
		pred, err := matcher(op)
		if err != nil {
			return err
		}
		arr.InsertAfter(op.Value, pred)

	default:
		return fmt.Errorf("%w %q", ErrUnknownOp, op.Op)
	}
	return nil
}

// index returns op.Index after checking it against [0, limit). When check is
// false the index is ignored by the array and only needs to be present.
func index(op Op, limit int, check bool) (int, error) {
	if op.Index == nil {
		if !check {
			return 0, nil
		}
		return 0, ErrMissingIndex
	}
	at := *op.Index
	if check && (at < 0 || at >= limit) {
		return 0, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, at, limit)
	}
	return at, nil
}

func matcher(op Op) (func(string) bool, error) {
	switch {
	case op.Match != "":
		return func(v string) bool { return v == op.Match }, nil
	case op.Prefix != "":
		return func(v string) bool { return strings.HasPrefix(v, op.Prefix) }, nil
	default:
		return nil, ErrMissingMatcher
	}
}

func sameKey(sep string) func(a, b string) bool {
	if sep == "" {
		return func(a, b string) bool { return a == b }
	}
	key := func(v string) string {
		k, _, _ := strings.Cut(v, sep)
		return k
	}
	return func(a, b string) bool { return key(a) == key(b) }
}

// NewArray builds the array a script starts from. Ordered arrays start sorted.
func NewArray(initial []string, order config.Order, opts ...observable.Option[string]) *observable.Array[string] {
	less := order.Less()
	if less != nil {
		opts = append(opts, observable.WithOrder(less))
	}
	arr := observable.New(initial, opts...)
	if less != nil {
		arr.Resort()
	}
	return arr
}
