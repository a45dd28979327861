package observable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type row struct {
	ID  string
	Rev int
}

func sameID(a, b row) bool { return a.ID == b.ID }

func rows(ids ...string) []row {
	out := make([]row, len(ids))
	for i, id := range ids {
		out[i] = row{ID: id}
	}
	return out
}

func TestReconcile_TailToHead(t *testing.T) {
	arr := New(rows("a", "b", "c"))
	rec := watch(t, arr)

	arr.Reconcile(rows("c", "a", "d", "b"), sameID)

	assert.Equal(t, rows("c", "a", "d", "b"), arr.Values())
	assert.Equal(t, []Change[row]{
		{Kind: ChangeMove, Index: 2, From: 1, To: 2, Value: row{ID: "b"}},
		{Kind: ChangeInsert, Index: 2, Value: row{ID: "d"}},
		{Kind: ChangeMove, Index: 1, From: 0, To: 1, Value: row{ID: "a"}},
	}, rec.Changes)
}

func TestReconcile_SecondPassIsSilent(t *testing.T) {
	arr := New(rows("a", "b", "c"))
	rec := watch(t, arr)
	target := rows("c", "x", "a")

	arr.Reconcile(target, sameID)
	assert.NotEmpty(t, rec.Changes)

	rec.Reset()
	arr.Reconcile(target, sameID)

	assert.Empty(t, rec.Changes)
	assert.Equal(t, target, arr.Values())
}

func TestReconcile_RoundTripThroughEmpty(t *testing.T) {
	arr := New[row](nil)
	rec := watch(t, arr)

	arr.Reconcile(rows("a", "b", "c"), sameID)
	assert.Equal(t, rows("a", "b", "c"), arr.Values())
	assert.Equal(t, []Change[row]{
		{Kind: ChangeInsert, Index: 0, Value: row{ID: "c"}},
		{Kind: ChangeInsert, Index: 0, Value: row{ID: "b"}},
		{Kind: ChangeInsert, Index: 0, Value: row{ID: "a"}},
	}, rec.Changes)

	rec.Reset()
	arr.Reconcile(nil, sameID)
	assert.Zero(t, arr.Len())
	assert.Equal(t, []Change[row]{
		{Kind: ChangeRemove, Index: 2, Value: row{ID: "c"}},
		{Kind: ChangeRemove, Index: 1, Value: row{ID: "b"}},
		{Kind: ChangeRemove, Index: 0, Value: row{ID: "a"}},
	}, rec.Changes)
}

func TestReconcile_RefreshesMatchedValuesSilently(t *testing.T) {
	arr := New([]row{{ID: "a", Rev: 1}, {ID: "b", Rev: 1}})
	rec := watch(t, arr)

	arr.Reconcile([]row{{ID: "a", Rev: 2}, {ID: "b", Rev: 3}}, sameID)

	assert.Equal(t, []row{{ID: "a", Rev: 2}, {ID: "b", Rev: 3}}, arr.Values())
	assert.Empty(t, rec.Changes)
}

func TestReconcile_MovedElementTakesTargetValue(t *testing.T) {
	arr := New([]row{{ID: "a", Rev: 1}, {ID: "b", Rev: 1}})
	rec := watch(t, arr)

	arr.Reconcile([]row{{ID: "b", Rev: 1}, {ID: "a", Rev: 9}}, sameID)

	assert.Equal(t, []row{{ID: "b", Rev: 1}, {ID: "a", Rev: 9}}, arr.Values())
	assert.Equal(t, []Change[row]{
		{Kind: ChangeMove, Index: 1, From: 0, To: 1, Value: row{ID: "a", Rev: 9}},
	}, rec.Changes)
}

func TestReconcile_SortsTargetWhenOrderIsEnforced(t *testing.T) {
	arr := New(rows("a", "c"), WithOrder(func(x, y row) bool { return x.ID < y.ID }))
	rec := watch(t, arr)

	arr.Reconcile(rows("d", "b", "a"), sameID)

	assert.Equal(t, rows("a", "b", "d"), arr.Values())
	assert.Equal(t, []Change[row]{
		{Kind: ChangeInsert, Index: 2, Value: row{ID: "d"}},
		{Kind: ChangeInsert, Index: 2, Value: row{ID: "b"}},
		{Kind: ChangeMove, Index: 1, From: 0, To: 1, Value: row{ID: "a"}},
		{Kind: ChangeRemove, Index: 0, Value: row{ID: "c"}},
	}, rec.Changes)
}

func TestReconcile_EveryTargetElementPresentOnce(t *testing.T) {
	starts := [][]string{
		{},
		{"a"},
		{"e", "d", "c", "b", "a"},
		{"a", "x", "b", "y", "c"},
		{"q", "r"},
	}
	target := rows("b", "a", "c", "e")

	for _, start := range starts {
		arr := New(rows(start...))
		arr.Reconcile(target, sameID)
		assert.Equal(t, target, arr.Values(), "start %v", start)
	}
}
