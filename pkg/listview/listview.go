// Package listview binds observable arrays to list and grid surfaces.
//
// A surface is anything that renders rows or cells and accepts incremental
// updates: a native table view behind a platform bridge, a terminal list, or a
// remote client. Bindings translate array notifications into surface calls
// synchronously and in the order the array produced them.
package listview

import (
	"fmt"

	"github.com/zeusync/listsync/pkg/observable"
)

// IndexPath addresses one row or cell.
type IndexPath struct {
	Section int
	Item    int
}

func (p IndexPath) String() string {
	return fmt.Sprintf("%d.%d", p.Section, p.Item)
}

// TableSurface is a sectioned list that can reload a single section.
type TableSurface interface {
	InsertRows(paths []IndexPath)
	DeleteRows(paths []IndexPath)
	MoveRow(from, to IndexPath)
	ReloadSections(sections []int)
}

// GridSurface is a collection of cells that can only reload everything at once.
type GridSurface interface {
	InsertItems(paths []IndexPath)
	DeleteItems(paths []IndexPath)
	MoveItem(from, to IndexPath)
	ReloadData()
}

// Binding describes where an array lives inside a surface. Offset is added to
// every array index, for sections that start with fixed rows.
type Binding struct {
	Section int
	Offset  int
}

func (b Binding) path(i int) IndexPath {
	return IndexPath{Section: b.Section, Item: i + b.Offset}
}

// BindTable keeps section b.Section of surface in step with arr. Updates in
// place are not forwarded; clearing the array reloads the section.
func BindTable[T any](arr *observable.Array[T], obs observable.Observer, b Binding, surface TableSurface) {
	arr.Subscribe(obs, observable.Handlers[T]{
		Insert: func(_ T, at int) {
			surface.InsertRows([]IndexPath{b.path(at)})
		},
		Remove: func(_ T, at int) {
			surface.DeleteRows([]IndexPath{b.path(at)})
		},
		RemoveAll: func([]T) {
			surface.ReloadSections([]int{b.Section})
		},
		Move: func(_ T, from, to int) {
			surface.MoveRow(b.path(from), b.path(to))
		},
	})
}

// BindGrid keeps section b.Section of surface in step with arr. Clearing the
// array reloads the whole grid.
func BindGrid[T any](arr *observable.Array[T], obs observable.Observer, b Binding, surface GridSurface) {
	arr.Subscribe(obs, observable.Handlers[T]{
		Insert: func(_ T, at int) {
			surface.InsertItems([]IndexPath{b.path(at)})
		},
		Remove: func(_ T, at int) {
			surface.DeleteItems([]IndexPath{b.path(at)})
		},
		RemoveAll: func([]T) {
			surface.ReloadData()
		},
		Move: func(_ T, from, to int) {
			surface.MoveItem(b.path(from), b.path(to))
		},
	})
}
