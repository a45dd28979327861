package listview

import "fmt"

// Recording is a TableSurface and GridSurface that writes every call it
// receives as a line of text. It backs the replay tool's view trace.
type Recording struct {
	Calls []string
}

var (
	_ TableSurface = (*Recording)(nil)
	_ GridSurface  = (*Recording)(nil)
)

func (r *Recording) InsertRows(paths []IndexPath) {
	r.add("insert_rows %v", paths)
}

func (r *Recording) DeleteRows(paths []IndexPath) {
	r.add("delete_rows %v", paths)
}

func (r *Recording) MoveRow(from, to IndexPath) {
	r.add("move_row %v -> %v", from, to)
}

func (r *Recording) ReloadSections(sections []int) {
	r.add("reload_sections %v", sections)
}

func (r *Recording) InsertItems(paths []IndexPath) {
	r.add("insert_items %v", paths)
}

func (r *Recording) DeleteItems(paths []IndexPath) {
	r.add("delete_items %v", paths)
}

func (r *Recording) MoveItem(from, to IndexPath) {
	r.add("move_item %v -> %v", from, to)
}

func (r *Recording) ReloadData() {
	r.add("reload_data")
}

func (r *Recording) add(format string, args ...any) {
	r.Calls = append(r.Calls, fmt.Sprintf(format, args...))
}
