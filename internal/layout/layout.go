// Package layout balances the column widths of pricing-engine inputs laid
// out in rows of a section. Widths are percentages of the row.
package layout

import "sort"

const (
	FullWidth = 100
	HalfWidth = 50
	// MinWidth is the floor applied to siblings when several share a row.
	// With many siblings the row total may exceed FullWidth; that is tolerated.
	MinWidth = 25
)

// Item is one input's placement.
type Item struct {
	ID    string `json:"id"`
	Row   int    `json:"layout_row"`
	Width int    `json:"layout_width"`
}

func clone(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func indexOf(items []Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// ChangeWidth sets the width of item id to newWidth and redistributes the
// remainder of its row among the siblings:
//   - no siblings: nothing else changes
//   - one sibling: it gets 100-newWidth, or 50 if that is not positive
//   - more: each gets floor((100-newWidth)/n), but never less than 25
//
// Unknown ids return an unchanged copy.
func ChangeWidth(items []Item, id string, newWidth int) []Item {
	out := clone(items)
	idx := indexOf(out, id)
	if idx < 0 {
		return out
	}
	out[idx].Width = newWidth
	row := out[idx].Row

	var siblings []int
	for i, it := range out {
		if i != idx && it.Row == row {
			siblings = append(siblings, i)
		}
	}

	remainder := FullWidth - newWidth
	switch len(siblings) {
	case 0:
	case 1:
		w := remainder
		if w <= 0 {
			w = HalfWidth
		}
		out[siblings[0]].Width = w
	default:
		w := MinWidth
		if remainder > 0 && remainder/len(siblings) > MinWidth {
			w = remainder / len(siblings)
		}
		for _, s := range siblings {
			out[s].Width = w
		}
	}
	return out
}

// UsedWidth sums the widths in row, ignoring item skip.
func UsedWidth(items []Item, row int, skip string) int {
	used := 0
	for _, it := range items {
		if it.Row == row && it.ID != skip {
			used += it.Width
		}
	}
	return used
}

// fitWidth picks the width for an item dropped into a row: the full row
// when it is empty, half when at least half is free, otherwise the minimum.
func fitWidth(used int) int {
	remaining := FullWidth - used
	switch {
	case used == 0:
		return FullWidth
	case remaining >= HalfWidth:
		return HalfWidth
	default:
		return MinWidth
	}
}

// DropIntoRow moves item id into an existing row, sized to the space left.
func DropIntoRow(items []Item, id string, row int) []Item {
	out := clone(items)
	idx := indexOf(out, id)
	if idx < 0 {
		return out
	}
	out[idx].Width = fitWidth(UsedWidth(out, row, id))
	out[idx].Row = row
	return Normalize(out)
}

// DropIntoNewRow moves item id into a new row inserted before row, taking
// the full width. Rows at or after the insertion point shift down.
func DropIntoNewRow(items []Item, id string, row int) []Item {
	out := clone(items)
	idx := indexOf(out, id)
	if idx < 0 {
		return out
	}
	for i := range out {
		if i != idx && out[i].Row >= row {
			out[i].Row++
		}
	}
	out[idx].Row = row
	out[idx].Width = FullWidth
	return Normalize(out)
}

// Normalize renumbers rows to 0..n-1 in their existing order, removing gaps
// left by emptied rows. Item order within the slice is preserved.
func Normalize(items []Item) []Item {
	out := clone(items)
	rows := make([]int, 0)
	seen := map[int]bool{}
	for _, it := range out {
		if !seen[it.Row] {
			seen[it.Row] = true
			rows = append(rows, it.Row)
		}
	}
	sort.Ints(rows)
	remap := make(map[int]int, len(rows))
	for i, r := range rows {
		remap[r] = i
	}
	for i := range out {
		out[i].Row = remap[out[i].Row]
	}
	return out
}

// Row returns the items of one row in slice order.
func Row(items []Item, row int) []Item {
	var out []Item
	for _, it := range items {
		if it.Row == row {
			out = append(out, it)
		}
	}
	return out
}
