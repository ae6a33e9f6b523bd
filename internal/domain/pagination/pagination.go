// Package pagination computes page counts, page slices and the compressed
// list of page buttons shown under a table.
package pagination

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Slots is the number of page buttons shown before the window compresses.
const Slots = 5

// Ellipsis is the marker rendered for skipped pages.
const Ellipsis = "..."

// Item is one entry of a window: a page number or a gap.
type Item struct {
	Page int
	Gap  bool
}

// MarshalJSON renders a page as a number and a gap as "...".
func (i Item) MarshalJSON() ([]byte, error) {
	if i.Gap {
		return json.Marshal(Ellipsis)
	}
	return json.Marshal(i.Page)
}

// UnmarshalJSON accepts a page number or "...".
func (i *Item) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s != Ellipsis {
			return fmt.Errorf("pagination: unexpected item %q", s)
		}
		*i = Item{Gap: true}
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*i = Item{Page: n}
	return nil
}

// String returns the button label.
func (i Item) String() string {
	if i.Gap {
		return Ellipsis
	}
	return strconv.Itoa(i.Page)
}

// Window describes the page buttons for one position.
type Window struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Items   []Item `json:"items"`
	Nav     Nav    `json:"nav"`
}

// Nav holds the enabled state of the previous and next controls.
type Nav struct {
	HasPrev bool `json:"has_prev"`
	HasNext bool `json:"has_next"`
	Prev    int  `json:"prev"`
	Next    int  `json:"next"`
}

func page(n int) Item { return Item{Page: n} }

var gap = Item{Gap: true}

// Build returns the window for current out of total pages. current is not
// validated here; callers reject out-of-range requests with Valid.
func Build(current, total int) Window {
	w := Window{Current: current, Total: total, Nav: NavFor(current, total)}
	switch {
	case total <= 0:
		w.Items = []Item{}
	case total <= Slots:
		for i := 1; i <= total; i++ {
			w.Items = append(w.Items, page(i))
		}
	case current <= 3:
		for i := 1; i <= 4; i++ {
			w.Items = append(w.Items, page(i))
		}
		w.Items = append(w.Items, gap, page(total))
	case current >= total-2:
		w.Items = append(w.Items, page(1), gap)
		for i := total - 3; i <= total; i++ {
			w.Items = append(w.Items, page(i))
		}
	default:
		w.Items = append(w.Items, page(1), gap, page(current-1), page(current), page(current+1), gap, page(total))
	}
	return w
}

// NavFor disables previous on the first page and next on the last.
func NavFor(current, total int) Nav {
	n := Nav{HasPrev: current > 1, HasNext: current < total}
	if n.HasPrev {
		n.Prev = current - 1
	}
	if n.HasNext {
		n.Next = current + 1
	}
	return n
}

// TotalPages returns the number of pages needed for n items. Zero items
// still yields one page so an empty table has a valid position.
func TotalPages(n, size int) int {
	if size <= 0 || n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Valid reports whether p is a page of total.
func Valid(p, total int) bool {
	return p >= 1 && p <= total
}

// Slice returns the items on page p (1-indexed). Out-of-range pages are empty.
func Slice[T any](items []T, p, size int) []T {
	if size <= 0 || p < 1 {
		return []T{}
	}
	start := (p - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
