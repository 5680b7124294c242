package domain

import (
	"cmp"
	"iter"
	"slices"
	"time"
)

// BoardType distinguishes the kinds of nodes in the board tree.
type BoardType string

// Board types. Categories never receive icons.
const (
	BoardTypeBoard    BoardType = "board"
	BoardTypeCategory BoardType = "category"
	BoardTypeLink     BoardType = "link"
)

// Valid reports whether t is a known board type.
func (t BoardType) Valid() bool {
	switch t {
	case BoardTypeBoard, BoardTypeCategory, BoardTypeLink:
		return true
	}
	return false
}

// Board is a node of the board tree together with its icon configuration.
type Board struct {
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ParentID  *int64     `json:"parent_id,omitempty"`
	Title     string     `json:"title"`
	Type      BoardType  `json:"type"`
	Icon      Assignment `json:"icon"`     // shown when there is no new content
	IconNew   Assignment `json:"icon_new"` // shown when the board has new content
	ID        int64      `json:"id"`
	Position  int        `json:"position"`
	IsClosed  bool       `json:"is_closed"`
}

// HasIcons reports whether any of the four icon fields is set.
func (b *Board) HasIcons() bool {
	return !b.Icon.IsZero() || !b.IconNew.IsZero()
}

// Touch updates the UpdatedAt timestamp.
func (b *Board) Touch() {
	b.UpdatedAt = time.Now()
}

// TreeOrder yields boards depth-first starting at the roots, with siblings
// ordered by position then id. Nodes whose parent is missing are treated as roots.
// Every board is yielded exactly once, including boards in a parent cycle.
func TreeOrder(boards []*Board) iter.Seq[*Board] {
	return func(yield func(*Board) bool) {
		known := make(map[int64]bool, len(boards))
		for _, b := range boards {
			known[b.ID] = true
		}

		children := make(map[int64][]*Board)
		var roots []*Board
		for _, b := range boards {
			if b.ParentID == nil || !known[*b.ParentID] || *b.ParentID == b.ID {
				roots = append(roots, b)
				continue
			}
			children[*b.ParentID] = append(children[*b.ParentID], b)
		}

		bySibling := func(a, b *Board) int {
			return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.ID, b.ID))
		}
		slices.SortFunc(roots, bySibling)
		for _, kids := range children {
			slices.SortFunc(kids, bySibling)
		}

		visited := make(map[int64]bool, len(boards))
		var walk func(b *Board) bool
		walk = func(b *Board) bool {
			if visited[b.ID] {
				return true
			}
			visited[b.ID] = true
			if !yield(b) {
				return false
			}
			for _, child := range children[b.ID] {
				if !walk(child) {
					return false
				}
			}
			return true
		}

		for _, root := range roots {
			if !walk(root) {
				return
			}
		}

		// Nodes caught in a parent cycle are unreachable from any root.
		rest := slices.Clone(boards)
		slices.SortFunc(rest, bySibling)
		for _, b := range rest {
			if !walk(b) {
				return
			}
		}
	}
}
