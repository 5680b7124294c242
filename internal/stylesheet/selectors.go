package stylesheet

import (
	"strconv"
	"strings"
)

// idPlaceholder is replaced with the board id in node selectors.
const idPlaceholder = "{id}"

// Selectors holds the block selectors of the generated file. Node selectors
// contain the placeholder "{id}".
type Selectors struct {
	Defaults string // default board, new board and link icons
	Archive  string // default icons of closed boards
	Node     string // one board or link
	NodeNew  string // one closed board with new content
}

// DefaultSelectors matches the board list and sub-board list markup.
var DefaultSelectors = Selectors{
	Defaults: ".wbbBoardList li > .wbbBoard > .icon,\n.wbbSubBoards li > .icon",
	Archive:  ".wbbBoardList li > .wbbBoard:not(.new) > .icon,\n.wbbSubBoards li:not(.new) > .icon",
	Node:     ".wbbBoardList li[data-board-id=\"{id}\"] > .wbbBoard > .icon,\n.wbbSubBoards li[data-board-id=\"{id}\"] > .icon",
	NodeNew:  ".wbbBoardList li[data-board-id=\"{id}\"] > .wbbBoard.new > .icon,\n.wbbSubBoards li[data-board-id=\"{id}\"].new > .icon",
}

func (s Selectors) node(id int64) string {
	return strings.ReplaceAll(s.Node, idPlaceholder, strconv.FormatInt(id, 10))
}

func (s Selectors) nodeNew(id int64) string {
	return strings.ReplaceAll(s.NodeNew, idPlaceholder, strconv.FormatInt(id, 10))
}

// withDefaults fills empty fields from DefaultSelectors.
func (s Selectors) withDefaults() Selectors {
	if s.Defaults == "" {
		s.Defaults = DefaultSelectors.Defaults
	}
	if s.Archive == "" {
		s.Archive = DefaultSelectors.Archive
	}
	if s.Node == "" {
		s.Node = DefaultSelectors.Node
	}
	if s.NodeNew == "" {
		s.NodeNew = DefaultSelectors.NodeNew
	}
	return s
}
