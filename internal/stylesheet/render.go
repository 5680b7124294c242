package stylesheet

import (
	"strings"

	"github.com/boardicon/boardicon-server/internal/domain"
)

// Header starts every generated file.
const Header = "// Do not edit this file manually! Manual changes will be overwritten.\n\n"

// Input is everything the generated file depends on.
type Input struct {
	Defaults domain.Defaults
	Icons    Resolver
	Boards   []*domain.Board
}

// Render produces the complete file. Identical input yields identical bytes.
func Render(in Input, sel Selectors) []byte {
	sel = sel.withDefaults()

	var b strings.Builder
	b.WriteString(Header)

	d := in.Defaults
	if d.AnyOf(domain.SlotBoard, domain.SlotNewBoard, domain.SlotExternalLink) {
		openBlock(&b, sel.Defaults)
		for _, slot := range []struct {
			slot     domain.DefaultSlot
			selector string
		}{
			{domain.SlotBoard, SelectorFolderAlt},
			{domain.SlotNewBoard, SelectorFolder},
			{domain.SlotExternalLink, SelectorGlobe},
		} {
			if glyph := d.Get(slot.slot); glyph != "" {
				writeRule(&b, slot.selector, glyph, "", in.Icons)
			}
		}
		b.WriteString("}\n\n")
	}

	// Both archive slots target the same selector; each is emitted on its own.
	for _, slot := range []domain.DefaultSlot{domain.SlotArchive, domain.SlotNewArchive} {
		if glyph := d.Get(slot); glyph != "" {
			openBlock(&b, sel.Archive)
			writeRule(&b, SelectorLock, glyph, "", in.Icons)
			b.WriteString("}\n\n")
		}
	}

	for board := range domain.TreeOrder(in.Boards) {
		writeNode(&b, board, sel, in.Icons)
	}

	return []byte(b.String())
}

// writeNode emits the blocks of one board or link.
//
//	closed board          -> lock(icon), plus a .new block with lock(iconNew) if iconNew is set
//	open board            -> folder-alt(icon) if set, folder(iconNew) if set
//	link                  -> globe(icon) if set
func writeNode(b *strings.Builder, board *domain.Board, sel Selectors, icons Resolver) {
	if board.Type != domain.BoardTypeBoard && board.Type != domain.BoardTypeLink {
		return
	}
	if !board.HasIcons() {
		return
	}

	openBlock(b, sel.node(board.ID))
	switch {
	case board.Type == domain.BoardTypeLink:
		if !board.Icon.IsZero() {
			writeRule(b, SelectorGlobe, board.Icon.Glyph, board.Icon.Color, icons)
		}
	case board.IsClosed:
		writeRule(b, SelectorLock, board.Icon.Glyph, board.Icon.Color, icons)
	default:
		if !board.Icon.IsZero() {
			writeRule(b, SelectorFolderAlt, board.Icon.Glyph, board.Icon.Color, icons)
		}
		if !board.IconNew.IsZero() {
			writeRule(b, SelectorFolder, board.IconNew.Glyph, board.IconNew.Color, icons)
		}
	}
	b.WriteString("}\n")

	if board.Type == domain.BoardTypeBoard && board.IsClosed && !board.IconNew.IsZero() {
		openBlock(b, sel.nodeNew(board.ID))
		writeRule(b, SelectorLock, board.IconNew.Glyph, board.IconNew.Color, icons)
		b.WriteString("}\n")
	}
}

func openBlock(b *strings.Builder, selector string) {
	b.WriteString(selector)
	b.WriteString(" {\n")
}
