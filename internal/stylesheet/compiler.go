// Package stylesheet compiles board icon assignments into the generated LESS fragment.
package stylesheet

import (
	"strings"

	"github.com/boardicon/boardicon-server/internal/domain"
)

// Visual states of a board icon, named after the glyph classes the forum markup uses.
const (
	SelectorFolderAlt = "icon-folder-close-alt" // board without new content
	SelectorFolder    = "icon-folder-close"     // board with new content
	SelectorGlobe     = "icon-globe"            // external link
	SelectorLock      = "icon-lock"             // closed board
)

// Resolver resolves uploaded icon ids to public links.
type Resolver interface {
	Link(iconID int64) (string, bool)
}

// CompileRule renders the rule that applies glyph and color to the visual state selector.
//
// An uploaded icon reference becomes a background image and ignores color; a
// reference that does not resolve renders nothing. Anything else, including an
// empty glyph, becomes a font glyph rule that also clears any background image.
func CompileRule(selector, glyph, color string, resolver Resolver) string {
	var b strings.Builder
	writeRule(&b, selector, glyph, color, resolver)
	return b.String()
}

func writeRule(b *strings.Builder, selector, glyph, color string, resolver Resolver) {
	if iconID, ok := domain.ParseUploadedRef(glyph); ok {
		if resolver == nil {
			return
		}
		link, ok := resolver.Link(iconID)
		if !ok {
			return
		}
		b.WriteString("\t&.")
		b.WriteString(selector)
		b.WriteString(" {\n\t\t&::before {\n\t\t\tcontent: '';\n\t\t}\n\t\t\n\t\tbackground-image: url(")
		b.WriteString(link)
		b.WriteString(");\n\t\tbackground-size: 100%;\n\t\tbackground-repeat: no-repeat;\n\t}\n")
		return
	}

	b.WriteString("\t&.")
	b.WriteString(selector)
	b.WriteString(" {\n\t\tbackground-image: none;\n\t\t\n\t\t&::before {")
	if glyph != "" {
		b.WriteString("\n\t\t\tcontent: @")
		b.WriteString(glyph)
		b.WriteString(";")
	}
	if color != "" {
		b.WriteString("\n\t\t\tcolor: ")
		b.WriteString(color)
		b.WriteString(";")
	}
	b.WriteString("\n\t\t}\n\t}\n")
}
