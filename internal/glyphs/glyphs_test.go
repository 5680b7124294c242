package glyphs

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHas(t *testing.T) {
	for _, name := range []string{"icon-star", "icon-lock", "icon-globe", "icon-folder-close", "icon-folder-close-alt"} {
		assert.True(t, Has(name), name)
	}

	assert.False(t, Has("icon-does-not-exist"))
	assert.False(t, Has("icon7"))
	assert.False(t, Has(""))
	assert.False(t, Has("# Library glyph names accepted in icon assignments, one per line."))
}

func TestNames_SortedAndCopied(t *testing.T) {
	got := Names()

	assert.NotEmpty(t, got)
	assert.True(t, slices.IsSorted(got))

	got[0] = "mutated"
	assert.NotEqual(t, "mutated", Names()[0])
}
