// Package glyphs holds the catalog of library font glyphs that can be assigned to boards.
package glyphs

import (
	"bufio"
	_ "embed"
	"slices"
	"strings"
	"sync"
)

//go:embed catalog.txt
var catalog string

var (
	loadOnce sync.Once
	names    []string
	index    map[string]struct{}
)

func load() {
	loadOnce.Do(func() {
		index = make(map[string]struct{})
		scanner := bufio.NewScanner(strings.NewReader(catalog))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if _, dup := index[line]; dup {
				continue
			}
			index[line] = struct{}{}
			names = append(names, line)
		}
		slices.Sort(names)
	})
}

// Has reports whether name is a library glyph.
func Has(name string) bool {
	load()
	_, ok := index[name]
	return ok
}

// Names returns all library glyph names in sorted order.
func Names() []string {
	load()
	return slices.Clone(names)
}
