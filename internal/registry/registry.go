// Package registry caches uploaded icon records and resolves icon references to links.
package registry

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/boardicon/boardicon-server/internal/domain"
)

// Source loads all icon records.
type Source interface {
	ListIcons(ctx context.Context) ([]*domain.Icon, error)
}

// Linker builds the public link of an icon file.
type Linker interface {
	URL(icon *domain.Icon) string
}

// Registry is a lazily loaded read-through cache of icon records.
// Call Invalidate after any icon is created, replaced or deleted.
type Registry struct {
	source Source
	linker Linker

	mu         sync.RWMutex
	snapshot   *Snapshot // nil until loaded
	generation uint64    // bumped by Invalidate
}

// New creates a Registry.
func New(source Source, linker Linker) *Registry {
	return &Registry{source: source, linker: linker}
}

// Invalidate drops the cache; the next read reloads from the source.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	r.snapshot = nil
	r.generation++
	r.mu.Unlock()
}

// Snapshot returns an immutable view of all icons.
func (r *Registry) Snapshot(ctx context.Context) (*Snapshot, error) {
	r.mu.RLock()
	snap, gen := r.snapshot, r.generation
	r.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	icons, err := r.source.ListIcons(ctx)
	if err != nil {
		return nil, fmt.Errorf("load icons: %w", err)
	}
	snap = newSnapshot(icons, r.linker)

	r.mu.Lock()
	// An invalidation during the load means the data may already be stale; serve it once but do not cache it.
	if r.generation == gen {
		r.snapshot = snap
	}
	r.mu.Unlock()

	return snap, nil
}

// Lookup returns a copy of the icon with the given id.
func (r *Registry) Lookup(ctx context.Context, iconID int64) (*domain.Icon, bool, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	icon, ok := snap.Icon(iconID)
	return icon, ok, nil
}

// TitleOf returns the title of an icon.
func (r *Registry) TitleOf(ctx context.Context, iconID int64) (string, bool, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return "", false, err
	}
	icon, ok := snap.icons[iconID]
	if !ok {
		return "", false, nil
	}
	return icon.Title, true, nil
}

// LinkOf returns the public link of an icon.
func (r *Registry) LinkOf(ctx context.Context, iconID int64) (string, bool, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return "", false, err
	}
	link, ok := snap.Link(iconID)
	return link, ok, nil
}

// Sorted returns copies of all icons ordered by title (byte-wise), then id.
func (r *Registry) Sorted(ctx context.Context) ([]*domain.Icon, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Sorted(), nil
}

// Snapshot is an immutable set of icons with their links.
type Snapshot struct {
	icons  map[int64]*domain.Icon
	links  map[int64]string
	sorted []*domain.Icon
}

func newSnapshot(icons []*domain.Icon, linker Linker) *Snapshot {
	s := &Snapshot{
		icons:  make(map[int64]*domain.Icon, len(icons)),
		links:  make(map[int64]string, len(icons)),
		sorted: make([]*domain.Icon, 0, len(icons)),
	}
	for _, icon := range icons {
		c := *icon
		s.icons[c.ID] = &c
		s.links[c.ID] = linker.URL(&c)
		s.sorted = append(s.sorted, &c)
	}
	slices.SortFunc(s.sorted, func(a, b *domain.Icon) int {
		return cmp.Or(strings.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
	})
	return s
}

// Link resolves an icon id to its public link.
func (s *Snapshot) Link(iconID int64) (string, bool) {
	link, ok := s.links[iconID]
	return link, ok
}

// Icon returns a copy of the icon with the given id.
func (s *Snapshot) Icon(iconID int64) (*domain.Icon, bool) {
	icon, ok := s.icons[iconID]
	if !ok {
		return nil, false
	}
	c := *icon
	return &c, true
}

// Sorted returns copies of all icons ordered by title.
func (s *Snapshot) Sorted() []*domain.Icon {
	out := make([]*domain.Icon, len(s.sorted))
	for i, icon := range s.sorted {
		c := *icon
		out[i] = &c
	}
	return out
}

// Len returns the number of icons.
func (s *Snapshot) Len() int {
	return len(s.icons)
}
