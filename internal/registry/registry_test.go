package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardicon/boardicon-server/internal/domain"
)

type fakeSource struct {
	mu    sync.Mutex
	icons []*domain.Icon
	calls int
	err   error
}

func (f *fakeSource) ListIcons(context.Context) ([]*domain.Icon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.icons, f.err
}

type prefixLinker string

func (p prefixLinker) URL(icon *domain.Icon) string {
	return string(p) + icon.FileName()
}

func setupRegistry(icons ...*domain.Icon) (*Registry, *fakeSource) {
	src := &fakeSource{icons: icons}
	return New(src, prefixLinker("/icon/board/")), src
}

func TestRegistry_LazyLoadAndInvalidate(t *testing.T) {
	ctx := context.Background()
	r, src := setupRegistry(&domain.Icon{ID: 7, Title: "Star", FileHash: "abc", FileExtension: "png"})

	assert.Zero(t, src.calls)

	link, ok, err := r.LinkOf(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/icon/board/7-abc.png", link)

	_, _, err = r.TitleOf(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	src.icons = append(src.icons, &domain.Icon{ID: 8, Title: "Moon", FileHash: "def", FileExtension: "gif"})
	_, ok, err = r.Lookup(ctx, 8)
	require.NoError(t, err)
	assert.False(t, ok, "cache serves stale data until invalidated")

	r.Invalidate()
	title, ok, err := r.TitleOf(ctx, 8)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Moon", title)
	assert.Equal(t, 2, src.calls)
}

func TestRegistry_SortedByTitleByteWise(t *testing.T) {
	r, _ := setupRegistry(
		&domain.Icon{ID: 1, Title: "beta"},
		&domain.Icon{ID: 2, Title: "Alpha"},
		&domain.Icon{ID: 3, Title: "alpha"},
		&domain.Icon{ID: 4, Title: "Alpha"},
	)

	sorted, err := r.Sorted(context.Background())
	require.NoError(t, err)

	var ids []int64
	for _, icon := range sorted {
		ids = append(ids, icon.ID)
	}
	assert.Equal(t, []int64{2, 4, 3, 1}, ids)
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r, _ := setupRegistry(&domain.Icon{ID: 1, Title: "Original"})

	icon, ok, err := r.Lookup(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	icon.Title = "Mutated"

	title, _, err := r.TitleOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Original", title)
}

func TestRegistry_SourceError(t *testing.T) {
	r, src := setupRegistry()
	src.err = errors.New("database locked")

	_, err := r.Snapshot(context.Background())
	assert.ErrorContains(t, err, "database locked")

	// Errors are not cached.
	src.err = nil
	_, err = r.Snapshot(context.Background())
	assert.NoError(t, err)
}

func TestRegistry_ConcurrentReaders(t *testing.T) {
	icons := make([]*domain.Icon, 50)
	for i := range icons {
		icons[i] = &domain.Icon{ID: int64(i + 1), Title: fmt.Sprintf("icon %02d", i), FileHash: "h", FileExtension: "png"}
	}
	r, _ := setupRegistry(icons...)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%5 == 0 {
				r.Invalidate()
			}
			snap, err := r.Snapshot(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 50, snap.Len())
		}()
	}
	wg.Wait()
}
