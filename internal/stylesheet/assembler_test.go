package stylesheet

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardicon/boardicon-server/internal/domain"
	"github.com/boardicon/boardicon-server/internal/registry"
)

type fakeBoards struct {
	mu       sync.Mutex
	boards   []*domain.Board
	defaults domain.Defaults
	err      error
}

func (f *fakeBoards) ListBoards(context.Context) ([]*domain.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.boards, f.err
}

func (f *fakeBoards) GetDefaults(context.Context) (domain.Defaults, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.defaults, nil
}

type fakeIcons []*domain.Icon

func (f fakeIcons) ListIcons(context.Context) ([]*domain.Icon, error) { return f, nil }

type linker struct{}

func (linker) URL(icon *domain.Icon) string { return "/icon/board/" + icon.FileName() }

func setupAssembler(t *testing.T, boards *fakeBoards, icons ...*domain.Icon) *Assembler {
	t.Helper()
	reg := registry.New(fakeIcons(icons), linker{})
	path := filepath.Join(t.TempDir(), "style", "boardIcon.less")
	return NewAssembler(path, boards, reg, Selectors{}, slog.New(slog.DiscardHandler))
}

func TestAssembler_Regenerate(t *testing.T) {
	ctx := context.Background()
	boards := &fakeBoards{
		boards: []*domain.Board{{ID: 1, Type: domain.BoardTypeBoard, Icon: domain.Assignment{Glyph: "wbbBoardIcon7"}}},
	}
	a := setupAssembler(t, boards, &domain.Icon{ID: 7, FileHash: "abc", FileExtension: "png"})

	var notified []Result
	a.AddNotifier(NotifierFunc(func(_ context.Context, r Result) { notified = append(notified, r) }))

	first, err := a.Regenerate(ctx)
	require.NoError(t, err)
	assert.True(t, first.Changed)
	assert.NotEmpty(t, first.Generation)

	data, err := os.ReadFile(a.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "background-image: url(/icon/board/7-abc.png);")
	assert.Equal(t, int64(len(data)), first.Size)

	// Same input, same bytes.
	second, err := a.Regenerate(ctx)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, first.Hash, second.Hash)
	assert.NotEqual(t, first.Generation, second.Generation)

	again, err := os.ReadFile(a.Path())
	require.NoError(t, err)
	assert.Equal(t, data, again)

	// Notified after every write.
	assert.Len(t, notified, 2)

	// No scratch files are left behind.
	entries, err := os.ReadDir(filepath.Dir(a.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAssembler_RenderFailureLeavesFile(t *testing.T) {
	ctx := context.Background()
	boards := &fakeBoards{}
	a := setupAssembler(t, boards)

	_, err := a.Regenerate(ctx)
	require.NoError(t, err)

	boards.err = errors.New("database gone")
	_, err = a.Regenerate(ctx)
	require.Error(t, err)

	data, err := os.ReadFile(a.Path())
	require.NoError(t, err)
	assert.Equal(t, Header, string(data))
}

func TestAssembler_ConcurrentRegenerations(t *testing.T) {
	ctx := context.Background()
	a := setupAssembler(t, &fakeBoards{defaults: domain.Defaults{domain.SlotBoard: "icon-star"}})

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Regenerate(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	content, err := a.Render(ctx)
	require.NoError(t, err)
	assert.True(t, Equal(a.Path(), content))
	assert.True(t, a.Intact())
}

func TestAssembler_Intact(t *testing.T) {
	a := setupAssembler(t, &fakeBoards{})
	assert.True(t, a.Intact(), "nothing written yet")

	_, err := a.Regenerate(context.Background())
	require.NoError(t, err)
	assert.True(t, a.Intact())

	require.NoError(t, os.WriteFile(a.Path(), []byte("/* hand edit */"), 0o644))
	assert.False(t, a.Intact())

	require.NoError(t, os.Remove(a.Path()))
	assert.False(t, a.Intact())
}

func TestGuard_RestoresEditedFile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := setupAssembler(t, &fakeBoards{defaults: domain.Defaults{domain.SlotArchive: "icon-lock"}})
	_, err := a.Regenerate(ctx)
	require.NoError(t, err)
	want, err := os.ReadFile(a.Path())
	require.NoError(t, err)

	g, err := NewGuard(a, 20*time.Millisecond, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	go g.Run(ctx)

	require.NoError(t, os.WriteFile(a.Path(), []byte("/* manual change */"), 0o644))

	select {
	case <-g.repaired:
	case <-time.After(5 * time.Second):
		t.Fatal("guard did not restore the stylesheet")
	}

	got, err := os.ReadFile(a.Path())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
