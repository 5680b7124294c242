package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardicon/boardicon-server/internal/assets"
	"github.com/boardicon/boardicon-server/internal/registry"
	"github.com/boardicon/boardicon-server/internal/sse"
	"github.com/boardicon/boardicon-server/internal/staging"
	"github.com/boardicon/boardicon-server/internal/store/sqlite"
	"github.com/boardicon/boardicon-server/internal/stylesheet"
	"github.com/boardicon/boardicon-server/internal/upload"
)

const formToken = "form0123456789abcdef"

type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(e sse.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingEmitter) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	base    string
	db      *sqlite.Store
	assets  *assets.Store
	slots   staging.Store
	tracker *staging.Tracker
	reg     *registry.Registry
	styles  *StylesheetService
	icons   *IconService
	boards  *BoardService
	events  *recordingEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	base := t.TempDir()

	db, err := sqlite.Open(filepath.Join(base, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	assetStore, err := assets.New(base, "/", logger)
	require.NoError(t, err)

	slots, err := staging.OpenInMemoryBadger(logger)
	require.NoError(t, err)
	t.Cleanup(func() { slots.Close() })
	tracker := staging.NewTracker(slots, logger)

	reg := registry.New(db, assetStore)
	assembler := stylesheet.NewAssembler(filepath.Join(base, "style", "boardIcon.less"), db, reg, stylesheet.Selectors{}, logger)
	styles := NewStylesheetService(assembler, logger)
	events := &recordingEmitter{}
	assembler.AddNotifier(stylesheet.NotifierFunc(func(_ context.Context, r stylesheet.Result) {
		events.Emit(sse.NewStylesheetChangedEvent(sse.StylesheetEventData{Generation: r.Generation}))
	}))

	return &fixture{
		base:    base,
		db:      db,
		assets:  assetStore,
		slots:   slots,
		tracker: tracker,
		reg:     reg,
		styles:  styles,
		icons:   NewIconService(db, assetStore, tracker, reg, styles, events, upload.Config{}, logger),
		boards:  NewBoardService(db, reg, styles, events, logger),
		events:  events,
	}
}

func (f *fixture) stylesheet(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.styles.Path())
	require.NoError(t, err)
	return string(data)
}

func pngFile(t *testing.T, name string, w, h int) upload.File {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 5), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return upload.File{Name: name, Content: bytes.NewReader(buf.Bytes()), Size: int64(buf.Len())}
}

func stage(t *testing.T, f *fixture, token string) {
	t.Helper()
	res := f.icons.UploadIcon(context.Background(), upload.Request{
		Mode:    upload.ModeNew,
		TmpHash: token,
		Files:   []upload.File{pngFile(t, "icon.PNG", 48, 48)},
	})
	require.True(t, res.OK(), "upload rejected: %s", res.Code)
	assert.Equal(t, "/icon/board/tmp/"+token+".png", res.URL)
}

func permanentFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}
