package stylesheet

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/boardicon/boardicon-server/internal/domain"
	"github.com/boardicon/boardicon-server/internal/registry"
)

// BoardSource provides the board tree and the global defaults.
type BoardSource interface {
	ListBoards(ctx context.Context) ([]*domain.Board, error)
	GetDefaults(ctx context.Context) (domain.Defaults, error)
}

// IconSource provides resolvable icons.
type IconSource interface {
	Snapshot(ctx context.Context) (*registry.Snapshot, error)
}

// Notifier is told about every regeneration after the file has been written.
type Notifier interface {
	StylesheetChanged(ctx context.Context, result Result)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, result Result)

// StylesheetChanged calls f.
func (f NotifierFunc) StylesheetChanged(ctx context.Context, result Result) {
	f(ctx, result)
}

// Result describes one regeneration.
type Result struct {
	WrittenAt  time.Time `json:"written_at"`
	Path       string    `json:"path"`
	Hash       string    `json:"hash"`       // SHA-256 hex of the content
	Generation string    `json:"generation"` // unique per regeneration
	Size       int64     `json:"size"`
	Changed    bool      `json:"changed"` // content differs from the file it replaced
}

// Assembler regenerates the stylesheet file from current data.
type Assembler struct {
	boards    BoardSource
	icons     IconSource
	logger    *slog.Logger
	path      string
	selectors Selectors

	mu        sync.Mutex // serializes writes
	notifyMu  sync.RWMutex
	notifiers []Notifier
	lastHash  string
}

// NewAssembler creates an Assembler writing to path.
func NewAssembler(path string, boards BoardSource, icons IconSource, selectors Selectors, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		boards:    boards,
		icons:     icons,
		logger:    logger,
		path:      path,
		selectors: selectors.withDefaults(),
	}
}

// Path returns the generated file path.
func (a *Assembler) Path() string {
	return a.path
}

// AddNotifier registers n for future regenerations.
func (a *Assembler) AddNotifier(n Notifier) {
	a.notifyMu.Lock()
	a.notifiers = append(a.notifiers, n)
	a.notifyMu.Unlock()
}

// Render produces the file content from current data without writing it.
func (a *Assembler) Render(ctx context.Context) ([]byte, error) {
	boards, err := a.boards.ListBoards(ctx)
	if err != nil {
		return nil, fmt.Errorf("load boards: %w", err)
	}
	defaults, err := a.boards.GetDefaults(ctx)
	if err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	icons, err := a.icons.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load icons: %w", err)
	}

	return Render(Input{Defaults: defaults, Icons: icons, Boards: boards}, a.selectors), nil
}

// Regenerate renders the file, atomically replaces the old one and notifies.
func (a *Assembler) Regenerate(ctx context.Context) (Result, error) {
	content, err := a.Render(ctx)
	if err != nil {
		return Result{}, err
	}

	a.mu.Lock()
	previous, _ := fileHash(a.path)
	hash := contentHash(content)
	if err := writeAtomic(a.path, content); err != nil {
		a.mu.Unlock()
		return Result{}, fmt.Errorf("write stylesheet: %w", err)
	}
	a.lastHash = hash
	a.mu.Unlock()

	result := Result{
		WrittenAt:  time.Now(),
		Path:       a.path,
		Hash:       hash,
		Generation: uuid.NewString(),
		Size:       int64(len(content)),
		Changed:    previous != hash,
	}

	a.logger.Info("stylesheet regenerated",
		"path", a.path,
		"bytes", result.Size,
		"changed", result.Changed,
		"generation", result.Generation,
	)

	a.notifyMu.RLock()
	notifiers := append([]Notifier(nil), a.notifiers...)
	a.notifyMu.RUnlock()
	for _, n := range notifiers {
		n.StylesheetChanged(ctx, result)
	}

	return result, nil
}

// Intact reports whether the file on disk is the one this Assembler last wrote.
// Returns true if nothing has been written yet.
func (a *Assembler) Intact() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.lastHash == "" {
		return true
	}
	current, err := fileHash(a.path)
	return err == nil && current == a.lastHash
}

// writeAtomic writes data to a scratch file next to path, fsyncs it and renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	scratch := f.Name()

	_, err = f.Write(data)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(scratch, 0o644)
	}
	if err == nil {
		err = os.Rename(scratch, path)
	}
	if err != nil {
		_ = os.Remove(scratch)
		return err
	}

	// Persist the rename itself; not every platform supports syncing a directory.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

func contentHash(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

func fileHash(path string) (string, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- configured stylesheet path
	if err != nil {
		return "", err
	}
	return contentHash(data), nil
}

// Equal reports whether the file at path has exactly content.
func Equal(path string, content []byte) bool {
	data, err := os.ReadFile(path) //#nosec G304 -- configured stylesheet path
	return err == nil && bytes.Equal(data, content)
}
