package stylesheet

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultGuardDelay is how long the guard waits for edits to settle.
const DefaultGuardDelay = 500 * time.Millisecond

// Regenerator rewrites the stylesheet. Implemented by Assembler.
type Regenerator interface {
	Path() string
	Intact() bool
	Regenerate(ctx context.Context) (Result, error)
}

// Guard watches the generated file and regenerates it when it is edited or removed by hand.
type Guard struct {
	target  Regenerator
	logger  *slog.Logger
	delay   time.Duration
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer

	repaired chan struct{} // signalled after each repair, for tests
}

// NewGuard creates a Guard. Run starts it.
func NewGuard(target Regenerator, delay time.Duration, logger *slog.Logger) (*Guard, error) {
	if delay <= 0 {
		delay = DefaultGuardDelay
	}
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(target.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create stylesheet directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	// Watch the directory: the file itself is replaced by rename on every write.
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Guard{
		target:   target,
		logger:   logger,
		delay:    delay,
		watcher:  watcher,
		repaired: make(chan struct{}, 1),
	}, nil
}

// Run processes file events until ctx is cancelled, then closes the watcher.
func (g *Guard) Run(ctx context.Context) {
	defer func() {
		g.mu.Lock()
		if g.timer != nil {
			g.timer.Stop()
		}
		g.mu.Unlock()
		_ = g.watcher.Close()
	}()

	name := filepath.Clean(g.target.Path())
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-g.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				g.schedule(ctx)
			}
		case err, ok := <-g.watcher.Errors:
			if !ok {
				return
			}
			g.logger.Warn("stylesheet watcher error", "error", err)
		}
	}
}

// schedule (re)starts the settle timer.
func (g *Guard) schedule(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(g.delay, func() { g.check(ctx) })
}

func (g *Guard) check(ctx context.Context) {
	if ctx.Err() != nil || g.target.Intact() {
		return
	}

	g.logger.Warn("generated stylesheet was modified, restoring", "path", g.target.Path())
	if _, err := g.target.Regenerate(ctx); err != nil {
		g.logger.Error("failed to restore stylesheet", "path", g.target.Path(), "error", err)
		return
	}

	select {
	case g.repaired <- struct{}{}:
	default:
	}
}
