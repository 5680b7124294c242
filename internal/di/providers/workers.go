package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/do/v2"

	"github.com/boardicon/boardicon-server/internal/config"
	"github.com/boardicon/boardicon-server/internal/logger"
	"github.com/boardicon/boardicon-server/internal/service"
	"github.com/boardicon/boardicon-server/internal/stylesheet"
)

// Startup records what the startup pass did.
type Startup struct {
	Recovered  int
	Stylesheet stylesheet.Result
}

// ProvideStartup finishes promotions interrupted by a crash and writes the
// stylesheet once, so the file on disk always matches the database after boot.
func ProvideStartup(i do.Injector) (*Startup, error) {
	icons := do.MustInvoke[*service.IconService](i)
	styles := do.MustInvoke[*service.StylesheetService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	recovered, err := icons.RecoverPromotions(ctx)
	if err != nil {
		return nil, fmt.Errorf("recover interrupted uploads: %w", err)
	}
	if recovered > 0 {
		log.Info("Interrupted uploads recovered", "count", recovered)
	}

	result, err := styles.Regenerate(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial stylesheet: %w", err)
	}

	return &Startup{Recovered: recovered, Stylesheet: result}, nil
}

// StagingSweepJob periodically removes uploads whose form was never submitted.
type StagingSweepJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *StagingSweepJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideStagingSweepJob provides the abandoned upload sweeper.
func ProvideStagingSweepJob(i do.Injector) (*StagingSweepJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	icons := do.MustInvoke[*service.IconService](i)
	log := do.MustInvoke[*logger.Logger](i)

	interval := cfg.Staging.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		sweep := func() {
			if _, err := icons.SweepStaged(ctx, cfg.Staging.AbandonAfter); err != nil {
				log.Warn("Staging sweep failed", "error", err)
			}
		}

		// Initial sweep on startup
		sweep()

		for {
			select {
			case <-ticker.C:
				sweep()
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Staging sweep job started", "interval", interval, "abandon_after", cfg.Staging.AbandonAfter)

	return &StagingSweepJob{cancel: cancel}, nil
}

// StylesheetGuardHandle wraps the stylesheet guard with shutdown capability.
// Guard is nil when disabled by configuration.
type StylesheetGuardHandle struct {
	Guard  *stylesheet.Guard
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *StylesheetGuardHandle) Shutdown() error {
	if h.cancel != nil {
		h.cancel()
	}
	return nil
}

// ProvideStylesheetGuard watches the generated file and rewrites it after manual edits.
func ProvideStylesheetGuard(i do.Injector) (*StylesheetGuardHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	assembler := do.MustInvoke[*stylesheet.Assembler](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Stylesheet.Guard {
		log.Info("Stylesheet guard disabled by configuration")
		return &StylesheetGuardHandle{}, nil
	}

	guard, err := stylesheet.NewGuard(assembler, stylesheet.DefaultGuardDelay, log.Component("stylesheet").Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go guard.Run(ctx)

	log.Info("Stylesheet guard started", "path", assembler.Path())

	return &StylesheetGuardHandle{Guard: guard, cancel: cancel}, nil
}
