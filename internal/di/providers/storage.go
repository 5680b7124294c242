package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/do/v2"

	"github.com/boardicon/boardicon-server/internal/assets"
	"github.com/boardicon/boardicon-server/internal/config"
	"github.com/boardicon/boardicon-server/internal/logger"
	"github.com/boardicon/boardicon-server/internal/staging"
)

// ProvideAssetStore provides the icon file store below the application directory.
func ProvideAssetStore(i do.Injector) (*assets.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	store, err := assets.New(cfg.Storage.BasePath, cfg.Storage.PublicURL, log.Component("assets").Logger)
	if err != nil {
		return nil, fmt.Errorf("icon storage: %w", err)
	}

	log.Info("Icon storage initialized", "dir", store.Dir())
	return store, nil
}

// StagingHandle wraps the pending upload store with shutdown capability.
type StagingHandle struct {
	staging.Store
}

// Shutdown implements do.Shutdownable.
func (h *StagingHandle) Shutdown() error {
	return h.Close()
}

// ProvideStagingStore opens the configured pending upload backend.
func ProvideStagingStore(i do.Injector) (*StagingHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Staging.Backend {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		store, err := staging.OpenRedis(ctx, staging.RedisOptions{
			Addr:     cfg.Staging.RedisAddr,
			Password: cfg.Staging.RedisPassword,
			DB:       cfg.Staging.RedisDB,
			// Keys outlive the sweep by a day in case no sweeper runs.
			TTL: cfg.Staging.AbandonAfter + 24*time.Hour,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Staging store connected", "backend", "redis", "addr", cfg.Staging.RedisAddr)
		return &StagingHandle{Store: store}, nil

	default:
		store, err := staging.OpenBadger(cfg.Staging.BadgerPath, log.Component("staging").Logger)
		if err != nil {
			return nil, err
		}
		log.Info("Staging store opened", "backend", "badger", "path", cfg.Staging.BadgerPath)
		return &StagingHandle{Store: store}, nil
	}
}

// ProvideTracker provides the staging state machine.
func ProvideTracker(i do.Injector) (*staging.Tracker, error) {
	handle := do.MustInvoke[*StagingHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return staging.NewTracker(handle.Store, log.Component("staging").Logger), nil
}
