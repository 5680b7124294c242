// Package providers contains dependency injection providers for the board icon server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/boardicon/boardicon-server/internal/config"
	"github.com/boardicon/boardicon-server/internal/logger"
)

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting board icon server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"base_path", cfg.Storage.BasePath,
		"staging_backend", cfg.Staging.Backend,
	)

	return log, nil
}
