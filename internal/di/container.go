// Package di provides dependency injection configuration for the board icon server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/boardicon/boardicon-server/internal/assets"
	"github.com/boardicon/boardicon-server/internal/config"
	"github.com/boardicon/boardicon-server/internal/di/providers"
	"github.com/boardicon/boardicon-server/internal/logger"
	"github.com/boardicon/boardicon-server/internal/registry"
	"github.com/boardicon/boardicon-server/internal/service"
	"github.com/boardicon/boardicon-server/internal/staging"
	"github.com/boardicon/boardicon-server/internal/stylesheet"
)

// NewContainer creates the DI container for the domain services. Nothing is
// started until a service is invoked.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Storage layer
	do.Provide(injector, providers.ProvideAssetStore)
	do.Provide(injector, providers.ProvideStagingStore)
	do.Provide(injector, providers.ProvideTracker)

	// Business services
	do.Provide(injector, providers.ProvideRegistry)
	do.Provide(injector, providers.ProvideAssembler)
	do.Provide(injector, providers.ProvideStylesheetService)
	do.Provide(injector, providers.ProvideIconService)
	do.Provide(injector, providers.ProvideBoardService)
	do.Provide(injector, providers.ProvideStartup)

	return injector
}

// NewServerContainer adds the background workers and the HTTP server.
func NewServerContainer(cfg *config.Config) *do.RootScope {
	injector := NewContainer(cfg)

	// Workers
	do.Provide(injector, providers.ProvideStagingSweepJob)
	do.Provide(injector, providers.ProvideStylesheetGuard)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes every service of a container built by NewServerContainer.
// This triggers lazy initialization and starts the workers and the HTTP server.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*assets.Store](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*staging.Tracker](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*registry.Registry](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*stylesheet.Assembler](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.IconService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.BoardService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.Startup](injector); err != nil {
		return err
	}

	// Workers
	if _, err := do.Invoke[*providers.StagingSweepJob](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StylesheetGuardHandle](injector); err != nil {
		return err
	}

	// Server
	_, err := do.Invoke[*providers.HTTPServerHandle](injector)
	return err
}
