package providers

import (
	"github.com/samber/do/v2"

	"github.com/boardicon/boardicon-server/internal/assets"
	"github.com/boardicon/boardicon-server/internal/config"
	"github.com/boardicon/boardicon-server/internal/logger"
	"github.com/boardicon/boardicon-server/internal/registry"
	"github.com/boardicon/boardicon-server/internal/service"
	"github.com/boardicon/boardicon-server/internal/staging"
	"github.com/boardicon/boardicon-server/internal/stylesheet"
	"github.com/boardicon/boardicon-server/internal/upload"
)

// ProvideRegistry provides the cached icon registry.
func ProvideRegistry(i do.Injector) (*registry.Registry, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	assetStore := do.MustInvoke[*assets.Store](i)

	return registry.New(storeHandle.Store, assetStore), nil
}

// ProvideAssembler provides the stylesheet assembler. Every regeneration is
// broadcast to SSE clients.
func ProvideAssembler(i do.Injector) (*stylesheet.Assembler, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	reg := do.MustInvoke[*registry.Registry](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	assembler := stylesheet.NewAssembler(cfg.StylesheetPath(), storeHandle.Store, reg, stylesheet.DefaultSelectors, log.Component("stylesheet").Logger)
	assembler.AddNotifier(sseHandle.StylesheetNotifier(cfg.StylesheetURL()))

	return assembler, nil
}

// ProvideStylesheetService provides the stylesheet service.
func ProvideStylesheetService(i do.Injector) (*service.StylesheetService, error) {
	assembler := do.MustInvoke[*stylesheet.Assembler](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStylesheetService(assembler, log.Component("stylesheet").Logger), nil
}

// ProvideIconService provides the uploaded icon service.
func ProvideIconService(i do.Injector) (*service.IconService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	assetStore := do.MustInvoke[*assets.Store](i)
	tracker := do.MustInvoke[*staging.Tracker](i)
	reg := do.MustInvoke[*registry.Registry](i)
	styles := do.MustInvoke[*service.StylesheetService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	uploadCfg := upload.Config{
		MaxFileSize:  cfg.Upload.MaxFileSize,
		MinDimension: cfg.Upload.MinDimension,
	}

	return service.NewIconService(storeHandle.Store, assetStore, tracker, reg, styles, sseHandle.Manager, uploadCfg, log.Component("icons").Logger), nil
}

// ProvideBoardService provides the board icon assignment service.
func ProvideBoardService(i do.Injector) (*service.BoardService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	reg := do.MustInvoke[*registry.Registry](i)
	styles := do.MustInvoke[*service.StylesheetService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBoardService(storeHandle.Store, reg, styles, sseHandle.Manager, log.Component("boards").Logger), nil
}
