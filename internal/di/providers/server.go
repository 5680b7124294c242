package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/boardicon/boardicon-server/internal/api"
	"github.com/boardicon/boardicon-server/internal/assets"
	"github.com/boardicon/boardicon-server/internal/config"
	"github.com/boardicon/boardicon-server/internal/logger"
	"github.com/boardicon/boardicon-server/internal/service"
)

// multipartOverhead is allowed on top of the file size limit for form fields and part headers.
const multipartOverhead = 1 << 20

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	defer h.api.Close()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	assetStore := do.MustInvoke[*assets.Store](i)
	log := do.MustInvoke[*logger.Logger](i)

	// The stylesheet must exist before it is served.
	_ = do.MustInvoke[*Startup](i)

	services := &api.Services{
		Icons:      do.MustInvoke[*service.IconService](i),
		Boards:     do.MustInvoke[*service.BoardService](i),
		Stylesheet: do.MustInvoke[*service.StylesheetService](i),
	}

	opts := api.Options{
		IconDir:          assetStore.Dir(),
		StylesheetPath:   cfg.StylesheetPath(),
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		UploadsPerMinute: cfg.Server.UploadsPerMinute,
	}
	if cfg.Upload.MaxFileSize > 0 {
		opts.MaxUploadSize = cfg.Upload.MaxFileSize + multipartOverhead
	}

	handler := api.NewServer(services, storeHandle.Store, sseHandle.Manager, opts, log.Component("api").Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "stylesheet", cfg.StylesheetURL())

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
