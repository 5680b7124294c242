package di

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardicon/boardicon-server/internal/config"
	"github.com/boardicon/boardicon-server/internal/di/providers"
	"github.com/boardicon/boardicon-server/internal/service"
	"github.com/boardicon/boardicon-server/internal/stylesheet"
)

func testConfig(t *testing.T) *config.Config {
	base := t.TempDir()
	return &config.Config{
		App:    config.AppConfig{Environment: "production"},
		Logger: config.LoggerConfig{Level: "error"},
		Storage: config.StorageConfig{
			BasePath:     base,
			DatabasePath: filepath.Join(base, "data", "boardicon.db"),
			PublicURL:    "/",
		},
		Upload: config.UploadConfig{MinDimension: 32},
		Staging: config.StagingConfig{
			Backend:      "badger",
			BadgerPath:   filepath.Join(base, "data", "staging"),
			AbandonAfter: time.Hour,
		},
	}
}

func TestNewContainer_StartupWritesStylesheet(t *testing.T) {
	cfg := testConfig(t)
	injector := NewContainer(cfg)
	t.Cleanup(func() { _ = injector.Shutdown() })

	startup, err := do.Invoke[*providers.Startup](injector)
	require.NoError(t, err)
	assert.Zero(t, startup.Recovered)

	data, err := os.ReadFile(cfg.StylesheetPath())
	require.NoError(t, err)
	assert.Equal(t, stylesheet.Header, string(data))
}

func TestNewContainer_ResolvesServices(t *testing.T) {
	cfg := testConfig(t)
	injector := NewContainer(cfg)
	t.Cleanup(func() { _ = injector.Shutdown() })

	icons, err := do.Invoke[*service.IconService](injector)
	require.NoError(t, err)
	boards, err := do.Invoke[*service.BoardService](injector)
	require.NoError(t, err)
	assert.NotNil(t, icons)
	assert.NotNil(t, boards)

	styles, err := do.Invoke[*service.StylesheetService](injector)
	require.NoError(t, err)
	assert.Equal(t, cfg.StylesheetPath(), styles.Path())
}
