package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:     AppConfig{Environment: "development"},
		Logger:  LoggerConfig{Level: "info"},
		Storage: StorageConfig{BasePath: "/srv/forum"},
		Upload:  UploadConfig{MinDimension: 32},
		Staging: StagingConfig{Backend: "badger", AbandonAfter: time.Hour},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true},  // case insensitive
		{"trace", false}, // not supported
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty base path", func(c *Config) { c.Storage.BasePath = "" }, "base path cannot be empty"},
		{"negative max size", func(c *Config) { c.Upload.MaxFileSize = -1 }, "max size cannot be negative"},
		{"zero min dimension", func(c *Config) { c.Upload.MinDimension = 0 }, "min dimension"},
		{"unknown backend", func(c *Config) { c.Staging.Backend = "memcached" }, "invalid staging backend"},
		{"zero abandon age", func(c *Config) { c.Staging.AbandonAfter = 0 }, "abandon-after"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	base := t.TempDir()

	cfg, err := LoadConfig([]string{"-base-path", base, "-env-file", filepath.Join(base, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, base, cfg.Storage.BasePath)
	assert.Equal(t, filepath.Join(base, "data", "boardicon.db"), cfg.Storage.DatabasePath)
	assert.Equal(t, filepath.Join(base, "data", "staging"), cfg.Staging.BadgerPath)
	assert.Equal(t, "/", cfg.Storage.PublicURL)
	assert.Equal(t, int64(0), cfg.Upload.MaxFileSize)
	assert.Equal(t, 32, cfg.Upload.MinDimension)
	assert.Equal(t, "badger", cfg.Staging.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Staging.AbandonAfter)
	assert.Equal(t, time.Hour, cfg.Staging.SweepInterval)
	assert.True(t, cfg.Stylesheet.Guard)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, filepath.Join(base, "icon", "board"), cfg.IconDir())
	assert.Equal(t, filepath.Join(base, "style", "boardIcon.less"), cfg.StylesheetPath())
}

func TestLoadConfig_FlagBeatsEnv(t *testing.T) {
	base := t.TempDir()
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("PUBLIC_URL", "https://forum.example.com/wcf")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("STYLESHEET_GUARD", "no")

	cfg, err := LoadConfig([]string{"-base-path", base, "-port", "9100", "-env-file", filepath.Join(base, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "https://forum.example.com/wcf/", cfg.Storage.PublicURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Stylesheet.Guard)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	base := t.TempDir()

	_, err := LoadConfig([]string{"-base-path", base, "-staging-abandon-after", "soon", "-env-file", filepath.Join(base, "missing.env")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging_abandon_after")
}

func TestExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Run("empty uses default", func(t *testing.T) {
		got, err := expandPath("", "/fallback")
		require.NoError(t, err)
		assert.Equal(t, "/fallback", got)
	})

	t.Run("tilde expansion", func(t *testing.T) {
		got, err := expandPath("~/forum", "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(homeDir, "forum"), got)
	})

	t.Run("relative becomes absolute", func(t *testing.T) {
		got, err := expandPath("relative/path", "")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
		assert.Contains(t, got, "relative/path")
	})
}

func TestGetConfigValue_Precedence(t *testing.T) {
	assert.Equal(t, "flag-value", getConfigValue("flag-value", "TEST_ENV_KEY", "default-value"))

	t.Setenv("TEST_ENV_KEY", "env-value")
	assert.Equal(t, "env-value", getConfigValue("", "TEST_ENV_KEY", "default-value"))

	assert.Equal(t, "default-value", getConfigValue("", "NONEXISTENT_KEY", "default-value"))
}

func TestGetIntConfigValue_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("TEST_INT_KEY", "many")
	assert.Equal(t, 5, getIntConfigValue("", "TEST_INT_KEY", 5))
	assert.Equal(t, 7, getIntConfigValue("7", "TEST_INT_KEY", 5))
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")

	content := `# Test env file
ENV=staging
LOG_LEVEL=debug

# Comment line
QUOTED_VALUE="some value"
SINGLE_QUOTED='another value'
  KEY_WITH_SPACES  =  value with spaces
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	for _, key := range []string{"ENV", "LOG_LEVEL", "QUOTED_VALUE", "SINGLE_QUOTED", "KEY_WITH_SPACES"} {
		t.Setenv(key, "")
	}

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "staging", os.Getenv("ENV"))
	assert.Equal(t, "debug", os.Getenv("LOG_LEVEL"))
	assert.Equal(t, "some value", os.Getenv("QUOTED_VALUE"))
	assert.Equal(t, "another value", os.Getenv("SINGLE_QUOTED"))
	assert.Equal(t, "value with spaces", os.Getenv("KEY_WITH_SPACES"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("VALID_KEY=valid_value\nINVALID LINE WITHOUT EQUALS\n"), 0o644))

	err := loadEnvFile(envFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	t.Setenv("TEST_VAR", "original-value")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TEST_VAR=new-value"), 0o644))

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "original-value", os.Getenv("TEST_VAR"))
}
