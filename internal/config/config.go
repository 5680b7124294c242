// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Storage    StorageConfig
	Upload     UploadConfig
	Staging    StagingConfig
	Stylesheet StylesheetConfig
	Server     ServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig describes where icons, the database and the generated stylesheet live.
type StorageConfig struct {
	// BasePath is the application directory. Icons are stored below
	// {BasePath}/icon/board and the stylesheet at {BasePath}/style/boardIcon.less.
	BasePath string
	// DatabasePath defaults to {BasePath}/data/boardicon.db.
	DatabasePath string
	// PublicURL is the URL prefix under which BasePath is served (default: "/").
	PublicURL string
}

// UploadConfig holds icon upload limits.
type UploadConfig struct {
	MaxFileSize  int64 // bytes, 0 means unlimited
	MinDimension int   // minimum width and height in pixels (default: 32)
}

// StagingConfig controls where pending uploads are tracked and when they are abandoned.
type StagingConfig struct {
	Backend       string        // "badger" (default) or "redis"
	BadgerPath    string        // default: {BasePath}/data/staging
	RedisAddr     string        // host:port, used when Backend is "redis"
	RedisPassword string
	RedisDB       int
	AbandonAfter  time.Duration // staged uploads older than this are swept (default: 24h)
	SweepInterval time.Duration // default: 1h
}

// StylesheetConfig controls the generated stylesheet.
type StylesheetConfig struct {
	// Guard re-writes the generated file when it is modified by hand (default: true).
	Guard bool
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port             string        // Server port (default: 8080)
	ReadTimeout      time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout     time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout      time.Duration // HTTP idle timeout (default: 60s)
	AllowedOrigins   []string      // CORS origins (default: none)
	UploadsPerMinute int           // per client IP (default: 30)
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
//
// args are the command-line arguments without the program name. Pass nil to
// skip flag parsing (the CLI binds its own flags).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("boardicon", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	basePath := fs.String("base-path", "", "Application directory holding icons and stylesheet")
	dbPath := fs.String("db-path", "", "SQLite database path")
	publicURL := fs.String("public-url", "", "URL prefix the application directory is served under")

	maxFileSize := fs.String("upload-max-size", "", "Maximum icon upload size in bytes (default: unlimited)")
	minDimension := fs.String("upload-min-dimension", "", "Minimum icon width/height in pixels (default: 32)")

	stagingBackend := fs.String("staging-backend", "", "Pending upload store: badger or redis (default: badger)")
	redisAddr := fs.String("redis-addr", "", "Redis address for the redis staging backend")
	abandonAfter := fs.String("staging-abandon-after", "", "Age after which staged uploads are swept (default: 24h)")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if args != nil {
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("parse flags: %w", err)
		}
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			BasePath:     getConfigValue(*basePath, "BASE_PATH", ""),
			DatabasePath: getConfigValue(*dbPath, "DB_PATH", ""),
			PublicURL:    getConfigValue(*publicURL, "PUBLIC_URL", "/"),
		},
		Upload: UploadConfig{
			MaxFileSize:  int64(getIntConfigValue(*maxFileSize, "UPLOAD_MAX_SIZE", 0)),
			MinDimension: getIntConfigValue(*minDimension, "UPLOAD_MIN_DIMENSION", 32),
		},
		Staging: StagingConfig{
			Backend:       getConfigValue(*stagingBackend, "STAGING_BACKEND", "badger"),
			BadgerPath:    getConfigValue("", "STAGING_BADGER_PATH", ""),
			RedisAddr:     getConfigValue(*redisAddr, "REDIS_ADDR", "localhost:6379"),
			RedisPassword: getConfigValue("", "REDIS_PASSWORD", ""),
			RedisDB:       getIntConfigValue("", "REDIS_DB", 0),
		},
		Stylesheet: StylesheetConfig{
			Guard: getBoolConfigValue("", "STYLESHEET_GUARD", true),
		},
		Server: ServerConfig{
			Port:             getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins:   splitList(getConfigValue("", "CORS_ALLOWED_ORIGINS", "")),
			UploadsPerMinute: getIntConfigValue("", "UPLOADS_PER_MINUTE", 30),
		},
	}

	durations := []struct {
		flagValue, envKey, def string
		target                 *time.Duration
	}{
		{*abandonAfter, "STAGING_ABANDON_AFTER", "24h", &cfg.Staging.AbandonAfter},
		{"", "STAGING_SWEEP_INTERVAL", "1h", &cfg.Staging.SweepInterval},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(d.envKey), raw, err)
		}
		*d.target = parsed
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid storage path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.BasePath == "" {
		return errors.New("base path cannot be empty after expansion")
	}

	if c.Upload.MaxFileSize < 0 {
		return errors.New("upload max size cannot be negative")
	}
	if c.Upload.MinDimension < 1 {
		return fmt.Errorf("invalid upload min dimension: %d", c.Upload.MinDimension)
	}

	switch c.Staging.Backend {
	case "badger", "redis":
	default:
		return fmt.Errorf("invalid staging backend: %s (must be badger or redis)", c.Staging.Backend)
	}
	if c.Staging.AbandonAfter <= 0 {
		return errors.New("staging abandon-after must be positive")
	}

	return nil
}

// IconDir returns the permanent icon directory.
func (c *Config) IconDir() string {
	return filepath.Join(c.Storage.BasePath, "icon", "board")
}

// StylesheetPath returns the generated stylesheet fragment path.
func (c *Config) StylesheetPath() string {
	return filepath.Join(c.Storage.BasePath, "style", "boardIcon.less")
}

// StylesheetURL returns the public address of the generated stylesheet.
func (c *Config) StylesheetURL() string {
	return c.Storage.PublicURL + "style/boardIcon.less"
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandPaths resolves the base path and everything derived from it.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	base, err := expandPath(c.Storage.BasePath, filepath.Join(homeDir, "BoardIcon"))
	if err != nil {
		return err
	}
	c.Storage.BasePath = base

	db, err := expandPath(c.Storage.DatabasePath, filepath.Join(base, "data", "boardicon.db"))
	if err != nil {
		return err
	}
	c.Storage.DatabasePath = db

	staging, err := expandPath(c.Staging.BadgerPath, filepath.Join(base, "data", "staging"))
	if err != nil {
		return err
	}
	c.Staging.BadgerPath = staging

	if !strings.HasSuffix(c.Storage.PublicURL, "/") {
		c.Storage.PublicURL += "/"
	}
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// splitList splits a comma separated value, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
