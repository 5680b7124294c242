package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// startupTimeout bounds connection checks and recovery work during startup.
	startupTimeout = 30 * time.Second
)
