package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"database":   s.checkDatabase(ctx),
		"stylesheet": s.checkStylesheet(ctx),
		"sse":        s.checkSSEManager(),
	}

	overall := "healthy"
	for _, c := range components {
		switch c.Status {
		case "unhealthy":
			overall = "unhealthy"
		case "degraded":
			if overall == "healthy" {
				overall = "degraded"
			}
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkDatabase verifies SQLite is reachable.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.db == nil {
		return ComponentHealth{Status: "unhealthy", Message: "database not configured"}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		return ComponentHealth{Status: "unhealthy", Message: err.Error()}
	}
	return ComponentHealth{Status: "healthy", Latency: time.Since(start).String()}
}

// checkStylesheet reports degraded when the file on disk no longer matches the data.
func (s *Server) checkStylesheet(ctx context.Context) ComponentHealth {
	upToDate, err := s.services.Stylesheet.UpToDate(ctx)
	if err != nil {
		return ComponentHealth{Status: "unhealthy", Message: err.Error()}
	}
	if !upToDate {
		return ComponentHealth{Status: "degraded", Message: "stylesheet is stale, regenerate it"}
	}
	return ComponentHealth{Status: "healthy"}
}

func (s *Server) checkSSEManager() ComponentHealth {
	if s.sseManager == nil {
		return ComponentHealth{Status: "degraded", Message: "change notifications disabled"}
	}
	return ComponentHealth{Status: "healthy", Message: fmt.Sprintf("%d client(s) connected", s.sseManager.ClientCount())}
}
