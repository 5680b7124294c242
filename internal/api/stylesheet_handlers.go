package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerStylesheetRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "regenerateStylesheet",
		Method:      http.MethodPost,
		Path:        "/api/v1/stylesheet/regenerate",
		Summary:     "Regenerate stylesheet",
		Description: "Rewrites boardIcon.less from the current boards, defaults and icons",
		Tags:        []string{"Stylesheet"},
	}, s.handleRegenerateStylesheet)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStylesheetStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/stylesheet/status",
		Summary:     "Stylesheet status",
		Description: "Reports whether the file on disk matches what regeneration would write",
		Tags:        []string{"Stylesheet"},
	}, s.handleStylesheetStatus)
}

// RegenerateResponse describes one regeneration.
type RegenerateResponse struct {
	Generation string    `json:"generation" doc:"Unique ID of this regeneration"`
	Hash       string    `json:"hash" doc:"SHA-256 of the written content"`
	Size       int64     `json:"size" doc:"Bytes written"`
	Changed    bool      `json:"changed" doc:"Content differs from the previous file"`
	WrittenAt  time.Time `json:"written_at" doc:"Write time"`
}

// RegenerateOutput wraps the regeneration result for Huma.
type RegenerateOutput struct {
	Body RegenerateResponse
}

// StylesheetStatusOutput wraps the stylesheet status for Huma.
type StylesheetStatusOutput struct {
	Body struct {
		UpToDate bool   `json:"up_to_date" doc:"File matches current data"`
		URL      string `json:"url" doc:"Where the stylesheet is served"`
	}
}

func (s *Server) handleRegenerateStylesheet(ctx context.Context, _ *struct{}) (*RegenerateOutput, error) {
	res, err := s.services.Stylesheet.Regenerate(ctx)
	if err != nil {
		return nil, err
	}

	return &RegenerateOutput{Body: RegenerateResponse{
		Generation: res.Generation,
		Hash:       res.Hash,
		Size:       res.Size,
		Changed:    res.Changed,
		WrittenAt:  res.WrittenAt,
	}}, nil
}

func (s *Server) handleStylesheetStatus(ctx context.Context, _ *struct{}) (*StylesheetStatusOutput, error) {
	upToDate, err := s.services.Stylesheet.UpToDate(ctx)
	if err != nil {
		return nil, err
	}

	out := &StylesheetStatusOutput{}
	out.Body.UpToDate = upToDate
	out.Body.URL = stylesheetRoute
	return out, nil
}
