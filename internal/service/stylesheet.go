package service

import (
	"context"
	"log/slog"

	domainerrors "github.com/boardicon/boardicon-server/internal/errors"
	"github.com/boardicon/boardicon-server/internal/stylesheet"
)

// StylesheetService exposes the generated stylesheet to callers outside the
// mutating operations: manual regeneration and drift checks.
type StylesheetService struct {
	assembler *stylesheet.Assembler
	logger    *slog.Logger
}

// NewStylesheetService creates a new stylesheet service.
func NewStylesheetService(assembler *stylesheet.Assembler, logger *slog.Logger) *StylesheetService {
	return &StylesheetService{assembler: assembler, logger: logger}
}

// Regenerate rewrites the stylesheet from current data.
func (s *StylesheetService) Regenerate(ctx context.Context) (stylesheet.Result, error) {
	res, err := s.assembler.Regenerate(ctx)
	if err != nil {
		return stylesheet.Result{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to regenerate stylesheet")
	}
	return res, nil
}

// Render returns what Regenerate would write, without writing it.
func (s *StylesheetService) Render(ctx context.Context) ([]byte, error) {
	content, err := s.assembler.Render(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to render stylesheet")
	}
	return content, nil
}

// UpToDate reports whether the file on disk matches current data.
func (s *StylesheetService) UpToDate(ctx context.Context) (bool, error) {
	content, err := s.Render(ctx)
	if err != nil {
		return false, err
	}
	return stylesheet.Equal(s.assembler.Path(), content), nil
}

// Path returns the location of the generated file.
func (s *StylesheetService) Path() string {
	return s.assembler.Path()
}
