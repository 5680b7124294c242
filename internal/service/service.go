// Package service orchestrates icon, board and stylesheet operations.
// Every mutating operation ends by regenerating the stylesheet.
package service

import (
	"context"
	"errors"

	"github.com/boardicon/boardicon-server/internal/domain"
	domainerrors "github.com/boardicon/boardicon-server/internal/errors"
	"github.com/boardicon/boardicon-server/internal/sse"
	"github.com/boardicon/boardicon-server/internal/store"
	"github.com/boardicon/boardicon-server/internal/stylesheet"
)

// IconStore persists uploaded icon records.
type IconStore interface {
	ListIcons(ctx context.Context) ([]*domain.Icon, error)
	GetIcon(ctx context.Context, id int64) (*domain.Icon, error)
	CreateIcon(ctx context.Context, icon *domain.Icon, commit func(*domain.Icon) error) error
	UpdateIcon(ctx context.Context, icon *domain.Icon) error
	DeleteIcon(ctx context.Context, id int64) error
}

// BoardStore persists the board tree and the default slots.
type BoardStore interface {
	ListBoards(ctx context.Context) ([]*domain.Board, error)
	GetBoard(ctx context.Context, id int64) (*domain.Board, error)
	SaveBoard(ctx context.Context, b *domain.Board) error
	DeleteBoard(ctx context.Context, id int64) error
	SetNodeIcons(ctx context.Context, id int64, icon, iconNew domain.Assignment) error
	GetDefaults(ctx context.Context) (domain.Defaults, error)
	SetDefault(ctx context.Context, slot domain.DefaultSlot, glyph string) error
}

// Emitter delivers change events to connected clients.
type Emitter interface {
	Emit(event sse.Event)
}

// Regenerator rewrites the stylesheet.
type Regenerator interface {
	Regenerate(ctx context.Context) (stylesheet.Result, error)
}

type noopEmitter struct{}

func (noopEmitter) Emit(sse.Event) {}

// NoopEmitter discards events. Used by the CLI, which has no listeners.
var NoopEmitter Emitter = noopEmitter{}

// storeError maps persistence errors onto domain errors.
func storeError(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(notFoundMsg).WithCause(err)
	case errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Validation(err.Error())
	default:
		var de *domainerrors.Error
		if errors.As(err, &de) {
			return err
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "storage error")
	}
}

// regenerate runs r and converts a failure into an internal error.
func regenerate(ctx context.Context, r Regenerator) error {
	if _, err := r.Regenerate(ctx); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to regenerate stylesheet")
	}
	return nil
}
