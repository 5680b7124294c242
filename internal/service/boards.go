package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/boardicon/boardicon-server/internal/domain"
	domainerrors "github.com/boardicon/boardicon-server/internal/errors"
	"github.com/boardicon/boardicon-server/internal/glyphs"
	"github.com/boardicon/boardicon-server/internal/registry"
	"github.com/boardicon/boardicon-server/internal/sse"
)

// BoardService manages icon assignments of board nodes and the global default slots.
type BoardService struct {
	store    BoardStore
	registry *registry.Registry
	styles   Regenerator
	events   Emitter
	logger   *slog.Logger
}

// NewBoardService creates a new board service.
func NewBoardService(store BoardStore, reg *registry.Registry, styles Regenerator, events Emitter, logger *slog.Logger) *BoardService {
	if events == nil {
		events = NoopEmitter
	}
	return &BoardService{store: store, registry: reg, styles: styles, events: events, logger: logger}
}

// NodeIcons is the icon part of the board edit form. A color is kept only
// when its Use flag is set; an enabled color left blank becomes DefaultColor.
type NodeIcons struct {
	Icon            string
	IconColor       string
	IconNew         string
	IconNewColor    string
	UseIconColor    bool
	UseIconNewColor bool
}

// SetNodeIcons validates and stores both icon assignments of a board.
func (s *BoardService) SetNodeIcons(ctx context.Context, boardID int64, in NodeIcons) (*domain.Board, error) {
	problems := map[string]string{}

	icon, ok, err := s.resolveGlyph(ctx, in.Icon)
	if err != nil {
		return nil, err
	}
	if !ok {
		problems["icon"] = "is not a known icon"
	}
	iconColor := useColor(in.UseIconColor, in.IconColor, "icon_color", problems)

	iconNew, ok, err := s.resolveGlyph(ctx, in.IconNew)
	if err != nil {
		return nil, err
	}
	if !ok {
		problems["icon_new"] = "is not a known icon"
	}
	iconNewColor := useColor(in.UseIconNewColor, in.IconNewColor, "icon_new_color", problems)

	if len(problems) > 0 {
		return nil, domainerrors.ValidationWithDetails("validation failed", problems)
	}

	a := domain.Assignment{Glyph: icon, Color: iconColor}
	b := domain.Assignment{Glyph: iconNew, Color: iconNewColor}
	if err := s.store.SetNodeIcons(ctx, boardID, a, b); err != nil {
		return nil, storeError(err, "board not found")
	}

	board, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, storeError(err, "board not found")
	}
	if err := regenerate(ctx, s.styles); err != nil {
		return nil, err
	}

	s.events.Emit(sse.NewBoardIconsUpdatedEvent(board))
	s.logger.Info("board icons updated", "board_id", boardID, "icon", a.Glyph, "icon_new", b.Glyph)
	return board, nil
}

// SetGlobalDefault assigns glyph to a default slot. An empty glyph clears it.
func (s *BoardService) SetGlobalDefault(ctx context.Context, slot domain.DefaultSlot, glyph string) error {
	if !slot.Valid() {
		return domainerrors.InvalidField("slot", "is not a default slot")
	}
	resolved, ok, err := s.resolveGlyph(ctx, glyph)
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.InvalidField("glyph", "is not a known icon")
	}

	if err := s.store.SetDefault(ctx, slot, resolved); err != nil {
		return storeError(err, "slot not found")
	}
	if err := regenerate(ctx, s.styles); err != nil {
		return err
	}

	s.events.Emit(sse.NewDefaultsUpdatedEvent(slot, resolved))
	s.logger.Info("default icon updated", "slot", slot, "glyph", resolved)
	return nil
}

// GetDefaults returns the glyph of every slot that is set.
func (s *BoardService) GetDefaults(ctx context.Context) (domain.Defaults, error) {
	d, err := s.store.GetDefaults(ctx)
	if err != nil {
		return nil, storeError(err, "defaults not found")
	}
	return d, nil
}

// ListBoards returns all boards in tree order.
func (s *BoardService) ListBoards(ctx context.Context) ([]*domain.Board, error) {
	boards, err := s.store.ListBoards(ctx)
	if err != nil {
		return nil, storeError(err, "boards not found")
	}
	return slices.Collect(domain.TreeOrder(boards)), nil
}

// GetBoard returns one board.
func (s *BoardService) GetBoard(ctx context.Context, boardID int64) (*domain.Board, error) {
	b, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, storeError(err, "board not found")
	}
	return b, nil
}

// SaveBoard creates or updates a board, including its icon assignments.
// Colors are taken as given; an empty color means none.
func (s *BoardService) SaveBoard(ctx context.Context, b *domain.Board) (*domain.Board, error) {
	problems := map[string]string{}

	b.Title = strings.TrimSpace(b.Title)
	if b.Title == "" {
		problems["title"] = "is required"
	}
	if !b.Type.Valid() {
		problems["type"] = "must be one of: board category link"
	}
	if b.ParentID != nil {
		if *b.ParentID == b.ID && b.ID != 0 {
			problems["parent_id"] = "cannot be the board itself"
		} else if _, err := s.store.GetBoard(ctx, *b.ParentID); err != nil {
			if err := storeError(err, "parent not found"); !domainerrors.Is(err, domainerrors.ErrNotFound) {
				return nil, err
			}
			problems["parent_id"] = "does not exist"
		}
	}

	for _, f := range []struct {
		field string
		a     *domain.Assignment
	}{
		{"icon", &b.Icon},
		{"icon_new", &b.IconNew},
	} {
		glyph, ok, err := s.resolveGlyph(ctx, f.a.Glyph)
		if err != nil {
			return nil, err
		}
		if ok {
			f.a.Glyph = glyph
		} else {
			problems[f.field] = "is not a known icon"
		}
		if f.a.Color != "" && !domain.ValidColor(f.a.Color) {
			problems[f.field+"_color"] = "must be a color of the form rgba(r, g, b, a)"
		}
	}

	if len(problems) > 0 {
		return nil, domainerrors.ValidationWithDetails("validation failed", problems)
	}

	if err := s.store.SaveBoard(ctx, b); err != nil {
		return nil, storeError(err, "board not found")
	}
	if err := regenerate(ctx, s.styles); err != nil {
		return nil, err
	}

	s.events.Emit(sse.NewBoardIconsUpdatedEvent(b))
	return b, nil
}

// DeleteBoard removes a board; its children move up one level.
func (s *BoardService) DeleteBoard(ctx context.Context, boardID int64) error {
	if err := s.store.DeleteBoard(ctx, boardID); err != nil {
		return storeError(err, "board not found")
	}
	if err := regenerate(ctx, s.styles); err != nil {
		return err
	}
	s.logger.Info("board deleted", "board_id", boardID)
	return nil
}

// resolveGlyph checks that glyph names something assignable and returns its
// stored form. Uploaded references are stored as icon<N>.
func (s *BoardService) resolveGlyph(ctx context.Context, glyph string) (string, bool, error) {
	glyph = strings.TrimSpace(glyph)
	if glyph == "" || glyphs.Has(glyph) {
		return glyph, true, nil
	}

	iconID, ok := domain.ParseUploadedRef(glyph)
	if !ok {
		return "", false, nil
	}
	_, found, err := s.registry.Lookup(ctx, iconID)
	if err != nil {
		return "", false, storeError(err, "icon not found")
	}
	if !found {
		return "", false, nil
	}
	return domain.UploadedRef(iconID), true, nil
}

func useColor(use bool, color, field string, problems map[string]string) string {
	if !use {
		return ""
	}
	color = strings.TrimSpace(color)
	if color == "" {
		return domain.DefaultColor
	}
	if !domain.ValidColor(color) {
		problems[field] = "must be a color of the form rgba(r, g, b, a)"
	}
	return color
}
