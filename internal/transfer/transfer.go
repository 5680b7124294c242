// Package transfer exports and imports board icon assignments and default
// slots as YAML, so a configuration can be reviewed, versioned or copied to
// another installation with the same board IDs.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/boardicon/boardicon-server/internal/domain"
	domainerrors "github.com/boardicon/boardicon-server/internal/errors"
	"github.com/boardicon/boardicon-server/internal/service"
)

// Version is written into every document. Import rejects other versions.
const Version = 1

// Document is the YAML form of all icon assignments.
type Document struct {
	Version  int               `yaml:"version"`
	Defaults map[string]string `yaml:"defaults,omitempty"`
	Boards   []Board           `yaml:"boards,omitempty"`
}

// Board holds the icons of one node. Title and type are informational.
type Board struct {
	ID      int64       `yaml:"id"`
	Title   string      `yaml:"title,omitempty"`
	Type    string      `yaml:"type,omitempty"`
	Icon    *Assignment `yaml:"icon,omitempty"`
	IconNew *Assignment `yaml:"icon_new,omitempty"`
}

// Assignment is one glyph with an optional color.
type Assignment struct {
	Glyph string `yaml:"glyph"`
	Color string `yaml:"color,omitempty"`
}

// Report summarizes an import.
type Report struct {
	Defaults int
	Boards   int
	Skipped  []int64          // board IDs that do not exist here
	Failed   map[int64]string // board ID -> reason
}

// BoardService is the part of service.BoardService used here.
type BoardService interface {
	ListBoards(ctx context.Context) ([]*domain.Board, error)
	GetDefaults(ctx context.Context) (domain.Defaults, error)
	SetGlobalDefault(ctx context.Context, slot domain.DefaultSlot, glyph string) error
	SetNodeIcons(ctx context.Context, boardID int64, in service.NodeIcons) (*domain.Board, error)
}

// Export collects the defaults and every board that has an icon.
func Export(ctx context.Context, boards BoardService) (*Document, error) {
	defaults, err := boards.GetDefaults(ctx)
	if err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	list, err := boards.ListBoards(ctx)
	if err != nil {
		return nil, fmt.Errorf("load boards: %w", err)
	}

	doc := &Document{Version: Version}
	for _, slot := range domain.DefaultSlots {
		if glyph := defaults.Get(slot); glyph != "" {
			if doc.Defaults == nil {
				doc.Defaults = make(map[string]string)
			}
			doc.Defaults[string(slot)] = glyph
		}
	}
	for _, b := range list {
		if !b.HasIcons() {
			continue
		}
		doc.Boards = append(doc.Boards, Board{
			ID:      b.ID,
			Title:   b.Title,
			Type:    string(b.Type),
			Icon:    fromAssignment(b.Icon),
			IconNew: fromAssignment(b.IconNew),
		})
	}
	return doc, nil
}

// Import applies doc through the board service. Defaults are applied first and
// stop the import on error; board problems are collected in the report.
// Every board listed is overwritten: a missing icon clears it.
func Import(ctx context.Context, boards BoardService, doc *Document) (*Report, error) {
	if doc.Version != Version {
		return nil, fmt.Errorf("unsupported document version %d (want %d)", doc.Version, Version)
	}

	report := &Report{Failed: make(map[int64]string)}

	for _, slot := range slices.Sorted(maps.Keys(doc.Defaults)) {
		if err := boards.SetGlobalDefault(ctx, domain.DefaultSlot(slot), doc.Defaults[slot]); err != nil {
			return report, fmt.Errorf("default %s: %w", slot, err)
		}
		report.Defaults++
	}

	for _, b := range doc.Boards {
		_, err := boards.SetNodeIcons(ctx, b.ID, toNodeIcons(b))
		switch {
		case err == nil:
			report.Boards++
		case errors.Is(err, domainerrors.ErrNotFound):
			report.Skipped = append(report.Skipped, b.ID)
		default:
			var derr *domainerrors.Error
			if errors.As(err, &derr) && derr.Code == domainerrors.CodeValidation {
				report.Failed[b.ID] = describe(derr)
				continue
			}
			return report, fmt.Errorf("board %d: %w", b.ID, err)
		}
	}
	return report, nil
}

// Encode writes doc as YAML.
func Encode(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// Decode reads a YAML document. Unknown keys are rejected.
func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &doc, nil
}

func fromAssignment(a domain.Assignment) *Assignment {
	if a.IsZero() {
		return nil
	}
	return &Assignment{Glyph: a.Glyph, Color: a.Color}
}

// toNodeIcons keeps a color exactly when the document names one.
func toNodeIcons(b Board) service.NodeIcons {
	var in service.NodeIcons
	if b.Icon != nil {
		in.Icon = b.Icon.Glyph
		in.IconColor = b.Icon.Color
		in.UseIconColor = b.Icon.Color != ""
	}
	if b.IconNew != nil {
		in.IconNew = b.IconNew.Glyph
		in.IconNewColor = b.IconNew.Color
		in.UseIconNewColor = b.IconNew.Color != ""
	}
	return in
}

func describe(err *domainerrors.Error) string {
	details, ok := err.Details.(map[string]string)
	if !ok || len(details) == 0 {
		return err.Message
	}
	parts := make([]string, 0, len(details))
	for _, f := range slices.Sorted(maps.Keys(details)) {
		parts = append(parts, f+" "+details[f])
	}
	return strings.Join(parts, "; ")
}
