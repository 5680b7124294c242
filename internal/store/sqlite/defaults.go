package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/boardicon/boardicon-server/internal/domain"
)

// GetDefaults returns the glyph stored for each default slot.
// Slots that were never set are absent from the map.
func (s *Store) GetDefaults(ctx context.Context) (domain.Defaults, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slot, glyph FROM icon_defaults WHERE glyph != ''`)
	if err != nil {
		return nil, fmt.Errorf("get defaults: %w", err)
	}
	defer rows.Close()

	defaults := domain.Defaults{}
	for rows.Next() {
		var slot, glyph string
		if err := rows.Scan(&slot, &glyph); err != nil {
			return nil, fmt.Errorf("scan default: %w", err)
		}
		defaults[domain.DefaultSlot(slot)] = glyph
	}
	return defaults, rows.Err()
}

// SetDefault stores glyph for slot. An empty glyph clears the slot.
func (s *Store) SetDefault(ctx context.Context, slot domain.DefaultSlot, glyph string) error {
	if !slot.Valid() {
		return fmt.Errorf("set default %q: %w", slot, errInvalidSlot)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO icon_defaults (slot, glyph, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (slot) DO UPDATE SET glyph = excluded.glyph, updated_at = excluded.updated_at`,
		string(slot), glyph, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("set default: %w", err)
	}
	return nil
}
