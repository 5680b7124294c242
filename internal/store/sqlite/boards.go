package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/boardicon/boardicon-server/internal/domain"
)

const boardColumns = `id, parent_id, position, title, type, is_closed,
	icon, icon_color, icon_new, icon_new_color, created_at, updated_at`

func scanBoard(s scanner) (*domain.Board, error) {
	var (
		b                  domain.Board
		parentID           sql.NullInt64
		boardType          string
		createdAt, updated string
	)
	err := s.Scan(&b.ID, &parentID, &b.Position, &b.Title, &boardType, &b.IsClosed,
		&b.Icon.Glyph, &b.Icon.Color, &b.IconNew.Glyph, &b.IconNew.Color, &createdAt, &updated)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		b.ParentID = &parentID.Int64
	}
	b.Type = domain.BoardType(boardType)

	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if b.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &b, nil
}

// ListBoards returns all boards ordered by parent, position and id.
// Use domain.TreeOrder for depth-first traversal.
func (s *Store) ListBoards(ctx context.Context) ([]*domain.Board, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+boardColumns+` FROM boards ORDER BY parent_id, position, id`)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	boards := []*domain.Board{}
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan board: %w", err)
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// GetBoard returns the board with the given id or store.ErrNotFound.
func (s *Store) GetBoard(ctx context.Context, id int64) (*domain.Board, error) {
	b, err := scanBoard(s.db.QueryRowContext(ctx,
		`SELECT `+boardColumns+` FROM boards WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("board", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	return b, nil
}

// SaveBoard inserts or updates a board. A zero ID allocates a new one.
// Icon assignments are written as given; use SetNodeIcons to change only them.
func (s *Store) SaveBoard(ctx context.Context, b *domain.Board) error {
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	args := []any{nullInt64(b.ParentID), b.Position, b.Title, string(b.Type), b.IsClosed,
		b.Icon.Glyph, b.Icon.Color, b.IconNew.Glyph, b.IconNew.Color,
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt)}

	if b.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO boards (parent_id, position, title, type, is_closed,
				icon, icon_color, icon_new, icon_new_color, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
		if err != nil {
			return fmt.Errorf("insert board: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("board id: %w", err)
		}
		b.ID = id
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO boards (id, parent_id, position, title, type, is_closed,
			icon, icon_color, icon_new, icon_new_color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			parent_id = excluded.parent_id,
			position = excluded.position,
			title = excluded.title,
			type = excluded.type,
			is_closed = excluded.is_closed,
			icon = excluded.icon,
			icon_color = excluded.icon_color,
			icon_new = excluded.icon_new,
			icon_new_color = excluded.icon_new_color,
			updated_at = excluded.updated_at`,
		append([]any{b.ID}, args...)...)
	if err != nil {
		return fmt.Errorf("save board: %w", err)
	}
	return nil
}

// SetNodeIcons replaces both icon assignments of a board.
func (s *Store) SetNodeIcons(ctx context.Context, id int64, icon, iconNew domain.Assignment) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE boards
		SET icon = ?, icon_color = ?, icon_new = ?, icon_new_color = ?, updated_at = ?
		WHERE id = ?`,
		icon.Glyph, icon.Color, iconNew.Glyph, iconNew.Color, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("set node icons: %w", err)
	}
	return expectOneRow(res, "board", id)
}

// DeleteBoard removes a board. Its children move up to the deleted board's parent.
func (s *Store) DeleteBoard(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var parentID sql.NullInt64
		err := tx.QueryRowContext(ctx, `SELECT parent_id FROM boards WHERE id = ?`, id).Scan(&parentID)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("board", id)
		}
		if err != nil {
			return fmt.Errorf("get board: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE boards SET parent_id = ?, updated_at = ? WHERE parent_id = ?`,
			parentID, formatTime(time.Now()), id); err != nil {
			return fmt.Errorf("reparent children: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete board: %w", err)
		}
		return nil
	})
}
