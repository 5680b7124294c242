package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/boardicon/boardicon-server/internal/domain"
)

const iconColumns = `id, title, file_hash, file_extension, file_size, blur_hash, created_at, updated_at`

func scanIcon(s scanner) (*domain.Icon, error) {
	var (
		icon               domain.Icon
		createdAt, updated string
	)
	err := s.Scan(&icon.ID, &icon.Title, &icon.FileHash, &icon.FileExtension,
		&icon.FileSize, &icon.BlurHash, &createdAt, &updated)
	if err != nil {
		return nil, err
	}

	if icon.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if icon.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &icon, nil
}

// ListIcons returns every uploaded icon ordered by id.
func (s *Store) ListIcons(ctx context.Context) ([]*domain.Icon, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+iconColumns+` FROM icons ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list icons: %w", err)
	}
	defer rows.Close()

	icons := []*domain.Icon{}
	for rows.Next() {
		icon, err := scanIcon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan icon: %w", err)
		}
		icons = append(icons, icon)
	}
	return icons, rows.Err()
}

// GetIcon returns the icon with the given id or store.ErrNotFound.
func (s *Store) GetIcon(ctx context.Context, id int64) (*domain.Icon, error) {
	icon, err := scanIcon(s.db.QueryRowContext(ctx,
		`SELECT `+iconColumns+` FROM icons WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("icon", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get icon: %w", err)
	}
	return icon, nil
}

// CreateIcon inserts icon and assigns its id. If commit is non-nil it runs
// inside the transaction after the id is known; an error from it rolls the
// insert back. This is where the staged file is moved to its permanent name,
// so a record never becomes visible without its file.
func (s *Store) CreateIcon(ctx context.Context, icon *domain.Icon, commit func(*domain.Icon) error) error {
	now := time.Now()
	if icon.CreatedAt.IsZero() {
		icon.CreatedAt = now
	}
	icon.UpdatedAt = now

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO icons (title, file_hash, file_extension, file_size, blur_hash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			icon.Title, icon.FileHash, icon.FileExtension, icon.FileSize, icon.BlurHash,
			formatTime(icon.CreatedAt), formatTime(icon.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert icon: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("icon id: %w", err)
		}
		icon.ID = id

		if commit != nil {
			if err := commit(icon); err != nil {
				icon.ID = 0
				return err
			}
		}
		return nil
	})
}

// UpdateIcon overwrites the mutable columns of an existing icon.
func (s *Store) UpdateIcon(ctx context.Context, icon *domain.Icon) error {
	icon.Touch()

	res, err := s.db.ExecContext(ctx, `
		UPDATE icons
		SET title = ?, file_hash = ?, file_extension = ?, file_size = ?, blur_hash = ?, updated_at = ?
		WHERE id = ?`,
		icon.Title, icon.FileHash, icon.FileExtension, icon.FileSize, icon.BlurHash,
		formatTime(icon.UpdatedAt), icon.ID)
	if err != nil {
		return fmt.Errorf("update icon: %w", err)
	}
	return expectOneRow(res, "icon", icon.ID)
}

// DeleteIcon removes the icon record. Board assignments that reference it
// are left in place and simply stop rendering.
func (s *Store) DeleteIcon(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM icons WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete icon: %w", err)
	}
	return expectOneRow(res, "icon", id)
}
