package assets

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/boardicon/boardicon-server/internal/domain"
	"github.com/boardicon/boardicon-server/internal/id"
)

// Promotion moves a staged upload into permanent storage.
// Promote computes the file facts; Commit performs the rename once the icon id is known.
type Promotion struct {
	store     *Store
	TmpHash   string
	Extension string
	FileHash  string
	BlurHash  string
	FileSize  int64
	committed string // permanent path after Commit
}

// Promote inspects the file staged for tmpHash. Nothing is moved yet.
// Returns ErrNotStaged if the staged file is missing.
func (s *Store) Promote(tmpHash, ext string) (*Promotion, error) {
	if !id.ValidFormToken(tmpHash) {
		return nil, ErrInvalidToken
	}

	staged := s.StagedPath(tmpHash, ext)
	hash, size, err := Hash(staged)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotStaged
		}
		return nil, err
	}

	blur, err := ComputeBlurHash(staged)
	if err != nil {
		// Placeholders are cosmetic; the icon is still usable.
		s.logger.Warn("failed to compute blurhash", "tmp_hash", tmpHash, "error", err)
	}

	return &Promotion{
		store:     s,
		TmpHash:   tmpHash,
		Extension: ext,
		FileHash:  hash,
		BlurHash:  blur,
		FileSize:  size,
	}, nil
}

// Apply copies the file facts onto an icon record.
func (p *Promotion) Apply(icon *domain.Icon) {
	icon.FileHash = p.FileHash
	icon.FileExtension = p.Extension
	icon.FileSize = p.FileSize
	icon.BlurHash = p.BlurHash
}

// Commit renames the staged file to its permanent name for iconID.
func (p *Promotion) Commit(iconID int64) error {
	icon := &domain.Icon{ID: iconID, FileHash: p.FileHash, FileExtension: p.Extension}
	target := p.store.PermanentPath(icon)

	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	if err := os.Rename(p.store.StagedPath(p.TmpHash, p.Extension), target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotStaged
		}
		return fmt.Errorf("move icon into place: %w", err)
	}
	p.committed = target
	return nil
}

// Rollback moves a committed file back to the staging area. No-op before Commit.
func (p *Promotion) Rollback() error {
	if p.committed == "" {
		return nil
	}

	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	if err := os.Rename(p.committed, p.store.StagedPath(p.TmpHash, p.Extension)); err != nil {
		return fmt.Errorf("move icon back to staging: %w", err)
	}
	p.committed = ""
	return nil
}

// Resume finishes an interrupted promotion for an icon whose record exists.
// The staged file is moved into place if it is still there.
// Returns false if neither the staged nor the permanent file exists.
func (s *Store) Resume(tmpHash string, icon *domain.Icon) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.PermanentPath(icon)
	if fileExists(target) {
		return true, nil
	}
	staged := s.StagedPath(tmpHash, icon.FileExtension)
	if !fileExists(staged) {
		return false, nil
	}
	if err := os.Rename(staged, target); err != nil {
		return false, fmt.Errorf("move icon into place: %w", err)
	}
	return true, nil
}

// Revert undoes an interrupted promotion whose record was never written:
// the permanent file, if any, is moved back to staging.
// Returns false if neither the staged nor the permanent file exists.
func (s *Store) Revert(tmpHash string, icon *domain.Icon) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.StagedPath(tmpHash, icon.FileExtension)
	if fileExists(staged) {
		return true, nil
	}
	if icon.FileHash == "" {
		return false, nil
	}
	target := s.PermanentPath(icon)
	if !fileExists(target) {
		return false, nil
	}
	if err := os.Rename(target, staged); err != nil {
		return false, fmt.Errorf("move icon back to staging: %w", err)
	}
	return true, nil
}

// Replacement is a new permanent file written for an existing icon.
// The caller persists Icon, then calls Finish; on failure it calls Abort.
type Replacement struct {
	store   *Store
	Icon    *domain.Icon // copy of the record with the new file facts
	oldPath string
	newPath string
}

// Replace writes src as the new file of icon. The old file is untouched until Finish.
// Replaces of one icon must not overlap; IconService holds a per-icon lock.
func (s *Store) Replace(icon *domain.Icon, src io.Reader, ext string) (*Replacement, error) {
	ext, ok := domain.NormalizeExtension(ext)
	if !ok {
		return nil, ErrInvalidExtension
	}

	scratch, err := s.writeScratch(s.dir, src)
	if err != nil {
		return nil, err
	}

	hash, size, err := Hash(scratch)
	if err != nil {
		_ = os.Remove(scratch)
		return nil, err
	}
	blur, err := ComputeBlurHash(scratch)
	if err != nil {
		s.logger.Warn("failed to compute blurhash", "icon_id", icon.ID, "error", err)
	}

	updated := *icon
	updated.FileHash = hash
	updated.FileExtension = ext
	updated.FileSize = size
	updated.BlurHash = blur

	s.mu.Lock()
	defer s.mu.Unlock()

	newPath := s.PermanentPath(&updated)
	if err := os.Rename(scratch, newPath); err != nil {
		_ = os.Remove(scratch)
		return nil, fmt.Errorf("move icon into place: %w", err)
	}

	return &Replacement{
		store:   s,
		Icon:    &updated,
		oldPath: s.PermanentPath(icon),
		newPath: newPath,
	}, nil
}

// Finish deletes every other permanent file of the icon, so a replace that
// raced an earlier one cannot leave its file behind. Failures are logged.
func (r *Replacement) Finish() {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, path := range r.store.permanentFiles(r.Icon.ID) {
		if path != r.newPath {
			r.store.remove(path, "icon_id", r.Icon.ID)
		}
	}
}

// Abort deletes the new file and keeps the old one.
func (r *Replacement) Abort() {
	if r.oldPath == r.newPath {
		return
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.remove(r.newPath, "icon_id", r.Icon.ID)
}
