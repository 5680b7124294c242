package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/boardicon/boardicon-server/internal/assets"
	"github.com/boardicon/boardicon-server/internal/domain"
	domainerrors "github.com/boardicon/boardicon-server/internal/errors"
	"github.com/boardicon/boardicon-server/internal/glyphs"
	"github.com/boardicon/boardicon-server/internal/id"
	"github.com/boardicon/boardicon-server/internal/registry"
	"github.com/boardicon/boardicon-server/internal/sse"
	"github.com/boardicon/boardicon-server/internal/staging"
	"github.com/boardicon/boardicon-server/internal/upload"
)

// IconService manages uploaded icons from staging to deletion.
type IconService struct {
	store    IconStore
	assets   *assets.Store
	tracker  *staging.Tracker
	registry *registry.Registry
	styles   Regenerator
	events   Emitter
	uploads  *upload.Validator
	logger   *slog.Logger

	// iconLocks serializes read-modify-write of one icon (int64 -> *sync.Mutex).
	iconLocks sync.Map
}

// NewIconService creates a new icon service.
func NewIconService(
	store IconStore,
	assetStore *assets.Store,
	tracker *staging.Tracker,
	reg *registry.Registry,
	styles Regenerator,
	events Emitter,
	uploadCfg upload.Config,
	logger *slog.Logger,
) *IconService {
	if events == nil {
		events = NoopEmitter
	}
	s := &IconService{
		store:    store,
		assets:   assetStore,
		tracker:  tracker,
		registry: reg,
		styles:   styles,
		events:   events,
		logger:   logger,
	}
	s.uploads = upload.NewValidator(uploadCfg, s, logger)
	return s
}

// NewFormToken returns a fresh tmpHash for an add-icon form session.
// The client reuses it for every upload retry of that form.
func (s *IconService) NewFormToken() (string, error) {
	token, err := id.NewFormToken()
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate form token")
	}
	return token, nil
}

// UploadIcon validates an upload and stores it (staging or replacement).
func (s *IconService) UploadIcon(ctx context.Context, req upload.Request) upload.Result {
	return s.uploads.Validate(ctx, req)
}

// UpdateIcon replaces the image of an existing icon.
func (s *IconService) UpdateIcon(ctx context.Context, iconID int64, files []upload.File) upload.Result {
	return s.uploads.Validate(ctx, upload.Request{Mode: upload.ModeReplace, IconID: iconID, Files: files})
}

// Stage stores an accepted new-icon upload under its form token.
// It implements upload.Sink.
func (s *IconService) Stage(ctx context.Context, tmpHash string, content io.Reader, ext string) (string, error) {
	if !id.ValidFormToken(tmpHash) {
		return "", assets.ErrInvalidToken
	}

	// The slot is claimed first so a form that is being submitted cannot
	// have its file swapped underneath it.
	if _, err := s.tracker.Stage(ctx, tmpHash, ext); err != nil {
		return "", err
	}
	ext, err := s.assets.Stage(tmpHash, content, ext)
	if err != nil {
		return "", err
	}

	s.logger.Debug("upload staged", "tmp_hash", tmpHash, "extension", ext)
	return s.assets.StagedURL(tmpHash, ext), nil
}

// Replace swaps the file of an existing icon. The new file is written before
// the old one is removed. It implements upload.Sink.
func (s *IconService) Replace(ctx context.Context, iconID int64, content io.Reader, ext string) (string, error) {
	unlock := s.lockIcon(iconID)
	defer unlock()

	icon, err := s.store.GetIcon(ctx, iconID)
	if err != nil {
		return "", storeError(err, "icon not found")
	}

	rep, err := s.assets.Replace(icon, content, ext)
	if err != nil {
		return "", err
	}
	if err := s.store.UpdateIcon(ctx, rep.Icon); err != nil {
		rep.Abort()
		return "", storeError(err, "icon not found")
	}
	rep.Finish()

	s.registry.Invalidate()
	if err := regenerate(ctx, s.styles); err != nil {
		return "", err
	}

	url := s.assets.URL(rep.Icon)
	s.events.Emit(sse.NewIconUpdatedEvent(rep.Icon, url))
	s.logger.Info("icon file replaced", "icon_id", iconID, "file", rep.Icon.FileName())
	return url, nil
}

// CreateIcon saves the file staged under tmpHash as a new icon.
func (s *IconService) CreateIcon(ctx context.Context, title, tmpHash string) (*domain.Icon, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	// Claiming first keeps a retry upload from replacing the staged file
	// between hashing it and moving it into place.
	slot, err := s.tracker.Claim(ctx, tmpHash)
	if err != nil {
		switch {
		case errors.Is(err, staging.ErrNotFound):
			return nil, domainerrors.InvalidField("icon", "no uploaded file for this form")
		case errors.Is(err, staging.ErrTransition):
			return nil, domainerrors.Conflict("this upload is already being saved")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to claim staging slot")
	}

	icon, err := s.promote(ctx, title, slot)
	if err != nil {
		if abErr := s.tracker.AbortPromotion(ctx, tmpHash); abErr != nil {
			s.logger.Error("failed to reset staging slot", "tmp_hash", tmpHash, "error", abErr)
		}
		return nil, err
	}

	// The record and file are in place. A slot left behind here is finished
	// by RecoverPromotions at the next start.
	if err := s.tracker.Consume(ctx, tmpHash); err != nil {
		s.logger.Warn("failed to consume staging slot", "tmp_hash", tmpHash, "icon_id", icon.ID, "error", err)
	}

	s.registry.Invalidate()
	if err := regenerate(ctx, s.styles); err != nil {
		return nil, err
	}

	s.events.Emit(sse.NewIconCreatedEvent(icon, s.assets.URL(icon)))
	s.logger.Info("icon created", "icon_id", icon.ID, "title", icon.Title, "file", icon.FileName())
	return icon, nil
}

// promote moves the claimed upload into place and writes its record.
// On error the staged file is back under its token.
func (s *IconService) promote(ctx context.Context, title string, slot *staging.Slot) (*domain.Icon, error) {
	promo, err := s.assets.Promote(slot.TmpHash, slot.Extension)
	switch {
	case errors.Is(err, assets.ErrNotStaged), errors.Is(err, assets.ErrInvalidToken):
		return nil, domainerrors.InvalidField("icon", "no uploaded file for this form")
	case err != nil:
		return nil, domainerrors.UploadFailed(err)
	}

	icon := &domain.Icon{Title: title}
	promo.Apply(icon)

	err = s.store.CreateIcon(ctx, icon, func(created *domain.Icon) error {
		if err := s.tracker.BeginPromotion(ctx, slot.TmpHash, created.ID, promo.FileHash); err != nil {
			return err
		}
		if err := promo.Commit(created.ID); err != nil {
			return domainerrors.UploadFailed(err)
		}
		return nil
	})
	if err != nil {
		if rbErr := promo.Rollback(); rbErr != nil {
			s.logger.Error("failed to roll back promotion", "tmp_hash", slot.TmpHash, "error", rbErr)
		}
		return nil, storeError(err, "icon not found")
	}
	return icon, nil
}

// UpdateIconTitle renames an icon.
func (s *IconService) UpdateIconTitle(ctx context.Context, iconID int64, title string) (*domain.Icon, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	unlock := s.lockIcon(iconID)
	defer unlock()

	icon, err := s.store.GetIcon(ctx, iconID)
	if err != nil {
		return nil, storeError(err, "icon not found")
	}
	icon.Title = title
	if err := s.store.UpdateIcon(ctx, icon); err != nil {
		return nil, storeError(err, "icon not found")
	}

	s.registry.Invalidate()
	if err := regenerate(ctx, s.styles); err != nil {
		return nil, err
	}

	s.events.Emit(sse.NewIconUpdatedEvent(icon, s.assets.URL(icon)))
	return icon, nil
}

// DeleteIcon removes an icon and its file. Assignments that still reference
// it stop rendering; they are not rewritten.
func (s *IconService) DeleteIcon(ctx context.Context, iconID int64) error {
	unlock := s.lockIcon(iconID)
	defer unlock()

	icon, err := s.store.GetIcon(ctx, iconID)
	if err != nil {
		return storeError(err, "icon not found")
	}
	if err := s.store.DeleteIcon(ctx, iconID); err != nil {
		return storeError(err, "icon not found")
	}
	s.assets.Delete(icon)

	s.registry.Invalidate()
	if err := regenerate(ctx, s.styles); err != nil {
		return err
	}

	s.events.Emit(sse.NewIconDeletedEvent(iconID))
	s.logger.Info("icon deleted", "icon_id", iconID)
	return nil
}

// GetIcon returns one uploaded icon.
func (s *IconService) GetIcon(ctx context.Context, iconID int64) (*domain.Icon, error) {
	icon, ok, err := s.registry.Lookup(ctx, iconID)
	if err != nil {
		return nil, storeError(err, "icon not found")
	}
	if !ok {
		return nil, domainerrors.NotFoundf("icon %d not found", iconID)
	}
	return icon, nil
}

// ListIcons returns uploaded icons sorted by title.
func (s *IconService) ListIcons(ctx context.Context) ([]*domain.Icon, error) {
	icons, err := s.registry.Sorted(ctx)
	if err != nil {
		return nil, storeError(err, "icons not found")
	}
	return icons, nil
}

// URL returns the public address of an icon's file.
func (s *IconService) URL(icon *domain.Icon) string {
	return s.assets.URL(icon)
}

// Choice is one entry of the icon selection dialog.
type Choice struct {
	Glyph    string `json:"glyph"`
	Title    string `json:"title"`
	Link     string `json:"link,omitempty"`
	BlurHash string `json:"blur_hash,omitempty"`
	Uploaded bool   `json:"uploaded"`
}

// Choices lists everything a node or default slot can be set to:
// uploaded icons by title first, then the library glyphs.
func (s *IconService) Choices(ctx context.Context) ([]Choice, error) {
	snap, err := s.registry.Snapshot(ctx)
	if err != nil {
		return nil, storeError(err, "icons not found")
	}

	names := glyphs.Names()
	choices := make([]Choice, 0, snap.Len()+len(names))
	for _, icon := range snap.Sorted() {
		link, _ := snap.Link(icon.ID)
		choices = append(choices, Choice{
			Glyph:    icon.Reference(),
			Title:    icon.Title,
			Link:     link,
			BlurHash: icon.BlurHash,
			Uploaded: true,
		})
	}
	for _, name := range names {
		choices = append(choices, Choice{Glyph: name, Title: name})
	}
	return choices, nil
}

// SweepStaged abandons uploads whose form was never submitted within olderThan
// and removes their files.
func (s *IconService) SweepStaged(ctx context.Context, olderThan time.Duration) (int, error) {
	n, err := s.tracker.Sweep(ctx, olderThan, func(slot *staging.Slot) error {
		return s.assets.DiscardStaged(slot.TmpHash, slot.Extension)
	})
	if err != nil {
		return n, fmt.Errorf("sweep staging: %w", err)
	}
	if n > 0 {
		s.logger.Info("abandoned staged uploads removed", "count", n, "older_than", olderThan)
	}
	return n, nil
}

// lockIcon locks the mutex of iconID and returns its unlock.
func (s *IconService) lockIcon(iconID int64) func() {
	v, _ := s.iconLocks.LoadOrStore(iconID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func normalizeTitle(title string) (string, error) {
	title, ok := domain.NormalizeTitle(title)
	if title == "" {
		return "", domainerrors.InvalidField("title", "is required")
	}
	if !ok {
		return "", domainerrors.InvalidField("title", fmt.Sprintf("must not exceed %d characters", domain.MaxIconTitleLength))
	}
	return title, nil
}
