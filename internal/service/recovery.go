package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/boardicon/boardicon-server/internal/domain"
	"github.com/boardicon/boardicon-server/internal/store"
)

// RecoverPromotions finishes or undoes promotions interrupted by a crash.
// A slot whose icon record exists is completed. One whose record was never
// committed, or that was only claimed, goes back to staged so the form can be
// submitted again.
// Returns the number of slots handled.
func (s *IconService) RecoverPromotions(ctx context.Context) (int, error) {
	slots, err := s.tracker.Promoting(ctx)
	if err != nil {
		return 0, fmt.Errorf("list promoting slots: %w", err)
	}

	var handled, resumed int
	for _, slot := range slots {
		log := s.logger.With("tmp_hash", slot.TmpHash, "icon_id", slot.IconID)

		// A slot claimed but never given an id was stopped before its
		// record or file were touched.
		if slot.IconID == 0 {
			if err := s.tracker.AbortPromotion(ctx, slot.TmpHash); err != nil {
				log.Error("failed to release claimed slot", "error", err)
				continue
			}
			handled++
			log.Info("released claimed upload")
			continue
		}

		icon, err := s.store.GetIcon(ctx, slot.IconID)
		switch {
		case err == nil:
			ok, err := s.assets.Resume(slot.TmpHash, icon)
			if err != nil {
				log.Error("failed to resume promotion", "error", err)
				continue
			}
			if !ok {
				log.Warn("icon record has no file, neither staged nor permanent")
			}
			if err := s.tracker.Consume(ctx, slot.TmpHash); err != nil {
				log.Error("failed to consume recovered slot", "error", err)
				continue
			}
			resumed++

		case errors.Is(err, store.ErrNotFound):
			pending := &domain.Icon{ID: slot.IconID, FileHash: slot.FileHash, FileExtension: slot.Extension}
			ok, err := s.assets.Revert(slot.TmpHash, pending)
			if err != nil {
				log.Error("failed to revert promotion", "error", err)
				continue
			}
			if !ok {
				log.Warn("staged file of interrupted promotion is gone")
			}
			if err := s.tracker.AbortPromotion(ctx, slot.TmpHash); err != nil {
				log.Error("failed to reset recovered slot", "error", err)
				continue
			}

		default:
			return handled, fmt.Errorf("get icon %d: %w", slot.IconID, err)
		}

		handled++
		log.Info("recovered interrupted promotion")
	}

	if resumed > 0 {
		s.registry.Invalidate()
		if err := regenerate(ctx, s.styles); err != nil {
			return handled, err
		}
	}
	return handled, nil
}
