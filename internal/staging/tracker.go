package staging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Tracker drives slots through their states.
// Transitions are serialized, so a token can never be promoted twice.
type Tracker struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewTracker creates a Tracker over store.
func NewTracker(store Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{store: store, logger: logger, now: time.Now}
}

// Stage records an upload for tmpHash. Re-uploading replaces the earlier file
// and refreshes the slot; a slot that is being promoted cannot be restaged.
func (t *Tracker) Stage(ctx context.Context, tmpHash, ext string) (*Slot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	slot, err := t.store.Get(ctx, tmpHash)
	switch {
	case errors.Is(err, ErrNotFound):
		slot = &Slot{TmpHash: tmpHash, StagedAt: now}
	case err != nil:
		return nil, err
	case slot.State != StateStaged:
		return nil, fmt.Errorf("%w: slot %s is %s", ErrTransition, tmpHash, slot.State)
	}

	slot.Extension = ext
	slot.State = StateStaged
	slot.UpdatedAt = now
	if err := t.store.Put(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// Claim moves a staged slot to promoting before its file is inspected, so a
// re-upload for the same token is refused until the promotion ends. The icon
// id is recorded later by BeginPromotion.
func (t *Tracker) Claim(ctx context.Context, tmpHash string) (*Slot, error) {
	var claimed Slot
	err := t.transition(ctx, tmpHash, StateStaged, func(s *Slot) {
		s.State = StatePromoting
		s.IconID = 0
		s.FileHash = ""
		claimed = *s
	})
	if err != nil {
		return nil, err
	}
	return &claimed, nil
}

// BeginPromotion records the icon a claimed slot becomes.
func (t *Tracker) BeginPromotion(ctx context.Context, tmpHash string, iconID int64, fileHash string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, err := t.store.Get(ctx, tmpHash)
	if err != nil {
		return err
	}
	if slot.State != StatePromoting || slot.IconID != 0 {
		return fmt.Errorf("%w: slot %s is %s and not claimed", ErrTransition, tmpHash, slot.State)
	}

	slot.IconID = iconID
	slot.FileHash = fileHash
	slot.UpdatedAt = t.now()
	return t.store.Put(ctx, slot)
}

// AbortPromotion moves a promoting slot back to staged, releasing a claim.
func (t *Tracker) AbortPromotion(ctx context.Context, tmpHash string) error {
	return t.transition(ctx, tmpHash, StatePromoting, func(s *Slot) {
		s.State = StateStaged
		s.IconID = 0
		s.FileHash = ""
	})
}

// Consume marks a promoting slot promoted and removes it.
// Called only after the file has reached its permanent name.
func (t *Tracker) Consume(ctx context.Context, tmpHash string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, err := t.store.Get(ctx, tmpHash)
	if err != nil {
		return err
	}
	if slot.State != StatePromoting {
		return fmt.Errorf("%w: slot %s is %s", ErrTransition, tmpHash, slot.State)
	}
	return t.store.Delete(ctx, tmpHash)
}

// Promoting returns slots left in the promoting state, typically by a crash.
func (t *Tracker) Promoting(ctx context.Context) ([]*Slot, error) {
	all, err := t.store.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Slot
	for _, s := range all {
		if s.State == StatePromoting {
			out = append(out, s)
		}
	}
	return out, nil
}

// Sweep abandons staged slots not touched for olderThan. discard is called for
// each abandoned slot to remove its file; the slot is dropped only if discard succeeds
// and retried on the next sweep otherwise.
// Returns the number of slots abandoned.
func (t *Tracker) Sweep(ctx context.Context, olderThan time.Duration, discard func(*Slot) error) (int, error) {
	all, err := t.store.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := t.now().Add(-olderThan)
	swept := 0
	for _, candidate := range all {
		if !abandonable(candidate, cutoff) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return swept, err
		}

		ok, err := t.abandon(ctx, candidate.TmpHash, cutoff, discard)
		if err != nil {
			t.logger.Warn("failed to abandon staged upload", "tmp_hash", candidate.TmpHash, "error", err)
			continue
		}
		if ok {
			swept++
		}
	}
	return swept, nil
}

// abandon re-reads the slot under the lock so a concurrent re-upload or promotion wins.
func (t *Tracker) abandon(ctx context.Context, tmpHash string, cutoff time.Time, discard func(*Slot) error) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, err := t.store.Get(ctx, tmpHash)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !abandonable(slot, cutoff) {
		return false, nil
	}

	if slot.State == StateStaged {
		slot.State = StateAbandoned
		slot.UpdatedAt = t.now()
		if err := t.store.Put(ctx, slot); err != nil {
			return false, err
		}
	}
	if discard != nil {
		if err := discard(slot); err != nil {
			return false, err
		}
	}
	if err := t.store.Delete(ctx, tmpHash); err != nil {
		return false, err
	}

	t.logger.Info("abandoned staged upload", "tmp_hash", tmpHash, "staged_at", slot.StagedAt)
	return true, nil
}

// abandonable reports whether slot is stale, or was abandoned by an earlier sweep whose cleanup failed.
func abandonable(slot *Slot, cutoff time.Time) bool {
	switch slot.State {
	case StateAbandoned:
		return true
	case StateStaged:
		return !slot.UpdatedAt.After(cutoff)
	}
	return false
}

func (t *Tracker) transition(ctx context.Context, tmpHash string, from State, apply func(*Slot)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, err := t.store.Get(ctx, tmpHash)
	if err != nil {
		return err
	}
	if slot.State != from {
		return fmt.Errorf("%w: slot %s is %s, want %s", ErrTransition, tmpHash, slot.State, from)
	}

	apply(slot)
	slot.UpdatedAt = t.now()
	return t.store.Put(ctx, slot)
}
