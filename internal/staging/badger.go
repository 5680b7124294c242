package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

const slotPrefix = "slot:"

// BadgerStore keeps slots in an embedded badger database.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenBadger opens (or creates) a slot database at path.
func OpenBadger(path string, logger *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil      // Disable Badger's internal logging
	opts.SyncWrites = true // A slot must survive a crash between rename and commit
	return openBadger(opts, logger)
}

// OpenInMemoryBadger opens a slot database that lives only in memory.
func OpenInMemoryBadger(logger *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openBadger(opts, logger)
}

func openBadger(opts badger.Options, logger *slog.Logger) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open staging db: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerStore{db: db, logger: logger}, nil
}

// Get returns the slot for tmpHash or ErrNotFound.
func (s *BadgerStore) Get(ctx context.Context, tmpHash string) (*Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var slot Slot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(slotPrefix + tmpHash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &slot)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return &slot, nil
}

// Put creates or overwrites a slot.
func (s *BadgerStore) Put(ctx context.Context, slot *Slot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(slot)
	if err != nil {
		return fmt.Errorf("failed to marshal slot: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(slotPrefix+slot.TmpHash), data)
	})
}

// Delete removes a slot. Deleting a missing slot is not an error.
func (s *BadgerStore) Delete(ctx context.Context, tmpHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(slotPrefix + tmpHash))
	})
}

// List returns every slot.
func (s *BadgerStore) List(ctx context.Context) ([]*Slot, error) {
	var slots []*Slot
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(slotPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var slot Slot
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &slot)
			}); err != nil {
				s.logger.Warn("skipping unreadable staging slot", "key", string(it.Item().Key()), "error", err)
				continue
			}
			slots = append(slots, &slot)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
