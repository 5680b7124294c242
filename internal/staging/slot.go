// Package staging tracks uploads that were stored before their icon record exists.
//
// A slot moves through the states
//
//	staged -> promoting -> promoted
//	staged -> abandoned
//
// and is removed from the store once it reaches a terminal state.
package staging

import (
	"context"
	"errors"
	"time"
)

// State of a pending upload.
type State string

// Slot states.
const (
	StateStaged    State = "staged"    // file stored under its token, no record yet
	StatePromoting State = "promoting" // claimed by a submit: record being written, file being moved
	StatePromoted  State = "promoted"  // terminal: the file belongs to an icon
	StateAbandoned State = "abandoned" // terminal: never submitted, file removed
)

var (
	// ErrNotFound is returned when no slot exists for a token.
	ErrNotFound = errors.New("staging slot not found")
	// ErrTransition is returned when a slot is not in the state an operation requires.
	ErrTransition = errors.New("invalid staging transition")
)

// Slot is the pending upload of one add-icon form session.
type Slot struct {
	StagedAt  time.Time `json:"staged_at"`
	UpdatedAt time.Time `json:"updated_at"`
	TmpHash   string    `json:"tmp_hash"`
	Extension string    `json:"extension"`
	State     State     `json:"state"`
	FileHash  string    `json:"file_hash,omitempty"` // set by BeginPromotion
	IconID    int64     `json:"icon_id,omitempty"`   // set by BeginPromotion; 0 while only claimed
}

// Store persists slots. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, tmpHash string) (*Slot, error)
	Put(ctx context.Context, slot *Slot) error
	Delete(ctx context.Context, tmpHash string) error
	List(ctx context.Context) ([]*Slot, error)
	Close() error
}
