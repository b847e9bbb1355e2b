// Package session keeps diagnosis sessions between pipeline stages.
package session

import (
	"context"
	"errors"

	"github.com/zhouzirui/z-tongue/backend/internal/model/diagnosis"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Mutator edits a session in place. Returning an error discards the edit.
type Mutator func(s *diagnosis.Session) error

// Store persists sessions keyed by id.
type Store interface {
	// Create assigns an id, sets status created and stores the seed.
	Create(ctx context.Context, seed diagnosis.Session) (diagnosis.Session, error)
	Get(ctx context.Context, id string) (diagnosis.Session, error)
	// Update applies fn to a copy of the session and commits it if fn succeeds.
	Update(ctx context.Context, id string, fn Mutator) (diagnosis.Session, error)
	Close() error
}
