// Package checkpoint persists conversation.State between webhook turns,
// keyed by thread ID, so a reply to the same contact/conversation resumes
// where the last turn left off instead of starting cold.
package checkpoint

import (
	"context"
	"errors"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
)

// ErrNotFound names a missing checkpoint. Neither Store in this package
// returns it: Load reports a missing checkpoint as (nil, false, nil).
var ErrNotFound = errors.New("checkpoint: not found")

// Store loads and saves conversation state by thread ID. Save must be safe
// to call repeatedly for the same thread ID from at most one goroutine at a
// time; callers serialize per-thread access upstream (see pkg/graph).
type Store interface {
	// Load returns the checkpointed state for threadID, or (nil, false, nil)
	// if none exists yet.
	Load(ctx context.Context, threadID string) (*conversation.State, bool, error)
	// Save persists state, overwriting any prior checkpoint for the same
	// thread ID.
	Save(ctx context.Context, state *conversation.State) error
}
