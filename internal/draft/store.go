package draft

import "context"

// Store is the durable per-case slot for draft state. Load returns nil with a
// nil error when no state exists for the case. Persist always replaces the
// whole slot.
type Store interface {
	Load(ctx context.Context, caseID CaseID) (*PersistedDraftState, error)
	Persist(ctx context.Context, caseID CaseID, state PersistedDraftState) error
}

// IDProvider issues unique identifiers for snapshots, comments, change
// entries, and generated client identifiers.
type IDProvider interface {
	NewID() (string, error)
}
