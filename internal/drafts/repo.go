package drafts

import "context"

// Repo defines persistence operations for drafts and their audit trail.
//
// Update is a compare-and-swap: it persists the draft only if the stored
// row still carries expectedVersion, and returns ErrVersionConflict
// otherwise. New history records appended to the draft are persisted in
// the same operation.
type Repo interface {
	Create(ctx context.Context, draft Draft) error
	GetByID(ctx context.Context, draftID string) (Draft, error)
	GetBySession(ctx context.Context, sessionID string) (Draft, error)
	ListByStage(ctx context.Context, stage Stage) ([]Draft, error)
	Update(ctx context.Context, draft Draft, expectedVersion int) error
}
