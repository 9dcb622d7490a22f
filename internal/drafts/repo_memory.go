package drafts

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores drafts in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu        sync.RWMutex
	byID      map[string]Draft
	bySession map[string]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:      make(map[string]Draft),
		bySession: make(map[string]string),
	}
}

var _ Repo = (*MemoryRepo)(nil)

// Create stores a new draft. A session holds at most one draft lineage.
func (r *MemoryRepo) Create(ctx context.Context, draft Draft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySession[draft.SessionID]; ok {
		return ErrAlreadyExists
	}
	r.byID[draft.ID] = cloneDraft(draft)
	r.bySession[draft.SessionID] = draft.ID
	return nil
}

// GetByID returns a draft by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, draftID string) (Draft, error) {
	if err := ctx.Err(); err != nil {
		return Draft{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	draft, ok := r.byID[draftID]
	if !ok {
		return Draft{}, ErrNotFound
	}
	return cloneDraft(draft), nil
}

// GetBySession returns the draft belonging to a session.
func (r *MemoryRepo) GetBySession(ctx context.Context, sessionID string) (Draft, error) {
	if err := ctx.Err(); err != nil {
		return Draft{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.bySession[sessionID]
	if !ok {
		return Draft{}, ErrNotFound
	}
	return cloneDraft(r.byID[id]), nil
}

// ListByStage returns all drafts currently in the given stage, newest
// update first.
func (r *MemoryRepo) ListByStage(ctx context.Context, stage Stage) ([]Draft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Draft, 0)
	for _, draft := range r.byID {
		if draft.Stage == stage {
			out = append(out, cloneDraft(draft))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// Update persists the draft if the stored version still matches
// expectedVersion.
func (r *MemoryRepo) Update(ctx context.Context, draft Draft, expectedVersion int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[draft.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}
	r.byID[draft.ID] = cloneDraft(draft)
	return nil
}

// cloneDraft copies the draft deeply enough that callers cannot mutate
// repo state through returned slices and maps.
func cloneDraft(d Draft) Draft {
	out := d
	out.Content.Interviews = append([]InterviewSummary(nil), d.Content.Interviews...)
	out.Content.Professional.Skills = append([]string(nil), d.Content.Professional.Skills...)
	out.Content.Professional.Achievements = append([]string(nil), d.Content.Professional.Achievements...)
	out.Content.Recommendations.Strengths = append([]string(nil), d.Content.Recommendations.Strengths...)
	out.Content.Recommendations.Improvements = append([]string(nil), d.Content.Recommendations.Improvements...)
	out.History = append([]TransitionRecord(nil), d.History...)
	if d.Content.Professional.Ratings != nil {
		ratings := make(map[string]float64, len(d.Content.Professional.Ratings))
		for k, v := range d.Content.Professional.Ratings {
			ratings[k] = v
		}
		out.Content.Professional.Ratings = ratings
	}
	if d.Progress.ByType != nil {
		byType := make(map[string]TypeProgress, len(d.Progress.ByType))
		for k, v := range d.Progress.ByType {
			byType[k] = v
		}
		out.Progress.ByType = byType
	}
	return out
}
