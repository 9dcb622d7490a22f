package drafts

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedDraft(t *testing.T, repo *MemoryRepo) Draft {
	t.Helper()
	now := time.Now().UTC()
	draft := Draft{
		ID:              "draft-1",
		SessionID:       "session-1",
		UserID:          "user-1",
		Version:         1,
		Stage:           StageFirstDraft,
		InterviewCount:  1,
		TotalInterviews: 3,
		History: []TransitionRecord{
			newRecord(ActionCreated, nil, StageFirstDraft, 1, TriggeredBySystem, "", now),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(context.Background(), draft); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return draft
}

func TestMemoryRepoOneDraftPerSession(t *testing.T) {
	repo := NewMemoryRepo()
	seedDraft(t, repo)

	dup := Draft{ID: "draft-2", SessionID: "session-1", Version: 1, Stage: StageFirstDraft}
	if err := repo.Create(context.Background(), dup); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second draft for a session must fail, got %v", err)
	}
}

func TestMemoryRepoLookups(t *testing.T) {
	repo := NewMemoryRepo()
	draft := seedDraft(t, repo)

	got, err := repo.GetByID(context.Background(), draft.ID)
	if err != nil || got.SessionID != draft.SessionID {
		t.Fatalf("GetByID: %v %+v", err, got)
	}
	got, err = repo.GetBySession(context.Background(), draft.SessionID)
	if err != nil || got.ID != draft.ID {
		t.Fatalf("GetBySession: %v %+v", err, got)
	}
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	listed, err := repo.ListByStage(context.Background(), StageFirstDraft)
	if err != nil || len(listed) != 1 {
		t.Fatalf("ListByStage: %v %d", err, len(listed))
	}
	listed, err = repo.ListByStage(context.Background(), StageApproved)
	if err != nil || len(listed) != 0 {
		t.Fatalf("ListByStage(approved): %v %d", err, len(listed))
	}
}

func TestMemoryRepoUpdateCompareAndSwap(t *testing.T) {
	repo := NewMemoryRepo()
	draft := seedDraft(t, repo)

	updated := draft
	updated.Version = 2
	updated.Stage = StageInProgress
	if err := repo.Update(context.Background(), updated, 1); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// A writer still holding version 1 loses.
	stale := draft
	stale.Version = 2
	if err := repo.Update(context.Background(), stale, 1); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	got, err := repo.GetByID(context.Background(), draft.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Version != 2 || got.Stage != StageInProgress {
		t.Fatalf("winning update not visible: %+v", got)
	}

	if err := repo.Update(context.Background(), updated, 5); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("mismatched expectation must conflict, got %v", err)
	}
	missing := draft
	missing.ID = "missing"
	if err := repo.Update(context.Background(), missing, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoReturnsCopies(t *testing.T) {
	repo := NewMemoryRepo()
	draft := seedDraft(t, repo)

	got, err := repo.GetByID(context.Background(), draft.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	got.History = append(got.History, newRecord(ActionManualTransition, &got.Stage, StageUnderReview, 1, "admin-1", "", time.Now()))
	got.Content.Professional.Skills = append(got.Content.Professional.Skills, "carving")

	again, err := repo.GetByID(context.Background(), draft.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(again.History) != 1 {
		t.Fatalf("caller mutation leaked into the repo: %d history entries", len(again.History))
	}
	if len(again.Content.Professional.Skills) != 0 {
		t.Fatalf("caller mutation leaked into content: %v", again.Content.Professional.Skills)
	}
}
