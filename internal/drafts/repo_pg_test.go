package drafts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var draftCols = []string{
	"id", "session_id", "user_id", "version", "stage", "content", "progress",
	"interview_count", "total_interviews", "overall_rating",
	"reviewed_by", "approved_by", "rejection_reason", "created_at", "updated_at",
}

var historyCols = []string{
	"id", "action", "from_stage", "to_stage", "version", "triggered_by",
	"reason", "from_meta", "to_meta", "diff", "created_at",
}

func draftRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(draftCols).AddRow(
		"draft-1", "session-1", "user-1", 2, "in_progress",
		[]byte(`{"personal":{},"professional":{"skills":["carpentry"],"achievements":[],"ratings":{}},"recommendations":{"strengths":[],"improvements":[],"overallRating":4.4},"interviews":[{"interviewId":"iv-1","type":"technical"}]}`),
		[]byte(`{"overall":67,"personal":100,"professional":50,"recommendations":60,"byType":{}}`),
		2, 3, 4.4, "", "", "", now, now,
	)
}

func TestPGRepoGetByIDLoadsHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM drafts WHERE id").
		WithArgs("draft-1").
		WillReturnRows(draftRow(now))
	mock.ExpectQuery("SELECT (.+) FROM draft_history").
		WithArgs("draft-1").
		WillReturnRows(sqlmock.NewRows(historyCols).
			AddRow("rec-1", ActionCreated, nil, "first_draft", 1, TriggeredBySystem, "", nil, []byte(`{"stage":"first_draft"}`), nil, now).
			AddRow("rec-2", ActionVersionUpdated, "first_draft", "in_progress", 2, TriggeredBySystem, "", []byte(`{"stage":"first_draft"}`), []byte(`{"stage":"in_progress"}`), []byte(`{"newInterviewIds":["iv-2"],"ratingDelta":0.1}`), now))

	repo := &PGRepo{DB: db}
	draft, err := repo.GetByID(context.Background(), "draft-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if draft.Version != 2 || draft.Stage != StageInProgress {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	if len(draft.Content.Interviews) != 1 || draft.Content.Interviews[0].InterviewID != "iv-1" {
		t.Fatalf("content not decoded: %+v", draft.Content)
	}
	if len(draft.History) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(draft.History))
	}
	if draft.History[0].FromStage != nil {
		t.Fatalf("creation record has no from stage")
	}
	second := draft.History[1]
	if second.FromStage == nil || *second.FromStage != StageFirstDraft {
		t.Fatalf("from stage not decoded: %+v", second)
	}
	if second.Diff == nil || second.Diff.NewInterviewIDs[0] != "iv-2" {
		t.Fatalf("diff not decoded: %+v", second.Diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT (.+) FROM drafts WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(draftCols))

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoUpdateVersionConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE drafts SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM drafts WHERE id").
		WithArgs("draft-1").
		WillReturnRows(draftRow(now))
	mock.ExpectRollback()

	repo := &PGRepo{DB: db}
	draft := Draft{ID: "draft-1", SessionID: "session-1", Version: 3, Stage: StageInProgress, UpdatedAt: now}
	if err := repo.Update(context.Background(), draft, 2); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateAppendsNewHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	first := StageFirstDraft
	draft := Draft{
		ID:        "draft-1",
		SessionID: "session-1",
		Version:   2,
		Stage:     StageInProgress,
		History: []TransitionRecord{
			newRecord(ActionCreated, nil, StageFirstDraft, 1, TriggeredBySystem, "", now),
			newRecord(ActionVersionUpdated, &first, StageInProgress, 2, TriggeredBySystem, "", now),
		},
		UpdatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE drafts SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM draft_history").
		WithArgs("draft-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	// Only the second record is new relative to the stored count.
	mock.ExpectExec("INSERT INTO draft_history").
		WithArgs(draft.History[1].ID, "draft-1", 1, ActionVersionUpdated, "first_draft", "in_progress", 2,
			TriggeredBySystem, "", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	if err := repo.Update(context.Background(), draft, 1); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO drafts").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := &PGRepo{DB: db}
	draft := Draft{ID: "draft-1", SessionID: "session-1", Version: 1, Stage: StageFirstDraft}
	if err := repo.Create(context.Background(), draft); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
