package drafts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

const draftColumns = `
id, session_id, user_id, version, stage, content, progress,
interview_count, total_interviews, overall_rating,
reviewed_by, approved_by, rejection_reason, created_at, updated_at`

// Create inserts a draft and its initial history records.
func (r *PGRepo) Create(ctx context.Context, draft Draft) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	content, progress, err := marshalBody(draft)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO drafts (` + draftColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (session_id) DO NOTHING`
	res, err := tx.ExecContext(ctx, query,
		draft.ID,
		draft.SessionID,
		draft.UserID,
		draft.Version,
		string(draft.Stage),
		content,
		progress,
		draft.InterviewCount,
		draft.TotalInterviews,
		draft.OverallRating,
		draft.ReviewedBy,
		draft.ApprovedBy,
		draft.RejectionReason,
		draft.CreatedAt,
		draft.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAlreadyExists
	}

	if err := insertHistory(ctx, tx, draft.ID, draft.History, 0); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID returns a draft with its full audit trail.
func (r *PGRepo) GetByID(ctx context.Context, draftID string) (Draft, error) {
	const query = `SELECT ` + draftColumns + ` FROM drafts WHERE id = $1`
	return r.getOne(ctx, query, draftID)
}

// GetBySession returns the draft belonging to a session.
func (r *PGRepo) GetBySession(ctx context.Context, sessionID string) (Draft, error) {
	const query = `SELECT ` + draftColumns + ` FROM drafts WHERE session_id = $1`
	return r.getOne(ctx, query, sessionID)
}

func (r *PGRepo) getOne(ctx context.Context, query, arg string) (Draft, error) {
	draft, err := scanDraft(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Draft{}, ErrNotFound
		}
		return Draft{}, err
	}
	history, err := r.loadHistory(ctx, draft.ID)
	if err != nil {
		return Draft{}, err
	}
	draft.History = history
	return draft, nil
}

// ListByStage returns all drafts currently in the given stage, newest
// update first. The audit trail is not loaded for listings.
func (r *PGRepo) ListByStage(ctx context.Context, stage Stage) ([]Draft, error) {
	const query = `SELECT ` + draftColumns + ` FROM drafts WHERE stage = $1 ORDER BY updated_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, string(stage))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Draft, 0)
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, draft)
	}
	return out, rows.Err()
}

// Update persists the draft if the stored version still matches
// expectedVersion, appending any new history records in the same
// transaction.
func (r *PGRepo) Update(ctx context.Context, draft Draft, expectedVersion int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	content, progress, err := marshalBody(draft)
	if err != nil {
		return err
	}

	const query = `
UPDATE drafts SET
    version = $1, stage = $2, content = $3, progress = $4,
    interview_count = $5, total_interviews = $6, overall_rating = $7,
    reviewed_by = $8, approved_by = $9, rejection_reason = $10, updated_at = $11
WHERE id = $12 AND version = $13`
	res, err := tx.ExecContext(ctx, query,
		draft.Version,
		string(draft.Stage),
		content,
		progress,
		draft.InterviewCount,
		draft.TotalInterviews,
		draft.OverallRating,
		draft.ReviewedBy,
		draft.ApprovedBy,
		draft.RejectionReason,
		draft.UpdatedAt,
		draft.ID,
		expectedVersion,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := scanDraft(tx.QueryRowContext(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = $1`, draft.ID)); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		return ErrVersionConflict
	}

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM draft_history WHERE draft_id = $1`, draft.ID).Scan(&existing); err != nil {
		return err
	}
	if err := insertHistory(ctx, tx, draft.ID, draft.History, existing); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepo) loadHistory(ctx context.Context, draftID string) ([]TransitionRecord, error) {
	const query = `
SELECT id, action, from_stage, to_stage, version, triggered_by, reason, from_meta, to_meta, diff, created_at
FROM draft_history WHERE draft_id = $1 ORDER BY seq`
	rows, err := r.DB.QueryContext(ctx, query, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TransitionRecord, 0)
	for rows.Next() {
		var (
			rec       TransitionRecord
			fromStage sql.NullString
			toStage   string
			fromMeta  []byte
			toMeta    []byte
			diff      []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Action, &fromStage, &toStage, &rec.Version,
			&rec.TriggeredBy, &rec.Reason, &fromMeta, &toMeta, &diff, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.ToStage = Stage(toStage)
		if fromStage.Valid {
			s := Stage(fromStage.String)
			rec.FromStage = &s
		}
		if len(fromMeta) > 0 {
			var meta StageMetadata
			if err := json.Unmarshal(fromMeta, &meta); err != nil {
				return nil, fmt.Errorf("decode history from_meta: %w", err)
			}
			rec.FromMeta = &meta
		}
		if len(toMeta) > 0 {
			if err := json.Unmarshal(toMeta, &rec.ToMeta); err != nil {
				return nil, fmt.Errorf("decode history to_meta: %w", err)
			}
		}
		if len(diff) > 0 {
			var d VersionDiff
			if err := json.Unmarshal(diff, &d); err != nil {
				return nil, fmt.Errorf("decode history diff: %w", err)
			}
			rec.Diff = &d
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// insertHistory appends the records at index >= from, numbering them
// sequentially after the rows already stored. The unique (draft_id, seq)
// constraint keeps the trail append-only under concurrent writers.
func insertHistory(ctx context.Context, tx *sql.Tx, draftID string, records []TransitionRecord, from int) error {
	const query = `
INSERT INTO draft_history (
    id, draft_id, seq, action, from_stage, to_stage, version,
    triggered_by, reason, from_meta, to_meta, diff, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	for i := from; i < len(records); i++ {
		rec := records[i]
		var fromStage any
		if rec.FromStage != nil {
			fromStage = string(*rec.FromStage)
		}
		var fromMeta []byte
		if rec.FromMeta != nil {
			b, err := json.Marshal(rec.FromMeta)
			if err != nil {
				return err
			}
			fromMeta = b
		}
		toMeta, err := json.Marshal(rec.ToMeta)
		if err != nil {
			return err
		}
		var diff []byte
		if rec.Diff != nil {
			b, err := json.Marshal(rec.Diff)
			if err != nil {
				return err
			}
			diff = b
		}
		if _, err := tx.ExecContext(ctx, query,
			rec.ID,
			draftID,
			i,
			rec.Action,
			fromStage,
			string(rec.ToStage),
			rec.Version,
			rec.TriggeredBy,
			rec.Reason,
			fromMeta,
			toMeta,
			diff,
			rec.Timestamp,
		); err != nil {
			return err
		}
	}
	return nil
}

func marshalBody(draft Draft) (content, progress []byte, err error) {
	content, err = json.Marshal(draft.Content)
	if err != nil {
		return nil, nil, fmt.Errorf("encode draft content: %w", err)
	}
	progress, err = json.Marshal(draft.Progress)
	if err != nil {
		return nil, nil, fmt.Errorf("encode draft progress: %w", err)
	}
	return content, progress, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraft(row rowScanner) (Draft, error) {
	var (
		draft    Draft
		stage    string
		content  []byte
		progress []byte
	)
	if err := row.Scan(
		&draft.ID,
		&draft.SessionID,
		&draft.UserID,
		&draft.Version,
		&stage,
		&content,
		&progress,
		&draft.InterviewCount,
		&draft.TotalInterviews,
		&draft.OverallRating,
		&draft.ReviewedBy,
		&draft.ApprovedBy,
		&draft.RejectionReason,
		&draft.CreatedAt,
		&draft.UpdatedAt,
	); err != nil {
		return Draft{}, err
	}
	draft.Stage = Stage(stage)
	if len(content) > 0 {
		if err := json.Unmarshal(content, &draft.Content); err != nil {
			return Draft{}, fmt.Errorf("decode draft content: %w", err)
		}
	}
	if len(progress) > 0 {
		if err := json.Unmarshal(progress, &draft.Progress); err != nil {
			return Draft{}, fmt.Errorf("decode draft progress: %w", err)
		}
	}
	return draft, nil
}
