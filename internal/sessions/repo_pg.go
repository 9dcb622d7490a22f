package sessions

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

// Create inserts a session and its interviews.
func (r *PGRepo) Create(ctx context.Context, session Session) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const sessionQuery = `
INSERT INTO sessions (id, user_id, client_name, created_at)
VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, sessionQuery,
		session.ID,
		session.UserID,
		session.ClientName,
		session.CreatedAt,
	); err != nil {
		return err
	}

	const interviewQuery = `
INSERT INTO interviews (
    id, session_id, type, status, interviewer, transcript_key,
    completed_at, rating, summary, strengths, improvements, skills, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	for _, iv := range session.Interviews {
		strengths, improvements, skills, err := marshalLists(iv.Content)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, interviewQuery,
			iv.ID,
			session.ID,
			iv.Type,
			iv.Status,
			iv.Interviewer,
			iv.TranscriptKey,
			iv.CompletedAt,
			iv.Content.Rating,
			iv.Content.Summary,
			strengths,
			improvements,
			skills,
			iv.CreatedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID returns a session with its interviews ordered by creation time.
func (r *PGRepo) GetByID(ctx context.Context, sessionID string) (Session, error) {
	const query = `
SELECT id, user_id, client_name, created_at
FROM sessions
WHERE id = $1
LIMIT 1`
	var session Session
	err := r.DB.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.ClientName,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}

	const interviewQuery = `
SELECT id, session_id, type, status, interviewer, transcript_key,
       completed_at, rating, summary, strengths, improvements, skills, created_at
FROM interviews
WHERE session_id = $1
ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, interviewQuery, sessionID)
	if err != nil {
		return Session{}, err
	}
	defer rows.Close()

	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return Session{}, err
		}
		session.Interviews = append(session.Interviews, iv)
	}
	return session, rows.Err()
}

// GetInterview returns a single interview by ID.
func (r *PGRepo) GetInterview(ctx context.Context, interviewID string) (Interview, error) {
	const query = `
SELECT id, session_id, type, status, interviewer, transcript_key,
       completed_at, rating, summary, strengths, improvements, skills, created_at
FROM interviews
WHERE id = $1
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, interviewID)
	iv, err := scanInterview(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Interview{}, ErrInterviewNotFound
		}
		return Interview{}, err
	}
	return iv, nil
}

// UpdateInterview replaces the mutable fields of a stored interview.
func (r *PGRepo) UpdateInterview(ctx context.Context, interview Interview) error {
	strengths, improvements, skills, err := marshalLists(interview.Content)
	if err != nil {
		return err
	}
	const query = `
UPDATE interviews
SET status = $2, interviewer = $3, transcript_key = $4, completed_at = $5,
    rating = $6, summary = $7, strengths = $8, improvements = $9, skills = $10
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		interview.ID,
		interview.Status,
		interview.Interviewer,
		interview.TranscriptKey,
		interview.CompletedAt,
		interview.Content.Rating,
		interview.Content.Summary,
		strengths,
		improvements,
		skills,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInterviewNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterview(row rowScanner) (Interview, error) {
	var (
		iv           Interview
		strengths    []byte
		improvements []byte
		skills       []byte
	)
	if err := row.Scan(
		&iv.ID,
		&iv.SessionID,
		&iv.Type,
		&iv.Status,
		&iv.Interviewer,
		&iv.TranscriptKey,
		&iv.CompletedAt,
		&iv.Content.Rating,
		&iv.Content.Summary,
		&strengths,
		&improvements,
		&skills,
		&iv.CreatedAt,
	); err != nil {
		return Interview{}, err
	}
	if err := unmarshalList(strengths, &iv.Content.Strengths); err != nil {
		return Interview{}, err
	}
	if err := unmarshalList(improvements, &iv.Content.Improvements); err != nil {
		return Interview{}, err
	}
	if err := unmarshalList(skills, &iv.Content.Skills); err != nil {
		return Interview{}, err
	}
	return iv, nil
}

func marshalLists(content InterviewContent) ([]byte, []byte, []byte, error) {
	strengths, err := marshalList(content.Strengths)
	if err != nil {
		return nil, nil, nil, err
	}
	improvements, err := marshalList(content.Improvements)
	if err != nil {
		return nil, nil, nil, err
	}
	skills, err := marshalList(content.Skills)
	if err != nil {
		return nil, nil, nil, err
	}
	return strengths, improvements, skills, nil
}

func marshalList(list []string) ([]byte, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("marshal list: %w", err)
	}
	return data, nil
}

func unmarshalList(data []byte, out *[]string) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal list: %w", err)
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
