package sessions

import "context"

// Repo defines persistence operations for sessions and their interviews.
type Repo interface {
	Create(ctx context.Context, session Session) error
	GetByID(ctx context.Context, sessionID string) (Session, error)
	GetInterview(ctx context.Context, interviewID string) (Interview, error)
	UpdateInterview(ctx context.Context, interview Interview) error
}
