package sessions

import (
	"context"
	"sync"
)

// MemoryRepo stores sessions in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu          sync.RWMutex
	sessions    map[string]Session
	bySessionIv map[string][]string // session id -> interview ids, insertion order
	interviews  map[string]Interview
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		sessions:    make(map[string]Session),
		bySessionIv: make(map[string][]string),
		interviews:  make(map[string]Interview),
	}
}

// Create stores the session and its interviews.
func (r *MemoryRepo) Create(ctx context.Context, session Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := session
	stored.Interviews = nil
	r.sessions[session.ID] = stored
	for _, iv := range session.Interviews {
		r.interviews[iv.ID] = iv
		r.bySessionIv[session.ID] = append(r.bySessionIv[session.ID], iv.ID)
	}
	return nil
}

// GetByID returns a session with its interviews in insertion order.
func (r *MemoryRepo) GetByID(ctx context.Context, sessionID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	for _, id := range r.bySessionIv[sessionID] {
		session.Interviews = append(session.Interviews, r.interviews[id])
	}
	return session, nil
}

// GetInterview returns a single interview by ID.
func (r *MemoryRepo) GetInterview(ctx context.Context, interviewID string) (Interview, error) {
	if err := ctx.Err(); err != nil {
		return Interview{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	iv, ok := r.interviews[interviewID]
	if !ok {
		return Interview{}, ErrInterviewNotFound
	}
	return iv, nil
}

// UpdateInterview replaces a stored interview.
func (r *MemoryRepo) UpdateInterview(ctx context.Context, interview Interview) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.interviews[interview.ID]; !ok {
		return ErrInterviewNotFound
	}
	r.interviews[interview.ID] = interview
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
