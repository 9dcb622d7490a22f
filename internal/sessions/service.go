package sessions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/extract"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/storage/object"
)

// Service contains business logic for session intake and transcripts.
type Service struct {
	Repo  Repo
	Store object.ObjectStore
}

// NewInterview describes an interview to schedule at session creation.
type NewInterview struct {
	Type        string
	Interviewer string
}

// Create registers a new session with its planned interviews.
func (s *Service) Create(ctx context.Context, userID, clientName string, interviews []NewInterview) (Session, error) {
	if userID == "" {
		return Session{}, errors.New("userID is required")
	}
	if len(interviews) == 0 {
		return Session{}, errors.New("at least one interview is required")
	}

	now := time.Now().UTC()
	session := Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		ClientName: strings.TrimSpace(clientName),
		CreatedAt:  now,
	}
	for _, in := range interviews {
		ivType, err := normalizeType(in.Type)
		if err != nil {
			return Session{}, err
		}
		session.Interviews = append(session.Interviews, Interview{
			ID:          uuid.NewString(),
			SessionID:   session.ID,
			Type:        ivType,
			Status:      StatusPending,
			Interviewer: strings.TrimSpace(in.Interviewer),
			CreatedAt:   now,
		})
	}

	if err := s.Repo.Create(ctx, session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// Get returns a session by ID.
func (s *Service) Get(ctx context.Context, sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, errors.New("sessionID is required")
	}
	return s.Repo.GetByID(ctx, sessionID)
}

// Transcript returns the extracted transcript text for an interview.
func (s *Service) Transcript(ctx context.Context, interviewID string) (string, error) {
	iv, err := s.Repo.GetInterview(ctx, interviewID)
	if err != nil {
		return "", err
	}
	if iv.TranscriptKey == "" {
		return "", errors.New("interview has no transcript")
	}
	return extract.TranscriptText(ctx, s.Store, iv.TranscriptKey, "", iv.TranscriptKey)
}

func normalizeType(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case TypeTechnical:
		return TypeTechnical, nil
	case TypeBehavioral:
		return TypeBehavioral, nil
	case TypeFriend:
		return TypeFriend, nil
	default:
		return "", errors.New("unknown interview type: " + raw)
	}
}
