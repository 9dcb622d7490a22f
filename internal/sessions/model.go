package sessions

import "time"

// Interview statuses as delivered by the recording pipeline.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Interview types contributing to a life-story draft.
const (
	TypeTechnical  = "technical"
	TypeBehavioral = "behavioral"
	TypeFriend     = "friend"
)

// InterviewContent is the structured result the AI pipeline produced for
// a completed interview.
type InterviewContent struct {
	Rating       *float64 `json:"rating,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	Strengths    []string `json:"strengths,omitempty"`
	Improvements []string `json:"improvements,omitempty"`
	Skills       []string `json:"skills,omitempty"`
}

// Interview is a single recorded conversation belonging to a session.
type Interview struct {
	ID            string           `json:"id"`
	SessionID     string           `json:"sessionId"`
	Type          string           `json:"type"`
	Status        string           `json:"status"`
	Interviewer   string           `json:"interviewer,omitempty"`
	TranscriptKey string           `json:"transcriptKey,omitempty"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
	Content       InterviewContent `json:"content"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// Session is a client engagement owning a set of interviews and,
// eventually, one draft lineage.
type Session struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId"`
	ClientName string      `json:"clientName,omitempty"`
	Interviews []Interview `json:"interviews"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// CompletedInterviews returns the session's completed interviews in
// their original order.
func (s Session) CompletedInterviews() []Interview {
	out := make([]Interview, 0, len(s.Interviews))
	for _, iv := range s.Interviews {
		if iv.Status == StatusCompleted {
			out = append(out, iv)
		}
	}
	return out
}
