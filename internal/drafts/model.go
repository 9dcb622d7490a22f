package drafts

import "time"

// InterviewSummary is the per-interview slice of a draft's content,
// kept in the order the interviews were conducted.
type InterviewSummary struct {
	InterviewID  string     `json:"interviewId"`
	Type         string     `json:"type"`
	Interviewer  string     `json:"interviewer,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	Rating       *float64   `json:"rating,omitempty"`
	Summary      string     `json:"summary,omitempty"`
	Strengths    []string   `json:"strengths,omitempty"`
	Improvements []string   `json:"improvements,omitempty"`
}

// PersonalContent is the narrative section of the draft.
type PersonalContent struct {
	Summary string `json:"summary,omitempty"`
}

// ProfessionalContent aggregates skills and achievements across the
// professional interview types.
type ProfessionalContent struct {
	Skills       []string           `json:"skills"`
	Achievements []string           `json:"achievements"`
	Ratings      map[string]float64 `json:"ratings"`
}

// RecommendationsContent carries the reviewer-facing synthesis.
type RecommendationsContent struct {
	Strengths     []string `json:"strengths"`
	Improvements  []string `json:"improvements"`
	Decision      string   `json:"decision,omitempty"`
	OverallRating float64  `json:"overallRating"`
}

// Content is the normalized draft body built by the aggregator.
type Content struct {
	Personal        PersonalContent        `json:"personal"`
	Professional    ProfessionalContent    `json:"professional"`
	Recommendations RecommendationsContent `json:"recommendations"`
	Interviews      []InterviewSummary     `json:"interviews"`
}

// TypeProgress counts completed vs total interviews of one type.
type TypeProgress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Progress reports draft completion overall and per section.
type Progress struct {
	Overall         int                     `json:"overall"`
	Personal        int                     `json:"personal"`
	Professional    int                     `json:"professional"`
	Recommendations int                     `json:"recommendations"`
	ByType          map[string]TypeProgress `json:"byType"`
}

// VersionDiff summarizes what changed between two draft versions.
type VersionDiff struct {
	NewInterviewIDs []string `json:"newInterviewIds,omitempty"`
	RatingDelta     float64  `json:"ratingDelta"`
	NewSkills       []string `json:"newSkills,omitempty"`
	NewStrengths    []string `json:"newStrengths,omitempty"`
}

// TransitionRecord is one immutable entry of a draft's audit trail.
type TransitionRecord struct {
	ID          string         `json:"id"`
	Action      string         `json:"action"`
	FromStage   *Stage         `json:"fromStage,omitempty"`
	ToStage     Stage          `json:"toStage"`
	Version     int            `json:"version"`
	Timestamp   time.Time      `json:"timestamp"`
	TriggeredBy string         `json:"triggeredBy"`
	Reason      string         `json:"reason,omitempty"`
	FromMeta    *StageMetadata `json:"fromMeta,omitempty"`
	ToMeta      StageMetadata  `json:"toMeta"`
	Diff        *VersionDiff   `json:"diff,omitempty"`
}

// History actions.
const (
	ActionCreated          = "created"
	ActionVersionUpdated   = "version_updated"
	ActionContentUpdated   = "content_updated"
	ActionManualTransition = "manual_stage_transition"
)

// TriggeredBySystem marks automatic transitions in the audit trail.
const TriggeredBySystem = "system"

// Draft is the evolving life-story document for one session.
type Draft struct {
	ID              string             `json:"id"`
	SessionID       string             `json:"sessionId"`
	UserID          string             `json:"userId"`
	Version         int                `json:"version"`
	Stage           Stage              `json:"stage"`
	Content         Content            `json:"content"`
	Progress        Progress           `json:"progress"`
	InterviewCount  int                `json:"interviewCount"`
	TotalInterviews int                `json:"totalInterviews"`
	OverallRating   float64            `json:"overallRating"`
	ReviewedBy      string             `json:"reviewedBy,omitempty"`
	ApprovedBy      string             `json:"approvedBy,omitempty"`
	RejectionReason string             `json:"rejectionReason,omitempty"`
	History         []TransitionRecord `json:"history"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// HasInterview reports whether the draft content already reflects the
// given interview. Used to keep webhook re-deliveries idempotent.
func (d Draft) HasInterview(interviewID string) bool {
	for _, iv := range d.Content.Interviews {
		if iv.InterviewID == interviewID {
			return true
		}
	}
	return false
}
