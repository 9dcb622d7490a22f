package drafts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/queue"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/sessions"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/metrics"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/storage/object"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/telemetry"
)

// Engine orchestrates the draft lifecycle: it reacts to interview
// completions by creating or re-versioning drafts and applies manual
// stage transitions, extending the audit trail on every change.
//
// Calls touching a session's draft are serialized through a per-session
// mutex; the repository's compare-and-swap update is the backstop for
// writers outside this process.
type Engine struct {
	Repo      Repo
	Sessions  sessions.Repo
	Validator *Validator
	Queue     queue.Client
	Store     object.ObjectStore
	Now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine constructs an Engine. Queue may be nil when no downstream
// consumers are configured; Store may be nil when completion events
// never carry transcripts.
func NewEngine(repo Repo, sessionRepo sessions.Repo, validator *Validator, q queue.Client) *Engine {
	return &Engine{
		Repo:      repo,
		Sessions:  sessionRepo,
		Validator: validator,
		Queue:     q,
		Now:       func() time.Time { return time.Now().UTC() },
		locks:     make(map[string]*sync.Mutex),
	}
}

// Completion result actions.
const (
	ResultCreated  = "created"
	ResultUpdated  = "updated"
	ResultNoChange = "no_change"
)

// CompletionEvent is the payload of an interview-completion delivery.
// Transcript, when present, is the raw transcript text the pipeline
// produced for the interview.
type CompletionEvent struct {
	SessionID   string
	InterviewID string
	CompletedAt *time.Time
	RequestID   string
	Transcript  string
	Content     sessions.InterviewContent
}

// CompletionResult reports what HandleCompletion decided.
type CompletionResult struct {
	Action string `json:"action"`
	Draft  Draft  `json:"draft"`
}

// TransitionRequest is a manual stage-transition order from an admin.
type TransitionRequest struct {
	Target          Stage
	Admin           AdminUser
	Reason          string
	RejectionReason string
	RequestID       string
}

// TransitionResult reports whether a manual transition was applied and,
// when it was not, why the validator refused it.
type TransitionResult struct {
	Applied    bool             `json:"applied"`
	Validation ValidationResult `json:"validation"`
	Draft      Draft            `json:"draft"`
}

// HandleCompletion ingests one interview-completion event for a session.
// It records the interview's content, re-aggregates the draft body and
// decides between creating a first draft, producing a new version, or
// doing nothing. Re-delivery of an interview already reflected in the
// draft is a no-op.
func (e *Engine) HandleCompletion(ctx context.Context, ev CompletionEvent) (CompletionResult, error) {
	if ev.SessionID == "" || ev.InterviewID == "" {
		return CompletionResult{}, errors.New("sessionID and interviewID are required")
	}
	started := e.Now()
	defer func() {
		metrics.ObserveCompletionDurationMs(float64(e.Now().Sub(started)) / float64(time.Millisecond))
	}()

	unlock := e.lockSession(ev.SessionID)
	defer unlock()

	session, err := e.Sessions.GetByID(ctx, ev.SessionID)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("load session: %w", err)
	}

	existing, err := e.Repo.GetBySession(ctx, ev.SessionID)
	haveDraft := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return CompletionResult{}, err
	}
	if haveDraft && existing.HasInterview(ev.InterviewID) {
		telemetry.Info("draft.completion.duplicate", map[string]any{
			"session_id":   ev.SessionID,
			"interview_id": ev.InterviewID,
			"draft_id":     existing.ID,
		})
		metrics.IncDraftNoChange()
		return CompletionResult{Action: ResultNoChange, Draft: existing}, nil
	}

	iv, ok := findInterview(session, ev.InterviewID)
	if !ok {
		return CompletionResult{}, fmt.Errorf("interview %s: %w", ev.InterviewID, sessions.ErrInterviewNotFound)
	}
	iv.Status = sessions.StatusCompleted
	iv.Content = ev.Content
	if ev.CompletedAt != nil {
		iv.CompletedAt = ev.CompletedAt
	} else if iv.CompletedAt == nil {
		now := e.Now()
		iv.CompletedAt = &now
	}
	if ev.Transcript != "" && e.Store != nil && iv.TranscriptKey == "" {
		key, _, _, err := e.Store.Save(ctx, ev.SessionID, ev.InterviewID+".txt", strings.NewReader(ev.Transcript))
		if err != nil {
			return CompletionResult{}, fmt.Errorf("store transcript: %w", err)
		}
		iv.TranscriptKey = key
	}
	if err := e.Sessions.UpdateInterview(ctx, iv); err != nil {
		return CompletionResult{}, fmt.Errorf("record interview completion: %w", err)
	}
	replaceInterview(&session, iv)

	agg := Aggregate(session.Interviews)

	if !haveDraft {
		draft, err := e.createDraft(ctx, session, agg, ev.RequestID)
		if err != nil {
			return CompletionResult{}, err
		}
		return CompletionResult{Action: ResultCreated, Draft: draft}, nil
	}

	countGrew := agg.CompletedCount > existing.InterviewCount
	ratingDelta := agg.OverallRating - existing.OverallRating
	significant := abs(ratingDelta) > e.Validator.Rules.SignificantRatingDelta
	if !countGrew && !significant {
		metrics.IncDraftNoChange()
		return CompletionResult{Action: ResultNoChange, Draft: existing}, nil
	}

	draft, err := e.versionDraft(ctx, existing, agg, ratingDelta, ev.RequestID)
	if err != nil {
		return CompletionResult{}, err
	}
	return CompletionResult{Action: ResultUpdated, Draft: draft}, nil
}

func (e *Engine) createDraft(ctx context.Context, session sessions.Session, agg Aggregation, requestID string) (Draft, error) {
	stage := stageFor(agg)
	tc := TransitionContext{
		InterviewCount:  agg.CompletedCount,
		TotalInterviews: agg.TotalInterviews,
		OverallRating:   agg.OverallRating,
	}
	if res := e.Validator.Validate(nil, stage, tc); !res.Valid {
		return Draft{}, fmt.Errorf("initial stage %s rejected: %s", stage, res.Reason)
	}

	now := e.Now()
	draft := Draft{
		ID:              uuid.NewString(),
		SessionID:       session.ID,
		UserID:          session.UserID,
		Version:         1,
		Stage:           stage,
		Content:         agg.Content,
		Progress:        agg.Progress,
		InterviewCount:  agg.CompletedCount,
		TotalInterviews: agg.TotalInterviews,
		OverallRating:   agg.OverallRating,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	draft.History = []TransitionRecord{
		newRecord(ActionCreated, nil, stage, 1, TriggeredBySystem, "first interview completed", now),
	}

	if err := e.Repo.Create(ctx, draft); err != nil {
		return Draft{}, err
	}
	metrics.IncDraftCreated()
	telemetry.Info("draft.created", map[string]any{
		"draft_id":   draft.ID,
		"session_id": draft.SessionID,
		"stage":      string(draft.Stage),
		"version":    draft.Version,
	})
	e.publish(ctx, draft, "created", requestID)
	return draft, nil
}

func (e *Engine) versionDraft(ctx context.Context, existing Draft, agg Aggregation, ratingDelta float64, requestID string) (Draft, error) {
	candidate := stageFor(agg)
	current := existing.Stage
	tc := TransitionContext{
		InterviewCount:  agg.CompletedCount,
		TotalInterviews: agg.TotalInterviews,
		OverallRating:   agg.OverallRating,
	}

	target := current
	if candidate != current {
		if res := e.Validator.Validate(&current, candidate, tc); res.Valid {
			target = candidate
		} else {
			// Keep the content update flowing even when the computed
			// stage is unreachable from here.
			metrics.IncStageRetained()
			telemetry.Warn("draft.stage_retained", map[string]any{
				"draft_id":         existing.ID,
				"session_id":       existing.SessionID,
				"stage_transition": fmt.Sprintf("%s->%s", current, candidate),
				"reason":           res.Reason,
			})
		}
	}

	now := e.Now()
	draft := existing
	draft.Version = existing.Version + 1
	draft.Stage = target
	draft.Content = agg.Content
	draft.Progress = agg.Progress
	draft.InterviewCount = agg.CompletedCount
	draft.TotalInterviews = agg.TotalInterviews
	draft.OverallRating = agg.OverallRating
	draft.UpdatedAt = now

	action := ActionContentUpdated
	if target != current {
		action = ActionVersionUpdated
	}
	rec := newRecord(action, &current, target, draft.Version, TriggeredBySystem, "", now)
	rec.Diff = diffVersions(existing, draft, ratingDelta)
	draft.History = append(draft.History, rec)

	if err := e.Repo.Update(ctx, draft, existing.Version); err != nil {
		return Draft{}, err
	}
	metrics.IncDraftVersioned()
	telemetry.Info("draft.versioned", map[string]any{
		"draft_id":         draft.ID,
		"session_id":       draft.SessionID,
		"version":          draft.Version,
		"stage_transition": fmt.Sprintf("%s->%s", current, target),
		"action":           action,
	})
	e.publish(ctx, draft, action, requestID)
	return draft, nil
}

// TransitionStage applies an administrative stage transition. A refusal
// by the validator is reported in the result, not as an error.
func (e *Engine) TransitionStage(ctx context.Context, draftID string, req TransitionRequest) (TransitionResult, error) {
	probe, err := e.Repo.GetByID(ctx, draftID)
	if err != nil {
		return TransitionResult{}, err
	}

	unlock := e.lockSession(probe.SessionID)
	defer unlock()

	draft, err := e.Repo.GetByID(ctx, draftID)
	if err != nil {
		return TransitionResult{}, err
	}

	current := draft.Stage
	tc := TransitionContext{
		IsAdminAction:   true,
		AdminUser:       &req.Admin,
		Reason:          req.Reason,
		RejectionReason: req.RejectionReason,
		InterviewCount:  draft.InterviewCount,
		TotalInterviews: draft.TotalInterviews,
		OverallRating:   draft.OverallRating,
	}
	res := e.Validator.Validate(&current, req.Target, tc)
	if !res.Valid {
		metrics.IncTransitionDenied()
		telemetry.Info("draft.transition.denied", map[string]any{
			"draft_id":         draft.ID,
			"admin_id":         req.Admin.ID,
			"stage_transition": fmt.Sprintf("%s->%s", current, req.Target),
			"reason":           res.Reason,
		})
		return TransitionResult{Validation: res, Draft: draft}, nil
	}

	now := e.Now()
	switch req.Target {
	case StageUnderReview:
		draft.ReviewedBy = req.Admin.ID
	case StageApproved:
		draft.ApprovedBy = req.Admin.ID
	case StageRejected:
		draft.RejectionReason = tc.rejectionJustification()
	}
	draft.Stage = req.Target
	draft.UpdatedAt = now

	reason := strings.TrimSpace(req.Reason)
	if req.Target == StageRejected && reason == "" {
		reason = tc.rejectionJustification()
	}
	draft.History = append(draft.History,
		newRecord(ActionManualTransition, &current, req.Target, draft.Version, req.Admin.ID, reason, now))

	if err := e.Repo.Update(ctx, draft, draft.Version); err != nil {
		return TransitionResult{}, err
	}
	metrics.IncTransitionApplied()
	telemetry.Info("draft.transition.applied", map[string]any{
		"draft_id":         draft.ID,
		"admin_id":         req.Admin.ID,
		"stage_transition": fmt.Sprintf("%s->%s", current, req.Target),
	})
	e.publish(ctx, draft, "stage_transition", req.RequestID)
	return TransitionResult{Applied: true, Validation: res, Draft: draft}, nil
}

// Get returns a draft by ID.
func (e *Engine) Get(ctx context.Context, draftID string) (Draft, error) {
	return e.Repo.GetByID(ctx, draftID)
}

// GetBySession returns the draft belonging to a session.
func (e *Engine) GetBySession(ctx context.Context, sessionID string) (Draft, error) {
	return e.Repo.GetBySession(ctx, sessionID)
}

// ListByStage returns all drafts currently in a stage.
func (e *Engine) ListByStage(ctx context.Context, stage Stage) ([]Draft, error) {
	return e.Repo.ListByStage(ctx, stage)
}

// History returns a draft's audit trail, optionally filtered.
func (e *Engine) History(ctx context.Context, draftID string, f HistoryFilter) ([]TransitionRecord, error) {
	draft, err := e.Repo.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	return FilterHistory(draft.History, f), nil
}

// AvailableTransitions lists the outgoing transitions of a draft's
// current stage, each validated for the given actor.
func (e *Engine) AvailableTransitions(ctx context.Context, draftID string, admin *AdminUser) ([]TransitionCandidate, error) {
	draft, err := e.Repo.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	tc := TransitionContext{
		IsAdminAction:   admin != nil,
		AdminUser:       admin,
		InterviewCount:  draft.InterviewCount,
		TotalInterviews: draft.TotalInterviews,
		OverallRating:   draft.OverallRating,
	}
	return e.Validator.AvailableTransitions(draft.Stage, tc), nil
}

// stageFor maps completion progress to the automatic stage.
func stageFor(agg Aggregation) Stage {
	switch {
	case agg.Progress.Overall < 50:
		return StageFirstDraft
	case agg.Progress.Overall < 100:
		return StageInProgress
	default:
		return StagePendingReview
	}
}

func diffVersions(prev, next Draft, ratingDelta float64) *VersionDiff {
	d := &VersionDiff{RatingDelta: roundTo1(ratingDelta)}
	for _, iv := range next.Content.Interviews {
		if !prev.HasInterview(iv.InterviewID) {
			d.NewInterviewIDs = append(d.NewInterviewIDs, iv.InterviewID)
		}
	}
	d.NewSkills = newEntries(prev.Content.Professional.Skills, next.Content.Professional.Skills)
	d.NewStrengths = newEntries(prev.Content.Recommendations.Strengths, next.Content.Recommendations.Strengths)
	return d
}

func newEntries(prev, next []string) []string {
	seen := make(map[string]struct{}, len(prev))
	for _, v := range prev {
		seen[strings.ToLower(v)] = struct{}{}
	}
	var out []string
	for _, v := range next {
		if _, ok := seen[strings.ToLower(v)]; !ok {
			out = append(out, v)
		}
	}
	return out
}

func (e *Engine) lockSession(sessionID string) func() {
	e.mu.Lock()
	lock, ok := e.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[sessionID] = lock
	}
	e.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

func (e *Engine) publish(ctx context.Context, draft Draft, action, requestID string) {
	if e.Queue == nil {
		return
	}
	msg := queue.Message{
		DraftID:    draft.ID,
		SessionID:  draft.SessionID,
		Action:     action,
		Stage:      string(draft.Stage),
		Version:    draft.Version,
		RequestID:  requestID,
		EnqueuedAt: e.Now().Format(time.RFC3339),
	}
	if err := e.Queue.Send(ctx, msg); err != nil {
		telemetry.Error("draft.event.publish_failed", map[string]any{
			"draft_id": draft.ID,
			"action":   action,
			"error":    err.Error(),
		})
	}
}

func findInterview(session sessions.Session, interviewID string) (sessions.Interview, bool) {
	for _, iv := range session.Interviews {
		if iv.ID == interviewID {
			return iv, true
		}
	}
	return sessions.Interview{}, false
}

func replaceInterview(session *sessions.Session, iv sessions.Interview) {
	for i := range session.Interviews {
		if session.Interviews[i].ID == iv.ID {
			session.Interviews[i] = iv
			return
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
