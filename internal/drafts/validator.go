package drafts

import (
	"fmt"
	"strings"

	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/config"
)

// AdminUser identifies an administrative actor requesting a transition.
type AdminUser struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// TransitionContext carries the data conditions a transition is judged
// against. The automatic path fills the metrics from the aggregate;
// the admin path additionally supplies the actor and justification.
type TransitionContext struct {
	IsAdminAction   bool
	AdminUser       *AdminUser
	Reason          string
	RejectionReason string
	InterviewCount  int
	TotalInterviews int
	OverallRating   float64
}

func (tc TransitionContext) completionRatio() float64 {
	if tc.TotalInterviews <= 0 {
		return 0
	}
	return float64(tc.InterviewCount) / float64(tc.TotalInterviews)
}

func (tc TransitionContext) rejectionJustification() string {
	if r := strings.TrimSpace(tc.RejectionReason); r != "" {
		return r
	}
	return strings.TrimSpace(tc.Reason)
}

// ValidationResult is the outcome of a transition check. Failures are
// values, not errors; callers branch on Valid.
type ValidationResult struct {
	Valid         bool   `json:"valid"`
	Reason        string `json:"reason,omitempty"`
	RequiresAdmin bool   `json:"requiresAdmin"`
}

// TransitionCandidate describes one possible transition out of a stage.
type TransitionCandidate struct {
	Target        Stage  `json:"target"`
	Valid         bool   `json:"valid"`
	Reason        string `json:"reason,omitempty"`
	RequiresAdmin bool   `json:"requiresAdmin"`
	Automatic     bool   `json:"automatic"`
}

// Validator checks stage transitions against the workflow graph and the
// business rules. It holds no mutable state.
type Validator struct {
	Rules config.DraftRules
}

// NewValidator constructs a Validator with the given rule thresholds.
func NewValidator(rules config.DraftRules) *Validator {
	return &Validator{Rules: rules}
}

// Validate checks current → target under the given context. A nil
// current stage means initial creation, which only the automatic
// stages may start.
func (v *Validator) Validate(current *Stage, target Stage, tc TransitionContext) ValidationResult {
	requiresAdmin := IsAdminOnly(target)

	if _, err := ParseStage(string(target)); err != nil {
		return ValidationResult{Reason: err.Error(), RequiresAdmin: requiresAdmin}
	}

	if current == nil {
		if !IsAutomatic(target) {
			return ValidationResult{
				Reason:        fmt.Sprintf("draft cannot be created in stage %q", target),
				RequiresAdmin: requiresAdmin,
			}
		}
	} else {
		if _, err := ParseStage(string(*current)); err != nil {
			return ValidationResult{Reason: err.Error(), RequiresAdmin: requiresAdmin}
		}
		if !edgeExists(*current, target) {
			return ValidationResult{
				Reason:        fmt.Sprintf("transition %s → %s is not allowed", *current, target),
				RequiresAdmin: requiresAdmin,
			}
		}
	}

	if requiresAdmin {
		if !tc.IsAdminAction {
			return ValidationResult{
				Reason:        fmt.Sprintf("stage %q requires an administrative action", target),
				RequiresAdmin: true,
			}
		}
		if tc.AdminUser == nil || strings.TrimSpace(tc.AdminUser.ID) == "" {
			return ValidationResult{
				Reason:        "administrative actor identity is required",
				RequiresAdmin: true,
			}
		}
	}

	if res := v.checkBusinessRules(target, tc); !res.Valid {
		res.RequiresAdmin = requiresAdmin
		return res
	}

	return ValidationResult{Valid: true, RequiresAdmin: requiresAdmin}
}

func (v *Validator) checkBusinessRules(target Stage, tc TransitionContext) ValidationResult {
	switch target {
	case StageApproved:
		if ratio := tc.completionRatio(); ratio < v.Rules.MinApprovalCompletion {
			return ValidationResult{
				Reason: fmt.Sprintf("approval requires at least %.0f%% interview completion, have %.0f%%",
					v.Rules.MinApprovalCompletion*100, ratio*100),
			}
		}
		if tc.OverallRating < v.Rules.MinApprovalRating {
			return ValidationResult{
				Reason: fmt.Sprintf("approval requires an overall rating of at least %.1f, have %.1f",
					v.Rules.MinApprovalRating, tc.OverallRating),
			}
		}
	case StagePendingReview:
		if tc.InterviewCount < tc.TotalInterviews || tc.TotalInterviews == 0 {
			remaining := tc.TotalInterviews - tc.InterviewCount
			return ValidationResult{
				Reason: fmt.Sprintf("review requires all interviews completed, %d remaining", remaining),
			}
		}
	case StageRejected:
		if len(tc.rejectionJustification()) < v.Rules.MinRejectionReasonLen {
			return ValidationResult{
				Reason: fmt.Sprintf("rejection requires a justification of at least %d characters",
					v.Rules.MinRejectionReasonLen),
			}
		}
	}
	return ValidationResult{Valid: true}
}

// AvailableTransitions enumerates the outgoing edges of a stage and
// fully validates each candidate under the given context.
func (v *Validator) AvailableTransitions(stage Stage, tc TransitionContext) []TransitionCandidate {
	targets := AllowedTargets(stage)
	out := make([]TransitionCandidate, 0, len(targets))
	current := stage
	for _, target := range targets {
		res := v.Validate(&current, target, tc)
		out = append(out, TransitionCandidate{
			Target:        target,
			Valid:         res.Valid,
			Reason:        res.Reason,
			RequiresAdmin: res.RequiresAdmin,
			Automatic:     IsAutomatic(target),
		})
	}
	return out
}

// Permission actions understood by CheckPermission.
const (
	ActionView    = "view"
	ActionEdit    = "edit"
	ActionDelete  = "delete"
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionArchive = "archive"
)

// CheckPermission is a read-only capability lookup: may the actor
// perform the action on a draft in the given stage. It is not a
// transition and mutates nothing.
func (v *Validator) CheckPermission(stage Stage, action string, actor AdminUser) bool {
	meta := MetadataFor(stage)
	isAdmin := actor.Role == "admin"

	switch action {
	case ActionView:
		return true
	case ActionEdit:
		if !meta.AllowEdit {
			return false
		}
		if meta.AdminOnly && !isAdmin {
			return false
		}
		return true
	case ActionDelete:
		if !meta.AllowDelete {
			return false
		}
		if meta.AdminOnly && !isAdmin {
			return false
		}
		return true
	case ActionApprove:
		return isAdmin && edgeExists(stage, StageApproved)
	case ActionReject:
		return isAdmin && edgeExists(stage, StageRejected)
	case ActionArchive:
		return isAdmin && edgeExists(stage, StageArchived)
	default:
		return false
	}
}
