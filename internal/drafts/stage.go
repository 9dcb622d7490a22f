// Package drafts implements the life-story draft lifecycle: content
// aggregation from completed interviews, versioning, and the validated
// stage workflow with its audit trail.
//
// Stage graph:
//
//	first_draft ──► in_progress ──► pending_review ──► approved ──► archived
//	     ▲               ▲  │             │
//	     │               │  ▼             ▼
//	     └───────────────┴─ under_review ◄──► pending_approval
//	                          │    ▲
//	                          ▼    │
//	                        rejected
//
// archived is terminal; approved accepts only the archival exit.
package drafts

import "fmt"

// Stage is the lifecycle state of a draft.
type Stage string

const (
	StageFirstDraft      Stage = "first_draft"
	StageInProgress      Stage = "in_progress"
	StagePendingReview   Stage = "pending_review"
	StageUnderReview     Stage = "under_review"
	StagePendingApproval Stage = "pending_approval"
	StageApproved        Stage = "approved"
	StageRejected        Stage = "rejected"
	StageArchived        Stage = "archived"
)

// stageTransitions lists every allowed (from → to) pair.
var stageTransitions = map[Stage][]Stage{
	StageFirstDraft:      {StageInProgress, StageUnderReview},
	StageInProgress:      {StagePendingReview, StageUnderReview, StageFirstDraft},
	StagePendingReview:   {StageUnderReview, StageApproved, StageRejected},
	StageUnderReview:     {StagePendingApproval, StageRejected, StageInProgress},
	StagePendingApproval: {StageApproved, StageRejected, StageUnderReview},
	StageApproved:        {StageArchived},
	StageRejected:        {StageInProgress, StageUnderReview},
	// archived is terminal, no outgoing transitions
}

// adminOnlyStages require an administrative actor to enter.
var adminOnlyStages = map[Stage]bool{
	StageUnderReview:     true,
	StagePendingApproval: true,
	StageApproved:        true,
	StageRejected:        true,
	StageArchived:        true,
}

// automaticStages are the stages the versioning engine assigns on its
// own from interview completion; they are also the only legal targets
// of an initial creation.
var automaticStages = map[Stage]bool{
	StageFirstDraft:    true,
	StageInProgress:    true,
	StagePendingReview: true,
}

// ParseStage converts a raw string to a Stage, returning an error for
// unknown values.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	switch st {
	case StageFirstDraft, StageInProgress, StagePendingReview, StageUnderReview,
		StagePendingApproval, StageApproved, StageRejected, StageArchived:
		return st, nil
	}
	return "", fmt.Errorf("unknown draft stage %q", s)
}

// AllowedTargets returns the outgoing edge set for a stage.
func AllowedTargets(from Stage) []Stage {
	targets := stageTransitions[from]
	out := make([]Stage, len(targets))
	copy(out, targets)
	return out
}

// edgeExists reports whether from → to is an edge of the stage graph.
func edgeExists(from, to Stage) bool {
	for _, s := range stageTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsAdminOnly reports whether entering the stage requires an admin.
func IsAdminOnly(s Stage) bool {
	return adminOnlyStages[s]
}

// IsAutomatic reports whether the stage is assigned by the engine
// without human involvement.
func IsAutomatic(s Stage) bool {
	return automaticStages[s]
}

// StageMetadata describes a stage for presentation and permission checks.
type StageMetadata struct {
	Stage       Stage  `json:"stage"`
	Description string `json:"description"`
	AllowEdit   bool   `json:"allowEdit"`
	AllowDelete bool   `json:"allowDelete"`
	AdminOnly   bool   `json:"adminOnly"`
	Terminal    bool   `json:"terminal"`
	Automatic   bool   `json:"automatic"`
}

var stageMetadata = map[Stage]StageMetadata{
	StageFirstDraft: {
		Stage:       StageFirstDraft,
		Description: "Initial draft assembled from the first completed interviews",
		AllowEdit:   true,
		AllowDelete: true,
		Automatic:   true,
	},
	StageInProgress: {
		Stage:       StageInProgress,
		Description: "Draft accumulating content as interviews complete",
		AllowEdit:   true,
		AllowDelete: true,
		Automatic:   true,
	},
	StagePendingReview: {
		Stage:       StagePendingReview,
		Description: "All interviews complete; waiting for a reviewer",
		AllowEdit:   true,
		Automatic:   true,
	},
	StageUnderReview: {
		Stage:       StageUnderReview,
		Description: "Draft is being reviewed by an administrator",
		AdminOnly:   true,
	},
	StagePendingApproval: {
		Stage:       StagePendingApproval,
		Description: "Review finished; waiting for final approval",
		AdminOnly:   true,
	},
	StageApproved: {
		Stage:       StageApproved,
		Description: "Approved client-facing draft",
		AdminOnly:   true,
		Terminal:    true,
	},
	StageRejected: {
		Stage:       StageRejected,
		Description: "Draft rejected; requires rework",
		AllowEdit:   true,
		AdminOnly:   true,
	},
	StageArchived: {
		Stage:       StageArchived,
		Description: "End of life; kept for the record only",
		AdminOnly:   true,
		Terminal:    true,
	},
}

// MetadataFor returns descriptive metadata for a stage. Unrecognized
// stages get a generic placeholder instead of an error.
func MetadataFor(s Stage) StageMetadata {
	if meta, ok := stageMetadata[s]; ok {
		return meta
	}
	return StageMetadata{
		Stage:       s,
		Description: "Unknown stage",
	}
}
