package drafts

import (
	"time"

	"github.com/google/uuid"
)

// HistoryFilter narrows a draft's audit trail. Zero values mean "no
// constraint" for that field.
type HistoryFilter struct {
	Action      string
	TriggeredBy string
	Stage       *Stage
	Since       time.Time
	Until       time.Time
	Limit       int
}

func (f HistoryFilter) matches(rec TransitionRecord) bool {
	if f.Action != "" && rec.Action != f.Action {
		return false
	}
	if f.TriggeredBy != "" && rec.TriggeredBy != f.TriggeredBy {
		return false
	}
	if f.Stage != nil && rec.ToStage != *f.Stage {
		return false
	}
	if !f.Since.IsZero() && rec.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && rec.Timestamp.After(f.Until) {
		return false
	}
	return true
}

// FilterHistory returns the records matching the filter, preserving the
// trail's chronological order. A positive Limit keeps only the most
// recent matches.
func FilterHistory(records []TransitionRecord, f HistoryFilter) []TransitionRecord {
	out := make([]TransitionRecord, 0, len(records))
	for _, rec := range records {
		if f.matches(rec) {
			out = append(out, rec)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

// newRecord builds one audit trail entry. FromStage is nil on creation.
func newRecord(action string, from *Stage, to Stage, version int, triggeredBy, reason string, at time.Time) TransitionRecord {
	rec := TransitionRecord{
		ID:          uuid.NewString(),
		Action:      action,
		ToStage:     to,
		Version:     version,
		Timestamp:   at.UTC(),
		TriggeredBy: triggeredBy,
		Reason:      reason,
		ToMeta:      MetadataFor(to),
	}
	if from != nil {
		f := *from
		rec.FromStage = &f
		meta := MetadataFor(f)
		rec.FromMeta = &meta
	}
	return rec
}
