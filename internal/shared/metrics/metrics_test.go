package metrics

import (
	"strings"
	"testing"
)

func TestRenderExposesCounters(t *testing.T) {
	IncDraftCreated()
	IncDraftVersioned()
	IncDraftNoChange()
	IncTransitionApplied()
	IncTransitionDenied()
	IncStageRetained()
	ObserveCompletionDurationMs(12.5)

	out := Render()
	for _, name := range []string{
		"draft_created_total",
		"draft_versions_total",
		"draft_no_change_total",
		"draft_transitions_applied_total",
		"draft_transitions_denied_total",
		"draft_stage_retained_total",
		"draft_completion_duration_ms",
	} {
		if !strings.Contains(out, name) {
			t.Errorf("render output missing %s", name)
		}
	}
	if !strings.Contains(out, "# TYPE draft_completion_duration_ms histogram") {
		t.Errorf("histogram type line missing:\n%s", out)
	}
	if !strings.Contains(out, `le="+Inf"`) {
		t.Errorf("histogram must expose the +Inf bucket")
	}
}
