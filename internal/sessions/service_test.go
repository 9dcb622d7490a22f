package sessions

import (
	"context"
	"testing"
)

func TestCreateSession(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}

	session, err := svc.Create(context.Background(), "admin-1", "  Ruth L.  ", []NewInterview{
		{Type: "Technical", Interviewer: "Dana"},
		{Type: "behavioral"},
		{Type: " FRIEND "},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if session.ID == "" || session.ClientName != "Ruth L." {
		t.Fatalf("unexpected session: %+v", session)
	}
	if len(session.Interviews) != 3 {
		t.Fatalf("expected 3 interviews, got %d", len(session.Interviews))
	}
	if session.Interviews[0].Type != TypeTechnical || session.Interviews[2].Type != TypeFriend {
		t.Fatalf("types not normalized: %+v", session.Interviews)
	}
	for _, iv := range session.Interviews {
		if iv.Status != StatusPending {
			t.Fatalf("new interviews start pending, got %s", iv.Status)
		}
		if iv.SessionID != session.ID {
			t.Fatalf("interview not bound to session: %+v", iv)
		}
	}

	stored, err := svc.Get(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored.Interviews) != 3 {
		t.Fatalf("interviews not persisted: %+v", stored)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}

	if _, err := svc.Create(context.Background(), "", "x", []NewInterview{{Type: "friend"}}); err == nil {
		t.Fatalf("missing user must fail")
	}
	if _, err := svc.Create(context.Background(), "admin-1", "x", nil); err == nil {
		t.Fatalf("empty interview list must fail")
	}
	if _, err := svc.Create(context.Background(), "admin-1", "x", []NewInterview{{Type: "panel"}}); err == nil {
		t.Fatalf("unknown interview type must fail")
	}
}

func TestCompletedInterviews(t *testing.T) {
	session := Session{
		Interviews: []Interview{
			{ID: "iv-1", Status: StatusCompleted},
			{ID: "iv-2", Status: StatusPending},
			{ID: "iv-3", Status: StatusCompleted},
		},
	}
	done := session.CompletedInterviews()
	if len(done) != 2 || done[0].ID != "iv-1" || done[1].ID != "iv-3" {
		t.Fatalf("unexpected completed set: %+v", done)
	}
}
