package drafts_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/bootstrap"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/drafts"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/sessions"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/auth"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/config"
)

func buildTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		ObjectStoreType: "local",
		Env:             "dev",
		Drafts:          config.DefaultDraftRules(),
	}
	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func seedSession(t *testing.T, app *bootstrap.App) sessions.Session {
	t.Helper()
	session, err := app.SessionsService.Create(context.Background(), "admin-1", "Ruth L.", []sessions.NewInterview{
		{Type: "technical"},
		{Type: "behavioral"},
		{Type: "friend"},
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return session
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := auth.SignJWT(auth.Claims{Sub: "admin-1", Email: "admin@example.com", Role: "admin"})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, app *bootstrap.App, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	return resp
}

func deliverCompletion(t *testing.T, app *bootstrap.App, sessionID, interviewID string, rating float64) drafts.CompletionResult {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/v1/webhooks/interviews/completed", "", map[string]any{
		"sessionId":   sessionID,
		"interviewId": interviewID,
		"rating":      rating,
		"summary":     "spoke about the Haifa years",
	})
	if resp.Code != http.StatusCreated && resp.Code != http.StatusOK {
		t.Fatalf("completion webhook: status %d body %s", resp.Code, resp.Body.String())
	}
	var result drafts.CompletionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode completion result: %v", err)
	}
	return result
}

func TestWebhookCreatesAndVersionsDraft(t *testing.T) {
	app := buildTestApp(t)
	session := seedSession(t, app)

	result := deliverCompletion(t, app, session.ID, session.Interviews[0].ID, 4.5)
	if result.Action != "created" || result.Draft.Version != 1 {
		t.Fatalf("unexpected first delivery: %+v", result)
	}
	if result.Draft.Stage != drafts.StageFirstDraft {
		t.Fatalf("expected first_draft, got %s", result.Draft.Stage)
	}

	result = deliverCompletion(t, app, session.ID, session.Interviews[1].ID, 4.2)
	if result.Action != "updated" || result.Draft.Version != 2 {
		t.Fatalf("unexpected second delivery: %+v", result)
	}

	// Re-delivery is a no-op.
	result = deliverCompletion(t, app, session.ID, session.Interviews[1].ID, 4.2)
	if result.Action != "no_change" || result.Draft.Version != 2 {
		t.Fatalf("re-delivery must not change anything: %+v", result)
	}
}

func TestWebhookStoresTranscriptForRetrieval(t *testing.T) {
	app := buildTestApp(t)
	session := seedSession(t, app)
	ivID := session.Interviews[0].ID

	resp := doJSON(t, app, http.MethodPost, "/api/v1/webhooks/interviews/completed", "", map[string]any{
		"sessionId":   session.ID,
		"interviewId": ivID,
		"rating":      4.2,
		"transcript":  "My grandmother opened the bakery in 1952.",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, app, http.MethodGet, "/api/v1/interviews/"+ivID+"/transcript", adminToken(t), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var out struct {
		InterviewID string `json:"interviewId"`
		Transcript  string `json:"transcript"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.InterviewID != ivID {
		t.Fatalf("expected interview %s, got %s", ivID, out.InterviewID)
	}
	if out.Transcript != "My grandmother opened the bakery in 1952." {
		t.Fatalf("unexpected transcript: %q", out.Transcript)
	}
}

func TestWebhookUnknownSession(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/webhooks/interviews/completed", "", map[string]any{
		"sessionId":   "missing",
		"interviewId": "iv-1",
	})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestDraftEndpointsRequireToken(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/drafts/some-id", "", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", resp.Code)
	}

	resp = doJSON(t, app, http.MethodPost, "/api/v1/drafts/some-id/transition", "", map[string]any{"target": "approved"})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", resp.Code)
	}
}

func TestTransitionEndpoint(t *testing.T) {
	app := buildTestApp(t)
	session := seedSession(t, app)
	token := adminToken(t)

	for i, rating := range []float64{4.5, 4.2, 4.0} {
		deliverCompletion(t, app, session.ID, session.Interviews[i].ID, rating)
	}

	resp := doJSON(t, app, http.MethodGet, "/api/v1/sessions/"+session.ID+"/draft", token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("get session draft: %d %s", resp.Code, resp.Body.String())
	}
	var draft drafts.Draft
	if err := json.NewDecoder(resp.Body).Decode(&draft); err != nil {
		t.Fatalf("decode draft: %v", err)
	}
	if draft.Stage != drafts.StagePendingReview {
		t.Fatalf("expected pending_review, got %s", draft.Stage)
	}

	// Unknown target is a 400.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/transition", token, map[string]any{"target": "done"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown stage, got %d", resp.Code)
	}

	// Rejection without a justification is refused with the validation result.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/transition", token, map[string]any{"target": "rejected"})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, app, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/transition", token, map[string]any{
		"target": "approved",
		"reason": "verified against the recordings",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", resp.Code, resp.Body.String())
	}
	var result drafts.TransitionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode transition result: %v", err)
	}
	if !result.Applied || result.Draft.Stage != drafts.StageApproved {
		t.Fatalf("approval should apply: %+v", result)
	}
	if result.Draft.ApprovedBy != "admin-1" {
		t.Fatalf("approver not recorded: %+v", result.Draft)
	}
}

func TestHistoryAndStageEndpoints(t *testing.T) {
	app := buildTestApp(t)
	session := seedSession(t, app)
	token := adminToken(t)

	for i, rating := range []float64{4.5, 4.2, 4.0} {
		deliverCompletion(t, app, session.ID, session.Interviews[i].ID, rating)
	}
	draft, err := app.Engine.GetBySession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}

	resp := doJSON(t, app, http.MethodGet, "/api/v1/drafts/"+draft.ID+"/history?action=version_updated", token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("history: %d %s", resp.Code, resp.Body.String())
	}
	var history struct {
		History []drafts.TransitionRecord `json:"history"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history.History) != 2 {
		t.Fatalf("expected 2 version updates, got %d", len(history.History))
	}

	resp = doJSON(t, app, http.MethodGet, "/api/v1/drafts/"+draft.ID+"/transitions", token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("transitions: %d %s", resp.Code, resp.Body.String())
	}
	var transitions struct {
		Transitions []drafts.TransitionCandidate `json:"transitions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&transitions); err != nil {
		t.Fatalf("decode transitions: %v", err)
	}
	if len(transitions.Transitions) == 0 {
		t.Fatalf("expected transition candidates")
	}

	resp = doJSON(t, app, http.MethodGet, "/api/v1/stages/pending_review", token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("stages: %d %s", resp.Code, resp.Body.String())
	}
	var listing struct {
		Drafts []drafts.Draft `json:"drafts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Drafts) != 1 {
		t.Fatalf("expected one pending_review draft, got %d", len(listing.Drafts))
	}

	resp = doJSON(t, app, http.MethodGet, "/api/v1/stages/unknown", token, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown stage, got %d", resp.Code)
	}

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/drafts/%s", "missing"), token, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing draft, got %d", resp.Code)
	}
}
