package drafts

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/sessions"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/server/middleware"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the versioning engine.
type Handler struct {
	Engine *Engine
}

// NewHandler constructs a Handler.
func NewHandler(engine *Engine) *Handler {
	return &Handler{Engine: engine}
}

// RegisterRoutes attaches draft routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/interviews/completed", h.interviewCompleted)
	rg.GET("/drafts/:id", h.getDraft)
	rg.POST("/drafts/:id/transition", h.transition)
	rg.GET("/drafts/:id/transitions", h.availableTransitions)
	rg.GET("/drafts/:id/history", h.history)
	rg.GET("/sessions/:id/draft", h.getSessionDraft)
	rg.GET("/stages/:stage", h.listByStage)
}

type completionRequest struct {
	SessionID    string     `json:"sessionId"`
	InterviewID  string     `json:"interviewId"`
	Rating       *float64   `json:"rating"`
	Summary      string     `json:"summary"`
	Strengths    []string   `json:"strengths"`
	Improvements []string   `json:"improvements"`
	Skills       []string   `json:"skills"`
	Transcript   string     `json:"transcript"`
	CompletedAt  *time.Time `json:"completedAt"`
}

func (h *Handler) interviewCompleted(c *gin.Context) {
	var req completionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.SessionID == "" || req.InterviewID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sessionId and interviewId are required", nil)
		return
	}

	ev := CompletionEvent{
		SessionID:   req.SessionID,
		InterviewID: req.InterviewID,
		CompletedAt: req.CompletedAt,
		RequestID:   middleware.RequestIDFromContext(c),
		Transcript:  req.Transcript,
		Content: sessions.InterviewContent{
			Rating:       req.Rating,
			Summary:      req.Summary,
			Strengths:    req.Strengths,
			Improvements: req.Improvements,
			Skills:       req.Skills,
		},
	}

	result, err := h.Engine.HandleCompletion(c.Request.Context(), ev)
	if err != nil {
		switch {
		case errors.Is(err, sessions.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		case errors.Is(err, sessions.ErrInterviewNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "interview not found", nil)
		case errors.Is(err, ErrVersionConflict):
			respond.Error(c, http.StatusConflict, "version_conflict", "draft was modified concurrently", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process completion", nil)
		}
		return
	}

	c.Set("sessionId", req.SessionID)
	c.Set("draftId", result.Draft.ID)
	status := http.StatusOK
	if result.Action == ResultCreated {
		status = http.StatusCreated
	}
	respond.JSON(c, status, result)
}

type transitionRequest struct {
	Target          string `json:"target"`
	Reason          string `json:"reason"`
	RejectionReason string `json:"rejectionReason"`
}

func (h *Handler) transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	target, err := ParseStage(req.Target)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	admin := AdminUser{
		ID:    middleware.AdminIDFromContext(c),
		Email: middleware.AdminEmailFromContext(c),
		Name:  middleware.AdminNameFromContext(c),
		Role:  middleware.AdminRoleFromContext(c),
	}

	result, err := h.Engine.TransitionStage(c.Request.Context(), c.Param("id"), TransitionRequest{
		Target:          target,
		Admin:           admin,
		Reason:          req.Reason,
		RejectionReason: req.RejectionReason,
		RequestID:       middleware.RequestIDFromContext(c),
	})
	if err != nil {
		h.writeDraftError(c, err)
		return
	}

	c.Set("draftId", c.Param("id"))
	if !result.Applied {
		respond.JSON(c, http.StatusUnprocessableEntity, result)
		return
	}
	c.Set("stageTransition", string(result.Draft.Stage))
	respond.JSON(c, http.StatusOK, result)
}

func (h *Handler) getDraft(c *gin.Context) {
	draft, err := h.Engine.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeDraftError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, draft)
}

func (h *Handler) getSessionDraft(c *gin.Context) {
	draft, err := h.Engine.GetBySession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeDraftError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, draft)
}

func (h *Handler) availableTransitions(c *gin.Context) {
	admin := AdminUser{
		ID:    middleware.AdminIDFromContext(c),
		Email: middleware.AdminEmailFromContext(c),
		Name:  middleware.AdminNameFromContext(c),
		Role:  middleware.AdminRoleFromContext(c),
	}
	var actor *AdminUser
	if admin.Role == "admin" {
		actor = &admin
	}

	candidates, err := h.Engine.AvailableTransitions(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.writeDraftError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"transitions": candidates})
}

func (h *Handler) history(c *gin.Context) {
	filter := HistoryFilter{
		Action:      c.Query("action"),
		TriggeredBy: c.Query("triggeredBy"),
	}
	if raw := c.Query("stage"); raw != "" {
		stage, err := ParseStage(raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		filter.Stage = &stage
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be a non-negative integer", nil)
			return
		}
		filter.Limit = limit
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "since must be RFC 3339", nil)
			return
		}
		filter.Since = since
	}
	if raw := c.Query("until"); raw != "" {
		until, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "until must be RFC 3339", nil)
			return
		}
		filter.Until = until
	}

	records, err := h.Engine.History(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		h.writeDraftError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"history": records})
}

func (h *Handler) listByStage(c *gin.Context) {
	stage, err := ParseStage(c.Param("stage"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	drafts, err := h.Engine.ListByStage(c.Request.Context(), stage)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list drafts", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"stage": stage, "metadata": MetadataFor(stage), "drafts": drafts})
}

func (h *Handler) writeDraftError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "draft not found", nil)
	case errors.Is(err, ErrVersionConflict):
		respond.Error(c, http.StatusConflict, "version_conflict", "draft was modified concurrently", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}
