package sessions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/server/middleware"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the sessions service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.createSession)
	rg.GET("/sessions/:id", h.getSession)
	rg.GET("/interviews/:id/transcript", h.getTranscript)
}

type createSessionRequest struct {
	ClientName string `json:"clientName"`
	Interviews []struct {
		Type        string `json:"type"`
		Interviewer string `json:"interviewer"`
	} `json:"interviews"`
}

func (h *Handler) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	interviews := make([]NewInterview, 0, len(req.Interviews))
	for _, in := range req.Interviews {
		interviews = append(interviews, NewInterview{Type: in.Type, Interviewer: in.Interviewer})
	}

	session, err := h.Svc.Create(c.Request.Context(), middleware.AdminIDFromContext(c), req.ClientName, interviews)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	c.Set("sessionId", session.ID)
	respond.JSON(c, http.StatusCreated, session)
}

func (h *Handler) getSession(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "session id is required", nil)
		return
	}

	session, err := h.Svc.Get(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch session", nil)
		}
		return
	}

	c.Set("sessionId", session.ID)
	respond.OK(c, session)
}

func (h *Handler) getTranscript(c *gin.Context) {
	interviewID := c.Param("id")
	if interviewID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "interview id is required", nil)
		return
	}

	text, err := h.Svc.Transcript(c.Request.Context(), interviewID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInterviewNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "interview not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load transcript", nil)
		}
		return
	}

	respond.OK(c, gin.H{"interviewId": interviewID, "transcript": text})
}
