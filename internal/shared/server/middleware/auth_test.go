package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/auth"
)

func authRouter(env string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(env))
	router.GET("/api/v1/drafts/d1", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"adminId": AdminIDFromContext(c), "role": AdminRoleFromContext(c)})
	})
	router.POST("/api/v1/webhooks/interviews/completed", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("dev"))
	router.OPTIONS("/api/v1/drafts/d1", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/drafts/d1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	router := authRouter("dev")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts/d1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/drafts/d1", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", resp.Code)
	}
}

func TestAuthAcceptsSignedToken(t *testing.T) {
	router := authRouter("dev")

	token, err := auth.SignJWT(auth.Claims{Sub: "admin-1", Role: "admin"})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts/d1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestAuthWebhookSecret(t *testing.T) {
	// Dev mode without a configured secret lets webhook deliveries in.
	router := authRouter("dev")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/interviews/completed", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 in dev without secret, got %d", resp.Code)
	}

	t.Setenv("WEBHOOK_SECRET", "hush")
	router = authRouter("production")

	req = httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/interviews/completed", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret header, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/interviews/completed", nil)
	req.Header.Set("X-Webhook-Secret", "hush")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with secret, got %d", resp.Code)
	}
}
