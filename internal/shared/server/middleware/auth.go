package middleware

import (
	"crypto/hmac"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/auth"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/server/respond"
)

const (
	adminIDKey    = "adminId"
	adminEmailKey = "adminEmail"
	adminNameKey  = "adminName"
	adminRoleKey  = "adminRole"
)

// Auth validates bearer JWTs and stores the caller identity in context.
// Webhook routes authenticate with a shared secret instead, since the AI
// pipeline delivering completions has no user identity.
func Auth(env string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/v1/auth/google/") {
			c.Next()
			return
		}
		if strings.HasPrefix(path, "/api/v1/webhooks/") {
			if !webhookSecretValid(c.GetHeader("X-Webhook-Secret"), env) {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid webhook secret", nil)
				return
			}
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		claims, err := auth.VerifyJWT(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(adminIDKey, claims.Sub)
		if claims.Email != "" {
			c.Set(adminEmailKey, claims.Email)
		}
		if claims.Name != "" {
			c.Set(adminNameKey, claims.Name)
		}
		c.Set(adminRoleKey, claims.Role)
		c.Next()
	}
}

func webhookSecretValid(got, env string) bool {
	want := strings.TrimSpace(os.Getenv("WEBHOOK_SECRET"))
	if want == "" {
		// Dev convenience only; production must configure a secret.
		return env == "dev" || env == "local"
	}
	return hmac.Equal([]byte(strings.TrimSpace(got)), []byte(want))
}

// AdminIDFromContext fetches the admin ID set by the auth middleware.
func AdminIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(adminIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// AdminEmailFromContext fetches the admin email set by the auth middleware.
func AdminEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(adminEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}

// AdminNameFromContext fetches the admin display name set by the auth middleware.
func AdminNameFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(adminNameKey)
	if name, ok := val.(string); ok {
		return name
	}
	return ""
}

// AdminRoleFromContext fetches the admin role set by the auth middleware.
func AdminRoleFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(adminRoleKey)
	if role, ok := val.(string); ok {
		return role
	}
	return ""
}
