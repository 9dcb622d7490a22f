package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/auth"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/drafts"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/sessions"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/config"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/metrics"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/server/middleware"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/server/respond"
)

// Deps are the constructed handlers the router mounts.
type Deps struct {
	Config     config.Config
	Sessions   *sessions.Handler
	Drafts     *drafts.Handler
	GoogleAuth *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(d.Config.CORSAllowOrigin),
		middleware.Auth(d.Config.Env),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if d.GoogleAuth != nil {
		d.GoogleAuth.RegisterRoutes(api)
	}
	if d.Sessions != nil {
		d.Sessions.RegisterRoutes(api)
	}
	if d.Drafts != nil {
		d.Drafts.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
