package bootstrap

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/auth"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/drafts"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/queue"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/sessions"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/config"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/server"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/storage/db"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/storage/object"
	localstore "github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/storage/object/local"
	s3store "github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/storage/object/s3"
)

// App holds the application's constructed dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	SessionsRepo    sessions.Repo
	DraftsRepo      drafts.Repo
	SessionsService *sessions.Service
	Engine          *drafts.Engine
	SessionsHandler *sessions.Handler
	DraftsHandler   *drafts.Handler
	GoogleAuth      *googleauth.GoogleService
}

// Build prepares dependencies and wires the router. The database and
// queue are optional; without them the app runs on in-memory repos and
// skips event publication.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	app := &App{Config: cfg}

	if cfg.DatabaseURL != "" {
		conn, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			log.Printf("failed to connect database, falling back to memory: %v", err)
		} else if err := db.RunMigrations(ctx, conn); err != nil {
			log.Printf("failed to run migrations, falling back to memory: %v", err)
			conn.Close()
		} else {
			app.DB = conn
		}
	}

	if cfg.ObjectStoreType == "s3" {
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, err
		}
		app.Store = store
	} else {
		app.Store = localstore.New(cfg.LocalStoreDir)
	}

	if q, err := queue.NewSQSClient(ctx); err != nil {
		log.Printf("draft event queue disabled: %v", err)
	} else {
		app.Queue = q
	}

	if app.DB != nil {
		app.SessionsRepo = &sessions.PGRepo{DB: app.DB}
		app.DraftsRepo = &drafts.PGRepo{DB: app.DB}
	} else {
		app.SessionsRepo = sessions.NewMemoryRepo()
		app.DraftsRepo = drafts.NewMemoryRepo()
	}

	app.SessionsService = &sessions.Service{Repo: app.SessionsRepo, Store: app.Store}
	app.Engine = drafts.NewEngine(app.DraftsRepo, app.SessionsRepo, drafts.NewValidator(cfg.Drafts), app.Queue)
	app.Engine.Store = app.Store

	app.SessionsHandler = sessions.NewHandler(app.SessionsService)
	app.DraftsHandler = drafts.NewHandler(app.Engine)
	app.GoogleAuth = googleauth.NewGoogleService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.UIRedirectURL)

	app.Router = server.NewRouter(server.Deps{
		Config:     cfg,
		Sessions:   app.SessionsHandler,
		Drafts:     app.DraftsHandler,
		GoogleAuth: app.GoogleAuth,
	})
	return app, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
