// Package bootstrap assembles the application's dependency graph.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"

	"scholarai-backend/internal/analysis"
	"scholarai-backend/internal/embed"
	"scholarai-backend/internal/papers"
	"scholarai-backend/internal/shared/config"
	"scholarai-backend/internal/shared/server"
	"scholarai-backend/internal/shared/storage/db"
	"scholarai-backend/internal/shared/storage/object"
	localstore "scholarai-backend/internal/shared/storage/object/local"
	s3store "scholarai-backend/internal/shared/storage/object/s3"
	"scholarai-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	PapersRepo   papers.Repo
	AnalysisRepo analysis.Repo

	PapersService   *papers.Service
	AnalysisService *analysis.Service

	PaperHandler    *papers.Handler
	AnalysisHandler *analysis.Handler
}

// Build prepares shared dependencies and the HTTP router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB, Store: store}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		PaperHandler:    app.PaperHandler,
		AnalysisHandler: app.AnalysisHandler,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		if cfg.DevLike() {
			telemetry.Info("bootstrap.memory_repos", map[string]any{
				"reason": "DATABASE_URL empty",
			})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.DefaultServerOptions())
	if err != nil {
		if cfg.DevLike() {
			telemetry.Error("bootstrap.db_connect", map[string]any{
				"error":    err.Error(),
				"fallback": "memory",
			})
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, s3store.Options{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(app *App) {
	if app.DB != nil {
		app.PapersRepo = &papers.PGRepo{DB: app.DB}
		app.AnalysisRepo = &analysis.PGRepo{DB: app.DB}
	} else {
		app.PapersRepo = papers.NewMemoryRepo()
		app.AnalysisRepo = analysis.NewMemoryRepo()
	}

	app.PapersService = &papers.Service{
		Store: app.Store,
		Repo:  app.PapersRepo,
	}

	var embedder embed.Client = embed.Placeholder{}
	if app.Config.EmbeddingProvider == "ollama" {
		embedder = embed.NewOllamaClient(
			app.Config.OllamaBaseURL,
			app.Config.EmbeddingModel,
			app.Config.EmbeddingDimensions,
		)
	}

	app.AnalysisService = &analysis.Service{
		Papers:    app.PapersRepo,
		Store:     app.Store,
		Repo:      app.AnalysisRepo,
		Embedder:  embedder,
		ChunkSize: app.Config.ChunkSize,
	}

	app.PaperHandler = papers.NewHandler(app.PapersService, app.Config.MaxUploadBytes)
	app.AnalysisHandler = analysis.NewHandler(app.AnalysisService)
}
