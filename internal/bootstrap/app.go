package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/applications"
	"recruit-backend/internal/cvanalysis"
	"recruit-backend/internal/dashboard"
	"recruit-backend/internal/jobs"
	"recruit-backend/internal/modelregistry"
	"recruit-backend/internal/notifications"
	"recruit-backend/internal/processing"
	"recruit-backend/internal/queue"
	"recruit-backend/internal/services/health"
	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/server"
	"recruit-backend/internal/shared/storage/db"
	"recruit-backend/internal/shared/storage/object"
	localstore "recruit-backend/internal/shared/storage/object/local"
	s3store "recruit-backend/internal/shared/storage/object/s3"
	"recruit-backend/internal/users"
)

// App holds shared dependencies for the API and the worker.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Store    object.ObjectStore
	Queue    queue.Client
	Model    *cvanalysis.Holder
	Registry *modelregistry.Registry

	UsersService         *users.Service
	JobsService          *jobs.Service
	ApplicationsService  *applications.Service
	NotificationsService *notifications.Service
	ProcessingService    *processing.Service
	AnalysisService      *cvanalysis.Service
	DashboardService     *dashboard.Service
}

// Build prepares shared dependencies and the router. role selects the
// database pool defaults.
func Build(cfg config.Config, role db.Role) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg, role)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Store:    store,
		Queue:    queueClient,
		Model:    cvanalysis.NewHolder(cfg.ModelDir),
		Registry: buildRegistry(ctx, cfg),
	}
	// A missing model leaves the analyzer untrained; AI routes answer 503
	// until cmd/train runs and the model is reloaded.
	if err := app.Model.Reload(); err != nil {
		log.Printf("bootstrap: cv model not loaded from %s: %v", cfg.ModelDir, err)
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:              cfg,
		Health:              health.NewService(pinger(sqlDB), app.Model),
		Users:               app.UsersService,
		UserHandler:         users.NewHandler(app.UsersService),
		JobHandler:          jobs.NewHandler(app.JobsService),
		ApplicationHandler:  applications.NewHandler(app.ApplicationsService),
		NotificationHandler: notifications.NewHandler(app.NotificationsService),
		DashboardHandler:    dashboard.NewHandler(app.DashboardService),
		AnalysisHandler:     cvanalysis.NewHandler(app.AnalysisService, cfg.MaxUploadMB),
	})

	return app, nil
}

// ReloadModel re-reads the model artifacts; the live analyzer is kept when
// they are missing or invalid.
func (a *App) ReloadModel() error {
	if err := a.Model.Reload(); err != nil {
		return fmt.Errorf("reload cv model: %w", err)
	}
	return nil
}

// Close releases the database and registry handles.
func (a *App) Close() {
	if a.Registry != nil {
		if err := a.Registry.Close(); err != nil {
			log.Printf("bootstrap: close registry: %v", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			log.Printf("bootstrap: close database: %v", err)
		}
	}
}

func buildServices(app *App) {
	var (
		userRepo  users.Repo
		jobRepo   jobs.Repo
		appRepo   applications.Repo
		notifRepo notifications.Repo
		procRepo  processing.Repo
	)
	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		jobRepo = &jobs.PGRepo{DB: app.DB}
		appRepo = &applications.PGRepo{DB: app.DB}
		notifRepo = &notifications.PGRepo{DB: app.DB}
		procRepo = &processing.PGRepo{DB: app.DB}
	} else {
		userRepo = users.NewMemoryRepo()
		jobRepo = jobs.NewMemoryRepo()
		appRepo = applications.NewMemoryRepo()
		notifRepo = notifications.NewMemoryRepo()
		procRepo = processing.NewMemoryRepo()
	}

	var runs cvanalysis.RunSource
	if app.Registry != nil {
		runs = app.Registry
	}

	app.UsersService = users.NewService(userRepo)
	app.NotificationsService = notifications.NewService(notifRepo)
	app.JobsService = jobs.NewService(jobRepo, appRepo)
	app.AnalysisService = cvanalysis.NewService(app.Model, app.JobsService, runs)
	app.ProcessingService = processing.NewService(procRepo, nil, app.Queue)
	app.ApplicationsService = applications.NewService(
		appRepo,
		app.JobsService,
		app.Store,
		app.NotificationsService,
		app.ProcessingService,
		app.AnalysisService,
	)
	app.ProcessingService.SetAnalyzer(app.ApplicationsService)
	app.DashboardService = dashboard.NewService(appRepo, jobRepo)
}

func buildDB(ctx context.Context, cfg config.Config, role db.Role) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultOptions(role))
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	// Dev databases are migrated on start; other environments run cmd/migrate.
	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			return nil, nil
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.SQSQueueURL) == "" {
		return nil, nil
	}
	client, err := queue.NewSQSClient(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func buildRegistry(ctx context.Context, cfg config.Config) *modelregistry.Registry {
	if strings.TrimSpace(cfg.ModelRegistryPath) == "" {
		return nil
	}
	reg, err := modelregistry.Open(ctx, cfg.ModelRegistryPath)
	if err != nil {
		log.Printf("bootstrap: model registry unavailable: %v", err)
		return nil
	}
	return reg
}

func pinger(sqlDB *sql.DB) health.Pinger {
	if sqlDB == nil {
		return nil
	}
	return sqlDB
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
