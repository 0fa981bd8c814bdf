package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"

	"labrisk-backend/internal/features"
	"labrisk-backend/internal/predict"
	"labrisk-backend/internal/riskrecords"
	"labrisk-backend/internal/shared/config"
	"labrisk-backend/internal/shared/server"
	"labrisk-backend/internal/shared/storage/db"
	"labrisk-backend/internal/shared/storage/object"
	"labrisk-backend/internal/shared/storage/object/local"
	"labrisk-backend/internal/shared/storage/object/s3"
	"labrisk-backend/internal/shared/telemetry"
	"labrisk-backend/internal/users"
)

// App holds the wired application.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	RiskRecordsService *riskrecords.Service
	UsersService       *users.Service
}

// Build wires configuration into repositories, services, and the router.
// Without DATABASE_URL outside production the app runs on in-memory
// repositories, for local development.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var (
		database *sql.DB
		userRepo users.Repo
		riskRepo riskrecords.Repo
		usersMem *users.MemoryRepo
	)

	if cfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		userRepo = users.NewPGRepo(database)
		riskRepo = riskrecords.NewPGRepo(database)
	} else {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("DATABASE_URL is required in production")
		}
		usersMem = users.NewMemoryRepo()
		userRepo = usersMem
		riskRepo = riskrecords.NewMemoryRepo(ownerDirectory{repo: usersMem})
		telemetry.Info("bootstrap.memory_repos", map[string]any{"env": cfg.Env})
	}

	usersService := users.NewService(userRepo)
	if err := usersService.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	predictor, err := buildPredictor(cfg)
	if err != nil {
		return nil, err
	}

	riskService := riskrecords.NewService(riskRepo, store, features.ReportSchema{}, predictor)

	router := server.NewRouter(server.RouterDeps{
		Config:      cfg,
		RiskRecords: riskrecords.NewHandler(riskService),
		Users:       users.NewHandler(usersService),
	})

	return &App{
		Config:             cfg,
		Router:             router,
		DB:                 database,
		RiskRecordsService: riskService,
		UsersService:       usersService,
	}, nil
}

// Close releases held resources.
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		store, err := s3.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, fmt.Errorf("init s3 store: %w", err)
		}
		return store, nil
	default:
		return local.New(cfg.LocalStoreDir), nil
	}
}

func buildPredictor(cfg config.Config) (predict.Predictor, error) {
	if cfg.PredictURL == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("PREDICT_URL is required in production")
		}
		telemetry.Info("bootstrap.predict_placeholder", map[string]any{"env": cfg.Env})
		return predict.Placeholder{}, nil
	}
	return predict.NewHTTPClient(cfg.PredictURL)
}

// ownerDirectory exposes the user repo to the in-memory risk repo for the
// admin listing. The Postgres repo joins the users table instead.
type ownerDirectory struct {
	repo users.Repo
}

func (d ownerDirectory) OwnerByID(ctx context.Context, userID string) (riskrecords.Owner, error) {
	u, err := d.repo.GetByID(ctx, userID)
	if err != nil {
		return riskrecords.Owner{}, err
	}
	return riskrecords.Owner{Name: u.FullName, Email: u.Email}, nil
}
