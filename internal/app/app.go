package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/templui/projectdesk/internal/config"
	"github.com/templui/projectdesk/internal/db"
	"github.com/templui/projectdesk/internal/middleware"
	"github.com/templui/projectdesk/internal/repository"
	"github.com/templui/projectdesk/internal/service"
	"github.com/templui/projectdesk/internal/session"
	"github.com/templui/projectdesk/internal/storage"
)

type App struct {
	Cfg            *config.Config
	DB             *sqlx.DB
	Redis          *redis.Client
	Sessions       *session.Manager
	SessionStore   session.Store
	AuthLimiter    *middleware.RateLimiter
	AuthService    *service.AuthService
	ProfileService *service.ProfileService
	ProjectService *service.ProjectService
	EmailService   *service.EmailService
	SeedService    *service.SeedService

	userRepository repository.UserRepository
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = db.Close(database)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a := &App{Cfg: cfg, DB: database}

	// Sessions
	a.SessionStore, err = a.newSessionStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Sessions = session.NewManager(a.SessionStore, cfg.SessionSecret, cfg.SessionExpiry, cfg.IsProduction())

	// Storage
	fileStorage, err := storage.New(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Repositories
	a.userRepository = repository.NewUserRepository(database)
	profileRepository := repository.NewProfileRepository(database)
	projectRepository := repository.NewProjectRepository(database)

	// Services
	a.EmailService = service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	a.AuthService = service.NewAuthService(
		a.userRepository,
		profileRepository,
		a.Sessions,
		a.EmailService,
		cfg.TokenPasswordResetExpiry,
	)
	a.ProfileService = service.NewProfileService(profileRepository, fileStorage)
	a.ProjectService = service.NewProjectService(projectRepository)
	a.SeedService = service.NewSeedService(a.userRepository, projectRepository)
	a.AuthLimiter = middleware.NewRateLimiter(cfg.RateLimitAuthRequests, cfg.RateLimitAuthWindow)

	if cfg.SeedAdmin {
		err = a.SeedService.SeedAdmin(ctx, cfg.SeedAdminPassword)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to seed admin: %w", err)
		}
	}

	return a, nil
}

func (a *App) newSessionStore(ctx context.Context) (session.Store, error) {
	switch a.Cfg.SessionStore {
	case "redis":
		opts, err := redis.ParseURL(a.Cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		a.Redis = redis.NewClient(opts)

		err = a.Redis.Ping(ctx).Err()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		slog.Info("session store ready", "store", "redis")
		return session.NewRedisStore(a.Redis), nil
	case "sql", "":
		slog.Info("session store ready", "store", "sql")
		return session.NewSQLStore(a.DB), nil
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q (want sql or redis)", a.Cfg.SessionStore)
	}
}

type expiredSessionSweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// RunJanitor clears expired reset tokens and, for the SQL store, expired
// sessions every interval until ctx is cancelled. Redis expires its keys itself.
func (a *App) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.sweep(ctx)
		}
	}
}

func (a *App) sweep(ctx context.Context) {
	tokens, err := a.userRepository.ClearExpiredResetTokens(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("failed to clear expired reset tokens", "error", err)
	}

	var sessions int64
	if sweeper, ok := a.SessionStore.(expiredSessionSweeper); ok {
		sessions, err = sweeper.DeleteExpired(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("failed to delete expired sessions", "error", err)
		}
	}

	if tokens > 0 || sessions > 0 {
		slog.Info("janitor sweep", "reset_tokens", tokens, "sessions", sessions)
	}
}

func (a *App) Close() error {
	var errs []error
	if a.AuthLimiter != nil {
		a.AuthLimiter.Close()
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	errs = append(errs, db.Close(a.DB))
	return errors.Join(errs...)
}
