package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/sotfmods/api/internal/chat"
	"github.com/sotfmods/api/internal/config"
	"github.com/sotfmods/api/internal/db"
	"github.com/sotfmods/api/internal/jobs"
	"github.com/sotfmods/api/internal/markdown"
	"github.com/sotfmods/api/internal/repository"
	"github.com/sotfmods/api/internal/service"
	"github.com/sotfmods/api/internal/storage"
)

type App struct {
	Cfg                *config.Config
	DB                 *sqlx.DB
	AuthService        *service.AuthService
	UserService        *service.UserService
	EmailService       *service.EmailService
	FileService        *service.FileService
	ModService         *service.ModService
	BuildService       *service.BuildService
	FavoriteService    *service.FavoriteService
	ReviewService      *service.ReviewService
	CommentService     *service.CommentService
	CategoryService    *service.CategoryService
	KelvinService      *service.KelvinService
	ArtifactService    *service.ArtifactService
	MentionService     *service.MentionService
	MaintenanceService *service.MaintenanceService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	return Assemble(cfg, database, fileStorage, chat.NewOpenAI(cfg.GPTAPIKey, cfg.GPTModel)), nil
}

// Assemble wires repositories and services over an opened database and storage.
func Assemble(cfg *config.Config, database *sqlx.DB, fileStorage storage.Storage, completer chat.Completer) *App {
	// Repositories
	userRepository := repository.NewUserRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	fileRepository := repository.NewFileRepository(database)
	categoryRepository := repository.NewCategoryRepository(database)
	modRepository := repository.NewModRepository(database)
	favoriteRepository := repository.NewFavoriteRepository(database)
	reviewRepository := repository.NewReviewRepository(database)
	commentRepository := repository.NewCommentRepository(database)
	mentionRepository := repository.NewMentionRepository(database)
	kelvinRepository := repository.NewKelvinRepository(database)
	artifactRepository := repository.NewArtifactRepository(database)

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	fileService := service.NewFileService(fileRepository, fileStorage, cfg.S3PresignUploadExpiry)
	authService := service.NewAuthService(
		userRepository,
		tokenRepository,
		emailService,
		cfg.JWTSecret,
		cfg.SessionExpiry,
		cfg.TokenPasswordResetExpiry,
	)
	modService := service.NewModService(
		modRepository,
		userRepository,
		categoryRepository,
		favoriteRepository,
		fileService,
		markdown.NewParser(),
		cfg.FeaturedCacheTTL,
		service.UploadLimits{
			ModFile:        cfg.ModFileSizeLimit,
			TrustedModFile: cfg.TrustedModFileSizeLimit,
			BuildFile:      cfg.BuildFileSizeLimit,
		},
	)

	return &App{
		Cfg:                cfg,
		DB:                 database,
		AuthService:        authService,
		UserService:        service.NewUserService(userRepository, modRepository, fileService),
		EmailService:       emailService,
		FileService:        fileService,
		ModService:         modService,
		BuildService:       service.NewBuildService(modService, modRepository, categoryRepository, fileService, cfg.BuildFileSizeLimit),
		FavoriteService:    service.NewFavoriteService(favoriteRepository, modRepository),
		ReviewService:      service.NewReviewService(reviewRepository, modRepository),
		CommentService:     service.NewCommentService(commentRepository, modRepository, userRepository),
		CategoryService:    service.NewCategoryService(categoryRepository),
		KelvinService:      service.NewKelvinService(kelvinRepository, completer),
		ArtifactService:    service.NewArtifactService(artifactRepository),
		MentionService:     service.NewMentionService(mentionRepository, emailService),
		MaintenanceService: service.NewMaintenanceService(modRepository, tokenRepository),
	}
}

// Jobs are the periodic tasks the server schedules.
func (a *App) Jobs() []jobs.Job {
	return []jobs.Job{
		{
			Name:     "reconcile-counters",
			Interval: a.Cfg.CountersInterval,
			Run: func(ctx context.Context) error {
				_, err := a.MaintenanceService.ReconcileCounters(ctx)
				return err
			},
		},
		{
			Name:     "purge-cache",
			Interval: a.Cfg.FeaturedCacheTTL,
			Run: func(ctx context.Context) error {
				if removed := a.ModService.PurgeCache(); removed > 0 {
					slog.Debug("expired cache entries purged", "removed", removed)
				}
				return nil
			},
		},
		{
			Name:     "send-mentions",
			Interval: a.Cfg.MentionsInterval,
			Run: func(ctx context.Context) error {
				_, err := a.MentionService.Drain(ctx)
				return err
			},
		},
	}
}

func (a *App) Close() error {
	if a.DB != nil {
		return db.Close(a.DB)
	}
	return nil
}
