package routes

import (
	"net/http"

	"github.com/sotfmods/api/internal/app"
	"github.com/sotfmods/api/internal/apperr"
	"github.com/sotfmods/api/internal/handler"
	"github.com/sotfmods/api/internal/middleware"
	"github.com/sotfmods/api/internal/ui"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService)
	users := handler.NewUserHandler(app.UserService)
	mods := handler.NewModHandler(app.ModService)
	builds := handler.NewBuildHandler(app.BuildService)
	engagement := handler.NewEngagementHandler(app.FavoriteService, app.ReviewService, app.CommentService)
	files := handler.NewFileHandler(app.FileService, app.CategoryService)
	kelvin := handler.NewKelvinHandler(app.KelvinService)
	artifacts := handler.NewArtifactHandler(app.ArtifactService)

	mux := http.NewServeMux()

	// ============================================================================
	// AUTH
	// ============================================================================

	rateLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("POST /api/auth/register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /api/auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /api/auth/forgot-password", rateLimiter(auth.ForgotPassword))
	mux.HandleFunc("POST /api/auth/reset-password", auth.ResetPassword)
	mux.HandleFunc("POST /api/auth/logout", middleware.RequireUser(auth.Logout))
	mux.HandleFunc("GET /api/auth/check", middleware.RequireUser(auth.Check))

	// ============================================================================
	// USERS
	// ============================================================================

	mux.HandleFunc("GET /api/users/{userSlug}", users.Profile)
	mux.HandleFunc("GET /api/users/{userSlug}/stats", users.Stats)
	mux.HandleFunc("POST /api/users/avatar", middleware.RequireUser(users.UploadAvatar))

	// ============================================================================
	// MODS
	// ============================================================================

	mux.HandleFunc("GET /api/mods", mods.List)
	mux.HandleFunc("GET /api/mods/featured", mods.Featured)
	mux.HandleFunc("GET /api/mods/find", mods.Find)
	mux.HandleFunc("GET /api/users/{userSlug}/mods/{modSlug}", mods.BySlugs)
	mux.HandleFunc("GET /api/mods/{modID}", mods.Details)
	mux.HandleFunc("GET /api/mods/{modID}/check", mods.Check)
	mux.HandleFunc("GET /api/mods/{modID}/download/{version}", mods.Download)
	mux.HandleFunc("GET /api/mods/{modID}/download-stats", mods.DownloadStats)
	mux.HandleFunc("POST /api/mods/publish", middleware.RequireUser(mods.Publish))
	mux.HandleFunc("POST /api/mods/{modID}/release", middleware.RequireUser(mods.Release))
	mux.HandleFunc("PATCH /api/mods/{modID}/details", middleware.RequireUser(mods.UpdateDetails))
	mux.HandleFunc("GET /api/mods/{modID}/approve", middleware.RequireTrusted(mods.Approve))
	mux.HandleFunc("GET /api/mods/{modID}/unapprove", middleware.RequireTrusted(mods.Unapprove))
	mux.HandleFunc("GET /api/mods/{modID}/favorite", middleware.RequireUser(engagement.ToggleFavorite))

	mux.HandleFunc("GET /api/stats", mods.SiteStats)
	mux.HandleFunc("GET /api/stats/builds", mods.BuildStats)

	// ============================================================================
	// BUILDS
	// ============================================================================

	mux.HandleFunc("GET /api/builds/featured", mods.FeaturedBuilds)
	mux.HandleFunc("POST /api/builds/upload", middleware.RequireUser(builds.Upload))
	mux.HandleFunc("POST /api/builds/publish", middleware.RequireUser(builds.Publish))

	// ============================================================================
	// ENGAGEMENT
	// ============================================================================

	mux.HandleFunc("GET /api/favorites", middleware.RequireUser(engagement.Favorites))
	mux.HandleFunc("POST /api/favorites/toggle", middleware.RequireUser(engagement.SetFavorite))
	mux.HandleFunc("GET /api/reviews", engagement.Reviews)
	mux.HandleFunc("POST /api/reviews", middleware.RequireUser(engagement.SubmitReview))
	mux.HandleFunc("GET /api/comments", engagement.Comments)
	mux.HandleFunc("POST /api/comments", middleware.RequireUser(engagement.CreateComment))

	// ============================================================================
	// FILES & CATEGORIES
	// ============================================================================

	mux.HandleFunc("POST /api/files/presigned-url", middleware.RequireUser(files.PresignedURL))
	mux.HandleFunc("GET /api/categories", files.Categories)

	// ============================================================================
	// KELVIN
	// ============================================================================

	mux.HandleFunc("GET /api/kelvin-gpt/prompt", kelvin.Prompt)
	mux.HandleFunc("GET /api/kelvinseek/prompt", kelvin.Prompt)
	mux.HandleFunc("GET /api/kelvin-gpt/clear-history", kelvin.ClearHistory)
	mux.HandleFunc("GET /api/kelvin-gpt/chat", middleware.RequireTrusted(kelvin.Chat))
	mux.HandleFunc("GET /api/kelvin-gpt/chat/ids", middleware.RequireTrusted(kelvin.ChatIDs))

	// ============================================================================
	// ARTIFACTS
	// ============================================================================

	mux.HandleFunc("POST /api/artifacts/upload", middleware.RequireUser(artifacts.Upload))
	mux.HandleFunc("GET /api/artifacts/{artifactID}/diagram", artifacts.Diagram)

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ui.Render(w, r, "ok")
	})
	mux.HandleFunc("/{path...}", func(w http.ResponseWriter, r *http.Request) {
		ui.RenderError(w, r, apperr.ErrNotFound)
	})

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Recover,
		middleware.CORS(app.Cfg.CORSOrigins),
		middleware.AuthMiddleware(app.AuthService),
		middleware.RequestLogging, // After auth so the user id is logged
	)

	return handler
}
