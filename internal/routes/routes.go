package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/templui/projectdesk/internal/app"
	"github.com/templui/projectdesk/internal/handler"
	"github.com/templui/projectdesk/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.ProfileService, app.Sessions)
	profile := handler.NewProfileHandler(app.ProfileService)
	project := handler.NewProjectHandler(app.ProjectService)
	health := handler.NewHealthHandler(app.DB)

	r := chi.NewRouter()

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/healthz", health.Health)

	r.Route("/api", func(r chi.Router) {
		// ============================================================================
		// PUBLIC ROUTES
		// ============================================================================

		r.Get("/auth_status", auth.AuthStatus)

		// Auth - Authentication flow (rate limited)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitAuth(app.AuthLimiter))

			r.Post("/signup", auth.Signup)
			r.Post("/login", auth.Login)
			r.Post("/forgot_password", auth.ForgotPassword)
			r.Post("/reset_password", auth.ResetPassword)
		})

		// ============================================================================
		// PROTECTED ROUTES
		// ============================================================================

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Post("/logout", auth.Logout)
			r.Post("/change_password", auth.ChangePassword)

			// Profile
			r.Get("/profile", profile.Get)
			r.Put("/profile", profile.Update)
			r.Post("/profile/avatar", profile.UploadAvatar)

			// Projects
			r.Get("/projects", project.List)
			r.Post("/projects", project.Create)
			r.Get("/projects/{id}", project.Get)
			r.Put("/projects/{id}", project.Update)
			r.Delete("/projects/{id}", project.Delete)
		})
	})

	// Global middleware - executed in order (top to bottom)
	global := []func(http.Handler) http.Handler{chimw.RequestID}
	if app.Cfg.TrustProxy {
		global = append(global, chimw.RealIP) // rewrites RemoteAddr before rate limiting
	}
	global = append(global,
		chimw.Recoverer,
		middleware.Config(app.Cfg), // SecurityHeaders reads it
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.CSRFProtection, // state-changing requests must be JSON or carry X-Requested-With
		middleware.AuthMiddleware(app.Sessions, app.AuthService),
	)

	return middleware.Chain(r, global...)
}
