package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/projectdesk/internal/ctxkeys"
	"github.com/templui/projectdesk/internal/handler"
	"github.com/templui/projectdesk/internal/service"
	"github.com/templui/projectdesk/internal/session"
)

// AuthMiddleware resolves the session cookie and adds the session and its
// user to the context. Requests without a usable session continue anonymously.
func AuthMiddleware(sessions *session.Manager, authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Resolve(r)
			if errors.Is(err, session.ErrNoSession) {
				if _, cookieErr := r.Cookie(session.CookieName); cookieErr == nil {
					// Stale, tampered or revoked cookie
					sessions.Clear(w)
				}
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				slog.Error("failed to resolve session", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			user, err := authService.CurrentUser(r.Context(), sess.UserID)
			if err != nil {
				slog.Warn("session user unavailable", "error", err, "session_id", sess.ID)
				_ = sessions.End(r.Context(), w, sess.ID)
				next.ServeHTTP(w, r)
				return
			}

			// Security: Remove password hash from context
			user.PasswordHash = ""

			ctx := ctxkeys.WithUser(r.Context(), user)
			ctx = ctxkeys.WithSession(ctx, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without an authenticated user.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) == nil {
			handler.WriteMessage(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
