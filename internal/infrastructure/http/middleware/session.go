package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/alchemorsel/recipegen/internal/infrastructure/security"
	"go.uber.org/zap"
)

// LoginPath is where unauthenticated browsers are sent
const LoginPath = "/login"

type sessionKey struct{}

// SessionValidator resolves a session cookie value
type SessionValidator interface {
	ValidateToken(ctx context.Context, token string) (*security.Session, error)
	CookieName() string
}

// RequireSession redirects requests without a valid session cookie to the
// login page, remembering where they were headed
func RequireSession(auth SessionValidator, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.CookieName())
			if err != nil || cookie.Value == "" {
				redirectToLogin(w, r)
				return
			}

			session, err := auth.ValidateToken(r.Context(), cookie.Value)
			if err != nil {
				logger.Debug("Session rejected",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				redirectToLogin(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// WithSession returns a context carrying session
func WithSession(ctx context.Context, session *security.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext returns the authenticated session, if any
func SessionFromContext(ctx context.Context) (*security.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*security.Session)
	return session, ok && session != nil
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusFound)
}
