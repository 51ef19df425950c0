package handlers

import (
	"context"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/alchemorsel/recipegen/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/recipegen/internal/infrastructure/security"
	"github.com/alchemorsel/recipegen/pkg/errors"
	"go.uber.org/zap"
)

// Authenticator is the part of the auth service the login routes use
type Authenticator interface {
	Authenticate(username, password string) error
	IssueToken(username string) (string, *security.Session, error)
	Revoke(ctx context.Context, session *security.Session) error
	CookieName() string
	SecureCookie() bool
}

// AuthHandlers serves the login form and the login/logout endpoints
type AuthHandlers struct {
	auth      Authenticator
	loginPage *template.Template
	logger    *zap.Logger
}

// NewAuthHandlers creates the auth handlers
func NewAuthHandlers(auth Authenticator, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		auth:      auth,
		loginPage: loginTemplate,
		logger:    logger.Named("auth-handlers"),
	}
}

type loginPageData struct {
	Next string
}

type loginResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// LoginPage handles GET /login
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.loginPage.Execute(w, loginPageData{Next: safeRedirect(r.URL.Query().Get("next"))}); err != nil {
		h.logger.Error("Failed to render login page", zap.Error(err))
	}
}

// Login handles POST /login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, h.logger, errors.NewBadRequestError("Invalid form data."))
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	if err := h.auth.Authenticate(username, password); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	token, session, err := h.auth.IssueToken(username)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.auth.CookieName(),
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.auth.SecureCookie(),
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("User logged in", zap.String("username", username))
	writeJSON(w, h.logger, http.StatusOK, loginResponse{
		Message:  "Login successful! Redirecting...",
		Redirect: safeRedirect(r.URL.Query().Get("next")),
	})
}

// Logout handles GET /logout. It must run behind RequireSession.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if session, ok := middleware.SessionFromContext(r.Context()); ok {
		if err := h.auth.Revoke(r.Context(), session); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		h.logger.Info("User logged out", zap.String("username", session.Username))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.auth.CookieName(),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.auth.SecureCookie(),
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, h.logger, http.StatusOK, messageResponse{Message: "Logout successful!"})
}

// safeRedirect only allows local absolute paths
func safeRedirect(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
