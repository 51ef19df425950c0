// Package security provides the login gate: credential checks and signed
// session tokens carried in a cookie.
package security

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"github.com/alchemorsel/recipegen/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	issuer          = "recipegen"
	generatedSecret = 32
)

// ErrTokenRevoked is returned for tokens that were logged out
var ErrTokenRevoked = stderrors.New("token has been revoked")

// Claims represents the session token claims. The subject is the username.
type Claims struct {
	jwt.RegisteredClaims
}

// Session is an authenticated browser session
type Session struct {
	Username  string
	TokenID   string
	ExpiresAt time.Time
}

// AuthService checks credentials and issues session tokens
type AuthService struct {
	cfg      config.AuthConfig
	secret   []byte
	users    map[string]string
	denylist outbound.TokenDenylist
	now      func() time.Time
	logger   *zap.Logger
}

// NewAuthService creates the auth service. When no session secret is
// configured a random one is generated, so sessions end with the process.
func NewAuthService(cfg config.AuthConfig, denylist outbound.TokenDenylist, logger *zap.Logger) (*AuthService, error) {
	logger = logger.Named("auth")

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, generatedSecret)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		logger.Warn("No session secret configured, sessions will not survive a restart")
	}

	// Viper lowercases map keys, so usernames are matched case-insensitively
	users := make(map[string]string, len(cfg.Users))
	for name, hash := range cfg.Users {
		users[strings.ToLower(name)] = hash
	}
	if len(users) == 0 {
		logger.Warn("No users configured, any credentials will be accepted")
	}

	return &AuthService{
		cfg:      cfg,
		secret:   secret,
		users:    users,
		denylist: denylist,
		now:      time.Now,
		logger:   logger,
	}, nil
}

// Authenticate verifies a username and password
func (a *AuthService) Authenticate(username, password string) error {
	if username == "" || password == "" {
		return errors.NewValidationError("Username and password are required.")
	}

	if len(a.users) == 0 {
		return nil
	}

	hash, ok := a.users[strings.ToLower(username)]
	if !ok {
		a.logger.Info("Login rejected", zap.String("username", username), zap.String("reason", "unknown user"))
		return errors.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		a.logger.Info("Login rejected", zap.String("username", username), zap.String("reason", "password mismatch"))
		return errors.NewInvalidCredentialsError()
	}

	return nil
}

// IssueToken creates a signed session token for username
func (a *AuthService) IssueToken(username string) (string, *Session, error) {
	now := a.now()
	expiresAt := now.Add(a.cfg.SessionMaxAge)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, &Session{
		Username:  username,
		TokenID:   claims.ID,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken parses a session token and checks that it was not revoked
func (a *AuthService) ValidateToken(ctx context.Context, tokenString string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	revoked, err := a.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return &Session{
		Username:  claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke invalidates a session until its token would have expired
func (a *AuthService) Revoke(ctx context.Context, session *Session) error {
	if err := a.denylist.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// HashPassword hashes a password for the auth.users configuration. A zero
// cost uses the bcrypt default.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CookieName returns the session cookie name
func (a *AuthService) CookieName() string {
	return a.cfg.CookieName
}

// SecureCookie reports whether the cookie is restricted to HTTPS
func (a *AuthService) SecureCookie() bool {
	return a.cfg.SecureCookie
}
