// Package app holds the application services: plan generation and
// maintenance, the day optimizer, profiles, planned meals, shopping lists
// and authentication.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"mealplanner/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates that the provided email or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken indicates that an account with the email already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidRegistration indicates a malformed email or a too-short password.
	ErrInvalidRegistration = errors.New("invalid registration")
)

const (
	// SessionTTL is how long a session stays valid after login.
	SessionTTL = 24 * time.Hour
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8
)

// AuthService handles registration, login and session management.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	log      *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		log:      log,
	}
}

// Register creates an email/password account.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: malformed email", ErrInvalidRegistration)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidRegistration, MinPasswordLength)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Create(ctx, email, string(hash))
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Int64("user_id", u.ID))
	return u, nil
}

// Login authenticates a user and creates a session.
func (s *AuthService) Login(ctx context.Context, email, password, userAgent, ip string) (string, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil || user == nil || user.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.createSession(ctx, user.ID, userAgent, ip)
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession checks if a session token is valid and matches the user agent.
func (s *AuthService) ValidateSession(ctx context.Context, token, userAgent string) (*domain.User, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil || session == nil {
		return nil, ErrSessionNotFound
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	if session.UserAgent != userAgent {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil || user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// LoginWithUser creates a session for an already authenticated user (e.g. via SSO).
func (s *AuthService) LoginWithUser(ctx context.Context, email, userAgent, ip string) (string, error) {
	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		// SSO accounts have no password hash.
		user, err = s.users.Create(ctx, email, "")
		if err != nil {
			// Lost a race with a concurrent first login.
			user, err = s.users.GetByEmail(ctx, email)
			if err != nil || user == nil {
				return "", fmt.Errorf("provision sso user: %w", ErrUserNotFound)
			}
		}
	}

	return s.createSession(ctx, user.ID, userAgent, ip)
}

// PurgeExpiredSessions removes sessions past their expiry.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx)
}

func (s *AuthService) createSession(ctx context.Context, userID int64, userAgent, ip string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	now := time.Now()
	if err := s.sessions.Create(ctx, domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: now.Add(SessionTTL),
		CreatedAt: now,
	}); err != nil {
		return "", err
	}

	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
