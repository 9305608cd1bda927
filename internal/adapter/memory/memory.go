// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"mealplanner/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	recipes  map[int64]domain.Recipe
	meals    map[int64]domain.PlannedMeal
	profiles map[int64]domain.Profile
	users    []*domain.User
	sessions map[string]*domain.Session

	mealIDCounter int64
	userIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		recipes:  make(map[int64]domain.Recipe),
		meals:    make(map[int64]domain.PlannedMeal),
		profiles: make(map[int64]domain.Profile),
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.RecipeCatalog = (*DB)(nil)
var _ domain.MealRepository = (*DB)(nil)
var _ domain.ProfileRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- ProfileRepository ---

// GetProfile returns the user's profile or nil.
func (db *DB) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// UpsertProfile stores p, replacing the user's previous profile.
func (db *DB) UpsertProfile(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if p.WeightLossRateKgWeek != nil {
		rate := *p.WeightLossRateKgWeek
		p.WeightLossRateKgWeek = &rate
	}
	p.UpdatedAt = time.Now().UTC()
	db.profiles[p.UserID] = p
	return &p, nil
}

// --- UserRepository ---

// GetByEmail retrieves a user by email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if strings.EqualFold(u.Email, email) {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	return u, nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create stores a new session.
func (r *SessionRepo) Create(ctx context.Context, s domain.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	r.db.sessions[s.Token] = &s
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
