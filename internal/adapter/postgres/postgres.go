// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mealplanner/internal/domain"

	"github.com/lib/pq"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// Ensure interfaces are met.
var _ domain.RecipeCatalog = (*DB)(nil)
var _ domain.MealRepository = (*DB)(nil)
var _ domain.ProfileRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS users (id BIGSERIAL PRIMARY KEY, email TEXT UNIQUE NOT NULL, password_hash TEXT NOT NULL DEFAULT '', created_at TIMESTAMPTZ NOT NULL);",
		"CREATE TABLE IF NOT EXISTS sessions (token TEXT PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, user_agent TEXT NOT NULL DEFAULT '', ip TEXT NOT NULL DEFAULT '', expires_at TIMESTAMPTZ NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			gender TEXT NOT NULL CHECK (gender IN ('male','female')),
			age INTEGER NOT NULL CHECK (age > 0),
			weight_kg DOUBLE PRECISION NOT NULL CHECK (weight_kg > 0),
			height_cm DOUBLE PRECISION NOT NULL CHECK (height_cm > 0),
			activity_level TEXT NOT NULL CHECK (activity_level IN ('very_low','low','moderate','high','very_high')),
			goal TEXT NOT NULL CHECK (goal IN ('weight_loss','weight_maintenance')),
			weight_loss_rate_kg_week DOUBLE PRECISION,
			target_calories INTEGER NOT NULL,
			target_protein_g INTEGER NOT NULL,
			target_carbs_g INTEGER NOT NULL,
			target_fats_g INTEGER NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE TABLE IF NOT EXISTS ingredients (id BIGSERIAL PRIMARY KEY, name TEXT NOT NULL, category TEXT);",
		`CREATE TABLE IF NOT EXISTS recipes (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			meal_types TEXT[] NOT NULL,
			total_calories DOUBLE PRECISION,
			total_protein_g DOUBLE PRECISION,
			total_carbs_g DOUBLE PRECISION,
			total_fats_g DOUBLE PRECISION
		);`,
		"CREATE INDEX IF NOT EXISTS idx_recipes_total_calories ON recipes(total_calories);",
		"CREATE INDEX IF NOT EXISTS idx_recipes_meal_types ON recipes USING GIN (meal_types);",
		`CREATE TABLE IF NOT EXISTS recipe_ingredients (
			recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
			ingredient_id BIGINT NOT NULL REFERENCES ingredients(id),
			position INTEGER NOT NULL DEFAULT 0,
			base_amount DOUBLE PRECISION NOT NULL CHECK (base_amount >= 0),
			unit TEXT NOT NULL,
			is_scalable BOOLEAN NOT NULL DEFAULT FALSE,
			calories DOUBLE PRECISION NOT NULL DEFAULT 0,
			protein_g DOUBLE PRECISION NOT NULL DEFAULT 0,
			carbs_g DOUBLE PRECISION NOT NULL DEFAULT 0,
			fats_g DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (recipe_id, ingredient_id)
		);`,
		`CREATE TABLE IF NOT EXISTS planned_meals (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			recipe_id BIGINT NOT NULL REFERENCES recipes(id),
			meal_date DATE NOT NULL,
			meal_type TEXT NOT NULL CHECK (meal_type IN ('breakfast','lunch','dinner')),
			is_eaten BOOLEAN NOT NULL DEFAULT FALSE,
			ingredient_overrides JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (user_id, meal_date, meal_type)
		);`,
		"CREATE INDEX IF NOT EXISTS idx_planned_meals_user_date ON planned_meals(user_id, meal_date);",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
