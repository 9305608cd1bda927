package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mealplanner/internal/domain"

	"github.com/lib/pq"
)

const mealColumns = "id, user_id, recipe_id, meal_date, meal_type, is_eaten, ingredient_overrides, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeal(row rowScanner) (*domain.PlannedMeal, error) {
	var (
		m         domain.PlannedMeal
		date      time.Time
		overrides []byte
	)
	if err := row.Scan(&m.ID, &m.UserID, &m.RecipeID, &date, &m.MealType, &m.IsEaten, &overrides, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.MealDate = domain.Date(date.Format(domain.DateLayout))
	if len(overrides) > 0 {
		if err := json.Unmarshal(overrides, &m.IngredientOverrides); err != nil {
			return nil, fmt.Errorf("meal %d overrides: %w", m.ID, err)
		}
	}
	return &m, nil
}

// overridesValue encodes o for the JSONB column, NULL when empty.
func overridesValue(o domain.Overrides) (any, error) {
	if len(o) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// ExistingMeals returns the occupied slots of the user on the given dates.
func (d *DB) ExistingMeals(ctx context.Context, userID int64, dates []domain.Date) ([]domain.MealSlot, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	ds := make([]string, len(dates))
	for i, dt := range dates {
		ds[i] = string(dt)
	}
	rows, err := d.sql.QueryContext(ctx,
		"SELECT meal_date, meal_type FROM planned_meals WHERE user_id = $1 AND meal_date = ANY($2::date[]) ORDER BY meal_date;",
		userID, pq.Array(ds),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.MealSlot
	for rows.Next() {
		var (
			date time.Time
			s    domain.MealSlot
		)
		if err := rows.Scan(&date, &s.MealType); err != nil {
			return nil, err
		}
		s.MealDate = domain.Date(date.Format(domain.DateLayout))
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetPlannedMeal returns the user's planned meal or nil.
func (d *DB) GetPlannedMeal(ctx context.Context, userID, id int64) (*domain.PlannedMeal, error) {
	m, err := scanMeal(d.sql.QueryRowContext(ctx,
		"SELECT "+mealColumns+" FROM planned_meals WHERE id = $1 AND user_id = $2;", id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListPlannedMeals returns the user's meals between from and to inclusive.
func (d *DB) ListPlannedMeals(ctx context.Context, userID int64, from, to domain.Date) ([]domain.PlannedMeal, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT "+mealColumns+` FROM planned_meals
		WHERE user_id = $1 AND meal_date BETWEEN $2 AND $3
		ORDER BY meal_date, CASE meal_type WHEN 'breakfast' THEN 0 WHEN 'lunch' THEN 1 ELSE 2 END;`,
		userID, string(from), string(to),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.PlannedMeal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// InsertPlannedMeals writes all drafts in one transaction.
func (d *DB) InsertPlannedMeals(ctx context.Context, drafts []domain.PlannedMealDraft) error {
	if len(drafts) == 0 {
		return nil
	}
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO planned_meals (user_id, recipe_id, meal_date, meal_type, is_eaten, ingredient_overrides, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`)
	if err != nil {
		return err
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for _, m := range drafts {
		ov, err := overridesValue(m.IngredientOverrides)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, m.UserID, m.RecipeID, string(m.MealDate), string(m.MealType), m.IsEaten, ov, now); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%s %s: %w", m.MealDate, m.MealType, domain.ErrSlotOccupied)
			}
			return err
		}
	}
	return tx.Commit()
}

// UpdatePlannedMeal applies u and returns the updated meal, or nil when the
// user has no such meal.
func (d *DB) UpdatePlannedMeal(ctx context.Context, userID, id int64, u domain.MealUpdate) (*domain.PlannedMeal, error) {
	var (
		sets []string
		args = []any{id, userID}
	)
	if u.RecipeID != nil {
		args = append(args, *u.RecipeID)
		sets = append(sets, fmt.Sprintf("recipe_id = $%d", len(args)))
	}
	if u.IsEaten != nil {
		args = append(args, *u.IsEaten)
		sets = append(sets, fmt.Sprintf("is_eaten = $%d", len(args)))
	}
	if u.SetOverrides {
		ov, err := overridesValue(u.IngredientOverrides)
		if err != nil {
			return nil, err
		}
		args = append(args, ov)
		sets = append(sets, fmt.Sprintf("ingredient_overrides = $%d", len(args)))
	}
	if len(sets) == 0 {
		return d.GetPlannedMeal(ctx, userID, id)
	}

	m, err := scanMeal(d.sql.QueryRowContext(ctx,
		"UPDATE planned_meals SET "+strings.Join(sets, ", ")+" WHERE id = $1 AND user_id = $2 RETURNING "+mealColumns+";",
		args...,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// DeletePlannedMealsBefore removes the user's meals dated before cutoff and
// returns how many were removed.
func (d *DB) DeletePlannedMealsBefore(ctx context.Context, userID int64, cutoff domain.Date) (int, error) {
	res, err := d.sql.ExecContext(ctx,
		"DELETE FROM planned_meals WHERE user_id = $1 AND meal_date < $2;", userID, string(cutoff))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
