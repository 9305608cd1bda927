package postgres

import (
	"context"
	"database/sql"
	"time"

	"mealplanner/internal/domain"
)

const profileColumns = `user_id, gender, age, weight_kg, height_cm, activity_level, goal, weight_loss_rate_kg_week,
	target_calories, target_protein_g, target_carbs_g, target_fats_g, updated_at`

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var (
		p    domain.Profile
		rate sql.NullFloat64
	)
	err := row.Scan(&p.UserID, &p.Gender, &p.Age, &p.WeightKg, &p.HeightCm, &p.ActivityLevel, &p.Goal, &rate,
		&p.TargetCalories, &p.TargetProteinG, &p.TargetCarbsG, &p.TargetFatsG, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if rate.Valid {
		p.WeightLossRateKgWeek = &rate.Float64
	}
	return &p, nil
}

// GetProfile returns the user's profile or nil.
func (d *DB) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	p, err := scanProfile(d.sql.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE user_id = $1;", userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpsertProfile inserts or replaces the user's profile.
func (d *DB) UpsertProfile(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	var rate sql.NullFloat64
	if p.WeightLossRateKgWeek != nil {
		rate = sql.NullFloat64{Float64: *p.WeightLossRateKgWeek, Valid: true}
	}
	return scanProfile(d.sql.QueryRowContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			gender = EXCLUDED.gender, age = EXCLUDED.age, weight_kg = EXCLUDED.weight_kg,
			height_cm = EXCLUDED.height_cm, activity_level = EXCLUDED.activity_level, goal = EXCLUDED.goal,
			weight_loss_rate_kg_week = EXCLUDED.weight_loss_rate_kg_week,
			target_calories = EXCLUDED.target_calories, target_protein_g = EXCLUDED.target_protein_g,
			target_carbs_g = EXCLUDED.target_carbs_g, target_fats_g = EXCLUDED.target_fats_g,
			updated_at = EXCLUDED.updated_at
		RETURNING `+profileColumns+";",
		p.UserID, string(p.Gender), p.Age, p.WeightKg, p.HeightCm, string(p.ActivityLevel), string(p.Goal), rate,
		p.TargetCalories, p.TargetProteinG, p.TargetCarbsG, p.TargetFatsG, time.Now().UTC(),
	))
}
