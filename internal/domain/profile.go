package domain

import (
	"context"
	"time"
)

// Gender is the biological sex used by the BMR formula.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is a known gender.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// ActivityLevel selects the TDEE multiplier.
type ActivityLevel string

const (
	ActivityVeryLow  ActivityLevel = "very_low"
	ActivityLow      ActivityLevel = "low"
	ActivityModerate ActivityLevel = "moderate"
	ActivityHigh     ActivityLevel = "high"
	ActivityVeryHigh ActivityLevel = "very_high"
)

// Valid reports whether a is a known activity level.
func (a ActivityLevel) Valid() bool {
	_, ok := activityMultipliers[a]
	return ok
}

// Goal is the user's weight goal.
type Goal string

const (
	GoalWeightLoss        Goal = "weight_loss"
	GoalWeightMaintenance Goal = "weight_maintenance"
)

// Valid reports whether g is a known goal.
func (g Goal) Valid() bool {
	return g == GoalWeightLoss || g == GoalWeightMaintenance
}

// UserNutritionProfile holds the biometrics the daily targets are derived from.
type UserNutritionProfile struct {
	Gender        Gender        `json:"gender"`
	Age           int           `json:"age"`
	WeightKg      float64       `json:"weight_kg"`
	HeightCm      float64       `json:"height_cm"`
	ActivityLevel ActivityLevel `json:"activity_level"`
	Goal          Goal          `json:"goal"`
	// WeightLossRateKgWeek is only meaningful when Goal is weight_loss.
	WeightLossRateKgWeek *float64 `json:"weight_loss_rate_kg_week,omitempty"`
}

// NutritionGoals are the daily calorie and macro targets.
type NutritionGoals struct {
	TargetCalories int `json:"target_calories"`
	TargetProteinG int `json:"target_protein_g"`
	TargetCarbsG   int `json:"target_carbs_g"`
	TargetFatsG    int `json:"target_fats_g"`
}

// Profile is a stored user profile together with its derived targets.
type Profile struct {
	UserID int64 `json:"user_id"`
	UserNutritionProfile
	NutritionGoals
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileRepository is the port for profile persistence.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	UpsertProfile(ctx context.Context, p Profile) (*Profile, error)
}
