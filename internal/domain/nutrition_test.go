package domain_test

import (
	"testing"

	"mealplanner/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestCalculateNutritionGoals_WeightLossMale(t *testing.T) {
	p := domain.UserNutritionProfile{
		Gender:               domain.GenderMale,
		Age:                  35,
		WeightKg:             85,
		HeightCm:             180,
		ActivityLevel:        domain.ActivityModerate,
		Goal:                 domain.GoalWeightLoss,
		WeightLossRateKgWeek: ptr(0.5),
	}

	if got := domain.CalculateBMR(p); got != 1805 {
		t.Fatalf("CalculateBMR = %d; want 1805", got)
	}
	if got := domain.CalculateTDEE(p); got != 2798 {
		t.Fatalf("CalculateTDEE = %d; want 2798", got)
	}

	want := domain.NutritionGoals{
		TargetCalories: 2248,
		TargetCarbsG:   84,
		TargetProteinG: 197,
		TargetFatsG:    125,
	}
	if got := domain.CalculateNutritionGoals(p); got != want {
		t.Fatalf("CalculateNutritionGoals = %+v; want %+v", got, want)
	}
}

func TestTargetCaloriesFromTDEE(t *testing.T) {
	tests := []struct {
		name string
		tdee int
		goal domain.Goal
		rate float64
		want int
	}{
		{"half kg per week", 2720, domain.GoalWeightLoss, 0.5, 2170},
		{"default rate", 2720, domain.GoalWeightLoss, 0, 2170},
		{"one kg per week", 2720, domain.GoalWeightLoss, 1, 1620},
		{"floor applies", 1500, domain.GoalWeightLoss, 1, domain.MinTargetCalories},
		{"maintenance ignores rate", 2720, domain.GoalWeightMaintenance, 1, 2720},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := domain.TargetCaloriesFromTDEE(tc.tdee, tc.goal, tc.rate); got != tc.want {
				t.Errorf("TargetCaloriesFromTDEE(%d, %q, %v) = %d; want %d", tc.tdee, tc.goal, tc.rate, got, tc.want)
			}
		})
	}
}

func TestMacroTargets(t *testing.T) {
	want := domain.NutritionGoals{
		TargetCalories: 2170,
		TargetCarbsG:   81,
		TargetProteinG: 190,
		TargetFatsG:    121,
	}
	if got := domain.MacroTargets(2170); got != want {
		t.Fatalf("MacroTargets(2170) = %+v; want %+v", got, want)
	}
}

func TestCalculateBMR_Female(t *testing.T) {
	p := domain.UserNutritionProfile{Gender: domain.GenderFemale, Age: 30, WeightKg: 60, HeightCm: 165}
	// 600 + 1031.25 - 150 - 161 = 1320.25
	if got := domain.CalculateBMR(p); got != 1320 {
		t.Fatalf("CalculateBMR = %d; want 1320", got)
	}
}

func TestCalculateTargetCalories_NeverBelowFloor(t *testing.T) {
	levels := []domain.ActivityLevel{
		domain.ActivityVeryLow, domain.ActivityLow, domain.ActivityModerate,
		domain.ActivityHigh, domain.ActivityVeryHigh,
	}
	for _, g := range []domain.Gender{domain.GenderMale, domain.GenderFemale} {
		for _, lvl := range levels {
			for _, rate := range []float64{0.25, 0.5, 1, 2, 5} {
				for age := 18; age <= 90; age += 12 {
					p := domain.UserNutritionProfile{
						Gender: g, Age: age, WeightKg: 45, HeightCm: 150,
						ActivityLevel: lvl, Goal: domain.GoalWeightLoss,
						WeightLossRateKgWeek: ptr(rate),
					}
					if got := domain.CalculateTargetCalories(p); got < domain.MinTargetCalories {
						t.Fatalf("target %d below floor for %+v", got, p)
					}
				}
			}
		}
	}
}

func TestCalculateNutritionGoals_Deterministic(t *testing.T) {
	p := domain.UserNutritionProfile{
		Gender: domain.GenderFemale, Age: 41, WeightKg: 72.4, HeightCm: 168.5,
		ActivityLevel: domain.ActivityHigh, Goal: domain.GoalWeightMaintenance,
	}
	first := domain.CalculateNutritionGoals(p)
	for i := 0; i < 100; i++ {
		if got := domain.CalculateNutritionGoals(p); got != first {
			t.Fatalf("call %d returned %+v; want %+v", i, got, first)
		}
	}
}

func TestEnumValidity(t *testing.T) {
	if !domain.ActivityVeryHigh.Valid() || domain.ActivityLevel("extreme").Valid() {
		t.Error("ActivityLevel.Valid mismatch")
	}
	if !domain.GenderFemale.Valid() || domain.Gender("x").Valid() {
		t.Error("Gender.Valid mismatch")
	}
	if !domain.GoalWeightLoss.Valid() || domain.Goal("bulk").Valid() {
		t.Error("Goal.Valid mismatch")
	}
	if !domain.Dinner.Valid() || domain.MealType("brunch").Valid() {
		t.Error("MealType.Valid mismatch")
	}
}
