package domain

import "math"

const (
	// MinTargetCalories is the floor applied to weight-loss targets.
	MinTargetCalories = 1200
	// DefaultWeightLossRateKgWeek is used when a weight-loss profile has no rate.
	DefaultWeightLossRateKgWeek = 0.5
	kcalPerKgFat                = 7700

	carbsShare   = 0.15
	proteinShare = 0.35
	fatsShare    = 0.50

	kcalPerGramCarbs   = 4
	kcalPerGramProtein = 4
	kcalPerGramFat     = 9
)

var activityMultipliers = map[ActivityLevel]float64{
	ActivityVeryLow:  1.2,
	ActivityLow:      1.375,
	ActivityModerate: 1.55,
	ActivityHigh:     1.725,
	ActivityVeryHigh: 1.9,
}

// CalculateBMR returns the Mifflin-St Jeor basal metabolic rate in kcal.
func CalculateBMR(p UserNutritionProfile) int {
	bmr := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	if p.Gender == GenderMale {
		bmr += 5
	} else {
		bmr -= 161
	}
	return int(roundHalfUp(bmr))
}

// CalculateTDEE returns BMR scaled by the activity multiplier. An unknown
// activity level yields 0.
func CalculateTDEE(p UserNutritionProfile) int {
	return int(roundHalfUp(float64(CalculateBMR(p)) * activityMultipliers[p.ActivityLevel]))
}

// CalculateTargetCalories returns the daily calorie target for p.
func CalculateTargetCalories(p UserNutritionProfile) int {
	rate := 0.0
	if p.WeightLossRateKgWeek != nil {
		rate = *p.WeightLossRateKgWeek
	}
	return TargetCaloriesFromTDEE(CalculateTDEE(p), p.Goal, rate)
}

// TargetCaloriesFromTDEE applies the goal to a TDEE. A zero rate means the
// default 0.5 kg/week; the result never drops below MinTargetCalories.
func TargetCaloriesFromTDEE(tdee int, goal Goal, rateKgWeek float64) int {
	if goal != GoalWeightLoss {
		return tdee
	}
	if rateKgWeek == 0 {
		rateKgWeek = DefaultWeightLossRateKgWeek
	}
	deficit := int(roundHalfUp(rateKgWeek * kcalPerKgFat / 7))
	return max(MinTargetCalories, tdee-deficit)
}

// CalculateNutritionGoals derives calorie and macro targets from p.
func CalculateNutritionGoals(p UserNutritionProfile) NutritionGoals {
	return MacroTargets(CalculateTargetCalories(p))
}

// MacroTargets splits targetCalories into gram targets (carbs 15%, protein
// 35%, fats 50%). Each macro is rounded on its own, so the grams need not
// add back up to targetCalories exactly.
func MacroTargets(targetCalories int) NutritionGoals {
	kcal := float64(targetCalories)
	return NutritionGoals{
		TargetCalories: targetCalories,
		TargetCarbsG:   int(roundHalfUp(kcal * carbsShare / kcalPerGramCarbs)),
		TargetProteinG: int(roundHalfUp(kcal * proteinShare / kcalPerGramProtein)),
		TargetFatsG:    int(roundHalfUp(kcal * fatsShare / kcalPerGramFat)),
	}
}

// roundHalfUp rounds to the nearest integer with ties toward +Inf.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// roundTenth rounds v to one decimal place, ties toward +Inf.
func roundTenth(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
