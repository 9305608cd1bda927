package app

import (
	"math"

	"mealplanner/internal/domain"
)

const (
	// MaxIngredientChangePercent caps how far a single ingredient may be reduced.
	MaxIngredientChangePercent = 20
	// IngredientRoundingStep is the granularity of optimized amounts.
	IngredientRoundingStep = 5
	// MacroSurplusThreshold is the day/target ratio above which a macro is corrected.
	MacroSurplusThreshold = 1.05
)

// Correction is the outcome class of OptimizeDay.
type Correction string

const (
	NoActionNeeded    Correction = "no_action_needed"
	CalorieCorrection Correction = "calorie_correction"
	MacroCorrection   Correction = "macro_correction"
)

// Macro names used in optimizer decisions.
const (
	MacroProtein = "protein"
	MacroCarbs   = "carbs"
	MacroFats    = "fats"
)

// Decision describes what the optimizer chose for a day. Override is nil when
// no action was needed or when no scalable ingredient could absorb the
// correction; otherwise it belongs to the recipe at MealIndex.
type Decision struct {
	Correction Correction
	Macro      string
	DayTotals  domain.Macros
	MealIndex  int
	Override   *domain.IngredientOverride
}

// OptimizeDay evaluates a day's recipes at base amounts against goals and
// returns at most one ingredient reduction. Calorie overshoot takes priority
// over macro overshoot.
func OptimizeDay(recipes []domain.Recipe, goals domain.NutritionGoals) Decision {
	day := domain.SumRecipeMacros(recipes, nil)
	d := Decision{Correction: NoActionNeeded, DayTotals: day}

	if target := float64(goals.TargetCalories); day.Calories > target {
		d.Correction = CalorieCorrection
		surplus := day.Calories - target
		idx, ing, ok := topScalable(recipes, func(i domain.RecipeIngredient) float64 { return i.Calories })
		if ok {
			d.MealIndex = idx
			d.Override = reduceIngredient(ing, surplus/(ing.Calories/ing.BaseAmount))
		}
		return d
	}

	macros := []struct {
		name   string
		value  float64
		target float64
		per    func(domain.RecipeIngredient) float64
	}{
		{MacroProtein, day.ProteinG, float64(goals.TargetProteinG), func(i domain.RecipeIngredient) float64 { return i.ProteinG }},
		{MacroCarbs, day.CarbsG, float64(goals.TargetCarbsG), func(i domain.RecipeIngredient) float64 { return i.CarbsG }},
		{MacroFats, day.FatsG, float64(goals.TargetFatsG), func(i domain.RecipeIngredient) float64 { return i.FatsG }},
	}

	best := -1
	var bestSurplus float64
	for i, m := range macros {
		surplus := m.value - m.target
		if surplus <= 0 || m.target == 0 || m.value/m.target <= MacroSurplusThreshold {
			continue
		}
		if best < 0 || surplus > bestSurplus {
			best, bestSurplus = i, surplus
		}
	}
	if best < 0 {
		return d
	}

	m := macros[best]
	d.Correction = MacroCorrection
	d.Macro = m.name
	idx, ing, ok := topScalable(recipes, m.per)
	if ok {
		d.MealIndex = idx
		d.Override = reduceIngredient(ing, bestSurplus/m.per(ing)*ing.BaseAmount)
	}
	return d
}

// topScalable finds the scalable ingredient with the largest positive value
// of field across all recipes. The first one wins on ties.
func topScalable(recipes []domain.Recipe, field func(domain.RecipeIngredient) float64) (int, domain.RecipeIngredient, bool) {
	var (
		bestIdx = -1
		best    domain.RecipeIngredient
		bestVal float64
	)
	for i, r := range recipes {
		for _, ing := range r.Ingredients {
			if !ing.IsScalable || ing.BaseAmount <= 0 {
				continue
			}
			v := field(ing)
			if v <= 0 {
				continue
			}
			if bestIdx < 0 || v > bestVal {
				bestIdx, best, bestVal = i, ing, v
			}
		}
	}
	return bestIdx, best, bestIdx >= 0
}

// reduceIngredient lowers ing by amount, capped at MaxIngredientChangePercent
// of its base amount, floored at zero and rounded to IngredientRoundingStep.
func reduceIngredient(ing domain.RecipeIngredient, amount float64) *domain.IngredientOverride {
	limit := ing.BaseAmount * MaxIngredientChangePercent / 100
	newAmount := math.Max(0, ing.BaseAmount-math.Min(amount, limit))
	newAmount = math.Floor(newAmount/IngredientRoundingStep+0.5) * IngredientRoundingStep
	return &domain.IngredientOverride{
		IngredientID: ing.IngredientID,
		NewAmount:    newAmount,
		AutoAdjusted: true,
	}
}
