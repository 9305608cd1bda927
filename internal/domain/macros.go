package domain

// Macros is a calorie and macronutrient total.
type Macros struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatsG    float64 `json:"fats_g"`
}

// Add returns the element-wise sum of m and o.
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		ProteinG: m.ProteinG + o.ProteinG,
		CarbsG:   m.CarbsG + o.CarbsG,
		FatsG:    m.FatsG + o.FatsG,
	}
}

// CalculateRecipeMacros materializes a recipe's nutrition with overrides
// applied. Ingredients with a zero base amount contribute nothing. A recipe
// without an ingredient breakdown falls back to its precomputed totals.
// Calories are rounded to an integer and macros to one decimal place.
func CalculateRecipeMacros(r Recipe, overrides Overrides) Macros {
	if len(r.Ingredients) == 0 {
		return Macros{
			Calories: r.TotalCalories,
			ProteinG: r.TotalProteinG,
			CarbsG:   r.TotalCarbsG,
			FatsG:    r.TotalFatsG,
		}
	}

	var sum Macros
	for _, ing := range r.Ingredients {
		if ing.BaseAmount == 0 {
			continue
		}
		scale := EffectiveAmount(ing, overrides) / ing.BaseAmount
		sum.Calories += ing.Calories * scale
		sum.ProteinG += ing.ProteinG * scale
		sum.CarbsG += ing.CarbsG * scale
		sum.FatsG += ing.FatsG * scale
	}

	return Macros{
		Calories: roundHalfUp(sum.Calories),
		ProteinG: roundTenth(sum.ProteinG),
		CarbsG:   roundTenth(sum.CarbsG),
		FatsG:    roundTenth(sum.FatsG),
	}
}

// EffectiveAmount is the override amount for ing if one exists, else its base amount.
func EffectiveAmount(ing RecipeIngredient, overrides Overrides) float64 {
	if o, ok := overrides.Get(ing.IngredientID); ok {
		return o.NewAmount
	}
	return ing.BaseAmount
}

// SumRecipeMacros aggregates a day: each recipe is materialized with its own
// overrides, then the per-recipe values are summed. overrides may be shorter
// than recipes.
func SumRecipeMacros(recipes []Recipe, overrides []Overrides) Macros {
	var total Macros
	for i, r := range recipes {
		var o Overrides
		if i < len(overrides) {
			o = overrides[i]
		}
		total = total.Add(CalculateRecipeMacros(r, o))
	}
	return total
}
