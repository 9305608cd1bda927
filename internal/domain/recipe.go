package domain

import "context"

// MealType is one of the three daily meal slots.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
)

// MealTypes lists the daily slots in generation order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner}

// MealsPerDay is the number of slots in a complete day.
const MealsPerDay = 3

// Valid reports whether m is a known meal slot.
func (m MealType) Valid() bool {
	return m == Breakfast || m == Lunch || m == Dinner
}

// RecipeIngredient is one ingredient line of a recipe. The nutrition fields
// are the contribution at BaseAmount and scale linearly with the amount.
type RecipeIngredient struct {
	IngredientID int64   `json:"ingredient_id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	BaseAmount   float64 `json:"base_amount"`
	Unit         string  `json:"unit"`
	IsScalable   bool    `json:"is_scalable"`
	Calories     float64 `json:"calories"`
	ProteinG     float64 `json:"protein_g"`
	CarbsG       float64 `json:"carbs_g"`
	FatsG        float64 `json:"fats_g"`
}

// Recipe is an immutable catalog entry. Totals are precomputed at base amounts.
type Recipe struct {
	ID            int64              `json:"id"`
	Name          string             `json:"name"`
	MealTypes     []MealType         `json:"meal_types"`
	TotalCalories float64            `json:"total_calories"`
	TotalProteinG float64            `json:"total_protein_g"`
	TotalCarbsG   float64            `json:"total_carbs_g"`
	TotalFatsG    float64            `json:"total_fats_g"`
	Ingredients   []RecipeIngredient `json:"ingredients"`
}

// Serves reports whether the recipe may be planned for slot m.
func (r Recipe) Serves(m MealType) bool {
	for _, t := range r.MealTypes {
		if t == m {
			return true
		}
	}
	return false
}

// Ingredient returns the recipe's line for ingredientID.
func (r Recipe) Ingredient(ingredientID int64) (RecipeIngredient, bool) {
	for _, ing := range r.Ingredients {
		if ing.IngredientID == ingredientID {
			return ing, true
		}
	}
	return RecipeIngredient{}, false
}

// RecipeQuery filters the catalog by slot and an inclusive calorie range.
type RecipeQuery struct {
	MealType    MealType
	MinCalories float64
	MaxCalories float64
	// Limit caps the result size; zero means no limit.
	Limit int
}

// RecipeCatalog is the read-only port onto the recipe catalog. QueryRecipes
// returns recipes inside the calorie range, ordered by ascending total
// calories, each with its full ingredient breakdown. A TotalCalories of 0
// means the total is unknown, and such recipes never match a query.
type RecipeCatalog interface {
	QueryRecipes(ctx context.Context, q RecipeQuery) ([]Recipe, error)
	GetRecipe(ctx context.Context, id int64) (*Recipe, error)
	GetRecipes(ctx context.Context, ids []int64) (map[int64]Recipe, error)
}
