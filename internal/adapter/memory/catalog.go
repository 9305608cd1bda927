package memory

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"mealplanner/internal/domain"

	"gopkg.in/yaml.v3"
)

// AddRecipes puts recipes into the catalog, replacing any with the same id.
func (db *DB) AddRecipes(recipes ...domain.Recipe) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, r := range recipes {
		db.recipes[r.ID] = cloneRecipe(r)
	}
}

// QueryRecipes returns recipes serving q.MealType whose total calories lie
// inside the inclusive range, ordered by ascending calories. Recipes with a
// zero calorie total never match.
func (db *DB) QueryRecipes(ctx context.Context, q domain.RecipeQuery) ([]domain.Recipe, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Recipe
	for _, r := range db.recipes {
		if r.TotalCalories <= 0 || !r.Serves(q.MealType) {
			continue
		}
		if r.TotalCalories < q.MinCalories || r.TotalCalories > q.MaxCalories {
			continue
		}
		out = append(out, cloneRecipe(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalCalories != out[j].TotalCalories {
			return out[i].TotalCalories < out[j].TotalCalories
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// GetRecipe returns the recipe or nil.
func (db *DB) GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	r, ok := db.recipes[id]
	if !ok {
		return nil, nil
	}
	r = cloneRecipe(r)
	return &r, nil
}

// GetRecipes returns the recipes found among ids, keyed by id.
func (db *DB) GetRecipes(ctx context.Context, ids []int64) (map[int64]domain.Recipe, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make(map[int64]domain.Recipe, len(ids))
	for _, id := range ids {
		if r, ok := db.recipes[id]; ok {
			out[id] = cloneRecipe(r)
		}
	}
	return out, nil
}

func cloneRecipe(r domain.Recipe) domain.Recipe {
	r.MealTypes = append([]domain.MealType(nil), r.MealTypes...)
	r.Ingredients = append([]domain.RecipeIngredient(nil), r.Ingredients...)
	return r
}

type catalogFile struct {
	Ingredients []struct {
		ID       int64  `yaml:"id"`
		Name     string `yaml:"name"`
		Category string `yaml:"category"`
	} `yaml:"ingredients"`
	Recipes []struct {
		ID          int64             `yaml:"id"`
		Name        string            `yaml:"name"`
		MealTypes   []domain.MealType `yaml:"meal_types"`
		Ingredients []struct {
			IngredientID int64   `yaml:"ingredient_id"`
			BaseAmount   float64 `yaml:"base_amount"`
			Unit         string  `yaml:"unit"`
			IsScalable   bool    `yaml:"is_scalable"`
			Calories     float64 `yaml:"calories"`
			ProteinG     float64 `yaml:"protein_g"`
			CarbsG       float64 `yaml:"carbs_g"`
			FatsG        float64 `yaml:"fats_g"`
		} `yaml:"ingredients"`
	} `yaml:"recipes"`
}

// LoadRecipes decodes a YAML recipe catalog. Recipe totals are the sums of
// their ingredient lines at base amounts.
func LoadRecipes(r io.Reader) ([]domain.Recipe, error) {
	var f catalogFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	type ingredientInfo struct{ name, category string }
	ingredients := make(map[int64]ingredientInfo, len(f.Ingredients))
	for _, ing := range f.Ingredients {
		if ing.ID <= 0 {
			return nil, fmt.Errorf("ingredient %q: id must be > 0", ing.Name)
		}
		if _, dup := ingredients[ing.ID]; dup {
			return nil, fmt.Errorf("duplicate ingredient id %d", ing.ID)
		}
		ingredients[ing.ID] = ingredientInfo{ing.Name, ing.Category}
	}

	seen := make(map[int64]bool, len(f.Recipes))
	out := make([]domain.Recipe, 0, len(f.Recipes))
	for _, fr := range f.Recipes {
		if fr.ID <= 0 {
			return nil, fmt.Errorf("recipe %q: id must be > 0", fr.Name)
		}
		if seen[fr.ID] {
			return nil, fmt.Errorf("duplicate recipe id %d", fr.ID)
		}
		seen[fr.ID] = true
		if len(fr.MealTypes) == 0 {
			return nil, fmt.Errorf("recipe %d: no meal_types", fr.ID)
		}
		for _, mt := range fr.MealTypes {
			if !mt.Valid() {
				return nil, fmt.Errorf("recipe %d: unknown meal type %q", fr.ID, mt)
			}
		}

		rec := domain.Recipe{ID: fr.ID, Name: fr.Name, MealTypes: fr.MealTypes}
		for _, line := range fr.Ingredients {
			info, ok := ingredients[line.IngredientID]
			if !ok {
				return nil, fmt.Errorf("recipe %d: unknown ingredient %d", fr.ID, line.IngredientID)
			}
			rec.Ingredients = append(rec.Ingredients, domain.RecipeIngredient{
				IngredientID: line.IngredientID,
				Name:         info.name,
				Category:     info.category,
				BaseAmount:   line.BaseAmount,
				Unit:         line.Unit,
				IsScalable:   line.IsScalable,
				Calories:     line.Calories,
				ProteinG:     line.ProteinG,
				CarbsG:       line.CarbsG,
				FatsG:        line.FatsG,
			})
			rec.TotalCalories += line.Calories
			rec.TotalProteinG += line.ProteinG
			rec.TotalCarbsG += line.CarbsG
			rec.TotalFatsG += line.FatsG
		}
		out = append(out, rec)
	}
	return out, nil
}

// LoadRecipesFile reads a YAML catalog from path into db.
func (db *DB) LoadRecipesFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	recipes, err := LoadRecipes(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	db.AddRecipes(recipes...)
	return len(recipes), nil
}
