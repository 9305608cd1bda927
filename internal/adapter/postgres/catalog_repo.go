package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"mealplanner/internal/domain"

	"github.com/lib/pq"
)

const recipeColumns = "id, name, meal_types, COALESCE(total_calories, 0), COALESCE(total_protein_g, 0), COALESCE(total_carbs_g, 0), COALESCE(total_fats_g, 0)"

// QueryRecipes returns recipes serving q.MealType with positive calories in
// the inclusive range, ordered by ascending calories, with ingredients.
func (d *DB) QueryRecipes(ctx context.Context, q domain.RecipeQuery) ([]domain.Recipe, error) {
	var limit any
	if q.Limit > 0 {
		limit = q.Limit
	}
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+recipeColumns+` FROM recipes
		WHERE $1 = ANY(meal_types) AND total_calories > 0 AND total_calories BETWEEN $2 AND $3
		ORDER BY total_calories, id LIMIT $4;`,
		string(q.MealType), q.MinCalories, q.MaxCalories, limit,
	)
	if err != nil {
		return nil, err
	}
	recipes, err := scanRecipes(rows)
	if err != nil {
		return nil, err
	}
	if err := d.attachIngredients(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// GetRecipe returns the recipe with its ingredients, or nil.
func (d *DB) GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error) {
	found, err := d.GetRecipes(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	r, ok := found[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// GetRecipes returns the recipes found among ids, keyed by id.
func (d *DB) GetRecipes(ctx context.Context, ids []int64) (map[int64]domain.Recipe, error) {
	out := make(map[int64]domain.Recipe, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+recipeColumns+" FROM recipes WHERE id = ANY($1);", pq.Array(ids))
	if err != nil {
		return nil, err
	}
	recipes, err := scanRecipes(rows)
	if err != nil {
		return nil, err
	}
	if err := d.attachIngredients(ctx, recipes); err != nil {
		return nil, err
	}
	for _, r := range recipes {
		out[r.ID] = r
	}
	return out, nil
}

func scanRecipes(rows *sql.Rows) ([]domain.Recipe, error) {
	defer rows.Close() //nolint:errcheck

	var out []domain.Recipe
	for rows.Next() {
		var (
			r     domain.Recipe
			types []string
		)
		if err := rows.Scan(&r.ID, &r.Name, pq.Array(&types), &r.TotalCalories, &r.TotalProteinG, &r.TotalCarbsG, &r.TotalFatsG); err != nil {
			return nil, err
		}
		for _, t := range types {
			r.MealTypes = append(r.MealTypes, domain.MealType(t))
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// attachIngredients loads the ingredient lines of recipes in one query.
func (d *DB) attachIngredients(ctx context.Context, recipes []domain.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]int64, len(recipes))
	index := make(map[int64]int, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		index[r.ID] = i
	}

	rows, err := d.sql.QueryContext(ctx, `
		SELECT ri.recipe_id, ri.ingredient_id, i.name, COALESCE(i.category, ''), ri.base_amount, ri.unit,
		       ri.is_scalable, ri.calories, ri.protein_g, ri.carbs_g, ri.fats_g
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = ANY($1)
		ORDER BY ri.recipe_id, ri.position, ri.ingredient_id;`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var (
			recipeID int64
			ing      domain.RecipeIngredient
		)
		if err := rows.Scan(&recipeID, &ing.IngredientID, &ing.Name, &ing.Category, &ing.BaseAmount, &ing.Unit,
			&ing.IsScalable, &ing.Calories, &ing.ProteinG, &ing.CarbsG, &ing.FatsG); err != nil {
			return err
		}
		i := index[recipeID]
		recipes[i].Ingredients = append(recipes[i].Ingredients, ing)
	}
	return rows.Err()
}

// ImportRecipes upserts recipes and their ingredients in one transaction.
// Each recipe's ingredient lines are replaced.
func (d *DB) ImportRecipes(ctx context.Context, recipes []domain.Recipe) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for _, r := range recipes {
		types := make([]string, len(r.MealTypes))
		for i, t := range r.MealTypes {
			types[i] = string(t)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recipes (id, name, meal_types, total_calories, total_protein_g, total_carbs_g, total_fats_g)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, meal_types = EXCLUDED.meal_types,
				total_calories = EXCLUDED.total_calories, total_protein_g = EXCLUDED.total_protein_g,
				total_carbs_g = EXCLUDED.total_carbs_g, total_fats_g = EXCLUDED.total_fats_g;`,
			r.ID, r.Name, pq.Array(types), r.TotalCalories, r.TotalProteinG, r.TotalCarbsG, r.TotalFatsG,
		); err != nil {
			return fmt.Errorf("import recipe %d: %w", r.ID, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_ingredients WHERE recipe_id = $1;", r.ID); err != nil {
			return err
		}
		for pos, ing := range r.Ingredients {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO ingredients (id, name, category) VALUES ($1, $2, NULLIF($3, ''))
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, category = EXCLUDED.category;`,
				ing.IngredientID, ing.Name, ing.Category,
			); err != nil {
				return fmt.Errorf("import ingredient %d: %w", ing.IngredientID, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO recipe_ingredients (recipe_id, ingredient_id, position, base_amount, unit, is_scalable, calories, protein_g, carbs_g, fats_g)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`,
				r.ID, ing.IngredientID, pos, ing.BaseAmount, ing.Unit, ing.IsScalable, ing.Calories, ing.ProteinG, ing.CarbsG, ing.FatsG,
			); err != nil {
				return fmt.Errorf("import recipe %d ingredient %d: %w", r.ID, ing.IngredientID, err)
			}
		}
	}

	for _, table := range []string{"recipes", "ingredients"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 1));", table),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}
