package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"mealplanner/internal/domain"
)

// DefaultIngredientCategory groups ingredients that have no category.
const DefaultIngredientCategory = "other"

// ErrInvalidDateRange indicates a shopping-list range whose end precedes its start.
var ErrInvalidDateRange = errors.New("end date is before start date")

// ShoppingItem is the total amount of one ingredient needed for a range.
type ShoppingItem struct {
	IngredientID int64   `json:"ingredient_id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	TotalAmount  float64 `json:"total_amount"`
	Unit         string  `json:"unit"`
}

// ShoppingCategory groups items of one category.
type ShoppingCategory struct {
	Category string         `json:"category"`
	Items    []ShoppingItem `json:"items"`
}

// ShoppingService builds shopping lists from planned meals.
type ShoppingService struct {
	catalog domain.RecipeCatalog
	meals   domain.MealRepository
}

// NewShoppingService creates a ShoppingService.
func NewShoppingService(catalog domain.RecipeCatalog, meals domain.MealRepository) *ShoppingService {
	return &ShoppingService{catalog: catalog, meals: meals}
}

// ShoppingList sums the effective ingredient amounts of every meal planned
// between start and end inclusive, grouped by category.
func (s *ShoppingService) ShoppingList(ctx context.Context, userID int64, start, end domain.Date) ([]ShoppingCategory, error) {
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}
	meals, err := s.meals.ListPlannedMeals(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	ids := make([]int64, 0, len(meals))
	for _, m := range meals {
		ids = append(ids, m.RecipeID)
	}
	recipes, err := s.catalog.GetRecipes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}

	items := make(map[int64]*ShoppingItem)
	for _, m := range meals {
		r, ok := recipes[m.RecipeID]
		if !ok {
			continue
		}
		for _, ing := range r.Ingredients {
			amount := domain.EffectiveAmount(ing, m.IngredientOverrides)
			if it, ok := items[ing.IngredientID]; ok {
				it.TotalAmount += amount
				continue
			}
			category := ing.Category
			if category == "" {
				category = DefaultIngredientCategory
			}
			items[ing.IngredientID] = &ShoppingItem{
				IngredientID: ing.IngredientID,
				Name:         ing.Name,
				Category:     category,
				TotalAmount:  amount,
				Unit:         ing.Unit,
			}
		}
	}

	byCategory := make(map[string][]ShoppingItem)
	for _, it := range items {
		byCategory[it.Category] = append(byCategory[it.Category], *it)
	}
	out := make([]ShoppingCategory, 0, len(byCategory))
	for c, list := range byCategory {
		sort.Slice(list, func(i, j int) bool {
			if list[i].Name != list[j].Name {
				return list[i].Name < list[j].Name
			}
			return list[i].IngredientID < list[j].IngredientID
		})
		out = append(out, ShoppingCategory{Category: c, Items: list})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}
