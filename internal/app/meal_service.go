package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"mealplanner/internal/domain"

	"go.uber.org/zap"
)

var (
	// ErrInvalidOverride indicates an ingredient amount that cannot be stored.
	ErrInvalidOverride = errors.New("invalid ingredient override")
	// ErrIngredientNotInRecipe indicates an override for an ingredient the meal's recipe does not use.
	ErrIngredientNotInRecipe = errors.New("ingredient is not part of the recipe")
)

// MealView is a planned meal with its recipe and its nutrition after overrides.
type MealView struct {
	domain.PlannedMeal
	Recipe domain.Recipe `json:"recipe"`
	Macros domain.Macros `json:"macros"`
}

// DayPlan is the derived view of one date.
type DayPlan struct {
	Date     domain.Date `json:"date"`
	Meals    []MealView  `json:"meals"`
	Complete bool        `json:"complete"`
	// Totals sums every meal of the day; Eaten only those marked eaten.
	Totals  domain.Macros          `json:"totals"`
	Eaten   domain.Macros          `json:"eaten"`
	Targets *domain.NutritionGoals `json:"targets"`
}

// WeekPlan is seven consecutive DayPlans.
type WeekPlan struct {
	Start        domain.Date `json:"start"`
	Days         []DayPlan   `json:"days"`
	Complete     bool        `json:"complete"`
	MissingMeals int         `json:"missing_meals"`
}

// MealService handles the per-meal user actions and the day and week views.
type MealService struct {
	catalog  domain.RecipeCatalog
	meals    domain.MealRepository
	profiles domain.ProfileRepository
	log      *zap.Logger
}

// NewMealService creates a MealService.
func NewMealService(catalog domain.RecipeCatalog, meals domain.MealRepository, profiles domain.ProfileRepository, log *zap.Logger) *MealService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MealService{catalog: catalog, meals: meals, profiles: profiles, log: log}
}

// ToggleEaten sets the eaten flag of a planned meal.
func (s *MealService) ToggleEaten(ctx context.Context, userID, mealID int64, isEaten bool) (*domain.PlannedMeal, error) {
	m, err := s.meals.UpdatePlannedMeal(ctx, userID, mealID, domain.MealUpdate{IsEaten: &isEaten})
	if err != nil {
		return nil, fmt.Errorf("update meal %d: %w", mealID, err)
	}
	if m == nil {
		return nil, ErrMealNotFound
	}
	return m, nil
}

// UpdateIngredientAmount stores a user override for one ingredient of a
// planned meal, replacing any previous override for that ingredient.
func (s *MealService) UpdateIngredientAmount(ctx context.Context, userID, mealID, ingredientID int64, newAmount float64) (*domain.PlannedMeal, error) {
	ov := domain.IngredientOverride{IngredientID: ingredientID, NewAmount: newAmount}
	if err := ov.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOverride, err)
	}

	meal, err := s.meals.GetPlannedMeal(ctx, userID, mealID)
	if err != nil {
		return nil, fmt.Errorf("load meal %d: %w", mealID, err)
	}
	if meal == nil {
		return nil, ErrMealNotFound
	}
	r, err := s.catalog.GetRecipe(ctx, meal.RecipeID)
	if err != nil {
		return nil, fmt.Errorf("load recipe %d: %w", meal.RecipeID, err)
	}
	if r == nil {
		return nil, ErrRecipeNotFound
	}
	if _, ok := r.Ingredient(ingredientID); !ok {
		return nil, fmt.Errorf("%w: ingredient %d, recipe %d", ErrIngredientNotInRecipe, ingredientID, r.ID)
	}

	updated, err := s.meals.UpdatePlannedMeal(ctx, userID, mealID, domain.MealUpdate{
		SetOverrides:        true,
		IngredientOverrides: meal.IngredientOverrides.With(ov),
	})
	if err != nil {
		return nil, fmt.Errorf("update meal %d: %w", mealID, err)
	}
	if updated == nil {
		return nil, ErrMealNotFound
	}
	return updated, nil
}

// DayPlan returns the meals planned for date with day totals.
func (s *MealService) DayPlan(ctx context.Context, userID int64, date domain.Date) (*DayPlan, error) {
	days, err := s.buildDays(ctx, userID, date, 1)
	if err != nil {
		return nil, err
	}
	return &days[0], nil
}

// WeekPlan returns seven days starting at start.
func (s *MealService) WeekPlan(ctx context.Context, userID int64, start domain.Date) (*WeekPlan, error) {
	days, err := s.buildDays(ctx, userID, start, DaysPerWeek)
	if err != nil {
		return nil, err
	}
	filled := 0
	for _, d := range days {
		filled += len(d.Meals)
	}
	missing := max(0, DaysPerWeek*domain.MealsPerDay-filled)
	return &WeekPlan{
		Start:        start,
		Days:         days,
		Complete:     missing == 0,
		MissingMeals: missing,
	}, nil
}

func (s *MealService) buildDays(ctx context.Context, userID int64, start domain.Date, n int) ([]DayPlan, error) {
	dates := domain.Range(start, n)
	meals, err := s.meals.ListPlannedMeals(ctx, userID, dates[0], dates[len(dates)-1])
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

	var targets *domain.NutritionGoals
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p != nil {
		targets = &p.NutritionGoals
	}

	byDate := make(map[domain.Date][]MealView, n)
	for _, m := range meals {
		r, ok := recipes[m.RecipeID]
		if !ok {
			s.log.Warn("planned meal references missing recipe", zap.Int64("meal_id", m.ID), zap.Int64("recipe_id", m.RecipeID))
		}
		byDate[m.MealDate] = append(byDate[m.MealDate], MealView{
			PlannedMeal: m,
			Recipe:      r,
			Macros:      domain.CalculateRecipeMacros(r, m.IngredientOverrides),
		})
	}

	out := make([]DayPlan, 0, n)
	for _, d := range dates {
		views := byDate[d]
		sort.SliceStable(views, func(i, j int) bool {
			return mealTypeRank(views[i].MealType) < mealTypeRank(views[j].MealType)
		})
		day := DayPlan{Date: d, Meals: views, Targets: targets, Complete: len(views) == domain.MealsPerDay}
		if day.Meals == nil {
			day.Meals = []MealView{}
		}
		for _, v := range views {
			day.Totals = day.Totals.Add(v.Macros)
			if v.IsEaten {
				day.Eaten = day.Eaten.Add(v.Macros)
			}
		}
		out = append(out, day)
	}
	return out, nil
}

func mealTypeRank(m domain.MealType) int {
	for i, t := range domain.MealTypes {
		if t == m {
			return i
		}
	}
	return len(domain.MealTypes)
}
