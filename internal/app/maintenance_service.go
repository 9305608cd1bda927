package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"mealplanner/internal/domain"

	"go.uber.org/zap"
)

var (
	// ErrMealTypeMismatch indicates that a swap candidate does not serve the meal's slot.
	ErrMealTypeMismatch = errors.New("recipe does not serve this meal type")
	// ErrCalorieDeltaExceeded indicates that a swap candidate differs too much in calories.
	ErrCalorieDeltaExceeded = errors.New("calorie difference exceeds 15%")
	// ErrMealNotFound indicates that the planned meal does not exist for the user.
	ErrMealNotFound = errors.New("planned meal not found")
	// ErrRecipeNotFound indicates that the recipe does not exist in the catalog.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrPlanExists indicates that the requested week already has planned meals.
	ErrPlanExists = errors.New("meal plan already exists for this week")
)

const (
	// MaxSwapCalorieDeltaPercent bounds the calorie change a swap may introduce.
	MaxSwapCalorieDeltaPercent = 15
	// MaxReplacementCandidates caps FindReplacementCandidates.
	MaxReplacementCandidates = 10
)

// ReplacementCandidate is a recipe that may replace a planned meal, with its
// calorie difference from the current recipe.
type ReplacementCandidate struct {
	domain.Recipe
	CalorieDiff float64 `json:"calorie_diff"`
}

// MaintenanceService keeps a user's plan filled and applies swaps.
type MaintenanceService struct {
	catalog   domain.RecipeCatalog
	meals     domain.MealRepository
	profiles  domain.ProfileRepository
	generator *PlanGenerator
	now       func() time.Time
	log       *zap.Logger
}

// NewMaintenanceService creates a MaintenanceService.
func NewMaintenanceService(catalog domain.RecipeCatalog, meals domain.MealRepository, profiles domain.ProfileRepository, generator *PlanGenerator, log *zap.Logger) *MaintenanceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MaintenanceService{
		catalog:   catalog,
		meals:     meals,
		profiles:  profiles,
		generator: generator,
		now:       time.Now,
		log:       log,
	}
}

// WithClock replaces the clock used to determine today's date.
func (s *MaintenanceService) WithClock(now func() time.Time) *MaintenanceService {
	s.now = now
	return s
}

// Today returns the service's current local calendar date.
func (s *MaintenanceService) Today() domain.Date {
	return domain.Today(s.now())
}

// MissingDays returns the requested dates, in order, that do not have all
// three meal types among existing.
func MissingDays(existing []domain.MealSlot, requested []domain.Date) []domain.Date {
	byDate := make(map[domain.Date]map[domain.MealType]bool)
	for _, m := range existing {
		if byDate[m.MealDate] == nil {
			byDate[m.MealDate] = make(map[domain.MealType]bool, domain.MealsPerDay)
		}
		byDate[m.MealDate][m.MealType] = true
	}

	var missing []domain.Date
	for _, d := range requested {
		if len(byDate[d]) != domain.MealsPerDay {
			missing = append(missing, d)
		}
	}
	return missing
}

// FindMissingDays looks up the user's meals on dates and returns the dates
// that need regeneration.
func (s *MaintenanceService) FindMissingDays(ctx context.Context, userID int64, dates []domain.Date) ([]domain.Date, error) {
	existing, err := s.meals.ExistingMeals(ctx, userID, dates)
	if err != nil {
		return nil, fmt.Errorf("load existing meals: %w", err)
	}
	return MissingDays(existing, dates), nil
}

// CleanupOldMealPlans deletes the user's meals dated strictly before today
// and returns how many were removed.
func (s *MaintenanceService) CleanupOldMealPlans(ctx context.Context, userID int64) (int, error) {
	today := s.Today()
	n, err := s.meals.DeletePlannedMealsBefore(ctx, userID, today)
	if err != nil {
		return 0, fmt.Errorf("delete meals before %s: %w", today, err)
	}
	if n > 0 {
		s.log.Info("removed past meals", zap.Int64("user_id", userID), zap.Int("count", n), zap.String("before", today.String()))
	}
	return n, nil
}

// FindReplacementCandidates lists recipes serving the same slot as the
// planned meal whose calories lie within 15% of its recipe, ordered by
// ascending calories. The current recipe is excluded.
func (s *MaintenanceService) FindReplacementCandidates(ctx context.Context, userID, mealID int64) ([]ReplacementCandidate, error) {
	meal, current, err := s.mealWithRecipe(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	orig := current.TotalCalories
	if orig <= 0 {
		return nil, fmt.Errorf("recipe %d has no calorie total", current.ID)
	}

	recipes, err := s.catalog.QueryRecipes(ctx, domain.RecipeQuery{
		MealType:    meal.MealType,
		MinCalories: math.Floor(orig * (1 - MaxSwapCalorieDeltaPercent/100.0)),
		MaxCalories: math.Ceil(orig * (1 + MaxSwapCalorieDeltaPercent/100.0)),
	})
	if err != nil {
		return nil, fmt.Errorf("query replacements: %w", err)
	}

	out := make([]ReplacementCandidate, 0, len(recipes))
	for _, r := range recipes {
		if r.ID == current.ID || !withinSwapDelta(orig, r.TotalCalories) {
			continue
		}
		out = append(out, ReplacementCandidate{Recipe: r, CalorieDiff: r.TotalCalories - orig})
		if len(out) == MaxReplacementCandidates {
			break
		}
	}
	return out, nil
}

// withinSwapDelta reports whether kcal differs from orig by at most
// MaxSwapCalorieDeltaPercent. An orig without calories admits nothing.
func withinSwapDelta(orig, kcal float64) bool {
	return orig > 0 && math.Abs(kcal-orig)*100 <= MaxSwapCalorieDeltaPercent*orig
}

// ValidateSwap checks that candidate may replace original in a mealType slot.
func ValidateSwap(original, candidate domain.Recipe, mealType domain.MealType) error {
	if !candidate.Serves(mealType) {
		return fmt.Errorf("%w: recipe %d cannot be served as %s", ErrMealTypeMismatch, candidate.ID, mealType)
	}
	orig := original.TotalCalories
	if !withinSwapDelta(orig, candidate.TotalCalories) {
		return fmt.Errorf("%w: %.0f kcal to %.0f kcal", ErrCalorieDeltaExceeded, orig, candidate.TotalCalories)
	}
	return nil
}

// SwapMeal replaces the planned meal's recipe and clears its ingredient
// overrides.
func (s *MaintenanceService) SwapMeal(ctx context.Context, userID, mealID, newRecipeID int64) (*domain.PlannedMeal, error) {
	meal, current, err := s.mealWithRecipe(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	candidate, err := s.catalog.GetRecipe(ctx, newRecipeID)
	if err != nil {
		return nil, fmt.Errorf("load recipe %d: %w", newRecipeID, err)
	}
	if candidate == nil {
		return nil, ErrRecipeNotFound
	}
	if err := ValidateSwap(*current, *candidate, meal.MealType); err != nil {
		return nil, err
	}

	updated, err := s.meals.UpdatePlannedMeal(ctx, userID, mealID, domain.MealUpdate{
		RecipeID:     &candidate.ID,
		SetOverrides: true,
	})
	if err != nil {
		return nil, fmt.Errorf("update meal %d: %w", mealID, err)
	}
	if updated == nil {
		return nil, ErrMealNotFound
	}
	s.log.Info("meal swapped",
		zap.Int64("meal_id", mealID),
		zap.Int64("from_recipe", current.ID),
		zap.Int64("to_recipe", candidate.ID),
	)
	return updated, nil
}

// GenerateWeek builds a seven-day plan from start using the user's stored
// targets and writes it in one batch. The week must be empty.
func (s *MaintenanceService) GenerateWeek(ctx context.Context, userID int64, start domain.Date) ([]domain.PlannedMealDraft, error) {
	goals, err := s.goals(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing, err := s.meals.ExistingMeals(ctx, userID, domain.Range(start, DaysPerWeek))
	if err != nil {
		return nil, fmt.Errorf("load existing meals: %w", err)
	}
	if len(existing) > 0 {
		return nil, ErrPlanExists
	}

	drafts, err := s.generator.GenerateWeek(ctx, userID, start, goals)
	if err != nil {
		return nil, err
	}
	if err := s.meals.InsertPlannedMeals(ctx, drafts); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	s.log.Info("week generated", zap.Int64("user_id", userID), zap.String("start", start.String()), zap.Int("meals", len(drafts)))
	return drafts, nil
}

// EnsureWeekPlan removes past meals and fills every empty slot in the seven
// days starting today. A failed cleanup is logged and does not stop
// generation. It returns the number of meals inserted.
func (s *MaintenanceService) EnsureWeekPlan(ctx context.Context, userID int64) (int, error) {
	if _, err := s.CleanupOldMealPlans(ctx, userID); err != nil {
		s.log.Warn("cleanup of past meals failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	dates := domain.Range(s.Today(), DaysPerWeek)
	existing, err := s.meals.ExistingMeals(ctx, userID, dates)
	if err != nil {
		return 0, fmt.Errorf("load existing meals: %w", err)
	}
	missing := MissingDays(existing, dates)
	if len(missing) == 0 {
		s.log.Debug("plan complete", zap.Int64("user_id", userID))
		return 0, nil
	}

	goals, err := s.goals(ctx, userID)
	if err != nil {
		return 0, err
	}
	generated, err := s.generator.GenerateDays(ctx, userID, missing, goals)
	if err != nil {
		return 0, err
	}

	filled := make(map[domain.MealSlot]bool, len(existing))
	for _, slot := range existing {
		filled[slot] = true
	}
	drafts := generated[:0]
	for _, d := range generated {
		if !filled[d.Slot()] {
			drafts = append(drafts, d)
		}
	}
	if len(drafts) == 0 {
		return 0, nil
	}

	if err := s.meals.InsertPlannedMeals(ctx, drafts); err != nil {
		return 0, fmt.Errorf("save plan: %w", err)
	}
	s.log.Info("plan maintained",
		zap.Int64("user_id", userID),
		zap.Int("days", len(missing)),
		zap.Int("meals", len(drafts)),
	)
	return len(drafts), nil
}

func (s *MaintenanceService) goals(ctx context.Context, userID int64) (domain.NutritionGoals, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return domain.NutritionGoals{}, fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		return domain.NutritionGoals{}, ErrProfileNotFound
	}
	return p.NutritionGoals, nil
}

func (s *MaintenanceService) mealWithRecipe(ctx context.Context, userID, mealID int64) (*domain.PlannedMeal, *domain.Recipe, error) {
	meal, err := s.meals.GetPlannedMeal(ctx, userID, mealID)
	if err != nil {
		return nil, nil, fmt.Errorf("load meal %d: %w", mealID, err)
	}
	if meal == nil {
		return nil, nil, ErrMealNotFound
	}
	r, err := s.catalog.GetRecipe(ctx, meal.RecipeID)
	if err != nil {
		return nil, nil, fmt.Errorf("load recipe %d: %w", meal.RecipeID, err)
	}
	if r == nil {
		return nil, nil, ErrRecipeNotFound
	}
	return meal, r, nil
}
