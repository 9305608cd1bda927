package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"mealplanner/internal/domain"

	"go.uber.org/zap"
)

var (
	// ErrNoCandidateRecipe indicates that the catalog has no recipe for a meal's calorie window.
	ErrNoCandidateRecipe = errors.New("no candidate recipe")
	// ErrPlanSizeMismatch indicates that a generated week does not hold exactly 21 meals.
	ErrPlanSizeMismatch = errors.New("plan size mismatch")
)

const (
	// DaysPerWeek is the length of a generated plan.
	DaysPerWeek = 7
	// MealCalorieTolerance is the half-width of the per-meal calorie window.
	MealCalorieTolerance = 0.15
)

// RandomSource picks a uniformly distributed index in [0, n).
// Implementations shared by a PlanGenerator must be safe for concurrent use.
type RandomSource interface {
	IntN(n int) int
}

type randFunc func(n int) int

func (f randFunc) IntN(n int) int { return f(n) }

// DefaultRandom draws from the process-wide generator and is safe for
// concurrent use.
var DefaultRandom RandomSource = randFunc(rand.IntN)

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededRandom returns a reproducible PCG-backed source that may be shared
// across goroutines.
func NewSeededRandom(seed uint64) RandomSource {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// PlanGenerator selects recipes for days and weeks and runs the day optimizer
// over each generated day.
type PlanGenerator struct {
	catalog domain.RecipeCatalog
	rnd     RandomSource
	log     *zap.Logger
}

// NewPlanGenerator creates a generator. A nil rnd uses DefaultRandom and a
// nil log discards output.
func NewPlanGenerator(catalog domain.RecipeCatalog, rnd RandomSource, log *zap.Logger) *PlanGenerator {
	if rnd == nil {
		rnd = DefaultRandom
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PlanGenerator{catalog: catalog, rnd: rnd, log: log}
}

// MealCalorieWindow returns the inclusive calorie range for a single meal:
// a third of the daily target, plus or minus 15%. The lower bound is floored
// and the upper bound ceiled to whole calories.
func MealCalorieWindow(dailyTargetCalories int) (lo, hi float64) {
	target := float64(dailyTargetCalories) / domain.MealsPerDay
	return math.Floor(target * (1 - MealCalorieTolerance)), math.Ceil(target * (1 + MealCalorieTolerance))
}

// SelectRecipe picks a recipe for mealType inside the calorie window of
// dailyTargetCalories. Recipes in used are avoided unless nothing else fits.
func (g *PlanGenerator) SelectRecipe(ctx context.Context, mealType domain.MealType, dailyTargetCalories int, used map[int64]bool) (domain.Recipe, error) {
	lo, hi := MealCalorieWindow(dailyTargetCalories)
	candidates, err := g.catalog.QueryRecipes(ctx, domain.RecipeQuery{
		MealType:    mealType,
		MinCalories: lo,
		MaxCalories: hi,
	})
	if err != nil {
		return domain.Recipe{}, fmt.Errorf("query %s recipes: %w", mealType, err)
	}
	if len(candidates) == 0 {
		return domain.Recipe{}, fmt.Errorf("%w for %s in %.0f-%.0f kcal", ErrNoCandidateRecipe, mealType, lo, hi)
	}

	pool := make([]domain.Recipe, 0, len(candidates))
	for _, r := range candidates {
		if !used[r.ID] {
			pool = append(pool, r)
		}
	}
	if len(pool) == 0 {
		g.log.Debug("all candidates already used today, repeating a recipe",
			zap.String("meal_type", string(mealType)),
			zap.Int("candidates", len(candidates)),
		)
		pool = candidates
	}

	return pool[g.rnd.IntN(len(pool))], nil
}

// GenerateDay selects breakfast, lunch and dinner for date and applies at most
// one optimizer override. The returned drafts are in meal-type order.
func (g *PlanGenerator) GenerateDay(ctx context.Context, userID int64, date domain.Date, goals domain.NutritionGoals) ([]domain.PlannedMealDraft, error) {
	used := make(map[int64]bool, domain.MealsPerDay)
	recipes := make([]domain.Recipe, 0, domain.MealsPerDay)
	drafts := make([]domain.PlannedMealDraft, 0, domain.MealsPerDay)

	for _, mt := range domain.MealTypes {
		r, err := g.SelectRecipe(ctx, mt, goals.TargetCalories, used)
		if err != nil {
			return nil, fmt.Errorf("could not build plan for %s: %w", date, err)
		}
		used[r.ID] = true
		recipes = append(recipes, r)
		drafts = append(drafts, domain.PlannedMealDraft{
			UserID:   userID,
			RecipeID: r.ID,
			MealDate: date,
			MealType: mt,
		})
	}

	d := OptimizeDay(recipes, goals)
	fields := []zap.Field{
		zap.String("date", date.String()),
		zap.String("correction", string(d.Correction)),
		zap.Float64("day_calories", d.DayTotals.Calories),
		zap.Int("target_calories", goals.TargetCalories),
	}
	switch {
	case d.Override != nil:
		drafts[d.MealIndex].IngredientOverrides = domain.NewOverrides([]domain.IngredientOverride{*d.Override})
		g.log.Info("day optimized", append(fields,
			zap.String("macro", d.Macro),
			zap.String("meal_type", string(drafts[d.MealIndex].MealType)),
			zap.Int64("ingredient_id", d.Override.IngredientID),
			zap.Float64("new_amount", d.Override.NewAmount),
		)...)
	case d.Correction != NoActionNeeded:
		g.log.Warn("no scalable ingredient to correct day", append(fields, zap.String("macro", d.Macro))...)
	default:
		g.log.Debug("day within targets", fields...)
	}

	return drafts, nil
}

// GenerateDays generates each date in order. Cancellation is honored between
// days, so a returned error never leaves a half-built day in the result.
func (g *PlanGenerator) GenerateDays(ctx context.Context, userID int64, dates []domain.Date, goals domain.NutritionGoals) ([]domain.PlannedMealDraft, error) {
	out := make([]domain.PlannedMealDraft, 0, len(dates)*domain.MealsPerDay)
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		day, err := g.GenerateDay(ctx, userID, date, goals)
		if err != nil {
			return nil, err
		}
		out = append(out, day...)
	}
	return out, nil
}

// GenerateWeek generates seven consecutive days starting at start and checks
// that the plan holds exactly 21 meals.
func (g *PlanGenerator) GenerateWeek(ctx context.Context, userID int64, start domain.Date, goals domain.NutritionGoals) ([]domain.PlannedMealDraft, error) {
	drafts, err := g.GenerateDays(ctx, userID, domain.Range(start, DaysPerWeek), goals)
	if err != nil {
		return nil, err
	}
	if want := DaysPerWeek * domain.MealsPerDay; len(drafts) != want {
		return nil, fmt.Errorf("%w: got %d meals, want %d", ErrPlanSizeMismatch, len(drafts), want)
	}
	return drafts, nil
}
