package app_test

import (
	"context"
	"errors"
	"sort"

	"mealplanner/internal/domain"
)

// stubCatalog serves a fixed recipe list and records the queries it receives.
type stubCatalog struct {
	recipes []domain.Recipe
	err     error
	queries []domain.RecipeQuery
}

func (c *stubCatalog) QueryRecipes(ctx context.Context, q domain.RecipeQuery) ([]domain.Recipe, error) {
	c.queries = append(c.queries, q)
	if c.err != nil {
		return nil, c.err
	}
	var out []domain.Recipe
	for _, r := range c.recipes {
		if r.Serves(q.MealType) && r.TotalCalories >= q.MinCalories && r.TotalCalories <= q.MaxCalories {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalCalories < out[j].TotalCalories })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (c *stubCatalog) GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error) {
	if c.err != nil {
		return nil, c.err
	}
	for _, r := range c.recipes {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, nil
}

func (c *stubCatalog) GetRecipes(ctx context.Context, ids []int64) (map[int64]domain.Recipe, error) {
	out := make(map[int64]domain.Recipe)
	for _, id := range ids {
		if r, _ := c.GetRecipe(ctx, id); r != nil {
			out[id] = *r
		}
	}
	return out, nil
}

type mockMealRepo struct {
	existingFn func(ctx context.Context, userID int64, dates []domain.Date) ([]domain.MealSlot, error)
	getFn      func(ctx context.Context, userID, id int64) (*domain.PlannedMeal, error)
	listFn     func(ctx context.Context, userID int64, from, to domain.Date) ([]domain.PlannedMeal, error)
	insertFn   func(ctx context.Context, drafts []domain.PlannedMealDraft) error
	updateFn   func(ctx context.Context, userID, id int64, u domain.MealUpdate) (*domain.PlannedMeal, error)
	deleteFn   func(ctx context.Context, userID int64, cutoff domain.Date) (int, error)
}

func (m *mockMealRepo) ExistingMeals(ctx context.Context, userID int64, dates []domain.Date) ([]domain.MealSlot, error) {
	if m.existingFn != nil {
		return m.existingFn(ctx, userID, dates)
	}
	return nil, nil
}

func (m *mockMealRepo) GetPlannedMeal(ctx context.Context, userID, id int64) (*domain.PlannedMeal, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockMealRepo) ListPlannedMeals(ctx context.Context, userID int64, from, to domain.Date) ([]domain.PlannedMeal, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, from, to)
	}
	return nil, nil
}

func (m *mockMealRepo) InsertPlannedMeals(ctx context.Context, drafts []domain.PlannedMealDraft) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, drafts)
	}
	return nil
}

func (m *mockMealRepo) UpdatePlannedMeal(ctx context.Context, userID, id int64, u domain.MealUpdate) (*domain.PlannedMeal, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, u)
	}
	return nil, nil
}

func (m *mockMealRepo) DeletePlannedMealsBefore(ctx context.Context, userID int64, cutoff domain.Date) (int, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, cutoff)
	}
	return 0, nil
}

type mockProfileRepo struct {
	getFn    func(ctx context.Context, userID int64) (*domain.Profile, error)
	upsertFn func(ctx context.Context, p domain.Profile) (*domain.Profile, error)
}

func (m *mockProfileRepo) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockProfileRepo) UpsertProfile(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, p)
	}
	return &p, nil
}

func profileWithGoals(goals domain.NutritionGoals) *mockProfileRepo {
	return &mockProfileRepo{
		getFn: func(ctx context.Context, userID int64) (*domain.Profile, error) {
			return &domain.Profile{UserID: userID, NutritionGoals: goals}, nil
		},
	}
}

type mockUserRepo struct {
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	getByIDFn    func(ctx context.Context, id int64) (*domain.User, error)
	createFn     func(ctx context.Context, email, passwordHash string) (*domain.User, error)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, errors.New("not found")
}

func (m *mockUserRepo) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, email, passwordHash)
	}
	return &domain.User{ID: 1, Email: email, PasswordHash: passwordHash}, nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, s domain.Session) error
	getByTokenFn    func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context) error
}

func (m *mockSessionRepo) Create(ctx context.Context, s domain.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	return nil
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, errors.New("not found")
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) error {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return nil
}

// scalableRecipe builds a recipe with a single scalable ingredient that
// carries all of its nutrition.
func scalableRecipe(id int64, kcal float64, types ...domain.MealType) domain.Recipe {
	if len(types) == 0 {
		types = domain.MealTypes
	}
	return domain.Recipe{
		ID:            id,
		Name:          "recipe",
		MealTypes:     types,
		TotalCalories: kcal,
		TotalProteinG: kcal * 0.35 / 4,
		TotalCarbsG:   kcal * 0.15 / 4,
		TotalFatsG:    kcal * 0.5 / 9,
		Ingredients: []domain.RecipeIngredient{{
			IngredientID: id * 100,
			Name:         "ingredient",
			BaseAmount:   100,
			Unit:         "g",
			IsScalable:   true,
			Calories:     kcal,
			ProteinG:     kcal * 0.35 / 4,
			CarbsG:       kcal * 0.15 / 4,
			FatsG:        kcal * 0.5 / 9,
		}},
	}
}
