package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"mealplanner/internal/domain"
)

// ExistingMeals returns the occupied slots of userID on dates.
func (db *DB) ExistingMeals(ctx context.Context, userID int64, dates []domain.Date) ([]domain.MealSlot, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	want := make(map[domain.Date]bool, len(dates))
	for _, d := range dates {
		want[d] = true
	}
	var out []domain.MealSlot
	for _, m := range db.sortedMeals() {
		if m.UserID == userID && want[m.MealDate] {
			out = append(out, domain.MealSlot{MealDate: m.MealDate, MealType: m.MealType})
		}
	}
	return out, nil
}

// GetPlannedMeal returns the meal or nil when it does not belong to userID.
func (db *DB) GetPlannedMeal(ctx context.Context, userID, id int64) (*domain.PlannedMeal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	m, ok := db.meals[id]
	if !ok || m.UserID != userID {
		return nil, nil
	}
	return &m, nil
}

// ListPlannedMeals returns the user's meals dated from..to inclusive, ordered
// by date and meal type.
func (db *DB) ListPlannedMeals(ctx context.Context, userID int64, from, to domain.Date) ([]domain.PlannedMeal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.PlannedMeal
	for _, m := range db.sortedMeals() {
		if m.UserID == userID && !m.MealDate.Before(from) && !to.Before(m.MealDate) {
			out = append(out, m)
		}
	}
	return out, nil
}

// InsertPlannedMeals stores all drafts, or none if any slot is taken.
func (db *DB) InsertPlannedMeals(ctx context.Context, drafts []domain.PlannedMealDraft) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	type key struct {
		userID int64
		slot   domain.MealSlot
	}
	taken := make(map[key]bool, len(db.meals)+len(drafts))
	for _, m := range db.meals {
		taken[key{m.UserID, domain.MealSlot{MealDate: m.MealDate, MealType: m.MealType}}] = true
	}
	for _, d := range drafts {
		k := key{d.UserID, d.Slot()}
		if taken[k] {
			return fmt.Errorf("%w: %s %s", domain.ErrSlotOccupied, d.MealDate, d.MealType)
		}
		taken[k] = true
	}

	now := time.Now().UTC()
	for _, d := range drafts {
		db.mealIDCounter++
		db.meals[db.mealIDCounter] = domain.PlannedMeal{
			ID:                  db.mealIDCounter,
			UserID:              d.UserID,
			RecipeID:            d.RecipeID,
			MealDate:            d.MealDate,
			MealType:            d.MealType,
			IsEaten:             d.IsEaten,
			IngredientOverrides: copyOverrides(d.IngredientOverrides),
			CreatedAt:           now,
		}
	}
	return nil
}

// UpdatePlannedMeal applies u and returns the updated meal, or nil when the
// meal does not belong to userID.
func (db *DB) UpdatePlannedMeal(ctx context.Context, userID, id int64, u domain.MealUpdate) (*domain.PlannedMeal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	m, ok := db.meals[id]
	if !ok || m.UserID != userID {
		return nil, nil
	}
	if u.RecipeID != nil {
		m.RecipeID = *u.RecipeID
	}
	if u.IsEaten != nil {
		m.IsEaten = *u.IsEaten
	}
	if u.SetOverrides {
		m.IngredientOverrides = copyOverrides(u.IngredientOverrides)
	}
	db.meals[id] = m
	return &m, nil
}

// DeletePlannedMealsBefore removes the user's meals dated strictly before cutoff.
func (db *DB) DeletePlannedMealsBefore(ctx context.Context, userID int64, cutoff domain.Date) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	n := 0
	for id, m := range db.meals {
		if m.UserID == userID && m.MealDate.Before(cutoff) {
			delete(db.meals, id)
			n++
		}
	}
	return n, nil
}

// sortedMeals must be called with db.mu held.
func (db *DB) sortedMeals() []domain.PlannedMeal {
	out := make([]domain.PlannedMeal, 0, len(db.meals))
	for _, m := range db.meals {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MealDate != out[j].MealDate {
			return out[i].MealDate < out[j].MealDate
		}
		if ri, rj := mealTypeRank(out[i].MealType), mealTypeRank(out[j].MealType); ri != rj {
			return ri < rj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func mealTypeRank(m domain.MealType) int {
	for i, t := range domain.MealTypes {
		if t == m {
			return i
		}
	}
	return len(domain.MealTypes)
}

func copyOverrides(o domain.Overrides) domain.Overrides {
	if len(o) == 0 {
		return nil
	}
	return domain.NewOverrides(o.List())
}
