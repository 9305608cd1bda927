package domain

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"
)

// IngredientOverride replaces the amount of one ingredient in a planned meal.
// AutoAdjusted marks overrides introduced by the optimizer rather than the user.
type IngredientOverride struct {
	IngredientID int64   `json:"ingredient_id"`
	NewAmount    float64 `json:"new_amount"`
	AutoAdjusted bool    `json:"auto_adjusted"`
}

// Validate checks the override fields.
func (o IngredientOverride) Validate() error {
	if o.IngredientID <= 0 {
		return errors.New("ingredient_id must be > 0")
	}
	if o.NewAmount < 0 {
		return errors.New("new_amount must be >= 0")
	}
	return nil
}

// Overrides holds at most one override per ingredient. It serializes as a
// JSON list ordered by ingredient id, or null when empty. The zero value is
// an empty set.
type Overrides map[int64]IngredientOverride

// NewOverrides builds a set from a list; later entries for the same
// ingredient replace earlier ones.
func NewOverrides(list []IngredientOverride) Overrides {
	if len(list) == 0 {
		return nil
	}
	out := make(Overrides, len(list))
	for _, o := range list {
		out[o.IngredientID] = o
	}
	return out
}

// Get returns the override for ingredientID.
func (o Overrides) Get(ingredientID int64) (IngredientOverride, bool) {
	v, ok := o[ingredientID]
	return v, ok
}

// With returns a copy of o with ov set, replacing any existing override for
// the same ingredient.
func (o Overrides) With(ov IngredientOverride) Overrides {
	out := make(Overrides, len(o)+1)
	for k, v := range o {
		out[k] = v
	}
	out[ov.IngredientID] = ov
	return out
}

// List returns the overrides ordered by ingredient id.
func (o Overrides) List() []IngredientOverride {
	out := make([]IngredientOverride, 0, len(o))
	for _, v := range o {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IngredientID < out[j].IngredientID })
	return out
}

// MarshalJSON implements json.Marshaler.
func (o Overrides) MarshalJSON() ([]byte, error) {
	if len(o) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(o.List())
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Overrides) UnmarshalJSON(b []byte) error {
	var list []IngredientOverride
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	for _, v := range list {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	*o = NewOverrides(list)
	return nil
}

// PlannedMeal is one recipe assigned to a user's meal slot on a date.
type PlannedMeal struct {
	ID                  int64     `json:"id"`
	UserID              int64     `json:"user_id"`
	RecipeID            int64     `json:"recipe_id"`
	MealDate            Date      `json:"meal_date"`
	MealType            MealType  `json:"meal_type"`
	IsEaten             bool      `json:"is_eaten"`
	IngredientOverrides Overrides `json:"ingredient_overrides"`
	CreatedAt           time.Time `json:"created_at"`
}

// PlannedMealDraft is a planned meal that has not been persisted yet.
type PlannedMealDraft struct {
	UserID              int64     `json:"user_id"`
	RecipeID            int64     `json:"recipe_id"`
	MealDate            Date      `json:"meal_date"`
	MealType            MealType  `json:"meal_type"`
	IsEaten             bool      `json:"is_eaten"`
	IngredientOverrides Overrides `json:"ingredient_overrides"`
}

// MealSlot identifies a (date, meal type) slot.
type MealSlot struct {
	MealDate Date     `json:"meal_date"`
	MealType MealType `json:"meal_type"`
}

// Slot returns the slot d occupies.
func (d PlannedMealDraft) Slot() MealSlot {
	return MealSlot{MealDate: d.MealDate, MealType: d.MealType}
}

// MealUpdate is a partial update of a planned meal. Nil pointers leave the
// field unchanged; SetOverrides replaces the overrides with
// IngredientOverrides (nil clears them).
type MealUpdate struct {
	RecipeID            *int64
	IsEaten             *bool
	SetOverrides        bool
	IngredientOverrides Overrides
}

// ErrSlotOccupied is returned by MealRepository.InsertPlannedMeals when a
// draft targets a (date, meal type) slot the user already has planned.
var ErrSlotOccupied = errors.New("meal slot already planned")

// MealRepository is the port for planned-meal persistence. Lookups that find
// nothing return (nil, nil).
type MealRepository interface {
	ExistingMeals(ctx context.Context, userID int64, dates []Date) ([]MealSlot, error)
	GetPlannedMeal(ctx context.Context, userID, id int64) (*PlannedMeal, error)
	ListPlannedMeals(ctx context.Context, userID int64, from, to Date) ([]PlannedMeal, error)
	// InsertPlannedMeals writes all drafts or none. A slot conflict yields
	// ErrSlotOccupied.
	InsertPlannedMeals(ctx context.Context, drafts []PlannedMealDraft) error
	UpdatePlannedMeal(ctx context.Context, userID, id int64, u MealUpdate) (*PlannedMeal, error)
	DeletePlannedMealsBefore(ctx context.Context, userID int64, cutoff Date) (int, error)
}
