package adapthttp

import (
	"errors"
	"net/http"

	"mealplanner/internal/app"
)

func (s *Server) handleMealEaten(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var body struct {
		IsEaten *bool `json:"is_eaten"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.IsEaten == nil {
		writeError(w, http.StatusBadRequest, errors.New("is_eaten is required"))
		return
	}

	m, err := s.meals.ToggleEaten(r.Context(), userFrom(r.Context()).ID, id, *body.IsEaten)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meal": m})
}

func (s *Server) handleMealIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var body struct {
		IngredientID int64    `json:"ingredient_id"`
		NewAmount    *float64 `json:"new_amount"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.NewAmount == nil {
		writeError(w, http.StatusBadRequest, errors.New("new_amount is required"))
		return
	}

	m, err := s.meals.UpdateIngredientAmount(r.Context(), userFrom(r.Context()).ID, id, body.IngredientID, *body.NewAmount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meal": m})
}

func (s *Server) handleMealReplacements(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	candidates, err := s.maintenance.FindReplacementCandidates(r.Context(), userFrom(r.Context()).ID, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

func (s *Server) handleMealSwap(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var body struct {
		RecipeID int64 `json:"recipe_id"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.RecipeID <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("recipe_id is required"))
		return
	}

	m, err := s.maintenance.SwapMeal(r.Context(), userFrom(r.Context()).ID, id, body.RecipeID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meal": m})
}

func (s *Server) handleShoppingList(w http.ResponseWriter, r *http.Request) {
	start, err := dateQuery(r, "start", s.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	end, err := dateQuery(r, "end", start.AddDays(app.DaysPerWeek-1))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	categories, err := s.shopping.ShoppingList(r.Context(), userFrom(r.Context()).ID, start, end)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"start": start, "end": end, "categories": categories})
}
