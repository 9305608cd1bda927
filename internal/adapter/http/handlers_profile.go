package adapthttp

import (
	"net/http"

	"mealplanner/internal/domain"
)

func (s *Server) handleProfilePreview(w http.ResponseWriter, r *http.Request) {
	var p domain.UserNutritionProfile
	if err := parseJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	goals, err := s.profiles.PreviewGoals(p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": goals})
}

func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.GetProfile(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": p})
}

func (s *Server) handleProfilePut(w http.ResponseWriter, r *http.Request) {
	var p domain.UserNutritionProfile
	if err := parseJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	saved, err := s.profiles.SaveProfile(r.Context(), userFrom(r.Context()).ID, p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": saved})
}
