package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"mealplanner/internal/app"
	"mealplanner/internal/domain"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeErrorCode(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error(), "code": code})
}

// errorStatus maps application errors onto a status and a machine code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, app.ErrInvalidProfile),
		errors.Is(err, app.ErrInvalidOverride),
		errors.Is(err, app.ErrIngredientNotInRecipe),
		errors.Is(err, app.ErrInvalidDateRange),
		errors.Is(err, app.ErrInvalidRegistration):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, app.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, app.ErrMealNotFound):
		return http.StatusNotFound, "meal_not_found"
	case errors.Is(err, app.ErrRecipeNotFound):
		return http.StatusNotFound, "recipe_not_found"
	case errors.Is(err, app.ErrProfileNotFound):
		return http.StatusNotFound, "profile_not_found"
	case errors.Is(err, app.ErrPlanExists), errors.Is(err, domain.ErrSlotOccupied):
		return http.StatusConflict, "plan_exists"
	case errors.Is(err, app.ErrEmailTaken):
		return http.StatusConflict, "email_taken"
	case errors.Is(err, app.ErrMealTypeMismatch):
		return http.StatusUnprocessableEntity, "meal_type_mismatch"
	case errors.Is(err, app.ErrCalorieDeltaExceeded):
		return http.StatusUnprocessableEntity, "calorie_delta_exceeded"
	case errors.Is(err, app.ErrNoCandidateRecipe):
		return http.StatusUnprocessableEntity, "no_candidate_recipe"
	}
	return http.StatusInternalServerError, "internal"
}

// fail writes err as a JSON error. Server errors are logged and their
// details withheld from the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		err = errors.New("internal error")
	}
	writeErrorCode(w, status, code, err)
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func intQuery(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// dateQuery parses a YYYY-MM-DD query parameter, or returns fallback when
// it is absent.
func dateQuery(r *http.Request, key string, fallback domain.Date) (domain.Date, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	d, err := domain.ParseDate(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
