package adapthttp

import (
	"errors"
	"io"
	"net/http"

	"mealplanner/internal/app"
	"mealplanner/internal/domain"

	"github.com/go-chi/chi/v5"
)

// maxMissingDays bounds /plan/missing lookups.
const maxMissingDays = 31

func (s *Server) handlePlanGenerate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StartDate string `json:"start_date"`
	}
	if err := parseJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start := s.today()
	if body.StartDate != "" {
		d, err := domain.ParseDate(body.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		start = d
	}

	drafts, err := s.maintenance.GenerateWeek(r.Context(), userFrom(r.Context()).ID, start)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"start": start, "meals": drafts})
}

func (s *Server) handlePlanMaintain(w http.ResponseWriter, r *http.Request) {
	n, err := s.maintenance.EnsureWeekPlan(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inserted": n})
}

func (s *Server) handlePlanWeek(w http.ResponseWriter, r *http.Request) {
	start, err := dateQuery(r, "start", s.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	week, err := s.meals.WeekPlan(r.Context(), userFrom(r.Context()).ID, start)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

func (s *Server) handlePlanDay(w http.ResponseWriter, r *http.Request) {
	date, err := domain.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	day, err := s.meals.DayPlan(r.Context(), userFrom(r.Context()).ID, date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handlePlanMissing(w http.ResponseWriter, r *http.Request) {
	start, err := dateQuery(r, "start", s.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	days := min(intQuery(r, "days", app.DaysPerWeek), maxMissingDays)

	missing, err := s.maintenance.FindMissingDays(r.Context(), userFrom(r.Context()).ID, domain.Range(start, days))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if missing == nil {
		missing = []domain.Date{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"start": start, "days": days, "missing_days": missing})
}

func (s *Server) handlePlanCleanup(w http.ResponseWriter, r *http.Request) {
	n, err := s.maintenance.CleanupOldMealPlans(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}
