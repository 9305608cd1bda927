package adapthttp

import (
	"net/http"
	"time"

	"mealplanner/internal/app"
	"mealplanner/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	authSvc     *app.AuthService
	profiles    *app.ProfileService
	meals       *app.MealService
	maintenance *app.MaintenanceService
	shopping    *app.ShoppingService

	oidcConfig  OIDCConfig
	corsOrigins []string
	log         *zap.Logger

	// fixedUser replaces session auth when set.
	fixedUser *domain.User
}

// New creates a Server wired to the given application services.
func New(authSvc *app.AuthService, profiles *app.ProfileService, meals *app.MealService, maintenance *app.MaintenanceService, shopping *app.ShoppingService, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		authSvc:     authSvc,
		profiles:    profiles,
		meals:       meals,
		maintenance: maintenance,
		shopping:    shopping,
		log:         log,
	}
}

// WithOIDC enables single sign-on.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// WithCORS allows cross-origin requests from origins.
func (s *Server) WithCORS(origins []string) *Server {
	s.corsOrigins = origins
	return s
}

// WithoutAuth serves every protected route as u. Intended for tests.
func (s *Server) WithoutAuth(u *domain.User) *Server {
	s.fixedUser = u
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(withNoCache)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})
		r.Get("/config", s.handleConfig)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.Get("/sso/login", s.handleSSOLogin)
			r.Get("/sso/callback", s.handleSSOCallback)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/me", s.handleMe)

			r.Post("/profile/preview", s.handleProfilePreview)
			r.Get("/profile", s.handleProfileGet)
			r.Put("/profile", s.handleProfilePut)

			r.Post("/plan/generate", s.handlePlanGenerate)
			r.Post("/plan/maintain", s.handlePlanMaintain)
			r.Get("/plan/week", s.handlePlanWeek)
			r.Get("/plan/day/{date}", s.handlePlanDay)
			r.Get("/plan/missing", s.handlePlanMissing)
			r.Delete("/plan/past", s.handlePlanCleanup)

			r.Route("/planned-meals/{id}", func(r chi.Router) {
				r.Patch("/eaten", s.handleMealEaten)
				r.Patch("/ingredients", s.handleMealIngredient)
				r.Get("/replacements", s.handleMealReplacements)
				r.Post("/swap", s.handleMealSwap)
			})

			r.Get("/shopping-list", s.handleShoppingList)
		})
	})

	return r
}

// today is the server-local calendar date, as used by plan maintenance.
func (s *Server) today() domain.Date {
	if s.maintenance != nil {
		return s.maintenance.Today()
	}
	return domain.Today(time.Now())
}
