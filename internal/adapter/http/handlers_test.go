package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	adapthttp "mealplanner/internal/adapter/http"
	"mealplanner/internal/adapter/memory"
	"mealplanner/internal/app"
	"mealplanner/internal/domain"
)

// ---------------------------------------------------------------------------
// Test-server helper
// ---------------------------------------------------------------------------

type testEnv struct {
	ts *httptest.Server
	db *memory.DB
}

// newTestServer serves the API over the in-memory adapter loaded with the
// development catalog. A non-nil user bypasses session auth.
func newTestServer(t *testing.T, user *domain.User) *testEnv {
	t.Helper()

	db := memory.New()
	if _, err := db.LoadRecipesFile("../memory/testdata/recipes.yaml"); err != nil {
		t.Fatalf("load recipes: %v", err)
	}

	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.Local)
	gen := app.NewPlanGenerator(db, app.NewSeededRandom(7), nil)
	authSvc := app.NewAuthService(db, db.NewSessionRepo(), nil)
	srv := adapthttp.New(
		authSvc,
		app.NewProfileService(db, nil),
		app.NewMealService(db, db, db, nil),
		app.NewMaintenanceService(db, db, db, gen, nil).WithClock(func() time.Time { return now }),
		app.NewShoppingService(db, db),
		nil,
	)
	if user != nil {
		srv.WithoutAuth(user)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, db: db}
}

func (e *testEnv) do(t *testing.T, method, path string, payload any, token string) (*http.Response, map[string]any) {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, e.ts.URL+path, &body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return resp, m
}

func (e *testEnv) seedProfile(t *testing.T, userID int64, targetCalories int) {
	t.Helper()
	_, err := e.db.UpsertProfile(context.Background(), domain.Profile{
		UserID:         userID,
		NutritionGoals: domain.MacroTargets(targetCalories),
	})
	if err != nil {
		t.Fatal(err)
	}
}

// seedMeals inserts drafts and returns the stored meals grouped by user in
// first-seen order.
func (e *testEnv) seedMeals(t *testing.T, drafts ...domain.PlannedMealDraft) []domain.PlannedMeal {
	t.Helper()
	ctx := context.Background()
	if err := e.db.InsertPlannedMeals(ctx, drafts); err != nil {
		t.Fatal(err)
	}
	var out []domain.PlannedMeal
	seen := make(map[int64]bool)
	for _, d := range drafts {
		if seen[d.UserID] {
			continue
		}
		seen[d.UserID] = true
		meals, err := e.db.ListPlannedMeals(ctx, d.UserID, "2000-01-01", "2100-01-01")
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, meals...)
	}
	return out
}

var cook = &domain.User{ID: 1, Email: "cook@example.com"}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	e := newTestServer(t, nil)

	resp, body := e.do(t, http.MethodGet, "/api/health", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body["ok"])
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestConfigEndpoint(t *testing.T) {
	e := newTestServer(t, nil)
	_, body := e.do(t, http.MethodGet, "/api/config", nil, "")
	if body["sso_enabled"] != false {
		t.Errorf("expected sso disabled, got %v", body["sso_enabled"])
	}

	resp, _ := e.do(t, http.MethodGet, "/api/auth/sso/login", nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for disabled SSO, got %d", resp.StatusCode)
	}
}

func TestAuthFlow(t *testing.T) {
	e := newTestServer(t, nil)

	resp, body := e.do(t, http.MethodGet, "/api/profile", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", resp.StatusCode)
	}
	if body["code"] != "unauthorized" {
		t.Errorf("unexpected body %v", body)
	}

	creds := map[string]any{"email": "Eater@example.com", "password": "correct horse"}
	resp, body = e.do(t, http.MethodPost, "/api/auth/register", creds, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", resp.StatusCode, body)
	}
	if resp, _ = e.do(t, http.MethodPost, "/api/auth/register", creds, ""); resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", resp.StatusCode)
	}

	resp, body = e.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "eater@example.com", "password": "wrong password"}, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", resp.StatusCode)
	}

	resp, body = e.do(t, http.MethodPost, "/api/auth/login", creds, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("expected a session token")
	}

	resp, body = e.do(t, http.MethodGet, "/api/me", nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if user, _ := body["user"].(map[string]any); user["email"] != "eater@example.com" {
		t.Errorf("unexpected user %v", body["user"])
	}

	e.do(t, http.MethodPost, "/api/auth/logout", nil, token)
	if resp, _ = e.do(t, http.MethodGet, "/api/me", nil, token); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestProfileEndpoints(t *testing.T) {
	e := newTestServer(t, cook)

	resp, body := e.do(t, http.MethodGet, "/api/profile", nil, "")
	if resp.StatusCode != http.StatusNotFound || body["code"] != "profile_not_found" {
		t.Fatalf("expected 404 profile_not_found, got %d %v", resp.StatusCode, body)
	}

	profile := map[string]any{
		"gender": "male", "age": 35, "weight_kg": 85, "height_cm": 180,
		"activity_level": "moderate", "goal": "weight_loss", "weight_loss_rate_kg_week": 0.5,
	}
	resp, body = e.do(t, http.MethodPost, "/api/profile/preview", profile, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	if goals, _ := body["goals"].(map[string]any); goals["target_calories"] != 2248.0 {
		t.Errorf("expected 2248 kcal preview, got %v", body["goals"])
	}

	resp, _ = e.do(t, http.MethodPut, "/api/profile", profile, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp, body = e.do(t, http.MethodGet, "/api/profile", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if p, _ := body["profile"].(map[string]any); p["target_calories"] != 2248.0 || p["user_id"] != 1.0 {
		t.Errorf("unexpected stored profile %v", body["profile"])
	}

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"bad gender", map[string]any{"gender": "x", "age": 35, "weight_kg": 85, "height_cm": 180, "activity_level": "moderate", "goal": "weight_loss"}},
		{"zero age", map[string]any{"gender": "male", "age": 0, "weight_kg": 85, "height_cm": 180, "activity_level": "moderate", "goal": "weight_loss"}},
		{"unknown field", map[string]any{"gender": "male", "shoe_size": 44}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if resp, body := e.do(t, http.MethodPut, "/api/profile", tc.payload, ""); resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %v", resp.StatusCode, body)
			}
		})
	}
}

func TestPlanGenerateAndWeek(t *testing.T) {
	e := newTestServer(t, cook)

	resp, _ := e.do(t, http.MethodPost, "/api/plan/generate", map[string]any{"start_date": "2025-03-03"}, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 without profile, got %d", resp.StatusCode)
	}

	e.seedProfile(t, cook.ID, 1800)
	resp, body := e.do(t, http.MethodPost, "/api/plan/generate", map[string]any{"start_date": "2025-03-03"}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", resp.StatusCode, body)
	}
	if meals, _ := body["meals"].([]any); len(meals) != 21 {
		t.Fatalf("expected 21 meals, got %d", len(meals))
	}

	resp, body = e.do(t, http.MethodPost, "/api/plan/generate", map[string]any{"start_date": "2025-03-03"}, "")
	if resp.StatusCode != http.StatusConflict || body["code"] != "plan_exists" {
		t.Errorf("expected 409 plan_exists, got %d %v", resp.StatusCode, body)
	}

	resp, body = e.do(t, http.MethodGet, "/api/plan/week?start=2025-03-03", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["complete"] != true || body["missing_meals"] != 0.0 {
		t.Errorf("expected complete week, got complete=%v missing=%v", body["complete"], body["missing_meals"])
	}
	if days, _ := body["days"].([]any); len(days) != 7 {
		t.Errorf("expected 7 days, got %d", len(days))
	}

	resp, body = e.do(t, http.MethodGet, "/api/plan/day/2025-03-05", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if meals, _ := body["meals"].([]any); len(meals) != 3 || body["complete"] != true {
		t.Errorf("expected a complete day, got %v", body)
	}

	if resp, _ = e.do(t, http.MethodGet, "/api/plan/day/March-5", nil, ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed date, got %d", resp.StatusCode)
	}
}

func TestPlanMaintainAndMissing(t *testing.T) {
	e := newTestServer(t, cook)
	e.seedProfile(t, cook.ID, 1800)
	e.seedMeals(t,
		domain.PlannedMealDraft{UserID: 1, RecipeID: 1, MealDate: "2025-03-01", MealType: domain.Breakfast},
		domain.PlannedMealDraft{UserID: 1, RecipeID: 2, MealDate: "2025-03-04", MealType: domain.Lunch},
	)

	_, body := e.do(t, http.MethodGet, "/api/plan/missing?start=2025-03-03&days=3", nil, "")
	missing, _ := body["missing_days"].([]any)
	if len(missing) != 3 {
		t.Fatalf("expected 3 missing days, got %v", body["missing_days"])
	}

	resp, body := e.do(t, http.MethodPost, "/api/plan/maintain", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	if body["inserted"] != 20.0 {
		t.Errorf("expected 20 inserted meals, got %v", body["inserted"])
	}

	_, body = e.do(t, http.MethodGet, "/api/plan/missing", nil, "")
	if missing, _ := body["missing_days"].([]any); len(missing) != 0 {
		t.Errorf("expected no missing days after maintenance, got %v", missing)
	}

	meals, _ := e.db.ListPlannedMeals(context.Background(), 1, "2025-03-01", "2025-03-01")
	if len(meals) != 0 {
		t.Errorf("expected past meals purged, got %d", len(meals))
	}
}

func TestPlannedMealEndpoints(t *testing.T) {
	e := newTestServer(t, cook)
	e.db.AddRecipes(domain.Recipe{ID: 50, Name: "Feast", MealTypes: []domain.MealType{domain.Breakfast}, TotalCalories: 900})
	meals := e.seedMeals(t,
		domain.PlannedMealDraft{UserID: 1, RecipeID: 1, MealDate: "2025-03-03", MealType: domain.Breakfast},
		domain.PlannedMealDraft{UserID: 2, RecipeID: 1, MealDate: "2025-03-03", MealType: domain.Breakfast},
	)
	path := "/api/planned-meals/" + jsonID(meals[0].ID)

	resp, body := e.do(t, http.MethodPatch, path+"/eaten", map[string]any{"is_eaten": true}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	if m, _ := body["meal"].(map[string]any); m["is_eaten"] != true {
		t.Errorf("expected eaten meal, got %v", body["meal"])
	}

	resp, body = e.do(t, http.MethodPatch, path+"/ingredients", map[string]any{"ingredient_id": 1, "new_amount": 60}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	m, _ := body["meal"].(map[string]any)
	if ovs, _ := m["ingredient_overrides"].([]any); len(ovs) != 1 {
		t.Errorf("expected one override, got %v", m["ingredient_overrides"])
	}

	resp, body = e.do(t, http.MethodGet, path+"/replacements", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	candidates, _ := body["candidates"].([]any)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %v", candidates)
	}
	if first, _ := candidates[0].(map[string]any); first["id"] != 3.0 || first["calorie_diff"] != -72.0 {
		t.Errorf("expected recipe 3 at -72 kcal first, got %v", first)
	}

	tests := []struct {
		name       string
		method     string
		path       string
		payload    map[string]any
		wantStatus int
		wantCode   string
	}{
		{"swap wrong slot", http.MethodPost, path + "/swap", map[string]any{"recipe_id": 4}, http.StatusUnprocessableEntity, "meal_type_mismatch"},
		{"swap too many calories", http.MethodPost, path + "/swap", map[string]any{"recipe_id": 50}, http.StatusUnprocessableEntity, "calorie_delta_exceeded"},
		{"swap unknown recipe", http.MethodPost, path + "/swap", map[string]any{"recipe_id": 999}, http.StatusNotFound, "recipe_not_found"},
		{"other user's meal", http.MethodPatch, "/api/planned-meals/" + jsonID(meals[1].ID) + "/eaten", map[string]any{"is_eaten": true}, http.StatusNotFound, "meal_not_found"},
		{"foreign ingredient", http.MethodPatch, path + "/ingredients", map[string]any{"ingredient_id": 5, "new_amount": 10}, http.StatusBadRequest, "invalid_request"},
		{"negative amount", http.MethodPatch, path + "/ingredients", map[string]any{"ingredient_id": 1, "new_amount": -1}, http.StatusBadRequest, "invalid_request"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := e.do(t, tc.method, tc.path, tc.payload, "")
			if resp.StatusCode != tc.wantStatus || body["code"] != tc.wantCode {
				t.Errorf("expected %d %s, got %d %v", tc.wantStatus, tc.wantCode, resp.StatusCode, body)
			}
		})
	}

	resp, body = e.do(t, http.MethodPost, path+"/swap", map[string]any{"recipe_id": 3}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	m, _ = body["meal"].(map[string]any)
	if m["recipe_id"] != 3.0 || m["ingredient_overrides"] != nil {
		t.Errorf("expected swapped meal without overrides, got %v", m)
	}

	if resp, _ = e.do(t, http.MethodPatch, "/api/planned-meals/abc/eaten", map[string]any{"is_eaten": true}, ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed id, got %d", resp.StatusCode)
	}
}

func TestShoppingListEndpoint(t *testing.T) {
	e := newTestServer(t, cook)
	e.seedMeals(t,
		domain.PlannedMealDraft{UserID: 1, RecipeID: 1, MealDate: "2025-03-03", MealType: domain.Breakfast},
		domain.PlannedMealDraft{UserID: 1, RecipeID: 4, MealDate: "2025-03-03", MealType: domain.Lunch},
		domain.PlannedMealDraft{UserID: 1, RecipeID: 1, MealDate: "2025-03-20", MealType: domain.Breakfast},
	)

	resp, body := e.do(t, http.MethodGet, "/api/shopping-list?start=2025-03-03&end=2025-03-09", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	categories, _ := body["categories"].([]any)
	want := []string{"dairy", "grains", "oils", "other", "protein", "vegetables"}
	if len(categories) != len(want) {
		t.Fatalf("expected %d categories, got %v", len(want), categories)
	}
	for i, c := range categories {
		if name := c.(map[string]any)["category"]; name != want[i] {
			t.Errorf("category %d: expected %s, got %v", i, want[i], name)
		}
	}

	resp, body = e.do(t, http.MethodGet, "/api/shopping-list?start=2025-03-09&end=2025-03-03", nil, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for inverted range, got %d: %v", resp.StatusCode, body)
	}
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
