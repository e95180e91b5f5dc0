package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deliverymetrics/projcost/pkg/advanced"
	"github.com/deliverymetrics/projcost/pkg/history"
)

func newTestServer() *Server {
	store := history.NewMemoryStore(history.SeedProjects()...)
	estimator := advanced.NewEstimator(advanced.DefaultConfig())
	estimator.LoadHistory(store)
	return New(store, estimator)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response is not valid JSON: %v\n%s", err, rec.Body.String())
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := decodeBody(t, rec); body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
}

func TestEstimateEndpoint(t *testing.T) {
	srv := newTestServer()

	payload := `{
		"name": "某银行监管报送项目",
		"project_type": "regulatory_reporting",
		"data_sources_count": 5,
		"interface_tables_count": 60,
		"reports_count": 10
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estimate", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	body := decodeBody(t, rec)

	total, ok := body["total_hours"].(float64)
	if !ok || total <= 0 {
		t.Errorf("total_hours = %v, want a positive number", body["total_hours"])
	}
	if body["confidence_level"] != "低" {
		t.Errorf("confidence_level = %v, want 低", body["confidence_level"])
	}
	if _, ok := body["wbs_structure"]; !ok {
		t.Error("Response is missing wbs_structure")
	}
}

func TestEstimateEndpointBadRequests(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"invalid JSON", "{not json"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/estimate", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if body := decodeBody(t, rec); body["error"] == nil || body["error"] == "" {
				t.Error("Expected an error message")
			}
		})
	}
}

func TestEstimateWithSimilarEndpoint(t *testing.T) {
	srv := newTestServer()

	payload := `{
		"target_project": {
			"project_type": "regulatory_reporting",
			"client_type": "joint_stock",
			"data_sources_count": 5,
			"interface_tables_count": 60,
			"reports_count": 10
		},
		"top_k": 3
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estimate/with-similar", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	body := decodeBody(t, rec)

	rule, ok := body["rule_based_estimation"].(map[string]any)
	if !ok {
		t.Fatal("Response is missing rule_based_estimation")
	}
	ruleHours, _ := rule["total_hours"].(float64)
	if ruleHours <= 0 {
		t.Errorf("rule total_hours = %v, want positive", rule["total_hours"])
	}

	caseBased, ok := body["similarity_based_estimation"].(map[string]any)
	if !ok {
		t.Fatal("Response is missing similarity_based_estimation")
	}
	if caseBased["valid"] != true {
		t.Errorf("Expected a valid case-based estimate against the seed catalog: %v", caseBased)
	}

	similar, ok := body["similar_projects"].([]any)
	if !ok || len(similar) != 3 {
		t.Errorf("Expected 3 similar projects, got %v", body["similar_projects"])
	}

	ensemble, ok := body["ensemble_estimation"].(map[string]any)
	if !ok {
		t.Fatal("Response is missing ensemble_estimation")
	}
	ensembleHours, _ := ensemble["total_hours"].(float64)
	caseHours, _ := caseBased["estimate"].(float64)
	lo, hi := min(ruleHours, caseHours), max(ruleHours, caseHours)
	if ensembleHours < lo || ensembleHours > hi {
		t.Errorf("Ensemble %.1f outside its component range [%.1f, %.1f]", ensembleHours, lo, hi)
	}
}

func TestSimilaritySearchEndpoint(t *testing.T) {
	srv := newTestServer()

	payload := `{
		"target_project": {
			"project_type": "regulatory_reporting",
			"client_type": "state_owned_bank",
			"data_sources_count": 9,
			"interface_tables_count": 130,
			"reports_count": 16
		},
		"top_k": 100,
		"method": "cosine"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/similarity/search", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	body := decodeBody(t, rec)

	// top_k is clamped, but the seed catalog only has 5 entries anyway.
	if body["total_found"] != float64(5) {
		t.Errorf("total_found = %v, want 5", body["total_found"])
	}
	if body["method"] != "cosine" {
		t.Errorf("method = %v, want cosine", body["method"])
	}
}

func TestHistoricalProjectsEndpoints(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/historical-projects", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("List status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := decodeBody(t, rec); body["total"] != float64(5) {
		t.Errorf("total = %v, want 5", body["total"])
	}

	payload := `{
		"name": "某城商行报送项目",
		"project_type": "regulatory_reporting",
		"client_type": "city_bank",
		"actual_hours": 850,
		"complexity": "medium",
		"team_size": 4
	}`
	req = httptest.NewRequest(http.MethodPost, "/api/v1/historical-projects", strings.NewReader(payload))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Add status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["id"] == nil || body["id"] == "" {
		t.Error("Expected a generated project ID")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/historical-projects", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if body := decodeBody(t, rec); body["total"] != float64(6) {
		t.Errorf("total after append = %v, want 6", body["total"])
	}
}

func TestAddHistoricalProjectRequiresName(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/historical-projects",
		strings.NewReader(`{"actual_hours": 100}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAdvancedCostEndpoint(t *testing.T) {
	srv := newTestServer()

	payload := `{
		"hours": 1000,
		"complexity": "high",
		"team_size": 6,
		"duration": 120,
		"industry": "finance",
		"team_experience": "senior"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cost/advanced", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	body := decodeBody(t, rec)

	total, ok := body["total_cost"].(float64)
	if !ok || total <= 0 {
		t.Errorf("total_cost = %v, want positive", body["total_cost"])
	}
	if _, ok := body["risk_assessment"]; !ok {
		t.Error("Response is missing risk_assessment")
	}
}

func TestAdvancedCostValidation(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cost/advanced",
		strings.NewReader(`{"hours": 0, "complexity": "extreme"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	body := decodeBody(t, rec)
	errs, ok := body["errors"].([]any)
	if !ok || len(errs) != 2 {
		t.Errorf("errors = %v, want 2 validation messages", body["errors"])
	}
}

func TestListModelsEndpoint(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/models/estimation", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := decodeBody(t, rec)
	models, ok := body["models"].([]any)
	if !ok || len(models) != 3 {
		t.Errorf("Expected 3 models, got %v", body["models"])
	}
}

func TestNotFoundRoutes(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/unknown"},
		{http.MethodGet, "/api/v1/estimate"}, // wrong method
		{http.MethodPost, "/api/v1/models/estimation"},
	}

	for _, tc := range tests {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want %d", tc.method, tc.path, rec.Code, http.StatusNotFound)
		}
	}
}

func TestRateLimiting(t *testing.T) {
	srv := newTestServer()
	srv.SetRateLimit(1, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/historical-projects", nil)
	req.RemoteAddr = "203.0.113.7:1234"

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("First request status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Second request status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	// A different client has its own limiter.
	other := httptest.NewRequest(http.MethodGet, "/api/v1/historical-projects", nil)
	other.RemoteAddr = "203.0.113.8:1234"
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Errorf("Other client status = %d, want %d", rec.Code, http.StatusOK)
	}

	// Health stays reachable for probes.
	health := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	health.RemoteAddr = "203.0.113.7:1234"
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, health)
	if rec.Code != http.StatusOK {
		t.Errorf("Health status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"plain remote addr", "192.0.2.1:5000", "", "192.0.2.1"},
		{"single forwarded", "10.0.0.1:80", "203.0.113.9", "203.0.113.9"},
		{"forwarded chain", "10.0.0.1:80", "203.0.113.9, 10.0.0.2", "203.0.113.9"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if got := clientIP(req); got != tc.want {
				t.Errorf("clientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}
