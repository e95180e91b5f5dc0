// Package server implements the HTTP API for the project cost
// estimation engine. It is a thin adapter: request marshaling, rate
// limiting and routing around the pure estimation packages.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/deliverymetrics/projcost/pkg/advanced"
	"github.com/deliverymetrics/projcost/pkg/estimate"
	"github.com/deliverymetrics/projcost/pkg/history"
	"github.com/deliverymetrics/projcost/pkg/similarity"
)

const (
	// DefaultRateLimit is the default requests per second limit.
	DefaultRateLimit = 100
	// DefaultRateBurst is the default burst size for rate limiting.
	DefaultRateBurst = 100
	// maxRequestBody caps request body size.
	maxRequestBody = 1 << 20 // 1MB
	// maxTopK bounds similarity search result size.
	maxTopK = 10
	// defaultTopK is used when a search request omits top_k.
	defaultTopK = 5
)

// Server handles HTTP requests for the estimation API.
type Server struct {
	logger    *slog.Logger
	store     history.Store
	estimator *advanced.Estimator

	// Per-IP rate limiting.
	ipLimiters   map[string]*rate.Limiter
	ipLimitersMu sync.Mutex
	rateLimit    int
	rateBurst    int

	serverCommit string
	corsOrigins  []string
	allowAllCors bool
}

// New creates a Server over a historical catalog and a configured cost
// estimator.
func New(store history.Store, estimator *advanced.Estimator) *Server {
	logger := slog.Default().With("component", "projcost-server")

	return &Server{
		logger:     logger,
		store:      store,
		estimator:  estimator,
		ipLimiters: make(map[string]*rate.Limiter),
		rateLimit:  DefaultRateLimit,
		rateBurst:  DefaultRateBurst,
	}
}

// SetCommit sets the server commit hash reported in responses.
func (s *Server) SetCommit(commit string) {
	s.serverCommit = commit
}

// SetRateLimit sets the per-IP rate limiting configuration.
func (s *Server) SetRateLimit(rps, burst int) {
	ctx := context.Background()
	s.rateLimit = rps
	s.rateBurst = burst
	s.logger.InfoContext(ctx, "rate limit configured (per-IP)",
		"requests_per_sec", rps, "burst", burst)
}

// SetCORSConfig sets the allowed CORS origins. allowAll is intended for
// development only.
func (s *Server) SetCORSConfig(origins string, allowAll bool) {
	ctx := context.Background()
	if allowAll {
		s.allowAllCors = true
		s.logger.WarnContext(ctx, "CORS configured to allow all origins - development mode only")
		return
	}
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			s.corsOrigins = append(s.corsOrigins, origin)
		}
	}
	s.logger.InfoContext(ctx, "CORS origins configured", "origins", s.corsOrigins)
}

// Handler returns the server wrapped in its CORS middleware.
func (s *Server) Handler() http.Handler {
	opts := cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}
	if s.allowAllCors {
		opts.AllowedOrigins = []string{"*"}
	}
	return cors.New(opts).Handler(s)
}

// limiter returns the rate limiter for the given IP address.
func (s *Server) limiter(ip string) *rate.Limiter {
	s.ipLimitersMu.Lock()
	defer s.ipLimitersMu.Unlock()

	if limiter, ok := s.ipLimiters[ip]; ok {
		return limiter
	}

	limiter := rate.NewLimiter(rate.Limit(s.rateLimit), s.rateBurst)
	s.ipLimiters[ip] = limiter

	// Keep the map bounded so hostile clients cannot grow it forever.
	const maxLimiters = 10000
	if len(s.ipLimiters) > maxLimiters {
		count := 0
		target := len(s.ipLimiters) / 2
		for addr := range s.ipLimiters {
			delete(s.ipLimiters, addr)
			if count++; count >= target {
				break
			}
		}
	}

	return limiter
}

// clientIP extracts the client address for rate limiting and logging.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// ServeHTTP routes API requests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Security headers.
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "no-referrer")

	ctx := r.Context()
	ip := clientIP(r)
	s.logger.InfoContext(ctx, "incoming request",
		"client_ip", ip, "method", r.Method, "path", r.URL.Path)

	if r.URL.Path != "/healthz" && !s.limiter(ip).Allow() {
		s.logger.WarnContext(ctx, "rate limit exceeded", "client_ip", ip, "path", r.URL.Path)
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	switch {
	case r.URL.Path == "/healthz":
		s.handleHealth(w, r)
	case r.URL.Path == "/api/v1/estimate" && r.Method == http.MethodPost:
		s.handleEstimate(w, r)
	case r.URL.Path == "/api/v1/estimate/with-similar" && r.Method == http.MethodPost:
		s.handleEstimateWithSimilar(w, r)
	case r.URL.Path == "/api/v1/similarity/search" && r.Method == http.MethodPost:
		s.handleSimilaritySearch(w, r)
	case r.URL.Path == "/api/v1/historical-projects" && r.Method == http.MethodGet:
		s.handleListHistory(w, r)
	case r.URL.Path == "/api/v1/historical-projects" && r.Method == http.MethodPost:
		s.handleAddHistory(w, r)
	case r.URL.Path == "/api/v1/cost/advanced" && r.Method == http.MethodPost:
		s.handleAdvancedCost(w, r)
	case r.URL.Path == "/api/v1/models/estimation" && r.Method == http.MethodGet:
		s.handleListModels(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// SimilaritySearchRequest asks for the historical projects most similar
// to a target.
type SimilaritySearchRequest struct {
	Target estimate.ProjectInfo `json:"target_project"`
	TopK   int                  `json:"top_k,omitempty"`
	Method similarity.Method    `json:"method,omitempty"`
}

// handleEstimate runs the rule engine for one project.
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var info estimate.ProjectInfo
	if err := decodeJSON(r, &info); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := estimate.Estimate(info)
	s.logger.InfoContext(r.Context(), "estimate computed",
		"project", info.Name,
		"total_hours", result.TotalHours,
		"complexity", result.ComplexityScore.Level)

	writeJSON(w, http.StatusOK, struct {
		estimate.Result
		Commit string `json:"commit,omitempty"`
	}{result, s.serverCommit})
}

// handleEstimateWithSimilar combines the rule engine, case-based
// estimation over the historical catalog and the ensemble blend.
func (s *Server) handleEstimateWithSimilar(w http.ResponseWriter, r *http.Request) {
	var req SimilaritySearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	topK := clampTopK(req.TopK)

	ruleResult := estimate.Estimate(req.Target)

	projects, err := s.store.List()
	if err != nil {
		// Degrade to the rule engine alone rather than failing.
		s.logger.WarnContext(r.Context(), "historical catalog unavailable", "error", err)
		projects = nil
	}

	target := targetFromProject(req.Target)
	target.ComplexityScore = ruleResult.ComplexityScore.Total

	matches := similarity.NewMatcher(projects).FindSimilar(target, topK, similarity.MethodHybrid)
	caseEstimate := similarity.EstimateFromSimilar(matches)
	ensemble := similarity.Ensemble(ruleResult.TotalHours, caseEstimate)

	type similarProject struct {
		Name        string  `json:"name"`
		Score       float64 `json:"similarity_score"`
		ActualHours float64 `json:"actual_hours"`
		Variance    float64 `json:"variance"`
	}
	similar := make([]similarProject, 0, len(matches))
	for _, m := range matches {
		similar = append(similar, similarProject{
			Name:        m.Project.Name,
			Score:       m.Score,
			ActualHours: m.Project.ActualHours,
			Variance:    m.Project.VariancePercentage,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rule_based_estimation": map[string]any{
			"total_hours":      ruleResult.TotalHours,
			"confidence_level": ruleResult.ConfidenceLevel,
			"complexity_score": ruleResult.ComplexityScore.Total,
		},
		"similarity_based_estimation": caseEstimate,
		"similar_projects":            similar,
		"ensemble_estimation": map[string]any{
			"total_hours": ensemble,
			"method":      "weighted_average",
			"weights":     map[string]float64{"rule_based": 0.6, "similarity_based": 0.4},
		},
	})
}

// handleSimilaritySearch returns the ranked matches without estimating.
func (s *Server) handleSimilaritySearch(w http.ResponseWriter, r *http.Request) {
	var req SimilaritySearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	topK := clampTopK(req.TopK)
	method := req.Method
	if method == "" {
		method = similarity.MethodHybrid
	}

	projects, err := s.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "historical catalog unavailable")
		return
	}

	results := similarity.NewMatcher(projects).FindSimilar(targetFromProject(req.Target), topK, method)

	writeJSON(w, http.StatusOK, map[string]any{
		"total_found": len(results),
		"method":      method,
		"results":     results,
	})
}

// handleListHistory returns the historical catalog.
func (s *Server) handleListHistory(w http.ResponseWriter, _ *http.Request) {
	projects, err := s.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "historical catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":    len(projects),
		"projects": projects,
	})
}

// handleAddHistory appends a completed project to the catalog.
func (s *Server) handleAddHistory(w http.ResponseWriter, r *http.Request) {
	var project history.Project
	if err := decodeJSON(r, &project); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if project.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if project.ID == "" {
		project.ID = uuid.New().String()
	}

	if err := s.store.Append(project); err != nil {
		s.logger.ErrorContext(r.Context(), "append failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not store project")
		return
	}
	// Keep the cost estimator's accuracy adjustment in sync.
	s.estimator.AddHistoricalProject(project)

	writeJSON(w, http.StatusCreated, map[string]string{"id": project.ID})
}

// handleAdvancedCost runs parameter validation and the advanced cost
// model. Validation problems come back as a 400 with the full message
// list.
func (s *Server) handleAdvancedCost(w http.ResponseWriter, r *http.Request) {
	var params advanced.Params
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if errs := s.estimator.Validate(params); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}

	result := s.estimator.EstimateCost(params)
	s.logger.InfoContext(r.Context(), "advanced cost computed",
		"hours", params.Hours,
		"total_cost", result.TotalCost,
		"risk_level", result.RiskAssessment.RiskLevel)

	writeJSON(w, http.StatusOK, result)
}

// handleListModels reports the static set of estimation models. No
// model is trained from data; the listing exists for UI discovery.
func (s *Server) handleListModels(w http.ResponseWriter, _ *http.Request) {
	type model struct {
		Name        string `json:"name"`
		Type        string `json:"type"`
		Status      string `json:"status"`
		Description string `json:"description"`
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"models": []model{
			{"规则引擎评估", "rule_based", "active", "基于标准工时定额和复杂度调整的规则引擎"},
			{"相似项目评估", "case_based", "active", "基于历史相似项目的案例推理"},
			{"融合评估", "ensemble", "active", "综合多个模型的评估结果"},
		},
	})
}

// targetFromProject converts rule engine input into a similarity target.
func targetFromProject(p estimate.ProjectInfo) similarity.Target {
	return similarity.Target{
		ProjectType:             p.ProjectType,
		ClientType:              p.ClientType,
		DataSourcesCount:        p.DataSourcesCount,
		InterfaceTablesCount:    p.InterfaceTablesCount,
		ReportsCount:            p.ReportsCount,
		CustomRequirementsCount: p.CustomRequirementsCount,
	}
}

// clampTopK applies the default and upper bound for top-K requests.
func clampTopK(k int) int {
	if k <= 0 {
		return defaultTopK
	}
	if k > maxTopK {
		return maxTopK
	}
	return k
}

// decodeJSON reads a bounded JSON request body.
func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return errors.New("could not read request body")
	}
	if len(body) == 0 {
		return errors.New("empty request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.New("invalid JSON request")
	}
	return nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encoding failed", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
