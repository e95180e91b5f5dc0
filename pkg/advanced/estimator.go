package advanced

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/deliverymetrics/projcost/pkg/history"
)

// Params are the cost model inputs. Zero values take the documented
// defaults: complexity medium, team of one, one day duration, the
// technology industry and an intermediate team.
type Params struct {
	Hours          float64   `json:"hours"`
	Complexity     string    `json:"complexity,omitempty"`
	TeamSize       int       `json:"team_size,omitempty"`
	Duration       int       `json:"duration,omitempty"` // days
	Industry       string    `json:"industry,omitempty"`
	TeamExperience string    `json:"team_experience,omitempty"`
	StartDate      time.Time `json:"start_date,omitempty"`
}

// withDefaults fills unset fields with the documented defaults.
func (p Params) withDefaults() Params {
	if p.Complexity == "" {
		p.Complexity = "medium"
	}
	if p.TeamSize == 0 {
		p.TeamSize = 1
	}
	if p.Duration == 0 {
		p.Duration = 1
	}
	if p.Industry == "" {
		p.Industry = "technology"
	}
	if p.TeamExperience == "" {
		p.TeamExperience = "intermediate"
	}
	return p
}

// Factors itemizes every multiplier applied to the base cost.
type Factors struct {
	Complexity float64 `json:"complexity_factor"`
	Industry   float64 `json:"industry_multiplier"`
	Experience float64 `json:"experience_factor"`
	Team       float64 `json:"team_factor"`
	Duration   float64 `json:"duration_factor"`
	Accuracy   float64 `json:"accuracy_adjustment"`
	Inflation  float64 `json:"inflation_adjustment"`
}

// Result is the itemized cost estimate.
type Result struct {
	BaseCost        float64        `json:"base_cost"`
	Subtotal        float64        `json:"subtotal"`
	TotalCost       float64        `json:"total_cost"`
	RiskContingency float64        `json:"risk_contingency"`
	CostPerHour     float64        `json:"cost_per_hour"`
	Factors         Factors        `json:"factors"`
	RiskAssessment  RiskAssessment `json:"risk_assessment"`
	// ConfidenceLevel is in [0, 1].
	ConfidenceLevel float64 `json:"confidence_level"`
}

// Estimator is the advanced cost model. It owns a private copy of the
// config, the risk catalog and its historical project list; a single
// instance assumes non-concurrent access.
type Estimator struct {
	cfg     Config
	risks   []Risk
	history []history.Project
	logger  *slog.Logger
}

// NewEstimator builds an estimator over the given config.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{
		cfg:    cfg,
		risks:  defaultRiskCatalog(),
		logger: slog.Default(),
	}
}

// LoadConfigFile replaces the estimator's config with the file contents
// merged over defaults. A load failure is reported as a warning and the
// in-memory config is left untouched.
func (e *Estimator) LoadConfigFile(path string) {
	cfg, err := LoadConfig(path)
	if err != nil {
		e.logger.Warn("config load failed, keeping current config",
			"path", path, "error", err)
		return
	}
	e.cfg = cfg
}

// AddHistoricalProject appends one completed project to the estimator's
// working set.
func (e *Estimator) AddHistoricalProject(p history.Project) {
	e.history = append(e.history, p)
}

// LoadHistory replaces the working set from a store. A failure is a
// warning; the previous working set survives.
func (e *Estimator) LoadHistory(store history.Store) {
	projects, err := store.List()
	if err != nil {
		e.logger.Warn("historical data load failed, keeping current set", "error", err)
		return
	}
	e.history = projects
}

// Config returns the active configuration.
func (e *Estimator) Config() Config {
	return e.cfg
}

// EstimateCost produces the itemized cost estimate for the given
// parameters. Unknown complexity labels fall back to the medium factor
// and unknown industry/experience labels to a neutral 1.0; Validate
// reports those cases, EstimateCost never fails on them.
func (e *Estimator) EstimateCost(params Params) Result {
	p := params.withDefaults()

	complexityFactor, ok := e.cfg.ComplexityFactors[p.Complexity]
	if !ok {
		complexityFactor = 1.5
	}
	industryMultiplier, ok := e.cfg.IndustryMultipliers[p.Industry]
	if !ok {
		industryMultiplier = 1.0
	}
	experienceFactor, ok := e.cfg.TeamExperienceFactors[p.TeamExperience]
	if !ok {
		experienceFactor = 1.0
	}

	baseCost := p.Hours * e.cfg.BaseCostPerHour * complexityFactor
	teamFactor := 1 + float64(p.TeamSize-1)*0.1
	durationFactor := math.Min(1.2, 1+float64(p.Duration)*0.01)
	accuracy := e.accuracyAdjustment(p)
	inflation := e.inflationAdjustment(p.StartDate)

	subtotal := baseCost * teamFactor * durationFactor *
		industryMultiplier * experienceFactor * accuracy * inflation

	riskAssessment := e.AssessRisks(params)
	riskContingency := subtotal * e.cfg.RiskContingencyRate * riskAssessment.OverallRiskFactor
	totalCost := subtotal + riskContingency

	costPerHour := 0.0
	if p.Hours > 0 {
		costPerHour = totalCost / p.Hours
	}

	return Result{
		BaseCost:        baseCost,
		Subtotal:        subtotal,
		TotalCost:       totalCost,
		RiskContingency: riskContingency,
		CostPerHour:     costPerHour,
		Factors: Factors{
			Complexity: complexityFactor,
			Industry:   industryMultiplier,
			Experience: experienceFactor,
			Team:       teamFactor,
			Duration:   durationFactor,
			Accuracy:   accuracy,
			Inflation:  inflation,
		},
		RiskAssessment:  riskAssessment,
		ConfidenceLevel: e.confidenceLevel(params),
	}
}

// accuracyAdjustment compares past estimates against outcomes for
// projects with the same complexity label and a team within ±2 people.
// No comparable history means no adjustment.
func (e *Estimator) accuracyAdjustment(p Params) float64 {
	var ratios []float64
	for _, h := range e.history {
		if h.Complexity != p.Complexity {
			continue
		}
		if abs(h.TeamSize-p.TeamSize) > 2 {
			continue
		}
		if h.ActualHours == 0 {
			continue
		}
		ratios = append(ratios, h.EstimatedHours/h.ActualHours)
	}
	if len(ratios) == 0 {
		return 1.0
	}

	var sum float64
	for _, r := range ratios {
		sum += r
	}
	mean := sum / float64(len(ratios))

	return math.Min(1.3, math.Max(0.8, mean))
}

// maxInflationAdjustment caps how much a deferred start can raise the
// cost.
const maxInflationAdjustment = 1.5

// inflationAdjustment compounds the annual inflation rate over the years
// until a future start date. Past or unset start dates need none.
func (e *Estimator) inflationAdjustment(start time.Time) float64 {
	now := time.Now()
	if start.IsZero() || !start.After(now) {
		return 1.0
	}

	years := start.Sub(now).Hours() / 24 / 365.25
	factor := math.Pow(1+e.cfg.InflationRate, years)

	return math.Min(maxInflationAdjustment, factor)
}

// confidenceLevel starts at 0.8 and grows with comparable history
// (+0.03 per project with the same complexity label, capped at +0.15)
// and with parameter completeness (up to +0.05 across hours, complexity,
// team size and duration). Capped at 1.0.
func (e *Estimator) confidenceLevel(params Params) float64 {
	confidence := 0.8

	if len(e.history) > 0 {
		complexity := params.Complexity
		if complexity == "" {
			complexity = "medium"
		}
		similar := 0
		for _, h := range e.history {
			if h.Complexity == complexity {
				similar++
			}
		}
		confidence += math.Min(0.15, float64(similar)*0.03)
	}

	provided := 0
	if params.Hours > 0 {
		provided++
	}
	if params.Complexity != "" {
		provided++
	}
	if params.TeamSize > 0 {
		provided++
	}
	if params.Duration > 0 {
		provided++
	}
	confidence += float64(provided) / 4 * 0.05

	return math.Min(1.0, confidence)
}

// Validate collects every parameter problem as a human-readable message
// instead of stopping at the first. An empty slice means the parameters
// are usable.
func (e *Estimator) Validate(params Params) []string {
	var errs []string

	if params.Hours <= 0 {
		errs = append(errs, "工时必须大于0")
	}
	if params.Complexity != "" {
		if _, ok := e.cfg.ComplexityFactors[params.Complexity]; !ok {
			errs = append(errs, fmt.Sprintf("复杂度必须是以下之一: %v", sortedKeys(e.cfg.ComplexityFactors)))
		}
	}
	// Zero means unset (the documented default applies); negatives are
	// out of domain.
	if params.TeamSize < 0 {
		errs = append(errs, "团队规模必须大于0")
	}
	if params.Duration < 0 {
		errs = append(errs, "项目持续时间必须大于0")
	}
	if params.Industry != "" {
		if _, ok := e.cfg.IndustryMultipliers[params.Industry]; !ok {
			errs = append(errs, fmt.Sprintf("行业类型必须是以下之一: %v", sortedKeys(e.cfg.IndustryMultipliers)))
		}
	}
	if params.TeamExperience != "" {
		if _, ok := e.cfg.TeamExperienceFactors[params.TeamExperience]; !ok {
			errs = append(errs, fmt.Sprintf("团队经验必须是以下之一: %v", sortedKeys(e.cfg.TeamExperienceFactors)))
		}
	}

	return errs
}

// sortedKeys returns map keys in lexical order so validation messages
// are deterministic.
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
