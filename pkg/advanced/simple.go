package advanced

import (
	"fmt"
	"math"
)

// SimpleResult is the output of the three-label cost model.
type SimpleResult struct {
	BaseCost       float64 `json:"base_cost"`
	TotalCost      float64 `json:"total_cost"`
	CostPerHour    float64 `json:"cost_per_hour"`
	TeamFactor     float64 `json:"team_factor"`
	DurationFactor float64 `json:"duration_factor"`
}

// SimpleEstimator is the original three-label cost model kept for
// callers that don't need risk, history or industry adjustments. It
// recognizes the labels low, medium and high only.
type SimpleEstimator struct {
	BaseCostPerHour   float64
	ComplexityFactors map[string]float64
}

// NewSimpleEstimator returns the simple model with its built-in rates.
func NewSimpleEstimator() *SimpleEstimator {
	return &SimpleEstimator{
		BaseCostPerHour: 100,
		ComplexityFactors: map[string]float64{
			"low":    1.0,
			"medium": 1.5,
			"high":   2.0,
		},
	}
}

// EstimateCost computes hours × rate × complexity, then applies the team
// size factor (+10% per extra member) and the duration factor (+1% per
// day, capped at +20%).
func (e *SimpleEstimator) EstimateCost(params Params) SimpleResult {
	p := params.withDefaults()

	factor, ok := e.ComplexityFactors[p.Complexity]
	if !ok {
		factor = 1.5
	}

	baseCost := p.Hours * e.BaseCostPerHour * factor
	teamFactor := 1 + float64(p.TeamSize-1)*0.1
	durationFactor := math.Min(1.2, 1+float64(p.Duration)*0.01)
	totalCost := baseCost * teamFactor * durationFactor

	costPerHour := 0.0
	if p.Hours > 0 {
		costPerHour = totalCost / p.Hours
	}

	return SimpleResult{
		BaseCost:       baseCost,
		TotalCost:      totalCost,
		CostPerHour:    costPerHour,
		TeamFactor:     teamFactor,
		DurationFactor: durationFactor,
	}
}

// Validate mirrors Estimator.Validate for the reduced label set.
func (e *SimpleEstimator) Validate(params Params) []string {
	var errs []string

	if params.Hours <= 0 {
		errs = append(errs, "工时必须大于0")
	}
	if params.Complexity != "" {
		if _, ok := e.ComplexityFactors[params.Complexity]; !ok {
			errs = append(errs, fmt.Sprintf("复杂度必须是以下之一: %v", sortedKeys(e.ComplexityFactors)))
		}
	}
	if params.TeamSize < 0 {
		errs = append(errs, "团队规模必须大于0")
	}
	if params.Duration < 0 {
		errs = append(errs, "项目持续时间必须大于0")
	}

	return errs
}
