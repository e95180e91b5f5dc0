// Package estimate implements rule-based workload estimation for data
// platform delivery projects. An estimate is produced in five steps:
// complexity scoring, WBS generation, baseline hours calculation,
// complexity adjustment and three-point (PERT) statistics.
package estimate

import "math"

// Data volume levels recognized by the complexity scorer.
const (
	VolumeMedium    = "medium"
	VolumeLarge     = "large"
	VolumeVeryLarge = "very_large"
)

// Regulation types that raise the business complexity score.
const (
	RegulationCBRC1104 = "1104报送"
	RegulationEAST     = "EAST"
)

// ClientStateOwnedBank marks clients whose governance overhead raises
// the organizational complexity score.
const ClientStateOwnedBank = "state_owned_bank"

// ProjectInfo describes the project being estimated. It is a pure input
// record: the engine never mutates or retains it.
type ProjectInfo struct {
	Name                    string `json:"name"`
	ProjectType             string `json:"project_type"`
	ClientType              string `json:"client_type"`
	DataSourcesCount        int    `json:"data_sources_count"`
	InterfaceTablesCount    int    `json:"interface_tables_count"`
	ReportsCount            int    `json:"reports_count"`
	CustomRequirementsCount int    `json:"custom_requirements_count"`
	// DataVolumeLevel is one of medium, large or very_large. Empty is
	// treated as medium.
	DataVolumeLevel string `json:"data_volume_level,omitempty"`
	// RegulationType is optional (e.g. "1104报送" or "EAST").
	RegulationType string `json:"regulation_type,omitempty"`
}

// Result is the full output of a rule-based estimation run.
type Result struct {
	// TotalHours is the complexity-adjusted hour total.
	TotalHours float64 `json:"total_hours"`

	// Three-point statistics derived from TotalHours.
	Optimistic         float64    `json:"optimistic"`
	MostLikely         float64    `json:"most_likely"`
	Pessimistic        float64    `json:"pessimistic"`
	Expected           float64    `json:"expected"`
	StdDeviation       float64    `json:"std_deviation"`
	ConfidenceInterval [2]float64 `json:"confidence_interval"`

	// PhaseBreakdown maps phase name to complexity-adjusted hours. The
	// values sum to TotalHours up to rounding.
	PhaseBreakdown map[string]float64 `json:"phase_breakdown"`

	// WBS is the generated task tree with per-task base hours filled in.
	WBS []Phase `json:"wbs_structure"`

	ComplexityScore ComplexityScore `json:"complexity_score"`

	// ConfidenceLevel is 高, 中 or 低, mirroring the complexity level.
	ConfidenceLevel string `json:"confidence_level"`
}

// Estimate runs the full rule-based estimation pipeline for a project.
func Estimate(p ProjectInfo) Result {
	complexity := AssessComplexity(p)
	wbs := GenerateWBS(p)
	baseHours := CalculateBaseHours(wbs, p)
	adjusted := ApplyComplexityAdjustment(baseHours, complexity.Level)
	tp := ThreePointEstimate(adjusted, complexity.Level)

	// Scale the per-phase sums by the same multiplier as the total so
	// the breakdown adds up to TotalHours.
	breakdown := PhaseBreakdown(wbs)
	if multiplier, ok := complexityMultipliers[complexity.Level]; ok && multiplier != 1.0 {
		for name, hours := range breakdown {
			breakdown[name] = round1(hours * multiplier)
		}
	}

	return Result{
		TotalHours:         adjusted,
		Optimistic:         tp.Optimistic,
		MostLikely:         tp.MostLikely,
		Pessimistic:        tp.Pessimistic,
		Expected:           tp.Expected,
		StdDeviation:       tp.StdDeviation,
		ConfidenceInterval: tp.ConfidenceInterval,
		PhaseBreakdown:     breakdown,
		WBS:                wbs,
		ComplexityScore:    complexity,
		ConfidenceLevel:    confidenceLevel(complexity.Level),
	}
}

// confidenceLevel maps the complexity level to the reported confidence
// label: simple projects estimate tightly, anything past medium does not.
func confidenceLevel(level Level) string {
	switch level {
	case LevelSimple:
		return "高"
	case LevelMedium:
		return "中"
	default:
		return "低"
	}
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
