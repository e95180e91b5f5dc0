package advanced

import "sort"

// Risk is one entry of the static risk catalog. Probability and Impact
// are both in [0, 1]. Catalog entries are never mutated: relevance
// multipliers are applied to copies during assessment.
type Risk struct {
	Probability float64 `json:"probability"`
	Impact      float64 `json:"impact"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
}

// Risk categories with parameter-dependent relevance rules.
const (
	categoryTechnical = "技术风险"
	categoryStaffing  = "人力资源风险"
)

// defaultRiskCatalog returns the built-in catalog. Each estimator gets
// its own copy so concurrent instances cannot interfere.
func defaultRiskCatalog() []Risk {
	return []Risk{
		{0.3, 0.7, "需求变更频繁", "需求风险"},
		{0.2, 0.8, "技术栈不熟悉", categoryTechnical},
		{0.4, 0.6, "团队成员不稳定", categoryStaffing},
		{0.25, 0.9, "第三方依赖延期", "供应链风险"},
		{0.15, 0.5, "预算限制", "财务风险"},
		{0.35, 0.7, "客户沟通不畅", "沟通风险"},
	}
}

// AssessedRisk is a catalog entry after relevance adjustment.
type AssessedRisk struct {
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Probability float64 `json:"probability"`
	Impact      float64 `json:"impact"`
	// ExpectedValue is probability × impact.
	ExpectedValue float64 `json:"expected_value"`
}

// RiskAssessment summarizes the relevant risks for one project.
type RiskAssessment struct {
	// OverallRiskFactor is the sum of expected values, capped at 2.0.
	OverallRiskFactor float64        `json:"overall_risk_factor"`
	RiskCount         int            `json:"risk_count"`
	TopRisks          []AssessedRisk `json:"top_risks"`
	RiskLevel         string         `json:"risk_level"`
}

// Assessment thresholds and caps.
const (
	minRelevantProbability = 0.1
	maxOverallRiskFactor   = 2.0
	maxTopRisks            = 5
	longDurationDays       = 60
	largeTeamSize          = 5
)

// AssessRisks filters the catalog by relevance for the given project
// parameters. Category multipliers apply first (technical ×1.5 for
// high/enterprise complexity, staffing ×1.3 for teams above five), then
// the duration ×1.2 bump applies on top of any category bump for
// projects past sixty days. The multipliers compose multiplicatively
// before the probability is clamped to 1.0. Risks whose adjusted
// probability stays at or below 0.1 are dropped.
func (e *Estimator) AssessRisks(params Params) RiskAssessment {
	params = params.withDefaults()

	relevant := make([]AssessedRisk, 0, len(e.risks))
	for _, risk := range e.risks {
		relevance := 1.0

		if risk.Category == categoryTechnical &&
			(params.Complexity == "high" || params.Complexity == "enterprise") {
			relevance *= 1.5
		}
		if risk.Category == categoryStaffing && params.TeamSize > largeTeamSize {
			relevance *= 1.3
		}
		if params.Duration > longDurationDays {
			relevance *= 1.2
		}

		probability := risk.Probability * relevance
		if probability > 1.0 {
			probability = 1.0
		}
		if probability <= minRelevantProbability {
			continue
		}

		relevant = append(relevant, AssessedRisk{
			Description:   risk.Description,
			Category:      risk.Category,
			Probability:   probability,
			Impact:        risk.Impact,
			ExpectedValue: probability * risk.Impact,
		})
	}

	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].ExpectedValue > relevant[j].ExpectedValue
	})

	var overall float64
	for _, r := range relevant {
		overall += r.ExpectedValue
	}
	if overall > maxOverallRiskFactor {
		overall = maxOverallRiskFactor
	}

	top := relevant
	if len(top) > maxTopRisks {
		top = top[:maxTopRisks]
	}

	return RiskAssessment{
		OverallRiskFactor: overall,
		RiskCount:         len(relevant),
		TopRisks:          top,
		RiskLevel:         riskLevel(overall),
	}
}

// riskLevel buckets the overall risk factor.
func riskLevel(factor float64) string {
	switch {
	case factor < 0.3:
		return "低风险"
	case factor < 0.7:
		return "中等风险"
	case factor < 1.2:
		return "高风险"
	default:
		return "极高风险"
	}
}
