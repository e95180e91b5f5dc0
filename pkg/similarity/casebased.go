package similarity

import "math"

// Reference points at a matched historical project for explainability.
type Reference struct {
	Name        string  `json:"name"`
	ActualHours float64 `json:"actual_hours"`
	Similarity  float64 `json:"similarity"`
}

// CaseEstimate is a similarity-weighted hours estimate derived from the
// matched set. Valid is false when no estimate could be produced (empty
// match set or all scores zero); every other field is then zero.
type CaseEstimate struct {
	Valid              bool       `json:"valid"`
	Estimate           float64    `json:"estimate"`
	ConfidenceInterval [2]float64 `json:"confidence_interval"`
	// Confidence is the mean similarity score of the matched set.
	Confidence      float64     `json:"confidence"`
	BasedOnProjects int         `json:"based_on_projects"`
	AvgSimilarity   float64     `json:"avg_similarity"`
	AvgVariance     float64     `json:"avg_variance"`
	References      []Reference `json:"reference_projects,omitempty"`
}

// maxReferences bounds how many matched projects are echoed back for
// explainability.
const maxReferences = 3

// EstimateFromSimilar turns a ranked match list into a weighted-average
// hours estimate. Actual hours are weighted by similarity score, the
// historical variance percentage shifts the estimate, and the 95%
// confidence interval uses the sample standard deviation of the matched
// actual hours (a single match falls back to 15% of the weighted mean).
func EstimateFromSimilar(matches []Result) CaseEstimate {
	if len(matches) == 0 {
		return CaseEstimate{}
	}

	var totalWeight float64
	for _, m := range matches {
		totalWeight += m.Score
	}
	if totalWeight == 0 {
		return CaseEstimate{BasedOnProjects: len(matches)}
	}

	var weightedHours, weightedVariance float64
	for _, m := range matches {
		weightedHours += m.Project.ActualHours * m.Score
		weightedVariance += m.Project.VariancePercentage * m.Score
	}
	weightedHours /= totalWeight
	weightedVariance /= totalWeight

	adjusted := weightedHours * (1 + weightedVariance/100)

	stdDev := weightedHours * 0.15
	if len(matches) > 1 {
		stdDev = sampleStdDev(matches)
	}

	references := make([]Reference, 0, maxReferences)
	for _, m := range matches[:min(len(matches), maxReferences)] {
		references = append(references, Reference{
			Name:        m.Project.Name,
			ActualHours: m.Project.ActualHours,
			Similarity:  m.Score,
		})
	}

	avgSimilarity := totalWeight / float64(len(matches))

	return CaseEstimate{
		Valid:    true,
		Estimate: round1(adjusted),
		ConfidenceInterval: [2]float64{
			round1(adjusted - 1.96*stdDev),
			round1(adjusted + 1.96*stdDev),
		},
		Confidence:      math.Round(avgSimilarity*100) / 100,
		BasedOnProjects: len(matches),
		AvgSimilarity:   round4(avgSimilarity),
		AvgVariance:     math.Round(weightedVariance*100) / 100,
		References:      references,
	}
}

// Ensemble weights. The rule engine dominates; the case-based estimate
// corrects it toward observed outcomes.
const (
	ensembleRuleWeight = 0.6
	ensembleCaseWeight = 0.4
)

// Ensemble blends the rule-based hours with a case-based estimate. When
// the case-based estimate is invalid the rule-based hours pass through
// unchanged.
func Ensemble(ruleHours float64, caseEstimate CaseEstimate) float64 {
	if !caseEstimate.Valid {
		return round1(ruleHours)
	}
	return round1(ruleHours*ensembleRuleWeight + caseEstimate.Estimate*ensembleCaseWeight)
}

// sampleStdDev computes the sample standard deviation of the matched
// projects' actual hours.
func sampleStdDev(matches []Result) float64 {
	var sum float64
	for _, m := range matches {
		sum += m.Project.ActualHours
	}
	mean := sum / float64(len(matches))

	var sq float64
	for _, m := range matches {
		d := m.Project.ActualHours - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(matches)-1))
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
