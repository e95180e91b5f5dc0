// Package similarity finds historical projects that resemble a target
// project and turns the matches into a case-based hours estimate.
package similarity

import (
	"math"
	"sort"

	"github.com/deliverymetrics/projcost/pkg/history"
)

// Method selects how sub-scores are combined into a total similarity.
type Method string

// Matching methods. Any other value falls back to a plain average of
// the three sub-scores.
const (
	MethodHybrid    Method = "hybrid"
	MethodCosine    Method = "cosine"
	MethodEuclidean Method = "euclidean"
)

// Target describes the project being matched. All fields are optional:
// empty strings never match categorically, zero counts compare as zero,
// and a zero ComplexityScore is treated as the 5.0 midpoint.
type Target struct {
	ProjectType             string  `json:"project_type"`
	ClientType              string  `json:"client_type"`
	DataSourcesCount        int     `json:"data_sources_count"`
	InterfaceTablesCount    int     `json:"interface_tables_count"`
	ReportsCount            int     `json:"reports_count"`
	CustomRequirementsCount int     `json:"custom_requirements_count"`
	ComplexityScore         float64 `json:"complexity_score"`
}

// complexityScore returns the target's complexity score, defaulting the
// unset zero value to the scale midpoint.
func (t Target) complexityScore() float64 {
	if t.ComplexityScore == 0 {
		return 5.0
	}
	return t.ComplexityScore
}

// Result scores one historical project against the target.
type Result struct {
	Project history.Project `json:"project"`
	// Score is the combined similarity in [0, 1].
	Score float64 `json:"similarity_score"`
	// Sub-scores, each in [0, 1].
	Categorical float64 `json:"categorical_similarity"`
	Scale       float64 `json:"scale_similarity"`
	Complexity  float64 `json:"complexity_similarity"`
	Method      Method  `json:"matching_method"`
}

// Hybrid combination weights.
const (
	hybridCategoricalWeight = 0.4
	hybridScaleWeight       = 0.3
	hybridComplexityWeight  = 0.3
)

// Matcher scores historical projects against targets.
type Matcher struct {
	projects []history.Project
}

// NewMatcher builds a matcher over a historical catalog.
func NewMatcher(projects []history.Project) *Matcher {
	return &Matcher{projects: projects}
}

// FindSimilar returns the topK most similar historical projects, sorted
// by descending score. Ties keep catalog order (the sort is stable), so
// results are deterministic. Fewer than topK projects returns them all.
func (m *Matcher) FindSimilar(target Target, topK int, method Method) []Result {
	results := make([]Result, 0, len(m.projects))
	for _, hist := range m.projects {
		results = append(results, m.score(target, hist, method))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK < len(results) {
		results = results[:topK]
	}
	return results
}

// score computes the three sub-scores and combines them per method.
func (m *Matcher) score(target Target, hist history.Project, method Method) Result {
	categorical := categoricalSimilarity(target, hist)
	scale := scaleSimilarity(target, hist)
	complexity := complexitySimilarity(target, hist)

	var total float64
	switch method {
	case MethodHybrid:
		total = categorical*hybridCategoricalWeight +
			scale*hybridScaleWeight +
			complexity*hybridComplexityWeight
	case MethodCosine:
		total = cosineSimilarity(target, hist)
	case MethodEuclidean:
		total = euclideanSimilarity(target, hist)
	default:
		total = (categorical + scale + complexity) / 3
	}

	return Result{
		Project:     hist,
		Score:       round4(total),
		Categorical: round4(categorical),
		Scale:       round4(scale),
		Complexity:  round4(complexity),
		Method:      method,
	}
}

// categoricalSimilarity rewards exact matches on project type (0.6) and
// client type (0.4).
func categoricalSimilarity(target Target, hist history.Project) float64 {
	score := 0.0
	if target.ProjectType == hist.ProjectType {
		score += 0.6
	}
	if target.ClientType == hist.ClientType {
		score += 0.4
	}
	return score
}

// scaleSimilarity converts a weighted normalized Euclidean distance over
// the scale counts into a similarity via 1/(1+d). Each term is
// normalized by max(target, historical, 1) to guard against zero
// division.
func scaleSimilarity(target Target, hist history.Project) float64 {
	features := []struct {
		target float64
		hist   float64
		weight float64
	}{
		{float64(target.DataSourcesCount), float64(hist.DataSourcesCount), 1.0},
		{float64(target.InterfaceTablesCount), float64(hist.InterfaceTablesCount), 0.5},
		{float64(target.ReportsCount), float64(hist.ReportsCount), 0.3},
	}

	var distanceSquared float64
	for _, f := range features {
		maxVal := math.Max(math.Max(f.target, f.hist), 1)
		diff := math.Abs(f.target-f.hist) / maxVal
		distanceSquared += f.weight * diff * diff
	}

	return 1 / (1 + math.Sqrt(distanceSquared))
}

// complexitySimilarity maps the absolute score difference on the 0-10
// scale to [0, 1].
func complexitySimilarity(target Target, hist history.Project) float64 {
	diff := math.Abs(target.complexityScore()-hist.ComplexityScore) / 10.0
	return math.Max(1.0-diff, 0.0)
}

// cosineSimilarity compares the full five-dimensional feature vectors.
// A zero-magnitude vector on either side yields zero, and negative
// values are floored at zero.
func cosineSimilarity(target Target, hist history.Project) float64 {
	tv := []float64{
		float64(target.DataSourcesCount),
		float64(target.InterfaceTablesCount),
		float64(target.ReportsCount),
		float64(target.CustomRequirementsCount),
		target.complexityScore(),
	}
	hv := []float64{
		float64(hist.DataSourcesCount),
		float64(hist.InterfaceTablesCount),
		float64(hist.ReportsCount),
		float64(hist.CustomRequirementsCount),
		hist.ComplexityScore,
	}

	var dot, tMag, hMag float64
	for i := range tv {
		dot += tv[i] * hv[i]
		tMag += tv[i] * tv[i]
		hMag += hv[i] * hv[i]
	}
	if tMag == 0 || hMag == 0 {
		return 0
	}

	return math.Max(dot/(math.Sqrt(tMag)*math.Sqrt(hMag)), 0)
}

// euclideanSimilarity min-max normalizes each four-dimensional vector
// independently, then converts the Euclidean distance via 1/(1+d).
func euclideanSimilarity(target Target, hist history.Project) float64 {
	tv := normalize([]float64{
		float64(target.DataSourcesCount),
		float64(target.InterfaceTablesCount),
		float64(target.ReportsCount),
		target.complexityScore(),
	})
	hv := normalize([]float64{
		float64(hist.DataSourcesCount),
		float64(hist.InterfaceTablesCount),
		float64(hist.ReportsCount),
		hist.ComplexityScore,
	})

	var distanceSquared float64
	for i := range tv {
		d := tv[i] - hv[i]
		distanceSquared += d * d
	}

	return 1 / (1 + math.Sqrt(distanceSquared))
}

// normalize rescales a vector to [0, 1]. A constant vector maps to all
// midpoints.
func normalize(v []float64) []float64 {
	if len(v) == 0 {
		return nil
	}
	minVal, maxVal := v[0], v[0]
	for _, x := range v[1:] {
		minVal = math.Min(minVal, x)
		maxVal = math.Max(maxVal, x)
	}

	out := make([]float64, len(v))
	if maxVal == minVal {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, x := range v {
		out[i] = (x - minVal) / (maxVal - minVal)
	}
	return out
}

// round4 rounds to four decimal places.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
