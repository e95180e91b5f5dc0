package estimate

import (
	"math"
	"testing"
)

const tolerance = 0.05

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestAssessComplexityBaseline(t *testing.T) {
	score := AssessComplexity(ProjectInfo{})

	if score.Technical != 5.0 || score.Business != 5.0 || score.Data != 5.0 ||
		score.Organizational != 5.0 || score.Risk != 5.0 {
		t.Errorf("Expected all sub-scores at 5.0, got %+v", score)
	}
	if score.Total != 5.0 {
		t.Errorf("Expected total 5.0, got %.1f", score.Total)
	}
	if score.Level != LevelComplex {
		t.Errorf("Expected level %q, got %q", LevelComplex, score.Level)
	}
}

func TestAssessComplexity(t *testing.T) {
	tests := []struct {
		name      string
		project   ProjectInfo
		wantTech  float64
		wantTotal float64
		wantLevel Level
	}{
		{
			name:      "moderate scale crosses table threshold",
			project:   ProjectInfo{DataSourcesCount: 5, InterfaceTablesCount: 60, ReportsCount: 10},
			wantTech:  6.0,
			wantTotal: 5.3,
			wantLevel: LevelComplex,
		},
		{
			name:      "many sources",
			project:   ProjectInfo{DataSourcesCount: 15},
			wantTech:  7.0,
			wantTotal: 5.6,
			wantLevel: LevelComplex,
		},
		{
			name: "every dimension elevated",
			project: ProjectInfo{
				DataSourcesCount:        11,
				InterfaceTablesCount:    101,
				RegulationType:          RegulationCBRC1104,
				DataVolumeLevel:         VolumeVeryLarge,
				ClientType:              ClientStateOwnedBank,
				CustomRequirementsCount: 6,
			},
			wantTech:  9.0,
			wantTotal: 7.3,
			wantLevel: LevelVeryComplex,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			score := AssessComplexity(tc.project)
			if score.Technical != tc.wantTech {
				t.Errorf("Technical = %.1f, want %.1f", score.Technical, tc.wantTech)
			}
			if score.Total != tc.wantTotal {
				t.Errorf("Total = %.1f, want %.1f", score.Total, tc.wantTotal)
			}
			if score.Level != tc.wantLevel {
				t.Errorf("Level = %q, want %q", score.Level, tc.wantLevel)
			}
		})
	}
}

func TestAssessComplexityMonotonic(t *testing.T) {
	small := AssessComplexity(ProjectInfo{DataSourcesCount: 2})
	large := AssessComplexity(ProjectInfo{DataSourcesCount: 15})

	if large.Total <= small.Total {
		t.Errorf("Expected total to grow with data sources: %.1f (15 sources) <= %.1f (2 sources)",
			large.Total, small.Total)
	}
}

func TestGenerateWBSPhases(t *testing.T) {
	wbs := GenerateWBS(ProjectInfo{DataSourcesCount: 3})

	wantPhases := []string{PhaseManagement, PhaseRequirements, PhaseDevelopment, PhaseTesting, PhaseDelivery}
	if len(wbs) != len(wantPhases) {
		t.Fatalf("Expected %d phases, got %d", len(wantPhases), len(wbs))
	}
	for i, phase := range wbs {
		if phase.Name != wantPhases[i] {
			t.Errorf("Phase %d = %q, want %q", i, phase.Name, wantPhases[i])
		}
		if len(phase.Tasks) == 0 {
			t.Errorf("Phase %q has no tasks", phase.Name)
		}
	}
}

func TestGenerateWBSDevelopmentTasks(t *testing.T) {
	tests := []struct {
		name      string
		project   ProjectInfo
		wantTasks int
	}{
		{
			name:      "no optional tasks",
			project:   ProjectInfo{},
			wantTasks: 4, // environment, config, transformation, loading
		},
		{
			name:      "reports and custom requirements",
			project:   ProjectInfo{DataSourcesCount: 5, InterfaceTablesCount: 60, ReportsCount: 10},
			wantTasks: 10,
		},
		{
			name:      "extraction tasks capped at five",
			project:   ProjectInfo{DataSourcesCount: 12, ReportsCount: 1, CustomRequirementsCount: 1},
			wantTasks: 11, // 2 + 5 capped + 2 + report + custom
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wbs := GenerateWBS(tc.project)
			dev := wbs[2]
			if dev.Name != PhaseDevelopment {
				t.Fatalf("Expected development phase third, got %q", dev.Name)
			}
			if len(dev.Tasks) != tc.wantTasks {
				t.Errorf("Development task count = %d, want %d", len(dev.Tasks), tc.wantTasks)
			}
		})
	}
}

func TestCalculateBaseHoursExtractionUsesFullCount(t *testing.T) {
	// Eight sources display as five tasks, but each task is billed
	// against all eight sources.
	p := ProjectInfo{DataSourcesCount: 8}
	wbs := GenerateWBS(p)
	CalculateBaseHours(wbs, p)

	var extraction []Task
	for _, task := range wbs[2].Tasks {
		if task.Type == "dev_data_extraction" {
			extraction = append(extraction, task)
		}
	}
	if len(extraction) != maxExtractionTasks {
		t.Fatalf("Expected %d extraction tasks, got %d", maxExtractionTasks, len(extraction))
	}
	for _, task := range extraction {
		if !almostEqual(task.BaseHours, 24*8) {
			t.Errorf("Extraction task %s hours = %.1f, want %.1f", task.Code, task.BaseHours, 24.0*8)
		}
	}
}

func TestCalculateBaseHoursPercentagePass(t *testing.T) {
	p := ProjectInfo{DataSourcesCount: 5, InterfaceTablesCount: 60, ReportsCount: 10}
	wbs := GenerateWBS(p)
	total := CalculateBaseHours(wbs, p)

	// Unit pass: management 184, requirements 264, development 1376,
	// testing 440, delivery 96. Percentage pass adds 45% of the 1376
	// development hours.
	if !almostEqual(total, 2979.2) {
		t.Errorf("Total base hours = %.1f, want 2979.2", total)
	}

	breakdown := PhaseBreakdown(wbs)
	if !almostEqual(breakdown[PhaseDevelopment], 1376.0) {
		t.Errorf("Development hours = %.1f, want 1376.0", breakdown[PhaseDevelopment])
	}
	if !almostEqual(breakdown[PhaseTesting], 1059.2) {
		t.Errorf("Testing hours = %.1f, want 1059.2", breakdown[PhaseTesting])
	}
}

func TestApplyComplexityAdjustment(t *testing.T) {
	tests := []struct {
		level Level
		want  float64
	}{
		{LevelSimple, 80.0},
		{LevelMedium, 100.0},
		{LevelComplex, 140.0},
		{LevelVeryComplex, 180.0},
		{Level("unknown"), 100.0},
	}

	for _, tc := range tests {
		if got := ApplyComplexityAdjustment(100, tc.level); got != tc.want {
			t.Errorf("ApplyComplexityAdjustment(100, %q) = %.1f, want %.1f", tc.level, got, tc.want)
		}
	}
}

func TestThreePointEstimate(t *testing.T) {
	tp := ThreePointEstimate(100, LevelMedium)

	if tp.Optimistic != 75.0 {
		t.Errorf("Optimistic = %.1f, want 75.0", tp.Optimistic)
	}
	if tp.MostLikely != 100.0 {
		t.Errorf("MostLikely = %.1f, want 100.0", tp.MostLikely)
	}
	if tp.Pessimistic != 130.0 {
		t.Errorf("Pessimistic = %.1f, want 130.0", tp.Pessimistic)
	}
	if tp.Expected != 100.8 {
		t.Errorf("Expected = %.1f, want 100.8", tp.Expected)
	}
	if tp.StdDeviation != 9.2 {
		t.Errorf("StdDeviation = %.1f, want 9.2", tp.StdDeviation)
	}
	if tp.ConfidenceInterval[0] != 82.5 || tp.ConfidenceInterval[1] != 119.2 {
		t.Errorf("ConfidenceInterval = %v, want [82.5 119.2]", tp.ConfidenceInterval)
	}
}

func TestThreePointEstimateWiderDownside(t *testing.T) {
	medium := ThreePointEstimate(1000, LevelMedium)
	hard := ThreePointEstimate(1000, LevelComplex)

	if hard.Pessimistic <= medium.Pessimistic {
		t.Errorf("Expected complex pessimistic (%.1f) above medium (%.1f)",
			hard.Pessimistic, medium.Pessimistic)
	}
	for _, tp := range []ThreePoint{medium, hard} {
		if !(tp.Optimistic <= tp.Expected && tp.Expected <= tp.Pessimistic) {
			t.Errorf("Expected O <= E <= P, got %.1f / %.1f / %.1f",
				tp.Optimistic, tp.Expected, tp.Pessimistic)
		}
		if tp.ConfidenceInterval[0] >= tp.ConfidenceInterval[1] {
			t.Errorf("Degenerate confidence interval %v", tp.ConfidenceInterval)
		}
	}
}

func TestEstimatePipeline(t *testing.T) {
	result := Estimate(ProjectInfo{
		Name:                 "某银行监管报送项目",
		ProjectType:          "regulatory_reporting",
		DataSourcesCount:     5,
		InterfaceTablesCount: 60,
		ReportsCount:         10,
	})

	// 2979.2 base hours at the 1.4 complex multiplier.
	if !almostEqual(result.TotalHours, 4170.9) {
		t.Errorf("TotalHours = %.1f, want 4170.9", result.TotalHours)
	}
	if result.ComplexityScore.Level != LevelComplex {
		t.Errorf("Level = %q, want %q", result.ComplexityScore.Level, LevelComplex)
	}
	if result.ConfidenceLevel != "低" {
		t.Errorf("ConfidenceLevel = %q, want 低", result.ConfidenceLevel)
	}
	if result.MostLikely != result.TotalHours {
		t.Errorf("MostLikely (%.1f) should equal TotalHours (%.1f)", result.MostLikely, result.TotalHours)
	}
	if !(result.Optimistic < result.Expected && result.Expected < result.Pessimistic) {
		t.Errorf("Expected O < E < P, got %.1f / %.1f / %.1f",
			result.Optimistic, result.Expected, result.Pessimistic)
	}
}

func TestEstimatePhaseBreakdownSumsToTotal(t *testing.T) {
	tests := []struct {
		name    string
		project ProjectInfo
	}{
		{"small", ProjectInfo{DataSourcesCount: 2, InterfaceTablesCount: 10}},
		{"medium", ProjectInfo{DataSourcesCount: 5, InterfaceTablesCount: 60, ReportsCount: 10}},
		{"large", ProjectInfo{
			DataSourcesCount:        12,
			InterfaceTablesCount:    150,
			ReportsCount:            20,
			CustomRequirementsCount: 8,
			DataVolumeLevel:         VolumeVeryLarge,
			RegulationType:          RegulationEAST,
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Estimate(tc.project)

			var sum float64
			for _, hours := range result.PhaseBreakdown {
				sum += hours
			}
			if math.Abs(sum-result.TotalHours) > 1.0 {
				t.Errorf("Phase breakdown sum %.1f differs from total %.1f", sum, result.TotalHours)
			}
		})
	}
}

func TestEstimateDeterministic(t *testing.T) {
	p := ProjectInfo{DataSourcesCount: 7, InterfaceTablesCount: 80, ReportsCount: 12}

	first := Estimate(p)
	second := Estimate(p)

	if first.TotalHours != second.TotalHours || first.Expected != second.Expected {
		t.Errorf("Estimate is not deterministic: %.1f/%.1f vs %.1f/%.1f",
			first.TotalHours, first.Expected, second.TotalHours, second.Expected)
	}
}
