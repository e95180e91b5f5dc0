package estimate

import "strings"

// CalculateBaseHours resolves every task's baseline formula and fills in
// Task.BaseHours, returning the grand total rounded to one decimal.
//
// Resolution is two sequential passes. Pass one handles all unit
// formulas (fixed, per-source, per-table, ...) while accumulating the
// grand total and, separately, the development phase subtotal. Pass two
// handles percentage formulas: task types containing "test" resolve
// against the development subtotal, everything else against the running
// grand total (which already includes any percentage hours added earlier
// in the pass). Tasks without a baseline entry keep zero hours and are
// skipped silently.
func CalculateBaseHours(wbs []Phase, p ProjectInfo) float64 {
	var total, devHours float64

	for pi := range wbs {
		phase := &wbs[pi]
		for ti := range phase.Tasks {
			task := &phase.Tasks[ti]
			baseline, ok := LookupBaseline(task.Type)
			if !ok || baseline.Kind == Percentage {
				continue
			}

			hours := unitHours(baseline, p)
			task.BaseHours = hours
			total += hours
			if phase.Name == PhaseDevelopment {
				devHours += hours
			}
		}
	}

	for pi := range wbs {
		phase := &wbs[pi]
		for ti := range phase.Tasks {
			task := &phase.Tasks[ti]
			baseline, ok := LookupBaseline(task.Type)
			if !ok || baseline.Kind != Percentage {
				continue
			}

			var hours float64
			if strings.Contains(task.Type, "test") {
				hours = devHours * baseline.Rate
			} else {
				hours = total * baseline.Rate
			}
			task.BaseHours = hours
			total += hours
		}
	}

	return round1(total)
}

// unitHours evaluates a non-percentage baseline formula against the
// project's scale parameters.
func unitHours(b Baseline, p ProjectInfo) float64 {
	switch b.Kind {
	case Fixed:
		return b.Rate
	case PerSource:
		return b.Rate * float64(p.DataSourcesCount)
	case PerTable:
		return b.Rate * float64(p.InterfaceTablesCount)
	case PerReport:
		return b.Rate * float64(p.ReportsCount)
	case PerRequirement:
		return b.Rate * float64(p.CustomRequirementsCount)
	case PerWeek:
		return b.Rate * assumedWeeks
	case PerMilestone:
		return b.Rate * assumedMilestones
	case PerMonth:
		return b.Rate * assumedTrialMonths
	case PerScenario:
		return b.Rate * float64(p.DataSourcesCount*scenariosPerSource)
	default:
		return 0
	}
}

// ApplyComplexityAdjustment scales base hours by the multiplier for the
// assessed complexity level, rounded to one decimal.
func ApplyComplexityAdjustment(baseHours float64, level Level) float64 {
	multiplier, ok := complexityMultipliers[level]
	if !ok {
		multiplier = 1.0
	}
	return round1(baseHours * multiplier)
}

// PhaseBreakdown sums resolved task hours per phase. Call it after
// CalculateBaseHours; before that every phase reports zero.
func PhaseBreakdown(wbs []Phase) map[string]float64 {
	breakdown := make(map[string]float64, len(wbs))
	for _, phase := range wbs {
		var hours float64
		for _, task := range phase.Tasks {
			hours += task.BaseHours
		}
		breakdown[phase.Name] = round1(hours)
	}
	return breakdown
}
