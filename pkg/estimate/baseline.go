package estimate

// FormulaKind identifies how a baseline entry converts project scale
// parameters into hours.
type FormulaKind string

// Baseline formula kinds. Unit formulas resolve against a single
// ProjectInfo field; percentage formulas resolve against hours already
// accumulated and are evaluated in a second pass.
const (
	Fixed          FormulaKind = "fixed"
	PerSource      FormulaKind = "per_source"
	PerTable       FormulaKind = "per_table"
	PerReport      FormulaKind = "per_report"
	PerRequirement FormulaKind = "per_requirement"
	PerWeek        FormulaKind = "per_week"
	PerMilestone   FormulaKind = "per_milestone"
	PerMonth       FormulaKind = "per_month"
	PerScenario    FormulaKind = "per_scenario"
	Percentage     FormulaKind = "percentage"
)

// Baseline is one entry of the standard effort table. Rate is hours for
// unit formulas and a fraction (e.g. 0.20) for percentage formulas.
type Baseline struct {
	Kind FormulaKind
	Rate float64
}

// Assumed schedule constants used when resolving time-based formulas.
// These reflect a typical six month delivery engagement.
const (
	assumedWeeks       = 26 // project duration: 6 months
	assumedMilestones  = 5
	assumedTrialMonths = 3
	// SIT scenario count is derived per data source.
	scenariosPerSource = 5
)

// baselines is the standard effort table keyed by task type. Task types
// referenced by the WBS that are missing here contribute zero hours and
// are skipped silently; coverage is assumed complete by construction of
// the WBS generator.
var baselines = map[string]Baseline{
	// Project management
	"pm_kickoff":          {Fixed, 16},
	"pm_weekly_tracking":  {PerWeek, 4},
	"pm_milestone_review": {PerMilestone, 8},
	"pm_closure":          {Fixed, 24},

	// Requirements analysis
	"req_business_research": {Fixed, 40},
	"req_interview":         {PerSource, 16},
	"req_interface_design":  {PerTable, 2},
	"req_confirmation":      {Fixed, 24},

	// Development
	"dev_environment_setup":   {Fixed, 16},
	"dev_source_connection":   {PerSource, 8},
	"dev_data_extraction":     {PerSource, 24},
	"dev_data_transformation": {PerTable, 6},
	"dev_data_loading":        {PerTable, 4},
	"dev_product_config":      {Fixed, 40},
	"dev_custom_requirement":  {PerRequirement, 32},
	"dev_report":              {PerReport, 12},

	// Testing
	"test_unit":          {Percentage, 0.20},
	"test_sit":           {PerScenario, 8},
	"test_uat_support":   {Percentage, 0.15},
	"test_trial_support": {PerMonth, 80},
	"test_bug_fixing":    {Percentage, 0.10},

	// Delivery
	"delivery_training":      {Fixed, 40},
	"delivery_documentation": {Fixed, 40},
	"delivery_acceptance":    {Fixed, 16},
}

// complexityMultipliers scale base hours by the assessed complexity level.
var complexityMultipliers = map[Level]float64{
	LevelSimple:      0.8,
	LevelMedium:      1.0,
	LevelComplex:     1.4,
	LevelVeryComplex: 1.8,
}

// LookupBaseline returns the baseline entry for a task type. The second
// return value reports whether the task type is covered by the table.
func LookupBaseline(taskType string) (Baseline, bool) {
	b, ok := baselines[taskType]
	return b, ok
}
