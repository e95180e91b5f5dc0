package estimate

// Level is the categorical complexity bucket derived from the weighted
// complexity score.
type Level string

// Complexity levels, from least to most complex.
const (
	LevelSimple      Level = "simple"
	LevelMedium      Level = "medium"
	LevelComplex     Level = "complex"
	LevelVeryComplex Level = "very_complex"
)

// ComplexityScore holds the five sub-scores (each on a 0-10 scale), the
// weighted total and the derived level. All values are rounded to one
// decimal place.
type ComplexityScore struct {
	Technical      float64 `json:"technical"`
	Business       float64 `json:"business"`
	Data           float64 `json:"data"`
	Organizational float64 `json:"organizational"`
	Risk           float64 `json:"risk"`
	Total          float64 `json:"total"`
	Level          Level   `json:"level"`
}

// Sub-score weights. They sum to 1.0.
const (
	weightTechnical      = 0.30
	weightBusiness       = 0.25
	weightData           = 0.20
	weightOrganizational = 0.15
	weightRisk           = 0.10
)

// AssessComplexity scores a project on five dimensions. Every dimension
// starts at the 5.0 midpoint and accrues fixed bonuses as scale
// thresholds are crossed, so adding sources or tables can never lower a
// score.
func AssessComplexity(p ProjectInfo) ComplexityScore {
	technical := 5.0
	switch {
	case p.DataSourcesCount > 10:
		technical += 2.0
	case p.DataSourcesCount > 5:
		technical += 1.0
	}
	switch {
	case p.InterfaceTablesCount > 100:
		technical += 2.0
	case p.InterfaceTablesCount > 50:
		technical += 1.0
	}

	business := 5.0
	if p.RegulationType == RegulationCBRC1104 || p.RegulationType == RegulationEAST {
		business += 1.5
	}

	data := 5.0
	switch p.DataVolumeLevel {
	case VolumeVeryLarge:
		data += 2.0
	case VolumeLarge:
		data += 1.0
	}

	organizational := 5.0
	if p.ClientType == ClientStateOwnedBank {
		organizational += 1.0
	}

	risk := 5.0
	if p.CustomRequirementsCount > 5 {
		risk += 1.5
	}

	total := technical*weightTechnical +
		business*weightBusiness +
		data*weightData +
		organizational*weightOrganizational +
		risk*weightRisk

	var level Level
	switch {
	case total < 3:
		level = LevelSimple
	case total < 5:
		level = LevelMedium
	case total < 7:
		level = LevelComplex
	default:
		level = LevelVeryComplex
	}

	return ComplexityScore{
		Technical:      round1(technical),
		Business:       round1(business),
		Data:           round1(data),
		Organizational: round1(organizational),
		Risk:           round1(risk),
		Total:          round1(total),
		Level:          level,
	}
}
