package estimate

// ThreePoint holds the PERT statistics derived from a single adjusted
// hours figure.
type ThreePoint struct {
	Optimistic         float64
	MostLikely         float64
	Pessimistic        float64
	Expected           float64
	StdDeviation       float64
	ConfidenceInterval [2]float64
}

// Pessimistic multipliers by complexity band. Complex and very complex
// projects carry a wider downside.
const (
	optimisticFactor      = 0.75
	pessimisticFactorLow  = 1.3
	pessimisticFactorHigh = 1.6
)

// ThreePointEstimate derives optimistic, most likely and pessimistic
// values from adjustedHours, combines them with standard PERT weighting
// (O + 4M + P) / 6, and reports a 95% confidence interval of expected
// ± 2σ where σ = (P − O) / 6.
func ThreePointEstimate(adjustedHours float64, level Level) ThreePoint {
	optimistic := adjustedHours * optimisticFactor
	mostLikely := adjustedHours

	riskFactor := pessimisticFactorHigh
	if level == LevelSimple || level == LevelMedium {
		riskFactor = pessimisticFactorLow
	}
	pessimistic := adjustedHours * riskFactor

	expected := (optimistic + 4*mostLikely + pessimistic) / 6
	stdDev := (pessimistic - optimistic) / 6

	return ThreePoint{
		Optimistic:   round1(optimistic),
		MostLikely:   round1(mostLikely),
		Pessimistic:  round1(pessimistic),
		Expected:     round1(expected),
		StdDeviation: round1(stdDev),
		ConfidenceInterval: [2]float64{
			round1(expected - 2*stdDev),
			round1(expected + 2*stdDev),
		},
	}
}
