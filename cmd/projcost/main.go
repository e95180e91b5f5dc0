// Package main implements a CLI tool to estimate project labor hours
// and cost from scale parameters.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/deliverymetrics/projcost/pkg/advanced"
	"github.com/deliverymetrics/projcost/pkg/estimate"
	"github.com/deliverymetrics/projcost/pkg/history"
	"github.com/deliverymetrics/projcost/pkg/similarity"
)

func main() {
	// Project scale parameters.
	name := flag.String("name", "", "Project name")
	projectType := flag.String("project-type", "regulatory_reporting", "Project type")
	clientType := flag.String("client-type", "", "Client type (e.g. state_owned_bank, joint_stock, city_bank)")
	dataSources := flag.Int("data-sources", 0, "Number of data sources")
	interfaceTables := flag.Int("interface-tables", 0, "Number of interface tables")
	reports := flag.Int("reports", 0, "Number of reports")
	customReqs := flag.Int("custom-requirements", 0, "Number of custom requirements")
	dataVolume := flag.String("data-volume", "medium", "Data volume level: medium, large or very_large")
	regulation := flag.String("regulation", "", "Regulation type (e.g. 1104报送, EAST)")

	// Cost model parameters.
	teamSize := flag.Int("team-size", 0, "Team size for the cost model")
	duration := flag.Int("duration", 0, "Project duration in days for the cost model")
	industry := flag.String("industry", "", "Industry label for the cost model")
	experience := flag.String("team-experience", "", "Team experience label for the cost model")
	configPath := flag.String("config", "", "Path to the cost model YAML config file")

	withSimilar := flag.Bool("with-similar", false, "Match against the historical catalog and blend estimates")
	dbPath := flag.String("db", "", "Historical project SQLite database (empty = built-in seed catalog)")
	format := flag.String("format", "human", "Output format: human or json")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Estimate project labor hours and cost from scale parameters.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --data-sources 8 --interface-tables 120 --reports 15\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --data-sources 8 --interface-tables 120 --reports 15 --regulation EAST --with-similar --format json\n", os.Args[0])
	}
	flag.Parse()

	info := estimate.ProjectInfo{
		Name:                    *name,
		ProjectType:             *projectType,
		ClientType:              *clientType,
		DataSourcesCount:        *dataSources,
		InterfaceTablesCount:    *interfaceTables,
		ReportsCount:            *reports,
		CustomRequirementsCount: *customReqs,
		DataVolumeLevel:         *dataVolume,
		RegulationType:          *regulation,
	}

	result := estimate.Estimate(info)

	// Case-based match against the historical catalog.
	var caseEstimate similarity.CaseEstimate
	var matches []similarity.Result
	if *withSimilar {
		projects, err := loadCatalog(*dbPath)
		if err != nil {
			log.Fatalf("Failed to load historical catalog: %v", err)
		}
		target := similarity.Target{
			ProjectType:             info.ProjectType,
			ClientType:              info.ClientType,
			DataSourcesCount:        info.DataSourcesCount,
			InterfaceTablesCount:    info.InterfaceTablesCount,
			ReportsCount:            info.ReportsCount,
			CustomRequirementsCount: info.CustomRequirementsCount,
			ComplexityScore:         result.ComplexityScore.Total,
		}
		matches = similarity.NewMatcher(projects).FindSimilar(target, 5, similarity.MethodHybrid)
		caseEstimate = similarity.EstimateFromSimilar(matches)
	}
	ensemble := similarity.Ensemble(result.TotalHours, caseEstimate)

	// Monetary cost from the expected hours.
	cfg := advanced.DefaultConfig()
	if *configPath != "" {
		loaded, err := advanced.LoadConfig(*configPath)
		if err != nil {
			log.Printf("Warning: %v (using defaults)", err)
		}
		cfg = loaded
	}
	estimator := advanced.NewEstimator(cfg)
	if *withSimilar {
		if projects, err := loadCatalog(*dbPath); err == nil {
			for _, p := range projects {
				estimator.AddHistoricalProject(p)
			}
		}
	}
	params := advanced.Params{
		Hours:          result.Expected,
		TeamSize:       *teamSize,
		Duration:       *duration,
		Industry:       *industry,
		TeamExperience: *experience,
		Complexity:     costComplexity(result.ComplexityScore.Level),
	}
	costResult := estimator.EstimateCost(params)

	switch *format {
	case "human":
		printHumanReadable(info, result, caseEstimate, matches, ensemble, costResult)
	case "json":
		printJSON(map[string]any{
			"estimation":      result,
			"case_based":      caseEstimate,
			"ensemble_hours":  ensemble,
			"cost":            costResult,
			"similar_matches": matches,
		})
	default:
		log.Fatalf("Unknown format: %s (must be human or json)", *format)
	}
}

// loadCatalog reads historical projects from SQLite or the seed set.
func loadCatalog(dbPath string) ([]history.Project, error) {
	if dbPath == "" {
		return history.SeedProjects(), nil
	}
	store, err := history.OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.List()
}

// costComplexity maps the rule engine complexity level onto the cost
// model's label set.
func costComplexity(level estimate.Level) string {
	switch level {
	case estimate.LevelSimple:
		return "low"
	case estimate.LevelMedium:
		return "medium"
	case estimate.LevelComplex:
		return "high"
	default:
		return "enterprise"
	}
}

// printHumanReadable renders the full estimation report.
func printHumanReadable(info estimate.ProjectInfo, r estimate.Result,
	ce similarity.CaseEstimate, matches []similarity.Result,
	ensemble float64, cost advanced.Result,
) {
	fmt.Printf("PROJECT ESTIMATION REPORT\n")
	fmt.Printf("=========================\n\n")
	if info.Name != "" {
		fmt.Printf("Project:     %s\n", info.Name)
	}
	fmt.Printf("Scale:       %d sources, %d tables, %d reports, %d custom requirements\n\n",
		info.DataSourcesCount, info.InterfaceTablesCount, info.ReportsCount, info.CustomRequirementsCount)

	fmt.Printf("COMPLEXITY\n")
	fmt.Printf("  Technical                   %6.1f\n", r.ComplexityScore.Technical)
	fmt.Printf("  Business                    %6.1f\n", r.ComplexityScore.Business)
	fmt.Printf("  Data                        %6.1f\n", r.ComplexityScore.Data)
	fmt.Printf("  Organizational              %6.1f\n", r.ComplexityScore.Organizational)
	fmt.Printf("  Risk                        %6.1f\n", r.ComplexityScore.Risk)
	fmt.Printf("  ---\n")
	fmt.Printf("  Total                       %6.1f   (%s)\n\n", r.ComplexityScore.Total, r.ComplexityScore.Level)

	fmt.Printf("HOURS (PERT)\n")
	fmt.Printf("  Optimistic                  %8.1f hrs\n", r.Optimistic)
	fmt.Printf("  Most Likely                 %8.1f hrs\n", r.MostLikely)
	fmt.Printf("  Pessimistic                 %8.1f hrs\n", r.Pessimistic)
	fmt.Printf("  Expected                    %8.1f hrs   (σ %.1f)\n", r.Expected, r.StdDeviation)
	fmt.Printf("  95%% Interval                %.1f - %.1f hrs\n", r.ConfidenceInterval[0], r.ConfidenceInterval[1])
	fmt.Printf("  Confidence                  %s\n\n", r.ConfidenceLevel)

	fmt.Printf("PHASE BREAKDOWN\n")
	for _, phase := range r.WBS {
		fmt.Printf("  %-28s%8.1f hrs\n", phase.Name, r.PhaseBreakdown[phase.Name])
	}
	fmt.Printf("\n")

	if ce.Valid {
		fmt.Printf("SIMILAR PROJECTS\n")
		for _, m := range matches {
			fmt.Printf("  %-28s%8.1f hrs   (similarity %.2f)\n",
				m.Project.Name, m.Project.ActualHours, m.Score)
		}
		fmt.Printf("  ---\n")
		fmt.Printf("  Case-Based Estimate         %8.1f hrs   (confidence %.2f)\n", ce.Estimate, ce.Confidence)
		fmt.Printf("  Ensemble Estimate           %8.1f hrs   (rule 60%% / case 40%%)\n\n", ensemble)
	}

	fmt.Printf("COST\n")
	fmt.Printf("  Base Cost                   %12.2f\n", cost.BaseCost)
	fmt.Printf("  Subtotal (adjusted)         %12.2f\n", cost.Subtotal)
	fmt.Printf("  Risk Contingency            %12.2f   (%s)\n", cost.RiskContingency, cost.RiskAssessment.RiskLevel)
	fmt.Printf("  ---\n")
	fmt.Printf("  TOTAL COST                  %12.2f   (confidence %.0f%%)\n",
		cost.TotalCost, cost.ConfidenceLevel*100)

	if len(cost.RiskAssessment.TopRisks) > 0 {
		fmt.Printf("\nTOP RISKS\n")
		for i, risk := range cost.RiskAssessment.TopRisks {
			fmt.Printf("  %d. %-24s (probability %.0f%%, impact %.0f%%)\n",
				i+1, risk.Description, risk.Probability*100, risk.Impact*100)
		}
	}
	fmt.Printf("\n%s\n", strings.Repeat("=", 25))
}

// printJSON outputs the full result set in JSON format.
func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		log.Fatalf("Failed to encode JSON: %v", err)
	}
}
