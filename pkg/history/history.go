// Package history owns the historical project catalog consumed by the
// similarity matcher and the advanced cost estimator. The engine only
// ever appends to and lists the catalog; records are never mutated or
// deleted once written.
package history

import (
	"sync"
	"time"
)

// Project is a completed engagement with both its estimate and its
// outcome. It is the superset of the fields the similarity matcher and
// the cost estimator each consume.
type Project struct {
	ID                      string    `json:"id" db:"id"`
	Name                    string    `json:"name" db:"name"`
	ProjectType             string    `json:"project_type" db:"project_type"`
	ClientType              string    `json:"client_type" db:"client_type"`
	DataSourcesCount        int       `json:"data_sources_count" db:"data_sources_count"`
	InterfaceTablesCount    int       `json:"interface_tables_count" db:"interface_tables_count"`
	ReportsCount            int       `json:"reports_count" db:"reports_count"`
	CustomRequirementsCount int       `json:"custom_requirements_count" db:"custom_requirements_count"`
	ComplexityScore         float64   `json:"complexity_score" db:"complexity_score"`
	ActualHours             float64   `json:"actual_hours" db:"actual_hours"`
	EstimatedHours          float64   `json:"estimated_hours" db:"estimated_hours"`
	ActualCost              float64   `json:"actual_cost" db:"actual_cost"`
	EstimatedCost           float64   `json:"estimated_cost" db:"estimated_cost"`
	// Complexity is the label used by the advanced cost model
	// (low, medium, high, enterprise), distinct from ComplexityScore.
	Complexity         string    `json:"complexity" db:"complexity"`
	TeamSize           int       `json:"team_size" db:"team_size"`
	Duration           int       `json:"duration" db:"duration"` // days
	CompletionDate     time.Time `json:"completion_date" db:"completion_date"`
	VariancePercentage float64   `json:"variance_percentage" db:"variance_percentage"`
	SuccessFactors     []string  `json:"success_factors" db:"-"`
}

// Store is the catalog contract exposed to the engine.
type Store interface {
	// Append adds a completed project to the catalog.
	Append(p Project) error
	// List returns all projects in insertion order.
	List() ([]Project, error)
}

// MemoryStore is an in-process Store. It serializes access so a server
// can share one instance across request handlers.
type MemoryStore struct {
	mu       sync.RWMutex
	projects []Project
}

// NewMemoryStore returns a store pre-populated with the given projects.
func NewMemoryStore(seed ...Project) *MemoryStore {
	s := &MemoryStore{}
	s.projects = append(s.projects, seed...)
	return s
}

// Append adds a project to the catalog.
func (s *MemoryStore) Append(p Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append(s.projects, p)
	return nil
}

// List returns a copy of the catalog in insertion order.
func (s *MemoryStore) List() ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Project, len(s.projects))
	copy(out, s.projects)
	return out, nil
}

// SeedProjects returns the built-in catalog of completed regulatory
// reporting engagements used when no persistent catalog is configured.
func SeedProjects() []Project {
	return []Project{
		{
			ID:                      "1",
			Name:                    "工商银行1104报送项目",
			ProjectType:             "regulatory_reporting",
			ClientType:              "state_owned_bank",
			DataSourcesCount:        10,
			InterfaceTablesCount:    150,
			ReportsCount:            18,
			CustomRequirementsCount: 2,
			ComplexityScore:         6.8,
			ActualHours:             1850.0,
			EstimatedHours:          1644.0,
			ActualCost:              925000.0,
			EstimatedCost:           822000.0,
			Complexity:              "high",
			TeamSize:                8,
			Duration:                180,
			CompletionDate:          time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC),
			VariancePercentage:      12.5,
			SuccessFactors:          []string{"经验丰富的实施团队", "监管口径提前确认"},
		},
		{
			ID:                      "2",
			Name:                    "建设银行EAST系统",
			ProjectType:             "regulatory_reporting",
			ClientType:              "state_owned_bank",
			DataSourcesCount:        8,
			InterfaceTablesCount:    120,
			ReportsCount:            15,
			CustomRequirementsCount: 3,
			ComplexityScore:         6.2,
			ActualHours:             1620.0,
			EstimatedHours:          1496.0,
			ActualCost:              810000.0,
			EstimatedCost:           748000.0,
			Complexity:              "high",
			TeamSize:                7,
			Duration:                160,
			CompletionDate:          time.Date(2023, 9, 15, 0, 0, 0, 0, time.UTC),
			VariancePercentage:      8.3,
			SuccessFactors:          []string{"数据质量基础好"},
		},
		{
			ID:                      "3",
			Name:                    "招商银行监管报送",
			ProjectType:             "regulatory_reporting",
			ClientType:              "joint_stock",
			DataSourcesCount:        6,
			InterfaceTablesCount:    80,
			ReportsCount:            12,
			CustomRequirementsCount: 1,
			ComplexityScore:         5.5,
			ActualHours:             1200.0,
			EstimatedHours:          1042.0,
			ActualCost:              600000.0,
			EstimatedCost:           521000.0,
			Complexity:              "medium",
			TeamSize:                5,
			Duration:                120,
			CompletionDate:          time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
			VariancePercentage:      15.2,
			SuccessFactors:          []string{"客户配合度高"},
		},
		{
			ID:                      "4",
			Name:                    "浦发银行数据报送",
			ProjectType:             "regulatory_reporting",
			ClientType:              "joint_stock",
			DataSourcesCount:        5,
			InterfaceTablesCount:    60,
			ReportsCount:            10,
			CustomRequirementsCount: 2,
			ComplexityScore:         4.8,
			ActualHours:             980.0,
			EstimatedHours:          887.0,
			ActualCost:              490000.0,
			EstimatedCost:           443500.0,
			Complexity:              "medium",
			TeamSize:                5,
			Duration:                110,
			CompletionDate:          time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC),
			VariancePercentage:      10.5,
			SuccessFactors:          []string{"复用既有接口模板"},
		},
		{
			ID:                      "5",
			Name:                    "宁波银行报表系统",
			ProjectType:             "regulatory_reporting",
			ClientType:              "city_bank",
			DataSourcesCount:        4,
			InterfaceTablesCount:    50,
			ReportsCount:            8,
			CustomRequirementsCount: 1,
			ComplexityScore:         4.2,
			ActualHours:             780.0,
			EstimatedHours:          724.0,
			ActualCost:              390000.0,
			EstimatedCost:           362000.0,
			Complexity:              "medium",
			TeamSize:                4,
			Duration:                90,
			CompletionDate:          time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC),
			VariancePercentage:      7.8,
			SuccessFactors:          []string{"范围控制严格"},
		},
	}
}
