package history

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

const schema = `
CREATE TABLE IF NOT EXISTS historical_projects (
	id                        TEXT PRIMARY KEY,
	name                      TEXT NOT NULL,
	project_type              TEXT NOT NULL DEFAULT '',
	client_type               TEXT NOT NULL DEFAULT '',
	data_sources_count        INTEGER NOT NULL DEFAULT 0,
	interface_tables_count    INTEGER NOT NULL DEFAULT 0,
	reports_count             INTEGER NOT NULL DEFAULT 0,
	custom_requirements_count INTEGER NOT NULL DEFAULT 0,
	complexity_score          REAL NOT NULL DEFAULT 0,
	actual_hours              REAL NOT NULL DEFAULT 0,
	estimated_hours           REAL NOT NULL DEFAULT 0,
	actual_cost               REAL NOT NULL DEFAULT 0,
	estimated_cost            REAL NOT NULL DEFAULT 0,
	complexity                TEXT NOT NULL DEFAULT '',
	team_size                 INTEGER NOT NULL DEFAULT 0,
	duration                  INTEGER NOT NULL DEFAULT 0,
	completion_date           TIMESTAMP,
	variance_percentage       REAL NOT NULL DEFAULT 0,
	success_factors           TEXT NOT NULL DEFAULT '[]'
);`

// SQLiteStore persists the catalog in a local SQLite database. All file
// I/O happens inside Open, Append and List; scoring and matching never
// touch the database.
type SQLiteStore struct {
	db *sqlx.DB
}

// OpenSQLite opens (creating if needed) the catalog database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append inserts a project. An empty ID gets a generated UUID.
func (s *SQLiteStore) Append(p Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	factors, err := json.Marshal(p.SuccessFactors)
	if err != nil {
		return fmt.Errorf("encode success factors: %w", err)
	}

	const query = `
		INSERT INTO historical_projects (
			id, name, project_type, client_type,
			data_sources_count, interface_tables_count, reports_count,
			custom_requirements_count, complexity_score,
			actual_hours, estimated_hours, actual_cost, estimated_cost,
			complexity, team_size, duration, completion_date,
			variance_percentage, success_factors
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.Exec(query,
		p.ID, p.Name, p.ProjectType, p.ClientType,
		p.DataSourcesCount, p.InterfaceTablesCount, p.ReportsCount,
		p.CustomRequirementsCount, p.ComplexityScore,
		p.ActualHours, p.EstimatedHours, p.ActualCost, p.EstimatedCost,
		p.Complexity, p.TeamSize, p.Duration, p.CompletionDate,
		p.VariancePercentage, string(factors))
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// List returns all projects in insertion (rowid) order.
func (s *SQLiteStore) List() ([]Project, error) {
	const query = `
		SELECT id, name, project_type, client_type,
		       data_sources_count, interface_tables_count, reports_count,
		       custom_requirements_count, complexity_score,
		       actual_hours, estimated_hours, actual_cost, estimated_cost,
		       complexity, team_size, duration, completion_date,
		       variance_percentage, success_factors
		FROM historical_projects
		ORDER BY rowid`

	type row struct {
		Project
		SuccessFactorsJSON string `db:"success_factors"`
	}

	var rows []row
	if err := s.db.Select(&rows, query); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]Project, 0, len(rows))
	for _, r := range rows {
		p := r.Project
		// Tolerate hand-edited rows with malformed factor lists.
		if err := json.Unmarshal([]byte(r.SuccessFactorsJSON), &p.SuccessFactors); err != nil {
			p.SuccessFactors = nil
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// Count reports how many projects the catalog holds.
func (s *SQLiteStore) Count() (int, error) {
	var n int
	if err := s.db.Get(&n, `SELECT COUNT(*) FROM historical_projects`); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}
