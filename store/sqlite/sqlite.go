/*
Package sqlite provides a SQLite-backed ProjectStore.

PURPOSE:
  Persists the CRM mirror (projects, project lines, time entries) so the
  dashboard does not refetch the CRM on every request. In production the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

SNAPSHOT SEMANTICS:
  A sync run replaces a project's lines and entries wholesale inside one
  transaction. The mirror is derived data; the CRM stays the source of
  truth, so there is no append-only requirement here.

MONEY VALUES:
  Budgets, rates and hours are stored as TEXT holding exact decimal
  strings, never as REAL. Parsing back through decimal keeps allocation
  math bit-identical across a save/load round trip.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers
  don't block, a single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/mirror.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - store/store.go: Interface definition
  - store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gripp/revenue-engine/allocation"
	"github.com/gripp/revenue-engine/store"
)

// Store implements store.ProjectStore using SQLite.
type Store struct {
	db *sql.DB
}

var _ store.ProjectStore = (*Store)(nil)

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		project_type TEXT NOT NULL,
		total_budget TEXT NOT NULL,
		prior_year_consumed TEXT NOT NULL,
		synced_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS project_lines (
		id INTEGER NOT NULL,
		project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		description TEXT,
		budgeted_hours TEXT NOT NULL,
		hours_written TEXT NOT NULL,
		hourly_rate TEXT NOT NULL,
		invoice_basis TEXT NOT NULL,
		PRIMARY KEY (project_id, id)
	);

	CREATE TABLE IF NOT EXISTS time_entries (
		id INTEGER NOT NULL,
		project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		line_id INTEGER,
		month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
		hours TEXT NOT NULL,
		hourly_rate TEXT NOT NULL,
		employee_id INTEGER,
		employee TEXT,
		description TEXT,
		PRIMARY KEY (project_id, id)
	);

	-- Hot path: loading one project's entries in month order
	CREATE INDEX IF NOT EXISTS idx_time_entries_project_month
		ON time_entries(project_id, month, id);
	CREATE INDEX IF NOT EXISTS idx_project_lines_project
		ON project_lines(project_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WRITES
// =============================================================================

// SaveProject replaces the project aggregate in one transaction.
func (s *Store) SaveProject(ctx context.Context, p *allocation.Project) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, project_type, total_budget, prior_year_consumed, synced_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			project_type = excluded.project_type,
			total_budget = excluded.total_budget,
			prior_year_consumed = excluded.prior_year_consumed,
			synced_at = excluded.synced_at`,
		p.ID, p.Name, string(p.Type),
		p.TotalBudget.String(), p.PriorYearConsumed.String(),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save project %d: %w", p.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM project_lines WHERE project_id = ?`, p.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM time_entries WHERE project_id = ?`, p.ID); err != nil {
		return err
	}

	for _, l := range p.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO project_lines (id, project_id, description, budgeted_hours, hours_written, hourly_rate, invoice_basis)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			int64(l.ID), p.ID, l.Description,
			l.BudgetedHours.String(), l.HoursWritten.String(),
			l.HourlyRate.String(), string(l.InvoiceBasis))
		if err != nil {
			return fmt.Errorf("save line %d of project %d: %w", l.ID, p.ID, err)
		}
	}

	for m := 0; m < allocation.MonthCount; m++ {
		for _, e := range p.Months[m] {
			var lineID any
			if e.LineID != nil {
				lineID = int64(*e.LineID)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO time_entries (id, project_id, line_id, month, hours, hourly_rate, employee_id, employee, description)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				e.ID, p.ID, lineID, m+1,
				e.Hours.String(), e.HourlyRate.String(),
				e.EmployeeID, e.Employee, e.Description)
			if err != nil {
				return fmt.Errorf("save entry %d of project %d: %w", e.ID, p.ID, err)
			}
		}
	}

	return tx.Commit()
}

// Reset drops all mirrored data.
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"time_entries", "project_lines", "projects"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

// GetProject loads one project with its lines and month buckets.
func (s *Store) GetProject(ctx context.Context, id int64) (*allocation.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, project_type, total_budget, prior_year_consumed
		FROM projects WHERE id = ?`, id)

	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadLines(ctx, p); err != nil {
		return nil, err
	}
	if err := s.loadEntries(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListProjects loads every mirrored project, ordered by id.
func (s *Store) ListProjects(ctx context.Context) ([]*allocation.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, project_type, total_budget, prior_year_consumed
		FROM projects ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*allocation.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range projects {
		if err := s.loadLines(ctx, p); err != nil {
			return nil, err
		}
		if err := s.loadEntries(ctx, p); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(r rowScanner) (*allocation.Project, error) {
	var (
		p             allocation.Project
		ptype         string
		budget, prior string
	)
	if err := r.Scan(&p.ID, &p.Name, &ptype, &budget, &prior); err != nil {
		return nil, err
	}
	p.Type = allocation.ProjectType(ptype)
	p.TotalBudget = allocation.MustParseMoney(budget)
	p.PriorYearConsumed = allocation.MustParseMoney(prior)
	return &p, nil
}

func (s *Store) loadLines(ctx context.Context, p *allocation.Project) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, budgeted_hours, hours_written, hourly_rate, invoice_basis
		FROM project_lines WHERE project_id = ? ORDER BY id`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l                              allocation.ProjectLine
			desc                           sql.NullString
			budgeted, written, rate, basis string
		)
		if err := rows.Scan(&l.ID, &desc, &budgeted, &written, &rate, &basis); err != nil {
			return err
		}
		l.Description = desc.String
		l.BudgetedHours = allocation.MustParseMoney(budgeted).Value
		l.HoursWritten = allocation.MustParseMoney(written).Value
		l.HourlyRate = allocation.MustParseMoney(rate)
		l.InvoiceBasis = allocation.InvoiceBasis(basis)
		p.Lines = append(p.Lines, l)
	}
	return rows.Err()
}

func (s *Store) loadEntries(ctx context.Context, p *allocation.Project) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, line_id, month, hours, hourly_rate, employee_id, employee, description
		FROM time_entries WHERE project_id = ? ORDER BY month, id`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e           allocation.TimeEntry
			lineID      sql.NullInt64
			month       int
			hours, rate string
			employeeID  sql.NullInt64
			employee    sql.NullString
			description sql.NullString
		)
		if err := rows.Scan(&e.ID, &lineID, &month, &hours, &rate, &employeeID, &employee, &description); err != nil {
			return err
		}
		if lineID.Valid {
			id := allocation.LineID(lineID.Int64)
			e.LineID = &id
		}
		e.ProjectID = p.ID
		e.Month = time.Month(month)
		e.Hours = allocation.MustParseMoney(hours).Value
		e.HourlyRate = allocation.MustParseMoney(rate)
		e.EmployeeID = employeeID.Int64
		e.Employee = employee.String
		e.Description = description.String
		p.AddEntry(e)
	}
	return rows.Err()
}
