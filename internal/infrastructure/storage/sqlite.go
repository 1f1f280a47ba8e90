// Package storage provides the SQLite-backed schedule store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/felixgeelhaar/crewsched/internal/domain"
	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so every method can run
// inside or outside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements domain.Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
	q  queryer
}

// New opens (or creates) the database at path and applies the schema.
func New(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &SQLiteStore{db: db, q: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS phases (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		division TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		duration_days INTEGER NOT NULL DEFAULT 0,
		labor_hours REAL NOT NULL DEFAULT 0,
		crew_foreman BOOLEAN NOT NULL DEFAULT FALSE,
		crew_journeymen INTEGER NOT NULL DEFAULT 0,
		crew_apprentices INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'not_started',
		progress REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS phase_dependencies (
		phase_id TEXT NOT NULL REFERENCES phases(id) ON DELETE CASCADE,
		depends_on_id TEXT NOT NULL REFERENCES phases(id) ON DELETE CASCADE,
		PRIMARY KEY (phase_id, depends_on_id)
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		division TEXT NOT NULL,
		type TEXT NOT NULL,
		max_hours_per_week REAL NOT NULL DEFAULT 40,
		available_from DATETIME NOT NULL,
		available_until DATETIME,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		phase_id TEXT NOT NULL REFERENCES phases(id) ON DELETE CASCADE,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		date DATETIME NOT NULL,
		hours_allocated REAL NOT NULL,
		actual_hours REAL,
		role TEXT NOT NULL,
		is_lead BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_phases_project ON phases(project_id);
	CREATE INDEX IF NOT EXISTS idx_phases_division ON phases(division);
	CREATE INDEX IF NOT EXISTS idx_assignments_phase ON assignments(phase_id);
	CREATE INDEX IF NOT EXISTS idx_assignments_employee ON assignments(employee_id, date);
	CREATE INDEX IF NOT EXISTS idx_assignments_date ON assignments(date);
	`
	_, err := s.db.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// WithTx runs fn against a store bound to one transaction. Calling WithTx
// on a store already inside a transaction reuses it.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(domain.Store) error) error {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLiteStore{db: s.db, q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// --- projects ---

func (s *SQLiteStore) Project(ctx context.Context, id string) (*schedule.Project, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, name, start_date, end_date, active FROM projects WHERE id = ?`, id)
	var p schedule.Project
	if err := row.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schedule.ErrProjectNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) ActiveProjects(ctx context.Context) ([]schedule.Project, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, name, start_date, end_date, active FROM projects WHERE active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []schedule.Project
	for rows.Next() {
		var p schedule.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Active); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateProject inserts a project record.
func (s *SQLiteStore) CreateProject(ctx context.Context, p *schedule.Project) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO projects (id, name, start_date, end_date, active) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.StartDate, p.EndDate, p.Active)
	return err
}

// --- phases ---

const phaseColumns = `id, project_id, name, division, start_date, end_date,
	duration_days, labor_hours, crew_foreman, crew_journeymen, crew_apprentices, status, progress`

func (s *SQLiteStore) scanPhase(scan func(dest ...any) error) (schedule.Phase, error) {
	var p schedule.Phase
	err := scan(&p.ID, &p.ProjectID, &p.Name, &p.Division, &p.StartDate, &p.EndDate,
		&p.DurationDays, &p.LaborHours, &p.Crew.Foreman, &p.Crew.Journeymen,
		&p.Crew.Apprentices, &p.Status, &p.Progress)
	return p, err
}

func (s *SQLiteStore) Phase(ctx context.Context, id string) (*schedule.Phase, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+phaseColumns+` FROM phases WHERE id = ?`, id)
	p, err := s.scanPhase(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schedule.ErrPhaseNotFound
		}
		return nil, err
	}
	if err := s.loadDependencies(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) queryPhases(ctx context.Context, query string, args ...any) ([]schedule.Phase, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var phases []schedule.Phase
	for rows.Next() {
		p, err := s.scanPhase(rows.Scan)
		if err != nil {
			return nil, err
		}
		phases = append(phases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range phases {
		if err := s.loadDependencies(ctx, &phases[i]); err != nil {
			return nil, err
		}
	}
	return phases, nil
}

func (s *SQLiteStore) PhasesByProject(ctx context.Context, projectID string) ([]schedule.Phase, error) {
	return s.queryPhases(ctx,
		`SELECT `+phaseColumns+` FROM phases WHERE project_id = ? ORDER BY id`, projectID)
}

// ActivePhases lists the phases of active projects.
func (s *SQLiteStore) ActivePhases(ctx context.Context) ([]schedule.Phase, error) {
	return s.queryPhases(ctx,
		`SELECT p.id, p.project_id, p.name, p.division, p.start_date, p.end_date,
			p.duration_days, p.labor_hours, p.crew_foreman, p.crew_journeymen,
			p.crew_apprentices, p.status, p.progress
		 FROM phases p JOIN projects pr ON pr.id = p.project_id
		 WHERE pr.active ORDER BY p.id`)
}

func (s *SQLiteStore) loadDependencies(ctx context.Context, p *schedule.Phase) error {
	rows, err := s.q.QueryContext(ctx,
		`SELECT depends_on_id FROM phase_dependencies WHERE phase_id = ? ORDER BY depends_on_id`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	p.DependsOn = nil
	for rows.Next() {
		var depID string
		if err := rows.Scan(&depID); err != nil {
			return err
		}
		p.DependsOn = append(p.DependsOn, depID)
	}
	return rows.Err()
}

// CreatePhase inserts a phase and its dependency edges.
func (s *SQLiteStore) CreatePhase(ctx context.Context, p *schedule.Phase) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO phases (`+phaseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ProjectID, p.Name, p.Division, p.StartDate, p.EndDate,
		p.DurationDays, p.LaborHours, p.Crew.Foreman, p.Crew.Journeymen,
		p.Crew.Apprentices, p.Status, p.Progress)
	if err != nil {
		return err
	}
	return s.UpdatePhaseDependencies(ctx, p.ID, p.DependsOn)
}

func (s *SQLiteStore) UpdatePhaseDates(ctx context.Context, id string, start, end time.Time) error {
	return s.execPhaseUpdate(ctx,
		`UPDATE phases SET start_date = ?, end_date = ? WHERE id = ?`, start, end, id)
}

func (s *SQLiteStore) UpdatePhaseStatus(ctx context.Context, id string, status schedule.PhaseStatus) error {
	return s.execPhaseUpdate(ctx,
		`UPDATE phases SET status = ? WHERE id = ?`, status, id)
}

func (s *SQLiteStore) UpdatePhaseCrew(ctx context.Context, id string, crew schedule.CrewRequirement) error {
	return s.execPhaseUpdate(ctx,
		`UPDATE phases SET crew_foreman = ?, crew_journeymen = ?, crew_apprentices = ? WHERE id = ?`,
		crew.Foreman, crew.Journeymen, crew.Apprentices, id)
}

func (s *SQLiteStore) UpdatePhaseDependencies(ctx context.Context, id string, dependsOn []string) error {
	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM phase_dependencies WHERE phase_id = ?`, id); err != nil {
		return err
	}
	for _, depID := range dependsOn {
		if _, err := s.q.ExecContext(ctx,
			`INSERT INTO phase_dependencies (phase_id, depends_on_id) VALUES (?, ?)`, id, depID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) execPhaseUpdate(ctx context.Context, query string, args ...any) error {
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.ErrPhaseNotFound
	}
	return nil
}

// --- employees ---

const employeeColumns = `id, name, division, type, max_hours_per_week, available_from, available_until, active`

func scanEmployee(scan func(dest ...any) error) (schedule.Employee, error) {
	var e schedule.Employee
	var until sql.NullTime
	err := scan(&e.ID, &e.Name, &e.Division, &e.Type, &e.MaxHoursPerWeek,
		&e.AvailableFrom, &until, &e.Active)
	if until.Valid {
		t := until.Time
		e.AvailableUntil = &t
	}
	return e, err
}

func (s *SQLiteStore) Employee(ctx context.Context, id string) (*schedule.Employee, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schedule.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) ActiveEmployees(ctx context.Context, filter domain.EmployeeFilter) ([]schedule.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE active`
	var args []any
	if filter.Division != "" {
		query += ` AND division = ?`
		args = append(args, filter.Division)
	}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, filter.Type)
	}
	if !filter.To.IsZero() {
		query += ` AND available_from <= ?`
		args = append(args, filter.To)
	}
	if !filter.From.IsZero() {
		query += ` AND (available_until IS NULL OR available_until >= ?)`
		args = append(args, filter.From)
	}
	query += ` ORDER BY id`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []schedule.Employee
	for rows.Next() {
		e, err := scanEmployee(rows.Scan)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// CreateEmployee inserts an employee record.
func (s *SQLiteStore) CreateEmployee(ctx context.Context, e *schedule.Employee) error {
	var until any
	if e.AvailableUntil != nil {
		until = *e.AvailableUntil
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO employees (`+employeeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Division, e.Type, e.MaxHoursPerWeek, e.AvailableFrom, until, e.Active)
	return err
}

// --- assignments ---

const assignmentColumns = `id, phase_id, employee_id, date, hours_allocated, actual_hours, role, is_lead`

func scanAssignment(scan func(dest ...any) error) (schedule.Assignment, error) {
	var a schedule.Assignment
	var actual sql.NullFloat64
	err := scan(&a.ID, &a.PhaseID, &a.EmployeeID, &a.Date, &a.HoursAllocated,
		&actual, &a.Role, &a.IsLead)
	if actual.Valid {
		v := actual.Float64
		a.ActualHoursWorked = &v
	}
	return a, err
}

func (s *SQLiteStore) Assignment(ctx context.Context, id string) (*schedule.Assignment, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schedule.ErrAssignmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *SQLiteStore) queryAssignments(ctx context.Context, query string, args ...any) ([]schedule.Assignment, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []schedule.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows.Scan)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (s *SQLiteStore) AssignmentsByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]schedule.Assignment, error) {
	return s.queryAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE employee_id = ? AND date >= ? AND date <= ? ORDER BY date, id`,
		employeeID, from, to)
}

func (s *SQLiteStore) AssignmentsByPhase(ctx context.Context, phaseID string) ([]schedule.Assignment, error) {
	return s.queryAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE phase_id = ? ORDER BY date, id`, phaseID)
}

func (s *SQLiteStore) AssignmentsInRange(ctx context.Context, from, to time.Time) ([]schedule.Assignment, error) {
	return s.queryAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE date >= ? AND date <= ? ORDER BY date, id`, from, to)
}

func (s *SQLiteStore) CreateAssignment(ctx context.Context, a *schedule.Assignment) error {
	var actual any
	if a.ActualHoursWorked != nil {
		actual = *a.ActualHoursWorked
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO assignments (`+assignmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.PhaseID, a.EmployeeID, a.Date, a.HoursAllocated, actual, a.Role, a.IsLead)
	return err
}

func (s *SQLiteStore) UpdateAssignment(ctx context.Context, a *schedule.Assignment) error {
	var actual any
	if a.ActualHoursWorked != nil {
		actual = *a.ActualHoursWorked
	}
	res, err := s.q.ExecContext(ctx,
		`UPDATE assignments SET phase_id = ?, employee_id = ?, date = ?,
			hours_allocated = ?, actual_hours = ?, role = ?, is_lead = ?
		 WHERE id = ?`,
		a.PhaseID, a.EmployeeID, a.Date, a.HoursAllocated, actual, a.Role, a.IsLead, a.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.ErrAssignmentNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteAssignment(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.ErrAssignmentNotFound
	}
	return nil
}
