package domain

import (
	"context"
	"time"

	"github.com/felixgeelhaar/crewsched/internal/domain/conflict"
	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
)

// EmployeeFilter narrows active-employee listings.
type EmployeeFilter struct {
	Division schedule.Division
	Type     schedule.EmployeeType
	// Availability window; zero values mean unconstrained.
	From time.Time
	To   time.Time
}

// ProjectRepository reads project records.
type ProjectRepository interface {
	Project(ctx context.Context, id string) (*schedule.Project, error)
	ActiveProjects(ctx context.Context) ([]schedule.Project, error)
}

// PhaseRepository reads and mutates phase records.
type PhaseRepository interface {
	Phase(ctx context.Context, id string) (*schedule.Phase, error)
	PhasesByProject(ctx context.Context, projectID string) ([]schedule.Phase, error)
	ActivePhases(ctx context.Context) ([]schedule.Phase, error)
	UpdatePhaseDates(ctx context.Context, id string, start, end time.Time) error
	UpdatePhaseStatus(ctx context.Context, id string, status schedule.PhaseStatus) error
	UpdatePhaseCrew(ctx context.Context, id string, crew schedule.CrewRequirement) error
	UpdatePhaseDependencies(ctx context.Context, id string, dependsOn []string) error
}

// EmployeeRepository reads employee records.
type EmployeeRepository interface {
	Employee(ctx context.Context, id string) (*schedule.Employee, error)
	ActiveEmployees(ctx context.Context, filter EmployeeFilter) ([]schedule.Employee, error)
}

// AssignmentRepository reads and mutates assignment records.
type AssignmentRepository interface {
	Assignment(ctx context.Context, id string) (*schedule.Assignment, error)
	AssignmentsByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]schedule.Assignment, error)
	AssignmentsByPhase(ctx context.Context, phaseID string) ([]schedule.Assignment, error)
	AssignmentsInRange(ctx context.Context, from, to time.Time) ([]schedule.Assignment, error)
	CreateAssignment(ctx context.Context, a *schedule.Assignment) error
	UpdateAssignment(ctx context.Context, a *schedule.Assignment) error
	DeleteAssignment(ctx context.Context, id string) error
}

// Store is the persistence collaborator the engine runs against. WithTx
// executes fn against a store bound to a single logical transaction;
// resolution applications and dependent-date cascades go through it so a
// mutation lands completely or not at all.
type Store interface {
	ProjectRepository
	PhaseRepository
	EmployeeRepository
	AssignmentRepository

	WithTx(ctx context.Context, fn func(Store) error) error
}

// AlertSink receives detected conflicts for external persistence or
// delivery. Implementations must tolerate duplicate notifications.
type AlertSink interface {
	Notify(ctx context.Context, conflicts []conflict.Conflict)
}
