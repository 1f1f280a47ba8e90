package application

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/crewsched/internal/domain"
	"github.com/felixgeelhaar/crewsched/internal/domain/capacity"
	"github.com/felixgeelhaar/crewsched/internal/domain/conflict"
	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
)

// ScheduleService validates schedule changes against the dependency graph
// and the conflict checks before they are committed.
type ScheduleService struct {
	store    domain.Store
	detector *conflict.Detector
	now      func() time.Time
}

// NewScheduleService creates the service. A nil clock uses time.Now.
func NewScheduleService(store domain.Store, detector *conflict.Detector, now func() time.Time) *ScheduleService {
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{store: store, detector: detector, now: now}
}

// ValidateDependencies checks a proposed dependency set for a phase of the
// given project. A cyclic or cross-project set is rejected before it ever
// reaches the data model.
func (s *ScheduleService) ValidateDependencies(ctx context.Context, projectID, phaseID string, proposed []string) error {
	if _, err := s.store.Project(ctx, projectID); err != nil {
		return err
	}
	phases, err := s.store.PhasesByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("load project phases: %w", err)
	}
	return schedule.ValidateDependencies(phases, projectID, phaseID, proposed)
}

// UpdateDependencies validates and persists a phase's dependency set.
func (s *ScheduleService) UpdateDependencies(ctx context.Context, phaseID string, proposed []string) error {
	phase, err := s.store.Phase(ctx, phaseID)
	if err != nil {
		return err
	}
	if err := s.ValidateDependencies(ctx, phase.ProjectID, phaseID, proposed); err != nil {
		return err
	}
	return s.store.UpdatePhaseDependencies(ctx, phaseID, proposed)
}

// CriticalPath computes CPM timings over a project's phases and returns
// the nodes in topological order.
func (s *ScheduleService) CriticalPath(ctx context.Context, projectID string) ([]schedule.PathNode, error) {
	if _, err := s.store.Project(ctx, projectID); err != nil {
		return nil, err
	}
	phases, err := s.store.PhasesByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load project phases: %w", err)
	}
	return schedule.CriticalPath(phases)
}

// ValidateAssignment runs the pre-commit checks for one proposed assignment.
// The result is returned as data; the caller decides severity-based blocking.
func (s *ScheduleService) ValidateAssignment(ctx context.Context, phaseID, employeeID string, date time.Time, hours float64) (conflict.ValidationResult, error) {
	var zero conflict.ValidationResult
	if hours <= 0 {
		return zero, fmt.Errorf("hours must be positive, got %.1f", hours)
	}
	if date.IsZero() {
		return zero, fmt.Errorf("assignment date is required")
	}

	phase, err := s.store.Phase(ctx, phaseID)
	if err != nil {
		return zero, err
	}
	employee, err := s.store.Employee(ctx, employeeID)
	if err != nil {
		return zero, err
	}

	// The week around the proposed date covers both the daily and the
	// weekly checks.
	weekStart := schedule.WeekStart(date)
	existing, err := s.store.AssignmentsByEmployee(ctx, employeeID, weekStart, weekStart.AddDate(0, 0, 6))
	if err != nil {
		return zero, fmt.Errorf("load employee assignments: %w", err)
	}

	window, err := s.capacityWindow(ctx, phase.Division, date)
	if err != nil {
		// Capacity data is advisory for a single validation; degrade to
		// the remaining checks.
		window = nil
	}

	return s.detector.ValidateAssignment(*phase, *employee, date, hours, employee.Type, existing, window), nil
}

// TransitionPhase moves a phase through its status state machine. Starting
// a phase is guarded on all of its dependencies being completed.
func (s *ScheduleService) TransitionPhase(ctx context.Context, phaseID, event string) error {
	phase, err := s.store.Phase(ctx, phaseID)
	if err != nil {
		return err
	}
	siblings, err := s.store.PhasesByProject(ctx, phase.ProjectID)
	if err != nil {
		return fmt.Errorf("load project phases: %w", err)
	}
	statusByID := make(map[string]schedule.PhaseStatus, len(siblings))
	for _, p := range siblings {
		statusByID[p.ID] = p.Status
	}

	guard := func(id, ev string) bool {
		if ev != schedule.EventStart {
			return true
		}
		for _, depID := range phase.DependsOn {
			if statusByID[depID] != schedule.StatusCompleted {
				return false
			}
		}
		return true
	}

	sm, err := schedule.NewPhaseStateMachine(phase.Status, phase.ID, guard)
	if err != nil {
		return err
	}
	if err := sm.Transition(event); err != nil {
		return err
	}
	return s.store.UpdatePhaseStatus(ctx, phaseID, sm.Current())
}

// AdjustDependentDates moves a phase's end date and cascades the shift onto
// every dependent phase whose start would otherwise precede the new end.
// All date updates land in one transaction.
func (s *ScheduleService) AdjustDependentDates(ctx context.Context, phaseID string, newEnd time.Time) ([]schedule.DateAdjustment, error) {
	phase, err := s.store.Phase(ctx, phaseID)
	if err != nil {
		return nil, err
	}
	if newEnd.Before(phase.StartDate) {
		return nil, schedule.ErrInvalidDateRange
	}
	siblings, err := s.store.PhasesByProject(ctx, phase.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project phases: %w", err)
	}

	adjustments := schedule.AdjustDependentDates(siblings, phaseID, newEnd)

	err = s.store.WithTx(ctx, func(tx domain.Store) error {
		if err := tx.UpdatePhaseDates(ctx, phaseID, phase.StartDate, newEnd); err != nil {
			return err
		}
		for _, adj := range adjustments {
			if err := tx.UpdatePhaseDates(ctx, adj.PhaseID, adj.NewStart, adj.NewEnd); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply date adjustments: %w", err)
	}
	return adjustments, nil
}

// capacityWindow computes the division capacity for the calendar month
// containing date.
func (s *ScheduleService) capacityWindow(ctx context.Context, division schedule.Division, date time.Time) (*capacity.DivisionCapacity, error) {
	monthStart := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	monthEnd := monthStart.AddDate(0, 1, -1)

	in, err := gatherCapacityInputs(ctx, s.store, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	window := capacity.Compute(monthStart, monthEnd, division, in)
	return &window, nil
}

// gatherCapacityInputs snapshots the data a capacity computation needs.
func gatherCapacityInputs(ctx context.Context, store domain.Store, start, end time.Time) (capacity.Inputs, error) {
	var in capacity.Inputs

	employees, err := store.ActiveEmployees(ctx, domain.EmployeeFilter{From: start, To: end})
	if err != nil {
		return in, fmt.Errorf("load employees: %w", err)
	}
	phases, err := store.ActivePhases(ctx)
	if err != nil {
		return in, fmt.Errorf("load phases: %w", err)
	}
	assignments, err := store.AssignmentsInRange(ctx, start, end)
	if err != nil {
		return in, fmt.Errorf("load assignments: %w", err)
	}
	projects, err := store.ActiveProjects(ctx)
	if err != nil {
		return in, fmt.Errorf("load projects: %w", err)
	}

	in.Employees = employees
	in.Phases = phases
	in.Assignments = assignments
	in.Projects = make(map[string]schedule.Project, len(projects))
	for _, p := range projects {
		in.Projects[p.ID] = p
	}
	return in, nil
}
