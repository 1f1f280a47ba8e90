package application

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/felixgeelhaar/crewsched/internal/domain"
	"github.com/felixgeelhaar/crewsched/internal/domain/capacity"
	"github.com/felixgeelhaar/crewsched/internal/domain/conflict"
	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
	"github.com/felixgeelhaar/crewsched/internal/infrastructure/cache"
)

const (
	// ScanTTL is how long a full-sweep result is served from cache.
	ScanTTL = 5 * time.Minute
	// scanScopeAll keys the full-system sweep in the cache.
	scanScopeAll = "scan:all"
	// capacityWindowDays is the rolling near-term window the sweep checks
	// per division.
	capacityWindowDays = 30
	// sweepHorizonDays bounds how far around the scan instant assignments
	// are fetched.
	sweepHorizonDays = 90
)

// ConflictService orchestrates full-system conflict sweeps. Results are
// cached per scan scope; a race between concurrent recomputations is
// harmless because both compute the same pure function of the same state.
type ConflictService struct {
	store    domain.Store
	detector *conflict.Detector
	cache    *cache.TTL[[]conflict.Conflict]
	sink     domain.AlertSink
	now      func() time.Time
	logf     func(format string, args ...any)
}

// NewConflictService creates the service. The sink may be nil; a nil clock
// uses time.Now; a nil logf uses the standard logger.
func NewConflictService(store domain.Store, detector *conflict.Detector, sink domain.AlertSink, now func() time.Time) *ConflictService {
	if now == nil {
		now = time.Now
	}
	return &ConflictService{
		store:    store,
		detector: detector,
		cache:    cache.New[[]conflict.Conflict](ScanTTL, cache.Clock(now)),
		sink:     sink,
		now:      now,
		logf:     log.Printf,
	}
}

// SetLogger overrides the sweep logger.
func (s *ConflictService) SetLogger(logf func(format string, args ...any)) {
	if logf != nil {
		s.logf = logf
	}
}

// InvalidateScan drops cached sweep results. Correctness never requires
// this; it exists so data watchers can force a fresh sweep early.
func (s *ConflictService) InvalidateScan() {
	s.cache.InvalidateAll()
}

// ScanAll runs the full-system sweep, serving a cached result when one is
// fresh. A per-phase failure is logged and skipped so one bad record does
// not void the rest of a monitoring scan.
func (s *ConflictService) ScanAll(ctx context.Context) ([]conflict.Conflict, error) {
	if cached, ok := s.cache.Get(scanScopeAll); ok {
		return cached, nil
	}

	conflicts, err := s.sweep(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Set(scanScopeAll, conflicts)
	if s.sink != nil && len(conflicts) > 0 {
		s.sink.Notify(ctx, conflicts)
	}
	return conflicts, nil
}

func (s *ConflictService) sweep(ctx context.Context) ([]conflict.Conflict, error) {
	now := s.now()

	phases, err := s.store.ActivePhases(ctx)
	if err != nil {
		return nil, fmt.Errorf("load phases: %w", err)
	}
	employees, err := s.store.ActiveEmployees(ctx, domain.EmployeeFilter{})
	if err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}
	assignments, err := s.store.AssignmentsInRange(ctx,
		now.AddDate(0, 0, -sweepHorizonDays), now.AddDate(0, 0, sweepHorizonDays))
	if err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}
	projects, err := s.store.ActiveProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}

	phaseByID := make(map[string]schedule.Phase, len(phases))
	for _, p := range phases {
		phaseByID[p.ID] = p
	}
	employeeByID := make(map[string]schedule.Employee, len(employees))
	for _, e := range employees {
		employeeByID[e.ID] = e
	}
	projectByID := make(map[string]schedule.Project, len(projects))
	for _, p := range projects {
		projectByID[p.ID] = p
	}

	var conflicts []conflict.Conflict

	// Phase-level checks over non-terminal phases.
	for _, phase := range phases {
		if phase.Status.Terminal() {
			continue
		}
		phaseAssignments, err := s.store.AssignmentsByPhase(ctx, phase.ID)
		if err != nil {
			s.logf("conflict sweep: skipping phase %s: %v", phase.ID, err)
			continue
		}
		conflicts = append(conflicts, s.detector.CheckMissingForeman(phase, phaseAssignments, employeeByID)...)
		if c := s.detector.CheckCrewSize(phase, phaseAssignments); c != nil {
			conflicts = append(conflicts, *c)
		}
		conflicts = append(conflicts, s.detector.CheckMultipleLeads(phase, phaseAssignments)...)
		conflicts = append(conflicts, s.detector.CheckOverlappingPhases(phase, phaseByID)...)
	}

	// Division capacity over the rolling near-term window.
	in := capacity.Inputs{
		Employees:   employees,
		Phases:      phases,
		Assignments: assignments,
		Projects:    projectByID,
	}
	windowEnd := now.AddDate(0, 0, capacityWindowDays)
	for _, division := range schedule.AllDivisions() {
		window := capacity.Compute(now, windowEnd, division, in)
		if c := s.detector.CheckOverCapacity(window); c != nil {
			conflicts = append(conflicts, *c)
		}
	}

	// Employee-level checks over existing assignments.
	byEmployee := make(map[string][]schedule.Assignment)
	for _, a := range assignments {
		byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], a)
	}
	for employeeID, empAssignments := range byEmployee {
		employee, ok := employeeByID[employeeID]
		if !ok {
			continue
		}
		seenDays := make(map[string]bool)
		seenWeeks := make(map[string]bool)
		for _, a := range empAssignments {
			day := a.Date.Format("2006-01-02")
			if !seenDays[day] {
				seenDays[day] = true
				if c := s.detector.CheckDoubleBooking(employee, a.Date, empAssignments, 0); c != nil {
					conflicts = append(conflicts, *c)
				}
				if c := s.detector.CheckAvailability(employee, a.Date); c != nil {
					conflicts = append(conflicts, *c)
				}
			}
			week := schedule.WeekStart(a.Date).Format("2006-01-02")
			if !seenWeeks[week] {
				seenWeeks[week] = true
				if c := s.detector.CheckWeeklyHours(employee, a.Date, empAssignments, 0); c != nil {
					conflicts = append(conflicts, *c)
				}
			}
			if phase, ok := phaseByID[a.PhaseID]; ok {
				if c := s.detector.CheckRole(employee, a.Role); c != nil {
					c.PhaseID = phase.ID
					conflicts = append(conflicts, *c)
				}
			}
		}
	}

	return conflicts, nil
}
