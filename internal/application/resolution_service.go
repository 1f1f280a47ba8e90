package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/crewsched/internal/domain"
	"github.com/felixgeelhaar/crewsched/internal/domain/conflict"
	"github.com/felixgeelhaar/crewsched/internal/domain/resolution"
	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
)

// ResolutionService generates ranked resolution suggestions for conflicts
// and applies the auto-applicable ones through the store.
type ResolutionService struct {
	store    domain.Store
	rates    resolution.Rates
	now      func() time.Time
	handlers map[resolution.ActionKind]actionHandler
}

type actionHandler func(ctx context.Context, tx domain.Store, params resolution.Params) error

// NewResolutionService creates the service. Zero rates fall back to the
// package defaults; a nil clock uses time.Now.
func NewResolutionService(store domain.Store, rates resolution.Rates, now func() time.Time) *ResolutionService {
	if now == nil {
		now = time.Now
	}
	s := &ResolutionService{store: store, rates: rates, now: now}
	s.handlers = map[resolution.ActionKind]actionHandler{
		resolution.ActionReassign:      applyReassign,
		resolution.ActionMoveDate:      applyMoveDate,
		resolution.ActionSplit:         applySplit,
		resolution.ActionIncreaseCrew:  applyIncreaseCrew,
		resolution.ActionReduceHours:   applyReduceHours,
		resolution.ActionDesignateLead: applyDesignateLead,
		resolution.ActionShiftPhase:    applyShiftPhase,
	}
	return s
}

// Suggestions generates ranked suggestions for one conflict. Missing
// surrounding data narrows the output rather than failing: suggestions are
// advisory.
func (s *ResolutionService) Suggestions(ctx context.Context, c conflict.Conflict) ([]resolution.Suggestion, error) {
	genCtx := resolution.Context{
		Conflict: c,
		Rates:    s.rates,
		Now:      s.now(),
	}

	if c.PhaseID != "" {
		if phase, err := s.store.Phase(ctx, c.PhaseID); err == nil {
			genCtx.Phase = phase
		}
	}
	if c.EmployeeID != "" {
		if employee, err := s.store.Employee(ctx, c.EmployeeID); err == nil {
			genCtx.Employee = employee
		}
	}

	subjectDate := conflictDate(c)
	if genCtx.Employee != nil {
		weekStart := schedule.WeekStart(subjectDate)
		if existing, err := s.store.AssignmentsByEmployee(ctx, genCtx.Employee.ID, weekStart, weekStart.AddDate(0, 0, 6)); err == nil {
			genCtx.EmployeeAssignments = existing
			genCtx.Assignment = subjectAssignment(c, existing)
		}
	}
	if genCtx.Assignment == nil && genCtx.Phase != nil && genCtx.Employee != nil {
		if phaseAssignments, err := s.store.AssignmentsByPhase(ctx, genCtx.Phase.ID); err == nil {
			genCtx.PhaseAssignments = phaseAssignments
			for i := range phaseAssignments {
				if phaseAssignments[i].EmployeeID == genCtx.Employee.ID {
					genCtx.Assignment = &phaseAssignments[i]
					break
				}
			}
		}
	}

	division := subjectDivision(c, genCtx.Phase, genCtx.Employee)
	if division != "" {
		candidates, err := s.buildCandidates(ctx, division, subjectDate)
		if err != nil {
			return nil, err
		}
		genCtx.Candidates = candidates
	}

	if c.Type == conflict.TypeOverCapacity {
		if phases, err := s.store.ActivePhases(ctx); err == nil {
			for _, p := range phases {
				if p.Division == division {
					genCtx.DivisionPhases = append(genCtx.DivisionPhases, p)
				}
			}
		}
	}

	return resolution.Generate(genCtx), nil
}

// ApplyResult reports the outcome of one apply attempt.
type ApplyResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Apply executes a suggestion's implementation inside a single store
// transaction. Non-auto-applicable suggestions and unknown action kinds are
// no-ops reporting failure; a mutation error rolls the transaction back, so
// a resolution is applied completely or not at all. Nothing is retried.
func (s *ResolutionService) Apply(ctx context.Context, sug resolution.Suggestion) ApplyResult {
	if !sug.AutoApplicable || sug.Implementation == nil {
		return ApplyResult{Error: "suggestion is not auto-applicable"}
	}
	handler, ok := s.handlers[sug.Implementation.Action]
	if !ok {
		return ApplyResult{Error: fmt.Sprintf("unknown action %q", sug.Implementation.Action)}
	}

	err := s.store.WithTx(ctx, func(tx domain.Store) error {
		return handler(ctx, tx, sug.Implementation.Params)
	})
	if err != nil {
		return ApplyResult{Error: err.Error()}
	}
	return ApplyResult{Success: true}
}

// buildCandidates annotates the division's active employees with their
// spare capacity over the calendar week containing date.
func (s *ResolutionService) buildCandidates(ctx context.Context, division schedule.Division, date time.Time) ([]resolution.Candidate, error) {
	employees, err := s.store.ActiveEmployees(ctx, domain.EmployeeFilter{})
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	weekStart := schedule.WeekStart(date)
	weekEnd := weekStart.AddDate(0, 0, 6)

	var candidates []resolution.Candidate
	for _, e := range employees {
		if !e.Division.Compatible(division) {
			continue
		}
		assignments, err := s.store.AssignmentsByEmployee(ctx, e.ID, weekStart, weekEnd)
		if err != nil {
			return nil, fmt.Errorf("load candidate assignments: %w", err)
		}
		assigned := 0.0
		days := make(map[string]bool)
		for _, a := range assignments {
			assigned += a.HoursAllocated
			days[a.Date.Format("2006-01-02")] = true
		}
		candidates = append(candidates, resolution.Candidate{
			Employee:       e,
			AvailableHours: e.MaxHoursPerWeek - assigned,
			AssignedDays:   len(days),
			WindowDays:     7,
		})
	}
	return candidates, nil
}

// conflictDate extracts the most relevant date from a conflict's detail.
func conflictDate(c conflict.Conflict) time.Time {
	switch d := c.Detail.(type) {
	case conflict.DoubleBookingDetail:
		return d.Date
	case conflict.HoursExceededDetail:
		return d.WeekStart
	case conflict.OvertimeDetail:
		return d.WeekStart
	case conflict.UnavailableDetail:
		return d.Date
	case conflict.MissingForemanDetail:
		return d.Date
	case conflict.MultipleLeadsDetail:
		return d.Date
	case conflict.OverCapacityDetail:
		return d.PeriodStart
	}
	return c.DetectedAt
}

// subjectAssignment picks the assignment a per-employee conflict is about:
// the largest allocation on the conflict date, falling back to the largest
// in the fetched window.
func subjectAssignment(c conflict.Conflict, assignments []schedule.Assignment) *schedule.Assignment {
	date := conflictDate(c)
	var pick *schedule.Assignment
	for i := range assignments {
		a := &assignments[i]
		if !schedule.SameDay(a.Date, date) {
			continue
		}
		if pick == nil || a.HoursAllocated > pick.HoursAllocated {
			pick = a
		}
	}
	if pick != nil {
		return pick
	}
	for i := range assignments {
		a := &assignments[i]
		if pick == nil || a.HoursAllocated > pick.HoursAllocated {
			pick = a
		}
	}
	return pick
}

func subjectDivision(c conflict.Conflict, phase *schedule.Phase, employee *schedule.Employee) schedule.Division {
	if d, ok := c.Detail.(conflict.OverCapacityDetail); ok {
		return d.Division
	}
	if phase != nil {
		return phase.Division
	}
	if employee != nil {
		return employee.Division
	}
	return ""
}

func applyReassign(ctx context.Context, tx domain.Store, params resolution.Params) error {
	p, ok := params.(resolution.ReassignParams)
	if !ok {
		return fmt.Errorf("reassign: unexpected params %T", params)
	}
	a, err := tx.Assignment(ctx, p.AssignmentID)
	if err != nil {
		return err
	}
	employee, err := tx.Employee(ctx, p.NewEmployeeID)
	if err != nil {
		return err
	}
	a.EmployeeID = employee.ID
	a.Role = employee.Type
	return tx.UpdateAssignment(ctx, a)
}

func applyMoveDate(ctx context.Context, tx domain.Store, params resolution.Params) error {
	p, ok := params.(resolution.MoveDateParams)
	if !ok {
		return fmt.Errorf("move date: unexpected params %T", params)
	}
	a, err := tx.Assignment(ctx, p.AssignmentID)
	if err != nil {
		return err
	}
	a.Date = p.NewDate
	return tx.UpdateAssignment(ctx, a)
}

func applySplit(ctx context.Context, tx domain.Store, params resolution.Params) error {
	p, ok := params.(resolution.SplitParams)
	if !ok {
		return fmt.Errorf("split: unexpected params %T", params)
	}
	if p.MaxHoursPerDay <= 0 {
		return fmt.Errorf("split: max hours per day must be positive")
	}
	a, err := tx.Assignment(ctx, p.AssignmentID)
	if err != nil {
		return err
	}
	remaining := a.HoursAllocated - p.MaxHoursPerDay
	if remaining <= 0 {
		return nil
	}

	a.HoursAllocated = p.MaxHoursPerDay
	if err := tx.UpdateAssignment(ctx, a); err != nil {
		return err
	}

	date := a.Date
	for remaining > 0 {
		date = nextBusinessDay(date)
		chunk := remaining
		if chunk > p.MaxHoursPerDay {
			chunk = p.MaxHoursPerDay
		}
		next := &schedule.Assignment{
			ID:             uuid.NewString(),
			PhaseID:        a.PhaseID,
			EmployeeID:     a.EmployeeID,
			Date:           date,
			HoursAllocated: chunk,
			Role:           a.Role,
		}
		if err := tx.CreateAssignment(ctx, next); err != nil {
			return err
		}
		remaining -= chunk
	}
	return nil
}

func applyIncreaseCrew(ctx context.Context, tx domain.Store, params resolution.Params) error {
	p, ok := params.(resolution.IncreaseCrewParams)
	if !ok {
		return fmt.Errorf("increase crew: unexpected params %T", params)
	}
	phase, err := tx.Phase(ctx, p.PhaseID)
	if err != nil {
		return err
	}
	crew := phase.Crew
	crew.Journeymen += p.AddJourneymen
	crew.Apprentices += p.AddApprentices
	return tx.UpdatePhaseCrew(ctx, p.PhaseID, crew)
}

func applyReduceHours(ctx context.Context, tx domain.Store, params resolution.Params) error {
	p, ok := params.(resolution.ReduceHoursParams)
	if !ok {
		return fmt.Errorf("reduce hours: unexpected params %T", params)
	}
	if p.NewHours <= 0 {
		return fmt.Errorf("reduce hours: new hours must be positive")
	}
	a, err := tx.Assignment(ctx, p.AssignmentID)
	if err != nil {
		return err
	}
	a.HoursAllocated = p.NewHours
	return tx.UpdateAssignment(ctx, a)
}

func applyDesignateLead(ctx context.Context, tx domain.Store, params resolution.Params) error {
	p, ok := params.(resolution.DesignateLeadParams)
	if !ok {
		return fmt.Errorf("designate lead: unexpected params %T", params)
	}
	assignments, err := tx.AssignmentsByPhase(ctx, p.PhaseID)
	if err != nil {
		return err
	}
	kept := false
	for i := range assignments {
		a := assignments[i]
		if !schedule.SameDay(a.Date, p.Date) {
			continue
		}
		if a.ID == p.KeepAssignmentID {
			kept = true
			if !a.IsLead {
				a.IsLead = true
				if err := tx.UpdateAssignment(ctx, &a); err != nil {
					return err
				}
			}
			continue
		}
		if a.IsLead {
			a.IsLead = false
			if err := tx.UpdateAssignment(ctx, &a); err != nil {
				return err
			}
		}
	}
	if !kept {
		return fmt.Errorf("designate lead: %w", schedule.ErrAssignmentNotFound)
	}
	return nil
}

func applyShiftPhase(ctx context.Context, tx domain.Store, params resolution.Params) error {
	p, ok := params.(resolution.ShiftPhaseParams)
	if !ok {
		return fmt.Errorf("shift phase: unexpected params %T", params)
	}
	phase, err := tx.Phase(ctx, p.PhaseID)
	if err != nil {
		return err
	}
	if phase.Status != schedule.StatusNotStarted {
		return fmt.Errorf("shift phase: %s has already started", phase.ID)
	}
	newStart := phase.StartDate.AddDate(0, 0, p.Days)
	newEnd := phase.EndDate.AddDate(0, 0, p.Days)
	if err := tx.UpdatePhaseDates(ctx, p.PhaseID, newStart, newEnd); err != nil {
		return err
	}

	// Cascade the shift onto dependents within the same transaction.
	siblings, err := tx.PhasesByProject(ctx, phase.ProjectID)
	if err != nil {
		return err
	}
	for i := range siblings {
		if siblings[i].ID == phase.ID {
			siblings[i].StartDate = newStart
			siblings[i].EndDate = newEnd
		}
	}
	for _, adj := range schedule.AdjustDependentDates(siblings, phase.ID, newEnd) {
		if err := tx.UpdatePhaseDates(ctx, adj.PhaseID, adj.NewStart, adj.NewEnd); err != nil {
			return err
		}
	}
	return nil
}

func nextBusinessDay(d time.Time) time.Time {
	d = d.AddDate(0, 0, 1)
	for {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			return d
		}
		d = d.AddDate(0, 0, 1)
	}
}
