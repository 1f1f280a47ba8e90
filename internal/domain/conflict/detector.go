package conflict

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/crewsched/internal/domain/capacity"
	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
)

// Scheduling thresholds. Deployment config may override them; these are
// the defaults.
const (
	// MaxDailyHours is the feasible single-day ceiling across all of an
	// employee's assignments; beyond it the day is a double-booking.
	MaxDailyHours = 16.0
	// StandardWeekHours is the overtime boundary for a calendar week.
	StandardWeekHours = 40.0
	// OverCapacityPct is the utilization above which a division window is
	// in conflict.
	OverCapacityPct = 100.0
)

// Thresholds parameterizes the detector. Zero values fall back to the
// package defaults.
type Thresholds struct {
	MaxDailyHours     float64
	StandardWeekHours float64
	OverCapacityPct   float64
}

func (t Thresholds) withDefaults() Thresholds {
	if t.MaxDailyHours <= 0 {
		t.MaxDailyHours = MaxDailyHours
	}
	if t.StandardWeekHours <= 0 {
		t.StandardWeekHours = StandardWeekHours
	}
	if t.OverCapacityPct <= 0 {
		t.OverCapacityPct = OverCapacityPct
	}
	return t
}

// Detector runs the individual conflict checks. It holds no mutable state;
// every check is a pure function of its arguments, usable both for a single
// proposed assignment and for a full sweep.
type Detector struct {
	thresholds Thresholds
	now        func() time.Time
}

// NewDetector creates a detector. A nil clock uses time.Now.
func NewDetector(thresholds Thresholds, now func() time.Time) *Detector {
	if now == nil {
		now = time.Now
	}
	return &Detector{thresholds: thresholds.withDefaults(), now: now}
}

func (d *Detector) newConflict(t Type, severity Severity, message string, detail Detail) Conflict {
	return Conflict{
		ID:         uuid.NewString(),
		Type:       t,
		Severity:   severity,
		Message:    message,
		Detail:     detail,
		DetectedAt: d.now(),
	}
}

// CheckDoubleBooking flags a date where the employee's existing allocations
// plus the proposed hours exceed the daily ceiling. Pass zero proposed hours
// to audit existing assignments alone.
func (d *Detector) CheckDoubleBooking(employee schedule.Employee, date time.Time, existing []schedule.Assignment, proposedHours float64) *Conflict {
	total := proposedHours
	var phaseIDs []string
	for _, a := range existing {
		if a.EmployeeID != employee.ID || !schedule.SameDay(a.Date, date) {
			continue
		}
		total += a.HoursAllocated
		phaseIDs = append(phaseIDs, a.PhaseID)
	}
	if total <= d.thresholds.MaxDailyHours {
		return nil
	}
	c := d.newConflict(TypeDoubleBooking, SeverityCritical,
		fmt.Sprintf("%s has %.1fh allocated on %s (max %.0fh/day)",
			employee.Name, total, date.Format("2006-01-02"), d.thresholds.MaxDailyHours),
		DoubleBookingDetail{
			Date:          date,
			TotalHours:    total,
			MaxDailyHours: d.thresholds.MaxDailyHours,
			PhaseIDs:      phaseIDs,
		})
	c.EmployeeID = employee.ID
	return &c
}

// CheckWeeklyHours flags the calendar week containing date when the summed
// hours exceed the employee's maximum (hours exceeded, medium) or merely
// pass the standard week (overtime, informational).
func (d *Detector) CheckWeeklyHours(employee schedule.Employee, date time.Time, existing []schedule.Assignment, proposedHours float64) *Conflict {
	weekStart := schedule.WeekStart(date)
	weekEnd := weekStart.AddDate(0, 0, 6)

	total := proposedHours
	for _, a := range existing {
		if a.EmployeeID != employee.ID {
			continue
		}
		if a.Date.Before(weekStart) || a.Date.After(weekEnd) {
			continue
		}
		total += a.HoursAllocated
	}

	if total > employee.MaxHoursPerWeek {
		c := d.newConflict(TypeHoursExceeded, SeverityMedium,
			fmt.Sprintf("%s would work %.1fh in week of %s (max %.0fh)",
				employee.Name, total, weekStart.Format("2006-01-02"), employee.MaxHoursPerWeek),
			HoursExceededDetail{
				WeekStart:  weekStart,
				TotalHours: total,
				MaxHours:   employee.MaxHoursPerWeek,
			})
		c.EmployeeID = employee.ID
		return &c
	}
	if total > d.thresholds.StandardWeekHours {
		c := d.newConflict(TypeOvertime, SeverityLow,
			fmt.Sprintf("%s enters overtime in week of %s (%.1fh > %.0fh standard)",
				employee.Name, weekStart.Format("2006-01-02"), total, d.thresholds.StandardWeekHours),
			OvertimeDetail{
				WeekStart:     weekStart,
				TotalHours:    total,
				StandardHours: d.thresholds.StandardWeekHours,
			})
		c.EmployeeID = employee.ID
		return &c
	}
	return nil
}

// CheckDivision flags an assignment crossing trade base categories.
// Segments of the same trade are compatible and never flagged.
func (d *Detector) CheckDivision(employee schedule.Employee, phase schedule.Phase) *Conflict {
	if employee.Division.Compatible(phase.Division) {
		return nil
	}
	c := d.newConflict(TypeDivisionMismatch, SeverityLow,
		fmt.Sprintf("%s is %s crew but phase %s is %s",
			employee.Name, employee.Division.Base(), phase.Name, phase.Division.Base()),
		DivisionMismatchDetail{
			EmployeeDivision: employee.Division,
			PhaseDivision:    phase.Division,
		})
	c.EmployeeID = employee.ID
	c.PhaseID = phase.ID
	return &c
}

// CheckAvailability flags a date outside the employee's availability window.
func (d *Detector) CheckAvailability(employee schedule.Employee, date time.Time) *Conflict {
	if employee.AvailableOn(date) {
		return nil
	}
	c := d.newConflict(TypeUnavailable, SeverityCritical,
		fmt.Sprintf("%s is not available on %s", employee.Name, date.Format("2006-01-02")),
		UnavailableDetail{
			Date:           date,
			AvailableFrom:  employee.AvailableFrom,
			AvailableUntil: employee.AvailableUntil,
		})
	c.EmployeeID = employee.ID
	return &c
}

// CheckRole flags an assignment role differing from the employee's type.
func (d *Detector) CheckRole(employee schedule.Employee, role schedule.EmployeeType) *Conflict {
	if role == employee.Type {
		return nil
	}
	c := d.newConflict(TypeSkillMismatch, SeverityHigh,
		fmt.Sprintf("%s is a %s but the assignment requires a %s", employee.Name, employee.Type, role),
		SkillMismatchDetail{
			RequiredType: role,
			EmployeeType: employee.Type,
		})
	c.EmployeeID = employee.ID
	return &c
}

// CheckMissingForeman flags phase dates with assignments but no lead
// foreman, for phases requiring one. Only dates with at least one
// assignment are considered active.
func (d *Detector) CheckMissingForeman(phase schedule.Phase, assignments []schedule.Assignment, employees map[string]schedule.Employee) []Conflict {
	if !phase.Crew.Foreman {
		return nil
	}

	type dayState struct {
		date    time.Time
		hasLead bool
	}
	days := make(map[string]*dayState)
	for _, a := range assignments {
		if a.PhaseID != phase.ID {
			continue
		}
		key := a.Date.Format("2006-01-02")
		state, ok := days[key]
		if !ok {
			state = &dayState{date: a.Date}
			days[key] = state
		}
		if !a.IsLead {
			continue
		}
		if e, ok := employees[a.EmployeeID]; ok && e.Type == schedule.TypeForeman {
			state.hasLead = true
		}
	}

	var conflicts []Conflict
	for _, state := range days {
		if state.hasLead {
			continue
		}
		c := d.newConflict(TypeMissingForeman, SeverityHigh,
			fmt.Sprintf("phase %s has no lead foreman on %s", phase.Name, state.date.Format("2006-01-02")),
			MissingForemanDetail{Date: state.date})
		c.PhaseID = phase.ID
		c.ProjectID = phase.ProjectID
		conflicts = append(conflicts, c)
	}
	return conflicts
}

// CheckCrewSize flags a phase staffed with fewer distinct employees than
// its crew requirement.
func (d *Detector) CheckCrewSize(phase schedule.Phase, assignments []schedule.Assignment) *Conflict {
	required := phase.Crew.Size()
	if required == 0 {
		return nil
	}
	distinct := make(map[string]struct{})
	for _, a := range assignments {
		if a.PhaseID == phase.ID {
			distinct[a.EmployeeID] = struct{}{}
		}
	}
	if len(distinct) >= required {
		return nil
	}
	c := d.newConflict(TypeInsufficientCrew, SeverityMedium,
		fmt.Sprintf("phase %s has %d of %d required crew assigned", phase.Name, len(distinct), required),
		InsufficientCrewDetail{
			RequiredCrew: required,
			AssignedCrew: len(distinct),
		})
	c.PhaseID = phase.ID
	c.ProjectID = phase.ProjectID
	return &c
}

// CheckMultipleLeads flags phase dates with more than one lead assignment.
func (d *Detector) CheckMultipleLeads(phase schedule.Phase, assignments []schedule.Assignment) []Conflict {
	leadsByDay := make(map[string][]schedule.Assignment)
	for _, a := range assignments {
		if a.PhaseID != phase.ID || !a.IsLead {
			continue
		}
		key := a.Date.Format("2006-01-02")
		leadsByDay[key] = append(leadsByDay[key], a)
	}

	var conflicts []Conflict
	for _, leads := range leadsByDay {
		if len(leads) < 2 {
			continue
		}
		ids := make([]string, len(leads))
		for i, a := range leads {
			ids[i] = a.ID
		}
		c := d.newConflict(TypeMultipleLeads, SeverityMedium,
			fmt.Sprintf("phase %s has %d leads designated on %s",
				phase.Name, len(leads), leads[0].Date.Format("2006-01-02")),
			MultipleLeadsDetail{
				Date:              leads[0].Date,
				LeadAssignmentIDs: ids,
			})
		c.PhaseID = phase.ID
		c.ProjectID = phase.ProjectID
		conflicts = append(conflicts, c)
	}
	return conflicts
}

// CheckOverCapacity flags a division window scheduled beyond available hours.
func (d *Detector) CheckOverCapacity(window capacity.DivisionCapacity) *Conflict {
	if window.UtilizationPct <= d.thresholds.OverCapacityPct {
		return nil
	}
	c := d.newConflict(TypeOverCapacity, SeverityHigh,
		fmt.Sprintf("division %s is at %.0f%% utilization (%.0fh short) between %s and %s",
			window.Division, window.UtilizationPct, window.Deficit,
			window.PeriodStart.Format("2006-01-02"), window.PeriodEnd.Format("2006-01-02")),
		OverCapacityDetail{
			Division:       window.Division,
			PeriodStart:    window.PeriodStart,
			PeriodEnd:      window.PeriodEnd,
			UtilizationPct: window.UtilizationPct,
			DeficitHours:   window.Deficit,
		})
	return &c
}

// CheckOverlappingPhases flags a phase that overlaps a dependency which has
// to finish before the phase can start.
func (d *Detector) CheckOverlappingPhases(phase schedule.Phase, byID map[string]schedule.Phase) []Conflict {
	var conflicts []Conflict
	for _, depID := range phase.DependsOn {
		dep, ok := byID[depID]
		if !ok {
			continue
		}
		if dep.EndDate.Before(phase.StartDate) {
			continue
		}
		c := d.newConflict(TypeOverlappingPhases, SeverityMedium,
			fmt.Sprintf("phase %s starts before its dependency %s finishes", phase.Name, dep.Name),
			OverlappingPhasesDetail{DependencyPhaseID: dep.ID})
		c.PhaseID = phase.ID
		c.ProjectID = phase.ProjectID
		conflicts = append(conflicts, c)
	}
	return conflicts
}

// ValidationResult is the outcome of validating one proposed assignment.
// Warnings are informational (low severity) and never block.
type ValidationResult struct {
	IsValid   bool       `json:"is_valid"`
	Conflicts []Conflict `json:"conflicts"`
	Warnings  []Conflict `json:"warnings"`
}

func (r *ValidationResult) add(c *Conflict) {
	if c == nil {
		return
	}
	if c.Severity == SeverityLow {
		r.Warnings = append(r.Warnings, *c)
		return
	}
	r.Conflicts = append(r.Conflicts, *c)
	if c.Severity.Blocking() {
		r.IsValid = false
	}
}

// ValidateAssignment runs the applicable per-assignment checks for one
// proposed change. existing must hold the employee's assignments around the
// proposed date (at least the containing week). A non-nil capacity window
// enables the utilization check.
func (d *Detector) ValidateAssignment(phase schedule.Phase, employee schedule.Employee, date time.Time, hours float64, role schedule.EmployeeType, existing []schedule.Assignment, window *capacity.DivisionCapacity) ValidationResult {
	result := ValidationResult{IsValid: true}

	result.add(d.CheckAvailability(employee, date))
	result.add(d.CheckDoubleBooking(employee, date, existing, hours))
	result.add(d.CheckWeeklyHours(employee, date, existing, hours))
	result.add(d.CheckDivision(employee, phase))
	result.add(d.CheckRole(employee, role))
	if window != nil {
		result.add(d.CheckOverCapacity(*window))
	}

	for i := range result.Conflicts {
		if result.Conflicts[i].PhaseID == "" {
			result.Conflicts[i].PhaseID = phase.ID
		}
		if result.Conflicts[i].ProjectID == "" {
			result.Conflicts[i].ProjectID = phase.ProjectID
		}
	}
	return result
}
