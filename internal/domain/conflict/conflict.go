// Package conflict detects scheduling conflicts over assignments, phases,
// and division capacity. Conflicts are results of a computation, never the
// system of record.
package conflict

import (
	"time"

	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
)

// Type tags the conflict variant.
type Type string

const (
	TypeDoubleBooking     Type = "double_booking"
	TypeHoursExceeded     Type = "hours_exceeded"
	TypeDivisionMismatch  Type = "division_mismatch"
	TypeUnavailable       Type = "unavailable"
	TypeOvertime          Type = "overtime"
	TypeMissingForeman    Type = "missing_foreman"
	TypeInsufficientCrew  Type = "insufficient_crew"
	TypeMultipleLeads     Type = "multiple_leads"
	TypeOverCapacity      Type = "over_capacity"
	TypeSkillMismatch     Type = "skill_mismatch"
	TypeOverlappingPhases Type = "overlapping_phases"
)

// Severity grades how strongly a conflict blocks a schedule change.
// Low conflicts are informational warnings.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Blocking reports whether the severity should reject a proposed change.
func (s Severity) Blocking() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// Conflict is one detected scheduling problem. Detail carries the
// strongly-typed payload for the variant named by Type.
type Conflict struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Severity   Severity  `json:"severity"`
	ProjectID  string    `json:"project_id,omitempty"`
	PhaseID    string    `json:"phase_id,omitempty"`
	EmployeeID string    `json:"employee_id,omitempty"`
	Message    string    `json:"message"`
	Detail     Detail    `json:"detail,omitempty"`
	DetectedAt time.Time `json:"detected_at"`
}

// Detail is the closed union of per-variant conflict payloads.
type Detail interface {
	isConflictDetail()
}

// DoubleBookingDetail reports a day where an employee's combined
// allocations exceed feasible single-day capacity.
type DoubleBookingDetail struct {
	Date          time.Time `json:"date"`
	TotalHours    float64   `json:"total_hours"`
	MaxDailyHours float64   `json:"max_daily_hours"`
	PhaseIDs      []string  `json:"phase_ids,omitempty"`
}

// HoursExceededDetail reports a calendar week over the employee's maximum.
type HoursExceededDetail struct {
	WeekStart  time.Time `json:"week_start"`
	TotalHours float64   `json:"total_hours"`
	MaxHours   float64   `json:"max_hours"`
}

// OvertimeDetail reports a week above standard hours but within the
// employee's maximum.
type OvertimeDetail struct {
	WeekStart     time.Time `json:"week_start"`
	TotalHours    float64   `json:"total_hours"`
	StandardHours float64   `json:"standard_hours"`
}

// DivisionMismatchDetail reports an assignment across trade base categories.
type DivisionMismatchDetail struct {
	EmployeeDivision schedule.Division `json:"employee_division"`
	PhaseDivision    schedule.Division `json:"phase_division"`
}

// UnavailableDetail reports a date outside the employee's availability window.
type UnavailableDetail struct {
	Date           time.Time  `json:"date"`
	AvailableFrom  time.Time  `json:"available_from"`
	AvailableUntil *time.Time `json:"available_until,omitempty"`
}

// MissingForemanDetail reports a phase date with no designated lead foreman.
type MissingForemanDetail struct {
	Date time.Time `json:"date"`
}

// InsufficientCrewDetail reports a phase staffed below its requirement.
type InsufficientCrewDetail struct {
	RequiredCrew int `json:"required_crew"`
	AssignedCrew int `json:"assigned_crew"`
}

// MultipleLeadsDetail reports a phase date with more than one lead.
type MultipleLeadsDetail struct {
	Date              time.Time `json:"date"`
	LeadAssignmentIDs []string  `json:"lead_assignment_ids"`
}

// OverCapacityDetail reports a division window scheduled beyond capacity.
type OverCapacityDetail struct {
	Division       schedule.Division `json:"division"`
	PeriodStart    time.Time         `json:"period_start"`
	PeriodEnd      time.Time         `json:"period_end"`
	UtilizationPct float64           `json:"utilization_pct"`
	DeficitHours   float64           `json:"deficit_hours"`
}

// SkillMismatchDetail reports an assignment role differing from the
// employee's type.
type SkillMismatchDetail struct {
	RequiredType schedule.EmployeeType `json:"required_type"`
	EmployeeType schedule.EmployeeType `json:"employee_type"`
}

// OverlappingPhasesDetail reports a phase overlapping a dependency that
// must finish first.
type OverlappingPhasesDetail struct {
	DependencyPhaseID string `json:"dependency_phase_id"`
}

func (DoubleBookingDetail) isConflictDetail()     {}
func (HoursExceededDetail) isConflictDetail()     {}
func (OvertimeDetail) isConflictDetail()          {}
func (DivisionMismatchDetail) isConflictDetail()  {}
func (UnavailableDetail) isConflictDetail()       {}
func (MissingForemanDetail) isConflictDetail()    {}
func (InsufficientCrewDetail) isConflictDetail()  {}
func (MultipleLeadsDetail) isConflictDetail()     {}
func (OverCapacityDetail) isConflictDetail()      {}
func (SkillMismatchDetail) isConflictDetail()     {}
func (OverlappingPhasesDetail) isConflictDetail() {}
