// Package schedule holds the core scheduling entities: projects, phases,
// employees, and assignments, plus the phase dependency graph.
package schedule

import "time"

// PhaseStatus represents the valid states for a phase.
type PhaseStatus string

const (
	StatusNotStarted PhaseStatus = "not_started"
	StatusInProgress PhaseStatus = "in_progress"
	StatusCompleted  PhaseStatus = "completed"
	StatusDelayed    PhaseStatus = "delayed"
	StatusBlocked    PhaseStatus = "blocked"
)

// Terminal reports whether a phase in this status is excluded from
// scheduling sweeps.
func (s PhaseStatus) Terminal() bool {
	return s == StatusCompleted
}

// EmployeeType is the trade classification of an employee.
type EmployeeType string

const (
	TypeForeman    EmployeeType = "foreman"
	TypeJourneyman EmployeeType = "journeyman"
	TypeApprentice EmployeeType = "apprentice"
)

// IsValid checks if the employee type is a recognized value.
func (t EmployeeType) IsValid() bool {
	switch t {
	case TypeForeman, TypeJourneyman, TypeApprentice:
		return true
	}
	return false
}

// HoursPerDay is the standard shift length used for labor estimates.
const HoursPerDay = 8.0

// CrewRequirement describes the crew a phase needs on site.
type CrewRequirement struct {
	Foreman     bool `json:"foreman"`
	Journeymen  int  `json:"journeymen"`
	Apprentices int  `json:"apprentices"`
}

// Size returns the total headcount the requirement implies.
func (c CrewRequirement) Size() int {
	n := c.Journeymen + c.Apprentices
	if c.Foreman {
		n++
	}
	return n
}

// Project is a customer project owning a set of phases.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Active    bool      `json:"active"`
}

// Phase is a work package within a project. Dependencies are ID edges into
// the same project's phase set; the set is kept acyclic by validation at
// create/update time.
type Phase struct {
	ID           string          `json:"id"`
	ProjectID    string          `json:"project_id"`
	Name         string          `json:"name"`
	Division     Division        `json:"division"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
	DurationDays int             `json:"duration_days"` // business days
	LaborHours   float64         `json:"labor_hours"`
	Crew         CrewRequirement `json:"crew"`
	Status       PhaseStatus     `json:"status"`
	DependsOn    []string        `json:"depends_on"`
	Progress     float64         `json:"progress"` // 0..100
}

// EstimatedLaborHours returns the standard estimate for a phase:
// crew size x business days x hours per day.
func (p Phase) EstimatedLaborHours() float64 {
	return float64(p.Crew.Size()) * float64(p.DurationDays) * HoursPerDay
}

// Overlaps reports whether the phase date range intersects [start, end].
func (p Phase) Overlaps(start, end time.Time) bool {
	return !p.StartDate.After(end) && !p.EndDate.Before(start)
}

// Employee is a field worker with a weekly capacity and an availability
// window. A nil AvailableUntil means the window is open-ended.
type Employee struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Division        Division     `json:"division"`
	Type            EmployeeType `json:"type"`
	MaxHoursPerWeek float64      `json:"max_hours_per_week"`
	AvailableFrom   time.Time    `json:"available_from"`
	AvailableUntil  *time.Time   `json:"available_until,omitempty"`
	Active          bool         `json:"active"`
}

// AvailableOn reports whether the employee's availability window covers
// the given date.
func (e Employee) AvailableOn(date time.Time) bool {
	if date.Before(e.AvailableFrom) {
		return false
	}
	if e.AvailableUntil != nil && date.After(*e.AvailableUntil) {
		return false
	}
	return true
}

// AvailableDuring reports whether the availability window intersects
// [start, end].
func (e Employee) AvailableDuring(start, end time.Time) bool {
	if e.AvailableFrom.After(end) {
		return false
	}
	if e.AvailableUntil != nil && e.AvailableUntil.Before(start) {
		return false
	}
	return true
}

// Assignment links an employee to a phase on a specific date.
// At most one assignment per (phase, date) may carry IsLead.
type Assignment struct {
	ID                string       `json:"id"`
	PhaseID           string       `json:"phase_id"`
	EmployeeID        string       `json:"employee_id"`
	Date              time.Time    `json:"date"`
	HoursAllocated    float64      `json:"hours_allocated"`
	ActualHoursWorked *float64     `json:"actual_hours_worked,omitempty"`
	Role              EmployeeType `json:"role"`
	IsLead            bool         `json:"is_lead"`
}

// SameDay reports whether two dates fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekStart returns the Monday beginning the calendar week containing date.
func WeekStart(date time.Time) time.Time {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDate(0, 0, -offset)
}

// BusinessDays counts weekdays in the inclusive range [start, end].
func BusinessDays(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}

// CalendarDays counts days in the inclusive range [start, end].
func CalendarDays(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}
