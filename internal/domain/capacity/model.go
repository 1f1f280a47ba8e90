// Package capacity models available versus required labor hours per
// division over a date window.
package capacity

import (
	"time"

	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
)

// DefaultCriticalThresholdPct flags a window as critical once utilization
// reaches this percentage.
const DefaultCriticalThresholdPct = 90.0

// EmployeeCounts breaks down headcount by type for a capacity window.
type EmployeeCounts struct {
	Foreman    int `json:"foreman"`
	Journeyman int `json:"journeyman"`
	Apprentice int `json:"apprentice"`
	Total      int `json:"total"`
}

// DivisionCapacity is the computed capacity picture for one division over
// one date window. Hours are fractional; weeks are derived from the calendar
// span, never rounded to whole weeks.
type DivisionCapacity struct {
	Division       schedule.Division `json:"division"`
	PeriodStart    time.Time         `json:"period_start"`
	PeriodEnd      time.Time         `json:"period_end"`
	AvailableHours float64           `json:"available_hours"`
	RequiredHours  float64           `json:"required_hours"`
	AssignedHours  float64           `json:"assigned_hours"`
	EmployeeCounts EmployeeCounts    `json:"employee_counts"`
	UtilizationPct float64           `json:"utilization_pct"`
	Deficit        float64           `json:"deficit"`
}

// Critical reports whether the window meets or exceeds the threshold.
func (c DivisionCapacity) Critical(thresholdPct float64) bool {
	return c.UtilizationPct >= thresholdPct
}

// Inputs is the already-fetched data a capacity computation runs over.
// The model is a pure function of this snapshot.
type Inputs struct {
	Employees   []schedule.Employee
	Phases      []schedule.Phase
	Assignments []schedule.Assignment
	Projects    map[string]schedule.Project
}

// Compute builds the capacity picture for a division over [start, end].
//
// Available hours sum maxHoursPerWeek x fractional weeks over active
// employees whose availability window intersects the period. Required hours
// prorate each overlapping phase's labor by day overlap, excluding completed
// and blocked phases. Assigned hours sum allocations dated in the window for
// phases of the division whose project is active.
func Compute(start, end time.Time, division schedule.Division, in Inputs) DivisionCapacity {
	dc := DivisionCapacity{
		Division:    division,
		PeriodStart: start,
		PeriodEnd:   end,
	}
	if end.Before(start) {
		return dc
	}

	weeks := end.Sub(start).Hours() / 24 / 7

	for _, e := range in.Employees {
		if !e.Active || e.Division != division {
			continue
		}
		if !e.AvailableDuring(start, end) {
			continue
		}
		dc.AvailableHours += e.MaxHoursPerWeek * weeks
		switch e.Type {
		case schedule.TypeForeman:
			dc.EmployeeCounts.Foreman++
		case schedule.TypeJourneyman:
			dc.EmployeeCounts.Journeyman++
		case schedule.TypeApprentice:
			dc.EmployeeCounts.Apprentice++
		}
		dc.EmployeeCounts.Total++
	}

	phaseByID := make(map[string]schedule.Phase, len(in.Phases))
	for _, p := range in.Phases {
		phaseByID[p.ID] = p
		if p.Division != division {
			continue
		}
		if p.Status == schedule.StatusCompleted || p.Status == schedule.StatusBlocked {
			continue
		}
		if !p.Overlaps(start, end) {
			continue
		}
		total := schedule.CalendarDays(p.StartDate, p.EndDate)
		if total == 0 {
			continue
		}
		overlap := overlapDays(p.StartDate, p.EndDate, start, end)
		dc.RequiredHours += p.LaborHours * float64(overlap) / float64(total)
	}

	for _, a := range in.Assignments {
		if a.Date.Before(start) || a.Date.After(end) {
			continue
		}
		phase, ok := phaseByID[a.PhaseID]
		if !ok || phase.Division != division {
			continue
		}
		if project, ok := in.Projects[phase.ProjectID]; ok && !project.Active {
			continue
		}
		dc.AssignedHours += a.HoursAllocated
	}

	if dc.AvailableHours > 0 {
		dc.UtilizationPct = dc.RequiredHours / dc.AvailableHours * 100
	}
	if deficit := dc.RequiredHours - dc.AvailableHours; deficit > 0 {
		dc.Deficit = deficit
	}
	return dc
}

// Forecast computes one capacity window per calendar month between start
// and end. The first and last windows are clamped to the requested range.
func Forecast(start, end time.Time, division schedule.Division, in Inputs) []DivisionCapacity {
	var series []DivisionCapacity
	for cursor := start; !cursor.After(end); {
		monthEnd := endOfMonth(cursor)
		if monthEnd.After(end) {
			monthEnd = end
		}
		series = append(series, Compute(cursor, monthEnd, division, in))
		cursor = monthEnd.AddDate(0, 0, 1)
	}
	return series
}

// CriticalPeriods returns the forecast windows at or above the utilization
// threshold. A zero threshold falls back to the default band.
func CriticalPeriods(start, end time.Time, division schedule.Division, thresholdPct float64, in Inputs) []DivisionCapacity {
	if thresholdPct <= 0 {
		thresholdPct = DefaultCriticalThresholdPct
	}
	var critical []DivisionCapacity
	for _, window := range Forecast(start, end, division, in) {
		if window.Critical(thresholdPct) {
			critical = append(critical, window)
		}
	}
	return critical
}

func overlapDays(aStart, aEnd, bStart, bEnd time.Time) int {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	return schedule.CalendarDays(start, end)
}

func endOfMonth(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}
