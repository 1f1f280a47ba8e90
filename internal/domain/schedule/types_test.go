package schedule_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
)

func TestDivision(t *testing.T) {
	tests := []struct {
		division schedule.Division
		base     string
		segment  string
	}{
		{schedule.DivisionPlumbingMultifamily, "plumbing", "multifamily"},
		{schedule.DivisionHVACCommercial, "hvac", "commercial"},
		{schedule.DivisionPlumbingCustom, "plumbing", "custom"},
	}
	for _, tt := range tests {
		if got := tt.division.Base(); got != tt.base {
			t.Errorf("%s.Base() = %q, want %q", tt.division, got, tt.base)
		}
		if got := tt.division.Segment(); got != tt.segment {
			t.Errorf("%s.Segment() = %q, want %q", tt.division, got, tt.segment)
		}
		if !tt.division.IsValid() {
			t.Errorf("%s should be valid", tt.division)
		}
	}

	if schedule.Division("plumbing_underwater").IsValid() {
		t.Error("unknown division should be invalid")
	}
}

func TestDivision_Compatible(t *testing.T) {
	// Same trade, different segment: compatible.
	if !schedule.DivisionPlumbingMultifamily.Compatible(schedule.DivisionPlumbingCommercial) {
		t.Error("plumbing segments should be compatible")
	}
	// Different trades are not.
	if schedule.DivisionPlumbingMultifamily.Compatible(schedule.DivisionHVACMultifamily) {
		t.Error("plumbing and hvac should not be compatible")
	}
}

func TestCrewRequirementSize(t *testing.T) {
	crew := schedule.CrewRequirement{Foreman: true, Journeymen: 2, Apprentices: 1}
	if got := crew.Size(); got != 4 {
		t.Errorf("Size() = %d, want 4", got)
	}
	if got := (schedule.CrewRequirement{}).Size(); got != 0 {
		t.Errorf("empty Size() = %d, want 0", got)
	}
}

func TestEstimatedLaborHours(t *testing.T) {
	p := schedule.Phase{
		DurationDays: 5,
		Crew:         schedule.CrewRequirement{Foreman: true, Journeymen: 2},
	}
	if got := p.EstimatedLaborHours(); got != 120 {
		t.Errorf("EstimatedLaborHours() = %.1f, want 120 (3 crew x 5 days x 8h)", got)
	}
}

func TestEmployeeAvailability(t *testing.T) {
	until := day(2026, 6, 30)
	e := schedule.Employee{
		AvailableFrom:  day(2026, 1, 1),
		AvailableUntil: &until,
	}

	if e.AvailableOn(day(2025, 12, 31)) {
		t.Error("date before window should be unavailable")
	}
	if !e.AvailableOn(day(2026, 6, 30)) {
		t.Error("window end is inclusive")
	}
	if e.AvailableOn(day(2026, 7, 1)) {
		t.Error("date after window should be unavailable")
	}

	if !e.AvailableDuring(day(2026, 6, 1), day(2026, 8, 1)) {
		t.Error("partially overlapping range should count as available")
	}
	if e.AvailableDuring(day(2026, 7, 1), day(2026, 8, 1)) {
		t.Error("range fully after window should not count")
	}

	open := schedule.Employee{AvailableFrom: day(2026, 1, 1)}
	if !open.AvailableOn(day(2030, 1, 1)) {
		t.Error("nil AvailableUntil means open-ended")
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		date time.Time
		want time.Time
	}{
		{day(2026, 3, 11), day(2026, 3, 9)}, // Wednesday -> Monday
		{day(2026, 3, 9), day(2026, 3, 9)},  // Monday stays
		{day(2026, 3, 15), day(2026, 3, 9)}, // Sunday belongs to prior Monday
	}
	for _, tt := range tests {
		if got := schedule.WeekStart(tt.date); !got.Equal(tt.want) {
			t.Errorf("WeekStart(%v) = %v, want %v", tt.date, got, tt.want)
		}
	}
}

func TestDayCounts(t *testing.T) {
	// Mon 2026-03-02 through Fri 2026-03-13 spans two work weeks.
	if got := schedule.BusinessDays(day(2026, 3, 2), day(2026, 3, 13)); got != 10 {
		t.Errorf("BusinessDays() = %d, want 10", got)
	}
	if got := schedule.CalendarDays(day(2026, 3, 2), day(2026, 3, 13)); got != 12 {
		t.Errorf("CalendarDays() = %d, want 12", got)
	}
	if got := schedule.CalendarDays(day(2026, 3, 13), day(2026, 3, 2)); got != 0 {
		t.Errorf("inverted range CalendarDays() = %d, want 0", got)
	}
}
