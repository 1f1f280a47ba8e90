package schedule_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
)

func day(yyyy int, mm time.Month, dd int) time.Time {
	return time.Date(yyyy, mm, dd, 0, 0, 0, 0, time.UTC)
}

func TestValidateDependencies(t *testing.T) {
	phases := []schedule.Phase{
		{ID: "A", ProjectID: "p1"},
		{ID: "B", ProjectID: "p1", DependsOn: []string{"A"}},
		{ID: "C", ProjectID: "p1", DependsOn: []string{"B"}},
		{ID: "X", ProjectID: "p2"},
	}

	tests := []struct {
		name     string
		phaseID  string
		proposed []string
		wantErr  error
	}{
		{
			name:     "valid chain extension",
			phaseID:  "A",
			proposed: nil,
			wantErr:  nil,
		},
		{
			name:     "unknown dependency",
			phaseID:  "C",
			proposed: []string{"missing"},
			wantErr:  schedule.ErrPhaseNotFound,
		},
		{
			name:     "cross project dependency",
			phaseID:  "C",
			proposed: []string{"X"},
			wantErr:  schedule.ErrCrossProjectDependency,
		},
		{
			name:     "self dependency",
			phaseID:  "B",
			proposed: []string{"B"},
			wantErr:  schedule.ErrCircularDependency,
		},
		{
			name:     "would close a cycle",
			phaseID:  "A",
			proposed: []string{"C"},
			wantErr:  schedule.ErrCircularDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schedule.ValidateDependencies(phases, "p1", tt.phaseID, tt.proposed)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDependencies() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDependencies() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDetectCycle(t *testing.T) {
	tests := []struct {
		name     string
		phases   []schedule.Phase
		phaseID  string
		proposed []string
		want     bool
	}{
		{
			name: "acyclic diamond",
			phases: []schedule.Phase{
				{ID: "A"},
				{ID: "B", DependsOn: []string{"A"}},
				{ID: "C", DependsOn: []string{"A"}},
				{ID: "D", DependsOn: []string{"B", "C"}},
			},
			phaseID:  "D",
			proposed: []string{"B", "C"},
			want:     false,
		},
		{
			name: "three node cycle",
			phases: []schedule.Phase{
				{ID: "A"},
				{ID: "B", DependsOn: []string{"A"}},
				{ID: "C", DependsOn: []string{"B"}},
			},
			phaseID:  "A",
			proposed: []string{"C"},
			want:     true,
		},
		{
			name: "dangling edge is not a cycle",
			phases: []schedule.Phase{
				{ID: "A", DependsOn: []string{"gone"}},
				{ID: "B"},
			},
			phaseID:  "B",
			proposed: []string{"A"},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := schedule.DetectCycle(tt.phases, tt.phaseID, tt.proposed)
			if got != tt.want {
				t.Errorf("DetectCycle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopologicalSort(t *testing.T) {
	phases := []schedule.Phase{
		{ID: "D", DependsOn: []string{"B", "C"}},
		{ID: "B", DependsOn: []string{"A"}},
		{ID: "C", DependsOn: []string{"A"}},
		{ID: "A"},
	}

	ordered, err := schedule.TopologicalSort(phases)
	if err != nil {
		t.Fatalf("TopologicalSort() error = %v", err)
	}

	pos := make(map[string]int, len(ordered))
	for i, p := range ordered {
		pos[p.ID] = i
	}
	for _, p := range phases {
		for _, depID := range p.DependsOn {
			if pos[depID] > pos[p.ID] {
				t.Errorf("dependency %s sorted after %s", depID, p.ID)
			}
		}
	}

	// Deterministic tie-break by ID: B before C.
	if pos["B"] > pos["C"] {
		t.Errorf("expected B before C, got order %v", pos)
	}
}

func TestTopologicalSort_Cycle(t *testing.T) {
	phases := []schedule.Phase{
		{ID: "A", DependsOn: []string{"B"}},
		{ID: "B", DependsOn: []string{"A"}},
	}
	if _, err := schedule.TopologicalSort(phases); !errors.Is(err, schedule.ErrCircularDependency) {
		t.Errorf("TopologicalSort() error = %v, want ErrCircularDependency", err)
	}
}

func TestCriticalPath(t *testing.T) {
	// A(5) -> B(3) -> D(2) is the long chain; C(1) has slack.
	phases := []schedule.Phase{
		{ID: "A", DurationDays: 5},
		{ID: "B", DurationDays: 3, DependsOn: []string{"A"}},
		{ID: "C", DurationDays: 1, DependsOn: []string{"A"}},
		{ID: "D", DurationDays: 2, DependsOn: []string{"B", "C"}},
	}

	nodes, err := schedule.CriticalPath(phases)
	if err != nil {
		t.Fatalf("CriticalPath() error = %v", err)
	}

	byID := make(map[string]schedule.PathNode, len(nodes))
	for _, n := range nodes {
		byID[n.Phase.ID] = n
	}

	for _, id := range []string{"A", "B", "D"} {
		n := byID[id]
		if !n.OnCriticalPath {
			t.Errorf("phase %s should be on the critical path (slack %.3f)", id, n.Slack)
		}
		if math.Abs(n.Slack) > 0.001 {
			t.Errorf("phase %s slack = %.3f, want 0", id, n.Slack)
		}
	}

	c := byID["C"]
	if c.OnCriticalPath {
		t.Errorf("phase C should have slack")
	}
	if math.Abs(c.Slack-2) > 0.001 {
		t.Errorf("phase C slack = %.3f, want 2", c.Slack)
	}

	d := byID["D"]
	if math.Abs(d.EarliestFinish-10) > 0.001 {
		t.Errorf("project span = %.3f, want 10", d.EarliestFinish)
	}
}

func TestAdjustDependentDates(t *testing.T) {
	phases := []schedule.Phase{
		{ID: "A", StartDate: day(2026, 3, 2), EndDate: day(2026, 3, 6)},
		{ID: "B", StartDate: day(2026, 3, 9), EndDate: day(2026, 3, 13), DependsOn: []string{"A"}},
		{ID: "C", StartDate: day(2026, 3, 15), EndDate: day(2026, 3, 19), DependsOn: []string{"B"}},
	}

	// A slips to the 10th: B must start on the 11th, C cascades.
	adjustments := schedule.AdjustDependentDates(phases, "A", day(2026, 3, 10))
	if len(adjustments) != 2 {
		t.Fatalf("got %d adjustments, want 2", len(adjustments))
	}

	if adjustments[0].PhaseID != "B" || !adjustments[0].NewStart.Equal(day(2026, 3, 11)) {
		t.Errorf("B adjustment = %+v, want start 2026-03-11", adjustments[0])
	}
	if !adjustments[0].NewEnd.Equal(day(2026, 3, 15)) {
		t.Errorf("B new end = %v, want 2026-03-15", adjustments[0].NewEnd)
	}
	if adjustments[1].PhaseID != "C" || !adjustments[1].NewStart.Equal(day(2026, 3, 16)) {
		t.Errorf("C adjustment = %+v, want start 2026-03-16", adjustments[1])
	}
	if !adjustments[1].NewEnd.Equal(day(2026, 3, 20)) {
		t.Errorf("C new end = %v, want 2026-03-20", adjustments[1].NewEnd)
	}
}

func TestAdjustDependentDates_NoSlip(t *testing.T) {
	phases := []schedule.Phase{
		{ID: "A", StartDate: day(2026, 3, 2), EndDate: day(2026, 3, 6)},
		{ID: "B", StartDate: day(2026, 3, 16), EndDate: day(2026, 3, 20), DependsOn: []string{"A"}},
	}
	// B already starts well after A's new end.
	if got := schedule.AdjustDependentDates(phases, "A", day(2026, 3, 10)); len(got) != 0 {
		t.Errorf("got %d adjustments, want 0", len(got))
	}
}
