package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/crewsched/internal/domain"
	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
	"github.com/felixgeelhaar/crewsched/internal/infrastructure/storage"
)

func day(yyyy int, mm time.Month, dd int) time.Time {
	return time.Date(yyyy, mm, dd, 0, 0, 0, 0, time.UTC)
}

func newStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "crewsched.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seed(t *testing.T, store *storage.SQLiteStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.CreateProject(ctx, &schedule.Project{
		ID: "pr-1", Name: "Riverside Apartments",
		StartDate: day(2026, 3, 1), EndDate: day(2026, 6, 30), Active: true,
	}))
	require.NoError(t, store.CreatePhase(ctx, &schedule.Phase{
		ID: "ph-1", ProjectID: "pr-1", Name: "Rough-in",
		Division:  schedule.DivisionPlumbingMultifamily,
		StartDate: day(2026, 3, 9), EndDate: day(2026, 3, 13),
		DurationDays: 5, LaborHours: 120,
		Crew:   schedule.CrewRequirement{Foreman: true, Journeymen: 2},
		Status: schedule.StatusNotStarted,
	}))
	require.NoError(t, store.CreateEmployee(ctx, &schedule.Employee{
		ID: "e1", Name: "Dana Cole",
		Division: schedule.DivisionPlumbingMultifamily, Type: schedule.TypeJourneyman,
		MaxHoursPerWeek: 40, AvailableFrom: day(2020, 1, 1), Active: true,
	}))
}

func TestProjects(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seed(t, store)

	p, err := store.Project(ctx, "pr-1")
	require.NoError(t, err)
	require.Equal(t, "Riverside Apartments", p.Name)
	require.True(t, p.StartDate.Equal(day(2026, 3, 1)))
	require.True(t, p.Active)

	_, err = store.Project(ctx, "nope")
	require.ErrorIs(t, err, schedule.ErrProjectNotFound)

	require.NoError(t, store.CreateProject(ctx, &schedule.Project{
		ID: "pr-2", Name: "Shut down", StartDate: day(2026, 1, 1), EndDate: day(2026, 2, 1),
	}))
	active, err := store.ActiveProjects(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "pr-1", active[0].ID)
}

func TestPhases(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seed(t, store)

	require.NoError(t, store.CreatePhase(ctx, &schedule.Phase{
		ID: "ph-2", ProjectID: "pr-1", Name: "Trim",
		Division:  schedule.DivisionPlumbingMultifamily,
		StartDate: day(2026, 3, 16), EndDate: day(2026, 3, 20),
		Status: schedule.StatusNotStarted, DependsOn: []string{"ph-1"},
	}))

	p, err := store.Phase(ctx, "ph-2")
	require.NoError(t, err)
	require.Equal(t, []string{"ph-1"}, p.DependsOn)
	require.Equal(t, schedule.StatusNotStarted, p.Status)

	one, err := store.Phase(ctx, "ph-1")
	require.NoError(t, err)
	require.True(t, one.Crew.Foreman)
	require.Equal(t, 2, one.Crew.Journeymen)

	byProject, err := store.PhasesByProject(ctx, "pr-1")
	require.NoError(t, err)
	require.Len(t, byProject, 2)

	_, err = store.Phase(ctx, "nope")
	require.ErrorIs(t, err, schedule.ErrPhaseNotFound)
}

func TestPhaseUpdates(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seed(t, store)

	require.NoError(t, store.UpdatePhaseDates(ctx, "ph-1", day(2026, 3, 10), day(2026, 3, 14)))
	require.NoError(t, store.UpdatePhaseStatus(ctx, "ph-1", schedule.StatusInProgress))
	require.NoError(t, store.UpdatePhaseCrew(ctx, "ph-1", schedule.CrewRequirement{Journeymen: 4}))

	p, err := store.Phase(ctx, "ph-1")
	require.NoError(t, err)
	require.True(t, p.StartDate.Equal(day(2026, 3, 10)))
	require.Equal(t, schedule.StatusInProgress, p.Status)
	require.False(t, p.Crew.Foreman)
	require.Equal(t, 4, p.Crew.Journeymen)

	require.ErrorIs(t, store.UpdatePhaseStatus(ctx, "nope", schedule.StatusBlocked), schedule.ErrPhaseNotFound)
	require.ErrorIs(t, store.UpdatePhaseDates(ctx, "nope", day(2026, 3, 1), day(2026, 3, 2)), schedule.ErrPhaseNotFound)
}

func TestPhaseDependencies_Replace(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seed(t, store)
	require.NoError(t, store.CreatePhase(ctx, &schedule.Phase{
		ID: "ph-2", ProjectID: "pr-1", Name: "Trim",
		Division:  schedule.DivisionPlumbingMultifamily,
		StartDate: day(2026, 3, 16), EndDate: day(2026, 3, 20),
		Status: schedule.StatusNotStarted,
	}))

	require.NoError(t, store.UpdatePhaseDependencies(ctx, "ph-2", []string{"ph-1"}))
	p, err := store.Phase(ctx, "ph-2")
	require.NoError(t, err)
	require.Equal(t, []string{"ph-1"}, p.DependsOn)

	// An empty set clears the edges.
	require.NoError(t, store.UpdatePhaseDependencies(ctx, "ph-2", nil))
	p, err = store.Phase(ctx, "ph-2")
	require.NoError(t, err)
	require.Empty(t, p.DependsOn)
}

func TestActivePhases_SkipsInactiveProjects(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seed(t, store)
	require.NoError(t, store.CreateProject(ctx, &schedule.Project{
		ID: "pr-2", Name: "Mothballed",
		StartDate: day(2026, 1, 1), EndDate: day(2026, 2, 1),
	}))
	require.NoError(t, store.CreatePhase(ctx, &schedule.Phase{
		ID: "ph-x", ProjectID: "pr-2", Name: "Dormant",
		Division:  schedule.DivisionHVACCustom,
		StartDate: day(2026, 1, 5), EndDate: day(2026, 1, 9),
		Status: schedule.StatusNotStarted,
	}))

	phases, err := store.ActivePhases(ctx)
	require.NoError(t, err)
	require.Len(t, phases, 1)
	require.Equal(t, "ph-1", phases[0].ID)
}

func TestEmployees(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seed(t, store)

	until := day(2026, 4, 30)
	require.NoError(t, store.CreateEmployee(ctx, &schedule.Employee{
		ID: "e2", Name: "Sam Reyes",
		Division: schedule.DivisionHVACCommercial, Type: schedule.TypeForeman,
		MaxHoursPerWeek: 40, AvailableFrom: day(2026, 1, 1), AvailableUntil: &until,
		Active: true,
	}))
	require.NoError(t, store.CreateEmployee(ctx, &schedule.Employee{
		ID: "e3", Name: "Gone",
		Division: schedule.DivisionHVACCommercial, Type: schedule.TypeJourneyman,
		MaxHoursPerWeek: 40, AvailableFrom: day(2020, 1, 1),
	}))

	e, err := store.Employee(ctx, "e2")
	require.NoError(t, err)
	require.NotNil(t, e.AvailableUntil)
	require.True(t, e.AvailableUntil.Equal(until))

	_, err = store.Employee(ctx, "nope")
	require.ErrorIs(t, err, schedule.ErrEmployeeNotFound)

	all, err := store.ActiveEmployees(ctx, domain.EmployeeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2) // e3 is inactive

	hvac, err := store.ActiveEmployees(ctx, domain.EmployeeFilter{Division: schedule.DivisionHVACCommercial})
	require.NoError(t, err)
	require.Len(t, hvac, 1)
	require.Equal(t, "e2", hvac[0].ID)

	foremen, err := store.ActiveEmployees(ctx, domain.EmployeeFilter{Type: schedule.TypeForeman})
	require.NoError(t, err)
	require.Len(t, foremen, 1)

	// e2's window closes April 30, so a May query excludes them.
	may, err := store.ActiveEmployees(ctx, domain.EmployeeFilter{
		From: day(2026, 5, 1), To: day(2026, 5, 31),
	})
	require.NoError(t, err)
	require.Len(t, may, 1)
	require.Equal(t, "e1", may[0].ID)
}

func TestAssignments(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seed(t, store)

	actual := 7.5
	require.NoError(t, store.CreateAssignment(ctx, &schedule.Assignment{
		ID: "a1", PhaseID: "ph-1", EmployeeID: "e1",
		Date: day(2026, 3, 10), HoursAllocated: 8, ActualHoursWorked: &actual,
		Role: schedule.TypeJourneyman, IsLead: true,
	}))
	require.NoError(t, store.CreateAssignment(ctx, &schedule.Assignment{
		ID: "a2", PhaseID: "ph-1", EmployeeID: "e1",
		Date: day(2026, 3, 12), HoursAllocated: 6, Role: schedule.TypeJourneyman,
	}))

	a, err := store.Assignment(ctx, "a1")
	require.NoError(t, err)
	require.True(t, a.IsLead)
	require.NotNil(t, a.ActualHoursWorked)
	require.Equal(t, 7.5, *a.ActualHoursWorked)

	week, err := store.AssignmentsByEmployee(ctx, "e1", day(2026, 3, 9), day(2026, 3, 15))
	require.NoError(t, err)
	require.Len(t, week, 2)

	narrow, err := store.AssignmentsByEmployee(ctx, "e1", day(2026, 3, 9), day(2026, 3, 11))
	require.NoError(t, err)
	require.Len(t, narrow, 1)
	require.Equal(t, "a1", narrow[0].ID)

	byPhase, err := store.AssignmentsByPhase(ctx, "ph-1")
	require.NoError(t, err)
	require.Len(t, byPhase, 2)

	inRange, err := store.AssignmentsInRange(ctx, day(2026, 3, 11), day(2026, 3, 13))
	require.NoError(t, err)
	require.Len(t, inRange, 1)
	require.Equal(t, "a2", inRange[0].ID)

	a.HoursAllocated = 4
	a.IsLead = false
	require.NoError(t, store.UpdateAssignment(ctx, a))
	got, err := store.Assignment(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, 4.0, got.HoursAllocated)
	require.False(t, got.IsLead)

	require.ErrorIs(t, store.UpdateAssignment(ctx, &schedule.Assignment{ID: "nope"}), schedule.ErrAssignmentNotFound)

	require.NoError(t, store.DeleteAssignment(ctx, "a2"))
	require.ErrorIs(t, store.DeleteAssignment(ctx, "a2"), schedule.ErrAssignmentNotFound)
	_, err = store.Assignment(ctx, "a2")
	require.ErrorIs(t, err, schedule.ErrAssignmentNotFound)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seed(t, store)

	boom := errors.New("abort")
	err := store.WithTx(ctx, func(tx domain.Store) error {
		require.NoError(t, tx.CreateAssignment(ctx, &schedule.Assignment{
			ID: "a1", PhaseID: "ph-1", EmployeeID: "e1",
			Date: day(2026, 3, 10), HoursAllocated: 8, Role: schedule.TypeJourneyman,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Assignment(ctx, "a1")
	require.ErrorIs(t, err, schedule.ErrAssignmentNotFound)
}

func TestWithTx_NestedReusesTransaction(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seed(t, store)

	err := store.WithTx(ctx, func(tx domain.Store) error {
		return tx.WithTx(ctx, func(inner domain.Store) error {
			return inner.CreateAssignment(ctx, &schedule.Assignment{
				ID: "a1", PhaseID: "ph-1", EmployeeID: "e1",
				Date: day(2026, 3, 10), HoursAllocated: 8, Role: schedule.TypeJourneyman,
			})
		})
	})
	require.NoError(t, err)

	a, err := store.Assignment(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, 8.0, a.HoursAllocated)
}
