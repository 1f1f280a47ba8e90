package application_test

import (
	"context"
	"time"

	"github.com/felixgeelhaar/crewsched/internal/domain"
	"github.com/felixgeelhaar/crewsched/internal/domain/conflict"
	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
)

// fakeStore is an in-memory domain.Store. Mutations take effect immediately;
// WithTx just counts invocations, since transactional rollback belongs to the
// storage layer's own tests.
type fakeStore struct {
	projects    []schedule.Project
	phases      []schedule.Phase
	employees   []schedule.Employee
	assignments []schedule.Assignment

	txCalls       int
	statusUpdates map[string]schedule.PhaseStatus
	depUpdates    map[string][]string
	dateUpdates   map[string][2]time.Time

	errs map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		statusUpdates: make(map[string]schedule.PhaseStatus),
		depUpdates:    make(map[string][]string),
		dateUpdates:   make(map[string][2]time.Time),
		errs:          make(map[string]error),
	}
}

func (f *fakeStore) failWith(method string, err error) { f.errs[method] = err }

func (f *fakeStore) Project(_ context.Context, id string) (*schedule.Project, error) {
	if err := f.errs["Project"]; err != nil {
		return nil, err
	}
	for i := range f.projects {
		if f.projects[i].ID == id {
			p := f.projects[i]
			return &p, nil
		}
	}
	return nil, schedule.ErrProjectNotFound
}

func (f *fakeStore) ActiveProjects(context.Context) ([]schedule.Project, error) {
	if err := f.errs["ActiveProjects"]; err != nil {
		return nil, err
	}
	var out []schedule.Project
	for _, p := range f.projects {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) Phase(_ context.Context, id string) (*schedule.Phase, error) {
	if err := f.errs["Phase"]; err != nil {
		return nil, err
	}
	for i := range f.phases {
		if f.phases[i].ID == id {
			p := f.phases[i]
			return &p, nil
		}
	}
	return nil, schedule.ErrPhaseNotFound
}

func (f *fakeStore) PhasesByProject(_ context.Context, projectID string) ([]schedule.Phase, error) {
	if err := f.errs["PhasesByProject"]; err != nil {
		return nil, err
	}
	var out []schedule.Phase
	for _, p := range f.phases {
		if p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) ActivePhases(context.Context) ([]schedule.Phase, error) {
	if err := f.errs["ActivePhases"]; err != nil {
		return nil, err
	}
	active := make(map[string]bool, len(f.projects))
	for _, p := range f.projects {
		active[p.ID] = p.Active
	}
	var out []schedule.Phase
	for _, p := range f.phases {
		if active[p.ProjectID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdatePhaseDates(_ context.Context, id string, start, end time.Time) error {
	for i := range f.phases {
		if f.phases[i].ID == id {
			f.phases[i].StartDate, f.phases[i].EndDate = start, end
			f.dateUpdates[id] = [2]time.Time{start, end}
			return nil
		}
	}
	return schedule.ErrPhaseNotFound
}

func (f *fakeStore) UpdatePhaseStatus(_ context.Context, id string, status schedule.PhaseStatus) error {
	for i := range f.phases {
		if f.phases[i].ID == id {
			f.phases[i].Status = status
			f.statusUpdates[id] = status
			return nil
		}
	}
	return schedule.ErrPhaseNotFound
}

func (f *fakeStore) UpdatePhaseCrew(_ context.Context, id string, crew schedule.CrewRequirement) error {
	for i := range f.phases {
		if f.phases[i].ID == id {
			f.phases[i].Crew = crew
			return nil
		}
	}
	return schedule.ErrPhaseNotFound
}

func (f *fakeStore) UpdatePhaseDependencies(_ context.Context, id string, dependsOn []string) error {
	for i := range f.phases {
		if f.phases[i].ID == id {
			f.phases[i].DependsOn = dependsOn
			f.depUpdates[id] = dependsOn
			return nil
		}
	}
	return schedule.ErrPhaseNotFound
}

func (f *fakeStore) Employee(_ context.Context, id string) (*schedule.Employee, error) {
	if err := f.errs["Employee"]; err != nil {
		return nil, err
	}
	for i := range f.employees {
		if f.employees[i].ID == id {
			e := f.employees[i]
			return &e, nil
		}
	}
	return nil, schedule.ErrEmployeeNotFound
}

func (f *fakeStore) ActiveEmployees(_ context.Context, filter domain.EmployeeFilter) ([]schedule.Employee, error) {
	if err := f.errs["ActiveEmployees"]; err != nil {
		return nil, err
	}
	var out []schedule.Employee
	for _, e := range f.employees {
		if !e.Active {
			continue
		}
		if filter.Division != "" && e.Division != filter.Division {
			continue
		}
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) Assignment(_ context.Context, id string) (*schedule.Assignment, error) {
	if err := f.errs["Assignment"]; err != nil {
		return nil, err
	}
	for i := range f.assignments {
		if f.assignments[i].ID == id {
			a := f.assignments[i]
			return &a, nil
		}
	}
	return nil, schedule.ErrAssignmentNotFound
}

func (f *fakeStore) AssignmentsByEmployee(_ context.Context, employeeID string, from, to time.Time) ([]schedule.Assignment, error) {
	if err := f.errs["AssignmentsByEmployee"]; err != nil {
		return nil, err
	}
	var out []schedule.Assignment
	for _, a := range f.assignments {
		if a.EmployeeID == employeeID && !a.Date.Before(from) && !a.Date.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) AssignmentsByPhase(_ context.Context, phaseID string) ([]schedule.Assignment, error) {
	if err := f.errs["AssignmentsByPhase"]; err != nil {
		return nil, err
	}
	var out []schedule.Assignment
	for _, a := range f.assignments {
		if a.PhaseID == phaseID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) AssignmentsInRange(_ context.Context, from, to time.Time) ([]schedule.Assignment, error) {
	if err := f.errs["AssignmentsInRange"]; err != nil {
		return nil, err
	}
	var out []schedule.Assignment
	for _, a := range f.assignments {
		if !a.Date.Before(from) && !a.Date.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateAssignment(_ context.Context, a *schedule.Assignment) error {
	if err := f.errs["CreateAssignment"]; err != nil {
		return err
	}
	f.assignments = append(f.assignments, *a)
	return nil
}

func (f *fakeStore) UpdateAssignment(_ context.Context, a *schedule.Assignment) error {
	if err := f.errs["UpdateAssignment"]; err != nil {
		return err
	}
	for i := range f.assignments {
		if f.assignments[i].ID == a.ID {
			f.assignments[i] = *a
			return nil
		}
	}
	return schedule.ErrAssignmentNotFound
}

func (f *fakeStore) DeleteAssignment(_ context.Context, id string) error {
	for i := range f.assignments {
		if f.assignments[i].ID == id {
			f.assignments = append(f.assignments[:i], f.assignments[i+1:]...)
			return nil
		}
	}
	return schedule.ErrAssignmentNotFound
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(domain.Store) error) error {
	f.txCalls++
	return fn(f)
}

// recordingSink captures Notify calls.
type recordingSink struct {
	calls [][]conflict.Conflict
}

func (s *recordingSink) Notify(_ context.Context, conflicts []conflict.Conflict) {
	s.calls = append(s.calls, conflicts)
}

func day(yyyy int, mm time.Month, dd int) time.Time {
	return time.Date(yyyy, mm, dd, 0, 0, 0, 0, time.UTC)
}
