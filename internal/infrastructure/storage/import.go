package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/felixgeelhaar/crewsched/internal/domain"
	"github.com/felixgeelhaar/crewsched/internal/domain/conflict"
	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
)

// fixtureSchema validates import documents before anything touches the
// database. Dates are ISO 8601 (YYYY-MM-DD).
const fixtureSchema = `{
	"type": "object",
	"properties": {
		"projects": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "name", "startDate", "endDate"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"name": {"type": "string", "minLength": 1},
					"startDate": {"type": "string", "format": "date"},
					"endDate": {"type": "string", "format": "date"},
					"active": {"type": "boolean"}
				}
			}
		},
		"phases": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "projectId", "name", "division", "startDate", "endDate"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"projectId": {"type": "string", "minLength": 1},
					"name": {"type": "string", "minLength": 1},
					"division": {"type": "string", "minLength": 1},
					"startDate": {"type": "string", "format": "date"},
					"endDate": {"type": "string", "format": "date"},
					"durationDays": {"type": "integer", "minimum": 0},
					"laborHours": {"type": "number", "minimum": 0},
					"crewRequirement": {
						"type": "object",
						"properties": {
							"foreman": {"type": "boolean"},
							"journeymen": {"type": "integer", "minimum": 0},
							"apprentices": {"type": "integer", "minimum": 0}
						}
					},
					"status": {"type": "string"},
					"dependsOn": {"type": "array", "items": {"type": "string"}},
					"progress": {"type": "number", "minimum": 0, "maximum": 100}
				}
			}
		},
		"employees": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "name", "division", "type"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"name": {"type": "string", "minLength": 1},
					"division": {"type": "string", "minLength": 1},
					"type": {"type": "string", "enum": ["foreman", "journeyman", "apprentice"]},
					"maxHoursPerWeek": {"type": "number", "minimum": 0},
					"availableFrom": {"type": "string", "format": "date"},
					"availableUntil": {"type": "string", "format": "date"},
					"active": {"type": "boolean"}
				}
			}
		},
		"assignments": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "phaseId", "employeeId", "date", "hoursAllocated", "role"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"phaseId": {"type": "string", "minLength": 1},
					"employeeId": {"type": "string", "minLength": 1},
					"date": {"type": "string", "format": "date"},
					"hoursAllocated": {"type": "number", "exclusiveMinimum": 0},
					"actualHoursWorked": {"type": "number", "minimum": 0},
					"role": {"type": "string"},
					"isLead": {"type": "boolean"}
				}
			}
		}
	}
}`

type fixtureDoc struct {
	Projects []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
		Active    *bool  `json:"active"`
	} `json:"projects"`
	Phases []struct {
		ID              string `json:"id"`
		ProjectID       string `json:"projectId"`
		Name            string `json:"name"`
		Division        string `json:"division"`
		StartDate       string `json:"startDate"`
		EndDate         string `json:"endDate"`
		DurationDays    int    `json:"durationDays"`
		LaborHours      float64 `json:"laborHours"`
		CrewRequirement struct {
			Foreman     bool `json:"foreman"`
			Journeymen  int  `json:"journeymen"`
			Apprentices int  `json:"apprentices"`
		} `json:"crewRequirement"`
		Status    string   `json:"status"`
		DependsOn []string `json:"dependsOn"`
		Progress  float64  `json:"progress"`
	} `json:"phases"`
	Employees []struct {
		ID              string   `json:"id"`
		Name            string   `json:"name"`
		Division        string   `json:"division"`
		Type            string   `json:"type"`
		MaxHoursPerWeek *float64 `json:"maxHoursPerWeek"`
		AvailableFrom   string   `json:"availableFrom"`
		AvailableUntil  string   `json:"availableUntil"`
		Active          *bool    `json:"active"`
	} `json:"employees"`
	Assignments []struct {
		ID                string   `json:"id"`
		PhaseID           string   `json:"phaseId"`
		EmployeeID        string   `json:"employeeId"`
		Date              string   `json:"date"`
		HoursAllocated    float64  `json:"hoursAllocated"`
		ActualHoursWorked *float64 `json:"actualHoursWorked"`
		Role              string   `json:"role"`
		IsLead            bool     `json:"isLead"`
	} `json:"assignments"`
}

// ImportFile loads a JSON fixture file into the store.
func (s *SQLiteStore) ImportFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	return s.Import(ctx, data)
}

// Import validates a JSON fixture document against the schema and loads it
// in a single transaction. Either everything lands or nothing does.
func (s *SQLiteStore) Import(ctx context.Context, data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(fixtureSchema),
		gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate fixture: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid fixture: %s", strings.Join(msgs, "; "))
	}

	var doc fixtureDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode fixture: %w", err)
	}

	return s.WithTx(ctx, func(store domain.Store) error {
		tx := store.(*SQLiteStore)

		for _, p := range doc.Projects {
			start, end, err := parseDatePair(p.StartDate, p.EndDate)
			if err != nil {
				return fmt.Errorf("project %s: %w", p.ID, err)
			}
			project := schedule.Project{
				ID:        p.ID,
				Name:      p.Name,
				StartDate: start,
				EndDate:   end,
				Active:    p.Active == nil || *p.Active,
			}
			if err := tx.CreateProject(ctx, &project); err != nil {
				return fmt.Errorf("project %s: %w", p.ID, err)
			}
		}

		for _, p := range doc.Phases {
			division := schedule.Division(p.Division)
			if !division.IsValid() {
				return fmt.Errorf("phase %s: %w: %q", p.ID, schedule.ErrInvalidDivision, p.Division)
			}
			start, end, err := parseDatePair(p.StartDate, p.EndDate)
			if err != nil {
				return fmt.Errorf("phase %s: %w", p.ID, err)
			}
			status := schedule.PhaseStatus(p.Status)
			if p.Status == "" {
				status = schedule.StatusNotStarted
			}
			phase := schedule.Phase{
				ID:           p.ID,
				ProjectID:    p.ProjectID,
				Name:         p.Name,
				Division:     division,
				StartDate:    start,
				EndDate:      end,
				DurationDays: p.DurationDays,
				LaborHours:   p.LaborHours,
				Crew: schedule.CrewRequirement{
					Foreman:     p.CrewRequirement.Foreman,
					Journeymen:  p.CrewRequirement.Journeymen,
					Apprentices: p.CrewRequirement.Apprentices,
				},
				Status:    status,
				DependsOn: p.DependsOn,
				Progress:  p.Progress,
			}
			if phase.DurationDays == 0 {
				phase.DurationDays = schedule.CalendarDays(start, end)
			}
			if err := tx.CreatePhase(ctx, &phase); err != nil {
				return fmt.Errorf("phase %s: %w", p.ID, err)
			}
		}

		for _, e := range doc.Employees {
			division := schedule.Division(e.Division)
			if !division.IsValid() {
				return fmt.Errorf("employee %s: %w: %q", e.ID, schedule.ErrInvalidDivision, e.Division)
			}
			from := time.Time{}
			if e.AvailableFrom != "" {
				from, err = parseDate(e.AvailableFrom)
				if err != nil {
					return fmt.Errorf("employee %s: %w", e.ID, err)
				}
			}
			var until *time.Time
			if e.AvailableUntil != "" {
				t, err := parseDate(e.AvailableUntil)
				if err != nil {
					return fmt.Errorf("employee %s: %w", e.ID, err)
				}
				until = &t
			}
			maxHours := conflict.StandardWeekHours
			if e.MaxHoursPerWeek != nil {
				maxHours = *e.MaxHoursPerWeek
			}
			employee := schedule.Employee{
				ID:              e.ID,
				Name:            e.Name,
				Division:        division,
				Type:            schedule.EmployeeType(e.Type),
				MaxHoursPerWeek: maxHours,
				AvailableFrom:   from,
				AvailableUntil:  until,
				Active:          e.Active == nil || *e.Active,
			}
			if err := tx.CreateEmployee(ctx, &employee); err != nil {
				return fmt.Errorf("employee %s: %w", e.ID, err)
			}
		}

		for _, a := range doc.Assignments {
			date, err := parseDate(a.Date)
			if err != nil {
				return fmt.Errorf("assignment %s: %w", a.ID, err)
			}
			assignment := schedule.Assignment{
				ID:                a.ID,
				PhaseID:           a.PhaseID,
				EmployeeID:        a.EmployeeID,
				Date:              date,
				HoursAllocated:    a.HoursAllocated,
				ActualHoursWorked: a.ActualHoursWorked,
				Role:              schedule.EmployeeType(a.Role),
				IsLead:            a.IsLead,
			}
			if err := tx.CreateAssignment(ctx, &assignment); err != nil {
				return fmt.Errorf("assignment %s: %w", a.ID, err)
			}
		}
		return nil
	})
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func parseDatePair(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := parseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, schedule.ErrInvalidDateRange
	}
	return start, end, nil
}
