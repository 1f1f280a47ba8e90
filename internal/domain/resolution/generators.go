package resolution

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/felixgeelhaar/crewsched/internal/domain/conflict"
	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
)

// Billing defaults used to price contractor and overtime suggestions.
// Deployment config may override them.
const (
	ContractorHourlyRate = 95.0
	BaseHourlyRate       = 58.0
	OvertimeMultiplier   = 1.5
	// MaxBoundedOvertimeHours caps how much overtime a single suggestion
	// will propose approving.
	MaxBoundedOvertimeHours = 10.0
)

// Rates prices cost-bearing suggestions. Zero values fall back to the
// package defaults.
type Rates struct {
	ContractorHourly   float64
	BaseHourly         float64
	OvertimeMultiplier float64
}

func (r Rates) withDefaults() Rates {
	if r.ContractorHourly <= 0 {
		r.ContractorHourly = ContractorHourlyRate
	}
	if r.BaseHourly <= 0 {
		r.BaseHourly = BaseHourlyRate
	}
	if r.OvertimeMultiplier <= 0 {
		r.OvertimeMultiplier = OvertimeMultiplier
	}
	return r
}

// Candidate is an employee considered as a replacement or addition,
// annotated with load statistics over the relevant window.
type Candidate struct {
	Employee       schedule.Employee
	AvailableHours float64 // spare capacity in the window
	AssignedDays   int     // days with at least one assignment in the window
	WindowDays     int
}

// availabilityRatio ranks foremen by free days in the window.
func (c Candidate) availabilityRatio() float64 {
	if c.WindowDays == 0 {
		return 0
	}
	return float64(c.WindowDays-c.AssignedDays) / float64(c.WindowDays)
}

// Context is the already-fetched data a generator runs over. Fields are
// populated by the caller as far as the conflict type needs them; absent
// data simply suppresses the suggestions that would have used it.
type Context struct {
	Conflict            conflict.Conflict
	Phase               *schedule.Phase
	Employee            *schedule.Employee
	Assignment          *schedule.Assignment
	Candidates          []Candidate
	PhaseAssignments    []schedule.Assignment
	EmployeeAssignments []schedule.Assignment
	DivisionPhases      []schedule.Phase
	Rates               Rates
	Now                 time.Time
}

// Generate dispatches on the conflict type to its suggestion generator and
// returns the results ranked. Unknown conflict types yield no suggestions.
func Generate(ctx Context) []Suggestion {
	ctx.Rates = ctx.Rates.withDefaults()

	var suggestions []Suggestion
	switch ctx.Conflict.Type {
	case conflict.TypeDoubleBooking:
		suggestions = forDoubleBooking(ctx)
	case conflict.TypeOverCapacity:
		suggestions = forOverCapacity(ctx)
	case conflict.TypeMissingForeman:
		suggestions = forMissingForeman(ctx)
	case conflict.TypeInsufficientCrew:
		suggestions = forInsufficientCrew(ctx)
	case conflict.TypeHoursExceeded:
		suggestions = forHoursExceeded(ctx)
	case conflict.TypeDivisionMismatch, conflict.TypeUnavailable, conflict.TypeSkillMismatch:
		suggestions = forReplacement(ctx)
	case conflict.TypeMultipleLeads:
		suggestions = forMultipleLeads(ctx)
	case conflict.TypeOverlappingPhases:
		suggestions = forOverlappingPhases(ctx)
	case conflict.TypeOvertime:
		// Informational; nothing to resolve.
	}

	for i := range suggestions {
		suggestions[i].ConflictID = ctx.Conflict.ID
	}
	return Rank(suggestions)
}

// bestCandidate returns the candidate with the most spare hours matching
// the division base and type, excluding the given employee.
func bestCandidate(candidates []Candidate, division schedule.Division, empType schedule.EmployeeType, excludeID string) *Candidate {
	var best *Candidate
	for i := range candidates {
		c := &candidates[i]
		if c.Employee.ID == excludeID || !c.Employee.Active {
			continue
		}
		if empType != "" && c.Employee.Type != empType {
			continue
		}
		if division != "" && !c.Employee.Division.Compatible(division) {
			continue
		}
		if best == nil || c.AvailableHours > best.AvailableHours {
			best = c
		}
	}
	return best
}

func forDoubleBooking(ctx Context) []Suggestion {
	var out []Suggestion
	detail, _ := ctx.Conflict.Detail.(conflict.DoubleBookingDetail)

	if ctx.Assignment != nil && ctx.Employee != nil {
		if alt := bestCandidate(ctx.Candidates, ctx.Employee.Division, ctx.Employee.Type, ctx.Employee.ID); alt != nil {
			out = append(out, Suggestion{
				Type:           TypeReassignEmployee,
				Description:    fmt.Sprintf("Reassign to %s (%.0fh spare in window)", alt.Employee.Name, alt.AvailableHours),
				Impact:         ImpactLow,
				Confidence:     85,
				AutoApplicable: true,
				Implementation: &Implementation{
					Action: ActionReassign,
					Params: ReassignParams{
						AssignmentID:  ctx.Assignment.ID,
						NewEmployeeID: alt.Employee.ID,
					},
					SideEffects: []string{"assignment moves to a different employee"},
				},
			})
		}

		if ctx.Phase != nil {
			if date, ok := firstFreeDay(*ctx.Phase, *ctx.Employee, ctx.EmployeeAssignments, ctx.Assignment.HoursAllocated); ok {
				out = append(out, Suggestion{
					Type:           TypeAlternateDate,
					Description:    fmt.Sprintf("Move assignment to %s, the first conflict-free day in the phase range", date.Format("2006-01-02")),
					Impact:         ImpactLow,
					Confidence:     75,
					AutoApplicable: true,
					Implementation: &Implementation{
						Action: ActionMoveDate,
						Params: MoveDateParams{
							AssignmentID: ctx.Assignment.ID,
							NewDate:      date,
						},
					},
				})
			}
		}

		if detail.TotalHours > schedule.HoursPerDay {
			days := int(math.Ceil(detail.TotalHours / schedule.HoursPerDay))
			out = append(out, Suggestion{
				Type:           TypeSplitAssignment,
				Description:    fmt.Sprintf("Split %.1fh across %d days of at most %.0fh", detail.TotalHours, days, schedule.HoursPerDay),
				Impact:         ImpactMedium,
				Confidence:     60,
				AutoApplicable: true,
				Implementation: &Implementation{
					Action: ActionSplit,
					Params: SplitParams{
						AssignmentID:   ctx.Assignment.ID,
						MaxHoursPerDay: schedule.HoursPerDay,
					},
					SideEffects: []string{"creates additional assignments on following days"},
				},
			})
		}
	}
	return out
}

func forOverCapacity(ctx Context) []Suggestion {
	var out []Suggestion
	detail, ok := ctx.Conflict.Detail.(conflict.OverCapacityDetail)
	if !ok {
		return nil
	}

	contractorCost := detail.DeficitHours * ctx.Rates.ContractorHourly
	out = append(out, Suggestion{
		Type:          TypeHireContractor,
		Description:   fmt.Sprintf("Hire contractor labor to cover the %.0fh deficit in %s", detail.DeficitHours, detail.Division),
		Impact:        ImpactMedium,
		Confidence:    70,
		EstimatedCost: &contractorCost,
	})

	if phase := lowestProgressUnstarted(ctx.DivisionPhases); phase != nil {
		out = append(out, Suggestion{
			Type:           TypeReschedulePhase,
			Description:    fmt.Sprintf("Push phase %s out 7 days to relieve the window", phase.Name),
			Impact:         ImpactMedium,
			Confidence:     65,
			AutoApplicable: false,
			Implementation: &Implementation{
				Action:        ActionShiftPhase,
				Params:        ShiftPhaseParams{PhaseID: phase.ID, Days: 7},
				Prerequisites: []string{"phase has not started"},
				SideEffects:   []string{"dependent phases may shift as well"},
			},
		})
	}

	overtimeHours := math.Min(detail.DeficitHours, MaxBoundedOvertimeHours)
	overtimeCost := overtimeHours * ctx.Rates.BaseHourly * ctx.Rates.OvertimeMultiplier
	out = append(out, Suggestion{
		Type:          TypeApproveOvertime,
		Description:   fmt.Sprintf("Approve up to %.0fh of overtime across the division", overtimeHours),
		Impact:        ImpactLow,
		Confidence:    55,
		EstimatedCost: &overtimeCost,
	})
	return out
}

func forMissingForeman(ctx Context) []Suggestion {
	var out []Suggestion

	foremen := make([]Candidate, 0, len(ctx.Candidates))
	for _, c := range ctx.Candidates {
		if c.Employee.Active && c.Employee.Type == schedule.TypeForeman {
			foremen = append(foremen, c)
		}
	}
	sort.SliceStable(foremen, func(i, j int) bool {
		return foremen[i].availabilityRatio() > foremen[j].availabilityRatio()
	})

	if len(foremen) > 0 && ctx.Phase != nil {
		best := foremen[0]
		out = append(out, Suggestion{
			Type:        TypeAssignForeman,
			Description: fmt.Sprintf("Assign foreman %s (%.0f%% of the window free)", best.Employee.Name, best.availabilityRatio()*100),
			Impact:      ImpactLow,
			Confidence:  80,
		})
	}

	if best := bestCandidate(ctx.Candidates, divisionOf(ctx.Phase), schedule.TypeJourneyman, ""); best != nil {
		out = append(out, Suggestion{
			Type:        TypePromoteJourneyman,
			Description: fmt.Sprintf("Promote journeyman %s to acting lead for this phase", best.Employee.Name),
			Impact:      ImpactMedium,
			Confidence:  50,
		})
	}

	if ctx.Phase != nil {
		out = append(out, Suggestion{
			Type:        TypeDelayPhase,
			Description: fmt.Sprintf("Delay the start of %s until a foreman frees up", ctx.Phase.Name),
			Impact:      ImpactHigh,
			Confidence:  30,
			Implementation: &Implementation{
				Action:      ActionShiftPhase,
				Params:      ShiftPhaseParams{PhaseID: ctx.Phase.ID, Days: 7},
				SideEffects: []string{"dependent phases may shift as well"},
			},
		})
	}
	return out
}

func forInsufficientCrew(ctx Context) []Suggestion {
	detail, ok := ctx.Conflict.Detail.(conflict.InsufficientCrewDetail)
	if !ok || ctx.Phase == nil {
		return nil
	}
	shortfall := detail.RequiredCrew - detail.AssignedCrew
	if shortfall <= 0 {
		return nil
	}

	return []Suggestion{
		{
			Type:           TypeIncreaseCrew,
			Description:    fmt.Sprintf("Staff %d more crew on %s", shortfall, ctx.Phase.Name),
			Impact:         ImpactLow,
			Confidence:     75,
			AutoApplicable: true,
			Implementation: &Implementation{
				Action: ActionIncreaseCrew,
				Params: IncreaseCrewParams{
					PhaseID:       ctx.Phase.ID,
					AddJourneymen: shortfall,
				},
			},
		},
		{
			Type:        TypeAdjustRequirement,
			Description: fmt.Sprintf("Review whether %s really needs %d crew", ctx.Phase.Name, detail.RequiredCrew),
			Impact:      ImpactMedium,
			Confidence:  40,
		},
	}
}

func forHoursExceeded(ctx Context) []Suggestion {
	var out []Suggestion
	detail, ok := ctx.Conflict.Detail.(conflict.HoursExceededDetail)
	if !ok {
		return nil
	}
	excess := detail.TotalHours - detail.MaxHours

	if ctx.Assignment != nil {
		newHours := ctx.Assignment.HoursAllocated - excess
		if newHours > 0 {
			out = append(out, Suggestion{
				Type:           TypeReduceHours,
				Description:    fmt.Sprintf("Reduce the assignment to %.1fh to stay within the weekly max", newHours),
				Impact:         ImpactLow,
				Confidence:     70,
				AutoApplicable: true,
				Implementation: &Implementation{
					Action: ActionReduceHours,
					Params: ReduceHoursParams{
						AssignmentID: ctx.Assignment.ID,
						NewHours:     newHours,
					},
				},
			})
		}

		if ctx.Employee != nil {
			if alt := bestCandidate(ctx.Candidates, ctx.Employee.Division, ctx.Employee.Type, ctx.Employee.ID); alt != nil && alt.AvailableHours >= ctx.Assignment.HoursAllocated {
				out = append(out, Suggestion{
					Type:           TypeReassignEmployee,
					Description:    fmt.Sprintf("Swap to %s, who has %.0fh spare this week", alt.Employee.Name, alt.AvailableHours),
					Impact:         ImpactLow,
					Confidence:     65,
					AutoApplicable: true,
					Implementation: &Implementation{
						Action: ActionReassign,
						Params: ReassignParams{
							AssignmentID:  ctx.Assignment.ID,
							NewEmployeeID: alt.Employee.ID,
						},
					},
				})
			}
		}
	}

	overtimeHours := math.Min(excess, MaxBoundedOvertimeHours)
	overtimeCost := overtimeHours * ctx.Rates.BaseHourly * ctx.Rates.OvertimeMultiplier
	out = append(out, Suggestion{
		Type:          TypeApproveOvertime,
		Description:   fmt.Sprintf("Approve %.1fh of overtime for the week of %s", overtimeHours, detail.WeekStart.Format("2006-01-02")),
		Impact:        ImpactMedium,
		Confidence:    45,
		EstimatedCost: &overtimeCost,
	})
	return out
}

func forReplacement(ctx Context) []Suggestion {
	if ctx.Assignment == nil || ctx.Phase == nil {
		return nil
	}
	alt := bestCandidate(ctx.Candidates, ctx.Phase.Division, ctx.Assignment.Role, excludeID(ctx.Employee))
	if alt == nil {
		return nil
	}
	return []Suggestion{{
		Type:           TypeReassignEmployee,
		Description:    fmt.Sprintf("Replace with %s (%s, %s division)", alt.Employee.Name, alt.Employee.Type, alt.Employee.Division.Base()),
		Impact:         ImpactLow,
		Confidence:     80,
		AutoApplicable: true,
		Implementation: &Implementation{
			Action: ActionReassign,
			Params: ReassignParams{
				AssignmentID:  ctx.Assignment.ID,
				NewEmployeeID: alt.Employee.ID,
			},
		},
	}}
}

func forMultipleLeads(ctx Context) []Suggestion {
	detail, ok := ctx.Conflict.Detail.(conflict.MultipleLeadsDetail)
	if !ok || ctx.Phase == nil || len(detail.LeadAssignmentIDs) == 0 {
		return nil
	}
	// Keep the first lead by stable order; clear the rest.
	keep := detail.LeadAssignmentIDs[0]
	return []Suggestion{{
		Type:           TypeDesignateLead,
		Description:    fmt.Sprintf("Keep a single lead on %s for %s", ctx.Phase.Name, detail.Date.Format("2006-01-02")),
		Impact:         ImpactLow,
		Confidence:     90,
		AutoApplicable: true,
		Implementation: &Implementation{
			Action: ActionDesignateLead,
			Params: DesignateLeadParams{
				PhaseID:          ctx.Phase.ID,
				Date:             detail.Date,
				KeepAssignmentID: keep,
			},
		},
	}}
}

func forOverlappingPhases(ctx Context) []Suggestion {
	if ctx.Phase == nil {
		return nil
	}
	return []Suggestion{{
		Type:        TypeAdjustTimeline,
		Description: fmt.Sprintf("Manually adjust the timeline of %s and its dependencies", ctx.Phase.Name),
		Impact:      ImpactHigh,
		Confidence:  50,
	}}
}

// firstFreeDay scans the phase date range for the first day where the
// employee is available and the added hours would not double-book them.
func firstFreeDay(phase schedule.Phase, employee schedule.Employee, existing []schedule.Assignment, hours float64) (time.Time, bool) {
	for d := phase.StartDate; !d.After(phase.EndDate); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if !employee.AvailableOn(d) {
			continue
		}
		total := hours
		for _, a := range existing {
			if a.EmployeeID == employee.ID && schedule.SameDay(a.Date, d) {
				total += a.HoursAllocated
			}
		}
		if total <= MaxDailyFreeHours {
			return d, true
		}
	}
	return time.Time{}, false
}

// MaxDailyFreeHours mirrors the detector's double-booking ceiling when
// searching for a conflict-free day.
const MaxDailyFreeHours = 16.0

// lowestProgressUnstarted picks the not-yet-started phase with the least
// progress, breaking ties by ID for determinism.
func lowestProgressUnstarted(phases []schedule.Phase) *schedule.Phase {
	var pick *schedule.Phase
	for i := range phases {
		p := &phases[i]
		if p.Status != schedule.StatusNotStarted {
			continue
		}
		if pick == nil || p.Progress < pick.Progress ||
			(p.Progress == pick.Progress && p.ID < pick.ID) {
			pick = p
		}
	}
	return pick
}

func divisionOf(p *schedule.Phase) schedule.Division {
	if p == nil {
		return ""
	}
	return p.Division
}

func excludeID(e *schedule.Employee) string {
	if e == nil {
		return ""
	}
	return e.ID
}
