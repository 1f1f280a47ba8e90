// Package resolution turns detected conflicts into ranked, typed
// resolution suggestions. Suggestions are generated on demand and never
// persisted; applying one mutates the schedule through the store.
package resolution

import (
	"time"
)

// Type is the closed enumeration of suggestion kinds.
type Type string

const (
	TypeReassignEmployee  Type = "reassign_employee"
	TypeAlternateDate     Type = "alternate_date"
	TypeSplitAssignment   Type = "split_assignment"
	TypeHireContractor    Type = "hire_contractor"
	TypeReschedulePhase   Type = "reschedule_phase"
	TypeApproveOvertime   Type = "approve_overtime"
	TypeAssignForeman     Type = "assign_foreman"
	TypePromoteJourneyman Type = "promote_journeyman"
	TypeDelayPhase        Type = "delay_phase"
	TypeIncreaseCrew      Type = "increase_crew"
	TypeAdjustRequirement Type = "adjust_requirement"
	TypeReduceHours       Type = "reduce_hours"
	TypeDesignateLead     Type = "designate_lead"
	TypeAdjustTimeline    Type = "adjust_timeline"
)

// Impact grades how disruptive applying a suggestion is.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

func (i Impact) weight() int {
	switch i {
	case ImpactLow:
		return 0
	case ImpactMedium:
		return 1
	case ImpactHigh:
		return 2
	}
	return 3
}

// ActionKind is the closed set of mutations applyResolution can dispatch.
type ActionKind string

const (
	ActionReassign      ActionKind = "reassign"
	ActionMoveDate      ActionKind = "move_date"
	ActionSplit         ActionKind = "split"
	ActionIncreaseCrew  ActionKind = "increase_crew"
	ActionReduceHours   ActionKind = "reduce_hours"
	ActionDesignateLead ActionKind = "designate_lead"
	ActionShiftPhase    ActionKind = "shift_phase"
)

// Params is the closed union of per-action parameter payloads. Each handler
// in the dispatch table asserts exactly one variant; there are no string
// keyed parameter maps.
type Params interface {
	isActionParams()
}

// ReassignParams moves an assignment to a different employee.
type ReassignParams struct {
	AssignmentID  string `json:"assignment_id"`
	NewEmployeeID string `json:"new_employee_id"`
}

// MoveDateParams moves an assignment to a different date.
type MoveDateParams struct {
	AssignmentID string    `json:"assignment_id"`
	NewDate      time.Time `json:"new_date"`
}

// SplitParams splits an oversized assignment across consecutive days.
type SplitParams struct {
	AssignmentID   string  `json:"assignment_id"`
	MaxHoursPerDay float64 `json:"max_hours_per_day"`
}

// IncreaseCrewParams raises a phase's crew requirement.
type IncreaseCrewParams struct {
	PhaseID        string `json:"phase_id"`
	AddJourneymen  int    `json:"add_journeymen"`
	AddApprentices int    `json:"add_apprentices"`
}

// ReduceHoursParams lowers an assignment's allocated hours.
type ReduceHoursParams struct {
	AssignmentID string  `json:"assignment_id"`
	NewHours     float64 `json:"new_hours"`
}

// DesignateLeadParams keeps a single lead on a phase date, clearing the rest.
type DesignateLeadParams struct {
	PhaseID          string    `json:"phase_id"`
	Date             time.Time `json:"date"`
	KeepAssignmentID string    `json:"keep_assignment_id"`
}

// ShiftPhaseParams moves a phase's date range by whole days.
type ShiftPhaseParams struct {
	PhaseID string `json:"phase_id"`
	Days    int    `json:"days"`
}

func (ReassignParams) isActionParams()      {}
func (MoveDateParams) isActionParams()      {}
func (SplitParams) isActionParams()         {}
func (IncreaseCrewParams) isActionParams()  {}
func (ReduceHoursParams) isActionParams()   {}
func (DesignateLeadParams) isActionParams() {}
func (ShiftPhaseParams) isActionParams()    {}

// Implementation describes how a suggestion is carried out.
type Implementation struct {
	Action        ActionKind `json:"action"`
	Params        Params     `json:"params"`
	Prerequisites []string   `json:"prerequisites,omitempty"`
	SideEffects   []string   `json:"side_effects,omitempty"`
}

// Suggestion is one ranked way to resolve a conflict. Confidence is a fixed
// heuristic priority weight in 0..100, not a statistical estimate.
type Suggestion struct {
	Type           Type            `json:"type"`
	ConflictID     string          `json:"conflict_id"`
	Description    string          `json:"description"`
	Impact         Impact          `json:"impact"`
	Confidence     int             `json:"confidence"`
	AutoApplicable bool            `json:"auto_applicable"`
	EstimatedCost  *float64        `json:"estimated_cost,omitempty"`
	Implementation *Implementation `json:"implementation,omitempty"`
}
