package schedule

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Phase lifecycle events.
const (
	EventStart    = "start"
	EventComplete = "complete"
	EventDelay    = "delay"
	EventBlock    = "block"
	EventUnblock  = "unblock"
	EventReopen   = "reopen"
)

// PhaseContext carries state data for the phase machine.
type PhaseContext struct {
	PhaseID string
	Guard   func(phaseID string, event string) bool
}

// PhaseStateMachine enforces the legal transitions between phase statuses.
// The guard hook lets callers veto transitions, e.g. refusing to start a
// phase whose dependencies are not completed.
type PhaseStateMachine struct {
	interpreter *statekit.Interpreter[PhaseContext]
}

func NewPhaseStateMachine(initial PhaseStatus, phaseID string, guard func(string, string) bool) (*PhaseStateMachine, error) {
	if guard == nil {
		guard = func(string, string) bool { return true }
	}

	builder := statekit.NewMachine[PhaseContext]("phase-machine").
		WithInitial(statekit.StateID(initial)).
		WithContext(PhaseContext{
			PhaseID: phaseID,
			Guard:   guard,
		}).
		WithGuard("dependencyGuard", func(ctx PhaseContext, e statekit.Event) bool {
			return ctx.Guard(ctx.PhaseID, string(e.Type))
		})

	builder.State(statekit.StateID(StatusNotStarted)).
		On(EventStart).Target(statekit.StateID(StatusInProgress)).Guard("dependencyGuard").
		On(EventDelay).Target(statekit.StateID(StatusDelayed)).
		On(EventBlock).Target(statekit.StateID(StatusBlocked)).
		Done()

	builder.State(statekit.StateID(StatusInProgress)).
		On(EventComplete).Target(statekit.StateID(StatusCompleted)).
		On(EventDelay).Target(statekit.StateID(StatusDelayed)).
		On(EventBlock).Target(statekit.StateID(StatusBlocked)).
		Done()

	builder.State(statekit.StateID(StatusDelayed)).
		On(EventStart).Target(statekit.StateID(StatusInProgress)).Guard("dependencyGuard").
		On(EventBlock).Target(statekit.StateID(StatusBlocked)).
		Done()

	builder.State(statekit.StateID(StatusBlocked)).
		On(EventUnblock).Target(statekit.StateID(StatusNotStarted)).
		Done()

	builder.State(statekit.StateID(StatusCompleted)).
		On(EventReopen).Target(statekit.StateID(StatusInProgress)).Guard("dependencyGuard").
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build phase state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &PhaseStateMachine{interpreter: interpreter}, nil
}

// Transition attempts to move the phase to a new status.
func (sm *PhaseStateMachine) Transition(event string) error {
	before := sm.Current()
	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := sm.Current()

	if before != after {
		return nil
	}
	return fmt.Errorf("%w: '%s' is not allowed while the phase is '%s'", ErrInvalidTransition, event, before)
}

func (sm *PhaseStateMachine) Current() PhaseStatus {
	return PhaseStatus(sm.interpreter.State().Value)
}
