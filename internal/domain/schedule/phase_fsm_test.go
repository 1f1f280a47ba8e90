package schedule_test

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
)

func TestPhaseStateMachine(t *testing.T) {
	fsm, err := schedule.NewPhaseStateMachine(schedule.StatusNotStarted, "ph-1", nil)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if fsm.Current() != schedule.StatusNotStarted {
		t.Errorf("expected not_started, got %s", fsm.Current())
	}

	if err := fsm.Transition(schedule.EventStart); err != nil {
		t.Errorf("start failed: %v", err)
	}
	if fsm.Current() != schedule.StatusInProgress {
		t.Errorf("expected in_progress, got %s", fsm.Current())
	}

	if err := fsm.Transition(schedule.EventComplete); err != nil {
		t.Errorf("complete failed: %v", err)
	}
	if fsm.Current() != schedule.StatusCompleted {
		t.Errorf("expected completed, got %s", fsm.Current())
	}

	// Completed only accepts reopen.
	if err := fsm.Transition(schedule.EventStart); !errors.Is(err, schedule.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if err := fsm.Transition(schedule.EventReopen); err != nil {
		t.Errorf("reopen failed: %v", err)
	}
	if fsm.Current() != schedule.StatusInProgress {
		t.Errorf("expected in_progress after reopen, got %s", fsm.Current())
	}
}

func TestPhaseStateMachine_BlockUnblock(t *testing.T) {
	fsm, err := schedule.NewPhaseStateMachine(schedule.StatusInProgress, "ph-1", nil)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if err := fsm.Transition(schedule.EventBlock); err != nil {
		t.Fatalf("block failed: %v", err)
	}
	if fsm.Current() != schedule.StatusBlocked {
		t.Errorf("expected blocked, got %s", fsm.Current())
	}

	// Blocked phases re-enter at not_started, not in_progress.
	if err := fsm.Transition(schedule.EventUnblock); err != nil {
		t.Fatalf("unblock failed: %v", err)
	}
	if fsm.Current() != schedule.StatusNotStarted {
		t.Errorf("expected not_started after unblock, got %s", fsm.Current())
	}
}

func TestPhaseStateMachine_DependencyGuard(t *testing.T) {
	var guardedPhase, guardedEvent string
	veto := func(phaseID, event string) bool {
		guardedPhase, guardedEvent = phaseID, event
		return false
	}

	fsm, err := schedule.NewPhaseStateMachine(schedule.StatusNotStarted, "ph-2", veto)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if err := fsm.Transition(schedule.EventStart); !errors.Is(err, schedule.ErrInvalidTransition) {
		t.Errorf("expected guard to veto start, got %v", err)
	}
	if fsm.Current() != schedule.StatusNotStarted {
		t.Errorf("state changed despite failing guard: %s", fsm.Current())
	}
	if guardedPhase != "ph-2" || guardedEvent != schedule.EventStart {
		t.Errorf("guard saw (%s, %s), want (ph-2, start)", guardedPhase, guardedEvent)
	}

	// Delay is unguarded and still allowed.
	if err := fsm.Transition(schedule.EventDelay); err != nil {
		t.Errorf("delay failed: %v", err)
	}
}
