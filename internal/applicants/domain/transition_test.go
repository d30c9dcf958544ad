package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestTransitionTrackerBeginCommit(t *testing.T) {
	tracker := NewTransitionTracker()
	id := uuid.New()

	tr, ok := tracker.Begin(id, StageApplied, StageQualified)
	if !ok {
		t.Fatal("Begin should succeed on idle applicant")
	}
	if tr.State != TransitionPending {
		t.Errorf("state = %q, want pending", tr.State)
	}
	if !tracker.Pending(id) {
		t.Error("Pending should report true while in flight")
	}

	tracker.Commit(id)
	if tracker.Pending(id) {
		t.Error("Pending should report false after commit")
	}

	// Slot is released, a new transition may begin.
	if _, ok := tracker.Begin(id, StageQualified, StageNotQualified); !ok {
		t.Error("Begin should succeed after commit")
	}
}

func TestTransitionTrackerIgnoresConcurrentMove(t *testing.T) {
	tracker := NewTransitionTracker()
	id := uuid.New()

	if _, ok := tracker.Begin(id, StageApplied, StageQualified); !ok {
		t.Fatal("first Begin should succeed")
	}
	if _, ok := tracker.Begin(id, StageApplied, StageNotQualified); ok {
		t.Error("second Begin for the same applicant should be rejected while pending")
	}

	// A different applicant is unaffected.
	if _, ok := tracker.Begin(uuid.New(), StageApplied, StageQualified); !ok {
		t.Error("Begin for another applicant should succeed")
	}
}

func TestTransitionTrackerRevertRestoresPriorStage(t *testing.T) {
	tracker := NewTransitionTracker()
	id := uuid.New()

	tracker.Begin(id, StageQualified, StageNotQualified)
	prior := tracker.Revert(id)
	if prior != StageQualified {
		t.Errorf("Revert returned %q, want prior stage %q", prior, StageQualified)
	}
	if tracker.Pending(id) {
		t.Error("Pending should report false after revert")
	}
}
