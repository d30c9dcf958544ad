package domain

import (
	"sync"

	"github.com/google/uuid"
)

// TransitionState is the lifecycle of a single stage move. The revert path is
// a first-class transition, not an error-handling side effect.
type TransitionState string

const (
	TransitionIdle      TransitionState = "idle"
	TransitionPending   TransitionState = "pending"
	TransitionCommitted TransitionState = "committed"
	TransitionReverting TransitionState = "reverting"
)

// Transition tracks one applicant's in-flight stage move: the optimistic
// stage shown before the store confirms, and the prior stage to restore on
// failure.
type Transition struct {
	ApplicantID uuid.UUID
	State       TransitionState
	PriorStage  Stage
	TargetStage Stage
}

// TransitionTracker serializes stage moves per applicant. At most one
// transition may be pending for an applicant at a time; a second request is
// rejected, not queued, since the membership update is a last-write-wins
// pointer swap and queuing would only replay stale intent.
type TransitionTracker struct {
	mu     sync.Mutex
	active map[uuid.UUID]*Transition
}

// NewTransitionTracker creates an empty tracker.
func NewTransitionTracker() *TransitionTracker {
	return &TransitionTracker{active: make(map[uuid.UUID]*Transition)}
}

// Begin starts a transition for the applicant, recording the optimistic
// target and the prior stage for rollback. Returns false if a transition is
// already pending for this applicant.
func (t *TransitionTracker) Begin(applicantID uuid.UUID, prior, target Stage) (*Transition, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.active[applicantID]; ok && existing.State == TransitionPending {
		return nil, false
	}

	tr := &Transition{
		ApplicantID: applicantID,
		State:       TransitionPending,
		PriorStage:  prior,
		TargetStage: target,
	}
	t.active[applicantID] = tr
	return tr, true
}

// Commit finishes a pending transition successfully and releases the slot.
func (t *TransitionTracker) Commit(applicantID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tr, ok := t.active[applicantID]; ok && tr.State == TransitionPending {
		tr.State = TransitionCommitted
	}
	delete(t.active, applicantID)
}

// Revert rolls a pending transition back to the prior stage and releases the
// slot. Returns the stage the caller must restore in any optimistic view.
func (t *TransitionTracker) Revert(applicantID uuid.UUID) Stage {
	t.mu.Lock()
	defer t.mu.Unlock()

	tr, ok := t.active[applicantID]
	if !ok {
		return StageApplied
	}
	tr.State = TransitionReverting
	delete(t.active, applicantID)
	return tr.PriorStage
}

// Pending reports whether a transition is currently in flight for the applicant.
func (t *TransitionTracker) Pending(applicantID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	tr, ok := t.active[applicantID]
	return ok && tr.State == TransitionPending
}
