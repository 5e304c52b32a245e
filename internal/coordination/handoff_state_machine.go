package coordination

import (
	"sync"

	"github.com/ocx/edge-coordinator/internal/codes"
)

// validHandoffTransitions mirrors internal/federation's map-based valid-
// transition table idiom, specialized to the cross-zone handoff protocol.
var validHandoffTransitions = map[HandoffState][]HandoffState{
	HandoffIdle:                     {HandoffPredictiveAllocRequested, HandoffCancelled},
	HandoffPredictiveAllocRequested: {HandoffPredictiveAllocGranted, HandoffFailed, HandoffCancelled},
	HandoffPredictiveAllocGranted:   {HandoffRequestSent, HandoffCancelled},
	HandoffRequestSent:              {HandoffAwaitingApproval, HandoffFailed, HandoffCancelled},
	HandoffAwaitingApproval:         {HandoffTransferringState, HandoffFailed, HandoffCancelled},
	HandoffTransferringState:        {HandoffCompleted, HandoffFailed},
}

// HandoffStateTransition is one recorded state change.
type HandoffStateTransition struct {
	From        HandoffState
	To          HandoffState
	TimestampNs uint64
}

// HandoffStateMachine drives one robot's cross-zone handoff through its
// protocol states, grounded on internal/federation/state_machine.go's
// HandshakeStateMachine (mutex-guarded current state, history, timeout).
type HandoffStateMachine struct {
	mu             sync.Mutex
	handoffID      uint64
	currentState   HandoffState
	history        []HandoffStateTransition
	startedAtNs    uint64
	lastUpdateNs   uint64
	stepTimeoutNs  uint64
	lastError      error
}

// NewHandoffStateMachine builds a machine starting in Idle, timing out a
// step after stepTimeoutNs of inactivity.
func NewHandoffStateMachine(handoffID uint64, startedAtNs, stepTimeoutNs uint64) *HandoffStateMachine {
	return &HandoffStateMachine{
		handoffID:     handoffID,
		currentState:  HandoffIdle,
		startedAtNs:   startedAtNs,
		lastUpdateNs:  startedAtNs,
		stepTimeoutNs: stepTimeoutNs,
	}
}

// Transition attempts to move to next, recording history on success and
// rejecting moves not present in validHandoffTransitions.
func (m *HandoffStateMachine) Transition(next HandoffState, timestampNs uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.currentState.IsTerminal() {
		return codes.New(codes.HandoffRejected, "handoff is already in a terminal state")
	}
	if !m.isValidTransition(m.currentState, next) {
		return codes.New(codes.HandoffRejected, "invalid handoff state transition")
	}

	m.history = append(m.history, HandoffStateTransition{From: m.currentState, To: next, TimestampNs: timestampNs})
	m.currentState = next
	m.lastUpdateNs = timestampNs
	return nil
}

func (m *HandoffStateMachine) isValidTransition(from, to HandoffState) bool {
	for _, allowed := range validHandoffTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CheckTimeout transitions the machine to Failed if stepTimeoutNs has
// elapsed since the last update, and reports whether it did so.
func (m *HandoffStateMachine) CheckTimeout(currentTimeNs uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.currentState.IsTerminal() {
		return false
	}
	if m.stepTimeoutNs == 0 {
		return false
	}
	if currentTimeNs-m.lastUpdateNs < m.stepTimeoutNs {
		return false
	}

	m.history = append(m.history, HandoffStateTransition{From: m.currentState, To: HandoffFailed, TimestampNs: currentTimeNs})
	m.currentState = HandoffFailed
	m.lastUpdateNs = currentTimeNs
	m.lastError = codes.New(codes.HandoffRejected, "handoff step timed out")
	return true
}

func (m *HandoffStateMachine) CurrentState() HandoffState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentState
}

func (m *HandoffStateMachine) IsTerminal() bool {
	return m.CurrentState().IsTerminal()
}

func (m *HandoffStateMachine) GetStateHistory() []HandoffStateTransition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]HandoffStateTransition, len(m.history))
	copy(out, m.history)
	return out
}

func (m *HandoffStateMachine) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = err
}

func (m *HandoffStateMachine) GetLastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

func (m *HandoffStateMachine) HandoffID() uint64 { return m.handoffID }
