package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ocx/edge-coordinator/internal/spacetime"
)

func TestCommandGatePassesWhenNoPolicyObjects(t *testing.T) {
	gate := NewCommandGate()
	result := gate.Filter(NewMotionCommand(1))
	assert.True(t, result.IsPassed())
}

func TestCommandGateStopsAtFirstRejection(t *testing.T) {
	gate := NewCommandGate()
	gate.AddPolicy(TicketRequiredPolicy{})
	gate.AddPolicy(VelocityLimitPolicy{MaxVelocity: 1})

	cmd := NewMotionCommand(1).WithVelocity(spacetime.NewVelocity(100, 0, 0))
	result := gate.Filter(cmd)

	assert.Equal(t, GateRejected, result.Outcome)
	assert.Equal(t, uint64(1), gate.Stats().RejectedCount)
}

func TestCommandGateAdjustsOverLimitVelocity(t *testing.T) {
	gate := NewCommandGate()
	gate.AddPolicy(VelocityLimitPolicy{MaxVelocity: 2})

	var ticket [16]byte
	ticket[0] = 1
	cmd := NewMotionCommand(1).WithTicket(ticket).WithVelocity(spacetime.NewVelocity(10, 0, 0))
	result := gate.Filter(cmd)

	assert.Equal(t, GateAdjusted, result.Outcome)
	assert.LessOrEqual(t, result.Adjusted.TargetVelocity.Magnitude(), float32(2))
	assert.Equal(t, uint64(1), gate.Stats().AdjustedCount)
}

func TestCommandGateResetStats(t *testing.T) {
	gate := NewCommandGate()
	gate.AddPolicy(TicketRequiredPolicy{})
	gate.Filter(NewMotionCommand(1))

	gate.ResetStats()
	assert.Equal(t, uint64(0), gate.Stats().RejectedCount)
}

func TestGateResultToVerdict(t *testing.T) {
	assert.Equal(t, VerdictOK, GateResult{Outcome: GatePassed}.ToVerdict())
	assert.Equal(t, VerdictAdjust, GateResult{Outcome: GateAdjusted}.ToVerdict())
	assert.Equal(t, VerdictReject, GateResult{Outcome: GateRejected}.ToVerdict())
}

func TestTicketRequiredPolicyRejectsWithoutTicket(t *testing.T) {
	p := TicketRequiredPolicy{}
	result := p.Check(NewMotionCommand(1))
	assert.Equal(t, PolicyReject, result.Verdict)
}

func TestVelocityLimitPolicyAdjustClampsDirectionPreserving(t *testing.T) {
	p := VelocityLimitPolicy{MaxVelocity: 1}
	cmd := NewMotionCommand(1).WithVelocity(spacetime.NewVelocity(3, 4, 0))

	adjusted, ok := p.Adjust(cmd)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, adjusted.TargetVelocity.Magnitude(), 1e-4)
}
