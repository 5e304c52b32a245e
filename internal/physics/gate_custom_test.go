package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomPolicyDefaultsToPassWithNilCheckFn(t *testing.T) {
	p := NewCustomPolicy("noop", nil, nil)

	result := p.Check(NewMotionCommand(1))
	assert.Equal(t, PolicyPass, result.Verdict)

	_, adjusted := p.Adjust(NewMotionCommand(1))
	assert.False(t, adjusted)
}

func TestCustomPolicyDelegatesToProvidedFuncs(t *testing.T) {
	p := NewCustomPolicy("battery-floor", func(cmd MotionCommand) PolicyResult {
		if cmd.RobotID == 99 {
			return PolicyResult{Verdict: PolicyReject, Reason: "robot 99 is quarantined"}
		}
		return PolicyResult{Verdict: PolicyPass}
	}, func(cmd MotionCommand) (MotionCommand, bool) {
		cmd.TargetVelocity.X *= 0.5
		return cmd, true
	})

	assert.Equal(t, "battery-floor", p.Name())

	rejected := p.Check(NewMotionCommand(99))
	assert.Equal(t, PolicyReject, rejected.Verdict)
	assert.Equal(t, "robot 99 is quarantined", rejected.Reason)

	passed := p.Check(NewMotionCommand(1))
	assert.Equal(t, PolicyPass, passed.Verdict)

	cmd := NewMotionCommand(1)
	cmd.TargetVelocity.X = 2.0
	adjusted, ok := p.Adjust(cmd)
	assert.True(t, ok)
	assert.Equal(t, float32(1.0), adjusted.TargetVelocity.X)
}

func TestCommandGateInstallsCustomPolicy(t *testing.T) {
	gate := NewCommandGate()
	gate.AddPolicy(NewCustomPolicy("reject-all", func(MotionCommand) PolicyResult {
		return PolicyResult{Verdict: PolicyReject, Reason: "blocked by policy"}
	}, nil))

	result := gate.Filter(NewMotionCommand(1))
	assert.False(t, result.IsPassed())
}
