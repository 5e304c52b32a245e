package physics

import "fmt"

// VelocityLimitPolicy adjusts (clamps) commands whose target speed exceeds
// a configured limit, rather than rejecting them outright.
type VelocityLimitPolicy struct {
	MaxVelocity float32
}

func (p VelocityLimitPolicy) Name() string { return "VelocityLimitPolicy" }

func (p VelocityLimitPolicy) Check(cmd MotionCommand) PolicyResult {
	speed := cmd.TargetSpeed()
	if speed <= p.MaxVelocity {
		return PolicyResult{Verdict: PolicyPass}
	}
	return PolicyResult{Verdict: PolicyAdjust, Reason: fmt.Sprintf("velocity %.2f exceeds limit %.2f", speed, p.MaxVelocity)}
}

func (p VelocityLimitPolicy) Adjust(cmd MotionCommand) (MotionCommand, bool) {
	cmd.TargetVelocity = cmd.TargetVelocity.Clamp(p.MaxVelocity)
	return cmd, true
}

// TicketRequiredPolicy rejects any command that does not carry a valid
// (non-zero) ticket id; it has no adjustment.
type TicketRequiredPolicy struct{}

func (p TicketRequiredPolicy) Name() string { return "TicketRequiredPolicy" }

func (p TicketRequiredPolicy) Check(cmd MotionCommand) PolicyResult {
	if cmd.HasTicket() {
		return PolicyResult{Verdict: PolicyPass}
	}
	return PolicyResult{Verdict: PolicyReject, Reason: "no valid ticket"}
}

func (p TicketRequiredPolicy) Adjust(cmd MotionCommand) (MotionCommand, bool) {
	return cmd, false
}

// CustomPolicy is the reserved extension-point variant from spec Design
// Notes ("a reserved Custom variant that carries function pointers"),
// grounded on pkg/plugins/registry.go's pluggable-handler pattern: it
// wraps arbitrary check/adjust funcs supplied by the embedding
// application, never crossing goroutine boundaries on its own.
type CustomPolicy struct {
	PolicyName string
	CheckFn    func(cmd MotionCommand) PolicyResult
	AdjustFn   func(cmd MotionCommand) (MotionCommand, bool)
}

func (p CustomPolicy) Name() string { return p.PolicyName }

func (p CustomPolicy) Check(cmd MotionCommand) PolicyResult {
	if p.CheckFn == nil {
		return PolicyResult{Verdict: PolicyPass}
	}
	return p.CheckFn(cmd)
}

func (p CustomPolicy) Adjust(cmd MotionCommand) (MotionCommand, bool) {
	if p.AdjustFn == nil {
		return cmd, false
	}
	return p.AdjustFn(cmd)
}
