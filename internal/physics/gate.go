package physics

// PolicyVerdict is a CommandPolicy's classification of a command.
type PolicyVerdict int

const (
	PolicyPass PolicyVerdict = iota
	PolicyAdjust
	PolicyReject
)

// PolicyResult is a single policy's check result, carrying a reason for
// non-Pass verdicts.
type PolicyResult struct {
	Verdict PolicyVerdict
	Reason  string
}

// CommandPolicy is the CommandGate's one genuine extension point (see
// spec Design Notes: "Policies in the CommandGate are the one genuine
// extension point"). Concrete policies are well-known tagged variants;
// CustomPolicy (gate_custom.go) is the reserved escape hatch.
type CommandPolicy interface {
	Name() string
	Check(cmd MotionCommand) PolicyResult
	Adjust(cmd MotionCommand) (MotionCommand, bool)
}

// GateOutcome is the CommandGate's overall filtering result.
type GateOutcome int

const (
	GatePassed GateOutcome = iota
	GateAdjusted
	GateRejected
)

// GateResult carries a GateOutcome plus, when relevant, the adjusted
// command and/or rejection reason.
type GateResult struct {
	Outcome  GateOutcome
	Original MotionCommand
	Adjusted MotionCommand
	Reason   string
}

// IsPassed reports whether the gate let the command through unmodified.
func (r GateResult) IsPassed() bool { return r.Outcome == GatePassed }

// ToVerdict maps a GateResult onto the validator's Verdict space.
func (r GateResult) ToVerdict() Verdict {
	switch r.Outcome {
	case GateAdjusted:
		return VerdictAdjust
	case GateRejected:
		return VerdictReject
	default:
		return VerdictOK
	}
}

// GateStats are the CommandGate's observability counters.
type GateStats struct {
	RejectedCount uint64
	AdjustedCount uint64
	PolicyCount   int
}

// CommandGate composes ordered CommandPolicy objects and returns on the
// first non-Pass verdict.
type CommandGate struct {
	policies      []CommandPolicy
	rejectedCount uint64
	adjustedCount uint64
}

// NewCommandGate builds an empty gate.
func NewCommandGate() *CommandGate {
	return &CommandGate{}
}

// AddPolicy appends a policy to the gate's ordered chain.
func (g *CommandGate) AddPolicy(p CommandPolicy) {
	g.policies = append(g.policies, p)
}

// Filter runs cmd through every policy in order, stopping at the first
// non-Pass result.
func (g *CommandGate) Filter(cmd MotionCommand) GateResult {
	for _, p := range g.policies {
		result := p.Check(cmd)
		switch result.Verdict {
		case PolicyPass:
			continue
		case PolicyAdjust:
			if adjusted, ok := p.Adjust(cmd); ok {
				g.adjustedCount++
				return GateResult{Outcome: GateAdjusted, Original: cmd, Adjusted: adjusted, Reason: result.Reason}
			}
			g.rejectedCount++
			return GateResult{Outcome: GateRejected, Original: cmd, Reason: result.Reason}
		case PolicyReject:
			g.rejectedCount++
			return GateResult{Outcome: GateRejected, Original: cmd, Reason: result.Reason}
		}
	}
	return GateResult{Outcome: GatePassed, Original: cmd}
}

// Stats returns the gate's current counters.
func (g *CommandGate) Stats() GateStats {
	return GateStats{RejectedCount: g.rejectedCount, AdjustedCount: g.adjustedCount, PolicyCount: len(g.policies)}
}

// ResetStats zeroes the rejected/adjusted counters.
func (g *CommandGate) ResetStats() {
	g.rejectedCount = 0
	g.adjustedCount = 0
}
