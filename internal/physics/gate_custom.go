package physics

// CustomPolicy wraps a pair of closures to satisfy CommandPolicy without
// requiring a dedicated named type for every ad hoc rule a deployment
// wants to bolt onto the gate (e.g. a site-specific no-go zone, a
// temporary speed cap during maintenance).
type CustomPolicy struct {
	name      string
	checkFn   func(cmd MotionCommand) PolicyResult
	adjustFn  func(cmd MotionCommand) (MotionCommand, bool)
}

// NewCustomPolicy builds a CommandPolicy named name from checkFn and
// adjustFn. adjustFn may be nil, in which case Adjust always reports it
// could not adjust, forcing the gate to reject instead.
func NewCustomPolicy(name string, checkFn func(MotionCommand) PolicyResult, adjustFn func(MotionCommand) (MotionCommand, bool)) *CustomPolicy {
	return &CustomPolicy{name: name, checkFn: checkFn, adjustFn: adjustFn}
}

func (p *CustomPolicy) Name() string { return p.name }

func (p *CustomPolicy) Check(cmd MotionCommand) PolicyResult {
	if p.checkFn == nil {
		return PolicyResult{Verdict: PolicyPass}
	}
	return p.checkFn(cmd)
}

func (p *CustomPolicy) Adjust(cmd MotionCommand) (MotionCommand, bool) {
	if p.adjustFn == nil {
		return cmd, false
	}
	return p.adjustFn(cmd)
}
