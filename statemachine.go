package pcore

// Transition describes a single node-state change the exec driver
// should apply: the new state, and (when leaving EXECUTING/FAILING)
// the outcome/failure to record.
type Transition struct {
	To      NodeState
	Outcome Outcome
	Failure FailureType
}

// NextTransition evaluates n's condition expressions against its
// current state and returns the transition it should make this macro
// step, or ok=false if n is quiescent (no transition available). The
// table follows spec.md §4.G. A node with a parent leaves INACTIVE only
// once that parent is EXECUTING; ancestor-driven conditions
// (AncestorEndCondition etc.) are read as they stand when n is
// evaluated, in pending-queue order (priority, then docSeq).
func NextTransition(n *Node) (Transition, bool) {
	switch n.state {
	case StateInactive:
		return transitionFromInactive(n)
	case StateWaiting:
		return transitionFromWaiting(n)
	case StateExecuting:
		return transitionFromExecuting(n)
	case StateIterationEnded:
		return transitionFromIterationEnded(n)
	case StateFailing:
		return transitionFromFailing(n)
	case StateFinishing:
		return transitionFromFinishing(n)
	default:
		return Transition{}, false
	}
}

func transitionFromInactive(n *Node) (Transition, bool) {
	// A node becomes eligible to wait once its parent is EXECUTING (or
	// it has no parent) and its ancestor conditions allow it
	// (AncestorExitCondition/AncestorEndCondition false or unset,
	// AncestorInvariantCondition true or unset) — see spec.md §4.F defaults.
	if aexit, known := n.condition(AncestorExitCondition, false); known && aexit {
		return Transition{To: StateFinished, Outcome: OutcomeInterrupted}, true
	}
	if ainv, known := n.condition(AncestorInvariantCondition, true); known && !ainv {
		return Transition{To: StateFinished, Outcome: OutcomeFailure, Failure: FailureParentFailed}, true
	}
	if aend, known := n.condition(AncestorEndCondition, false); known && aend {
		return Transition{}, false // parent finished; stay INACTIVE until parent resets or retires us
	}
	if n.parent != nil && n.parent.state != StateExecuting {
		return Transition{}, false
	}
	return Transition{To: StateWaiting}, true
}

func transitionFromWaiting(n *Node) (Transition, bool) {
	if skip, known := n.condition(SkipCondition, false); known && skip {
		return Transition{To: StateFinished, Outcome: OutcomeSkipped}, true
	}
	if exit, known := n.condition(ExitCondition, false); known && exit {
		return Transition{To: StateFinished, Outcome: OutcomeInterrupted}, true
	}
	if pre, known := n.condition(PreCondition, true); known && !pre {
		return Transition{To: StateIterationEnded, Outcome: OutcomeFailure, Failure: FailurePreConditionFailed}, true
	}
	if start, known := n.condition(StartCondition, true); known && start {
		return Transition{To: StateExecuting}, true
	}
	return Transition{}, false
}

func transitionFromExecuting(n *Node) (Transition, bool) {
	if exit, known := n.condition(ExitCondition, false); known && exit {
		return Transition{To: StateFailing, Failure: FailureExitedWithError}, true
	}
	if inv, known := n.condition(InvariantCondition, true); known && !inv {
		return Transition{To: StateFailing, Failure: FailureInvariantConditionFailed}, true
	}
	if !n.endConditionMet() {
		return Transition{}, false
	}
	if post, known := n.condition(PostCondition, true); known && !post {
		return Transition{To: StateIterationEnded, Outcome: OutcomeFailure, Failure: FailurePostConditionFailed}, true
	}
	return Transition{To: StateIterationEnded, Outcome: OutcomeSuccess}, true
}

func transitionFromIterationEnded(n *Node) (Transition, bool) {
	if aexit, known := n.condition(AncestorExitCondition, false); known && aexit {
		return Transition{To: StateFinished, Outcome: n.outcome, Failure: n.failure}, true
	}
	if ainv, known := n.condition(AncestorInvariantCondition, true); known && !ainv {
		return Transition{To: StateFinished, Outcome: OutcomeFailure, Failure: FailureParentFailed}, true
	}
	if repeat, known := n.condition(RepeatCondition, false); known && repeat {
		return Transition{To: StateWaiting}, true
	}
	return Transition{To: StateFinished, Outcome: n.outcome, Failure: n.failure}, true
}

func transitionFromFailing(n *Node) (Transition, bool) {
	// Once the body's abort has been acknowledged, move to
	// IterationEnded carrying the failure that drove us here.
	if n.abortAcknowledged() {
		return Transition{To: StateIterationEnded, Outcome: OutcomeFailure, Failure: n.failure}, true
	}
	return Transition{}, false
}

func transitionFromFinishing(n *Node) (Transition, bool) {
	if n.abortAcknowledged() {
		return Transition{To: StateFinished, Outcome: n.outcome, Failure: n.failure}, true
	}
	return Transition{}, false
}
