package pcore

import (
	"context"
	"fmt"
	"time"
)

// StepSummary reports what happened during one macro step, useful for
// tests and for the CLI harness.
type StepSummary struct {
	Cycle       uint64
	Transitions int
	Quiescent   bool
}

// Driver is the exec component of spec.md §4.H: it owns the set of
// root nodes, drives them through the state machine to quiescence each
// macro step, resolves command resource conflicts, and
// schedules the next wakeup via its Timebase. Grounded in
// eventloop/loop.go's tick()/run() drain-process-poll sequencing,
// generalized from "run JS tasks" to "run PLEXIL macro steps".
type Driver struct {
	opts    *driverOptions
	cache   *StateCache
	roots   []*Node
	all     []*Node
	pending pendingQueue
	inbound inboundQueue
	cycle   uint64
	metrics *Metrics

	// condWiring and condListeners back syncConditions: which condition
	// roles are currently activated (and listened on) per node, and the
	// one listener instance each node uses across every role it owns.
	condWiring    map[*Node]map[ConditionRole]bool
	condListeners map[*Node]*nodeConditionListener
}

// nodeConditionListener re-enqueues its node onto the pending queue
// whenever a condition expression it is attached to publishes a
// change. This is the mechanism behind spec.md §2's "lookups propagate
// into condition expressions -> nodes whose conditions change are
// placed on the pending queue": NextTransition only ever reads
// Expression.Value(), so without this, an asynchronous value change
// arriving between quiescence rounds would never bring a node back
// into contention.
type nodeConditionListener struct {
	driver *Driver
	node   *Node
}

func (l *nodeConditionListener) NotifyChanged() { l.driver.pending.Insert(l.node) }

// NewDriver constructs a Driver over the given root nodes.
func NewDriver(roots []*Node, opts ...Option) (*Driver, error) {
	cfg, err := resolveDriverOptions(opts)
	if err != nil {
		return nil, err
	}
	d := &Driver{
		opts:          cfg,
		cache:         NewStateCache(cfg.dispatcher),
		roots:         roots,
		condWiring:    make(map[*Node]map[ConditionRole]bool),
		condListeners: make(map[*Node]*nodeConditionListener),
	}
	if cfg.metricsEnabled {
		d.metrics = NewMetrics()
	}
	for _, r := range roots {
		collectNodes(r, &d.all)
	}
	for _, n := range d.all {
		d.pending.Insert(n)
		d.syncConditions(n)
	}
	return d, nil
}

func collectNodes(n *Node, out *[]*Node) {
	*out = append(*out, n)
	for _, c := range bodyChildren(n.body) {
		c.parent = n
		collectNodes(c, out)
	}
}

// Cache exposes the StateCache for constructing Lookup expressions
// against this Driver's plan.
func (d *Driver) Cache() *StateCache { return d.cache }

// --- ExternalInterface, implemented by staging onto the inbound queue ---

func (d *Driver) LookupReturn(state State, value Value, timestamp uint32) {
	d.inbound.push(inboundEvent{kind: inboundLookupReturn, state: state, value: value, timestamp: timestamp})
}

func (d *Driver) CommandReturn(cmd *CommandBody, handle Value, result Value) {
	d.inbound.push(inboundEvent{kind: inboundCommandReturn, cmd: cmd, handle: handle, result: result})
}

func (d *Driver) AcknowledgeUpdate(upd *UpdateBody, ack bool) {
	d.inbound.push(inboundEvent{kind: inboundAcknowledgeUpdate, upd: upd, ack: ack})
}

// Step runs exactly one macro step: increment the cycle count, drain
// inbound events, iterate node transitions to quiescence, resolve
// conflicts, dispatch newly-EXECUTING bodies, and arm the next wakeup.
func (d *Driver) Step(ctx context.Context) (summary StepSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			ae, ok := r.(*AssertionError)
			if !ok {
				panic(r)
			}
			d.log(LogError, "exec", ae.Error(), ae)
			if d.opts.panicOnAssert {
				panic(r)
			}
			err = ae
		}
	}()

	d.cycle++
	d.cache.AdvanceCycle()
	summary.Cycle = d.cycle

	d.drainInbound()

	for {
		progressed := d.runQuiescenceRound()
		summary.Transitions += progressed
		if progressed == 0 {
			break
		}
	}
	summary.Quiescent = true

	d.resolveConflicts()

	if d.metrics != nil {
		d.metrics.ObserveCycle(summary.Transitions)
	}

	d.scheduleNextWakeup()
	return summary, nil
}

// Run runs one Step immediately and then one Step per Timebase wakeup,
// until ctx is cancelled or a Step returns an error; while no wakeup
// arrives it keeps waiting. Mirrors eventloop.Loop.Run's tick loop.
func (d *Driver) Run(ctx context.Context) error {
	if _, err := d.Step(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			d.opts.timebase.Stop()
			return ctx.Err()
		case <-d.opts.timebase.Wake():
			if _, err := d.Step(ctx); err != nil {
				return err
			}
		}
	}
}

func (d *Driver) drainInbound() {
	for _, e := range d.inbound.drain() {
		switch e.kind {
		case inboundLookupReturn:
			d.cache.LookupReturn(e.state, e.value, e.timestamp)
		case inboundCommandReturn:
			if e.cmd.Handle != nil {
				e.cmd.Handle.SetValue(e.handle)
			}
			if e.cmd.node != nil {
				e.cmd.node.bodyComplete = true
				d.pending.Insert(e.cmd.node)
			}
		case inboundAcknowledgeUpdate:
			if e.upd.node != nil {
				e.upd.node.bodyComplete = true
				d.pending.Insert(e.upd.node)
			}
		}
	}
}

// runQuiescenceRound processes every currently pending node once,
// applying at most one transition to each, and returns how many
// transitions fired. Looping this until it returns 0 is the "macro
// step runs until quiescent" rule of spec.md §4.H.
func (d *Driver) runQuiescenceRound() int {
	count := 0
	for _, n := range d.pending.Snapshot() {
		tr, ok := NextTransition(n)
		if !ok {
			d.pending.Remove(n)
			continue
		}
		d.applyTransition(n, tr)
		count++
	}
	return count
}

// relevantConditionRoles returns the condition roles NextTransition
// consults for a node currently in state (spec.md §4.G's per-state
// condition table). syncConditions uses this to decide which condition
// expressions must stay activated, and listened on, for the node to be
// re-examined whenever one of them changes.
func relevantConditionRoles(state NodeState) []ConditionRole {
	switch state {
	case StateInactive:
		return []ConditionRole{AncestorExitCondition, AncestorInvariantCondition, AncestorEndCondition}
	case StateWaiting:
		return []ConditionRole{SkipCondition, ExitCondition, PreCondition, StartCondition}
	case StateExecuting:
		return []ConditionRole{ExitCondition, InvariantCondition, EndCondition, PostCondition}
	case StateIterationEnded:
		return []ConditionRole{AncestorExitCondition, AncestorInvariantCondition, RepeatCondition}
	case StateFailing, StateFinishing:
		return []ConditionRole{EndCondition}
	default:
		return nil
	}
}

// syncConditions activates (and registers n's listener on) every
// condition expression relevant to n's current state, and deactivates
// (and unregisters from) any that were relevant to a prior state but
// no longer are. Called once per node at construction and again on
// every state transition, so the activated set always matches
// relevantConditionRoles(n.state).
func (d *Driver) syncConditions(n *Node) {
	wantSet := make(map[ConditionRole]bool)
	for _, r := range relevantConditionRoles(n.state) {
		wantSet[r] = true
	}
	have := d.condWiring[n]
	if have == nil {
		have = make(map[ConditionRole]bool)
		d.condWiring[n] = have
	}
	listener := d.conditionListener(n)
	for role := range have {
		if wantSet[role] {
			continue
		}
		if e, ok := n.conditions[role]; ok {
			e.RemoveListener(listener)
			e.Deactivate()
		}
		delete(have, role)
	}
	for role := range wantSet {
		if have[role] {
			continue
		}
		if e, ok := n.conditions[role]; ok {
			e.Activate()
			e.AddListener(listener)
		}
		have[role] = true
	}
}

func (d *Driver) conditionListener(n *Node) *nodeConditionListener {
	if l, ok := d.condListeners[n]; ok {
		return l
	}
	l := &nodeConditionListener{driver: d, node: n}
	d.condListeners[n] = l
	return l
}

func (d *Driver) applyTransition(n *Node, tr Transition) {
	from := n.state
	n.state = tr.To
	if tr.To == StateFinished || tr.To == StateIterationEnded {
		n.outcome = tr.Outcome
		n.failure = tr.Failure
	}
	d.log(LogDebug, "node", fmt.Sprintf("%s: %s -> %s", n.ID, from, n.state), nil)
	d.syncConditions(n)

	switch tr.To {
	case StateExecuting:
		d.startExecuting(n)
	case StateFailing:
		n.failure = tr.Failure
		d.startAborting(n)
	case StateWaiting:
		n.bodyComplete = false
		n.abortAcked = false
	}

	// Re-evaluate neighbors whose conditions may reference n's new
	// state or outcome: children of a list body, and the parent (for
	// ancestor-* conditions). This is the frontier-wiring contract's
	// counterpart at the node level: state changes need to reach
	// exactly the nodes whose conditions were built against this one.
	for _, c := range bodyChildren(n.body) {
		d.pending.Insert(c)
	}
	if n.parent != nil {
		d.pending.Insert(n.parent)
		if tr.To == StateFinished {
			if children := bodyChildren(n.parent.body); children != nil && allChildrenFinished(children) {
				n.parent.bodyComplete = true
			}
		}
	}
	if tr.To != StateFinished {
		d.pending.Insert(n)
	}
}

func allChildrenFinished(children []*Node) bool {
	for _, c := range children {
		if c.state != StateFinished {
			return false
		}
	}
	return true
}

func (d *Driver) startExecuting(n *Node) {
	n.bodyComplete = false
	switch body := n.body.(type) {
	case nil:
		n.bodyComplete = true
	case *AssignmentBody:
		body.Variable.SetValue(body.Value.Value())
		n.bodyComplete = true
	case *CommandBody:
		body.node = n
		if d.opts.dispatcher != nil {
			d.opts.dispatcher.ExecuteCommand(body)
		} else {
			n.bodyComplete = true
		}
	case *UpdateBody:
		body.node = n
		if d.opts.dispatcher != nil {
			d.opts.dispatcher.ExecuteUpdate(body)
		} else {
			n.bodyComplete = true
		}
	case *ListBody:
		for _, c := range body.Children {
			d.pending.Insert(c)
		}
		n.bodyComplete = len(body.Children) == 0
	case *LibraryCallBody:
		for name, actual := range body.Actuals {
			if formal, ok := body.Formals[name]; ok {
				formal.SetValue(actual.Value())
			}
		}
		for _, c := range body.Children {
			d.pending.Insert(c)
		}
		n.bodyComplete = len(body.Children) == 0
	default:
		n.bodyComplete = true
	}
}

func (d *Driver) startAborting(n *Node) {
	n.abortAcked = false
	switch body := n.body.(type) {
	case *CommandBody:
		if d.opts.dispatcher != nil {
			d.opts.dispatcher.AbortCommand(body)
		} else {
			n.abortAcked = true
		}
	default:
		n.abortAcked = true
	}
}

// resolveConflicts picks, for each resource contended by more than one
// currently-EXECUTING command, the highest-priority (then
// lowest-docSeq) requester, and aborts the rest (spec.md §4.H). Only
// command resource claims are arbitrated; assignment nodes targeting
// the same variable are not checked against each other.
func (d *Driver) resolveConflicts() {
	claims := make(map[string][]*Node)
	for _, n := range d.all {
		if n.state != StateExecuting {
			continue
		}
		cb, ok := n.body.(*CommandBody)
		if !ok {
			continue
		}
		for _, r := range cb.Resource {
			claims[r.Name] = append(claims[r.Name], n)
		}
	}
	for _, contenders := range claims {
		if len(contenders) < 2 {
			continue
		}
		winner := contenders[0]
		for _, c := range contenders[1:] {
			if c.Priority < winner.Priority || (c.Priority == winner.Priority && c.docSeq < winner.docSeq) {
				winner = c
			}
		}
		for _, c := range contenders {
			if c == winner {
				continue
			}
			c.state = StateFailing
			c.failure = FailureInvariantConditionFailed
			d.syncConditions(c)
			d.startAborting(c)
			d.pending.Insert(c)
		}
	}
}

// scheduleNextWakeup arms the Timebase for a poll 10ms from now
// whenever anything remains pending, and disarms it once the pending
// queue is empty. It does not derive the wakeup from any condition's or
// lookup's deadline; d.PendingSnapshot() exposes the pending set to
// Timebase implementations.
func (d *Driver) scheduleNextWakeup() {
	if d.pending.Empty() {
		d.opts.timebase.SetTimer(time.Time{})
		return
	}
	d.opts.timebase.SetTimer(d.opts.timebase.Now().Add(10 * time.Millisecond))
}

// PendingSnapshot exposes the current pending-node set, for tests and
// for custom Timebase implementations that need to inspect it.
func (d *Driver) PendingSnapshot() []*Node { return d.pending.Snapshot() }

func (d *Driver) log(level LogLevel, category, message string, err error) {
	if d.opts.logger == nil || !d.opts.logger.IsEnabled(level) {
		return
	}
	d.opts.logger.Log(LogEntry{
		Level:     level,
		Category:  category,
		Cycle:     d.cycle,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	})
}
