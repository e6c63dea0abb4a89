package pcore

// NodeType identifies what kind of body a Node carries.
type NodeType int

const (
	EmptyNode NodeType = iota
	AssignmentNode
	CommandNode
	UpdateNode
	ListNode
	LibraryCallNode
)

func (t NodeType) String() string {
	switch t {
	case EmptyNode:
		return "Empty"
	case AssignmentNode:
		return "Assignment"
	case CommandNode:
		return "Command"
	case UpdateNode:
		return "Update"
	case ListNode:
		return "NodeList"
	case LibraryCallNode:
		return "LibraryCall"
	default:
		return "Unknown"
	}
}

// NodeState is one of the seven node states this kernel models
// (spec.md §4.F/§4.G). There is no separate FailingIteration state:
// FAILING covers abort handling for every node type.
type NodeState int

const (
	StateInactive NodeState = iota
	StateWaiting
	StateExecuting
	StateIterationEnded
	StateFinished
	StateFailing
	StateFinishing
	StateNoChildFailed // sentinel value, never a real node state; NextTransition reports "no transition" with ok=false instead
)

func (s NodeState) String() string {
	switch s {
	case StateInactive:
		return "INACTIVE"
	case StateWaiting:
		return "WAITING"
	case StateExecuting:
		return "EXECUTING"
	case StateIterationEnded:
		return "ITERATION_ENDED"
	case StateFinished:
		return "FINISHED"
	case StateFailing:
		return "FAILING"
	case StateFinishing:
		return "FINISHING"
	default:
		return "NO_NODE_STATE"
	}
}

// Outcome records how a FINISHED/ITERATION_ENDED node's execution went.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeSuccess
	OutcomeFailure
	OutcomeSkipped
	OutcomeInterrupted
)

// FailureType further classifies an OutcomeFailure.
type FailureType int

const (
	FailureNone FailureType = iota
	FailurePreConditionFailed
	FailurePostConditionFailed
	FailureInvariantConditionFailed
	FailureParentFailed
	FailureExitedWithError
)

// ConditionRole names one of a Node's eleven condition slots.
type ConditionRole int

const (
	SkipCondition ConditionRole = iota
	StartCondition
	EndCondition
	ExitCondition
	PreCondition
	PostCondition
	InvariantCondition
	RepeatCondition
	AncestorEndCondition
	AncestorExitCondition
	AncestorInvariantCondition
)

// AssignmentBody is the body of an Assignment node: write Value's
// current value into Variable when the node executes.
type AssignmentBody struct {
	Variable *Variable
	Value    Expression
}

// CommandBody is the body of a Command node.
type CommandBody struct {
	Name     string
	Args     []Expression
	Resource []ResourceSpec
	Handle   *Variable // CommandHandle, written on CommandReturn
	node     *Node
}

// ResourceSpec names a resource a command contends for, with a
// requested priority. Conflict resolution (spec.md §4.H) ranks the
// requesters of a resource by their Node's Priority (then docSeq), not
// by this field.
type ResourceSpec struct {
	Name     string
	Priority int
}

// UpdateBody is the body of an Update node: a batch of named values
// pushed to the external world (e.g. a plan-state dashboard).
type UpdateBody struct {
	Pairs map[string]Expression
	node  *Node
}

// ListBody is the body of a NodeList node: an ordered set of children,
// run concurrently and considered complete once every child reaches
// FINISHED (spec.md default semantics).
type ListBody struct {
	Children []*Node
}

// LibraryCallBody is the body of a LibraryCall node: a NodeList body
// drawn from a separately-defined library plan, with its formal
// parameter Variables bound to the actual argument expressions
// supplied at the call site before the library's children run.
// Grounded in original_source's library-node-call resolution, which
// binds call-site aliases to the library's interface variables at
// load time rather than at every execution.
type LibraryCallBody struct {
	Children []*Node
	Formals  map[string]*Variable  // formal parameter Variables, keyed by name, found inside Children
	Actuals  map[string]Expression // actual argument expressions, keyed by the same formal names
}

// Node is the unit of plan structure: a state machine instance plus a
// type-specific body and condition expressions.
type Node struct {
	ID         string
	Type       NodeType
	Priority   int
	docSeq     uint64
	state      NodeState
	outcome    Outcome
	failure    FailureType
	parent     *Node
	conditions map[ConditionRole]Expression
	body       any // *AssignmentBody | *CommandBody | *UpdateBody | *ListBody | *LibraryCallBody | nil

	// bodyComplete and abortAcked track leaf-node body completion the
	// driver observes directly (a command/update/assignment finishing,
	// or an abort being acknowledged), standing in for an implicit
	// EndCondition when the plan author did not supply one.
	bodyComplete bool
	abortAcked   bool
}

var nodeDocSeq uint64

// NewNode allocates a Node, assigning it the next monotonic document
// sequence number used to break priority ties (Design Notes §9.3).
func NewNode(id string, typ NodeType) *Node {
	nodeDocSeq++
	return &Node{
		ID:         id,
		Type:       typ,
		state:      StateInactive,
		conditions: make(map[ConditionRole]Expression),
		docSeq:     nodeDocSeq,
	}
}

func (n *Node) State() NodeState     { return n.state }
func (n *Node) Outcome() Outcome     { return n.outcome }
func (n *Node) Failure() FailureType { return n.failure }
func (n *Node) DocSeq() uint64       { return n.docSeq }

// SetCondition installs the Expression for a condition role. Nil
// clears it (treated as the role's default value per spec.md §4.F:
// Skip, Exit, Repeat, AncestorExit and AncestorEnd default false;
// Start, Pre, Post, Invariant and AncestorInvariant default true;
// without an EndCondition the node ends once its body completes).
func (n *Node) SetCondition(role ConditionRole, e Expression) {
	if e == nil {
		delete(n.conditions, role)
		return
	}
	n.conditions[role] = e
}

func (n *Node) condition(role ConditionRole, defaultKnown bool) (bool, bool) {
	e, ok := n.conditions[role]
	if !ok {
		return defaultKnown, true
	}
	b, known := e.Value().Boolean()
	return b, known
}

// endConditionMet reports whether n is ready to leave EXECUTING: an
// explicit EndCondition expression if the plan author supplied one,
// otherwise whether the driver has observed the leaf body complete.
func (n *Node) endConditionMet() bool {
	if e, ok := n.conditions[EndCondition]; ok {
		b, known := e.Value().Boolean()
		return known && b
	}
	return n.bodyComplete
}

// abortAcknowledged reports whether n is ready to leave FAILING or
// FINISHING: an explicit EndCondition, or the driver-observed abort ack.
func (n *Node) abortAcknowledged() bool {
	if e, ok := n.conditions[EndCondition]; ok {
		b, known := e.Value().Boolean()
		return known && b
	}
	return n.abortAcked
}

// NodeStateExpr exposes a Node's own state as an Expression, for use
// in other nodes' AncestorEndCondition/AncestorExitCondition/etc (it
// reads n.state live; there is no separate cached copy to keep in
// sync, unlike the original's listener-pushed node-state variable).
// Activating it is a no-op: a node's state is not itself
// reference-counted the way an expression graph node is, since the
// driver always updates it directly.
type NodeStateExpr struct {
	Notifier
	node *Node
}

func NewNodeStateExpr(n *Node) *NodeStateExpr { return &NodeStateExpr{node: n} }

func (e *NodeStateExpr) Type() ValueType  { return NodeStateType }
func (e *NodeStateExpr) Value() Value     { return taggedIntegerValue(NodeStateType, int64(e.node.state)) }
func (e *NodeStateExpr) NotifyChanged()   {}
func (e *NodeStateExpr) Activate()        { e.Notifier.Activate() }
func (e *NodeStateExpr) Deactivate()      { e.Notifier.Deactivate() }

// NodeOutcomeExpr similarly exposes a Node's Outcome once FINISHED.
type NodeOutcomeExpr struct {
	Notifier
	node *Node
}

func NewNodeOutcomeExpr(n *Node) *NodeOutcomeExpr { return &NodeOutcomeExpr{node: n} }

func (e *NodeOutcomeExpr) Type() ValueType { return OutcomeType }
func (e *NodeOutcomeExpr) Value() Value {
	if e.node.state != StateFinished && e.node.state != StateIterationEnded {
		return UnknownValue(OutcomeType)
	}
	return taggedIntegerValue(OutcomeType, int64(e.node.outcome))
}
func (e *NodeOutcomeExpr) NotifyChanged() {}
func (e *NodeOutcomeExpr) Activate()      { e.Notifier.Activate() }
func (e *NodeOutcomeExpr) Deactivate()    { e.Notifier.Deactivate() }

// bodyChildren returns the child nodes of a ListBody or LibraryCallBody,
// or nil for any other body kind.
func bodyChildren(body any) []*Node {
	switch b := body.(type) {
	case *ListBody:
		return b.Children
	case *LibraryCallBody:
		return b.Children
	default:
		return nil
	}
}
