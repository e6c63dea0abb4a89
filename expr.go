package pcore

// Expression is anything in the expression graph that produces a
// typed, possibly-unknown Value and can be activated/deactivated.
// Listener is satisfied by embedding *Notifier and implementing
// NotifyChanged, letting an Expression both publish to its own
// listeners and subscribe to its subexpressions.
type Expression interface {
	Listener
	Type() ValueType
	Value() Value
	Activate()
	Deactivate()
	IsActive() bool
	AddListener(l Listener)
	RemoveListener(l Listener)
}

// Literal is a constant Expression: activation is a no-op and it never
// changes, so it never needs to notify anyone.
type Literal struct {
	Notifier
	val Value
}

func NewLiteral(v Value) *Literal { return &Literal{val: v} }

func (e *Literal) Type() ValueType       { return e.val.Type() }
func (e *Literal) Value() Value          { return e.val }
func (e *Literal) NotifyChanged()        {}
func (e *Literal) Activate()             { e.Notifier.Activate() }
func (e *Literal) Deactivate()           { e.Notifier.Deactivate() }

// Variable is a mutable, assignable Expression: a plan-local slot
// assignment nodes write into and other expressions read from.
type Variable struct {
	Notifier
	typ   ValueType
	value Value
}

func NewVariable(t ValueType) *Variable {
	return &Variable{typ: t, value: UnknownValue(t)}
}

func NewVariableWithInitial(t ValueType, initial Value) *Variable {
	return &Variable{typ: t, value: initial}
}

func (e *Variable) Type() ValueType { return e.typ }
func (e *Variable) Value() Value    { return e.value }
func (e *Variable) NotifyChanged()  {} // variables have no subexpressions
func (e *Variable) Activate()       { e.Notifier.Activate() }
func (e *Variable) Deactivate()     { e.Notifier.Deactivate() }

// SetValue assigns a new value, publishing a change if it differs from
// the current value. This is the only mutation path for a Variable;
// the exec driver calls it when executing an AssignmentBody.
func (e *Variable) SetValue(v Value) {
	if e.value.Equal(v) {
		return
	}
	e.value = v
	e.PublishChange()
}

// compositeExpression is implemented by any Expression built out of
// subexpressions (NotExpr, AndExpr, CompareExpr, ArithmeticExpr, and
// any future operator). frontierSources walks past these to the true
// propagation-source descendants (Literal, Variable, Lookup), and
// addFrontierListener/removeFrontierListener use that walk to install
// a listener directly on the sources instead of on the composite
// itself — the "frontier wiring" spec.md §4.B calls for, which keeps
// the live listener graph no taller than one real source regardless of
// how deep the expression tree nests.
type compositeExpression interface {
	Expression
	subexpressions() []Expression
}

// frontierSources returns the propagation-source expressions reachable
// from e: e itself if e is not composite, or the (possibly repeated)
// frontier sources of every subexpression if it is.
func frontierSources(e Expression) []Expression {
	c, ok := e.(compositeExpression)
	if !ok {
		return []Expression{e}
	}
	var out []Expression
	for _, sub := range c.subexpressions() {
		out = append(out, frontierSources(sub)...)
	}
	return out
}

// addFrontierListener and removeFrontierListener are the AddListener/
// RemoveListener bodies shared by every compositeExpression: rather
// than recording l against e's own Notifier, they record it directly
// against e's propagation-source descendants.
func addFrontierListener(e compositeExpression, l Listener) {
	for _, src := range frontierSources(e) {
		src.AddListener(l)
	}
}

func removeFrontierListener(e compositeExpression, l Listener) {
	for _, src := range frontierSources(e) {
		src.RemoveListener(l)
	}
}

// NotExpr is the boolean negation operator.
type NotExpr struct {
	Notifier
	operand Expression
	cached  Value
}

func NewNotExpr(operand Expression) *NotExpr {
	e := &NotExpr{operand: operand}
	e.recompute()
	return e
}

func (e *NotExpr) Type() ValueType { return BooleanType }
func (e *NotExpr) Value() Value    { return e.cached }

func (e *NotExpr) recompute() {
	b, known := e.operand.Value().Boolean()
	if !known {
		e.cached = UnknownValue(BooleanType)
		return
	}
	e.cached = BooleanValue(!b)
}

func (e *NotExpr) NotifyChanged() {
	old := e.cached
	e.recompute()
	if !old.Equal(e.cached) {
		e.PublishChange()
	}
}

func (e *NotExpr) Activate() {
	wasInactive := !e.IsActive()
	e.Notifier.Activate()
	if wasInactive {
		e.operand.Activate()
		e.operand.AddListener(e)
		e.recompute()
	}
}

func (e *NotExpr) Deactivate() {
	e.Notifier.Deactivate()
	if !e.IsActive() {
		e.operand.RemoveListener(e)
		e.operand.Deactivate()
	}
}

func (e *NotExpr) subexpressions() []Expression { return []Expression{e.operand} }
func (e *NotExpr) AddListener(l Listener)        { addFrontierListener(e, l) }
func (e *NotExpr) RemoveListener(l Listener)     { removeFrontierListener(e, l) }

// AndExpr is n-ary logical conjunction with PLEXIL's three-valued
// logic: known-false short-circuits to false even if other operands
// are unknown; otherwise any unknown operand makes the result unknown.
type AndExpr struct {
	Notifier
	operands []Expression
	cached   Value
}

func NewAndExpr(operands ...Expression) *AndExpr {
	e := &AndExpr{operands: operands}
	e.recompute()
	return e
}

func (e *AndExpr) Type() ValueType { return BooleanType }
func (e *AndExpr) Value() Value    { return e.cached }

func (e *AndExpr) recompute() {
	sawUnknown := false
	for _, op := range e.operands {
		b, known := op.Value().Boolean()
		if !known {
			sawUnknown = true
			continue
		}
		if !b {
			e.cached = BooleanValue(false)
			return
		}
	}
	if sawUnknown {
		e.cached = UnknownValue(BooleanType)
		return
	}
	e.cached = BooleanValue(true)
}

func (e *AndExpr) NotifyChanged() {
	old := e.cached
	e.recompute()
	if !old.Equal(e.cached) {
		e.PublishChange()
	}
}

func (e *AndExpr) Activate() {
	wasInactive := !e.IsActive()
	e.Notifier.Activate()
	if wasInactive {
		for _, op := range e.operands {
			op.Activate()
			op.AddListener(e)
		}
		e.recompute()
	}
}

func (e *AndExpr) Deactivate() {
	e.Notifier.Deactivate()
	if !e.IsActive() {
		for _, op := range e.operands {
			op.RemoveListener(e)
			op.Deactivate()
		}
	}
}

func (e *AndExpr) subexpressions() []Expression { return e.operands }
func (e *AndExpr) AddListener(l Listener)        { addFrontierListener(e, l) }
func (e *AndExpr) RemoveListener(l Listener)     { removeFrontierListener(e, l) }

// CompareOp identifies a binary comparison operator.
type CompareOp int

const (
	CompareEQ CompareOp = iota
	CompareNE
	CompareLT
	CompareLE
	CompareGT
	CompareGE
)

func (op CompareOp) String() string {
	switch op {
	case CompareEQ:
		return "=="
	case CompareNE:
		return "!="
	case CompareLT:
		return "<"
	case CompareLE:
		return "<="
	case CompareGT:
		return ">"
	case CompareGE:
		return ">="
	default:
		return "?"
	}
}

// CompareExpr is a binary comparison operator, grounded in
// original_source's comparison operators (EQInternal/LessThan/etc., all
// implemented over Operator::checkArgCount(2)): two known numeric
// operands (Integer or Real, with Integer widened to Real per
// Value.Real) are compared as Reals by every operator; otherwise == and
// != compare the two values by exact equality, while <, <=, > and >=
// are Unknown.
type CompareExpr struct {
	Notifier
	op          CompareOp
	left, right Expression
	cached      Value
}

func NewCompareExpr(op CompareOp, left, right Expression) *CompareExpr {
	e := &CompareExpr{op: op, left: left, right: right}
	e.recompute()
	return e
}

func (e *CompareExpr) Type() ValueType { return BooleanType }
func (e *CompareExpr) Value() Value    { return e.cached }

func (e *CompareExpr) recompute() {
	lv, rv := e.left.Value(), e.right.Value()
	if lf, lok := lv.Real(); lok {
		if rf, rok := rv.Real(); rok {
			switch e.op {
			case CompareEQ:
				e.cached = BooleanValue(lf == rf)
			case CompareNE:
				e.cached = BooleanValue(lf != rf)
			case CompareLT:
				e.cached = BooleanValue(lf < rf)
			case CompareLE:
				e.cached = BooleanValue(lf <= rf)
			case CompareGT:
				e.cached = BooleanValue(lf > rf)
			case CompareGE:
				e.cached = BooleanValue(lf >= rf)
			}
			return
		}
	}
	if !lv.Known() || !rv.Known() {
		e.cached = UnknownValue(BooleanType)
		return
	}
	switch e.op {
	case CompareEQ:
		e.cached = BooleanValue(lv.Equal(rv))
	case CompareNE:
		e.cached = BooleanValue(!lv.Equal(rv))
	default:
		e.cached = UnknownValue(BooleanType)
	}
}

func (e *CompareExpr) NotifyChanged() {
	old := e.cached
	e.recompute()
	if !old.Equal(e.cached) {
		e.PublishChange()
	}
}

func (e *CompareExpr) Activate() {
	wasInactive := !e.IsActive()
	e.Notifier.Activate()
	if wasInactive {
		e.left.Activate()
		e.left.AddListener(e)
		e.right.Activate()
		e.right.AddListener(e)
		e.recompute()
	}
}

func (e *CompareExpr) Deactivate() {
	e.Notifier.Deactivate()
	if !e.IsActive() {
		e.left.RemoveListener(e)
		e.left.Deactivate()
		e.right.RemoveListener(e)
		e.right.Deactivate()
	}
}

func (e *CompareExpr) subexpressions() []Expression { return []Expression{e.left, e.right} }
func (e *CompareExpr) AddListener(l Listener)        { addFrontierListener(e, l) }
func (e *CompareExpr) RemoveListener(l Listener)     { removeFrontierListener(e, l) }

// ArithmeticOp identifies an n-ary arithmetic operator.
type ArithmeticOp int

const (
	ArithmeticAdd ArithmeticOp = iota
	ArithmeticSub
	ArithmeticMul
	ArithmeticDiv
)

// ArithmeticExpr is an n-ary arithmetic operator (+, -, *, /), folding
// left to right over operands of mixed Integer/Real type. The result
// type follows original_source's ArithmeticFunctionFactory::
// arithmeticCommonType: Integer only if every operand is Integer, Real
// the moment any operand is Real or of otherwise-indeterminate type.
// Division by a known zero, like any other arithmetic error in the
// original, yields Unknown rather than a runtime exception.
type ArithmeticExpr struct {
	Notifier
	op       ArithmeticOp
	operands []Expression
	cached   Value
}

func NewArithmeticExpr(op ArithmeticOp, operands ...Expression) *ArithmeticExpr {
	e := &ArithmeticExpr{op: op, operands: operands}
	e.recompute()
	return e
}

func (e *ArithmeticExpr) resultType() ValueType {
	t := IntegerType
	for _, op := range e.operands {
		if op.Type() != IntegerType {
			t = RealType
		}
	}
	return t
}

func (e *ArithmeticExpr) Type() ValueType { return e.resultType() }
func (e *ArithmeticExpr) Value() Value    { return e.cached }

func (e *ArithmeticExpr) recompute() {
	rt := e.resultType()
	if len(e.operands) == 0 {
		e.cached = UnknownValue(rt)
		return
	}
	acc, known := e.operands[0].Value().Real()
	if !known {
		e.cached = UnknownValue(rt)
		return
	}
	for _, op := range e.operands[1:] {
		v, known := op.Value().Real()
		if !known {
			e.cached = UnknownValue(rt)
			return
		}
		switch e.op {
		case ArithmeticAdd:
			acc += v
		case ArithmeticSub:
			acc -= v
		case ArithmeticMul:
			acc *= v
		case ArithmeticDiv:
			if v == 0 {
				e.cached = UnknownValue(rt)
				return
			}
			acc /= v
		}
	}
	if rt == IntegerType {
		e.cached = IntegerValue(int64(acc))
		return
	}
	e.cached = RealValue(acc)
}

func (e *ArithmeticExpr) NotifyChanged() {
	old := e.cached
	e.recompute()
	if !old.Equal(e.cached) {
		e.PublishChange()
	}
}

func (e *ArithmeticExpr) Activate() {
	wasInactive := !e.IsActive()
	e.Notifier.Activate()
	if wasInactive {
		for _, op := range e.operands {
			op.Activate()
			op.AddListener(e)
		}
		e.recompute()
	}
}

func (e *ArithmeticExpr) Deactivate() {
	e.Notifier.Deactivate()
	if !e.IsActive() {
		for _, op := range e.operands {
			op.RemoveListener(e)
			op.Deactivate()
		}
	}
}

func (e *ArithmeticExpr) subexpressions() []Expression { return e.operands }
func (e *ArithmeticExpr) AddListener(l Listener)        { addFrontierListener(e, l) }
func (e *ArithmeticExpr) RemoveListener(l Listener)     { removeFrontierListener(e, l) }

// hasCycle performs a DFS from start looking for a path back to start.
// deps reports an expression's immediate subexpressions. The operator
// constructors do not call it and return no error.
func hasCycle(start Expression, deps func(Expression) []Expression) bool {
	visited := make(map[Expression]int) // 0=unvisited,1=in-progress,2=done
	var visit func(Expression) bool
	visit = func(e Expression) bool {
		switch visited[e] {
		case 1:
			return true
		case 2:
			return false
		}
		visited[e] = 1
		for _, d := range deps(e) {
			if visit(d) {
				return true
			}
		}
		visited[e] = 2
		return false
	}
	return visit(start)
}
