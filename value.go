// Package pcore implements the PLEXIL plan-execution kernel: the
// expression graph, state cache, lookup/threshold subsystem, node state
// machine, and the macro-step exec driver that ties them together.
package pcore

import (
	"fmt"
	"strings"
)

// ValueType identifies the dynamic type carried by a Value or CachedValue.
type ValueType int

const (
	UnknownType ValueType = iota
	BooleanType
	IntegerType
	RealType
	StringType
	BooleanArrayType
	IntegerArrayType
	RealArrayType
	StringArrayType
	NodeStateType
	OutcomeType
	FailureTypeType
	CommandHandleType
)

func (t ValueType) String() string {
	switch t {
	case BooleanType:
		return "Boolean"
	case IntegerType:
		return "Integer"
	case RealType:
		return "Real"
	case StringType:
		return "String"
	case BooleanArrayType:
		return "BooleanArray"
	case IntegerArrayType:
		return "IntegerArray"
	case RealArrayType:
		return "RealArray"
	case StringArrayType:
		return "StringArray"
	case NodeStateType:
		return "NodeState"
	case OutcomeType:
		return "Outcome"
	case FailureTypeType:
		return "FailureType"
	case CommandHandleType:
		return "CommandHandle"
	default:
		return "Unknown"
	}
}

// IsArray reports whether t is one of the array value types.
func (t ValueType) IsArray() bool {
	switch t {
	case BooleanArrayType, IntegerArrayType, RealArrayType, StringArrayType:
		return true
	default:
		return false
	}
}

// Value is a small tagged union, the kernel's runtime representation of
// a typed, possibly-unknown PLEXIL value. The zero Value is Unknown.
type Value struct {
	typ     ValueType
	known   bool
	boolean bool
	integer int64
	real    float64
	str     string
	arr     []Value
	arrKnow []bool
}

// UnknownValue returns an unknown Value of the given type.
func UnknownValue(t ValueType) Value {
	return Value{typ: t}
}

// taggedIntegerValue builds a known Value carrying an integer payload
// under a caller-chosen type tag, used by NodeStateExpr/NodeOutcomeExpr
// to expose enum-valued fields (NodeState, Outcome, FailureType) as
// typed Values distinct from plain IntegerType.
func taggedIntegerValue(t ValueType, i int64) Value {
	return Value{typ: t, known: true, integer: i}
}

func BooleanValue(b bool) Value { return Value{typ: BooleanType, known: true, boolean: b} }
func IntegerValue(i int64) Value { return Value{typ: IntegerType, known: true, integer: i} }
func RealValue(r float64) Value  { return Value{typ: RealType, known: true, real: r} }
func StringValue(s string) Value { return Value{typ: StringType, known: true, str: s} }

// ArrayValue builds an array Value of the given element type. elements
// whose Known() is false are unknown in the resulting array.
func ArrayValue(elemType ValueType, elements []Value) Value {
	var arrType ValueType
	switch elemType {
	case BooleanType:
		arrType = BooleanArrayType
	case IntegerType:
		arrType = IntegerArrayType
	case RealType:
		arrType = RealArrayType
	case StringType:
		arrType = StringArrayType
	default:
		arrType = UnknownType
	}
	cp := make([]Value, len(elements))
	know := make([]bool, len(elements))
	for i, e := range elements {
		cp[i] = e
		know[i] = e.known
	}
	return Value{typ: arrType, known: true, arr: cp, arrKnow: know}
}

func (v Value) Type() ValueType { return v.typ }
func (v Value) Known() bool     { return v.known }

func (v Value) Boolean() (bool, bool)    { return v.boolean, v.known && v.typ == BooleanType }
func (v Value) Integer() (int64, bool)   { return v.integer, v.known && v.typ == IntegerType }
func (v Value) Real() (float64, bool) {
	if !v.known {
		return 0, false
	}
	switch v.typ {
	case RealType:
		return v.real, true
	case IntegerType:
		// Integer-to-Real widening, per spec.md data-model note.
		return float64(v.integer), true
	default:
		return 0, false
	}
}
func (v Value) String_() (string, bool) { return v.str, v.known && v.typ == StringType }
func (v Value) Elements() ([]Value, bool) {
	return v.arr, v.known && v.typ.IsArray()
}

// Equal reports exact equality: same type (after Integer->Real widening
// is NOT applied here), same known-ness, same payload. Used for cache
// change detection; never for threshold-crossing decisions, which use a
// relative-epsilon test instead (see StateCacheEntry).
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ || v.known != o.known {
		return false
	}
	if !v.known {
		return true
	}
	switch v.typ {
	case BooleanType:
		return v.boolean == o.boolean
	case IntegerType:
		return v.integer == o.integer
	case RealType:
		return v.real == o.real
	case StringType:
		return v.str == o.str
	default:
		if v.typ.IsArray() {
			if len(v.arr) != len(o.arr) {
				return false
			}
			for i := range v.arr {
				if v.arrKnow[i] != o.arrKnow[i] {
					return false
				}
				if v.arrKnow[i] && !v.arr[i].Equal(o.arr[i]) {
					return false
				}
			}
			return true
		}
		return true
	}
}

func (v Value) String() string {
	if !v.known {
		return "UNKNOWN"
	}
	switch v.typ {
	case BooleanType:
		return fmt.Sprintf("%t", v.boolean)
	case IntegerType:
		return fmt.Sprintf("%d", v.integer)
	case RealType:
		return fmt.Sprintf("%g", v.real)
	case StringType:
		return v.str
	default:
		if v.typ.IsArray() {
			parts := make([]string, len(v.arr))
			for i, e := range v.arr {
				parts[i] = e.String()
			}
			return "[" + strings.Join(parts, ", ") + "]"
		}
		return "UNKNOWN"
	}
}
