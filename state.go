package pcore

import (
	"fmt"
	"strconv"
	"strings"
)

// State identifies an external-world observable: a name plus zero or
// more parameter values, e.g. time() or distance(rover, waypoint2).
type State struct {
	Name   string
	Params []Value
}

// NewState builds a State from a name and parameters.
func NewState(name string, params ...Value) State {
	return State{Name: name, Params: append([]Value(nil), params...)}
}

// Compare gives a total order over States: by Name, then by parameter
// count, then pairwise by each parameter's canonical string form. It
// has no bearing on PLEXIL plan semantics beyond providing a stable
// sort order; the StateCache keys its map by String(), not by Compare.
func (s State) Compare(o State) int {
	if s.Name != o.Name {
		return strings.Compare(s.Name, o.Name)
	}
	if len(s.Params) != len(o.Params) {
		if len(s.Params) < len(o.Params) {
			return -1
		}
		return 1
	}
	for i := range s.Params {
		if c := strings.Compare(s.Params[i].String(), o.Params[i].String()); c != 0 {
			return c
		}
	}
	return 0
}

// key returns a value usable as a Go map key, since Value is not
// comparable in general (it may contain a slice for arrays).
func (s State) key() string {
	return s.String()
}

// String renders the canonical serial form name(p1, p2, ...), used for
// the StateCache map key and for the debug/checkpoint log. Round-trips
// through ParseState for any State built from non-array parameters.
func (s State) String() string {
	if len(s.Params) == 0 {
		return s.Name
	}
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.String()
	}
	return s.Name + "(" + strings.Join(parts, ", ") + ")"
}

// ParseState parses the canonical serial form produced by String, for
// non-array scalar parameters only. It is intended for the checkpoint
// log and the CLI test harness, not for general plan parsing (which is
// out of scope, per spec.md).
func ParseState(s string) (State, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return State{Name: s}, nil
	}
	if !strings.HasSuffix(s, ")") {
		return State{}, fmt.Errorf("pcore: malformed state %q: missing closing paren", s)
	}
	name := s[:open]
	body := s[open+1 : len(s)-1]
	if strings.TrimSpace(body) == "" {
		return State{Name: name}, nil
	}
	rawParams := strings.Split(body, ", ")
	params := make([]Value, len(rawParams))
	for i, raw := range rawParams {
		v, err := parseScalar(raw)
		if err != nil {
			return State{}, fmt.Errorf("pcore: malformed state %q: %w", s, err)
		}
		params[i] = v
	}
	return State{Name: name, Params: params}, nil
}

func parseScalar(raw string) (Value, error) {
	switch raw {
	case "UNKNOWN":
		return UnknownValue(UnknownType), nil
	case "true":
		return BooleanValue(true), nil
	case "false":
		return BooleanValue(false), nil
	}
	if strings.HasPrefix(raw, "\"") {
		return StringValue(strings.Trim(raw, "\"")), nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return IntegerValue(i), nil
	}
	if r, err := strconv.ParseFloat(raw, 64); err == nil {
		return RealValue(r), nil
	}
	return StringValue(raw), nil
}
