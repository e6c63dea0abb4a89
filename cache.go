package pcore

import "math"

// thresholdEpsilon is the relative fuzz applied only when deciding
// whether a new value has crossed a LookupOnChange threshold band,
// never for cache-equality checks (Design Notes §9.1). Matches the
// original implementation's Lookup.cc constant.
const thresholdEpsilon = 1e-13

// StateCacheEntry holds the last-known value for one State, plus the
// bookkeeping needed to serve registered Lookups and to derive the
// LookupOnChange threshold band the Dispatcher should be told about.
// Grounded in the original implementation's StateCacheEntry.cc.
type StateCacheEntry struct {
	state   State
	value   CachedValue
	lookups []*LookupOnChange // registered change-lookups contributing a threshold
	plain   int                // count of registered plain Lookups (no threshold contribution)
	low     Value
	high    Value
	haveThresholds bool
}

func newStateCacheEntry(s State, t ValueType) *StateCacheEntry {
	return &StateCacheEntry{state: s, value: NewCachedValue(t)}
}

func (e *StateCacheEntry) IsKnown() bool  { return e.value.IsKnown() }
func (e *StateCacheEntry) Type() ValueType { return e.value.Type() }
func (e *StateCacheEntry) CachedValue() CachedValue { return e.value }
func (e *StateCacheEntry) HasRegisteredLookups() bool {
	return e.plain > 0 || len(e.lookups) > 0
}

// UpdateValue stores val as the new cached value and, if it differs
// from the previous one, calls valueChanged on every registered
// LookupOnChange; each of those applies its own threshold-crossing
// test before publishing. Plain Lookups registered via
// RegisterPlainLookup are only counted and are not notified.
func (e *StateCacheEntry) UpdateValue(val Value, timestamp uint32) {
	if e.value.Update(val, timestamp) {
		e.notify()
	}
}

func (e *StateCacheEntry) notify() {
	for _, l := range e.lookups {
		l.valueChanged()
	}
}

// RegisterLookup associates l with this entry. If the entry has no
// cached value yet, or its value's timestamp is stale (strictly less
// than timestamp, the driver's current cycle count), dispatcher is
// asked for a synchronous LookupNow value first — the original's
// staleness check at registration (spec.md §4.C), which refreshes a
// known-but-outdated value rather than only an altogether-unknown one.
func (e *StateCacheEntry) RegisterLookup(l *LookupOnChange, dispatcher Dispatcher, timestamp uint32) {
	if (!e.value.IsKnown() || e.value.Timestamp() < timestamp) && dispatcher != nil {
		v := dispatcher.LookupNow(e.state)
		e.value.Update(v, timestamp)
	}
	if l != nil {
		e.lookups = append(e.lookups, l)
	} else {
		e.plain++
	}
}

// RegisterPlainLookup associates a threshold-agnostic Lookup (not a
// LookupOnChange) with this entry, for staleness-check purposes only.
func (e *StateCacheEntry) RegisterPlainLookup(dispatcher Dispatcher, timestamp uint32) {
	e.RegisterLookup(nil, dispatcher, timestamp)
}

// UnregisterLookup removes l's registration and, if l contributed to
// the threshold band, recomputes thresholds from the lookups that
// remain (Design Notes §9.2).
func (e *StateCacheEntry) UnregisterLookup(l *LookupOnChange, dispatcher Dispatcher) {
	for i, existing := range e.lookups {
		if existing == l {
			e.lookups = append(e.lookups[:i], e.lookups[i+1:]...)
			e.updateThresholds(dispatcher)
			return
		}
	}
}

// UnregisterPlainLookup decrements the plain-lookup count.
func (e *StateCacheEntry) UnregisterPlainLookup() {
	if e.plain > 0 {
		e.plain--
	}
}

// updateThresholds recomputes the intersection of every registered
// LookupOnChange's tolerance band (low = max of per-lookup lows, high
// = min of per-lookup highs) and pushes the result to dispatcher, or
// clears it if no lookup contributes a threshold. Dispatch is
// type-specialized the way the original splits integerUpdateThresholds
// / realUpdateThresholds, collapsed here since Value already knows its
// own type.
func (e *StateCacheEntry) updateThresholds(dispatcher Dispatcher) {
	if len(e.lookups) == 0 {
		if e.haveThresholds && dispatcher != nil {
			dispatcher.ClearThresholds(e.state)
		}
		e.haveThresholds = false
		return
	}
	switch e.Type() {
	case IntegerType:
		var lo, hi int64
		first := true
		for _, l := range e.lookups {
			tlo, thi, ok := l.integerThresholds()
			if !ok {
				continue
			}
			if first {
				lo, hi = tlo, thi
				first = false
				continue
			}
			if tlo > lo {
				lo = tlo
			}
			if thi < hi {
				hi = thi
			}
		}
		if first {
			if e.haveThresholds && dispatcher != nil {
				dispatcher.ClearThresholds(e.state)
			}
			e.haveThresholds = false
			return
		}
		e.low, e.high = IntegerValue(lo), IntegerValue(hi)
	case RealType:
		var lo, hi float64
		first := true
		for _, l := range e.lookups {
			tlo, thi, ok := l.realThresholds()
			if !ok {
				continue
			}
			if first {
				lo, hi = tlo, thi
				first = false
				continue
			}
			if tlo > lo {
				lo = tlo
			}
			if thi < hi {
				hi = thi
			}
		}
		if first {
			if e.haveThresholds && dispatcher != nil {
				dispatcher.ClearThresholds(e.state)
			}
			e.haveThresholds = false
			return
		}
		e.low, e.high = RealValue(lo), RealValue(hi)
	default:
		return
	}
	e.haveThresholds = true
	if dispatcher != nil {
		dispatcher.SetThresholds(e.state, e.high, e.low)
	}
}

// crossedThreshold reports whether candidate falls outside [low, high]
// using the relative-epsilon guard, matching the original's isolation
// of epsilon to this decision alone.
func crossedThreshold(candidate, low, high float64) bool {
	epsilon := math.Abs(candidate) * thresholdEpsilon
	if high-candidate < epsilon {
		return true
	}
	if candidate-low < epsilon {
		return true
	}
	return false
}

// StateCache owns one StateCacheEntry per distinct State observed by
// the plan, created lazily on first lookup construction. Entries live
// for the plan's lifetime; there is no scavenging (Design Notes,
// "Dropped teacher mechanisms").
type StateCache struct {
	entries    map[string]*StateCacheEntry
	dispatcher Dispatcher
	cycle      uint64
}

func NewStateCache(dispatcher Dispatcher) *StateCache {
	return &StateCache{entries: make(map[string]*StateCacheEntry), dispatcher: dispatcher}
}

// CycleCount returns the number of macro steps completed so far, used
// as the CachedValue timestamp.
func (c *StateCache) CycleCount() uint64 { return c.cycle }

// AdvanceCycle is called once per macro step by the exec driver.
func (c *StateCache) AdvanceCycle() { c.cycle++ }

// EntryFor returns (creating if necessary) the entry for s, typed t.
func (c *StateCache) EntryFor(s State, t ValueType) *StateCacheEntry {
	key := s.key()
	e, ok := c.entries[key]
	if !ok {
		e = newStateCacheEntry(s, t)
		c.entries[key] = e
	}
	return e
}

// LookupReturn applies an asynchronous value report from the external
// interface to the matching entry, if any is registered.
func (c *StateCache) LookupReturn(s State, v Value, timestamp uint32) {
	if e, ok := c.entries[s.key()]; ok {
		e.UpdateValue(v, timestamp)
	}
}
