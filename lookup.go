package pcore

// Lookup is an Expression whose value comes from the StateCache rather
// than from evaluating subexpressions. Its State is fixed once active
// (state expressions with non-constant parameters are out of the
// distilled scope here; see spec.md's Non-goals on dynamic resolvers).
type Lookup struct {
	Notifier
	name  string
	state State
	typ   ValueType
	cache *StateCache
	entry *StateCacheEntry
}

// NewLookup constructs a plain (non-threshold) Lookup against state,
// of value type t.
func NewLookup(cache *StateCache, state State, t ValueType) *Lookup {
	return &Lookup{name: state.Name, state: state, typ: t, cache: cache}
}

func (l *Lookup) Type() ValueType { return l.typ }

func (l *Lookup) Value() Value {
	if l.entry == nil {
		return UnknownValue(l.typ)
	}
	return l.entry.CachedValue().Value()
}

func (l *Lookup) NotifyChanged() { l.PublishChange() }

func (l *Lookup) Activate() {
	wasInactive := !l.IsActive()
	l.Notifier.Activate()
	if wasInactive {
		l.entry = l.cache.EntryFor(l.state, l.typ)
		l.entry.RegisterPlainLookup(l.cache.dispatcher, uint32(l.cache.CycleCount()))
		if l.cache.dispatcher != nil {
			l.cache.dispatcher.Subscribe(l.state)
		}
	}
}

func (l *Lookup) Deactivate() {
	l.Notifier.Deactivate()
	if !l.IsActive() {
		if l.entry != nil {
			l.entry.UnregisterPlainLookup()
		}
		if l.cache.dispatcher != nil {
			l.cache.dispatcher.Unsubscribe(l.state)
		}
	}
}

// LookupOnChange is a Lookup augmented with a tolerance expression: it
// only republishes a change to its own listeners once the true value
// has moved by at least Tolerance away from the last value it
// reported, and it contributes a threshold band to its
// StateCacheEntry so the Dispatcher can avoid reporting values the
// plan does not care about.
type LookupOnChange struct {
	Lookup
	Tolerance    Expression
	lastReported Value
}

// NewLookupOnChange constructs a LookupOnChange. tolerance must be an
// Integer or Real expression matching t's numeric family.
func NewLookupOnChange(cache *StateCache, state State, t ValueType, tolerance Expression) *LookupOnChange {
	return &LookupOnChange{
		Lookup:    Lookup{name: state.Name, state: state, typ: t, cache: cache},
		Tolerance: tolerance,
	}
}

func (l *LookupOnChange) Activate() {
	wasInactive := !l.IsActive()
	l.Notifier.Activate()
	if wasInactive {
		l.entry = l.cache.EntryFor(l.state, l.typ)
		l.entry.RegisterLookup(l, l.cache.dispatcher, uint32(l.cache.CycleCount()))
		l.lastReported = l.entry.CachedValue().Value()
		if l.Tolerance != nil {
			l.Tolerance.Activate()
			l.Tolerance.AddListener(l)
		}
		l.entry.updateThresholds(l.cache.dispatcher)
		if l.cache.dispatcher != nil {
			l.cache.dispatcher.Subscribe(l.state)
		}
	}
}

func (l *LookupOnChange) Deactivate() {
	l.Notifier.Deactivate()
	if !l.IsActive() {
		if l.Tolerance != nil {
			l.Tolerance.RemoveListener(l)
			l.Tolerance.Deactivate()
		}
		if l.entry != nil {
			// Recompute thresholds on the lookups that remain, per
			// Design Notes §9.2, before dropping out of the registered
			// set entirely.
			l.entry.UnregisterLookup(l, l.cache.dispatcher)
		}
		if l.cache.dispatcher != nil {
			l.cache.dispatcher.Unsubscribe(l.state)
		}
	}
}

// integerThresholds returns this lookup's requested [low, high] band
// around its own last-reported value, given its tolerance, or
// ok=false if either lastReported or the tolerance is unknown. The
// band is always centered on lastReported, never on the entry's raw
// current value, so that an unrelated lookup crossing its own band (or
// (un)registering against the same entry) never silently re-centers
// this lookup's contributed band — per spec.md §4.C and the original's
// Lookup.cc updateInternal, which always calls
// m_thresholds->setThresholds(m_cachedValue.get(), m_tolerance).
func (l *LookupOnChange) integerThresholds() (low, high int64, ok bool) {
	if l.Tolerance == nil || !l.lastReported.Known() {
		return 0, 0, false
	}
	cur, known := l.lastReported.Integer()
	if !known {
		return 0, 0, false
	}
	tol, tknown := l.Tolerance.Value().Integer()
	if !tknown {
		return 0, 0, false
	}
	if tol < 0 {
		tol = -tol
	}
	return cur - tol, cur + tol, true
}

// realThresholds is integerThresholds' Real-typed counterpart: the band
// is likewise centered on lastReported, not the entry's current value.
func (l *LookupOnChange) realThresholds() (low, high float64, ok bool) {
	if l.Tolerance == nil || !l.lastReported.Known() {
		return 0, 0, false
	}
	cur, known := l.lastReported.Real()
	if !known {
		return 0, 0, false
	}
	tol, tknown := l.Tolerance.Value().Real()
	if !tknown {
		return 0, 0, false
	}
	if tol < 0 {
		tol = -tol
	}
	return cur - tol, cur + tol, true
}

// valueChanged is called by StateCacheEntry.notify() whenever the
// cached value changes. It publishes to this lookup's listeners (and
// re-centers its band and recomputes the entry's thresholds) only when
// the new value falls outside the band around lastReported; a change
// that stays within the band is not published.
func (l *LookupOnChange) valueChanged() {
	if !l.IsActive() {
		return
	}
	cur := l.entry.CachedValue().Value()
	if l.thresholdStillHolds(cur) {
		return
	}
	l.lastReported = cur
	l.entry.updateThresholds(l.cache.dispatcher)
	l.PublishChange()
}

// thresholdStillHolds reports whether cur is still within the band
// this lookup last reported from (lastReported +/- tolerance), using
// the relative-epsilon crossing test. Numeric types only; other types
// (String, Boolean, arrays) have no tolerance concept and always
// compare by exact equality, matching the original's type dispatch.
func (l *LookupOnChange) thresholdStillHolds(cur Value) bool {
	if l.Tolerance == nil || !l.lastReported.Known() {
		return l.lastReported.Equal(cur)
	}
	switch l.typ {
	case IntegerType:
		base, ok1 := l.lastReported.Integer()
		v, ok2 := cur.Integer()
		tol, ok3 := l.Tolerance.Value().Integer()
		if !ok1 || !ok2 || !ok3 {
			return l.lastReported.Equal(cur)
		}
		if tol < 0 {
			tol = -tol
		}
		return !crossedThreshold(float64(v), float64(base-tol), float64(base+tol))
	case RealType:
		base, ok1 := l.lastReported.Real()
		v, ok2 := cur.Real()
		tol, ok3 := l.Tolerance.Value().Real()
		if !ok1 || !ok2 || !ok3 {
			return l.lastReported.Equal(cur)
		}
		if tol < 0 {
			tol = -tol
		}
		return !crossedThreshold(v, base-tol, base+tol)
	default:
		return l.lastReported.Equal(cur)
	}
}

// NotifyChanged is invoked when Tolerance itself changes; the band
// must be recomputed even though the underlying value did not move.
func (l *LookupOnChange) NotifyChanged() {
	if !l.IsActive() || l.entry == nil {
		return
	}
	l.entry.updateThresholds(l.cache.dispatcher)
}
