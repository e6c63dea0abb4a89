package pcore

// CachedValue is a typed value plus the tick timestamp it was last
// updated at. The original PLEXIL implementation specializes a
// CachedValueImpl<T> per value type; here a single struct suffices
// since Value is already a tagged union (see Design Notes §9).
type CachedValue struct {
	value     Value
	timestamp uint32
}

// NewCachedValue returns an unknown CachedValue of the given type.
func NewCachedValue(t ValueType) CachedValue {
	return CachedValue{value: UnknownValue(t)}
}

func (c CachedValue) Value() Value        { return c.value }
func (c CachedValue) IsKnown() bool       { return c.value.Known() }
func (c CachedValue) Timestamp() uint32   { return c.timestamp }
func (c CachedValue) Type() ValueType     { return c.value.Type() }

// Update stores val if it differs from the current value (exact typed
// equality, including for Real — no epsilon fuzz at this layer; the
// epsilon guard belongs strictly to threshold-crossing decisions, see
// crossedThreshold) and returns whether it changed.
func (c *CachedValue) Update(val Value, timestamp uint32) bool {
	if c.value.Known() && val.Known() && c.value.Equal(val) {
		c.timestamp = timestamp
		return false
	}
	if !c.value.Known() && !val.Known() {
		return false
	}
	c.value = val
	c.timestamp = timestamp
	return true
}

// SetUnknown marks the value unknown if it was previously known, and
// reports whether that was a change.
func (c *CachedValue) SetUnknown(timestamp uint32) bool {
	if !c.value.Known() {
		return false
	}
	c.value = UnknownValue(c.value.Type())
	c.timestamp = timestamp
	return true
}
