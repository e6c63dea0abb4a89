package pcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStringRoundTrip(t *testing.T) {
	cases := []State{
		NewState("time"),
		NewState("distance", StringValue("rover"), StringValue("waypoint2")),
		NewState("battery", IntegerValue(42)),
		NewState("temp", RealValue(98.6)),
		NewState("flag", BooleanValue(true)),
	}
	for _, s := range cases {
		parsed, err := ParseState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s.String(), parsed.String())
	}
}

func TestStateCompareOrdersByNameThenParams(t *testing.T) {
	a := NewState("alpha")
	b := NewState("beta")
	assert.True(t, a.Compare(b) < 0)
	assert.True(t, b.Compare(a) > 0)
	assert.Equal(t, 0, a.Compare(NewState("alpha")))
}

func TestValueEqualDistinguishesUnknown(t *testing.T) {
	a := UnknownValue(IntegerType)
	b := IntegerValue(0)
	assert.False(t, a.Equal(b), "unknown must never equal a known zero value")
	assert.True(t, a.Equal(UnknownValue(IntegerType)))
}

func TestValueRealWidensFromInteger(t *testing.T) {
	v := IntegerValue(5)
	r, known := v.Real()
	require.True(t, known)
	assert.Equal(t, 5.0, r)
}

func TestArrayValueEquality(t *testing.T) {
	a := ArrayValue(IntegerType, []Value{IntegerValue(1), IntegerValue(2)})
	b := ArrayValue(IntegerType, []Value{IntegerValue(1), IntegerValue(2)})
	c := ArrayValue(IntegerType, []Value{IntegerValue(1), IntegerValue(3)})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
