package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pcore "github.com/plexil-group/plexil-sub009"
)

type recordingIface struct {
	lookups []pcore.State
}

func (r *recordingIface) LookupReturn(state pcore.State, value pcore.Value, timestamp uint32) {
	r.lookups = append(r.lookups, state)
}
func (r *recordingIface) CommandReturn(*pcore.CommandBody, pcore.Value, pcore.Value) {}
func (r *recordingIface) AcknowledgeUpdate(*pcore.UpdateBody, bool)                  {}

func TestParseScriptValueHandlesEachScalarKind(t *testing.T) {
	cases := map[string]pcore.Value{
		"42":        pcore.IntegerValue(42),
		"3.5":       pcore.RealValue(3.5),
		"true":      pcore.BooleanValue(true),
		"\"hello\"": pcore.StringValue("hello"),
	}
	for raw, want := range cases {
		got, err := parseScriptValue(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), "parsing %q: want %v got %v", raw, want, got)
	}
}

func TestScriptHarnessDeliverDueOnlyFiresReadyEvents(t *testing.T) {
	rec := &recordingIface{}
	h := newScriptHarness([]scriptEvent{
		{AfterCycle: 1, State: "battery", Value: "50"},
		{AfterCycle: 3, State: "battery", Value: "20"},
	})
	h.iface = rec

	h.deliverDue() // cycle 1: first event fires
	require.Len(t, rec.lookups, 1)
	assert.Equal(t, "battery", rec.lookups[0].Name)

	h.deliverDue() // cycle 2: nothing due
	require.Len(t, rec.lookups, 1)

	h.deliverDue() // cycle 3: second event fires
	require.Len(t, rec.lookups, 2)

	v := h.LookupNow(pcore.NewState("battery"))
	got, known := v.Integer()
	require.True(t, known)
	assert.Equal(t, int64(20), got)
}

func TestScriptHarnessLookupNowDefaultsToUnknown(t *testing.T) {
	h := newScriptHarness(nil)
	v := h.LookupNow(pcore.NewState("unset"))
	assert.False(t, v.Known())
}

func TestScriptHarnessExecuteCommandReportsSuccessAsynchronously(t *testing.T) {
	rec := &driverLikeIface{done: make(chan struct{})}
	h := newScriptHarness(nil)
	h.iface = rec

	cmd := &pcore.CommandBody{Name: "Move"}
	h.ExecuteCommand(cmd)
	<-rec.done
	assert.Same(t, cmd, rec.gotCmd)
}

type driverLikeIface struct {
	done   chan struct{}
	gotCmd *pcore.CommandBody
}

func (r *driverLikeIface) LookupReturn(pcore.State, pcore.Value, uint32) {}
func (r *driverLikeIface) CommandReturn(cmd *pcore.CommandBody, handle pcore.Value, result pcore.Value) {
	r.gotCmd = cmd
	close(r.done)
}
func (r *driverLikeIface) AcknowledgeUpdate(*pcore.UpdateBody, bool) {}
