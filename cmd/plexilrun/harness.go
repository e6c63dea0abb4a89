package main

import (
	"sync"

	pcore "github.com/plexil-group/plexil-sub009"
)

// scriptHarness is a deterministic, script-driven Dispatcher used by
// the CLI runner in place of a real external-interface adapter,
// grounded in the original implementation's TestExternalInterface
// (original_source/src/apps/TestExec): values for lookups come from a
// canned script rather than a live system.
type scriptHarness struct {
	mu     sync.Mutex
	events []scriptEvent
	cycle  uint64
	iface  pcore.ExternalInterface
	known  map[string]pcore.Value
}

func newScriptHarness(events []scriptEvent) *scriptHarness {
	return &scriptHarness{events: events, known: make(map[string]pcore.Value)}
}

func (h *scriptHarness) LookupNow(state pcore.State) pcore.Value {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v, ok := h.known[state.String()]; ok {
		return v
	}
	return pcore.UnknownValue(pcore.RealType)
}

func (h *scriptHarness) Subscribe(pcore.State)   {}
func (h *scriptHarness) Unsubscribe(pcore.State) {}

func (h *scriptHarness) SetThresholds(pcore.State, pcore.Value, pcore.Value) {}
func (h *scriptHarness) ClearThresholds(pcore.State)                        {}

func (h *scriptHarness) ExecuteCommand(cmd *pcore.CommandBody) {
	go func() {
		h.iface.CommandReturn(cmd, pcore.IntegerValue(2) /* COMMAND_SUCCESS */, pcore.UnknownValue(pcore.RealType))
	}()
}

func (h *scriptHarness) ExecuteUpdate(upd *pcore.UpdateBody) {
	go func() {
		h.iface.AcknowledgeUpdate(upd, true)
	}()
}

func (h *scriptHarness) AbortCommand(*pcore.CommandBody) {}

// deliverDue applies every scripted event whose AfterCycle has been
// reached and has not yet been delivered.
func (h *scriptHarness) deliverDue() {
	h.mu.Lock()
	h.cycle++
	cycle := h.cycle
	var due []scriptEvent
	remaining := h.events[:0:0]
	for _, e := range h.events {
		if e.AfterCycle <= cycle {
			due = append(due, e)
		} else {
			remaining = append(remaining, e)
		}
	}
	h.events = remaining
	for _, e := range due {
		if st, err := pcore.ParseState(e.State); err == nil {
			if v, err := parseScriptValue(e.Value); err == nil {
				h.known[st.String()] = v
			}
		}
	}
	h.mu.Unlock()
	for _, e := range due {
		st, err := pcore.ParseState(e.State)
		if err != nil {
			continue
		}
		v, err := parseScriptValue(e.Value)
		if err != nil {
			continue
		}
		h.iface.LookupReturn(st, v, uint32(cycle))
	}
}

func parseScriptValue(raw string) (pcore.Value, error) {
	st, err := pcore.ParseState("_(" + raw + ")")
	if err != nil {
		return pcore.Value{}, err
	}
	if len(st.Params) == 1 {
		return st.Params[0], nil
	}
	return pcore.Value{}, err
}
