// Package checkpoint provides an optional, purely observing collector
// that journals external-interface traffic for a running plan, the
// "checkpoint collaborator" mentioned in spec.md §6. It decorates an
// ExternalInterface the way eventloop/promisify.go decorates a Promise
// resolution path: it sits on the call path without altering behavior.
package checkpoint

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	pcore "github.com/plexil-group/plexil-sub009"
)

// Record is one journaled event, serialized as a line of NDJSON.
type Record struct {
	Time  time.Time `json:"time"`
	Kind  string    `json:"kind"`
	State string    `json:"state,omitempty"`
	Value string    `json:"value,omitempty"`
}

// Recorder wraps a pcore.ExternalInterface, writing an NDJSON line for
// every inbound event before forwarding it unchanged.
type Recorder struct {
	next pcore.ExternalInterface
	mu   sync.Mutex
	w    io.Writer
	enc  *json.Encoder
}

// NewRecorder builds a Recorder that journals to w and forwards every
// call to next.
func NewRecorder(next pcore.ExternalInterface, w io.Writer) *Recorder {
	r := &Recorder{next: next, w: w}
	r.enc = json.NewEncoder(w)
	return r
}

func (r *Recorder) write(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(rec)
}

func (r *Recorder) LookupReturn(state pcore.State, value pcore.Value, timestamp uint32) {
	r.write(Record{Time: time.Now(), Kind: "lookupReturn", State: state.String(), Value: value.String()})
	r.next.LookupReturn(state, value, timestamp)
}

func (r *Recorder) CommandReturn(cmd *pcore.CommandBody, handle pcore.Value, result pcore.Value) {
	r.write(Record{Time: time.Now(), Kind: "commandReturn", State: cmd.Name, Value: result.String()})
	r.next.CommandReturn(cmd, handle, result)
}

func (r *Recorder) AcknowledgeUpdate(upd *pcore.UpdateBody, ack bool) {
	val := "false"
	if ack {
		val = "true"
	}
	r.write(Record{Time: time.Now(), Kind: "acknowledgeUpdate", Value: val})
	r.next.AcknowledgeUpdate(upd, ack)
}
