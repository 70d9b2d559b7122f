// Package testutil provides builders for protocol documents used by
// integration tests, so tests assemble PDs programmatically instead of
// repeating JSON blobs.
package testutil

import (
	"encoding/json"
	"time"

	"github.com/cardity-org/cardity-wasm/pkg/runtime"
)

// FixedTime is the instant injected into test clocks.
var FixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// Clock returns a runtime clock pinned to FixedTime.
func Clock() runtime.Clock {
	return runtime.FixedClock{T: FixedTime}
}

// PDBuilder assembles a protocol document incrementally.
type PDBuilder struct {
	protocol string
	version  string
	owner    string
	state    map[string]map[string]string
	methods  map[string]map[string]any
	events   map[string]map[string]any
}

// NewPD starts a builder with the given protocol name and sensible
// defaults for the rest of the envelope.
func NewPD(protocol string) *PDBuilder {
	return &PDBuilder{
		protocol: protocol,
		version:  "1.0.0",
		owner:    "doge1owner",
		state:    map[string]map[string]string{},
		methods:  map[string]map[string]any{},
		events:   map[string]map[string]any{},
	}
}

// Version overrides the protocol version.
func (b *PDBuilder) Version(v string) *PDBuilder {
	b.version = v
	return b
}

// Var declares a state variable.
func (b *PDBuilder) Var(name, typ, def string) *PDBuilder {
	b.state[name] = map[string]string{"type": typ, "default": def}
	return b
}

// Method declares a method with a body.
func (b *PDBuilder) Method(name string, params []string, body string) *PDBuilder {
	b.methods[name] = map[string]any{"params": params, "logic": body}
	return b
}

// Getter declares a body-less method with only a return expression.
func (b *PDBuilder) Getter(name, returns string) *PDBuilder {
	b.methods[name] = map[string]any{"params": []string{}, "returns": returns}
	return b
}

// Event declares an event.
func (b *PDBuilder) Event(name string, params []string) *PDBuilder {
	b.events[name] = map[string]any{"params": params}
	return b
}

// JSON renders the document.
func (b *PDBuilder) JSON() []byte {
	doc := map[string]any{
		"p":        "cardinals",
		"op":       "deploy",
		"protocol": b.protocol,
		"version":  b.version,
		"cpl": map[string]any{
			"owner":   b.owner,
			"state":   b.state,
			"methods": b.methods,
			"events":  b.events,
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}
