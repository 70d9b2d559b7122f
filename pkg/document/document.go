// Package document implements the protocol document (PD) model: parsing
// the self-describing JSON artifact, validating its structural invariants,
// deriving the ABI, and computing the content hash. A Document is
// immutable after Load.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Well-known values for the PD envelope fields.
const (
	ProtocolTag = "cardinals"
	DeployOp    = "deploy"
)

// Errors returned by the loader and validator. Load failures (I/O, JSON
// parse) wrap ErrLoad; structural violations wrap ErrSchema.
var (
	ErrLoad   = errors.New("document: load failure")
	ErrSchema = errors.New("document: schema violation")
)

// StateVariable is one declared state variable. The declared Type is
// advisory; Default is recorded verbatim as the initial value.
type StateVariable struct {
	Type    string
	Default string
}

// UnmarshalJSON accepts {"type": ..., "default": ...}, defaulting type to
// "string" and default to "" when absent.
func (v *StateVariable) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    *string `json:"type"`
		Default *string `json:"default"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v.Type = "string"
	if raw.Type != nil {
		v.Type = *raw.Type
	}
	v.Default = ""
	if raw.Default != nil {
		v.Default = *raw.Default
	}
	return nil
}

// Method is one declared method. Body holds the normalized single-string
// statement sequence: a list-valued body is joined with "; " at load
// time, and the legacy "logic" key is accepted as an alias for "body".
// Returns holds the bare return expression, extracted from the
// {"expr": ...} object form when present.
type Method struct {
	Params  []string
	Body    string
	Returns string
}

// UnmarshalJSON normalizes the body and returns fields per the document
// format: body is a string or list of strings, returns is a string or an
// {expr} object.
func (m *Method) UnmarshalJSON(data []byte) error {
	var raw struct {
		Params  []string        `json:"params"`
		Body    json.RawMessage `json:"body"`
		Logic   json.RawMessage `json:"logic"`
		Returns json.RawMessage `json:"returns"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Params = raw.Params

	body := raw.Body
	if body == nil {
		body = raw.Logic
	}
	if body != nil {
		normalized, err := normalizeBody(body)
		if err != nil {
			return err
		}
		m.Body = normalized
	}

	if raw.Returns != nil {
		normalized, err := normalizeReturns(raw.Returns)
		if err != nil {
			return err
		}
		m.Returns = normalized
	}
	return nil
}

func normalizeBody(data json.RawMessage) (string, error) {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		return single, nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return "", fmt.Errorf("method body must be a string or list of strings: %w", err)
	}
	return strings.Join(list, "; "), nil
}

func normalizeReturns(data json.RawMessage) (string, error) {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		return single, nil
	}
	var obj struct {
		Expr string `json:"expr"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", fmt.Errorf("method returns must be a string or {expr} object: %w", err)
	}
	return obj.Expr, nil
}

// Event is one declared event with its ordered parameter names.
type Event struct {
	Params []string
}

// UnmarshalJSON accepts parameter lists of bare strings or objects with a
// "name" field, in any mixture.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		Params []json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Params = nil
	for i, p := range raw.Params {
		var name string
		if err := json.Unmarshal(p, &name); err == nil {
			e.Params = append(e.Params, name)
			continue
		}
		var obj struct {
			Name *string `json:"name"`
		}
		if err := json.Unmarshal(p, &obj); err != nil || obj.Name == nil {
			return fmt.Errorf("event param %d must be a string or an object with a name field", i)
		}
		e.Params = append(e.Params, *obj.Name)
	}
	return nil
}

// CPL is the inner object of a PD carrying the declared state, methods,
// events, and owner.
type CPL struct {
	State   map[string]StateVariable `json:"state"`
	Methods map[string]Method        `json:"methods"`
	Events  map[string]Event         `json:"events"`
	Owner   string                   `json:"owner"`
}

// Document is a loaded, validated protocol document plus its derived ABI
// and content hash.
type Document struct {
	P         string `json:"p"`
	Op        string `json:"op"`
	Protocol  string `json:"protocol"`
	Version   string `json:"version"`
	CPL       CPL    `json:"cpl"`
	Hash      string `json:"hash"`
	Signature string `json:"signature"`

	abi ABI
}

// ABI returns the derived ABI.
func (d *Document) ABI() ABI { return d.abi }

// Method looks up a declared method by name.
func (d *Document) Method(name string) (Method, bool) {
	m, ok := d.CPL.Methods[name]
	return m, ok
}

// MethodNames returns the declared method names, sorted.
func (d *Document) MethodNames() []string {
	names := make([]string, 0, len(d.CPL.Methods))
	for name := range d.CPL.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StateNames returns the declared state variable names, sorted.
func (d *Document) StateNames() []string {
	names := make([]string, 0, len(d.CPL.State))
	for name := range d.CPL.State {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasEvent reports whether name is a declared event.
func (d *Document) HasEvent(name string) bool {
	_, ok := d.CPL.Events[name]
	return ok
}
