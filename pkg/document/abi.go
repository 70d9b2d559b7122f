package document

import (
	"encoding/json"
	"sort"
)

// ABI is the derived, flattened description of a PD's external surface.
// It is a pure function of the CPL, protocol name, and version: entries
// are sorted by name so that reloading the same document bytes yields
// byte-identical MarshalIndentJSON output.
type ABI struct {
	Protocol string        `json:"protocol"`
	Version  string        `json:"version"`
	Methods  []MethodABI   `json:"methods"`
	Events   []EventABI    `json:"events"`
	State    []StateVarABI `json:"state"`
}

// MethodABI describes one method's external surface.
type MethodABI struct {
	Name    string   `json:"name"`
	Params  []string `json:"params"`
	Returns string   `json:"returns,omitempty"`
}

// EventABI describes one event's external surface.
type EventABI struct {
	Name   string   `json:"name"`
	Params []string `json:"params"`
}

// StateVarABI describes one declared state variable.
type StateVarABI struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default string `json:"default"`
}

// MarshalIndentJSON encodes the ABI as indented UTF-8 JSON.
func (a ABI) MarshalIndentJSON() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

func deriveABI(cpl CPL, protocol, version string) ABI {
	abi := ABI{
		Protocol: protocol,
		Version:  version,
		Methods:  []MethodABI{},
		Events:   []EventABI{},
		State:    []StateVarABI{},
	}

	methodNames := make([]string, 0, len(cpl.Methods))
	for name := range cpl.Methods {
		methodNames = append(methodNames, name)
	}
	sort.Strings(methodNames)
	for _, name := range methodNames {
		m := cpl.Methods[name]
		params := m.Params
		if params == nil {
			params = []string{}
		}
		abi.Methods = append(abi.Methods, MethodABI{Name: name, Params: params, Returns: m.Returns})
	}

	eventNames := make([]string, 0, len(cpl.Events))
	for name := range cpl.Events {
		eventNames = append(eventNames, name)
	}
	sort.Strings(eventNames)
	for _, name := range eventNames {
		params := cpl.Events[name].Params
		if params == nil {
			params = []string{}
		}
		abi.Events = append(abi.Events, EventABI{Name: name, Params: params})
	}

	stateNames := make([]string, 0, len(cpl.State))
	for name := range cpl.State {
		stateNames = append(stateNames, name)
	}
	sort.Strings(stateNames)
	for _, name := range stateNames {
		v := cpl.State[name]
		abi.State = append(abi.State, StateVarABI{Name: name, Type: v.Type, Default: v.Default})
	}

	return abi
}
