package document

import (
	"fmt"
	"strings"

	"github.com/cardity-org/cardity-wasm/pkg/ast"
	"github.com/cardity-org/cardity-wasm/pkg/parser"
)

// Validate checks the document's structural invariants, failing with a
// wrapped ErrSchema on the first violation:
//
//   - the envelope fields carry the expected p/op values and non-empty
//     protocol, version, and owner;
//   - every state variable has a non-empty type;
//   - every method has a body or a return expression, unique parameter
//     names, a body that parses, and a return expression that parses as a
//     pure expression (no assignment, no emit);
//   - every state write in a method body targets a declared state
//     variable, and every emit names a declared event.
func (d *Document) Validate() error {
	if d.P != ProtocolTag {
		return fmt.Errorf("%w: p must be %q, got %q", ErrSchema, ProtocolTag, d.P)
	}
	if d.Op != DeployOp {
		return fmt.Errorf("%w: op must be %q, got %q", ErrSchema, DeployOp, d.Op)
	}
	if d.Protocol == "" {
		return fmt.Errorf("%w: protocol name is empty", ErrSchema)
	}
	if d.Version == "" {
		return fmt.Errorf("%w: version is empty", ErrSchema)
	}
	if d.CPL.Owner == "" {
		return fmt.Errorf("%w: cpl.owner is empty", ErrSchema)
	}

	for name, v := range d.CPL.State {
		if v.Type == "" {
			return fmt.Errorf("%w: state variable %q has empty type", ErrSchema, name)
		}
	}

	for name, m := range d.CPL.Methods {
		if err := d.validateMethod(name, m); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) validateMethod(name string, m Method) error {
	if m.Body == "" && m.Returns == "" {
		return fmt.Errorf("%w: method %q has neither body nor returns", ErrSchema, name)
	}

	seen := make(map[string]struct{}, len(m.Params))
	for _, p := range m.Params {
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: method %q declares parameter %q twice", ErrSchema, name, p)
		}
		seen[p] = struct{}{}
	}

	if m.Body != "" {
		stmts, err := parser.ParseBody(m.Body)
		if err != nil {
			return fmt.Errorf("%w: method %q body: %v", ErrSchema, name, err)
		}
		if err := d.checkStmts(name, stmts); err != nil {
			return err
		}
	}

	if m.Returns != "" {
		if _, err := parser.ParseExpr(m.Returns); err != nil {
			return fmt.Errorf("%w: method %q returns: %v", ErrSchema, name, err)
		}
	}
	return nil
}

// checkStmts walks a parsed body and rejects writes to undeclared state
// variables and emits of undeclared events. Both "state.X = ..." and a
// bare "X = ..." land in the store, so both forms are checked against
// the state declarations.
func (d *Document) checkStmts(method string, stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case ast.Assign:
			target := s.Target.Name
			if strings.HasPrefix(target, "params.") {
				continue
			}
			key := strings.TrimPrefix(target, "state.")
			if _, declared := d.CPL.State[key]; !declared {
				return fmt.Errorf("%w: method %q writes undeclared state variable %q", ErrSchema, method, key)
			}
		case ast.Emit:
			if !d.HasEvent(s.Name) {
				return fmt.Errorf("%w: method %q emits undeclared event %q", ErrSchema, method, s.Name)
			}
		case ast.If:
			if err := d.checkStmts(method, s.Body); err != nil {
				return err
			}
		}
	}
	return nil
}
