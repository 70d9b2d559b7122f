// Package eval executes parsed method bodies and return expressions
// against a variable resolver. The evaluator is string-typed: operands
// are coerced lazily per the value package's rules, and every result is
// a canonical string.
//
// Operator semantics:
//
//   - `+ - * /` parse both operands as floats and format the result with
//     value.FormatFloat (shortest round-trip decimal); `%` parses both as
//     ints.
//   - `< > <= >=` compare numerically via the float rule; `==` and `!=`
//     compare canonical strings.
//   - `&& || !` coerce via value.ParseBool and yield "true"/"false".
//     Both operands of a logical operator are always evaluated.
//   - Division or modulo by zero is an error, not "0".
package eval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cardity-org/cardity-wasm/pkg/ast"
	"github.com/cardity-org/cardity-wasm/pkg/parser"
	"github.com/cardity-org/cardity-wasm/pkg/resolver"
	"github.com/cardity-org/cardity-wasm/pkg/value"
)

// Errors reported during execution.
var (
	ErrDivisionByZero  = errors.New("eval: division by zero")
	ErrUndeclaredState = errors.New("eval: write to undeclared state variable")
)

// EmitFunc receives each executed emit statement's event name and
// evaluated argument values.
type EmitFunc func(name string, values []string)

// Evaluator executes statements and expressions against a Resolver.
type Evaluator struct {
	res      *resolver.Resolver
	emit     EmitFunc
	declared map[string]struct{}

	lastResult string
}

// New creates an Evaluator bound to res. Emit statements are dropped
// until an emit hook is attached.
func New(res *resolver.Resolver) *Evaluator {
	return &Evaluator{res: res}
}

// SetEmitHook attaches the sink that receives emit statements. A nil
// hook silently drops them (used when events are disabled).
func (e *Evaluator) SetEmitHook(fn EmitFunc) {
	e.emit = fn
}

// RestrictWrites confines state writes to the given declared variable
// names; a write to any other key fails with ErrUndeclaredState. A nil
// slice removes the restriction.
func (e *Evaluator) RestrictWrites(names []string) {
	if names == nil {
		e.declared = nil
		return
	}
	e.declared = make(map[string]struct{}, len(names))
	for _, n := range names {
		e.declared[n] = struct{}{}
	}
}

// ExecBody parses and executes a `;`-separated statement sequence,
// returning the value of the last bare expression statement (or "" if
// the body contains none).
func (e *Evaluator) ExecBody(src string) (string, error) {
	stmts, err := parser.ParseBody(src)
	if err != nil {
		return "", err
	}
	e.lastResult = ""
	if err := e.execStmts(stmts); err != nil {
		return "", err
	}
	return e.lastResult, nil
}

// EvalReturn parses and evaluates a return expression. Statement forms
// (assignment, emit) are rejected by the parser.
func (e *Evaluator) EvalReturn(src string) (string, error) {
	expr, err := parser.ParseExpr(src)
	if err != nil {
		return "", err
	}
	return e.evalExpr(expr)
}

func (e *Evaluator) execStmts(stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if err := e.execStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) execStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case ast.Assign:
		v, err := e.evalExpr(s.Value)
		if err != nil {
			return err
		}
		return e.assign(s.Target.Name, v)

	case ast.If:
		cond, err := e.evalExpr(s.Cond)
		if err != nil {
			return err
		}
		if value.ParseBool(cond) {
			return e.execStmts(s.Body)
		}
		return nil

	case ast.Emit:
		values := make([]string, len(s.Args))
		for i, arg := range s.Args {
			v, err := e.evalExpr(arg)
			if err != nil {
				return err
			}
			values[i] = v
		}
		if e.emit != nil {
			e.emit(s.Name, values)
		}
		return nil

	case ast.ExprStmt:
		v, err := e.evalExpr(s.Expr)
		if err != nil {
			return err
		}
		e.lastResult = v
		return nil

	default:
		return fmt.Errorf("eval: unknown statement %T", stmt)
	}
}

func (e *Evaluator) assign(target, v string) error {
	switch {
	case strings.HasPrefix(target, "state."):
		key := strings.TrimPrefix(target, "state.")
		if err := e.checkDeclared(key); err != nil {
			return err
		}
		return e.res.AssignState(key, v)
	case strings.HasPrefix(target, "params."):
		e.res.AssignParam(strings.TrimPrefix(target, "params."), v)
		return nil
	default:
		if err := e.checkDeclared(target); err != nil {
			return err
		}
		return e.res.Assign(target, v)
	}
}

func (e *Evaluator) checkDeclared(key string) error {
	if e.declared == nil {
		return nil
	}
	if _, ok := e.declared[key]; !ok {
		return fmt.Errorf("%w: %q", ErrUndeclaredState, key)
	}
	return nil
}

func (e *Evaluator) evalExpr(expr ast.Expr) (string, error) {
	switch x := expr.(type) {
	case ast.Literal:
		return x.Raw, nil

	case ast.Var:
		return e.readVar(x.Name), nil

	case ast.UnaryOp:
		operand, err := e.evalExpr(x.X)
		if err != nil {
			return "", err
		}
		switch x.Op {
		case "!":
			return value.FormatBool(!value.ParseBool(operand)), nil
		case "-":
			return value.FormatFloat(-value.ParseFloat(operand)), nil
		default:
			return "", fmt.Errorf("eval: unknown unary operator %q", x.Op)
		}

	case ast.BinOp:
		left, err := e.evalExpr(x.Left)
		if err != nil {
			return "", err
		}
		right, err := e.evalExpr(x.Right)
		if err != nil {
			return "", err
		}
		return e.binOp(x.Op, left, right)

	default:
		return "", fmt.Errorf("eval: unknown expression %T", expr)
	}
}

func (e *Evaluator) readVar(name string) string {
	switch {
	case strings.HasPrefix(name, "state."):
		return e.res.ResolveState(strings.TrimPrefix(name, "state."))
	case strings.HasPrefix(name, "params."):
		return e.res.ResolveParam(strings.TrimPrefix(name, "params."))
	default:
		return e.res.Resolve(name)
	}
}

func (e *Evaluator) binOp(op, left, right string) (string, error) {
	switch op {
	case "+":
		return value.FormatFloat(value.ParseFloat(left) + value.ParseFloat(right)), nil
	case "-":
		return value.FormatFloat(value.ParseFloat(left) - value.ParseFloat(right)), nil
	case "*":
		return value.FormatFloat(value.ParseFloat(left) * value.ParseFloat(right)), nil
	case "/":
		divisor := value.ParseFloat(right)
		if divisor == 0 {
			return "", ErrDivisionByZero
		}
		return value.FormatFloat(value.ParseFloat(left) / divisor), nil
	case "%":
		divisor := value.ParseInt(right)
		if divisor == 0 {
			return "", ErrDivisionByZero
		}
		return value.FormatInt(value.ParseInt(left) % divisor), nil
	case "==":
		return value.FormatBool(left == right), nil
	case "!=":
		return value.FormatBool(left != right), nil
	case "<":
		return value.FormatBool(value.ParseFloat(left) < value.ParseFloat(right)), nil
	case ">":
		return value.FormatBool(value.ParseFloat(left) > value.ParseFloat(right)), nil
	case "<=":
		return value.FormatBool(value.ParseFloat(left) <= value.ParseFloat(right)), nil
	case ">=":
		return value.FormatBool(value.ParseFloat(left) >= value.ParseFloat(right)), nil
	case "&&":
		return value.FormatBool(value.ParseBool(left) && value.ParseBool(right)), nil
	case "||":
		return value.FormatBool(value.ParseBool(left) || value.ParseBool(right)), nil
	default:
		return "", fmt.Errorf("eval: unknown binary operator %q", op)
	}
}
