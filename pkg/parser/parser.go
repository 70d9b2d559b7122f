// Package parser implements a recursive-descent parser for the embedded
// method-body DSL, producing pkg/ast nodes. Precedence, tightest first:
// unary, then * / %, then + -, then < > <= >=, then == !=, then &&, then
// ||, with assignment at the bottom. Assignment and emit are only legal
// in statement position; a return expression that contains either is a
// parse error.
package parser

import (
	"fmt"

	"github.com/cardity-org/cardity-wasm/pkg/ast"
	"github.com/cardity-org/cardity-wasm/pkg/lexer"
)

// Error is a parse failure with the byte offset of the offending token.
type Error struct {
	Pos int
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Msg)
}

// Parser consumes a token stream produced by pkg/lexer.
type Parser struct {
	toks []lexer.Token
	pos  int
}

// New creates a Parser over src.
func New(src string) *Parser {
	return &Parser{toks: lexer.New(src).Tokenize()}
}

// ParseBody parses a complete `;`-separated statement sequence, as found
// in a method body or an if-block body.
func ParseBody(src string) ([]ast.Stmt, error) {
	p := New(src)
	stmts, err := p.stmtList(lexer.EOF)
	if err != nil {
		return nil, err
	}
	if p.peek().Type != lexer.EOF {
		return nil, p.errorf("unexpected %s after statement", p.peek().Type)
	}
	return stmts, nil
}

// ParseExpr parses a single expression with no statement forms: used for
// `returns` expressions, where assignment and emit are rejected.
func ParseExpr(src string) (ast.Expr, error) {
	p := New(src)
	if p.peek().Type == lexer.EMIT {
		return nil, p.errorf("emit is not allowed in an expression")
	}
	expr, err := p.expr()
	if err != nil {
		return nil, err
	}
	switch p.peek().Type {
	case lexer.EOF:
		return expr, nil
	case lexer.ASSIGN:
		return nil, p.errorf("assignment is not allowed in an expression")
	default:
		return nil, p.errorf("unexpected %s after expression", p.peek().Type)
	}
}

func (p *Parser) peek() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.errorf("expected %s, found %s", tt, tok.Type)
	}
	return p.advance(), nil
}

func (p *Parser) errorf(format string, args ...any) error {
	return &Error{Pos: p.peek().Pos, Msg: fmt.Sprintf(format, args...)}
}

// stmtList parses statements separated by `;` until the given terminator
// (EOF for a top-level body, RBRACE for an if-block). The terminator is
// not consumed. Empty statements (stray or trailing semicolons) are
// skipped.
func (p *Parser) stmtList(end lexer.TokenType) ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for {
		for p.peek().Type == lexer.SEMI {
			p.advance()
		}
		if p.peek().Type == end || p.peek().Type == lexer.EOF {
			return stmts, nil
		}
		stmt, err := p.stmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		switch p.peek().Type {
		case lexer.SEMI:
			p.advance()
		case end, lexer.EOF:
			return stmts, nil
		default:
			return nil, p.errorf("expected ; or %s after statement, found %s", end, p.peek().Type)
		}
	}
}

func (p *Parser) stmt() (ast.Stmt, error) {
	switch p.peek().Type {
	case lexer.IF:
		return p.ifStmt()
	case lexer.EMIT:
		return p.emitStmt()
	}

	expr, err := p.expr()
	if err != nil {
		return nil, err
	}

	if p.peek().Type == lexer.ASSIGN {
		target, ok := expr.(ast.Var)
		if !ok {
			return nil, p.errorf("left side of = must be a variable reference")
		}
		p.advance()
		rhs, err := p.expr()
		if err != nil {
			return nil, err
		}
		return ast.Assign{Target: target, Value: rhs}, nil
	}
	return ast.ExprStmt{Expr: expr}, nil
}

func (p *Parser) ifStmt() (ast.Stmt, error) {
	p.advance() // if
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	body, err := p.stmtList(lexer.RBRACE)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return ast.If{Cond: cond, Body: body}, nil
}

func (p *Parser) emitStmt() (ast.Stmt, error) {
	p.advance() // emit
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	var args []ast.Expr
	if p.peek().Type != lexer.RPAREN {
		for {
			arg, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().Type != lexer.COMMA {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return ast.Emit{Name: name.Lit, Args: args}, nil
}

// expr parses at the lowest expression precedence (logical or).
func (p *Parser) expr() (ast.Expr, error) {
	return p.orExpr()
}

func (p *Parser) orExpr() (ast.Expr, error) {
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == lexer.OR {
		p.advance()
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left = ast.BinOp{Op: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) andExpr() (ast.Expr, error) {
	left, err := p.equalityExpr()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == lexer.AND {
		p.advance()
		right, err := p.equalityExpr()
		if err != nil {
			return nil, err
		}
		left = ast.BinOp{Op: "&&", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) equalityExpr() (ast.Expr, error) {
	left, err := p.comparisonExpr()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().Type {
		case lexer.EQ:
			op = "=="
		case lexer.NEQ:
			op = "!="
		default:
			return left, nil
		}
		p.advance()
		right, err := p.comparisonExpr()
		if err != nil {
			return nil, err
		}
		left = ast.BinOp{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) comparisonExpr() (ast.Expr, error) {
	left, err := p.additiveExpr()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().Type {
		case lexer.LT:
			op = "<"
		case lexer.GT:
			op = ">"
		case lexer.LE:
			op = "<="
		case lexer.GE:
			op = ">="
		default:
			return left, nil
		}
		p.advance()
		right, err := p.additiveExpr()
		if err != nil {
			return nil, err
		}
		left = ast.BinOp{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) additiveExpr() (ast.Expr, error) {
	left, err := p.multiplicativeExpr()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().Type {
		case lexer.PLUS:
			op = "+"
		case lexer.MINUS:
			op = "-"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.multiplicativeExpr()
		if err != nil {
			return nil, err
		}
		left = ast.BinOp{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) multiplicativeExpr() (ast.Expr, error) {
	left, err := p.unaryExpr()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().Type {
		case lexer.STAR:
			op = "*"
		case lexer.SLASH:
			op = "/"
		case lexer.PERCENT:
			op = "%"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		left = ast.BinOp{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) unaryExpr() (ast.Expr, error) {
	switch p.peek().Type {
	case lexer.NOT:
		p.advance()
		x, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		return ast.UnaryOp{Op: "!", X: x}, nil
	case lexer.MINUS:
		p.advance()
		x, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		return ast.UnaryOp{Op: "-", X: x}, nil
	}
	return p.primaryExpr()
}

func (p *Parser) primaryExpr() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case lexer.NUMBER:
		p.advance()
		return ast.Literal{Kind: ast.LiteralNumber, Raw: tok.Lit}, nil
	case lexer.STRING:
		p.advance()
		return ast.Literal{Kind: ast.LiteralString, Raw: tok.Lit}, nil
	case lexer.IDENT:
		p.advance()
		return ast.Var{Name: tok.Lit}, nil
	case lexer.LPAREN:
		p.advance()
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, p.errorf("expected expression, found %s", tok.Type)
	}
}
