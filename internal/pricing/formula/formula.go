// Package formula parses and evaluates the small arithmetic expression
// language used by pricing rules: the four operators + - * /, parentheses,
// decimal literals, and the single variable cost. Evaluation is pure and
// uses decimal arithmetic throughout, so the same inputs always produce
// the same price.
package formula

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Expr is a compiled formula. Compile once, evaluate many times.
type Expr struct {
	src      string
	root     node
	usesCost bool
}

// Parse compiles src into an Expr. Malformed input returns a *SyntaxError.
func Parse(src string) (*Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks}
	root, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected " + tok.describe()}
	}

	return &Expr{src: src, root: root, usesCost: usesCost(root)}, nil
}

// Evaluate binds cost and computes the expression. A nil cost is only an
// error if the formula actually references the cost variable, so a bare
// literal formula prices items with unknown base cost.
func (e *Expr) Evaluate(cost *decimal.Decimal) (decimal.Decimal, error) {
	if e.usesCost && cost == nil {
		return decimal.Zero, ErrMissingCost
	}
	return e.root.eval(cost)
}

// UsesCost reports whether the formula references the cost variable.
func (e *Expr) UsesCost() bool { return e.usesCost }

func (e *Expr) String() string { return e.src }

// Evaluate is a one-shot parse-and-evaluate for callers that do not cache
// compiled expressions.
func Evaluate(src string, cost *decimal.Decimal) (decimal.Decimal, error) {
	expr, err := Parse(src)
	if err != nil {
		return decimal.Zero, err
	}
	return expr.Evaluate(cost)
}

// --- AST ---

type node interface {
	eval(cost *decimal.Decimal) (decimal.Decimal, error)
}

type litNode struct {
	val decimal.Decimal
}

func (n litNode) eval(_ *decimal.Decimal) (decimal.Decimal, error) {
	return n.val, nil
}

type costNode struct{}

func (costNode) eval(cost *decimal.Decimal) (decimal.Decimal, error) {
	if cost == nil {
		return decimal.Zero, ErrMissingCost
	}
	return *cost, nil
}

type negNode struct {
	operand node
}

func (n negNode) eval(cost *decimal.Decimal) (decimal.Decimal, error) {
	v, err := n.operand.eval(cost)
	if err != nil {
		return decimal.Zero, err
	}
	return v.Neg(), nil
}

type binNode struct {
	op    byte
	left  node
	right node
}

func (n binNode) eval(cost *decimal.Decimal) (decimal.Decimal, error) {
	l, err := n.left.eval(cost)
	if err != nil {
		return decimal.Zero, err
	}
	r, err := n.right.eval(cost)
	if err != nil {
		return decimal.Zero, err
	}

	switch n.op {
	case '+':
		return l.Add(r), nil
	case '-':
		return l.Sub(r), nil
	case '*':
		return l.Mul(r), nil
	case '/':
		if r.IsZero() {
			return decimal.Zero, ErrDivisionByZero
		}
		return l.Div(r), nil
	}
	return decimal.Zero, &SyntaxError{Msg: "unknown operator"}
}

func usesCost(n node) bool {
	switch v := n.(type) {
	case costNode:
		return true
	case negNode:
		return usesCost(v.operand)
	case binNode:
		return usesCost(v.left) || usesCost(v.right)
	}
	return false
}

// --- lexer ---

type tokKind int

const (
	tokEOF tokKind = iota
	tokNumber
	tokCost
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	pos  int
	text string
	val  decimal.Decimal
}

func (t token) describe() string {
	if t.kind == tokEOF {
		return "end of formula"
	}
	return "\"" + t.text + "\""
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '+' || c == '-' || c == '*' || c == '/':
			toks = append(toks, token{kind: tokOp, pos: i, text: string(c)})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, pos: i, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, pos: i, text: ")"})
			i++
		case c >= '0' && c <= '9' || c == '.':
			start := i
			for i < len(src) && (src[i] >= '0' && src[i] <= '9' || src[i] == '.') {
				i++
			}
			text := src[start:i]
			val, err := decimal.NewFromString(text)
			if err != nil {
				return nil, &SyntaxError{Pos: start, Msg: "invalid number \"" + text + "\""}
			}
			toks = append(toks, token{kind: tokNumber, pos: start, text: text, val: val})
		case isIdentByte(c):
			start := i
			for i < len(src) && isIdentByte(src[i]) {
				i++
			}
			text := src[start:i]
			if strings.ToLower(text) != "cost" {
				return nil, &SyntaxError{Pos: start, Msg: "unknown identifier \"" + text + "\""}
			}
			toks = append(toks, token{kind: tokCost, pos: start, text: text})
		default:
			return nil, &SyntaxError{Pos: i, Msg: "unexpected character " + string(c)}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

// --- parser ---

// precedence climbing over the two binary precedence levels.
type parser struct {
	toks []token
	i    int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if p.i < len(p.toks)-1 {
		p.i++
	}
	return t
}

func precOf(op string) int {
	switch op {
	case "+", "-":
		return 1
	case "*", "/":
		return 2
	}
	return 0
}

func (p *parser) parseExpr(minPrec int) (node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.kind != tokOp {
			break
		}
		prec := precOf(tok.text)
		if prec < minPrec {
			break
		}
		p.next()

		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = binNode{op: tok.text[0], left: left, right: right}
	}
	return left, nil
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return litNode{val: tok.val}, nil
	case tokCost:
		return costNode{}, nil
	case tokOp:
		if tok.text == "-" {
			operand, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			return negNode{operand: operand}, nil
		}
		return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected operator \"" + tok.text + "\""}
	case tokLParen:
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		closing := p.next()
		if closing.kind != tokRParen {
			return nil, &SyntaxError{Pos: closing.pos, Msg: "expected \")\", got " + closing.describe()}
		}
		return inner, nil
	case tokEOF:
		return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected end of formula"}
	}
	return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected " + tok.describe()}
}
