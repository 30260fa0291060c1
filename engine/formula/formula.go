// Package formula implements the sandboxed damage-formula evaluator.
// Formulas are compiled once at load time into an AST and evaluated
// repeatedly during battle. The grammar is deliberately tiny: numeric
// literals, user/target stat accessors, arithmetic, comparisons, and
// the min/max/floor builtins. No general-purpose code execution.
package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Source supplies stat values to an evaluation.
type Source interface {
	// StatValue returns the named stat and whether it exists.
	StatValue(name string) (float64, bool)
}

// Fields accepted after "user." or "target.".
var validFields = map[string]bool{
	"hp": true, "maxhp": true,
	"mp": true, "maxmp": true,
	"atk": true, "def": true,
	"mat": true, "mdf": true,
	"spd": true, "grc": true, "eva": true,
	"level": true,
}

// Expr is a compiled formula.
type Expr struct {
	root node
	src  string
}

// Compile parses src into an evaluable expression.
func Compile(src string) (*Expr, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, fmt.Errorf("formula %q: %w", src, err)
	}
	p := &parser{tokens: tokens}
	root, err := p.parseComparison()
	if err != nil {
		return nil, fmt.Errorf("formula %q: %w", src, err)
	}
	if !p.atEnd() {
		return nil, fmt.Errorf("formula %q: unexpected %q", src, p.peek().text)
	}
	return &Expr{root: root, src: src}, nil
}

// Eval evaluates the expression against the given stat sources.
func (e *Expr) Eval(user, target Source) (float64, error) {
	v, err := e.root.eval(user, target)
	if err != nil {
		return 0, fmt.Errorf("formula %q: %w", e.src, err)
	}
	return v, nil
}

// String returns the original formula text.
func (e *Expr) String() string {
	return e.src
}

// --- lexer ---

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp    // + - * / % . ,
	tokCmp   // < <= > >= == !=
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

func lex(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++

		case c >= '0' && c <= '9':
			j := i
			for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '.') {
				j++
			}
			tokens = append(tokens, token{tokNumber, src[i:j]})
			i = j

		case isIdentStart(c):
			j := i
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			tokens = append(tokens, token{tokIdent, src[i:j]})
			i = j

		case c == '(':
			tokens = append(tokens, token{tokLParen, "("})
			i++
		case c == ')':
			tokens = append(tokens, token{tokRParen, ")"})
			i++

		case c == '<' || c == '>':
			if i+1 < len(src) && src[i+1] == '=' {
				tokens = append(tokens, token{tokCmp, src[i : i+2]})
				i += 2
			} else {
				tokens = append(tokens, token{tokCmp, string(c)})
				i++
			}
		case c == '=' || c == '!':
			if i+1 < len(src) && src[i+1] == '=' {
				tokens = append(tokens, token{tokCmp, src[i : i+2]})
				i += 2
			} else {
				return nil, fmt.Errorf("unexpected character %q", string(c))
			}

		case strings.ContainsRune("+-*/%.,", rune(c)):
			tokens = append(tokens, token{tokOp, string(c)})
			i++

		default:
			return nil, fmt.Errorf("unexpected character %q", string(c))
		}
	}
	return tokens, nil
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

// --- parser ---

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() token {
	if p.atEnd() {
		return token{}
	}
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) accept(kind tokenKind, text string) bool {
	if !p.atEnd() && p.tokens[p.pos].kind == kind && p.tokens[p.pos].text == text {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(kind tokenKind, text string) error {
	if p.accept(kind, text) {
		return nil
	}
	if p.atEnd() {
		return fmt.Errorf("expected %q, got end of formula", text)
	}
	return fmt.Errorf("expected %q, got %q", text, p.peek().text)
}

// parseComparison — lowest precedence. Comparisons yield 1 or 0.
func (p *parser) parseComparison() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() && p.peek().kind == tokCmp {
		op := p.next().text
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return binaryNode{op: op, left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept(tokOp, "+"):
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = binaryNode{op: "+", left: left, right: right}
		case p.accept(tokOp, "-"):
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = binaryNode{op: "-", left: left, right: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept(tokOp, "*"):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = binaryNode{op: "*", left: left, right: right}
		case p.accept(tokOp, "/"):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = binaryNode{op: "/", left: left, right: right}
		case p.accept(tokOp, "%"):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = binaryNode{op: "%", left: left, right: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (node, error) {
	if p.accept(tokOp, "-") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return negNode{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	if p.atEnd() {
		return nil, fmt.Errorf("unexpected end of formula")
	}

	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", t.text)
		}
		return literalNode{value: v}, nil

	case tokLParen:
		inner, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return inner, nil

	case tokIdent:
		switch t.text {
		case "user", "target":
			if err := p.expect(tokOp, "."); err != nil {
				return nil, err
			}
			field := p.next()
			if field.kind != tokIdent {
				return nil, fmt.Errorf("expected stat name after %q.", t.text)
			}
			if !validFields[field.text] {
				return nil, fmt.Errorf("unknown stat %q", field.text)
			}
			return operandNode{user: t.text == "user", field: field.text}, nil

		case "min", "max":
			if err := p.expect(tokLParen, "("); err != nil {
				return nil, err
			}
			a, err := p.parseComparison()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokOp, ","); err != nil {
				return nil, err
			}
			b, err := p.parseComparison()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRParen, ")"); err != nil {
				return nil, err
			}
			return callNode{name: t.text, args: []node{a, b}}, nil

		case "floor":
			if err := p.expect(tokLParen, "("); err != nil {
				return nil, err
			}
			a, err := p.parseComparison()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRParen, ")"); err != nil {
				return nil, err
			}
			return callNode{name: "floor", args: []node{a}}, nil

		default:
			return nil, fmt.Errorf("unknown identifier %q", t.text)
		}

	default:
		return nil, fmt.Errorf("unexpected %q", t.text)
	}
}

// --- AST nodes ---

type node interface {
	eval(user, target Source) (float64, error)
}

type literalNode struct {
	value float64
}

func (n literalNode) eval(user, target Source) (float64, error) {
	return n.value, nil
}

type operandNode struct {
	user  bool
	field string
}

func (n operandNode) eval(user, target Source) (float64, error) {
	src := target
	who := "target"
	if n.user {
		src = user
		who = "user"
	}
	v, ok := src.StatValue(n.field)
	if !ok {
		return 0, fmt.Errorf("%s has no stat %q", who, n.field)
	}
	return v, nil
}

type negNode struct {
	inner node
}

func (n negNode) eval(user, target Source) (float64, error) {
	v, err := n.inner.eval(user, target)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

type binaryNode struct {
	op          string
	left, right node
}

func (n binaryNode) eval(user, target Source) (float64, error) {
	l, err := n.left.eval(user, target)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(user, target)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return math.Mod(l, r), nil
	case "<":
		return boolValue(l < r), nil
	case "<=":
		return boolValue(l <= r), nil
	case ">":
		return boolValue(l > r), nil
	case ">=":
		return boolValue(l >= r), nil
	case "==":
		return boolValue(l == r), nil
	case "!=":
		return boolValue(l != r), nil
	default:
		return 0, fmt.Errorf("unknown operator %q", n.op)
	}
}

type callNode struct {
	name string
	args []node
}

func (n callNode) eval(user, target Source) (float64, error) {
	vals := make([]float64, len(n.args))
	for i, arg := range n.args {
		v, err := arg.eval(user, target)
		if err != nil {
			return 0, err
		}
		vals[i] = v
	}
	switch n.name {
	case "min":
		return math.Min(vals[0], vals[1]), nil
	case "max":
		return math.Max(vals[0], vals[1]), nil
	case "floor":
		return math.Floor(vals[0]), nil
	default:
		return 0, fmt.Errorf("unknown function %q", n.name)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
