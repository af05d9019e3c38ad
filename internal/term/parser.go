package term

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// symbolChars are the glyphs symbolic atoms and operators are built from.
const symbolChars = "+-*/\\^<>=~:.?@#&$"

// ParseError reports a failed term parse along with the offending position
// and surrounding text, so callers can degrade to displaying raw text.
type ParseError struct {
	Msg  string
	Pos  int
	Near string
}

func (e *ParseError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("parse error at %d: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("parse error at %d near %q: %s", e.Pos, e.Near, e.Msg)
}

type tokenKind int

const (
	tokAtom tokenKind = iota
	tokVariable
	tokNumber
	tokPunct // ( ) [ ] | ,
	tokEnd
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// Parse turns term text into a Term tree using the given operator table.
// A nil table means DefaultOperators. A single trailing clause terminator
// period is tolerated.
func Parse(text string, ops *OperatorTable) (*Term, error) {
	if ops == nil {
		ops = DefaultOperators()
	}
	src := strings.TrimSpace(text)
	if strings.HasSuffix(src, ".") && !strings.HasSuffix(src, "..") {
		src = strings.TrimSuffix(src, ".")
	}
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks, ops: ops}
	t, _, err := p.parseExpr(1200)
	if err != nil {
		return nil, err
	}
	if tk := p.peek(); tk.kind != tokEnd {
		return nil, p.errorf(tk, "unexpected %q after complete term", tk.text)
	}
	return t, nil
}

func tokenize(src string) ([]token, error) {
	var toks []token
	runes := []rune(src)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(' || r == ')' || r == '[' || r == ']' || r == '|' || r == ',':
			toks = append(toks, token{tokPunct, string(r), i})
			i++
		case r == '!' || r == ';':
			toks = append(toks, token{tokAtom, string(r), i})
			i++
		case r == '\'':
			start := i
			i++
			var sb strings.Builder
			closed := false
			for i < len(runes) {
				if runes[i] == '\'' {
					if i+1 < len(runes) && runes[i+1] == '\'' {
						sb.WriteRune('\'')
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				sb.WriteRune(runes[i])
				i++
			}
			if !closed {
				return nil, &ParseError{Msg: "unterminated quoted atom", Pos: start, Near: near(src, start)}
			}
			toks = append(toks, token{tokAtom, sb.String(), start})
		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
			if i+1 < len(runes) && runes[i] == '.' && unicode.IsDigit(runes[i+1]) {
				i++
				for i < len(runes) && unicode.IsDigit(runes[i]) {
					i++
				}
			}
			toks = append(toks, token{tokNumber, string(runes[start:i]), start})
		case r == '_' || unicode.IsUpper(r):
			start := i
			for i < len(runes) && isIdentRune(runes[i]) {
				i++
			}
			toks = append(toks, token{tokVariable, string(runes[start:i]), start})
		case unicode.IsLower(r):
			start := i
			for i < len(runes) && isIdentRune(runes[i]) {
				i++
			}
			toks = append(toks, token{tokAtom, string(runes[start:i]), start})
		case strings.ContainsRune(symbolChars, r):
			start := i
			for i < len(runes) && strings.ContainsRune(symbolChars, runes[i]) {
				i++
			}
			toks = append(toks, token{tokAtom, string(runes[start:i]), start})
		default:
			return nil, &ParseError{Msg: fmt.Sprintf("unexpected character %q", r), Pos: i, Near: near(src, i)}
		}
	}
	toks = append(toks, token{tokEnd, "", len(runes)})
	return toks, nil
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func near(src string, pos int) string {
	runes := []rune(src)
	end := pos + 12
	if end > len(runes) {
		end = len(runes)
	}
	if pos > len(runes) {
		pos = len(runes)
	}
	return string(runes[pos:end])
}

type parser struct {
	src  string
	toks []token
	pos  int
	ops  *OperatorTable
}

func (p *parser) peek() token { return p.toks[p.pos] }
func (p *parser) next() token { t := p.toks[p.pos]; p.pos++; return t }
func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) errorf(tk token, format string, args ...interface{}) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Pos: tk.pos, Near: near(p.src, tk.pos)}
}

// parseExpr parses a term whose priority does not exceed maxPrec, returning
// the term and the priority it was built at. Operator application follows
// the declared associativity: an AssocLeft (yfx) operator admits its own
// priority on the left, AssocRight (xfy) on the right, AssocNone (xfx) on
// neither side.
func (p *parser) parseExpr(maxPrec int) (*Term, int, error) {
	left, leftPrec, err := p.parsePrimary(maxPrec)
	if err != nil {
		return nil, 0, err
	}
	for {
		tk := p.peek()
		name, ok := p.operatorToken(tk)
		if !ok {
			break
		}
		if op, found := p.ops.InfixOp(name); found && op.Priority <= maxPrec {
			leftMax := op.Priority - 1
			if op.Assoc == AssocLeft {
				leftMax = op.Priority
			}
			if leftPrec > leftMax {
				break
			}
			rightMax := op.Priority - 1
			if op.Assoc == AssocRight {
				rightMax = op.Priority
			}
			p.next()
			right, _, err := p.parseExpr(rightMax)
			if err != nil {
				return nil, 0, err
			}
			left = NewCompound(name, left, right)
			leftPrec = op.Priority
			continue
		}
		if op, found := p.ops.PostfixOp(name); found && op.Priority <= maxPrec {
			leftMax := op.Priority - 1
			if op.Assoc == AssocLeft {
				leftMax = op.Priority
			}
			if leftPrec > leftMax {
				break
			}
			p.next()
			left = NewCompound(name, left)
			leftPrec = op.Priority
			continue
		}
		break
	}
	return left, leftPrec, nil
}

// operatorToken reports whether a token may act as an operator name here.
// The comma punct doubles as the conjunction operator.
func (p *parser) operatorToken(tk token) (string, bool) {
	switch tk.kind {
	case tokAtom:
		return tk.text, true
	case tokPunct:
		if tk.text == "," {
			return ",", true
		}
	}
	return "", false
}

func (p *parser) parsePrimary(maxPrec int) (*Term, int, error) {
	tk := p.peek()
	switch tk.kind {
	case tokNumber:
		p.next()
		v, err := strconv.ParseFloat(tk.text, 64)
		if err != nil {
			return nil, 0, p.errorf(tk, "malformed number %q", tk.text)
		}
		return NewNumber(v), 0, nil

	case tokVariable:
		p.next()
		return NewVariable(tk.text), 0, nil

	case tokPunct:
		switch tk.text {
		case "(":
			p.next()
			t, _, err := p.parseExpr(1200)
			if err != nil {
				return nil, 0, err
			}
			if close := p.next(); close.kind != tokPunct || close.text != ")" {
				return nil, 0, p.errorf(close, "expected ')'")
			}
			return t, 0, nil
		case "[":
			return p.parseList()
		}
		return nil, 0, p.errorf(tk, "unexpected %q", tk.text)

	case tokAtom:
		p.next()
		name := tk.text
		// f(...) with the paren immediately following.
		if nx := p.peek(); nx.kind == tokPunct && nx.text == "(" && nx.pos == tk.pos+len(name) {
			p.next()
			args, err := p.parseArgs()
			if err != nil {
				return nil, 0, err
			}
			return NewCompound(name, args...), 0, nil
		}
		if op, found := p.ops.PrefixOp(name); found && op.Priority <= maxPrec && p.canStartTerm(p.peek()) {
			// Negative numeric literals fold into the number.
			if name == "-" {
				if nx := p.peek(); nx.kind == tokNumber {
					p.next()
					v, err := strconv.ParseFloat(nx.text, 64)
					if err != nil {
						return nil, 0, p.errorf(nx, "malformed number %q", nx.text)
					}
					return NewNumber(-v), 0, nil
				}
			}
			rightMax := op.Priority - 1
			if op.Assoc == AssocRight {
				rightMax = op.Priority
			}
			arg, _, err := p.parseExpr(rightMax)
			if err != nil {
				return nil, 0, err
			}
			return NewCompound(name, arg), op.Priority, nil
		}
		return NewAtom(name), 0, nil
	}
	return nil, 0, p.errorf(tk, "unexpected end of input")
}

// canStartTerm reports whether a token can begin a prefix operator operand.
func (p *parser) canStartTerm(tk token) bool {
	switch tk.kind {
	case tokNumber, tokVariable:
		return true
	case tokAtom:
		return true
	case tokPunct:
		return tk.text == "(" || tk.text == "["
	}
	return false
}

// parseArgs parses a comma-separated argument sequence up to the closing
// paren. Arguments parse at priority 999 so the argument separator is never
// captured by the conjunction operator.
func (p *parser) parseArgs() ([]*Term, error) {
	var args []*Term
	for {
		a, _, err := p.parseExpr(999)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		tk := p.next()
		if tk.kind != tokPunct {
			return nil, p.errorf(tk, "expected ',' or ')' in argument list")
		}
		switch tk.text {
		case ",":
			continue
		case ")":
			return args, nil
		default:
			return nil, p.errorf(tk, "expected ',' or ')' in argument list")
		}
	}
}

// parseList parses list syntax: [], [a,b,c], [H|T], [a,b|T].
func (p *parser) parseList() (*Term, int, error) {
	open := p.next() // consume '['
	if tk := p.peek(); tk.kind == tokPunct && tk.text == "]" {
		p.next()
		return EmptyList(), 0, nil
	}
	var elems []*Term
	var tail *Term
	for {
		e, _, err := p.parseExpr(999)
		if err != nil {
			return nil, 0, err
		}
		elems = append(elems, e)
		tk := p.next()
		if tk.kind != tokPunct {
			return nil, 0, p.errorf(tk, "expected ',', '|' or ']' in list")
		}
		switch tk.text {
		case ",":
			continue
		case "|":
			t, _, err := p.parseExpr(999)
			if err != nil {
				return nil, 0, err
			}
			tail = t
			if close := p.next(); close.kind != tokPunct || close.text != "]" {
				return nil, 0, p.errorf(close, "expected ']' after list tail")
			}
			return finishList(elems, tail), 0, nil
		case "]":
			return NewList(elems, nil), 0, nil
		default:
			return nil, 0, p.errorf(open, "unterminated list")
		}
	}
}

// finishList normalizes a parsed [..|Tail]: a literal list tail is spliced,
// the empty-list atom clears the tail, anything else is kept as the tail.
func finishList(elems []*Term, tail *Term) *Term {
	return normalizeList(elems, tail)
}
