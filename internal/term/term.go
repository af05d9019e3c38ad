// Package term models logic terms (atoms, numbers, variables, compounds,
// lists) and parses their textual form against a user-declared operator table.
package term

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind tags the variants of a Term.
type Kind int

const (
	KindAtom Kind = iota
	KindNumber
	KindVariable
	KindCompound
	KindList
)

// Term is a parsed logic term. Terms are immutable once constructed;
// transformations such as Substitute return fresh trees.
type Term struct {
	Kind    Kind
	Functor string  // atom name, variable name, or compound functor
	Number  float64 // valid when Kind == KindNumber
	Args    []*Term // compound arguments, in source order
	Elems   []*Term // list elements
	Tail    *Term   // list tail; nil means a proper list
}

// NewAtom returns an atom term.
func NewAtom(name string) *Term {
	return &Term{Kind: KindAtom, Functor: name}
}

// NewNumber returns a numeric term.
func NewNumber(v float64) *Term {
	return &Term{Kind: KindNumber, Number: v}
}

// NewVariable returns a variable term.
func NewVariable(name string) *Term {
	return &Term{Kind: KindVariable, Functor: name}
}

// NewCompound returns a compound term with the given functor and arguments.
func NewCompound(functor string, args ...*Term) *Term {
	return &Term{Kind: KindCompound, Functor: functor, Args: args}
}

// NewList returns a list term. A nil tail denotes a proper list.
func NewList(elems []*Term, tail *Term) *Term {
	return &Term{Kind: KindList, Elems: elems, Tail: tail}
}

// EmptyList returns the empty list [].
func EmptyList() *Term {
	return &Term{Kind: KindList}
}

// IsVariableName reports whether a token names a variable under the
// leading-uppercase-or-underscore convention.
func IsVariableName(s string) bool {
	if s == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || unicode.IsUpper(r)
}

// Arity returns the number of arguments for compounds, zero otherwise.
func (t *Term) Arity() int {
	if t == nil || t.Kind != KindCompound {
		return 0
	}
	return len(t.Args)
}

// Indicator returns the functor/arity form, e.g. "append/3".
func (t *Term) Indicator() string {
	switch t.Kind {
	case KindCompound:
		return t.Functor + "/" + strconv.Itoa(len(t.Args))
	case KindAtom:
		return t.Functor + "/0"
	default:
		return t.String()
	}
}

// Equal reports structural equality of two terms. Variables are equal only
// when their names match.
func Equal(a, b *Term) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindAtom, KindVariable:
		return a.Functor == b.Functor
	case KindNumber:
		return a.Number == b.Number
	case KindCompound:
		if a.Functor != b.Functor || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case KindList:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return Equal(a.Tail, b.Tail)
	}
	return false
}

// Variables returns the distinct variable names in t, in first-occurrence
// order.
func (t *Term) Variables() []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(x *Term)
	walk = func(x *Term) {
		if x == nil {
			return
		}
		switch x.Kind {
		case KindVariable:
			if !seen[x.Functor] {
				seen[x.Functor] = true
				out = append(out, x.Functor)
			}
		case KindCompound:
			for _, a := range x.Args {
				walk(a)
			}
		case KindList:
			for _, e := range x.Elems {
				walk(e)
			}
			walk(x.Tail)
		}
	}
	walk(t)
	return out
}

// HasVariable reports whether the named variable occurs anywhere in t.
func (t *Term) HasVariable(name string) bool {
	for _, v := range t.Variables() {
		if v == name {
			return true
		}
	}
	return false
}

// Substitute returns a copy of t with every occurrence of a mapped variable
// replaced by its value. When a list tail resolves to another list, the
// elements are spliced so [1|[2,3]] normalizes to [1,2,3].
func Substitute(t *Term, bindings map[string]*Term) *Term {
	if t == nil || len(bindings) == 0 {
		return t
	}
	switch t.Kind {
	case KindAtom, KindNumber:
		return t
	case KindVariable:
		if v, ok := bindings[t.Functor]; ok {
			return v
		}
		return t
	case KindCompound:
		args := make([]*Term, len(t.Args))
		for i, a := range t.Args {
			args[i] = Substitute(a, bindings)
		}
		return NewCompound(t.Functor, args...)
	case KindList:
		elems := make([]*Term, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = Substitute(e, bindings)
		}
		tail := Substitute(t.Tail, bindings)
		return normalizeList(elems, tail)
	}
	return t
}

// normalizeList splices a list-valued tail into the element slice.
func normalizeList(elems []*Term, tail *Term) *Term {
	for tail != nil && tail.Kind == KindList {
		elems = append(elems, tail.Elems...)
		tail = tail.Tail
	}
	if tail != nil && tail.Kind == KindAtom && tail.Functor == "[]" {
		tail = nil
	}
	return NewList(elems, tail)
}

// String renders the term in source-like notation. Binary compounds whose
// functor is symbolic (or one of the textual operators like "is" and "mod")
// render infix.
func (t *Term) String() string {
	return t.render(false)
}

// StringPartial renders the term with every variable shown as the hole
// marker "_", used for progressively-constructed value displays.
func (t *Term) StringPartial() string {
	return t.render(true)
}

func (t *Term) render(holes bool) string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case KindAtom:
		return t.Functor
	case KindNumber:
		return FormatNumber(t.Number)
	case KindVariable:
		if holes {
			return "_"
		}
		return t.Functor
	case KindCompound:
		if len(t.Args) == 2 && isOperatorFunctor(t.Functor) {
			return t.Args[0].render(holes) + " " + t.Functor + " " + t.Args[1].render(holes)
		}
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = a.render(holes)
		}
		return t.Functor + "(" + strings.Join(parts, ",") + ")"
	case KindList:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.render(holes)
		}
		if t.Tail != nil {
			return "[" + strings.Join(parts, ",") + "|" + t.Tail.render(holes) + "]"
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	return ""
}

// FormatNumber renders a numeric value without a trailing fraction for
// integral values.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// textualOperators are alphabetic functors conventionally written infix.
var textualOperators = map[string]bool{
	"is": true, "mod": true, "rem": true, "div": true, "xor": true,
}

func isOperatorFunctor(name string) bool {
	if name == "" {
		return false
	}
	if textualOperators[name] {
		return true
	}
	for _, r := range name {
		if !strings.ContainsRune(symbolChars, r) && r != ',' && r != ';' {
			return false
		}
	}
	return true
}

// SortedVariables returns the variable names of t sorted lexically.
// Useful for deterministic displays.
func SortedVariables(t *Term) []string {
	vars := t.Variables()
	sort.Strings(vars)
	return vars
}
