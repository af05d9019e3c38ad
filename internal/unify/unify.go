// Package unify implements positional structural unification over terms.
// A mismatch is not an error condition: it is the signal that a clause head
// does not match a goal, which is exactly what explains a failed clause
// attempt during backtracking.
package unify

import (
	"fmt"

	"portray/internal/term"
)

// Binding records that a variable was found to stand for a value.
type Binding struct {
	Variable string
	Value    *term.Term
}

func (b Binding) String() string {
	return b.Variable + " = " + b.Value.String()
}

// Mismatch describes the first structural conflict found while comparing
// two terms. No bindings escape a mismatched unification.
type Mismatch struct {
	Left  *term.Term
	Right *term.Term
	Path  string // argument path to the conflict, e.g. "member/2 arg 2"
}

func (m *Mismatch) Error() string {
	if m.Path == "" {
		return fmt.Sprintf("%s does not unify with %s", m.Left, m.Right)
	}
	return fmt.Sprintf("%s: %s does not unify with %s", m.Path, m.Left, m.Right)
}

// Unify structurally compares a against b. On success it returns the
// variable bindings discovered, in left-to-right positional order, with at
// most one binding per variable name. On any functor, arity, or constant
// conflict it returns a Mismatch and no bindings.
func Unify(a, b *term.Term) ([]Binding, *Mismatch) {
	var out []Binding
	seen := make(map[string]*term.Term)
	if mm := unify(a, b, "", &out, seen); mm != nil {
		return nil, mm
	}
	return out, nil
}

func unify(a, b *term.Term, path string, out *[]Binding, seen map[string]*term.Term) *Mismatch {
	if a == nil || b == nil {
		if a == b {
			return nil
		}
		return &Mismatch{Left: a, Right: b, Path: path}
	}

	// The anonymous variable is a wildcard: every occurrence matches
	// independently, nothing is recorded or checked.
	if a.Kind == term.KindVariable && a.Functor == "_" {
		return nil
	}
	if b.Kind == term.KindVariable && b.Functor == "_" {
		return nil
	}

	// Two variables: unresolved, succeed without fabricating a value.
	if a.Kind == term.KindVariable && b.Kind == term.KindVariable {
		return nil
	}
	if a.Kind == term.KindVariable {
		return bind(a.Functor, b, path, out, seen)
	}
	if b.Kind == term.KindVariable {
		return bind(b.Functor, a, path, out, seen)
	}

	switch {
	case a.Kind == term.KindAtom && b.Kind == term.KindAtom:
		if a.Functor != b.Functor {
			return &Mismatch{Left: a, Right: b, Path: path}
		}
		return nil

	case a.Kind == term.KindNumber && b.Kind == term.KindNumber:
		if a.Number != b.Number {
			return &Mismatch{Left: a, Right: b, Path: path}
		}
		return nil

	case a.Kind == term.KindCompound && b.Kind == term.KindCompound:
		if a.Functor != b.Functor || len(a.Args) != len(b.Args) {
			return &Mismatch{Left: a, Right: b, Path: path}
		}
		for i := range a.Args {
			sub := fmt.Sprintf("%s/%d arg %d", a.Functor, len(a.Args), i+1)
			if path != "" {
				sub = path + ", " + sub
			}
			if mm := unify(a.Args[i], b.Args[i], sub, out, seen); mm != nil {
				return mm
			}
		}
		return nil

	case a.Kind == term.KindList && b.Kind == term.KindList:
		return unifyLists(a, b, path, out, seen)

	// The empty-list atom and an empty proper list are the same value.
	case a.Kind == term.KindAtom && a.Functor == "[]" && b.Kind == term.KindList:
		if len(b.Elems) == 0 && b.Tail == nil {
			return nil
		}
		return &Mismatch{Left: a, Right: b, Path: path}
	case b.Kind == term.KindAtom && b.Functor == "[]" && a.Kind == term.KindList:
		if len(a.Elems) == 0 && a.Tail == nil {
			return nil
		}
		return &Mismatch{Left: a, Right: b, Path: path}
	}

	return &Mismatch{Left: a, Right: b, Path: path}
}

// unifyLists walks both element sequences in step, then reconciles the
// remainders against the tails. A variable tail absorbs whatever elements
// remain on the other side, which is what supports partial lists.
func unifyLists(a, b *term.Term, path string, out *[]Binding, seen map[string]*term.Term) *Mismatch {
	if len(a.Elems) == 0 && a.Tail == nil && len(b.Elems) == 0 && b.Tail == nil {
		return nil
	}
	n := len(a.Elems)
	if len(b.Elems) < n {
		n = len(b.Elems)
	}
	for i := 0; i < n; i++ {
		sub := fmt.Sprintf("list elem %d", i+1)
		if path != "" {
			sub = path + ", " + sub
		}
		if mm := unify(a.Elems[i], b.Elems[i], sub, out, seen); mm != nil {
			return mm
		}
	}

	restA := rest(a, n)
	restB := rest(b, n)
	sub := "list tail"
	if path != "" {
		sub = path + ", " + sub
	}
	// Both rests are lists only when at least one side is spent. Equal
	// spent sides agree; leftover elements against a spent proper list
	// are a length conflict no tail can absorb.
	if restA.Kind == term.KindList && restB.Kind == term.KindList {
		if len(restA.Elems) == 0 && restA.Tail == nil && len(restB.Elems) == 0 && restB.Tail == nil {
			return nil
		}
		return &Mismatch{Left: restA, Right: restB, Path: sub}
	}
	return unify(restA, restB, sub, out, seen)
}

// rest returns the remainder of a list after skipping n elements: either
// the remaining elements (plus tail), the bare tail, or nil for a spent
// proper list.
func rest(l *term.Term, n int) *term.Term {
	if n < len(l.Elems) {
		return term.NewList(l.Elems[n:], l.Tail)
	}
	if l.Tail != nil {
		return l.Tail
	}
	return term.EmptyList()
}

// bind records a binding. The first occurrence of a variable wins, keeping
// names unique within one batch; a reoccurrence must agree with the stored
// value, which is how a repeated head variable surfaces a conflict like
// member(X,[X|_]) against member(b,[a|_]).
func bind(name string, value *term.Term, path string, out *[]Binding, seen map[string]*term.Term) *Mismatch {
	if prior, ok := seen[name]; ok {
		return unify(prior, value, path, out, seen)
	}
	seen[name] = value
	*out = append(*out, Binding{Variable: name, Value: value})
	return nil
}

// AsMap converts a binding batch to a substitution map.
func AsMap(bindings []Binding) map[string]*term.Term {
	m := make(map[string]*term.Term, len(bindings))
	for _, b := range bindings {
		m[b.Variable] = b.Value
	}
	return m
}
