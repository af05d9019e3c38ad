package term

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, text string) *Term {
	t.Helper()
	parsed, err := Parse(text, nil)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", text, err)
	}
	return parsed
}

func TestParseAtomsNumbersVariables(t *testing.T) {
	cases := []struct {
		text string
		want *Term
	}{
		{"foo", NewAtom("foo")},
		{"fooBar_99", NewAtom("fooBar_99")},
		{"42", NewNumber(42)},
		{"3.14", NewNumber(3.14)},
		{"X", NewVariable("X")},
		{"_Acc", NewVariable("_Acc")},
		{"_", NewVariable("_")},
		{"'quoted atom'", NewAtom("quoted atom")},
	}
	for _, tc := range cases {
		got := mustParse(t, tc.text)
		if !Equal(got, tc.want) {
			t.Errorf("Parse(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestParseNestedCompound(t *testing.T) {
	got := mustParse(t, "f(a,g(b,c))")
	want := NewCompound("f", NewAtom("a"), NewCompound("g", NewAtom("b"), NewAtom("c")))
	if !Equal(got, want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestParseLists(t *testing.T) {
	cases := []struct {
		text string
		want *Term
	}{
		{"[]", EmptyList()},
		{"[a,b,c]", NewList([]*Term{NewAtom("a"), NewAtom("b"), NewAtom("c")}, nil)},
		{"[H|T]", NewList([]*Term{NewVariable("H")}, NewVariable("T"))},
		{"[1,2|T]", NewList([]*Term{NewNumber(1), NewNumber(2)}, NewVariable("T"))},
		// A literal list tail splices into a proper list.
		{"[1|[2,3]]", NewList([]*Term{NewNumber(1), NewNumber(2), NewNumber(3)}, nil)},
	}
	for _, tc := range cases {
		got := mustParse(t, tc.text)
		if !Equal(got, tc.want) {
			t.Errorf("Parse(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestParseLeftAssociativeChain(t *testing.T) {
	// + is yfx: 1+2+3 nests as (1+2)+3.
	got := mustParse(t, "1+2+3")
	want := NewCompound("+", NewCompound("+", NewNumber(1), NewNumber(2)), NewNumber(3))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("1+2+3 nesting mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRightAssociativeChain(t *testing.T) {
	// ^ is xfy: a^b^c nests as a^(b^c).
	got := mustParse(t, "a^b^c")
	want := NewCompound("^", NewAtom("a"), NewCompound("^", NewAtom("b"), NewAtom("c")))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("a^b^c nesting mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePriorityOrdering(t *testing.T) {
	// * binds tighter than +: 1+2*3 is +(1, *(2,3)).
	got := mustParse(t, "1+2*3")
	want := NewCompound("+", NewNumber(1), NewCompound("*", NewNumber(2), NewNumber(3)))
	if !Equal(got, want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestParseClauseNeck(t *testing.T) {
	got := mustParse(t, "factorial(N,F) :- N > 0, N1 is N - 1.")
	if got.Kind != KindCompound || got.Functor != ":-" || len(got.Args) != 2 {
		t.Fatalf("expected :-/2 at top, got %s", got)
	}
	body := got.Args[1]
	if body.Functor != "," {
		t.Errorf("expected conjunction body, got %s", body)
	}
}

func TestParseCommaInsideArgsStaysAnArgumentSeparator(t *testing.T) {
	got := mustParse(t, "f(a,b)")
	if len(got.Args) != 2 {
		t.Fatalf("f(a,b) should have 2 args, got %d in %s", len(got.Args), got)
	}
}

func TestParsePrefixMinus(t *testing.T) {
	got := mustParse(t, "-5")
	if !Equal(got, NewNumber(-5)) {
		t.Errorf("got %s, want -5", got)
	}
	got = mustParse(t, "-(X)")
	want := NewCompound("-", NewVariable("X"))
	if !Equal(got, want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestParseUserDeclaredOperator(t *testing.T) {
	ops := DefaultOperators()
	ops.Add(Operator{Name: "===>", Priority: 800, Fixity: Infix, Assoc: AssocRight})
	got, err := Parse("a ===> b ===> c", ops)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := NewCompound("===>", NewAtom("a"), NewCompound("===>", NewAtom("b"), NewAtom("c")))
	if !Equal(got, want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestParseErrorCarriesPosition(t *testing.T) {
	_, err := Parse("f(a,", nil)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Pos <= 0 {
		t.Errorf("expected a positive error position, got %d", pe.Pos)
	}
}

func TestParseErrorOnTrailingGarbage(t *testing.T) {
	_, err := Parse("foo bar", nil)
	if err == nil {
		t.Fatal("expected a parse error for two adjacent terms")
	}
}

func TestParseOperatorsYAML(t *testing.T) {
	ops, err := ParseOperatorsYAML([]byte(`
- name: "==>"
  priority: 900
  fixity: infix
  assoc: right
- name: "not"
  priority: 900
  fixity: prefix
`))
	if err != nil {
		t.Fatalf("ParseOperatorsYAML() error = %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("expected 2 operators, got %d", len(ops))
	}
	if ops[0].Assoc != AssocRight || ops[0].Fixity != Infix {
		t.Errorf("first operator decoded wrong: %+v", ops[0])
	}
	if ops[1].Fixity != Prefix {
		t.Errorf("second operator decoded wrong: %+v", ops[1])
	}
}

func TestParseOperatorsYAMLRejectsBadPriority(t *testing.T) {
	_, err := ParseOperatorsYAML([]byte(`[{name: "x", priority: 4000}]`))
	if err == nil {
		t.Fatal("expected an error for out-of-range priority")
	}
}
