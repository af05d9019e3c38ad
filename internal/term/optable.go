package term

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixity places an operator relative to its operands.
type Fixity int

const (
	Prefix Fixity = iota
	Infix
	Postfix
)

// Assoc describes which operand may carry the operator's own priority.
type Assoc int

const (
	AssocNone  Assoc = iota // xfx: neither side
	AssocLeft               // yfx: left side
	AssocRight              // xfy: right side
)

// Operator is one user-declared operator.
type Operator struct {
	Name     string
	Priority int // 1..1200, lower binds tighter
	Fixity   Fixity
	Assoc    Assoc
}

// OperatorTable resolves operator names by fixity. At most one definition
// per (name, fixity) pair; later Add calls overwrite earlier ones.
type OperatorTable struct {
	prefix  map[string]Operator
	infix   map[string]Operator
	postfix map[string]Operator
}

// NewOperatorTable returns an empty table.
func NewOperatorTable() *OperatorTable {
	return &OperatorTable{
		prefix:  make(map[string]Operator),
		infix:   make(map[string]Operator),
		postfix: make(map[string]Operator),
	}
}

// DefaultOperators returns the standard operator set goal and clause text
// is written in. User declarations layer on top via Add.
func DefaultOperators() *OperatorTable {
	t := NewOperatorTable()
	std := []Operator{
		{":-", 1200, Infix, AssocNone},
		{"-->", 1200, Infix, AssocNone},
		{":-", 1200, Prefix, AssocNone},
		{"?-", 1200, Prefix, AssocNone},
		{";", 1100, Infix, AssocRight},
		{"->", 1050, Infix, AssocRight},
		{",", 1000, Infix, AssocRight},
		{"\\+", 900, Prefix, AssocRight},
		{"=", 700, Infix, AssocNone},
		{"\\=", 700, Infix, AssocNone},
		{"==", 700, Infix, AssocNone},
		{"\\==", 700, Infix, AssocNone},
		{"is", 700, Infix, AssocNone},
		{"=..", 700, Infix, AssocNone},
		{"<", 700, Infix, AssocNone},
		{">", 700, Infix, AssocNone},
		{"=<", 700, Infix, AssocNone},
		{">=", 700, Infix, AssocNone},
		{"=:=", 700, Infix, AssocNone},
		{"=\\=", 700, Infix, AssocNone},
		{"+", 500, Infix, AssocLeft},
		{"-", 500, Infix, AssocLeft},
		{"/\\", 500, Infix, AssocLeft},
		{"\\/", 500, Infix, AssocLeft},
		{"*", 400, Infix, AssocLeft},
		{"/", 400, Infix, AssocLeft},
		{"//", 400, Infix, AssocLeft},
		{"mod", 400, Infix, AssocLeft},
		{"rem", 400, Infix, AssocLeft},
		{"<<", 400, Infix, AssocLeft},
		{">>", 400, Infix, AssocLeft},
		{"**", 200, Infix, AssocNone},
		{"^", 200, Infix, AssocRight},
		{"-", 200, Prefix, AssocRight},
		{"+", 200, Prefix, AssocRight},
	}
	for _, op := range std {
		t.Add(op)
	}
	return t
}

// Add declares or redefines an operator.
func (t *OperatorTable) Add(op Operator) {
	switch op.Fixity {
	case Prefix:
		t.prefix[op.Name] = op
	case Infix:
		t.infix[op.Name] = op
	case Postfix:
		t.postfix[op.Name] = op
	}
}

// InfixOp looks up an infix operator by name.
func (t *OperatorTable) InfixOp(name string) (Operator, bool) {
	op, ok := t.infix[name]
	return op, ok
}

// PrefixOp looks up a prefix operator by name.
func (t *OperatorTable) PrefixOp(name string) (Operator, bool) {
	op, ok := t.prefix[name]
	return op, ok
}

// PostfixOp looks up a postfix operator by name.
func (t *OperatorTable) PostfixOp(name string) (Operator, bool) {
	op, ok := t.postfix[name]
	return op, ok
}

// IsOperator reports whether the name is declared under any fixity.
func (t *OperatorTable) IsOperator(name string) bool {
	_, p := t.prefix[name]
	_, i := t.infix[name]
	_, q := t.postfix[name]
	return p || i || q
}

// operatorDecl is the YAML shape of one operator declaration.
type operatorDecl struct {
	Name     string `yaml:"name"`
	Priority int    `yaml:"priority"`
	Fixity   string `yaml:"fixity"` // prefix | infix | postfix
	Assoc    string `yaml:"assoc"`  // none | left | right
}

// ParseOperatorsYAML decodes user operator declarations from YAML.
func ParseOperatorsYAML(data []byte) ([]Operator, error) {
	var decls []operatorDecl
	if err := yaml.Unmarshal(data, &decls); err != nil {
		return nil, fmt.Errorf("operator table: %w", err)
	}
	ops := make([]Operator, 0, len(decls))
	for i, d := range decls {
		if d.Name == "" {
			return nil, fmt.Errorf("operator table: entry %d has no name", i)
		}
		if d.Priority < 1 || d.Priority > 1200 {
			return nil, fmt.Errorf("operator table: %q has priority %d, want 1..1200", d.Name, d.Priority)
		}
		op := Operator{Name: d.Name, Priority: d.Priority}
		switch d.Fixity {
		case "prefix":
			op.Fixity = Prefix
		case "infix", "":
			op.Fixity = Infix
		case "postfix":
			op.Fixity = Postfix
		default:
			return nil, fmt.Errorf("operator table: %q has unknown fixity %q", d.Name, d.Fixity)
		}
		switch d.Assoc {
		case "left":
			op.Assoc = AssocLeft
		case "right":
			op.Assoc = AssocRight
		case "none", "":
			op.Assoc = AssocNone
		default:
			return nil, fmt.Errorf("operator table: %q has unknown assoc %q", d.Name, d.Assoc)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// LoadOperatorsFile reads operator declarations from a YAML file and layers
// them over the default table.
func LoadOperatorsFile(path string) (*OperatorTable, error) {
	table := DefaultOperators()
	if path == "" {
		return table, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("operator table: %w", err)
	}
	ops, err := ParseOperatorsYAML(data)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		table.Add(op)
	}
	return table, nil
}
