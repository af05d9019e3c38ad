package trace

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ClauseInfo describes one clause of the traced program.
type ClauseInfo struct {
	HeadText   string
	BodyText   string
	SourceLine int
	// ClauseNumber is the display number: the source line, with a dot
	// suffix when several clauses share a line ("26.2").
	ClauseNumber string
}

// ClauseTable maps source lines to the clauses declared there. Dot-notation
// numbering is maintained as clauses are added: a second clause on line 26
// renames the first to "26.1" and becomes "26.2".
type ClauseTable struct {
	byLine map[int][]*ClauseInfo
}

// NewClauseTable returns an empty table.
func NewClauseTable() *ClauseTable {
	return &ClauseTable{byLine: make(map[int][]*ClauseInfo)}
}

// Add registers a clause and returns its info with the number assigned.
func (t *ClauseTable) Add(head, body string, line int) *ClauseInfo {
	info := &ClauseInfo{HeadText: head, BodyText: body, SourceLine: line}
	existing := t.byLine[line]
	t.byLine[line] = append(existing, info)
	t.renumber(line)
	return info
}

func (t *ClauseTable) renumber(line int) {
	clauses := t.byLine[line]
	if len(clauses) == 1 {
		clauses[0].ClauseNumber = strconv.Itoa(line)
		return
	}
	for i, c := range clauses {
		c.ClauseNumber = fmt.Sprintf("%d.%d", line, i+1)
	}
}

// Lookup returns the clauses registered for a source line, in declaration
// order.
func (t *ClauseTable) Lookup(line int) []*ClauseInfo {
	return t.byLine[line]
}

// Resolve finds the clause on a line whose head text matches, registering
// the clause on the fly when the line is unknown. Trace events may mention
// clauses the table was never primed with; those still get stable numbers.
func (t *ClauseTable) Resolve(ref *ClauseRef) *ClauseInfo {
	if ref == nil {
		return nil
	}
	for _, c := range t.byLine[ref.SourceLine] {
		if c.HeadText == ref.Head {
			return c
		}
	}
	return t.Add(ref.Head, ref.Body, ref.SourceLine)
}

// Lines returns the registered source lines in ascending order.
func (t *ClauseTable) Lines() []int {
	lines := make([]int, 0, len(t.byLine))
	for l := range t.byLine {
		lines = append(lines, l)
	}
	sort.Ints(lines)
	return lines
}

// clauseDecl is the YAML shape of one clause table entry.
type clauseDecl struct {
	Line int    `yaml:"line"`
	Head string `yaml:"head"`
	Body string `yaml:"body"`
}

// ParseClausesYAML decodes a clause table from YAML, preserving declaration
// order for dot-numbering.
func ParseClausesYAML(data []byte) (*ClauseTable, error) {
	var decls []clauseDecl
	if err := yaml.Unmarshal(data, &decls); err != nil {
		return nil, fmt.Errorf("clause table: %w", err)
	}
	table := NewClauseTable()
	for i, d := range decls {
		if d.Head == "" {
			return nil, fmt.Errorf("clause table: entry %d has no head", i)
		}
		table.Add(d.Head, d.Body, d.Line)
	}
	return table, nil
}

// LoadClausesFile reads a clause table from a YAML file. An empty path
// yields an empty table.
func LoadClausesFile(path string) (*ClauseTable, error) {
	if path == "" {
		return NewClauseTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("clause table: %w", err)
	}
	return ParseClausesYAML(data)
}
