package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClauseNumberingSingle(t *testing.T) {
	table := NewClauseTable()
	c := table.Add("append([],L,L)", "", 26)
	assert.Equal(t, "26", c.ClauseNumber)
}

func TestClauseNumberingDotNotationOnSharedLine(t *testing.T) {
	table := NewClauseTable()
	first := table.Add("p(a)", "", 26)
	second := table.Add("p(b)", "", 26)

	// The first clause is renamed once a line-mate appears.
	assert.Equal(t, "26.1", first.ClauseNumber)
	assert.Equal(t, "26.2", second.ClauseNumber)

	third := table.Add("p(c)", "", 26)
	assert.Equal(t, "26.3", third.ClauseNumber)
}

func TestClauseResolveRegistersUnknown(t *testing.T) {
	table := NewClauseTable()
	info := table.Resolve(&ClauseRef{Head: "member(X,[X|_])", SourceLine: 12})
	require.NotNil(t, info)
	assert.Equal(t, "12", info.ClauseNumber)

	// Resolving the same head again returns the same entry.
	again := table.Resolve(&ClauseRef{Head: "member(X,[X|_])", SourceLine: 12})
	assert.Same(t, info, again)

	// A different head on the same line becomes a dot-numbered sibling.
	other := table.Resolve(&ClauseRef{Head: "member(X,[_|T])", SourceLine: 12})
	assert.Equal(t, "12.1", info.ClauseNumber)
	assert.Equal(t, "12.2", other.ClauseNumber)
}

func TestParseClausesYAML(t *testing.T) {
	table, err := ParseClausesYAML([]byte(`
- line: 26
  head: "append([],L,L)"
- line: 27
  head: "append([H|T],L,[H|R])"
  body: "append(T,L,R)"
`))
	require.NoError(t, err)
	assert.Len(t, table.Lines(), 2)
	clauses := table.Lookup(27)
	require.Len(t, clauses, 1)
	assert.Equal(t, "append(T,L,R)", clauses[0].BodyText)
}

func TestParseClausesYAMLRejectsMissingHead(t *testing.T) {
	_, err := ParseClausesYAML([]byte(`[{line: 3}]`))
	assert.Error(t, err)
}
