package trace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReadEventsSkipsMalformedLines(t *testing.T) {
	log := strings.Join([]string{
		`{"port":"enter","level":0,"goal":"append([1],[2],X)"}`,
		`# a comment line`,
		``,
		`{"port":"exit","level":0`, // truncated JSON
		`{"port":"warp","level":0,"goal":"nope(1)"}`,
		`{"port":"exit","level":0,"goal":"append([1],[2],[1,2])"}`,
	}, "\n")

	events, err := ReadEvents(strings.NewReader(log), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, PortEnter, events[0].Port)
	assert.Equal(t, PortExit, events[1].Port)
}

func TestReadEventsPortAliases(t *testing.T) {
	log := strings.Join([]string{
		`{"port":"call","level":0,"goal":"p(X)"}`,
		`{"port":"redo","level":0,"goal":"p(X)"}`,
	}, "\n")

	events, err := ReadEvents(strings.NewReader(log), nil)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, PortEnter, events[0].normalizedPort())
	assert.Equal(t, PortRetry, events[1].normalizedPort())
}

func TestEventValidate(t *testing.T) {
	cases := []struct {
		name string
		ev   TraceEvent
		ok   bool
	}{
		{"valid", TraceEvent{Port: "enter", Level: 0, Goal: "p(a)"}, true},
		{"alias port", TraceEvent{Port: "Call", Level: 2, Goal: "p(a)"}, true},
		{"unknown port", TraceEvent{Port: "side", Level: 0, Goal: "p(a)"}, false},
		{"negative level", TraceEvent{Port: "fail", Level: -1, Goal: "p(a)"}, false},
		{"blank goal", TraceEvent{Port: "exit", Level: 0, Goal: "  "}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ev.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestReadEventsClausePayload(t *testing.T) {
	log := `{"port":"enter","level":1,"goal":"append([],[2],Y)","clause":{"head":"append([],L,L)","line":26}}`
	events, err := ReadEvents(strings.NewReader(log), nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Clause)
	assert.Equal(t, "append([],L,L)", events[0].Clause.Head)
	assert.Equal(t, 26, events[0].Clause.SourceLine)
}
