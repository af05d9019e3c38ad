// Package trace reconstructs a hierarchical call tree and a chronological
// step timeline from an ordered 4-port execution event log.
package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Port is one of the four execution-event kinds marking a goal's progress
// through resolution.
type Port string

const (
	PortEnter Port = "enter"
	PortExit  Port = "exit"
	PortRetry Port = "retry"
	PortFail  Port = "fail"
)

// portAliases maps the classic box-model port names onto ours.
var portAliases = map[string]Port{
	"enter": PortEnter,
	"call":  PortEnter,
	"exit":  PortExit,
	"retry": PortRetry,
	"redo":  PortRetry,
	"fail":  PortFail,
}

// ClauseRef is the clause information an event may carry: the matched
// clause's head and body text plus its source line.
type ClauseRef struct {
	Head       string `json:"head"`
	Body       string `json:"body,omitempty"`
	SourceLine int    `json:"line"`
}

// TraceEvent is one record of the externally captured event log. Events are
// consumed read-only and never mutated.
type TraceEvent struct {
	Port      Port       `json:"port"`
	Level     int        `json:"level"`
	Goal      string     `json:"goal"`
	Predicate string     `json:"predicate"`
	Arguments []string   `json:"arguments,omitempty"`
	Clause    *ClauseRef `json:"clause,omitempty"`
}

// Validate checks the required fields of the input contract.
func (e TraceEvent) Validate() error {
	if _, ok := portAliases[strings.ToLower(string(e.Port))]; !ok {
		return fmt.Errorf("unknown port %q", e.Port)
	}
	if e.Level < 0 {
		return fmt.Errorf("negative level %d", e.Level)
	}
	if strings.TrimSpace(e.Goal) == "" {
		return fmt.Errorf("missing goal text")
	}
	return nil
}

// normalizedPort resolves port aliases (call, redo) to the canonical names.
func (e TraceEvent) normalizedPort() Port {
	return portAliases[strings.ToLower(string(e.Port))]
}

// ReadEvents decodes a JSON-Lines event log. Malformed lines and events
// missing required fields are skipped with a warning; they never abort the
// read.
func ReadEvents(r io.Reader, logger *zap.Logger) ([]TraceEvent, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var events []TraceEvent
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var ev TraceEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			logger.Warn("skipping malformed event line",
				zap.Int("line", lineNo),
				zap.Error(err))
			continue
		}
		if err := ev.Validate(); err != nil {
			logger.Warn("skipping invalid event",
				zap.Int("line", lineNo),
				zap.Error(err))
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("reading event log: %w", err)
	}
	return events, nil
}
