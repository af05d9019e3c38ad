// Package render turns a finished timeline into the forms external
// consumers take: an ASCII call tree, nested JSON, and Mangle facts. All
// renderers treat the timeline as read-only.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"portray/internal/trace"
)

// Semantic status colors.
var (
	successColor   = lipgloss.Color("#8BC34A")
	failureColor   = lipgloss.Color("#e53935")
	recoveredColor = lipgloss.Color("#FFC107")
	pendingColor   = lipgloss.Color("#2196F3")
	mutedColor     = lipgloss.Color("#808080")
)

// Styles holds the tree renderer's text styles. Zero value renders plain;
// DefaultStyles enables color.
type Styles struct {
	Enabled   bool
	Success   lipgloss.Style
	Failure   lipgloss.Style
	Recovered lipgloss.Style
	Pending   lipgloss.Style
	Muted     lipgloss.Style
}

// DefaultStyles returns the colored style set.
func DefaultStyles() Styles {
	return Styles{
		Enabled:   true,
		Success:   lipgloss.NewStyle().Foreground(successColor),
		Failure:   lipgloss.NewStyle().Foreground(failureColor).Bold(true),
		Recovered: lipgloss.NewStyle().Foreground(recoveredColor),
		Pending:   lipgloss.NewStyle().Foreground(pendingColor),
		Muted:     lipgloss.NewStyle().Foreground(mutedColor),
	}
}

func (st Styles) forStatus(s trace.Status) lipgloss.Style {
	switch s {
	case trace.StatusSuccess:
		return st.Success
	case trace.StatusFailure:
		return st.Failure
	case trace.StatusRecovered:
		return st.Recovered
	default:
		return st.Pending
	}
}

func (st Styles) apply(style lipgloss.Style, s string) string {
	if !st.Enabled {
		return s
	}
	return style.Render(s)
}

// statusGlyph marks a step's outcome in the tree.
func statusGlyph(s trace.Status) string {
	switch s {
	case trace.StatusSuccess:
		return "✓"
	case trace.StatusFailure:
		return "✗"
	case trace.StatusRecovered:
		return "?"
	default:
		return "…"
	}
}

// ASCII renders the timeline as an indented call tree.
func ASCII(tl *trace.Timeline, st Styles) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Trace %s\n", tl.RunID))
	sb.WriteString(fmt.Sprintf("Steps: %d\n", len(tl.Steps)))
	if tl.Truncated {
		sb.WriteString("(truncated)\n")
	}
	sb.WriteString(strings.Repeat("=", 60) + "\n")

	for i, attempt := range tl.Attempts {
		if len(tl.Attempts) > 1 {
			sb.WriteString(fmt.Sprintf("\nAttempt %d:\n", i+1))
		}
		renderNode(&sb, attempt, st, "", true)
	}

	for _, w := range tl.Warnings {
		sb.WriteString(st.apply(st.Muted, "warning: "+w) + "\n")
	}
	return sb.String()
}

func renderNode(sb *strings.Builder, node *trace.TimelineStep, st Styles, prefix string, isLast bool) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}
	if prefix == "" {
		connector = ""
	}

	line := fmt.Sprintf("[%d] %s %s", node.StepNumber, node.GoalText, statusGlyph(node.Status))
	if node.ExitStepNumber > 0 {
		line += fmt.Sprintf(" exit#%d", node.ExitStepNumber)
	}
	if node.Clause != nil {
		line += fmt.Sprintf(" clause %s", node.Clause.ClauseNumber)
	}
	if node.RetryOf > 0 {
		line += fmt.Sprintf(" (retry of %d)", node.RetryOf)
	}
	sb.WriteString(prefix + connector + st.apply(st.forStatus(node.Status), line) + "\n")

	childPrefix := prefix
	if prefix != "" {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	} else {
		childPrefix = "    "
	}

	for _, b := range node.PatternMatch {
		sb.WriteString(childPrefix + st.apply(st.Muted, b.String()) + "\n")
	}
	for _, sg := range node.Subgoals {
		line := sg.Label + " " + sg.Text
		if sg.Instantiated != "" && sg.Instantiated != sg.Text {
			line += "  →  " + sg.Instantiated
			if sg.Provenance != "" {
				line += "  (" + sg.Provenance + ")"
			}
		}
		sb.WriteString(childPrefix + st.apply(st.Muted, line) + "\n")
	}
	for _, n := range node.Notes {
		sb.WriteString(childPrefix + st.apply(st.Muted, "· "+n) + "\n")
	}

	for i, c := range node.Children {
		renderNode(sb, c, st, childPrefix, i == len(node.Children)-1)
	}
}
