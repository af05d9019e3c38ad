package render

import (
	"encoding/json"

	"portray/internal/trace"
)

type jsonSubgoal struct {
	Label        string `json:"label"`
	Template     string `json:"template"`
	Instantiated string `json:"instantiated,omitempty"`
	Provenance   string `json:"provenance,omitempty"`
	BoundAtStep  int    `json:"bound_at_step,omitempty"`
}

type jsonBinding struct {
	Variable string `json:"variable"`
	Value    string `json:"value"`
}

type jsonNode struct {
	Step               int           `json:"step"`
	ExitStep           int           `json:"exit_step,omitempty"`
	Goal               string        `json:"goal"`
	Predicate          string        `json:"predicate,omitempty"`
	Level              int           `json:"level"`
	Status             string        `json:"status"`
	Clause             string        `json:"clause,omitempty"`
	PatternMatch       []jsonBinding `json:"pattern_match,omitempty"`
	HeadMismatch       string        `json:"head_mismatch,omitempty"`
	Subgoals           []jsonSubgoal `json:"subgoals,omitempty"`
	Result             string        `json:"result,omitempty"`
	ResultBindings     []jsonBinding `json:"result_bindings,omitempty"`
	ParentSubgoalLabel string        `json:"parent_subgoal,omitempty"`
	RetryOf            int           `json:"retry_of,omitempty"`
	Notes              []string      `json:"notes,omitempty"`
	Children           []*jsonNode   `json:"children,omitempty"`
}

type jsonTimeline struct {
	RunID     string      `json:"run_id"`
	Truncated bool        `json:"truncated,omitempty"`
	Steps     int         `json:"steps"`
	Warnings  []string    `json:"warnings,omitempty"`
	Attempts  []*jsonNode `json:"attempts"`
}

// JSON renders the timeline as an indented JSON document mirroring the
// tree structure.
func JSON(tl *trace.Timeline) ([]byte, error) {
	doc := jsonTimeline{
		RunID:     tl.RunID,
		Truncated: tl.Truncated,
		Steps:     len(tl.Steps),
		Warnings:  tl.Warnings,
	}
	for _, a := range tl.Attempts {
		doc.Attempts = append(doc.Attempts, convertNode(a))
	}
	return json.MarshalIndent(doc, "", "  ")
}

func convertNode(n *trace.TimelineStep) *jsonNode {
	jn := &jsonNode{
		Step:               n.StepNumber,
		ExitStep:           n.ExitStepNumber,
		Goal:               n.GoalText,
		Predicate:          n.Predicate,
		Level:              n.Level,
		Status:             string(n.Status),
		HeadMismatch:       n.HeadMismatch,
		Result:             n.ResultText,
		ParentSubgoalLabel: n.ParentSubgoalLabel,
		RetryOf:            n.RetryOf,
		Notes:              n.Notes,
	}
	if n.Clause != nil {
		jn.Clause = n.Clause.ClauseNumber
	}
	for _, b := range n.PatternMatch {
		jn.PatternMatch = append(jn.PatternMatch, jsonBinding{b.Variable, b.Value.String()})
	}
	for _, b := range n.ResultBindings {
		jn.ResultBindings = append(jn.ResultBindings, jsonBinding{b.Variable, b.Value.String()})
	}
	for _, sg := range n.Subgoals {
		jn.Subgoals = append(jn.Subgoals, jsonSubgoal{
			Label:        sg.Label,
			Template:     sg.Text,
			Instantiated: sg.Instantiated,
			Provenance:   sg.Provenance,
			BoundAtStep:  sg.BoundAtStep,
		})
	}
	for _, c := range n.Children {
		jn.Children = append(jn.Children, convertNode(c))
	}
	return jn
}
