package trace

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portray/internal/term"
	"portray/internal/unify"
)

// Options configures one reconstruction run.
type Options struct {
	// Operators is the operator table goal and clause text is parsed
	// with. Nil means the standard defaults.
	Operators *term.OperatorTable
	// Clauses is the source program's clause table, used for clause
	// number display. Nil means an empty table populated on the fly.
	Clauses *ClauseTable
	// MaxDepth truncates the tree: events at levels beyond it are
	// ignored after a single truncation marker.
	MaxDepth int
	// MaxSteps caps the number of created nodes, same truncation rule.
	MaxSteps int
	// AllSolutions keeps processing events after the first successful
	// exit of the level-0 goal. Off by default: the zero value stops at
	// the first solution and ignores later root retries.
	AllSolutions bool
	Logger       *zap.Logger
}

// Timeline is the finished reconstruction: the call tree plus the
// canonical flattened step list renderers cross-reference against.
type Timeline struct {
	RunID string
	// Attempts are the level-0 nodes in creation order; backtracking on
	// the query goal produces one per clause attempt.
	Attempts []*TimelineStep
	// Root is the resolved query attempt: the first successful one, or
	// the last attempt when none succeeded.
	Root *TimelineStep
	// Steps is the depth-first flattening of all attempts, numbered
	// contiguously in creation order.
	Steps     []*TimelineStep
	Truncated bool
	Warnings  []string
}

// StepByNumber resolves a canonical step number to its node.
func (tl *Timeline) StepByNumber(n int) (*TimelineStep, bool) {
	if n < 1 || n > len(tl.Steps) {
		return nil, false
	}
	return tl.Steps[n-1], true
}

// Builder consumes trace events in chronological order and reconstructs
// the call tree. It is single-threaded and synchronous: each event fully
// updates state before the next. Event order is a hard precondition; the
// LIFO frame discipline cannot survive reordering. Each run owns an
// independent Builder.
type Builder struct {
	opts    Options
	ops     *term.OperatorTable
	clauses *ClauseTable
	logger  *zap.Logger

	tracker  *FrameTracker
	attempts []*TimelineStep

	stepSeq int
	exitSeq int

	truncated          bool
	rootSolved         bool
	firstSolutionNoted bool
	finished           bool

	// lastClosed tracks the most recently completed node per level, the
	// anchor a retry event continues from.
	lastClosed map[int]*TimelineStep

	warnings []string
}

// NewBuilder returns a builder for one trace run.
func NewBuilder(opts Options) *Builder {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 64
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 10000
	}
	ops := opts.Operators
	if ops == nil {
		ops = term.DefaultOperators()
	}
	clauses := opts.Clauses
	if clauses == nil {
		clauses = NewClauseTable()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		opts:       opts,
		ops:        ops,
		clauses:    clauses,
		logger:     logger,
		tracker:    NewFrameTracker(),
		lastClosed: make(map[int]*TimelineStep),
	}
}

// Build consumes a full event sequence and finishes the timeline.
func (b *Builder) Build(events []TraceEvent) *Timeline {
	for _, ev := range events {
		b.Feed(ev)
	}
	return b.Finish()
}

// Feed consumes one event. Malformed events are skipped with a warning and
// never abort the run.
func (b *Builder) Feed(ev TraceEvent) {
	if b.finished {
		return
	}
	if err := ev.Validate(); err != nil {
		b.warn(fmt.Sprintf("skipping malformed event: %v", err),
			zap.String("goal", ev.Goal), zap.Int("level", ev.Level))
		return
	}
	switch ev.normalizedPort() {
	case PortEnter:
		b.enter(ev)
	case PortExit:
		b.exit(ev)
	case PortRetry:
		b.retry(ev)
	case PortFail:
		b.fail(ev)
	}
}

// Finish seals the run and produces the timeline. The tree is immutable
// from here on; further Feed calls are ignored.
func (b *Builder) Finish() *Timeline {
	b.finished = true
	var steps []*TimelineStep
	for _, a := range b.attempts {
		a.Walk(func(s *TimelineStep) {
			steps = append(steps, s)
		})
	}
	sortSteps(steps)
	tl := &Timeline{
		RunID:     uuid.NewString(),
		Attempts:  b.attempts,
		Root:      b.resolveRoot(),
		Steps:     steps,
		Truncated: b.truncated,
		Warnings:  b.warnings,
	}
	return tl
}

func (b *Builder) resolveRoot() *TimelineStep {
	if len(b.attempts) == 0 {
		return nil
	}
	for _, a := range b.attempts {
		if a.Status == StatusSuccess {
			return a
		}
	}
	return b.attempts[len(b.attempts)-1]
}

// sortSteps orders nodes by creation; step numbers are contiguous 1..N by
// construction, so this flattening is the canonical numbering renderers
// reference.
func sortSteps(steps []*TimelineStep) {
	sort.Slice(steps, func(i, j int) bool {
		return steps[i].StepNumber < steps[j].StepNumber
	})
}

// ---- port handlers ----

func (b *Builder) enter(ev TraceEvent) {
	if b.rootSolved && !b.opts.AllSolutions {
		return
	}
	if ev.Level > b.opts.MaxDepth || b.stepSeq >= b.opts.MaxSteps {
		b.markTruncated(ev)
		return
	}
	node := b.newStep(ev)
	b.attach(node, ev.Level)
	if ev.Clause != nil {
		b.applyClause(node, ev.Clause)
	}
	b.tracker.Push(ev.Level, node)
}

func (b *Builder) exit(ev TraceEvent) {
	if b.rootSolved && !b.opts.AllSolutions {
		return
	}
	if ev.Level > b.opts.MaxDepth {
		return
	}
	f, ok := b.tracker.PopMostRecent(ev.Level)
	if !ok {
		b.recoverUnmatched(ev)
		return
	}
	node := f.Node

	// Some interpreters only attach clause info on the matching exit;
	// back-fill the originating node.
	if node.Clause == nil && ev.Clause != nil {
		b.applyClause(node, ev.Clause)
	}

	exitTerm := b.parseGoal(node, ev.Goal)
	node.Result = exitTerm
	node.ResultText = ev.Goal
	if node.Goal != nil && exitTerm != nil {
		bindings, mm := unify.Unify(node.Goal, exitTerm)
		if mm != nil {
			node.AddNote(fmt.Sprintf("exit goal does not align with enter goal: %v", mm))
		} else {
			node.ResultBindings = bindings
		}
	}

	node.Status = StatusSuccess
	b.exitSeq++
	node.ExitStepNumber = b.exitSeq
	node.AddNote(fmt.Sprintf("returns to step %d", node.StepNumber))

	if parent := node.parent; parent != nil {
		parent.advancePast(node.ParentSubgoalLabel, node.StepNumber)
		if next := parent.CurrentSubgoalLabel(); next != "" {
			node.AddNote(fmt.Sprintf("control continues at %s", next))
		}
	}
	b.lastClosed[ev.Level] = node

	if ev.Level == 0 {
		b.rootSolved = true
	}
}

func (b *Builder) fail(ev TraceEvent) {
	if b.rootSolved && !b.opts.AllSolutions {
		return
	}
	if ev.Level > b.opts.MaxDepth {
		return
	}
	f, ok := b.tracker.PopMostRecent(ev.Level)
	if !ok {
		b.recoverUnmatched(ev)
		return
	}
	node := f.Node
	node.Status = StatusFailure
	b.exitSeq++
	node.ExitStepNumber = b.exitSeq
	if node.HeadMismatch != "" {
		node.AddNote("failed because the clause head did not match")
	}

	// Short-circuit law: once a subgoal fails, no later subgoal of the
	// same body is ever instantiated.
	if parent := node.parent; parent != nil {
		parent.shortCircuited = true
	}
	b.lastClosed[ev.Level] = node
}

func (b *Builder) retry(ev TraceEvent) {
	if b.rootSolved && !b.opts.AllSolutions {
		if ev.Level == 0 && !b.firstSolutionNoted && len(b.attempts) > 0 {
			b.attempts[len(b.attempts)-1].AddNote("only the first solution is shown")
			b.firstSolutionNoted = true
		}
		return
	}
	if ev.Level > b.opts.MaxDepth {
		return
	}
	prior := b.priorAttempt(ev)
	if prior == nil {
		b.recoverUnmatched(ev)
		return
	}
	if b.stepSeq >= b.opts.MaxSteps {
		b.markTruncated(ev)
		return
	}

	node := b.newStep(ev)
	node.RetryOf = prior.StepNumber
	node.AddNote(fmt.Sprintf("backtracking: retrying after attempt at step %d", prior.StepNumber))

	// The new attempt is a sibling of the prior one; the prior attempt
	// and its children stay untouched.
	if parent := prior.parent; parent != nil {
		parent.Children = append(parent.Children, node)
		node.parent = parent
		node.ParentSubgoalLabel = prior.ParentSubgoalLabel
		parent.shortCircuited = false
		parent.rewindTo(prior.ParentSubgoalLabel)
	} else {
		b.attempts = append(b.attempts, node)
	}

	if ev.Clause != nil {
		b.applyClause(node, ev.Clause)
	}
	b.tracker.Push(ev.Level, node)
}

// priorAttempt finds the node a retry event continues from. The most
// recently closed node at that level is the usual anchor, but a redo can
// target an earlier sibling: after "q succeeds, r fails, redo q", the last
// closed node is r while the retry goal is q. Match on predicate to find
// the right sibling.
func (b *Builder) priorAttempt(ev TraceEvent) *TimelineStep {
	prior := b.lastClosed[ev.Level]
	if prior == nil {
		return nil
	}
	pred := ev.Predicate
	if pred == "" {
		if t, err := term.Parse(ev.Goal, b.ops); err == nil {
			pred = t.Indicator()
		}
	}
	if pred == "" || prior.Predicate == pred {
		return prior
	}
	siblings := b.attempts
	if prior.parent != nil {
		siblings = prior.parent.Children
	}
	for i := len(siblings) - 1; i >= 0; i-- {
		s := siblings[i]
		if s.Level == ev.Level && s.Predicate == pred && s.ExitStepNumber != 0 {
			return s
		}
	}
	return prior
}

// ---- helpers ----

func (b *Builder) newStep(ev TraceEvent) *TimelineStep {
	b.stepSeq++
	node := &TimelineStep{
		StepNumber: b.stepSeq,
		GoalText:   ev.Goal,
		Predicate:  ev.Predicate,
		Level:      ev.Level,
		Status:     StatusPending,
	}
	node.Goal = b.parseGoal(node, ev.Goal)
	if node.Predicate == "" && node.Goal != nil {
		node.Predicate = node.Goal.Indicator()
	}
	return node
}

// parseGoal parses term text, degrading to raw text on failure.
func (b *Builder) parseGoal(node *TimelineStep, text string) *term.Term {
	t, err := term.Parse(text, b.ops)
	if err != nil {
		b.warn(fmt.Sprintf("goal text not parseable, showing raw text: %v", err),
			zap.String("goal", text), zap.Int("step", node.StepNumber))
		node.AddNote("goal shown as raw text (parse failed)")
		return nil
	}
	return t
}

// attach links a new node under the currently open frame one level up.
func (b *Builder) attach(node *TimelineStep, level int) {
	if level == 0 {
		b.attempts = append(b.attempts, node)
		return
	}
	f, ok := b.tracker.PeekMostRecent(level - 1)
	if !ok {
		b.warn(fmt.Sprintf("no open parent frame at level %d for step %d", level-1, node.StepNumber),
			zap.Int("level", level))
		node.AddNote("inconsistency: no open parent frame")
		if len(b.attempts) > 0 {
			last := b.attempts[len(b.attempts)-1]
			last.Children = append(last.Children, node)
			node.parent = last
		} else {
			b.attempts = append(b.attempts, node)
		}
		return
	}
	parent := f.Node
	parent.Children = append(parent.Children, node)
	node.parent = parent
	node.ParentSubgoalLabel = parent.CurrentSubgoalLabel()
}

// applyClause resolves clause info on a node: clause numbering, the
// pattern-match unification of goal against head, and the decomposed body.
func (b *Builder) applyClause(node *TimelineStep, ref *ClauseRef) {
	node.Clause = b.clauses.Resolve(ref)

	head, err := term.Parse(ref.Head, b.ops)
	if err != nil {
		b.warn(fmt.Sprintf("clause head not parseable: %v", err),
			zap.String("head", ref.Head), zap.Int("step", node.StepNumber))
		node.AddNote("clause head shown as raw text (parse failed)")
	} else if node.Goal != nil {
		bindings, mm := unify.Unify(head, node.Goal)
		if mm != nil {
			node.HeadMismatch = mm.Error()
			node.AddNote(fmt.Sprintf("clause head does not match goal: %v", mm))
		} else {
			node.PatternMatch = bindings
		}
	}

	if ref.Body == "" || ref.Body == "true" {
		return
	}
	body, err := term.Parse(ref.Body, b.ops)
	if err != nil {
		b.warn(fmt.Sprintf("clause body not parseable: %v", err),
			zap.String("body", ref.Body), zap.Int("step", node.StepNumber))
		node.AddNote("clause body shown as raw text (parse failed)")
		return
	}
	node.Subgoals = LabelSubgoals(node.StepNumber, body)
}

// recoverUnmatched synthesizes a placeholder for an exit/fail/retry that
// has no open frame: the tree keeps an explicit marker instead of dropping
// the event.
func (b *Builder) recoverUnmatched(ev TraceEvent) {
	b.warn(fmt.Sprintf("unmatched %s event at level %d", ev.normalizedPort(), ev.Level),
		zap.String("goal", ev.Goal))
	node := b.newStep(ev)
	node.Status = StatusRecovered
	b.exitSeq++
	node.ExitStepNumber = b.exitSeq
	node.AddNote(fmt.Sprintf("inconsistency: %s event with no open frame at level %d", ev.normalizedPort(), ev.Level))
	b.attach(node, ev.Level)
}

// markTruncated records the single truncation marker on first crossing of
// the depth or size limit. All later out-of-limit events are dropped.
func (b *Builder) markTruncated(ev TraceEvent) {
	if b.truncated {
		return
	}
	b.truncated = true
	note := fmt.Sprintf("depth limit %d reached; deeper calls omitted", b.opts.MaxDepth)
	if ev.Level <= b.opts.MaxDepth {
		note = fmt.Sprintf("step limit %d reached; further calls omitted", b.opts.MaxSteps)
	}
	if f, ok := b.tracker.PeekMostRecent(ev.Level - 1); ok {
		f.Node.AddNote(note)
	} else if len(b.attempts) > 0 {
		b.attempts[len(b.attempts)-1].AddNote(note)
	}
	b.warnings = append(b.warnings, note)
	b.logger.Warn(note, zap.Int("level", ev.Level))
}

func (b *Builder) warn(msg string, fields ...zap.Field) {
	b.warnings = append(b.warnings, msg)
	b.logger.Warn(msg, fields...)
}
