package plan

import (
	"github.com/google/uuid"

	"docplan/internal/doc"
)

// compiledMutation pairs a mutation step with the targets its selector
// resolved to at compile time.
type compiledMutation struct {
	step    MutationStep
	targets []CompiledTarget
}

// compiledItem preserves the plan's declaration order across mutation and
// assert steps.
type compiledItem struct {
	mutation *compiledMutation
	assert   *AssertStep
}

// CompiledPlan is a plan bound to one document snapshot. Executing it
// against a document whose revision moved since compilation is rejected.
type CompiledPlan struct {
	items       []compiledItem
	revision    doc.Revision
	mode        doc.ChangeMode
	author      string
	expectedRev *doc.Revision
}

// Revision returns the document revision the plan was compiled against.
func (cp *CompiledPlan) Revision() doc.Revision { return cp.revision }

// Compile resolves every mutation step's selector against the committed
// tree, applies cardinality rules, builds range/span targets and captures
// style eagerly. Assert steps are recorded untouched; they re-resolve at
// execution time against the mutated tree.
func (e *Engine) Compile(d *doc.Document, p Plan) (*CompiledPlan, error) {
	index := BuildIndex(d.Schema(), d.Root())
	m := newMatcher(d.Schema(), index, e.patternLimit)
	resolver := NewStyleResolver(d.Schema())

	cp := &CompiledPlan{
		revision:    d.Revision(),
		mode:        e.defaultMode,
		author:      p.Author,
		expectedRev: p.ExpectedRevision,
	}
	if p.ChangeMode != nil {
		cp.mode = *p.ChangeMode
	}
	if len(p.Steps) == 0 {
		return nil, newError(CodeInvalidInput, "", "plan has no steps")
	}

	for i, item := range p.Steps {
		switch {
		case item.Assert != nil:
			cp.items = append(cp.items, compiledItem{assert: item.Assert})
		case item.Mutation != nil:
			step := item.Mutation
			if err := validateStep(step); err != nil {
				return nil, err
			}
			targets, err := e.compileTargets(m, resolver, step)
			if err != nil {
				return nil, err
			}
			cp.items = append(cp.items, compiledItem{
				mutation: &compiledMutation{step: *step, targets: targets},
			})
		default:
			return nil, newError(CodeInvalidInput, "", "step %d is neither mutation nor assert", i)
		}
	}
	return cp, nil
}

func validateStep(step *MutationStep) error {
	if step.Op >= opCount {
		return newError(CodeInvalidInput, step.ID, "unknown op")
	}
	if step.Args.All && step.Where.Occurrence > 0 {
		return newError(CodeInvalidInput, step.ID, "all and occurrence are mutually exclusive")
	}
	switch step.Op {
	case OpTextInsert:
		if step.Args.Text == "" {
			return newError(CodeInvalidInput, step.ID, "text.insert requires text")
		}
		if err := checkPlacement(step); err != nil {
			return err
		}
	case OpCreateParagraph, OpCreateHeading:
		if err := checkPlacement(step); err != nil {
			return err
		}
		if step.Op == OpCreateHeading && (step.Args.Level < 0 || step.Args.Level > 6) {
			return newError(CodeInvalidInput, step.ID, "heading level %d out of range", step.Args.Level)
		}
	}
	return nil
}

func checkPlacement(step *MutationStep) error {
	switch step.Args.Placement {
	case PlaceBefore, PlaceAfter, "":
		return nil
	default:
		return newError(CodeInvalidInput, step.ID, "unknown placement %q", step.Args.Placement)
	}
}

// compileTargets resolves a step's selector, enforces cardinality and
// builds its compiled targets.
func (e *Engine) compileTargets(m *matcher, resolver *StyleResolver, step *MutationStep) ([]CompiledTarget, error) {
	matches, err := m.matchSelector(step.Where, true)
	if err != nil {
		return nil, attachStep(err, step.ID)
	}

	switch {
	case len(matches) == 0:
		return nil, newError(CodeTargetNotFound, step.ID, "selector matched nothing")
	case step.Args.All:
		// every match
	case step.Where.Occurrence > 0:
		n := step.Where.Occurrence
		if n > len(matches) {
			return nil, newError(CodeTargetNotFound, step.ID,
				"occurrence %d of %d matches", n, len(matches)).
				withDetail("occurrence", n).withDetail("matchCount", len(matches))
		}
		matches = matches[n-1 : n]
	case len(matches) > 1:
		return nil, newError(CodeAmbiguousTarget, step.ID,
			"selector matched %d candidates where exactly one was required", len(matches)).
			withDetail("matchCount", len(matches))
	}

	capture := stepCapturesStyle(step.Op)
	targets := make([]CompiledTarget, 0, len(matches))
	for _, match := range matches {
		targets = append(targets, buildTarget(resolver, match, capture))
	}
	return targets, nil
}

// stepCapturesStyle reports whether the op needs eager style capture so
// execution never re-reads text after positions shift.
func stepCapturesStyle(op Op) bool {
	switch op {
	case OpTextRewrite, OpFormatApply, OpTextInsert:
		return true
	}
	return false
}

func buildTarget(resolver *StyleResolver, match rawMatch, capture bool) CompiledTarget {
	if !match.crossBlock() {
		seg := match.segs[0]
		t := RangeTarget{
			BlockID: seg.info.ID,
			From:    seg.info.Start + seg.relFrom,
			To:      seg.info.Start + seg.relTo,
			RelFrom: seg.relFrom,
			RelTo:   seg.relTo,
			Text:    runeSlice(seg.info.Node.InlineText(), seg.relFrom, seg.relTo),
		}
		if capture {
			t.Style = resolver.CaptureRuns(seg.info.Node, seg.relFrom, seg.relTo)
		}
		return t
	}

	span := SpanTarget{MatchID: uuid.NewString()}
	for _, seg := range match.segs {
		s := SpanSegment{
			BlockID: seg.info.ID,
			From:    seg.info.Start + seg.relFrom,
			To:      seg.info.Start + seg.relTo,
			Text:    runeSlice(seg.info.Node.InlineText(), seg.relFrom, seg.relTo),
		}
		if capture {
			s.Style = resolver.CaptureRuns(seg.info.Node, seg.relFrom, seg.relTo)
		}
		span.Segments = append(span.Segments, s)
	}
	span.Gaps = make([]int, len(span.Segments)-1)
	for i := range span.Gaps {
		span.Gaps[i] = span.Segments[i+1].From - span.Segments[i].To
	}
	return span
}

func attachStep(err error, stepID string) error {
	if pe, ok := err.(*Error); ok && pe.StepID == "" {
		pe.StepID = stepID
	}
	return err
}

func runeSlice(s string, from, to int) string {
	r := []rune(s)
	if from < 0 {
		from = 0
	}
	if to > len(r) {
		to = len(r)
	}
	if from >= to {
		return ""
	}
	return string(r[from:to])
}
