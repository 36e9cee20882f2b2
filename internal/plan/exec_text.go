package plan

import (
	"strings"

	"docplan/internal/doc"
)

// execTextRewrite replaces each target's current content with the step's
// replacement text under the resolved style. A target whose current text
// already equals the replacement, and whose captured styling is uniform
// and equal to the resolved set, is skipped so repeated plans stay
// byte-for-byte idempotent.
func execTextRewrite(x *execCtx, cm *compiledMutation) (StepOutcome, error) {
	args := cm.step.Args
	changed := false
	for _, target := range cm.targets {
		mp := x.change.Mapping()
		switch t := target.(type) {
		case RangeTarget:
			f, to := remapRange(mp, t)
			resolved, err := x.resolver.Resolve(t.Style, args.Style)
			if err != nil {
				return StepOutcome{}, attachStep(err, cm.step.ID)
			}
			cur, err := x.change.TextIn(f, to)
			if err != nil {
				return StepOutcome{}, fromDocErr(err, cm.step.ID)
			}
			if cur == args.Text && t.Style != nil && t.Style.Uniform &&
				resolved.Eq(t.Style.LeadingMarks()) {
				continue
			}
			if err := x.change.ReplaceTextRange(f, to, args.Text, resolved); err != nil {
				return StepOutcome{}, fromDocErr(err, cm.step.ID)
			}
			changed = true
		case SpanTarget:
			segs, err := remapSpan(mp, t, cm.step.ID)
			if err != nil {
				return StepOutcome{}, err
			}
			parts, err := x.spanParts(t, args, cm.step.ID)
			if err != nil {
				return StepOutcome{}, err
			}
			if err := x.change.ReplaceSpan(segs, parts); err != nil {
				return StepOutcome{}, fromDocErr(err, cm.step.ID)
			}
			changed = true
		}
	}
	out := outcome(cm, EffectUnchanged)
	if changed {
		out.Effect = EffectChanged
	}
	return out, nil
}

// spanParts splits a span replacement on newlines and resolves one mark
// set per part. Parts that line up with an original segment resolve
// against that segment's capture; the rest, and a collapse to a single
// part, resolve against the combined capture of all segments.
func (x *execCtx) spanParts(st SpanTarget, args StepArgs, stepID string) ([]doc.SpanPart, error) {
	texts := strings.Split(args.Text, "\n")
	combined := combineCaptures(st)
	fallback := collapsePolicy(args.Style)
	parts := make([]doc.SpanPart, len(texts))
	for i, txt := range texts {
		var marks doc.MarkSet
		var err error
		if len(texts) > 1 && i < len(st.Segments) {
			marks, err = x.resolver.Resolve(st.Segments[i].Style, args.Style)
		} else {
			marks, err = x.resolver.Resolve(combined, fallback)
		}
		if err != nil {
			return nil, attachStep(err, stepID)
		}
		parts[i] = doc.SpanPart{Text: txt, Marks: marks}
	}
	return parts, nil
}

// execTextInsert inserts the step's text at each target's chosen edge.
// The insertion point leans away from the target so the target's own
// content is never split: before anchors left of any concurrent edit at
// From, after anchors right of any edit at To.
func execTextInsert(x *execCtx, cm *compiledMutation) (StepOutcome, error) {
	args := cm.step.Args
	for _, target := range cm.targets {
		mp := x.change.Mapping()
		var pos int
		var adjacent doc.MarkSet
		switch t := target.(type) {
		case RangeTarget:
			if args.Placement == PlaceAfter {
				pos = mp.Map(t.To, 1)
				adjacent = t.Style.TrailingMarks()
			} else {
				pos = mp.Map(t.From, -1)
				adjacent = t.Style.LeadingMarks()
			}
		case SpanTarget:
			if _, err := remapSpan(mp, t, cm.step.ID); err != nil {
				return StepOutcome{}, err
			}
			if args.Placement == PlaceAfter {
				last := t.Segments[len(t.Segments)-1]
				pos = mp.Map(last.To, 1)
				adjacent = last.Style.TrailingMarks()
			} else {
				pos = mp.Map(t.Segments[0].From, -1)
				adjacent = t.Segments[0].Style.LeadingMarks()
			}
		}
		marks, err := insertMarks(adjacent, args.Style)
		if err != nil {
			return StepOutcome{}, attachStep(err, cm.step.ID)
		}
		if err := x.change.InsertText(pos, args.Text, marks); err != nil {
			return StepOutcome{}, fromDocErr(err, cm.step.ID)
		}
	}
	return outcome(cm, EffectChanged), nil
}

// insertMarks derives the style of inserted text: the run adjacent to the
// anchor by default, replaced or patched per the step's policy.
func insertMarks(adjacent doc.MarkSet, pol *InlineStylePolicy) (doc.MarkSet, error) {
	if pol == nil {
		return adjacent, nil
	}
	switch pol.Mode {
	case StyleClear:
		return nil, nil
	case StyleSet:
		if pol.SetMarks == nil {
			return nil, nil
		}
		return pol.SetMarks.Apply(nil), nil
	case StylePreserve, StyleMerge, "":
		if pol.SetMarks != nil {
			return pol.SetMarks.Apply(adjacent), nil
		}
		return adjacent, nil
	default:
		return nil, newError(CodeInvalidInput, "", "unknown style mode %q", pol.Mode)
	}
}

// execTextDelete removes each target's content. Range targets whose
// content is already gone are no-ops; span targets also collapse the
// spanned block boundaries into the first block.
func execTextDelete(x *execCtx, cm *compiledMutation) (StepOutcome, error) {
	changed := false
	for _, target := range cm.targets {
		mp := x.change.Mapping()
		switch t := target.(type) {
		case RangeTarget:
			f, to := remapRange(mp, t)
			if f == to {
				continue
			}
			if err := x.change.DeleteTextRange(f, to); err != nil {
				return StepOutcome{}, fromDocErr(err, cm.step.ID)
			}
			changed = true
		case SpanTarget:
			segs, err := remapSpan(mp, t, cm.step.ID)
			if err != nil {
				return StepOutcome{}, err
			}
			if x.change.Mode() == doc.ChangeTracked && allEmpty(segs) {
				continue
			}
			if err := x.change.ReplaceSpan(segs, []doc.SpanPart{{Text: ""}}); err != nil {
				return StepOutcome{}, fromDocErr(err, cm.step.ID)
			}
			changed = true
		}
	}
	out := outcome(cm, EffectUnchanged)
	if changed {
		out.Effect = EffectChanged
	}
	return out, nil
}

func allEmpty(segs []doc.SpanSeg) bool {
	for _, s := range segs {
		if s.To > s.From {
			return false
		}
	}
	return true
}
