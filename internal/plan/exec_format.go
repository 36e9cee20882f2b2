package plan

import (
	"docplan/internal/doc"
)

// execFormatApply applies the step's sparse boolean patch to every target
// extent: true adds the mark, false removes it, absent leaves it alone.
// Value-bearing marks are out of scope here; they travel through style
// policies on rewrite and insert.
func execFormatApply(x *execCtx, cm *compiledMutation) (StepOutcome, error) {
	patch := cm.step.Args.Format
	changed := false
	for _, target := range cm.targets {
		mp := x.change.Mapping()
		var extents []doc.SpanSeg
		switch t := target.(type) {
		case RangeTarget:
			f, to := remapRange(mp, t)
			extents = []doc.SpanSeg{{From: f, To: to}}
		case SpanTarget:
			segs, err := remapSpan(mp, t, cm.step.ID)
			if err != nil {
				return StepOutcome{}, err
			}
			extents = segs
		}
		for _, ext := range extents {
			if ext.To <= ext.From {
				continue
			}
			did, err := x.applyPatch(ext.From, ext.To, patch)
			if err != nil {
				return StepOutcome{}, fromDocErr(err, cm.step.ID)
			}
			changed = changed || did
		}
	}
	out := outcome(cm, EffectUnchanged)
	if changed {
		out.Effect = EffectChanged
	}
	return out, nil
}

func (x *execCtx) applyPatch(from, to int, patch MarkPatch) (bool, error) {
	toggles := []struct {
		val *bool
		typ doc.MarkType
	}{
		{patch.Bold, doc.MarkBold},
		{patch.Italic, doc.MarkItalic},
		{patch.Underline, doc.MarkUnderline},
		{patch.Strike, doc.MarkStrike},
	}
	changed := false
	for _, tg := range toggles {
		if tg.val == nil || !x.schema.HasMark(tg.typ) {
			continue
		}
		var did bool
		var err error
		if *tg.val {
			did, err = x.change.ApplyMark(from, to, doc.Mark{Type: tg.typ})
		} else {
			did, err = x.change.RemoveMark(from, to, tg.typ)
		}
		if err != nil {
			return changed, err
		}
		changed = changed || did
	}
	return changed, nil
}
