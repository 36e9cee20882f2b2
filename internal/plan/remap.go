package plan

import (
	"docplan/internal/doc"
)

// remapRange pushes a compiled range through the change's accumulated
// mapping. From leans right and To leans left so the range tracks its own
// content, not text inserted at its edges.
func remapRange(mp doc.Mapping, rt RangeTarget) (int, int) {
	return mp.MapRange(rt.From, rt.To)
}

// remapSpan maps every segment of a compiled span into current
// coordinates and verifies the span still forms one contiguous region:
// each mapped segment keeps a non-negative extent, segments stay in
// order, and every inter-segment gap is exactly as wide as it was at
// compile time. Any violation means an earlier step tore the span apart.
func remapSpan(mp doc.Mapping, st SpanTarget, stepID string) ([]doc.SpanSeg, error) {
	segs := make([]doc.SpanSeg, len(st.Segments))
	for i, seg := range st.Segments {
		f := mp.Map(seg.From, 1)
		t := mp.Map(seg.To, -1)
		if t < f {
			return nil, fragmented(st, stepID, "segment %d inverted after remapping", i)
		}
		segs[i] = doc.SpanSeg{From: f, To: t}
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].From < segs[i-1].To {
			return nil, fragmented(st, stepID, "segments %d and %d overlap after remapping", i-1, i)
		}
		gap := segs[i].From - segs[i-1].To
		if gap != st.Gaps[i-1] {
			return nil, fragmented(st, stepID,
				"gap between segments %d and %d changed from %d to %d tokens",
				i-1, i, st.Gaps[i-1], gap)
		}
	}
	return segs, nil
}

func fragmented(st SpanTarget, stepID, format string, args ...any) error {
	err := newError(CodeSpanFragmented, stepID, format, args...)
	return err.withDetail("matchId", st.MatchID)
}

// combineCaptures concatenates the captured runs of every span segment
// into one capture, re-keyed onto a single monotonic offset axis so
// leading-run and majority resolution work across block boundaries.
func combineCaptures(st SpanTarget) *Captured {
	out := &Captured{Uniform: true}
	cursor := 0
	for _, seg := range st.Segments {
		if seg.Style == nil {
			continue
		}
		for _, run := range seg.Style.Runs {
			n := len(out.Runs)
			if n > 0 && out.Runs[n-1].Marks.Eq(run.Marks) {
				out.Runs[n-1].Len += run.Len
			} else {
				out.Runs = append(out.Runs, StyleRun{Off: cursor, Len: run.Len, Marks: run.Marks})
			}
			cursor += run.Len
			out.Total += run.Len
		}
	}
	out.Uniform = len(out.Runs) <= 1
	return out
}

// collapsePolicy adapts a preserve or merge policy for resolution across
// a whole span: when the combined capture is not uniform the vote falls
// back to majority, since no single block's leading run can speak for
// all of them. RequireUniform still wins and fails the step.
func collapsePolicy(p *InlineStylePolicy) *InlineStylePolicy {
	if p == nil {
		return &InlineStylePolicy{Mode: StylePreserve, OnNonUniform: NonUniformMajority}
	}
	cp := *p
	if cp.Mode == StylePreserve || cp.Mode == StyleMerge || cp.Mode == "" {
		cp.OnNonUniform = NonUniformMajority
	}
	return &cp
}
