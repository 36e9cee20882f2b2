package plan

import (
	"sort"

	"docplan/internal/doc"
)

// StyleRun is one captured run: block-relative offset, rune length and the
// run's mark set with metadata marks stripped.
type StyleRun struct {
	Off   int
	Len   int
	Marks doc.MarkSet
}

// Captured is the style snapshot of a matched range, taken eagerly at
// compile time so executors never re-read text after positions have
// shifted.
type Captured struct {
	Runs    []StyleRun
	Uniform bool
	// Total is the matched range's rune count.
	Total int
}

// LeadingMarks returns the first run's marks, or nothing when no runs were
// captured.
func (c *Captured) LeadingMarks() doc.MarkSet {
	if c == nil || len(c.Runs) == 0 {
		return nil
	}
	return c.Runs[0].Marks
}

// TrailingMarks returns the last run's marks.
func (c *Captured) TrailingMarks() doc.MarkSet {
	if c == nil || len(c.Runs) == 0 {
		return nil
	}
	return c.Runs[len(c.Runs)-1].Marks
}

// StyleResolver captures formatting runs and resolves a single mark set to
// apply when they disagree, per a declared policy.
type StyleResolver struct {
	schema *doc.Schema
}

// NewStyleResolver builds a resolver over the given schema.
func NewStyleResolver(schema *doc.Schema) *StyleResolver {
	return &StyleResolver{schema: schema}
}

// CaptureRuns snapshots the styled runs covering block-relative rune
// offsets [from, to). Metadata marks (comments, tracked changes) are
// stripped before comparison, so runs differing only in metadata merge.
// Uniform is true iff every captured run shares one mark set, vacuously
// true for at most one run.
func (r *StyleResolver) CaptureRuns(block *doc.Node, from, to int) *Captured {
	c := &Captured{Uniform: true}
	for _, run := range doc.RunsInRange(block, from, to) {
		marks := r.schema.StripMetadata(run.Marks)
		if n := len(c.Runs); n > 0 && c.Runs[n-1].Marks.Eq(marks) {
			c.Runs[n-1].Len += run.Len
		} else {
			c.Runs = append(c.Runs, StyleRun{Off: run.Off, Len: run.Len, Marks: marks})
		}
		c.Total += run.Len
	}
	for i := 1; i < len(c.Runs); i++ {
		if !c.Runs[i].Marks.Eq(c.Runs[0].Marks) {
			c.Uniform = false
			break
		}
	}
	return c
}

// Resolve reduces a captured snapshot to the single mark set a rewritten
// run receives. A require-uniform policy over a non-uniform capture fails
// with STYLE_CONFLICT.
func (r *StyleResolver) Resolve(c *Captured, policy *InlineStylePolicy) (doc.MarkSet, error) {
	if policy == nil {
		policy = &InlineStylePolicy{Mode: StylePreserve}
	}
	switch policy.Mode {
	case StyleClear:
		return nil, nil
	case StyleSet:
		if policy.SetMarks == nil {
			return nil, nil
		}
		return policy.SetMarks.Apply(nil), nil
	case StylePreserve, StyleMerge, "":
		// handled below
	default:
		return nil, newError(CodeInvalidInput, "", "unknown style mode %q", policy.Mode)
	}

	var resolved doc.MarkSet
	switch {
	case c == nil || len(c.Runs) == 0:
		resolved = nil
	case c.Uniform:
		resolved = c.Runs[0].Marks
	case policy.RequireUniform:
		return nil, newError(CodeStyleConflict, "",
			"range styling is not uniform (%d runs)", len(c.Runs))
	default:
		switch policy.OnNonUniform {
		case NonUniformMajority:
			resolved = r.resolveMajority(c)
		case NonUniformUnion:
			resolved = r.resolveUnion(c)
		case NonUniformLeadingRun, "":
			resolved = c.Runs[0].Marks
		default:
			return nil, newError(CodeInvalidInput, "",
				"unknown non-uniform strategy %q", policy.OnNonUniform)
		}
	}
	if policy.SetMarks != nil {
		resolved = policy.SetMarks.Apply(resolved)
	}
	return resolved, nil
}

// resolveMajority votes per mark attribute, weighted by covered characters.
// Boolean marks need a strict majority of the whole range; exact ties
// exclude the mark. Value-bearing marks are a plurality vote among the
// observed values plus absence, with value-versus-value ties resolved to
// the earliest run's value.
func (r *StyleResolver) resolveMajority(c *Captured) doc.MarkSet {
	var out doc.MarkSet
	for _, t := range r.markTypesInOrder(c) {
		spec, _ := r.schema.MarkSpec(t)
		if spec.ValueAttr == "" {
			covered := 0
			for _, run := range c.Runs {
				if run.Marks.Has(t) {
					covered += run.Len
				}
			}
			if covered*2 > c.Total {
				mark, _ := firstMarkOf(c, t)
				out = out.Add(mark)
			}
			continue
		}
		// Plurality among values, with absence as a candidate.
		coveredByValue := map[string]int{}
		firstOff := map[string]int{}
		absent := 0
		for _, run := range c.Runs {
			mark, ok := run.Marks.Get(t)
			if !ok {
				absent += run.Len
				continue
			}
			v := mark.Attr(spec.ValueAttr)
			coveredByValue[v] += run.Len
			if _, seen := firstOff[v]; !seen {
				firstOff[v] = run.Off
			}
		}
		values := make([]string, 0, len(coveredByValue))
		for v := range coveredByValue {
			values = append(values, v)
		}
		sort.Slice(values, func(i, j int) bool { return firstOff[values[i]] < firstOff[values[j]] })
		best, bestCovered := "", -1
		for _, v := range values {
			if coveredByValue[v] > bestCovered {
				best, bestCovered = v, coveredByValue[v]
			}
		}
		if bestCovered <= absent {
			continue
		}
		mark, _ := firstMarkWithValue(c, t, spec.ValueAttr, best)
		out = out.Add(mark)
	}
	return out
}

// resolveUnion includes a mark when any run carries it; value-bearing marks
// take the first carrying run's value.
func (r *StyleResolver) resolveUnion(c *Captured) doc.MarkSet {
	var out doc.MarkSet
	for _, t := range r.markTypesInOrder(c) {
		mark, _ := firstMarkOf(c, t)
		out = out.Add(mark)
	}
	return out
}

// markTypesInOrder lists the mark types observed across the capture,
// ordered by the first run that carries each.
func (r *StyleResolver) markTypesInOrder(c *Captured) []doc.MarkType {
	var order []doc.MarkType
	seen := map[doc.MarkType]bool{}
	for _, run := range c.Runs {
		for _, m := range run.Marks {
			if !seen[m.Type] {
				seen[m.Type] = true
				order = append(order, m.Type)
			}
		}
	}
	return order
}

func firstMarkOf(c *Captured, t doc.MarkType) (doc.Mark, bool) {
	for _, run := range c.Runs {
		if m, ok := run.Marks.Get(t); ok {
			return m, true
		}
	}
	return doc.Mark{}, false
}

func firstMarkWithValue(c *Captured, t doc.MarkType, attr, value string) (doc.Mark, bool) {
	for _, run := range c.Runs {
		if m, ok := run.Marks.Get(t); ok && m.Attr(attr) == value {
			return m, true
		}
	}
	return doc.Mark{}, false
}
