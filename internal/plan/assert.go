package plan

// runAsserts evaluates the plan's assert steps against the mutated
// working tree, in declaration order. Matching is lenient, so a
// defective or unresolvable assert selector counts zero matches instead
// of erroring; the first count mismatch fails the whole plan.
func runAsserts(x *execCtx, patternLimit int, items []compiledItem, outcomes []StepOutcome) error {
	index := BuildIndex(x.schema, x.change.Root())
	m := newMatcher(x.schema, index, patternLimit)
	for i, item := range items {
		if item.assert == nil {
			continue
		}
		a := item.assert
		actual := countMatches(m, a.Where)
		if actual != a.ExpectCount {
			return newError(CodePreconditionFailed, a.ID,
				"expected %d matches, found %d", a.ExpectCount, actual).
				withDetail("expected", a.ExpectCount).
				withDetail("actual", actual)
		}
		outcomes[i] = StepOutcome{
			StepID:     a.ID,
			Op:         "assert",
			Effect:     EffectAssertPassed,
			MatchCount: actual,
		}
	}
	return nil
}

// countMatches counts a selector's hits for assertion purposes. With an
// occurrence the count collapses to existence: one when the nth match is
// there, zero when it is not.
func countMatches(m *matcher, sel Selector) int {
	matches, _ := m.matchSelector(sel, false)
	if sel.Occurrence > 0 {
		if len(matches) >= sel.Occurrence {
			return 1
		}
		return 0
	}
	return len(matches)
}
