package plan

import (
	"regexp"
	"sort"
	"strings"

	"docplan/internal/doc"
)

// defaultPatternLimit caps regex pattern length in bytes. Overlong patterns
// match nothing on the lenient path instead of failing an assert batch
// non-deterministically.
const defaultPatternLimit = 1000

// matchSeg is one block's share of a raw match, in block-relative rune
// offsets.
type matchSeg struct {
	info           *BlockInfo
	relFrom, relTo int
}

// rawMatch is one selector hit before target compilation: a single segment
// for in-block matches, several for matches crossing block boundaries.
type rawMatch struct {
	segs []matchSeg
}

func (m rawMatch) crossBlock() bool { return len(m.segs) > 1 }

// matcher resolves selectors against one block index snapshot. The same
// matcher serves compilation, asserts and find, so their counts agree.
type matcher struct {
	schema       *doc.Schema
	index        *BlockIndex
	patternLimit int
}

func newMatcher(schema *doc.Schema, index *BlockIndex, patternLimit int) *matcher {
	if patternLimit <= 0 {
		patternLimit = defaultPatternLimit
	}
	return &matcher{schema: schema, index: index, patternLimit: patternLimit}
}

// matchSelector resolves a selector to its ordered matches. strict mode
// (compilation) surfaces selector defects as typed errors; lenient mode
// (asserts, find) folds every defect into zero matches so counting stays
// deterministic.
func (m *matcher) matchSelector(sel Selector, strict bool) ([]rawMatch, error) {
	kind := sel.kind()
	if kind == selInvalid {
		if strict {
			return nil, newError(CodeInvalidInput, "",
				"selector must set exactly one of pattern, nodeType, markType, blockIds")
		}
		return nil, nil
	}
	scope, ok := m.index.Scope(sel.Within)
	if !ok {
		if strict {
			return nil, newError(CodeTargetNotFound, "",
				"within block %q not found", sel.Within).withDetail("within", sel.Within)
		}
		return nil, nil
	}
	switch kind {
	case selText:
		return m.matchText(sel, scope, strict)
	case selNode:
		return m.matchNodeType(sel, scope), nil
	case selMark:
		return m.matchMarkType(sel, scope), nil
	default:
		return m.matchReference(sel, scope, strict)
	}
}

// matchText runs the pattern over the scope's concatenated inline text.
// Block boundaries are zero-width in that text, so one match may cross
// several blocks.
func (m *matcher) matchText(sel Selector, scope []*BlockInfo, strict bool) ([]rawMatch, error) {
	re, err := m.compilePattern(sel)
	if err != nil {
		if strict {
			return nil, err
		}
		return nil, nil
	}

	type extent struct {
		info       *BlockInfo
		start, end int // rune offsets in the concatenated text
	}
	var sb strings.Builder
	extents := make([]extent, 0, len(scope))
	runeOff := 0
	for _, b := range scope {
		text := b.Node.InlineText()
		l := b.Node.InlineLen()
		sb.WriteString(text)
		extents = append(extents, extent{info: b, start: runeOff, end: runeOff + l})
		runeOff += l
	}
	concat := sb.String()

	pairs := re.FindAllStringIndex(concat, -1)
	if len(pairs) == 0 {
		return nil, nil
	}

	// Byte offset of each rune start, for translating regexp results.
	b2r := make([]int, len(concat)+1)
	ri := 0
	for bi := range concat {
		b2r[bi] = ri
		ri++
	}
	b2r[len(concat)] = ri

	var out []rawMatch
	for _, p := range pairs {
		rf, rt := b2r[p[0]], b2r[p[1]]
		if rf == rt {
			continue // zero-width regex matches select nothing
		}
		var segs []matchSeg
		for _, e := range extents {
			switch {
			case e.start == e.end:
				// An empty block joins the span only when the match
				// strictly encloses its boundary position.
				if rf < e.start && e.start < rt {
					segs = append(segs, matchSeg{info: e.info})
				}
			case e.start < rt && rf < e.end:
				a, b := rf, rt
				if a < e.start {
					a = e.start
				}
				if b > e.end {
					b = e.end
				}
				segs = append(segs, matchSeg{info: e.info, relFrom: a - e.start, relTo: b - e.start})
			}
		}
		if len(segs) > 0 {
			out = append(out, rawMatch{segs: segs})
		}
	}
	return out, nil
}

func (m *matcher) compilePattern(sel Selector) (*regexp.Regexp, error) {
	pattern := sel.Pattern
	switch sel.Mode {
	case MatchRegex:
		if len(pattern) > m.patternLimit {
			return nil, newError(CodeInvalidInput, "",
				"regex pattern exceeds %d bytes", m.patternLimit).
				withDetail("patternBytes", len(pattern))
		}
	case MatchContains, "":
		pattern = regexp.QuoteMeta(pattern)
	default:
		return nil, newError(CodeInvalidInput, "", "unknown text match mode %q", sel.Mode)
	}
	if !sel.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, newError(CodeInvalidInput, "", "bad pattern: %v", err)
	}
	return re, nil
}

// matchNodeType yields one whole-content match per block of the requested
// type.
func (m *matcher) matchNodeType(sel Selector, scope []*BlockInfo) []rawMatch {
	var out []rawMatch
	for _, b := range scope {
		if b.Type != sel.NodeType {
			continue
		}
		out = append(out, rawMatch{segs: []matchSeg{{info: b, relTo: b.Node.InlineLen()}}})
	}
	return out
}

// matchMarkType yields one match per maximal stretch of runs carrying the
// mark, per block.
func (m *matcher) matchMarkType(sel Selector, scope []*BlockInfo) []rawMatch {
	var out []rawMatch
	for _, b := range scope {
		open := -1
		end := 0
		for _, run := range doc.InlineRuns(b.Node) {
			if run.Marks.Has(sel.MarkType) {
				if open < 0 {
					open = run.Off
				}
				end = run.Off + run.Len
				continue
			}
			if open >= 0 {
				out = append(out, rawMatch{segs: []matchSeg{{info: b, relFrom: open, relTo: end}}})
				open = -1
			}
		}
		if open >= 0 {
			out = append(out, rawMatch{segs: []matchSeg{{info: b, relFrom: open, relTo: end}}})
		}
	}
	return out
}

// matchReference resolves explicit block ids. Several ids form one span
// match ordered by document position.
func (m *matcher) matchReference(sel Selector, scope []*BlockInfo, strict bool) ([]rawMatch, error) {
	inScope := make(map[*BlockInfo]bool, len(scope))
	for _, b := range scope {
		inScope[b] = true
	}
	infos := make([]*BlockInfo, 0, len(sel.BlockIDs))
	seen := make(map[string]bool, len(sel.BlockIDs))
	for _, id := range sel.BlockIDs {
		if seen[id] {
			if strict {
				return nil, newError(CodeInvalidInput, "", "block id %q listed twice", id)
			}
			return nil, nil
		}
		seen[id] = true
		info, ok := m.index.ByID(id)
		if !ok || !info.TextBearing || !inScope[info] {
			if strict {
				e := newError(CodeTargetNotFound, "", "block %q not found", id).withDetail("blockId", id)
				if m.index.IsDuplicate(id) {
					e.Message = "block id " + id + " is duplicated and cannot be resolved"
					e = e.withDetail("duplicate", true)
				}
				return nil, e
			}
			return nil, nil
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Pos < infos[j].Pos })
	segs := make([]matchSeg, len(infos))
	for i, info := range infos {
		segs[i] = matchSeg{info: info, relTo: info.Node.InlineLen()}
	}
	return []rawMatch{{segs: segs}}, nil
}
