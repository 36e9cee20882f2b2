package plan

// CompiledTarget is the closed sum of target shapes a selector can compile
// to. The unexported method seals the set to RangeTarget and SpanTarget, so
// every executor can switch exhaustively.
type CompiledTarget interface {
	compiledTarget()
}

// RangeTarget is a match contained in a single block: block-relative text
// offsets, their absolute positions at compile time, the matched text and
// the eagerly captured style.
type RangeTarget struct {
	BlockID string
	// From/To are absolute token positions at compile time.
	From, To int
	// RelFrom/RelTo are block-relative rune offsets of the same range.
	RelFrom, RelTo int
	Text           string
	Style          *Captured
}

func (RangeTarget) compiledTarget() {}

// SpanSegment is one block's share of a cross-block match.
type SpanSegment struct {
	BlockID  string
	From, To int
	Text     string
	Style    *Captured
}

// SpanTarget is one logical match crossing block boundaries: ordered
// per-block segments, the original inter-segment gaps recorded at compile
// time, and a stable match id used in fragmentation diagnostics.
type SpanTarget struct {
	MatchID  string
	Segments []SpanSegment
	// Gaps[i] is the compile-time token distance between Segments[i].To
	// and Segments[i+1].From. Execution must reproduce it after remapping.
	Gaps []int
}

func (SpanTarget) compiledTarget() {}

// Text returns the span's combined matched text.
func (t SpanTarget) Text() string {
	var out string
	for _, s := range t.Segments {
		out += s.Text
	}
	return out
}
