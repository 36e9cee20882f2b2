package doc

// Run is one maximal stretch of identically-styled text inside a block,
// with its rune offset range relative to the block's inline content.
type Run struct {
	Off   int
	Len   int
	Text  string
	Marks MarkSet
}

// InlineRuns returns the styled runs of a block's inline content in order.
func InlineRuns(block *Node) []Run {
	var runs []Run
	off := 0
	for _, c := range block.Children {
		if !c.IsText() {
			continue
		}
		l := c.TextLen()
		if l == 0 {
			continue
		}
		runs = append(runs, Run{Off: off, Len: l, Text: c.Text, Marks: c.Marks.Clone()})
		off += l
	}
	return runs
}

// RunsInRange returns the runs overlapping rune offsets [from, to), clipped
// to the range.
func RunsInRange(block *Node, from, to int) []Run {
	var out []Run
	for _, r := range InlineRuns(block) {
		if r.Off+r.Len <= from || r.Off >= to {
			continue
		}
		a, b := r.Off, r.Off+r.Len
		if a < from {
			a = from
		}
		if b > to {
			b = to
		}
		text := string([]rune(r.Text)[a-r.Off : b-r.Off])
		out = append(out, Run{Off: a, Len: b - a, Text: text, Marks: r.Marks})
	}
	return out
}
