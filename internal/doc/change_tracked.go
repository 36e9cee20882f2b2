package doc

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// trackedReplace rewrites inline [a, b) without destroying the old text:
// unchanged stretches keep their runs, removed stretches gain deletion
// marks, and inserted stretches arrive styled plus an insertion mark. Only
// insertions move positions, so the step map carries one triple per
// inserted stretch.
func (c *Change) trackedReplace(loc located, a, b int, text string, marks MarkSet) error {
	blk := loc.block
	old := inlineTextSlice(blk, a, b)
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(old, text, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	delMark := c.trackMark(MarkDeletion)
	insMark := c.trackMark(MarkInsertion)

	kids := inlineSlice(blk, 0, a)
	var triples []int
	consumed := 0
	for _, d := range diffs {
		l := runeLen(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			kids = append(kids, inlineSlice(blk, a+consumed, a+consumed+l)...)
			consumed += l
		case diffmatchpatch.DiffDelete:
			for _, r := range RunsInRange(blk, a+consumed, a+consumed+l) {
				kids = append(kids, NewText(r.Text, r.Marks.Add(delMark)))
			}
			consumed += l
		case diffmatchpatch.DiffInsert:
			kids = append(kids, NewText(d.Text, marks.Add(insMark)))
			triples = append(triples, loc.pos+1+a+consumed, 0, l)
		}
	}
	kids = append(kids, inlineSlice(blk, b, blk.InlineLen())...)
	blk.Children = kids
	blk.Normalize()
	if len(triples) > 0 {
		c.mapping.AppendMap(NewStepMap(triples))
	}
	return nil
}

func inlineTextSlice(blk *Node, a, b int) string {
	var sb strings.Builder
	for _, r := range RunsInRange(blk, a, b) {
		sb.WriteString(r.Text)
	}
	return sb.String()
}
