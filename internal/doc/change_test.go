package doc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleParagraphDoc(t *testing.T, text string) (*Document, *Node) {
	t.Helper()
	p := NewParagraph(text)
	return New(DefaultSchema(), p), p
}

func TestReplaceTextRangeDirect(t *testing.T) {
	d, p := singleParagraphDoc(t, "Hello world")
	c := d.StartChange(ChangeDirect)

	// "world" sits at inline offsets [6,11), absolute [7,12).
	require.NoError(t, c.ReplaceTextRange(7, 12, "there", nil))

	blk := c.Root().Children[0]
	assert.Equal(t, "Hello there", blk.InlineText())
	assert.Equal(t, p.ID, blk.ID, "block identity must survive a rewrite")

	rev, err := c.Commit()
	require.NoError(t, err)
	assert.Equal(t, Revision(1), rev)
	assert.Equal(t, "Hello there", d.Root().Children[0].InlineText())
}

func TestReplaceTextRangeCrossBlock(t *testing.T) {
	d := New(DefaultSchema(), NewParagraph("abc"), NewParagraph("def"))
	c := d.StartChange(ChangeDirect)

	err := c.ReplaceTextRange(2, 8, "x", nil)
	require.ErrorIs(t, err, ErrCrossBlock)

	err = c.ReplaceTextRange(2, 99, "x", nil)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestInsertTextAtBlockEdges(t *testing.T) {
	d, _ := singleParagraphDoc(t, "bc")
	c := d.StartChange(ChangeDirect)

	require.NoError(t, c.InsertText(1, "a", nil))
	// After the first insert the old end (3) moved to 4.
	require.NoError(t, c.InsertText(4, "d", nil))

	assert.Equal(t, "abcd", c.Root().Children[0].InlineText())
}

func TestDeleteAllTextKeepsBlock(t *testing.T) {
	d, p := singleParagraphDoc(t, "Hello")
	c := d.StartChange(ChangeDirect)

	require.NoError(t, c.DeleteTextRange(1, 6))
	_, err := c.Commit()
	require.NoError(t, err)

	require.Len(t, d.Root().Children, 1)
	blk := d.Root().Children[0]
	assert.Equal(t, p.ID, blk.ID)
	assert.Equal(t, 0, blk.InlineLen())
	assert.Equal(t, 2, blk.NodeSize())
}

func TestApplyMarkSplitsRuns(t *testing.T) {
	d, _ := singleParagraphDoc(t, "Hello world")
	c := d.StartChange(ChangeDirect)

	changed, err := c.ApplyMark(7, 12, Mark{Type: MarkBold})
	require.NoError(t, err)
	assert.True(t, changed)

	blk := c.Root().Children[0]
	require.Len(t, blk.Children, 2)
	assert.Equal(t, "Hello ", blk.Children[0].Text)
	assert.False(t, blk.Children[0].Marks.Has(MarkBold))
	assert.Equal(t, "world", blk.Children[1].Text)
	assert.True(t, blk.Children[1].Marks.Has(MarkBold))

	// Applying the identical mark again changes nothing.
	changed, err = c.ApplyMark(7, 12, Mark{Type: MarkBold})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestRemoveMark(t *testing.T) {
	p := NewBlock(NodeParagraph, NewBlockID(), nil,
		NewText("Hello ", nil),
		NewText("world", NewMarkSet(Mark{Type: MarkBold})),
	)
	d := New(DefaultSchema(), p)
	c := d.StartChange(ChangeDirect)

	changed, err := c.RemoveMark(1, 12, MarkBold)
	require.NoError(t, err)
	assert.True(t, changed)

	blk := c.Root().Children[0]
	require.Len(t, blk.Children, 1, "unmarking should re-merge the runs")
	assert.Equal(t, "Hello world", blk.Children[0].Text)

	changed, err = c.RemoveMark(1, 12, MarkBold)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestCommitAdvancesRevisionOnce(t *testing.T) {
	d, _ := singleParagraphDoc(t, "Hello world")
	start := d.Revision()

	c := d.StartChange(ChangeDirect)
	require.NoError(t, c.ReplaceTextRange(7, 12, "there", nil))
	_, err := c.ApplyMark(1, 6, Mark{Type: MarkItalic})
	require.NoError(t, err)
	require.NoError(t, c.InsertText(1, ">> ", nil))

	assert.Equal(t, start, d.Revision(), "document must not move before commit")

	rev, err := c.Commit()
	require.NoError(t, err)
	assert.Equal(t, start+1, rev)
	assert.Equal(t, rev, d.Revision())

	_, err = c.Commit()
	assert.ErrorIs(t, err, ErrChangeClosed)
}

func TestDiscardLeavesDocumentUntouched(t *testing.T) {
	d, _ := singleParagraphDoc(t, "Hello world")
	before, err := Marshal(d)
	require.NoError(t, err)

	c := d.StartChange(ChangeDirect)
	require.NoError(t, c.ReplaceTextRange(1, 12, "gone", nil))
	require.NoError(t, c.InsertTopLevel(1, NewParagraph("extra")))
	c.Discard()

	after, err := Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Equal(t, Revision(0), d.Revision())
}

func TestInsertTopLevel(t *testing.T) {
	p1 := NewParagraph("one")
	p2 := NewParagraph("two")
	d := New(DefaultSchema(), p1, p2)
	c := d.StartChange(ChangeDirect)

	fresh := NewParagraph("mid")
	require.NoError(t, c.InsertTopLevel(1, fresh))

	kids := c.Root().Children
	require.Len(t, kids, 3)
	assert.Equal(t, []string{p1.ID, fresh.ID, p2.ID}, []string{kids[0].ID, kids[1].ID, kids[2].ID})

	// p2 started at 5 and the new block is 5 tokens wide.
	assert.Equal(t, 10, c.Mapping().Map(5, 1))
}

func TestTrackedReplaceKeepsOldText(t *testing.T) {
	d, _ := singleParagraphDoc(t, "Hello world")
	c := d.StartChange(ChangeTracked)
	c.SetAuthor("reviewer")

	require.NoError(t, c.ReplaceTextRange(1, 12, "Goodbye world", nil))

	blk := c.Root().Children[0]
	assert.Equal(t, "HelloGoodbye world", blk.InlineText())

	runs := InlineRuns(blk)
	require.Len(t, runs, 3)
	assert.Equal(t, "Hello", runs[0].Text)
	assert.True(t, runs[0].Marks.Has(MarkDeletion))
	assert.Equal(t, "Goodbye", runs[1].Text)
	assert.True(t, runs[1].Marks.Has(MarkInsertion))
	ins, _ := runs[1].Marks.Get(MarkInsertion)
	assert.Equal(t, "reviewer", ins.Attr("author"))
	assert.Equal(t, " world", runs[2].Text)
	assert.True(t, runs[2].Marks.Eq(nil))

	// Only the insertion moves positions: old end 12 shifts by len("Goodbye").
	assert.Equal(t, 19, c.Mapping().Map(12, 1))
}

func TestTrackedDeleteMarksInsteadOfRemoving(t *testing.T) {
	d, _ := singleParagraphDoc(t, "Hello world")
	c := d.StartChange(ChangeTracked)

	require.NoError(t, c.DeleteTextRange(1, 6))

	blk := c.Root().Children[0]
	assert.Equal(t, "Hello world", blk.InlineText())
	runs := InlineRuns(blk)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].Marks.Has(MarkDeletion))
	assert.False(t, runs[1].Marks.Has(MarkDeletion))
	assert.Equal(t, 0, c.Mapping().Len(), "a tracked delete moves nothing")
}

func TestTrackedInsertCarriesInsertionMark(t *testing.T) {
	d, _ := singleParagraphDoc(t, "ab")
	c := d.StartChange(ChangeTracked)

	require.NoError(t, c.InsertText(2, "X", nil))

	runs := InlineRuns(c.Root().Children[0])
	require.Len(t, runs, 3)
	assert.Equal(t, "X", runs[1].Text)
	assert.True(t, runs[1].Marks.Has(MarkInsertion))
}
