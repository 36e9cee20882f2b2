package doc

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrChangeClosed means the change was already committed or discarded.
	ErrChangeClosed = errors.New("change already committed or discarded")
	// ErrOutOfRange means a position lies outside the document.
	ErrOutOfRange = errors.New("position out of range")
	// ErrCrossBlock means a text range straddles a block boundary.
	ErrCrossBlock = errors.New("range crosses block boundaries")
	// ErrBadSpan means span segments are not distinct in-order blocks.
	ErrBadSpan = errors.New("malformed span")
	// ErrTrackedSplit means a tracked change tried to split a span into
	// multiple replacement blocks.
	ErrTrackedSplit = errors.New("tracked mode cannot split a span into multiple blocks")
)

// Change is a buffered unit of mutation over a working copy of the tree.
// Primitives edit the copy and append their step maps; the owning document
// only observes the change at Commit, which also advances the revision.
// Discard leaves the document untouched.
type Change struct {
	doc     *Document
	mode    ChangeMode
	author  string
	root    *Node
	mapping Mapping
	done    bool
}

// Mode returns the change's recording mode.
func (c *Change) Mode() ChangeMode { return c.mode }

// SetAuthor attributes tracked insertions and deletions to author.
func (c *Change) SetAuthor(author string) { c.author = author }

// Root returns the working tree, including uncommitted edits.
func (c *Change) Root() *Node { return c.root }

// Mapping returns the step maps accumulated so far, in order.
func (c *Change) Mapping() Mapping { return c.mapping }

// TextIn returns the current text at [from, to) within one block of the
// working tree.
func (c *Change) TextIn(from, to int) (string, error) {
	loc, err := c.locateText(from, to)
	if err != nil {
		return "", err
	}
	return inlineTextSlice(loc.block, from-(loc.pos+1), to-(loc.pos+1)), nil
}

// Commit publishes the working tree to the document and advances its
// revision once, regardless of how many primitives ran.
func (c *Change) Commit() (Revision, error) {
	if c.done {
		return c.doc.rev, ErrChangeClosed
	}
	c.done = true
	c.doc.root = c.root
	c.doc.rev++
	return c.doc.rev, nil
}

// Discard abandons the working tree. The document is untouched.
func (c *Change) Discard() { c.done = true }

type located struct {
	block *Node
	pos   int
}

// locateText finds the single text-bearing block whose inline content
// contains [from, to]. Both boundaries are valid insertion points.
func (c *Change) locateText(from, to int) (located, error) {
	if from < 0 || to < from {
		return located{}, fmt.Errorf("range [%d,%d): %w", from, to, ErrOutOfRange)
	}
	var loc located
	found := false
	Walk(c.root, func(n *Node, pos int, parent *Node) bool {
		if n.IsText() || !c.doc.schema.IsTextBearing(n.Type) {
			return true
		}
		start, end := pos+1, pos+1+n.InlineLen()
		if from >= start && to <= end {
			loc = located{block: n, pos: pos}
			found = true
			return false
		}
		return true
	})
	if !found {
		if to > c.root.ContentSize() {
			return located{}, fmt.Errorf("range [%d,%d): %w", from, to, ErrOutOfRange)
		}
		return located{}, fmt.Errorf("range [%d,%d): %w", from, to, ErrCrossBlock)
	}
	return loc, nil
}

// ReplaceTextRange replaces the text at [from, to) within one block. In
// tracked mode the old text stays under deletion marks and only the diffed
// insertions are added.
func (c *Change) ReplaceTextRange(from, to int, text string, marks MarkSet) error {
	if c.done {
		return ErrChangeClosed
	}
	loc, err := c.locateText(from, to)
	if err != nil {
		return err
	}
	a, b := from-(loc.pos+1), to-(loc.pos+1)
	if c.mode == ChangeTracked {
		return c.trackedReplace(loc, a, b, text, marks)
	}
	spliceInline(loc.block, a, b, text, marks)
	c.mapping.AppendMap(ReplacedRange(from, to, runeLen(text)))
	return nil
}

// InsertText inserts text at a position inside (or at either edge of) a
// block's inline content.
func (c *Change) InsertText(pos int, text string, marks MarkSet) error {
	if c.done {
		return ErrChangeClosed
	}
	if text == "" {
		return nil
	}
	loc, err := c.locateText(pos, pos)
	if err != nil {
		return err
	}
	a := pos - (loc.pos + 1)
	m := marks
	if c.mode == ChangeTracked {
		m = m.Add(c.trackMark(MarkInsertion))
	}
	spliceInline(loc.block, a, a, text, m)
	c.mapping.AppendMap(ReplacedRange(pos, pos, runeLen(text)))
	return nil
}

// DeleteTextRange removes the text at [from, to) within one block. The
// block itself survives even when emptied. In tracked mode the text stays
// and gains a deletion mark.
func (c *Change) DeleteTextRange(from, to int) error {
	if c.done {
		return ErrChangeClosed
	}
	if from == to {
		return nil
	}
	loc, err := c.locateText(from, to)
	if err != nil {
		return err
	}
	a, b := from-(loc.pos+1), to-(loc.pos+1)
	if c.mode == ChangeTracked {
		applyMarkRange(loc.block, a, b, c.trackMark(MarkDeletion))
		return nil
	}
	spliceInline(loc.block, a, b, "", nil)
	c.mapping.AppendMap(ReplacedRange(from, to, 0))
	return nil
}

// ApplyMark adds a mark to the text at [from, to) within one block and
// reports whether any run actually changed. Marks apply directly in both
// change modes.
func (c *Change) ApplyMark(from, to int, m Mark) (bool, error) {
	if c.done {
		return false, ErrChangeClosed
	}
	loc, err := c.locateText(from, to)
	if err != nil {
		return false, err
	}
	a, b := from-(loc.pos+1), to-(loc.pos+1)
	return applyMarkRange(loc.block, a, b, m), nil
}

// RemoveMark removes a mark type from the text at [from, to) within one
// block and reports whether any run carried it.
func (c *Change) RemoveMark(from, to int, t MarkType) (bool, error) {
	if c.done {
		return false, ErrChangeClosed
	}
	loc, err := c.locateText(from, to)
	if err != nil {
		return false, err
	}
	a, b := from-(loc.pos+1), to-(loc.pos+1)
	return removeMarkRange(loc.block, a, b, t), nil
}

// InsertTopLevel inserts blocks as top-level children before index. In
// tracked mode their text arrives under insertion marks.
func (c *Change) InsertTopLevel(index int, blocks ...*Node) error {
	if c.done {
		return ErrChangeClosed
	}
	if index < 0 || index > len(c.root.Children) {
		return fmt.Errorf("top-level index %d: %w", index, ErrOutOfRange)
	}
	if len(blocks) == 0 {
		return nil
	}
	pos, size := 0, 0
	for i := 0; i < index; i++ {
		pos += c.root.Children[i].NodeSize()
	}
	for _, b := range blocks {
		if c.mode == ChangeTracked {
			markSubtreeText(b, c.trackMark(MarkInsertion))
		}
		size += b.NodeSize()
	}
	kids := make([]*Node, 0, len(c.root.Children)+len(blocks))
	kids = append(kids, c.root.Children[:index]...)
	kids = append(kids, blocks...)
	kids = append(kids, c.root.Children[index:]...)
	c.root.Children = kids
	c.mapping.AppendMap(ReplacedRange(pos, pos, size))
	return nil
}

func (c *Change) trackMark(t MarkType) Mark {
	m := Mark{Type: t}
	if c.author != "" {
		m.Attrs = map[string]string{"author": c.author}
	}
	return m
}

// spliceInline rewrites a block's inline rune range [a, b) to the given
// text, keeping surrounding runs and re-normalizing.
func spliceInline(blk *Node, a, b int, text string, marks MarkSet) {
	kids := inlineSlice(blk, 0, a)
	if text != "" {
		kids = append(kids, NewText(text, marks))
	}
	kids = append(kids, inlineSlice(blk, b, blk.InlineLen())...)
	blk.Children = kids
	blk.Normalize()
}

// inlineSlice clones the runs covering rune offsets [from, to) of a block.
func inlineSlice(blk *Node, from, to int) []*Node {
	var out []*Node
	for _, r := range RunsInRange(blk, from, to) {
		out = append(out, NewText(r.Text, r.Marks))
	}
	return out
}

func applyMarkRange(blk *Node, a, b int, m Mark) bool {
	if a >= b {
		return false
	}
	changed := false
	kids := inlineSlice(blk, 0, a)
	for _, r := range RunsInRange(blk, a, b) {
		if cur, ok := r.Marks.Get(m.Type); !ok || !cur.Eq(m) {
			changed = true
		}
		kids = append(kids, NewText(r.Text, r.Marks.Add(m)))
	}
	kids = append(kids, inlineSlice(blk, b, blk.InlineLen())...)
	blk.Children = kids
	blk.Normalize()
	return changed
}

func removeMarkRange(blk *Node, a, b int, t MarkType) bool {
	if a >= b {
		return false
	}
	changed := false
	kids := inlineSlice(blk, 0, a)
	for _, r := range RunsInRange(blk, a, b) {
		if r.Marks.Has(t) {
			changed = true
		}
		kids = append(kids, NewText(r.Text, r.Marks.Remove(t)))
	}
	kids = append(kids, inlineSlice(blk, b, blk.InlineLen())...)
	blk.Children = kids
	blk.Normalize()
	return changed
}

func markSubtreeText(n *Node, m Mark) {
	if n.IsText() {
		n.Marks = n.Marks.Add(m)
		return
	}
	for _, c := range n.Children {
		markSubtreeText(c, m)
	}
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
