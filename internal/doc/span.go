package doc

import "fmt"

// SpanSeg is one per-block piece of a cross-block span, as an absolute
// token range inside a single block's inline content.
type SpanSeg struct {
	From, To int
}

// SpanPart is one replacement block's worth of text with its uniform style.
type SpanPart struct {
	Text  string
	Marks MarkSet
}

// ReplaceSpan rewrites a contiguous cross-block span. The span must cover
// at least two distinct blocks in document order, reach the first block's
// end, start at the last block's start, and cover interior blocks whole.
//
// With a single replacement part the span collapses into the first block,
// which keeps its identity; the last block's remainder moves in and the
// other covered blocks disappear. With several parts the first and last
// blocks keep their identities and types, and interior parts become fresh
// sibling blocks. In tracked mode nothing merges: covered text gains
// deletion marks and the single replacement part arrives after the first
// segment under an insertion mark.
func (c *Change) ReplaceSpan(segs []SpanSeg, parts []SpanPart) error {
	if c.done {
		return ErrChangeClosed
	}
	if len(segs) < 2 || len(parts) == 0 {
		return fmt.Errorf("%d segments, %d parts: %w", len(segs), len(parts), ErrBadSpan)
	}
	locs := make([]located, len(segs))
	for i, s := range segs {
		loc, err := c.locateText(s.From, s.To)
		if err != nil {
			return err
		}
		if i > 0 && loc.pos <= locs[i-1].pos {
			return fmt.Errorf("segment %d out of document order: %w", i, ErrBadSpan)
		}
		locs[i] = loc
	}
	for i, s := range segs {
		base := locs[i].pos + 1
		a, b := s.From-base, s.To-base
		if i > 0 && a != 0 {
			return fmt.Errorf("segment %d does not start its block: %w", i, ErrBadSpan)
		}
		if i < len(segs)-1 && b != locs[i].block.InlineLen() {
			return fmt.Errorf("segment %d does not reach its block end: %w", i, ErrBadSpan)
		}
	}
	if c.mode == ChangeTracked {
		return c.trackedSpan(segs, locs, parts)
	}
	return c.directSpan(segs, locs, parts)
}

func (c *Change) directSpan(segs []SpanSeg, locs []located, parts []SpanPart) error {
	parent := parentOf(c.root, locs[0].block)
	for _, loc := range locs[1:] {
		if parentOf(c.root, loc.block) != parent {
			return fmt.Errorf("span blocks are not siblings: %w", ErrBadSpan)
		}
	}
	k := len(segs)
	first, last := locs[0], locs[k-1]
	a1 := segs[0].From - (first.pos + 1)
	bk := segs[k-1].To - (last.pos + 1)
	prefix := inlineSlice(first.block, 0, a1)
	suffix := inlineSlice(last.block, bk, last.block.InlineLen())

	l1 := segs[0].To - segs[0].From
	lk := segs[k-1].To - segs[k-1].From
	gap := segs[k-1].From - segs[0].To

	m := len(parts)
	if m == 1 {
		kids := prefix
		if parts[0].Text != "" {
			kids = append(kids, NewText(parts[0].Text, parts[0].Marks))
		}
		first.block.Children = append(kids, suffix...)
		first.block.Normalize()
		removeChildren(parent, blocksOf(locs[1:]))
		n1 := runeLen(parts[0].Text)
		c.mapping.AppendMap(ReplacedRange(segs[0].From, segs[0].From+l1, n1))
		c.mapping.AppendMap(ReplacedRange(segs[0].From+n1, segs[0].From+n1+gap, 0))
		c.mapping.AppendMap(ReplacedRange(segs[0].From+n1, segs[0].From+n1+lk, 0))
		return nil
	}

	kids := prefix
	if parts[0].Text != "" {
		kids = append(kids, NewText(parts[0].Text, parts[0].Marks))
	}
	first.block.Children = kids
	first.block.Normalize()

	lastPart := parts[m-1]
	kids = nil
	if lastPart.Text != "" {
		kids = append(kids, NewText(lastPart.Text, lastPart.Marks))
	}
	last.block.Children = append(kids, suffix...)
	last.block.Normalize()

	removeChildren(parent, blocksOf(locs[1:k-1]))

	interiorType := NodeParagraph
	if parent.Type != NodeDoc {
		interiorType = first.block.Type
	}
	var fresh []*Node
	newGap := 2
	for _, p := range parts[1 : m-1] {
		blk := &Node{Type: interiorType, ID: NewBlockID()}
		if p.Text != "" {
			blk.Children = []*Node{NewText(p.Text, p.Marks)}
		}
		fresh = append(fresh, blk)
		newGap += 2 + runeLen(p.Text)
	}
	insertAfter(parent, first.block, fresh)

	n1 := runeLen(parts[0].Text)
	c.mapping.AppendMap(ReplacedRange(segs[0].From, segs[0].From+l1, n1))
	c.mapping.AppendMap(ReplacedRange(segs[0].From+n1, segs[0].From+n1+gap, newGap))
	c.mapping.AppendMap(ReplacedRange(segs[0].From+n1+newGap, segs[0].From+n1+newGap+lk, runeLen(lastPart.Text)))
	return nil
}

func (c *Change) trackedSpan(segs []SpanSeg, locs []located, parts []SpanPart) error {
	if len(parts) != 1 {
		return ErrTrackedSplit
	}
	del := c.trackMark(MarkDeletion)
	for i, s := range segs {
		base := locs[i].pos + 1
		applyMarkRange(locs[i].block, s.From-base, s.To-base, del)
	}
	text := parts[0].Text
	if text == "" {
		return nil
	}
	first := locs[0]
	a := segs[0].To - (first.pos + 1)
	spliceInline(first.block, a, a, text, parts[0].Marks.Add(c.trackMark(MarkInsertion)))
	c.mapping.AppendMap(ReplacedRange(segs[0].To, segs[0].To, runeLen(text)))
	return nil
}

func parentOf(root *Node, target *Node) *Node {
	var parent *Node
	Walk(root, func(n *Node, pos int, p *Node) bool {
		if n == target {
			parent = p
			return false
		}
		return true
	})
	return parent
}

func removeChildren(parent *Node, gone []*Node) {
	if len(gone) == 0 {
		return
	}
	drop := make(map[*Node]bool, len(gone))
	for _, n := range gone {
		drop[n] = true
	}
	kept := parent.Children[:0]
	for _, ch := range parent.Children {
		if !drop[ch] {
			kept = append(kept, ch)
		}
	}
	parent.Children = kept
}

func insertAfter(parent *Node, anchor *Node, blocks []*Node) {
	if len(blocks) == 0 {
		return
	}
	out := make([]*Node, 0, len(parent.Children)+len(blocks))
	for _, ch := range parent.Children {
		out = append(out, ch)
		if ch == anchor {
			out = append(out, blocks...)
		}
	}
	parent.Children = out
}

func blocksOf(locs []located) []*Node {
	out := make([]*Node, len(locs))
	for i, l := range locs {
		out[i] = l.block
	}
	return out
}
