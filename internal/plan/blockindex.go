package plan

import "docplan/internal/doc"

// BlockInfo is one indexed node: its identity, type, position before the
// node and the absolute range of its inline content.
type BlockInfo struct {
	Node *doc.Node
	ID   string
	Type doc.NodeType
	// Pos is the token position before the node; the subtree occupies
	// [Pos, Pos+Node.NodeSize()).
	Pos int
	// Start/End bound the node's own inline content: [Pos+1, Pos+1+len).
	Start, End int
	// TextBearing marks nodes whose inline content can anchor a mutation.
	TextBearing bool
}

// SubtreeEnd is the token position after the node's subtree.
func (b *BlockInfo) SubtreeEnd() int { return b.Pos + b.Node.NodeSize() }

// BlockIndex is a one-walk snapshot of the tree: every text-bearing block
// in document order, plus identity lookup over all identified nodes. A
// duplicated identity resolves to nothing, so an ambiguous id can never
// silently select the wrong node.
type BlockIndex struct {
	// Blocks lists the text-bearing candidates in document order.
	Blocks []*BlockInfo

	byID map[string]*BlockInfo
	dup  map[string]bool
}

// BuildIndex walks the tree once and snapshots block positions and
// identities.
func BuildIndex(schema *doc.Schema, root *doc.Node) *BlockIndex {
	ix := &BlockIndex{
		byID: make(map[string]*BlockInfo),
		dup:  make(map[string]bool),
	}
	doc.Walk(root, func(n *doc.Node, pos int, parent *doc.Node) bool {
		if n.IsText() {
			return true
		}
		info := &BlockInfo{
			Node:        n,
			ID:          n.ID,
			Type:        n.Type,
			Pos:         pos,
			Start:       pos + 1,
			End:         pos + 1 + n.InlineLen(),
			TextBearing: schema.IsTextBearing(n.Type),
		}
		if info.TextBearing {
			ix.Blocks = append(ix.Blocks, info)
		}
		if n.ID != "" {
			if _, seen := ix.byID[n.ID]; seen || ix.dup[n.ID] {
				ix.dup[n.ID] = true
				delete(ix.byID, n.ID)
			} else {
				ix.byID[n.ID] = info
			}
		}
		return true
	})
	return ix
}

// ByID resolves an identity. Duplicated identities resolve to nothing.
func (ix *BlockIndex) ByID(id string) (*BlockInfo, bool) {
	info, ok := ix.byID[id]
	return info, ok
}

// IsDuplicate reports whether an identity appeared more than once.
func (ix *BlockIndex) IsDuplicate(id string) bool { return ix.dup[id] }

// HasDuplicates reports whether any identity appeared more than once.
func (ix *BlockIndex) HasDuplicates() bool { return len(ix.dup) > 0 }

// Scope returns the text-bearing blocks inside the subtree of the named
// block, or all blocks when within is empty. The named block itself is
// part of its own scope. ok is false when the id is unresolvable.
func (ix *BlockIndex) Scope(within string) (blocks []*BlockInfo, ok bool) {
	if within == "" {
		return ix.Blocks, true
	}
	anchor, found := ix.ByID(within)
	if !found {
		return nil, false
	}
	lo, hi := anchor.Pos, anchor.SubtreeEnd()
	for _, b := range ix.Blocks {
		if b.Pos >= lo && b.SubtreeEnd() <= hi {
			blocks = append(blocks, b)
		}
	}
	return blocks, true
}
