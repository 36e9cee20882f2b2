// Package doc implements the document tree the plan engine operates on:
// typed block nodes with stable identities, inline text runs carrying mark
// sets, token-based absolute positions, and a copy-on-write change unit
// with position remapping.
//
// Position scheme: every character counts one token; entering or leaving a
// non-text node costs one token each. The root's content starts at position
// 0, so a block's inline text begins at blockPos+1 and block-relative text
// offset off corresponds to absolute position blockPos+1+off. All character
// counts are in runes.
package doc

import (
	"strings"

	"github.com/google/uuid"
)

// Node is one node in the document tree. Text nodes carry Text and Marks;
// every other node carries Children. Text-bearing blocks additionally carry
// a stable identity in ID.
type Node struct {
	Type     NodeType
	ID       string
	Attrs    map[string]string
	Text     string
	Marks    MarkSet
	Children []*Node
}

// NewText builds an inline text node.
func NewText(text string, marks MarkSet) *Node {
	return &Node{Type: NodeText, Text: text, Marks: marks.Clone()}
}

// NewBlock builds a non-text node. An empty id gets a fresh identity when
// the node type is text-bearing in the default schema sense; containers
// keep an empty id.
func NewBlock(t NodeType, id string, attrs map[string]string, children ...*Node) *Node {
	n := &Node{Type: t, ID: id, Attrs: attrs, Children: children}
	return n
}

// NewParagraph builds a paragraph with a fresh identity holding a single
// unstyled run (or no runs when text is empty).
func NewParagraph(text string) *Node {
	return newTextBlock(NodeParagraph, nil, text)
}

// NewHeading builds a heading with a fresh identity at the given level.
func NewHeading(level int, text string) *Node {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return newTextBlock(NodeHeading, map[string]string{"level": levelString(level)}, text)
}

// NewListItem builds a list item with a fresh identity.
func NewListItem(text string) *Node {
	return newTextBlock(NodeListItem, nil, text)
}

// NewTableCell builds a table cell with a fresh identity.
func NewTableCell(text string) *Node {
	return newTextBlock(NodeTableCell, nil, text)
}

func newTextBlock(t NodeType, attrs map[string]string, text string) *Node {
	n := &Node{Type: t, ID: NewBlockID(), Attrs: attrs}
	if text != "" {
		n.Children = []*Node{NewText(text, nil)}
	}
	return n
}

func levelString(level int) string {
	return string(rune('0' + level))
}

// NewBlockID mints a fresh block identity. Identity assignment is the
// document layer's contract; the plan engine only verifies uniqueness.
func NewBlockID() string {
	return uuid.NewString()
}

// IsText reports whether the node is an inline text node.
func (n *Node) IsText() bool { return n.Type == NodeText }

// TextLen returns the rune length of a text node (0 for non-text).
func (n *Node) TextLen() int {
	if !n.IsText() {
		return 0
	}
	return len([]rune(n.Text))
}

// NodeSize returns the node's size in position tokens: rune count for text
// nodes, 2+content for everything else.
func (n *Node) NodeSize() int {
	if n.IsText() {
		return n.TextLen()
	}
	return 2 + n.ContentSize()
}

// ContentSize returns the summed size of the node's children.
func (n *Node) ContentSize() int {
	size := 0
	for _, c := range n.Children {
		size += c.NodeSize()
	}
	return size
}

// InlineText returns the concatenated text of the node's inline children.
func (n *Node) InlineText() string {
	if n.IsText() {
		return n.Text
	}
	var b strings.Builder
	for _, c := range n.Children {
		if c.IsText() {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

// InlineLen returns the rune length of the node's inline text.
func (n *Node) InlineLen() int {
	total := 0
	for _, c := range n.Children {
		total += c.TextLen()
	}
	return total
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	out := &Node{Type: n.Type, ID: n.ID, Text: n.Text, Marks: n.Marks.Clone()}
	if n.Attrs != nil {
		out.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			out.Attrs[k] = v
		}
	}
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Eq reports deep equality of two subtrees, including ids, attrs, text and
// marks.
func (n *Node) Eq(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Type != o.Type || n.ID != o.ID || n.Text != o.Text {
		return false
	}
	if !n.Marks.Eq(o.Marks) {
		return false
	}
	if len(n.Attrs) != len(o.Attrs) {
		return false
	}
	for k, v := range n.Attrs {
		if o.Attrs[k] != v {
			return false
		}
	}
	if len(n.Children) != len(o.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Eq(o.Children[i]) {
			return false
		}
	}
	return true
}

// Normalize merges adjacent inline text nodes carrying identical mark sets
// and drops empty text nodes, recursively. Runs stay maximal afterwards.
func (n *Node) Normalize() {
	if n.IsText() {
		return
	}
	for _, c := range n.Children {
		c.Normalize()
	}
	if len(n.Children) == 0 {
		return
	}
	merged := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.IsText() && c.Text == "" {
			continue
		}
		if c.IsText() && len(merged) > 0 {
			last := merged[len(merged)-1]
			if last.IsText() && last.Marks.Eq(c.Marks) {
				last.Text += c.Text
				continue
			}
		}
		merged = append(merged, c)
	}
	n.Children = merged
}

// Walk visits every descendant of root depth-first, passing the absolute
// position before each node and its parent. Returning false stops the walk.
// The root node itself is not visited; its content starts at position 0.
func Walk(root *Node, fn func(n *Node, pos int, parent *Node) bool) {
	walkChildren(root, 0, fn)
}

func walkChildren(parent *Node, pos int, fn func(n *Node, pos int, parent *Node) bool) bool {
	cur := pos
	for _, c := range parent.Children {
		if !fn(c, cur, parent) {
			return false
		}
		if !c.IsText() {
			if !walkChildren(c, cur+1, fn) {
				return false
			}
		}
		cur += c.NodeSize()
	}
	return true
}
