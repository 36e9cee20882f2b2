package doc

// NodeType identifies a node kind in the document tree.
type NodeType string

const (
	NodeDoc         NodeType = "doc"
	NodeParagraph   NodeType = "paragraph"
	NodeHeading     NodeType = "heading" // attrs: level ("1".."6")
	NodeBulletList  NodeType = "bulletList"
	NodeOrderedList NodeType = "orderedList"
	NodeListItem    NodeType = "listItem"
	NodeTable       NodeType = "table"
	NodeTableRow    NodeType = "tableRow"
	NodeTableCell   NodeType = "tableCell"
	NodeText        NodeType = "text"
)

// NodeSpec describes one registered node type.
type NodeSpec struct {
	Type NodeType

	// TextBearing nodes hold inline text nodes directly and can anchor
	// mutations (paragraph, heading, listItem, tableCell).
	TextBearing bool

	// Container nodes hold other block nodes (doc, lists, table parts).
	Container bool
}

// MarkSpec describes one registered mark type.
type MarkSpec struct {
	Type MarkType

	// ValueAttr names the attribute a value-bearing mark carries ("" for
	// boolean marks).
	ValueAttr string

	// Metadata marks annotate without styling: comments, tracked changes.
	// They are excluded from style capture and never subject to style
	// policy.
	Metadata bool
}

// Schema is the registry of node and mark types the engine may touch.
// Operations consult it to reject structures it cannot build and to no-op
// gracefully when a requested mark type does not exist.
type Schema struct {
	nodes map[NodeType]NodeSpec
	marks map[MarkType]MarkSpec
}

// NewSchema builds a schema from explicit specs.
func NewSchema(nodes []NodeSpec, marks []MarkSpec) *Schema {
	s := &Schema{
		nodes: make(map[NodeType]NodeSpec, len(nodes)),
		marks: make(map[MarkType]MarkSpec, len(marks)),
	}
	for _, n := range nodes {
		s.nodes[n.Type] = n
	}
	for _, m := range marks {
		s.marks[m.Type] = m
	}
	return s
}

// DefaultSchema returns the stock rich-text schema: paragraphs, headings,
// bullet/ordered lists, tables, and the full mark set.
func DefaultSchema() *Schema {
	return NewSchema(
		[]NodeSpec{
			{Type: NodeDoc, Container: true},
			{Type: NodeParagraph, TextBearing: true},
			{Type: NodeHeading, TextBearing: true},
			{Type: NodeBulletList, Container: true},
			{Type: NodeOrderedList, Container: true},
			{Type: NodeListItem, TextBearing: true},
			{Type: NodeTable, Container: true},
			{Type: NodeTableRow, Container: true},
			{Type: NodeTableCell, TextBearing: true},
			{Type: NodeText},
		},
		[]MarkSpec{
			{Type: MarkBold},
			{Type: MarkItalic},
			{Type: MarkUnderline},
			{Type: MarkStrike},
			{Type: MarkFont, ValueAttr: "family"},
			{Type: MarkColor, ValueAttr: "value"},
			{Type: MarkLink, ValueAttr: "href"},
			{Type: MarkComment, ValueAttr: "id", Metadata: true},
			{Type: MarkInsertion, ValueAttr: "author", Metadata: true},
			{Type: MarkDeletion, ValueAttr: "author", Metadata: true},
		},
	)
}

// HasNode reports whether the node type is registered.
func (s *Schema) HasNode(t NodeType) bool {
	_, ok := s.nodes[t]
	return ok
}

// HasMark reports whether the mark type is registered.
func (s *Schema) HasMark(t MarkType) bool {
	_, ok := s.marks[t]
	return ok
}

// NodeSpec returns the spec for a node type.
func (s *Schema) NodeSpec(t NodeType) (NodeSpec, bool) {
	spec, ok := s.nodes[t]
	return spec, ok
}

// MarkSpec returns the spec for a mark type.
func (s *Schema) MarkSpec(t MarkType) (MarkSpec, bool) {
	spec, ok := s.marks[t]
	return spec, ok
}

// IsTextBearing reports whether nodes of this type hold inline text.
func (s *Schema) IsTextBearing(t NodeType) bool {
	spec, ok := s.nodes[t]
	return ok && spec.TextBearing
}

// IsMetadataMark reports whether the mark type is metadata-only.
func (s *Schema) IsMetadataMark(t MarkType) bool {
	spec, ok := s.marks[t]
	return ok && spec.Metadata
}

// StripMetadata removes metadata marks from a set, leaving only marks that
// style resolution may consider.
func (s *Schema) StripMetadata(set MarkSet) MarkSet {
	return set.Filter(func(m Mark) bool { return !s.IsMetadataMark(m.Type) })
}
