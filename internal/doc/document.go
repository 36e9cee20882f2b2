package doc

import "strconv"

// Revision is an opaque optimistic-concurrency token. Holders compare
// revisions for equality only; every committed change produces a new one.
type Revision uint64

func (r Revision) String() string {
	return strconv.FormatUint(uint64(r), 10)
}

// ChangeMode selects how mutations are recorded.
type ChangeMode int

const (
	// ChangeDirect applies edits destructively.
	ChangeDirect ChangeMode = iota
	// ChangeTracked preserves replaced text under deletion marks and tags
	// inserted text with insertion marks.
	ChangeTracked
)

func (m ChangeMode) String() string {
	if m == ChangeTracked {
		return "tracked"
	}
	return "direct"
}

// Document is a live document: a schema, a block tree and the current
// revision. All mutation goes through a Change started with StartChange;
// readers of Root must treat the tree as immutable.
type Document struct {
	schema *Schema
	root   *Node
	rev    Revision
}

// New builds a document over the given top-level blocks.
func New(schema *Schema, blocks ...*Node) *Document {
	root := &Node{Type: NodeDoc, Children: blocks}
	root.Normalize()
	return &Document{schema: schema, root: root}
}

// Schema returns the document's schema.
func (d *Document) Schema() *Schema { return d.schema }

// Root returns the current committed tree. Callers must not mutate it.
func (d *Document) Root() *Node { return d.root }

// Revision returns the current revision token.
func (d *Document) Revision() Revision { return d.rev }

// Clone returns an independent copy of the document at the same revision.
func (d *Document) Clone() *Document {
	return &Document{schema: d.schema, root: d.root.Clone(), rev: d.rev}
}

// StartChange opens a change unit over a working copy of the tree. The
// document is untouched until Commit.
func (d *Document) StartChange(mode ChangeMode) *Change {
	return &Change{doc: d, mode: mode, root: d.root.Clone()}
}
