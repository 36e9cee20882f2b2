package doc

import "strings"

// Stats summarizes a document's shape and tracked-change load.
type Stats struct {
	Blocks            int `json:"blocks"`
	Paragraphs        int `json:"paragraphs"`
	Headings          int `json:"headings"`
	ListItems         int `json:"listItems"`
	Tables            int `json:"tables"`
	Words             int `json:"words"`
	Characters        int `json:"characters"`
	TrackedInsertions int `json:"trackedInsertions"`
	TrackedDeletions  int `json:"trackedDeletions"`
}

// Stats walks the committed tree and counts blocks, words, characters and
// tracked-change runs.
func (d *Document) Stats() Stats {
	var s Stats
	Walk(d.root, func(n *Node, pos int, parent *Node) bool {
		switch n.Type {
		case NodeParagraph:
			s.Paragraphs++
		case NodeHeading:
			s.Headings++
		case NodeListItem:
			s.ListItems++
		case NodeTable:
			s.Tables++
		case NodeText:
			s.Words += len(strings.Fields(n.Text))
			s.Characters += n.TextLen()
			if n.Marks.Has(MarkInsertion) {
				s.TrackedInsertions++
			}
			if n.Marks.Has(MarkDeletion) {
				s.TrackedDeletions++
			}
			return true
		}
		if d.schema.IsTextBearing(n.Type) {
			s.Blocks++
		}
		return true
	})
	return s
}
