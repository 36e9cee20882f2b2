package plan

import (
	"docplan/internal/doc"
)

// Builders shared across the package tests. Fixed block ids keep selector
// expectations readable.

func para(id, text string) *doc.Node {
	p := doc.NewParagraph(text)
	p.ID = id
	return p
}

func heading(id string, level int, text string) *doc.Node {
	h := doc.NewHeading(level, text)
	h.ID = id
	return h
}

func bulletList(id string, items ...*doc.Node) *doc.Node {
	return &doc.Node{Type: doc.NodeBulletList, ID: id, Children: items}
}

func listItem(id, text string) *doc.Node {
	li := doc.NewListItem(text)
	li.ID = id
	return li
}

func testDoc(blocks ...*doc.Node) *doc.Document {
	return doc.New(doc.DefaultSchema(), blocks...)
}

func blockTexts(d *doc.Document) []string {
	var out []string
	for _, b := range d.Root().Children {
		out = append(out, b.InlineText())
	}
	return out
}

func testMatcher(d *doc.Document) *matcher {
	return newMatcher(d.Schema(), BuildIndex(d.Schema(), d.Root()), 0)
}
