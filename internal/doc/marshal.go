package doc

import (
	"encoding/json"
	"fmt"
)

type docJSON struct {
	Revision uint64     `json:"revision"`
	Blocks   []nodeJSON `json:"blocks"`
}

type nodeJSON struct {
	Type     string            `json:"type"`
	ID       string            `json:"id,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Marks    []markJSON        `json:"marks,omitempty"`
	Children []nodeJSON        `json:"children,omitempty"`
}

type markJSON struct {
	Type  string            `json:"type"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// Marshal encodes a document, including its revision, as JSON.
func Marshal(d *Document) ([]byte, error) {
	out := docJSON{Revision: uint64(d.rev)}
	for _, b := range d.root.Children {
		out.Blocks = append(out.Blocks, encodeNode(b))
	}
	return json.Marshal(out)
}

func encodeNode(n *Node) nodeJSON {
	out := nodeJSON{Type: string(n.Type), ID: n.ID, Attrs: n.Attrs, Text: n.Text}
	for _, m := range n.Marks {
		out.Marks = append(out.Marks, markJSON{Type: string(m.Type), Attrs: m.Attrs})
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, encodeNode(c))
	}
	return out
}

// Unmarshal decodes a document against a schema. Unknown node or mark
// types are rejected; text-bearing blocks without an id get a fresh one.
func Unmarshal(schema *Schema, data []byte) (*Document, error) {
	var in docJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	blocks := make([]*Node, 0, len(in.Blocks))
	for i, b := range in.Blocks {
		n, err := decodeNode(schema, b)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		blocks = append(blocks, n)
	}
	d := New(schema, blocks...)
	d.rev = Revision(in.Revision)
	return d, nil
}

func decodeNode(schema *Schema, in nodeJSON) (*Node, error) {
	t := NodeType(in.Type)
	if !schema.HasNode(t) {
		return nil, fmt.Errorf("unknown node type %q", in.Type)
	}
	n := &Node{Type: t, ID: in.ID, Attrs: in.Attrs, Text: in.Text}
	if t == NodeText {
		if len(in.Children) > 0 {
			return nil, fmt.Errorf("text node with children")
		}
		marks := make([]Mark, 0, len(in.Marks))
		for _, m := range in.Marks {
			mt := MarkType(m.Type)
			if !schema.HasMark(mt) {
				return nil, fmt.Errorf("unknown mark type %q", m.Type)
			}
			marks = append(marks, Mark{Type: mt, Attrs: m.Attrs})
		}
		n.Marks = NewMarkSet(marks...)
		return n, nil
	}
	if n.ID == "" && schema.IsTextBearing(t) {
		n.ID = NewBlockID()
	}
	for i, c := range in.Children {
		child, err := decodeNode(schema, c)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}
