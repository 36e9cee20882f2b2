package doc

import "sort"

// MarkType identifies an inline annotation kind.
type MarkType string

const (
	// Boolean formatting marks.
	MarkBold      MarkType = "bold"
	MarkItalic    MarkType = "italic"
	MarkUnderline MarkType = "underline"
	MarkStrike    MarkType = "strike"

	// Value-bearing formatting marks.
	MarkFont  MarkType = "font"  // attrs: family
	MarkColor MarkType = "color" // attrs: value
	MarkLink  MarkType = "link"  // attrs: href

	// Metadata marks. These annotate text without styling it and are
	// invisible to style capture and resolution.
	MarkComment   MarkType = "comment"   // attrs: id
	MarkInsertion MarkType = "insertion" // attrs: author
	MarkDeletion  MarkType = "deletion"  // attrs: author
)

// Mark is a single inline annotation. Boolean marks carry no attrs;
// value-bearing and metadata marks carry a small attribute map.
type Mark struct {
	Type  MarkType          `json:"type"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// Eq reports whether two marks have the same type and attributes.
func (m Mark) Eq(o Mark) bool {
	if m.Type != o.Type || len(m.Attrs) != len(o.Attrs) {
		return false
	}
	for k, v := range m.Attrs {
		if o.Attrs[k] != v {
			return false
		}
	}
	return true
}

// Attr returns a single attribute value, or "" when absent.
func (m Mark) Attr(key string) string {
	if m.Attrs == nil {
		return ""
	}
	return m.Attrs[key]
}

// clone returns a deep copy of the mark.
func (m Mark) clone() Mark {
	if m.Attrs == nil {
		return Mark{Type: m.Type}
	}
	attrs := make(map[string]string, len(m.Attrs))
	for k, v := range m.Attrs {
		attrs[k] = v
	}
	return Mark{Type: m.Type, Attrs: attrs}
}

// MarkSet is a normalized set of marks: sorted by type, at most one mark
// per type. The zero value is the empty set.
type MarkSet []Mark

// NewMarkSet builds a normalized set from the given marks. Later duplicates
// of a type replace earlier ones.
func NewMarkSet(marks ...Mark) MarkSet {
	var s MarkSet
	for _, m := range marks {
		s = s.Add(m)
	}
	return s
}

// Has reports whether the set contains a mark of the given type.
func (s MarkSet) Has(t MarkType) bool {
	_, ok := s.Get(t)
	return ok
}

// Get returns the mark of the given type, if present.
func (s MarkSet) Get(t MarkType) (Mark, bool) {
	for _, m := range s {
		if m.Type == t {
			return m, true
		}
	}
	return Mark{}, false
}

// Add returns a new set with the mark added, replacing any existing mark of
// the same type. The receiver is not modified.
func (s MarkSet) Add(m Mark) MarkSet {
	out := make(MarkSet, 0, len(s)+1)
	replaced := false
	for _, e := range s {
		if e.Type == m.Type {
			out = append(out, m.clone())
			replaced = true
			continue
		}
		out = append(out, e)
	}
	if !replaced {
		out = append(out, m.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Remove returns a new set without any mark of the given type.
func (s MarkSet) Remove(t MarkType) MarkSet {
	out := make(MarkSet, 0, len(s))
	for _, e := range s {
		if e.Type != t {
			out = append(out, e)
		}
	}
	return out
}

// Eq reports whether two sets contain exactly the same marks.
func (s MarkSet) Eq(o MarkSet) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if !s[i].Eq(o[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the set.
func (s MarkSet) Clone() MarkSet {
	if s == nil {
		return nil
	}
	out := make(MarkSet, 0, len(s))
	for _, m := range s {
		out = append(out, m.clone())
	}
	return out
}

// Filter returns the marks for which keep returns true.
func (s MarkSet) Filter(keep func(Mark) bool) MarkSet {
	out := make(MarkSet, 0, len(s))
	for _, m := range s {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
