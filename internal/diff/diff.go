// Package diff renders document-to-document differences for plan previews
// using the sergi/go-diff library.
package diff

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"docplan/internal/doc"
)

// ChangeType classifies a block's fate between two document states.
type ChangeType string

const (
	Unchanged ChangeType = "unchanged"
	Modified  ChangeType = "modified"
	Added     ChangeType = "added"
	Removed   ChangeType = "removed"
)

// SpanOp classifies one stretch of a modified block's text.
type SpanOp string

const (
	Keep   SpanOp = "keep"
	Insert SpanOp = "insert"
	Delete SpanOp = "delete"
)

// Span is one stretch of a modified block's inline text.
type Span struct {
	Op   SpanOp `json:"op"`
	Text string `json:"text"`
}

// BlockChange is one block's difference between the before and after
// trees. Modified blocks carry character-level spans.
type BlockChange struct {
	Type    ChangeType `json:"type"`
	BlockID string     `json:"blockId"`
	Before  string     `json:"before,omitempty"`
	After   string     `json:"after,omitempty"`
	Spans   []Span     `json:"spans,omitempty"`
}

// Engine computes document diffs. The zero value is not usable; NewEngine
// configures the underlying matcher.
type Engine struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewEngine creates a diff engine tuned for accuracy over speed.
func NewEngine() *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Engine{dmp: dmp}
}

// DefaultEngine is a singleton engine for general use.
var DefaultEngine = NewEngine()

type blockText struct {
	id   string
	text string
}

// Documents compares two document states block by block, matching blocks
// by identity. Block order follows the after tree, with removed blocks
// reported where the before tree had them.
func (e *Engine) Documents(before, after *doc.Document) []BlockChange {
	b := collectBlocks(before)
	a := collectBlocks(after)

	beforeByID := make(map[string]blockText, len(b))
	for _, blk := range b {
		beforeByID[blk.id] = blk
	}
	afterIDs := make(map[string]bool, len(a))
	for _, blk := range a {
		afterIDs[blk.id] = true
	}

	var changes []BlockChange
	consumed := make(map[string]bool)
	i, j := 0, 0
	for i < len(b) || j < len(a) {
		switch {
		case i < len(b) && consumed[b[i].id]:
			i++
		case i < len(b) && !afterIDs[b[i].id]:
			changes = append(changes, BlockChange{
				Type:    Removed,
				BlockID: b[i].id,
				Before:  b[i].text,
			})
			i++
		case j < len(a):
			blk := a[j]
			j++
			old, existed := beforeByID[blk.id]
			if !existed {
				changes = append(changes, BlockChange{
					Type:    Added,
					BlockID: blk.id,
					After:   blk.text,
				})
				continue
			}
			consumed[blk.id] = true
			if i < len(b) && b[i].id == blk.id {
				i++
			}
			if old.text == blk.text {
				changes = append(changes, BlockChange{
					Type:    Unchanged,
					BlockID: blk.id,
					Before:  old.text,
					After:   blk.text,
				})
				continue
			}
			changes = append(changes, BlockChange{
				Type:    Modified,
				BlockID: blk.id,
				Before:  old.text,
				After:   blk.text,
				Spans:   e.spans(old.text, blk.text),
			})
		default:
			i++
		}
	}
	return changes
}

// Documents is a convenience over the default engine.
func Documents(before, after *doc.Document) []BlockChange {
	return DefaultEngine.Documents(before, after)
}

// Changed filters a comparison down to the blocks that differ.
func Changed(changes []BlockChange) []BlockChange {
	var out []BlockChange
	for _, c := range changes {
		if c.Type != Unchanged {
			out = append(out, c)
		}
	}
	return out
}

func (e *Engine) spans(old, new string) []Span {
	diffs := e.dmp.DiffMain(old, new, false)
	diffs = e.dmp.DiffCleanupSemantic(diffs)
	spans := make([]Span, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			spans = append(spans, Span{Op: Keep, Text: d.Text})
		case diffmatchpatch.DiffDelete:
			spans = append(spans, Span{Op: Delete, Text: d.Text})
		case diffmatchpatch.DiffInsert:
			spans = append(spans, Span{Op: Insert, Text: d.Text})
		}
	}
	return spans
}

func collectBlocks(d *doc.Document) []blockText {
	var out []blockText
	doc.Walk(d.Root(), func(n *doc.Node, pos int, parent *doc.Node) bool {
		if d.Schema().IsTextBearing(n.Type) {
			out = append(out, blockText{id: n.ID, text: n.InlineText()})
		}
		return true
	})
	return out
}
