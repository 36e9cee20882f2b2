package plan

import (
	"docplan/internal/doc"
)

// execCreate inserts a fresh paragraph or heading as a top-level sibling
// of each target's anchor block. Anchoring goes by block id against the
// working tree rather than by token position, so earlier steps can move
// the anchor freely; a nested anchor floats the insertion up to its
// top-level ancestor.
func execCreate(x *execCtx, cm *compiledMutation) (StepOutcome, error) {
	args := cm.step.Args
	var created []string
	for _, target := range cm.targets {
		anchorID := anchorBlockID(target, args.Placement)
		idx, ok := topLevelIndexOf(x.change.Root(), anchorID)
		if !ok {
			return StepOutcome{}, newError(CodeTargetNotFound, cm.step.ID,
				"anchor block no longer exists").withDetail("blockId", anchorID)
		}
		if args.Placement == PlaceAfter {
			idx++
		}
		var block *doc.Node
		if cm.step.Op == OpCreateHeading {
			level := args.Level
			if level == 0 {
				level = 1
			}
			block = doc.NewHeading(level, args.Text)
		} else {
			block = doc.NewParagraph(args.Text)
		}
		if err := x.change.InsertTopLevel(idx, block); err != nil {
			return StepOutcome{}, fromDocErr(err, cm.step.ID)
		}
		created = append(created, block.ID)
	}
	if BuildIndex(x.schema, x.change.Root()).HasDuplicates() {
		return StepOutcome{}, newError(CodeInternal, cm.step.ID,
			"duplicate block id after insertion")
	}
	out := outcome(cm, EffectChanged)
	out.Data = map[string]any{"blockIds": created}
	return out, nil
}

// anchorBlockID picks the block a create step hangs off: the matched
// block for a range, and the first or last segment's block for a span so
// the new block never lands mid-span.
func anchorBlockID(target CompiledTarget, placement Placement) string {
	switch t := target.(type) {
	case RangeTarget:
		return t.BlockID
	case SpanTarget:
		if placement == PlaceAfter {
			return t.Segments[len(t.Segments)-1].BlockID
		}
		return t.Segments[0].BlockID
	}
	return ""
}

func topLevelIndexOf(root *doc.Node, id string) (int, bool) {
	if id == "" {
		return 0, false
	}
	for i, child := range root.Children {
		if subtreeHasID(child, id) {
			return i, true
		}
	}
	return 0, false
}

func subtreeHasID(n *doc.Node, id string) bool {
	if n.IsText() {
		return false
	}
	if n.ID == id {
		return true
	}
	for _, c := range n.Children {
		if subtreeHasID(c, id) {
			return true
		}
	}
	return false
}
