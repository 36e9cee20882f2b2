package main

import (
	"fmt"
	"io"

	"docplan/internal/diff"
	"docplan/internal/plan"
)

// emitText renders a payload as terse human-readable lines for --output text.
func emitText(w io.Writer, data any) error {
	switch v := data.(type) {
	case *plan.Receipt:
		printReceipt(w, v)
	case compileReport:
		fmt.Fprintf(w, "plan compiles: %d steps at revision %s\n", v.Steps, v.CompiledAt)
	case previewReport:
		printReceipt(w, v.Receipt)
		for _, c := range v.Changes {
			switch c.Type {
			case diff.Added:
				fmt.Fprintf(w, "+ %s %q\n", c.BlockID, c.After)
			case diff.Removed:
				fmt.Fprintf(w, "- %s %q\n", c.BlockID, c.Before)
			default:
				fmt.Fprintf(w, "~ %s %q -> %q\n", c.BlockID, c.Before, c.After)
			}
		}
	case findReport:
		fmt.Fprintf(w, "matches: %d\n", v.Count)
		for _, m := range v.Matches {
			for _, seg := range m.Segments {
				fmt.Fprintf(w, "  %s [%d,%d) %q\n", seg.BlockID, seg.From, seg.To, seg.Text)
			}
		}
	case docInfo:
		s := v.Stats
		fmt.Fprintf(w, "revision: %s\n", v.Revision)
		fmt.Fprintf(w, "blocks:   %d (%d paragraphs, %d headings, %d list items, %d tables)\n",
			s.Blocks, s.Paragraphs, s.Headings, s.ListItems, s.Tables)
		fmt.Fprintf(w, "words:    %d\n", s.Words)
		fmt.Fprintf(w, "chars:    %d\n", s.Characters)
		if s.TrackedInsertions > 0 || s.TrackedDeletions > 0 {
			fmt.Fprintf(w, "tracked:  %d insertions, %d deletions\n", s.TrackedInsertions, s.TrackedDeletions)
		}
	case batchReport:
		for _, r := range v.Documents {
			if r.OK {
				fmt.Fprintf(w, "%s: committed revision %s -> %s\n",
					r.Document, r.Receipt.Revision.Before, r.Receipt.Revision.After)
			} else {
				fmt.Fprintf(w, "%s: %s: %s\n", r.Document, r.Error.Code, r.Error.Message)
			}
		}
		fmt.Fprintf(w, "%d applied, %d failed\n", len(v.Documents)-v.Failed, v.Failed)
	default:
		fmt.Fprintf(w, "%+v\n", v)
	}
	return nil
}

func printReceipt(w io.Writer, r *plan.Receipt) {
	fmt.Fprintf(w, "committed revision %s -> %s (%d steps, %dms)\n",
		r.Revision.Before, r.Revision.After, len(r.Steps), r.Timing.TotalMs)
	for _, s := range r.Steps {
		fmt.Fprintf(w, "  %-12s %-16s %s", s.StepID, s.Op, s.Effect)
		if s.MatchCount > 1 {
			fmt.Fprintf(w, " (%d matches)", s.MatchCount)
		}
		fmt.Fprintln(w)
	}
}
