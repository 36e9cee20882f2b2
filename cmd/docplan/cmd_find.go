package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docplan/internal/doc"
	"docplan/internal/plan"
)

var (
	findPattern       string
	findRegex         bool
	findCaseSensitive bool
	findNodeType      string
	findMarkType      string
	findBlockIDs      []string
	findWithin        string
	findOccurrence    int
)

var findCmd = &cobra.Command{
	Use:   "find <document.json>",
	Short: "Resolve a selector read-only and print its matches",
	Long: `Evaluates a selector against the document without changing anything.
Exactly one predicate is required: --pattern, --node-type, --mark-type or
--block-id. The match count agrees with what an assert step on the same
selector would see.

Example:
  docplan find report.json --pattern "deadline"
  docplan find report.json --pattern 'order \d+' --regex
  docplan find report.json --node-type heading --within chapter-2`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	findCmd.Flags().StringVar(&findPattern, "pattern", "", "Text pattern to match")
	findCmd.Flags().BoolVar(&findRegex, "regex", false, "Treat --pattern as a regular expression")
	findCmd.Flags().BoolVar(&findCaseSensitive, "case-sensitive", false, "Match case sensitively")
	findCmd.Flags().StringVar(&findNodeType, "node-type", "", "Match every block of this node type")
	findCmd.Flags().StringVar(&findMarkType, "mark-type", "", "Match every run carrying this mark type")
	findCmd.Flags().StringSliceVar(&findBlockIDs, "block-id", nil, "Match blocks by id (repeatable)")
	findCmd.Flags().StringVar(&findWithin, "within", "", "Scope matching to the subtree of this block id")
	findCmd.Flags().IntVar(&findOccurrence, "occurrence", 0, "Pick the nth match (1-based)")
	rootCmd.AddCommand(findCmd)
}

// findReport is the find payload.
type findReport struct {
	Count   int          `json:"count"`
	Matches []plan.Match `json:"matches"`
}

func findSelector() (plan.Selector, error) {
	n := 0
	if findPattern != "" {
		n++
	}
	if findNodeType != "" {
		n++
	}
	if findMarkType != "" {
		n++
	}
	if len(findBlockIDs) > 0 {
		n++
	}
	if n != 1 {
		return plan.Selector{}, fmt.Errorf("exactly one of --pattern, --node-type, --mark-type or --block-id is required")
	}
	mode := plan.MatchContains
	if findRegex {
		mode = plan.MatchRegex
	}
	return plan.Selector{
		Pattern:       findPattern,
		Mode:          mode,
		CaseSensitive: findCaseSensitive,
		NodeType:      doc.NodeType(findNodeType),
		MarkType:      doc.MarkType(findMarkType),
		BlockIDs:      findBlockIDs,
		Within:        findWithin,
		Occurrence:    findOccurrence,
	}, nil
}

func runFind(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	sel, err := findSelector()
	if err != nil {
		return err
	}
	d, err := loadDocument(args[0])
	if err != nil {
		return emit(out, nil, err)
	}

	matches := newEngine().Find(d, sel)
	return emit(out, findReport{Count: len(matches), Matches: matches}, nil)
}
