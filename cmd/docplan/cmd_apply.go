package main

import (
	"github.com/spf13/cobra"

	"docplan/internal/diff"
	"docplan/internal/doc"
	"docplan/internal/plan"
	"docplan/internal/planfile"
)

var (
	applyDryRun  bool
	applyPreview bool
	applyOut     string
	applyAuthor  string
	applyMode    string
)

var applyCmd = &cobra.Command{
	Use:   "apply <document.json> <plan.yaml>",
	Short: "Apply a plan to a document atomically",
	Long: `Reads a document and a plan file, executes the plan as one atomic
change and writes the mutated document back. On any step failure the
document file is left untouched and the envelope carries the failure
code, message and details.

Example:
  docplan apply report.json fixes.yaml
  docplan apply report.json fixes.yaml --dry-run
  docplan apply report.json fixes.yaml --preview
  docplan apply report.json fixes.yaml --mode tracked --author reviewer`,
	Args: cobra.ExactArgs(2),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Compile the plan without executing or writing")
	applyCmd.Flags().BoolVar(&applyPreview, "preview", false, "Execute on a copy and print the block diff without writing")
	applyCmd.Flags().StringVar(&applyOut, "out", "", "Output path for the mutated document (default: overwrite input)")
	applyCmd.Flags().StringVar(&applyAuthor, "author", "", "Author for tracked changes (overrides plan and config)")
	applyCmd.Flags().StringVar(&applyMode, "mode", "", "Change mode: direct or tracked (overrides plan and config)")
	rootCmd.AddCommand(applyCmd)
}

// compileReport is the dry-run payload.
type compileReport struct {
	Steps      int          `json:"steps"`
	CompiledAt doc.Revision `json:"compiledAt"`
}

// previewReport is the preview payload: the receipt the plan would
// produce plus the block-level diff it would cause.
type previewReport struct {
	Receipt *plan.Receipt      `json:"receipt"`
	Changes []diff.BlockChange `json:"changes"`
}

func runApply(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	docPath, planPath := args[0], args[1]

	d, err := loadDocument(docPath)
	if err != nil {
		return emit(out, nil, err)
	}
	p, err := planfile.Load(planPath)
	if err != nil {
		return emit(out, nil, err)
	}

	if applyAuthor != "" {
		p.Author = applyAuthor
	} else if p.Author == "" {
		p.Author = cfg.Engine.Author
	}
	if applyMode != "" {
		mode, merr := parseChangeMode(applyMode)
		if merr != nil {
			return merr
		}
		p.ChangeMode = &mode
	}

	eng := newEngine()
	if applyDryRun {
		cp, cerr := eng.Compile(d, p)
		if cerr != nil {
			return emit(out, nil, cerr)
		}
		return emit(out, compileReport{Steps: len(p.Steps), CompiledAt: cp.Revision()}, nil)
	}
	if applyPreview {
		work := d.Clone()
		rcpt, perr := eng.Execute(work, p)
		if perr != nil {
			return emit(out, nil, perr)
		}
		changes := diff.Changed(diff.Documents(d, work))
		return emit(out, previewReport{Receipt: rcpt, Changes: changes}, nil)
	}

	rcpt, err := eng.Execute(d, p)
	if err != nil {
		return emit(out, nil, err)
	}

	target := applyOut
	if target == "" {
		target = docPath
	}
	if err := saveDocument(d, target); err != nil {
		return emit(out, nil, err)
	}
	return emit(out, rcpt, nil)
}
