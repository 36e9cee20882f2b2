package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"docplan/internal/plan"
	"docplan/internal/planfile"
	"docplan/internal/session"
)

var batchCmd = &cobra.Command{
	Use:   "batch <plan.yaml> <document.json>...",
	Short: "Apply one plan to several documents concurrently",
	Long: `Opens a session per document and applies the same plan to each,
bounded by the configured batch concurrency. Every document gets its own
atomic commit-or-discard; one document's failure never touches another.
Mutated documents are written back in place.

Example:
  docplan batch fixes.yaml chapter-*.json`,
	Args: cobra.MinimumNArgs(2),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

// batchResult is one document's share of the batch payload.
type batchResult struct {
	Document string        `json:"document"`
	OK       bool          `json:"ok"`
	Receipt  *plan.Receipt `json:"receipt,omitempty"`
	Error    *errorBody    `json:"error,omitempty"`
}

// batchReport is the batch payload.
type batchReport struct {
	Documents []batchResult `json:"documents"`
	Failed    int           `json:"failed"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	p, err := planfile.Load(args[0])
	if err != nil {
		return emit(out, nil, err)
	}
	docPaths := args[1:]

	reg := session.NewRegistry(
		session.WithLogger(logger),
		session.WithEngine(newEngine()),
	)

	results := make([]batchResult, len(docPaths))
	var g errgroup.Group
	g.SetLimit(cfg.Batch.Concurrency)
	for i, path := range docPaths {
		i, path := i, path
		g.Go(func() error {
			results[i] = applyOne(reg, path, p)
			return nil
		})
	}
	_ = g.Wait()

	report := batchReport{Documents: results}
	for _, r := range results {
		if !r.OK {
			report.Failed++
		}
	}

	if output == "json" {
		if werr := writeEnvelope(out, envelope{OK: report.Failed == 0, Data: report}); werr != nil {
			return werr
		}
	} else {
		if terr := emitText(out, report); terr != nil {
			return terr
		}
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", report.Failed, len(docPaths))
	}
	return nil
}

func applyOne(reg *session.Registry, path string, p plan.Plan) batchResult {
	d, err := loadDocument(path)
	if err != nil {
		return batchResult{Document: path, Error: asErrorBody(err)}
	}

	id := reg.Open(d)
	defer reg.Close(id)

	rcpt, err := reg.Apply(id, p)
	if err != nil {
		return batchResult{Document: path, Error: asErrorBody(err)}
	}
	if err := saveDocument(d, path); err != nil {
		return batchResult{Document: path, Error: asErrorBody(err)}
	}
	return batchResult{Document: path, OK: true, Receipt: rcpt}
}
