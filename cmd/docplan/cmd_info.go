package main

import (
	"github.com/spf13/cobra"

	"docplan/internal/doc"
)

var infoCmd = &cobra.Command{
	Use:   "info <document.json>",
	Short: "Print a document's revision and shape statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

// docInfo is the info payload.
type docInfo struct {
	Revision doc.Revision `json:"revision"`
	Stats    doc.Stats    `json:"stats"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	d, err := loadDocument(args[0])
	if err != nil {
		return emit(out, nil, err)
	}
	return emit(out, docInfo{Revision: d.Revision(), Stats: d.Stats()}, nil)
}
