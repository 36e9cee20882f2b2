package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"docplan/internal/config"
	"docplan/internal/doc"
	"docplan/internal/plan"
	"docplan/internal/planfile"
)

var (
	// Global flags
	verbose bool
	cfgPath string
	output  string

	// Runtime shared by every command
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "docplan",
	Short: "docplan - declarative plan engine for structured documents",
	Long: `docplan edits structured rich-text documents through declarative plans.

A plan is an ordered list of mutation steps (rewrite, insert, delete,
format, create) plus optional assertions. Each step targets content by
selector: a text pattern, a node type, a mark type, or explicit block ids.
The engine resolves selectors against the live document, applies every
step inside one atomic change, checks assertions against the post-mutation
state, and either commits the whole plan or leaves the document untouched.

Commands print a JSON envelope {ok, data | error} on stdout; logs go to
stderr.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initRuntime()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default: DOCPLAN_CONFIG or docplan.yaml)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "json", "Output format: json or text")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initRuntime loads the config and builds the logger every command shares.
func initRuntime() error {
	if output != "json" && output != "text" {
		return fmt.Errorf("invalid output format: %s (valid: json, text)", output)
	}

	path := cfgPath
	if path == "" {
		path = config.DefaultPath()
	}
	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	zc := zap.NewProductionConfig()
	if level, perr := zapcore.ParseLevel(cfg.Logging.Level); perr == nil {
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if cfg.Logging.Format == "console" {
		zc.Encoding = "console"
	}
	logger, err = zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// newEngine builds a plan engine from the loaded config.
func newEngine() *plan.Engine {
	mode := doc.ChangeDirect
	if cfg.Engine.ChangeMode == "tracked" {
		mode = doc.ChangeTracked
	}
	return plan.NewEngine(
		plan.WithLogger(logger),
		plan.WithChangeMode(mode),
		plan.WithPatternLimit(cfg.Engine.PatternLimit),
	)
}

func parseChangeMode(s string) (doc.ChangeMode, error) {
	switch s {
	case "direct":
		return doc.ChangeDirect, nil
	case "tracked":
		return doc.ChangeTracked, nil
	default:
		return doc.ChangeDirect, fmt.Errorf("invalid change mode: %s (valid: direct, tracked)", s)
	}
}

func loadDocument(path string) (*doc.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	d, err := doc.Unmarshal(doc.DefaultSchema(), data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return d, nil
}

func saveDocument(d *doc.Document, path string) error {
	data, err := doc.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// envelope is the wire shape every command prints on stdout.
type envelope struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	StepID  string         `json:"stepId,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// asErrorBody maps an error onto the envelope's error shape. Engine
// failures keep their taxonomy code; plan-file defects surface as
// INVALID_INPUT; everything else is an IO_ERROR.
func asErrorBody(err error) *errorBody {
	var pe *plan.Error
	if errors.As(err, &pe) {
		return &errorBody{
			Code:    string(pe.Code),
			Message: pe.Message,
			StepID:  pe.StepID,
			Details: pe.Details,
		}
	}
	if errors.Is(err, planfile.ErrInvalid) {
		return &errorBody{Code: string(plan.CodeInvalidInput), Message: err.Error()}
	}
	return &errorBody{Code: "IO_ERROR", Message: err.Error()}
}

func writeEnvelope(w io.Writer, env envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// emit prints the result envelope. On failure the original error comes
// back so the process exits non-zero after the envelope is out.
func emit(w io.Writer, data any, err error) error {
	if err != nil {
		if output == "text" {
			return err
		}
		if werr := writeEnvelope(w, envelope{OK: false, Error: asErrorBody(err)}); werr != nil {
			return werr
		}
		return err
	}
	if output == "text" {
		return emitText(w, data)
	}
	return writeEnvelope(w, envelope{OK: true, Data: data})
}
