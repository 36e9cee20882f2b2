package plan

import (
	"errors"

	"docplan/internal/doc"
)

// execCtx is the per-plan execution context handed to every executor: the
// one in-flight change (whose mapping is the shared remapper), the schema
// and the style resolver.
type execCtx struct {
	change   *doc.Change
	schema   *doc.Schema
	resolver *StyleResolver
}

// executor applies one compiled mutation inside the in-flight change and
// reports its outcome. Position remapping happens per target through the
// change's accumulated mapping, so a step always sees the cumulative
// effect of everything before it.
type executor func(x *execCtx, cm *compiledMutation) (StepOutcome, error)

// executors is the closed op table, indexed by Op and sized by opCount.
// Adding an Op without an entry here fails TestExecutorTableComplete.
var executors = [opCount]executor{
	OpTextRewrite:     execTextRewrite,
	OpTextInsert:      execTextInsert,
	OpTextDelete:      execTextDelete,
	OpFormatApply:     execFormatApply,
	OpCreateParagraph: execCreate,
	OpCreateHeading:   execCreate,
}

func runStep(x *execCtx, cm *compiledMutation) (StepOutcome, error) {
	exec := executors[cm.step.Op]
	if exec == nil {
		return StepOutcome{}, newError(CodeInternal, cm.step.ID,
			"no executor registered for %s", cm.step.Op)
	}
	return exec(x, cm)
}

// fromDocErr maps document-layer failures onto the plan taxonomy. Span
// shape and tracked-mode constraints are caller problems; anything else
// coming out of the document layer means the engine fed it bad positions.
func fromDocErr(err error, stepID string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, doc.ErrTrackedSplit):
		return newError(CodeInvalidInput, stepID,
			"tracked mode cannot split a span into multiple blocks")
	case errors.Is(err, doc.ErrBadSpan):
		return newError(CodeInvalidInput, stepID, "span not executable: %v", err)
	default:
		return newError(CodeInternal, stepID, "document mutation failed: %v", err)
	}
}

// outcome builds the common receipt entry for a mutation step.
func outcome(cm *compiledMutation, effect Effect) StepOutcome {
	return StepOutcome{
		StepID:     cm.step.ID,
		Op:         cm.step.Op.String(),
		Effect:     effect,
		MatchCount: len(cm.targets),
	}
}
