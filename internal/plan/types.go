package plan

import (
	"encoding/json"
	"fmt"

	"docplan/internal/doc"
)

// Op is a closed enumeration of mutation operations. The executor table in
// registry.go is indexed by Op and sized by opCount, so an op added here
// without an executor fails the registry completeness test.
type Op uint8

const (
	OpTextRewrite Op = iota
	OpTextInsert
	OpTextDelete
	OpFormatApply
	OpCreateParagraph
	OpCreateHeading

	opCount
)

var opNames = [opCount]string{
	OpTextRewrite:     "text.rewrite",
	OpTextInsert:      "text.insert",
	OpTextDelete:      "text.delete",
	OpFormatApply:     "format.apply",
	OpCreateParagraph: "create.paragraph",
	OpCreateHeading:   "create.heading",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// MarshalJSON renders the op as its wire name.
func (o Op) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// ParseOp resolves a wire name to its Op.
func ParseOp(s string) (Op, error) {
	for op, name := range opNames {
		if name == s {
			return Op(op), nil
		}
	}
	return 0, fmt.Errorf("unknown op %q", s)
}

// TextMode selects how a text selector's pattern matches.
type TextMode string

const (
	MatchContains TextMode = "contains"
	MatchRegex    TextMode = "regex"
)

// Selector is a declarative match predicate. Exactly one of Pattern,
// NodeType, MarkType or BlockIDs must be set; Within and Occurrence refine
// any of them.
type Selector struct {
	// Text predicate: Pattern with Mode (contains by default) and case
	// sensitivity. Matches run over the scope's concatenated inline text
	// with zero-width block boundaries, so a match may cross blocks.
	Pattern       string
	Mode          TextMode
	CaseSensitive bool

	// Node predicate: every block of this type in scope.
	NodeType doc.NodeType

	// Inline predicate: every run carrying this mark type in scope.
	MarkType doc.MarkType

	// Reference predicate: explicit block ids. More than one id compiles
	// to a single span target covering the listed blocks.
	BlockIDs []string

	// Within scopes matching to the subtree of the named block.
	Within string

	// Occurrence picks the nth match (1-based) when several are expected.
	Occurrence int
}

type selectorKind int

const (
	selInvalid selectorKind = iota
	selText
	selNode
	selMark
	selReference
)

func (s Selector) kind() selectorKind {
	n := 0
	k := selInvalid
	if s.Pattern != "" {
		n, k = n+1, selText
	}
	if s.NodeType != "" {
		n, k = n+1, selNode
	}
	if s.MarkType != "" {
		n, k = n+1, selMark
	}
	if len(s.BlockIDs) > 0 {
		n, k = n+1, selReference
	}
	if n != 1 {
		return selInvalid
	}
	return k
}

// StyleMode governs what marks a rewritten or inserted run receives.
type StyleMode string

const (
	StylePreserve StyleMode = "preserve"
	StyleMerge    StyleMode = "merge"
	StyleSet      StyleMode = "set"
	StyleClear    StyleMode = "clear"
)

// NonUniform picks the resolution strategy when captured runs disagree.
type NonUniform string

const (
	NonUniformLeadingRun NonUniform = "useLeadingRun"
	NonUniformMajority   NonUniform = "majority"
	NonUniformUnion      NonUniform = "union"
)

// MarkPatch is a sparse tri-state patch over the inline mark types: a nil
// field leaves the mark untouched, true/non-empty adds or overwrites,
// false/empty removes.
type MarkPatch struct {
	Bold      *bool
	Italic    *bool
	Underline *bool
	Strike    *bool
	Font      *string
	Color     *string
	Link      *string
}

// IsZero reports whether the patch touches nothing.
func (p MarkPatch) IsZero() bool {
	return p.Bold == nil && p.Italic == nil && p.Underline == nil &&
		p.Strike == nil && p.Font == nil && p.Color == nil && p.Link == nil
}

// Apply patches a mark set, returning the patched copy.
func (p MarkPatch) Apply(set doc.MarkSet) doc.MarkSet {
	out := set.Clone()
	bools := []struct {
		t doc.MarkType
		v *bool
	}{
		{doc.MarkBold, p.Bold},
		{doc.MarkItalic, p.Italic},
		{doc.MarkUnderline, p.Underline},
		{doc.MarkStrike, p.Strike},
	}
	for _, b := range bools {
		if b.v == nil {
			continue
		}
		if *b.v {
			out = out.Add(doc.Mark{Type: b.t})
		} else {
			out = out.Remove(b.t)
		}
	}
	values := []struct {
		t    doc.MarkType
		attr string
		v    *string
	}{
		{doc.MarkFont, "family", p.Font},
		{doc.MarkColor, "value", p.Color},
		{doc.MarkLink, "href", p.Link},
	}
	for _, val := range values {
		if val.v == nil {
			continue
		}
		if *val.v == "" {
			out = out.Remove(val.t)
		} else {
			out = out.Add(doc.Mark{Type: val.t, Attrs: map[string]string{val.attr: *val.v}})
		}
	}
	return out
}

// InlineStylePolicy governs mark resolution for rewrites and inserts.
type InlineStylePolicy struct {
	Mode           StyleMode
	SetMarks       *MarkPatch
	OnNonUniform   NonUniform
	RequireUniform bool
}

// Placement anchors inserts and creates relative to their target.
type Placement string

const (
	PlaceBefore Placement = "before"
	PlaceAfter  Placement = "after"
)

// StepArgs carries the per-op arguments of a mutation step. Ops read only
// the fields they own.
type StepArgs struct {
	// Text: replacement (text.rewrite; "\n" splits a span replacement into
	// blocks), inserted text (text.insert), or new block text (create.*).
	Text string
	// Placement: text.insert and create.* anchoring.
	Placement Placement
	// Style: rewrite/insert mark policy. Nil means preserve/inherit.
	Style *InlineStylePolicy
	// Format: the format.apply sparse patch.
	Format MarkPatch
	// All batches the step over every match instead of requiring exactly
	// one.
	All bool
	// Level: create.heading level, 1 through 6.
	Level int
}

// MutationStep is one declarative edit.
type MutationStep struct {
	ID    string
	Op    Op
	Where Selector
	Args  StepArgs
}

// AssertStep is a postcondition: the selector's match count over the
// post-mutation tree must equal ExpectCount exactly.
type AssertStep struct {
	ID          string
	Where       Selector
	ExpectCount int
}

// PlanStep is either a mutation or an assert, preserving declaration order.
type PlanStep struct {
	Mutation *MutationStep
	Assert   *AssertStep
}

// Mutation wraps a mutation step for a plan's step list.
func Mutation(m MutationStep) PlanStep { return PlanStep{Mutation: &m} }

// Assertion wraps an assert step for a plan's step list.
func Assertion(a AssertStep) PlanStep { return PlanStep{Assert: &a} }

// Plan is an ordered batch of steps executed as one atomic change.
// Mutations run in declared order; asserts evaluate afterwards as a batch
// against the final uncommitted state.
type Plan struct {
	Steps []PlanStep
	// ChangeMode overrides the engine default when non-nil.
	ChangeMode *doc.ChangeMode
	// Author attributes tracked-mode marks.
	Author string
	// ExpectedRevision, when non-nil, must equal the document's current
	// revision or the plan is rejected before any step runs.
	ExpectedRevision *doc.Revision
}

// Effect classifies a step's outcome.
type Effect string

const (
	EffectChanged      Effect = "changed"
	EffectUnchanged    Effect = "unchanged"
	EffectAssertPassed Effect = "assert_passed"
	EffectAssertFailed Effect = "assert_failed"
)

// StepOutcome is one step's entry in the receipt.
type StepOutcome struct {
	StepID     string         `json:"stepId"`
	Op         string         `json:"op"`
	Effect     Effect         `json:"effect"`
	MatchCount int            `json:"matchCount"`
	Data       map[string]any `json:"data,omitempty"`
}

// RevisionPair records the revision movement of a committed plan.
type RevisionPair struct {
	Before doc.Revision `json:"before"`
	After  doc.Revision `json:"after"`
}

// Timing carries the wall-clock cost of a plan.
type Timing struct {
	TotalMs int64 `json:"totalMs"`
}

// Receipt reports a fully committed plan: one outcome per step in
// declaration order. Failed plans return an error and no receipt.
type Receipt struct {
	Success  bool          `json:"success"`
	Revision RevisionPair  `json:"revision"`
	Steps    []StepOutcome `json:"steps"`
	Timing   Timing        `json:"timing"`
}
