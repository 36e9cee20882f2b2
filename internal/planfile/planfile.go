// Package planfile decodes declarative plan files (YAML or JSON) into
// executable plans. Decoding is two-staged: structural validation over the
// wire types here, semantic validation in the plan engine.
package planfile

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"docplan/internal/doc"
	"docplan/internal/plan"
)

// ErrInvalid wraps every structural defect found in a plan file.
var ErrInvalid = errors.New("invalid plan file")

// MaxSteps bounds a single plan file. The engine itself has no step limit;
// this guards the CLI against runaway inputs.
const MaxSteps = 500

// opAssert is the wire op for assert steps. It lives beside the mutation
// ops on the wire but compiles to plan.AssertStep, not a mutation.
const opAssert = "assert"

var fileValidate *validator.Validate

func init() {
	fileValidate = validator.New()
	fileValidate.RegisterStructValidation(validateSelectorSpec, SelectorSpec{})
}

// File is the decoded wire form of a plan.
type File struct {
	ChangeMode       string     `yaml:"changeMode" json:"changeMode" validate:"omitempty,oneof=direct tracked"`
	Author           string     `yaml:"author" json:"author"`
	ExpectedRevision *uint64    `yaml:"expectedRevision" json:"expectedRevision"`
	Steps            []StepSpec `yaml:"steps" json:"steps" validate:"required,min=1,dive"`
}

// StepSpec is one wire step, mutation or assert. Ops read only the fields
// they own; unrelated fields are ignored.
type StepSpec struct {
	ID          string       `yaml:"id" json:"id"`
	Op          string       `yaml:"op" json:"op" validate:"required,oneof=text.rewrite text.insert text.delete format.apply create.paragraph create.heading assert"`
	Where       SelectorSpec `yaml:"where" json:"where"`
	Text        string       `yaml:"text" json:"text"`
	Placement   string       `yaml:"placement" json:"placement" validate:"omitempty,oneof=before after"`
	Level       int          `yaml:"level" json:"level" validate:"gte=0,lte=6"`
	All         bool         `yaml:"all" json:"all"`
	Style       *StyleSpec   `yaml:"style" json:"style"`
	Format      *MarksSpec   `yaml:"format" json:"format"`
	ExpectCount *int         `yaml:"expectCount" json:"expectCount" validate:"omitempty,gte=0"`
}

// SelectorSpec is the wire selector. Exactly one predicate must be set;
// the struct-level validation enforces it at decode time so a defective
// file fails before any engine work.
type SelectorSpec struct {
	Pattern       string   `yaml:"pattern" json:"pattern"`
	Mode          string   `yaml:"mode" json:"mode" validate:"omitempty,oneof=contains regex"`
	CaseSensitive bool     `yaml:"caseSensitive" json:"caseSensitive"`
	NodeType      string   `yaml:"nodeType" json:"nodeType"`
	MarkType      string   `yaml:"markType" json:"markType"`
	BlockIDs      []string `yaml:"blockIds" json:"blockIds"`
	Within        string   `yaml:"within" json:"within"`
	Occurrence    int      `yaml:"occurrence" json:"occurrence" validate:"gte=0"`
}

// StyleSpec is the wire inline-style policy. "inherit" is accepted as an
// alias for preserve; insert steps read better with it.
type StyleSpec struct {
	Mode           string     `yaml:"mode" json:"mode" validate:"omitempty,oneof=preserve inherit merge set clear"`
	OnNonUniform   string     `yaml:"onNonUniform" json:"onNonUniform" validate:"omitempty,oneof=useLeadingRun majority union"`
	RequireUniform bool       `yaml:"requireUniform" json:"requireUniform"`
	Set            *MarksSpec `yaml:"set" json:"set"`
}

// MarksSpec is the wire mark patch: absent fields touch nothing, false or
// empty removes, true or a value sets.
type MarksSpec struct {
	Bold      *bool   `yaml:"bold" json:"bold"`
	Italic    *bool   `yaml:"italic" json:"italic"`
	Underline *bool   `yaml:"underline" json:"underline"`
	Strike    *bool   `yaml:"strike" json:"strike"`
	Font      *string `yaml:"font" json:"font"`
	Color     *string `yaml:"color" json:"color"`
	Link      *string `yaml:"link" json:"link"`
}

func validateSelectorSpec(sl validator.StructLevel) {
	s := sl.Current().Interface().(SelectorSpec)
	n := 0
	if s.Pattern != "" {
		n++
	}
	if s.NodeType != "" {
		n++
	}
	if s.MarkType != "" {
		n++
	}
	if len(s.BlockIDs) > 0 {
		n++
	}
	if n != 1 {
		sl.ReportError(s.Pattern, "Pattern", "pattern", "selector", "")
	}
}

// Load reads and parses a plan file from disk.
func Load(path string) (plan.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("failed to read plan file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, validates and converts a plan file. YAML is a superset of
// JSON here, so both formats go through one decoder.
func Parse(data []byte) (plan.Plan, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return plan.Plan{}, fmt.Errorf("failed to parse plan file: %w", err)
	}
	return f.Plan()
}

// Validate runs structural validation over the decoded file.
func (f *File) Validate() error {
	if len(f.Steps) > MaxSteps {
		return fmt.Errorf("%w: %d steps exceeds the %d step limit", ErrInvalid, len(f.Steps), MaxSteps)
	}
	if err := fileValidate.Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Plan converts the validated file into an executable plan. Step ids
// default to their 1-based position.
func (f *File) Plan() (plan.Plan, error) {
	if err := f.Validate(); err != nil {
		return plan.Plan{}, err
	}

	p := plan.Plan{Author: f.Author}
	switch f.ChangeMode {
	case "tracked":
		m := doc.ChangeTracked
		p.ChangeMode = &m
	case "direct":
		m := doc.ChangeDirect
		p.ChangeMode = &m
	}
	if f.ExpectedRevision != nil {
		rev := doc.Revision(*f.ExpectedRevision)
		p.ExpectedRevision = &rev
	}

	for i, spec := range f.Steps {
		id := spec.ID
		if id == "" {
			id = fmt.Sprintf("step-%d", i+1)
		}
		where := spec.Where.selector()

		if spec.Op == opAssert {
			if spec.ExpectCount == nil {
				return plan.Plan{}, fmt.Errorf("%w: step %s: assert requires expectCount", ErrInvalid, id)
			}
			p.Steps = append(p.Steps, plan.Assertion(plan.AssertStep{
				ID:          id,
				Where:       where,
				ExpectCount: *spec.ExpectCount,
			}))
			continue
		}

		op, err := plan.ParseOp(spec.Op)
		if err != nil {
			return plan.Plan{}, fmt.Errorf("%w: step %s: %v", ErrInvalid, id, err)
		}
		step := plan.MutationStep{
			ID:    id,
			Op:    op,
			Where: where,
			Args: plan.StepArgs{
				Text:      spec.Text,
				Placement: plan.Placement(spec.Placement),
				All:       spec.All,
				Level:     spec.Level,
			},
		}
		if spec.Style != nil {
			step.Args.Style = spec.Style.policy()
		}
		if spec.Format != nil {
			step.Args.Format = spec.Format.patch()
		}
		p.Steps = append(p.Steps, plan.Mutation(step))
	}
	return p, nil
}

func (s SelectorSpec) selector() plan.Selector {
	return plan.Selector{
		Pattern:       s.Pattern,
		Mode:          plan.TextMode(s.Mode),
		CaseSensitive: s.CaseSensitive,
		NodeType:      doc.NodeType(s.NodeType),
		MarkType:      doc.MarkType(s.MarkType),
		BlockIDs:      s.BlockIDs,
		Within:        s.Within,
		Occurrence:    s.Occurrence,
	}
}

func (s *StyleSpec) policy() *plan.InlineStylePolicy {
	mode := s.Mode
	if mode == "inherit" {
		mode = string(plan.StylePreserve)
	}
	pol := &plan.InlineStylePolicy{
		Mode:           plan.StyleMode(mode),
		OnNonUniform:   plan.NonUniform(s.OnNonUniform),
		RequireUniform: s.RequireUniform,
	}
	if s.Set != nil {
		patch := s.Set.patch()
		pol.SetMarks = &patch
	}
	return pol
}

func (m *MarksSpec) patch() plan.MarkPatch {
	return plan.MarkPatch{
		Bold:      m.Bold,
		Italic:    m.Italic,
		Underline: m.Underline,
		Strike:    m.Strike,
		Font:      m.Font,
		Color:     m.Color,
		Link:      m.Link,
	}
}
