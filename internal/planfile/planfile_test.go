package planfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docplan/internal/doc"
	"docplan/internal/plan"
)

const fullPlanYAML = `
changeMode: tracked
author: reviewer
expectedRevision: 3
steps:
  - id: fix-title
    op: text.rewrite
    where:
      pattern: draft report
      mode: contains
    text: Final Report
    style:
      mode: inherit
  - op: text.insert
    where:
      blockIds: [intro]
    placement: after
    text: " (updated)"
    style:
      mode: set
      set:
        italic: true
        font: Georgia
  - id: drop-tags
    op: text.delete
    where:
      pattern: 'tag-\d+'
      mode: regex
      caseSensitive: true
    all: true
  - id: bold-terms
    op: format.apply
    where:
      markType: comment
      within: body
    format:
      bold: true
      underline: false
    all: true
  - id: add-note
    op: create.paragraph
    where:
      blockIds: [summary]
    placement: before
    text: Editor's note.
  - id: add-section
    op: create.heading
    where:
      nodeType: paragraph
      occurrence: 2
    level: 3
    text: Appendix
  - id: check
    op: assert
    where:
      pattern: Final Report
    expectCount: 1
`

func TestParseFullPlan(t *testing.T) {
	p, err := Parse([]byte(fullPlanYAML))
	require.NoError(t, err)

	require.NotNil(t, p.ChangeMode)
	assert.Equal(t, doc.ChangeTracked, *p.ChangeMode)
	assert.Equal(t, "reviewer", p.Author)
	require.NotNil(t, p.ExpectedRevision)
	assert.Equal(t, doc.Revision(3), *p.ExpectedRevision)
	require.Len(t, p.Steps, 7)

	rewrite := p.Steps[0].Mutation
	require.NotNil(t, rewrite)
	assert.Equal(t, "fix-title", rewrite.ID)
	assert.Equal(t, plan.OpTextRewrite, rewrite.Op)
	assert.Equal(t, "draft report", rewrite.Where.Pattern)
	assert.Equal(t, plan.MatchContains, rewrite.Where.Mode)
	assert.Equal(t, "Final Report", rewrite.Args.Text)
	require.NotNil(t, rewrite.Args.Style)
	assert.Equal(t, plan.StylePreserve, rewrite.Args.Style.Mode, "inherit aliases preserve")

	ins := p.Steps[1].Mutation
	require.NotNil(t, ins)
	assert.Equal(t, "step-2", ins.ID, "missing ids default to position")
	assert.Equal(t, plan.OpTextInsert, ins.Op)
	assert.Equal(t, []string{"intro"}, ins.Where.BlockIDs)
	assert.Equal(t, plan.PlaceAfter, ins.Args.Placement)
	require.NotNil(t, ins.Args.Style)
	assert.Equal(t, plan.StyleSet, ins.Args.Style.Mode)
	require.NotNil(t, ins.Args.Style.SetMarks)
	require.NotNil(t, ins.Args.Style.SetMarks.Italic)
	assert.True(t, *ins.Args.Style.SetMarks.Italic)
	require.NotNil(t, ins.Args.Style.SetMarks.Font)
	assert.Equal(t, "Georgia", *ins.Args.Style.SetMarks.Font)
	assert.Nil(t, ins.Args.Style.SetMarks.Bold, "absent fields stay nil")

	del := p.Steps[2].Mutation
	require.NotNil(t, del)
	assert.Equal(t, plan.OpTextDelete, del.Op)
	assert.Equal(t, plan.MatchRegex, del.Where.Mode)
	assert.True(t, del.Where.CaseSensitive)
	assert.True(t, del.Args.All)

	format := p.Steps[3].Mutation
	require.NotNil(t, format)
	assert.Equal(t, plan.OpFormatApply, format.Op)
	assert.Equal(t, doc.MarkComment, format.Where.MarkType)
	assert.Equal(t, "body", format.Where.Within)
	require.NotNil(t, format.Args.Format.Bold)
	assert.True(t, *format.Args.Format.Bold)
	require.NotNil(t, format.Args.Format.Underline)
	assert.False(t, *format.Args.Format.Underline)

	para := p.Steps[4].Mutation
	require.NotNil(t, para)
	assert.Equal(t, plan.OpCreateParagraph, para.Op)
	assert.Equal(t, plan.PlaceBefore, para.Args.Placement)

	head := p.Steps[5].Mutation
	require.NotNil(t, head)
	assert.Equal(t, plan.OpCreateHeading, head.Op)
	assert.Equal(t, doc.NodeParagraph, head.Where.NodeType)
	assert.Equal(t, 2, head.Where.Occurrence)
	assert.Equal(t, 3, head.Args.Level)

	chk := p.Steps[6].Assert
	require.NotNil(t, chk)
	assert.Equal(t, "check", chk.ID)
	assert.Equal(t, "Final Report", chk.Where.Pattern)
	assert.Equal(t, 1, chk.ExpectCount)
}

func TestParseJSON(t *testing.T) {
	data := []byte(`{
		"steps": [
			{"op": "text.rewrite", "where": {"pattern": "old"}, "text": "new"}
		]
	}`)
	p, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, p.Steps, 1)
	assert.Nil(t, p.ChangeMode)
	assert.Nil(t, p.ExpectedRevision)
	m := p.Steps[0].Mutation
	require.NotNil(t, m)
	assert.Equal(t, "step-1", m.ID)
	assert.Equal(t, plan.OpTextRewrite, m.Op)
	assert.Nil(t, m.Args.Style)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no steps", `author: x`},
		{"empty steps", `steps: []`},
		{
			"unknown op",
			`steps: [{op: text.shuffle, where: {pattern: a}}]`,
		},
		{
			"bad change mode",
			"changeMode: merged\nsteps: [{op: text.delete, where: {pattern: a}}]",
		},
		{
			"selector without predicate",
			`steps: [{op: text.delete, where: {within: b}}]`,
		},
		{
			"selector with two predicates",
			`steps: [{op: text.delete, where: {pattern: a, nodeType: paragraph}}]`,
		},
		{
			"bad selector mode",
			`steps: [{op: text.delete, where: {pattern: a, mode: glob}}]`,
		},
		{
			"bad placement",
			`steps: [{op: text.insert, where: {pattern: a}, text: b, placement: inside}]`,
		},
		{
			"heading level out of range",
			`steps: [{op: create.heading, where: {blockIds: [x]}, text: T, level: 7}]`,
		},
		{
			"bad style mode",
			`steps: [{op: text.rewrite, where: {pattern: a}, text: b, style: {mode: overwrite}}]`,
		},
		{
			"bad non-uniform strategy",
			`steps: [{op: text.rewrite, where: {pattern: a}, text: b, style: {onNonUniform: vote}}]`,
		},
		{
			"assert without expectCount",
			`steps: [{op: assert, where: {pattern: a}}]`,
		},
		{
			"negative expectCount",
			`steps: [{op: assert, where: {pattern: a}, expectCount: -1}]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("steps: [unclosed"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid, "syntax errors are not validation errors")
}

func TestParseStepLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("steps:\n")
	for i := 0; i <= MaxSteps; i++ {
		fmt.Fprintf(&b, "  - op: text.delete\n    where: {pattern: p%d}\n", i)
	}
	_, err := Parse([]byte(b.String()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "step limit")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	content := "steps:\n  - op: text.rewrite\n    where: {pattern: a}\n    text: b\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, p.Steps, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read plan file")
}

func TestParsedPlanExecutes(t *testing.T) {
	d := doc.New(doc.DefaultSchema(), doc.NewParagraph("Status: draft report pending."))

	p, err := Parse([]byte(`
steps:
  - op: text.rewrite
    where: {pattern: draft report}
    text: final report
  - op: assert
    where: {pattern: final report}
    expectCount: 1
`))
	require.NoError(t, err)

	rec, err := plan.NewEngine().Execute(d, p)
	require.NoError(t, err)
	assert.True(t, rec.Success)
	assert.Equal(t, "Status: final report pending.", d.Root().Children[0].InlineText())
}
