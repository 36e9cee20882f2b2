package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docplan/internal/doc"
)

func boldMark() doc.Mark   { return doc.Mark{Type: doc.MarkBold} }
func italicMark() doc.Mark { return doc.Mark{Type: doc.MarkItalic} }

func fontMark(family string) doc.Mark {
	return doc.Mark{Type: doc.MarkFont, Attrs: map[string]string{"family": family}}
}

func styledPara(id string, runs ...*doc.Node) *doc.Node {
	p := &doc.Node{Type: doc.NodeParagraph, ID: id, Children: runs}
	p.Normalize()
	return p
}

func TestCaptureRunsMergesAndStrips(t *testing.T) {
	r := NewStyleResolver(doc.DefaultSchema())
	comment := doc.Mark{Type: doc.MarkComment, Attrs: map[string]string{"id": "c1"}}

	// Two bold runs split only by a metadata mark capture as one run.
	block := styledPara("b1",
		doc.NewText("Hel", doc.MarkSet{boldMark()}),
		doc.NewText("lo ", doc.MarkSet{boldMark(), comment}),
		doc.NewText("there", nil),
	)

	c := r.CaptureRuns(block, 0, block.InlineLen())
	require.Len(t, c.Runs, 2)
	assert.Equal(t, 6, c.Runs[0].Len)
	assert.True(t, c.Runs[0].Marks.Has(doc.MarkBold))
	assert.False(t, c.Runs[0].Marks.Has(doc.MarkComment))
	assert.Equal(t, 5, c.Runs[1].Len)
	assert.False(t, c.Uniform)
	assert.Equal(t, 11, c.Total)
}

func TestCaptureRunsUniform(t *testing.T) {
	r := NewStyleResolver(doc.DefaultSchema())
	block := styledPara("b1", doc.NewText("emphasis", doc.MarkSet{italicMark()}))

	c := r.CaptureRuns(block, 2, 6)
	require.Len(t, c.Runs, 1)
	assert.True(t, c.Uniform)
	assert.Equal(t, 4, c.Total)
	assert.True(t, c.LeadingMarks().Has(doc.MarkItalic))
	assert.True(t, c.TrailingMarks().Has(doc.MarkItalic))
}

func capture(runs ...StyleRun) *Captured {
	c := &Captured{Runs: runs, Uniform: len(runs) <= 1}
	for _, r := range runs {
		c.Total += r.Len
	}
	return c
}

func TestResolveModes(t *testing.T) {
	r := NewStyleResolver(doc.DefaultSchema())
	boldSet := doc.MarkSet{}.Add(boldMark())
	nonUniform := capture(
		StyleRun{Off: 0, Len: 5, Marks: boldSet},
		StyleRun{Off: 5, Len: 5, Marks: nil},
	)
	tr := func(b bool) *bool { return &b }

	t.Run("clear drops everything", func(t *testing.T) {
		got, err := r.Resolve(nonUniform, &InlineStylePolicy{Mode: StyleClear})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("set replaces from scratch", func(t *testing.T) {
		got, err := r.Resolve(nonUniform, &InlineStylePolicy{
			Mode:     StyleSet,
			SetMarks: &MarkPatch{Italic: tr(true)},
		})
		require.NoError(t, err)
		assert.True(t, got.Has(doc.MarkItalic))
		assert.False(t, got.Has(doc.MarkBold))
	})

	t.Run("nil policy preserves uniform capture", func(t *testing.T) {
		uniform := capture(StyleRun{Off: 0, Len: 8, Marks: boldSet})
		got, err := r.Resolve(uniform, nil)
		require.NoError(t, err)
		assert.True(t, got.Has(doc.MarkBold))
	})

	t.Run("non-uniform defaults to leading run", func(t *testing.T) {
		got, err := r.Resolve(nonUniform, &InlineStylePolicy{Mode: StylePreserve})
		require.NoError(t, err)
		assert.True(t, got.Has(doc.MarkBold))
	})

	t.Run("require uniform fails on mixed styling", func(t *testing.T) {
		_, err := r.Resolve(nonUniform, &InlineStylePolicy{
			Mode:           StylePreserve,
			RequireUniform: true,
		})
		assert.True(t, IsCode(err, CodeStyleConflict))
	})

	t.Run("merge patches on top of the resolved set", func(t *testing.T) {
		got, err := r.Resolve(nonUniform, &InlineStylePolicy{
			Mode:     StyleMerge,
			SetMarks: &MarkPatch{Italic: tr(true)},
		})
		require.NoError(t, err)
		assert.True(t, got.Has(doc.MarkBold))
		assert.True(t, got.Has(doc.MarkItalic))
	})

	t.Run("union keeps every observed mark", func(t *testing.T) {
		mixed := capture(
			StyleRun{Off: 0, Len: 3, Marks: doc.MarkSet{}.Add(boldMark())},
			StyleRun{Off: 3, Len: 3, Marks: doc.MarkSet{}.Add(italicMark())},
		)
		got, err := r.Resolve(mixed, &InlineStylePolicy{
			Mode:         StylePreserve,
			OnNonUniform: NonUniformUnion,
		})
		require.NoError(t, err)
		assert.True(t, got.Has(doc.MarkBold))
		assert.True(t, got.Has(doc.MarkItalic))
	})

	t.Run("empty capture resolves to nothing", func(t *testing.T) {
		got, err := r.Resolve(capture(), &InlineStylePolicy{Mode: StylePreserve})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestResolveMajorityBoolean(t *testing.T) {
	r := NewStyleResolver(doc.DefaultSchema())
	bold := doc.MarkSet{}.Add(boldMark())
	policy := &InlineStylePolicy{Mode: StylePreserve, OnNonUniform: NonUniformMajority}

	tests := []struct {
		name     string
		runs     []StyleRun
		wantBold bool
	}{
		{
			name: "10 of 12 covered keeps the mark",
			runs: []StyleRun{
				{Off: 0, Len: 5, Marks: bold},
				{Off: 5, Len: 5, Marks: bold},
				{Off: 10, Len: 2, Marks: nil},
			},
			wantBold: true,
		},
		{
			name: "5 of 12 covered drops the mark",
			runs: []StyleRun{
				{Off: 0, Len: 5, Marks: bold},
				{Off: 5, Len: 5, Marks: nil},
				{Off: 10, Len: 2, Marks: nil},
			},
			wantBold: false,
		},
		{
			name: "7 of 12 covered keeps the mark",
			runs: []StyleRun{
				{Off: 0, Len: 5, Marks: bold},
				{Off: 5, Len: 5, Marks: nil},
				{Off: 10, Len: 2, Marks: bold},
			},
			wantBold: true,
		},
		{
			name: "exact tie drops the mark",
			runs: []StyleRun{
				{Off: 0, Len: 6, Marks: bold},
				{Off: 6, Len: 6, Marks: nil},
			},
			wantBold: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(capture(tt.runs...), policy)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBold, got.Has(doc.MarkBold))
		})
	}
}

func TestResolveMajorityValueMarks(t *testing.T) {
	r := NewStyleResolver(doc.DefaultSchema())
	arial := doc.MarkSet{}.Add(fontMark("Arial"))
	times := doc.MarkSet{}.Add(fontMark("Times"))
	policy := &InlineStylePolicy{Mode: StylePreserve, OnNonUniform: NonUniformMajority}

	tests := []struct {
		name       string
		runs       []StyleRun
		wantFamily string // empty means no font mark survives
	}{
		{
			name: "plurality wins over absence",
			runs: []StyleRun{
				{Off: 0, Len: 5, Marks: arial},
				{Off: 5, Len: 5, Marks: arial},
				{Off: 10, Len: 2, Marks: nil},
			},
			wantFamily: "Arial",
		},
		{
			name: "value tie resolves to the earliest run",
			runs: []StyleRun{
				{Off: 0, Len: 5, Marks: arial},
				{Off: 5, Len: 5, Marks: times},
				{Off: 10, Len: 2, Marks: nil},
			},
			wantFamily: "Arial",
		},
		{
			name: "tie with absence drops the mark",
			runs: []StyleRun{
				{Off: 0, Len: 6, Marks: arial},
				{Off: 6, Len: 6, Marks: nil},
			},
			wantFamily: "",
		},
		{
			name: "absence plurality drops the mark",
			runs: []StyleRun{
				{Off: 0, Len: 3, Marks: arial},
				{Off: 3, Len: 2, Marks: times},
				{Off: 5, Len: 7, Marks: nil},
			},
			wantFamily: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(capture(tt.runs...), policy)
			require.NoError(t, err)
			mark, ok := got.Get(doc.MarkFont)
			if tt.wantFamily == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantFamily, mark.Attr("family"))
		})
	}
}
