package doc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestMarshalRoundTrip(t *testing.T) {
	p := NewBlock(NodeParagraph, "p-1", nil,
		NewText("Hello ", nil),
		NewText("world", NewMarkSet(Mark{Type: MarkBold}, Mark{Type: MarkColor, Attrs: map[string]string{"value": "#ff0000"}})),
	)
	list := NewBlock(NodeBulletList, "", nil, NewListItem("item"))
	d := New(DefaultSchema(), p, NewHeading(2, "Title"), list)

	data, err := Marshal(d)
	require.NoError(t, err)

	back, err := Unmarshal(DefaultSchema(), data)
	require.NoError(t, err)

	if diff := cmp.Diff(d.Root(), back.Root()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, d.Revision(), back.Revision())
}

func TestUnmarshalRejectsUnknownTypes(t *testing.T) {
	_, err := Unmarshal(DefaultSchema(), []byte(`{"blocks":[{"type":"sidebar"}]}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown node type")

	_, err = Unmarshal(DefaultSchema(), []byte(
		`{"blocks":[{"type":"paragraph","children":[{"type":"text","text":"x","marks":[{"type":"blink"}]}]}]}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown mark type")
}

func TestUnmarshalAssignsMissingBlockIDs(t *testing.T) {
	d, err := Unmarshal(DefaultSchema(), []byte(
		`{"revision":7,"blocks":[{"type":"paragraph","children":[{"type":"text","text":"hi"}]}]}`))
	require.NoError(t, err)
	require.Equal(t, Revision(7), d.Revision())
	require.NotEmpty(t, d.Root().Children[0].ID)
}
