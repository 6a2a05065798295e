package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_ReadOrderInterleavesParagraphsAndCells(t *testing.T) {
	m := Build(Elements{
		Text(" 封面 "),
		TableOf(
			[]string{"a", "b"},
			[]string{"c\nd", ""},
		),
		Media(""),
	})

	blocks := m.Blocks()
	require.Len(t, blocks, 8)
	texts := make([]string, 0, len(blocks))
	for i, b := range blocks {
		assert.Equal(t, i, b.Index, "indices must be dense and increasing")
		texts = append(texts, b.Text)
	}
	assert.Equal(t, []string{"封面", "a", "b", "c", "d", "", "", ""}, texts)

	assert.Equal(t, Paragraph, blocks[0].Kind)
	assert.Nil(t, blocks[0].Coord)
	require.NotNil(t, blocks[4].Coord)
	assert.Equal(t, TableCoord{Table: 0, Row: 1, Col: 0}, *blocks[4].Coord)
	assert.True(t, blocks[7].HasMedia)
	assert.Equal(t, Paragraph, blocks[7].Kind)
}

func TestBuild_GridIndex(t *testing.T) {
	m := Build(Elements{
		Text("x"),
		TableOf([]string{"高后果区类型", "人员密集型"}),
		TableOf([]string{"k", "v"}, []string{"k2"}),
	})
	grids := m.Grids()
	require.Len(t, grids, 2)
	assert.Equal(t, 1, grids[1].Ordinal)

	c, ok := grids[0].Cell(0, 1)
	require.True(t, ok)
	assert.Equal(t, "人员密集型", c.Text)
	assert.Equal(t, 2, c.Block)

	_, ok = grids[1].Cell(1, 1)
	assert.False(t, ok, "ragged rows are bounds-checked")
	assert.Equal(t, "k  v\nk2", grids[1].Text())
	assert.Equal(t, "k v", grids[1].RowText(0, " "))
}

func TestModel_CopiesAreIsolated(t *testing.T) {
	m := Build(Elements{TableOf([]string{"a"})})
	b := m.Blocks()
	b[0].Text = "mutated"
	b[0].Coord.Row = 9
	fresh := m.At(0)
	assert.Equal(t, "a", fresh.Text)
	assert.Equal(t, 0, fresh.Coord.Row)
}

func TestModel_Paragraphs(t *testing.T) {
	m := Build(Elements{Text("p1"), TableOf([]string{"c"}), Text("p2")})
	ps := m.Paragraphs()
	require.Len(t, ps, 2)
	assert.Equal(t, "p2", ps[1].Text)
	assert.Equal(t, 2, ps[1].Index)
}

func TestBuild_NilSource(t *testing.T) {
	m := Build(nil)
	assert.Equal(t, 0, m.Len())
}
