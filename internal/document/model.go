package document

import "strings"

// Model is the immutable block sequence of one document together with a
// row/column index of its tables.
type Model struct {
	blocks []Block
	paras  []int
	grids  []Grid
}

// GridCell is the joined text of one table cell and the index of its first
// block (-1 when the cell had no paragraphs).
type GridCell struct {
	Text  string
	Block int
}

// Grid indexes one table by row and column.
type Grid struct {
	Ordinal int
	rows    [][]GridCell
}

// Build walks src in document order. Paragraphs become Paragraph blocks;
// every paragraph of every cell becomes a TableCell block, row-major then
// column. Index order is the reading order.
func Build(src Source) *Model {
	m := &Model{}
	if src == nil {
		return m
	}
	tableOrdinal := 0
	for _, el := range src.Elements() {
		switch {
		case el.Para != nil:
			m.paras = append(m.paras, len(m.blocks))
			m.blocks = append(m.blocks, Block{
				Index:    len(m.blocks),
				Kind:     Paragraph,
				Text:     strings.TrimSpace(el.Para.Text),
				HasMedia: el.Para.HasMedia,
			})
		case el.Table != nil:
			g := Grid{Ordinal: tableOrdinal, rows: make([][]GridCell, 0, len(el.Table.Rows))}
			for r, row := range el.Table.Rows {
				gr := make([]GridCell, 0, len(row))
				for c, cell := range row {
					first := -1
					for _, p := range cell.Paras {
						if first < 0 {
							first = len(m.blocks)
						}
						m.blocks = append(m.blocks, Block{
							Index:    len(m.blocks),
							Kind:     TableCell,
							Text:     strings.TrimSpace(p.Text),
							HasMedia: p.HasMedia,
							Coord:    &TableCoord{Table: tableOrdinal, Row: r, Col: c},
						})
					}
					gr = append(gr, GridCell{Text: cell.Text(), Block: first})
				}
				g.rows = append(g.rows, gr)
			}
			m.grids = append(m.grids, g)
			tableOrdinal++
		}
	}
	return m
}

// Len returns the number of blocks.
func (m *Model) Len() int { return len(m.blocks) }

// At returns block i. It panics when i is out of range, like a slice index.
func (m *Model) At(i int) Block { return copyBlock(m.blocks[i]) }

// Blocks returns a copy of every block in reading order.
func (m *Model) Blocks() []Block {
	out := make([]Block, len(m.blocks))
	for i, b := range m.blocks {
		out[i] = copyBlock(b)
	}
	return out
}

// Paragraphs returns the top-level paragraph blocks in order.
func (m *Model) Paragraphs() []Block {
	out := make([]Block, 0, len(m.paras))
	for _, i := range m.paras {
		out = append(out, m.blocks[i])
	}
	return out
}

// Grids returns the table index built once during Build.
func (m *Model) Grids() []Grid {
	out := make([]Grid, len(m.grids))
	copy(out, m.grids)
	return out
}

func copyBlock(b Block) Block {
	if b.Coord != nil {
		c := *b.Coord
		b.Coord = &c
	}
	return b
}

// Rows returns the number of rows.
func (g Grid) Rows() int { return len(g.rows) }

// Row returns a copy of row r, or nil when r is out of range.
func (g Grid) Row(r int) []GridCell {
	if r < 0 || r >= len(g.rows) {
		return nil
	}
	out := make([]GridCell, len(g.rows[r]))
	copy(out, g.rows[r])
	return out
}

// Cell returns the cell at (r, c) and whether it exists.
func (g Grid) Cell(r, c int) (GridCell, bool) {
	if r < 0 || r >= len(g.rows) || c < 0 || c >= len(g.rows[r]) {
		return GridCell{}, false
	}
	return g.rows[r][c], true
}

// RowText joins the trimmed cell texts of row r with sep, empty cells included.
func (g Grid) RowText(r int, sep string) string {
	row := g.Row(r)
	parts := make([]string, 0, len(row))
	for _, c := range row {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, sep)
}

// Text joins all rows with newlines, cells separated by two spaces.
func (g Grid) Text() string {
	lines := make([]string, 0, len(g.rows))
	for r := range g.rows {
		lines = append(lines, g.RowText(r, "  "))
	}
	return strings.Join(lines, "\n")
}
