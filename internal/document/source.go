package document

import "strings"

// Para is a paragraph as reported by a parser: its plain text and whether any
// inline graphical object was found inside it.
type Para struct {
	Text     string
	HasMedia bool
}

// Cell is one table cell; it holds the cell's paragraphs in order.
type Cell struct {
	Paras []Para
}

// Text joins the cell paragraphs with newlines, the way word processors
// expose cell text.
func (c Cell) Text() string {
	parts := make([]string, 0, len(c.Paras))
	for _, p := range c.Paras {
		parts = append(parts, p.Text)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// Table is an ordered list of rows of cells.
type Table struct {
	Rows [][]Cell
}

// Element is either a paragraph or a table; exactly one field is set.
type Element struct {
	Para  *Para
	Table *Table
}

// Source exposes a parsed document's body in document order.
type Source interface {
	Elements() []Element
}

// Elements is a ready-made Source over an in-memory element list.
type Elements []Element

func (e Elements) Elements() []Element { return e }

// Text, Media and TableOf build in-memory fixtures for tests of the packages
// that consume a Model. The readers in docx and htmldoc do not use them.

// Text returns a paragraph element without media. Test fixture.
func Text(text string) Element {
	return Element{Para: &Para{Text: text}}
}

// Media returns a paragraph element carrying an inline graphic. text is
// usually empty. Test fixture.
func Media(text string) Element {
	return Element{Para: &Para{Text: text, HasMedia: true}}
}

// TableOf builds a table element from rows of cell texts; "\n" splits a
// cell into paragraphs. Test fixture.
func TableOf(rows ...[]string) Element {
	t := &Table{Rows: make([][]Cell, 0, len(rows))}
	for _, r := range rows {
		cells := make([]Cell, 0, len(r))
		for _, s := range r {
			cells = append(cells, Cell{Paras: splitParas(s)})
		}
		t.Rows = append(t.Rows, cells)
	}
	return Element{Table: t}
}

func splitParas(s string) []Para {
	lines := strings.Split(s, "\n")
	out := make([]Para, 0, len(lines))
	for _, l := range lines {
		out = append(out, Para{Text: l})
	}
	return out
}
