// Package document holds the normalized, read-order block model of a report.
//
// A Model is built once per document from a Source supplied by a parser
// (see internal/docx and internal/htmldoc) and is read-only afterwards.
package document

// Kind tags a block as a top-level paragraph or a paragraph inside a table cell.
type Kind int

const (
	Paragraph Kind = iota
	TableCell
)

func (k Kind) String() string {
	if k == TableCell {
		return "table_cell"
	}
	return "paragraph"
}

// TableCoord locates a table-cell block. Table is the ordinal of the table in
// document order; Row and Col are zero-based.
type TableCoord struct {
	Table int `json:"table"`
	Row   int `json:"row"`
	Col   int `json:"col"`
}

// Block is one unit of document text in reading order.
type Block struct {
	Index    int         `json:"index"`
	Kind     Kind        `json:"kind"`
	Text     string      `json:"text"`
	HasMedia bool        `json:"has_media"`
	Coord    *TableCoord `json:"table_coord,omitempty"`
}

// InTable reports whether the block came from a table cell.
func (b Block) InTable() bool { return b.Kind == TableCell && b.Coord != nil }
