// Package docx reads the body of a WordprocessingML document into the
// paragraph/table element stream consumed by internal/document.
package docx

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/hyperifyio/hcaudit/internal/document"
)

// ErrNotDOCX is returned when the input is not a zip archive or lacks the
// main document part.
var ErrNotDOCX = errors.New("docx: not a word document")

const mainPart = "word/document.xml"

// mediaQuery selects any inline or floating graphic below a paragraph.
const mediaQuery = `.//*[local-name()='drawing' or local-name()='blip' or local-name()='imagedata' or local-name()='pic' or local-name()='pict' or local-name()='shape']`

// Document is a parsed body. It implements document.Source.
type Document struct {
	elems []document.Element
}

func (d *Document) Elements() []document.Element { return d.elems }

// Open reads the file at path.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat docx: %w", err)
	}
	return Read(f, st.Size())
}

// Read parses a document from r.
func Read(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDOCX, err)
	}
	var part *zip.File
	for _, f := range zr.File {
		if f.Name == mainPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrNotDOCX, mainPart)
	}
	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDOCX, err)
	}
	defer rc.Close()
	root, err := xmlquery.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrNotDOCX, mainPart, err)
	}
	body := xmlquery.FindOne(root, "//*[local-name()='body']")
	if body == nil {
		return nil, fmt.Errorf("%w: no body", ErrNotDOCX)
	}
	return &Document{elems: readBlocks(body)}, nil
}

// readBlocks walks body-level children in order. Content controls are
// transparent.
func readBlocks(parent *xmlquery.Node) []document.Element {
	var out []document.Element
	for n := parent.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode {
			continue
		}
		switch n.Data {
		case "p":
			p := readParagraph(n)
			out = append(out, document.Element{Para: &p})
		case "tbl":
			t := readTable(n)
			out = append(out, document.Element{Table: &t})
		case "sdt", "sdtContent", "customXml":
			out = append(out, readBlocks(n)...)
		}
	}
	return out
}

func readParagraph(p *xmlquery.Node) document.Para {
	var b strings.Builder
	collectText(p, &b)
	return document.Para{
		Text:     b.String(),
		HasMedia: xmlquery.FindOne(p, mediaQuery) != nil,
	}
}

// collectText appends run text in document order. Deleted runs and text
// boxes are skipped, as word processors do for paragraph text.
func collectText(n *xmlquery.Node, b *strings.Builder) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		switch c.Data {
		case "t":
			b.WriteString(c.InnerText())
		case "tab":
			if c.Parent != nil && c.Parent.Data == "r" {
				b.WriteByte('\t')
			}
		case "br", "cr":
			b.WriteByte('\n')
		case "del", "delText", "txbxContent", "pPr", "rPr", "instrText":
		default:
			collectText(c, b)
		}
	}
}

type gridSlot struct {
	cell document.Cell
	set  bool
}

// readTable expands horizontal spans by repeating the cell and fills
// vertical merge continuations with the text of the cell above. Repeated
// cells carry text only, so one graphic is never counted twice.
func readTable(tbl *xmlquery.Node) document.Table {
	var t document.Table
	var above []gridSlot
	for tr := tbl.FirstChild; tr != nil; tr = tr.NextSibling {
		if tr.Type != xmlquery.ElementNode || tr.Data != "tr" {
			continue
		}
		var row []document.Cell
		var slots []gridSlot
		for _, tc := range rowCells(tr) {
			span := 1
			merge := ""
			hasMerge := false
			if pr := child(tc, "tcPr"); pr != nil {
				if gs := child(pr, "gridSpan"); gs != nil {
					if n, err := strconv.Atoi(attr(gs, "val")); err == nil && n > 1 {
						span = n
					}
				}
				if vm := child(pr, "vMerge"); vm != nil {
					hasMerge = true
					merge = attr(vm, "val")
				}
			}
			cell := readCell(tc)
			if hasMerge && merge != "restart" {
				col := len(slots)
				if col < len(above) && above[col].set {
					cell = textOnly(above[col].cell)
				}
			}
			for i := 0; i < span; i++ {
				c := cell
				if i > 0 {
					c = textOnly(cell)
				}
				row = append(row, c)
				slots = append(slots, gridSlot{cell: cell, set: true})
			}
		}
		t.Rows = append(t.Rows, row)
		above = slots
	}
	return t
}

// rowCells returns the cells of a row, looking through content controls.
func rowCells(tr *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		switch c.Data {
		case "tc":
			out = append(out, c)
		case "sdt", "sdtContent", "customXml":
			out = append(out, rowCells(c)...)
		}
	}
	return out
}

// readCell gathers the cell's paragraphs; nested tables contribute theirs
// in reading order.
func readCell(tc *xmlquery.Node) document.Cell {
	var c document.Cell
	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		for e := n.FirstChild; e != nil; e = e.NextSibling {
			if e.Type != xmlquery.ElementNode {
				continue
			}
			switch e.Data {
			case "p":
				c.Paras = append(c.Paras, readParagraph(e))
			case "tbl", "tr", "tc", "sdt", "sdtContent", "customXml":
				walk(e)
			}
		}
	}
	walk(tc)
	return c
}

func textOnly(c document.Cell) document.Cell {
	out := document.Cell{Paras: make([]document.Para, len(c.Paras))}
	for i, p := range c.Paras {
		out.Paras[i] = document.Para{Text: p.Text}
	}
	return out
}

func child(n *xmlquery.Node, local string) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == local {
			return c
		}
	}
	return nil
}

func attr(n *xmlquery.Node, local string) string {
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
