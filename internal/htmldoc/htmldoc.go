// Package htmldoc reads HTML exports of audit reports into the same
// paragraph/table element stream the DOCX reader produces.
package htmldoc

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/hcaudit/internal/document"
)

// Document is a parsed HTML body. It implements document.Source.
type Document struct {
	Title string
	elems []document.Element
}

func (d *Document) Elements() []document.Element { return d.elems }

// Open parses the file at path.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open html: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse walks <body>. Block elements (p, h1-h6, li, div and friends) end a
// paragraph, tables become tables with rowspan and colspan expanded, and
// img/svg/picture/object/canvas mark the current paragraph as carrying
// media.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: parse: %w", err)
	}
	d := &Document{Title: strings.TrimSpace(findTitle(root))}
	content := findFirst(root, "body")
	if content == nil {
		content = root
	}
	var s sink
	s.walk(content)
	s.flush()
	d.elems = s.elems
	return d, nil
}

// sink accumulates inline text until a block boundary.
type sink struct {
	elems []document.Element
	buf   strings.Builder
	media bool
}

func (s *sink) flush() {
	text := normalize(s.buf.String())
	if text != "" || s.media {
		s.elems = append(s.elems, document.Element{Para: &document.Para{Text: text, HasMedia: s.media}})
	}
	s.buf.Reset()
	s.media = false
}

func (s *sink) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		s.buf.WriteString(strings.ReplaceAll(n.Data, "\n", " "))
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			s.walk(c)
		}
		return
	}
	name := strings.ToLower(n.Data)
	switch name {
	case "script", "style", "noscript", "nav", "head", "template", "iframe":
		return
	case "img", "svg", "picture", "object", "canvas":
		s.media = true
		return
	case "br":
		s.buf.WriteByte('\n')
		return
	case "table":
		s.flush()
		t := readTable(n)
		s.elems = append(s.elems, document.Element{Table: &t})
		return
	}
	block := isBlock(name)
	if block {
		s.flush()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.walk(c)
	}
	if block {
		s.flush()
	}
}

func isBlock(name string) bool {
	switch name {
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "div",
		"ul", "ol", "section", "article", "main", "header", "footer",
		"blockquote", "pre", "figure", "figcaption", "dd", "dt", "caption":
		return true
	}
	return false
}

type pending struct {
	cell document.Cell
	left int
}

// readTable lays cells onto a grid. A cell spanning several columns is
// repeated; a cell spanning rows is copied into the rows below. Copies carry
// text only.
func readTable(tbl *html.Node) document.Table {
	var t document.Table
	spans := map[int]*pending{}
	for _, tr := range rowsOf(tbl) {
		var row []document.Cell
		fill := func() {
			for {
				p, ok := spans[len(row)]
				if !ok {
					return
				}
				row = append(row, textOnly(p.cell))
				p.left--
				if p.left == 0 {
					delete(spans, len(row)-1)
				}
			}
		}
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
				continue
			}
			fill()
			cell := readCell(c)
			cols := spanAttr(c, "colspan")
			rows := spanAttr(c, "rowspan")
			for i := 0; i < cols; i++ {
				if i == 0 {
					row = append(row, cell)
				} else {
					row = append(row, textOnly(cell))
				}
				if rows > 1 {
					spans[len(row)-1] = &pending{cell: cell, left: rows - 1}
				}
			}
		}
		fill()
		t.Rows = append(t.Rows, row)
	}
	return t
}

// rowsOf lists a table's own rows, skipping nested tables.
func rowsOf(tbl *html.Node) []*html.Node {
	var out []*html.Node
	for c := tbl.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "tr":
			out = append(out, c)
		case "thead", "tbody", "tfoot":
			out = append(out, rowsOf(c)...)
		}
	}
	return out
}

// readCell collects the cell's paragraphs; nested tables contribute their
// cell paragraphs in reading order.
func readCell(td *html.Node) document.Cell {
	var s sink
	for c := td.FirstChild; c != nil; c = c.NextSibling {
		s.walk(c)
	}
	s.flush()
	var cell document.Cell
	for _, el := range s.elems {
		switch {
		case el.Para != nil:
			cell.Paras = append(cell.Paras, *el.Para)
		case el.Table != nil:
			for _, row := range el.Table.Rows {
				for _, c := range row {
					cell.Paras = append(cell.Paras, c.Paras...)
				}
			}
		}
	}
	return cell
}

func textOnly(c document.Cell) document.Cell {
	out := document.Cell{Paras: make([]document.Para, len(c.Paras))}
	for i, p := range c.Paras {
		out.Paras[i] = document.Para{Text: p.Text}
	}
	return out
}

func spanAttr(n *html.Node, key string) int {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			if v, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil && v > 1 {
				return v
			}
		}
	}
	return 1
}

func findTitle(n *html.Node) string {
	head := findFirst(n, "head")
	if head == nil {
		return ""
	}
	t := findFirst(head, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return t.FirstChild.Data
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findFirst(c, tag); res != nil {
			return res
		}
	}
	return nil
}

// normalize collapses whitespace runs inside each line and drops blank
// lines. Explicit <br> breaks survive as newlines.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if l := collapseSpaces(line); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\u00a0' || r == '\u3000' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimRight(b.String(), " ")
}
