package report

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const pdfFont = "report"

// ErrNoFont is returned by WritePDF without a TrueType font; the core PDF
// fonts cannot render Han characters.
var ErrNoFont = errors.New("report: pdf output needs a UTF-8 TrueType font")

// WritePDF renders the text report to a single-column A4 PDF. Section
// banners are set in a larger size.
func WritePDF(r *Report, outPath, fontPath string) error {
	if strings.TrimSpace(fontPath) == "" {
		return ErrNoFont
	}
	var text bytes.Buffer
	if err := RenderText(&text, r); err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8Font(pdfFont, "", fontPath)
	pdf.SetFont(pdfFont, "", 11)
	pdf.AddPage()

	scanner := bufio.NewScanner(&text)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			pdf.Ln(5)
			continue
		}
		if strings.HasPrefix(s, "==== ") {
			pdf.SetFont(pdfFont, "", 14)
			pdf.CellFormat(0, 8, strings.Trim(s, "= "), "", 1, "L", false, 0, "")
			pdf.SetFont(pdfFont, "", 11)
			continue
		}
		pdf.MultiCell(0, 5, scanner.Text(), "", "L", false)
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.OutputFileAndClose(outPath)
}
