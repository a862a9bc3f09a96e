package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"

	"bin2pdf/internal/layout"
)

// FPDF draws the layout with core Courier glyphs, no browser involved.
type FPDF struct {
	opts Options
}

func NewFPDF(opts Options) *FPDF {
	return &FPDF{opts: opts}
}

func (e *FPDF) Name() string { return "fpdf" }

func (e *FPDF) Render(ctx context.Context, doc layout.Document, meta Meta) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(e.opts.Compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(layout.MarginLeft, layout.MarginTop, layout.MarginLeft)
	pdf.SetCreator("bin2pdf", false)
	if meta.Title != "" {
		pdf.SetTitle(meta.Title, true)
	}
	if e.opts.PageNumbers {
		pdf.SetFooterFunc(func() {
			pdf.SetY(-15)
			pdf.SetFont(layout.FontFamily, "I", layout.FontSize)
			pdf.CellFormat(0, 5, footerText(pdf.PageNo()), "", 0, "C", false, 0, "")
		})
	}

	for _, page := range doc.Pages {
		pdf.AddPage()
		pdf.SetFont(layout.FontFamily, "", layout.FontSize)
		for _, line := range page.Lines {
			if line.Text == "" {
				continue
			}
			pdf.Text(line.X, line.Y, line.Text)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("fpdf output: %w", err)
	}
	return buf.Bytes(), nil
}
