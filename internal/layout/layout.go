// Package layout places sanitized text on fixed-size monospace pages.
//
// All measurements are millimetres on an A4 portrait sheet with the origin at
// the top-left corner; Y is the text baseline. The grid is fixed: 80 columns
// of Courier 8 pt, a new page once the cursor passes PageThreshold.
package layout

import "strings"

const (
	PageWidth     = 210.0
	PageHeight    = 297.0
	MarginLeft    = 10.0
	MarginTop     = 20.0
	PageThreshold = 280.0
	LineHeight    = 5.0

	FontFamily = "Courier"
	FontSize   = 8.0

	MaxColumns = 80
	Ellipsis   = "..."
)

// Line is one row of the grid.
type Line struct {
	Text      string
	X         float64
	Y         float64
	Truncated bool
}

// Page is one sheet, numbered from 1.
type Page struct {
	Number int
	Lines  []Line
}

// Document is the full layout. It always holds at least one page.
type Document struct {
	Pages []Page
}

// LineCount is the number of lines over all pages.
func (d Document) LineCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Lines)
	}
	return n
}

// TruncatedCount is the number of lines that were cut to fit MaxColumns.
func (d Document) TruncatedCount() int {
	n := 0
	for _, p := range d.Pages {
		for _, l := range p.Lines {
			if l.Truncated {
				n++
			}
		}
	}
	return n
}

// LinesPerPage is how many rows fit between MarginTop and PageThreshold.
func LinesPerPage() int {
	return int((PageThreshold-MarginTop)/LineHeight) + 1
}

// Fit cuts lines longer than MaxColumns runes to MaxColumns-len(Ellipsis)
// runes followed by Ellipsis. Lines are never wrapped.
func Fit(line string) (string, bool) {
	rs := []rune(line)
	if len(rs) <= MaxColumns {
		return line, false
	}
	return string(rs[:MaxColumns-len(Ellipsis)]) + Ellipsis, true
}

// Paginate splits text on '\n' and walks a vertical cursor down the page,
// starting a new page when the cursor has passed PageThreshold.
func Paginate(text string) Document {
	doc := Document{Pages: []Page{{Number: 1}}}
	cur := &doc.Pages[0]
	y := MarginTop

	for _, raw := range strings.Split(text, "\n") {
		if y > PageThreshold {
			doc.Pages = append(doc.Pages, Page{Number: len(doc.Pages) + 1})
			cur = &doc.Pages[len(doc.Pages)-1]
			y = MarginTop
		}
		s, cut := Fit(strings.TrimSuffix(raw, "\r"))
		cur.Lines = append(cur.Lines, Line{Text: s, X: MarginLeft, Y: y, Truncated: cut})
		y += LineHeight
	}
	return doc
}
