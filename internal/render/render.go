// Package render serializes a layout.Document into PDF bytes.
//
// Engines only draw what the layout hands them: pagination and truncation are
// decided once in package layout, so every engine produces the same pages.
package render

import (
	"context"
	"fmt"

	"bin2pdf/internal/config"
	"bin2pdf/internal/infra/chrome"
	"bin2pdf/internal/layout"
)

// Meta carries document-level metadata.
type Meta struct {
	Title string
}

// Options are the layout-neutral switches shared by all engines.
type Options struct {
	PageNumbers bool
	Compress    bool
}

// Engine renders a laid-out document.
type Engine interface {
	Name() string
	Render(ctx context.Context, doc layout.Document, meta Meta) ([]byte, error)
}

// New returns the engine selected by cfg.PDF.Engine. The chrome engine uses
// pool when it is non-nil and a one-off browser otherwise.
func New(cfg config.Config, pool *chrome.Pool) (Engine, error) {
	opts := Options{PageNumbers: cfg.PDF.PageNumbers, Compress: cfg.PDF.Compress}
	switch cfg.PDF.Engine {
	case config.EngineFPDF, "":
		return NewFPDF(opts), nil
	case config.EngineChrome:
		return NewChrome(cfg, pool, opts), nil
	default:
		return nil, fmt.Errorf("render: unknown engine %q", cfg.PDF.Engine)
	}
}

func footerText(page int) string {
	return fmt.Sprintf("Page %d", page)
}
