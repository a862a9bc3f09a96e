package render

import (
	"context"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"bin2pdf/internal/config"
	"bin2pdf/internal/infra/chrome"
	"bin2pdf/internal/infra/logging"
	"bin2pdf/internal/layout"
)

const mmPerInch = 25.4

// Chrome prints the layout through headless Chrome. Each page becomes one
// absolutely positioned A4 sheet so the browser never reflows the text.
type Chrome struct {
	cfg  config.Config
	pool *chrome.Pool
	opts Options
}

func NewChrome(cfg config.Config, pool *chrome.Pool, opts Options) *Chrome {
	return &Chrome{cfg: cfg, pool: pool, opts: opts}
}

func (e *Chrome) Name() string { return "chrome" }

func (e *Chrome) Render(ctx context.Context, doc layout.Document, meta Meta) ([]byte, error) {
	markup := BuildHTML(doc, meta, e.opts)
	timeout := time.Duration(e.cfg.PDF.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if e.pool == nil {
		return e.renderOneOff(ctx, markup, timeout)
	}

	runOnce := func() ([]byte, error) {
		acquireCtx, acquireCancel := context.WithTimeout(ctx, 5*time.Second)
		defer acquireCancel()

		tab, err := e.pool.Acquire(acquireCtx)
		if err != nil {
			return nil, err
		}

		tabCtx, cancel := context.WithTimeout(tab.Ctx, timeout)
		buf, renderErr := printHTML(tabCtx, markup)
		cancel()

		e.pool.Release(tab, renderErr)
		return buf, renderErr
	}

	buf, err := runOnce()
	if err != nil && chrome.IsSessionInterrupted(err) && ctx.Err() == nil {
		logging.Warn("Chrome session interrupted; restarting pool and retrying once", "error", err)
		_ = e.pool.Restart()
		return runOnce()
	}
	return buf, err
}

// renderOneOff starts a dedicated browser for a single document.
func (e *Chrome) renderOneOff(ctx context.Context, markup string, timeout time.Duration) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "bin2pdf-chromedata-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp profile dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, chrome.AllocatorOptions(e.cfg, tmpDir)...)
	defer allocCancel()
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	return printHTML(browserCtx, markup)
}

func printHTML(ctx context.Context, markup string) ([]byte, error) {
	var pdfBuf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frame, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frame.Frame.ID, markup).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().
				WithPaperWidth(layout.PageWidth / mmPerInch).
				WithPaperHeight(layout.PageHeight / mmPerInch).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}

// BuildHTML converts the layout into a print-ready HTML page. Line positions
// are baselines in millimetres; a span's box top sits one font ascent above.
func BuildHTML(doc layout.Document, meta Meta, opts Options) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(meta.Title))
	fmt.Fprintf(&b, `<style>
@page { size: %gmm %gmm; margin: 0; }
html, body { margin: 0; padding: 0; }
.sheet { position: relative; width: %gmm; height: %gmm; overflow: hidden; page-break-after: always; break-after: page; }
.sheet:last-child { page-break-after: auto; break-after: auto; }
.line { position: absolute; white-space: pre; font-family: "Courier New", Courier, monospace; font-size: %gpt; line-height: 1; }
.footer { position: absolute; left: 0; right: 0; text-align: center; font-style: italic; font-family: "Courier New", Courier, monospace; font-size: %gpt; }
</style></head><body>
`, layout.PageWidth, layout.PageHeight, layout.PageWidth, layout.PageHeight, layout.FontSize, layout.FontSize)

	ascent := layout.FontSize * mmPerInch / 72
	for _, p := range doc.Pages {
		fmt.Fprintf(&b, `<div class="sheet" data-page="%d">`, p.Number)
		for _, l := range p.Lines {
			if l.Text == "" {
				continue
			}
			fmt.Fprintf(&b, `<span class="line" style="left:%.2fmm;top:%.2fmm">%s</span>`,
				l.X, l.Y-ascent, html.EscapeString(l.Text))
		}
		if opts.PageNumbers {
			fmt.Fprintf(&b, `<div class="footer" style="top:%.2fmm">%s</div>`,
				layout.PageHeight-15, footerText(p.Number))
		}
		b.WriteString("</div>\n")
	}
	b.WriteString("</body></html>\n")
	return b.String()
}
