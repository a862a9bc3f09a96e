// Package convert runs the upload-to-PDF pipeline: decode, sanitize,
// paginate, render.
package convert

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"bin2pdf/internal/decode"
	"bin2pdf/internal/domain"
	"bin2pdf/internal/infra/logging"
	"bin2pdf/internal/layout"
	"bin2pdf/internal/render"
	"bin2pdf/internal/sanitize"
)

// ContentType of every artifact.
const ContentType = "application/pdf"

// Artifact is what the endpoint sends back.
type Artifact struct {
	Data        []byte
	Filename    string
	ContentType string

	Encoding  string
	Pages     int
	Lines     int
	Truncated int
	Cached    bool
}

// Cache stores rendered PDFs. Implementations must treat backend failures as
// misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte)
}

// Service is safe for concurrent use; it holds no per-request state.
type Service struct {
	decoder     *decode.Decoder
	engine      render.Engine
	cache       Cache
	pageNumbers bool
	maxPDFBytes int
}

type Option func(*Service)

// WithCache enables the rendered-PDF cache.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithMaxPDFBytes rejects documents above n bytes. Zero disables the check.
func WithMaxPDFBytes(n int) Option {
	return func(s *Service) { s.maxPDFBytes = n }
}

// WithPageNumbers only feeds the cache key; the engine draws the footer.
func WithPageNumbers(on bool) Option {
	return func(s *Service) { s.pageNumbers = on }
}

func NewService(decoder *decode.Decoder, engine render.Engine, opts ...Option) *Service {
	s := &Service{decoder: decoder, engine: engine}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Convert turns an upload into a PDF artifact. Errors are wrapped with
// domain.ErrRender or domain.ErrPDFTooLarge.
func (s *Service) Convert(ctx context.Context, uploadName string, data []byte) (art *Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			art = nil
			err = fmt.Errorf("%w: panic: %v", domain.ErrRender, r)
		}
	}()

	start := time.Now()
	decoded := s.decoder.Decode(data)
	text := sanitize.Clean(decoded.Text)
	doc := layout.Paginate(text)

	art = &Artifact{
		Filename:    PDFFilename(uploadName),
		ContentType: ContentType,
		Encoding:    decoded.Encoding,
		Pages:       len(doc.Pages),
		Lines:       doc.LineCount(),
		Truncated:   doc.TruncatedCount(),
	}

	key := s.cacheKey(text, art.Filename)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			art.Data = cached
			art.Cached = true
			return art, nil
		}
	}

	pdf, err := s.engine.Render(ctx, doc, render.Meta{Title: art.Filename})
	if err != nil {
		return nil, fmt.Errorf("%w: %s engine: %w", domain.ErrRender, s.engine.Name(), err)
	}
	if s.maxPDFBytes > 0 && len(pdf) > s.maxPDFBytes {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrPDFTooLarge, len(pdf))
	}
	art.Data = pdf

	if s.cache != nil {
		s.cache.Set(ctx, key, pdf)
	}

	logging.Debug("Conversion finished",
		"filename", art.Filename,
		"encoding", art.Encoding,
		"pages", art.Pages,
		"lines", art.Lines,
		"truncated", art.Truncated,
		"bytes_in", len(data),
		"bytes_out", len(pdf),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return art, nil
}

// cacheKey hashes everything that can change the rendered bytes.
func (s *Service) cacheKey(text, filename string) string {
	h := sha256.New()
	h.Write([]byte(s.engine.Name()))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatBool(s.pageNumbers)))
	h.Write([]byte{0})
	h.Write([]byte(filename))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return "pdfcache:" + hex.EncodeToString(h.Sum(nil))
}
