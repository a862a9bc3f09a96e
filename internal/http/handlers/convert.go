package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"bin2pdf/internal/convert"
	"bin2pdf/internal/domain"
	"bin2pdf/internal/infra/logging"
)

// Fixed client-facing messages. Internal error details only go to the log.
const (
	msgNoFile         = "No file uploaded"
	msgFileTooLarge   = "File too large"
	msgPDFTooLarge    = "PDF exceeds allowed size"
	msgConversionFail = "Conversion failed"
)

// Converter is the part of convert.Service the handler needs.
type Converter interface {
	Convert(ctx context.Context, uploadName string, data []byte) (*convert.Artifact, error)
}

type ConvertHandler struct {
	svc            Converter
	maxUploadBytes int64
}

// NewConvertHandler wires svc behind the multipart endpoint. A non-positive
// maxUploadBytes disables the upload size check.
func NewConvertHandler(svc Converter, maxUploadBytes int64) *ConvertHandler {
	return &ConvertHandler{svc: svc, maxUploadBytes: maxUploadBytes}
}

func jsonError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// Handle accepts multipart/form-data with a "file" field and responds with
// the rendered PDF as an attachment.
func (h *ConvertHandler) Handle(c *fiber.Ctx) error {
	requestID := c.GetRespHeader(fiber.HeaderXRequestID)

	fh, err := c.FormFile("file")
	if err != nil {
		logging.Debug("Upload without file", "error", err, "request_id", requestID)
		return jsonError(c, fiber.StatusBadRequest, msgNoFile)
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		logging.Warn("Upload rejected", "error", domain.ErrFileTooLarge, "size", fh.Size, "request_id", requestID)
		return jsonError(c, fiber.StatusRequestEntityTooLarge, msgFileTooLarge)
	}

	data, err := readUpload(fh)
	if err != nil {
		logging.Error("Reading upload failed", "error", err, "request_id", requestID)
		return jsonError(c, fiber.StatusInternalServerError, msgConversionFail)
	}

	art, err := h.svc.Convert(c.UserContext(), fh.Filename, data)
	if err != nil {
		if errors.Is(err, domain.ErrPDFTooLarge) {
			logging.Warn("PDF rejected", "error", err, "filename", fh.Filename, "request_id", requestID)
			return jsonError(c, fiber.StatusRequestEntityTooLarge, msgPDFTooLarge)
		}
		logging.Error("Conversion failed", "error", err, "filename", fh.Filename, "request_id", requestID)
		return jsonError(c, fiber.StatusInternalServerError, msgConversionFail)
	}

	logging.Info("PDF generated",
		"filename", art.Filename,
		"encoding", art.Encoding,
		"pages", art.Pages,
		"cached", art.Cached,
		"request_id", requestID,
	)

	c.Set(fiber.HeaderContentType, art.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, art.Filename))
	c.Set("X-Source-Encoding", art.Encoding)
	c.Set("X-Page-Count", strconv.Itoa(art.Pages))
	c.Set("X-Line-Count", strconv.Itoa(art.Lines))
	return c.Send(art.Data)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
