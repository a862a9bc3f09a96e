// Package domain holds the sentinel errors shared by the conversion pipeline
// and its HTTP surface. It stays free of transport and infrastructure imports.
package domain

import "errors"

var (
	// ErrNoFile signals a form submission without a "file" field.
	ErrNoFile = errors.New("no file uploaded")
	// ErrFileTooLarge signals an upload above limits.max_upload_bytes.
	ErrFileTooLarge = errors.New("file too large")
	// ErrPDFTooLarge signals a rendered document above limits.max_pdf_bytes.
	ErrPDFTooLarge = errors.New("pdf exceeds allowed size")
	// ErrRender wraps every failure raised while building the document.
	ErrRender = errors.New("render failed")

	// ErrInvalidAPIKey signals that the provided API key is not known.
	ErrInvalidAPIKey = errors.New("invalid api key")
	// ErrTokenStoreNotReady signals that the token store has not been loaded yet.
	// This can happen during startup when the DB isn't ready.
	ErrTokenStoreNotReady = errors.New("token store not ready")
)
