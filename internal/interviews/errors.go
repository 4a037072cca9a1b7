package interviews

import "errors"

var (
	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrContentTooShort is returned when the extracted text is below the minimum length.
	ErrContentTooShort = errors.New("content too short")
	// ErrNotFound is returned when a run does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for malformed requests.
	ErrInvalidInput = errors.New("invalid input")
)

// User-facing banner texts.
const (
	msgContentTooShort = "File content too short or empty."
	msgExtracted       = "Text extracted successfully."
	msgUnsupported     = "Unsupported file type. Please upload .txt, .pdf, or .docx"
	msgReadPrefix      = "Error reading file: "
	msgAPIPrefix       = "API Error: "
)
