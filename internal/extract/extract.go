package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"interview-backend/internal/shared/metrics"
	"interview-backend/internal/shared/telemetry"
)

const (
	ExtTXT  = ".txt"
	ExtPDF  = ".pdf"
	ExtDOCX = ".docx"
)

// SupportedExtensions lists the accepted upload extensions in display order.
var SupportedExtensions = []string{ExtTXT, ExtPDF, ExtDOCX}

var (
	// ErrUnsupportedType is returned for extensions outside SupportedExtensions.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrExtraction wraps every failure while reading a supported file.
	ErrExtraction = errors.New("extraction failed")
	// ErrDecode is returned when a text file is not valid UTF-8.
	ErrDecode = errors.New("invalid utf-8 text")
)

// Result is the text pulled out of one document.
type Result struct {
	Text     string
	Strategy string
	// Pages and PagesWithText are only set for PDFs.
	Pages         int
	PagesWithText int
}

// Partial reports whether some PDF pages produced no text.
func (r Result) Partial() bool {
	return r.Pages > 0 && r.PagesWithText < r.Pages
}

// Extractor dispatches on file extension to an extraction strategy.
type Extractor struct {
	Text Strategy
	PDF  Chain
	DOCX Strategy
}

// New returns an Extractor with the default strategies.
func New() *Extractor {
	primary := ledongthucPDF{}
	return &Extractor{
		Text: utf8Text{},
		PDF: Chain{
			primary,
			dslipakPDF{},
			repairedPDF{inner: primary},
		},
		DOCX: docxParagraphs{},
	}
}

// Extract pulls the text out of data, choosing the strategy from fileName.
func (e *Extractor) Extract(ctx context.Context, fileName string, data []byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	var strategy Strategy
	switch ext {
	case ExtTXT:
		strategy = e.Text
	case ExtPDF:
		strategy = e.PDF
	case ExtDOCX:
		strategy = e.DOCX
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	if strategy == nil {
		return Result{}, fmt.Errorf("%w: no strategy for %s", ErrExtraction, ext)
	}

	start := time.Now()
	res, err := safeExtract(ctx, strategy, data)
	metrics.ObserveExtractionDurationMs(metrics.SinceMillis(start))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrExtraction, ext, err)
	}
	if res.Strategy == "" {
		res.Strategy = strategy.Name()
	}

	if ext == ExtPDF && len(e.PDF) > 0 && res.Strategy != e.PDF[0].Name() {
		metrics.IncExtractionFallback()
		telemetry.Info("extract.pdf.fallback", map[string]any{
			"file_name": fileName,
			"strategy":  res.Strategy,
		})
	}
	return res, nil
}

type utf8Text struct{}

func (utf8Text) Name() string { return "utf8" }

func (utf8Text) Extract(_ context.Context, data []byte) (Result, error) {
	if !utf8.Valid(data) {
		return Result{}, ErrDecode
	}
	return Result{Text: string(data)}, nil
}
