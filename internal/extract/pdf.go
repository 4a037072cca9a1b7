package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	dpdf "github.com/dslipak/pdf"
	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ledongthucPDF reads page text with github.com/ledongthuc/pdf.
type ledongthucPDF struct{}

func (ledongthucPDF) Name() string { return "ledongthuc" }

func (ledongthucPDF) Extract(ctx context.Context, data []byte) (Result, error) {
	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, err
	}
	return readPages(ctx, r.NumPage(), func(i int) (string, error) {
		p := r.Page(i)
		if p.V.IsNull() {
			return "", nil
		}
		return p.GetPlainText(nil)
	})
}

// dslipakPDF reads page text with github.com/dslipak/pdf, which copes
// with some producers the primary reader rejects.
type dslipakPDF struct{}

func (dslipakPDF) Name() string { return "dslipak" }

func (dslipakPDF) Extract(ctx context.Context, data []byte) (Result, error) {
	r, err := dpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, err
	}
	return readPages(ctx, r.NumPage(), func(i int) (string, error) {
		p := r.Page(i)
		if p.V.IsNull() {
			return "", nil
		}
		return p.GetPlainText(nil)
	})
}

// readPages collects the text of pages 1..total in order. Pages without
// text are counted but not joined.
func readPages(ctx context.Context, total int, pageText func(i int) (string, error)) (Result, error) {
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		text, err := pageText(i)
		if err != nil {
			return Result{}, fmt.Errorf("page %d: %w", i, err)
		}
		if text != "" {
			pages = append(pages, text)
		}
	}
	return Result{
		Text:          strings.Join(pages, "\n"),
		Pages:         total,
		PagesWithText: len(pages),
	}, nil
}

var disablePDFCPUConfig sync.Once

// repairedPDF rewrites the file with pdfcpu in relaxed mode (rebuilding
// broken xref tables and streams) and hands the result to inner.
type repairedPDF struct {
	inner Strategy
}

func (r repairedPDF) Name() string { return "pdfcpu+" + r.inner.Name() }

func (r repairedPDF) Extract(ctx context.Context, data []byte) (Result, error) {
	disablePDFCPUConfig.Do(api.DisableConfigDir)

	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed

	var repaired bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &repaired, cfg); err != nil {
		return Result{}, fmt.Errorf("repair: %w", err)
	}
	return r.inner.Extract(ctx, repaired.Bytes())
}
