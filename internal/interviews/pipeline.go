package interviews

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"interview-backend/internal/extract"
	"interview-backend/internal/questions"
	"interview-backend/internal/shared/metrics"
	"interview-backend/internal/shared/storage/object"
	"interview-backend/internal/shared/telemetry"
	"interview-backend/internal/shared/util"
)

// TextExtractor turns an uploaded file into text.
type TextExtractor interface {
	Extract(ctx context.Context, fileName string, data []byte) (extract.Result, error)
}

// Generator produces interview questions from document text.
type Generator interface {
	Generate(ctx context.Context, text string) (string, error)
	Model() string
}

// Pipeline runs one upload through the size gate, extraction, the
// content gate and question generation.
type Pipeline struct {
	extractor TextExtractor
	generator Generator
	gates     Gates
	repo      RunsRepo
	archive   object.ObjectStore
	now       func() time.Time
	newID     func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRepo records every finished run in repo.
func WithRepo(repo RunsRepo) Option {
	return func(p *Pipeline) { p.repo = repo }
}

// WithArchive stores accepted extracted text in store.
func WithArchive(store object.ObjectStore) Option {
	return func(p *Pipeline) { p.archive = store }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline constructs a Pipeline.
func NewPipeline(extractor TextExtractor, generator Generator, gates Gates, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		generator: generator,
		gates:     gates,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Gates returns the limits the pipeline enforces.
func (p *Pipeline) Gates() Gates { return p.gates }

// Run processes up and returns the resulting Run. The error is non-nil
// when the run stopped before questions were generated; the Run still
// carries the banners to show.
func (p *Pipeline) Run(ctx context.Context, up Upload) (Run, error) {
	metrics.IncRunStarted()
	run := p.newRun(up)
	err := p.process(ctx, &run, up)
	p.finish(ctx, &run, err)
	return run, err
}

// Preview applies the size gate, extraction and the content gate only.
// Nothing is generated, archived or recorded. ExtractedText is set when
// the text passed both gates.
func (p *Pipeline) Preview(ctx context.Context, up Upload) (Run, error) {
	run := p.newRun(up)
	err := p.screen(ctx, &run, up)
	completed := p.now().UTC()
	run.CompletedAt = &completed
	return run, err
}

func (p *Pipeline) newRun(up Upload) Run {
	return Run{
		ID:        p.newID(),
		FileName:  up.FileName,
		SizeBytes: up.size(),
		CreatedAt: p.now().UTC(),
	}
}

func (p *Pipeline) process(ctx context.Context, run *Run, up Upload) error {
	if err := p.screen(ctx, run, up); err != nil {
		return err
	}
	run.ArchiveKey = p.archiveText(ctx, run)

	run.Stage = StageGeneration
	run.Model = p.generator.Model()
	out, err := p.generator.Generate(ctx, run.ExtractedText)
	if err != nil {
		run.addBanner(LevelError, msgAPIPrefix+apiErrorMessage(err))
		return err
	}
	run.Questions = out
	run.Stage = StageCompleted
	metrics.IncRunCompleted()
	return nil
}

// screen runs the size gate, extraction and the content gate, adding the
// banner of each outcome.
func (p *Pipeline) screen(ctx context.Context, run *Run, up Upload) error {
	run.Stage = StageSizeGate
	if err := p.gates.CheckSize(run.SizeBytes); err != nil {
		metrics.IncRunRejected()
		run.addBanner(LevelWarning, p.gates.SizeMessage())
		return err
	}
	run.ContentSHA256 = util.HashBytes(up.Data)

	run.Stage = StageExtraction
	res, err := p.extractor.Extract(ctx, up.FileName, up.Data)
	if err != nil {
		metrics.IncExtractionFailed()
		run.addBanner(LevelError, msgReadPrefix+readErrorMessage(err))
		return err
	}
	run.Strategy = res.Strategy
	run.Pages = res.Pages
	run.PagesWithText = res.PagesWithText

	run.Stage = StageContentGate
	if err := p.gates.CheckContent(res.Text); err != nil {
		metrics.IncRunRejected()
		run.addBanner(LevelWarning, msgContentTooShort)
		return err
	}
	run.addBanner(LevelSuccess, msgExtracted)
	if res.Partial() {
		run.addBanner(LevelInfo, fmt.Sprintf("Text was extracted from %d of %d PDF pages.", res.PagesWithText, res.Pages))
	}
	run.ExtractedText = res.Text
	return nil
}

func (p *Pipeline) finish(ctx context.Context, run *Run, runErr error) {
	completed := p.now().UTC()
	run.CompletedAt = &completed

	fields := map[string]any{
		"run_id":     run.ID,
		"file_name":  run.FileName,
		"size_bytes": run.SizeBytes,
		"stage":      string(run.Stage),
	}
	if runErr != nil {
		fields["error"] = runErr
		telemetry.Warn("interview.run.stopped", fields)
	} else {
		fields["model"] = run.Model
		telemetry.Info("interview.run.completed", fields)
	}

	if p.repo == nil {
		return
	}
	if err := p.repo.Save(context.WithoutCancel(ctx), *run); err != nil {
		telemetry.Error("interview.run.save_failed", map[string]any{"run_id": run.ID, "error": err})
	}
}

func (p *Pipeline) archiveText(ctx context.Context, run *Run) string {
	if p.archive == nil {
		return ""
	}
	key, err := ExtractedTextKey(run.ID, run.FileName)
	if err != nil {
		telemetry.Warn("interview.archive.skipped", map[string]any{"run_id": run.ID, "error": err})
		return ""
	}
	if _, err := p.archive.SaveWithKey(ctx, key, "text/plain; charset=utf-8", bytes.NewReader([]byte(run.ExtractedText))); err != nil {
		telemetry.Error("interview.archive.failed", map[string]any{"run_id": run.ID, "key": key, "error": err})
		return ""
	}
	return key
}

// ExtractedTextKey is the archive key of a run's extracted text.
func ExtractedTextKey(runID, fileName string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join("runs", runID, name+".extracted.txt"), nil
}

func readErrorMessage(err error) string {
	if errors.Is(err, extract.ErrUnsupportedType) {
		return msgUnsupported
	}
	return strings.TrimPrefix(err.Error(), extract.ErrExtraction.Error()+": ")
}

func apiErrorMessage(err error) string {
	return strings.TrimPrefix(err.Error(), questions.ErrGeneration.Error()+": ")
}
