package interviews

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PGRepo implements RunsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const runColumns = `id, file_name, size_bytes, content_sha256, stage, extracted_text, extraction_strategy, pages, pages_with_text, archive_key, questions, model, banners, created_at, completed_at`

// Save upserts a run.
func (r *PGRepo) Save(ctx context.Context, run Run) error {
	const query = `
INSERT INTO interview_runs (` + runColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (id) DO UPDATE SET
    stage = EXCLUDED.stage,
    extracted_text = EXCLUDED.extracted_text,
    extraction_strategy = EXCLUDED.extraction_strategy,
    pages = EXCLUDED.pages,
    pages_with_text = EXCLUDED.pages_with_text,
    archive_key = EXCLUDED.archive_key,
    questions = EXCLUDED.questions,
    model = EXCLUDED.model,
    banners = EXCLUDED.banners,
    completed_at = EXCLUDED.completed_at`

	banners := run.Banners
	if banners == nil {
		banners = []Banner{}
	}
	rawBanners, err := json.Marshal(banners)
	if err != nil {
		return fmt.Errorf("marshal banners: %w", err)
	}

	var completedAt sql.NullTime
	if run.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *run.CompletedAt, Valid: true}
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		run.ID,
		run.FileName,
		run.SizeBytes,
		run.ContentSHA256,
		string(run.Stage),
		stripNUL(run.ExtractedText),
		run.Strategy,
		run.Pages,
		run.PagesWithText,
		run.ArchiveKey,
		stripNUL(run.Questions),
		run.Model,
		rawBanners,
		run.CreatedAt,
		completedAt,
	)
	return err
}

// Get returns a run by ID.
func (r *PGRepo) Get(ctx context.Context, id string) (Run, error) {
	const query = `SELECT ` + runColumns + ` FROM interview_runs WHERE id = $1`
	run, err := scanRun(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, err
	}
	return run, nil
}

// ListRecent returns up to limit runs, newest first.
func (r *PGRepo) ListRecent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT ` + runColumns + ` FROM interview_runs ORDER BY created_at DESC LIMIT $1`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// stripNUL drops NUL characters, which Postgres text columns reject.
func stripNUL(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run         Run
		stage       string
		rawBanners  []byte
		completedAt sql.NullTime
		createdAt   time.Time
	)
	if err := row.Scan(
		&run.ID,
		&run.FileName,
		&run.SizeBytes,
		&run.ContentSHA256,
		&stage,
		&run.ExtractedText,
		&run.Strategy,
		&run.Pages,
		&run.PagesWithText,
		&run.ArchiveKey,
		&run.Questions,
		&run.Model,
		&rawBanners,
		&createdAt,
		&completedAt,
	); err != nil {
		return Run{}, err
	}
	run.Stage = Stage(stage)
	run.CreatedAt = createdAt.UTC()
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		run.CompletedAt = &t
	}
	if len(rawBanners) > 0 {
		if err := json.Unmarshal(rawBanners, &run.Banners); err != nil {
			return Run{}, fmt.Errorf("decode banners: %w", err)
		}
	}
	return run, nil
}

var _ RunsRepo = (*PGRepo)(nil)
