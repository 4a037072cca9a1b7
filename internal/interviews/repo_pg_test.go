package interviews

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return &PGRepo{DB: database}, mock
}

func runRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "file_name", "size_bytes", "content_sha256", "stage", "extracted_text",
		"extraction_strategy", "pages", "pages_with_text", "archive_key", "questions", "model", "banners", "created_at", "completed_at",
	})
}

func TestPGRepoSaveUpserts(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := created.Add(2 * time.Second)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO interview_runs")).
		WithArgs(
			"run-1", "resume.pdf", int64(2048), "abc", "completed", "text", "ledongthuc", 3, 2,
			"runs/run-1/resume.pdf.extracted.txt", "1. Question", "openai/gpt-4o",
			sqlmock.AnyArg(), created, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), Run{
		ID:            "run-1",
		FileName:      "resume.pdf",
		SizeBytes:     2048,
		ContentSHA256: "abc",
		Stage:         StageCompleted,
		ExtractedText: "text",
		Strategy:      "ledongthuc",
		Pages:         3,
		PagesWithText: 2,
		ArchiveKey:    "runs/run-1/resume.pdf.extracted.txt",
		Questions:     "1. Question",
		Model:         "openai/gpt-4o",
		Banners:       []Banner{{Level: LevelSuccess, Message: "Text extracted successfully."}},
		CreatedAt:     created,
		CompletedAt:   &completed,
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoGet(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM interview_runs WHERE id = $1")).
		WithArgs("run-1").
		WillReturnRows(runRows().AddRow(
			"run-1", "notes.txt", int64(12), "sha", "content_gate", "", "utf8", 0, 0, "", "", "",
			[]byte(`[{"level":"warning","message":"File content too short or empty."}]`), created, nil,
		))

	run, err := repo.Get(context.Background(), "run-1")

	require.NoError(t, err)
	assert.Equal(t, "notes.txt", run.FileName)
	assert.Equal(t, StageContentGate, run.Stage)
	assert.Equal(t, created, run.CreatedAt)
	assert.Nil(t, run.CompletedAt)
	assert.Equal(t, []Banner{{Level: LevelWarning, Message: "File content too short or empty."}}, run.Banners)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoGetNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM interview_runs WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")

	require.ErrorIs(t, err, ErrNotFound)
}

func TestPGRepoListRecentDefaultsLimit(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := created.Add(time.Second)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $1")).
		WithArgs(20).
		WillReturnRows(runRows().
			AddRow("b", "b.pdf", int64(1), "", "completed", "", "ledongthuc", 4, 3, "", "q", "m", []byte(`[]`), created.Add(time.Minute), completed).
			AddRow("a", "a.txt", int64(1), "", "generation", "", "", 0, 0, "", "", "m", []byte(`[]`), created, nil))

	runs, err := repo.ListRecent(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].ID)
	assert.Equal(t, 4, runs[0].Pages)
	assert.Equal(t, 3, runs[0].PagesWithText)
	require.NotNil(t, runs[0].CompletedAt)
	assert.Equal(t, completed, *runs[0].CompletedAt)
	assert.Equal(t, StageGeneration, runs[1].Stage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoSaveStripsNUL(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO interview_runs")).
		WithArgs(
			"run-2", "nul.txt", int64(9), "", "generation", "before after", "utf8", 0, 0,
			"", "", "", sqlmock.AnyArg(), created, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), Run{
		ID:            "run-2",
		FileName:      "nul.txt",
		SizeBytes:     9,
		Stage:         StageGeneration,
		ExtractedText: "before\x00 after",
		Strategy:      "utf8",
		CreatedAt:     created,
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
