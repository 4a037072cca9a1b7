package bootstrap

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-backend/internal/llm"
	"interview-backend/internal/shared/config"
	"interview-backend/internal/shared/storage/db"
)

type echoModel struct {
	messages []llm.Message
}

func (m *echoModel) Chat(_ context.Context, messages []llm.Message) (string, error) {
	m.messages = messages
	return "1. What trade-offs did you make?", nil
}

func (m *echoModel) Provider() string { return "echo" }
func (m *echoModel) Model() string    { return "echo-1" }

func testConfig() config.Config {
	return config.Config{
		Port:           "8080",
		Env:            "dev",
		LLMProvider:    config.ProviderOpenAI,
		LLMModel:       "gpt-4o-mini",
		LLMTimeout:     30 * time.Second,
		MaxUploadMB:    5,
		MinTextLength:  100,
		RateLimitRPS:   10,
		RateLimitBurst: 10,
		ArchiveStore:   "none",
		LogFormat:      "json",
		LogLevel:       "info",
	}
}

func TestBuildRequiresCredential(t *testing.T) {
	_, err := Build(context.Background(), testConfig())
	require.ErrorIs(t, err, config.ErrMissingCredential)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.LLMProvider = "anthropic"
	cfg.OpenAIAPIKey = "sk-test"

	_, err := Build(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestBuildWithOpenAIKey(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIAPIKey = "sk-test"

	app, err := Build(context.Background(), cfg, WithoutRouter())
	require.NoError(t, err)
	assert.Nil(t, app.Router)
	assert.Nil(t, app.DB)
	assert.Nil(t, app.Archive)
	provider, model := llm.Describe(app.ChatModel)
	assert.Equal(t, "openai", provider)
	assert.Equal(t, "gpt-4o-mini", model)
}

func TestBuildServesUploadEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	model := &echoModel{}
	cfg := testConfig()
	cfg.ArchiveStore = "local"
	cfg.LocalStoreDir = t.TempDir()

	app, err := Build(context.Background(), cfg, WithChatModel(model))
	require.NoError(t, err)
	require.NotNil(t, app.Router)

	text := strings.Repeat("Platform engineer running Kubernetes and Postgres in production. ", 4)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "jd.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte(text))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/interviews", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		RunID     string `json:"runId"`
		Questions string `json:"questions"`
		Model     string `json:"model"`
		Archived  bool   `json:"archived"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1. What trade-offs did you make?", resp.Questions)
	assert.Equal(t, "echo/echo-1", resp.Model)
	assert.True(t, resp.Archived)

	require.Len(t, model.messages, 2)
	assert.Equal(t, llm.Message{Role: llm.RoleSystem, Content: text}, model.messages[0])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "Generate customized interview questions."}, model.messages[1])

	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/interviews/"+resp.RunID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBuildChatModelUnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.LLMProvider = "mistral"

	_, err := buildChatModel(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown LLM_PROVIDER "mistral"`)
}

func stubDB(t *testing.T, migrateErr error) sqlmock.Sqlmock {
	t.Helper()
	database, mock, err := sqlmock.New()
	require.NoError(t, err)

	prevConnect, prevMigrate := connectDB, migrateDB
	connectDB = func(context.Context, string, db.Options) (*sql.DB, error) { return database, nil }
	migrateDB = func(context.Context, *sql.DB) error { return migrateErr }
	t.Cleanup(func() { connectDB, migrateDB = prevConnect, prevMigrate })
	return mock
}

func TestBuildDBClosesPoolWhenMigrationsFailInDev(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	mock := stubDB(t, errors.New("permission denied for schema public"))
	mock.ExpectClose()
	cfg := testConfig()
	cfg.DatabaseURL = "postgres://localhost/interviews"

	sqlDB, err := buildDB(context.Background(), cfg)

	require.NoError(t, err)
	assert.Nil(t, sqlDB)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildDBClosesPoolAndFailsInProduction(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	mock := stubDB(t, errors.New("migration 00002 failed"))
	mock.ExpectClose()
	cfg := testConfig()
	cfg.Env = "production"
	cfg.DatabaseURL = "postgres://db/interviews"

	_, err := buildDB(context.Background(), cfg)

	require.EqualError(t, err, "migration 00002 failed")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildDBKeepsMigratedPool(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	stubDB(t, nil)
	cfg := testConfig()
	cfg.DatabaseURL = "postgres://localhost/interviews"

	sqlDB, err := buildDB(context.Background(), cfg)

	require.NoError(t, err)
	require.NotNil(t, sqlDB)
	_ = sqlDB.Close()
}
