package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/extract"
	"interview-backend/internal/interviews"
	"interview-backend/internal/llm"
	"interview-backend/internal/llm/gemini"
	"interview-backend/internal/llm/openai"
	"interview-backend/internal/questions"
	"interview-backend/internal/services/health"
	"interview-backend/internal/shared/config"
	"interview-backend/internal/shared/server"
	"interview-backend/internal/shared/storage/db"
	"interview-backend/internal/shared/storage/object"
	gcsstore "interview-backend/internal/shared/storage/object/gcs"
	localstore "interview-backend/internal/shared/storage/object/local"
	s3store "interview-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config     config.Config
	Router     *gin.Engine
	DB         *sql.DB
	Archive    object.ObjectStore
	Runs       interviews.RunsRepo
	ChatModel  llm.ChatModel
	Extractor  *extract.Extractor
	Questions  *questions.Service
	Pipeline   *interviews.Pipeline
	Interviews *interviews.Handler
	Health     *health.Handler
}

type buildOptions struct {
	chatModel llm.ChatModel
	noRouter  bool
}

// Option customizes Build.
type Option func(*buildOptions)

// WithChatModel replaces the configured provider, skipping the
// credential check.
func WithChatModel(m llm.ChatModel) Option {
	return func(o *buildOptions) { o.chatModel = m }
}

// WithoutRouter skips router construction for non-HTTP entrypoints.
func WithoutRouter() Option {
	return func(o *buildOptions) { o.noRouter = true }
}

// Build validates cfg and wires every dependency once per process.
func Build(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	model := bo.chatModel
	if model == nil {
		if err := cfg.RequireCredential(); err != nil {
			return nil, err
		}
		m, err := buildChatModel(ctx, cfg)
		if err != nil {
			return nil, err
		}
		model = m
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	archive, err := buildArchive(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var runs interviews.RunsRepo
	if sqlDB != nil {
		runs = &interviews.PGRepo{DB: sqlDB}
	} else {
		runs = interviews.NewMemoryRepo(0)
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Archive:   archive,
		Runs:      runs,
		ChatModel: model,
		Extractor: extract.New(),
		Questions: questions.NewService(model),
	}

	pipelineOpts := []interviews.Option{interviews.WithRepo(runs)}
	if archive != nil {
		pipelineOpts = append(pipelineOpts, interviews.WithArchive(archive))
	}
	app.Pipeline = interviews.NewPipeline(app.Extractor, app.Questions, interviews.Gates{
		MaxUploadMB:   cfg.MaxUploadMB,
		MinTextLength: cfg.MinTextLength,
	}, pipelineOpts...)

	provider, modelName := llm.Describe(model)
	app.Interviews = interviews.NewHandler(app.Pipeline, runs, archive)
	app.Health = health.NewHandler(health.NewService(sqlDB, provider, modelName))

	if !bo.noRouter {
		app.Router = server.NewRouter(server.RouterDeps{
			Config:     cfg,
			Interviews: app.Interviews,
			Health:     app.Health,
		})
	}

	log.Printf("bootstrap: provider=%s model=%s archive=%s history=%s", provider, modelName, cfg.ArchiveStore, historyKind(sqlDB))
	return app, nil
}

func buildChatModel(ctx context.Context, cfg config.Config) (llm.ChatModel, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMTimeout)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel, cfg.LLMTimeout)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

// Replaced in tests.
var (
	connectDB = db.Connect
	migrateDB = db.RunMigrations
)

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}

	var (
		sqlDB  *sql.DB
		err    error
		shared = db.IsLambdaRuntime()
	)
	opts := db.OptionsFromEnv(db.DefaultOptions())
	if shared {
		sqlDB, err = db.Shared(ctx, cfg.DatabaseURL, opts)
	} else {
		sqlDB, err = connectDB(ctx, cfg.DatabaseURL, opts)
	}
	if err == nil {
		if err = migrateDB(ctx, sqlDB); err != nil && !shared {
			_ = sqlDB.Close()
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database unavailable; using in-memory run history: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildArchive(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ArchiveStore {
	case "local":
		return localstore.New(cfg.LocalStoreDir), nil
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "gcs":
		return gcsstore.New(ctx, cfg.GCSBucket, cfg.GCSPrefix)
	default:
		return nil, nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func historyKind(sqlDB *sql.DB) string {
	if sqlDB != nil {
		return "postgres"
	}
	return "memory"
}
