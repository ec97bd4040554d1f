// Package app wires configuration into the shared runtime used by both binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"go.uber.org/zap"

	"travel-planner/api/internal/ai"
	"travel-planner/api/internal/ai/gemini"
	"travel-planner/api/internal/ai/openai"
	"travel-planner/api/internal/config"
	"travel-planner/api/internal/prompt"
	"travel-planner/api/internal/store"
	"travel-planner/api/internal/travel"
)

const purgeEvery = time.Hour

type App struct {
	DB      *sql.DB
	Travel  *travel.Service
	Answers *store.AnswerRepo

	cfg *config.Config
	log *zap.Logger
}

// New connects to Postgres, applies the schema and builds the travel service.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := OpenDB(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	prompts, err := prompt.Load(cfg.PromptDir)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	answers := store.NewAnswerRepo(db)
	var opts []travel.Option
	if cfg.CacheTTL > 0 {
		opts = append(opts, travel.WithCache(answers, cfg.CacheTTL))
	}
	return &App{
		DB:      db,
		Travel:  travel.New(NewEngines(cfg, log), prompts, log, opts...),
		Answers: answers,
		cfg:     cfg,
		log:     log,
	}, nil
}

func OpenDB(ctx context.Context, dsn string, log *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	log.Info("db connected", zap.String("dsn", config.SafeDSNSummary(dsn)))
	return db, nil
}

// NewEngines builds the configured providers. OpenAI is left nil without a key
// so that GetEngine reports it as not configured.
func NewEngines(cfg *config.Config, log *zap.Logger) *ai.Engines {
	engs := &ai.Engines{
		Gemini: gemini.New(gemini.Config{
			APIKey:        cfg.GeminiAPIKey,
			ModelID:       cfg.GeminiModel,
			SearchEnabled: cfg.SearchEnabled,
		}, log),
		Default: cfg.DefaultLLM,
	}
	if cfg.OpenAIAPIKey != "" {
		engs.OpenAI = openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	return engs
}

// PurgeLoop deletes expired cached answers until ctx is done.
func (a *App) PurgeLoop(ctx context.Context) {
	if a.cfg.CacheTTL <= 0 {
		return
	}
	t := time.NewTicker(purgeEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := a.Answers.PurgeOlderThan(ctx, a.cfg.CacheTTL)
			if err != nil {
				a.log.Warn("purge cached answers", zap.Error(err))
				continue
			}
			if n > 0 {
				a.log.Info("purged cached answers", zap.Int64("rows", n))
			}
		}
	}
}

func (a *App) Close() error { return a.DB.Close() }
