package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cybersaathi/cybersaathi/internal/audit"
	"github.com/cybersaathi/cybersaathi/internal/pipeline"
	"github.com/cybersaathi/cybersaathi/internal/privacy"
	"github.com/cybersaathi/cybersaathi/internal/store"
	anthropicpkg "github.com/cybersaathi/cybersaathi/pkg/anthropic"
	"github.com/cybersaathi/cybersaathi/pkg/chroma"
	"github.com/cybersaathi/cybersaathi/pkg/ollama"
	"github.com/cybersaathi/cybersaathi/pkg/tavily"
)

// appEnv holds the initialized store and pipeline shared by the ask, batch
// and serve commands.
type appEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Redactor *privacy.Redactor
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initApp sets up the store, the external clients, and the query pipeline.
// Callers should defer env.Close().
func initApp(ctx context.Context) (*appEnv, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("CYBERSAATHI_ANTHROPIC_KEY is required")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	lexicon, err := privacy.LoadLexicon(cfg.Privacy.LexiconPath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	redactor := privacy.NewRedactor(privacy.NewDetector(lexicon))

	var auditor audit.Recorder = audit.NopRecorder{}
	if cfg.Audit.Path != "" {
		rec, err := audit.NewFileRecorder(cfg.Audit.Path)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		auditor = rec
	}

	aiClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	embedClient := ollama.NewClient(
		ollama.WithBaseURL(cfg.Ollama.BaseURL),
		ollama.WithModel(cfg.Ollama.EmbedModel),
	)
	indexClient := chroma.NewClient(cfg.Chroma.Collection, chroma.WithBaseURL(cfg.Chroma.BaseURL))

	var searchClient tavily.Client
	if cfg.Tavily.Key != "" {
		searchClient = tavily.NewClient(cfg.Tavily.Key,
			tavily.WithBaseURL(cfg.Tavily.BaseURL),
			tavily.WithRateLimit(cfg.Tavily.RateLimit),
		)
	} else {
		zap.L().Warn("CYBERSAATHI_TAVILY_KEY not set, web evidence retrieval will fail loudly")
		searchClient = tavily.NewClient("")
	}

	p := pipeline.New(
		pipeline.NewSanitizer(redactor, auditor),
		pipeline.NewRouter(aiClient, cfg.Anthropic.RouterModel),
		pipeline.NewLawProvider(embedClient, indexClient, cfg.Pipeline.TopK),
		pipeline.NewWebProvider(searchClient, cfg.Tavily.MaxResults, cfg.Tavily.SearchDepth),
		pipeline.NewComposer(aiClient, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens),
		time.Duration(cfg.Pipeline.ExternalTimeoutSecs)*time.Second,
	)

	return &appEnv{Store: st, Pipeline: p, Redactor: redactor}, nil
}

// initStore opens the configured conversation store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store.database_url is required for the postgres driver")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.SQLitePath)
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}
