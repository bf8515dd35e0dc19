package main

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/sells-group/syllabus-cli/internal/commit"
	"github.com/sells-group/syllabus-cli/internal/extract"
	"github.com/sells-group/syllabus-cli/internal/resilience"
	"github.com/sells-group/syllabus-cli/internal/staging"
	"github.com/sells-group/syllabus-cli/internal/store"
	"github.com/sells-group/syllabus-cli/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "syllabus.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore opens the configured store and brings its schema up to date.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// initExtractor returns a file-backed extractor when itemsPath is set and the
// Anthropic extractor otherwise.
func initExtractor(itemsPath string) (extract.Extractor, error) {
	if itemsPath != "" {
		return extract.NewStaticExtractor(itemsPath), nil
	}
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic key is required (SYLLABUS_ANTHROPIC_KEY) unless --items is given")
	}

	var opts []option.RequestOption
	if cfg.Anthropic.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.Anthropic.BaseURL))
	}
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Extract.MaxAttempts

	return extract.NewAnthropicExtractor(anthropic.NewClient(cfg.Anthropic.Key, opts...), extract.AnthropicConfig{
		Model:             cfg.Anthropic.Model,
		MaxTokens:         cfg.Anthropic.MaxTokens,
		RequestsPerMinute: cfg.Extract.RequestsPerMinute,
		Retry:             retry,
	}), nil
}

func newStagingService(st store.Store, ex extract.Extractor) *staging.Service {
	return staging.NewService(st, ex, cfg.Extract.Timeout())
}

func newEngine(st store.Store, tz string) *commit.Engine {
	if tz == "" {
		tz = cfg.Commit.DefaultTimezone
	}
	return commit.NewEngine(st, commit.WithDefaultTimezone(tz), commit.WithClock(time.Now))
}
