// Package app assembles the ledger from configuration for the binaries.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joseph-ayodele/trade-ledger/internal/common"
	"github.com/joseph-ayodele/trade-ledger/internal/export"
	"github.com/joseph-ayodele/trade-ledger/internal/extract"
	"github.com/joseph-ayodele/trade-ledger/internal/ledger"
	"github.com/joseph-ayodele/trade-ledger/internal/llm"
	"github.com/joseph-ayodele/trade-ledger/internal/llm/gemini"
	"github.com/joseph-ayodele/trade-ledger/internal/llm/openai"
	"github.com/joseph-ayodele/trade-ledger/internal/normalize"
	"github.com/joseph-ayodele/trade-ledger/internal/repository"
)

// NewLogger returns a JSON logger writing to w at the named level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// NewGenerator builds the configured provider client. Provider "none" yields a
// nil Generator and the fallback parser alone.
func NewGenerator(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Generator, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case "gemini":
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "none", "":
		return nil, nil
	}
	return nil, fmt.Errorf("llm provider %q: %w", cfg.Provider, common.ErrInvalidInput)
}

// NewNormalizer starts from the built-in vocabulary and adds the mappings of
// the optional dictionary file.
func NewNormalizer(cfg common.ExtractionConfig, logger *slog.Logger) (*normalize.Normalizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	n := normalize.NewNormalizer(nil, logger)
	if cfg.DictionaryFile == "" {
		return n, nil
	}
	raw, err := os.ReadFile(cfg.DictionaryFile)
	if err != nil {
		return nil, common.WrapError(err, "read dictionary")
	}
	var terms map[string]string
	if err := json.Unmarshal(raw, &terms); err != nil {
		return nil, fmt.Errorf("parse dictionary %s: %w", cfg.DictionaryFile, err)
	}
	if err := n.AddMultilingualMappings(terms); err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", cfg.DictionaryFile, err)
	}
	logger.Info("normalize.dictionary.loaded", "path", cfg.DictionaryFile, "entries", len(terms), "version", n.Dictionary().Version())
	return n, nil
}

// NewExtractor chains the model strategy (when gen is set) ahead of the fallback parser.
func NewExtractor(gen llm.Generator, n *normalize.Normalizer, cfg common.ExtractionConfig, logger *slog.Logger) (*extract.Extractor, error) {
	var strategies []extract.Strategy
	if gen != nil {
		ms, err := extract.NewModelStrategy(gen, n, extract.ModelConfig{Timeout: cfg.ModelTimeout}, logger)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, ms)
	}
	strategies = append(strategies, extract.NewFallbackStrategy(n, nil))
	return extract.NewExtractor(logger, strategies), nil
}

// App holds the long-lived pieces shared by the daemon and the CLI.
type App struct {
	DB        *repository.DB
	Extractor *extract.Extractor
	Ledger    *ledger.Service
	Export    *export.Service
}

// Open connects and migrates the store, then wires extraction and the ledger.
func Open(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	gen, err := NewGenerator(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, err
	}
	n, err := NewNormalizer(cfg.Extraction, logger)
	if err != nil {
		return nil, err
	}
	ex, err := NewExtractor(gen, n, cfg.Extraction, logger)
	if err != nil {
		return nil, err
	}

	db, err := repository.Open(ctx, repository.Config{
		Driver:           cfg.Database.Driver,
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	txs := repository.NewTransactionRepository(db, logger)
	return &App{
		DB:        db,
		Extractor: ex,
		Ledger: ledger.NewService(logger, ex, n, db,
			repository.NewInventoryRepository(db, logger), txs, cfg.Extraction.ReviewThreshold),
		Export: export.NewService(txs, logger),
	}, nil
}

func (a *App) Close() {
	a.DB.Close()
}
