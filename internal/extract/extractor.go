// Package extract turns free-form trader messages into typed transactions,
// trying a language model first and a deterministic parser after it.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/trade-ledger/constants"
	"github.com/joseph-ayodele/trade-ledger/internal/common"
	"github.com/joseph-ayodele/trade-ledger/internal/language"
)

// Extractor runs a chain of strategies and always returns a Transaction.
type Extractor struct {
	strategies []Strategy
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Extractor)

// WithClock overrides time.Now for the default result.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

func NewExtractor(logger *slog.Logger, strategies []Strategy, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		strategies: strategies,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractTransactionData never fails: strategy errors are logged and the next
// strategy runs. When none succeeds the result is a low-confidence default.
// An empty lang is detected from text.
func (e *Extractor) ExtractTransactionData(ctx context.Context, text string, lang constants.Language) Transaction {
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	if lang == "" {
		lang = language.Detect(text)
	}
	start := time.Now()

	for _, s := range e.strategies {
		tx, err := e.attempt(ctx, s, text, lang)
		if err != nil {
			e.logger.Warn("extract.strategy.failed",
				"req_id", reqID,
				"strategy", s.Name(),
				"language", lang,
				"error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			continue
		}
		e.logger.Info("extract.ok",
			"req_id", reqID,
			"strategy", tx.Strategy,
			"type", tx.Type,
			"items", len(tx.Items),
			"total", tx.TotalAmount,
			"confidence", tx.Confidence,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return tx
	}

	e.logger.Warn("extract.default", "req_id", reqID, "strategies", len(e.strategies))
	return NewTransaction(Draft{
		Confidence: constants.ConfidenceLow,
		Strategy:   constants.StrategyDefault,
	}, e.now())
}

// attempt converts a panicking strategy into an ordinary failure.
func (e *Extractor) attempt(ctx context.Context, s Strategy, text string, lang constants.Language) (tx Transaction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Attempt(ctx, text, lang)
}
