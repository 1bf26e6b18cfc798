package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/trade-ledger/constants"
	"github.com/joseph-ayodele/trade-ledger/internal/common"
	"github.com/joseph-ayodele/trade-ledger/internal/llm"
	"github.com/joseph-ayodele/trade-ledger/internal/normalize"
)

// DefaultModelTimeout bounds a single generator call.
const DefaultModelTimeout = 20 * time.Second

type ModelConfig struct {
	Timeout time.Duration    // default DefaultModelTimeout
	Now     func() time.Time // default time.Now
}

// ModelStrategy asks a generator for a JSON transaction, then sanitizes and
// validates the reply against the transaction schema.
type ModelStrategy struct {
	gen        llm.Generator
	normalizer *normalize.Normalizer
	schema     *jsonschema.Schema
	cfg        ModelConfig
	logger     *slog.Logger
}

func NewModelStrategy(gen llm.Generator, normalizer *normalize.Normalizer, cfg ModelConfig, logger *slog.Logger) (*ModelStrategy, error) {
	if gen == nil {
		return nil, fmt.Errorf("model strategy: generator is required")
	}
	schema, err := llm.CompileSchema(llm.BuildTransactionJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("model strategy: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultModelTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if normalizer == nil {
		normalizer = normalize.NewNormalizer(nil, logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelStrategy{gen: gen, normalizer: normalizer, schema: schema, cfg: cfg, logger: logger}, nil
}

func (s *ModelStrategy) Name() constants.Strategy { return constants.StrategyModel }

func (s *ModelStrategy) Attempt(ctx context.Context, text string, lang constants.Language) (Transaction, error) {
	start := time.Now()
	callCtx, cancel := common.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.gen.Generate(callCtx, llm.GenerateRequest{
		UserText:          text,
		SystemInstruction: llm.BuildSystemPrompt(lang),
	})
	if err != nil {
		if ctxErr := callCtx.Err(); ctxErr != nil {
			return Transaction{}, fmt.Errorf("%w: %w", ErrModelUnavailable, ctxErr)
		}
		return Transaction{}, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	s.logger.Debug("extract.model.reply",
		"model", resp.Model,
		"tokens", resp.TokenCount,
		"reply_len", len(resp.ReplyText),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	payload, err := s.parse(resp.ReplyText)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}

	d := Draft{
		Type:          payload.TransactionType,
		TotalAmount:   payload.TotalAmount,
		CustomerName:  payload.CustomerName,
		Date:          payload.Date,
		Notes:         payload.Notes,
		PaymentStatus: payload.PaymentStatus,
		Confidence:    constants.ConfidenceHigh,
		Strategy:      constants.StrategyModel,
		Model:         resp.Model,
	}
	for _, it := range payload.Items {
		di := DraftItem{
			Name:       s.normalizer.NormalizeItemName(it.Name),
			Unit:       it.Unit,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		}
		if it.Quantity != nil {
			di.Quantity = *it.Quantity
		}
		d.Items = append(d.Items, di)
	}
	return NewTransaction(d, s.cfg.Now()), nil
}

func (s *ModelStrategy) parse(reply string) (llm.TransactionPayload, error) {
	obj, err := llm.ExtractJSONObject(reply)
	if err != nil {
		return llm.TransactionPayload{}, err
	}
	cleaned, _, err := llm.SanitizeTransactionJSON([]byte(obj), s.logger)
	if err != nil {
		return llm.TransactionPayload{}, err
	}
	if err := llm.ValidateJSON(s.schema, cleaned); err != nil {
		return llm.TransactionPayload{}, err
	}
	var p llm.TransactionPayload
	if err := json.Unmarshal(cleaned, &p); err != nil {
		return llm.TransactionPayload{}, fmt.Errorf("decode payload: %w", err)
	}
	return p, nil
}
