// Package ledger records trader messages: extraction, inventory matching,
// persistence and the confirmation reply.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/trade-ledger/constants"
	"github.com/joseph-ayodele/trade-ledger/internal/common"
	"github.com/joseph-ayodele/trade-ledger/internal/confirm"
	"github.com/joseph-ayodele/trade-ledger/internal/entity"
	"github.com/joseph-ayodele/trade-ledger/internal/extract"
	"github.com/joseph-ayodele/trade-ledger/internal/language"
	"github.com/joseph-ayodele/trade-ledger/internal/normalize"
	"github.com/joseph-ayodele/trade-ledger/internal/repository"
)

// Extractor is the part of *extract.Extractor the service uses.
type Extractor interface {
	ExtractTransactionData(ctx context.Context, text string, lang constants.Language) extract.Transaction
}

type RecordRequest struct {
	OwnerID  uuid.UUID
	Text     string
	Language string // optional hint; detected when empty or unsupported
}

type RecordResult struct {
	Transaction  extract.Transaction
	Record       *entity.TransactionRecord
	Language     constants.Language
	NeedsReview  bool
	Confirmation string
}

// TxRunner scopes a group of repository calls to one database transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service coordinates extraction, inventory updates and persistence.
type Service struct {
	logger          *slog.Logger
	extractor       Extractor
	normalizer      *normalize.Normalizer
	db              TxRunner
	inventory       repository.InventoryRepository
	transactions    repository.TransactionRepository
	reviewThreshold float32
}

func NewService(
	logger *slog.Logger,
	extractor Extractor,
	normalizer *normalize.Normalizer,
	db TxRunner,
	inventory repository.InventoryRepository,
	transactions repository.TransactionRepository,
	reviewThreshold float32,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if normalizer == nil {
		normalizer = normalize.NewNormalizer(nil, logger)
	}
	if reviewThreshold <= 0 {
		reviewThreshold = constants.DefaultReviewThreshold
	}
	return &Service{
		logger:          logger,
		extractor:       extractor,
		normalizer:      normalizer,
		db:              db,
		inventory:       inventory,
		transactions:    transactions,
		reviewThreshold: reviewThreshold,
	}
}

// Preview extracts and renders without writing anything.
func (s *Service) Preview(ctx context.Context, text, langHint string) (*RecordResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text: %w", common.ErrInvalidInput)
	}
	lang := language.Resolve(text, langHint)
	tx := s.extractor.ExtractTransactionData(ctx, text, lang)
	return s.result(tx, nil, lang), nil
}

// RecordMessage extracts one transaction from the message, links every item to
// the owner's inventory (creating unknown products under their canonical name),
// moves stock for sales and purchases, and stores the record. Inventory changes
// and the record commit together.
func (s *Service) RecordMessage(ctx context.Context, req RecordRequest) (*RecordResult, error) {
	if req.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("owner id: %w", common.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("text: %w", common.ErrInvalidInput)
	}

	start := time.Now()
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
		ctx = common.WithRequestID(ctx, reqID)
	}

	lang := language.Resolve(req.Text, req.Language)
	tx := s.extractor.ExtractTransactionData(ctx, req.Text, lang)

	needsReview := tx.Confidence.NeedsReview(s.reviewThreshold)
	var rec *entity.TransactionRecord
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		lines := make([]entity.TransactionLine, 0, len(tx.Items))
		for _, it := range tx.Items {
			line := entity.TransactionLine{
				Name:       it.Name,
				Quantity:   it.Quantity,
				Unit:       it.Unit,
				UnitPrice:  it.UnitPrice,
				TotalPrice: it.TotalPrice,
			}
			if it.Name != extract.UnspecifiedItem {
				inv, err := s.resolveInventory(ctx, req.OwnerID, tx.Type, it)
				if err != nil {
					s.logger.Error("ledger.record.inventory_failed", "req_id", reqID, "owner_id", req.OwnerID, "item", it.Name, "error", err)
					return err
				}
				line.InventoryItemID = &inv.ID
			}
			lines = append(lines, line)
		}

		var err error
		rec, err = s.transactions.Create(ctx, repository.CreateTransactionRequest{
			OwnerID:         req.OwnerID,
			TransactionType: string(tx.Type),
			TxDate:          tx.Date,
			TotalAmount:     tx.TotalAmount,
			CustomerName:    tx.CustomerName,
			Notes:           tx.Notes,
			PaymentStatus:   string(tx.PaymentStatus),
			Confidence:      string(tx.Confidence),
			NeedsReview:     needsReview,
			Strategy:        string(tx.Strategy),
			ModelName:       tx.Model,
			Language:        string(lang),
			RawText:         req.Text,
			Items:           lines,
		})
		if err != nil {
			s.logger.Error("ledger.record.persist_failed", "req_id", reqID, "owner_id", req.OwnerID, "error", err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ledger.record.ok",
		"req_id", reqID,
		"owner_id", req.OwnerID,
		"transaction_id", rec.ID,
		"type", tx.Type,
		"strategy", tx.Strategy,
		"confidence", tx.Confidence,
		"needs_review", needsReview,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return s.result(tx, rec, lang), nil
}

func (s *Service) resolveInventory(ctx context.Context, ownerID uuid.UUID, txType constants.TransactionType, it extract.Item) (*entity.InventoryItem, error) {
	inv, err := s.normalizer.FindInventoryByNormalizedName(ctx, it.Name, s.inventory, ownerID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		inv, err = s.inventory.FindOrCreate(ctx, repository.CreateInventoryItemRequest{
			OwnerID:   ownerID,
			Name:      s.normalizer.NormalizeItemName(it.Name),
			Unit:      it.Unit,
			UnitPrice: it.UnitPrice,
		})
		if err != nil {
			return nil, err
		}
	}

	var delta float64
	switch txType {
	case constants.TransactionPurchase:
		delta = it.Quantity
	case constants.TransactionSale:
		delta = -it.Quantity
	}
	if delta != 0 {
		price := it.UnitPrice
		if err := s.inventory.AdjustStock(ctx, inv.ID, delta, &price); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

func (s *Service) result(tx extract.Transaction, rec *entity.TransactionRecord, lang constants.Language) *RecordResult {
	needsReview := tx.Confidence.NeedsReview(s.reviewThreshold)
	text := confirm.GenerateConfirmation(tx, lang)
	if needsReview {
		text += "\n" + confirm.ReviewNote(lang)
	}
	return &RecordResult{
		Transaction:  tx,
		Record:       rec,
		Language:     lang,
		NeedsReview:  needsReview,
		Confirmation: text,
	}
}
