package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/trade-ledger/internal/common"
	"github.com/joseph-ayodele/trade-ledger/internal/entity"
)

// CreateTransactionRequest wraps parameters for storing one extracted transaction.
type CreateTransactionRequest struct {
	OwnerID         uuid.UUID
	TransactionType string
	TxDate          time.Time
	TotalAmount     float64
	CustomerName    string
	Notes           string
	PaymentStatus   string
	Confidence      string
	NeedsReview     bool
	Strategy        string
	ModelName       string
	Language        string
	RawText         string
	Items           []entity.TransactionLine
}

type TransactionRepository interface {
	Create(ctx context.Context, req CreateTransactionRequest) (*entity.TransactionRecord, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, fromDate, toDate *time.Time) ([]*entity.TransactionRecord, error)
}

type transactionRepository struct {
	db     *DB
	now    func() time.Time
	logger *slog.Logger
}

func NewTransactionRepository(db *DB, logger *slog.Logger) TransactionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &transactionRepository{db: db, now: time.Now, logger: logger}
}

var transactionColumns = []string{
	"id", "owner_id", "transaction_type", "tx_date", "total_amount", "customer_name", "notes",
	"payment_status", "confidence", "needs_review", "strategy", "model_name", "language",
	"raw_text", "items", "created_at",
}

func (r *transactionRepository) Create(ctx context.Context, req CreateTransactionRequest) (*entity.TransactionRecord, error) {
	items := req.Items
	if items == nil {
		items = []entity.TransactionLine{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}

	rec := &entity.TransactionRecord{
		ID:              uuid.New(),
		OwnerID:         req.OwnerID,
		TransactionType: req.TransactionType,
		TxDate:          dateOnly(req.TxDate),
		TotalAmount:     req.TotalAmount,
		CustomerName:    optional(req.CustomerName),
		Notes:           optional(req.Notes),
		PaymentStatus:   req.PaymentStatus,
		Confidence:      req.Confidence,
		NeedsReview:     req.NeedsReview,
		Strategy:        req.Strategy,
		ModelName:       optional(req.ModelName),
		Language:        req.Language,
		RawText:         req.RawText,
		Items:           items,
		CreatedAt:       r.now().UTC(),
	}

	q, args := r.db.builder().
		Insert(tableTransactions).
		Columns(transactionColumns...).
		Values(
			rec.ID.String(), rec.OwnerID.String(), rec.TransactionType, rec.TxDate.Format(time.DateOnly),
			rec.TotalAmount, nullArg(rec.CustomerName), nullArg(rec.Notes), rec.PaymentStatus, rec.Confidence,
			rec.NeedsReview, rec.Strategy, nullArg(rec.ModelName), rec.Language, rec.RawText,
			string(itemsJSON), rec.CreatedAt.Format(timeLayout),
		).
		Query()

	if _, err := r.db.conn(ctx).ExecContext(ctx, q, args...); err != nil {
		r.logger.Error("failed to create transaction", "owner_id", req.OwnerID, "error", err)
		return nil, common.DatabaseError("create transaction", err)
	}
	return rec, nil
}

// ListByOwner returns the owner's transactions ordered by date; nil bounds are open.
func (r *transactionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, fromDate, toDate *time.Time) ([]*entity.TransactionRecord, error) {
	preds := []*entsql.Predicate{entsql.EQ("owner_id", ownerID.String())}
	if fromDate != nil {
		preds = append(preds, entsql.GTE("tx_date", fromDate.Format(time.DateOnly)))
	}
	if toDate != nil {
		preds = append(preds, entsql.LTE("tx_date", toDate.Format(time.DateOnly)))
	}

	q, args := r.db.builder().
		Select(transactionColumns...).
		From(entsql.Table(tableTransactions)).
		Where(entsql.And(preds...)).
		OrderBy("tx_date", "created_at").
		Query()

	rows, err := r.db.conn(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to list transactions", "owner_id", ownerID, "error", err)
		return nil, common.DatabaseError("list transactions", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.TransactionRecord
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, common.DatabaseError("scan transaction", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.DatabaseError("list transactions", err)
	}
	return out, nil
}

func scanTransaction(row rowScanner) (*entity.TransactionRecord, error) {
	var (
		rec                          entity.TransactionRecord
		id, ownerID, txDate, created string
		customer, notes, model       sql.NullString
		items                        string
	)
	err := row.Scan(
		&id, &ownerID, &rec.TransactionType, &txDate, &rec.TotalAmount, &customer, &notes,
		&rec.PaymentStatus, &rec.Confidence, &rec.NeedsReview, &rec.Strategy, &model, &rec.Language,
		&rec.RawText, &items, &created,
	)
	if err != nil {
		return nil, err
	}
	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	if rec.OwnerID, err = uuid.Parse(ownerID); err != nil {
		return nil, fmt.Errorf("parse owner_id: %w", err)
	}
	if rec.TxDate, err = time.Parse(time.DateOnly, txDate); err != nil {
		return nil, fmt.Errorf("parse tx_date: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(timeLayout, created)
	rec.CustomerName = nullable(customer)
	rec.Notes = nullable(notes)
	rec.ModelName = nullable(model)
	if err := json.Unmarshal([]byte(items), &rec.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return &rec, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullArg(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
