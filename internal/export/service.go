package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/trade-ledger/internal/entity"
	"github.com/joseph-ayodele/trade-ledger/internal/repository"
)

const (
	sheetTransactions = "Transactions"
	sheetItems        = "Items"
)

// Service produces XLSX workbooks of an owner's ledger.
type Service struct {
	transactions repository.TransactionRepository
	now          func() time.Time
	logger       *slog.Logger
}

func NewService(transactions repository.TransactionRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{transactions: transactions, now: time.Now, logger: logger}
}

// ExportTransactionsXLSX returns a workbook (as bytes) for ownerID and the date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> every transaction of the owner.
func (s *Service) ExportTransactionsXLSX(ctx context.Context, ownerID uuid.UUID, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	var fromDate, toDate *time.Time
	if from != nil {
		f := dateOnly(*from)
		fromDate = &f
	}
	if to != nil {
		t := dateOnly(*to)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		t := dateOnly(s.now().UTC())
		toDate = &t
	}

	recs, err := s.transactions.ListByOwner(ctx, ownerID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetTransactions); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetItems); err != nil {
		return nil, err
	}

	writeRow(f, sheetTransactions, 1, []any{
		"Date", "Type", "Items", "Total", "Counterparty", "Payment", "Confidence", "Needs Review", "Source", "Message",
	})
	writeRow(f, sheetItems, 1, []any{"Date", "Type", "Item", "Quantity", "Unit", "Unit Price", "Line Total"})

	itemRow := 2
	for i, r := range recs {
		writeRow(f, sheetTransactions, i+2, []any{
			r.TxDate.Format(time.DateOnly),
			r.TransactionType,
			itemSummary(r.Items),
			r.TotalAmount,
			deref(r.CustomerName),
			r.PaymentStatus,
			r.Confidence,
			yesNo(r.NeedsReview),
			r.Strategy,
			truncate(r.RawText, 140),
		})
		for _, it := range r.Items {
			writeRow(f, sheetItems, itemRow, []any{
				r.TxDate.Format(time.DateOnly), r.TransactionType, it.Name, it.Quantity, it.Unit, it.UnitPrice, it.TotalPrice,
			})
			itemRow++
		}
	}

	_ = f.SetColWidth(sheetTransactions, "A", "B", 12) // date, type
	_ = f.SetColWidth(sheetTransactions, "C", "C", 40) // items
	_ = f.SetColWidth(sheetTransactions, "D", "D", 14) // total
	_ = f.SetColWidth(sheetTransactions, "E", "I", 14)
	_ = f.SetColWidth(sheetTransactions, "J", "J", 60) // message
	_ = f.SetColWidth(sheetItems, "C", "C", 24)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"owner_id", ownerID.String(),
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetSheetRow(sheet, cell, &values)
}

func itemSummary(items []entity.TransactionLine) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s x%v %s", it.Name, it.Quantity, it.Unit))
	}
	return strings.Join(parts, "; ")
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
