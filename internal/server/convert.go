package server

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/trade-ledger/internal/extract"
	"github.com/joseph-ayodele/trade-ledger/internal/ledger"
)

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

func transactionFields(tx extract.Transaction) map[string]any {
	items := make([]any, 0, len(tx.Items))
	for _, it := range tx.Items {
		items = append(items, map[string]any{
			"name":        it.Name,
			"quantity":    it.Quantity,
			"unit":        it.Unit,
			"unit_price":  it.UnitPrice,
			"total_price": it.TotalPrice,
		})
	}
	out := map[string]any{
		"transaction_type": string(tx.Type),
		"items":            items,
		"total_amount":     tx.TotalAmount,
		"date":             tx.Date.Format(time.DateOnly),
		"payment_status":   string(tx.PaymentStatus),
		"confidence":       string(tx.Confidence),
		"strategy":         string(tx.Strategy),
	}
	if tx.CustomerName != "" {
		out["customer_name"] = tx.CustomerName
	}
	if tx.Notes != "" {
		out["notes"] = tx.Notes
	}
	if tx.Model != "" {
		out["model"] = tx.Model
	}
	return out
}

func resultStruct(res *ledger.RecordResult) (*structpb.Struct, error) {
	fields := map[string]any{
		"transaction":  transactionFields(res.Transaction),
		"language":     string(res.Language),
		"needs_review": res.NeedsReview,
		"confirmation": res.Confirmation,
	}
	if res.Record != nil {
		fields["transaction_id"] = res.Record.ID.String()
		fields["created_at"] = res.Record.CreatedAt.UTC().Format(time.RFC3339)
	}
	return structpb.NewStruct(fields)
}
