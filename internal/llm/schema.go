package llm

import "github.com/joseph-ayodele/trade-ledger/constants"

// BuildTransactionJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It is applied AFTER SanitizeTransactionJSON, so fields are optional and types strict.
func BuildTransactionJSONSchema() map[string]any {
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":       map[string]any{"type": "string"},
			"quantity":   map[string]any{"type": "number", "exclusiveMinimum": 0},
			"unit":       map[string]any{"type": "string"},
			"unitPrice":  moneyProp(),
			"totalPrice": moneyProp(),
		},
	}

	props := map[string]any{
		"transactionType": map[string]any{"type": "string", "enum": constants.TransactionTypes()},
		"items":           map[string]any{"type": "array", "items": item},
		"totalAmount":     moneyProp(),
		"customerName":    map[string]any{"type": "string"},
		"date":            map[string]any{"type": "string"},
		"notes":           map[string]any{"type": "string"},
		"paymentStatus": map[string]any{
			"type": "string",
			"enum": []string{string(constants.PaymentPaid), string(constants.PaymentUnpaid)},
		},
	}

	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

func moneyProp() map[string]any {
	return map[string]any{"type": "number", "minimum": 0}
}
