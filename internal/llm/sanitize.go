package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/trade-ledger/constants"
)

var (
	reCurrencyTokens = regexp.MustCompile(`(?i)\b(shillings?|bob|kshs?|kes|tshs?|tzs|ushs?|ugx|shs?)|[$/=]`)
	reNumeric        = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// ParseAmount reads a money or quantity string such as "KSh 1,500", "500/=" or
// "2.5". It reports false when nothing numeric remains.
func ParseAmount(s string) (float64, bool) {
	s = reCurrencyTokens.ReplaceAllString(strings.TrimSpace(s), "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSuffix(s, ".")
	if !reNumeric.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

type synonym struct{ from, to string }

// Synonyms are applied in order; when a reply carries several for one key,
// the earliest listed wins.
var topLevelSynonyms = []synonym{
	{"transaction_type", "transactionType"},
	{"type", "transactionType"},
	{"kind", "transactionType"},
	{"customer_name", "customerName"},
	{"customer", "customerName"},
	{"counterparty", "customerName"},
	{"total_amount", "totalAmount"},
	{"total", "totalAmount"},
	{"amount", "totalAmount"},
	{"payment_status", "paymentStatus"},
	{"status", "paymentStatus"},
	{"note", "notes"},
	{"description", "notes"},
	{"products", "items"},
	{"goods", "items"},
	{"item", "items"},
}

var itemSynonyms = []synonym{
	{"product", "name"},
	{"item", "name"},
	{"description", "name"},
	{"qty", "quantity"},
	{"unit_price", "unitPrice"},
	{"price_each", "unitPrice"},
	{"price", "unitPrice"},
	{"total_price", "totalPrice"},
	{"total", "totalPrice"},
	{"amount", "totalPrice"},
}

var (
	allowedTopLevel = map[string]struct{}{
		"transactionType": {}, "items": {}, "totalAmount": {}, "customerName": {},
		"date": {}, "notes": {}, "paymentStatus": {},
	}
	allowedItem = map[string]struct{}{
		"name": {}, "quantity": {}, "unit": {}, "unitPrice": {}, "totalPrice": {},
	}
)

// SanitizeTransactionJSON
// - Renames known synonyms (type -> transactionType, qty -> quantity, ...)
// - Maps transactionType / paymentStatus onto the enums, dropping unknown labels
// - Coerces numeric strings ("KSh 1,500") to numbers, drops null/empty values
// - Removes unknown keys so the strict schema can validate what remains
func SanitizeTransactionJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)
	renameKeys(m, topLevelSynonyms, &dropped, "")

	// 1) enums
	if v, ok := m["transactionType"]; ok {
		s, _ := v.(string)
		if t, ok := constants.ParseTransactionType(s); ok {
			m["transactionType"] = string(t)
		} else {
			delete(m, "transactionType")
			dropped = append(dropped, "transactionType(unknown)")
		}
	}
	if v, ok := m["paymentStatus"]; ok {
		s, _ := v.(string)
		if p, ok := constants.ParsePaymentStatus(s); ok {
			m["paymentStatus"] = string(p)
		} else {
			delete(m, "paymentStatus")
			dropped = append(dropped, "paymentStatus(unknown)")
		}
	}

	// 2) money
	coerceNumber(m, "totalAmount", true, &dropped, "")

	// 3) items: a single object or bare names are accepted
	if v, ok := m["items"]; ok {
		switch t := v.(type) {
		case []any:
			m["items"] = sanitizeItems(t, &dropped)
		case map[string]any:
			m["items"] = sanitizeItems([]any{t}, &dropped)
		case string:
			m["items"] = sanitizeItems([]any{t}, &dropped)
		default:
			delete(m, "items")
			dropped = append(dropped, "items(type)")
		}
	}

	// 4) strings
	for _, k := range []string{"customerName", "date", "notes"} {
		trimString(m, k, &dropped, "")
	}

	// 5) unknown keys
	for k := range maps.Clone(m) {
		if _, ok := allowedTopLevel[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Debug("llm.extract.sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func sanitizeItems(in []any, dropped *[]string) []any {
	out := make([]any, 0, len(in))
	for i, v := range in {
		prefix := fmt.Sprintf("items[%d].", i)
		var item map[string]any
		switch t := v.(type) {
		case map[string]any:
			item = t
		case string:
			item = map[string]any{"name": t}
		default:
			*dropped = append(*dropped, prefix+"(type)")
			continue
		}

		renameKeys(item, itemSynonyms, dropped, prefix)
		trimString(item, "name", dropped, prefix)
		trimString(item, "unit", dropped, prefix)
		coerceNumber(item, "quantity", false, dropped, prefix)
		if q, ok := item["quantity"].(float64); ok && q <= 0 {
			delete(item, "quantity")
			*dropped = append(*dropped, prefix+"quantity(non-positive)")
		}
		coerceNumber(item, "unitPrice", true, dropped, prefix)
		coerceNumber(item, "totalPrice", true, dropped, prefix)
		for k := range maps.Clone(item) {
			if _, ok := allowedItem[k]; !ok {
				delete(item, k)
				*dropped = append(*dropped, prefix+k+"(unknown)")
			}
		}
		if len(item) == 0 {
			continue
		}
		out = append(out, item)
	}
	return out
}

// renameKeys moves synonyms onto canonical keys without overwriting values already present.
func renameKeys(m map[string]any, synonyms []synonym, dropped *[]string, prefix string) {
	for _, syn := range synonyms {
		v, ok := m[syn.from]
		if !ok {
			continue
		}
		if _, exists := m[syn.to]; !exists {
			m[syn.to] = v
		}
		delete(m, syn.from)
		*dropped = append(*dropped, prefix+syn.from+"->"+syn.to)
	}
}

// coerceNumber leaves float64 values, parses strings and drops anything else.
// Money fields are made non-negative: models sometimes sign money going out.
func coerceNumber(m map[string]any, k string, money bool, dropped *[]string, prefix string) {
	v, ok := m[k]
	if !ok {
		return
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, ok := ParseAmount(t)
		if !ok {
			delete(m, k)
			*dropped = append(*dropped, prefix+k+"(unparseable)")
			return
		}
		f = parsed
	default:
		delete(m, k)
		*dropped = append(*dropped, prefix+k+"(type)")
		return
	}
	if money && f < 0 {
		f = -f
	}
	m[k] = f
}

func trimString(m map[string]any, k string, dropped *[]string, prefix string) {
	v, ok := m[k]
	if !ok {
		return
	}
	s, isString := v.(string)
	s = strings.TrimSpace(s)
	if !isString || s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
		delete(m, k)
		*dropped = append(*dropped, prefix+k+"(empty)")
		return
	}
	m[k] = s
}
