package constants

import "strings"

// TransactionType classifies which way money moved.
type TransactionType string

const (
	TransactionSale     TransactionType = "sale"     // money in
	TransactionPurchase TransactionType = "purchase" // money out, stock in
	TransactionExpense  TransactionType = "expense"  // money out
	TransactionDebt     TransactionType = "debt"     // goods or money owed to the trader
	TransactionLoan     TransactionType = "loan"     // money lent out
)

var allTransactionTypes = []TransactionType{
	TransactionSale,
	TransactionPurchase,
	TransactionExpense,
	TransactionDebt,
	TransactionLoan,
}

// TransactionTypes returns the enum as strings, in a stable order (used by the JSON schema).
func TransactionTypes() []string {
	out := make([]string, len(allTransactionTypes))
	for i, t := range allTransactionTypes {
		out[i] = string(t)
	}
	return out
}

// ParseTransactionType maps a model- or user-supplied label onto the enum.
func ParseTransactionType(input string) (TransactionType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return TransactionSale, false
	}

	synonyms := map[string]TransactionType{
		"sell":        TransactionSale,
		"sold":        TransactionSale,
		"income":      TransactionSale,
		"mauzo":       TransactionSale,
		"buy":         TransactionPurchase,
		"bought":      TransactionPurchase,
		"restock":     TransactionPurchase,
		"ununuzi":     TransactionPurchase,
		"expenditure": TransactionExpense,
		"spend":       TransactionExpense,
		"matumizi":    TransactionExpense,
		"credit":      TransactionDebt,
		"deni":        TransactionDebt,
		"lend":        TransactionLoan,
		"lent":        TransactionLoan,
		"mkopo":       TransactionLoan,
	}
	if t, ok := synonyms[normalized]; ok {
		return t, true
	}
	for _, t := range allTransactionTypes {
		if normalized == string(t) {
			return t, true
		}
	}
	return TransactionSale, false
}

// PaymentStatus records whether the counterparty has settled.
type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "paid"
	PaymentUnpaid PaymentStatus = "unpaid"
)

// DefaultPaymentStatus is unpaid for money lent out, paid otherwise.
func DefaultPaymentStatus(t TransactionType) PaymentStatus {
	switch t {
	case TransactionDebt, TransactionLoan:
		return PaymentUnpaid
	default:
		return PaymentPaid
	}
}

// ParsePaymentStatus accepts "paid"/"unpaid" in either supported language.
func ParsePaymentStatus(input string) (PaymentStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "paid", "imelipwa", "settled":
		return PaymentPaid, true
	case "unpaid", "haijalipwa", "hajalipa", "pending", "credit", "on credit", "not paid":
		return PaymentUnpaid, true
	}
	return "", false
}
