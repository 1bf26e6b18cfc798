// Package confirm renders the message sent back to a trader after a record is extracted.
package confirm

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/joseph-ayodele/trade-ledger/constants"
	"github.com/joseph-ayodele/trade-ledger/internal/extract"
)

type labels struct {
	recorded     string
	total        string
	types        map[constants.TransactionType]string
	counterparty map[constants.TransactionType]string
	tag          language.Tag
}

var english = labels{
	recorded: "recorded",
	total:    "Total",
	types: map[constants.TransactionType]string{
		constants.TransactionSale:     "Sale",
		constants.TransactionPurchase: "Purchase",
		constants.TransactionExpense:  "Expense",
		constants.TransactionDebt:     "Debt",
		constants.TransactionLoan:     "Loan",
	},
	counterparty: map[constants.TransactionType]string{
		constants.TransactionSale:     "Customer",
		constants.TransactionPurchase: "Supplier",
		constants.TransactionExpense:  "Paid to",
		constants.TransactionDebt:     "Debtor",
		constants.TransactionLoan:     "Borrower",
	},
	tag: language.English,
}

var swahili = labels{
	recorded: "imerekodiwa",
	total:    "Jumla",
	types: map[constants.TransactionType]string{
		constants.TransactionSale:     "Mauzo",
		constants.TransactionPurchase: "Ununuzi",
		constants.TransactionExpense:  "Matumizi",
		constants.TransactionDebt:     "Deni",
		constants.TransactionLoan:     "Mkopo",
	},
	counterparty: map[constants.TransactionType]string{
		constants.TransactionSale:     "Mteja",
		constants.TransactionPurchase: "Msambazaji",
		constants.TransactionExpense:  "Imelipwa kwa",
		constants.TransactionDebt:     "Mdaiwa",
		constants.TransactionLoan:     "Mkopaji",
	},
	tag: language.Swahili,
}

// GenerateConfirmation renders tx in lang, one line per item:
//
//	✅ Sale recorded:
//	- tomatoes: 5 kg @ 100
//	Total: 500
//	Customer: John
func GenerateConfirmation(tx extract.Transaction, lang constants.Language) string {
	l := english
	if lang == constants.Swahili {
		l = swahili
	}
	p := message.NewPrinter(l.tag)

	typeLabel, ok := l.types[tx.Type]
	if !ok {
		typeLabel = string(tx.Type)
	}

	lines := []string{p.Sprintf("✅ %s %s:", typeLabel, l.recorded)}
	for _, it := range tx.Items {
		lines = append(lines, p.Sprintf("- %s: %v %s @ %v",
			it.Name, number.Decimal(it.Quantity), it.Unit, money(it.UnitPrice)))
	}
	lines = append(lines, p.Sprintf("%s: %v", l.total, money(tx.TotalAmount)))

	if name := strings.TrimSpace(tx.CustomerName); name != "" {
		label, ok := l.counterparty[tx.Type]
		if !ok {
			label = l.counterparty[constants.TransactionSale]
		}
		lines = append(lines, label+": "+name)
	}
	return strings.Join(lines, "\n")
}

func money(v float64) number.Formatter {
	return number.Decimal(v, number.MaxFractionDigits(2))
}

// ReviewNote asks the trader to check a low-confidence record.
func ReviewNote(lang constants.Language) string {
	if lang == constants.Swahili {
		return "⚠️ Tafadhali thibitisha maelezo haya."
	}
	return "⚠️ Please confirm these details."
}
