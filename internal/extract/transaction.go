package extract

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/trade-ledger/constants"
)

// centTolerance is how far priced lines may drift from a stated total before
// the result is trusted less.
var centTolerance = decimal.New(1, -2)

// UnspecifiedItem names the synthetic line produced when no items could be determined.
const UnspecifiedItem = "unspecified"

// Item is one line of a Transaction.
type Item struct {
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
}

// Transaction is the structured result of one trader message. Build it with
// NewTransaction; a Transaction is never modified after construction.
type Transaction struct {
	Type          constants.TransactionType `json:"transactionType"`
	Items         []Item                    `json:"items"`
	TotalAmount   float64                   `json:"totalAmount"`
	CustomerName  string                    `json:"customerName,omitempty"`
	Date          time.Time                 `json:"date"`
	Notes         string                    `json:"notes,omitempty"`
	PaymentStatus constants.PaymentStatus   `json:"paymentStatus"`
	Confidence    constants.Confidence      `json:"confidence"`
	Strategy      constants.Strategy        `json:"strategy"`
	Model         string                    `json:"model,omitempty"`
}

// DraftItem is an item as a strategy found it; nil prices are unknown.
type DraftItem struct {
	Name       string
	Quantity   float64
	Unit       string
	UnitPrice  *float64
	TotalPrice *float64
}

// Draft collects whatever a strategy could read from the text. Strings are raw
// labels ("Sold", "jana", "on credit"); NewTransaction resolves them.
type Draft struct {
	Type          string
	Items         []DraftItem
	TotalAmount   *float64
	CustomerName  string
	Date          string
	Notes         string
	PaymentStatus string
	Confidence    constants.Confidence
	Strategy      constants.Strategy
	Model         string
}

// NewTransaction validates and completes a Draft:
//   - unknown type -> sale; unknown payment status -> default for the type
//   - quantity <= 0 -> 1; unit canonicalized, default "unit"
//   - unpriced items share what is left of the stated total, per unit of quantity;
//     the last of them absorbs the rounding remainder
//   - TotalPrice = UnitPrice x Quantity (2dp), or the line total as given
//   - TotalAmount is the stated total when there is one, else the sum of TotalPrice;
//     priced lines that disagree with a stated total lower the confidence
//   - no items -> one "unspecified" item carrying the total, confidence low
func NewTransaction(d Draft, now time.Time) Transaction {
	txType, _ := constants.ParseTransactionType(d.Type)

	payment, ok := constants.ParsePaymentStatus(d.PaymentStatus)
	if !ok {
		payment = constants.DefaultPaymentStatus(txType)
	}

	confidence := d.Confidence
	if confidence == "" {
		confidence = constants.ConfidenceLow
	}

	stated := decimal.Zero
	if d.TotalAmount != nil {
		stated = decimal.NewFromFloat(*d.TotalAmount).Abs().Round(2)
	}

	drafts := d.Items
	if len(drafts) == 0 {
		drafts = []DraftItem{{Name: UnspecifiedItem}}
		confidence = constants.ConfidenceLow
	}

	items := make([]Item, len(drafts))
	priced := make([]bool, len(drafts))
	unitPrices := make([]decimal.Decimal, len(drafts))
	lineTotals := make([]decimal.Decimal, len(drafts))
	pricedTotal := decimal.Zero
	unpricedQty := decimal.Zero

	for i, di := range drafts {
		qty := di.Quantity
		if qty <= 0 {
			qty = 1
		}
		unit, _ := constants.CanonicalUnit(di.Unit)
		items[i] = Item{Name: cleanName(di.Name), Quantity: qty, Unit: string(unit)}

		q := decimal.NewFromFloat(qty)
		switch {
		case di.UnitPrice != nil && *di.UnitPrice > 0:
			unitPrices[i] = decimal.NewFromFloat(*di.UnitPrice).Round(2)
			lineTotals[i] = unitPrices[i].Mul(q).Round(2)
			priced[i] = true
		case di.TotalPrice != nil && *di.TotalPrice > 0:
			lineTotals[i] = decimal.NewFromFloat(*di.TotalPrice).Round(2)
			unitPrices[i] = lineTotals[i].Div(q).Round(2)
			priced[i] = true
		default:
			unpricedQty = unpricedQty.Add(q)
		}
		if priced[i] {
			pricedTotal = pricedTotal.Add(lineTotals[i])
		}
	}

	remaining := stated.Sub(pricedTotal)
	lastDerived := -1
	if unpricedQty.IsPositive() {
		share := decimal.Zero
		if remaining.IsPositive() {
			share = remaining.Div(unpricedQty).Round(2)
		}
		for i := range items {
			if !priced[i] {
				unitPrices[i] = share
				lineTotals[i] = share.Mul(decimal.NewFromFloat(items[i].Quantity)).Round(2)
				lastDerived = i
			}
		}
	}

	total := decimal.Zero
	for i := range items {
		total = total.Add(lineTotals[i])
	}
	if stated.IsPositive() {
		diff := stated.Sub(total)
		switch {
		case lastDerived >= 0 && !remaining.IsNegative():
			// cents lost splitting the stated total
			lineTotals[lastDerived] = lineTotals[lastDerived].Add(diff)
		case diff.Abs().GreaterThan(centTolerance):
			confidence = confidence.Lower()
		}
		total = stated
	}

	for i := range items {
		items[i].UnitPrice = unitPrices[i].InexactFloat64()
		items[i].TotalPrice = lineTotals[i].InexactFloat64()
	}

	return Transaction{
		Type:          txType,
		Items:         items,
		TotalAmount:   total.InexactFloat64(),
		CustomerName:  strings.TrimSpace(d.CustomerName),
		Date:          resolveDate(d.Date, now),
		Notes:         strings.TrimSpace(d.Notes),
		PaymentStatus: payment,
		Confidence:    confidence,
		Strategy:      d.Strategy,
		Model:         d.Model,
	}
}

func cleanName(s string) string {
	name := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	if name == "" {
		return UnspecifiedItem
	}
	return name
}

// resolveDate returns a UTC midnight date. Unparseable input means today.
func resolveDate(s string, now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today", "leo":
		return today
	case "yesterday", "jana":
		return today.AddDate(0, 0, -1)
	}
	if t, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err == nil {
		return t
	}
	return today
}
