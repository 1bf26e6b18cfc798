package extract

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/trade-ledger/constants"
	"github.com/joseph-ayodele/trade-ledger/internal/normalize"
)

var (
	reNumber  = regexp.MustCompile(`(?i)((?:\b(?:kshs?|kes|tshs?|ushs?|shs?)\.?\s*)|\$\s*)?(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)`)
	reQtyUnit = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(` + strings.Join(append(constants.UnitWords(), "l"), "|") + `)\b`)
	// Swahili puts the unit first: "kilo 2", "mifuko 3 ya unga".
	reUnitQty  = regexp.MustCompile(`(?i)\b(kilo|mifuko|mfuko|pakiti|lita|vipande|kipande|magunia|gunia)\s+(\d+(?:\.\d+)?)\b`)
	reCustomer = regexp.MustCompile(`\b(?i:to|from|for|kwa)\s+([A-Z][a-zA-Z'-]+(?:\s+[A-Z][a-zA-Z'-]+)?)`)
	reWord     = regexp.MustCompile(`[\p{L}][\p{L}'-]*|\d+(?:[.,]\d+)*`)

	reCurrencySuffix  = regexp.MustCompile(`(?i)^\s*(?:/=|shillings?\b|shilingi\b|bob\b|kshs?\b|kes\b|tsh\b|ush\b)`)
	reUnitPriceSuffix = regexp.MustCompile(`(?i)^\s*(?:each\b|apiece\b|a piece\b|per\s+\p{L}+|kila\b)`)
	reUnitPricePrefix = regexp.MustCompile(`(?i)(?:@|\bkila(?:\s+\p{L}+)?)\s*$`)
)

// typeKeywords are matched as whole words; the earliest match in the text wins.
var typeKeywords = map[constants.TransactionType][]string{
	constants.TransactionSale: {
		"sold", "sell", "sells", "selling", "sale", "sales",
		"nimeuza", "niliuza", "nimeuzia", "kuuza", "ameuza", "mauzo",
	},
	constants.TransactionPurchase: {
		"bought", "buy", "buying", "purchased", "purchase", "restocked", "restock",
		"nimenunua", "nilinunua", "kununua", "ununuzi",
	},
	constants.TransactionExpense: {
		"paid", "pay", "spent", "spend", "expense", "rent", "fare", "transport", "bill",
		"nimelipa", "nililipa", "kodi", "nauli", "gharama", "matumizi",
	},
	constants.TransactionDebt: {
		"owes", "owe", "owed", "debt", "debtor",
		"deni", "anadaiwa", "ananidai", "amekopa",
	},
	constants.TransactionLoan: {
		"lent", "lend", "loaned", "loan", "borrowed",
		"mkopo", "nimemkopesha", "nimekopesha", "kukopesha",
	},
}

var typeRegexps = func() map[constants.TransactionType]*regexp.Regexp {
	out := make(map[constants.TransactionType]*regexp.Regexp, len(typeKeywords))
	for t, words := range typeKeywords {
		out[t] = regexp.MustCompile(`\b(?:` + strings.Join(words, "|") + `)\b`)
	}
	return out
}()

var (
	reUnpaid    = regexp.MustCompile(`\b(?:on credit|unpaid|not paid|hajalipa|hajanilipa|bado)\b`)
	reYesterday = regexp.MustCompile(`\b(?:yesterday|jana)\b`)

	nameLinkWords = map[string]struct{}{"of": {}, "ya": {}, "za": {}, "la": {}, "cha": {}, "vya": {}}
	nameStopWords = map[string]struct{}{
		"for": {}, "to": {}, "from": {}, "at": {}, "and": {}, "each": {}, "per": {}, "on": {},
		"in": {}, "by": {}, "with": {}, "today": {}, "yesterday": {}, "shillings": {}, "bob": {},
		"kwa": {}, "na": {}, "kila": {}, "leo": {}, "jana": {}, "bei": {},
	}
	notCustomers = map[string]struct{}{"today": {}, "yesterday": {}, "cash": {}, "credit": {}}
)

const maxNameTokens = 3

// FallbackStrategy is the deterministic regex parser. It never fails and
// always reports medium confidence.
type FallbackStrategy struct {
	normalizer *normalize.Normalizer
	now        func() time.Time
}

func NewFallbackStrategy(normalizer *normalize.Normalizer, now func() time.Time) *FallbackStrategy {
	if normalizer == nil {
		normalizer = normalize.NewNormalizer(nil, nil)
	}
	if now == nil {
		now = time.Now
	}
	return &FallbackStrategy{normalizer: normalizer, now: now}
}

func (s *FallbackStrategy) Name() constants.Strategy { return constants.StrategyFallback }

func (s *FallbackStrategy) Attempt(_ context.Context, text string, _ constants.Language) (Transaction, error) {
	return s.Extract(text), nil
}

// FallbackExtraction parses text with the built-in dictionary and the current date.
func FallbackExtraction(text string) Transaction {
	return NewFallbackStrategy(nil, nil).Extract(text)
}

type span struct{ start, end int }

type amount struct {
	value     float64
	pos       span
	currency  bool
	unitPrice bool
}

// Extract parses text without any I/O.
func (s *FallbackStrategy) Extract(text string) Transaction {
	lower := strings.ToLower(text)
	dict := s.normalizer.Dictionary()

	d := Draft{
		Type:       string(classify(lower)),
		Confidence: constants.ConfidenceMedium,
		Strategy:   constants.StrategyFallback,
	}

	// Spans index lower, which can differ in byte length from text.
	pairs := findQuantities(lower)
	consumed := make([]span, 0, len(pairs))
	for _, p := range pairs {
		consumed = append(consumed, p.pos)
		d.Items = append(d.Items, DraftItem{
			Name:     itemNameAround(dict, lower, p.pos.start, p.pos.end),
			Quantity: p.qty,
			Unit:     p.unit,
		})
	}

	amounts := findAmounts(lower, consumed)
	var unitPrice *float64
	for _, a := range amounts {
		if a.unitPrice {
			v := a.value
			unitPrice = &v
			break
		}
	}
	if total, ok := pickTotal(amounts); ok {
		d.TotalAmount = &total
	}

	if len(d.Items) == 0 {
		name := scanForName(dict, lower)
		if name == "" {
			name = "item"
		}
		d.Items = []DraftItem{{Name: name, Quantity: 1}}
		if unitPrice == nil && d.TotalAmount != nil {
			unitPrice = d.TotalAmount
		}
	}
	if unitPrice != nil {
		d.Items[0].UnitPrice = unitPrice
	}

	if m := reCustomer.FindStringSubmatch(text); m != nil {
		if _, skip := notCustomers[strings.ToLower(m[1])]; !skip {
			d.CustomerName = m[1]
		}
	}
	if reYesterday.MatchString(lower) {
		d.Date = "yesterday"
	}
	if reUnpaid.MatchString(lower) {
		d.PaymentStatus = string(constants.PaymentUnpaid)
	}

	return NewTransaction(d, s.now())
}

type quantity struct {
	qty  float64
	unit string
	pos  span
}

// findQuantities returns "<number> <unit>" pairs and, where they do not
// overlap, Swahili "<unit> <number>" pairs, in text order.
func findQuantities(text string) []quantity {
	var out []quantity
	var taken []span
	for _, m := range reQtyUnit.FindAllStringSubmatchIndex(text, -1) {
		qty, err := strconv.ParseFloat(text[m[2]:m[3]], 64)
		if err != nil {
			continue
		}
		pos := span{m[0], m[1]}
		taken = append(taken, pos)
		out = append(out, quantity{qty: qty, unit: text[m[4]:m[5]], pos: pos})
	}
	for _, m := range reUnitQty.FindAllStringSubmatchIndex(text, -1) {
		pos := span{m[0], m[1]}
		if overlaps(pos, taken) {
			continue
		}
		qty, err := strconv.ParseFloat(text[m[4]:m[5]], 64)
		if err != nil {
			continue
		}
		out = append(out, quantity{qty: qty, unit: text[m[2]:m[3]], pos: pos})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].pos.start < out[j].pos.start })
	return out
}

// classify returns the type whose keyword appears first; sale when none does.
func classify(lower string) constants.TransactionType {
	best := constants.TransactionSale
	bestAt := -1
	for _, t := range []constants.TransactionType{
		constants.TransactionSale,
		constants.TransactionPurchase,
		constants.TransactionExpense,
		constants.TransactionDebt,
		constants.TransactionLoan,
	} {
		loc := typeRegexps[t].FindStringIndex(lower)
		if loc != nil && (bestAt == -1 || loc[0] < bestAt) {
			best, bestAt = t, loc[0]
		}
	}
	return best
}

func findAmounts(text string, consumed []span) []amount {
	var out []amount
	for _, m := range reNumber.FindAllStringSubmatchIndex(text, -1) {
		pos := span{m[0], m[1]}
		if overlaps(pos, consumed) {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(text[m[4]:m[5]], ",", ""), 64)
		if err != nil {
			continue
		}
		rest := text[m[1]:]
		out = append(out, amount{
			value:     v,
			pos:       pos,
			currency:  m[2] != -1 || reCurrencySuffix.MatchString(rest),
			unitPrice: reUnitPriceSuffix.MatchString(rest) || reUnitPricePrefix.MatchString(text[:m[0]]),
		})
	}
	return out
}

// pickTotal prefers a currency-marked amount, then the first plain number.
// Unit prices are never totals.
func pickTotal(amounts []amount) (float64, bool) {
	for _, a := range amounts {
		if a.currency && !a.unitPrice {
			return a.value, true
		}
	}
	for _, a := range amounts {
		if !a.unitPrice {
			return a.value, true
		}
	}
	return 0, false
}

func overlaps(s span, spans []span) bool {
	for _, o := range spans {
		if s.start < o.end && o.start < s.end {
			return true
		}
	}
	return false
}

// itemNameAround resolves the product named next to a quantity/unit match:
// first the words after it ("5kg tomatoes", "10 packets of sugar"), then the
// words before it ("tomatoes 5kg"). Longer windows are tried first.
func itemNameAround(dict *normalize.Dictionary, lower string, start, end int) string {
	after := nameTokens(words(lower[end:]), false)
	if name, ok := lookupWindow(dict, after, false); ok {
		return name
	}

	before := nameTokens(words(lower[:start]), true)
	if name, ok := lookupWindow(dict, before, true); ok {
		return name
	}

	if len(after) > 0 {
		return normalize.NormalizeItemName(dict, after[0])
	}
	if len(before) > 0 {
		return normalize.NormalizeItemName(dict, before[len(before)-1])
	}
	return "item"
}

// nameTokens keeps up to maxNameTokens words adjacent to the match, stopping at
// numbers and stop words. reverse walks backwards from the end.
func nameTokens(ws []string, reverse bool) []string {
	var out []string
	for i := range ws {
		w := ws[i]
		if reverse {
			w = ws[len(ws)-1-i]
		}
		if _, link := nameLinkWords[w]; link && len(out) == 0 && !reverse {
			continue
		}
		if _, stop := nameStopWords[w]; stop || isNumber(w) {
			break
		}
		out = append(out, w)
		if len(out) == maxNameTokens {
			break
		}
	}
	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// lookupWindow tries windows anchored at the match side, longest first.
func lookupWindow(dict *normalize.Dictionary, toks []string, anchoredAtEnd bool) (string, bool) {
	for n := len(toks); n > 0; n-- {
		window := toks[:n]
		if anchoredAtEnd {
			window = toks[len(toks)-n:]
		}
		if name, ok := resolve(dict, strings.Join(window, " ")); ok {
			return name, true
		}
	}
	return "", false
}

// scanForName returns the first dictionary product mentioned anywhere in lower.
func scanForName(dict *normalize.Dictionary, lower string) string {
	ws := words(lower)
	for i := range ws {
		for n := min(maxNameTokens, len(ws)-i); n > 0; n-- {
			if name, ok := resolve(dict, strings.Join(ws[i:i+n], " ")); ok {
				return name
			}
		}
	}
	return ""
}

func resolve(dict *normalize.Dictionary, phrase string) (string, bool) {
	name := normalize.NormalizeItemName(dict, phrase)
	return name, dict.IsCanonical(name)
}

func words(s string) []string {
	return reWord.FindAllString(s, -1)
}

func isNumber(w string) bool {
	return w != "" && w[0] >= '0' && w[0] <= '9'
}
