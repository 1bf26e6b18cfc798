package llm

import (
	"strings"

	"github.com/joseph-ayodele/trade-ledger/constants"
)

// BuildSystemPrompt composes the extraction instruction for lang: the output
// contract, classification rules and worked examples.
func BuildSystemPrompt(lang constants.Language) string {
	parts := []string{
		"You are a bookkeeping assistant for small traders in East Africa.",
		languageLine(lang),
		"Extract exactly ONE transaction from the message and return ONLY a single JSON object. No prose, no Markdown, no code fences.",
		"",
		"The JSON object has these fields:",
		`- "transactionType": one of "` + strings.Join(constants.TransactionTypes(), `", "`) + `"`,
		`- "items": array of {"name": string, "quantity": number, "unit": string, "unitPrice": number, "totalPrice": number}`,
		`- "totalAmount": number (the money that changed hands, never negative)`,
		`- "customerName": string, the other party, omit if not mentioned`,
		`- "date": "YYYY-MM-DD", "today" or "yesterday"; omit if not mentioned`,
		`- "notes": string, anything useful that does not fit elsewhere; omit if empty`,
		`- "paymentStatus": "paid" or "unpaid"`,
		"",
		"Rules:",
		"- sale = money came IN to the trader for goods or services.",
		"- purchase = money went OUT to buy stock; expense = money went OUT for rent, transport, bills or other costs.",
		"- debt = goods or money given to someone who still owes the trader; loan = money lent out. Both are unpaid unless the message says otherwise.",
		"- Item names are lowercase, in English when you know the English word (nyanya -> tomatoes).",
		"- If only a total is given, unitPrice = totalAmount / quantity. If a price per unit is given (\"each\", \"per kg\", \"kila moja\"), totalAmount = unitPrice * quantity.",
		"- quantity defaults to 1 and unit defaults to \"unit\" when not stated.",
		"- Numbers are plain JSON numbers: no currency symbols, no thousands separators.",
		"",
	}
	parts = append(parts, examples(lang)...)
	return strings.Join(parts, "\n")
}

func languageLine(lang constants.Language) string {
	if lang == constants.Swahili {
		return "The message is written in Swahili (Kiswahili), possibly mixed with English. Understand it in Swahili but write JSON field names exactly as specified."
	}
	return "The message is written in English, possibly mixed with Swahili words."
}

func examples(lang constants.Language) []string {
	if lang == constants.Swahili {
		return []string{
			"Example 1:",
			`Message: "Nimeuza kilo 5 za nyanya kwa shilingi 500 kwa John"`,
			`JSON: {"transactionType":"sale","items":[{"name":"tomatoes","quantity":5,"unit":"kg","unitPrice":100,"totalPrice":500}],"totalAmount":500,"customerName":"John","paymentStatus":"paid"}`,
			"Example 2:",
			`Message: "Nimenunua pakiti 10 za sukari kwa 50 kila moja"`,
			`JSON: {"transactionType":"purchase","items":[{"name":"sugar","quantity":10,"unit":"packets","unitPrice":50,"totalPrice":500}],"totalAmount":500,"paymentStatus":"paid"}`,
		}
	}
	return []string{
		"Example 1:",
		`Message: "I sold 5kg tomatoes for 500 shillings to John"`,
		`JSON: {"transactionType":"sale","items":[{"name":"tomatoes","quantity":5,"unit":"kg","unitPrice":100,"totalPrice":500}],"totalAmount":500,"customerName":"John","paymentStatus":"paid"}`,
		"Example 2:",
		`Message: "Mary took 2 bags of flour on credit, 3000 total"`,
		`JSON: {"transactionType":"debt","items":[{"name":"flour","quantity":2,"unit":"bags","unitPrice":1500,"totalPrice":3000}],"totalAmount":3000,"customerName":"Mary","paymentStatus":"unpaid"}`,
	}
}
