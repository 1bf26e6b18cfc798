package llm

import "context"

// Turn is one prior message in a conversation.
type Turn struct {
	Role string // "user" or "assistant"
	Text string
}

// GenerateRequest is what every text-generation provider receives.
type GenerateRequest struct {
	UserText          string
	SystemInstruction string
	History           []Turn
}

// GenerateResponse is the provider-neutral reply.
type GenerateResponse struct {
	ReplyText  string
	Model      string
	TokenCount int
}

// Generator is the external text-generation capability the extractor depends on.
// Implementations return an error on transport or provider failure.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req GenerateRequest) (GenerateResponse, error)

func (f GeneratorFunc) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	return f(ctx, req)
}

// TransactionPayload is the JSON object we ask the model for, after sanitizing.
type TransactionPayload struct {
	TransactionType string        `json:"transactionType,omitempty"`
	Items           []ItemPayload `json:"items,omitempty"`
	TotalAmount     *float64      `json:"totalAmount,omitempty"`
	CustomerName    string        `json:"customerName,omitempty"`
	Date            string        `json:"date,omitempty"` // YYYY-MM-DD, "today" or "yesterday"
	Notes           string        `json:"notes,omitempty"`
	PaymentStatus   string        `json:"paymentStatus,omitempty"` // paid | unpaid
}

type ItemPayload struct {
	Name       string   `json:"name,omitempty"`
	Quantity   *float64 `json:"quantity,omitempty"`
	Unit       string   `json:"unit,omitempty"`
	UnitPrice  *float64 `json:"unitPrice,omitempty"`
	TotalPrice *float64 `json:"totalPrice,omitempty"`
}
