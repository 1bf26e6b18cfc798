package extract

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/trade-ledger/constants"
)

var (
	// ErrModelUnavailable wraps generator, transport and timeout failures.
	ErrModelUnavailable = errors.New("extract: model unavailable")
	// ErrMalformedOutput wraps replies that are not a usable transaction object.
	ErrMalformedOutput = errors.New("extract: malformed model output")
)

// Strategy is one way of turning text into a Transaction. The Extractor tries
// strategies in order; an error hands the message to the next one.
type Strategy interface {
	Name() constants.Strategy
	Attempt(ctx context.Context, text string, lang constants.Language) (Transaction, error)
}
