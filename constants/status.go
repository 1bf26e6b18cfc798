package constants

// Strategy names which extraction path produced a transaction.
type Strategy string

// Stable values (stored as-is in transactions.strategy).
const (
	StrategyModel    Strategy = "model"    // language model output parsed and validated
	StrategyFallback Strategy = "fallback" // deterministic regex parser
	StrategyDefault  Strategy = "default"  // every strategy failed; defaults only
)
