package constants

// Confidence is the coarse quality signal attached to every extraction.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// DefaultReviewThreshold is the score below which a record is flagged for confirmation.
const DefaultReviewThreshold = 0.5

// Score places the enum on the single 0..1 scale used for review decisions.
func (c Confidence) Score() float32 {
	switch c {
	case ConfidenceHigh:
		return 0.9
	case ConfidenceMedium:
		return 0.6
	default:
		return 0.3
	}
}

// NeedsReview reports whether a result with this confidence should be confirmed by the user.
func (c Confidence) NeedsReview(threshold float32) bool {
	if threshold <= 0 {
		threshold = DefaultReviewThreshold
	}
	return c.Score() < threshold
}

// Lower is one step down the scale; low stays low.
func (c Confidence) Lower() Confidence {
	switch c {
	case ConfidenceHigh:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
