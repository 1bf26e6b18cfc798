package constants

import "strings"

// Language is a supported input/output language tag (BCP 47 primary subtag).
type Language string

const (
	English Language = "en" // default
	Swahili Language = "sw"
)

// ParseLanguage returns the supported tag for input, or English when unknown.
func ParseLanguage(input string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "en", "eng", "english":
		return English, true
	case "sw", "swa", "swahili", "kiswahili":
		return Swahili, true
	}
	return English, false
}
