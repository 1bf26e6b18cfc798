package constants

import (
	"strings"
)

type Unit string

const (
	UnitKilogram Unit = "kg"
	UnitPiece    Unit = "pieces"
	UnitLitre    Unit = "liters"
	UnitBag      Unit = "bags"
	UnitPacket   Unit = "packets"
	UnitDefault  Unit = "unit"
)

var allUnits = []Unit{
	UnitKilogram,
	UnitPiece,
	UnitLitre,
	UnitBag,
	UnitPacket,
	UnitDefault,
}

// UnitWords lists every surface form CanonicalUnit understands, longest first so
// regex alternations built from it prefer "kilos" over "kilo".
func UnitWords() []string {
	return []string{
		"kilograms", "kilogram", "kilos", "kilo", "kgs", "kg",
		"pieces", "piece", "pcs", "pc", "vipande", "kipande",
		"litres", "liters", "litre", "liter", "lita",
		"units", "unit",
		"bags", "bag", "mifuko", "mfuko", "magunia", "gunia",
		"packets", "packet", "pakiti",
	}
}

// CanonicalUnit maps a unit word onto its stable spelling. Unknown inputs are
// lowercased and returned with ok=false; empty input returns UnitDefault.
func CanonicalUnit(input string) (Unit, bool) {
	if strings.TrimSpace(input) == "" {
		return UnitDefault, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]Unit{
		"kilograms": UnitKilogram,
		"kilogram":  UnitKilogram,
		"kilos":     UnitKilogram,
		"kilo":      UnitKilogram,
		"kgs":       UnitKilogram,
		"piece":     UnitPiece,
		"pcs":       UnitPiece,
		"pc":        UnitPiece,
		"vipande":   UnitPiece,
		"kipande":   UnitPiece,
		"litres":    UnitLitre,
		"litre":     UnitLitre,
		"liter":     UnitLitre,
		"lita":      UnitLitre,
		"l":         UnitLitre,
		"units":     UnitDefault,
		"bag":       UnitBag,
		"mifuko":    UnitBag,
		"mfuko":     UnitBag,
		"magunia":   UnitBag,
		"gunia":     UnitBag,
		"packet":    UnitPacket,
		"pakiti":    UnitPacket,
	}

	if u, ok := synonyms[normalized]; ok {
		return u, true
	}

	for _, u := range allUnits {
		if normalized == string(u) {
			return u, true
		}
	}

	return Unit(normalized), false
}
