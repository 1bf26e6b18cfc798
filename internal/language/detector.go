// Package language classifies trader messages as English or Swahili.
package language

import (
	"strings"
	"unicode"

	"github.com/joseph-ayodele/trade-ledger/constants"
)

// swahiliKeywords are common verbs, trade words and function words that rarely
// appear in English text. Membership is checked per word token.
var swahiliKeywords = map[string]struct{}{
	// trade verbs (first person past, infinitive, stems)
	"nimeuza": {}, "niliuza": {}, "nimeuzia": {}, "kuuza": {}, "uza": {}, "ameuza": {},
	"nimenunua": {}, "nilinunua": {}, "kununua": {}, "nunua": {}, "amenunua": {},
	"nimelipa": {}, "nililipa": {}, "kulipa": {}, "lipa": {}, "amelipa": {},
	"nimemkopesha": {}, "nimekopesha": {}, "kukopesha": {}, "amekopa": {},
	"hajalipa": {}, "anadaiwa": {}, "ananidai": {}, "nimepokea": {},
	// nouns
	"deni": {}, "mkopo": {}, "bei": {}, "pesa": {}, "shilingi": {}, "jumla": {},
	"mteja": {}, "kodi": {}, "nauli": {}, "gharama": {}, "matumizi": {}, "mauzo": {},
	"nyanya": {}, "vitunguu": {}, "sukari": {}, "unga": {}, "mchele": {}, "maziwa": {},
	"mayai": {}, "maharage": {}, "ndizi": {}, "viazi": {}, "mafuta": {}, "sabuni": {},
	"chumvi": {}, "mkate": {}, "samaki": {}, "nyama": {}, "kuku": {}, "chai": {},
	"mfuko": {}, "mifuko": {}, "vipande": {}, "kipande": {}, "pakiti": {},
	// function words and time
	"leo": {}, "jana": {}, "kesho": {}, "kwa": {}, "ya": {}, "za": {}, "kila": {},
	"moja": {}, "mbili": {}, "tatu": {}, "kwenye": {}, "bado": {}, "na": {},
}

// Detect returns constants.Swahili when any word of text is a Swahili keyword,
// otherwise constants.English.
func Detect(text string) constants.Language {
	for _, tok := range tokens(text) {
		if _, ok := swahiliKeywords[tok]; ok {
			return constants.Swahili
		}
	}
	return constants.English
}

// Resolve prefers a supported hint and falls back to Detect.
func Resolve(text, hint string) constants.Language {
	if lang, ok := constants.ParseLanguage(hint); ok {
		return lang
	}
	return Detect(text)
}

func tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
