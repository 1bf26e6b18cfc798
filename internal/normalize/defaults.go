package normalize

// defaultTerms covers staples traded in East African markets. Canonical names
// are the English plural for countable goods and the mass noun otherwise.
var defaultTerms = map[string]string{
	"tomato": "tomatoes", "tomatoes": "tomatoes", "nyanya": "tomatoes",
	"onion": "onions", "onions": "onions", "kitunguu": "onions", "vitunguu": "onions",
	"potato": "potatoes", "potatoes": "potatoes", "kiazi": "potatoes", "viazi": "potatoes",
	"egg": "eggs", "eggs": "eggs", "yai": "eggs", "mayai": "eggs",
	"bean": "beans", "beans": "beans", "haragwe": "beans", "maharage": "beans", "maharagwe": "beans",
	"banana": "bananas", "bananas": "bananas", "ndizi": "bananas",
	"mango": "mangoes", "mangoes": "mangoes", "embe": "mangoes", "maembe": "mangoes",
	"orange": "oranges", "oranges": "oranges", "chungwa": "oranges", "machungwa": "oranges",
	"avocado": "avocados", "avocados": "avocados", "parachichi": "avocados", "maparachichi": "avocados",
	"carrot": "carrots", "carrots": "carrots", "karoti": "carrots",
	"cabbage": "cabbages", "cabbages": "cabbages", "kabichi": "cabbages",
	"sugar": "sugar", "sukari": "sugar",
	"flour": "flour", "unga": "flour", "maize flour": "flour",
	"rice": "rice", "mchele": "rice", "wali": "rice",
	"milk": "milk", "maziwa": "milk",
	"oil": "cooking oil", "cooking oil": "cooking oil", "mafuta": "cooking oil", "mafuta ya kupikia": "cooking oil",
	"soap": "soap", "sabuni": "soap",
	"salt": "salt", "chumvi": "salt",
	"bread": "bread", "mkate": "bread",
	"fish": "fish", "samaki": "fish",
	"meat": "meat", "nyama": "meat",
	"chicken": "chicken", "kuku": "chicken",
	"tea": "tea", "chai": "tea", "majani ya chai": "tea",
	"maize": "maize", "mahindi": "maize",
	"kale": "kale", "sukuma": "kale", "sukuma wiki": "kale",
	"charcoal": "charcoal", "mkaa": "charcoal",
	"water": "water", "maji": "water",
	"soda":    "soda",
	"airtime": "airtime", "vocha": "airtime",
}

// DefaultDictionary returns version 1 of the built-in vocabulary.
func DefaultDictionary() *Dictionary {
	return MustNewDictionary(defaultTerms)
}
