// Package normalize canonicalizes free-form product names across English,
// Swahili and plural forms, and matches them against a trader's inventory.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/trade-ledger/internal/common"
	"github.com/joseph-ayodele/trade-ledger/internal/entity"
)

// pluralRules are tried in order; most specific suffix first.
var pluralRules = []struct{ suffix, replacement string }{
	{"ies", "y"},
	{"ves", "f"},
	{"oes", "o"},
	{"ses", "s"},
	{"es", ""},
	{"s", ""},
}

// Catalog is the slice of the inventory store the matcher needs.
// FindByOwnerAndName returns an error wrapping common.ErrNotFound on a miss.
type Catalog interface {
	FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*entity.InventoryItem, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.InventoryItem, error)
}

// Normalizer resolves names against the current version of a DictionaryStore.
type Normalizer struct {
	store  *DictionaryStore
	logger *slog.Logger
}

func NewNormalizer(store *DictionaryStore, logger *slog.Logger) *Normalizer {
	if store == nil {
		store = NewDictionaryStore(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{store: store, logger: logger}
}

// Dictionary returns the version used by the next call.
func (n *Normalizer) Dictionary() *Dictionary {
	return n.store.Current()
}

// NormalizeItemName canonicalizes raw using the current dictionary.
func (n *Normalizer) NormalizeItemName(raw string) string {
	return NormalizeItemName(n.store.Current(), raw)
}

// NormalizeItemName canonicalizes raw against d. The result is either a
// canonical dictionary value or the cleaned input; applying it twice is a no-op.
func NormalizeItemName(d *Dictionary, raw string) string {
	cleaned := clean(raw)
	if cleaned == "" {
		return ""
	}
	if c, ok := d.Lookup(cleaned); ok {
		return c
	}
	if d.IsCanonical(cleaned) {
		return cleaned
	}

	candidate := cleaned
	if stripped, ok := strings.CutPrefix(cleaned, "the "); ok {
		if c, ok := d.Lookup(stripped); ok {
			return c
		}
		candidate = stripped
	}

	for _, rule := range pluralRules {
		stem, ok := strings.CutSuffix(candidate, rule.suffix)
		if !ok || stem == "" {
			continue
		}
		if c, ok := d.Lookup(stem + rule.replacement); ok {
			return c
		}
	}
	return cleaned
}

// ItemVariations lists every surface form that resolves to the same canonical
// name as name, including the canonical itself. Unknown names return just the
// cleaned name.
func (n *Normalizer) ItemVariations(name string) []string {
	d := n.store.Current()
	canonical := NormalizeItemName(d, name)
	if canonical == "" {
		return nil
	}
	terms := d.Terms(canonical)
	if len(terms) == 0 {
		return []string{canonical}
	}
	sort.Strings(terms)
	return terms
}

// AddMultilingualMapping publishes a new dictionary version with term -> canonical.
func (n *Normalizer) AddMultilingualMapping(term, canonical string) error {
	d, err := n.store.AddMapping(term, canonical)
	if err != nil {
		n.logger.Warn("normalize.mapping.rejected", "term", term, "canonical", canonical, "error", err)
		return common.NewAppError("MAPPING_REJECTED", "cannot add term mapping", errors.Join(common.ErrInvalidInput, err))
	}
	n.logger.Info("normalize.mapping.added", "term", term, "canonical", canonical, "version", d.Version())
	return nil
}

// AddMultilingualMappings applies a batch of mappings. A canonical that is
// itself a term of the batch is followed to the end of its chain first, and
// terms are applied in sorted order, so the result never depends on map order.
func (n *Normalizer) AddMultilingualMappings(terms map[string]string) error {
	batch := make(map[string]string, len(terms))
	keys := make([]string, 0, len(terms))
	for term := range terms {
		keys = append(keys, term)
	}
	sort.Strings(keys)
	for _, term := range keys {
		batch[clean(term)] = terms[term]
	}

	for _, term := range keys {
		canonical := terms[term]
		seen := map[string]struct{}{clean(term): {}}
		for {
			c := clean(canonical)
			next, ok := batch[c]
			if !ok || clean(next) == c {
				break
			}
			if _, loop := seen[c]; loop {
				return common.NewAppError("MAPPING_REJECTED", "term mappings form a cycle",
					fmt.Errorf("%w: %q", common.ErrInvalidInput, term))
			}
			seen[c] = struct{}{}
			canonical = next
		}
		if err := n.AddMultilingualMapping(term, canonical); err != nil {
			return err
		}
	}
	return nil
}

// FindInventoryByNormalizedName looks up name in the owner's catalog:
// exact stored-name match on the normalized form, then a scan comparing
// normalized stored names, then an exact match on the raw lowercase input for
// records saved before normalization existed. Returns nil, nil on no match.
func (n *Normalizer) FindInventoryByNormalizedName(ctx context.Context, name string, catalog Catalog, ownerID uuid.UUID) (*entity.InventoryItem, error) {
	d := n.store.Current()
	target := NormalizeItemName(d, name)
	if target == "" {
		return nil, nil
	}

	item, err := catalog.FindByOwnerAndName(ctx, ownerID, target)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	items, err := catalog.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if NormalizeItemName(d, it.Name) == target {
			n.logger.Debug("normalize.match.scan", "owner_id", ownerID, "stored", it.Name, "target", target)
			return it, nil
		}
	}

	raw := strings.ToLower(strings.TrimSpace(name))
	if raw == "" || raw == target {
		return nil, nil
	}
	item, err = catalog.FindByOwnerAndName(ctx, ownerID, raw)
	if err == nil {
		return item, nil
	}
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	return nil, err
}

// clean lowercases, strips diacritics, drops everything except letters,
// digits, hyphens and spaces, and collapses whitespace.
func clean(raw string) string {
	s := strings.ToLower(raw)
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
