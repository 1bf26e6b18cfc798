package normalize

import (
	"fmt"
	"maps"
	"sort"
	"sync"
	"sync/atomic"
)

// Dictionary maps surface terms (English or Swahili, singular or plural) onto a
// canonical product name. A Dictionary is never mutated after construction;
// With returns a new version.
//
// Every canonical name is also a key mapping to itself, which keeps
// NormalizeItemName idempotent.
type Dictionary struct {
	version    uint64
	terms      map[string]string
	canonicals map[string]struct{}
}

// NewDictionary cleans every key and value and rejects mappings where a
// canonical name is itself a surface form of a different canonical.
func NewDictionary(entries map[string]string) (*Dictionary, error) {
	d := &Dictionary{
		version:    1,
		terms:      make(map[string]string, len(entries)*2),
		canonicals: make(map[string]struct{}),
	}
	for _, canonical := range entries {
		c := clean(canonical)
		if c == "" {
			return nil, fmt.Errorf("dictionary: empty canonical name")
		}
		d.canonicals[c] = struct{}{}
		d.terms[c] = c
	}
	for term, canonical := range entries {
		t, c := clean(term), clean(canonical)
		if t == "" {
			return nil, fmt.Errorf("dictionary: empty term for canonical %q", c)
		}
		if _, isCanonical := d.canonicals[t]; isCanonical && t != c {
			return nil, fmt.Errorf("dictionary: %q is canonical and cannot map to %q", t, c)
		}
		d.terms[t] = c
	}
	return d, nil
}

// MustNewDictionary panics on invalid entries; for package-level defaults.
func MustNewDictionary(entries map[string]string) *Dictionary {
	d, err := NewDictionary(entries)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Dictionary) Version() uint64 { return d.version }

func (d *Dictionary) Len() int { return len(d.terms) }

// Lookup resolves an already-cleaned term.
func (d *Dictionary) Lookup(term string) (string, bool) {
	c, ok := d.terms[term]
	return c, ok
}

// IsCanonical reports whether term is a canonical value.
func (d *Dictionary) IsCanonical(term string) bool {
	_, ok := d.canonicals[term]
	return ok
}

// Terms returns every key resolving to canonical, sorted.
func (d *Dictionary) Terms(canonical string) []string {
	var out []string
	for t, c := range d.terms {
		if c == canonical {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// With returns a new version that also maps term to canonical. When canonical
// is itself a known surface form it is resolved first, so "tomato" -> "nyanya"
// stores "tomato" -> "tomatoes".
func (d *Dictionary) With(term, canonical string) (*Dictionary, error) {
	t, c := clean(term), clean(canonical)
	if t == "" || c == "" {
		return nil, fmt.Errorf("dictionary: term and canonical are required")
	}
	if resolved, ok := d.terms[c]; ok {
		c = resolved
	}
	if _, isCanonical := d.canonicals[t]; isCanonical && t != c {
		return nil, fmt.Errorf("dictionary: %q is canonical and cannot map to %q", t, c)
	}

	next := &Dictionary{
		version:    d.version + 1,
		terms:      maps.Clone(d.terms),
		canonicals: maps.Clone(d.canonicals),
	}
	next.canonicals[c] = struct{}{}
	next.terms[c] = c
	next.terms[t] = c
	return next, nil
}

// DictionaryStore publishes the current Dictionary to concurrent readers and
// serializes writers.
type DictionaryStore struct {
	mu      sync.Mutex
	current atomic.Pointer[Dictionary]
}

func NewDictionaryStore(d *Dictionary) *DictionaryStore {
	if d == nil {
		d = DefaultDictionary()
	}
	s := &DictionaryStore{}
	s.current.Store(d)
	return s
}

// Current returns the latest published version. Callers keep using the
// returned value for the whole of one operation.
func (s *DictionaryStore) Current() *Dictionary {
	return s.current.Load()
}

// AddMapping publishes a new version containing term -> canonical.
func (s *DictionaryStore) AddMapping(term, canonical string) (*Dictionary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.current.Load().With(term, canonical)
	if err != nil {
		return nil, err
	}
	s.current.Store(next)
	return next, nil
}
