package normalize

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/trade-ledger/internal/common"
	"github.com/joseph-ayodele/trade-ledger/internal/entity"
)

func TestNormalizeItemName(t *testing.T) {
	n := NewNormalizer(nil, nil)

	cases := []struct {
		raw  string
		want string
	}{
		{"Nyanya", "tomatoes"},
		{"tomato", "tomatoes"},
		{"Tomatoes", "tomatoes"},
		{"  TOMATOES!! ", "tomatoes"},
		{"the tomato", "tomatoes"},
		{"the Eggs", "eggs"},
		{"tomatos", "tomatoes"},
		{"potatoes", "potatoes"},
		{"Sukari", "sugar"},
		{"sugars", "sugar"},
		{"mafuta", "cooking oil"},
		{"Cooking   Oil", "cooking oil"},
		{"sukuma wiki", "kale"},
		{"Café Latte", "cafe latte"},
		{"glasses", "glasses"},
		{"solar-panel #2", "solar-panel 2"},
		{"", ""},
		{"!!!", ""},
	}

	for _, c := range cases {
		t.Run(c.raw, func(t *testing.T) {
			assert.Equal(t, c.want, n.NormalizeItemName(c.raw))
		})
	}
}

func TestNormalizeItemName_Idempotent(t *testing.T) {
	d := DefaultDictionary()
	inputs := []string{
		"Nyanya", "the tomatoes", "The The Tomato", "knives", "loaves", "boxes",
		"berries", "buses", "Mayai ya kienyeji", "  spaced\tout\nname ", "ÉCLAIRS", "x",
		"sukuma wiki", "unga wa ngano", "12 kg", "the", "thes",
	}
	for _, in := range inputs {
		once := NormalizeItemName(d, in)
		assert.Equal(t, once, NormalizeItemName(d, once), "input %q", in)
	}
}

func TestNormalizeItemName_PluralRulesUseDictionary(t *testing.T) {
	d := MustNewDictionary(map[string]string{
		"berry": "berry",
		"loaf":  "loaf",
		"bus":   "bus",
		"box":   "box",
		"mango": "mango",
		"cup":   "cup",
	})

	assert.Equal(t, "berry", NormalizeItemName(d, "berries"))
	assert.Equal(t, "loaf", NormalizeItemName(d, "Loaves"))
	assert.Equal(t, "bus", NormalizeItemName(d, "buses"))
	assert.Equal(t, "box", NormalizeItemName(d, "the boxes"))
	assert.Equal(t, "mango", NormalizeItemName(d, "mangoes"))
	assert.Equal(t, "cup", NormalizeItemName(d, "cups"))
	assert.Equal(t, "cherries", NormalizeItemName(d, "cherries"))
}

func TestItemVariations(t *testing.T) {
	n := NewNormalizer(nil, nil)

	assert.Equal(t, []string{"nyanya", "tomato", "tomatoes"}, n.ItemVariations("Tomatoes"))
	assert.Equal(t, []string{"nyanya", "tomato", "tomatoes"}, n.ItemVariations("nyanya"))
	assert.Equal(t, []string{"widgets"}, n.ItemVariations("Widgets"))
	assert.Nil(t, n.ItemVariations("  "))
}

func TestAddMultilingualMapping(t *testing.T) {
	store := NewDictionaryStore(nil)
	n := NewNormalizer(store, nil)
	before := store.Current()

	assert.Equal(t, "pilipili", n.NormalizeItemName("pilipili"))
	require.NoError(t, n.AddMultilingualMapping("Pilipili", "peppers"))
	require.NoError(t, n.AddMultilingualMapping("pepper", "peppers"))

	assert.Equal(t, "peppers", n.NormalizeItemName("pilipili"))
	assert.Equal(t, "peppers", n.NormalizeItemName("Peppers"))
	assert.Equal(t, "peppers", n.NormalizeItemName("pepper"))
	assert.Equal(t, before.Version()+2, store.Current().Version())

	// the old version is untouched
	assert.Equal(t, "pilipili", NormalizeItemName(before, "pilipili"))

	// a canonical surface form resolves to its own canonical
	require.NoError(t, n.AddMultilingualMapping("tamatar", "nyanya"))
	assert.Equal(t, "tomatoes", n.NormalizeItemName("tamatar"))
}

func TestAddMultilingualMapping_RejectsCanonicalRemap(t *testing.T) {
	n := NewNormalizer(nil, nil)

	err := n.AddMultilingualMapping("tomatoes", "onions")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
	assert.Equal(t, "tomatoes", n.NormalizeItemName("nyanya"))

	require.Error(t, n.AddMultilingualMapping("", "onions"))
}

func TestAddMultilingualMappings_Chains(t *testing.T) {
	for range 20 {
		n := NewNormalizer(nil, nil)
		require.NoError(t, n.AddMultilingualMappings(map[string]string{
			"pepper":        "peppers",
			"hoho":          "pepper",
			"pilipili hoho": "hoho",
			"peppers":       "peppers",
		}))
		assert.Equal(t, "peppers", n.NormalizeItemName("pilipili hoho"))
		assert.Equal(t, "peppers", n.NormalizeItemName("hoho"))
		assert.Equal(t, "peppers", n.NormalizeItemName("pepper"))
	}
}

func TestAddMultilingualMappings_RejectsCycle(t *testing.T) {
	n := NewNormalizer(nil, nil)
	err := n.AddMultilingualMappings(map[string]string{"a": "b", "b": "c", "c": "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestNewDictionary_RejectsInconsistentEntries(t *testing.T) {
	_, err := NewDictionary(map[string]string{
		"tomato":   "tomatoes",
		"tomatoes": "nyanya",
	})
	require.Error(t, err)
}

func TestDictionaryStore_ConcurrentAddAndRead(t *testing.T) {
	store := NewDictionaryStore(nil)
	n := NewNormalizer(store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = n.AddMultilingualMapping(fmt.Sprintf("term%d", i), "widgets")
		}(i)
		go func() {
			defer wg.Done()
			_ = n.NormalizeItemName("Nyanya")
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(21), store.Current().Version())
	assert.Equal(t, "widgets", n.NormalizeItemName("term7"))
}

type fakeCatalog struct {
	items   []*entity.InventoryItem
	listErr error
	lookups []string
}

func (f *fakeCatalog) FindByOwnerAndName(_ context.Context, ownerID uuid.UUID, name string) (*entity.InventoryItem, error) {
	f.lookups = append(f.lookups, name)
	for _, it := range f.items {
		if it.OwnerID == ownerID && it.Name == name {
			return it, nil
		}
	}
	return nil, fmt.Errorf("inventory item %q: %w", name, common.ErrNotFound)
}

func (f *fakeCatalog) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*entity.InventoryItem, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*entity.InventoryItem
	for _, it := range f.items {
		if it.OwnerID == ownerID {
			out = append(out, it)
		}
	}
	return out, nil
}

func TestFindInventoryByNormalizedName(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()
	n := NewNormalizer(nil, nil)

	canonical := &entity.InventoryItem{ID: uuid.New(), OwnerID: owner, Name: "tomatoes"}
	legacy := &entity.InventoryItem{ID: uuid.New(), OwnerID: owner, Name: "Nyanya"}
	rawOnly := &entity.InventoryItem{ID: uuid.New(), OwnerID: owner, Name: "the widget"}
	foreign := &entity.InventoryItem{ID: uuid.New(), OwnerID: other, Name: "onions"}

	t.Run("exact normalized match", func(t *testing.T) {
		cat := &fakeCatalog{items: []*entity.InventoryItem{canonical, foreign}}
		got, err := n.FindInventoryByNormalizedName(ctx, "Nyanya", cat, owner)
		require.NoError(t, err)
		assert.Equal(t, canonical.ID, got.ID)
		assert.Equal(t, []string{"tomatoes"}, cat.lookups)
	})

	t.Run("scan over stored names", func(t *testing.T) {
		cat := &fakeCatalog{items: []*entity.InventoryItem{legacy}}
		got, err := n.FindInventoryByNormalizedName(ctx, "tomato", cat, owner)
		require.NoError(t, err)
		assert.Equal(t, legacy.ID, got.ID)
	})

	t.Run("stored name with article", func(t *testing.T) {
		cat := &fakeCatalog{items: []*entity.InventoryItem{rawOnly}}
		got, err := n.FindInventoryByNormalizedName(ctx, " The Widget ", cat, owner)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, rawOnly.ID, got.ID)
	})

	t.Run("other owner is invisible", func(t *testing.T) {
		cat := &fakeCatalog{items: []*entity.InventoryItem{foreign}}
		got, err := n.FindInventoryByNormalizedName(ctx, "onions", cat, owner)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("catalog errors propagate", func(t *testing.T) {
		cat := &fakeCatalog{listErr: errors.New("boom")}
		_, err := n.FindInventoryByNormalizedName(ctx, "onions", cat, owner)
		require.Error(t, err)
	})
}
