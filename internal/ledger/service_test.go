package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/trade-ledger/constants"
	"github.com/joseph-ayodele/trade-ledger/internal/common"
	"github.com/joseph-ayodele/trade-ledger/internal/entity"
	"github.com/joseph-ayodele/trade-ledger/internal/extract"
	"github.com/joseph-ayodele/trade-ledger/internal/normalize"
	"github.com/joseph-ayodele/trade-ledger/internal/repository"
)

type fixture struct {
	svc          *Service
	db           *repository.DB
	inventory    repository.InventoryRepository
	transactions repository.TransactionRepository
}

func newFixture(t *testing.T, ex Extractor) fixture {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{Driver: repository.DriverSQLite}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))

	inv := repository.NewInventoryRepository(db, nil)
	txs := repository.NewTransactionRepository(db, nil)
	if ex == nil {
		clock := func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
		ex = extract.NewExtractor(nil, []extract.Strategy{extract.NewFallbackStrategy(nil, clock)}, extract.WithClock(clock))
	}
	return fixture{
		svc:          NewService(nil, ex, normalize.NewNormalizer(nil, nil), db, inv, txs, 0),
		db:           db,
		inventory:    inv,
		transactions: txs,
	}
}

type stubExtractor extract.Transaction

func (s stubExtractor) ExtractTransactionData(context.Context, string, constants.Language) extract.Transaction {
	return extract.Transaction(s)
}

func TestRecordMessage_PurchaseThenSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	owner := uuid.New()

	res, err := f.svc.RecordMessage(ctx, RecordRequest{OwnerID: owner, Text: "Bought 10 packets of sugar at 50 each"})
	require.NoError(t, err)
	assert.Equal(t, constants.English, res.Language)
	assert.False(t, res.NeedsReview)
	require.NotNil(t, res.Record)
	require.Len(t, res.Record.Items, 1)
	require.NotNil(t, res.Record.Items[0].InventoryItemID)
	assert.Equal(t, "✅ Purchase recorded:\n- sugar: 10 packets @ 50\nTotal: 500", res.Confirmation)

	stock, err := f.inventory.FindByOwnerAndName(ctx, owner, "sugar")
	require.NoError(t, err)
	assert.Equal(t, 10.0, stock.Quantity)
	assert.Equal(t, *res.Record.Items[0].InventoryItemID, stock.ID)

	res, err = f.svc.RecordMessage(ctx, RecordRequest{OwnerID: owner, Text: "nimeuza sukari pakiti 4 kwa Juma 240"})
	require.NoError(t, err)
	assert.Equal(t, constants.Swahili, res.Language)
	assert.Equal(t, constants.TransactionSale, res.Transaction.Type)
	assert.Equal(t, stock.ID, *res.Record.Items[0].InventoryItemID)
	assert.Contains(t, res.Confirmation, "Mauzo")
	assert.Contains(t, res.Confirmation, "Mteja: Juma")

	stock, err = f.inventory.FindByOwnerAndName(ctx, owner, "sugar")
	require.NoError(t, err)
	assert.Equal(t, 6.0, stock.Quantity)
	assert.Equal(t, 60.0, stock.UnitPrice)

	recs, err := f.transactions.ListByOwner(ctx, owner, nil, nil)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestRecordMessage_MatchesLegacyAndPluralNames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	owner := uuid.New()

	legacy, err := f.inventory.Create(ctx, repository.CreateInventoryItemRequest{OwnerID: owner, Name: "Tomato", Unit: "kg", Quantity: 20})
	require.NoError(t, err)

	res, err := f.svc.RecordMessage(ctx, RecordRequest{OwnerID: owner, Text: "I sold 5kg tomatoes for 500 shillings to John"})
	require.NoError(t, err)
	require.NotNil(t, res.Record.Items[0].InventoryItemID)
	assert.Equal(t, legacy.ID, *res.Record.Items[0].InventoryItemID)

	items, err := f.inventory.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 15.0, items[0].Quantity)
}

func TestRecordMessage_LowConfidenceNeedsReview(t *testing.T) {
	ctx := context.Background()
	tx := extract.NewTransaction(extract.Draft{Strategy: constants.StrategyDefault}, time.Now())
	f := newFixture(t, stubExtractor(tx))
	owner := uuid.New()

	res, err := f.svc.RecordMessage(ctx, RecordRequest{OwnerID: owner, Text: "???", Language: "en"})
	require.NoError(t, err)
	assert.True(t, res.NeedsReview)
	assert.True(t, res.Record.NeedsReview)
	assert.Nil(t, res.Record.Items[0].InventoryItemID)
	assert.Contains(t, res.Confirmation, "Please confirm")

	items, err := f.inventory.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRecordMessage_InvalidInput(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.RecordMessage(context.Background(), RecordRequest{Text: "sold 1kg rice"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = f.svc.RecordMessage(context.Background(), RecordRequest{OwnerID: uuid.New(), Text: "  "})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestPreview_DoesNotWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	res, err := f.svc.Preview(ctx, "I sold 5kg tomatoes for 500 shillings to John", "")
	require.NoError(t, err)
	assert.Nil(t, res.Record)
	assert.Equal(t, "✅ Sale recorded:\n- tomatoes: 5 kg @ 100\nTotal: 500\nCustomer: John", res.Confirmation)

	_, err = f.svc.Preview(ctx, "", "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

// slowInventory widens the gap between looking an item up and creating it.
type slowInventory struct {
	repository.InventoryRepository
}

func (s slowInventory) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.InventoryItem, error) {
	items, err := s.InventoryRepository.ListByOwner(ctx, ownerID)
	time.Sleep(5 * time.Millisecond)
	return items, err
}

type failingTransactions struct {
	repository.TransactionRepository
}

func (failingTransactions) Create(context.Context, repository.CreateTransactionRequest) (*entity.TransactionRecord, error) {
	return nil, common.DatabaseError("create transaction", errors.New("disk full"))
}

func TestRecordMessage_ConcurrentNewProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	svc := NewService(nil, f.svc.extractor, nil, f.db, slowInventory{f.inventory}, f.transactions, 0)
	owner := uuid.New()

	const n = 4
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.RecordMessage(ctx, RecordRequest{OwnerID: owner, Text: "Bought 10 packets of sugar at 50 each"})
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	items, err := f.inventory.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 40.0, items[0].Quantity)

	recs, err := f.transactions.ListByOwner(ctx, owner, nil, nil)
	require.NoError(t, err)
	assert.Len(t, recs, n)
}

func TestRecordMessage_FailedPersistLeavesStockUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	svc := NewService(nil, f.svc.extractor, nil, f.db, f.inventory, failingTransactions{f.transactions}, 0)
	owner := uuid.New()

	_, err := svc.RecordMessage(ctx, RecordRequest{OwnerID: owner, Text: "Bought 10 packets of sugar at 50 each"})
	require.ErrorIs(t, err, common.ErrDatabase)

	items, err := f.inventory.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items, "new product rolled back")

	_, err = f.inventory.Create(ctx, repository.CreateInventoryItemRequest{OwnerID: owner, Name: "rice", Unit: "kg", Quantity: 8})
	require.NoError(t, err)
	_, err = svc.RecordMessage(ctx, RecordRequest{OwnerID: owner, Text: "Sold 2 kg rice for 300"})
	require.ErrorIs(t, err, common.ErrDatabase)

	rice, err := f.inventory.FindByOwnerAndName(ctx, owner, "rice")
	require.NoError(t, err)
	assert.Equal(t, 8.0, rice.Quantity)
}
