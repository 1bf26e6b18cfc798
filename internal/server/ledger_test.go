package server

import (
	"context"
	"encoding/base64"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/trade-ledger/internal/async"
	"github.com/joseph-ayodele/trade-ledger/internal/common"
	"github.com/joseph-ayodele/trade-ledger/internal/extract"
	"github.com/joseph-ayodele/trade-ledger/internal/ledger"
	"github.com/joseph-ayodele/trade-ledger/internal/normalize"
	"github.com/joseph-ayodele/trade-ledger/internal/repository"
)

var fixedNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type fakeExporter struct {
	owner    uuid.UUID
	from, to *time.Time
	err      error
}

func (f *fakeExporter) ExportTransactionsXLSX(_ context.Context, ownerID uuid.UUID, from, to *time.Time) ([]byte, error) {
	f.owner, f.from, f.to = ownerID, from, to
	if f.err != nil {
		return nil, f.err
	}
	return []byte("PK-xlsx"), nil
}

type fakeQueue struct {
	jobs []async.Job
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, job async.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Shutdown(context.Context) {}

type failingRecorder struct{ err error }

func (f failingRecorder) RecordMessage(context.Context, ledger.RecordRequest) (*ledger.RecordResult, error) {
	return nil, f.err
}

func (f failingRecorder) Preview(context.Context, string, string) (*ledger.RecordResult, error) {
	return nil, f.err
}

func newLedger(t *testing.T) *ledger.Service {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{Driver: repository.DriverSQLite}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))

	clock := func() time.Time { return fixedNow }
	ex := extract.NewExtractor(nil, []extract.Strategy{extract.NewFallbackStrategy(nil, clock)}, extract.WithClock(clock))
	return ledger.NewService(nil, ex, normalize.NewNormalizer(nil, nil), db,
		repository.NewInventoryRepository(db, nil), repository.NewTransactionRepository(db, nil), 0)
}

// dial serves srv over an in-memory listener and returns a client for it.
func dial(t *testing.T, srv *LedgerServer) *LedgerServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	RegisterLedgerServiceServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewLedgerServiceClient(conn)
}

func newStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func TestRecordMessage_OverGRPC(t *testing.T) {
	client := dial(t, NewLedgerServer(newLedger(t), &fakeExporter{}, nil, nil))
	owner := uuid.New()

	out, err := client.RecordMessage(context.Background(), newStruct(t, map[string]any{
		"owner_id": owner.String(),
		"text":     "Sold 5kg tomatoes to John for 500",
	}))
	require.NoError(t, err)

	m := out.AsMap()
	assert.Equal(t, "✅ Sale recorded:\n- tomatoes: 5 kg @ 100\nTotal: 500\nCustomer: John", m["confirmation"])
	assert.Equal(t, "en", m["language"])
	assert.Equal(t, false, m["needs_review"])
	_, err = uuid.Parse(m["transaction_id"].(string))
	assert.NoError(t, err)

	tx := m["transaction"].(map[string]any)
	assert.Equal(t, "sale", tx["transaction_type"])
	assert.Equal(t, 500.0, tx["total_amount"])
	assert.Equal(t, "John", tx["customer_name"])
	assert.Equal(t, "fallback", tx["strategy"])
	assert.Equal(t, "medium", tx["confidence"])
	assert.Equal(t, "2026-03-14", tx["date"])
	items := tx["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "tomatoes", item["name"])
	assert.Equal(t, 5.0, item["quantity"])
	assert.Equal(t, "kg", item["unit"])
	assert.Equal(t, 100.0, item["unit_price"])
}

func TestRecordMessage_Validation(t *testing.T) {
	client := dial(t, NewLedgerServer(newLedger(t), &fakeExporter{}, nil, nil))

	cases := map[string]map[string]any{
		"missing owner": {"text": "Sold 2 kg rice for 300"},
		"bad owner":     {"owner_id": "nope", "text": "Sold 2 kg rice for 300"},
		"missing text":  {"owner_id": uuid.NewString()},
		"bad language":  {"owner_id": uuid.NewString(), "text": "Sold rice", "language": "fr"},
	}
	for name, fields := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := client.RecordMessage(context.Background(), newStruct(t, fields))
			require.Error(t, err)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestRecordMessage_StorageFailureIsInternal(t *testing.T) {
	rec := failingRecorder{err: common.DatabaseError("transactions.create", errors.New("disk full"))}
	client := dial(t, NewLedgerServer(rec, &fakeExporter{}, nil, nil))

	_, err := client.RecordMessage(context.Background(), newStruct(t, map[string]any{
		"owner_id": uuid.NewString(),
		"text":     "Sold 2 kg rice for 300",
	}))
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.NotContains(t, err.Error(), "disk full")
}

func TestPreviewMessage_Swahili(t *testing.T) {
	client := dial(t, NewLedgerServer(newLedger(t), &fakeExporter{}, nil, nil))

	out, err := client.PreviewMessage(context.Background(), newStruct(t, map[string]any{
		"text": "Nimeuza kilo 3 za sukari kwa Amina 450",
	}))
	require.NoError(t, err)
	m := out.AsMap()
	assert.Equal(t, "sw", m["language"])
	assert.NotContains(t, m, "transaction_id")
	assert.Contains(t, m["confirmation"], "Mauzo imerekodiwa")
}

func TestSubmitMessage(t *testing.T) {
	q := &fakeQueue{}
	srv := NewLedgerServer(newLedger(t), &fakeExporter{}, q, nil)
	srv.now = func() time.Time { return fixedNow }
	client := dial(t, srv)
	owner := uuid.New()

	out, err := client.SubmitMessage(context.Background(), newStruct(t, map[string]any{
		"owner_id": owner.String(),
		"text":     "Bought 10 packets of sugar at 50 each",
		"language": "en",
	}))
	require.NoError(t, err)
	require.Len(t, q.jobs, 1)
	assert.Equal(t, owner, q.jobs[0].OwnerID)
	assert.Equal(t, "en", q.jobs[0].Language)
	assert.Equal(t, fixedNow, q.jobs[0].SubmittedAt)
	assert.Equal(t, q.jobs[0].TraceID, out.AsMap()["trace_id"])
}

func TestSubmitMessage_Unavailable(t *testing.T) {
	req := map[string]any{"owner_id": uuid.NewString(), "text": "Sold 2 kg rice for 300"}

	client := dial(t, NewLedgerServer(newLedger(t), &fakeExporter{}, nil, nil))
	_, err := client.SubmitMessage(context.Background(), newStruct(t, req))
	assert.Equal(t, codes.Unavailable, status.Code(err))

	client = dial(t, NewLedgerServer(newLedger(t), &fakeExporter{}, &fakeQueue{err: async.ErrQueueClosed}, nil))
	_, err = client.SubmitMessage(context.Background(), newStruct(t, req))
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestExportTransactions(t *testing.T) {
	exp := &fakeExporter{}
	srv := NewLedgerServer(newLedger(t), exp, nil, nil)
	srv.now = func() time.Time { return fixedNow }
	client := dial(t, srv)
	owner := uuid.New()

	out, err := client.ExportTransactions(context.Background(), newStruct(t, map[string]any{
		"owner_id":  owner.String(),
		"from_date": "2026-03-01",
	}))
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(out.AsMap()["xlsx"].(string))
	require.NoError(t, err)
	assert.Equal(t, "PK-xlsx", string(raw))
	assert.Equal(t, owner, exp.owner)
	require.NotNil(t, exp.from)
	require.NotNil(t, exp.to)
	assert.Equal(t, "2026-03-01", exp.from.Format(time.DateOnly))
	assert.Equal(t, "2026-03-14", exp.to.Format(time.DateOnly))
}

func TestExportTransactions_InvalidDates(t *testing.T) {
	client := dial(t, NewLedgerServer(newLedger(t), &fakeExporter{}, nil, nil))
	owner := uuid.NewString()

	for _, fields := range []map[string]any{
		{"owner_id": owner, "from_date": "14/03/2026"},
		{"owner_id": owner, "to_date": "yesterday"},
		{"owner_id": owner, "from_date": "2026-03-10", "to_date": "2026-03-01"},
		{"from_date": "2026-03-01"},
	} {
		_, err := client.ExportTransactions(context.Background(), newStruct(t, fields))
		assert.Equal(t, codes.InvalidArgument, status.Code(err), fields)
	}
}
