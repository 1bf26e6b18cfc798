package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/trade-ledger/internal/async"
	"github.com/joseph-ayodele/trade-ledger/internal/common"
	"github.com/joseph-ayodele/trade-ledger/internal/ledger"
)

// MaxMessageLength bounds the text accepted per request, in runes.
const MaxMessageLength = 2000

// Recorder is the part of *ledger.Service the server needs.
type Recorder interface {
	RecordMessage(ctx context.Context, req ledger.RecordRequest) (*ledger.RecordResult, error)
	Preview(ctx context.Context, text, langHint string) (*ledger.RecordResult, error)
}

// Exporter renders an owner's ledger as an XLSX workbook.
type Exporter interface {
	ExportTransactionsXLSX(ctx context.Context, ownerID uuid.UUID, from, to *time.Time) ([]byte, error)
}

type LedgerServer struct {
	recorder Recorder
	exporter Exporter
	queue    async.Queue
	now      func() time.Time
	logger   *slog.Logger
}

// NewLedgerServer wires the handlers. queue may be nil, in which case
// SubmitMessage answers Unavailable.
func NewLedgerServer(recorder Recorder, exporter Exporter, queue async.Queue, logger *slog.Logger) *LedgerServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerServer{
		recorder: recorder,
		exporter: exporter,
		queue:    queue,
		now:      time.Now,
		logger:   logger,
	}
}

type messageRequest struct {
	ownerID  uuid.UUID
	text     string
	language string
}

func parseMessageRequest(req *structpb.Struct, needOwner bool) (messageRequest, error) {
	owner := strings.TrimSpace(stringField(req, "owner_id"))
	text := strings.TrimSpace(stringField(req, "text"))
	lang := strings.TrimSpace(stringField(req, "language"))

	v := common.NewValidator()
	if needOwner {
		v.Field("owner_id", owner, common.Required, common.UUID)
	}
	v.Field("text", text, common.Required, common.MaxLength(MaxMessageLength))
	v.Field("language", lang, common.LanguageTag)
	if err := common.ValidateAndReturnError(v); err != nil {
		return messageRequest{}, err
	}

	out := messageRequest{text: text, language: lang}
	if needOwner {
		out.ownerID = uuid.MustParse(owner)
	}
	return out, nil
}

func withRequestID(ctx context.Context) (context.Context, string) {
	if id := common.RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.New().String()
	return common.WithRequestID(ctx, id), id
}

// RecordMessage extracts, stores and confirms one trader message.
func (s *LedgerServer) RecordMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, err := parseMessageRequest(req, true)
	if err != nil {
		s.logger.Warn("grpc.record.invalid", "err", err)
		return nil, err
	}
	ctx, reqID := withRequestID(ctx)
	ctx = common.WithOwnerID(ctx, in.ownerID.String())

	res, err := s.recorder.RecordMessage(ctx, ledger.RecordRequest{
		OwnerID:  in.ownerID,
		Text:     in.text,
		Language: in.language,
	})
	if err != nil {
		s.logger.Error("grpc.record.failed", "req_id", reqID, "owner_id", in.ownerID, "err", err)
		return nil, common.ToStatus(err)
	}
	out, err := resultStruct(res)
	if err != nil {
		return nil, common.InternalErrorf("encode result: %v", err)
	}
	return out, nil
}

// SubmitMessage queues the message for background recording and returns its trace id.
func (s *LedgerServer) SubmitMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.queue == nil {
		return nil, status.Error(codes.Unavailable, "background recording is disabled")
	}
	in, err := parseMessageRequest(req, true)
	if err != nil {
		return nil, err
	}
	traceID := uuid.New().String()
	err = s.queue.Enqueue(ctx, async.Job{
		OwnerID:     in.ownerID,
		Text:        in.text,
		Language:    in.language,
		TraceID:     traceID,
		SubmittedAt: s.now(),
	})
	switch {
	case errors.Is(err, async.ErrQueueClosed):
		return nil, status.Error(codes.Unavailable, err.Error())
	case err != nil:
		return nil, status.FromContextError(err).Err()
	}
	s.logger.Info("grpc.submit.queued", "owner_id", in.ownerID, "trace_id", traceID)
	return structpb.NewStruct(map[string]any{"trace_id": traceID, "queued": true})
}

// PreviewMessage runs extraction and renders the confirmation without storing anything.
func (s *LedgerServer) PreviewMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, err := parseMessageRequest(req, false)
	if err != nil {
		return nil, err
	}
	ctx, _ = withRequestID(ctx)
	res, err := s.recorder.Preview(ctx, in.text, in.language)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	out, err := resultStruct(res)
	if err != nil {
		return nil, common.InternalErrorf("encode result: %v", err)
	}
	return out, nil
}

// ExportTransactions returns the owner's ledger as base64 XLSX in "xlsx".
// Dates are optional YYYY-MM-DD; a lone from_date runs to today.
func (s *LedgerServer) ExportTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	owner := strings.TrimSpace(stringField(req, "owner_id"))
	v := common.NewValidator()
	v.Field("owner_id", owner, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	ownerID := uuid.MustParse(owner)

	from, err := parseDate(stringField(req, "from_date"))
	if err != nil {
		return nil, common.InvalidArgumentError("from_date must be YYYY-MM-DD")
	}
	to, err := parseDate(stringField(req, "to_date"))
	if err != nil {
		return nil, common.InvalidArgumentError("to_date must be YYYY-MM-DD")
	}
	if from != nil && to == nil {
		today := s.now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, common.InvalidArgumentError("to_date must not be before from_date")
	}

	xlsx, err := s.exporter.ExportTransactionsXLSX(ctx, ownerID, from, to)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "owner_id", ownerID, "err", err)
		return nil, common.ToStatus(err)
	}
	return structpb.NewStruct(map[string]any{"xlsx": xlsx})
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
