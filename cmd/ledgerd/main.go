package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/trade-ledger/internal/app"
	"github.com/joseph-ayodele/trade-ledger/internal/async"
	"github.com/joseph-ayodele/trade-ledger/internal/common"
	"github.com/joseph-ayodele/trade-ledger/internal/ingest"
	"github.com/joseph-ayodele/trade-ledger/internal/ledger"
	"github.com/joseph-ayodele/trade-ledger/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env", "error", err)
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	logger := app.NewLogger(os.Stdout, cfg.Log.Level)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start ledger", "error", err, "db_driver", cfg.Database.Driver)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.DB.HealthCheck(ctx, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	queue := async.NewMessageQueue(a.Ledger, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
		async.WithResultHandler(func(job async.Job, res *ledger.RecordResult, err error) {
			if err == nil && res.NeedsReview {
				logger.Warn("ledger.review.needed", "owner_id", job.OwnerID, "trace_id", job.TraceID, "transaction_id", res.Record.ID)
			}
		}),
	)

	if cfg.Inbox.Dir != "" {
		inbox := ingest.NewInbox(queue, logger)
		go func() {
			err := inbox.Watch(ctx, ingest.WatchConfig{Root: cfg.Inbox.Dir, InitialScan: true, Debounce: cfg.Inbox.Debounce})
			if err != nil {
				logger.Error("inbox watcher stopped", "dir", cfg.Inbox.Dir, "error", err)
			}
		}()
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	server.RegisterLedgerServiceServer(grpcServer, server.NewLedgerServer(a.Ledger, a.Export, queue, logger))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	logger.Info("ledgerd listening", "addr", addr, "llm_provider", cfg.LLM.Provider, "db_driver", cfg.Database.Driver)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	healthServer.Shutdown()
	grpcServer.GracefulStop()

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(drainCtx)
	logger.Info("ledgerd stopped")
}
