package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/trade-ledger/constants"
	"github.com/joseph-ayodele/trade-ledger/internal/app"
	"github.com/joseph-ayodele/trade-ledger/internal/async"
	"github.com/joseph-ayodele/trade-ledger/internal/common"
	"github.com/joseph-ayodele/trade-ledger/internal/confirm"
	"github.com/joseph-ayodele/trade-ledger/internal/extract"
	"github.com/joseph-ayodele/trade-ledger/internal/ingest"
	"github.com/joseph-ayodele/trade-ledger/internal/language"
	"github.com/joseph-ayodele/trade-ledger/internal/ledger"
)

type extractCmd struct {
	cfg      *common.Config
	logger   *slog.Logger
	lang     string
	repeat   int
	provider string
}

func newExtractCmd(cfg *common.Config, logger *slog.Logger) *cobra.Command {
	ec := &extractCmd{cfg: cfg, logger: logger}
	cmd := &cobra.Command{
		Use:   "extract <text>",
		Short: "Extract a transaction from a message without storing it",
		Args:  cobra.MinimumNArgs(1),
		RunE:  ec.run,
	}
	cmd.Flags().StringVar(&ec.lang, "lang", "", "Language hint (en or sw); detected when empty")
	cmd.Flags().IntVar(&ec.repeat, "repeat", 1, "Run the extraction this many times, e.g. to compare model replies")
	cmd.Flags().StringVar(&ec.provider, "provider", "", "Override LLM_PROVIDER (openai, gemini or none)")
	return cmd
}

func (ec *extractCmd) run(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	llmCfg := ec.cfg.LLM
	if ec.provider != "" {
		llmCfg.Provider = strings.ToLower(ec.provider)
	}
	if llmCfg.Provider != "none" && llmCfg.APIKey == "" {
		ec.logger.Warn("no API key configured, using the fallback parser only", "provider", llmCfg.Provider)
		llmCfg.Provider = "none"
	}

	ctx := cmd.Context()
	gen, err := app.NewGenerator(ctx, llmCfg, ec.logger)
	if err != nil {
		return err
	}
	n, err := app.NewNormalizer(ec.cfg.Extraction, ec.logger)
	if err != nil {
		return err
	}
	ex, err := app.NewExtractor(gen, n, ec.cfg.Extraction, ec.logger)
	if err != nil {
		return err
	}

	lang := language.Resolve(text, ec.lang)
	for i := 1; i <= max(ec.repeat, 1); i++ {
		start := time.Now()
		tx := ex.ExtractTransactionData(ctx, text, lang)
		ec.logger.Debug("cli.extract.run", "iter", i, "strategy", tx.Strategy, "elapsed_ms", time.Since(start).Milliseconds())
		if err := printTransaction(cmd.OutOrStdout(), tx, lang, ec.cfg.Extraction.ReviewThreshold); err != nil {
			return err
		}
	}
	return nil
}

func printTransaction(w io.Writer, tx extract.Transaction, lang constants.Language, threshold float32) error {
	out, err := json.MarshalIndent(tx, "", "  ")
	if err != nil {
		return err
	}
	text := confirm.GenerateConfirmation(tx, lang)
	if tx.Confidence.NeedsReview(threshold) {
		text += "\n" + confirm.ReviewNote(lang)
	}
	_, err = fmt.Fprintf(w, "%s\n\n%s\n", out, text)
	return err
}

type recordCmd struct {
	cfg    *common.Config
	logger *slog.Logger
	owner  string
	lang   string
}

func newRecordCmd(cfg *common.Config, logger *slog.Logger) *cobra.Command {
	rc := &recordCmd{cfg: cfg, logger: logger}
	cmd := &cobra.Command{
		Use:   "record <text>",
		Short: "Extract a transaction, update inventory and store it",
		Args:  cobra.MinimumNArgs(1),
		RunE:  rc.run,
	}
	cmd.Flags().StringVar(&rc.owner, "owner", "", "Owner (trader) UUID")
	cmd.Flags().StringVar(&rc.lang, "lang", "", "Language hint (en or sw); detected when empty")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func (rc *recordCmd) run(cmd *cobra.Command, args []string) error {
	ownerID, err := uuid.Parse(rc.owner)
	if err != nil {
		return fmt.Errorf("--owner must be a UUID: %w", err)
	}
	if err := rc.cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()
	a, err := app.Open(ctx, rc.cfg, rc.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Ledger.RecordMessage(ctx, ledger.RecordRequest{
		OwnerID:  ownerID,
		Text:     strings.Join(args, " "),
		Language: rc.lang,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n(transaction %s)\n", res.Confirmation, res.Record.ID)
	return err
}

type exportCmd struct {
	cfg    *common.Config
	logger *slog.Logger
	owner  string
	from   string
	to     string
	out    string
}

func newExportCmd(cfg *common.Config, logger *slog.Logger) *cobra.Command {
	xc := &exportCmd{cfg: cfg, logger: logger}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an owner's transactions to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE:  xc.run,
	}
	cmd.Flags().StringVar(&xc.owner, "owner", "", "Owner (trader) UUID")
	cmd.Flags().StringVar(&xc.from, "from", "", "First day to include, YYYY-MM-DD")
	cmd.Flags().StringVar(&xc.to, "to", "", "Last day to include, YYYY-MM-DD")
	cmd.Flags().StringVar(&xc.out, "out", "ledger.xlsx", "Output file")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func (xc *exportCmd) run(cmd *cobra.Command, _ []string) error {
	ownerID, err := uuid.Parse(xc.owner)
	if err != nil {
		return fmt.Errorf("--owner must be a UUID: %w", err)
	}
	from, err := parseDay(xc.from)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := parseDay(xc.to)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	if err := xc.cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()
	a, err := app.Open(ctx, xc.cfg, xc.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	xlsx, err := a.Export.ExportTransactionsXLSX(ctx, ownerID, from, to)
	if err != nil {
		return err
	}
	if err := os.WriteFile(xc.out, xlsx, 0o644); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", xc.out, len(xlsx))
	return err
}

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type importCmd struct {
	cfg        *common.Config
	logger     *slog.Logger
	dir        string
	skipHidden bool
}

func newImportCmd(cfg *common.Config, logger *slog.Logger) *cobra.Command {
	ic := &importCmd{cfg: cfg, logger: logger}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Record every message file under an inbox directory (<dir>/<owner uuid>/*.txt)",
		Args:  cobra.NoArgs,
		RunE:  ic.run,
	}
	cmd.Flags().StringVar(&ic.dir, "dir", "", "Inbox root directory")
	cmd.Flags().BoolVar(&ic.skipHidden, "skip-hidden", true, "Skip hidden files and directories")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func (ic *importCmd) run(cmd *cobra.Command, _ []string) error {
	if err := ic.cfg.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := app.Open(ctx, ic.cfg, ic.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var mu sync.Mutex
	var recorded, review, failed int
	w := cmd.OutOrStdout()
	queue := async.NewMessageQueue(a.Ledger, ic.logger,
		async.WithWorkers(ic.cfg.Queue.Workers),
		async.WithQueueSize(ic.cfg.Queue.Size),
		async.WithProcessTimeout(ic.cfg.Queue.ProcessTimeout),
		async.WithResultHandler(func(job async.Job, res *ledger.RecordResult, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				fmt.Fprintf(w, "[%s] failed: %v\n", job.TraceID, err)
				return
			}
			recorded++
			if res.NeedsReview {
				review++
			}
			fmt.Fprintf(w, "[%s] %s\n", job.TraceID, res.Confirmation)
		}),
	)

	_, stats, importErr := ingest.NewInbox(queue, ic.logger).ImportDirectory(ctx, ic.dir, ic.skipHidden)
	queue.Shutdown(ctx)
	if importErr != nil {
		return importErr
	}
	_, err = fmt.Fprintf(w, "files: %d matched, %d duplicate, %d failed; messages: %d recorded (%d need review), %d failed\n",
		stats.Matched, stats.Deduplicated, stats.Failed, recorded, review, failed)
	return err
}
