package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/trade-ledger/internal/app"
	"github.com/joseph-ayodele/trade-ledger/internal/common"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
	}
	cfg := common.LoadConfig()
	logger := app.NewLogger(os.Stderr, cfg.Log.Level)
	slog.SetDefault(logger)

	rootCmd := &cobra.Command{
		Use:           "ledger",
		Short:         "Record trader messages in English or Swahili",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		newExtractCmd(cfg, logger),
		newRecordCmd(cfg, logger),
		newExportCmd(cfg, logger),
		newImportCmd(cfg, logger),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
