package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/raphaelgruber/paydesk/internal/app"
	"github.com/raphaelgruber/paydesk/internal/config"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the sample payments to the configured store",
	Long: `Write the built-in sample payments (PAY123456, PAY789012, PAY345678) to
the payment store configured through PAYDESK_MEMORY_BACKEND. This talks to
the database directly, not to the server.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	}

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(ctx) }()

	n, err := a.SeedSamplePayments(ctx)
	if err != nil {
		return fmt.Errorf("seed payments: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), defaultTheme.successStyle().Render(fmt.Sprintf("Seeded %d sample payments into %s.", n, cfg.MemoryBackend)))
	return nil
}
