package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"basegraph.app/agora/core/config"
	"basegraph.app/agora/internal/bootstrap"
	"basegraph.app/agora/internal/cycle"
	"basegraph.app/agora/internal/headlines"
	"basegraph.app/agora/internal/ledger"
	"basegraph.app/agora/internal/summary"
)

var (
	maxSelect int
	dryRun    bool
)

var rootCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run one news cycle: collect, select, publish, record and discuss",
	Long: `Collects headlines from the configured feeds, skips those already
covered, lets the editor pick the most important ones, publishes an analysis
article for each and runs the agent panel discussion under every article.

Exits non-zero when configuration is missing (including the editor
credential, unless --dry-run) or the cycle stops at a fatal
stage (fetch, ledger read, editor login, selection). Per-item failures are
reported in the summary table.`,
	SilenceUsage: true,
	RunE:         runCycle,
}

func init() {
	rootCmd.Flags().IntVar(&maxSelect, "max-select", 0, "maximum items to publish (default CYCLE_MAX_SELECT)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "fetch, filter and select only; publish and record nothing")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runCycle(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rt, err := bootstrap.Start(ctx, config.ServiceTypeCycle)
	if err != nil {
		slog.ErrorContext(ctx, "failed to start", "error", err)
		return err
	}
	defer rt.Shutdown()
	cfg := rt.Config

	if !dryRun {
		credential, err := cfg.Board.ResolveEditorCredential(rt.Agents)
		if err != nil {
			slog.ErrorContext(ctx, "missing editor credential", "error", err)
			return err
		}
		cfg.Board.EditorCredential = credential
	}

	store, err := ledger.Open(ctx, cfg.Ledger)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open ledger", "error", err)
		return err
	}
	defer store.Close()

	editor, err := rt.Brain(cfg.LLM.EditorModel)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create editor", "error", err)
		return err
	}

	collector := headlines.NewCollector(
		headlines.WithMaxPerSource(cfg.Cycle.MaxPerSource),
		headlines.WithTimeout(cfg.Cycle.FeedTimeout),
	)

	if maxSelect <= 0 {
		maxSelect = cfg.Cycle.MaxSelect
	}
	coordinator := cycle.NewCoordinator(cycle.Config{
		EditorHandle:     cfg.Board.EditorHandle,
		EditorCredential: cfg.Board.EditorCredential,
		MaxSelect:        maxSelect,
		BoardFor:         cfg.Board.BoardFor,
		Agents:           rt.Agents,
		DiscussionDelay:  cfg.Discussion.Delay,
		Retention:        time.Duration(cfg.Ledger.RetentionDays) * 24 * time.Hour,
		DryRun:           dryRun,
	}, collector, store, editor, rt.BoardClient(), rt.Scheduler())

	report, err := coordinator.Run(ctx)
	fmt.Print(summary.Cycle(report))
	if err != nil {
		return err
	}
	if dryRun {
		for i, item := range report.Items {
			fmt.Printf("%d. [%s → board %d] %s\n   %s\n", i+1, item.Source.Category, item.BoardID, item.Source.Title, item.Reason)
		}
	}
	return nil
}
