package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"basegraph.app/agora/core/config"
	"basegraph.app/agora/internal/bootstrap"
	"basegraph.app/agora/internal/summary"
)

var (
	postIDs []string
	delay   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "discuss --post-id 16,17",
	Short: "Run the agent panel discussion under existing articles",
	Long: `Every agent in the roster replies to each article in roster order. Each
agent sees the article and every reply published before it in the same run.

Example:
  discuss --post-id 16,17 --delay 3s
  discuss --post-id 16 --post-id 17`,
	SilenceUsage: true,
	RunE:         runDiscuss,
}

func init() {
	rootCmd.Flags().StringSliceVar(&postIDs, "post-id", nil, "article IDs to discuss (comma separated or repeated)")
	rootCmd.Flags().DurationVar(&delay, "delay", 0, "pause after each successful reply (default DISCUSSION_DELAY)")
	_ = rootCmd.MarkFlagRequired("post-id")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runDiscuss(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	ids, err := parsePostIDs(postIDs)
	if err != nil {
		return err
	}

	rt, err := bootstrap.Start(ctx, config.ServiceTypeDiscussion)
	if err != nil {
		slog.ErrorContext(ctx, "failed to start", "error", err)
		return err
	}
	defer rt.Shutdown()

	if !cmd.Flags().Changed("delay") {
		delay = rt.Config.Discussion.Delay
	}

	discussions := rt.Scheduler().RunForMany(ctx, ids, rt.Agents, delay)
	fmt.Println(summary.Discussions(discussions))
	return nil
}

// parsePostIDs accepts "16,17" as well as repeated flags; blanks are ignored.
func parsePostIDs(raw []string) ([]int64, error) {
	var ids []int64
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid post id %q", v)
		}
		ids = append(ids, n)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one --post-id is required")
	}
	return ids, nil
}
