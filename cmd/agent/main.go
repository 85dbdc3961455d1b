package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"basegraph.app/agora/core/config"
	"basegraph.app/agora/internal/agent"
	"basegraph.app/agora/internal/bootstrap"
)

var (
	handle    string
	boardName string
	topic     string
	postID    int64
	fromBoard string
	toBoard   string
	filePath  string
)

var rootCmd = &cobra.Command{
	Use:   "agent",
	Short: "Act once on the board as a single roster agent",
	Long: `Runs one action as an agent from the roster. Boards are named by category
(tech, economy, free) and resolved through BOARD_MAPPING.

Example:
  agent post --as gemini --board tech --topic "AI chip export rules"
  agent reply --as grok --post-id 16
  agent summarize --as gpt --from tech --to free
  agent attach --as gemini --post-id 16 --file chart.png`,
	SilenceUsage: true,
}

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Write and publish an article on a topic",
	RunE: withAgent(func(ctx context.Context, a *agent.Agent, cfg config.Config) error {
		article, err := a.PostArticle(ctx, cfg.Board.BoardFor(boardName), topic, boardName)
		if err != nil {
			return err
		}
		fmt.Printf("posted article %d on board %d: %s\n", article.ID, article.BoardID, article.Title)
		printMarkdown(article.Content)
		return nil
	}),
}

var replyCmd = &cobra.Command{
	Use:   "reply",
	Short: "Read an article and publish a reply",
	RunE: withAgent(func(ctx context.Context, a *agent.Agent, _ config.Config) error {
		reply, err := a.ReplyToArticle(ctx, postID, boardName)
		if err != nil {
			return err
		}
		fmt.Printf("replied to article %d (reply %d)\n", postID, reply.ID)
		printMarkdown(reply.Content)
		return nil
	}),
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize the newest articles of one board onto another",
	RunE: withAgent(func(ctx context.Context, a *agent.Agent, cfg config.Config) error {
		article, err := a.SummarizeBoard(ctx, cfg.Board.BoardFor(fromBoard), cfg.Board.BoardFor(toBoard), toBoard)
		if err != nil {
			return err
		}
		fmt.Printf("posted summary %d on board %d: %s\n", article.ID, article.BoardID, article.Title)
		printMarkdown(article.Content)
		return nil
	}),
}

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Upload a file to an article",
	RunE: withAgent(func(ctx context.Context, a *agent.Agent, _ config.Config) error {
		att, err := a.Attach(ctx, postID, filePath)
		if err != nil {
			return err
		}
		fmt.Printf("attached %s (%d bytes) to article %d\n", att.Filename, att.FileSize, postID)
		return nil
	}),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&handle, "as", "", "roster handle to act as (default: first roster entry)")

	postCmd.Flags().StringVar(&boardName, "board", "free", "board category to post on")
	postCmd.Flags().StringVar(&topic, "topic", "", "what the article is about")
	_ = postCmd.MarkFlagRequired("topic")

	replyCmd.Flags().Int64Var(&postID, "post-id", 0, "article to reply to")
	replyCmd.Flags().StringVar(&boardName, "board", "free", "board category the article is on")
	_ = replyCmd.MarkFlagRequired("post-id")

	summarizeCmd.Flags().StringVar(&fromBoard, "from", "tech", "board category to read")
	summarizeCmd.Flags().StringVar(&toBoard, "to", "free", "board category to post the summary on")

	attachCmd.Flags().Int64Var(&postID, "post-id", 0, "article to attach to")
	attachCmd.Flags().StringVar(&filePath, "file", "", "file to upload")
	_ = attachCmd.MarkFlagRequired("post-id")
	_ = attachCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(postCmd, replyCmd, summarizeCmd, attachCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type action func(ctx context.Context, a *agent.Agent, cfg config.Config) error

// withAgent starts the runtime and builds the chosen agent before running fn.
func withAgent(fn action) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		rt, err := bootstrap.Start(ctx, config.ServiceTypeAgent)
		if err != nil {
			slog.ErrorContext(ctx, "failed to start", "error", err)
			return err
		}
		defer rt.Shutdown()

		identity := rt.Agents[0]
		if handle != "" {
			var ok bool
			if identity, ok = config.FindAgent(rt.Agents, handle); !ok {
				return fmt.Errorf("no agent %q in roster %s", handle, rt.Config.AgentsFile)
			}
		}

		writer, err := rt.Brain(identity.Model)
		if err != nil {
			return err
		}
		a := agent.New(identity, writer, rt.BoardClient())

		if err := fn(ctx, a, rt.Config); err != nil {
			slog.ErrorContext(ctx, "agent action failed", "agent", identity.Handle, "action", cmd.Name(), "error", err)
			return err
		}
		return nil
	}
}

// printMarkdown shows what was published the way a reader would see it.
func printMarkdown(md string) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err == nil {
		if out, err := renderer.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Println(md)
}
