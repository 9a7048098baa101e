package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/borrowbot/internal/bot"
	"github.com/ppiankov/borrowbot/internal/logging"
	"github.com/ppiankov/borrowbot/internal/model"
	"github.com/ppiankov/borrowbot/internal/pipeline"
	"github.com/ppiankov/borrowbot/internal/platform"
)

var (
	replayFile string
	runOnce    bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Answer mentions until interrupted",
	Long: `Run polls the mention timeline, claims each new mention on the cursor
file and replies with the availability of every book it mentions.

On the very first start (no cursor file) the newest mention is claimed
without replying, so an old backlog is never answered.

Example:
  borrowbot run
  borrowbot run --dry-run --once
  borrowbot run --replay mentions.yaml --once`,
	Args: cobra.NoArgs,
	RunE: runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// flag defaults mirror the built-in config
	defaults := model.DefaultConfig()

	runCmd.Flags().StringVar(&replayFile, "replay", "", "read mentions from a YAML file and print replies instead of posting")
	runCmd.Flags().BoolVar(&runOnce, "once", false, "run a single poll cycle and exit")
	runCmd.Flags().Bool("dry-run", false, "log replies instead of posting them")
	runCmd.Flags().String("cursor-file", defaults.Bot.CursorFile, "cursor file path")
	runCmd.Flags().Int("concurrency", defaults.Bot.Concurrency, "mentions handled in parallel")
	runCmd.Flags().Duration("poll-interval", defaults.Bot.PollInterval, "time between polls")

	_ = viper.BindPFlag("bot.dry_run", runCmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("bot.cursor_file", runCmd.Flags().Lookup("cursor-file"))
	_ = viper.BindPFlag("bot.concurrency", runCmd.Flags().Lookup("concurrency"))
	_ = viper.BindPFlag("bot.poll_interval", runCmd.Flags().Lookup("poll-interval"))
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg := appConfig

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithComponent(ctx, "run")
	logger := logging.FromContext(ctx)

	p := pipeline.NewPipeline(cfg)

	client, err := newPlatformClient(cfg, p)
	if err != nil {
		return err
	}

	me, err := client.Me(ctx)
	if err != nil {
		return fmt.Errorf("identify bot account: %w", err)
	}

	cursor := bot.NewFileCursor(cfg.Bot.CursorFile)
	sender := bot.NewSender(client, p.Composer(), cfg.Bot.DryRun)
	orch := bot.NewOrchestrator(bot.OrchestratorOptions{
		Identity:  me,
		Extractor: p.Extractor(),
		Resolver:  p.Resolver(),
		Composer:  p.Composer(),
		Tweets:    client,
		Sender:    sender,
		Cursor:    cursor,
	})
	poller := bot.NewPoller(bot.PollerOptions{
		Source:      client,
		Handler:     orch,
		Cursor:      cursor,
		Interval:    cfg.Bot.PollInterval,
		Limit:       cfg.Bot.MentionLimit,
		Concurrency: cfg.Bot.Concurrency,
	})

	logger.Info("borrowbot started",
		"account", me.Handle,
		"cursor_file", cfg.Bot.CursorFile,
		"dry_run", cfg.Bot.DryRun,
		"poll_interval", cfg.Bot.PollInterval.String())

	if !runOnce {
		return poller.Run(ctx)
	}

	start := time.Now()
	results, err := poller.Poll(ctx)
	if err != nil {
		return fmt.Errorf("poll: %w", err)
	}
	printRunSummary(results, sender.Sent(), time.Since(start))
	return nil
}

func newPlatformClient(cfg *model.Config, p *pipeline.Pipeline) (platform.Client, error) {
	if replayFile != "" {
		return platform.LoadReplay(replayFile, os.Stdout)
	}
	return platform.NewTwitter(platform.TwitterOptions{
		BaseURL:     cfg.Twitter.APIURL,
		BearerToken: cfg.Twitter.BearerToken,
		Timeout:     cfg.HTTP.Timeout,
		UserAgent:   cfg.HTTP.UserAgent,
		Limiter:     p.Limiter(),
	})
}

func printRunSummary(results []bot.Result, replies int, elapsed time.Duration) {
	counts := map[bot.State]int{}
	for _, r := range results {
		counts[r.State]++
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Mentions:  %d\n", len(results))
	fmt.Fprintf(os.Stderr, "  Done:      %d\n", counts[bot.StateDone])
	fmt.Fprintf(os.Stderr, "  Skipped:   %d\n", counts[bot.StateSkipped])
	fmt.Fprintf(os.Stderr, "  Failed:    %d\n", counts[bot.StateFailed])
	fmt.Fprintf(os.Stderr, "  Replies:   %d\n", replies)
	fmt.Fprintf(os.Stderr, "  Elapsed:   %s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "\n")
}
