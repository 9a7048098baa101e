package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/borrowbot/internal/model"
	"github.com/ppiankov/borrowbot/internal/pipeline"
)

var (
	checkTimeout time.Duration
	checkJSON    bool
	noCache      bool
	clearCache   bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <text>",
	Short: "Look up the books in a piece of text without posting anything",
	Long: `Check runs text through the same extraction and availability lookup the
bot uses and prints the replies it would send.

Example:
  borrowbot check 0141439513
  borrowbot check "have you read https://www.amazon.com/dp/0141439513/ ?"
  borrowbot check 9780141439518 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall lookup timeout")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the result as JSON")
	checkCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	checkCmd.Flags().BoolVar(&clearCache, "clear-cache", false, "drop cached redirects and pages before checking")
}

func runCheck(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	cfg := *appConfig
	if noCache {
		cfg.Cache.Enabled = false
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking: %s\n", text)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p, err := newCheckPipeline(&cfg)
	if err != nil {
		return err
	}
	result, err := p.Check(ctx, text)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if checkJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printCheckResult(result)
	return nil
}

// newCheckPipeline builds the pipeline, honoring --clear-cache
func newCheckPipeline(cfg *model.Config) (*pipeline.Pipeline, error) {
	p := pipeline.NewPipeline(cfg)
	if clearCache {
		if err := p.ClearCache(); err != nil {
			return nil, fmt.Errorf("clear cache: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Cache cleared\n")
		}
	}
	return p, nil
}

func printCheckResult(result *pipeline.CheckResult) {
	if len(result.ISBNs) == 0 {
		fmt.Printf("✗ No ISBNs found\n")
		fmt.Printf("  → %s\n", result.Reply)
		return
	}

	for _, lookup := range result.Lookups {
		if lookup.Error != "" {
			fmt.Printf("✗ %s: %s\n", lookup.ISBN, lookup.Error)
			continue
		}
		fmt.Printf("✓ %s (%s)\n", lookup.ISBN, lookup.Outcome.Kind)
		fmt.Printf("  → %s\n", lookup.Reply)
	}
}
