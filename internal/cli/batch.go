package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/borrowbot/internal/pipeline"
	"github.com/ppiankov/borrowbot/internal/worker"
)

var (
	batchConcurrency int
	batchOutput      string
	batchTimeout     time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Check many texts from a file in parallel",
	Long: `Batch reads one text per line (an ISBN, a link or a whole post) and runs
each through the lookup chain concurrently. Nothing is posted.

Example:
  borrowbot batch texts.txt
  borrowbot batch texts.txt --concurrency 8 --output results.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "number of concurrent workers")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write results as JSON to this file")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	batchCmd.Flags().BoolVar(&clearCache, "clear-cache", false, "drop cached redirects and pages before the batch")
}

// checkJob runs one line through the pipeline
type checkJob struct {
	pipeline *pipeline.Pipeline
	line     int
	text     string
}

type checkJobResult struct {
	Line   int                   `json:"line"`
	Result *pipeline.CheckResult `json:"result,omitempty"`
	Err    error                 `json:"-"`
	Error  string                `json:"error,omitempty"`
}

func (r *checkJobResult) GetError() error { return r.Err }

func (j *checkJob) Execute(ctx context.Context) worker.Result {
	result, err := j.pipeline.Check(ctx, j.text)
	r := &checkJobResult{Line: j.line, Result: result, Err: err}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg := *appConfig
	if noCache {
		cfg.Cache.Enabled = false
	}

	texts, err := readLines(file)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  BorrowBot Batch Check\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Texts:        %d\n", len(texts))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", batchConcurrency)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	p, err := newCheckPipeline(&cfg)
	if err != nil {
		return err
	}

	jobs := make([]worker.Job, 0, len(texts))
	for i, text := range texts {
		jobs = append(jobs, &checkJob{pipeline: p, line: i + 1, text: text})
	}

	pool := worker.NewPool(ctx, batchConcurrency)
	pool.Start()
	raw := pool.Run(jobs)

	results := make([]*checkJobResult, len(texts))
	for _, r := range raw {
		if res, ok := r.(*checkJobResult); ok {
			results[res.Line-1] = res
		}
	}

	found, failures := 0, 0
	for i, res := range results {
		switch {
		case res == nil:
			failures++
			fmt.Fprintf(os.Stderr, "✗ line %d: not processed\n", i+1)
		case res.Err != nil:
			failures++
			fmt.Fprintf(os.Stderr, "✗ line %d: %v\n", res.Line, res.Err)
		default:
			found += len(res.Result.ISBNs)
			fmt.Fprintf(os.Stderr, "✓ line %d: %d ISBN(s)\n", res.Line, len(res.Result.ISBNs))
		}
	}

	if batchOutput != "" {
		if err := writeJSON(batchOutput, results); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d texts\n", len(texts))
	fmt.Fprintf(os.Stderr, "  ISBNs:     %d\n", found)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failures)
	if batchOutput != "" {
		fmt.Fprintf(os.Stderr, "  Output:    %s\n", batchOutput)
	}
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// readLines returns the non-blank lines of a file
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return lines, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
