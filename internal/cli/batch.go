package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/docstruct/internal/extract"
	"github.com/ppiankov/docstruct/internal/pipeline"
)

const maxSlugLen = 100

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchHTML    bool
	batchFlags   runFlags
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze many documents from a list file in parallel",
	Long: `Batch analyzes many documents concurrently:
- Read files and URLs from the input file (one per line, '#' comments)
- Analyze documents in parallel with a configurable worker count
- Write a JSON snapshot and a Markdown summary per document

Example:
  docstruct batch targets.txt
  docstruct batch targets.txt --concurrency 8 --output-dir ./structure
  docstruct batch targets.txt --llm --llm-provider ollama --llm-model llama3`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of documents analyzed concurrently")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./docstruct-out", "output directory")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchHTML, "html", false, "also write an HTML comparison per document")

	batchFlags.register(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := batchFlags.apply(cmd, cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  docstruct Batch Analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg, newLogger(os.Stderr, slog.LevelWarn))
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "⚙️  Analyzing documents with %d workers...\n\n", cfg.Concurrency.Workers)

	results, err := p.RunBatchFile(ctx, file, cfg.Concurrency.Workers)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0
	used := make(map[string]int)

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Target, result.Error)
			continue
		}

		r := result.Value
		slug := uniqueSlug(used, slugFor(r.Target))
		base := filepath.Join(outputDir, slug)

		if err := pipeline.RenderJSON(r.Document, base+".json"); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Target, err)
			continue
		}
		if err := pipeline.RenderMarkdown(r.Synthesis, base+".md"); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Target, err)
			continue
		}
		if batchHTML {
			if err := pipeline.RenderComparison(r.Document, r.Synthesis, base+".html"); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write comparison: %v\n", result.Target, err)
			}
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%d paragraphs, %d points, %d warnings)\n",
			r.Document.Title(), len(r.Document.Paragraphs), len(r.Document.ArgumentTree.Points), len(r.Warnings))
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d documents\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// slugFor derives an output file stem from a file path or URL
func slugFor(target string) string {
	name := target
	if extract.IsURL(target) {
		name = strings.TrimPrefix(strings.TrimPrefix(target, "https://"), "http://")
		name = strings.TrimSuffix(name, "/")
	} else {
		name = strings.TrimSuffix(filepath.Base(target), filepath.Ext(target))
	}
	return sanitizeFilename(name)
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, "._-")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	if s == "" {
		s = "document"
	}
	return s
}

// uniqueSlug appends a counter when slug was already used in this batch
func uniqueSlug(used map[string]int, slug string) string {
	used[slug]++
	if n := used[slug]; n > 1 {
		return fmt.Sprintf("%s-%d", slug, n)
	}
	return slug
}
