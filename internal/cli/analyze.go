package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/docstruct/internal/pipeline"
)

var (
	outJSON        string
	outMD          string
	outHTML        string
	format         string
	analyzeTimeout time.Duration
	analyzeFlags   runFlags
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|url>",
	Short: "Analyze the structure of one document",
	Long: `Analyze reads a text, Markdown, HTML or PDF file (or fetches a URL) and:
- Splits it into paragraphs and sentences
- Tags each paragraph with its structural role
- Builds the argument tree (thesis, points, conclusion)
- Writes a Markdown transcript of the argument

With --llm, tags are refined and paragraph gists written by an LLM.

Example:
  docstruct analyze essay.txt
  docstruct analyze paper.pdf --json paper.json --md paper.md
  docstruct analyze https://en.wikipedia.org/wiki/Essay --llm --refine --html compare.html`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path ('-' for stdout)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown summary path")
	analyzeCmd.Flags().StringVar(&outHTML, "html", "", "output HTML comparison path")
	analyzeCmd.Flags().StringVar(&format, "format", "", "stdout format: summary, json, markdown, none")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 5*time.Minute, "overall analysis timeout")

	analyzeFlags.register(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	target := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := analyzeFlags.apply(cmd, cfg); err != nil {
		return err
	}
	if format != "" {
		cfg.Output.Format = format
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()

	logger := newLogger(os.Stderr, slog.LevelWarn)

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", target)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", analyzeTimeout)
		if cfg.LLM.Provider != "" {
			fmt.Fprintf(os.Stderr, "LLM: %s/%s (cache: %v)\n", cfg.LLM.Provider, cfg.LLM.Model, cfg.Cache.Enabled)
		}
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}

	result, err := p.Run(ctx, target)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if verbose {
		doc := result.Document
		fmt.Fprintf(os.Stderr, "✓ Extracted %d paragraphs\n", len(doc.Paragraphs))
		fmt.Fprintf(os.Stderr, "✓ Built argument tree with %d points\n", len(doc.ArgumentTree.Points))
		if r := result.Enrichment; r != nil {
			fmt.Fprintf(os.Stderr, "✓ Enriched %d paragraphs with %s (%d failed, %d cached)\n", r.Enriched, r.Provider, r.Failed, r.CacheHits)
		}
		if result.Refined {
			fmt.Fprintf(os.Stderr, "✓ Refined summary\n")
		}
		fmt.Fprintf(os.Stderr, "✓ Done in %v\n\n", result.Duration.Round(time.Millisecond))
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	return renderResult(result, cfg.Output.Format)
}

// renderResult writes the requested files, then prints to stdout in format
func renderResult(result *pipeline.Result, format string) error {
	if outJSON != "" {
		if err := pipeline.RenderJSON(result.Document, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose && outJSON != pipeline.StdoutPath {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}

	if outMD != "" {
		if err := pipeline.RenderMarkdown(result.Synthesis, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}

	if outHTML != "" {
		if err := pipeline.RenderComparison(result.Document, result.Synthesis, outHTML); err != nil {
			return fmt.Errorf("render comparison: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote comparison: %s\n", outHTML)
		}
	}

	switch format {
	case "", "summary":
		pipeline.RenderSummary(os.Stdout, result.Document)
		fmt.Println()
		fmt.Println(result.Synthesis)
	case "json":
		if outJSON == pipeline.StdoutPath {
			return nil
		}
		return pipeline.RenderJSON(result.Document, pipeline.StdoutPath)
	case "markdown", "md":
		fmt.Println(result.Synthesis)
	case "none":
	default:
		return fmt.Errorf("unknown format %q (summary, json, markdown, none)", format)
	}
	return nil
}
