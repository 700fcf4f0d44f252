package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/docstruct/internal/llm"
	"github.com/ppiankov/docstruct/internal/model"
)

// runFlags are shared by the analyze and batch commands. Only flags set on
// the command line override the loaded configuration.
type runFlags struct {
	httpTimeout time.Duration
	userAgent   string
	maxBytes    int64
	insecureTLS bool
	noRobots    bool
	noCache     bool
	workers     int
	llmEnabled  bool
	llmProvider string
	llmModel    string
	refine      bool
	imageTags   bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()

	// HTTP flags
	flags.DurationVar(&f.httpTimeout, "http-timeout", 30*time.Second, "timeout for a single URL fetch")
	flags.StringVar(&f.userAgent, "ua", "", "HTTP User-Agent")
	flags.Int64Var(&f.maxBytes, "max-bytes", 0, "max response bytes to read")
	flags.BoolVar(&f.insecureTLS, "insecure", false, "skip TLS certificate verification")
	flags.BoolVar(&f.noRobots, "no-robots", false, "ignore robots.txt")

	// Analysis flags
	flags.BoolVar(&f.noCache, "no-cache", false, "disable the LLM response cache")
	flags.IntVar(&f.workers, "workers", 0, "concurrent LLM calls per document")

	// LLM flags
	flags.BoolVar(&f.llmEnabled, "llm", false, "enable LLM enrichment")
	flags.StringVar(&f.llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	flags.StringVar(&f.llmModel, "llm-model", "", "LLM model name (provider default when empty)")
	flags.BoolVar(&f.refine, "refine", false, "rewrite the transcript into prose with the LLM")
	flags.BoolVar(&f.imageTags, "image-tags", false, "generate an image description per gist sentence")
}

func (f *runFlags) apply(cmd *cobra.Command, cfg *model.Config) error {
	changed := cmd.Flags().Changed

	if changed("http-timeout") {
		cfg.HTTP.Timeout = f.httpTimeout
	}
	if changed("ua") {
		cfg.HTTP.UserAgent = f.userAgent
	}
	if changed("max-bytes") {
		cfg.HTTP.MaxBodyBytes = f.maxBytes
	}
	if changed("insecure") {
		cfg.HTTP.InsecureTLS = f.insecureTLS
	}
	if f.noRobots {
		cfg.HTTP.RespectRobots = false
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}
	if changed("workers") {
		cfg.Concurrency.EnrichWorkers = f.workers
	}

	if f.llmEnabled || changed("llm-provider") {
		cfg.LLM.Provider = f.llmProvider
	}
	if changed("llm-model") {
		cfg.LLM.Model = f.llmModel
	}
	if changed("refine") {
		cfg.LLM.Refine = f.refine
	}
	if changed("image-tags") {
		cfg.LLM.ImageTags = f.imageTags
	}

	if (cfg.LLM.Refine || cfg.LLM.ImageTags) && cfg.LLM.Provider == "" {
		return fmt.Errorf("--refine and --image-tags need an LLM provider (use --llm)")
	}
	return checkAPIKey(cfg.LLM)
}

// checkAPIKey fails early when a hosted provider has no key
func checkAPIKey(cfg model.LLMConfig) error {
	if cfg.APIKey != "" {
		return nil
	}
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		if llm.APIKeyFromEnv(cfg.Provider) == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if llm.APIKeyFromEnv(cfg.Provider) == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	}
	return nil
}
