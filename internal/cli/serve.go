package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/docstruct/internal/pipeline"
	"github.com/ppiankov/docstruct/internal/server"
)

var (
	serveAddr  string
	serveFlags runFlags
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyzer over HTTP",
	Long: `Serve starts the HTTP API:
  POST /v1/analyze     {"paragraphs": [...], "metadata": {...}} or {"text": "..."}
  POST /v1/transcript  same body, returns the Markdown transcript
  POST /v1/split       {"text": "..."}
  POST /v1/classify    {"text": "..."}
  GET  /healthz

With --llm, POST /v1/analyze?enrich=true also runs LLM enrichment.

Example:
  docstruct serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveFlags.register(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := serveFlags.apply(cmd, cfg); err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	logger := newLogger(os.Stderr, slog.LevelInfo)

	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Analyzer: p.Analyzer(),
		Enricher: p.Enricher(),
		Config:   cfg.Server,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
