package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/docstruct/internal/model"
)

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"my essay":                "my-essay",
		`a/b\c:d*e?f"g<h>i|j`:     "a_b_c_d_e_f_g_h_i_j",
		"  ..hidden..  ":          "hidden",
		"":                        "document",
		strings.Repeat("x", 150): strings.Repeat("x", maxSlugLen),
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlugFor(t *testing.T) {
	if got := slugFor("/data/essays/On Cities.txt"); got != "On-Cities" {
		t.Errorf("unexpected file slug %q", got)
	}
	if got := slugFor("https://example.com/wiki/Essay/"); got != "example.com_wiki_Essay" {
		t.Errorf("unexpected URL slug %q", got)
	}

	used := map[string]int{}
	if uniqueSlug(used, "a") != "a" || uniqueSlug(used, "a") != "a-2" || uniqueSlug(used, "b") != "b" {
		t.Error("expected repeated slugs to be numbered")
	}
}

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	if err := setDefaults(viper.GetViper()); err != nil {
		t.Fatalf("setDefaults: %v", err)
	}
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	t.Setenv("DOCSTRUCT_LLM_PROVIDER", "ollama")
	t.Setenv("DOCSTRUCT_HTTP_TIMEOUT", "5s")
	t.Setenv("DOCSTRUCT_LLM_API_KEY", "secret")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LLM.Provider != "ollama" || cfg.HTTP.Timeout != 5*time.Second || cfg.LLM.APIKey != "secret" {
		t.Errorf("expected env overrides, got llm=%+v http=%+v", cfg.LLM, cfg.HTTP)
	}

	defaults := model.DefaultConfig()
	if cfg.Cache.DiskTTL != defaults.Cache.DiskTTL || cfg.Server.Addr != defaults.Server.Addr {
		t.Errorf("expected untouched keys to keep defaults, got cache=%+v server=%+v", cfg.Cache, cfg.Server)
	}
}

func TestWriteConfigTemplate_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := writeConfigTemplate(&buf); err != nil {
		t.Fatalf("writeConfigTemplate: %v", err)
	}
	if strings.Contains(buf.String(), "api_key:") {
		t.Error("expected API key to be left out of the file")
	}

	var cfg model.Config
	if err := yaml.Unmarshal(buf.Bytes(), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.LLM.Retries != model.DefaultConfig().LLM.Retries || cfg.Output.Format != "summary" {
		t.Errorf("unexpected round trip: %+v", cfg)
	}

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}
	if err := writeDefaultConfig(path); err == nil {
		t.Error("expected existing config file to be kept")
	}
}

func parseRunFlags(t *testing.T, args ...string) (*cobra.Command, *runFlags) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	f := &runFlags{}
	f.register(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd, f
}

func TestRunFlags_Apply(t *testing.T) {
	cmd, f := parseRunFlags(t, "--llm", "--llm-provider", "ollama", "--refine", "--no-robots", "--workers", "7", "--no-cache")
	cfg := model.DefaultConfig()

	if err := f.apply(cmd, cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.LLM.Provider != "ollama" || !cfg.LLM.Refine || cfg.HTTP.RespectRobots || cfg.Concurrency.EnrichWorkers != 7 || cfg.Cache.Enabled {
		t.Errorf("unexpected config: llm=%+v http=%+v", cfg.LLM, cfg.HTTP)
	}
	if cfg.HTTP.UserAgent != model.DefaultConfig().HTTP.UserAgent {
		t.Error("expected unset flags to keep config values")
	}
}

func TestRunFlags_ApplyErrors(t *testing.T) {
	cmd, f := parseRunFlags(t, "--refine")
	if err := f.apply(cmd, model.DefaultConfig()); err == nil {
		t.Error("expected error for --refine without a provider")
	}

	t.Setenv("OPENAI_API_KEY", "")
	cmd, f = parseRunFlags(t, "--llm")
	if err := f.apply(cmd, model.DefaultConfig()); err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("expected missing key error, got %v", err)
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	cmd, f = parseRunFlags(t, "--llm")
	if err := f.apply(cmd, model.DefaultConfig()); err != nil {
		t.Errorf("expected key from environment to satisfy check, got %v", err)
	}
}

func TestSplitCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	viper.Reset()
	t.Cleanup(func() {
		viper.Reset()
		splitJSON = false
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetIn(nil)
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader("The rate was 2.5 percent. It rose!"))
	rootCmd.SetArgs([]string{"split", "--json"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var sentences []string
	if err := json.Unmarshal(out.Bytes(), &sentences); err != nil {
		t.Fatalf("unmarshal %q: %v", out.String(), err)
	}
	if len(sentences) != 2 || sentences[0] != "The rate was 2.5 percent." || sentences[1] != "It rose!" {
		t.Errorf("unexpected sentences %v", sentences)
	}
}
