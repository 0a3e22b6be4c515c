package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Pipeline.BatchSize != 32 || cfg.Pipeline.QueueDepth != 32 {
		t.Fatalf("expected batch and queue size 32, got %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.ResumeMode != ResumeSubstring {
		t.Fatalf("expected substring resume by default, got %q", cfg.Pipeline.ResumeMode)
	}
	want := []string{"title", "meta", "ul,li", "h1", "p"}
	if strings.Join(cfg.Extract.Selectors, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected default selectors %v", cfg.Extract.Selectors)
	}
	if cfg.FetchTimeout() != 30*time.Second {
		t.Fatalf("expected 30s fetch timeout, got %v", cfg.FetchTimeout())
	}
	if cfg.Fetch.UserAgent != DefaultUserAgent {
		t.Fatalf("unexpected user agent %q", cfg.Fetch.UserAgent)
	}
	if cfg.Output.SuccessPath != "categories.csv" || cfg.Output.FailurePath != "failures.txt" {
		t.Fatalf("unexpected output paths %+v", cfg.Output)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
input:
  path: domains.csv
  column: host
pipeline:
  batch_size: 8
  shuffle: false
  seed: 42
  limit: 100
  resume_mode: exact
llm:
  endpoint: http://llm.internal:11434/api/generate
  model: llama3.2
  timeout_seconds: 45
  requests_per_second: 2.5
archive:
  kind: local
  base_dir: /tmp/archive
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Input.Path != "domains.csv" || cfg.Input.Column != "host" {
		t.Fatalf("expected input overrides, got %+v", cfg.Input)
	}
	if cfg.Pipeline.BatchSize != 8 || cfg.Pipeline.Shuffle || cfg.Pipeline.Seed != 42 || cfg.Pipeline.Limit != 100 {
		t.Fatalf("expected pipeline overrides, got %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.ResumeMode != ResumeExact {
		t.Fatalf("expected exact resume mode, got %q", cfg.Pipeline.ResumeMode)
	}
	if cfg.LLM.Model != "llama3.2" || cfg.LLMTimeout() != 45*time.Second || cfg.LLM.RequestsPerSecond != 2.5 {
		t.Fatalf("expected llm overrides, got %+v", cfg.LLM)
	}
	if cfg.Archive.Kind != ArchiveLocal || cfg.Archive.Prefix != "runs" {
		t.Fatalf("expected archive overrides with default prefix, got %+v", cfg.Archive)
	}
	if cfg.Logging.Development {
		t.Fatal("expected production logging")
	}
	if cfg.Pipeline.QueueDepth != 32 {
		t.Fatalf("expected default queue depth to survive, got %d", cfg.Pipeline.QueueDepth)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"missing input", func(c *Config) { c.Input.Path = " " }, "input.path"},
		{"invalid batch size", func(c *Config) { c.Pipeline.BatchSize = 0 }, "pipeline.batch_size"},
		{"invalid queue depth", func(c *Config) { c.Pipeline.QueueDepth = 0 }, "pipeline.queue_depth"},
		{"negative limit", func(c *Config) { c.Pipeline.Limit = -1 }, "pipeline.limit"},
		{"unknown resume mode", func(c *Config) { c.Pipeline.ResumeMode = "fuzzy" }, "pipeline.resume_mode"},
		{"no selectors", func(c *Config) { c.Extract.Selectors = nil }, "extract.selectors"},
		{"no max tokens", func(c *Config) { c.Extract.MaxTokens = 0 }, "extract.max_tokens"},
		{"invalid fetch timeout", func(c *Config) { c.Fetch.TimeoutSeconds = 0 }, "fetch.timeout_seconds"},
		{"missing model", func(c *Config) { c.LLM.Model = "" }, "llm.model"},
		{"invalid llm timeout", func(c *Config) { c.LLM.TimeoutSeconds = 0 }, "llm.timeout_seconds"},
		{"negative rps", func(c *Config) { c.LLM.RequestsPerSecond = -1 }, "llm.requests_per_second"},
		{"missing output", func(c *Config) { c.Output.FailurePath = "" }, "output.failure_path"},
		{"local archive without dir", func(c *Config) { c.Archive.Kind = ArchiveLocal }, "archive.base_dir"},
		{"gcs archive without bucket", func(c *Config) { c.Archive.Kind = ArchiveGCS }, "archive.gcs_bucket"},
		{"unknown archive", func(c *Config) { c.Archive.Kind = "s3" }, "archive.kind"},
		{"half pubsub", func(c *Config) { c.PubSub.ProjectID = "proj" }, "pubsub.project_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := base
			c.Extract.Selectors = append([]string(nil), base.Extract.Selectors...)
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadEnvOverridesOptionalKeys(t *testing.T) {
	t.Setenv("CATEGORIZER_DB_DSN", "postgres://categorizer@db:5432/categorizer")
	t.Setenv("CATEGORIZER_DB_MAX_CONNS", "4")
	t.Setenv("CATEGORIZER_API_ADDR", ":9090")
	t.Setenv("CATEGORIZER_PUBSUB_PROJECT_ID", "acme")
	t.Setenv("CATEGORIZER_PUBSUB_TOPIC_NAME", "classifications")
	t.Setenv("CATEGORIZER_ARCHIVE_KIND", "gcs")
	t.Setenv("CATEGORIZER_ARCHIVE_GCS_BUCKET", "categorizer-runs")
	t.Setenv("CATEGORIZER_TRACING_PROJECT_ID", "acme")
	t.Setenv("CATEGORIZER_LLM_MODEL", "mistral")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DB.DSN != "postgres://categorizer@db:5432/categorizer" || cfg.DB.MaxConns != 4 {
		t.Fatalf("db env overrides ignored: %+v", cfg.DB)
	}
	if cfg.API.Addr != ":9090" {
		t.Fatalf("api.addr env override ignored: %q", cfg.API.Addr)
	}
	if cfg.PubSub.ProjectID != "acme" || cfg.PubSub.TopicName != "classifications" {
		t.Fatalf("pubsub env overrides ignored: %+v", cfg.PubSub)
	}
	if cfg.Archive.Kind != ArchiveGCS || cfg.Archive.GCSBucket != "categorizer-runs" {
		t.Fatalf("archive env overrides ignored: %+v", cfg.Archive)
	}
	if cfg.Tracing.ProjectID != "acme" {
		t.Fatalf("tracing.project_id env override ignored: %q", cfg.Tracing.ProjectID)
	}
	if cfg.LLM.Model != "mistral" {
		t.Fatalf("llm.model env override ignored: %q", cfg.LLM.Model)
	}
}

func TestLoadEnvReachesLocalArchiveDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CATEGORIZER_ARCHIVE_KIND", "local")
	t.Setenv("CATEGORIZER_ARCHIVE_BASE_DIR", dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Archive.BaseDir != dir {
		t.Fatalf("archive.base_dir env override ignored: %q", cfg.Archive.BaseDir)
	}
}
