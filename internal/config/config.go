// Package config loads and validates categorizer configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultUserAgent is the browser-like User-Agent sent with homepage fetches.
const DefaultUserAgent = "Mozilla/5.0 (platform; rv:geckoversion) Gecko/geckotrail Firefox/firefoxversion"

// Resume modes accepted by pipeline.resume_mode.
const (
	ResumeSubstring = "substring"
	ResumeExact     = "exact"
)

// Archive kinds accepted by archive.kind.
const (
	ArchiveNone  = ""
	ArchiveLocal = "local"
	ArchiveGCS   = "gcs"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Input    InputConfig    `mapstructure:"input"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Extract  ExtractConfig  `mapstructure:"extract"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Output   OutputConfig   `mapstructure:"output"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	DB       DBConfig       `mapstructure:"db"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	API      APIConfig      `mapstructure:"api"`
	Report   ReportConfig   `mapstructure:"report"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// InputConfig locates the domain list.
type InputConfig struct {
	Path   string `mapstructure:"path"`
	Column string `mapstructure:"column"`
}

// PipelineConfig governs batching, ordering and resume behavior.
type PipelineConfig struct {
	BatchSize      int    `mapstructure:"batch_size"`
	QueueDepth     int    `mapstructure:"queue_depth"`
	Shuffle        bool   `mapstructure:"shuffle"`
	Seed           uint64 `mapstructure:"seed"`
	Limit          int    `mapstructure:"limit"`
	ResumeMode     string `mapstructure:"resume_mode"`
	MinDigestChars int    `mapstructure:"min_digest_chars"`
}

// ExtractConfig controls the keyword digest.
type ExtractConfig struct {
	Selectors []string `mapstructure:"selectors"`
	MaxTokens int      `mapstructure:"max_tokens"`
}

// FetchConfig configures the homepage fetcher.
type FetchConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxBodyBytes   int    `mapstructure:"max_body_bytes"`
}

// LLMConfig configures the completion service client.
type LLMConfig struct {
	Endpoint          string  `mapstructure:"endpoint"`
	Model             string  `mapstructure:"model"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// OutputConfig names the two result logs.
type OutputConfig struct {
	SuccessPath string `mapstructure:"success_path"`
	FailurePath string `mapstructure:"failure_path"`
}

// ArchiveConfig selects where the logs are copied after a run.
type ArchiveConfig struct {
	Kind      string `mapstructure:"kind"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// DBConfig controls the optional Postgres mirror of classifications.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// APIConfig controls the optional health/metrics server.
type APIConfig struct {
	Addr string `mapstructure:"addr"`
}

// ReportConfig controls the category-count report.
type ReportConfig struct {
	OutputPath string `mapstructure:"output_path"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// TracingConfig selects the Cloud Trace project spans are exported to.
type TracingConfig struct {
	ProjectID string `mapstructure:"project_id"`
}

// Load builds a Config from disk/environment. Every key has a default so
// that CATEGORIZER_* variables reach Unmarshal.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CATEGORIZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input.path", "data/asn.csv")
	v.SetDefault("input.column", "domain")
	v.SetDefault("pipeline.batch_size", 32)
	v.SetDefault("pipeline.queue_depth", 32)
	v.SetDefault("pipeline.shuffle", true)
	v.SetDefault("pipeline.seed", 0)
	v.SetDefault("pipeline.limit", 0)
	v.SetDefault("pipeline.resume_mode", ResumeSubstring)
	v.SetDefault("pipeline.min_digest_chars", 3)
	v.SetDefault("extract.selectors", []string{"title", "meta", "ul,li", "h1", "p"})
	v.SetDefault("extract.max_tokens", 100)
	v.SetDefault("fetch.user_agent", DefaultUserAgent)
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("fetch.max_body_bytes", 5*1024*1024)
	v.SetDefault("llm.endpoint", "http://localhost:11434/api/generate")
	v.SetDefault("llm.model", "llama3.1")
	v.SetDefault("llm.timeout_seconds", 120)
	v.SetDefault("llm.requests_per_second", 0)
	v.SetDefault("output.success_path", "categories.csv")
	v.SetDefault("output.failure_path", "failures.txt")
	v.SetDefault("archive.kind", ArchiveNone)
	v.SetDefault("archive.base_dir", "")
	v.SetDefault("archive.gcs_bucket", "")
	v.SetDefault("archive.prefix", "runs")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "classifications")
	v.SetDefault("db.max_conns", 0)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("api.addr", "")
	v.SetDefault("report.output_path", "category-count.csv")
	v.SetDefault("logging.development", true)
	v.SetDefault("tracing.project_id", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Input.Path) == "" {
		return fmt.Errorf("input.path must be set")
	}
	if c.Pipeline.BatchSize <= 0 {
		return fmt.Errorf("pipeline.batch_size must be > 0")
	}
	if c.Pipeline.QueueDepth <= 0 {
		return fmt.Errorf("pipeline.queue_depth must be > 0")
	}
	if c.Pipeline.Limit < 0 {
		return fmt.Errorf("pipeline.limit must be >= 0")
	}
	switch c.Pipeline.ResumeMode {
	case ResumeSubstring, ResumeExact:
	default:
		return fmt.Errorf("pipeline.resume_mode must be %q or %q", ResumeSubstring, ResumeExact)
	}
	if len(c.Extract.Selectors) == 0 {
		return fmt.Errorf("extract.selectors must not be empty")
	}
	if c.Extract.MaxTokens <= 0 {
		return fmt.Errorf("extract.max_tokens must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.LLM.Endpoint == "" || c.LLM.Model == "" {
		return fmt.Errorf("llm.endpoint and llm.model must be set")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return fmt.Errorf("llm.timeout_seconds must be > 0")
	}
	if c.LLM.RequestsPerSecond < 0 {
		return fmt.Errorf("llm.requests_per_second must be >= 0")
	}
	if c.Output.SuccessPath == "" || c.Output.FailurePath == "" {
		return fmt.Errorf("output.success_path and output.failure_path must be set")
	}
	switch c.Archive.Kind {
	case ArchiveNone:
	case ArchiveLocal:
		if c.Archive.BaseDir == "" {
			return fmt.Errorf("archive.base_dir must be set when archive.kind is local")
		}
	case ArchiveGCS:
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket must be set when archive.kind is gcs")
		}
	default:
		return fmt.Errorf("unknown archive.kind %q", c.Archive.Kind)
	}
	if (c.PubSub.ProjectID == "") != (c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set together")
	}
	return nil
}

// FetchTimeout converts the fetch timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// LLMTimeout converts the completion timeout into a duration.
func (c Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}
