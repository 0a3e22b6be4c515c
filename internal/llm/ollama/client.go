// Package ollama is a client for the Ollama /api/generate endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultEndpoint is the generate endpoint of a local Ollama server.
	DefaultEndpoint = "http://localhost:11434/api/generate"
	// DefaultModel is the model asked for classifications.
	DefaultModel = "llama3.1"
	// DefaultTimeout bounds a single completion, including the streamed body.
	DefaultTimeout = 120 * time.Second
)

// ErrService is returned when the server reports an error or a non-2xx status.
var ErrService = errors.New("completion service error")

// Waiter gates outgoing requests. *ratelimit.Limiter satisfies it.
type Waiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Config controls the client.
type Config struct {
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// Client streams completions from Ollama.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    Waiter
	logger     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLimiter gates each request through w.
func WithLimiter(w Waiter) Option {
	return func(c *Client) {
		c.limiter = w
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a Client, filling unset fields with defaults.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Complete sends prompt and returns the concatenated streamed response.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.cfg.Endpoint); err != nil {
			return "", err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(generateRequest{Model: c.cfg.Model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post %s: %w", c.cfg.Endpoint, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("close completion body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrService, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	out, err := assemble(resp.Body)
	if err != nil {
		return "", err
	}
	c.logger.Debug("completion received",
		zap.String("model", c.cfg.Model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("bytes", len(out)),
	)
	return out, nil
}

// assemble concatenates the response fields of a stream of JSON objects
// until one reports done or the stream ends.
func assemble(r io.Reader) (string, error) {
	dec := json.NewDecoder(r)
	var sb strings.Builder
	for {
		var chunk generateChunk
		if err := dec.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				return sb.String(), nil
			}
			return "", fmt.Errorf("decode completion stream: %w", err)
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrService, chunk.Error)
		}
		sb.WriteString(chunk.Response)
		if chunk.Done {
			return sb.String(), nil
		}
	}
}
