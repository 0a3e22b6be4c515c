// Package collyfetcher fetches domain homepages using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/domain-categorizer/internal/categorizer"
)

const (
	defaultTimeout = 30 * time.Second
	defaultScheme  = "http"
)

// Config controls collector behavior.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int
	// Scheme used to build the homepage URL; defaults to http.
	Scheme string
}

// Fetcher implements categorizer.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. Robots.txt is ignored and revisits are allowed so a
// domain listed twice across runs is fetched each time.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Scheme == "" {
		cfg.Scheme = defaultScheme
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []colly.CollectorOption{
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.ParseHTTPErrorResponse(),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(cfg.UserAgent))
	}
	if cfg.MaxBodySize > 0 {
		opts = append(opts, colly.MaxBodySize(cfg.MaxBodySize))
	}
	c := colly.NewCollector(opts...)
	c.WithTransport(newHTTPTransport(cfg.Timeout))
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}
}

// HomepageURL returns the URL fetched for domain.
func (f *Fetcher) HomepageURL(domain categorizer.Domain) string {
	return fmt.Sprintf("%s://%s/", f.cfg.Scheme, domain)
}

// Fetch issues a single GET for the domain's homepage. Every failure wraps
// categorizer.ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, domain categorizer.Domain) (categorizer.Page, error) {
	var (
		result   categorizer.Page
		fetchErr error
	)
	url := f.HomepageURL(domain)
	start := time.Now()

	collector := f.baseCollector.Clone()
	f.configureCollectorHooks(collector, domain, start, &result, &fetchErr)

	if err := f.runCollector(ctx, collector, url, &fetchErr); err != nil {
		f.logger.Debug("homepage fetch failed",
			zap.String("domain", domain.String()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return categorizer.Page{}, fmt.Errorf("%w: GET %s: %w", categorizer.ErrFetch, url, err)
	}
	if result.URL == "" {
		return categorizer.Page{}, fmt.Errorf("%w: GET %s: no response", categorizer.ErrFetch, url)
	}
	if result.StatusCode < http.StatusOK || result.StatusCode >= http.StatusMultipleChoices {
		f.logger.Debug("homepage returned non-success status",
			zap.String("domain", domain.String()),
			zap.Int("status", result.StatusCode),
		)
		return categorizer.Page{}, fmt.Errorf("%w: GET %s: status %d %s",
			categorizer.ErrFetch, url, result.StatusCode, http.StatusText(result.StatusCode))
	}
	return result, nil
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	domain categorizer.Domain,
	start time.Time,
	result *categorizer.Page,
	fetchErr *error,
) {
	hooks.OnResponse(func(r *colly.Response) {
		*result = categorizer.Page{
			Domain:     domain,
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		if r != nil && r.StatusCode != 0 {
			err = fmt.Errorf("status %d: %w", r.StatusCode, err)
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		return nil
	}
}

func newHTTPTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
	}
}
