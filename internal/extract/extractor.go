package extract

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/domain-categorizer/internal/categorizer"
)

// Config controls which elements feed the digest and how long it may be.
type Config struct {
	Selectors []string
	MaxTokens int
}

// Extractor fetches a homepage and reduces it to a digest.
type Extractor struct {
	fetcher   categorizer.Fetcher
	selectors []string
	maxTokens int
	logger    *zap.Logger
}

// NewExtractor validates the selectors and builds an Extractor.
func NewExtractor(fetcher categorizer.Fetcher, cfg Config, logger *zap.Logger) (*Extractor, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	selectors := cfg.Selectors
	if len(selectors) == 0 {
		selectors = DefaultSelectors
	}
	if err := ValidateSelectors(selectors); err != nil {
		return nil, err
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		fetcher:   fetcher,
		selectors: append([]string(nil), selectors...),
		maxTokens: maxTokens,
		logger:    logger,
	}, nil
}

// Extract fetches the domain's homepage and returns its keyword digest. The
// digest may be empty.
func (e *Extractor) Extract(ctx context.Context, domain categorizer.Domain) (categorizer.Digest, error) {
	page, err := e.fetcher.Fetch(ctx, domain)
	if err != nil {
		return nil, err
	}
	digest, err := Digest(page.Body, e.selectors, e.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", domain, err)
	}
	e.logger.Debug("digest extracted",
		zap.String("domain", domain.String()),
		zap.Int("tokens", len(digest)),
		zap.Int("body_bytes", len(page.Body)),
	)
	return digest, nil
}
