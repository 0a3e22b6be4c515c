package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/domain-categorizer/internal/categorizer"
)

type fakeFetcher struct {
	pages map[categorizer.Domain]categorizer.Page
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, domain categorizer.Domain) (categorizer.Page, error) {
	if f.err != nil {
		return categorizer.Page{}, f.err
	}
	page, ok := f.pages[domain]
	if !ok {
		return categorizer.Page{}, fmt.Errorf("%w: no page for %s", categorizer.ErrFetch, domain)
	}
	return page, nil
}

func TestExtractorExtract(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[categorizer.Domain]categorizer.Page{
		"example.com": {Domain: "example.com", Body: []byte("<title>Example Domain</title>")},
	}}
	ex, err := NewExtractor(fetcher, Config{}, zap.NewNop())
	require.NoError(t, err)

	digest, err := ex.Extract(context.Background(), "example.com")
	require.NoError(t, err)
	require.Equal(t, "domain example", digest.String())
}

func TestExtractorPropagatesFetchError(t *testing.T) {
	t.Parallel()

	fetchErr := fmt.Errorf("%w: timeout", categorizer.ErrFetch)
	ex, err := NewExtractor(&fakeFetcher{err: fetchErr}, Config{}, nil)
	require.NoError(t, err)

	_, err = ex.Extract(context.Background(), "deadhost.test")
	require.True(t, errors.Is(err, categorizer.ErrFetch))
}

func TestExtractorHonorsMaxTokens(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[categorizer.Domain]categorizer.Page{
		"example.com": {Body: []byte("<p>alpha beta gamma delta</p>")},
	}}
	ex, err := NewExtractor(fetcher, Config{Selectors: []string{"p"}, MaxTokens: 2}, nil)
	require.NoError(t, err)

	digest, err := ex.Extract(context.Background(), "example.com")
	require.NoError(t, err)
	require.Equal(t, "alpha beta", digest.String())
}

func TestNewExtractorValidation(t *testing.T) {
	t.Parallel()

	_, err := NewExtractor(nil, Config{}, nil)
	require.Error(t, err)

	_, err = NewExtractor(&fakeFetcher{}, Config{Selectors: []string{"::bogus("}}, nil)
	require.ErrorIs(t, err, categorizer.ErrParse)
}
