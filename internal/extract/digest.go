// Package extract reduces a homepage to a ranked keyword digest.
package extract

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/JakeFAU/domain-categorizer/internal/categorizer"
)

// DefaultSelectors lists the structural selectors scanned, in order: page
// title, metadata elements, list items, primary heading, paragraphs.
var DefaultSelectors = []string{"title", "meta", "ul,li", "h1", "p"}

// DefaultMaxTokens caps the digest length.
const DefaultMaxTokens = 100

// minTokenBytes is the exclusive lower bound on kept token length.
const minTokenBytes = 3

// ValidateSelectors compiles every selector and reports the first invalid one.
func ValidateSelectors(selectors []string) error {
	for _, sel := range selectors {
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("%w: selector %q: %w", categorizer.ErrParse, sel, err)
		}
	}
	return nil
}

// Digest parses body as HTML and returns the top limit tokens found under
// selectors. Malformed markup is tolerated by the parser.
func Digest(body []byte, selectors []string, limit int) (categorizer.Digest, error) {
	if err := ValidateSelectors(selectors); err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", categorizer.ErrParse, err)
	}

	var tokens []string
	for _, sel := range selectors {
		tokens = append(tokens, findContent(doc, sel)...)
	}
	return Rank(tokens, limit), nil
}

// findContent collects the kept tokens from the text of every element
// matching sel.
func findContent(doc *goquery.Document, sel string) []string {
	var content []string
	doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		content = append(content, Tokenize(s.Text())...)
	})
	return content
}

// Tokenize splits text on whitespace and keeps lowercase tokens longer than
// three bytes.
func Tokenize(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) <= minTokenBytes {
			continue
		}
		out = append(out, strings.ToLower(strings.TrimSpace(f)))
	}
	return out
}

type wordCount struct {
	word  string
	count int
}

// Rank orders unique tokens by descending frequency, ties in ascending
// alphabetical order, and keeps the first limit. The alphabetical sort
// followed by a stable count sort is what fixes the tie order.
func Rank(tokens []string, limit int) categorizer.Digest {
	if len(tokens) == 0 || limit <= 0 {
		return categorizer.Digest{}
	}
	sorted := slices.Clone(tokens)
	slices.Sort(sorted)

	counts := make([]wordCount, 0, len(sorted))
	for _, tok := range sorted {
		if n := len(counts); n > 0 && counts[n-1].word == tok {
			counts[n-1].count++
			continue
		}
		counts = append(counts, wordCount{word: tok, count: 1})
	}

	slices.SortStableFunc(counts, func(a, b wordCount) int {
		return cmp.Compare(b.count, a.count)
	})

	if len(counts) > limit {
		counts = counts[:limit]
	}
	digest := make(categorizer.Digest, len(counts))
	for i, wc := range counts {
		digest[i] = wc.word
	}
	return digest
}
