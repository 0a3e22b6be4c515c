package category

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/domain-categorizer/internal/categorizer"
)

// Prompt builds the single classification prompt for a domain.
func Prompt(domain categorizer.Domain, digest categorizer.Digest) string {
	return "Please categorize this domain with a single keyword in English. " +
		"Do not elaborate, do not explain or otherwise enhance the answer.\n\n " +
		AllowListSentence() + " " +
		fmt.Sprintf("The domain is: %s. Here are some items from the website: %s", domain, digest)
}

// Validate applies the acceptance rules in order: empty, multi-word, then
// allow-list membership. Each failure is terminal.
func Validate(response string) (categorizer.Category, error) {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return "", categorizer.ErrEmptyResponse
	}
	if n := len(strings.Fields(trimmed)); n > 1 {
		return "", fmt.Errorf("%w: %d tokens", categorizer.ErrMultiWordResponse, n)
	}
	if !InAllowList(trimmed) {
		return "", fmt.Errorf("%w: %q", categorizer.ErrNotInAllowList, trimmed)
	}
	return categorizer.Category(trimmed), nil
}

// Validator classifies a domain by prompting a completion service.
type Validator struct {
	completer categorizer.Completer
	logger    *zap.Logger
}

// NewValidator builds a Validator around completer.
func NewValidator(completer categorizer.Completer, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{completer: completer, logger: logger}
}

// Classify prompts the completion service and validates its answer. Service
// errors are reported as categorizer.ErrFetch.
func (v *Validator) Classify(
	ctx context.Context,
	domain categorizer.Domain,
	digest categorizer.Digest,
) (categorizer.Classification, error) {
	if v.completer == nil {
		return categorizer.Classification{}, fmt.Errorf("%w: no completer configured", categorizer.ErrFetch)
	}
	response, err := v.completer.Complete(ctx, Prompt(domain, digest))
	if err != nil {
		return categorizer.Classification{}, fmt.Errorf("%w: completion: %w", categorizer.ErrFetch, err)
	}
	label, err := Validate(response)
	if err != nil {
		v.logger.Warn("completion rejected",
			zap.String("domain", domain.String()),
			zap.String("response", response),
			zap.Error(err),
		)
		return categorizer.Classification{}, err
	}
	return categorizer.Classification{Domain: domain, Category: label}, nil
}
