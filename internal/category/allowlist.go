// Package category builds the classification prompt and accepts or rejects
// the completion service's answer against a fixed allow-list.
package category

import (
	"slices"
	"strings"

	"github.com/JakeFAU/domain-categorizer/internal/categorizer"
)

// Other is the catch-all label.
const Other categorizer.Category = "Other"

// allowList is compiled into the prompt verbatim and used unchanged for
// membership checks. Order matters for the prompt.
var allowList = []categorizer.Category{
	"Internet Service Provider",
	"Telecommunications",
	"Hosting",
	"Technology",
	"Education",
	"Government",
	"Banking/Finance",
	"Healthcare",
	"Cloud",
	"Energy",
	"Consulting",
	"Marketing",
	"Communications",
	"Business",
	"Media/Entertainment",
	"Travel",
	"News",
	"Gaming",
	"Logistics",
	"Automotive",
	"Retail",
	"Industry",
	"Sports",
	"Agriculture",
	"Fashion",
	"Infrastructure",
	"Community",
	"Pharmaceuticals",
	"Charity",
	"Adult",
	"Streaming",
	Other,
}

// AllowList returns a copy of the ordered labels.
func AllowList() []categorizer.Category {
	return slices.Clone(allowList)
}

// InAllowList reports whether label is exactly one of the allowed labels.
// The comparison is case-sensitive.
func InAllowList(label string) bool {
	return slices.Contains(allowList, categorizer.Category(label))
}

// AllowListSentence renders the labels as the sentence embedded in prompts.
func AllowListSentence() string {
	labels := make([]string, len(allowList))
	for i, c := range allowList {
		labels[i] = string(c)
	}
	return "Categories MUST be one of the following: " + strings.Join(labels, ", ")
}
