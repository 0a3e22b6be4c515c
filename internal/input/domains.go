// Package input loads the list of domains to classify.
package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/JakeFAU/domain-categorizer/internal/categorizer"
)

// DefaultColumn is the header of the domain column in ASN exports
// (start_ip,end_ip,asn,name,domain).
const DefaultColumn = "domain"

// LoadDomains reads the CSV at path and returns the normalized, sorted,
// deduplicated values of column.
func LoadDomains(path, column string) ([]categorizer.Domain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open domain list: %w", err)
	}
	defer func() { _ = f.Close() }()

	domains, err := ReadDomains(f, column)
	if err != nil {
		return nil, fmt.Errorf("read domain list %s: %w", path, err)
	}
	return domains, nil
}

// ReadDomains parses CSV from r. Rows too short for the column are skipped.
func ReadDomains(r io.Reader, column string) ([]categorizer.Domain, error) {
	if column == "" {
		column = DefaultColumn
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := slices.IndexFunc(header, func(h string) bool {
		return strings.EqualFold(strings.TrimSpace(h), column)
	})
	if col < 0 {
		return nil, fmt.Errorf("column %q not found in header %v", column, header)
	}

	var out []categorizer.Domain
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, fmt.Errorf("read row: %w", err)
		}
		if col >= len(row) {
			continue
		}
		if d := categorizer.NormalizeDomain(row[col]); d != "" {
			out = append(out, d)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
