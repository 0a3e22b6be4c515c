// Package report summarizes a success log into per-category domain counts.
package report

import (
	"bufio"
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/JakeFAU/domain-categorizer/internal/categorizer"
)

// CSVHeader is the header row of the category-count file.
var CSVHeader = []string{"CATEGORY", "DOMAIN_count"}

// CategoryCount is the number of success rows for one category.
type CategoryCount struct {
	Category categorizer.Category
	Domains  int
}

// Count tallies success log lines per category. Lines without a comma and a
// leading DOMAIN,CATEGORY header are ignored. Results are ordered by count
// descending, then category ascending.
func Count(r io.Reader) ([]CategoryCount, error) {
	totals := map[categorizer.Category]int{}
	sc := bufio.NewScanner(r)
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		isFirst := first
		first = false
		domain, label, ok := strings.Cut(line, ",")
		if !ok || strings.TrimSpace(domain) == "" || strings.TrimSpace(label) == "" {
			continue
		}
		if isFirst && strings.EqualFold(domain, "domain") && strings.EqualFold(label, "category") {
			continue
		}
		totals[categorizer.Category(strings.TrimSpace(label))]++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan success log: %w", err)
	}

	counts := make([]CategoryCount, 0, len(totals))
	for c, n := range totals {
		counts = append(counts, CategoryCount{Category: c, Domains: n})
	}
	slices.SortFunc(counts, func(a, b CategoryCount) int {
		if a.Domains != b.Domains {
			return cmp.Compare(b.Domains, a.Domains)
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return counts, nil
}

// LoadCounts counts the success log at path.
func LoadCounts(path string) ([]CategoryCount, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open success log: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Count(f)
}

// WriteCSV writes counts with a CATEGORY,DOMAIN_count header.
func WriteCSV(w io.Writer, counts []CategoryCount) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, c := range counts {
		if err := cw.Write([]string{string(c.Category), strconv.Itoa(c.Domains)}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteCSVFile creates (or truncates) path and writes counts to it.
func WriteCSVFile(path string, counts []CategoryCount) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, counts); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Render prints counts as a table with a share column and a total footer.
func Render(w io.Writer, counts []CategoryCount) {
	total := 0
	for _, c := range counts {
		total += c.Domains
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Category", "Domains", "Share"})
	for _, c := range counts {
		t.AppendRow(table.Row{c.Category, c.Domains, share(c.Domains, total)})
	}
	t.AppendFooter(table.Row{"Total", total, share(total, total)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.Render()
}

func share(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return strconv.FormatFloat(float64(n)*100/float64(total), 'f', 1, 64) + "%"
}
