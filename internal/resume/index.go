// Package resume decides which domains a previous run already classified.
package resume

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/JakeFAU/domain-categorizer/internal/categorizer"
)

// Modes accepted by Load.
const (
	// ModeSubstring skips a domain when it occurs anywhere in the success
	// log. "example.com" is also skipped once "myexample.com" succeeded.
	ModeSubstring = "substring"
	// ModeExact skips a domain only when it is the first field of a line.
	ModeExact = "exact"
)

const maxLineBytes = 1024 * 1024

// Index answers whether a domain already has a success record.
type Index struct {
	mode string
	raw  string
	set  map[categorizer.Domain]struct{}
}

// Load reads the success log at path. A missing file yields an empty index.
func Load(path, mode string) (*Index, error) {
	if mode == "" {
		mode = ModeSubstring
	}
	if mode != ModeSubstring && mode != ModeExact {
		return nil, fmt.Errorf("unknown resume mode %q", mode)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Index{mode: mode, set: map[categorizer.Domain]struct{}{}}, nil
		}
		return nil, fmt.Errorf("read success log %s: %w", path, err)
	}
	idx, err := FromBytes(data, mode)
	if err != nil {
		return nil, fmt.Errorf("scan success log %s: %w", path, err)
	}
	return idx, nil
}

// FromBytes builds an index from success log contents. In exact mode a line
// longer than maxLineBytes is an error.
func FromBytes(data []byte, mode string) (*Index, error) {
	idx := &Index{mode: mode, set: map[categorizer.Domain]struct{}{}}
	if mode == ModeExact {
		sc := bufio.NewScanner(bytes.NewReader(data))
		sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for sc.Scan() {
			field, _, _ := strings.Cut(sc.Text(), ",")
			if d := categorizer.NormalizeDomain(field); d != "" {
				idx.set[d] = struct{}{}
			}
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return idx, nil
	}
	idx.raw = string(data)
	return idx, nil
}

// Done reports whether domain should be skipped.
func (i *Index) Done(domain categorizer.Domain) bool {
	if i == nil || domain == "" {
		return false
	}
	if i.mode == ModeExact {
		_, ok := i.set[domain]
		return ok
	}
	return strings.Contains(i.raw, string(domain))
}

// Mode returns the matching mode.
func (i *Index) Mode() string {
	return i.mode
}
