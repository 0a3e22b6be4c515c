package sink

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/JakeFAU/domain-categorizer/internal/categorizer"
)

// FileAppender appends one line per record to a file. The file is opened
// lazily in append mode and reopened after a write error.
type FileAppender struct {
	path   string
	format func(Record) string

	mu   sync.Mutex
	file *os.File
}

// NewFileAppender appends format(rec) lines to path.
func NewFileAppender(path string, format func(Record) string) *FileAppender {
	return &FileAppender{path: path, format: format}
}

// Path returns the file path.
func (a *FileAppender) Path() string {
	return a.path
}

// Append writes one newline-terminated line.
func (a *FileAppender) Append(_ context.Context, rec Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("%w: open %s: %w", categorizer.ErrSinkWrite, a.path, err)
		}
		a.file = f
	}
	if _, err := a.file.WriteString(a.format(rec) + "\n"); err != nil {
		_ = a.file.Close()
		a.file = nil
		return fmt.Errorf("%w: write %s: %w", categorizer.ErrSinkWrite, a.path, err)
	}
	return nil
}

// Close closes the file handle if one is open.
func (a *FileAppender) Close(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", a.path, err)
	}
	return nil
}
