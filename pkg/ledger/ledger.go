// Package ledger appends generated prompt batches to a date-partitioned
// text file, one file per calendar day.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FileName returns the ledger file name for the day containing t.
func FileName(t time.Time) string {
	return "user_prompt_" + t.Format("2006_01_02") + ".txt"
}

// Ledger writes prompt batches under a directory. Batches are only ever
// appended; existing content is never rewritten.
type Ledger struct {
	dir    string
	now    func() time.Time
	logger *zap.Logger

	mu sync.Mutex
}

// New creates a ledger rooted at dir. The directory is created on first append.
func New(dir string, logger *zap.Logger) *Ledger {
	return &Ledger{
		dir:    dir,
		now:    time.Now,
		logger: logger.Named("ledger"),
	}
}

// WithClock replaces the clock used to pick the day's file.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Path returns today's ledger file path.
func (l *Ledger) Path() string {
	return filepath.Join(l.dir, FileName(l.now()))
}

// Append writes content to today's file, creating the file and its directory
// when absent. Content appended to an existing non-empty file is preceded by
// a blank line. Empty content is a no-op.
func (l *Ledger) Append(content string) (string, error) {
	path := l.Path()
	if content == "" {
		return path, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return path, fmt.Errorf("create ledger directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return path, fmt.Errorf("open ledger %s: %w", path, err)
	}
	defer f.Close()

	lines := strings.Count(content, "\n") + 1

	info, err := f.Stat()
	if err != nil {
		return path, fmt.Errorf("stat ledger %s: %w", path, err)
	}
	if info.Size() > 0 {
		content = "\n\n" + content
	}

	if _, err := f.WriteString(content); err != nil {
		return path, fmt.Errorf("append to ledger %s: %w", path, err)
	}

	l.logger.Info("Content written to ledger",
		zap.String("path", path),
		zap.Int("lines", lines))
	return path, nil
}

// Prompts returns today's ledgered prompts, one per non-blank line.
// A missing file yields no prompts.
func (l *Ledger) Prompts() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prompts, err := readLines(l.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return prompts, err
}

// Filter drops prompts already present in today's file and repeats within
// prompts itself, preserving order.
func (l *Ledger) Filter(prompts []string) ([]string, error) {
	existing, err := l.Prompts()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(existing)+len(prompts))
	for _, p := range existing {
		seen[p] = struct{}{}
	}

	kept := make([]string, 0, len(prompts))
	for _, p := range prompts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		kept = append(kept, p)
	}
	return kept, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
