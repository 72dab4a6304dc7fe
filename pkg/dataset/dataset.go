// Package dataset persists the generated fine-tuning datasets as CSV files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/malexternalsc/great-expectation-LLM/pkg/apperrors"
)

// Column names.
const (
	ColumnUserPrompt            = "user_prompt"
	ColumnGeneratedExpectations = "generated_expectations"
	ColumnReasoning             = "reasoning"
)

// File name prefixes.
const (
	ExpectationsPrefix = "generated_expectations"
	ReasoningPrefix    = "reasoning_dataset"
)

// ExpectationRow pairs a prompt with its generated expression.
// A nil GeneratedExpectations marks a failed generation and is written as an empty cell.
type ExpectationRow struct {
	UserPrompt            string
	GeneratedExpectations *string
}

// ReasoningRow is an ExpectationRow with its step-by-step justification.
type ReasoningRow struct {
	UserPrompt            string
	GeneratedExpectations string
	Reasoning             string
}

// FileName returns "<prefix>_<YYYYMMDD_HHMMSS>.csv" for t.
func FileName(prefix string, t time.Time) string {
	return prefix + "_" + t.Format("20060102_150405") + ".csv"
}

// WriteExpectations writes rows to a new timestamped file in dir and returns its path.
func WriteExpectations(dir string, rows []ExpectationRow, now time.Time) (string, error) {
	records := make([][]string, len(rows))
	for i, r := range rows {
		expr := ""
		if r.GeneratedExpectations != nil {
			expr = *r.GeneratedExpectations
		}
		records[i] = []string{r.UserPrompt, expr}
	}
	return writeOnce(dir, FileName(ExpectationsPrefix, now),
		[]string{ColumnUserPrompt, ColumnGeneratedExpectations}, records)
}

// WriteReasoning writes rows to a new timestamped file in dir and returns its path.
func WriteReasoning(dir string, rows []ReasoningRow, now time.Time) (string, error) {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{r.UserPrompt, r.GeneratedExpectations, r.Reasoning}
	}
	return writeOnce(dir, FileName(ReasoningPrefix, now),
		[]string{ColumnUserPrompt, ColumnGeneratedExpectations, ColumnReasoning}, records)
}

// writeOnce writes the whole file under a temporary name and renames it into
// place, so a crash never leaves a truncated dataset behind. An existing file
// with the same name is never overwritten.
func writeOnce(dir, name string, header []string, records [][]string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create dataset directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("dataset %s already exists", path)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create dataset file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close dataset file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish dataset %s: %w", path, err)
	}
	return path, nil
}

// ReadExpectations reads an expectation dataset. Columns are located by header
// name; an empty expression cell becomes a nil GeneratedExpectations.
// A missing file wraps apperrors.ErrInputMissing.
func ReadExpectations(path string) ([]ExpectationRow, error) {
	records, cols, err := readCSV(path, ColumnUserPrompt, ColumnGeneratedExpectations)
	if err != nil {
		return nil, err
	}

	rows := make([]ExpectationRow, 0, len(records))
	for _, rec := range records {
		row := ExpectationRow{UserPrompt: field(rec, cols[0])}
		if expr := field(rec, cols[1]); strings.TrimSpace(expr) != "" {
			row.GeneratedExpectations = &expr
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadReasoning reads a reasoning dataset.
func ReadReasoning(path string) ([]ReasoningRow, error) {
	records, cols, err := readCSV(path, ColumnUserPrompt, ColumnGeneratedExpectations, ColumnReasoning)
	if err != nil {
		return nil, err
	}

	rows := make([]ReasoningRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, ReasoningRow{
			UserPrompt:            field(rec, cols[0]),
			GeneratedExpectations: field(rec, cols[1]),
			Reasoning:             field(rec, cols[2]),
		})
	}
	return rows, nil
}

func readCSV(path string, columns ...string) ([][]string, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: dataset %s", apperrors.ErrInputMissing, path)
		}
		return nil, nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("dataset %s is empty", path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	cols := make([]int, len(columns))
	for i, name := range columns {
		cols[i] = -1
		for j, h := range header {
			if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == name {
				cols[i] = j
				break
			}
		}
		if cols[i] < 0 {
			return nil, nil, fmt.Errorf("dataset %s has no %q column", path, name)
		}
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, cols, nil
}

func field(rec []string, col int) string {
	if col >= len(rec) {
		return ""
	}
	return rec[col]
}
