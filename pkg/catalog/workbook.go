package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/malexternalsc/great-expectation-LLM/pkg/apperrors"
)

// Workbook sheet and column names.
const (
	ExpectationSheet = "Expectation_list"

	ColumnCategory    = "Category"
	ColumnExplanation = "category_explanation"
	ColumnExpectation = "Expectations"
)

// Workbook is the parsed content of the expectations workbook.
type Workbook struct {
	Catalog    *Catalog
	Vocabulary Vocabulary
}

// LoadWorkbook reads the category table from the first sheet and the accepted
// expectations from the Expectation_list sheet. A missing file wraps
// apperrors.ErrInputMissing; a malformed one wraps apperrors.ErrInvalidWorkbook.
func LoadWorkbook(path string) (*Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: workbook %s", apperrors.ErrInputMissing, path)
		}
		return nil, fmt.Errorf("stat workbook %s: %w", path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", apperrors.ErrInvalidWorkbook, path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", apperrors.ErrInvalidWorkbook, path)
	}

	categories, err := readCategories(f, sheets[0])
	if err != nil {
		return nil, err
	}

	rows, err := readExpectationRows(f, ExpectationSheet)
	if err != nil {
		return nil, err
	}

	return &Workbook{
		Catalog:    NewCatalog(categories),
		Vocabulary: GroupExpectations(rows),
	}, nil
}

func readCategories(f *excelize.File, sheet string) ([]ConstraintCategory, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", apperrors.ErrInvalidWorkbook, sheet, err)
	}
	cols, err := headerColumns(rows, sheet, ColumnCategory, ColumnExplanation)
	if err != nil {
		return nil, err
	}

	var categories []ConstraintCategory
	for _, row := range rows[1:] {
		name := cell(row, cols[0])
		definition := cell(row, cols[1])
		if name == "" || definition == "" {
			continue
		}
		categories = append(categories, ConstraintCategory{Name: name, Definition: definition})
	}
	return categories, nil
}

func readExpectationRows(f *excelize.File, sheet string) ([]ExpectationRow, error) {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, fmt.Errorf("%w: missing sheet %q", apperrors.ErrInvalidWorkbook, sheet)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", apperrors.ErrInvalidWorkbook, sheet, err)
	}
	cols, err := headerColumns(rows, sheet, ColumnCategory, ColumnExpectation)
	if err != nil {
		return nil, err
	}

	out := make([]ExpectationRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		out = append(out, ExpectationRow{
			Category:    cell(row, cols[0]),
			Expectation: cell(row, cols[1]),
		})
	}
	return out, nil
}

// headerColumns locates the named columns in the first row, ignoring case and
// surrounding whitespace.
func headerColumns(rows [][]string, sheet string, names ...string) ([]int, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", apperrors.ErrInvalidWorkbook, sheet)
	}
	cols := make([]int, len(names))
	for i, name := range names {
		cols[i] = -1
		for j, h := range rows[0] {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				cols[i] = j
				break
			}
		}
		if cols[i] < 0 {
			return nil, fmt.Errorf("%w: sheet %q has no %q column", apperrors.ErrInvalidWorkbook, sheet, name)
		}
	}
	return cols, nil
}

// cell returns the trimmed value at col; excelize omits trailing empty cells.
func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
