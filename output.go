package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/malexternalsc/great-expectation-LLM/pkg/dataset"
	"github.com/malexternalsc/great-expectation-LLM/pkg/logging"
	"github.com/malexternalsc/great-expectation-LLM/pkg/services"
	"github.com/malexternalsc/great-expectation-LLM/pkg/vectorstore"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func printMatches(matches []vectorstore.Match) {
	t := newTable("#", "Distance", "Content", "Source")
	for i, m := range matches {
		t.Row(strconv.Itoa(i+1), fmt.Sprintf("%.4f", m.Distance), m.Content, m.Source)
	}
	fmt.Println(t)
}

func printRunSummary(s *services.RunSummary, ledgerPath string) {
	t := newTable("Stage", "Items", "Succeeded", "Skipped", "Failed", "Output")
	t.Row("prompts", strconv.Itoa(s.Combinations), strconv.Itoa(s.Tally.Succeeded), strconv.Itoa(s.Tally.Skipped),
		strconv.Itoa(s.Tally.Failed), fmt.Sprintf("%d prompts -> %s", s.Prompts, ledgerPath))
	fmt.Println(t)
	fmt.Printf("Finished in %s\n", s.Duration.Round(time.Second))
	printFailures(s.Outcomes)
}

func printDatasetResult(stage string, r *services.DatasetResult) {
	t := newTable("Stage", "Items", "Succeeded", "Skipped", "Failed", "Output")
	t.Row(stage, strconv.Itoa(r.Tally.Total()), strconv.Itoa(r.Tally.Succeeded), strconv.Itoa(r.Tally.Skipped),
		strconv.Itoa(r.Tally.Failed), fmt.Sprintf("%d rows -> %s", r.Rows, r.Path))
	fmt.Println(t)
}

// printFailures lists failed combinations so they can be rerun.
func printFailures(outcomes []services.CombinationOutcome) {
	var failed []services.CombinationOutcome
	for _, o := range outcomes {
		if o.Status == services.OutcomeFailed {
			failed = append(failed, o)
		}
	}
	if len(failed) == 0 {
		return
	}
	t := newTable("Combination", "Reason").StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		return failedStyle
	})
	for _, o := range failed {
		reason := o.Reason
		if o.Err != nil {
			reason += ": " + logging.SanitizeError(o.Err)
		}
		t.Row(o.Combination.String(), reason)
	}
	fmt.Println(t)
}

// printReasoningPreview reads the written dataset back and shows its first n rows.
func printReasoningPreview(path string, n int) error {
	rows, err := dataset.ReadReasoning(path)
	if err != nil {
		return fmt.Errorf("read back reasoning dataset: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	t := newTable("Prompt", "Expectation", "Reasoning").Wrap(true).Width(120)
	for _, r := range rows[:min(n, len(rows))] {
		t.Row(r.UserPrompt, r.GeneratedExpectations, r.Reasoning)
	}
	fmt.Println(t)
	return nil
}
