package services

import "fmt"

// OutcomeStatus classifies how one unit of work ended.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	// OutcomeSkipped is a valid result that produced nothing to persist.
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome is the per-item result of a pipeline stage. Failures local to one
// item are reported here instead of being returned as errors.
type Outcome struct {
	Item   string
	Status OutcomeStatus
	Reason string
	Err    error
}

func succeeded(item string) Outcome {
	return Outcome{Item: item, Status: OutcomeSucceeded}
}

func skipped(item, reason string) Outcome {
	return Outcome{Item: item, Status: OutcomeSkipped, Reason: reason}
}

func failed(item, reason string, err error) Outcome {
	return Outcome{Item: item, Status: OutcomeFailed, Reason: reason, Err: err}
}

func (o Outcome) String() string {
	switch {
	case o.Err != nil:
		return fmt.Sprintf("%s %s: %s: %v", o.Item, o.Status, o.Reason, o.Err)
	case o.Reason != "":
		return fmt.Sprintf("%s %s: %s", o.Item, o.Status, o.Reason)
	default:
		return fmt.Sprintf("%s %s", o.Item, o.Status)
	}
}

// Tally counts outcomes by status.
type Tally struct {
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func (t *Tally) add(status OutcomeStatus) {
	switch status {
	case OutcomeSucceeded:
		t.Succeeded++
	case OutcomeSkipped:
		t.Skipped++
	case OutcomeFailed:
		t.Failed++
	}
}

// Total returns the number of counted outcomes.
func (t Tally) Total() int {
	return t.Succeeded + t.Skipped + t.Failed
}
