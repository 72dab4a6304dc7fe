package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "(X, Y) succeeded", succeeded("(X, Y)").String())
	assert.Equal(t, "(X, Y) skipped: no numbered prompts in response",
		skipped("(X, Y)", "no numbered prompts in response").String())
	assert.Equal(t, "prompt-3 failed: expectation generation failed: HTTP 500",
		failed("prompt-3", "expectation generation failed", errors.New("HTTP 500")).String())
}

func TestTally(t *testing.T) {
	var tally Tally
	for _, s := range []OutcomeStatus{OutcomeSucceeded, OutcomeFailed, OutcomeSkipped, OutcomeSucceeded} {
		tally.add(s)
	}
	assert.Equal(t, Tally{Succeeded: 2, Skipped: 1, Failed: 1}, tally)
	assert.Equal(t, 4, tally.Total())
}
