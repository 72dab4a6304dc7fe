// Package parser extracts generated prompts from free-form model output.
//
// Accepted grammar, applied per line after trimming surrounding whitespace:
//
//	line    = number "." space+ quote content quote
//	number  = digit+
//	content = any character, at least one
//
// Every other line (headers, commentary, unquoted or unnumbered items) is
// ignored. Output with no accepted line is a valid, empty result.
package parser

import (
	"regexp"
	"strings"
)

var promptLine = regexp.MustCompile(`^\d+\.\s+"(.+)"$`)

// ExtractPrompts returns the quoted contents of every accepted line, in order.
func ExtractPrompts(text string) []string {
	var prompts []string
	for line := range strings.Lines(text) {
		m := promptLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		prompts = append(prompts, m[1])
	}
	return prompts
}

// Extract returns the accepted prompts joined by newlines, or "" when none match.
func Extract(text string) string {
	return strings.Join(ExtractPrompts(text), "\n")
}
