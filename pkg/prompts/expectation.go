package prompts

import (
	"fmt"
	"strings"

	"github.com/malexternalsc/great-expectation-LLM/pkg/catalog"
	"github.com/malexternalsc/great-expectation-LLM/pkg/llm"
)

// ExpectationExample is a worked prompt to expression pair.
type ExpectationExample struct {
	UserPrompt   string `yaml:"user_prompt"`
	Expectations string `yaml:"expectations"`
}

// BuildExpectationSystemPrompt lists the accepted vocabulary by category and
// forbids any expectation outside it.
func BuildExpectationSystemPrompt(vocab catalog.Vocabulary) string {
	var prompt strings.Builder

	prompt.WriteString("Convert the following data quality prompts to great_expectations in the form ")
	prompt.WriteString("expectation_type(columnName, params...).\n")
	prompt.WriteString("Use only the accepted expectations listed below. ")
	prompt.WriteString("Never invent expectation names or infer expectations from other sources.\n\n")
	prompt.WriteString("Accepted Expectations Reference:\n")
	for _, group := range vocab {
		prompt.WriteString(fmt.Sprintf("%s: %s\n", group.Category, strings.Join(group.Expectations, ", ")))
	}

	return prompt.String()
}

// BuildExpectationMessages assembles the system instruction, the few-shot
// pairs as user/assistant turns, and the prompt to convert.
func BuildExpectationMessages(vocab catalog.Vocabulary, examples []ExpectationExample, userPrompt string) []llm.Message {
	messages := make([]llm.Message, 0, 2+2*len(examples))
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: BuildExpectationSystemPrompt(vocab)})
	for _, ex := range examples {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: ex.UserPrompt},
			llm.Message{Role: llm.RoleAssistant, Content: ex.Expectations},
		)
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userPrompt})
	return messages
}
