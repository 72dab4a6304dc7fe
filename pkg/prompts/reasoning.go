package prompts

import (
	"fmt"
	"strings"

	"github.com/malexternalsc/great-expectation-LLM/pkg/llm"
)

// AnswerDelimiter separates the reasoning steps from the final expression.
const AnswerDelimiter = "####"

// ReasoningSystemPrompt frames the reformatting task.
const ReasoningSystemPrompt = "You format answers as numbered step-by-step reasoning " +
	"followed by a line starting with " + AnswerDelimiter + " and the final expression, copied verbatim."

// ReasoningExample is a worked reformatting: the justification steps and the
// expression they lead to.
type ReasoningExample struct {
	Question       string   `yaml:"question"`
	ExpectedAnswer string   `yaml:"expected_answer"`
	Steps          []string `yaml:"steps"`
}

// BuildReasoningPrompt renders the exemplars followed by the pair to reformat.
func BuildReasoningPrompt(examples []ReasoningExample, question, expression string) string {
	var prompt strings.Builder

	for i, ex := range examples {
		prompt.WriteString(fmt.Sprintf("### Example %d:\n", i+1))
		prompt.WriteString(fmt.Sprintf("Question: %s\n", ex.Question))
		prompt.WriteString(fmt.Sprintf("Expected Answer: %s\n\n", ex.ExpectedAnswer))
		prompt.WriteString("answer:\n")
		for j, step := range ex.Steps {
			prompt.WriteString(fmt.Sprintf("%d. %s\n", j+1, step))
		}
		prompt.WriteString(fmt.Sprintf("%s %s\n\n", AnswerDelimiter, ex.ExpectedAnswer))
	}

	prompt.WriteString("### New Question:\n")
	prompt.WriteString(fmt.Sprintf("Question: %s\n", question))
	prompt.WriteString(fmt.Sprintf("Expected Answer: %s\n\n", expression))
	prompt.WriteString("answer:\n")

	return prompt.String()
}

// BuildReasoningMessages wraps BuildReasoningPrompt with the system instruction.
func BuildReasoningMessages(examples []ReasoningExample, question, expression string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: ReasoningSystemPrompt},
		{Role: llm.RoleUser, Content: BuildReasoningPrompt(examples, question, expression)},
	}
}
