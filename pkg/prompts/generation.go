package prompts

import (
	"fmt"
	"strings"
)

// DefaultPromptCount is the number of prompts requested per generation call.
const DefaultPromptCount = 25

// GenerationInput holds everything substituted into the prompt-generation request.
type GenerationInput struct {
	Domains            []string
	Constraints        []string
	Definitions        []string // parallel to Constraints
	ConstraintsSection string
	Examples           []string
	PromptCount        int
}

// BuildGenerationPrompt creates the request asking for a numbered, quoted list
// of data-validation requirement prompts.
func BuildGenerationPrompt(in GenerationInput) string {
	count := in.PromptCount
	if count <= 0 {
		count = DefaultPromptCount
	}

	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("Generate **%d high-quality expectation prompts** for an **LLM**, ", count))
	prompt.WriteString(fmt.Sprintf("focusing on **data validation checks** across the domains: %s.\n\n", strings.Join(in.Domains, ", ")))
	prompt.WriteString("Each prompt should **follow the lexical style** of the provided examples and address **constraints** ")
	prompt.WriteString(fmt.Sprintf("specified under %s.\n\n", strings.Join(in.Constraints, ", ")))
	prompt.WriteString("---\n\n")

	prompt.WriteString("### **Requirements:**\n")
	prompt.WriteString("1. Each prompt must target a **specific field** in the selected domains.\n")
	prompt.WriteString(fmt.Sprintf("2. Each prompt should align with one or more constraints defined in:\n%s\n", strings.Join(in.Definitions, "\n")))
	prompt.WriteString("3. The language of the prompts should be **clear, structured, and actionable**.\n\n")
	prompt.WriteString("---\n\n")

	prompt.WriteString("### **Constraint Categories:**\n")
	prompt.WriteString(in.ConstraintsSection)
	prompt.WriteString("\n---\n\n")

	prompt.WriteString("### **Examples of Prompts:**\n")
	if len(in.Examples) == 0 {
		prompt.WriteString("(no examples available)\n")
	}
	for i, ex := range in.Examples {
		prompt.WriteString(fmt.Sprintf("%d. %q\n", i+1, ex))
	}
	prompt.WriteString("\n---\n\n")

	prompt.WriteString("### **Output Format:**\n")
	prompt.WriteString(fmt.Sprintf("Return exactly %d prompts as a numbered list, one per line, each prompt wrapped in double quotes:\n", count))
	prompt.WriteString("1. \"<prompt>\"\n2. \"<prompt>\"\n\n")
	prompt.WriteString("Ensure the prompts:\n")
	prompt.WriteString("- Adhere to the selected constraint categories.\n")
	prompt.WriteString("- Align with the given examples.\n")
	prompt.WriteString("- Reflect the nuances of the selected domains.\n")

	return prompt.String()
}
