package prompt

import "fmt"

// Instructions for the built-in editor actions.
const (
	GenerateDoc = "Generate a comment or docstring"
	Refactor    = "Refactorize following function"
	Fix         = "Generate a fix for the following code based on the error information"
)

const template = "%s for the given function using the appropriate language-specific documentation format.\n\nFunction:\n```%s```\n\nLanguage: %s"

// Prompt is the text sent to the completion service.
type Prompt string

func (p Prompt) String() string { return string(p) }

// Build composes the instruction, the snippet inside a fence, and the
// language line. extra, when non-empty, follows after a blank line.
// Backticks inside snippet are not escaped.
func Build(instruction, snippet, languageID, extra string) Prompt {
	p := fmt.Sprintf(template, instruction, snippet, languageID)
	if extra != "" {
		p += "\n\n" + extra
	}
	return Prompt(p)
}
