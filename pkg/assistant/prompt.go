package assistant

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed prompts/printology.txt
var defaultPrompt string

// DefaultTemplate joins the system prompt and the customer's query. The
// first verb receives the prompt, the second the query.
const DefaultTemplate = "%s\n\nPelanggan: %s\nAssistant:"

// DefaultPrompt returns the built-in business prompt.
func DefaultPrompt() string {
	return strings.TrimSpace(defaultPrompt)
}

// LoadPrompt reads a prompt from path. An empty path yields DefaultPrompt.
func LoadPrompt(path string) (string, error) {
	if path == "" {
		return DefaultPrompt(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading prompt file: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("prompt file %s is empty", path)
	}
	return prompt, nil
}

// ValidateTemplate checks that tmpl has exactly two %s verbs.
func ValidateTemplate(tmpl string) error {
	if n := strings.Count(tmpl, "%s"); n != 2 {
		return fmt.Errorf("prompt template must contain two %%s verbs, found %d", n)
	}
	if strings.Count(tmpl, "%") != 2 {
		return fmt.Errorf("prompt template must not contain other format verbs")
	}
	return nil
}
