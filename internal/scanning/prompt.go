package scanning

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/tyler-sommer/stick"
)

//go:embed templates/receipt_template.xml
var receiptTemplate string

//go:embed templates/scan_prompt.twig
var scanPromptTemplate string

// buildPrompt renders the scan prompt: optional caller instructions first,
// then the task, the target XML shape and the category taxonomy. The
// instructions block is dropped entirely when it trims to nothing.
func buildPrompt(instructions, categories string) (string, error) {
	env := stick.New(nil)
	var buf bytes.Buffer
	err := env.Execute(scanPromptTemplate, &buf, map[string]stick.Value{
		"instructions": strings.TrimSpace(instructions),
		"template":     strings.TrimSpace(receiptTemplate),
		"categories":   strings.TrimSpace(categories),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPromptAssembly, err)
	}
	return buf.String(), nil
}
