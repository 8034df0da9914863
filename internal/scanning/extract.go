package scanning

import (
	"fmt"
	"strings"
)

const (
	openTag  = "<receipt>"
	closeTag = "</receipt>"
)

// ExtractXML pulls the outermost <receipt> fragment out of a free-form
// model response. Models regularly wrap the document in prose or fenced
// code blocks despite being told not to; everything outside the first
// opening tag and the last closing tag is discarded.
func ExtractXML(text string) (string, error) {
	start := strings.Index(text, openTag)
	end := strings.LastIndex(text, closeTag)
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("%w", ErrExtraction)
	}
	return text[start : end+len(closeTag)], nil
}
