package scanning

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini issues completions through the official Gemini client. A client
// is built per call so the credential picked by the fallback selector
// takes effect; without an explicit key the Google API transport applies
// its ambient default credentials.
type Gemini struct{}

// Complete sends the prompt and receipt image to the requested model and
// returns the concatenated text parts of the first candidate.
func (Gemini) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var opts []option.ClientOption
	if req.APIKey != "" {
		opts = append(opts, option.WithAPIKey(req.APIKey))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("creating gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(geminiModelName(req.Model))
	parts := []genai.Part{
		genai.ImageData("png", req.ImagePNG),
		genai.Text(req.Prompt),
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String(), nil
}

// geminiModelName strips the "gemini/" provider prefix some callers carry
// over from proxy-style model identifiers.
func geminiModelName(model string) string {
	if _, name, found := strings.Cut(model, "/"); found {
		return name
	}
	return model
}
