package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// OpenAICompat reaches every non-Gemini model through the OpenAI
// chat-completions protocol, which OpenAI itself, LiteLLM proxies and
// Ollama's compatibility endpoint all speak. The HTTP client carries no
// timeout of its own; cancellation comes from the request context.
type OpenAICompat struct {
	baseURL string
	client  *http.Client
}

// NewOpenAICompat creates a completer for the given API base URL
// (default https://api.openai.com/v1).
func NewOpenAICompat(baseURL string) *OpenAICompat {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAICompat{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string            `json:"role"`
	Content []chatContentPart `json:"content"`
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt plus an inline base64 image part and returns
// the first choice's content.
func (o *OpenAICompat) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	imageURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(req.ImagePNG)
	body := chatCompletionRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []chatContentPart{
					{Type: "text", Text: req.Prompt},
					{Type: "image_url", ImageURL: &chatImageURL{URL: imageURL}},
				},
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if key := o.apiKey(req.APIKey); key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling chat completions api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat completions api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response from model")
	}
	return chatResp.Choices[0].Message.Content, nil
}

// apiKey resolves the tier credential, falling back to the transport's
// ambient environment key when the selector passed none.
func (o *OpenAICompat) apiKey(tierKey string) string {
	if tierKey != "" {
		return tierKey
	}
	return os.Getenv("OPENAI_API_KEY")
}
