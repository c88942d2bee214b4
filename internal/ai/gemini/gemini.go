package gemini

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-1.5-flash"

// Client talks to Google's Gemini API. The underlying SDK client is created on
// first use so a missing key only fails the evaluation, not startup.
type Client struct {
	APIKey      string
	Temperature float32
	MaxTokens   int32

	mu     sync.Mutex
	client *genai.Client
}

func New(apiKey string) *Client {
	return &Client{APIKey: apiKey, Temperature: 0.7, MaxTokens: 4096}
}

func (c *Client) Complete(ctx context.Context, model string, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, model, "", prompt)
}

func (c *Client) CompleteWithSystem(ctx context.Context, model string, systemPrompt string, prompt string) (string, error) {
	cl, err := c.sdk()
	if err != nil {
		return "", err
	}
	if model == "" || strings.Contains(model, "gpt") {
		model = DefaultModel
	}
	m := cl.GenerativeModel(model)
	m.SetTemperature(c.Temperature)
	m.SetMaxOutputTokens(c.MaxTokens)
	if systemPrompt != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	}
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return cleanModelOutput(responseText(resp)), nil
}

// Close releases the SDK client, if one was created.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

func (c *Client) sdk() (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	if c.APIKey == "" {
		return nil, errors.New("missing GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(context.Background(), option.WithAPIKey(c.APIKey))
	if err != nil {
		return nil, err
	}
	c.client = cl
	return cl, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		break
	}
	return sb.String()
}

func cleanModelOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```markdown")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
