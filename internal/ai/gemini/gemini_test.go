package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
)

func TestCompleteWithSystem_MissingKey(t *testing.T) {
	c := New("")
	_, err := c.CompleteWithSystem(context.Background(), "", "system", "prompt")
	assert.EqualError(t, err, "missing GEMINI_API_KEY")
	assert.NoError(t, c.Close())
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("🥇 Ann "), genai.Text("did well")}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}
	assert.Equal(t, "🥇 Ann did well", responseText(resp))
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))
}

func TestCleanModelOutput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"```markdown\n# Ranking\n```", "# Ranking"},
		{"```\n🥇 Ann\n```\n", "🥇 Ann"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanModelOutput(tt.in))
	}
}
