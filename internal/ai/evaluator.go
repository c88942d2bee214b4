package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// InstructorPrompt asks the model to rank every answer with one of the medal
// markers the score extractor looks for.
const InstructorPrompt = `You are an engaging workplace skills instructor who uses interactive scenarios with constructive feedback and light humor to teach professional behavior.

## Task Format

### Ranking System
🥇 GOLD MEDAL: Best response (⭐⭐⭐⭐⭐)
🥈 SILVER MEDAL: Good with minor issues (⭐⭐⭐⭐)
🥉 BRONZE MEDAL: Okay but needs improvement (⭐⭐⭐)
🤔 PARTICIPATION TROPHY: Poor but shows effort (⭐⭐)
🚨 "We Need to Talk": Major issues (⭐)

### Feedback Requirements
For each answer include:
- Clear reasoning for ranking
- Specific strengths/weaknesses
- Light, appropriate humor (workplace metaphors, gentle sarcasm, pop culture references)
- Constructive suggestions
- Professional context (why this matters at work)

### Learning Lesson Structure
End with:
- Key principle/framework (bolded)
- Practical application
- Why it matters professionally
- Bonus tip: Memorable, actionable advice

## Evaluation Criteria
Rate based on: Professionalism • Problem-solving • Accountability • Communication • Workplace awareness • Practical applicability

## Guidelines
- Keep humor light and encouraging (never mocking)
- Be constructive and end positively
- Make lessons actionable and memorable
- Use emojis sparingly but effectively

Please evaluate the responses and provide rankings with feedback. IMPORTANT: For each player's response, clearly indicate which medal/trophy they receive (🥇 GOLD MEDAL, 🥈 SILVER MEDAL, etc.) so scores can be calculated.`

// Evaluator turns a round into a single ranking request against a Provider.
type Evaluator struct {
	provider     Provider
	systemPrompt string
}

func NewEvaluator(p Provider, systemPrompt string) *Evaluator {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = InstructorPrompt
	}
	return &Evaluator{provider: p, systemPrompt: systemPrompt}
}

// Evaluate sends one request, with no retry, and returns the model's feedback.
func (e *Evaluator) Evaluate(ctx context.Context, scenarioText string, answers []string, playerNames []string, model string) (string, error) {
	if e.provider == nil {
		return "", errors.New("no provider configured")
	}
	if len(answers) == 0 {
		return "", errors.New("no answers to evaluate")
	}
	text, err := e.provider.CompleteWithSystem(ctx, model, e.systemPrompt, BuildRoundPrompt(scenarioText, answers, playerNames))
	if err != nil {
		return "", fmt.Errorf("evaluate with %s: %w", model, err)
	}
	return text, nil
}

// BuildRoundPrompt lists every answer labelled with its author. Answers and
// names are paired by position; unpaired entries are dropped.
func BuildRoundPrompt(scenarioText string, answers []string, playerNames []string) string {
	n := len(answers)
	if len(playerNames) < n {
		n = len(playerNames)
	}
	var sb strings.Builder
	sb.WriteString("\nScenario: ")
	sb.WriteString(scenarioText)
	sb.WriteString("\n\nStudent Answers:\n")
	for i := 0; i < n; i++ {
		sb.WriteString(fmt.Sprintf("%s: %s\n\n", playerNames[i], answers[i]))
	}
	sb.WriteString("\nPlease evaluate these responses using the ranking system and provide feedback with a learning lesson. Make sure to clearly identify which medal/trophy each player receives.\n")
	return sb.String()
}
