package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workplay/officegame/internal/game"
	"gopkg.in/yaml.v3"
)

func sampleReport(round int) game.Report {
	return game.Report{
		ID:        "round-" + string(rune('0'+round)),
		SessionID: "game-1",
		Round:     round,
		Scenario:  game.Scenario{Title: "The Late Arrival", Prompt: "You are late for work and your boss is angry."},
		Responses: map[string]string{
			"Ann": "Apologise and explain",
			"Bo":  "Blame the traffic",
		},
		Analysis: "🥇 GOLD MEDAL: Ann\n🚨 We Need to Talk: Bo",
		Scores:   map[string]int{"Ann": 10, "Bo": 20},
		Model:    "gpt-3.5-turbo",
		Entries: []game.ReportEntry{
			{Name: "Ann", Response: "Apologise and explain", Award: 10, Total: 10},
			{Name: "Bo", Response: "Blame the traffic", Award: 10, Total: 20},
		},
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		file string
	}{
		{"", FormatMarkdown, "round_3_report.md"},
		{"md", FormatMarkdown, "round_3_report.md"},
		{"JSON", FormatJSON, "round_3_data.json"},
		{"yml", FormatYAML, "round_3_data.yaml"},
	}
	for _, tt := range tests {
		f, err := ParseFormat(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, f)
		assert.Equal(t, tt.file, f.FileName(3))
	}

	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestMarkdown(t *testing.T) {
	r := sampleReport(2)
	r.Winner = "Bo"
	md := Markdown(r)

	assert.True(t, strings.HasPrefix(md, "# Office Scenario Training Report - Round 2\n"))
	assert.Contains(t, md, "## Scenario: The Late Arrival\n")
	assert.Contains(t, md, "**Ann:** Apologise and explain")
	assert.Contains(t, md, "## AI Analysis:\n🥇 GOLD MEDAL: Ann")
	assert.Contains(t, md, "_Model: gpt-3.5-turbo_")
	assert.Contains(t, md, "🏆 Bo wins the game!")
	assert.Less(t, strings.Index(md, "- Bo: 20 points"), strings.Index(md, "- Ann: 10 points"), "scores sorted descending")
}

func TestRender_JSON(t *testing.T) {
	body, err := Render(sampleReport(1), FormatJSON)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "🥇 GOLD MEDAL: Ann\n🚨 We Need to Talk: Bo", out["ai_analysis"])
	assert.Equal(t, "gpt-3.5-turbo", out["model_used"])
	assert.EqualValues(t, 1, out["round"])
	assert.NotContains(t, out, "winner")
	assert.NotContains(t, out, "Entries")
}

func TestRender_YAML(t *testing.T) {
	body, err := Render(sampleReport(1), FormatYAML)
	require.NoError(t, err)

	var out struct {
		Round     int               `yaml:"round"`
		Responses map[string]string `yaml:"responses"`
		Scores    map[string]int    `yaml:"scores"`
		Model     string            `yaml:"model_used"`
	}
	require.NoError(t, yaml.Unmarshal(body, &out))
	assert.Equal(t, 1, out.Round)
	assert.Equal(t, "Blame the traffic", out.Responses["Bo"])
	assert.Equal(t, 20, out.Scores["Bo"])
	assert.Equal(t, "gpt-3.5-turbo", out.Model)
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "results.txt")
	sink := NewFileSink(path)

	require.NoError(t, sink.Record(context.Background(), sampleReport(1)))
	second := sampleReport(2)
	second.Winner = "Bo"
	require.NoError(t, sink.Record(context.Background(), second))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(b)

	assert.Equal(t, 1, strings.Count(text, "Office Scenario Training Results"), "header written once per game")
	assert.Contains(t, text, "Players:\n- Ann\n- Bo\n")
	assert.Contains(t, text, `Round 1: "The Late Arrival"`)
	assert.Contains(t, text, `- Ann: "Apologise and explain" (+10)`)
	assert.Contains(t, text, `Round 2: "The Late Arrival"`)
	assert.Contains(t, text, "Evaluated by: gpt-3.5-turbo")
	assert.Contains(t, text, "winner: Bo")

	// a new game appends a fresh header
	next := sampleReport(1)
	next.SessionID = "game-2"
	require.NoError(t, sink.Record(context.Background(), next))
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(b), "Office Scenario Training Results"))
}

func TestFileSink_HeaderFollowsSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")
	ctx := context.Background()

	// round 1 evaluated twice in the same game gets one header
	sink := NewFileSink(path)
	require.NoError(t, sink.Record(ctx, sampleReport(1)))
	require.NoError(t, sink.Record(ctx, sampleReport(1)))

	// a later process whose game skipped round 1 still starts with a header
	restarted := NewFileSink(path)
	skipped := sampleReport(2)
	skipped.SessionID = "game-2"
	require.NoError(t, restarted.Record(ctx, skipped))
	third := sampleReport(3)
	third.SessionID = "game-2"
	require.NoError(t, restarted.Record(ctx, third))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(b)
	assert.Equal(t, 2, strings.Count(text, "Office Scenario Training Results"))
	assert.Less(t, strings.LastIndex(text, "Office Scenario Training Results"), strings.Index(text, `Round 2: "The Late Arrival"`))
}

func TestArchive(t *testing.T) {
	a, err := OpenArchive(filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	defer a.Close()

	// migrations are idempotent
	require.NoError(t, a.Migrate())
	require.NoError(t, a.Migrate())

	ctx := context.Background()
	first := sampleReport(1)
	second := sampleReport(2)
	second.GeneratedAt = first.GeneratedAt.Add(time.Minute)
	second.Winner = "Bo"
	require.NoError(t, a.Record(ctx, first))
	require.NoError(t, a.Record(ctx, second))
	require.NoError(t, a.Record(ctx, second), "re-recording the same round replaces it")

	list, err := a.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, 2, list[0].Round)
	assert.Equal(t, "Bo", list[0].Winner)
	assert.Equal(t, "The Late Arrival", list[0].ScenarioTitle)
	assert.Equal(t, second.Analysis, list[0].Report.Analysis)
	assert.Equal(t, second.Scores, list[0].Report.Scores)
	assert.Equal(t, first.ID, list[1].ID)

	list, err = a.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
