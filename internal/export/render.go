// Package export turns evaluated rounds into downloadable reports and keeps a
// record of them outside the running session.
package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/workplay/officegame/internal/game"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat accepts the format names and their usual file extensions.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	}
	return "text/markdown"
}

// FileName follows the round_N_report.md / round_N_data.json naming.
func (f Format) FileName(round int) string {
	switch f {
	case FormatJSON:
		return fmt.Sprintf("round_%d_data.json", round)
	case FormatYAML:
		return fmt.Sprintf("round_%d_data.yaml", round)
	}
	return fmt.Sprintf("round_%d_report.md", round)
}

func Render(r game.Report, f Format) ([]byte, error) {
	switch f {
	case FormatMarkdown:
		return []byte(Markdown(r)), nil
	case FormatJSON:
		return json.MarshalIndent(r, "", "  ")
	case FormatYAML:
		return yaml.Marshal(r)
	}
	return nil, fmt.Errorf("unknown report format %q", f)
}

// Markdown renders the human-readable round report.
func Markdown(r game.Report) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Office Scenario Training Report - Round %d\n\n", r.Round))
	sb.WriteString(fmt.Sprintf("## Scenario: %s\n%s\n\n", r.Scenario.Title, r.Scenario.Prompt))
	sb.WriteString("## Player Responses:\n")
	for _, e := range r.Entries {
		sb.WriteString(fmt.Sprintf("\n**%s:** %s\n", e.Name, e.Response))
	}
	sb.WriteString(fmt.Sprintf("\n## AI Analysis:\n%s\n", r.Analysis))
	sb.WriteString("\n## Current Scores:\n")
	for _, s := range sortedScores(r) {
		sb.WriteString(fmt.Sprintf("- %s: %d points\n", s.name, s.points))
	}
	if r.Model != "" {
		sb.WriteString(fmt.Sprintf("\n_Model: %s_\n", r.Model))
	}
	if r.Winner != "" {
		sb.WriteString(fmt.Sprintf("\n🏆 %s wins the game!\n", r.Winner))
	}
	return sb.String()
}

type nameScore struct {
	name   string
	points int
}

// sortedScores orders by points descending, keeping report entry order for ties.
func sortedScores(r game.Report) []nameScore {
	out := make([]nameScore, 0, len(r.Scores))
	seen := make(map[string]bool, len(r.Scores))
	for _, e := range r.Entries {
		if pts, ok := r.Scores[e.Name]; ok && !seen[e.Name] {
			out = append(out, nameScore{e.Name, pts})
			seen[e.Name] = true
		}
	}
	rest := make([]string, 0)
	for name := range r.Scores {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		out = append(out, nameScore{name, r.Scores[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].points > out[j].points })
	return out
}
