package game

import (
	"context"
	"time"
)

// Report is the record handed to exporters after a round has been evaluated.
// Responses and Scores are keyed by display name; Entries keeps roster order.
type Report struct {
	ID          string            `json:"id" yaml:"id"`
	SessionID   string            `json:"session_id" yaml:"session_id"`
	Round       int               `json:"round" yaml:"round"`
	Scenario    Scenario          `json:"scenario" yaml:"scenario"`
	Responses   map[string]string `json:"responses" yaml:"responses"`
	Analysis    string            `json:"ai_analysis" yaml:"ai_analysis"`
	Scores      map[string]int    `json:"scores" yaml:"scores"`
	Model       string            `json:"model_used" yaml:"model_used"`
	Entries     []ReportEntry     `json:"-" yaml:"-"`
	Winner      string            `json:"winner,omitempty" yaml:"winner,omitempty"`
	GeneratedAt time.Time         `json:"generated_at" yaml:"generated_at"`
}

// ReportEntry is one player's line of the report, in roster order.
type ReportEntry struct {
	Name     string
	Response string
	Award    int
	Total    int
}

// ReportSink receives every evaluated round. Sink errors are logged, never
// propagated to the player.
type ReportSink interface {
	Record(ctx context.Context, r Report) error
}

func (s *SessionState) buildReport() (Report, bool) {
	rd := &s.Round
	if !rd.Active() || !rd.EvaluationReady {
		return Report{}, false
	}
	r := Report{
		ID:          rd.ID,
		SessionID:   s.ID,
		Round:       s.RoundNumber,
		Scenario:    *rd.Scenario,
		Responses:   make(map[string]string, len(rd.TurnOrder)),
		Analysis:    rd.EvaluationText,
		Scores:      make(map[string]int, len(s.Players)),
		Model:       rd.Model,
		GeneratedAt: time.Now().UTC(),
	}
	for i, p := range rd.TurnOrder {
		answer := ""
		if i < len(rd.Answers) {
			answer = rd.Answers[i]
		}
		r.Responses[p.Name] = answer
		r.Entries = append(r.Entries, ReportEntry{Name: p.Name, Response: answer, Award: rd.Awards[p.ID], Total: s.Scores[p.ID]})
	}
	for _, p := range s.Players {
		r.Scores[p.Name] = s.Scores[p.ID]
	}
	if s.Winner != nil {
		r.Winner = s.Winner.Name
	}
	return r, true
}
