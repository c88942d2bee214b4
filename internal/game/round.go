package game

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RoundState is one scenario answered in turn by every roster player.
type RoundState struct {
	ID              string
	Scenario        *Scenario
	TurnOrder       []Player
	Answers         []string
	NextPlayerIndex int
	AllSubmitted    bool
	EvaluationText  string
	EvaluationReady bool
	Model           string
	Awards          map[string]int
}

// Start (re)initialises the round for the given scenario and roster.
func (r *RoundState) Start(sc Scenario, players []Player) error {
	if len(players) == 0 {
		return ErrNoRoster
	}
	order := make([]Player, len(players))
	copy(order, players)
	*r = RoundState{
		ID:        uuid.NewString(),
		Scenario:  &sc,
		TurnOrder: order,
		Answers:   []string{},
	}
	return nil
}

// Active reports whether a scenario has been drawn for this round.
func (r *RoundState) Active() bool { return r.Scenario != nil }

func (r *RoundState) PlayerCount() int { return len(r.TurnOrder) }

// Submit records the answer of the player whose turn it is.
func (r *RoundState) Submit(text string) error {
	if !r.Active() {
		return ErrInvalidPhase
	}
	if r.AllSubmitted || r.NextPlayerIndex >= r.PlayerCount() {
		return ErrAllSubmitted
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyAnswer
	}
	r.Answers = append(r.Answers, text)
	r.NextPlayerIndex++
	if r.NextPlayerIndex == r.PlayerCount() {
		r.AllSubmitted = true
	}
	return nil
}

// CurrentPlayer is the player expected to submit next.
func (r *RoundState) CurrentPlayer() (Player, error) {
	if r.AllSubmitted || r.NextPlayerIndex < 0 || r.NextPlayerIndex >= r.PlayerCount() {
		return Player{}, ErrAllSubmitted
	}
	return r.TurnOrder[r.NextPlayerIndex], nil
}

// Heal restores the round invariants and returns a description of every repair made.
//   - len(Answers) <= PlayerCount
//   - 0 <= NextPlayerIndex <= PlayerCount
//   - AllSubmitted whenever every answer is in or the index ran past the roster
func (r *RoundState) Heal() []string {
	if !r.Active() {
		return nil
	}
	var repairs []string
	n := r.PlayerCount()
	if len(r.Answers) > n {
		repairs = append(repairs, fmt.Sprintf("trimmed answers from %d to %d", len(r.Answers), n))
		r.Answers = r.Answers[:n]
	}
	if r.NextPlayerIndex < 0 {
		repairs = append(repairs, fmt.Sprintf("clamped next player index %d to 0", r.NextPlayerIndex))
		r.NextPlayerIndex = 0
	}
	if r.NextPlayerIndex > n {
		repairs = append(repairs, fmt.Sprintf("clamped next player index %d to %d", r.NextPlayerIndex, n))
		r.NextPlayerIndex = n
	}
	if !r.AllSubmitted && (len(r.Answers) >= n || r.NextPlayerIndex >= n) {
		repairs = append(repairs, fmt.Sprintf("marked all submitted (answers=%d index=%d players=%d)", len(r.Answers), r.NextPlayerIndex, n))
		r.AllSubmitted = true
	}
	return repairs
}

func (r *RoundState) view() *RoundView {
	if !r.Active() {
		return nil
	}
	sc := *r.Scenario
	v := &RoundView{
		ID:              r.ID,
		Scenario:        &sc,
		TurnOrder:       append([]Player(nil), r.TurnOrder...),
		Answers:         append([]string{}, r.Answers...),
		NextPlayerIndex: r.NextPlayerIndex,
		AllSubmitted:    r.AllSubmitted,
		Submitted:       len(r.Answers),
		Total:           r.PlayerCount(),
		EvaluationText:  r.EvaluationText,
		EvaluationReady: r.EvaluationReady,
		Model:           r.Model,
	}
	if r.Awards != nil {
		v.Awards = make(map[string]int, len(r.Awards))
		for k, pts := range r.Awards {
			v.Awards[k] = pts
		}
	}
	if p, err := r.CurrentPlayer(); err == nil {
		v.CurrentPlayer = &p
	}
	return v
}
