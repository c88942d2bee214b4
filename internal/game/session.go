package game

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// SessionState is the cross-round state of one game: roster, scores, round
// counter and win status. It owns the current round.
type SessionState struct {
	ID          string // new for every confirmed roster
	Players     []Player
	Scores      map[string]int // playerID -> points
	RoundNumber int
	Winner      *Player
	GameEnded   bool
	Round       RoundState
}

func NewSessionState() *SessionState {
	return &SessionState{Scores: make(map[string]int), RoundNumber: 1}
}

// ConfirmRoster replaces the roster with freshly identified players, one per name.
// Blank names fall back to "Player N". Scores start at zero.
func (s *SessionState) ConfirmRoster(names []string) []Player {
	players := make([]Player, len(names))
	s.Scores = make(map[string]int, len(names))
	for i, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			n = fmt.Sprintf("Player %d", i+1)
		}
		players[i] = Player{ID: uuid.NewString(), Name: n}
		s.Scores[players[i].ID] = 0
	}
	s.Players = players
	s.ID = uuid.NewString()
	return players
}

func (s *SessionState) HasRoster() bool { return len(s.Players) > 0 }

// ApplyRoundScores adds each award to the player's running total. Awards for
// players outside the roster are ignored.
func (s *SessionState) ApplyRoundScores(awards map[string]int) {
	for _, p := range s.Players {
		s.Scores[p.ID] += awards[p.ID]
	}
}

// CheckForWinner ends the game once the top score reaches WinThreshold.
// Ties go to the earliest player in roster order. It reports whether the game
// is over, not whether this call ended it: once ended it keeps returning true
// and never changes the decided winner.
func (s *SessionState) CheckForWinner() bool {
	if s.GameEnded {
		return true
	}
	if len(s.Scores) == 0 || len(s.Players) == 0 {
		return false
	}
	best := -1
	var leader Player
	for _, p := range s.Players {
		if pts := s.Scores[p.ID]; pts > best {
			best = pts
			leader = p
		}
	}
	if best < WinThreshold {
		return false
	}
	s.Winner = &leader
	s.GameEnded = true
	return true
}

// StartNewRound advances the round counter and clears the round.
func (s *SessionState) StartNewRound() error {
	if s.GameEnded {
		return ErrGameEnded
	}
	s.RoundNumber++
	s.ResetRound()
	return nil
}

// ResetRound clears the round and keeps scores, roster and round number.
func (s *SessionState) ResetRound() {
	s.Round = RoundState{}
}

// ResetGame clears everything, including the roster.
func (s *SessionState) ResetGame() {
	*s = *NewSessionState()
}

// Standings orders players by points descending, roster order for ties.
func (s *SessionState) Standings() []Standing {
	out := make([]Standing, 0, len(s.Players))
	for _, p := range s.Players {
		out = append(out, Standing{PlayerID: p.ID, Name: p.Name, Points: s.Scores[p.ID]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	return out
}

func (s *SessionState) stats() *GameStats {
	if !s.GameEnded || s.Winner == nil || len(s.Players) == 0 {
		return nil
	}
	total := 0
	for _, p := range s.Players {
		total += s.Scores[p.ID]
	}
	return &GameStats{
		TotalRounds:  s.RoundNumber,
		WinningScore: s.Scores[s.Winner.ID],
		AverageScore: float64(total) / float64(len(s.Players)),
	}
}
