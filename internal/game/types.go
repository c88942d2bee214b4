package game

import "time"

type Phase string

const (
    PhaseNoRoster           Phase = "NoRoster"
    PhaseAwaitingRoundStart Phase = "AwaitingRoundStart"
    PhaseCollectingAnswers  Phase = "CollectingAnswers"
    PhaseReadyForEvaluation Phase = "ReadyForEvaluation"
    PhaseEvaluationInFlight Phase = "EvaluationInFlight"
    PhaseShowingAnalysis    Phase = "ShowingAnalysis"
    PhaseGameOver           Phase = "GameOver"
)

const (
    WinThreshold   = 10
    MinPlayers     = 2
    MaxPlayers     = 6
    DefaultPlayers = 3
    // NearWinScore is the score at which the leader is flagged as close to winning.
    NearWinScore = 8
)

var transitions = map[Phase][]Phase{
    PhaseNoRoster:           {PhaseAwaitingRoundStart},
    PhaseAwaitingRoundStart: {PhaseCollectingAnswers, PhaseNoRoster},
    PhaseCollectingAnswers:  {PhaseCollectingAnswers, PhaseReadyForEvaluation, PhaseAwaitingRoundStart},
    PhaseReadyForEvaluation: {PhaseEvaluationInFlight, PhaseAwaitingRoundStart, PhaseCollectingAnswers},
    PhaseEvaluationInFlight: {PhaseShowingAnalysis, PhaseGameOver, PhaseReadyForEvaluation},
    PhaseShowingAnalysis:    {PhaseAwaitingRoundStart},
    PhaseGameOver:           {},
}

// CanTransitionTo reports whether the state machine allows moving from p to target.
// A full reset to PhaseNoRoster is always allowed.
func (p Phase) CanTransitionTo(target Phase) bool {
    if target == PhaseNoRoster {
        return true
    }
    for _, next := range transitions[p] {
        if next == target {
            return true
        }
    }
    return false
}

type Scenario struct {
    Title  string `json:"title" yaml:"title"`
    Prompt string `json:"prompt" yaml:"prompt"`
}

type Player struct {
    ID   string `json:"id"`
    Name string `json:"name"`
}

type Standing struct {
    PlayerID string `json:"playerId"`
    Name     string `json:"name"`
    Points   int    `json:"points"`
}

type GameStats struct {
    TotalRounds  int     `json:"totalRounds"`
    WinningScore int     `json:"winningScore"`
    AverageScore float64 `json:"averageScore"`
}

// RoundView is the read-only projection of the active round.
type RoundView struct {
    ID              string         `json:"id"`
    Scenario        *Scenario      `json:"scenario"`
    TurnOrder       []Player       `json:"turnOrder"`
    Answers         []string       `json:"answers"`
    NextPlayerIndex int            `json:"nextPlayerIndex"`
    CurrentPlayer   *Player        `json:"currentPlayer,omitempty"`
    AllSubmitted    bool           `json:"allSubmitted"`
    Submitted       int            `json:"submitted"`
    Total           int            `json:"total"`
    EvaluationText  string         `json:"evaluationText,omitempty"`
    EvaluationReady bool           `json:"evaluationReady"`
    Model           string         `json:"model,omitempty"`
    Awards          map[string]int `json:"awards,omitempty"`
}

// Snapshot is what the presentation layer renders. It never aliases controller state.
type Snapshot struct {
    // Seq increases with every snapshot taken; a higher Seq is newer state.
    Seq         uint64         `json:"seq"`
    Phase       Phase          `json:"phase"`
    PlayerCount int            `json:"playerCount"`
    Players     []Player       `json:"players"`
    Scores      map[string]int `json:"scores"`
    Standings   []Standing     `json:"standings"`
    RoundNumber int            `json:"roundNumber"`
    Round       *RoundView     `json:"round,omitempty"`
    GameEnded   bool           `json:"gameEnded"`
    Winner      *Player        `json:"winner,omitempty"`
    NearWin     *Standing      `json:"nearWin,omitempty"`
    Stats       *GameStats     `json:"stats,omitempty"`
    // Model is the evaluator model used when an evaluation names none.
    Model       string         `json:"model,omitempty"`
    LastError   string         `json:"lastError,omitempty"`
    UpdatedAt   time.Time      `json:"updatedAt"`
}
