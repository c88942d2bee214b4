package game

import (
	"errors"
	"fmt"
)

// ValidationError is a rejected action. State is never mutated when one is returned.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	ErrInvalidPhase       = &ValidationError{Code: "invalid_phase", Message: "invalid phase for action"}
	ErrEmptyAnswer        = &ValidationError{Code: "empty_answer", Message: "please enter a response before submitting"}
	ErrRosterSize         = &ValidationError{Code: "roster_size", Message: "number of names does not match the player count"}
	ErrPlayerCount        = &ValidationError{Code: "player_count", Message: fmt.Sprintf("player count must be between %d and %d", MinPlayers, MaxPlayers)}
	ErrNoRoster           = &ValidationError{Code: "no_roster", Message: "players have not been confirmed"}
	ErrGameEnded          = &ValidationError{Code: "game_ended", Message: "game is over, reset to play again"}
	ErrEvaluationInFlight = &ValidationError{Code: "evaluation_in_flight", Message: "evaluation already in progress"}
	ErrAllSubmitted       = &ValidationError{Code: "all_submitted", Message: "all players have already submitted"}
	ErrScenarioNotFound   = &ValidationError{Code: "scenario_not_found", Message: "scenario not found"}
	ErrNoEvaluator        = &ValidationError{Code: "no_evaluator", Message: "no evaluation service configured"}
)

var ErrEvaluationTimeout = errors.New("evaluation timed out")

// EvaluationError reports a failed call to the evaluation service. The round stays
// ready for evaluation and no score is applied, so the caller may retry.
type EvaluationError struct {
	Err error
}

func (e *EvaluationError) Error() string { return "analysis failed: " + e.Err.Error() }
func (e *EvaluationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a rejected action rather than a service failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
