package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Evaluator ranks a round's answers and returns free-form feedback text.
type Evaluator interface {
	Evaluate(ctx context.Context, scenarioText string, answers []string, playerNames []string, model string) (string, error)
}

// Catalog supplies scenarios for new rounds.
type Catalog interface {
	Random() Scenario
	ByTitle(title string) (Scenario, bool)
}

var ErrStaleEvaluation = &ValidationError{Code: "evaluation_discarded", Message: "game was reset while the evaluation was running"}

type Options struct {
	PlayerCount       int
	DefaultModel      string
	EvaluationTimeout time.Duration
	Sinks             []ReportSink
	Logger            zerolog.Logger
}

// Controller drives one game session. Every action runs to completion under
// the controller lock; only the evaluation call runs outside it, while the
// phase is PhaseEvaluationInFlight.
type Controller struct {
	mu          sync.Mutex
	session     *SessionState
	phase       Phase
	playerCount int
	epoch       uint64
	seq         uint64
	started     bool // a round was started since the roster was confirmed
	lastErr     string
	updatedAt   time.Time

	catalog   Catalog
	evaluator Evaluator
	model     string
	timeout   time.Duration
	sinks     []ReportSink
	log       zerolog.Logger

	subMu       sync.Mutex
	subscribers []func(Snapshot)

	// notifyMu serializes delivery; delivered is the newest Seq handed out.
	notifyMu  sync.Mutex
	delivered uint64
}

func NewController(catalog Catalog, evaluator Evaluator, opts Options) *Controller {
	n := opts.PlayerCount
	if n < MinPlayers || n > MaxPlayers {
		n = DefaultPlayers
	}
	return &Controller{
		session:     NewSessionState(),
		phase:       PhaseNoRoster,
		playerCount: n,
		updatedAt:   time.Now().UTC(),
		catalog:     catalog,
		evaluator:   evaluator,
		model:       opts.DefaultModel,
		timeout:     opts.EvaluationTimeout,
		sinks:       opts.Sinks,
		log:         opts.Logger,
	}
}

// Subscribe registers fn to receive a snapshot after every state change.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// notify delivers s to every subscriber. Snapshots older than one already
// delivered are dropped, so subscribers never end on stale state.
func (c *Controller) notify(s Snapshot) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if s.Seq <= c.delivered {
		return
	}
	c.delivered = s.Seq

	c.subMu.Lock()
	subs := make([]func(Snapshot), len(c.subscribers))
	copy(subs, c.subscribers)
	c.subMu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

// Snapshot returns a deep copy of the current state after restoring invariants.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.healLocked()
	return c.snapshotLocked()
}

// SetPlayerCount changes the roster size. The roster and scores are cleared,
// so it is only accepted while no round is in progress.
func (c *Controller) SetPlayerCount(n int) (Snapshot, error) {
	return c.mutate("set_player_count", func() error {
		if n < MinPlayers || n > MaxPlayers {
			return ErrPlayerCount
		}
		if c.phase != PhaseNoRoster && c.phase != PhaseAwaitingRoundStart {
			return c.phaseError()
		}
		if n == c.playerCount {
			return nil
		}
		c.playerCount = n
		c.started = false
		c.session.Players = nil
		c.session.Scores = make(map[string]int)
		c.session.ResetRound()
		return c.transition(PhaseNoRoster)
	})
}

// ConfirmRoster creates the players for this session. The roster can be
// confirmed again until the first round is started.
func (c *Controller) ConfirmRoster(names []string) (Snapshot, error) {
	return c.mutate("confirm_roster", func() error {
		switch {
		case c.phase == PhaseNoRoster:
		case c.phase == PhaseAwaitingRoundStart && !c.started:
		default:
			return c.phaseError()
		}
		if len(names) != c.playerCount {
			return ErrRosterSize
		}
		players := c.session.ConfirmRoster(names)
		c.log.Info().Int("players", len(players)).Msg("roster confirmed")
		return c.transition(PhaseAwaitingRoundStart)
	})
}

// StartRound begins a round with the named scenario, or a random one when title
// is empty. An unevaluated round in progress is replaced.
func (c *Controller) StartRound(title string) (Snapshot, error) {
	return c.mutate("start_round", func() error {
		switch c.phase {
		case PhaseAwaitingRoundStart, PhaseCollectingAnswers, PhaseReadyForEvaluation:
		default:
			return c.phaseError()
		}
		var sc Scenario
		if strings.TrimSpace(title) == "" {
			if sc = c.catalog.Random(); sc.Prompt == "" {
				return ErrScenarioNotFound
			}
		} else {
			var ok bool
			if sc, ok = c.catalog.ByTitle(title); !ok {
				return ErrScenarioNotFound
			}
		}
		c.session.ResetRound()
		if err := c.session.Round.Start(sc, c.session.Players); err != nil {
			return err
		}
		c.started = true
		c.log.Info().Int("round", c.session.RoundNumber).Str("scenario", sc.Title).Msg("round started")
		return c.transition(PhaseCollectingAnswers)
	})
}

// SubmitAnswer records the answer of the player whose turn it is.
func (c *Controller) SubmitAnswer(text string) (Snapshot, error) {
	return c.mutate("submit_answer", func() error {
		if c.phase != PhaseCollectingAnswers {
			if c.phase == PhaseReadyForEvaluation {
				return ErrAllSubmitted
			}
			return c.phaseError()
		}
		rd := &c.session.Round
		p, err := rd.CurrentPlayer()
		if err != nil {
			return err
		}
		if err := rd.Submit(text); err != nil {
			return err
		}
		c.log.Info().Str("player", p.Name).Int("submitted", len(rd.Answers)).Int("total", rd.PlayerCount()).Msg("answer submitted")
		if rd.AllSubmitted {
			return c.transition(PhaseReadyForEvaluation)
		}
		return nil
	})
}

// RequestEvaluation sends the round to the evaluator and applies the extracted
// awards. A failed or timed out evaluation leaves the round ready for another
// attempt with scores untouched. model overrides the default when non-empty.
func (c *Controller) RequestEvaluation(ctx context.Context, model string) (Snapshot, error) {
	c.mu.Lock()
	c.healLocked()
	if c.phase != PhaseReadyForEvaluation {
		err := c.phaseError()
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}
	if c.evaluator == nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, ErrNoEvaluator
	}
	if model == "" {
		model = c.model
	}
	rd := &c.session.Round
	prompt := rd.Scenario.Prompt
	answers := append([]string(nil), rd.Answers...)
	names := make([]string, len(rd.TurnOrder))
	for i, p := range rd.TurnOrder {
		names[i] = p.Name
	}
	epoch := c.epoch
	round := c.session.RoundNumber
	_ = c.transition(PhaseEvaluationInFlight)
	c.lastErr = ""
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	evalCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	text, err := c.evaluator.Evaluate(evalCtx, prompt, answers, names, model)
	dur := time.Since(start)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("evaluator returned no analysis")
	}
	if err != nil && errors.Is(evalCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("%w after %s: %v", ErrEvaluationTimeout, c.timeout, err)
	}

	c.mu.Lock()
	if c.epoch != epoch || c.phase != PhaseEvaluationInFlight {
		c.log.Warn().Int("round", round).Dur("dur", dur).Msg("discarding evaluation for a reset game")
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, ErrStaleEvaluation
	}
	if err != nil {
		c.log.Error().Err(err).Int("round", round).Str("model", model).Dur("dur", dur).Msg("evaluation failed")
		_ = c.transition(PhaseReadyForEvaluation)
		evalErr := &EvaluationError{Err: err}
		c.lastErr = evalErr.Error()
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return snap, evalErr
	}

	rd.EvaluationText = text
	rd.EvaluationReady = true
	rd.Model = model
	rd.Awards = ExtractAwards(text, rd.TurnOrder)
	c.session.ApplyRoundScores(rd.Awards)
	ended := c.session.CheckForWinner()
	awards := zerolog.Dict()
	for _, p := range rd.TurnOrder {
		awards.Int(p.Name, rd.Awards[p.ID])
	}
	c.log.Info().Int("round", round).Str("model", model).Dur("dur", dur).Dict("awards", awards).Msg("evaluation applied")
	if ended {
		_ = c.transition(PhaseGameOver)
		c.log.Info().Str("winner", c.session.Winner.Name).Int("score", c.session.Scores[c.session.Winner.ID]).Msg("game over")
	} else {
		_ = c.transition(PhaseShowingAnalysis)
	}
	report, _ := c.session.buildReport()
	snap = c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	c.record(context.WithoutCancel(ctx), report)
	return snap, nil
}

// SkipRound abandons an unevaluated round without scoring and moves to the next round number.
func (c *Controller) SkipRound() (Snapshot, error) {
	return c.mutate("skip_round", func() error {
		if c.phase != PhaseReadyForEvaluation {
			return c.phaseError()
		}
		if err := c.session.StartNewRound(); err != nil {
			return err
		}
		return c.transition(PhaseAwaitingRoundStart)
	})
}

// NextRound leaves the analysis screen for the next round.
func (c *Controller) NextRound() (Snapshot, error) {
	return c.mutate("next_round", func() error {
		if c.phase != PhaseShowingAnalysis {
			return c.phaseError()
		}
		if err := c.session.StartNewRound(); err != nil {
			return err
		}
		return c.transition(PhaseAwaitingRoundStart)
	})
}

// ResetRound discards the current round but keeps roster, scores and round number.
func (c *Controller) ResetRound() (Snapshot, error) {
	return c.mutate("reset_round", func() error {
		switch c.phase {
		case PhaseNoRoster, PhaseEvaluationInFlight, PhaseGameOver:
			return c.phaseError()
		}
		c.epoch++
		c.session.ResetRound()
		return c.transition(PhaseAwaitingRoundStart)
	})
}

// ResetGame clears everything and returns to roster entry. It is accepted in
// any phase; an evaluation still running is discarded when it returns.
func (c *Controller) ResetGame() Snapshot {
	snap, _ := c.mutate("reset_game", func() error {
		c.epoch++
		c.started = false
		c.session.ResetGame()
		c.phase = PhaseNoRoster
		c.log.Info().Msg("game reset")
		return nil
	})
	return snap
}

// Report returns the export record for the evaluated round.
func (c *Controller) Report() (Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseShowingAnalysis && c.phase != PhaseGameOver {
		return Report{}, c.phaseError()
	}
	r, ok := c.session.buildReport()
	if !ok {
		return Report{}, ErrInvalidPhase
	}
	return r, nil
}

func (c *Controller) mutate(action string, fn func() error) (Snapshot, error) {
	c.mu.Lock()
	c.healLocked()
	if err := fn(); err != nil {
		c.log.Debug().Str("action", action).Str("phase", string(c.phase)).Err(err).Msg("action rejected")
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}
	c.lastErr = ""
	c.updatedAt = time.Now().UTC()
	c.healLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return snap, nil
}

func (c *Controller) transition(to Phase) error {
	if to == c.phase {
		return nil
	}
	if !c.phase.CanTransitionTo(to) {
		c.log.Error().Str("from", string(c.phase)).Str("to", string(to)).Msg("illegal phase transition")
		return ErrInvalidPhase
	}
	c.log.Info().Str("from", string(c.phase)).Str("to", string(to)).Msg("phase transition")
	c.phase = to
	return nil
}

// phaseError explains why an action is not valid right now.
func (c *Controller) phaseError() error {
	switch {
	case c.phase == PhaseEvaluationInFlight:
		return ErrEvaluationInFlight
	case c.session.GameEnded:
		return ErrGameEnded
	case c.phase == PhaseNoRoster:
		return ErrNoRoster
	}
	return ErrInvalidPhase
}

func (c *Controller) healLocked() {
	rd := &c.session.Round
	for _, r := range rd.Heal() {
		c.log.Warn().Int("round", c.session.RoundNumber).Str("repair", r).Msg("round invariant repaired")
	}
	if c.phase == PhaseCollectingAnswers && rd.AllSubmitted {
		_ = c.transition(PhaseReadyForEvaluation)
	}
}

func (c *Controller) record(ctx context.Context, r Report) {
	for _, sink := range c.sinks {
		if err := sink.Record(ctx, r); err != nil {
			c.log.Error().Err(err).Int("round", r.Round).Msg("failed to export round report")
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	s := c.session
	c.seq++
	snap := Snapshot{
		Seq:         c.seq,
		Phase:       c.phase,
		PlayerCount: c.playerCount,
		Players:     append([]Player{}, s.Players...),
		Scores:      make(map[string]int, len(s.Scores)),
		Standings:   s.Standings(),
		RoundNumber: s.RoundNumber,
		Round:       s.Round.view(),
		GameEnded:   s.GameEnded,
		Stats:       s.stats(),
		Model:       c.model,
		LastError:   c.lastErr,
		UpdatedAt:   c.updatedAt,
	}
	for id, pts := range s.Scores {
		snap.Scores[id] = pts
	}
	if s.Winner != nil {
		w := *s.Winner
		snap.Winner = &w
	}
	if len(snap.Standings) > 0 && !s.GameEnded && snap.Standings[0].Points >= NearWinScore {
		lead := snap.Standings[0]
		snap.NearWin = &lead
	}
	return snap
}
