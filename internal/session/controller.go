package session

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cityops/flood-commander/internal/sim"
)

// Session limits: the debt the city tolerates before forced termination, and
// the number of simulated hours in a full campaign.
const (
	debtCeiling = -50.0
	maxHours    = 24
)

// anyZoneCostFactor scales an action's cost when it covers every zone at
// once instead of a single target.
const anyZoneCostFactor = 2.5

// SimService is the slice of the simulation client the controller drives.
type SimService interface {
	StartGame(ctx context.Context, scenarioID string, difficulty sim.Difficulty) (*sim.StartResponse, error)
	SubmitStep(ctx context.Context, gameID string, action sim.Action, zoneID *string) (*sim.StepRecord, error)
}

// Store is the persistence port for session state. Writes must be atomic so
// a restart mid-session resumes from the last fully appended step.
type Store interface {
	Save(s *Session) error
	Load(id string) (*Session, error)
	List() ([]SaveInfo, error)
}

// Controller owns the authoritative in-memory session. It sequences step
// submissions, maintains the history, and makes the sole termination
// decision. One submission may be outstanding at a time.
type Controller struct {
	sim   SimService
	store Store

	mu       sync.Mutex
	session  *Session
	inFlight bool
}

// NewController wires a controller to a simulation service and a save store.
func NewController(svc SimService, store Store) *Controller {
	return &Controller{sim: svc, store: store}
}

// Session returns the controller's current session, nil before the first start.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// StartSession validates input, starts a game remotely, and installs a fresh
// session with the initial step as history[0].
func (c *Controller) StartSession(ctx context.Context, scenarioID string, difficulty sim.Difficulty, commanderName, lang string) (*Session, error) {
	if strings.TrimSpace(commanderName) == "" {
		return nil, &ValidationError{Field: "commander name", Msg: "must not be empty"}
	}
	if strings.TrimSpace(scenarioID) == "" {
		return nil, &ValidationError{Field: "scenario", Msg: "must be selected"}
	}

	resp, err := c.sim.StartGame(ctx, scenarioID, difficulty)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:            uuid.NewString(),
		GameID:        resp.GameID,
		ScenarioID:    scenarioID,
		Difficulty:    difficulty,
		CommanderName: commanderName,
		Language:      lang,
		Scenario:      resp.Scenario,
		History:       []sim.StepRecord{resp.Initial},
		Phase:         PhasePlaying,
	}

	c.mu.Lock()
	c.session = s
	c.inFlight = false
	c.mu.Unlock()

	c.persist(s)
	log.Info().Str("session", s.ID).Str("game", s.GameID).Str("scenario", scenarioID).Msg("session started")
	return s, nil
}

// SubmitAction submits one action for the coming hour. zoneID nil targets
// all zones at the scaled cost. A rejected or failed submission leaves the
// session exactly as it was.
func (c *Controller) SubmitAction(ctx context.Context, action sim.Action, zoneID *string) (*sim.StepRecord, error) {
	c.mu.Lock()
	s := c.session
	if s == nil {
		c.mu.Unlock()
		return nil, ErrNoSession
	}
	if s.Phase == PhaseEnded {
		c.mu.Unlock()
		return nil, ErrSessionEnded
	}
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrStepInFlight
	}

	if action != sim.ActionNone && action != sim.ActionFunding {
		cost := EffectiveCost(s.Scenario, action, zoneID)
		if budget := s.Current().State.Budget; budget < cost {
			c.mu.Unlock()
			return nil, &InsufficientBudgetError{Needed: cost, Available: budget}
		}
	}

	c.inFlight = true
	gameID := s.GameID
	c.mu.Unlock()

	rec, err := c.sim.SubmitStep(ctx, gameID, action, zoneID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if err != nil {
		return nil, err
	}

	s.History = append(s.History, *rec)
	if reason, ended := terminationReason(rec); ended {
		s.Phase = PhaseEnded
		sum := ComputeSummary(s.History, reason, s.Language)
		s.Summary = &sum
		log.Info().Str("session", s.ID).Str("reason", string(reason)).Int("score", sum.FinalScore).Msg("session ended")
	}
	c.persist(s)
	return rec, nil
}

// Retry discards the current session and summary and starts the same
// scenario over with the same identity.
func (c *Controller) Retry(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return nil, ErrNoSession
	}
	return c.StartSession(ctx, s.ScenarioID, s.Difficulty, s.CommanderName, s.Language)
}

// Resume loads a previously saved session and makes it current.
func (c *Controller) Resume(id string) (*Session, error) {
	s, err := c.store.Load(id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.session = s
	c.inFlight = false
	c.mu.Unlock()
	log.Info().Str("session", s.ID).Str("phase", string(s.Phase)).Msg("session resumed")
	return s, nil
}

// Saves lists the resumable sessions known to the store.
func (c *Controller) Saves() ([]SaveInfo, error) {
	return c.store.List()
}

// EffectiveCost is the budget an action will consume: the scenario's base
// cost, scaled when it is applied to every zone. The no-op and funding
// actions never scale.
func EffectiveCost(scenario sim.ScenarioSummary, action sim.Action, zoneID *string) float64 {
	cost := scenario.Actions[action].Cost
	if action != sim.ActionNone && action != sim.ActionFunding && zoneID == nil {
		cost *= anyZoneCostFactor
	}
	return cost
}

// terminationReason evaluates the ordered predicate table over a freshly
// appended record. Priority is fixed: trust before budget before time.
func terminationReason(rec *sim.StepRecord) (EndReason, bool) {
	switch {
	case rec.State.Trust <= 0:
		return EndTrustZero, true
	case rec.State.Budget <= debtCeiling:
		return EndBudgetZero, true
	case rec.State.Done || rec.T >= maxHours:
		return EndTimeUp, true
	}
	return "", false
}

// persist saves under the controller's lock. A failed save is reported but
// does not roll back the in-memory session; the step already happened.
func (c *Controller) persist(s *Session) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(s); err != nil {
		log.Error().Err(err).Str("session", s.ID).Msg("session save failed")
	}
}
