package sim

import (
	"encoding/json"
	"fmt"
)

// Action is one of the commands the simulation accepts for an hourly step.
type Action string

const (
	ActionNone      Action = "none"
	ActionAlert     Action = "alert"
	ActionPump      Action = "pump"
	ActionDiversion Action = "diversion"
	ActionEvac      Action = "evac"
	ActionFunding   Action = "funding"
)

// Actions lists every action in the order the original UI presents them.
var Actions = []Action{ActionNone, ActionAlert, ActionPump, ActionDiversion, ActionEvac, ActionFunding}

// Difficulty selects a scenario variant on the simulation side.
type Difficulty string

const (
	DifficultyStandard Difficulty = "standard"
	DifficultyAIAssist Difficulty = "ai_assist"
	DifficultyExpert   Difficulty = "expert"
)

// LocalizedText is a scenario name or description that arrives either as a
// plain string or as a per-language map ({"en": ..., "zh": ...}).
type LocalizedText struct {
	Plain  string
	ByLang map[string]string
}

func (l *LocalizedText) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &l.Plain)
	}
	return json.Unmarshal(data, &l.ByLang)
}

func (l LocalizedText) MarshalJSON() ([]byte, error) {
	if l.ByLang != nil {
		return json.Marshal(l.ByLang)
	}
	return json.Marshal(l.Plain)
}

// Get resolves the text for a language, falling back to English and then to
// the plain form.
func (l LocalizedText) Get(lang string) string {
	if l.ByLang != nil {
		if v, ok := l.ByLang[lang]; ok {
			return v
		}
		if v, ok := l.ByLang["en"]; ok {
			return v
		}
	}
	return l.Plain
}

// ZoneState is the per-zone snapshot within an hourly step.
type ZoneState struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Storage float64 `json:"storage"`
	Risk    float64 `json:"risk"`
	Flooded bool    `json:"flooded"`
}

// State is the full city snapshot after an hour is simulated.
type State struct {
	Zones         map[string]ZoneState `json:"zones"`
	Budget        float64              `json:"budget"`
	Trust         float64              `json:"trust"`
	Cooldowns     map[string]int       `json:"cooldowns,omitempty"`
	Done          bool                 `json:"done"`
	GameOver      bool                 `json:"game_over"`
	FailureReason string               `json:"failure_reason,omitempty"`
}

// Observation holds the rainfall metrics for one hour.
type Observation struct {
	Rain   float64 `json:"rain"`
	Rain6h float64 `json:"rain_6h"`
	Accum  float64 `json:"accum"`
}

// Forecast arrays are indexed by future-hour offset, 0 meaning the next hour.
type Forecast struct {
	RiskMean     []float64 `json:"risk_mean"`
	RiskStd      []float64 `json:"risk_std"`
	ProbCritical []float64 `json:"prob_critical"`
}

// Recommendation is the advisor's suggestion for the coming hour. Reason may
// be plain text or a JSON-encoded per-language explanation.
type Recommendation struct {
	Action       Action   `json:"action"`
	ZoneID       *string  `json:"zone_id"`
	Reason       string   `json:"reason"`
	ExpectedLoss float64  `json:"expected_loss"`
	Confidence   float64  `json:"confidence"`
	TopReasons   []string `json:"top_reasons"`
}

// Reward carries this step's score contribution and the running total.
type Reward struct {
	Delta float64 `json:"delta"`
	Total float64 `json:"total"`
}

// StepRecord is one simulated hour as returned by the service. Immutable
// once received.
type StepRecord struct {
	Action         Action         `json:"action"`
	ZoneID         *string        `json:"zone_id"`
	T              int            `json:"t"`
	Obs            Observation    `json:"obs"`
	State          State          `json:"state"`
	Forecast       Forecast       `json:"forecast"`
	Recommendation Recommendation `json:"recommendation"`
	Reward         Reward         `json:"reward"`
	Events         []string       `json:"events"`
}

// ActionConfig is the scenario's price tag and mitigation strength for one action.
type ActionConfig struct {
	Cost   float64 `json:"cost"`
	Effect float64 `json:"effect"`
}

// ZoneParams is the subset of zone tuning the client is allowed to see.
type ZoneParams struct {
	Threshold float64 `json:"threshold"`
}

// ScenarioParams groups the scenario-level knobs exposed to the client.
type ScenarioParams struct {
	InitialBudget float64               `json:"initial_budget"`
	Zones         map[string]ZoneParams `json:"zones"`
}

// ScenarioSummary describes one playable scenario.
type ScenarioSummary struct {
	ID            string                  `json:"id"`
	Name          LocalizedText           `json:"name"`
	Description   LocalizedText           `json:"description"`
	TimeStepHours int                     `json:"time_step_hr"`
	DurationSteps int                     `json:"duration_steps"`
	Params        ScenarioParams          `json:"params"`
	Actions       map[Action]ActionConfig `json:"actions"`
}

// StartResponse is the payload of a successful game start.
type StartResponse struct {
	GameID   string          `json:"game_id"`
	Scenario ScenarioSummary `json:"scenario"`
	Initial  StepRecord      `json:"initial"`
}

// ReplayResponse is the full recorded history of a game.
type ReplayResponse struct {
	ScenarioID string       `json:"scenario_id"`
	History    []StepRecord `json:"history"`
}

// TransportError reports a failed remote call. The client does not classify
// failures further; the user may retry the same request.
type TransportError struct {
	Op      string
	Message string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sim: %s: %s", e.Op, e.Message)
}
