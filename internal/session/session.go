package session

import (
	"github.com/cityops/flood-commander/internal/sim"
)

// Phase is the lifecycle state of a play-through.
type Phase string

const (
	PhasePlaying Phase = "PLAYING"
	PhaseEnded   Phase = "ENDED"
)

// EndReason classifies why a session terminated.
type EndReason string

const (
	EndTimeUp        EndReason = "TIME_UP"
	EndTrustZero     EndReason = "TRUST_ZERO"
	EndBudgetZero    EndReason = "BUDGET_ZERO"
	EndTotalCollapse EndReason = "TOTAL_COLLAPSE"
)

// Session is one play-through: identity set once at start, an append-only
// step history, and the phase. Owned exclusively by the Controller.
type Session struct {
	ID            string
	GameID        string
	ScenarioID    string
	Difficulty    sim.Difficulty
	CommanderName string
	Language      string

	Scenario sim.ScenarioSummary
	History  []sim.StepRecord
	Phase    Phase
	Summary  *GameSummary
}

// Current returns the latest step record, nil on an empty history.
func (s *Session) Current() *sim.StepRecord {
	if len(s.History) == 0 {
		return nil
	}
	return &s.History[len(s.History)-1]
}

// GameSummary is the immutable debrief computed once when a session ends.
type GameSummary struct {
	FinalScore         int            `yaml:"final_score" json:"finalScore"`
	TotalDamage        float64        `yaml:"total_damage" json:"totalDamage"`
	TotalCost          float64        `yaml:"total_cost" json:"totalCost"`
	FinalTrust         float64        `yaml:"final_trust" json:"finalTrust"`
	EndReason          EndReason      `yaml:"end_reason" json:"endReason"`
	AIAdoptionRate     float64        `yaml:"ai_adoption_rate" json:"aiAdoptionRate"`
	MatchCount         int            `yaml:"match_count" json:"matchCount"`
	DecisionCount      int            `yaml:"decision_count" json:"decisionCount"`
	FloodedHoursByZone map[string]int `yaml:"flooded_hours_by_zone" json:"floodedHoursByZone"`
	WorstHour          int            `yaml:"worst_hour" json:"worstHour"`
	EndingTitle        string         `yaml:"ending_title" json:"endingTitle"`
	EndingDescription  string         `yaml:"ending_description" json:"endingDescription"`
}
