// Package simstub is a local stand-in for the remote flood simulation
// service. It serves the same wire contract with simplified deterministic
// dynamics so the client can be played and tested without the real backend.
// It is a development double, not the simulator.
package simstub

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cityops/flood-commander/internal/sim"
)

//go:embed scenarios.yaml
var scenariosYAML []byte

type zoneParams struct {
	A           float64 `yaml:"a"`
	B           float64 `yaml:"b"`
	C           float64 `yaml:"c"`
	Threshold   float64 `yaml:"threshold"`
	DamageScale float64 `yaml:"damage_scale"`
}

type actionConfig struct {
	Cost   float64 `yaml:"cost"`
	Effect float64 `yaml:"effect"`
}

// ScenarioSpec is one embedded scenario fixture.
type ScenarioSpec struct {
	ID            string                  `yaml:"id"`
	Name          map[string]string       `yaml:"name"`
	Description   map[string]string       `yaml:"description"`
	TimeStepHours int                     `yaml:"time_step_hr"`
	InitialBudget float64                 `yaml:"initial_budget"`
	Rain          []float64               `yaml:"rain"`
	Zones         map[string]zoneParams   `yaml:"zones"`
	Actions       map[string]actionConfig `yaml:"actions"`
}

// LoadScenarios parses the embedded scenario fixtures.
func LoadScenarios() ([]ScenarioSpec, error) {
	var specs []ScenarioSpec
	if err := yaml.Unmarshal(scenariosYAML, &specs); err != nil {
		return nil, fmt.Errorf("simstub: parse scenarios: %w", err)
	}
	return specs, nil
}

// Summary converts a fixture to the wire form the client expects.
func (s ScenarioSpec) Summary() sim.ScenarioSummary {
	zones := make(map[string]sim.ZoneParams, len(s.Zones))
	for zid, zp := range s.Zones {
		zones[zid] = sim.ZoneParams{Threshold: zp.Threshold}
	}
	actions := make(map[sim.Action]sim.ActionConfig, len(s.Actions))
	for aid, ac := range s.Actions {
		actions[sim.Action(aid)] = sim.ActionConfig{Cost: ac.Cost, Effect: ac.Effect}
	}
	return sim.ScenarioSummary{
		ID:            s.ID,
		Name:          sim.LocalizedText{ByLang: s.Name},
		Description:   sim.LocalizedText{ByLang: s.Description},
		TimeStepHours: s.TimeStepHours,
		DurationSteps: len(s.Rain),
		Params:        sim.ScenarioParams{InitialBudget: s.InitialBudget, Zones: zones},
		Actions:       actions,
	}
}

// Game is one running stand-in session.
type Game struct {
	scenario ScenarioSpec
	rain     []float64
	storage  map[string]float64
	budget   float64
	trust    float64
	t        int
	total    float64
	history  []sim.StepRecord
	gameOver bool
	failure  string
}

// NewGame starts a game on the given fixture. Expert difficulty tightens the
// budget and intensifies the rain series.
func NewGame(spec ScenarioSpec, difficulty sim.Difficulty) *Game {
	rain := append([]float64(nil), spec.Rain...)
	budget := spec.InitialBudget
	if difficulty == sim.DifficultyExpert {
		budget *= 0.7
		for i := range rain {
			rain[i] *= 1.3
		}
	}
	g := &Game{
		scenario: spec,
		rain:     rain,
		storage:  make(map[string]float64, len(spec.Zones)),
		budget:   budget,
		trust:    100,
	}
	for zid := range spec.Zones {
		g.storage[zid] = 0
	}
	initial := sim.StepRecord{
		Action:         sim.ActionNone,
		T:              0,
		Obs:            sim.Observation{},
		State:          g.state(),
		Forecast:       g.forecast(3),
		Recommendation: g.recommend(),
		Reward:         sim.Reward{},
		Events:         []string{},
	}
	g.history = append(g.history, initial)
	return g
}

// History returns the recorded steps, initial state included.
func (g *Game) History() []sim.StepRecord {
	return g.history
}

// ScenarioID names the fixture this game runs on.
func (g *Game) ScenarioID() string {
	return g.scenario.ID
}

// Step advances the game one hour. A closed game returns its last record.
func (g *Game) Step(action sim.Action, zoneID *string) (*sim.StepRecord, error) {
	if g.gameOver || g.t >= len(g.rain) {
		last := g.history[len(g.history)-1]
		return &last, nil
	}
	cfg, ok := g.scenario.Actions[string(action)]
	if !ok {
		return nil, fmt.Errorf("unknown action: %s", action)
	}

	finalCost := cfg.Cost
	if action != sim.ActionNone && action != sim.ActionFunding && zoneID == nil {
		finalCost *= 2.5
	}

	var events []string
	if action == sim.ActionFunding {
		g.budget += cfg.Effect
		g.trust -= finalCost
		events = append(events, fmt.Sprintf("Emergency Funding: +$%.1f (Penalty: -%.0f Trust)", cfg.Effect, finalCost))
	} else {
		if g.budget < finalCost {
			g.trust -= 8
		}
		g.budget -= finalCost
	}

	rainNow := g.rain[g.t]
	stepDamage := 0.0
	for _, zid := range g.zoneIDs() {
		zp := g.scenario.Zones[zid]
		effect := 0.0
		if action != sim.ActionNone && action != sim.ActionFunding && (zoneID == nil || *zoneID == zid) {
			effect = cfg.Effect
		}
		next := math.Max(zp.A*g.storage[zid]+zp.B*rainNow-zp.C*effect, 0)
		g.storage[zid] = next
		risk := sigmoid(next - zp.Threshold)
		stepDamage += risk * zp.DamageScale
		if risk > 0.85 {
			g.trust -= 5
			events = append(events, fmt.Sprintf("CRITICAL FLOODING in %s!", zid))
		}
	}

	delta := -stepDamage - finalCost
	g.total += delta
	g.t++

	if g.t%6 == 0 {
		grant := 5 + 15*math.Max(g.trust, 0)/100
		g.budget += grant
		events = append(events, fmt.Sprintf("City Council Grant: +$%.1f (Trust: %.0f%%)", grant, math.Max(g.trust, 0)))
	}

	if g.trust <= 0 {
		g.gameOver = true
		g.failure = "PUBLIC_OUTRAGE"
		events = append(events, "COMMANDER REMOVED!")
	}

	if events == nil {
		events = []string{}
	}
	rec := sim.StepRecord{
		Action:         action,
		ZoneID:         zoneID,
		T:              g.t,
		Obs:            g.observation(),
		State:          g.state(),
		Forecast:       g.forecast(3),
		Recommendation: g.recommend(),
		Reward:         sim.Reward{Delta: delta, Total: g.total},
		Events:         events,
	}
	g.history = append(g.history, rec)
	return &rec, nil
}

func (g *Game) observation() sim.Observation {
	idx := g.t - 1
	if idx < 0 {
		idx = 0
	}
	if idx > len(g.rain)-1 {
		idx = len(g.rain) - 1
	}
	start := idx - 5
	if start < 0 {
		start = 0
	}
	rain6h := 0.0
	for _, v := range g.rain[start : idx+1] {
		rain6h += v
	}
	accum := 0.0
	for _, v := range g.rain[:idx+1] {
		accum += v
	}
	return sim.Observation{Rain: g.rain[idx], Rain6h: rain6h, Accum: accum}
}

func (g *Game) state() sim.State {
	zones := make(map[string]sim.ZoneState, len(g.storage))
	for zid, storage := range g.storage {
		zp := g.scenario.Zones[zid]
		risk := sigmoid(storage - zp.Threshold)
		zones[zid] = sim.ZoneState{
			ID:      zid,
			Name:    zid,
			Storage: storage,
			Risk:    risk,
			Flooded: risk > 0.8,
		}
	}
	return sim.State{
		Zones:         zones,
		Budget:        g.budget,
		Trust:         math.Round(math.Max(g.trust, 0)*10) / 10,
		Done:          g.t >= len(g.rain),
		GameOver:      g.gameOver,
		FailureReason: g.failure,
	}
}

// forecast projects each of the next horizon hours with no mitigation
// applied. Deterministic: mean and spread come from the zone risks
// themselves, not sampled noise.
func (g *Game) forecast(horizon int) sim.Forecast {
	f := sim.Forecast{
		RiskMean:     make([]float64, 0, horizon),
		RiskStd:      make([]float64, 0, horizon),
		ProbCritical: make([]float64, 0, horizon),
	}
	storages := make(map[string]float64, len(g.storage))
	for zid, s := range g.storage {
		storages[zid] = s
	}
	for h := 0; h < horizon; h++ {
		idx := g.t + h
		if idx > len(g.rain)-1 {
			idx = len(g.rain) - 1
		}
		rain := g.rain[idx]
		risks := make([]float64, 0, len(storages))
		for _, zid := range g.zoneIDs() {
			zp := g.scenario.Zones[zid]
			storages[zid] = math.Max(zp.A*storages[zid]+zp.B*rain, 0)
			risks = append(risks, sigmoid(storages[zid]-zp.Threshold))
		}
		mean := 0.0
		for _, r := range risks {
			mean += r
		}
		mean /= float64(len(risks))
		variance := 0.0
		elevated := 0
		for _, r := range risks {
			variance += (r - mean) * (r - mean)
			if r > 0.3 {
				elevated++
			}
		}
		variance /= float64(len(risks))
		f.RiskMean = append(f.RiskMean, round4(mean))
		f.RiskStd = append(f.RiskStd, round4(math.Sqrt(variance)))
		f.ProbCritical = append(f.ProbCritical, round4(float64(elevated)/float64(len(risks))))
	}
	return f
}

// recommend picks the action/zone pair with the lowest one-hour projected
// loss (cost plus projected damage). Funding is only suggested when the
// budget is nearly gone and trust can absorb the penalty.
func (g *Game) recommend() sim.Recommendation {
	idx := g.t
	if idx > len(g.rain)-1 {
		idx = len(g.rain) - 1
	}
	rain := g.rain[idx]

	bestAction := sim.ActionNone
	var bestZone *string
	bestLoss := math.Inf(1)
	worstLoss := 0.0
	var worstZone string
	worstZoneDamage := -1.0

	evaluate := func(action sim.Action, zoneID *string, cfg actionConfig, cost float64) float64 {
		damage := 0.0
		for _, zid := range g.zoneIDs() {
			zp := g.scenario.Zones[zid]
			effect := 0.0
			if action != sim.ActionNone && (zoneID == nil || *zoneID == zid) {
				effect = cfg.Effect
			}
			next := math.Max(zp.A*g.storage[zid]+zp.B*rain-zp.C*effect, 0)
			d := sigmoid(next-zp.Threshold) * zp.DamageScale
			damage += d
			if action == sim.ActionNone && d > worstZoneDamage {
				worstZoneDamage = d
				worstZone = zid
			}
		}
		loss := cost + damage
		if g.budget < cost {
			loss += 8 // approximate debt-trust penalty
		}
		return loss
	}

	for _, aid := range g.actionIDs() {
		action := sim.Action(aid)
		cfg := g.scenario.Actions[aid]
		if action == sim.ActionFunding {
			if g.budget <= 5 && g.trust > 15 {
				if synthetic := cfg.Cost + 10; synthetic < bestLoss {
					bestAction, bestZone, bestLoss = action, nil, synthetic
				}
			}
			continue
		}
		if action == sim.ActionNone {
			loss := evaluate(action, nil, cfg, 0)
			if loss > worstLoss {
				worstLoss = loss
			}
			if loss < bestLoss {
				bestAction, bestZone, bestLoss = action, nil, loss
			}
			continue
		}
		for _, zid := range g.zoneIDs() {
			zid := zid
			loss := evaluate(action, &zid, cfg, cfg.Cost)
			if loss > worstLoss {
				worstLoss = loss
			}
			if loss < bestLoss {
				bestAction, bestZone, bestLoss = action, &zid, loss
			}
		}
	}

	confidence := 0.6
	if worstLoss > 0 {
		confidence = 0.6 + 0.39*(1-bestLoss/worstLoss)
	}
	confidence = math.Min(0.99, math.Max(0.6, confidence))

	budgetNoteEN := "Action is affordable."
	budgetNoteZH := "預算可負擔此行動。"
	if cfg, ok := g.scenario.Actions[string(bestAction)]; ok && g.budget < cfg.Cost {
		budgetNoteEN = "If budget is insufficient, debt penalty will reduce trust."
		budgetNoteZH = "若預算不足，行動會引發債務懲罰（信任度下降）。"
	}
	reasons := map[string]map[string]string{
		"en": {
			"summary":     "Minimizes projected one-hour loss under the scheduled rainfall.",
			"risk_focus":  fmt.Sprintf("Main risk driver: %s", worstZone),
			"budget_note": budgetNoteEN,
		},
		"zh": {
			"summary":     "依排定降雨量選擇可將下一小時預期損失降至最低的行動。",
			"risk_focus":  fmt.Sprintf("主要風險來源：%s", worstZone),
			"budget_note": budgetNoteZH,
		},
	}
	reasonJSON, _ := json.Marshal(reasons)

	return sim.Recommendation{
		Action:       bestAction,
		ZoneID:       bestZone,
		Reason:       string(reasonJSON),
		ExpectedLoss: math.Round(bestLoss*100) / 100,
		Confidence:   math.Round(confidence*100) / 100,
		TopReasons: []string{
			"One-hour lookahead over the scheduled rain series",
			fmt.Sprintf("Primary projected damage contribution: %s", worstZone),
			fmt.Sprintf("Chosen over standby: saves %.1f projected loss", math.Max(worstLoss-bestLoss, 0)),
		},
	}
}

// zoneIDs returns zone ids in a stable order so the dynamics and the
// recommendation are deterministic.
func (g *Game) zoneIDs() []string {
	ids := make([]string, 0, len(g.storage))
	for zid := range g.storage {
		ids = append(ids, zid)
	}
	sort.Strings(ids)
	return ids
}

func (g *Game) actionIDs() []string {
	ids := make([]string, 0, len(g.scenario.Actions))
	for aid := range g.scenario.Actions {
		ids = append(ids, aid)
	}
	sort.Strings(ids)
	return ids
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
