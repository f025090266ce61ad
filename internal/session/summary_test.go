package session

import (
	"math"
	"reflect"
	"testing"

	"github.com/cityops/flood-commander/internal/sim"
)

func zone(id string, risk float64, flooded bool) sim.ZoneState {
	return sim.ZoneState{ID: id, Name: id, Risk: risk, Flooded: flooded}
}

func step(t int, action sim.Action, zoneID *string, zones []sim.ZoneState, trust, rewardDelta float64) sim.StepRecord {
	zm := make(map[string]sim.ZoneState, len(zones))
	for _, z := range zones {
		zm[z.ID] = z
	}
	return sim.StepRecord{
		Action: action,
		ZoneID: zoneID,
		T:      t,
		State:  sim.State{Zones: zm, Trust: trust},
		Reward: sim.Reward{Delta: rewardDelta},
	}
}

func strPtr(s string) *string { return &s }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeSummaryFullSession(t *testing.T) {
	industrial := strPtr("industrial")
	residential := strPtr("residential")

	// Initial state, then a pump that followed the advisor, then an
	// all-zone evac that ignored it.
	history := []sim.StepRecord{
		step(0, sim.ActionNone, nil, []sim.ZoneState{
			zone("industrial", 0.1, false),
			zone("residential", 0.2, false),
			zone("lowland", 0.3, false),
		}, 100, 0),
		step(1, sim.ActionPump, industrial, []sim.ZoneState{
			zone("industrial", 0.5, false),
			zone("residential", 0.4, false),
			zone("lowland", 0.3, false),
		}, 90, -9.2),
		step(2, sim.ActionEvac, nil, []sim.ZoneState{
			zone("industrial", 0.9, true),
			zone("residential", 0.9, true),
			zone("lowland", 0.9, true),
		}, 10, -52.7),
	}
	history[0].Recommendation = sim.Recommendation{Action: sim.ActionPump, ZoneID: industrial}
	history[1].Recommendation = sim.Recommendation{Action: sim.ActionAlert, ZoneID: residential}

	sum := ComputeSummary(history, EndTimeUp, "en")

	if !almostEqual(sum.TotalDamage, 45) {
		t.Errorf("Expected total damage 45, got %v", sum.TotalDamage)
	}
	// Hour 1 cost: 9.2 - 12/10 = 8. Hour 2 cost: 52.7 - 27/10 = 50.
	if !almostEqual(sum.TotalCost, 58) {
		t.Errorf("Expected total cost 58, got %v", sum.TotalCost)
	}
	if sum.FinalTrust != 10 {
		t.Errorf("Expected final trust 10, got %v", sum.FinalTrust)
	}
	if sum.WorstHour != 2 {
		t.Errorf("Expected worst hour 2, got %d", sum.WorstHour)
	}
	if sum.DecisionCount != 2 || sum.MatchCount != 1 {
		t.Errorf("Expected 1/2 advisor matches, got %d/%d", sum.MatchCount, sum.DecisionCount)
	}
	if !almostEqual(sum.AIAdoptionRate, 0.5) {
		t.Errorf("Expected adoption rate 0.5, got %v", sum.AIAdoptionRate)
	}
	// 100*(0.5*(1-0.045) + 0.2*(1-58/150) + 0.3*0.1) rounds to 63.
	if sum.FinalScore != 63 {
		t.Errorf("Expected score 63, got %d", sum.FinalScore)
	}
	if sum.EndingTitle != "Reliable Bureaucrat" {
		t.Errorf("Expected Reliable Bureaucrat ending, got %q", sum.EndingTitle)
	}

	want := map[string]int{"industrial": 1, "residential": 1, "lowland": 1}
	if !reflect.DeepEqual(sum.FloodedHoursByZone, want) {
		t.Errorf("Expected flooded hours %v, got %v", want, sum.FloodedHoursByZone)
	}
}

func TestComputeSummaryCoversEveryZoneSeen(t *testing.T) {
	history := []sim.StepRecord{
		step(0, sim.ActionNone, nil, []sim.ZoneState{
			zone("industrial", 0.1, false),
			zone("residential", 0.1, false),
		}, 100, 0),
		step(1, sim.ActionNone, nil, []sim.ZoneState{
			zone("industrial", 0.9, true),
			zone("residential", 0.1, false),
			zone("lowland", 0.1, false),
		}, 100, -11),
	}

	sum := ComputeSummary(history, EndTimeUp, "en")
	want := map[string]int{"industrial": 1, "residential": 0, "lowland": 0}
	if !reflect.DeepEqual(sum.FloodedHoursByZone, want) {
		t.Errorf("Expected flooded hours %v, got %v", want, sum.FloodedHoursByZone)
	}
}

func TestComputeSummaryNoDecisions(t *testing.T) {
	history := []sim.StepRecord{
		step(0, sim.ActionNone, nil, []sim.ZoneState{zone("industrial", 0.1, false)}, 100, 0),
		step(1, sim.ActionNone, nil, []sim.ZoneState{zone("industrial", 0.1, false)}, 100, -1),
		step(2, sim.ActionNone, nil, []sim.ZoneState{zone("industrial", 0.1, false)}, 100, -1),
	}

	sum := ComputeSummary(history, EndTimeUp, "en")
	if sum.DecisionCount != 0 {
		t.Errorf("Expected 0 decisions, got %d", sum.DecisionCount)
	}
	if sum.AIAdoptionRate != 0 {
		t.Errorf("Expected adoption rate 0, got %v", sum.AIAdoptionRate)
	}
	// Standby hours contribute no reconstructed cost.
	if sum.TotalCost != 0 {
		t.Errorf("Expected total cost 0, got %v", sum.TotalCost)
	}
}

func TestComputeSummaryAdoptionQuarter(t *testing.T) {
	industrial := strPtr("industrial")
	zones := []sim.ZoneState{zone("industrial", 0.1, false)}

	history := []sim.StepRecord{
		step(0, sim.ActionNone, nil, zones, 100, 0),
		step(1, sim.ActionPump, industrial, zones, 100, -9),
		step(2, sim.ActionAlert, nil, zones, 100, -3),
		step(3, sim.ActionAlert, industrial, zones, 100, -3),
		step(4, sim.ActionEvac, nil, zones, 100, -21),
	}
	// Only the first decision follows the advice issued the hour before.
	history[0].Recommendation = sim.Recommendation{Action: sim.ActionPump, ZoneID: industrial}
	history[1].Recommendation = sim.Recommendation{Action: sim.ActionPump, ZoneID: industrial}
	history[2].Recommendation = sim.Recommendation{Action: sim.ActionPump, ZoneID: industrial}
	history[3].Recommendation = sim.Recommendation{Action: sim.ActionNone}

	sum := ComputeSummary(history, EndTimeUp, "en")
	if sum.DecisionCount != 4 || sum.MatchCount != 1 {
		t.Errorf("Expected 1/4 advisor matches, got %d/%d", sum.MatchCount, sum.DecisionCount)
	}
	if !almostEqual(sum.AIAdoptionRate, 0.25) {
		t.Errorf("Expected adoption rate 0.25, got %v", sum.AIAdoptionRate)
	}
}

func TestComputeSummaryScoreBounds(t *testing.T) {
	perfect := []sim.StepRecord{
		step(0, sim.ActionNone, nil, []sim.ZoneState{zone("industrial", 0, false)}, 100, 0),
	}
	sum := ComputeSummary(perfect, EndTimeUp, "en")
	if sum.FinalScore != 100 {
		t.Errorf("Expected perfect score 100, got %d", sum.FinalScore)
	}
	if sum.EndingTitle != "Model Commander" {
		t.Errorf("Expected Model Commander ending, got %q", sum.EndingTitle)
	}

	// Damage and cost past their caps with zero trust floor the score.
	var ruinous []sim.StepRecord
	for i := 0; i < 40; i++ {
		rec := step(i, sim.ActionEvac, nil, []sim.ZoneState{
			zone("industrial", 1, true),
			zone("residential", 1, true),
			zone("lowland", 1, true),
		}, 0, -53)
		ruinous = append(ruinous, rec)
	}
	sum = ComputeSummary(ruinous, EndTimeUp, "en")
	if sum.FinalScore != 0 {
		t.Errorf("Expected floored score 0, got %d", sum.FinalScore)
	}
	if sum.EndingTitle != "Poor Response" {
		t.Errorf("Expected Poor Response ending, got %q", sum.EndingTitle)
	}
}

func TestComputeSummaryWorstHourFirstOccurrenceWins(t *testing.T) {
	history := []sim.StepRecord{
		step(0, sim.ActionNone, nil, []sim.ZoneState{zone("industrial", 0.5, false)}, 100, 0),
		step(1, sim.ActionNone, nil, []sim.ZoneState{zone("industrial", 0.5, false)}, 100, -5),
	}
	sum := ComputeSummary(history, EndTimeUp, "en")
	if sum.WorstHour != 0 {
		t.Errorf("Expected worst hour 0 on a tie, got %d", sum.WorstHour)
	}
}

func TestComputeSummaryEmptyHistory(t *testing.T) {
	sum := ComputeSummary(nil, EndTimeUp, "en")
	if sum.TotalDamage != 0 || sum.TotalCost != 0 || sum.FinalTrust != 0 {
		t.Errorf("Expected zero totals, got damage=%v cost=%v trust=%v", sum.TotalDamage, sum.TotalCost, sum.FinalTrust)
	}
	if len(sum.FloodedHoursByZone) != 0 {
		t.Errorf("Expected no flooded-hour entries, got %v", sum.FloodedHoursByZone)
	}
	if sum.WorstHour != 0 {
		t.Errorf("Expected worst hour 0, got %d", sum.WorstHour)
	}
}

func TestComputeSummaryDeterministic(t *testing.T) {
	industrial := strPtr("industrial")
	history := []sim.StepRecord{
		step(0, sim.ActionNone, nil, []sim.ZoneState{zone("industrial", 0.2, false)}, 100, 0),
		step(1, sim.ActionPump, industrial, []sim.ZoneState{zone("industrial", 0.6, false)}, 95, -10),
	}
	history[0].Recommendation = sim.Recommendation{Action: sim.ActionPump, ZoneID: industrial}

	first := ComputeSummary(history, EndTimeUp, "en")
	second := ComputeSummary(history, EndTimeUp, "en")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical summaries, got %+v and %+v", first, second)
	}
}

func TestEndingTextFixedPerReason(t *testing.T) {
	// Trust and budget failures keep their text no matter the score.
	title, _ := endingText(EndTrustZero, 95, "en")
	if title != "Lost Public Trust" {
		t.Errorf("Expected Lost Public Trust, got %q", title)
	}
	title, _ = endingText(EndBudgetZero, 95, "zh")
	if title != "財政崩潰" {
		t.Errorf("Expected 財政崩潰, got %q", title)
	}
	// Unknown languages fall back to English.
	title, _ = endingText(EndTimeUp, 90, "fr")
	if title != "Model Commander" {
		t.Errorf("Expected English fallback, got %q", title)
	}
	// Negative scores still land in the lowest band.
	title, _ = endingText(EndTotalCollapse, -5, "en")
	if title != "Poor Response" {
		t.Errorf("Expected Poor Response for negative score, got %q", title)
	}
}

func TestZoneIDsEqual(t *testing.T) {
	a, b := "industrial", "industrial"
	c := "lowland"
	if !zoneIDsEqual(nil, nil) {
		t.Error("Expected two nil zone ids to match")
	}
	if !zoneIDsEqual(&a, &b) {
		t.Error("Expected equal values to match")
	}
	if zoneIDsEqual(&a, &c) {
		t.Error("Expected different values not to match")
	}
	if zoneIDsEqual(&a, nil) || zoneIDsEqual(nil, &a) {
		t.Error("Expected nil and non-nil not to match")
	}
}
