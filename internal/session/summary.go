package session

import (
	"math"

	"github.com/cityops/flood-commander/internal/sim"
)

// Score normalization caps, tuned to the cumulative damage and action costs a
// 24-hour session can realistically produce.
const (
	damageCap = 1000.0
	costCap   = 150.0
)

// Score weights: damage mitigation, cost efficiency, public trust.
const (
	damageWeight = 0.5
	costWeight   = 0.2
	trustWeight  = 0.3
)

// ComputeSummary reduces a finished step history and an end reason to the
// final debrief. Pure: no I/O, inputs are never mutated, identical inputs
// yield identical summaries. An empty history produces a zero summary.
func ComputeSummary(history []sim.StepRecord, reason EndReason, lang string) GameSummary {
	var (
		totalDamage   float64
		totalCost     float64
		matchCount    int
		decisionCount int
		worstHour     int
	)
	maxHourDamage := -1.0
	floodedHours := make(map[string]int)

	for i, step := range history {
		hourDamage := 0.0
		for _, zone := range step.State.Zones {
			if _, seen := floodedHours[zone.ID]; !seen {
				floodedHours[zone.ID] = 0
			}
			hourDamage += zone.Risk * 10
			if zone.Flooded {
				floodedHours[zone.ID]++
			}
		}
		totalDamage += hourDamage

		// First occurrence wins on ties.
		if hourDamage > maxHourDamage {
			maxHourDamage = hourDamage
			worstHour = step.T
		}

		// The service folds cost into the reward as -damage - cost, so the
		// hour's cost is reconstructed from the delta. Best-effort estimate,
		// not an exact accounting identity.
		if step.Action != sim.ActionNone {
			if cost := -step.Reward.Delta - hourDamage/10; cost > 0 {
				totalCost += cost
			}
		}

		// Adoption compares this hour's decision with the advisor's
		// recommendation issued the hour before.
		if i > 0 && step.Action != sim.ActionNone {
			decisionCount++
			prior := history[i-1].Recommendation
			if step.Action == prior.Action && zoneIDsEqual(step.ZoneID, prior.ZoneID) {
				matchCount++
			}
		}
	}

	finalTrust := 0.0
	if len(history) > 0 {
		finalTrust = history[len(history)-1].State.Trust
	}

	damageNorm := math.Min(1, totalDamage/damageCap)
	costNorm := math.Min(1, totalCost/costCap)
	trustNorm := math.Min(1, finalTrust/100)
	finalScore := int(math.Round(100 * (damageWeight*(1-damageNorm) + costWeight*(1-costNorm) + trustWeight*trustNorm)))

	adoptionRate := 0.0
	if decisionCount > 0 {
		adoptionRate = float64(matchCount) / float64(decisionCount)
	}

	title, description := endingText(reason, finalScore, lang)

	return GameSummary{
		FinalScore:         finalScore,
		TotalDamage:        totalDamage,
		TotalCost:          totalCost,
		FinalTrust:         finalTrust,
		EndReason:          reason,
		AIAdoptionRate:     adoptionRate,
		MatchCount:         matchCount,
		DecisionCount:      decisionCount,
		FloodedHoursByZone: floodedHours,
		WorstHour:          worstHour,
		EndingTitle:        title,
		EndingDescription:  description,
	}
}

func zoneIDsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
