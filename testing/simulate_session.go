// Command simulate_session plays a full scripted session against the bundled
// simulation service and prints the debrief. Handy for eyeballing scoring and
// termination behavior without driving the TUI by hand.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http/httptest"
	"os"
	"time"

	"github.com/cityops/flood-commander/internal/session"
	"github.com/cityops/flood-commander/internal/sim"
	"github.com/cityops/flood-commander/internal/simstub"
)

const maxSubmissions = 30

func main() {
	srv, err := simstub.NewServer()
	if err != nil {
		log.Fatalf("Failed to load scenarios: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	saveDir, err := os.MkdirTemp("", "floodsim-simulate")
	if err != nil {
		log.Fatalf("Failed to create save dir: %v", err)
	}
	defer os.RemoveAll(saveDir)

	client := sim.New(ts.URL, 10*time.Second)
	ctrl := session.NewController(client, session.NewFSStore(saveDir))

	ctx := context.Background()

	scenarios, err := client.ListScenarios(ctx)
	if err != nil {
		log.Fatalf("Failed to list scenarios: %v", err)
	}
	fmt.Println("--- Available scenarios ---")
	for _, sc := range scenarios {
		fmt.Printf("%s: %s\n", sc.ID, sc.Name.Get("en"))
	}

	sess, err := ctrl.StartSession(ctx, scenarios[0].ID, sim.DifficultyStandard, "Scripted Commander", "en")
	if err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}
	fmt.Printf("\n--- Session %s on %s ---\n", sess.ID, sess.ScenarioID)

	// Alternate between following the advisor and standing by, which
	// exercises both the adoption accounting and the budget guard.
	for i := 0; i < maxSubmissions && sess.Phase == session.PhasePlaying; i++ {
		cur := sess.Current()
		action := sim.ActionNone
		var zoneID *string
		if i%2 == 0 {
			action = cur.Recommendation.Action
			zoneID = cur.Recommendation.ZoneID
		}

		rec, err := ctrl.SubmitAction(ctx, action, zoneID)
		if err != nil {
			fmt.Printf("t=%d submission rejected: %v\n", cur.T, err)
			continue
		}
		fmt.Printf("t=%-3d action=%-10s budget=%6.1f trust=%5.1f reward=%+7.2f events=%v\n",
			rec.T, rec.Action, rec.State.Budget, rec.State.Trust, rec.Reward.Delta, rec.Events)
	}

	if sess.Phase != session.PhaseEnded || sess.Summary == nil {
		log.Fatalf("Session did not end after %d submissions", maxSubmissions)
	}

	sum := sess.Summary
	fmt.Println("\n--- Debrief ---")
	fmt.Printf("Ending: %s\n", sum.EndingTitle)
	fmt.Printf("Reason: %s\n", sum.EndReason)
	fmt.Printf("Score: %d/100  damage=%.1f cost=%.1f trust=%.1f\n", sum.FinalScore, sum.TotalDamage, sum.TotalCost, sum.FinalTrust)
	fmt.Printf("Advisor adoption: %.0f%% (%d/%d)  worst hour: t=%d\n", sum.AIAdoptionRate*100, sum.MatchCount, sum.DecisionCount, sum.WorstHour)
	for zid, hours := range sum.FloodedHoursByZone {
		fmt.Printf("Flooded hours %s: %d\n", zid, hours)
	}

	replay, err := client.FetchReplay(ctx, sess.GameID)
	if err != nil {
		log.Fatalf("Failed to fetch replay: %v", err)
	}
	fmt.Printf("\nReplay holds %d records (local history holds %d)\n", len(replay.History), len(sess.History))
}
