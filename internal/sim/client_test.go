package sim

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func validRecord(t int) StepRecord {
	return StepRecord{
		Action: ActionNone,
		T:      t,
		Obs:    Observation{Rain: 2.5, Rain6h: 10, Accum: 30},
		State: State{
			Zones: map[string]ZoneState{
				"industrial": {ID: "industrial", Name: "industrial", Storage: 1.2, Risk: 0.4, Flooded: false},
			},
			Budget: 90,
			Trust:  100,
		},
		Forecast: Forecast{
			RiskMean:     []float64{0.3, 0.4, 0.5},
			RiskStd:      []float64{0.1, 0.1, 0.2},
			ProbCritical: []float64{0, 0.3, 0.6},
		},
		Recommendation: Recommendation{
			Action:       ActionPump,
			Reason:       "storage rising",
			ExpectedLoss: 4.2,
			Confidence:   0.8,
			TopReasons:   []string{"rising storage"},
		},
		Reward: Reward{Delta: -4, Total: -4},
		Events: []string{},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	// Trailing slash must be tolerated.
	return New(srv.URL+"/", 5*time.Second)
}

func TestListScenariosDecodesLocalizedText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scenarios" {
			t.Errorf("Expected /scenarios, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": "a", "name": "Plain Storm", "description": "short", "time_step_hr": 1, "duration_steps": 24},
			{"id": "b", "name": {"en": "Bilingual Storm", "zh": "雙語風暴"}, "description": {"en": "long"}, "time_step_hr": 1, "duration_steps": 24}
		]`))
	})

	scenarios, err := client.ListScenarios(context.Background())
	if err != nil {
		t.Fatalf("Failed to list scenarios: %v", err)
	}
	if len(scenarios) != 2 {
		t.Fatalf("Expected 2 scenarios, got %d", len(scenarios))
	}
	if got := scenarios[0].Name.Get("zh"); got != "Plain Storm" {
		t.Errorf("Expected plain name to serve any language, got %q", got)
	}
	if got := scenarios[1].Name.Get("zh"); got != "雙語風暴" {
		t.Errorf("Expected zh name, got %q", got)
	}
	if got := scenarios[1].Name.Get("fr"); got != "Bilingual Storm" {
		t.Errorf("Expected English fallback, got %q", got)
	}
}

func TestStartGame(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/start" || r.Method != http.MethodPost {
			t.Errorf("Expected POST /start, got %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req["scenario_id"] != "storm-a" || req["difficulty"] != "expert" {
			t.Errorf("Unexpected request payload: %v", req)
		}
		json.NewEncoder(w).Encode(StartResponse{
			GameID:   "game-7",
			Scenario: ScenarioSummary{ID: "storm-a", DurationSteps: 24},
			Initial:  validRecord(0),
		})
	})

	resp, err := client.StartGame(context.Background(), "storm-a", DifficultyExpert)
	if err != nil {
		t.Fatalf("Failed to start game: %v", err)
	}
	if resp.GameID != "game-7" {
		t.Errorf("Expected game id game-7, got %s", resp.GameID)
	}
	if resp.Initial.T != 0 || resp.Initial.State.Budget != 90 {
		t.Errorf("Unexpected initial record: %+v", resp.Initial)
	}
}

func TestStartGameRejectsInvalidInitial(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rec := validRecord(0)
		rec.Recommendation.Confidence = 1.5 // out of range
		json.NewEncoder(w).Encode(StartResponse{GameID: "game-7", Initial: rec})
	})

	_, err := client.StartGame(context.Background(), "storm-a", DifficultyStandard)
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("Expected TransportError for malformed payload, got %v", err)
	}
}

func TestSubmitStep(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/step" {
			t.Errorf("Expected /step, got %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req["game_id"] != "game-7" || req["action"] != "pump" || req["zone_id"] != "industrial" {
			t.Errorf("Unexpected request payload: %v", req)
		}
		rec := validRecord(1)
		rec.Action = ActionPump
		zid := "industrial"
		rec.ZoneID = &zid
		json.NewEncoder(w).Encode(rec)
	})

	zid := "industrial"
	rec, err := client.SubmitStep(context.Background(), "game-7", ActionPump, &zid)
	if err != nil {
		t.Fatalf("Failed to submit step: %v", err)
	}
	if rec.T != 1 || rec.Action != ActionPump {
		t.Errorf("Unexpected record: %+v", rec)
	}
	if rec.ZoneID == nil || *rec.ZoneID != "industrial" {
		t.Errorf("Expected zone id industrial, got %v", rec.ZoneID)
	}
}

func TestSubmitStepOmitsZoneForAllZones(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if _, present := req["zone_id"]; present {
			t.Error("Expected zone_id absent for an all-zone action")
		}
		json.NewEncoder(w).Encode(validRecord(1))
	})

	if _, err := client.SubmitStep(context.Background(), "game-7", ActionEvac, nil); err != nil {
		t.Fatalf("Failed to submit step: %v", err)
	}
}

func TestSubmitStepRejectsMissingFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"action": "none", "t": 1}`))
	})

	_, err := client.SubmitStep(context.Background(), "game-7", ActionNone, nil)
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("Expected TransportError for incomplete payload, got %v", err)
	}
}

func TestTransportErrorCarriesBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Game session not found", http.StatusNotFound)
	})

	_, err := client.FetchReplay(context.Background(), "missing")
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if !strings.Contains(tErr.Message, "Game session not found") {
		t.Errorf("Expected body in error message, got %q", tErr.Message)
	}
	if tErr.Op != "fetch replay" {
		t.Errorf("Expected op fetch replay, got %q", tErr.Op)
	}
}

func TestNewTrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:8000///", 0)
	if c.BaseURL != "http://localhost:8000" {
		t.Errorf("Expected trimmed base URL, got %q", c.BaseURL)
	}
}
