package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Client is a thin wrapper around the four remote simulation operations.
type Client struct {
	BaseURL string
	http    *http.Client
}

// New builds a client for the simulation service at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// ListScenarios fetches the playable scenarios.
func (c *Client) ListScenarios(ctx context.Context) ([]ScenarioSummary, error) {
	var out []ScenarioSummary
	if err := c.get(ctx, "list scenarios", "/scenarios", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StartGame creates a fresh game on the simulation side and returns its
// identity, the scenario, and the initial step record.
func (c *Client) StartGame(ctx context.Context, scenarioID string, difficulty Difficulty) (*StartResponse, error) {
	payload := map[string]any{"scenario_id": scenarioID, "difficulty": difficulty}
	raw, err := c.post(ctx, "start game", "/start", payload)
	if err != nil {
		return nil, err
	}
	var probe struct {
		Initial any `json:"initial"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, &TransportError{Op: "start game", Message: err.Error()}
	}
	if err := validateStepPayload(probe.Initial); err != nil {
		return nil, &TransportError{Op: "start game", Message: err.Error()}
	}
	var out StartResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &TransportError{Op: "start game", Message: err.Error()}
	}
	return &out, nil
}

// SubmitStep advances the game by one hour. zoneID is nil when the action
// targets all zones.
func (c *Client) SubmitStep(ctx context.Context, gameID string, action Action, zoneID *string) (*StepRecord, error) {
	payload := map[string]any{"game_id": gameID, "action": action}
	if zoneID != nil {
		payload["zone_id"] = *zoneID
	}
	raw, err := c.post(ctx, "submit step", "/step", payload)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &TransportError{Op: "submit step", Message: err.Error()}
	}
	if err := validateStepPayload(doc); err != nil {
		return nil, &TransportError{Op: "submit step", Message: err.Error()}
	}
	var out StepRecord
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &TransportError{Op: "submit step", Message: err.Error()}
	}
	return &out, nil
}

// FetchReplay returns the recorded history of a finished or ongoing game.
func (c *Client) FetchReplay(ctx context.Context, gameID string) (*ReplayResponse, error) {
	var out ReplayResponse
	if err := c.get(ctx, "fetch replay", "/replay/"+gameID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return &TransportError{Op: op, Message: err.Error()}
	}
	raw, err := c.do(op, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: op, Message: err.Error()}
	}
	return nil
}

func (c *Client) post(ctx context.Context, op, path string, payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Op: op, Message: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, &TransportError{Op: op, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req)
}

func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Message: err.Error()}
	}
	log.Debug().Str("op", op).Int("status", resp.StatusCode).Dur("dur", time.Since(start)).Msg("sim call")
	if resp.StatusCode/100 != 2 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		return nil, &TransportError{Op: op, Message: msg}
	}
	return body, nil
}
