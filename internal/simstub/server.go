package simstub

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cityops/flood-commander/internal/sim"
)

// Server exposes the stand-in simulation over the wire contract the client
// consumes: /scenarios, /start, /step, /replay/:game_id.
type Server struct {
	scenarios map[string]ScenarioSpec
	order     []string

	mu    sync.RWMutex
	games map[string]*Game
}

// NewServer loads the embedded fixtures and returns a ready server.
func NewServer() (*Server, error) {
	specs, err := LoadScenarios()
	if err != nil {
		return nil, err
	}
	s := &Server{
		scenarios: make(map[string]ScenarioSpec, len(specs)),
		games:     make(map[string]*Game),
	}
	for _, spec := range specs {
		s.scenarios[spec.ID] = spec
		s.order = append(s.order, spec.ID)
	}
	return s, nil
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("dur", time.Since(start)).
			Msg("http")
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})
	r.GET("/scenarios", s.listScenarios)
	r.POST("/start", s.startGame)
	r.POST("/step", s.stepGame)
	r.GET("/replay/:game_id", s.replay)
	return r
}

func (s *Server) listScenarios(c *gin.Context) {
	out := make([]sim.ScenarioSummary, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.scenarios[id].Summary())
	}
	c.JSON(http.StatusOK, out)
}

type startRequest struct {
	ScenarioID string `json:"scenario_id"`
	Difficulty string `json:"difficulty"`
}

func (s *Server) startGame(c *gin.Context) {
	var req startRequest
	if err := c.BindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid start request")
		return
	}
	spec, ok := s.scenarios[req.ScenarioID]
	if !ok {
		c.String(http.StatusNotFound, "Scenario not found")
		return
	}
	difficulty := sim.Difficulty(req.Difficulty)
	if difficulty == "" {
		difficulty = sim.DifficultyStandard
	}

	game := NewGame(spec, difficulty)
	gameID := uuid.NewString()
	s.mu.Lock()
	s.games[gameID] = game
	s.mu.Unlock()

	log.Info().Str("game", gameID).Str("scenario", spec.ID).Str("difficulty", string(difficulty)).Msg("game started")
	c.JSON(http.StatusOK, sim.StartResponse{
		GameID:   gameID,
		Scenario: spec.Summary(),
		Initial:  game.History()[0],
	})
}

type stepRequest struct {
	GameID string  `json:"game_id"`
	Action string  `json:"action"`
	ZoneID *string `json:"zone_id"`
}

func (s *Server) stepGame(c *gin.Context) {
	var req stepRequest
	if err := c.BindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid step request")
		return
	}
	s.mu.RLock()
	game, ok := s.games[req.GameID]
	s.mu.RUnlock()
	if !ok {
		c.String(http.StatusNotFound, "Game session not found")
		return
	}

	s.mu.Lock()
	rec, err := game.Step(sim.Action(strings.TrimSpace(req.Action)), req.ZoneID)
	s.mu.Unlock()
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) replay(c *gin.Context) {
	gameID := c.Param("game_id")
	s.mu.RLock()
	game, ok := s.games[gameID]
	s.mu.RUnlock()
	if !ok {
		c.String(http.StatusNotFound, "Game session not found")
		return
	}
	c.JSON(http.StatusOK, sim.ReplayResponse{
		ScenarioID: game.ScenarioID(),
		History:    game.History(),
	})
}
