package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cityops/flood-commander/internal/sim"
)

// File layout of one saved session:
//
//	<dir>/<session-id>/session.yaml   identity and config
//	<dir>/<session-id>/scenario.json  scenario as received at start
//	<dir>/<session-id>/history.json   JSON array of step records
//	<dir>/<session-id>/summary.yaml   present once the session ended
const (
	metaFile     = "session.yaml"
	scenarioFile = "scenario.json"
	historyFile  = "history.json"
	summaryFile  = "summary.yaml"
)

// SaveInfo describes one resumable session on disk.
type SaveInfo struct {
	ID            string
	ScenarioID    string
	CommanderName string
	Difficulty    sim.Difficulty
	SavedAt       time.Time
	Steps         int
	Ended         bool
}

type sessionMeta struct {
	ID            string    `yaml:"id"`
	GameID        string    `yaml:"game_id"`
	ScenarioID    string    `yaml:"scenario_id"`
	Difficulty    string    `yaml:"difficulty"`
	CommanderName string    `yaml:"commander_name"`
	Language      string    `yaml:"language"`
	Steps         int       `yaml:"steps"`
	SavedAt       time.Time `yaml:"saved_at"`
}

// FSStore persists sessions under a save directory, one subdirectory per
// session. Every file is written via temp-file+rename so a crash never
// leaves a half-written step behind.
type FSStore struct {
	Dir string
}

// NewFSStore returns a store rooted at dir.
func NewFSStore(dir string) *FSStore {
	return &FSStore{Dir: dir}
}

func (st *FSStore) Save(s *Session) error {
	dir := filepath.Join(st.Dir, s.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	meta := sessionMeta{
		ID:            s.ID,
		GameID:        s.GameID,
		ScenarioID:    s.ScenarioID,
		Difficulty:    string(s.Difficulty),
		CommanderName: s.CommanderName,
		Language:      s.Language,
		Steps:         len(s.History),
		SavedAt:       time.Now().UTC(),
	}
	metaData, err := yaml.Marshal(meta)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(dir, metaFile), metaData); err != nil {
		return err
	}

	scenarioData, err := json.Marshal(s.Scenario)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(dir, scenarioFile), scenarioData); err != nil {
		return err
	}

	historyData, err := json.Marshal(s.History)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(dir, historyFile), historyData); err != nil {
		return err
	}

	if s.Summary != nil {
		summaryData, err := yaml.Marshal(s.Summary)
		if err != nil {
			return err
		}
		if err := writeFileAtomic(filepath.Join(dir, summaryFile), summaryData); err != nil {
			return err
		}
	}
	return nil
}

func (st *FSStore) Load(id string) (*Session, error) {
	dir := filepath.Join(st.Dir, id)

	metaData, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	var meta sessionMeta
	if err := yaml.Unmarshal(metaData, &meta); err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	scenarioData, err := os.ReadFile(filepath.Join(dir, scenarioFile))
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	var scenario sim.ScenarioSummary
	if err := json.Unmarshal(scenarioData, &scenario); err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	historyData, err := os.ReadFile(filepath.Join(dir, historyFile))
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	var history []sim.StepRecord
	if err := json.Unmarshal(historyData, &history); err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	s := &Session{
		ID:            meta.ID,
		GameID:        meta.GameID,
		ScenarioID:    meta.ScenarioID,
		Difficulty:    sim.Difficulty(meta.Difficulty),
		CommanderName: meta.CommanderName,
		Language:      meta.Language,
		Scenario:      scenario,
		History:       history,
		Phase:         PhasePlaying,
	}

	summaryData, err := os.ReadFile(filepath.Join(dir, summaryFile))
	if err == nil {
		var sum GameSummary
		if err := yaml.Unmarshal(summaryData, &sum); err != nil {
			return nil, fmt.Errorf("load session %s: %w", id, err)
		}
		s.Summary = &sum
		s.Phase = PhaseEnded
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	return s, nil
}

func (st *FSStore) List() ([]SaveInfo, error) {
	entries, err := os.ReadDir(st.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(st.Dir, entry.Name())
		metaData, err := os.ReadFile(filepath.Join(dir, metaFile))
		if err != nil {
			// Not a session directory.
			continue
		}
		var meta sessionMeta
		if err := yaml.Unmarshal(metaData, &meta); err != nil {
			continue
		}
		_, err = os.Stat(filepath.Join(dir, summaryFile))
		saves = append(saves, SaveInfo{
			ID:            meta.ID,
			ScenarioID:    meta.ScenarioID,
			CommanderName: meta.CommanderName,
			Difficulty:    sim.Difficulty(meta.Difficulty),
			SavedAt:       meta.SavedAt,
			Steps:         meta.Steps,
			Ended:         err == nil,
		})
	}
	sort.Slice(saves, func(i, j int) bool { return saves[i].SavedAt.After(saves[j].SavedAt) })
	return saves, nil
}

// Delete removes a saved session.
func (st *FSStore) Delete(id string) error {
	return os.RemoveAll(filepath.Join(st.Dir, id))
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
