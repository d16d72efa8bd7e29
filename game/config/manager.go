package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/CallMeTrinity/sae501-api-server/game/engine"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Rules is one game-rules configuration.
type Rules struct {
	Name                string  `json:"name"`
	Description         string  `json:"description,omitempty"`
	TotalQuestions      int     `json:"total_questions"`
	ActionShare         float64 `json:"action_share"`
	VoteDurationSeconds int     `json:"vote_duration_seconds"`
	CountdownSeconds    int     `json:"countdown_seconds"`
	HintsPerGame        int     `json:"hints_per_game"`
}

// Selection returns the question-selection rules portion.
func (r Rules) Selection() engine.SelectionRules {
	return engine.SelectionRules{TotalQuestions: r.TotalQuestions, ActionShare: r.ActionShare}
}

// Validate checks a rule set for playability.
func (r Rules) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if r.TotalQuestions <= 0 {
		return fmt.Errorf("%w: total_questions must be positive, got %d", ErrInvalidConfig, r.TotalQuestions)
	}
	if r.ActionShare < 0 || r.ActionShare > 1 {
		return fmt.Errorf("%w: action_share must be within [0,1], got %g", ErrInvalidConfig, r.ActionShare)
	}
	if r.VoteDurationSeconds <= 0 {
		return fmt.Errorf("%w: vote_duration_seconds must be positive, got %d", ErrInvalidConfig, r.VoteDurationSeconds)
	}
	if r.CountdownSeconds <= 0 {
		return fmt.Errorf("%w: countdown_seconds must be positive, got %d", ErrInvalidConfig, r.CountdownSeconds)
	}
	if r.HintsPerGame < 0 {
		return fmt.Errorf("%w: hints_per_game must not be negative, got %d", ErrInvalidConfig, r.HintsPerGame)
	}
	return nil
}

// DefaultRules is the built-in classic rule set: 10 questions, 40% action
// family, 60 second vote window, 30 second countdown, 3 hints.
func DefaultRules() Rules {
	return Rules{
		Name:                "classic",
		Description:         "Classic party game: 10 questions, 40% action, 60s vote",
		TotalQuestions:      10,
		ActionShare:         0.4,
		VoteDurationSeconds: 60,
		CountdownSeconds:    30,
		HintsPerGame:        3,
	}
}

// Manager handles rule-set loading and caching.
type Manager struct {
	configDir string
	rules     map[string]Rules
	mu        sync.RWMutex
}

// NewManager creates a rules manager over a configuration directory. A
// missing directory is not an error; the built-in default still applies.
func NewManager(configDir string) (*Manager, error) {
	m := &Manager{
		configDir: configDir,
		rules:     make(map[string]Rules),
	}
	if configDir == "" {
		return m, nil
	}
	if _, err := os.Stat(configDir); err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("stat config directory: %w", err)
	}
	return m, nil
}

// Load returns the rule set with the given name, reading it from disk on
// first use.
func (m *Manager) Load(name string) (Rules, error) {
	name = strings.TrimSuffix(name, ".json")

	m.mu.RLock()
	if r, ok := m.rules[name]; ok {
		m.mu.RUnlock()
		return r, nil
	}
	m.mu.RUnlock()

	if m.configDir == "" {
		return Rules{}, fmt.Errorf("%w: %s", ErrConfigNotFound, name)
	}

	path := filepath.Join(m.configDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Rules{}, fmt.Errorf("%w: %s", ErrConfigNotFound, name)
		}
		return Rules{}, fmt.Errorf("read config %s: %w", name, err)
	}

	var r Rules
	if err := json.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
	}
	if err := r.Validate(); err != nil {
		return Rules{}, fmt.Errorf("config %s: %w", name, err)
	}

	m.mu.Lock()
	m.rules[name] = r
	m.mu.Unlock()
	return r, nil
}

// Default returns the rule set named "classic" from the configuration
// directory when present, otherwise the built-in default.
func (m *Manager) Default() Rules {
	if r, err := m.Load("classic"); err == nil {
		return r
	}
	return DefaultRules()
}

// List returns the names of every rule set available in the configuration
// directory, plus the built-in default.
func (m *Manager) List() ([]string, error) {
	names := map[string]bool{DefaultRules().Name: true}
	if m.configDir != "" {
		entries, err := os.ReadDir(m.configDir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			names[strings.TrimSuffix(e.Name(), ".json")] = true
		}
	}
	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}
