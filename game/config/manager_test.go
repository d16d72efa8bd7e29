package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeRules(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write rules file: %v", err)
	}
}

func TestLoadValidRules(t *testing.T) {
	dir := t.TempDir()
	writeRules(t, dir, "party.json", `{
		"name": "party",
		"total_questions": 12,
		"action_share": 0.5,
		"vote_duration_seconds": 45,
		"countdown_seconds": 20,
		"hints_per_game": 4
	}`)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	rules, err := m.Load("party")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rules.TotalQuestions != 12 || rules.ActionShare != 0.5 {
		t.Errorf("Unexpected rules: %+v", rules)
	}

	// Loading by file name works too.
	if _, err := m.Load("party.json"); err != nil {
		t.Errorf("Load by file name failed: %v", err)
	}
}

func TestLoadMissingRules(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, err := m.Load("ghost"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoadRejectsInvalidRules(t *testing.T) {
	dir := t.TempDir()
	writeRules(t, dir, "broken.json", `{"name": "broken", "total_questions": 0}`)
	writeRules(t, dir, "badjson.json", `{not json`)

	m, _ := NewManager(dir)

	if _, err := m.Load("broken"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for zero questions, got %v", err)
	}
	if _, err := m.Load("badjson"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for malformed JSON, got %v", err)
	}
}

func TestMissingConfigDirIsNotFatal(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("Expected missing directory to be tolerated, got %v", err)
	}

	rules := m.Default()
	if rules.Name != "classic" {
		t.Errorf("Expected built-in default, got %+v", rules)
	}
}

func TestDefaultPrefersDiskClassic(t *testing.T) {
	dir := t.TempDir()
	writeRules(t, dir, "classic.json", `{
		"name": "classic",
		"total_questions": 8,
		"action_share": 0.25,
		"vote_duration_seconds": 90,
		"countdown_seconds": 30,
		"hints_per_game": 2
	}`)

	m, _ := NewManager(dir)
	rules := m.Default()
	if rules.TotalQuestions != 8 {
		t.Errorf("Expected the on-disk classic to win, got %+v", rules)
	}
}

func TestListIncludesDefaultAndDiskRules(t *testing.T) {
	dir := t.TempDir()
	writeRules(t, dir, "blitz.json", `{
		"name": "blitz",
		"total_questions": 5,
		"action_share": 0.2,
		"vote_duration_seconds": 30,
		"countdown_seconds": 10,
		"hints_per_game": 2
	}`)

	m, _ := NewManager(dir)
	names, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["classic"] || !found["blitz"] {
		t.Errorf("Expected classic and blitz listed, got %v", names)
	}
}

func TestRulesValidate(t *testing.T) {
	valid := DefaultRules()
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected default rules valid, got %v", err)
	}

	cases := []Rules{
		{Name: "", TotalQuestions: 10, ActionShare: 0.4, VoteDurationSeconds: 60, CountdownSeconds: 30},
		{Name: "x", TotalQuestions: 0, ActionShare: 0.4, VoteDurationSeconds: 60, CountdownSeconds: 30},
		{Name: "x", TotalQuestions: 10, ActionShare: 1.5, VoteDurationSeconds: 60, CountdownSeconds: 30},
		{Name: "x", TotalQuestions: 10, ActionShare: 0.4, VoteDurationSeconds: 0, CountdownSeconds: 30},
		{Name: "x", TotalQuestions: 10, ActionShare: 0.4, VoteDurationSeconds: 60, CountdownSeconds: 0},
		{Name: "x", TotalQuestions: 10, ActionShare: 0.4, VoteDurationSeconds: 60, CountdownSeconds: 30, HintsPerGame: -1},
	}
	for i, r := range cases {
		if err := r.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Case %d: expected ErrInvalidConfig, got %v", i, err)
		}
	}
}

func TestSelectionTargets(t *testing.T) {
	action, text := DefaultRules().Selection().Targets()
	if action != 4 || text != 6 {
		t.Errorf("Expected 4/6 split, got %d/%d", action, text)
	}
}
