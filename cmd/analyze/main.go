// Command analyze prints quick, human-readable heuristics about rule-set
// files in the project's configs directory. It summarizes question quotas,
// expected game pacing, and flags rule sets whose vote window is shorter
// than the countdown that precedes it.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/CallMeTrinity/sae501-api-server/game/config"
)

// secondsPerQuestion is a rough playtest figure used for pacing estimates.
const secondsPerQuestion = 90

func main() {
	files, err := filepath.Glob(filepath.Join("configs", "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	sort.Strings(files)

	if len(files) == 0 {
		fmt.Println("No rule sets found under configs/")
		return
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		analyzeRules(file)
	}
}

func analyzeRules(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		return
	}

	var rules config.Rules
	if err := json.Unmarshal(data, &rules); err != nil {
		fmt.Printf("Error parsing JSON: %v\n", err)
		return
	}

	fmt.Printf("Name: %s\n", rules.Name)
	if rules.Description != "" {
		fmt.Printf("Description: %s\n", rules.Description)
	}

	actionTarget, textTarget := rules.Selection().Targets()
	fmt.Printf("Questions: %d total\n", rules.TotalQuestions)
	fmt.Printf("  Action quota: %d (%.0f%%)\n", actionTarget, rules.ActionShare*100)
	fmt.Printf("  Text quota: %d\n", textTarget)

	fmt.Printf("Vote window: %ds\n", rules.VoteDurationSeconds)
	fmt.Printf("Countdown: %ds\n", rules.CountdownSeconds)
	fmt.Printf("Hints per game: %d\n", rules.HintsPerGame)

	estimate := rules.TotalQuestions*secondsPerQuestion + rules.CountdownSeconds + rules.VoteDurationSeconds
	fmt.Printf("Estimated game length: ~%dm%02ds\n", estimate/60, estimate%60)

	if err := rules.Validate(); err != nil {
		fmt.Printf("⚠️  WARNING: rule set does not validate: %v\n", err)
		return
	}
	if rules.VoteDurationSeconds < rules.CountdownSeconds {
		fmt.Printf("⚠️  WARNING: vote window (%ds) is shorter than the countdown (%ds)\n",
			rules.VoteDurationSeconds, rules.CountdownSeconds)
	} else {
		fmt.Printf("✅ Pacing looks consistent\n")
	}
}
