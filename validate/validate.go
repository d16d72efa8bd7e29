// Command validate provides a small CLI that validates rule-set JSON files
// in the ../configs directory. It checks:
//   - JSON structure and required fields
//   - Question counts and the action share being within [0,1]
//   - Vote and countdown durations being positive
//   - Hint budgets not being negative
//
// For valid files it also prints the derived question quotas.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CallMeTrinity/sae501-api-server/game/config"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateRules loads and validates a single rule-set JSON file.
func validateRules(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var rules config.Rules
	if err := json.Unmarshal(data, &rules); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	if err := rules.Validate(); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	actionTarget, textTarget := rules.Selection().Targets()

	result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", rules.Name))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Questions: %d (%d action, %d text)", rules.TotalQuestions, actionTarget, textTarget))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Vote window: %ds", rules.VoteDurationSeconds))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Countdown: %ds", rules.CountdownSeconds))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Hints: %d", rules.HintsPerGame))
	return result
}

// main scans ../configs for *.json files and validates each one, printing a
// concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateRules(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
