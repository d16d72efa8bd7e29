package engine

import (
	"encoding/json"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/CallMeTrinity/sae501-api-server/store"
)

// Default feedback when a question carries none of its own.
const (
	feedbackCorrect   = "Correct answer!"
	feedbackIncorrect = "Wrong answer, try again."
)

// NormalizeAnswer lowercases, strips diacritics and trims a free-text answer
// so "Réponse " and "reponse" compare equal. The transform chain is stateful,
// so each call builds its own.
func NormalizeAnswer(s string) string {
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	lowered := strings.ToLower(s)
	stripped, _, err := transform.String(stripAccents, lowered)
	if err != nil {
		stripped = lowered
	}
	return strings.TrimSpace(stripped)
}

// AnswerCheck is the outcome of validating a submitted answer.
type AnswerCheck struct {
	Correct bool   `json:"correct"`
	Message string `json:"message"`
}

// questionFeedback mirrors the per-question feedback payload stored with the
// question content.
type questionFeedback struct {
	Correct   string `json:"correct"`
	Incorrect string `json:"incorrect"`
}

// CheckAnswer compares a submitted answer against the question's solution,
// accent- and case-insensitively, and picks the matching feedback message.
func CheckAnswer(q *store.Question, answer string) AnswerCheck {
	correct := NormalizeAnswer(answer) == NormalizeAnswer(q.Solution)

	fb := questionFeedback{Correct: feedbackCorrect, Incorrect: feedbackIncorrect}
	if q.Feedback != "" {
		var parsed questionFeedback
		if err := json.Unmarshal([]byte(q.Feedback), &parsed); err == nil {
			if parsed.Correct != "" {
				fb.Correct = parsed.Correct
			}
			if parsed.Incorrect != "" {
				fb.Incorrect = parsed.Incorrect
			}
		}
	}

	if correct {
		return AnswerCheck{Correct: true, Message: fb.Correct}
	}
	return AnswerCheck{Correct: false, Message: fb.Incorrect}
}
