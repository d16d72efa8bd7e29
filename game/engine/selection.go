package engine

import (
	"context"
	"fmt"

	"github.com/CallMeTrinity/sae501-api-server/store"
)

// actionTypes is the quota family complementary to the text category.
var actionTypes = []string{store.TypeAction, store.TypeActionWait}

var textTypes = []string{store.TypeText}

// QuestionSource provides question candidates from the durable store.
type QuestionSource interface {
	// QuestionsByIDs resolves already-answered ids to their questions so the
	// selector can count how many of each category were consumed.
	QuestionsByIDs(ctx context.Context, ids []int) ([]store.Question, error)
	// ActiveUnanswered returns active questions of the given types whose ids
	// are not in exclude.
	ActiveUnanswered(ctx context.Context, types []string, exclude []int) ([]store.Question, error)
}

// SelectionRules fixes the target round composition.
type SelectionRules struct {
	// TotalQuestions is the number of questions per game.
	TotalQuestions int
	// ActionShare is the fraction of TotalQuestions drawn from the action
	// family (action + action_wait); the rest come from text.
	ActionShare float64
}

// DefaultRules is the classic composition: 10 questions, 40% action family.
func DefaultRules() SelectionRules {
	return SelectionRules{TotalQuestions: 10, ActionShare: 0.4}
}

// Targets returns the per-category question targets.
func (r SelectionRules) Targets() (action, text int) {
	action = int(float64(r.TotalQuestions)*r.ActionShare + 0.5)
	return action, r.TotalQuestions - action
}

// Selector picks the next question for a session against its answered
// history. It keeps no memory between calls; the answered-id set passed in
// (and excluded at every query) is what prevents repeats.
type Selector struct {
	src   QuestionSource
	rules SelectionRules
}

// NewSelector creates a selector over a question source.
func NewSelector(src QuestionSource, rules SelectionRules) *Selector {
	if rules.TotalQuestions <= 0 {
		rules = DefaultRules()
	}
	return &Selector{src: src, rules: rules}
}

// Next returns the next question for a session given its answered ids.
// When the round target is reached or no candidate remains in either
// category, it returns moveToVote=true instead of a question.
func (sel *Selector) Next(ctx context.Context, answeredIDs []int) (q *store.Question, moveToVote bool, err error) {
	answered, err := sel.src.QuestionsByIDs(ctx, answeredIDs)
	if err != nil {
		return nil, false, fmt.Errorf("resolve answered questions: %w", err)
	}

	remaining := sel.rules.TotalQuestions - len(answeredIDs)
	if remaining <= 0 {
		return nil, true, nil
	}

	answeredAction := 0
	answeredText := 0
	for _, a := range answered {
		if isActionType(a.Type) {
			answeredAction++
		} else {
			answeredText++
		}
	}

	targetAction, targetText := sel.rules.Targets()
	neededAction := targetAction - answeredAction
	neededText := targetText - answeredText

	// Category choice: a satisfied quota forces the other category; otherwise
	// the larger needed/remaining ratio wins, ties going to action.
	var primary, fallback []string
	switch {
	case neededAction <= 0:
		primary, fallback = textTypes, actionTypes
	case neededText <= 0:
		primary, fallback = actionTypes, textTypes
	case neededAction >= neededText:
		primary, fallback = actionTypes, textTypes
	default:
		primary, fallback = textTypes, actionTypes
	}

	candidates, err := sel.src.ActiveUnanswered(ctx, primary, answeredIDs)
	if err != nil {
		return nil, false, fmt.Errorf("query candidates: %w", err)
	}
	if len(candidates) == 0 {
		candidates, err = sel.src.ActiveUnanswered(ctx, fallback, answeredIDs)
		if err != nil {
			return nil, false, fmt.Errorf("query fallback candidates: %w", err)
		}
	}
	if len(candidates) == 0 {
		return nil, true, nil
	}

	Shuffle(candidates)
	picked := candidates[0]
	return &picked, false, nil
}

func isActionType(t string) bool {
	return t == store.TypeAction || t == store.TypeActionWait
}
