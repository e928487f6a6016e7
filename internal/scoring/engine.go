// Package scoring holds the deterministic rule engines for lead intent and
// account fit. Rule tables are plain values passed into the engines; nothing
// here reads package-level mutable state.
package scoring

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// ScoreDetail provides detailed information about a scoring component
type ScoreDetail struct {
	Points      int    `json:"points"`
	Triggered   bool   `json:"triggered"`
	Description string `json:"description"`
	Value       string `json:"value"`
}

// ScoreResult is the outcome of running a rule table against one record
type ScoreResult struct {
	Score     int                    `json:"score"`
	Uncapped  int                    `json:"uncapped"`
	Reasons   []string               `json:"reasons"`
	Breakdown map[string]ScoreDetail `json:"breakdown"`
	ScoredAt  time.Time              `json:"scored_at"`
}

// check is one evaluated rule: the name it is reported under, the points it
// awards when triggered and the value that triggered it
type check struct {
	name        string
	description string
	points      int
	triggered   bool
	value       string
}

// tally folds evaluated checks into a result, capping the score at max
// when max > 0. Reasons are listed in rule order.
func tally(checks []check, max int, now time.Time) *ScoreResult {
	result := &ScoreResult{
		Reasons:   []string{},
		Breakdown: make(map[string]ScoreDetail, len(checks)),
		ScoredAt:  now,
	}

	for _, c := range checks {
		detail := ScoreDetail{
			Triggered:   c.triggered,
			Description: c.description,
			Value:       c.value,
		}
		if c.triggered {
			detail.Points = c.points
			result.Uncapped += c.points
			result.Reasons = append(result.Reasons, c.name)
		}
		result.Breakdown[c.name] = detail
	}

	result.Score = result.Uncapped
	if max > 0 && result.Score > max {
		result.Score = max
	}
	if result.Score < 0 {
		result.Score = 0
	}
	return result
}

// containsAny reports the first keyword found in text. Both sides are
// compared lowercased.
func containsAny(text string, keywords []string) (string, bool) {
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}

// anyContainsAny reports whether any value contains any keyword
func anyContainsAny(values []string, keywords []string) (string, bool) {
	for _, v := range values {
		if _, ok := containsAny(v, keywords); ok {
			return v, true
		}
	}
	return "", false
}

// sortedKeys returns the breakdown keys in a stable order, used for logging
func sortedKeys(m map[string]ScoreDetail) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TriggeredSummary renders triggered breakdown entries as "name+points"
// pairs, sorted by name
func (r *ScoreResult) TriggeredSummary() string {
	var parts []string
	for _, k := range sortedKeys(r.Breakdown) {
		if d := r.Breakdown[k]; d.Triggered {
			parts = append(parts, k+"+"+strconv.Itoa(d.Points))
		}
	}
	return strings.Join(parts, ",")
}
