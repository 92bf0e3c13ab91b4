package domain

import (
	"fmt"
	"strings"
)

// SelectionStrategy names the weight profile used to rank contexts.
type SelectionStrategy string

// Selection strategies.
const (
	// StrategyHybrid balances relevance with priority and recency.
	StrategyHybrid SelectionStrategy = "hybrid"
	// StrategyRelevance ranks by domain and lexical match only.
	StrategyRelevance SelectionStrategy = "relevance"
	// StrategyPriority ranks mostly by context priority.
	StrategyPriority SelectionStrategy = "priority"
	// StrategyRecency ranks mostly by how recently a context changed.
	StrategyRecency SelectionStrategy = "recency"
)

// SelectionStrategies lists every strategy, default first.
func SelectionStrategies() []SelectionStrategy {
	return []SelectionStrategy{StrategyHybrid, StrategyRelevance, StrategyPriority, StrategyRecency}
}

// ParseSelectionStrategy resolves a strategy name case-insensitively.
// An empty name is the hybrid default.
func ParseSelectionStrategy(name string) (SelectionStrategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return StrategyHybrid, nil
	}
	for _, s := range SelectionStrategies() {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown selection strategy %q (want hybrid, relevance, priority or recency)",
		ErrInvalidInput, name)
}
