// Package model tracks per-model token usage and estimated spend.
package model

import "sync"

// Usage accumulates token consumption for one model.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	Requests     int `json:"requests"`
}

// Add merges another usage record into this one.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.Requests += other.Requests
}

// TotalTokens returns input plus output tokens.
func (u Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// Pricing holds per-million-token prices for a model.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// Prices lists hosted-model pricing (USD per million tokens, 2025).
// Unknown models are tracked for tokens but cost zero.
var Prices = map[string]Pricing{
	"gpt-4o":        {InputPerMillion: 2.50, OutputPerMillion: 10.0},
	"gpt-4o-mini":   {InputPerMillion: 0.15, OutputPerMillion: 0.60},
	"gpt-4-turbo":   {InputPerMillion: 10.0, OutputPerMillion: 30.0},
	"gpt-3.5-turbo": {InputPerMillion: 0.50, OutputPerMillion: 1.50},

	"deepseek-chat":     {InputPerMillion: 0.27, OutputPerMillion: 1.10},
	"deepseek-reasoner": {InputPerMillion: 0.55, OutputPerMillion: 2.19},

	"text-embedding-3-small": {InputPerMillion: 0.02},
	"text-embedding-3-large": {InputPerMillion: 0.13},
}

// CostTracker accumulates usage and estimated cost across models.
// Safe for concurrent use.
type CostTracker struct {
	mu     sync.RWMutex
	totals map[string]Usage
}

// NewCostTracker creates an empty tracker.
func NewCostTracker() *CostTracker {
	return &CostTracker{totals: make(map[string]Usage)}
}

// Record adds one request's token counts for the given model.
func (t *CostTracker) Record(model string, input, output int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.totals[model]
	u.InputTokens += input
	u.OutputTokens += output
	u.Requests++
	t.totals[model] = u
}

// RecordUsage merges a usage record for the given model.
func (t *CostTracker) RecordUsage(model string, usage Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.totals[model]
	u.Add(usage)
	t.totals[model] = u
}

// Usage returns the accumulated usage for one model.
func (t *CostTracker) Usage(model string) Usage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totals[model]
}

// Summary returns a copy of all per-model totals.
func (t *CostTracker) Summary() map[string]Usage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]Usage, len(t.totals))
	for k, v := range t.totals {
		result[k] = v
	}
	return result
}

// EstimatedCost returns the estimated total spend in USD.
func (t *CostTracker) EstimatedCost() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var total float64
	for model, usage := range t.totals {
		total += costFor(model, usage)
	}
	return total
}

// EstimatedCostByModel returns the estimated spend per model.
func (t *CostTracker) EstimatedCostByModel() map[string]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]float64, len(t.totals))
	for model, usage := range t.totals {
		result[model] = costFor(model, usage)
	}
	return result
}

// Reset clears all tracked usage.
func (t *CostTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totals = make(map[string]Usage)
}

func costFor(model string, usage Usage) float64 {
	prices, ok := Prices[model]
	if !ok {
		return 0
	}
	in := float64(usage.InputTokens) / 1_000_000 * prices.InputPerMillion
	out := float64(usage.OutputTokens) / 1_000_000 * prices.OutputPerMillion
	return in + out
}
