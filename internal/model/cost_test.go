package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCostTracker_Record(t *testing.T) {
	tracker := NewCostTracker()
	tracker.Record("gpt-4o-mini", 1000, 500)
	tracker.Record("gpt-4o-mini", 2000, 1000)

	u := tracker.Usage("gpt-4o-mini")
	assert.Equal(t, 3000, u.InputTokens)
	assert.Equal(t, 1500, u.OutputTokens)
	assert.Equal(t, 2, u.Requests)
	assert.Equal(t, 4500, u.TotalTokens())
}

func TestCostTracker_EstimatedCost(t *testing.T) {
	tracker := NewCostTracker()
	tracker.Record("gpt-4o", 1_000_000, 1_000_000)

	assert.InDelta(t, 12.50, tracker.EstimatedCost(), 0.001)

	byModel := tracker.EstimatedCostByModel()
	assert.InDelta(t, 12.50, byModel["gpt-4o"], 0.001)
}

func TestCostTracker_UnknownModelCostsZero(t *testing.T) {
	tracker := NewCostTracker()
	tracker.Record("in-house-model", 1_000_000, 1_000_000)

	assert.Equal(t, 0.0, tracker.EstimatedCost())
	assert.Equal(t, 2_000_000, tracker.Usage("in-house-model").TotalTokens())
}

func TestCostTracker_Concurrent(t *testing.T) {
	tracker := NewCostTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Record("gpt-4o", 10, 5)
		}()
	}
	wg.Wait()

	u := tracker.Usage("gpt-4o")
	assert.Equal(t, 500, u.InputTokens)
	assert.Equal(t, 50, u.Requests)
}

func TestCostTracker_Reset(t *testing.T) {
	tracker := NewCostTracker()
	tracker.Record("gpt-4o", 100, 100)
	tracker.Reset()

	assert.Empty(t, tracker.Summary())
}
