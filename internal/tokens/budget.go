package tokens

// Default allocation percentages for a prompt budget.
const (
	DefaultSystemPercent   = 15
	DefaultContextPercent  = 40
	DefaultUserPercent     = 25
	DefaultReservedPercent = 20
)

// Budget allocates a model's context window across prompt components.
// Reserved tokens are held back for the model's response.
type Budget struct {
	Total    int
	System   int
	Context  int
	User     int
	Reserved int

	counter Counter
}

// NewBudget creates a budget with the default allocation.
func NewBudget(total int) *Budget {
	return NewBudgetWithAllocation(total,
		DefaultSystemPercent, DefaultContextPercent,
		DefaultUserPercent, DefaultReservedPercent)
}

// NewBudgetWithAllocation creates a budget with custom relative weights.
// Weights are normalized against their sum, so (n, 15, 40, 25, 20) and
// (n, 3, 8, 5, 4) produce the same split.
func NewBudgetWithAllocation(total, system, context, user, reserved int) *Budget {
	sum := system + context + user + reserved
	if sum <= 0 {
		sum = 100
		system, context, user, reserved = DefaultSystemPercent,
			DefaultContextPercent, DefaultUserPercent, DefaultReservedPercent
	}
	return &Budget{
		Total:    total,
		System:   total * system / sum,
		Context:  total * context / sum,
		User:     total * user / sum,
		Reserved: total * reserved / sum,
		counter:  NewEstimatingCounter(),
	}
}

// WithCounter replaces the counter used by the Fits* helpers.
func (b *Budget) WithCounter(counter Counter) *Budget {
	b.counter = counter
	return b
}

// FitsSystem reports whether text fits the system allocation.
func (b *Budget) FitsSystem(text string) bool {
	return b.counter.FitsInLimit(text, b.System)
}

// FitsContext reports whether text fits the context allocation.
func (b *Budget) FitsContext(text string) bool {
	return b.counter.FitsInLimit(text, b.Context)
}

// FitsUser reports whether text fits the user allocation.
func (b *Budget) FitsUser(text string) bool {
	return b.counter.FitsInLimit(text, b.User)
}

// RemainingContext returns the context allocation left after usedTokens.
func (b *Budget) RemainingContext(usedTokens int) int {
	remaining := b.Context - usedTokens
	if remaining < 0 {
		return 0
	}
	return remaining
}

// HistoryAllowance returns the tokens available for conversation history
// once the system prompt, packed context and user message are accounted
// for. The reserved allocation is never given away.
func (b *Budget) HistoryAllowance(systemUsed, contextUsed, userUsed int) int {
	remaining := b.Total - b.Reserved - systemUsed - contextUsed - userUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
