package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"aissistant/config"
	"aissistant/internal/domain"
	"aissistant/internal/logging"
	"aissistant/internal/model"
	"aissistant/internal/persona"
	"aissistant/internal/port"
	"aissistant/internal/tokens"
	"aissistant/internal/truncate"
)

// ToolExecutor runs model-requested tool calls.
type ToolExecutor interface {
	Definitions() []port.Tool
	Execute(ctx context.Context, call domain.ToolCall) (string, error)
}

// ChatUseCase assembles prompts under the token budget, drives the
// provider (including the tool loop) and persists both sides of every
// exchange.
type ChatUseCase struct {
	cfg      *config.Config
	provider port.Provider
	convs    port.ConversationStore
	usage    port.UsageStore
	costs    *model.CostTracker

	retriever *RetrieveUseCase
	tools     ToolExecutor
	counter   tokens.Counter
}

func NewChatUseCase(cfg *config.Config, provider port.Provider, convs port.ConversationStore, usage port.UsageStore, costs *model.CostTracker) *ChatUseCase {
	return &ChatUseCase{
		cfg:      cfg,
		provider: provider,
		convs:    convs,
		usage:    usage,
		costs:    costs,
		counter:  tokens.NewEstimatingCounter(),
	}
}

// WithRetriever grounds answers in the knowledge store.
func (u *ChatUseCase) WithRetriever(r *RetrieveUseCase) *ChatUseCase {
	u.retriever = r
	return u
}

// WithTools offers function-calling tools to the model.
func (u *ChatUseCase) WithTools(t ToolExecutor) *ChatUseCase {
	u.tools = t
	return u
}

// StartConversation creates and persists a new conversation.
func (u *ChatUseCase) StartConversation(p persona.Persona, modelName string) (domain.Conversation, error) {
	now := time.Now()
	conv := domain.Conversation{
		ID:        conversationID(now),
		Persona:   p.Name,
		Model:     modelName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.convs.PutConversation(conv); err != nil {
		return domain.Conversation{}, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// Ask sends one question, running tool calls until the model produces a
// final answer or the turn bound is hit.
func (u *ChatUseCase) Ask(ctx context.Context, conv domain.Conversation, p persona.Persona, question string) (*port.Response, error) {
	modelName := u.modelFor(conv, p)
	system, msgs, userMsg, err := u.buildPrompt(ctx, conv, p, question, modelName)
	if err != nil {
		return nil, err
	}

	var defs []port.Tool
	if u.tools != nil {
		defs = u.tools.Definitions()
	}

	maxTurns := u.cfg.Provider.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 8
	}

	for turn := 0; turn < maxTurns; turn++ {
		resp, err := u.provider.Complete(ctx, port.Request{
			SystemPrompt: system,
			Messages:     msgs,
			Model:        modelName,
			Temperature:  u.temperatureFor(p),
			Tools:        defs,
		})
		if err != nil {
			return nil, err
		}
		u.recordUsage(modelName, resp.Usage)

		if len(resp.ToolCalls) == 0 || u.tools == nil {
			if err := u.persistExchange(conv, userMsg, resp); err != nil {
				return nil, err
			}
			return resp, nil
		}

		msgs = append(msgs, domain.Message{
			Role:      domain.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
			SentAt:    time.Now(),
		})
		for _, call := range resp.ToolCalls {
			out, err := u.tools.Execute(ctx, call)
			if err != nil {
				out = fmt.Sprintf("tool error: %v", err)
			}
			msgs = append(msgs, domain.Message{
				Role:       domain.RoleTool,
				Name:       call.Name,
				ToolCallID: call.ID,
				Content:    out,
				SentAt:     time.Now(),
			})
		}
	}

	return nil, fmt.Errorf("no final answer after %d tool turns", maxTurns)
}

// AskStream sends one question and streams the answer through onDelta.
// Tools are not offered on the streaming path.
func (u *ChatUseCase) AskStream(ctx context.Context, conv domain.Conversation, p persona.Persona, question string, onDelta func(string)) (*port.Response, error) {
	modelName := u.modelFor(conv, p)
	system, msgs, userMsg, err := u.buildPrompt(ctx, conv, p, question, modelName)
	if err != nil {
		return nil, err
	}

	ch, err := u.provider.Stream(ctx, port.Request{
		SystemPrompt: system,
		Messages:     msgs,
		Model:        modelName,
		Temperature:  u.temperatureFor(p),
	})
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	resp := &port.Response{Model: modelName, FinishReason: "stop"}
	for chunk := range ch {
		if chunk.Err != nil {
			return nil, chunk.Err
		}
		if chunk.Content != "" {
			sb.WriteString(chunk.Content)
			if onDelta != nil {
				onDelta(chunk.Content)
			}
		}
		if chunk.Done && chunk.Usage != nil {
			resp.Usage = *chunk.Usage
		}
	}
	resp.Content = sb.String()

	if resp.Usage.TotalTokens == 0 {
		// endpoint did not report usage; fall back to estimates
		resp.Usage.OutputTokens = u.counter.Count(resp.Content)
		resp.Usage.InputTokens = u.counter.Count(system) + u.counter.Count(question)
		resp.Usage.TotalTokens = resp.Usage.InputTokens + resp.Usage.OutputTokens
	}
	u.recordUsage(modelName, resp.Usage)

	if err := u.persistExchange(conv, userMsg, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// buildPrompt assembles the system prompt, trimmed history and the user
// message so that the whole request stays inside the window minus the
// reserved output allocation.
func (u *ChatUseCase) buildPrompt(ctx context.Context, conv domain.Conversation, p persona.Persona, question, modelName string) (string, []domain.Message, domain.Message, error) {
	window := u.cfg.Budget.ContextWindow
	if window <= 0 {
		window = tokens.ContextWindow(modelName)
	}
	budget := tokens.NewBudgetWithAllocation(window,
		u.cfg.Budget.SystemPercent, u.cfg.Budget.ContextPercent,
		u.cfg.Budget.UserPercent, u.cfg.Budget.ReservedPercent)

	system := p.SystemPrompt
	if !budget.FitsSystem(system) {
		system, _ = truncate.New(truncate.FromEnd).Truncate(system, budget.System)
	}
	systemTokens := u.counter.Count(system)

	contextTokens := 0
	if u.cfg.Chat.UseKnowledge && u.retriever != nil {
		bundle, err := u.retriever.Query(ctx, question, u.cfg.Chat.RetrievalTopK, budget.Context)
		switch {
		case err != nil:
			logging.Warnf("retrieval failed, answering without document context: %v", err)
		case len(bundle.Snippets) > 0:
			ctxText := FormatContext(bundle)
			system = system + "\n\n" + ctxText
			contextTokens = bundle.UsedTokens
		}
	}

	userText := question
	if !budget.FitsUser(userText) {
		userText, _ = truncate.New(truncate.FromEnd).Truncate(userText, budget.User)
	}
	userMsg := domain.Message{
		Role:    domain.RoleUser,
		Content: userText,
		Tokens:  u.counter.Count(userText),
		SentAt:  time.Now(),
	}

	history, err := u.convs.GetMessages(conv.ID)
	if err != nil {
		return "", nil, domain.Message{}, fmt.Errorf("failed to load history: %w", err)
	}
	if limit := u.cfg.Chat.HistoryLimit; limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	allowance := budget.HistoryAllowance(systemTokens, contextTokens, userMsg.Tokens)
	history = trimHistory(history, allowance, u.counter)

	msgs := append(history, userMsg)
	return system, msgs, userMsg, nil
}

// trimHistory keeps the newest messages that fit the allowance, dropping
// whole messages oldest first. Orphaned tool results at the cut are
// dropped with their turn.
func trimHistory(history []domain.Message, allowance int, counter tokens.Counter) []domain.Message {
	used := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		n := history[i].Tokens
		if n <= 0 {
			n = counter.Count(history[i].Content)
		}
		if used+n > allowance {
			break
		}
		used += n
		start = i
	}
	kept := history[start:]
	for len(kept) > 0 && kept[0].Role == domain.RoleTool {
		kept = kept[1:]
	}
	return kept
}

func (u *ChatUseCase) persistExchange(conv domain.Conversation, userMsg domain.Message, resp *port.Response) error {
	if err := u.convs.AppendMessage(conv.ID, userMsg); err != nil {
		return fmt.Errorf("failed to persist user message: %w", err)
	}
	assistantMsg := domain.Message{
		Role:    domain.RoleAssistant,
		Content: resp.Content,
		Tokens:  resp.Usage.OutputTokens,
		SentAt:  time.Now(),
	}
	if err := u.convs.AppendMessage(conv.ID, assistantMsg); err != nil {
		return fmt.Errorf("failed to persist assistant message: %w", err)
	}

	if conv.Title == "" {
		conv.Title = titleFrom(userMsg.Content)
	}
	conv.UpdatedAt = time.Now()
	return u.convs.PutConversation(conv)
}

func (u *ChatUseCase) recordUsage(modelName string, usage port.TokenUsage) {
	if u.costs != nil {
		u.costs.Record(modelName, usage.InputTokens, usage.OutputTokens)
	}
	if u.usage != nil {
		u.usage.AddUsage(modelName, usage.InputTokens, usage.OutputTokens)
	}
}

func (u *ChatUseCase) modelFor(conv domain.Conversation, p persona.Persona) string {
	if conv.Model != "" {
		return conv.Model
	}
	if p.Model != "" {
		return p.Model
	}
	return u.cfg.Provider.Model
}

func (u *ChatUseCase) temperatureFor(p persona.Persona) float64 {
	if p.Temperature > 0 {
		return p.Temperature
	}
	return u.cfg.Provider.Temperature
}

func titleFrom(question string) string {
	title := strings.Join(strings.Fields(question), " ")
	if len(title) > 60 {
		title = title[:60]
	}
	return title
}

func conversationID(t time.Time) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("conv:%d", t.UnixNano())))
	return hex.EncodeToString(hash[:8])
}
