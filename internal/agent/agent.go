package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/qmuntal/stateless"
	"github.com/sashabaranov/go-openai"

	"github.com/chatvault/chatvault/internal/config"
	"github.com/chatvault/chatvault/internal/history"
	"github.com/chatvault/chatvault/internal/llm"
	"github.com/chatvault/chatvault/internal/logger"
	"github.com/chatvault/chatvault/pkg/tools"
)

// FSM states
type FSMState stateless.State

var (
	StateReadyToCallLLM FSMState = "ReadyToCallLLM"
	StateExecutingTools FSMState = "ExecutingTools"
	StateDone           FSMState = "Done"  // Terminal: successful completion
	StateError          FSMState = "Error" // Terminal: error state
)

// FSM triggers
type FSMTrigger stateless.Trigger

var (
	TriggerProcessInput            FSMTrigger = "ProcessInput"
	TriggerLLMRespondedWithContent FSMTrigger = "LLMRespondedWithContent"
	TriggerLLMRequestedTools       FSMTrigger = "LLMRequestedTools"
	TriggerToolsExecutionCompleted FSMTrigger = "ToolsExecutionCompleted"
	TriggerErrorOccurred           FSMTrigger = "ErrorOccurred"
)

const defaultSystemPrompt = "You are a helpful AI assistant. Please respond to the user's request accurately and concisely."

// Agent drives one LLM conversation loop per Process call: prior session
// history in, tool calls in the middle, new turns appended at the end.
type Agent struct {
	llmClient    llm.Client
	cfg          config.LLMConfig
	store        history.Store
	tools        *tools.Manager
	llmTools     []openai.Tool
	systemPrompt string
}

// New creates a new agent. Every tool registered on tm is offered to the LLM.
func New(llmClient llm.Client, store history.Store, tm *tools.Manager, cfg config.LLMConfig) *Agent {
	systemPrompt := defaultSystemPrompt
	if cfg.SystemPrompt != "" {
		systemPrompt = cfg.SystemPrompt
	}

	a := &Agent{
		llmClient:    llmClient,
		cfg:          cfg,
		store:        store,
		tools:        tm,
		systemPrompt: systemPrompt,
	}
	for _, t := range tm.List() {
		a.llmTools = append(a.llmTools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Schema(),
			},
		})
		logger.L.Info("registered tool for LLM", "tool", t.Name())
	}
	return a
}

// Process answers request within the given session. The session's stored
// history is replayed into the prompt; on success the user request and the
// final AI reply are appended to the store.
func (a *Agent) Process(ctx context.Context, sessionID, request string) (string, error) {
	sess := history.NewSession(a.store, sessionID)
	prior, err := sess.Messages(ctx)
	if err != nil {
		return "", fmt.Errorf("agent: load history: %w", err)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(prior)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: a.systemPrompt,
	})
	for _, m := range prior {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openAIRole(m.Role),
			Content: m.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: request,
	})

	// FSM context data
	fsmCtx := &struct {
		messages     []openai.ChatCompletionMessage
		llmResponse  *openai.ChatCompletionResponse
		finalContent string
		lastError    error
		currentTurn  int
		maxTurns     int
	}{
		messages: messages,
		maxTurns: 5, // LLM -> tools -> LLM counts as one turn
	}

	fsm := stateless.NewStateMachine(StateReadyToCallLLM)

	fsm.Configure(StateReadyToCallLLM).
		OnEntry(func(ctx context.Context, _ ...any) error {
			if fsmCtx.currentTurn >= fsmCtx.maxTurns {
				logger.L.Warn("max interaction turns reached", "maxTurns", fsmCtx.maxTurns)
				fsmCtx.lastError = errors.New("exceeded maximum interaction turns")
				return fsm.FireCtx(ctx, TriggerErrorOccurred)
			}
			fsmCtx.currentTurn++
			logger.L.Debug("FSM: calling LLM", "turn", fsmCtx.currentTurn, "session", sessionID)

			llmResp, err := a.llmClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model:    a.cfg.Model,
				Messages: fsmCtx.messages,
				Tools:    a.llmTools,
			})
			if err != nil {
				logger.L.Error("LLM call failed", "error", err)
				fsmCtx.lastError = err
				return fsm.FireCtx(ctx, TriggerErrorOccurred)
			}
			fsmCtx.llmResponse = &llmResp

			if len(llmResp.Choices) > 0 && len(llmResp.Choices[0].Message.ToolCalls) > 0 {
				return fsm.FireCtx(ctx, TriggerLLMRequestedTools)
			}
			return fsm.FireCtx(ctx, TriggerLLMRespondedWithContent)
		}).
		PermitReentry(TriggerProcessInput).
		Permit(TriggerLLMRequestedTools, StateExecutingTools).
		Permit(TriggerLLMRespondedWithContent, StateDone).
		Permit(TriggerErrorOccurred, StateError)

	fsm.Configure(StateExecutingTools).
		OnEntry(func(ctx context.Context, _ ...any) error {
			llmMessage := fsmCtx.llmResponse.Choices[0].Message
			fsmCtx.messages = append(fsmCtx.messages, llmMessage)

			for _, toolCall := range llmMessage.ToolCalls {
				output := a.executeTool(ctx, toolCall.Function.Name, toolCall.Function.Arguments)
				fsmCtx.messages = append(fsmCtx.messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    output,
					ToolCallID: toolCall.ID,
					Name:       toolCall.Function.Name,
				})
			}
			return fsm.FireCtx(ctx, TriggerToolsExecutionCompleted)
		}).
		Permit(TriggerToolsExecutionCompleted, StateReadyToCallLLM).
		Permit(TriggerErrorOccurred, StateError)

	fsm.Configure(StateDone).
		OnEntry(func(ctx context.Context, _ ...any) error {
			if fsmCtx.llmResponse != nil && len(fsmCtx.llmResponse.Choices) > 0 {
				fsmCtx.finalContent = fsmCtx.llmResponse.Choices[0].Message.Content
			} else if fsmCtx.lastError == nil {
				fsmCtx.lastError = errors.New("LLM returned no choices")
			}
			return nil
		})

	fsm.Configure(StateError).
		OnEntry(func(ctx context.Context, _ ...any) error {
			if fsmCtx.lastError == nil {
				fsmCtx.lastError = errors.New("reached error state without a specific error")
			}
			return nil
		})

	// Re-entering the initial state kicks off the first LLM call; transitions
	// then run synchronously until a terminal state.
	if err := fsm.FireCtx(ctx, TriggerProcessInput); err != nil {
		if fsmCtx.lastError != nil {
			return "", fsmCtx.lastError
		}
		return "", fmt.Errorf("agent: FSM start: %w", err)
	}

	currentState, err := fsm.State(ctx)
	if err != nil {
		return "", fmt.Errorf("agent: FSM state: %w", err)
	}
	if currentState != StateDone {
		if fsmCtx.lastError != nil {
			return "", fsmCtx.lastError
		}
		return "", fmt.Errorf("agent: FSM ended in unexpected state: %v", currentState)
	}
	if fsmCtx.lastError != nil {
		return "", fsmCtx.lastError
	}

	if err := sess.AddUserMessage(ctx, request); err != nil {
		return "", fmt.Errorf("agent: persist user turn: %w", err)
	}
	if err := sess.AddAIMessage(ctx, fsmCtx.finalContent); err != nil {
		return "", fmt.Errorf("agent: persist ai turn: %w", err)
	}
	return fsmCtx.finalContent, nil
}

// executeTool runs one tool call and formats failures as tool output so the
// LLM can recover.
func (a *Agent) executeTool(ctx context.Context, name, args string) string {
	tool, err := a.tools.Get(name)
	if err != nil {
		logger.L.Warn("LLM requested unknown tool", "tool", name)
		return "Error: unknown tool " + name
	}
	out, err := tool.Run(ctx, args)
	if err != nil {
		logger.L.Warn("tool execution failed", "tool", name, "error", err)
		return fmt.Sprintf("Error executing %s: %v", name, err)
	}
	return out
}

func openAIRole(role string) string {
	switch role {
	case history.RoleAI:
		return openai.ChatMessageRoleAssistant
	case history.RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}
