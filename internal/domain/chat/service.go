package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/meteogram/meteogram/internal/domain/agent"
	"github.com/meteogram/meteogram/internal/domain/approval"
	"github.com/meteogram/meteogram/internal/domain/conversation"
	"github.com/meteogram/meteogram/internal/domain/tool"
	"github.com/meteogram/meteogram/internal/infrastructure/metrics"
)

// ErrToolDepthExceeded is returned when the completion loop hits the max
// tool recursion depth without producing a final answer.
var ErrToolDepthExceeded = errors.New("tool orchestration depth exceeded")

const systemPrompt = "You are a helpful assistant that answers questions and looks up " +
	"live data with the tools available to you. Keep replies concise and " +
	"suitable for a chat conversation."

// Config tunes the processor.
type Config struct {
	HistoryLimit int
	MaxToolDepth int
	ToolTimeout  time.Duration
	Guardrail    bool
}

// Service is the job processor. Per chat it is a two state machine: Idle
// when no PendingApproval exists, AwaitingApproval when one does. The state
// lives entirely in the approval store.
type Service struct {
	provider  agent.Provider
	tools     *tool.Registry
	turns     conversation.Repository
	approvals approval.Store
	responder Responder
	files     FileResolver
	guardrail *Guardrail
	cfg       Config
	log       zerolog.Logger
}

// NewService wires the processor.
func NewService(
	provider agent.Provider,
	tools *tool.Registry,
	turns conversation.Repository,
	approvals approval.Store,
	responder Responder,
	files FileResolver,
	cfg Config,
	log zerolog.Logger,
) *Service {
	if cfg.MaxToolDepth <= 0 {
		cfg.MaxToolDepth = 8
	}
	s := &Service{
		provider:  provider,
		tools:     tools,
		turns:     turns,
		approvals: approvals,
		responder: responder,
		files:     files,
		cfg:       cfg,
		log:       log.With().Str("component", "chat-processor").Logger(),
	}
	if cfg.Guardrail {
		s.guardrail = NewGuardrail(provider, log)
	}
	return s
}

// Process handles one dequeued update. Processing errors are reported to
// the chat as a generic failure and returned for logging; the job is never
// requeued by this layer.
func (s *Service) Process(ctx context.Context, in Inbound) error {
	if in.ChatID == 0 {
		s.log.Warn().Msg("update without chat id, skipping")
		return nil
	}

	log := s.log.With().Int64("chat_id", in.ChatID).Logger()

	err := s.dispatch(ctx, in, log)
	if err != nil {
		log.Error().Err(err).Msg("processing failed")
		if sendErr := s.responder.SendText(ctx, in.ChatID, replyGenericFailure); sendErr != nil {
			log.Error().Err(sendErr).Msg("failed to deliver failure notice")
		}
	}
	return err
}

func (s *Service) dispatch(ctx context.Context, in Inbound, log zerolog.Logger) error {
	pending, err := s.approvals.Get(ctx, in.ChatID)
	switch {
	case errors.Is(err, approval.ErrNotFound):
		return s.handleQuery(ctx, in, log)
	case err != nil:
		return fmt.Errorf("check pending approval: %w", err)
	default:
		return s.handleDecision(ctx, in, pending, log)
	}
}

// handleQuery is the Idle branch: the update is a new question for the agent.
func (s *Service) handleQuery(ctx context.Context, in Inbound, log zerolog.Logger) error {
	if in.IsCallback {
		// A button press with nothing pending: the approval lapsed.
		s.acknowledge(ctx, in.CallbackID, ackExpired, log)
		return s.deliver(ctx, in.ChatID, replyExpired, log)
	}

	userMsg, userTurn, err := s.buildUserInput(ctx, in)
	if err != nil {
		log.Warn().Err(err).Msg("unusable attachment")
		return s.deliver(ctx, in.ChatID, replyBadAttachment, log)
	}
	if userMsg == nil {
		log.Debug().Msg("update carries no usable input, skipping")
		return nil
	}

	if s.guardrail != nil {
		allowed := s.guardrail.Allow(ctx, in.Text)
		if !allowed {
			refusal := fmt.Sprintf("I'm sorry %s, I can't help with that. Please ask me about something else.", senderName(in))
			return s.deliver(ctx, in.ChatID, refusal, log)
		}
	}

	history, err := s.turns.Load(ctx, in.ChatID, s.cfg.HistoryLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	messages := make([]agent.ChatMessage, 0, len(history)+2)
	messages = append(messages, agent.SystemMessage(systemPrompt))
	messages = append(messages, messagesFromHistory(history)...)
	messages = append(messages, *userMsg)

	return s.runCompletionLoop(ctx, in.ChatID, messages, []*conversation.Turn{userTurn}, log)
}

// runCompletionLoop drains provider turns until a final answer or a
// sensitive tool call pauses the chat. newTurns accumulates the rows to
// persist once an outcome is reached.
func (s *Service) runCompletionLoop(ctx context.Context, chatID int64, messages []agent.ChatMessage, newTurns []*conversation.Turn, log zerolog.Logger) error {
	for depth := 0; depth < s.cfg.MaxToolDepth; depth++ {
		result, err := s.provider.Complete(ctx, agent.CompletionRequest{
			Messages: messages,
			Tools:    s.tools.Definitions(),
		})
		if err != nil {
			metrics.LLMRequestsTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("agent completion: %w", err)
		}
		metrics.LLMRequestsTotal.WithLabelValues("success").Inc()

		msg := result.Message
		messages = append(messages, msg)

		if len(msg.ToolCalls) == 0 {
			newTurns = append(newTurns, &conversation.Turn{
				ChatID:  chatID,
				Role:    conversation.RoleAssistant,
				Content: msg.Content,
			})
			if err := s.turns.AppendAll(ctx, newTurns); err != nil {
				return fmt.Errorf("persist turns: %w", err)
			}
			return s.deliver(ctx, chatID, msg.Content, log)
		}

		for _, call := range msg.ToolCalls {
			newTurns = append(newTurns, &conversation.Turn{
				ChatID:     chatID,
				Role:       conversation.RoleAssistant,
				Content:    msg.Content,
				ToolCallID: call.ID,
				ToolName:   call.Name,
				ToolArgs:   call.Arguments,
			})

			if s.tools.IsSensitive(call.Name) {
				return s.requestApproval(ctx, chatID, call, newTurns, log)
			}

			output, err := s.executeTool(ctx, call, log)
			if err != nil {
				return err
			}
			messages = append(messages, agent.ToolResultMessage(call.ID, output))
			newTurns = append(newTurns, &conversation.Turn{
				ChatID:     chatID,
				Role:       conversation.RoleTool,
				Content:    output,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
	}

	return ErrToolDepthExceeded
}

// requestApproval persists the paused state and asks the user to confirm.
// The chat transitions to AwaitingApproval; remaining tool calls of the
// same assistant message are dropped because only one approval may be
// outstanding per chat.
func (s *Service) requestApproval(ctx context.Context, chatID int64, call agent.ToolCall, newTurns []*conversation.Turn, log zerolog.Logger) error {
	pending := &approval.PendingApproval{
		ApprovalID:  uuid.NewString(),
		ChatID:      chatID,
		ToolCallID:  call.ID,
		ToolName:    call.Name,
		ToolArgs:    call.Arguments,
		RequestedAt: time.Now().UTC(),
	}

	if err := s.approvals.Set(ctx, pending); err != nil {
		return fmt.Errorf("store pending approval: %w", err)
	}

	if err := s.turns.AppendAll(ctx, newTurns); err != nil {
		return fmt.Errorf("persist turns: %w", err)
	}

	log.Info().Str("tool", call.Name).Str("approval_id", pending.ApprovalID).Msg("awaiting approval")

	if err := s.responder.SendApprovalRequest(ctx, chatID, call.Name, call.Arguments, pending.ApprovalID); err != nil {
		log.Error().Err(err).Msg("failed to deliver approval request")
	}
	return nil
}

// handleDecision is the AwaitingApproval branch: the update is interpreted
// as an approve/deny answer, never as a new query.
func (s *Service) handleDecision(ctx context.Context, in Inbound, pending *approval.PendingApproval, log zerolog.Logger) error {
	var decision approval.Decision

	if in.IsCallback {
		d, approvalID, ok := approval.DecideCallback(in.CallbackData)
		if !ok || approvalID != pending.ApprovalID {
			s.acknowledge(ctx, in.CallbackID, ackExpired, log)
			return s.deliver(ctx, in.ChatID, replyExpired, log)
		}
		decision = d
		if d == approval.Approved {
			s.acknowledge(ctx, in.CallbackID, ackApproved, log)
		} else {
			s.acknowledge(ctx, in.CallbackID, ackRejected, log)
		}
	} else {
		// Free text: anything but an explicit affirmative denies.
		decision = approval.DecideText(in.Text)
	}

	if decision == approval.Approved {
		return s.resumeApproved(ctx, in.ChatID, pending, log)
	}
	return s.resumeDenied(ctx, in.ChatID, pending, log)
}

func (s *Service) resumeApproved(ctx context.Context, chatID int64, pending *approval.PendingApproval, log zerolog.Logger) error {
	log.Info().Str("tool", pending.ToolName).Str("approval_id", pending.ApprovalID).Msg("approval granted")

	t, ok := s.tools.Get(pending.ToolName)
	if !ok {
		s.clearApproval(ctx, chatID, log)
		return fmt.Errorf("approved tool not registered: %s", pending.ToolName)
	}

	output, err := s.runTool(ctx, t, pending.ToolArgs)
	if err != nil {
		s.clearApproval(ctx, chatID, log)
		return fmt.Errorf("execute approved tool %s: %w", pending.ToolName, err)
	}

	toolTurn := &conversation.Turn{
		ChatID:     chatID,
		Role:       conversation.RoleTool,
		Content:    output,
		ToolCallID: pending.ToolCallID,
		ToolName:   pending.ToolName,
	}
	if err := s.turns.Append(ctx, toolTurn); err != nil {
		return fmt.Errorf("persist tool turn: %w", err)
	}

	// Outcome recorded; the chat leaves AwaitingApproval here. A crash
	// between tool execution and this clear strands the approval until its
	// TTL lapses.
	s.clearApproval(ctx, chatID, log)

	// Resume the loop from persisted history; it now ends with the
	// assistant's tool call and the fresh tool result.
	history, err := s.turns.Load(ctx, chatID, s.cfg.HistoryLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	messages := make([]agent.ChatMessage, 0, len(history)+1)
	messages = append(messages, agent.SystemMessage(systemPrompt))
	messages = append(messages, messagesFromHistory(history)...)

	return s.runCompletionLoop(ctx, chatID, messages, nil, log)
}

func (s *Service) resumeDenied(ctx context.Context, chatID int64, pending *approval.PendingApproval, log zerolog.Logger) error {
	log.Info().Str("tool", pending.ToolName).Str("approval_id", pending.ApprovalID).Msg("approval denied")

	// Close out the dangling tool call so the history stays coherent for
	// the next completion.
	declined := []*conversation.Turn{
		{
			ChatID:     chatID,
			Role:       conversation.RoleTool,
			Content:    "The user declined to run this tool.",
			ToolCallID: pending.ToolCallID,
			ToolName:   pending.ToolName,
		},
		{
			ChatID:  chatID,
			Role:    conversation.RoleAssistant,
			Content: replyCancelled,
		},
	}
	if err := s.turns.AppendAll(ctx, declined); err != nil {
		return fmt.Errorf("persist denial turns: %w", err)
	}

	s.clearApproval(ctx, chatID, log)
	return s.deliver(ctx, chatID, replyCancelled, log)
}

func (s *Service) executeTool(ctx context.Context, call agent.ToolCall, log zerolog.Logger) (string, error) {
	t, ok := s.tools.Get(call.Name)
	if !ok {
		return "", fmt.Errorf("tool not registered: %s", call.Name)
	}

	output, err := s.runTool(ctx, t, call.Arguments)
	if err != nil {
		return "", fmt.Errorf("execute tool %s: %w", call.Name, err)
	}

	log.Debug().Str("tool", call.Name).Msg("tool executed")
	return output, nil
}

func (s *Service) runTool(ctx context.Context, t tool.Tool, args json.RawMessage) (string, error) {
	callCtx := ctx
	if s.cfg.ToolTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.ToolTimeout)
		defer cancel()
	}

	output, err := t.Execute(callCtx, args)
	if err != nil {
		metrics.ToolCallsTotal.WithLabelValues(t.Name(), "error").Inc()
		return "", err
	}
	metrics.ToolCallsTotal.WithLabelValues(t.Name(), "success").Inc()
	return output, nil
}

// deliver sends a reply. Delivery errors are logged only; the job is still
// considered processed.
func (s *Service) deliver(ctx context.Context, chatID int64, text string, log zerolog.Logger) error {
	if err := s.responder.SendText(ctx, chatID, text); err != nil {
		log.Error().Err(err).Msg("failed to deliver reply")
	}
	return nil
}

func (s *Service) acknowledge(ctx context.Context, callbackID, text string, log zerolog.Logger) {
	if callbackID == "" {
		return
	}
	if err := s.responder.AcknowledgeCallback(ctx, callbackID, text); err != nil {
		log.Error().Err(err).Msg("failed to acknowledge callback")
	}
}

func (s *Service) clearApproval(ctx context.Context, chatID int64, log zerolog.Logger) {
	if err := s.approvals.Clear(ctx, chatID); err != nil {
		log.Error().Err(err).Msg("failed to clear pending approval")
	}
}

func senderName(in Inbound) string {
	if in.SenderFirstName != "" {
		return in.SenderFirstName
	}
	return "there"
}

func messagesFromHistory(history []conversation.Turn) []agent.ChatMessage {
	out := make([]agent.ChatMessage, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case conversation.RoleAssistant:
			msg := agent.ChatMessage{Role: agent.RoleAssistant, Content: turn.Content}
			if turn.ToolCallID != "" {
				msg.ToolCalls = []agent.ToolCall{{
					ID:        turn.ToolCallID,
					Name:      turn.ToolName,
					Arguments: turn.ToolArgs,
				}}
			}
			out = append(out, msg)
		case conversation.RoleTool:
			out = append(out, agent.ToolResultMessage(turn.ToolCallID, turn.Content))
		default:
			out = append(out, agent.UserMessage(turn.Content))
		}
	}
	return out
}
