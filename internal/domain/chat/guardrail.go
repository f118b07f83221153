package chat

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/meteogram/meteogram/internal/domain/agent"
)

const guardrailPrompt = "You are a topic classifier for a weather assistant. " +
	"Given a user message, answer with exactly one word: ALLOW if the message " +
	"is about weather, climate, travel conditions, or general small talk, and " +
	"BLOCK otherwise. Do not explain."

// Guardrail classifies inbound text with a secondary completion before the
// main agent sees it. It fails open: if classification errors out, the
// message passes.
type Guardrail struct {
	provider agent.Provider
	log      zerolog.Logger
}

func NewGuardrail(provider agent.Provider, log zerolog.Logger) *Guardrail {
	return &Guardrail{
		provider: provider,
		log:      log.With().Str("component", "guardrail").Logger(),
	}
}

// Allow reports whether the message may reach the agent.
func (g *Guardrail) Allow(ctx context.Context, text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}

	result, err := g.provider.Complete(ctx, agent.CompletionRequest{
		Messages: []agent.ChatMessage{
			agent.SystemMessage(guardrailPrompt),
			agent.UserMessage(text),
		},
	})
	if err != nil {
		g.log.Warn().Err(err).Msg("classification failed, allowing message")
		return true
	}

	verdict := strings.ToUpper(strings.TrimSpace(result.Message.Content))
	if strings.HasPrefix(verdict, "BLOCK") {
		g.log.Info().Msg("message blocked by guardrail")
		return false
	}
	return true
}
