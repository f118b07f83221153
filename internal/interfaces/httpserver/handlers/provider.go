// Package handlers contains the gin HTTP handlers for the webhook surface.
package handlers

import (
	"github.com/rs/zerolog"

	"github.com/meteogram/meteogram/internal/config"
	"github.com/meteogram/meteogram/internal/infrastructure/queue"
	"github.com/meteogram/meteogram/internal/infrastructure/telegram"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Telegram *TelegramHandler
}

// NewProvider constructs the handler provider.
func NewProvider(cfg *config.Config, q queue.TaskQueue, bot *telegram.Client, log zerolog.Logger) *Provider {
	return &Provider{
		Telegram: NewTelegramHandler(cfg, q, bot, log),
	}
}
