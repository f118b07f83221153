// Package routes attaches the handler provider to the gin engine.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/meteogram/meteogram/internal/interfaces/httpserver/handlers"
)

// Provider coordinates all route registrations.
type Provider struct {
	handlers *handlers.Provider
}

// NewProvider constructs the route provider.
func NewProvider(handlerProvider *handlers.Provider) *Provider {
	return &Provider{
		handlers: handlerProvider,
	}
}

// Register attaches all routes to the gin engine. The webhook surface is
// unversioned because Telegram calls it with a fixed URL.
func (p *Provider) Register(engine *gin.Engine) {
	group := engine.Group("/telegram")
	group.POST("/webhook", p.handlers.Telegram.Webhook)
	group.GET("/set-webhook", p.handlers.Telegram.SetWebhook)
}
