package handlers

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/meteogram/meteogram/internal/config"
	"github.com/meteogram/meteogram/internal/infrastructure/metrics"
	"github.com/meteogram/meteogram/internal/infrastructure/queue"
	"github.com/meteogram/meteogram/internal/infrastructure/telegram"
)

// secretTokenHeader is set by Telegram on every webhook delivery when the
// webhook was registered with a secret.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

const botSenderReply = "I don't respond to other bots. If you're a human, please use a regular account!"

// TelegramHandler exposes the webhook ingestion and registration endpoints.
type TelegramHandler struct {
	cfg   *config.Config
	queue queue.TaskQueue
	bot   *telegram.Client
	log   zerolog.Logger
}

// NewTelegramHandler constructs the handler.
func NewTelegramHandler(cfg *config.Config, q queue.TaskQueue, bot *telegram.Client, log zerolog.Logger) *TelegramHandler {
	return &TelegramHandler{
		cfg:   cfg,
		queue: q,
		bot:   bot,
		log:   log.With().Str("handler", "telegram").Logger(),
	}
}

// Webhook handles POST /telegram/webhook. It authenticates the shared
// secret, rejects non-human senders, and hands the update to the queue. The
// handler never processes the update inline; Telegram only needs the fast
// acknowledgement.
func (h *TelegramHandler) Webhook(c *gin.Context) {
	got := c.GetHeader(secretTokenHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.cfg.WebhookSecret)) != 1 {
		metrics.WebhookRequestsTotal.WithLabelValues("unauthorized").Inc()
		h.log.Warn().Str("remote", c.ClientIP()).Msg("webhook secret mismatch")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid secret token"})
		return
	}

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		metrics.WebhookRequestsTotal.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed update payload"})
		return
	}

	// Other bots get a canned reply and never reach the agent.
	if sender := update.Sender(); sender != nil && sender.IsBot {
		metrics.WebhookRequestsTotal.WithLabelValues("bot_sender").Inc()
		if chatID := update.ChatID(); chatID != 0 {
			if err := h.bot.SendMessage(c.Request.Context(), chatID, botSenderReply); err != nil {
				h.log.Error().Err(err).Msg("failed to deliver bot-sender reply")
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	kind := queue.JobKindMessage
	if update.IsCallback() {
		kind = queue.JobKindCallback
	}

	job := &queue.Job{
		JobID:      uuid.NewString(),
		Kind:       kind,
		Update:     &update,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := h.queue.Enqueue(c.Request.Context(), job); err != nil {
		metrics.WebhookRequestsTotal.WithLabelValues("enqueue_error").Inc()
		h.log.Error().Err(err).Int64("update_id", update.UpdateID).Msg("failed to enqueue update")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue update"})
		return
	}

	metrics.WebhookRequestsTotal.WithLabelValues("accepted").Inc()
	c.JSON(http.StatusOK, gin.H{"status": "accepted", "job_id": job.JobID})
}

// SetWebhook handles GET /telegram/set-webhook. It registers this service's
// webhook endpoint with the Bot API, deriving the public URL from config or,
// failing that, from the request host.
func (h *TelegramHandler) SetWebhook(c *gin.Context) {
	base := h.cfg.PublicBaseURL
	if base == "" {
		scheme := "https"
		if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		} else if c.Request.TLS == nil {
			scheme = "http"
		}
		base = fmt.Sprintf("%s://%s", scheme, c.Request.Host)
	}
	webhookURL := base + "/telegram/webhook"

	if err := h.bot.SetWebhook(c.Request.Context(), webhookURL, h.cfg.WebhookSecret); err != nil {
		h.log.Error().Err(err).Str("url", webhookURL).Msg("failed to set webhook")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to register webhook"})
		return
	}

	h.log.Info().Str("url", webhookURL).Msg("webhook registered")
	c.JSON(http.StatusOK, gin.H{"status": "ok", "url": webhookURL})
}
