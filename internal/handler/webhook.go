package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univel/meetsync/internal/sync"
)

// googleIdentity is the User-Agent Google's push delivery sends; anything
// else is not the provider and gets ignored.
const googleIdentity = "APIs-Google; (+https://developers.google.com/webmasters/APIs-Google.html)"

// WebhookController receives the provider's change notifications.
type WebhookController struct {
	svc    *sync.Service
	logger *slog.Logger
}

func NewWebhookController(svc *sync.Service, logger *slog.Logger) *WebhookController {
	return &WebhookController{svc: svc, logger: logger}
}

// Notify validates the sender identity and the channel id against the stored
// watch channel. Mismatches are answered 200 with no processing, so a rogue
// or stale sender learns nothing and the provider does not retry. Processing
// failures return 500 so the provider redelivers.
func (c *WebhookController) Notify(ctx *gin.Context) {
	rctx := ctx.Request.Context()

	if ua := ctx.GetHeader("User-Agent"); ua != googleIdentity {
		c.logger.WarnContext(rctx, "webhook with unexpected identity ignored", "user_agent", ua)
		ctx.Status(http.StatusOK)
		return
	}

	channelID := ctx.GetHeader("X-Goog-Channel-ID")
	ok, err := c.svc.VerifyWebhookChannel(rctx, channelID)
	if err != nil {
		c.logger.ErrorContext(rctx, "failed to verify webhook channel", "error", err)
		ctx.Status(http.StatusInternalServerError)
		return
	}
	if !ok {
		c.logger.WarnContext(rctx, "webhook for unknown channel ignored", "channel_id", channelID)
		ctx.Status(http.StatusOK)
		return
	}

	if err := c.svc.ProcessWebhook(rctx); err != nil {
		c.logger.ErrorContext(rctx, "failed to process webhook batch", "error", err)
		ctx.Status(http.StatusInternalServerError)
		return
	}
	ctx.Status(http.StatusOK)
}
