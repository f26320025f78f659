// Messaging webhook handlers.
//
// This file terminates the inbound messaging channel:
//   - GET  /webhook   (subscription verification challenge)
//   - POST /webhook   (inbound message deliveries)
//
// The platform expects a fast 200 on every delivery and redelivers anything
// it considers unacknowledged. The POST handler therefore does the minimum
// inline work: parse, claim the message ID against the redelivery guard, and
// hand the conversation turn to the per-customer worker pool. A full queue
// sheds the job but still acknowledges, trading one lost turn for keeping
// the subscription alive.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AI-Automated-Ecommerce/Backend/internal/agent"
	"github.com/AI-Automated-Ecommerce/Backend/internal/repo"
	"github.com/AI-Automated-Ecommerce/Backend/internal/worker"
)

// WebhookHandler terminates the messaging platform's webhook pair.
type WebhookHandler struct {
	DB          *gorm.DB
	Processor   *agent.Processor
	Pool        *worker.Pool
	VerifyToken string

	// DedupTTL is the replay-suppression window for message IDs. Zero means
	// one hour.
	DedupTTL time.Duration

	// JobTimeout bounds one conversation turn. Zero means 60 seconds.
	JobTimeout time.Duration
}

//
// Inbound payload shapes (platform wire format, fields we read only)
//

type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundMessage struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

//
// Handlers
//

// Verify godoc
// @ID          verifyWebhook
// @Summary     Webhook subscription verification
// @Description Echoes hub.challenge when hub.mode is "subscribe" and
// @Description hub.verify_token matches the configured token.
// @Tags        Webhook
// @Produce     plain
//
// @Param       hub.mode          query  string  true  "Must be subscribe"
// @Param       hub.verify_token  query  string  true  "Shared verification token"
// @Param       hub.challenge     query  string  true  "Opaque challenge to echo"
//
// @Success     200  {string}  string  "Echoed challenge"
// @Failure     403  {object}  handlers.ErrorResponse  "Token mismatch"
// @Router      /webhook [get]
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == h.VerifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	fail(c, http.StatusForbidden, ErrCodeForbidden, "verification failed")
}

// Receive godoc
// @ID          receiveWebhook
// @Summary     Inbound message delivery
// @Description Accepts a platform delivery, suppresses redeliveries by message
// @Description ID, and queues the conversation turn for background processing.
// @Description Always acknowledges with 200 once the payload parses.
// @Tags        Webhook
// @Accept      json
// @Produce     json
//
// @Success     200  {object}  map[string]string
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed payload"
// @Router      /webhook [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	msg, found := firstTextMessage(payload)
	if !found {
		// Status receipts and non-text content carry no conversation turn.
		ok(c, http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	ttl := h.DedupTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	first, err := repo.ClaimInboundMessage(c.Request.Context(), h.DB, msg.ID, ttl)
	if err != nil {
		// Fail open: losing dedup for one message beats dropping it.
		log.Error().Err(err).Str("message_id", msg.ID).Msg("redelivery guard failed")
		first = true
	}
	if !first {
		ok(c, http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	phone := msg.From
	text := msg.Text.Body
	timeout := h.JobTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	job := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if strings.TrimSpace(text) == "/clear" {
			h.Processor.ClearHistory(ctx, phone)
			return
		}
		h.Processor.HandleMessage(ctx, phone, text)
	}

	if !h.Pool.Submit(phone, job) {
		log.Warn().Str("phone", phone).Str("message_id", msg.ID).Msg("inbound queue full, turn shed")
	}
	ok(c, http.StatusOK, gin.H{"status": "received"})
}

// firstTextMessage walks the nested delivery envelope and returns the first
// text message, if any. Deliveries carry at most one message in practice.
func firstTextMessage(p webhookPayload) (inboundMessage, bool) {
	for _, e := range p.Entry {
		for _, ch := range e.Changes {
			for _, m := range ch.Value.Messages {
				if m.Type == "text" && m.From != "" && m.ID != "" {
					return m, true
				}
			}
		}
	}
	return inboundMessage{}, false
}
