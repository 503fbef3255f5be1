package webhook

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"max-notify/internal/model"
)

// maxBodyBytes bounds one delivery.
const maxBodyBytes = 1 << 20

// HandleMaxWebhook receives one update or an {"updates": [...]} envelope.
// @Summary Max webhook
// @Description Delivery endpoint registered with POST /subscriptions. Updates are queued and acknowledged at once.
// @Tags Webhook
// @Accept json
// @Produce plain
// @Param entry_id path string true "Config entry id"
// @Param X-Max-Bot-Api-Secret header string false "Subscription secret"
// @Success 200 {string} string "ok"
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Failure 429 {string} string "rate limit exceeded"
// @Router /api/max_notify/{entry_id} [post]
func (h *Handler) HandleMaxWebhook(c *gin.Context) {
	ctx := c.Request.Context()
	entryID := c.Param("entry_id")

	inst, ok := h.instances.Get(entryID)
	if !ok {
		h.l.Debugf(ctx, "webhook: unknown entry_id=%s", entryID)
		c.String(http.StatusNotFound, "not found")
		return
	}
	if inst.ReceiveMode != model.ReceiveModeWebhook {
		c.String(http.StatusNotFound, "webhook not enabled")
		return
	}

	if err := h.security.ValidateIPAddress(c.ClientIP()); err != nil {
		h.l.Warnf(ctx, "webhook: rejected delivery for entry_id=%s: %v", entryID, err)
		c.String(http.StatusForbidden, "forbidden")
		return
	}

	if err := h.security.ValidateSecret(inst.WebhookSecret, c.GetHeader(SecretHeader)); err != nil {
		h.l.Warnf(ctx, "webhook: secret mismatch for entry_id=%s", entryID)
		c.String(http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.security.CheckRateLimit(entryID); err != nil {
		h.l.Warnf(ctx, "webhook: %v", err)
		c.String(http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		h.l.Warnf(ctx, "webhook: failed to read body: %v", err)
		c.String(http.StatusBadRequest, "invalid json")
		return
	}

	updates, err := parseUpdates(body)
	if err != nil {
		h.l.Warnf(ctx, "webhook: %v", err)
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	for _, upd := range updates {
		h.ingest.Submit(inst, upd)
	}

	c.String(http.StatusOK, "ok")
}

// parseUpdates accepts a single update (update_type and message present) or an
// envelope whose "updates" list is filtered down to objects.
func parseUpdates(body []byte) ([]model.Update, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, ErrInvalidJSON
	}
	if dec.More() {
		return nil, ErrInvalidJSON
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}

	_, hasType := obj["update_type"]
	_, hasMessage := obj["message"]
	if hasType && hasMessage {
		return []model.Update{obj}, nil
	}

	list, _ := obj["updates"].([]any)
	updates := make([]model.Update, 0, len(list))
	for _, item := range list {
		if u, ok := item.(map[string]any); ok {
			updates = append(updates, u)
		}
	}
	return updates, nil
}
