package http

import (
	"github.com/gin-gonic/gin"

	"max-notify/pkg/response"
)

// List godoc
// @Summary     Recent events
// @Description Returns the most recent fired events from the journal, newest first.
// @Tags        Events
// @Produce     json
// @Param       Authorization   header string true "Bearer <events.api_token>"
// @Param       config_entry_id query string false "Filter by config entry"
// @Param       limit           query int    false "Max rows (default 50, max 500)"
// @Success     200 {object} listResp
// @Failure     400 {object} response.Resp "Bad Request"
// @Failure     401 {object} response.Resp "Missing or invalid token"
// @Failure     500 {object} response.Resp "Internal Server Error"
// @Failure     503 {object} response.Resp "Journal not configured"
// @Router      /api/max_notify/events [GET]
func (h *handler) List(c *gin.Context) {
	ctx := c.Request.Context()

	if h.repo == nil {
		response.Unavailable(c, "event journal not configured")
		return
	}

	req, err := h.processListReq(c)
	if err != nil {
		response.Error(c, err, nil)
		return
	}

	records, err := h.repo.Recent(ctx, req.toOptions())
	if err != nil {
		h.l.Errorf(ctx, "journal.Recent: %v", err)
		response.InternalError(c, err)
		return
	}

	response.OK(c, h.newListResp(records))
}
