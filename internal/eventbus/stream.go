package eventbus

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	pkgLog "max-notify/pkg/log"
)

const streamWriteTimeout = 5 * time.Second

// StreamHandler serves the live event feed over a websocket.
type StreamHandler struct {
	bus            *Local
	buffer         int
	originPatterns []string
	l              pkgLog.Logger
}

func NewStreamHandler(bus *Local, buffer int, originPatterns []string, l pkgLog.Logger) *StreamHandler {
	return &StreamHandler{bus: bus, buffer: buffer, originPatterns: originPatterns, l: l}
}

// ServeHTTP streams events as JSON text frames until the client goes away.
// It must be mounted on a plain net/http mux: the upgrade hijacks the raw
// connection, which gin's response writer refuses once headers are flushed.
// @Summary Live event stream
// @Description Websocket feed of max_notify_received events, optionally filtered by config entry
// @Tags Events
// @Param config_entry_id query string false "Config entry id"
// @Param Authorization header string true "Bearer <events.api_token>"
// @Failure 401 {object} response.Resp "Missing or invalid token"
// @Success 101 {string} string "Switching Protocols"
// @Router /api/max_notify/events/stream [get]
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	entryID := r.URL.Query().Get("config_entry_id")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.l.Warnf(r.Context(), "eventbus: websocket accept failed: %v", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	// Inbound frames are ignored; CloseRead cancels ctx when the peer disconnects.
	ctx := conn.CloseRead(r.Context())

	msgs, cancel := h.bus.Subscribe(h.buffer, ForEntry(entryID))
	defer cancel()

	h.l.Infof(ctx, "eventbus: stream client connected (entry=%q)", entryID)
	for {
		select {
		case <-ctx.Done():
			h.l.Infof(context.Background(), "eventbus: stream client disconnected (entry=%q)", entryID)
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if err := h.write(ctx, conn, msg); err != nil {
				h.l.Warnf(ctx, "eventbus: stream write failed: %v", err)
				return
			}
		}
	}
}

func (h *StreamHandler) write(ctx context.Context, conn *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, data)
}
