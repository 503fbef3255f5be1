package maxbot

import (
	"bytes"
	"encoding/json"
)

// GetUpdatesParams are the query parameters for GET /updates.
type GetUpdatesParams struct {
	Timeout int      // server-side long-poll wait, seconds
	Limit   int      // max updates per batch
	Types   []string // update types to receive
	Marker  string   // cursor from the previous call; empty means none
}

// UpdateList is the GET /updates response.
type UpdateList struct {
	Updates []json.RawMessage `json:"updates"`
	Marker  json.RawMessage   `json:"marker"`
}

// Objects decodes every update that is a JSON object. Other entries are skipped.
// Numbers are kept as json.Number.
func (l UpdateList) Objects() []map[string]any {
	out := make([]map[string]any, 0, len(l.Updates))
	for _, raw := range l.Updates {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil || obj == nil {
			continue
		}
		out = append(out, obj)
	}
	return out
}

// NextMarker returns the cursor to echo back on the next call.
// ok is false when the response carried no marker.
func (l UpdateList) NextMarker() (string, bool) {
	raw := bytes.TrimSpace(l.Marker)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}

// SubscriptionRequest is the body for POST /subscriptions.
type SubscriptionRequest struct {
	URL         string   `json:"url"`
	UpdateTypes []string `json:"update_types"`
	Secret      string   `json:"secret,omitempty"`
}

// SimpleResult is the generic {success, message} response.
type SimpleResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// BotInfo is the GET /me response.
type BotInfo struct {
	UserID   int64  `json:"user_id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	IsBot    bool   `json:"is_bot"`
}
