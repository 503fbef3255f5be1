package model

import (
	"encoding/json"
	"strconv"
)

// EventReceived is the fixed bus event name for every inbound update.
const EventReceived = "max_notify_received"

// Update types the service subscribes to.
const (
	UpdateMessageCreated  = "message_created"
	UpdateMessageCallback = "message_callback"
)

// ReceivableUpdateTypes is sent on every poll and subscription call.
var ReceivableUpdateTypes = []string{UpdateMessageCreated, UpdateMessageCallback}

// Update is one raw update object as delivered by the Max API.
// Numbers are decoded as json.Number so ids survive unchanged.
type Update map[string]any

// Event is the flat payload fired on the bus for automation consumers.
// Nil fields are omitted from the JSON form; an empty Args is kept.
type Event struct {
	ConfigEntryID string  `json:"config_entry_id"`
	UpdateType    string  `json:"update_type"`
	Timestamp     any     `json:"timestamp,omitempty"`
	UserID        any     `json:"user_id,omitempty"`
	ChatID        any     `json:"chat_id,omitempty"`
	Text          *string `json:"text,omitempty"`
	Command       *string `json:"command,omitempty"`
	Args          *string `json:"args,omitempty"`
	CallbackData  *string `json:"callback_data,omitempty"`
	MessageID     any     `json:"message_id,omitempty"`
	EventID       string  `json:"event_id"`
}

// ChatIDInt returns the chat id as int64. Negative ids are group chats.
func (e Event) ChatIDInt() (int64, bool) {
	return asInt64(e.ChatID)
}

// IsGroupChat reports whether the event came from a group chat.
func (e Event) IsGroupChat() bool {
	id, ok := e.ChatIDInt()
	return ok && id < 0
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), float64(int64(n)) == n
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}
