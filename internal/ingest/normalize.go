package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"max-notify/internal/model"
)

// callbackPayloadFields are probed, in order, on the callback object and on callback.button.
var callbackPayloadFields = []string{"payload", "data", "callback_data", "value", "button_payload", "query"}

// payloadExtractor returns the raw button payload, or nil when it has nothing.
type payloadExtractor func(upd model.Update) any

// callbackExtractors is the ordered lookup chain for message_callback payloads.
// The first non-nil result wins.
var callbackExtractors = []payloadExtractor{
	func(upd model.Update) any {
		return firstTruthy(asMap(upd["callback"]), callbackPayloadFields...)
	},
	func(upd model.Update) any {
		return firstTruthy(asMap(asMap(upd["callback"])["button"]), callbackPayloadFields...)
	},
	func(upd model.Update) any {
		if s, ok := upd["callback"].(string); ok {
			return s
		}
		return nil
	},
	func(upd model.Update) any {
		return firstTruthy(upd, "payload", "callback_data", "data")
	},
	func(upd model.Update) any {
		return firstTruthy(asMap(asMap(upd["message"])["body"]), "payload", "callback_data")
	},
	func(upd model.Update) any {
		return firstTruthy(asMap(upd["message"]), "payload", "callback_data")
	},
}

// Normalize flattens a raw update into the event fired on the bus.
func Normalize(inst model.Instance, upd model.Update) model.Event {
	return normalize(inst, upd, DedupKey(upd))
}

func normalize(inst model.Instance, upd model.Update, key string) model.Event {
	updateType := updateTypeOf(upd)
	message := asMap(upd["message"])

	ev := model.Event{
		ConfigEntryID: inst.ID,
		UpdateType:    updateType,
		Timestamp:     upd["timestamp"],
		UserID:        extractUserID(upd, message, updateType),
		ChatID:        extractChatID(message),
		MessageID:     message["message_id"],
		EventID:       key,
	}

	if text, ok := asMap(message["body"])["text"].(string); ok {
		text = strings.TrimSpace(text)
		ev.Text = &text
		if strings.HasPrefix(text, "/") {
			command, args := splitCommand(text[1:])
			ev.Command = &command
			ev.Args = &args
		}
	}

	if updateType == model.UpdateMessageCallback {
		ev.CallbackData = callbackPayload(upd)
	}
	return ev
}

// DedupKey returns the identity used to collapse redeliveries of one logical update.
func DedupKey(upd model.Update) string {
	id := upd["update_id"]
	if !truthy(id) {
		id = upd["id"]
	}
	if id != nil {
		return scalarString(id)
	}

	updateType := updateTypeOf(upd)
	message := asMap(upd["message"])

	if updateType == model.UpdateMessageCallback {
		// Redeliveries of one press differ in message id and timestamp, so neither is part of the key.
		payload := ""
		if p := callbackPayload(upd); p != nil {
			payload = *p
		}
		return fmt.Sprintf("%s_%s_%s_%s",
			updateType,
			scalarString(extractChatID(message)),
			scalarString(extractUserID(upd, message, updateType)),
			payload,
		)
	}

	return fmt.Sprintf("%s_%s_%s", updateType, scalarString(upd["timestamp"]), scalarString(message["message_id"]))
}

func updateTypeOf(upd model.Update) string {
	s, _ := upd["update_type"].(string)
	return s
}

var userIDFields = []string{"user_id", "userId"}

func extractUserID(upd model.Update, message map[string]any, updateType string) any {
	if updateType != model.UpdateMessageCallback {
		return firstTruthy(asMap(message["sender"]), userIDFields...)
	}

	if cb := asMap(upd["callback"]); cb != nil {
		if uid := firstTruthy(cb, userIDFields...); uid != nil {
			return uid
		}
		for _, key := range []string{"from", "from_user", "user"} {
			if uid := firstTruthy(asMap(cb[key]), userIDFields...); uid != nil {
				return uid
			}
		}
	}
	if uid, ok := upd["user_id"]; ok && uid != nil {
		return uid
	}
	for _, key := range []string{"from_user", "from", "user"} {
		if uid := firstTruthy(asMap(upd[key]), userIDFields...); uid != nil {
			return uid
		}
	}
	return nil
}

func extractChatID(message map[string]any) any {
	recipient := asMap(message["recipient"])
	if chatID := recipient["chat_id"]; chatID != nil {
		return chatID
	}
	return recipient["user_id"]
}

// splitCommand splits the text after the slash into a lowercased command and its arguments.
func splitCommand(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if s == "" {
		return "", ""
	}
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return strings.ToLower(s), ""
	}
	return strings.ToLower(s[:i]), strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}

func callbackPayload(upd model.Update) *string {
	for _, extract := range callbackExtractors {
		if raw := extract(upd); raw != nil {
			return payloadString(raw, true)
		}
	}
	return nil
}

// payloadString renders a raw payload as text. A mapping holding "payload" is
// unwrapped once; other mappings and lists are JSON-encoded.
func payloadString(raw any, unwrap bool) *string {
	var s string
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		s = strings.TrimSpace(v)
	case map[string]any:
		if inner, ok := v["payload"]; ok && unwrap {
			if !truthy(inner) {
				return nil
			}
			return payloadString(inner, false)
		}
		s = jsonString(v)
	default:
		s = strings.TrimSpace(scalarString(v))
	}
	if s == "" {
		return nil
	}
	return &s
}

// scalarString renders ids and timestamps for keys. Nil renders as "".
func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case map[string]any, []any:
		return jsonString(x)
	}
	return fmt.Sprint(v)
}

func jsonString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case model.Update:
		return m
	}
	return nil
}

func firstTruthy(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v := m[k]; truthy(v) {
			return v
		}
	}
	return nil
}

// truthy treats nil, false, zero numbers and empty strings or containers as missing.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return x != ""
		}
		return f != 0
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case map[string]any:
		return len(x) > 0
	case []any:
		return len(x) > 0
	}
	return true
}
