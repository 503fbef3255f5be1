package model

import "strings"

// ReceiveMode selects how an instance gets inbound updates.
type ReceiveMode string

const (
	ReceiveModeSendOnly ReceiveMode = "send_only"
	ReceiveModePolling  ReceiveMode = "polling"
	ReceiveModeWebhook  ReceiveMode = "webhook"
)

// Button is one inline keyboard button.
type Button struct {
	Type    string `json:"type" mapstructure:"type"`
	Text    string `json:"text" mapstructure:"text"`
	Payload string `json:"payload,omitempty" mapstructure:"payload"`
}

// Command is one entry of the legacy command allowlist.
type Command struct {
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description,omitempty" mapstructure:"description"`
}

// Instance is one configured connection to the Max API (a config entry).
// The ingestion pipeline only reads it.
type Instance struct {
	ID            string
	Title         string
	AccessToken   string
	ReceiveMode   ReceiveMode
	WebhookSecret string
	Buttons       [][]Button
	Commands      []Command
}

// HasButtons reports whether any inline keyboard button is configured.
func (i Instance) HasButtons() bool {
	for _, row := range i.Buttons {
		if len(row) > 0 {
			return true
		}
	}
	return false
}

// AllowedCommands returns the lowercased, non-empty allowlist names.
func (i Instance) AllowedCommands() []string {
	allowed := make([]string, 0, len(i.Commands))
	for _, c := range i.Commands {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name != "" {
			allowed = append(allowed, name)
		}
	}
	return allowed
}

// Equal compares every field that affects receiving.
func (i Instance) Equal(o Instance) bool {
	if i.ID != o.ID || i.Title != o.Title || i.AccessToken != o.AccessToken ||
		i.ReceiveMode != o.ReceiveMode || i.WebhookSecret != o.WebhookSecret {
		return false
	}
	if len(i.Buttons) != len(o.Buttons) || len(i.Commands) != len(o.Commands) {
		return false
	}
	for r := range i.Buttons {
		if len(i.Buttons[r]) != len(o.Buttons[r]) {
			return false
		}
		for c := range i.Buttons[r] {
			if i.Buttons[r][c] != o.Buttons[r][c] {
				return false
			}
		}
	}
	for c := range i.Commands {
		if i.Commands[c] != o.Commands[c] {
			return false
		}
	}
	return true
}
