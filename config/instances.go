package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/viper"

	"max-notify/internal/model"
)

//go:embed instances.schema.json
var instancesSchema []byte

const instancesSchemaURL = "mem://max-notify/instances.schema.json"

var (
	ErrInvalidInstances = errors.New("invalid instances config")
	ErrDuplicateID      = errors.New("duplicate instance id")
)

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

type instanceDef struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	AccessToken   string            `json:"access_token"`
	ReceiveMode   string            `json:"receive_mode"`
	WebhookSecret string            `json:"webhook_secret"`
	Buttons       [][]model.Button  `json:"buttons"`
	Commands      []json.RawMessage `json:"commands"`
}

// LoadInstances reads the "instances" list from the current viper state.
func LoadInstances() ([]model.Instance, error) {
	return ParseInstances(viper.Get("instances"))
}

// ParseInstances converts a decoded config value (a list of mappings) into
// instances. The value is validated against the embedded schema first.
func ParseInstances(raw any) ([]model.Instance, error) {
	if raw == nil {
		return nil, nil
	}

	doc, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInstances, err)
	}
	if err := ValidateInstances(doc); err != nil {
		return nil, err
	}

	var defs []instanceDef
	if err := json.Unmarshal(doc, &defs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInstances, err)
	}

	seen := make(map[string]struct{}, len(defs))
	instances := make([]model.Instance, 0, len(defs))
	for _, def := range defs {
		if _, ok := seen[def.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, def.ID)
		}
		seen[def.ID] = struct{}{}

		inst, err := def.toInstance()
		if err != nil {
			return nil, fmt.Errorf("instance %s: %w", def.ID, err)
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// ValidateInstances checks a JSON document against the instances schema.
func ValidateInstances(doc []byte) error {
	sch, err := instanceSchema()
	if err != nil {
		return fmt.Errorf("compile instances schema: %w", err)
	}

	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstances, err)
	}
	if err := sch.Validate(value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstances, err)
	}
	return nil
}

// Watch reloads instances whenever the config file changes.
// Returns false when no config file is in use.
func Watch(onChange func([]model.Instance, error)) bool {
	if viper.ConfigFileUsed() == "" {
		return false
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(LoadInstances())
	})
	viper.WatchConfig()
	return true
}

func instanceSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(instancesSchema))
		if err != nil {
			schemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(instancesSchemaURL, doc); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(instancesSchemaURL)
	})
	return schema, schemaErr
}

func (d instanceDef) toInstance() (model.Instance, error) {
	mode := model.ReceiveMode(d.ReceiveMode)
	if mode == "" {
		mode = model.ReceiveModeSendOnly
	}

	commands := make([]model.Command, 0, len(d.Commands))
	for _, raw := range d.Commands {
		cmd, err := parseCommand(raw)
		if err != nil {
			return model.Instance{}, err
		}
		if cmd.Name != "" {
			commands = append(commands, cmd)
		}
	}

	title := d.Title
	if title == "" {
		title = d.ID
	}

	return model.Instance{
		ID:            d.ID,
		Title:         title,
		AccessToken:   expandEnvVar(d.AccessToken),
		ReceiveMode:   mode,
		WebhookSecret: expandEnvVar(d.WebhookSecret),
		Buttons:       d.Buttons,
		Commands:      commands,
	}, nil
}

// parseCommand accepts "name", "/name" or {"name": ..., "description": ...}.
// Names are lowercased with slashes removed; description defaults to the name.
func parseCommand(raw json.RawMessage) (model.Command, error) {
	var cmd model.Command
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		cmd.Name = name
	} else if err := json.Unmarshal(raw, &cmd); err != nil {
		return model.Command{}, fmt.Errorf("parse command %s: %w", raw, err)
	}
	cmd.Name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(cmd.Name)), "/", "")
	cmd.Description = strings.TrimSpace(cmd.Description)
	if cmd.Description == "" {
		cmd.Description = cmd.Name
	}
	return cmd, nil
}
