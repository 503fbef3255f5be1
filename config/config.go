package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"max-notify/internal/model"
)

// Config holds all service configuration.
type Config struct {
	// Environment
	Environment EnvironmentConfig

	// Server
	HTTPServer HTTPServerConfig
	Logger     LoggerConfig

	// Max API and ingestion
	Max     MaxConfig
	Polling PollingConfig
	Dedup   DedupConfig
	Workers WorkersConfig
	Webhook WebhookConfig

	// Event sinks
	Events EventsConfig

	// Config entries
	Instances []model.Instance
}

type EnvironmentConfig struct {
	Name string
}

type HTTPServerConfig struct {
	Port           int
	Mode           string
	TrustedProxies []string // peers allowed to set X-Forwarded-For
}

type LoggerConfig struct {
	Level        string
	Mode         string
	Encoding     string
	ColorEnabled bool
}

type MaxConfig struct {
	APIURL     string
	APIVersion string
}

type PollingConfig struct {
	Timeout    int // seconds, sent to the server
	Limit      int
	RetryDelay time.Duration
	EmptyDelay time.Duration
}

type DedupConfig struct {
	CallbackWindow time.Duration
	DefaultWindow  time.Duration
}

type WorkersConfig struct {
	Count      int
	JobTimeout time.Duration
}

type WebhookConfig struct {
	PathPrefix      string
	PublicURL       string
	NgrokAPI        string // local ngrok agent API, used when PublicURL is empty
	AllowedIPs      []string
	RateLimitPerMin int
	ReloadCooldown  time.Duration
}

type EventsConfig struct {
	APIToken string // bearer token for the events and stream routes
	Stream   StreamConfig
	MQTT     MQTTConfig
	NATS     NATSConfig
	Journal  JournalConfig
}

type StreamConfig struct {
	Enabled        bool
	Buffer         int
	OriginPatterns []string
}

type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         int
	Retain      bool
}

type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

type JournalConfig struct {
	Driver string // "postgres", "sqlite" or empty to disable
	DSN    string
}

// Load loads configuration using Viper.
// Config file name: config.yaml, searched in ./config, . and /etc/app/
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/app/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	// Environment & Server
	cfg.Environment.Name = viper.GetString("environment.name")
	cfg.HTTPServer.Port = viper.GetInt("http_server.port")
	cfg.HTTPServer.Mode = viper.GetString("http_server.mode")
	cfg.HTTPServer.TrustedProxies = splitList(viper.GetString("http_server.trusted_proxies"))
	if len(cfg.HTTPServer.TrustedProxies) == 0 {
		cfg.HTTPServer.TrustedProxies = viper.GetStringSlice("http_server.trusted_proxies")
	}
	cfg.Logger.Level = viper.GetString("logger.level")
	cfg.Logger.Mode = viper.GetString("logger.mode")
	cfg.Logger.Encoding = viper.GetString("logger.encoding")
	cfg.Logger.ColorEnabled = viper.GetBool("logger.color_enabled")

	// Max API
	cfg.Max.APIURL = viper.GetString("max.api_url")
	cfg.Max.APIVersion = viper.GetString("max.api_version")

	// Ingestion
	cfg.Polling.Timeout = viper.GetInt("polling.timeout")
	cfg.Polling.Limit = viper.GetInt("polling.limit")
	cfg.Polling.RetryDelay = viper.GetDuration("polling.retry_delay")
	cfg.Polling.EmptyDelay = viper.GetDuration("polling.empty_delay")
	cfg.Dedup.CallbackWindow = viper.GetDuration("dedup.callback_window")
	cfg.Dedup.DefaultWindow = viper.GetDuration("dedup.default_window")
	cfg.Workers.Count = viper.GetInt("workers.count")
	cfg.Workers.JobTimeout = viper.GetDuration("workers.job_timeout")

	// Webhooks
	cfg.Webhook.PathPrefix = viper.GetString("webhook.path_prefix")
	cfg.Webhook.PublicURL = viper.GetString("webhook.public_url")
	cfg.Webhook.NgrokAPI = viper.GetString("webhook.ngrok_api")
	cfg.Webhook.RateLimitPerMin = viper.GetInt("webhook.rate_limit_per_min")
	cfg.Webhook.ReloadCooldown = viper.GetDuration("webhook.reload_cooldown")
	cfg.Webhook.AllowedIPs = splitList(viper.GetString("webhook.allowed_ips"))
	if len(cfg.Webhook.AllowedIPs) == 0 {
		cfg.Webhook.AllowedIPs = viper.GetStringSlice("webhook.allowed_ips")
	}

	// Event sinks
	cfg.Events.APIToken = expandEnvVar(viper.GetString("events.api_token"))
	cfg.Events.Stream.Enabled = viper.GetBool("events.stream.enabled")
	cfg.Events.Stream.Buffer = viper.GetInt("events.stream.buffer")
	cfg.Events.Stream.OriginPatterns = viper.GetStringSlice("events.stream.origin_patterns")
	cfg.Events.MQTT.Broker = viper.GetString("events.mqtt.broker")
	cfg.Events.MQTT.ClientID = viper.GetString("events.mqtt.client_id")
	cfg.Events.MQTT.Username = viper.GetString("events.mqtt.username")
	cfg.Events.MQTT.Password = expandEnvVar(viper.GetString("events.mqtt.password"))
	cfg.Events.MQTT.TopicPrefix = viper.GetString("events.mqtt.topic_prefix")
	cfg.Events.MQTT.QoS = viper.GetInt("events.mqtt.qos")
	cfg.Events.MQTT.Retain = viper.GetBool("events.mqtt.retain")
	cfg.Events.NATS.URL = viper.GetString("events.nats.url")
	cfg.Events.NATS.SubjectPrefix = viper.GetString("events.nats.subject_prefix")
	cfg.Events.Journal.Driver = viper.GetString("events.journal.driver")
	cfg.Events.Journal.DSN = expandEnvVar(viper.GetString("events.journal.dsn"))

	if err := validate(cfg); err != nil {
		return nil, err
	}

	// Config entries
	instances, err := LoadInstances()
	if err != nil {
		return nil, err
	}
	cfg.Instances = instances

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("environment.name", "development")
	viper.SetDefault("http_server.port", 8080)
	viper.SetDefault("http_server.mode", "debug")
	viper.SetDefault("logger.level", "debug")
	viper.SetDefault("logger.mode", "debug")
	viper.SetDefault("logger.encoding", "console")
	viper.SetDefault("logger.color_enabled", true)

	viper.SetDefault("max.api_url", "https://platform-api.max.ru")
	viper.SetDefault("max.api_version", "1.2.5")

	viper.SetDefault("polling.timeout", 25)
	viper.SetDefault("polling.limit", 100)
	viper.SetDefault("polling.retry_delay", "5s")
	viper.SetDefault("polling.empty_delay", "500ms")
	viper.SetDefault("dedup.callback_window", "3s")
	viper.SetDefault("dedup.default_window", "15s")
	viper.SetDefault("workers.count", 4)
	viper.SetDefault("workers.job_timeout", "30s")

	viper.SetDefault("webhook.path_prefix", "/api/max_notify")
	viper.SetDefault("webhook.rate_limit_per_min", 0)
	viper.SetDefault("webhook.reload_cooldown", "500ms")

	viper.SetDefault("events.stream.enabled", false)
	viper.SetDefault("events.stream.buffer", 64)
	viper.SetDefault("events.mqtt.topic_prefix", "max_notify")
	viper.SetDefault("events.nats.subject_prefix", "max_notify")
}

func validate(cfg *Config) error {
	if cfg.Polling.Limit < 1 || cfg.Polling.Limit > 1000 {
		return fmt.Errorf("polling.limit must be between 1 and 1000, got %d", cfg.Polling.Limit)
	}
	if cfg.Polling.Timeout < 1 || cfg.Polling.Timeout > 90 {
		return fmt.Errorf("polling.timeout must be between 1 and 90 seconds, got %d", cfg.Polling.Timeout)
	}
	if cfg.Webhook.PublicURL != "" && !strings.HasPrefix(cfg.Webhook.PublicURL, "https://") {
		return fmt.Errorf("webhook.public_url must start with https://")
	}
	switch cfg.Events.Journal.Driver {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("events.journal.driver must be postgres or sqlite, got %q", cfg.Events.Journal.Driver)
	}
	if cfg.Events.MQTT.QoS < 0 || cfg.Events.MQTT.QoS > 2 {
		return fmt.Errorf("events.mqtt.qos must be 0, 1 or 2")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// expandEnvVar expands environment variables in the format ${VAR_NAME}
func expandEnvVar(value string) string {
	if value == "" {
		return value
	}

	// Check if value is in format ${VAR_NAME}
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVar := value[2 : len(value)-1]
		// Try viper first (handles both env and config)
		if envValue := viper.GetString(envVar); envValue != "" {
			return envValue
		}
		// Try lowercase version
		if envValue := viper.GetString(strings.ToLower(envVar)); envValue != "" {
			return envValue
		}
		// Try direct os.Getenv as last resort
		if envValue := os.Getenv(envVar); envValue != "" {
			return envValue
		}
	}

	return value
}
