package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Config is the root configuration for Huddle.
type Config struct {
	General   GeneralConfig             `json:"general"`
	Server    ServerConfig              `json:"server"`
	Providers map[string]ProviderConfig `json:"providers"`
	Agents    AgentsConfig              `json:"agents"`
	Store     StoreConfig               `json:"store"`
	Logging   LoggingConfig             `json:"logging"`
	Metrics   MetricsConfig             `json:"metrics"`
}

type GeneralConfig struct {
	DefaultProvider string   `json:"defaultProvider"`
	FailoverChain   []string `json:"failoverChain,omitempty"` // provider failover order
}

type ServerConfig struct {
	Host                string   `json:"host"`
	Port                int      `json:"port"`
	AllowedOrigins      []string `json:"allowedOrigins"`
	ReadTimeoutSeconds  int      `json:"readTimeoutSeconds"`
	WriteTimeoutSeconds int      `json:"writeTimeoutSeconds"`
	MaxBodyBytes        int64    `json:"maxBodyBytes"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Provider kinds.
const (
	KindOpenAI = "openai"
	KindGemini = "gemini"
	KindCompat = "compat" // any OpenAI-compatible chat completions endpoint
)

type ProviderConfig struct {
	Enabled         bool   `json:"enabled"`
	Kind            string `json:"kind"`
	APIBase         string `json:"apiBase,omitempty"`
	APIKey          string `json:"apiKey,omitempty"`
	APIKeyEnv       string `json:"apiKeyEnv,omitempty"`
	DefaultModel    string `json:"defaultModel,omitempty"`
	TimeoutSeconds  int    `json:"timeoutSeconds,omitempty"`
	RateLimitPerMin int    `json:"rateLimitPerMinute,omitempty"`
}

// Credential returns the configured key, falling back to the APIKeyEnv variable.
// An empty result is not an error here; requests fail with a configuration error instead.
func (p ProviderConfig) Credential() string {
	if p.APIKey != "" {
		return p.APIKey
	}
	if p.APIKeyEnv != "" {
		return os.Getenv(p.APIKeyEnv)
	}
	return ""
}

func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// AgentsConfig holds the per-agent context caps. A limit of 0 means unbounded.
type AgentsConfig struct {
	OrgBrainMessageLimit  int `json:"orgBrainMessageLimit"`
	OrgBrainDocumentLimit int `json:"orgBrainDocumentLimit"`
	ReplyMessageLimit     int `json:"replyMessageLimit"`
	ReplyDocumentLimit    int `json:"replyDocumentLimit"`
	MaxRetries            int `json:"maxRetries"`
	ToneDebounceMillis    int `json:"toneDebounceMillis"`
}

func (a AgentsConfig) ToneDebounce() time.Duration {
	return time.Duration(a.ToneDebounceMillis) * time.Millisecond
}

type StoreConfig struct {
	DBPath string `json:"dbPath"`
}

type LoggingConfig struct {
	Level     string `json:"level"`  // debug | info | warn | error
	Format    string `json:"format"` // text | json
	AddSource bool   `json:"addSource,omitempty"`
	File      string `json:"file,omitempty"`
}

// MetricsConfig configures the Prometheus text endpoint.
type MetricsConfig struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint"`
}

// DefaultConfigDir returns the default config directory (~/.huddle).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".huddle"
	}
	return filepath.Join(home, ".huddle")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Store.DBPath = ExpandPath(cfg.Store.DBPath)
	cfg.Logging.File = ExpandPath(cfg.Logging.File)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when it exists and returns Defaults otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(ExpandPath(path)); os.IsNotExist(err) {
		cfg := Defaults()
		cfg.Store.DBPath = ExpandPath(cfg.Store.DBPath)
		return cfg, nil
	}
	return Load(path)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		hasDefault := len(groups) >= 3 && groups[2] != ""

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return groups[2]
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}
	if cfg.Server.MaxBodyBytes < 1 {
		errs = append(errs, "server.maxBodyBytes must be >= 1")
	}
	if cfg.Server.ReadTimeoutSeconds < 0 || cfg.Server.WriteTimeoutSeconds < 0 {
		errs = append(errs, "server timeouts must be >= 0")
	}

	a := cfg.Agents
	if a.OrgBrainMessageLimit < 0 || a.OrgBrainDocumentLimit < 0 ||
		a.ReplyMessageLimit < 0 || a.ReplyDocumentLimit < 0 {
		errs = append(errs, "agents limits must be >= 0 (0 means unbounded)")
	}
	if a.MaxRetries < 0 || a.MaxRetries > 5 {
		errs = append(errs, "agents.maxRetries must be between 0 and 5")
	}
	if a.ToneDebounceMillis < 50 || a.ToneDebounceMillis > 10000 {
		errs = append(errs, "agents.toneDebounceMillis must be between 50 and 10000")
	}

	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	switch cfg.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, "logging.format must be one of: text, json")
	}

	if cfg.General.DefaultProvider != "" {
		if _, ok := cfg.Providers[cfg.General.DefaultProvider]; !ok {
			errs = append(errs, fmt.Sprintf("general.defaultProvider references unknown provider: %s", cfg.General.DefaultProvider))
		}
	}
	// Validate failover chain references exist in providers.
	for _, provName := range cfg.General.FailoverChain {
		if _, ok := cfg.Providers[provName]; !ok {
			errs = append(errs, fmt.Sprintf("general.failoverChain references unknown provider: %s", provName))
		}
	}

	for name, pc := range cfg.Providers {
		switch pc.Kind {
		case KindOpenAI, KindGemini:
		case KindCompat:
			if pc.Enabled && pc.APIBase == "" {
				errs = append(errs, fmt.Sprintf("providers.%s: apiBase is required for compat providers", name))
			}
		default:
			errs = append(errs, fmt.Sprintf("providers.%s: unknown kind %q", name, pc.Kind))
		}
		if pc.TimeoutSeconds < 0 {
			errs = append(errs, fmt.Sprintf("providers.%s: timeoutSeconds must be >= 0", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
