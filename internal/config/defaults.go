package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			DefaultProvider: "openai",
		},
		Server: ServerConfig{
			Host:                "127.0.0.1",
			Port:                8787,
			AllowedOrigins:      []string{"*"},
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 120,
			MaxBodyBytes:        1 << 20,
		},
		Providers: map[string]ProviderConfig{
			"openai": {
				Enabled:        true,
				Kind:           KindOpenAI,
				APIKeyEnv:      "OPENAI_API_KEY",
				DefaultModel:   "gpt-4o-mini",
				TimeoutSeconds: 60,
			},
			"gemini": {
				Enabled:        false,
				Kind:           KindGemini,
				APIKeyEnv:      "GEMINI_API_KEY",
				DefaultModel:   "gemini-2.0-flash",
				TimeoutSeconds: 60,
			},
			"ollama": {
				Enabled:        false,
				Kind:           KindCompat,
				APIBase:        "http://localhost:11434/v1",
				DefaultModel:   "llama3.1:8b",
				TimeoutSeconds: 120,
			},
		},
		Agents: AgentsConfig{
			OrgBrainMessageLimit:  50,
			OrgBrainDocumentLimit: 0,
			ReplyMessageLimit:     20,
			ReplyDocumentLimit:    5,
			MaxRetries:            0,
			ToneDebounceMillis:    500,
		},
		Store: StoreConfig{
			DBPath: "~/.huddle/huddle.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Endpoint: "/metrics",
		},
	}
}
