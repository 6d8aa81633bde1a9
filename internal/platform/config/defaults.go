package config

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{
			WebSocket: WebSocketConfig{
				IP:   "0.0.0.0",
				Port: 8000,
				Path: "/ws",
			},
		},
		Web: WebConfig{
			Enabled: true,
			IP:      "0.0.0.0",
			Port:    8080,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Moderation: ModerationConfig{
			DelegateTimeoutMs: 8000,
			AutoRemoveDelayMs: 5000,
			ThumbnailMaxDim:   160,
		},
		Classifier: ClassifierConfig{
			Recognizer: "none",
			BlockedWords: []string{
				"butt",
			},
			OpenAI: OpenAIConfig{
				ModelName:   "gpt-4o-mini",
				Prompt:      "Transcribe any text visible in this image. Reply with the text only, or an empty reply if there is none.",
				MaxTokens:   256,
				Temperature: 0,
			},
		},
		Audit: AuditConfig{
			Enabled: true,
			DBPath:  "data/sketchwall.db",
		},
	}
}
