package config

type Config struct {
	Transport  TransportConfig  `yaml:"transport"`
	Web        WebConfig        `yaml:"web"`
	Log        LogConfig        `yaml:"log"`
	Moderation ModerationConfig `yaml:"moderation"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Audit      AuditConfig      `yaml:"audit"`
}

type TransportConfig struct {
	WebSocket WebSocketConfig `yaml:"websocket"`
}

type WebSocketConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// WebConfig controls the gin-based operator API.
type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	IP      string `yaml:"ip"`
	Port    int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
	File  string `yaml:"file"`
}

// ModerationConfig tunes the drawing moderation pipeline.
type ModerationConfig struct {
	// DelegateTimeoutMs bounds how long a delegated shape check may take
	// before the pipeline falls back to an empty result.
	DelegateTimeoutMs int `yaml:"delegate_timeout_ms"`
	// AutoRemoveDelayMs is how long a flagged drawing stays on the wall
	// before it is removed automatically.
	AutoRemoveDelayMs int `yaml:"auto_remove_delay_ms"`
	// ThumbnailMaxDim caps the longest edge of console thumbnails.
	ThumbnailMaxDim int `yaml:"thumbnail_max_dim"`
}

type ClassifierConfig struct {
	// BlockedWords are matched case-insensitively against recognized text.
	BlockedWords []string `yaml:"blocked_words"`
	// Recognizer selects the text recognition backend: "none" or "openai".
	Recognizer string       `yaml:"recognizer"`
	OpenAI     OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig configures the vision-model recognizer backend.
type OpenAIConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	ModelName   string  `yaml:"model_name"`
	Prompt      string  `yaml:"prompt"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}
