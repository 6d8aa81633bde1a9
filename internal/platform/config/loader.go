package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	platformerrors "sketchwall-server-go/internal/platform/errors"
)

// Loader reads configuration from an optional YAML file layered over the
// built-in defaults, with a handful of environment overrides on top.
type Loader struct {
	useDotEnv bool
	paths     []string
}

// NewLoader creates a loader that probes the conventional config locations.
func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		paths:     []string{".config.yaml", "config.yaml", "data/config.yaml"},
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPaths overrides the probed file locations (useful for tests).
func (l *Loader) WithPaths(paths ...string) *Loader {
	if len(paths) > 0 {
		l.paths = paths
	}
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load resolves the effective configuration.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			fmt.Println("no .env file found, using process environment")
		}
	}

	cfg := DefaultConfig()
	path := ""

	for _, candidate := range l.paths {
		data, err := os.ReadFile(candidate)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, platformerrors.Wrap(platformerrors.KindConfig, "load",
				"read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindConfig, "load",
				fmt.Sprintf("parse %s", candidate), err)
		}
		path = candidate
		break
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: path}, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SKETCHWALL_WS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Transport.WebSocket.Port = port
		}
	}
	if v := os.Getenv("SKETCHWALL_WEB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Web.Port = port
		}
	}
	if v := os.Getenv("SKETCHWALL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Classifier.OpenAI.APIKey == "" {
		cfg.Classifier.OpenAI.APIKey = v
	}
}

func validate(cfg *Config) error {
	if cfg.Transport.WebSocket.Port <= 0 || cfg.Transport.WebSocket.Port > 65535 {
		return platformerrors.New(platformerrors.KindConfig, "validate",
			fmt.Sprintf("invalid websocket port %d", cfg.Transport.WebSocket.Port))
	}
	if cfg.Moderation.DelegateTimeoutMs <= 0 {
		return platformerrors.New(platformerrors.KindConfig, "validate",
			"delegate_timeout_ms must be positive")
	}
	if cfg.Moderation.AutoRemoveDelayMs <= 0 {
		return platformerrors.New(platformerrors.KindConfig, "validate",
			"auto_remove_delay_ms must be positive")
	}
	return nil
}
