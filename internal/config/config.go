// Package config loads server settings from an optional config.yaml, a .env
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	AI      AIConfig      `mapstructure:"ai"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Ollama  OllamaConfig  `mapstructure:"ollama"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	Game    GameConfig    `mapstructure:"game"`
	Export  ExportConfig  `mapstructure:"export"`
	Keyring KeyringConfig `mapstructure:"keyring"`
}

type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type AIConfig struct {
	Provider     string `mapstructure:"provider"`
	Model        string `mapstructure:"model"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Host string `mapstructure:"host"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type GameConfig struct {
	Players           int           `mapstructure:"players"`
	EvaluationTimeout time.Duration `mapstructure:"evaluation_timeout"`
}

type ExportConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	File       string `mapstructure:"file"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// KeyringConfig enables reading API keys from the OS keyring when the
// environment does not provide them. Secrets are stored under Service with the
// provider name ("openai", "gemini") as the user.
type KeyringConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Service string `mapstructure:"service"`
}

// keyringGet is swapped in tests.
var keyringGet = keyring.Get

// Load reads configuration. configPath is searched for config.yaml; a missing
// file is fine. A .env file in the working directory is loaded first without
// overriding variables already set.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Variable names from earlier releases.
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("ai.provider", "AI_PROVIDER", "DEFAULT_PROVIDER")
	_ = v.BindEnv("ai.model", "AI_MODEL", "DEFAULT_MODEL")
	_ = v.BindEnv("ai.system_prompt", "AI_SYSTEM_PROMPT", "SYSTEM_PROMPT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.resolveSecrets()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors_origins", []string{})

	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.model", "gpt-3.5-turbo")
	v.SetDefault("ai.system_prompt", "")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("ollama.host", "http://localhost:11434")
	v.SetDefault("gemini.api_key", "")

	v.SetDefault("game.players", 3)
	v.SetDefault("game.evaluation_timeout", "60s")

	v.SetDefault("export.enabled", true)
	v.SetDefault("export.file", "./officegame-results.txt")
	v.SetDefault("export.sqlite_path", "")

	v.SetDefault("keyring.enabled", false)
	v.SetDefault("keyring.service", "officegame")
}

func (c *Config) validate() error {
	if c.Game.Players < 2 || c.Game.Players > 6 {
		return fmt.Errorf("game.players must be between 2 and 6, got %d", c.Game.Players)
	}
	if c.Game.EvaluationTimeout < 0 {
		return fmt.Errorf("game.evaluation_timeout must not be negative")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server.port must be set")
	}
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	return nil
}

func (c *Config) resolveSecrets() {
	if !c.Keyring.Enabled {
		return
	}
	fill := func(dst *string, user string) {
		if *dst != "" {
			return
		}
		secret, err := keyringGet(c.Keyring.Service, user)
		if err != nil {
			if !errors.Is(err, keyring.ErrNotFound) {
				log.Warn().Err(err).Str("service", c.Keyring.Service).Str("user", user).Msg("keyring lookup failed")
			}
			return
		}
		*dst = secret
	}
	fill(&c.OpenAI.APIKey, "openai")
	fill(&c.Gemini.APIKey, "gemini")
}
