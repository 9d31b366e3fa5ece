package config

import (
	"fmt"
	"log/slog"

	"gptcli/internal/llm"

	"github.com/spf13/viper"
)

type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Proxy   ProxyConfig   `mapstructure:"proxy"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type LLMConfig struct {
	URL                string `mapstructure:"url"`
	Model              string `mapstructure:"model"`
	Token              string `mapstructure:"token"`
	ImageModel         string `mapstructure:"image_model"`
	TranscriptionModel string `mapstructure:"transcription_model"`
}

type ProxyConfig struct {
	// URL is a proxy URL, "env" for the HTTP_PROXY family, or empty.
	URL string `mapstructure:"url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// SetDefaults registers every key so that AutomaticEnv can resolve it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("llm.url", llm.DefaultBaseURL)
	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("llm.token", "")
	v.SetDefault("llm.image_model", "dall-e-2")
	v.SetDefault("llm.transcription_model", "whisper-1")
	v.SetDefault("proxy.url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.textfile", "")
}

func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log.format: %s", c.Log.Format)
	}
	if _, err := llm.ParseProxy(c.Proxy.URL); err != nil {
		return fmt.Errorf("invalid proxy.url: %w", err)
	}
	return nil
}

func (c LogConfig) SlogLevel() slog.Level {
	level, err := parseLevel(c.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(value string) (slog.Level, error) {
	if value == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log.level: %s", value)
	}
	return level, nil
}
