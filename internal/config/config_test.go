package config

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.URL != "https://api.openai.com" {
		t.Fatalf("unexpected url: %s", cfg.LLM.URL)
	}
	if cfg.LLM.TranscriptionModel != "whisper-1" {
		t.Fatalf("unexpected transcription model: %s", cfg.LLM.TranscriptionModel)
	}
	if cfg.Log.SlogLevel() != slog.LevelInfo {
		t.Fatalf("unexpected log level: %v", cfg.Log.SlogLevel())
	}
}

func TestLoadFromConfigFile(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	yaml := `
llm:
  url: https://gateway.local/v1
  token: secret
  model: gpt-4o-mini
proxy:
  url: socks5://127.0.0.1:1080
log:
  level: debug
  format: json
`
	if err := v.ReadConfig(strings.NewReader(yaml)); err != nil {
		t.Fatalf("read config: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.Token != "secret" || cfg.LLM.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected llm config: %+v", cfg.LLM)
	}
	if cfg.LLM.ImageModel != "dall-e-2" {
		t.Fatalf("default image model not applied: %s", cfg.LLM.ImageModel)
	}
	if cfg.Proxy.URL != "socks5://127.0.0.1:1080" {
		t.Fatalf("unexpected proxy: %s", cfg.Proxy.URL)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug || cfg.Log.Format != "json" {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("GPTCLI_LLM_TOKEN", "from-env")
	v := viper.New()
	v.SetEnvPrefix("GPTCLI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.Token != "from-env" {
		t.Fatalf("unexpected token: %q", cfg.LLM.Token)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "empty", cfg: Config{}},
		{name: "warn level", cfg: Config{Log: LogConfig{Level: "warn"}}},
		{name: "bad level", cfg: Config{Log: LogConfig{Level: "loud"}}, wantErr: true},
		{name: "bad format", cfg: Config{Log: LogConfig{Format: "xml"}}, wantErr: true},
		{name: "env proxy", cfg: Config{Proxy: ProxyConfig{URL: "env"}}},
		{name: "bad proxy", cfg: Config{Proxy: ProxyConfig{URL: "ftp://proxy"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
