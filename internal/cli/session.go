package cli

import (
	"io"
	"log/slog"

	"gptcli/internal/config"
	"gptcli/internal/llm"
	"gptcli/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// session holds what one command invocation needs to talk to the API.
type session struct {
	cfg      config.Config
	client   *llm.Client
	logger   *slog.Logger
	registry *prometheus.Registry
}

func openSession(cmd *cobra.Command, v *viper.Viper) (*session, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)

	proxy, err := llm.ParseProxy(cfg.Proxy.URL)
	if err != nil {
		return nil, err
	}
	registry := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(registry)
	if err != nil {
		return nil, err
	}
	client, err := llm.NewClient(llm.Config{
		BaseURL:  cfg.LLM.URL,
		Token:    cfg.LLM.Token,
		Proxy:    proxy,
		Logger:   logger,
		Observer: collector,
	})
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:      cfg,
		client:   client,
		logger:   logger,
		registry: registry,
	}, nil
}

// close publishes metrics when a textfile is configured.
func (s *session) close() {
	path := s.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path, s.registry); err != nil {
		s.logger.Warn("metrics not written", "path", path, "error", err)
	}
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
