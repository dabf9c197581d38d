package metrics

import (
	"net/http"

	"github.com/ilindan-dev/fanout-notifier/internal/config"
	"github.com/rs/zerolog"
)

// Server is a wrapper for the standalone metrics listener. The worker has no
// API surface of its own, so it exposes /metrics on a dedicated port.
type Server struct {
	*http.Server
	logger zerolog.Logger
}

// NewServer creates a new metrics listener serving the given collectors.
func NewServer(cfg *config.Config, m *Metrics, logger *zerolog.Logger) *Server {
	log := logger.With().Str("layer", "metrics_server").Logger()
	log.Info().Str("addr", cfg.Metrics.Addr).Msg("initializing metrics server")

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:    cfg.Metrics.Addr,
		Handler: mux,
	}

	return &Server{server, log}
}
