package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/log"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/ethereum-optimism/infra/jenkins-reporter/metrics"
)

// Config selects the auxiliary servers to run. Empty or disabled entries are skipped.
type Config struct {
	HealthzAddr string
	Metrics     opmetrics.CLIConfig
}

// Service runs the healthz and metrics servers next to the reporter.
type Service struct {
	Healthz *HealthzServer
	Metrics *MetricsServer

	log log.Logger
}

func New(cfg Config, logger log.Logger) *Service {
	logger = logger.New("module", "service")
	s := &Service{log: logger}
	if cfg.HealthzAddr != "" {
		s.Healthz = NewHealthzServer(logger, cfg.HealthzAddr)
	}
	if cfg.Metrics.Enabled {
		addr := net.JoinHostPort(cfg.Metrics.ListenAddr, strconv.Itoa(cfg.Metrics.ListenPort))
		s.Metrics = NewMetricsServer(addr)
	}
	return s
}

func (s *Service) Start() {
	s.log.Info("service starting")

	if s.Healthz != nil {
		go func() {
			s.log.Info("starting healthz server", "addr", s.Healthz.server.Addr)
			if err := s.Healthz.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("error starting healthz server", "err", err)
				metrics.RecordErrorDetails("error starting healthz server", err)
			}
		}()
	}

	if s.Metrics != nil {
		go func() {
			s.log.Info("starting metrics server", "addr", s.Metrics.server.Addr)
			if err := s.Metrics.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("error starting metrics server", "err", err)
				metrics.RecordErrorDetails("error starting metrics server", err)
			}
		}()
	}

	s.log.Info("service started")
}

func (s *Service) Shutdown(ctx context.Context) {
	s.log.Info("service shutting down")

	if s.Healthz != nil {
		_ = s.Healthz.Shutdown(ctx)
		s.log.Info("healthz stopped")
	}

	if s.Metrics != nil {
		_ = s.Metrics.Shutdown(ctx)
		s.log.Info("metrics stopped")
	}

	s.log.Info("service stopped")
}
