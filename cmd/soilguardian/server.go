package main

import (
	"context"
	"time"

	"github.com/JaimeStill/soilguardian/internal/config"
	"github.com/JaimeStill/soilguardian/internal/infrastructure"
)

// Server is the api command's process: shared infrastructure plus the
// HTTP listener serving the mounted modules.
type Server struct {
	infra *infrastructure.Infrastructure
	http  *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	router, err := buildRouter(infra, cfg)
	if err != nil {
		return nil, err
	}

	infra.Logger.Info("server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"model_version", cfg.Model.Version,
		"store", cfg.Store.Provider,
		"env", cfg.Env(),
	)

	return &Server{
		infra: infra,
		http:  newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Run starts every subsystem, serves until ctx is done, then shuts down
// within timeout.
func (s *Server) Run(ctx context.Context, timeout time.Duration) error {
	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		s.infra.Lifecycle.Shutdown(timeout)
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready", "model_loaded", s.infra.Registry.Loaded())
	}()

	<-ctx.Done()
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
