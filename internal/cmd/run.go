// Package cmd provides service startup for the Responses API proxy server.
package cmd

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/router-for-me/ResponsesProxy/internal/api"
	"github.com/router-for-me/ResponsesProxy/internal/config"
	"github.com/router-for-me/ResponsesProxy/internal/logging"
	"github.com/router-for-me/ResponsesProxy/internal/proxy"
	"github.com/router-for-me/ResponsesProxy/internal/upstream"
)

// shutdownTimeout bounds graceful shutdown after a termination signal.
const shutdownTimeout = 10 * time.Second

// StartService builds and runs the proxy service. It wires the upstream
// client and request logger into the orchestrator, starts the HTTP server,
// and shuts down gracefully on SIGINT/SIGTERM.
func StartService(cfg *config.Config, configPath string) {
	client, err := upstream.NewClient(upstream.Options{
		BaseURL:  cfg.Remote.BaseURL,
		APIKey:   cfg.Remote.APIKey,
		ProxyURL: cfg.Remote.ProxyURL,
		Timeout:  time.Duration(cfg.Remote.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		log.Errorf("failed to build upstream client: %v", err)
		return
	}
	log.Infof("initialized responses proxy with base_url=%s", cfg.Remote.BaseURL)

	requestLogger := logging.NewFileRequestLogger(cfg.RequestLog, cfg.RequestLogsDir, filepath.Dir(configPath))
	p := proxy.New(proxy.NewUpstreamBackend(client), requestLogger)
	server := api.NewServer(cfg, p)

	ctxSignal, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctxSignal.Done():
		log.Info("shutdown signal received, stopping server")
	case errServe := <-errCh:
		if errServe != nil {
			log.Errorf("server exited with error: %v", errServe)
		}
		return
	}

	ctxStop, cancelStop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelStop()
	if errStop := server.Stop(ctxStop); errStop != nil {
		log.Errorf("failed to stop server cleanly: %v", errStop)
	}
}
