// Package api provides the HTTP serving layer for the Responses API proxy.
// It wires gin routes onto the proxy orchestrator and renders streaming
// results as Server-Sent Events.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/router-for-me/ResponsesProxy/internal/buildinfo"
	"github.com/router-for-me/ResponsesProxy/internal/config"
	"github.com/router-for-me/ResponsesProxy/internal/proxy"
)

// Server is the HTTP server hosting the Responses API surface.
type Server struct {
	cfg        *config.Config
	engine     *gin.Engine
	httpServer *http.Server
	handler    *ResponsesHandler
}

// NewServer creates the API server and registers all routes.
func NewServer(cfg *config.Config, p *proxy.Proxy) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	s := &Server{
		cfg:     cfg,
		engine:  engine,
		handler: NewResponsesHandler(p),
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: engine,
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    "responses-proxy",
			"version": buildinfo.Version,
			"status":  "ok",
		})
	})

	v1 := s.engine.Group("/v1")
	v1.Use(AuthMiddleware(s.cfg))
	{
		v1.POST("/responses", s.handler.CreateResponse)
		v1.GET("/responses/:id", s.handler.RetrieveResponse)
		v1.POST("/responses/:id/cancel", s.handler.CancelResponse)
	}
}

// Engine exposes the underlying gin engine, mainly for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	log.Infof("responses proxy listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
