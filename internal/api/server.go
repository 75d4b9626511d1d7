// Package api provides the HTTP REST API for the workbench backend.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/workbench/workbench/internal/common/config"
	"github.com/workbench/workbench/internal/common/httpmw"
	"github.com/workbench/workbench/internal/common/logger"
	gateway "github.com/workbench/workbench/internal/gateway/websocket"
	"github.com/workbench/workbench/internal/terminal"
)

// Server is the HTTP API server exposing terminal session operations.
type Server struct {
	cfg     config.ServerConfig
	manager *terminal.Manager
	gateway *gateway.Gateway
	logger  *logger.Logger
	router  *gin.Engine
	httpSrv *http.Server
}

// NewServer creates the API server and registers all routes.
func NewServer(cfg config.ServerConfig, manager *terminal.Manager, gw *gateway.Gateway, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:     cfg,
		manager: manager,
		gateway: gw,
		logger:  log.WithFields(zap.String("component", "api-server")),
		router:  gin.New(),
	}

	s.router.Use(httpmw.RequestLogger(s.logger, "workbench"))
	s.setupRoutes()
	return s
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	if s.gateway != nil {
		s.gateway.SetupRoutes(s.router)
	}

	api := s.router.Group("/api/v1")
	{
		api.POST("/terminals", s.handleCreateTerminal)
		api.POST("/terminals/:id/input", s.handleInput)
		api.POST("/terminals/:id/resize", s.handleResize)
		api.POST("/terminals/:id/interrupt", s.handleInterrupt)
		api.DELETE("/terminals/:id", s.handleKill)
		api.GET("/terminals/:id/project-path", s.handleProjectPath)
	}
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeoutDuration(),
		WriteTimeout: s.cfg.WriteTimeoutDuration(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status    string `json:"status"`
	Sessions  int    `json:"sessions"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Sessions:  s.manager.SessionCount(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// CreateTerminalRequest is the POST /api/v1/terminals body.
type CreateTerminalRequest struct {
	PaneID         string `json:"pane_id"`
	WorkingDir     string `json:"working_dir,omitempty"`
	Shell          string `json:"shell,omitempty"`
	Cols           uint16 `json:"cols,omitempty"`
	Rows           uint16 `json:"rows,omitempty"`
	StartupCommand string `json:"startup_command,omitempty"`
}

func (s *Server) handleCreateTerminal(c *gin.Context) {
	var req CreateTerminalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.PaneID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pane_id is required"})
		return
	}

	err := s.manager.Spawn(c.Request.Context(), terminal.SpawnOptions{
		SessionID:      req.PaneID,
		WorkingDir:     req.WorkingDir,
		Shell:          req.Shell,
		Cols:           req.Cols,
		Rows:           req.Rows,
		StartupCommand: req.StartupCommand,
	})
	if err != nil {
		if errors.Is(err, terminal.ErrInvalidSessionID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("failed to spawn terminal",
			zap.String("pane_id", req.PaneID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"pane_id": req.PaneID})
}

// InputRequest is the POST /api/v1/terminals/:id/input body.
type InputRequest struct {
	Data string `json:"data"`
}

func (s *Server) handleInput(c *gin.Context) {
	var req InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := s.manager.Write(c.Param("id"), []byte(req.Data)); err != nil {
		s.respondTerminalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResizeRequest is the POST /api/v1/terminals/:id/resize body.
type ResizeRequest struct {
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
}

func (s *Server) handleResize(c *gin.Context) {
	var req ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.Cols == 0 || req.Rows == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cols and rows must be positive"})
		return
	}

	if err := s.manager.Resize(c.Param("id"), req.Cols, req.Rows); err != nil {
		s.respondTerminalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleInterrupt(c *gin.Context) {
	if err := s.manager.SignalForeground(c.Param("id")); err != nil {
		s.respondTerminalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleKill(c *gin.Context) {
	if err := s.manager.Kill(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleProjectPath(c *gin.Context) {
	path, err := s.manager.ProjectPathForSession(c.Param("id"))
	if err != nil {
		s.respondTerminalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project_path": path})
}

// respondTerminalError maps manager errors to HTTP status codes.
func (s *Server) respondTerminalError(c *gin.Context, err error) {
	if errors.Is(err, terminal.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
