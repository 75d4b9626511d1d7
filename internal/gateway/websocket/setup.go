package websocket

import (
	"github.com/gin-gonic/gin"

	"github.com/workbench/workbench/internal/common/logger"
	"github.com/workbench/workbench/internal/terminal"
	ws "github.com/workbench/workbench/pkg/websocket"
)

// Gateway represents the unified WebSocket gateway
type Gateway struct {
	Hub        *Hub
	Dispatcher *ws.Dispatcher
	Handler    *Handler
	logger     *logger.Logger
}

// NewGateway creates a new WebSocket gateway with all components initialized
func NewGateway(manager *terminal.Manager, log *logger.Logger) *Gateway {
	dispatcher := ws.NewDispatcher()
	hub := NewHub(dispatcher, log)
	handler := NewHandler(hub, log)

	RegisterHealthHandler(dispatcher)
	RegisterTerminalHandlers(dispatcher, manager)

	return &Gateway{
		Hub:        hub,
		Dispatcher: dispatcher,
		Handler:    handler,
		logger:     log,
	}
}

// SetupRoutes adds the WebSocket routes to the Gin engine
func (g *Gateway) SetupRoutes(router *gin.Engine) {
	router.GET("/ws", g.Handler.HandleConnection)
}
