package websocket

import (
	"context"
	"errors"

	"github.com/workbench/workbench/internal/terminal"
	ws "github.com/workbench/workbench/pkg/websocket"
)

// CreateTerminalRequest is the payload for terminal.create
type CreateTerminalRequest struct {
	PaneID         string `json:"pane_id"`
	WorkingDir     string `json:"working_dir,omitempty"`
	Shell          string `json:"shell,omitempty"`
	Cols           uint16 `json:"cols,omitempty"`
	Rows           uint16 `json:"rows,omitempty"`
	StartupCommand string `json:"startup_command,omitempty"`
}

// InputRequest is the payload for terminal.input
type InputRequest struct {
	PaneID string `json:"pane_id"`
	Data   string `json:"data"`
}

// ResizeRequest is the payload for terminal.resize
type ResizeRequest struct {
	PaneID string `json:"pane_id"`
	Cols   uint16 `json:"cols"`
	Rows   uint16 `json:"rows"`
}

// PaneRequest is the payload for terminal.kill and terminal.interrupt
type PaneRequest struct {
	PaneID string `json:"pane_id"`
}

// RegisterTerminalHandlers wires the terminal actions to the session manager.
func RegisterTerminalHandlers(d *ws.Dispatcher, manager *terminal.Manager) {
	d.RegisterFunc(ws.ActionTerminalCreate, func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		var req CreateTerminalRequest
		if err := msg.ParsePayload(&req); err != nil {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
		}
		if req.PaneID == "" {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "pane_id is required", nil)
		}

		err := manager.Spawn(ctx, terminal.SpawnOptions{
			SessionID:      req.PaneID,
			WorkingDir:     req.WorkingDir,
			Shell:          req.Shell,
			Cols:           req.Cols,
			Rows:           req.Rows,
			StartupCommand: req.StartupCommand,
		})
		if err != nil {
			if errors.Is(err, terminal.ErrInvalidSessionID) {
				return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, err.Error(), nil)
			}
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeInternalError, err.Error(), nil)
		}

		return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{
			"success": true,
			"pane_id": req.PaneID,
		})
	})

	d.RegisterFunc(ws.ActionTerminalInput, func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		var req InputRequest
		if err := msg.ParsePayload(&req); err != nil {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
		}
		if req.PaneID == "" {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "pane_id is required", nil)
		}

		if err := manager.Write(req.PaneID, []byte(req.Data)); err != nil {
			return terminalError(msg, err)
		}
		// Input is fire-and-forget; no response keeps typing latency low.
		return nil, nil
	})

	d.RegisterFunc(ws.ActionTerminalResize, func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		var req ResizeRequest
		if err := msg.ParsePayload(&req); err != nil {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
		}
		if req.PaneID == "" {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "pane_id is required", nil)
		}
		if req.Cols == 0 || req.Rows == 0 {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "cols and rows must be positive", nil)
		}

		if err := manager.Resize(req.PaneID, req.Cols, req.Rows); err != nil {
			return terminalError(msg, err)
		}
		return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{"success": true})
	})

	d.RegisterFunc(ws.ActionTerminalKill, func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		var req PaneRequest
		if err := msg.ParsePayload(&req); err != nil {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
		}
		if req.PaneID == "" {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "pane_id is required", nil)
		}

		if err := manager.Kill(req.PaneID); err != nil {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeInternalError, err.Error(), nil)
		}
		return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{"success": true})
	})

	d.RegisterFunc(ws.ActionTerminalInterrupt, func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		var req PaneRequest
		if err := msg.ParsePayload(&req); err != nil {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
		}
		if req.PaneID == "" {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "pane_id is required", nil)
		}

		if err := manager.SignalForeground(req.PaneID); err != nil {
			return terminalError(msg, err)
		}
		return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{"success": true})
	})
}

// terminalError maps manager errors to websocket error responses.
func terminalError(msg *ws.Message, err error) (*ws.Message, error) {
	if errors.Is(err, terminal.ErrSessionNotFound) {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeNotFound, err.Error(), nil)
	}
	return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeInternalError, err.Error(), nil)
}
