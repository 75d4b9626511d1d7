package websocket

import (
	"context"

	"go.uber.org/zap"

	"github.com/workbench/workbench/internal/common/logger"
	"github.com/workbench/workbench/internal/events"
	"github.com/workbench/workbench/internal/events/bus"
	ws "github.com/workbench/workbench/pkg/websocket"
)

// TerminalEventBroadcaster forwards terminal and hook events from the bus
// to WebSocket clients. Events carrying a pane identifier go only to
// subscribers of that pane; anything else falls back to broadcast.
type TerminalEventBroadcaster struct {
	hub           *Hub
	subscriptions []bus.Subscription
	logger        *logger.Logger
}

func RegisterTerminalNotifications(ctx context.Context, eventBus bus.EventBus, hub *Hub, log *logger.Logger) *TerminalEventBroadcaster {
	b := &TerminalEventBroadcaster{
		hub:    hub,
		logger: log.WithFields(zap.String("component", "ws-terminal-broadcaster")),
	}
	if eventBus == nil {
		return b
	}

	b.subscribe(eventBus, events.BuildTerminalDataWildcardSubject(), ws.ActionTerminalData)
	b.subscribe(eventBus, events.BuildTerminalExitWildcardSubject(), ws.ActionTerminalExit)
	b.subscribe(eventBus, events.BuildTerminalActivityWildcardSubject(), ws.ActionTerminalActivity)
	b.subscribe(eventBus, events.BuildHookClaudeWildcardSubject(), ws.ActionHookClaude)
	b.subscribe(eventBus, events.BuildHookCodexWildcardSubject(), ws.ActionHookCodex)

	go func() {
		<-ctx.Done()
		b.Close()
	}()

	return b
}

func (b *TerminalEventBroadcaster) Close() {
	for _, sub := range b.subscriptions {
		if sub != nil && sub.IsValid() {
			_ = sub.Unsubscribe()
		}
	}
	b.subscriptions = nil
}

func (b *TerminalEventBroadcaster) subscribe(eventBus bus.EventBus, subject, action string) {
	sub, err := eventBus.Subscribe(subject, func(ctx context.Context, event *bus.Event) error {
		msg, err := ws.NewNotification(action, event.Data)
		if err != nil {
			b.logger.Error("failed to build websocket notification", zap.String("action", action), zap.Error(err))
			return nil
		}

		// Terminal events key panes by session_id, hook events by pane_id.
		paneID, _ := event.Data["session_id"].(string)
		if paneID == "" {
			paneID, _ = event.Data["pane_id"].(string)
		}

		if paneID != "" {
			b.hub.BroadcastToPane(paneID, msg)
			return nil
		}
		b.hub.Broadcast(msg)
		return nil
	})
	if err != nil {
		b.logger.Error("failed to subscribe to events", zap.String("subject", subject), zap.Error(err))
		return
	}
	b.subscriptions = append(b.subscriptions, sub)
}
