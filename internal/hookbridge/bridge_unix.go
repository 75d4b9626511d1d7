//go:build !windows

package hookbridge

import (
	"fmt"
	"net"
	"os"

	"go.uber.org/zap"

	"github.com/workbench/workbench/internal/common/config"
)

func (b *Bridge) start(cfg config.HookBridgeConfig) error {
	path := cfg.SocketPath
	if path == "" {
		var err error
		path, err = defaultSocketPath()
		if err != nil {
			return err
		}
	}

	// A stale socket file from a previous run prevents bind.
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("failed to bind hook socket %s: %w", path, err)
	}

	b.mu.Lock()
	b.listener = ln
	b.socketPath = path
	b.closed = false
	b.mu.Unlock()

	b.logger.Info("hook bridge listening", zap.String("socket", path))
	go b.serve(ln)
	return nil
}
