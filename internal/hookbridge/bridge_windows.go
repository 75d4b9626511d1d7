//go:build windows

package hookbridge

import "github.com/workbench/workbench/internal/common/config"

// Unix domain sockets are not used on Windows; sessions run without the
// hook side channel and SocketPath stays empty.
func (b *Bridge) start(cfg config.HookBridgeConfig) error {
	b.logger.Info("hook bridge disabled on windows")
	return nil
}
