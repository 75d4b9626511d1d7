package terminal

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/workbench/workbench/internal/common/logger"
)

// resolveProjectRoot maps a working directory to its enclosing git
// toplevel so collaborators see one canonical path per repository even
// when panes open in subdirectories or worktrees. Resolution is best
// effort: any failure falls back to the literal directory.
func resolveProjectRoot(ctx context.Context, dir string, log *logger.Logger) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir

	out, err := cmd.Output()
	if err != nil {
		log.Debug("project root resolution failed, using literal path",
			zap.String("dir", dir),
			zap.Error(err))
		return dir
	}

	root := strings.TrimSpace(string(out))
	if root == "" {
		return dir
	}
	return root
}
