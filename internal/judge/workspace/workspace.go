// Package workspace manages isolated per-task scratch directories.
package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/profile"
	appErr "github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/errors"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/utils/logger"
)

// Workspace is a filesystem scope owned exclusively by one judge task.
type Workspace struct {
	TaskID string
	Root   string
}

// Manager allocates and destroys task workspaces under a scratch root.
type Manager struct {
	scratchRoot string
}

// NewManager creates a manager rooted at scratchRoot, creating it if needed.
func NewManager(scratchRoot string) (*Manager, error) {
	if scratchRoot == "" {
		return nil, appErr.ValidationError("scratch_root", "required")
	}
	abs, err := filepath.Abs(scratchRoot)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.WorkspaceAllocation, "resolve scratch root failed")
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, appErr.Wrapf(err, appErr.WorkspaceAllocation, "create scratch root failed")
	}
	return &Manager{scratchRoot: abs}, nil
}

// Create allocates a fresh directory scoped to taskID. The directory name
// embeds a random component so concurrent tasks can never collide.
func (m *Manager) Create(taskID string) (Workspace, error) {
	if taskID == "" {
		return Workspace{}, appErr.ValidationError("task_id", "required")
	}
	if strings.ContainsAny(taskID, "/\\") || taskID == "." || taskID == ".." {
		return Workspace{}, appErr.ValidationError("task_id", "must not contain path separators")
	}
	dir := filepath.Join(m.scratchRoot, taskID+"-"+uuid.NewString())
	if _, err := os.Stat(dir); err == nil {
		return Workspace{}, appErr.Newf(appErr.WorkspaceAllocation, "workspace already exists: %s", dir)
	}
	if err := os.Mkdir(dir, 0755); err != nil {
		return Workspace{}, appErr.Wrapf(err, appErr.WorkspaceAllocation, "create workspace failed")
	}
	return Workspace{TaskID: taskID, Root: dir}, nil
}

// WriteSource writes the submitted code verbatim into the workspace using the
// profile's source file name. Content is not validated at this layer.
func (m *Manager) WriteSource(ws Workspace, lang profile.LanguageProfile, code string) (string, error) {
	if ws.Root == "" {
		return "", appErr.ValidationError("workspace", "required")
	}
	if lang.SourceFile == "" {
		return "", appErr.ValidationError("source_file", "required")
	}
	path := filepath.Join(ws.Root, lang.SourceFile)
	if err := os.WriteFile(path, []byte(code), 0644); err != nil {
		return "", appErr.Wrapf(err, appErr.JudgeSystemError, "write source failed")
	}
	return path, nil
}

// Destroy recursively removes the workspace. Failures are logged, not fatal:
// the judging result already computed must not be discarded over cleanup.
func (m *Manager) Destroy(ctx context.Context, ws Workspace) {
	if ws.Root == "" {
		return
	}
	// Refuse to delete anything outside the scratch root.
	rel, err := filepath.Rel(m.scratchRoot, ws.Root)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		logger.Warn(ctx, "refusing to destroy path outside scratch root", zap.String("path", ws.Root))
		return
	}
	if err := os.RemoveAll(ws.Root); err != nil {
		logger.Warn(ctx, "workspace destroy failed", zap.String("path", ws.Root), zap.Error(err))
	}
}

// ScratchRoot returns the absolute scratch root path.
func (m *Manager) ScratchRoot() string {
	return m.scratchRoot
}
