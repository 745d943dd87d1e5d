package session

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"
)

// HandleWorkspaceChanged persists the editor state. Changes outside the Ready
// phase, notably those caused by restoring the workspace itself, are ignored.
// The save runs in the background.
func (c *Controller) HandleWorkspaceChanged(change types.WorkspaceChange) {
	if phase := c.Phase(); phase != PhaseReady {
		c.logger.Debug("workspace change not persisted", zap.Stringer("phase", phase))
		return
	}

	c.saver.Submit(BuildWorkspaceConfig(change))
}

// BuildWorkspaceConfig derives the persisted config from editor state. Only
// tabs backed by a file are kept, in tab order; the active file is located by
// path among the kept files.
func BuildWorkspaceConfig(change types.WorkspaceChange) types.WorkspaceConfig {
	files := make([]types.FileRef, 0, len(change.Tabs))
	active := types.NoActiveFile

	for _, tab := range change.Tabs {
		if !tab.HasFile() {
			continue
		}
		if active == types.NoActiveFile && change.ActiveTab.HasFile() && tab.File.Path == change.ActiveTab.File.Path {
			active = len(files)
		}
		files = append(files, tab.File)
	}

	layout := change.Layout
	if layout == nil {
		layout = types.Layout{}
	}

	return types.WorkspaceConfig{
		Files:      files,
		ActiveFile: active,
		Layout:     layout,
	}
}

// HandleError logs an error reported by the editor, tagged with its tab when known
func (c *Controller) HandleError(err error, tab *types.Tab) {
	if tab != nil {
		c.metrics.RecordEditorProblem("error", "tab")
		c.logger.Error("tab error", append(logging.Tab(tab), zap.Error(err))...)
		return
	}
	c.metrics.RecordEditorProblem("error", "app")
	c.logger.Error("app error", zap.Error(err))
}

// HandleWarning logs a warning reported by the editor, tagged with its tab when known
func (c *Controller) HandleWarning(warning string, tab *types.Tab) {
	if tab != nil {
		c.metrics.RecordEditorProblem("warning", "tab")
		c.logger.Warn("tab warning", append(logging.Tab(tab), zap.String("warning", warning))...)
		return
	}
	c.metrics.RecordEditorProblem("warning", "app")
	c.logger.Warn("app warning", zap.String("warning", warning))
}
