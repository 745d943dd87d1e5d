package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"
)

// ErrQuitting is returned when a restore is requested while quitting
var ErrQuitting = errors.New("shell is quitting")

// Phase is the lifecycle phase of the controller
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseRestoring
	PhaseReady
	PhaseQuitting
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseRestoring:
		return "restoring"
	case PhaseReady:
		return "ready"
	case PhaseQuitting:
		return "quitting"
	default:
		return "unknown"
	}
}

// Phase returns the current lifecycle phase
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

type readyOutcome int

const (
	readyAccepted readyOutcome = iota
	readyDeferred
	readyIgnored
)

// acceptReady moves Initializing to Restoring for the first ready signal.
// A first signal arriving while a quit is in flight is kept until the quit
// settles.
func (c *Controller) acceptReady() readyOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.readySeen:
		return readyIgnored
	case c.phase == PhaseInitializing:
		c.readySeen = true
		c.readyPending = false
		c.setPhaseLocked(PhaseRestoring)
		return readyAccepted
	case c.phase == PhaseQuitting:
		c.readyPending = true
		return readyDeferred
	default:
		return readyIgnored
	}
}

func (c *Controller) beginRestore() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseQuitting {
		return ErrQuitting
	}
	c.restoring = true
	c.setPhaseLocked(PhaseRestoring)
	return nil
}

func (c *Controller) endRestore() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.restoring = false
	// A quit dispatched meanwhile keeps the controller in Quitting
	if c.phase == PhaseRestoring {
		c.setPhaseLocked(PhaseReady)
	}
}

func (c *Controller) setPhaseLocked(phase Phase) {
	if c.phase != phase {
		c.logger.Debug("phase changed", zap.Stringer("from", c.phase), zap.Stringer("to", phase))
	}
	c.phase = phase
	c.metrics.SetPhase(int(phase))
}

// HandleReady drives startup once the editor surface is ready: it restores
// the workspace and then tells the host the shell is ready. A failed restore
// is logged and the shell starts with whatever was applied so far.
func (c *Controller) HandleReady(ctx context.Context) {
	switch c.acceptReady() {
	case readyDeferred:
		c.logger.Info("ready signal deferred until quit settles")
		return
	case readyIgnored:
		c.logger.Warn("ready signal ignored", zap.Stringer("phase", c.Phase()))
		return
	}

	err := c.RestoreWorkspace(ctx)
	c.metrics.RecordRestore(err)
	if err != nil {
		c.logger.Error("failed to restore workspace", zap.Error(err))
	}

	if err := c.host.SendReady(ctx); err != nil {
		c.logger.Error("failed to signal ready", zap.Error(err))
	}
}

// RestoreWorkspace loads the workspace config and applies it to the editor:
// layout first, then files, then the active tab. Store and editor failures
// are returned; the Ready phase is entered either way.
func (c *Controller) RestoreWorkspace(ctx context.Context) error {
	if err := c.beginRestore(); err != nil {
		return err
	}
	defer c.endRestore()

	cfg, err := c.store.Restore(ctx, types.DefaultWorkspaceConfig())
	if err != nil {
		return fmt.Errorf("failed to load workspace: %w", err)
	}

	layout := cfg.Layout
	if layout == nil {
		layout = types.Layout{}
	}
	c.editor.SetLayout(layout)

	files := cfg.Files
	if files == nil {
		files = []types.FileRef{}
	}
	if err := c.editor.OpenFiles(ctx, files); err != nil {
		return fmt.Errorf("failed to open workspace files: %w", err)
	}

	if active, ok := cfg.Active(); ok {
		// The file may have been skipped, e.g. when it no longer exists
		if tab, found := c.editor.FindOpenTab(active); found {
			if err := c.editor.SetActiveTab(ctx, tab); err != nil {
				return fmt.Errorf("failed to activate %s: %w", active.Path, err)
			}
		} else {
			c.logger.Debug("active file not open", zap.String("path", active.Path))
		}
	}

	c.logger.Info("workspace restored",
		zap.Int("files", len(files)),
		zap.Int("active_file", cfg.ActiveFile),
		zap.String("revision", cfg.Revision),
	)
	return nil
}
