package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"
)

// Dispatch routes an action to the editor surface. Failures are logged and
// never returned to the event source. A quit action additionally completes
// the quit handshake with the host: exactly one of SendQuitAllowed or
// SendQuitAborted is called once the editor settled the action.
func (c *Controller) Dispatch(ctx context.Context, action types.Action) {
	c.logger.Debug("trigger action", zap.String("action", action.Type), zap.Any("options", action.Options))

	if action.Type == types.ActionQuit {
		c.quit(ctx, action)
		return
	}

	if _, err := c.trigger(ctx, action); err != nil {
		c.logger.Warn("action failed", zap.String("action", action.Type), zap.Error(err))
	}
}

func (c *Controller) quit(ctx context.Context, action types.Action) {
	prev := c.beginQuit()

	if _, err := c.trigger(ctx, action); err != nil {
		c.logger.Info("quit aborted", zap.Error(err))
		resumeReady := c.abortQuit(prev)
		c.metrics.RecordQuit(false)
		if err := c.host.SendQuitAborted(ctx); err != nil {
			c.logger.Error("failed to send quit aborted", zap.Error(err))
		}
		if resumeReady {
			c.HandleReady(ctx)
		}
		return
	}

	c.metrics.RecordQuit(true)
	if err := c.host.SendQuitAllowed(ctx); err != nil {
		c.logger.Error("failed to send quit allowed", zap.Error(err))
	}
}

// trigger runs the action on the editor, turning a panic into an error so the
// quit handshake always completes.
func (c *Controller) trigger(ctx context.Context, action types.Action) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action %s panicked: %v", action.Type, r)
		}
		c.metrics.RecordAction(action.Type, err)
	}()

	return c.editor.TriggerAction(ctx, action.Type, action.Options)
}

func (c *Controller) beginQuit() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.phase
	c.setPhaseLocked(PhaseQuitting)
	return prev
}

// abortQuit returns to the phase the quit interrupted. Quit attempts are not
// deduplicated, so an abort only applies while still Quitting. It reports
// whether a ready signal deferred by the quit must now be handled.
func (c *Controller) abortQuit(prev Phase) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseQuitting {
		return false
	}

	switch {
	case prev == PhaseRestoring && !c.restoring:
		c.setPhaseLocked(PhaseReady)
	case prev == PhaseQuitting:
		// another quit attempt is still in flight and settles the phase
	default:
		c.setPhaseLocked(prev)
	}
	return c.phase == PhaseInitializing && c.readyPending
}
