package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"
)

// Activate subscribes to host events and registers provider menus in the
// background. Every subscription handle is kept so Deactivate can release it.
func (c *Controller) Activate(ctx context.Context) {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		c.logger.Warn("controller already active")
		return
	}
	c.active = true
	c.subs = append(c.subs,
		c.host.On(types.EventMenuAction, c.onMenuAction),
		c.host.On(types.EventOpenFiles, c.onOpenFiles),
		c.host.Once(types.EventStarted, c.onStarted),
		c.host.On(types.EventWindowFocused, c.onWindowFocused),
	)
	c.mu.Unlock()

	c.registerMenus(ctx)
}

// Deactivate releases every host subscription, including the window focus
// and the one-shot started handler, waits for menu registration and flushes
// pending workspace saves. Safe to call more than once.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.active = false
	c.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}

	c.menus.Wait()
	c.saver.Flush()
}

func (c *Controller) onMenuAction(ctx context.Context, evt types.HostEvent) {
	if evt.Action == nil || evt.Action.Type == "" {
		c.logger.Warn("menu action without type")
		return
	}
	c.Dispatch(ctx, *evt.Action)
}

func (c *Controller) onOpenFiles(ctx context.Context, evt types.HostEvent) {
	c.logger.Debug("open files", zap.Int("count", len(evt.Files)))

	if err := c.editor.OpenFiles(ctx, evt.Files); err != nil {
		c.logger.Error("failed to open files", zap.Error(err))
	}
}

func (c *Controller) onStarted(context.Context, types.HostEvent) {
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()

	c.logger.Info("shell started")
}

func (c *Controller) onWindowFocused(ctx context.Context, _ types.HostEvent) {
	c.Dispatch(ctx, types.Action{Type: types.ActionCheckFileChanged})
}

// registerMenus registers the menu contributions of every provider
// concurrently. A failing provider is logged and does not affect the others.
func (c *Controller) registerMenus(ctx context.Context) {
	if c.providers == nil {
		return
	}

	for _, provider := range c.providers.Providers() {
		docType := provider.Type()
		options := types.MenuOptionsFor(provider)

		c.menus.Add(1)
		go func() {
			defer c.menus.Done()

			if err := c.host.RegisterMenu(ctx, docType, options); err != nil {
				c.metrics.RecordMenuFailure(docType)
				c.logger.Error("failed to register menu", zap.String("type", docType), zap.Error(err))
			}
		}()
	}
}
