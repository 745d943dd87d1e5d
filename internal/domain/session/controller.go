package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/infrastructure/events"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"
)

// Host is the host integration layer
type Host interface {
	On(event string, handler events.Handler) *events.Subscription
	Once(event string, handler events.Handler) *events.Subscription
	SendReady(ctx context.Context) error
	SendQuitAllowed(ctx context.Context) error
	SendQuitAborted(ctx context.Context) error
	RegisterMenu(ctx context.Context, docType string, options types.MenuOptions) error
	ShowContextMenu(ctx context.Context, menuType string, options map[string]interface{}) error
}

// Editor is the editor surface holding open documents and layout
type Editor interface {
	TriggerAction(ctx context.Context, actionType string, options map[string]interface{}) (interface{}, error)
	OpenFiles(ctx context.Context, files []types.FileRef) error
	SetLayout(layout types.Layout)
	FindOpenTab(file types.FileRef) (*types.Tab, bool)
	SetActiveTab(ctx context.Context, tab *types.Tab) error
}

// Store persists the workspace config
type Store interface {
	Save(ctx context.Context, cfg types.WorkspaceConfig) error
	Restore(ctx context.Context, defaults types.WorkspaceConfig) (types.WorkspaceConfig, error)
}

// ProviderSource lists the registered document-type providers
type ProviderSource interface {
	Providers() []types.Provider
}

// Options configures a Controller
type Options struct {
	Host      Host
	Editor    Editor
	Store     Store
	Providers ProviderSource // optional
	Logger    *zap.Logger    // optional
	Metrics   *monitoring.Metrics
}

// Controller coordinates host events, the editor surface and the workspace store
type Controller struct {
	host      Host
	editor    Editor
	store     Store
	providers ProviderSource
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	saver     *saver

	mu        sync.Mutex
	phase     Phase
	restoring bool
	// readySeen is set once the ready signal started a restore; readyPending
	// holds a ready signal that arrived while a quit was in flight
	readySeen    bool
	readyPending bool
	subs      []*events.Subscription
	active    bool
	started   bool

	menus sync.WaitGroup
}

// New creates a controller in the Initializing phase
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Controller{
		host:      opts.Host,
		editor:    opts.Editor,
		store:     opts.Store,
		providers: opts.Providers,
		logger:    logger,
		metrics:   opts.Metrics,
		phase:     PhaseInitializing,
	}
	c.saver = newSaver(opts.Store, logger, opts.Metrics)
	c.metrics.SetPhase(int(PhaseInitializing))

	return c
}

// Started reports whether the host signalled that the shell started
func (c *Controller) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// HandleContextMenu forwards a context menu request to the host
func (c *Controller) HandleContextMenu(ctx context.Context, menuType string, options map[string]interface{}) {
	if err := c.host.ShowContextMenu(ctx, menuType, options); err != nil {
		c.logger.Error("failed to show context menu", zap.String("type", menuType), zap.Error(err))
	}
}
