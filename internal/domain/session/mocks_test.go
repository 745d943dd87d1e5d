package session

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/infrastructure/events"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"
)

// mockHost routes subscriptions through a real emitter and mocks outbound calls
type mockHost struct {
	mock.Mock
	emitter *events.Emitter
}

func newMockHost() *mockHost {
	return &mockHost{emitter: events.NewEmitter()}
}

func (h *mockHost) On(event string, handler events.Handler) *events.Subscription {
	return h.emitter.On(event, handler)
}

func (h *mockHost) Once(event string, handler events.Handler) *events.Subscription {
	return h.emitter.Once(event, handler)
}

func (h *mockHost) emit(evt types.HostEvent) int {
	return h.emitter.Emit(context.Background(), evt)
}

func (h *mockHost) SendReady(ctx context.Context) error {
	return h.Called().Error(0)
}

func (h *mockHost) SendQuitAllowed(ctx context.Context) error {
	return h.Called().Error(0)
}

func (h *mockHost) SendQuitAborted(ctx context.Context) error {
	return h.Called().Error(0)
}

func (h *mockHost) RegisterMenu(ctx context.Context, docType string, options types.MenuOptions) error {
	return h.Called(docType, options).Error(0)
}

func (h *mockHost) ShowContextMenu(ctx context.Context, menuType string, options map[string]interface{}) error {
	return h.Called(menuType, options).Error(0)
}

type mockEditor struct {
	mock.Mock
}

func (e *mockEditor) TriggerAction(ctx context.Context, actionType string, options map[string]interface{}) (interface{}, error) {
	args := e.Called(actionType, options)
	return args.Get(0), args.Error(1)
}

func (e *mockEditor) OpenFiles(ctx context.Context, files []types.FileRef) error {
	return e.Called(files).Error(0)
}

func (e *mockEditor) SetLayout(layout types.Layout) {
	e.Called(layout)
}

func (e *mockEditor) FindOpenTab(file types.FileRef) (*types.Tab, bool) {
	args := e.Called(file)
	tab, _ := args.Get(0).(*types.Tab)
	return tab, args.Bool(1)
}

func (e *mockEditor) SetActiveTab(ctx context.Context, tab *types.Tab) error {
	return e.Called(tab).Error(0)
}

type mockStore struct {
	mock.Mock
}

func (s *mockStore) Save(ctx context.Context, cfg types.WorkspaceConfig) error {
	return s.Called(cfg).Error(0)
}

func (s *mockStore) Restore(ctx context.Context, defaults types.WorkspaceConfig) (types.WorkspaceConfig, error) {
	args := s.Called(defaults)
	return args.Get(0).(types.WorkspaceConfig), args.Error(1)
}

type staticProviders []types.Provider

func (p staticProviders) Providers() []types.Provider { return p }

type bareProvider string

func (p bareProvider) Type() string { return string(p) }

type menuProvider struct {
	bareProvider
	help    []types.MenuEntry
	newFile []types.MenuEntry
}

func (p menuProvider) HelpMenu() []types.MenuEntry    { return p.help }
func (p menuProvider) NewFileMenu() []types.MenuEntry { return p.newFile }
