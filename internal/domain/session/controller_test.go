package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"
)

type fixture struct {
	host       *mockHost
	editor     *mockEditor
	store      *mockStore
	logs       *observer.ObservedLogs
	controller *Controller
}

func newFixture(t *testing.T, providers ...types.Provider) *fixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		host:   newMockHost(),
		editor: new(mockEditor),
		store:  new(mockStore),
		logs:   logs,
	}
	f.controller = New(Options{
		Host:      f.host,
		Editor:    f.editor,
		Store:     f.store,
		Providers: staticProviders(providers),
		Logger:    zap.New(core),
	})
	return f
}

// ready brings the controller to Ready with an empty workspace
func (f *fixture) ready(t *testing.T) {
	t.Helper()

	f.store.On("Restore", mock.Anything).Return(types.DefaultWorkspaceConfig(), nil).Once()
	f.editor.On("SetLayout", types.Layout{}).Once()
	f.editor.On("OpenFiles", []types.FileRef{}).Return(nil).Once()
	f.host.Mock.On("SendReady").Return(nil).Once()

	f.controller.HandleReady(context.Background())
	require.Equal(t, PhaseReady, f.controller.Phase())
}

func TestNewControllerIsInitializing(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, PhaseInitializing, f.controller.Phase())
	assert.Equal(t, "initializing", f.controller.Phase().String())
	assert.Equal(t, 0, f.host.emitter.Count(types.EventMenuAction))
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseInitializing, "initializing"},
		{PhaseRestoring, "restoring"},
		{PhaseReady, "ready"},
		{PhaseQuitting, "quitting"},
		{Phase(42), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.phase.String())
	}
}

func TestHandleReadyRestoresThenSignalsReady(t *testing.T) {
	f := newFixture(t)

	file := types.FileRef{Name: "a.bpmn", Path: "/a.bpmn"}
	tab := &types.Tab{ID: "tab-1", Type: "bpmn", File: file}
	restored := types.WorkspaceConfig{
		Files:      []types.FileRef{file},
		ActiveFile: 0,
		Layout:     types.Layout{},
	}

	var order []string
	record := func(name string) func(mock.Arguments) {
		return func(mock.Arguments) { order = append(order, name) }
	}

	f.store.On("Restore", types.DefaultWorkspaceConfig()).Return(restored, nil)
	f.editor.On("SetLayout", types.Layout{}).Run(record("setLayout"))
	f.editor.On("OpenFiles", []types.FileRef{file}).Return(nil).Run(record("openFiles"))
	f.editor.On("FindOpenTab", file).Return(tab, true).Run(record("findOpenTab"))
	f.editor.On("SetActiveTab", tab).Return(nil).Run(record("setActiveTab"))
	f.host.Mock.On("SendReady").Return(nil).Run(record("sendReady"))

	f.controller.HandleReady(context.Background())

	assert.Equal(t, []string{"setLayout", "openFiles", "findOpenTab", "setActiveTab", "sendReady"}, order)
	assert.Equal(t, PhaseReady, f.controller.Phase())
	f.editor.AssertExpectations(t)
	f.host.AssertExpectations(t)
}

func TestHandleReadySurvivesRestoreFailure(t *testing.T) {
	f := newFixture(t)

	f.store.On("Restore", mock.Anything).Return(types.WorkspaceConfig{}, errors.New("corrupt workspace"))
	f.host.Mock.On("SendReady").Return(nil)

	assert.NotPanics(t, func() {
		f.controller.HandleReady(context.Background())
	})

	f.host.AssertCalled(t, "SendReady")
	f.editor.AssertNotCalled(t, "OpenFiles", mock.Anything)
	assert.Equal(t, PhaseReady, f.controller.Phase())
	assert.Equal(t, 1, f.logs.FilterMessage("failed to restore workspace").Len())
}

func TestHandleReadySurvivesSendReadyFailure(t *testing.T) {
	f := newFixture(t)

	f.store.On("Restore", mock.Anything).Return(types.DefaultWorkspaceConfig(), nil)
	f.editor.On("SetLayout", mock.Anything)
	f.editor.On("OpenFiles", mock.Anything).Return(nil)
	f.host.Mock.On("SendReady").Return(errors.New("host gone"))

	f.controller.HandleReady(context.Background())

	assert.Equal(t, PhaseReady, f.controller.Phase())
	assert.Equal(t, 1, f.logs.FilterMessage("failed to signal ready").Len())
}

func TestHandleReadyOnlyOnce(t *testing.T) {
	f := newFixture(t)
	f.ready(t)

	f.controller.HandleReady(context.Background())

	f.store.AssertNumberOfCalls(t, "Restore", 1)
	f.host.AssertNumberOfCalls(t, "SendReady", 1)
	assert.Equal(t, 1, f.logs.FilterMessage("ready signal ignored").Len())
}

func TestRestoreSkipsActiveTabThatDidNotOpen(t *testing.T) {
	f := newFixture(t)

	missing := types.FileRef{Name: "gone.bpmn", Path: "/gone.bpmn"}
	f.store.On("Restore", mock.Anything).Return(types.WorkspaceConfig{
		Files:      []types.FileRef{missing},
		ActiveFile: 0,
		Layout:     types.Layout{"minimap": true},
	}, nil)
	f.editor.On("SetLayout", types.Layout{"minimap": true})
	f.editor.On("OpenFiles", []types.FileRef{missing}).Return(nil)
	f.editor.On("FindOpenTab", missing).Return(nil, false)

	require.NoError(t, f.controller.RestoreWorkspace(context.Background()))

	f.editor.AssertNotCalled(t, "SetActiveTab", mock.Anything)
	assert.Equal(t, PhaseReady, f.controller.Phase())
}

func TestRestoreWithoutActiveFile(t *testing.T) {
	tests := []struct {
		name   string
		active int
	}{
		{"none sentinel", types.NoActiveFile},
		{"index out of range", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			files := []types.FileRef{{Name: "a.bpmn", Path: "/a.bpmn"}}
			f.store.On("Restore", mock.Anything).Return(types.WorkspaceConfig{Files: files, ActiveFile: tt.active}, nil)
			f.editor.On("SetLayout", types.Layout{})
			f.editor.On("OpenFiles", files).Return(nil)

			require.NoError(t, f.controller.RestoreWorkspace(context.Background()))

			f.editor.AssertNotCalled(t, "FindOpenTab", mock.Anything)
			f.editor.AssertNotCalled(t, "SetActiveTab", mock.Anything)
		})
	}
}

func TestRestoreDoesNotPersistItsOwnChanges(t *testing.T) {
	f := newFixture(t)

	file := types.FileRef{Name: "a.bpmn", Path: "/a.bpmn"}
	tab := &types.Tab{ID: "tab-1", File: file}
	change := types.WorkspaceChange{Tabs: []*types.Tab{tab}, ActiveTab: tab, Layout: types.Layout{}}

	f.store.On("Restore", mock.Anything).Return(types.WorkspaceConfig{Files: []types.FileRef{file}, ActiveFile: 0}, nil)
	f.editor.On("SetLayout", mock.Anything).Run(func(mock.Arguments) {
		f.controller.HandleWorkspaceChanged(types.WorkspaceChange{})
	})
	f.editor.On("OpenFiles", mock.Anything).Return(nil).Run(func(mock.Arguments) {
		f.controller.HandleWorkspaceChanged(change)
	})
	f.editor.On("FindOpenTab", file).Return(tab, true)
	f.editor.On("SetActiveTab", tab).Return(nil).Run(func(mock.Arguments) {
		f.controller.HandleWorkspaceChanged(change)
	})
	f.host.Mock.On("SendReady").Return(nil)

	f.controller.HandleReady(context.Background())
	f.controller.Deactivate()

	f.store.AssertNotCalled(t, "Save", mock.Anything)
}

func TestRestoreFailureLeavesSavesEnabled(t *testing.T) {
	f := newFixture(t)

	f.store.On("Restore", mock.Anything).Return(types.DefaultWorkspaceConfig(), nil)
	f.editor.On("SetLayout", mock.Anything)
	f.editor.On("OpenFiles", mock.Anything).Return(errors.New("disk unavailable"))
	f.host.Mock.On("SendReady").Return(nil)

	f.controller.HandleReady(context.Background())
	require.Equal(t, PhaseReady, f.controller.Phase())

	f.store.On("Save", mock.Anything).Return(nil)
	f.controller.HandleWorkspaceChanged(types.WorkspaceChange{})
	f.controller.Deactivate()

	f.store.AssertNumberOfCalls(t, "Save", 1)
}

func TestHandleWorkspaceChangedPersistsFileBackedTabs(t *testing.T) {
	f := newFixture(t)
	f.ready(t)

	saved := &types.Tab{ID: "1", File: types.FileRef{Name: "x", Path: "/x.bpmn"}}
	unsaved := &types.Tab{ID: "2", Name: "diagram_1.bpmn"}

	expected := types.WorkspaceConfig{
		Files:      []types.FileRef{{Name: "x", Path: "/x.bpmn"}},
		ActiveFile: 0,
		Layout:     types.Layout{"propertiesPanel": map[string]interface{}{"open": true}},
	}
	f.store.On("Save", expected).Return(nil).Once()

	f.controller.HandleWorkspaceChanged(types.WorkspaceChange{
		Tabs:      []*types.Tab{saved, unsaved},
		ActiveTab: saved,
		Layout:    types.Layout{"propertiesPanel": map[string]interface{}{"open": true}},
	})
	f.controller.Deactivate()

	f.store.AssertExpectations(t)
}

func TestHandleWorkspaceChangedIgnoredOutsideReady(t *testing.T) {
	f := newFixture(t)

	f.controller.HandleWorkspaceChanged(types.WorkspaceChange{})
	f.controller.Deactivate()

	f.store.AssertNotCalled(t, "Save", mock.Anything)
}

func TestSaveFailureIsLogged(t *testing.T) {
	f := newFixture(t)
	f.ready(t)

	f.store.On("Save", mock.Anything).Return(errors.New("read-only file system"))

	f.controller.HandleWorkspaceChanged(types.WorkspaceChange{})
	f.controller.Deactivate()

	assert.Equal(t, 1, f.logs.FilterMessage("failed to save workspace").Len())
	assert.Equal(t, PhaseReady, f.controller.Phase())
}

func TestBuildWorkspaceConfig(t *testing.T) {
	a := &types.Tab{ID: "a", File: types.FileRef{Name: "a.bpmn", Path: "/a.bpmn"}}
	b := &types.Tab{ID: "b", File: types.FileRef{Name: "b.dmn", Path: "/b.dmn"}}
	draft := &types.Tab{ID: "draft", Name: "diagram_1.bpmn"}
	twin := &types.Tab{ID: "twin", File: types.FileRef{Name: "a.bpmn", Path: "/copy/a.bpmn"}}

	tests := []struct {
		name       string
		change     types.WorkspaceChange
		wantFiles  []types.FileRef
		wantActive int
	}{
		{
			name:       "empty",
			change:     types.WorkspaceChange{},
			wantFiles:  []types.FileRef{},
			wantActive: types.NoActiveFile,
		},
		{
			name:       "active index counts only persisted tabs",
			change:     types.WorkspaceChange{Tabs: []*types.Tab{draft, a, b}, ActiveTab: b},
			wantFiles:  []types.FileRef{a.File, b.File},
			wantActive: 1,
		},
		{
			name:       "unsaved active tab",
			change:     types.WorkspaceChange{Tabs: []*types.Tab{a, draft}, ActiveTab: draft},
			wantFiles:  []types.FileRef{a.File},
			wantActive: types.NoActiveFile,
		},
		{
			name:       "active tab not among tabs",
			change:     types.WorkspaceChange{Tabs: []*types.Tab{a}, ActiveTab: b},
			wantFiles:  []types.FileRef{a.File},
			wantActive: types.NoActiveFile,
		},
		{
			name:       "same name different path",
			change:     types.WorkspaceChange{Tabs: []*types.Tab{a, twin}, ActiveTab: twin},
			wantFiles:  []types.FileRef{a.File, twin.File},
			wantActive: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := BuildWorkspaceConfig(tt.change)

			assert.Equal(t, tt.wantFiles, cfg.Files)
			assert.Equal(t, tt.wantActive, cfg.ActiveFile)
			assert.NotNil(t, cfg.Layout)
			for _, file := range cfg.Files {
				assert.NotEmpty(t, file.Path)
			}
		})
	}
}

func TestDispatchForwardsActions(t *testing.T) {
	f := newFixture(t)

	options := map[string]interface{}{"type": "dmn"}
	f.editor.On("TriggerAction", "create-diagram", options).Return(true, nil)

	f.controller.Dispatch(context.Background(), types.Action{Type: "create-diagram", Options: options})

	f.editor.AssertExpectations(t)
	f.host.AssertNotCalled(t, "SendQuitAllowed")
	f.host.AssertNotCalled(t, "SendQuitAborted")
}

func TestDispatchSwallowsFailures(t *testing.T) {
	f := newFixture(t)

	f.editor.On("TriggerAction", "save", mock.Anything).Return(nil, errors.New("no active tab")).Once()
	f.editor.On("TriggerAction", "export", mock.Anything).Return(nil, nil).Once()

	assert.NotPanics(t, func() {
		f.controller.Dispatch(context.Background(), types.Action{Type: "save"})
		f.controller.Dispatch(context.Background(), types.Action{Type: "export"})
	})

	f.editor.AssertExpectations(t)
	assert.Equal(t, 1, f.logs.FilterMessage("action failed").Len())
}

func TestQuitHandshake(t *testing.T) {
	tests := []struct {
		name        string
		result      error
		wantCalled  string
		wantSkipped string
		wantPhase   Phase
	}{
		{"fulfilled quit is allowed", nil, "SendQuitAllowed", "SendQuitAborted", PhaseQuitting},
		{"rejected quit is aborted", errors.New("unsaved changes"), "SendQuitAborted", "SendQuitAllowed", PhaseReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.ready(t)

			var phaseDuringAction Phase
			f.editor.On("TriggerAction", types.ActionQuit, mock.Anything).
				Return(nil, tt.result).
				Run(func(mock.Arguments) { phaseDuringAction = f.controller.Phase() })
			f.host.Mock.On(tt.wantCalled).Return(nil)

			f.controller.Dispatch(context.Background(), types.Action{Type: types.ActionQuit})

			assert.Equal(t, PhaseQuitting, phaseDuringAction)
			f.host.AssertNumberOfCalls(t, tt.wantCalled, 1)
			f.host.AssertNotCalled(t, tt.wantSkipped)
			assert.Equal(t, tt.wantPhase, f.controller.Phase())
		})
	}
}

func TestQuitAbortedWhenActionPanics(t *testing.T) {
	f := newFixture(t)
	f.ready(t)

	f.editor.On("TriggerAction", types.ActionQuit, mock.Anything).Return(nil, nil).Run(func(mock.Arguments) {
		panic("editor crashed")
	})
	f.host.Mock.On("SendQuitAborted").Return(nil)

	assert.NotPanics(t, func() {
		f.controller.Dispatch(context.Background(), types.Action{Type: types.ActionQuit})
	})

	f.host.AssertNumberOfCalls(t, "SendQuitAborted", 1)
	f.host.AssertNotCalled(t, "SendQuitAllowed")
}

func TestQuitDuringRestore(t *testing.T) {
	f := newFixture(t)

	f.store.On("Restore", mock.Anything).Return(types.DefaultWorkspaceConfig(), nil)
	f.editor.On("SetLayout", mock.Anything)
	f.editor.On("OpenFiles", mock.Anything).Return(nil).Run(func(mock.Arguments) {
		f.controller.Dispatch(context.Background(), types.Action{Type: types.ActionQuit})
		assert.Equal(t, PhaseRestoring, f.controller.Phase())
	})
	f.editor.On("TriggerAction", types.ActionQuit, mock.Anything).Return(nil, errors.New("unsaved changes"))
	f.host.Mock.On("SendQuitAborted").Return(nil)
	f.host.Mock.On("SendReady").Return(nil)

	f.controller.HandleReady(context.Background())

	assert.Equal(t, PhaseReady, f.controller.Phase())
	f.host.AssertNumberOfCalls(t, "SendQuitAborted", 1)
}

func TestRestoreRejectedWhileQuitting(t *testing.T) {
	f := newFixture(t)
	f.ready(t)

	release := make(chan struct{})
	done := make(chan struct{})
	f.editor.On("TriggerAction", types.ActionQuit, mock.Anything).Return(nil, nil).Run(func(mock.Arguments) {
		<-release
	})
	f.host.Mock.On("SendQuitAllowed").Return(nil)

	go func() {
		defer close(done)
		f.controller.Dispatch(context.Background(), types.Action{Type: types.ActionQuit})
	}()
	require.Eventually(t, func() bool { return f.controller.Phase() == PhaseQuitting }, time.Second, time.Millisecond)

	err := f.controller.RestoreWorkspace(context.Background())
	assert.ErrorIs(t, err, ErrQuitting)

	close(release)
	<-done
	f.store.AssertNumberOfCalls(t, "Restore", 1)
}

func TestReadyDuringAbortedQuitStillRestores(t *testing.T) {
	f := newFixture(t)

	release := make(chan struct{})
	done := make(chan struct{})
	f.editor.On("TriggerAction", types.ActionQuit, mock.Anything).Return(nil, errors.New("unsaved changes")).Run(func(mock.Arguments) {
		<-release
	})
	f.host.Mock.On("SendQuitAborted").Return(nil)
	f.store.On("Restore", mock.Anything).Return(types.DefaultWorkspaceConfig(), nil)
	f.editor.On("SetLayout", mock.Anything)
	f.editor.On("OpenFiles", mock.Anything).Return(nil)
	f.host.Mock.On("SendReady").Return(nil)

	go func() {
		defer close(done)
		f.controller.Dispatch(context.Background(), types.Action{Type: types.ActionQuit})
	}()
	require.Eventually(t, func() bool { return f.controller.Phase() == PhaseQuitting }, time.Second, time.Millisecond)

	f.controller.HandleReady(context.Background())
	f.host.AssertNotCalled(t, "SendReady")
	f.store.AssertNotCalled(t, "Restore", mock.Anything)
	assert.Equal(t, 1, f.logs.FilterMessage("ready signal deferred until quit settles").Len())

	close(release)
	<-done

	assert.Equal(t, PhaseReady, f.controller.Phase())
	f.store.AssertNumberOfCalls(t, "Restore", 1)
	f.host.AssertNumberOfCalls(t, "SendQuitAborted", 1)
	f.host.AssertNumberOfCalls(t, "SendReady", 1)

	f.controller.HandleReady(context.Background())
	f.host.AssertNumberOfCalls(t, "SendReady", 1)
}

func TestReadyDuringAllowedQuitIsDropped(t *testing.T) {
	f := newFixture(t)

	release := make(chan struct{})
	done := make(chan struct{})
	f.editor.On("TriggerAction", types.ActionQuit, mock.Anything).Return(nil, nil).Run(func(mock.Arguments) {
		<-release
	})
	f.host.Mock.On("SendQuitAllowed").Return(nil)

	go func() {
		defer close(done)
		f.controller.Dispatch(context.Background(), types.Action{Type: types.ActionQuit})
	}()
	require.Eventually(t, func() bool { return f.controller.Phase() == PhaseQuitting }, time.Second, time.Millisecond)

	f.controller.HandleReady(context.Background())
	close(release)
	<-done

	assert.Equal(t, PhaseQuitting, f.controller.Phase())
	f.store.AssertNotCalled(t, "Restore", mock.Anything)
	f.host.AssertNotCalled(t, "SendReady")
}

func TestHandleContextMenu(t *testing.T) {
	f := newFixture(t)

	options := map[string]interface{}{"tab": "tab-1"}
	f.host.Mock.On("ShowContextMenu", "tab", options).Return(nil).Once()
	f.host.Mock.On("ShowContextMenu", "canvas", mock.Anything).Return(errors.New("no window")).Once()

	f.controller.HandleContextMenu(context.Background(), "tab", options)
	f.controller.HandleContextMenu(context.Background(), "canvas", nil)

	f.host.AssertExpectations(t)
	assert.Equal(t, 1, f.logs.FilterMessage("failed to show context menu").Len())
}

func TestEditorErrorsAndWarnings(t *testing.T) {
	f := newFixture(t)
	tab := &types.Tab{ID: "tab-1", Type: "bpmn", File: types.FileRef{Name: "a.bpmn", Path: "/a.bpmn"}}

	f.controller.HandleError(errors.New("import failed"), tab)
	f.controller.HandleError(errors.New("out of memory"), nil)
	f.controller.HandleWarning("unknown element", tab)
	f.controller.HandleWarning("plugin outdated", nil)

	tabError := f.logs.FilterMessage("tab error").All()
	require.Len(t, tabError, 1)
	assert.Equal(t, "tab-1", tabError[0].ContextMap()["tab_id"])
	assert.Equal(t, "/a.bpmn", tabError[0].ContextMap()["path"])

	assert.Equal(t, 1, f.logs.FilterMessage("app error").Len())
	assert.Equal(t, 1, f.logs.FilterMessage("tab warning").Len())
	assert.Equal(t, 1, f.logs.FilterMessage("app warning").Len())
}
