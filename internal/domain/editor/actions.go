package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"
)

const defaultDiagramType = "bpmn"

// TriggerAction runs an editor action
func (s *Surface) TriggerAction(ctx context.Context, actionType string, options map[string]interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch actionType {
	case types.ActionQuit:
		return s.quit()
	case types.ActionCreateDiagram:
		return s.createDiagram(options)
	case types.ActionCloseTab:
		return s.closeTab(options)
	case types.ActionCloseAllTabs:
		return s.closeAll(boolOption(options, "force"))
	case types.ActionSaveTab:
		return s.saveTab(options)
	case types.ActionCheckFileChanged:
		return s.checkFileChanged(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, actionType)
	}
}

// quit closes every tab unless one of them has unsaved changes
func (s *Surface) quit() (interface{}, error) {
	if _, err := s.closeAll(false); err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Surface) createDiagram(options map[string]interface{}) (interface{}, error) {
	docType := stringOption(options, "type")
	if docType == "" {
		docType = defaultDiagramType
	}

	extension := docType
	if s.catalog != nil {
		provider, ok := s.catalog.Get(docType)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownType, docType)
		}
		if provider.Extension != "" {
			extension = provider.Extension
		}
	}

	s.mu.Lock()
	s.untitled[docType]++
	tab := &types.Tab{
		ID:       uuid.New().String(),
		Type:     docType,
		Name:     fmt.Sprintf("diagram_%d.%s", s.untitled[docType], extension),
		OpenedAt: time.Now(),
	}
	s.tabs = append(s.tabs, tab)
	s.activeID = tab.ID
	change := s.snapshot()
	tabCopy := *tab
	s.mu.Unlock()

	s.notify(change)
	return &tabCopy, nil
}

// closeTab closes the tab named by the tabId option, or the active tab
func (s *Surface) closeTab(options map[string]interface{}) (interface{}, error) {
	force := boolOption(options, "force")

	s.mu.Lock()
	id := stringOption(options, "tabId")
	if id == "" {
		id = s.activeID
	}

	index := -1
	for i, tab := range s.tabs {
		if tab.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrTabNotFound, id)
	}

	tab := s.tabs[index]
	if tab.Dirty && !force {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnsavedChanges, tab.Name)
	}

	s.tabs = append(s.tabs[:index:index], s.tabs[index+1:]...)
	delete(s.modTimes, tab.ID)

	if s.activeID == tab.ID {
		// Focus the neighbour that slid into place, or the new last tab
		s.activeID = ""
		if len(s.tabs) > 0 {
			if index >= len(s.tabs) {
				index = len(s.tabs) - 1
			}
			s.activeID = s.tabs[index].ID
		}
	}
	change := s.snapshot()
	s.mu.Unlock()

	s.notify(change)
	return tab.ID, nil
}

// closeAll closes every tab. Without force it fails before closing anything
// if a tab has unsaved changes.
func (s *Surface) closeAll(force bool) (interface{}, error) {
	s.mu.Lock()
	if !force {
		var dirty int
		for _, tab := range s.tabs {
			if tab.Dirty {
				dirty++
			}
		}
		if dirty > 0 {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w in %d tab(s)", ErrUnsavedChanges, dirty)
		}
	}

	closed := len(s.tabs)
	s.tabs = nil
	s.activeID = ""
	s.modTimes = make(map[string]time.Time)
	change := s.snapshot()
	s.mu.Unlock()

	if closed > 0 {
		s.notify(change)
	}
	return closed, nil
}

// saveTab clears the dirty flag of a file-backed tab and records its current
// modification time. The path option saves an untitled tab under that path.
func (s *Surface) saveTab(options map[string]interface{}) (interface{}, error) {
	path := stringOption(options, "path")

	s.mu.Lock()
	id := stringOption(options, "tabId")
	if id == "" {
		id = s.activeID
	}
	tab := s.findByID(id)
	if tab == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrTabNotFound, id)
	}
	if path != "" {
		tab.File = types.FileRef{Name: tab.Name, Path: path}
	}
	if !tab.HasFile() {
		s.mu.Unlock()
		return nil, fmt.Errorf("tab %s has no file to save to", tab.Name)
	}

	info, err := os.Stat(tab.File.Path)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to save %s: %w", tab.File.Path, err)
	}
	tab.Dirty = false
	s.modTimes[tab.ID] = info.ModTime()
	change := s.snapshot()
	tabCopy := *tab
	s.mu.Unlock()

	s.notify(change)
	return &tabCopy, nil
}

// checkFileChanged warns about files modified or removed outside the editor
// and returns the IDs of the affected tabs.
func (s *Surface) checkFileChanged() []string {
	s.mu.Lock()
	type finding struct {
		tab     types.Tab
		warning string
	}
	var findings []finding

	for _, tab := range s.tabs {
		if !tab.HasFile() {
			continue
		}

		info, err := os.Stat(tab.File.Path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			if _, known := s.modTimes[tab.ID]; known {
				delete(s.modTimes, tab.ID)
				findings = append(findings, finding{*tab, "file was removed: " + tab.File.Path})
			}
		case err != nil:
			s.logger.Debug("stat failed", zap.String("path", tab.File.Path), zap.Error(err))
		default:
			last, known := s.modTimes[tab.ID]
			if known && !info.ModTime().Equal(last) {
				findings = append(findings, finding{*tab, "file changed on disk: " + tab.File.Path})
			}
			s.modTimes[tab.ID] = info.ModTime()
		}
	}
	s.mu.Unlock()

	changed := make([]string, 0, len(findings))
	for _, f := range findings {
		tab := f.tab
		s.reportWarning(f.warning, &tab)
		changed = append(changed, tab.ID)
	}
	return changed
}

func stringOption(options map[string]interface{}, key string) string {
	v, _ := options[key].(string)
	return v
}

func boolOption(options map[string]interface{}, key string) bool {
	v, _ := options[key].(bool)
	return v
}
