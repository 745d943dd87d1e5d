package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/domain/registry"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"
)

var (
	ErrTabNotFound     = errors.New("tab not found")
	ErrUnsavedChanges  = errors.New("unsaved changes")
	ErrUnknownAction   = errors.New("unknown action")
	ErrUnknownType     = errors.New("unknown document type")
	ErrUnsupportedFile = errors.New("unsupported file")
)

// TextType is assigned to readable text files no provider claims
const TextType = "text"

// Listener receives workspace changes and editor problems
type Listener interface {
	HandleWorkspaceChanged(change types.WorkspaceChange)
	HandleError(err error, tab *types.Tab)
	HandleWarning(warning string, tab *types.Tab)
}

// Catalog resolves document types
type Catalog interface {
	TypeFor(path string) (string, bool)
	Get(docType string) (*registry.Provider, bool)
}

// Surface is an in-memory editor surface
type Surface struct {
	catalog Catalog
	logger  *zap.Logger

	mu       sync.RWMutex
	tabs     []*types.Tab         // Protected by mu, in tab order
	activeID string               // Protected by mu
	layout   types.Layout         // Protected by mu
	modTimes map[string]time.Time // Protected by mu, keyed by tab ID
	untitled map[string]int       // Protected by mu, keyed by document type
	listener Listener             // Protected by mu
	seq      uint64               // Protected by mu, bumped per snapshot

	// deliverMu serializes listener calls; delivered is the newest
	// snapshot handed to the listener
	deliverMu sync.Mutex
	delivered uint64
}

// pendingChange is a snapshot tagged with the order it was taken in
type pendingChange struct {
	seq    uint64
	change types.WorkspaceChange
}

// NewSurface creates an empty editor surface
func NewSurface(catalog Catalog, logger *zap.Logger) *Surface {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Surface{
		catalog:  catalog,
		logger:   logger,
		layout:   types.Layout{},
		modTimes: make(map[string]time.Time),
		untitled: make(map[string]int),
	}
}

// SetListener sets the receiver of workspace changes
func (s *Surface) SetListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

// Tabs returns copies of the open tabs in order
func (s *Surface) Tabs() []*types.Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTabs(s.tabs)
}

// ActiveTab returns a copy of the active tab
func (s *Surface) ActiveTab() (*types.Tab, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if tab := s.findByID(s.activeID); tab != nil {
		tabCopy := *tab
		return &tabCopy, true
	}
	return nil, false
}

// Layout returns a copy of the current layout
func (s *Surface) Layout() types.Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyLayout(s.layout)
}

// SetLayout replaces the layout
func (s *Surface) SetLayout(layout types.Layout) {
	s.mu.Lock()
	s.layout = copyLayout(layout)
	change := s.snapshot()
	s.mu.Unlock()

	s.notify(change)
}

// OpenFiles opens files as tabs. Files already open are focused instead of
// reopened. Unreadable files are reported and skipped; the last file opened
// becomes the active tab.
func (s *Surface) OpenFiles(ctx context.Context, files []types.FileRef) error {
	if len(files) == 0 {
		return nil
	}

	var (
		opened  []*types.Tab
		focusID string
	)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		if tab, ok := s.FindOpenTab(file); ok {
			focusID = tab.ID
			continue
		}

		tab, modTime, err := s.load(file)
		if err != nil {
			s.logger.Warn("skipping file", zap.String("path", file.Path), zap.Error(err))
			s.reportError(err, &types.Tab{Name: file.Name, File: file})
			continue
		}

		// A concurrent open may have added the same path while loading
		s.mu.Lock()
		if existing := s.findByPath(file.Path); existing != nil {
			s.mu.Unlock()
			focusID = existing.ID
			continue
		}
		s.tabs = append(s.tabs, tab)
		s.modTimes[tab.ID] = modTime
		s.mu.Unlock()

		opened = append(opened, tab)
		focusID = tab.ID
	}

	if focusID == "" {
		return nil
	}

	s.mu.Lock()
	// The focused tab may have been closed meanwhile
	if s.findByID(focusID) != nil {
		s.activeID = focusID
	}
	change := s.snapshot()
	s.mu.Unlock()

	s.logger.Debug("files opened", zap.Int("requested", len(files)), zap.Int("opened", len(opened)))
	s.notify(change)
	return nil
}

// load stats and sniffs a file and builds its tab
func (s *Surface) load(file types.FileRef) (*types.Tab, time.Time, error) {
	if file.Path == "" {
		return nil, time.Time{}, fmt.Errorf("%w: empty path", ErrUnsupportedFile)
	}

	info, err := os.Stat(file.Path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to open %s: %w", file.Path, err)
	}
	if info.IsDir() {
		return nil, time.Time{}, fmt.Errorf("%w: %s is a directory", ErrUnsupportedFile, file.Path)
	}

	mtype, err := mimetype.DetectFile(file.Path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read %s: %w", file.Path, err)
	}
	if !isText(mtype) {
		return nil, time.Time{}, fmt.Errorf("%w: %s is %s", ErrUnsupportedFile, file.Path, mtype.String())
	}

	docType := TextType
	if s.catalog != nil {
		if t, ok := s.catalog.TypeFor(file.Path); ok {
			docType = t
		}
	}

	name := file.Name
	if name == "" {
		name = filepath.Base(file.Path)
		file.Name = name
	}

	return &types.Tab{
		ID:       uuid.New().String(),
		Type:     docType,
		Name:     name,
		File:     file,
		OpenedAt: time.Now(),
	}, info.ModTime(), nil
}

// isText reports whether the detected type is, or derives from, text/plain
func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// FindOpenTab returns the tab showing file, matched by path
func (s *Surface) FindOpenTab(file types.FileRef) (*types.Tab, bool) {
	if file.Path == "" {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if tab := s.findByPath(file.Path); tab != nil {
		tabCopy := *tab
		return &tabCopy, true
	}
	return nil, false
}

// SetActiveTab focuses tab, identified by its ID
func (s *Surface) SetActiveTab(ctx context.Context, tab *types.Tab) error {
	if tab == nil {
		return ErrTabNotFound
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.findByID(tab.ID) == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTabNotFound, tab.ID)
	}
	s.activeID = tab.ID
	change := s.snapshot()
	s.mu.Unlock()

	s.notify(change)
	return nil
}

// MarkDirty flags a tab as having unsaved edits
func (s *Surface) MarkDirty(tabID string) error {
	s.mu.Lock()
	tab := s.findByID(tabID)
	if tab == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTabNotFound, tabID)
	}
	tab.Dirty = true
	change := s.snapshot()
	s.mu.Unlock()

	s.notify(change)
	return nil
}

// findByID must be called with mu held
func (s *Surface) findByID(id string) *types.Tab {
	if id == "" {
		return nil
	}
	for _, tab := range s.tabs {
		if tab.ID == id {
			return tab
		}
	}
	return nil
}

// findByPath must be called with mu held
func (s *Surface) findByPath(path string) *types.Tab {
	if path == "" {
		return nil
	}
	for _, tab := range s.tabs {
		if tab.File.Path == path {
			return tab
		}
	}
	return nil
}

// snapshot must be called with mu held
func (s *Surface) snapshot() pendingChange {
	s.seq++
	change := types.WorkspaceChange{
		Tabs:   copyTabs(s.tabs),
		Layout: copyLayout(s.layout),
	}
	for _, tab := range change.Tabs {
		if tab.ID == s.activeID {
			change.ActiveTab = tab
		}
	}
	return pendingChange{seq: s.seq, change: change}
}

// notify hands a snapshot to the listener. Snapshots older than one
// already delivered are dropped, the newer one supersedes them.
func (s *Surface) notify(pending pendingChange) {
	s.mu.RLock()
	l := s.listener
	s.mu.RUnlock()

	if l == nil {
		return
	}

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	if pending.seq <= s.delivered {
		s.logger.Debug("stale workspace change dropped", zap.Uint64("seq", pending.seq))
		return
	}
	s.delivered = pending.seq
	l.HandleWorkspaceChanged(pending.change)
}

func (s *Surface) reportError(err error, tab *types.Tab) {
	s.mu.RLock()
	l := s.listener
	s.mu.RUnlock()

	if l != nil {
		l.HandleError(err, tab)
	}
}

func (s *Surface) reportWarning(warning string, tab *types.Tab) {
	s.mu.RLock()
	l := s.listener
	s.mu.RUnlock()

	if l != nil {
		l.HandleWarning(warning, tab)
	}
}

func copyTabs(tabs []*types.Tab) []*types.Tab {
	out := make([]*types.Tab, len(tabs))
	for i, tab := range tabs {
		tabCopy := *tab
		out[i] = &tabCopy
	}
	return out
}

func copyLayout(layout types.Layout) types.Layout {
	out := make(types.Layout, len(layout))
	for k, v := range layout {
		out[k] = v
	}
	return out
}
