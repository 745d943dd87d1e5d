package types

// NoActiveFile marks a workspace without an active file.
const NoActiveFile = -1

// Layout is an opaque layout blob owned by the editor surface.
type Layout map[string]interface{}

// FileRef identifies a document persisted in a workspace.
type FileRef struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// WorkspaceConfig is the persisted session of the shell.
type WorkspaceConfig struct {
	Files      []FileRef `json:"files"`
	ActiveFile int       `json:"activeFile"`
	Layout     Layout    `json:"layout"`
	Revision   string    `json:"revision,omitempty"`
}

// DefaultWorkspaceConfig returns an empty workspace.
func DefaultWorkspaceConfig() WorkspaceConfig {
	return WorkspaceConfig{
		Files:      []FileRef{},
		ActiveFile: NoActiveFile,
		Layout:     Layout{},
	}
}

// HasActiveFile reports whether ActiveFile is a valid index into Files.
func (c WorkspaceConfig) HasActiveFile() bool {
	return c.ActiveFile >= 0 && c.ActiveFile < len(c.Files)
}

// Active returns the active file, if any.
func (c WorkspaceConfig) Active() (FileRef, bool) {
	if !c.HasActiveFile() {
		return FileRef{}, false
	}
	return c.Files[c.ActiveFile], true
}

// WorkspaceChange is emitted by the editor surface whenever tabs, the active
// tab or the layout change.
type WorkspaceChange struct {
	Tabs      []*Tab `json:"tabs"`
	ActiveTab *Tab   `json:"activeTab,omitempty"`
	Layout    Layout `json:"layout"`
}
