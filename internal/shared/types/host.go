package types

// Events delivered by the host integration layer.
const (
	EventMenuAction    = "menu:action"
	EventOpenFiles     = "client:open-files"
	EventStarted       = "client:started"
	EventWindowFocused = "client:window-focused"
)

// HostEvent is a host-originated event. Only the fields relevant to Name are set.
type HostEvent struct {
	Name   string    `json:"name"`
	Action *Action   `json:"action,omitempty"`
	Files  []FileRef `json:"files,omitempty"`
}

// MenuEntry is a single menu contribution of a document-type provider.
type MenuEntry struct {
	Label   string                 `json:"label" yaml:"label"`
	Action  string                 `json:"action" yaml:"action"`
	Options map[string]interface{} `json:"options,omitempty" yaml:"options,omitempty"`
}

// MenuOptions are the menu contributions registered with the host per provider.
type MenuOptions struct {
	HelpMenu    []MenuEntry `json:"helpMenu,omitempty"`
	NewFileMenu []MenuEntry `json:"newFileMenu,omitempty"`
}
