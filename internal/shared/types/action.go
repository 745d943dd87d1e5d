package types

// Well-known action types. Any other type is forwarded to the editor as is.
const (
	ActionQuit             = "quit"
	ActionCheckFileChanged = "check-file-changed"
	ActionCreateDiagram    = "create-diagram"
	ActionCloseTab         = "close-tab"
	ActionCloseAllTabs     = "close-all-tabs"
	ActionSaveTab          = "save-tab"
)

// Action is an opaque command routed to the editor surface.
type Action struct {
	Type    string                 `json:"type"`
	Options map[string]interface{} `json:"options,omitempty"`
}
