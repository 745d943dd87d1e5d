package ws

import "github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"

// Outbound frame types
const (
	FrameReady        = "client:ready"
	FrameQuitAllowed  = "app:quit-allowed"
	FrameQuitAborted  = "app:quit-aborted"
	FrameRegisterMenu = "menu:register"
	FrameContextMenu  = "context-menu:open"
	FramePong         = "pong"
	FrameError        = "error"
)

// FramePing is answered with FramePong
const FramePing = "ping"

// Frame is a message exchanged with the host
type Frame struct {
	Type     string                 `json:"type"`
	Action   *types.Action          `json:"action,omitempty"`
	Files    []types.FileRef        `json:"files,omitempty"`
	DocType  string                 `json:"docType,omitempty"`
	Menu     *types.MenuOptions     `json:"menu,omitempty"`
	MenuType string                 `json:"menuType,omitempty"`
	Options  map[string]interface{} `json:"options,omitempty"`
	Message  string                 `json:"message,omitempty"`
}

// inbound lists the frame types forwarded as host events
var inbound = map[string]bool{
	types.EventMenuAction:    true,
	types.EventOpenFiles:     true,
	types.EventStarted:       true,
	types.EventWindowFocused: true,
}

func (f Frame) event() types.HostEvent {
	return types.HostEvent{Name: f.Type, Action: f.Action, Files: f.Files}
}
