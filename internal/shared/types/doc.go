// Package types provides the data structures shared by the shell components.
//
// Core Types:
//   - WorkspaceConfig: persisted session (open files, active file, layout)
//   - FileRef: a document backed by a file on disk
//   - Tab: an open document owned by the editor surface
//   - WorkspaceChange: editor notification carrying tabs, active tab and layout
//   - Action: opaque command forwarded to the editor surface
//   - HostEvent: event delivered by the host integration layer
//   - Provider: document-type provider with optional menu capabilities
//
// Example Usage:
//
//	cfg := types.DefaultWorkspaceConfig()
//	if file, ok := cfg.Active(); ok {
//	    tab, _ := editor.FindOpenTab(file)
//	}
package types
