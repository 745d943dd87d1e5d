// Package session implements the session controller of the shell.
//
// The controller sits between the host integration layer (native menus,
// window events, quit negotiation), the editor surface (open documents and
// layout) and the workspace store. It owns a single piece of state: the
// lifecycle phase.
//
// Lifecycle:
//
//	Initializing --HandleReady--> Restoring --restore settled--> Ready
//	Ready --quit dispatched--> Quitting --quit rejected--> Ready
//
// Restoration Process:
//  1. Enter Restoring (workspace changes are not persisted while restoring)
//  2. Load the workspace config from the store
//  3. Apply the layout
//  4. Open the files
//  5. Resolve and activate the active file's tab, if it opened
//  6. Enter Ready
//
// Workspace changes are persisted only in the Ready phase and are written
// through a single-slot sequencer, so the last change submitted is the last
// one written.
//
// Example Usage:
//
//	controller := session.New(session.Options{
//	    Host:      bridge,
//	    Editor:    surface,
//	    Store:     store,
//	    Providers: catalog,
//	    Logger:    logger.Component("session"),
//	})
//	controller.Activate(ctx)
//	defer controller.Deactivate()
//	controller.HandleReady(ctx)
package session
