/*
Package editor implements an in-memory editor surface: open tabs, the active
tab and the layout, plus the actions the shell routes to it.

Every change to the tab set, the active tab or the layout is reported to a
Listener as a types.WorkspaceChange. Files that cannot be opened are skipped
and reported through Listener.HandleError.
*/
package editor
