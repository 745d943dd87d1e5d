/*
Package workspace persists the shell workspace: the open files, the active
file and the editor layout.

The config is stored as indented JSON. Writes go through a temp file and a
rename, and the previous config is kept next to it as a gzip backup that
Restore falls back to when the primary file is unreadable.
*/
package workspace
