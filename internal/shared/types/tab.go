package types

import "time"

// Tab is an open document. Tabs are owned by the editor surface; other
// components re-resolve them by file instead of holding on to them.
type Tab struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Name     string    `json:"name"`
	File     FileRef   `json:"file"`
	Dirty    bool      `json:"dirty"`
	OpenedAt time.Time `json:"openedAt"`
}

// HasFile reports whether the tab is backed by a file on disk.
func (t *Tab) HasFile() bool {
	return t != nil && t.File.Path != ""
}
