package types

import "time"

// BackupManifest is the on-disk record written into every backup
// directory, listing what was captured and why.
type BackupManifest struct {
	CreatedAt   string   `json:"created_at"`
	Categories  []string `json:"categories"`
	Files       []string `json:"files"`
	ToolVersion string   `json:"tool_version"`
}

// BackupInfo describes a backup found on disk. Timestamps come from the
// directory name when it carries one, and fall back to filesystem
// modification time for legacy backups.
type BackupInfo struct {
	ID         string
	Path       string
	CreatedAt  time.Time
	Legacy     bool
	Categories []string
	FileCount  int
}
