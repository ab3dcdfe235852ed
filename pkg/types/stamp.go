package types

// Stamp records what was last installed: the fingerprint of the resolved
// source tree, when it was applied, and which categories were included.
// Overwritten on every successful apply.
type Stamp struct {
	ToolVersion string   `json:"tool_version"`
	Fingerprint string   `json:"fingerprint"`
	InstalledAt string   `json:"installed_at"`
	Categories  []string `json:"categories"`
}

// IsZero reports whether the stamp has never been written.
func (s Stamp) IsZero() bool {
	return s.Fingerprint == "" && s.InstalledAt == ""
}
