package types

// InstallType describes how a category's files reach the target tree.
type InstallType string

const (
	// InstallTypeMerge combines incoming documents with existing ones
	// under field-level policies. Legal only for the reserved settings
	// file of a category.
	InstallTypeMerge InstallType = "merge"

	// InstallTypeOverwrite copies files, replacing existing content.
	InstallTypeOverwrite InstallType = "overwrite"

	// InstallTypeDiscover enumerates files under the category's source
	// subtree at plan time instead of using a static file list.
	InstallTypeDiscover InstallType = "discover"

	// InstallTypeCheck verifies presence and content without writing.
	InstallTypeCheck InstallType = "check"
)

// IsValid reports whether the install type is one of the recognized set.
func (t InstallType) IsValid() bool {
	switch t {
	case InstallTypeMerge, InstallTypeOverwrite, InstallTypeDiscover, InstallTypeCheck:
		return true
	}
	return false
}

// FileEntry is a single file mapping within a category.
type FileEntry struct {
	Src        string `json:"src"`
	Dest       string `json:"dest"`
	Merge      bool   `json:"merge,omitempty"`
	Executable bool   `json:"executable,omitempty"`
	Template   bool   `json:"template,omitempty"`
}

// Category is an installable group of files sharing a target directory.
type Category struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	TargetDir   string      `json:"target_dir"`
	InstallType InstallType `json:"install_type"`
	Files       []FileEntry `json:"files"`
}

// Manifest is the document describing all install categories.
type Manifest struct {
	Version    string     `json:"version"`
	Categories []Category `json:"categories"`
}

// Category returns the named category, or nil if not declared.
func (m *Manifest) Category(name string) *Category {
	for i := range m.Categories {
		if m.Categories[i].Name == name {
			return &m.Categories[i]
		}
	}
	return nil
}

// CategoryNames returns the declared category names in manifest order.
func (m *Manifest) CategoryNames() []string {
	names := make([]string, 0, len(m.Categories))
	for _, c := range m.Categories {
		names = append(names, c.Name)
	}
	return names
}
