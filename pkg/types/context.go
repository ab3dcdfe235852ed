package types

// RunContext carries the ambient state of a single run: where the target
// tree lives, which home directory template placeholders resolve to, and
// the filesystem to operate on. It is threaded explicitly through every
// call instead of living in package globals.
type RunContext struct {
	// TargetRoot, when set, replaces the home directory as the base
	// that category target_dirs resolve against. Empty for the default
	// home-rooted layout.
	TargetRoot string

	// HomeDir is the invoking user's home directory, used to resolve
	// template placeholders before any merge or write.
	HomeDir string

	// FS is the filesystem all reads and writes go through.
	FS FS

	// DryRun previews changes without mutating the target tree.
	DryRun bool

	// Force reapplies files the plan classified as unchanged.
	Force bool
}
