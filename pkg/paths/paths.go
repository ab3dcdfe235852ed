// Package paths provides centralized path handling for confsync.
// It implements XDG Base Directory specification compliance and
// provides a consistent API for all path operations in the codebase.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/confsync/pkg/errors"
)

// Environment variable names
const (
	// EnvConfigDir overrides the XDG config directory for confsync
	EnvConfigDir = "CONFSYNC_CONFIG_DIR"

	// EnvCacheDir overrides the XDG cache directory for confsync
	EnvCacheDir = "CONFSYNC_CACHE_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Directory and file names. These define confsync's on-disk layout and
// are not user-configurable; configurable paths belong in pkg/config.
const (
	// AppDirName is the directory name for confsync-specific files
	AppDirName = "confsync"

	// ConfigFileName is the name of the tool configuration file
	ConfigFileName = "config.toml"

	// SourcesCacheDirName is the subdirectory for materialized sources
	SourcesCacheDirName = "sources"

	// LogFileName is the name of the log file
	LogFileName = "confsync.log"
)

// sourcesFileNames are the recognized source declaration files, in
// lookup order.
var sourcesFileNames = []string{"sources.yaml", "sources.yml", "sources.json"}

// Paths provides centralized path management for confsync
type Paths interface {
	Home() string
	ConfigDir() string
	ConfigFilePath() string
	SourcesFilePath() string
	CacheDir() string
	SourcesCacheDir() string
	LogFilePath() string
}

type paths struct {
	home      string
	xdgConfig string
	xdgCache  string
	xdgState  string
}

// New creates a Paths instance rooted at the invoking user's home
// directory. CONFSYNC_CONFIG_DIR and CONFSYNC_CACHE_DIR override the
// XDG locations when set.
func New() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrFileAccess, "cannot determine home directory")
	}

	p := &paths{
		home:      home,
		xdgConfig: filepath.Join(xdg.ConfigHome, AppDirName),
		xdgCache:  filepath.Join(xdg.CacheHome, AppDirName),
		xdgState:  filepath.Join(xdg.StateHome, AppDirName),
	}
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		p.xdgConfig = dir
	}
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		p.xdgCache = dir
	}
	return p, nil
}

func (p *paths) Home() string {
	return p.home
}

func (p *paths) ConfigDir() string {
	return p.xdgConfig
}

func (p *paths) ConfigFilePath() string {
	return filepath.Join(p.xdgConfig, ConfigFileName)
}

// SourcesFilePath returns the first declaration file that exists in the
// config directory, or the default sources.yaml path when none does.
func (p *paths) SourcesFilePath() string {
	for _, name := range sourcesFileNames {
		path := filepath.Join(p.xdgConfig, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(p.xdgConfig, sourcesFileNames[0])
}

func (p *paths) CacheDir() string {
	return p.xdgCache
}

func (p *paths) SourcesCacheDir() string {
	return filepath.Join(p.xdgCache, SourcesCacheDirName)
}

func (p *paths) LogFilePath() string {
	return filepath.Join(p.xdgState, LogFileName)
}
