// Package sources loads source declarations and materializes each
// declared source into a local cache directory. The engine only ever
// sees the returned directory; fetch mechanics stay in this package.
package sources

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/arthur-debert/confsync/pkg/errors"
	"github.com/arthur-debert/confsync/pkg/types"
	"gopkg.in/yaml.v3"
)

// Type identifies how a source is fetched.
type Type string

const (
	TypeLocal Type = "local"
	TypeGit   Type = "git"
	TypeZip   Type = "zip"
)

// Declaration is the wire form of a source in sources.json or
// sources.yaml. Locator fields vary by type; secret_reference may embed
// ${NAME} or $NAME environment placeholders.
type Declaration struct {
	Name      string `json:"name" yaml:"name"`
	Type      Type   `json:"type" yaml:"type"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	Repo      string `json:"repo,omitempty" yaml:"repo,omitempty"`
	Ref       string `json:"ref,omitempty" yaml:"ref,omitempty"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
	SecretRef string `json:"secret_reference,omitempty" yaml:"secret_reference,omitempty"`
}

// declarationFile is the top-level shape of a sources file.
type declarationFile struct {
	Sources []Declaration `json:"sources" yaml:"sources"`
}

// Source is a declaration with its secret resolved, immutable once
// loaded for a run.
type Source struct {
	Name   string
	Type   Type
	Path   string
	Repo   string
	Ref    string
	URL    string
	Secret string
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnv replaces ${NAME} and $NAME placeholders using lookup. A
// single missing name fails the whole expansion; there is no partial
// result.
func expandEnv(value string, lookup func(string) (string, bool)) (string, error) {
	var missing string
	expanded := envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		name := groups[1]
		if name == "" {
			name = groups[2]
		}
		val, ok := lookup(name)
		if !ok {
			if missing == "" {
				missing = name
			}
			return match
		}
		return val
	})
	if missing != "" {
		return "", errors.Newf(errors.ErrSecretExpansion,
			"environment variable %q is not set", missing)
	}
	return expanded, nil
}

// Load reads a sources file (JSON or YAML by extension) and resolves
// every secret reference against the process environment. Any missing
// environment name aborts the entire load.
func Load(fsys types.FS, path string) ([]Source, error) {
	return load(fsys, path, os.LookupEnv)
}

func load(fsys types.FS, path string, lookup func(string) (string, bool)) ([]Source, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSourceInvalid,
			"sources file not found at %s", path)
	}

	var file declarationFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrSourceInvalid, "sources file is not valid")
	}

	srcs := make([]Source, 0, len(file.Sources))
	for idx, decl := range file.Sources {
		src, err := resolve(decl, idx, lookup)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, src)
	}
	return srcs, nil
}

func resolve(decl Declaration, idx int, lookup func(string) (string, bool)) (Source, error) {
	src := Source{
		Name: decl.Name,
		Type: decl.Type,
		Path: decl.Path,
		Repo: decl.Repo,
		Ref:  decl.Ref,
		URL:  decl.URL,
	}
	if src.Name == "" {
		src.Name = fmt.Sprintf("source-%d", idx)
	}

	switch decl.Type {
	case TypeLocal:
		if decl.Path == "" {
			return Source{}, errors.Newf(errors.ErrSourceInvalid,
				"source %s: local sources require a path", src.Name)
		}
	case TypeGit:
		if decl.Repo == "" {
			return Source{}, errors.Newf(errors.ErrSourceInvalid,
				"source %s: git sources require a repo", src.Name)
		}
	case TypeZip:
		if decl.URL == "" {
			return Source{}, errors.Newf(errors.ErrSourceInvalid,
				"source %s: zip sources require a url", src.Name)
		}
	default:
		return Source{}, errors.Newf(errors.ErrSourceInvalid,
			"source %s: unknown source type %q", src.Name, decl.Type)
	}

	if decl.SecretRef != "" {
		secret, err := expandEnv(decl.SecretRef, lookup)
		if err != nil {
			return Source{}, errors.Wrapf(err, errors.ErrSecretExpansion,
				"source %s: cannot resolve secret reference", src.Name)
		}
		src.Secret = secret
	}

	return src, nil
}
