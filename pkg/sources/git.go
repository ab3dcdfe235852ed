package sources

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/confsync/pkg/errors"
)

// cloneURL builds the https clone URL for a git source. Short owner/name
// locators resolve against github.com; anything with a scheme passes
// through. A resolved secret is embedded as the userinfo of the URL.
func cloneURL(src Source) string {
	repo := src.Repo
	if !strings.Contains(repo, "://") && !strings.HasPrefix(repo, "git@") {
		if src.Secret != "" {
			return fmt.Sprintf("https://%s@github.com/%s.git", src.Secret, repo)
		}
		return fmt.Sprintf("https://github.com/%s.git", repo)
	}
	return repo
}

func (m *Manager) materializeGit(src Source) (string, error) {
	dest := filepath.Join(m.cacheDir, src.Name)
	ref := src.Ref
	if ref == "" {
		ref = "main"
	}

	var err error
	if _, statErr := os.Stat(filepath.Join(dest, ".git")); statErr == nil {
		err = updateClone(dest, ref)
	} else {
		err = freshClone(cloneURL(src), ref, dest)
	}
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrSourceUnreachable,
			"source %s: git operation failed", src.Name)
	}

	final := dest
	if src.Path != "" {
		final = filepath.Join(dest, src.Path)
		if _, err := os.Stat(final); err != nil {
			return "", errors.Newf(errors.ErrSourceUnreachable,
				"source %s: config path not found in repo: %s", src.Name, src.Path)
		}
	}
	return final, nil
}

func freshClone(url, ref, dest string) error {
	return runGit("", "clone", "--depth", "1", "-b", ref, url, dest)
}

func updateClone(dest, ref string) error {
	if err := runGit(dest, "fetch", "origin"); err != nil {
		return err
	}
	if err := runGit(dest, "checkout", ref); err != nil {
		return err
	}
	return runGit(dest, "pull", "origin", ref)
}

func runGit(dir string, args ...string) error {
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}
	cmd := exec.Command("git", args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}
	return nil
}

// expandHome resolves a leading ~ against the invoking user's home.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
