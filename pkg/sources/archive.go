package sources

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/confsync/pkg/errors"
)

func (m *Manager) materializeZip(src Source) (string, error) {
	dest := filepath.Join(m.cacheDir, src.Name)
	if err := m.fs.RemoveAll(dest); err != nil {
		return "", errors.Wrapf(err, errors.ErrSourceUnreachable,
			"source %s: cannot refresh cache", src.Name)
	}

	archivePath, err := download(src)
	if err != nil {
		return "", err
	}
	defer func() { _ = os.Remove(archivePath) }()

	if err := extract(archivePath, dest); err != nil {
		return "", errors.Wrapf(err, errors.ErrSourceUnreachable,
			"source %s: cannot extract archive", src.Name)
	}

	if err := flattenSingleDir(dest); err != nil {
		return "", errors.Wrapf(err, errors.ErrSourceUnreachable,
			"source %s: cannot normalize archive layout", src.Name)
	}

	final := dest
	if src.Path != "" {
		final = filepath.Join(dest, src.Path)
		if _, err := os.Stat(final); err != nil {
			return "", errors.Newf(errors.ErrSourceUnreachable,
				"source %s: config path not found in archive: %s", src.Name, src.Path)
		}
	}
	return final, nil
}

func download(src Source) (string, error) {
	req, err := http.NewRequest(http.MethodGet, src.URL, nil)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrSourceUnreachable,
			"source %s: invalid url", src.Name)
	}
	if src.Secret != "" {
		req.Header.Set("Authorization", "Bearer "+src.Secret)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrSourceUnreachable,
			"source %s: download failed", src.Name)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf(errors.ErrSourceUnreachable,
			"source %s: download failed with status %s", src.Name, resp.Status)
	}

	tmp, err := os.CreateTemp("", "confsync-*.zip")
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrSourceUnreachable,
			"source %s: cannot create temp file", src.Name)
	}
	defer func() { _ = tmp.Close() }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = os.Remove(tmp.Name())
		return "", errors.Wrapf(err, errors.ErrSourceUnreachable,
			"source %s: download interrupted", src.Name)
	}
	return tmp.Name(), nil
}

func extract(archivePath, dest string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	for _, file := range reader.File {
		// Reject entries escaping the destination
		cleaned := filepath.Clean(file.Name)
		if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
			return fmt.Errorf("archive entry escapes destination: %s", file.Name)
		}

		target := filepath.Join(dest, cleaned)
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := extractFile(file, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(file *zip.File, target string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
	if err != nil {
		return err
	}
	defer func() { _ = dst.Close() }()

	_, err = io.Copy(dst, src)
	return err
}

// flattenSingleDir moves the contents of a lone top-level directory up
// one level, the usual shape of repository archive downloads.
func flattenSingleDir(dest string) error {
	entries, err := os.ReadDir(dest)
	if err != nil {
		return err
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return nil
	}

	inner := filepath.Join(dest, entries[0].Name())
	tmp := dest + ".flatten"
	if err := os.Rename(inner, tmp); err != nil {
		return err
	}
	if err := os.RemoveAll(dest); err != nil {
		return err
	}
	return os.Rename(tmp, dest)
}
