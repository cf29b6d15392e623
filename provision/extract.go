package provision

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yllada/nebula-tower/common"
)

// Extract writes the entries of the zip archive at archivePath into dest.
// Entries that would escape dest are skipped. A failed write aborts with a
// *common.ExtractionError; files already written are kept.
func Extract(archivePath, dest string, logger common.Logger) (*Result, error) {
	logger = common.OrDefault(logger)

	// Unsafe names are handled per entry, so ErrInsecurePath is not fatal.
	r, err := zip.OpenReader(archivePath)
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && r != nil) {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedArchive, err)
	}
	defer r.Close()

	result := &Result{}
	for _, f := range r.File {
		rel, ok := enclosedPath(f.Name)
		if !ok {
			logger.Warn("Skipping unsafe archive entry %q", f.Name)
			result.Skipped = append(result.Skipped, f.Name)
			continue
		}
		target := filepath.Join(dest, rel)

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0700); err != nil {
				return result, &common.ExtractionError{Entry: f.Name, Err: err}
			}
		case mode.IsRegular():
			if err := writeEntry(f, target); err != nil {
				return result, &common.ExtractionError{Entry: f.Name, Err: err}
			}
			logger.Debug("Extracted %s", rel)
			result.Written = append(result.Written, filepath.ToSlash(rel))
		default:
			logger.Warn("Skipping archive entry %q with mode %v", f.Name, mode)
			result.Skipped = append(result.Skipped, f.Name)
		}
	}
	return result, nil
}

// enclosedPath returns name as a relative path that stays within its root.
func enclosedPath(name string) (string, bool) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", false
	}
	p := filepath.FromSlash(name)
	if !filepath.IsLocal(p) {
		return "", false
	}
	p = filepath.Clean(p)
	if p == "." {
		return "", false
	}
	return p, true
}

// writeEntry replaces target with the entry's content.
func writeEntry(f *zip.File, target string) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
