// Package fsutil holds the file write primitives shared by the settings,
// record, ignore and plan writers: temp-file-plus-rename atomic writes and
// timestamped backups.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/zco-team/zco-claude/internal/platform"
)

// BackupLayout is the timestamp format appended to backup file names.
const BackupLayout = "20060102_150405"

// WriteAtomic writes data to a temp file in the directory of path, then
// renames it over path. Readers see either the old or the new content.
// The temp file is named ".<base>_*<ext>" so an interrupted write leaves a
// hidden file next to the target. When path is a symlink the file it points
// to is replaced and the link stays in place.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	path = writeTarget(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, "."+base+"_*"+filepath.Ext(base))
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := platform.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions on temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// writeTarget follows path through symlinks. A dangling link resolves to
// the path it names, so the write creates that file.
func writeTarget(path string) string {
	if !platform.IsSymlink(path) {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	target, err := os.Readlink(path)
	if err != nil {
		return path
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return target
}

// Backup copies path to "<path>.bak.<timestamp>" and returns the backup path.
// When readOnly is set the copy loses its write bits. An existing backup
// with the same timestamp gets a numeric suffix instead of being replaced.
func Backup(path string, now time.Time, readOnly bool) (string, error) {
	base := path + ".bak." + now.Format(BackupLayout)
	dst := base
	for i := 1; platform.Exists(dst); i++ {
		dst = fmt.Sprintf("%s_%d", base, i)
	}

	if err := CopyFile(path, dst); err != nil {
		return "", fmt.Errorf("backing up %s: %w", path, err)
	}
	if readOnly {
		if err := platform.MakeReadOnly(dst); err != nil {
			return dst, fmt.Errorf("making backup read-only: %w", err)
		}
	}
	return dst, nil
}

// CopyFile copies src to dst, preserving the source permission bits.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
