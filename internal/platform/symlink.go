package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ErrNotSymlink is returned by ReadSymlinkTarget for a regular file or directory.
var ErrNotSymlink = errors.New("not a symlink")

// CreateSymlink creates a symbolic link at link pointing to target. The
// parent directory of link is created when missing.
func CreateSymlink(target, link string) error {
	if err := os.MkdirAll(filepath.Dir(link), 0755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", link, err)
	}
	if err := os.Symlink(target, link); err != nil {
		if runtime.GOOS == "windows" {
			return fmt.Errorf("symlink %s (enable developer mode): %w", link, err)
		}
		return err
	}
	return nil
}

// RemovePath removes whatever sits at path: a symlink is unlinked without
// touching its target, a directory is removed recursively, a file is deleted.
// A missing path is not an error.
func RemovePath(path string) error {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 || !info.IsDir() {
		return os.Remove(path)
	}
	return os.RemoveAll(path)
}

// ReadSymlinkTarget returns the raw target of a symlink.
func ReadSymlinkTarget(path string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return "", fmt.Errorf("%s: %w", path, ErrNotSymlink)
	}
	return os.Readlink(path)
}

// IsSymlink reports whether path exists and is a symlink (dangling or not).
func IsSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// Exists reports whether anything, including a dangling symlink, sits at path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// PointsTo reports whether link is a symlink whose resolved target is the
// same filesystem path as target.
func PointsTo(link, target string) bool {
	if !IsSymlink(link) {
		return false
	}
	return SamePath(link, target)
}

// SamePath reports whether a and b resolve to the same location after
// following symlinks. Unresolvable paths are compared lexically.
func SamePath(a, b string) bool {
	return Resolve(a) == Resolve(b)
}

// Resolve returns the absolute, symlink-free form of path, or the cleaned
// absolute path when it cannot be resolved.
func Resolve(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// IsSymlinkSupported reports whether dir accepts symlinks. On Unix this is
// always true; on Windows it probes with a throwaway link.
func IsSymlinkSupported(dir string) bool {
	if runtime.GOOS != "windows" {
		return true
	}
	link := filepath.Join(dir, ".zco-symlink-test")
	defer os.Remove(link)
	return os.Symlink(dir, link) == nil
}
