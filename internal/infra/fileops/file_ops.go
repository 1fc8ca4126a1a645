// Where: cli/internal/infra/fileops/file_ops.go
// What: Shared filesystem operations for workspace and document output.
// Why: Keep directory replacement and state cleanup behavior in one place.
package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

func RemoveDir(path string) error {
	if path == "" {
		return nil
	}
	if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func WriteFile(path, content string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

// ReplaceDir writes files into dir after removing everything previously there.
// Keys of files are paths relative to dir.
func ReplaceDir(dir string, files map[string]string) error {
	if dir == "" {
		return fmt.Errorf("target directory is required")
	}
	if err := RemoveDir(dir); err != nil {
		return fmt.Errorf("clear %s: %w", dir, err)
	}
	if err := EnsureDir(dir); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := WriteFile(filepath.Join(dir, name), files[name]); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// RemovePaths deletes each named entry under dir, ignoring missing ones.
// It returns the entries that actually existed.
func RemovePaths(dir string, names ...string) ([]string, error) {
	removed := []string{}
	for _, name := range names {
		target := filepath.Join(dir, name)
		if !FileOrDirExists(target) {
			continue
		}
		if err := os.RemoveAll(target); err != nil {
			return removed, fmt.Errorf("remove %s: %w", target, err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func FileOrDirExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
