package fileops

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReplaceDirRemovesPreviousContents(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	if err := WriteFile(filepath.Join(dir, "stale.tf"), "old"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := ReplaceDir(dir, map[string]string{"main.tf": "new", "nested/a.txt": "a"}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if FileExists(filepath.Join(dir, "stale.tf")) {
		t.Fatalf("stale file should be removed")
	}
	data, err := os.ReadFile(filepath.Join(dir, "main.tf"))
	if err != nil || string(data) != "new" {
		t.Fatalf("unexpected main.tf: %q (%v)", data, err)
	}
	if !FileExists(filepath.Join(dir, "nested", "a.txt")) {
		t.Fatalf("nested file should exist")
	}
}

func TestReplaceDirRequiresTarget(t *testing.T) {
	if err := ReplaceDir("", nil); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}

func TestRemovePathsReportsExisting(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureDir(filepath.Join(dir, ".terraform")); err != nil {
		t.Fatalf("seed dir: %v", err)
	}
	if err := WriteFile(filepath.Join(dir, "terraform.tfstate"), "{}"); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	removed, err := RemovePaths(dir, ".terraform", "terraform.tfstate", "missing")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("expected 2 removed, got %v", removed)
	}
	if DirExists(filepath.Join(dir, ".terraform")) || FileExists(filepath.Join(dir, "terraform.tfstate")) {
		t.Fatalf("paths should be gone")
	}
}
