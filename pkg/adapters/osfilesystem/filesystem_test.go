package osfilesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSystem_WriteAndReadFile(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "clip.gif")

	if err := fs.WriteFile(path, []byte("GIF89a")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "GIF89a" {
		t.Errorf("expected %q, got %q", "GIF89a", data)
	}
}

func TestFileSystem_WriteFileReplacesAndLeavesNoTemp(t *testing.T) {
	fs := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.gif")

	if err := fs.WriteFile(path, []byte("first version")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := fs.WriteFile(path, []byte("second")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("expected replaced content, got %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the output file, got %d entries", len(entries))
	}
}

func TestFileSystem_WriteFileCreatesParentDirs(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "a", "b", "clip.gif")

	if err := fs.WriteFile(path, []byte("x")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	exists, err := fs.Exists(path)
	if err != nil || !exists {
		t.Errorf("expected file to exist, err=%v", err)
	}
}

func TestFileSystem_Exists(t *testing.T) {
	fs := New()

	exists, err := fs.Exists(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected missing file to not exist")
	}
}

func TestFileSystem_Size(t *testing.T) {
	fs := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.gif")
	os.WriteFile(path, make([]byte, 1234), 0644)

	size, err := fs.Size(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != 1234 {
		t.Errorf("expected 1234, got %d", size)
	}

	if _, err := fs.Size(dir); err == nil {
		t.Error("expected error for directory")
	}
	if _, err := fs.Size(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
