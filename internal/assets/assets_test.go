package assets

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/bullyae-tools/pkg/formats"
)

var _ formats.SidecarResolver = (*Manager)(nil)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestManagerPriority(t *testing.T) {
	low, high := t.TempDir(), t.TempDir()
	writeFile(t, low, "wall.mtl", "low")
	writeFile(t, low, "only_low.tex", "low")
	writeFile(t, high, "wall.mtl", "high")

	m := NewManager(low)
	if err := m.AddDir(high); err != nil {
		t.Fatalf("AddDir: %v", err)
	}

	tests := []struct {
		name string
		want string
	}{
		{"wall.mtl", "high"},
		{"only_low.tex", "low"},
	}
	for _, tt := range tests {
		data, err := m.Open(tt.name)
		if err != nil {
			t.Fatalf("Open(%q): %v", tt.name, err)
		}
		if string(data) != tt.want {
			t.Errorf("Open(%q) = %q, want %q", tt.name, data, tt.want)
		}
	}

	if dirs := m.Dirs(); len(dirs) != 2 || dirs[0] != high {
		t.Errorf("Dirs() = %v", dirs)
	}
}

func TestManagerCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Textures/Wall_D.tex", "pixels")

	m := NewManager(dir)
	data, err := m.Open("textures/wall_d.tex")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(data) != "pixels" {
		t.Errorf("data = %q", data)
	}
}

func TestManagerNotFound(t *testing.T) {
	m := NewManager(t.TempDir())
	_, err := m.Open("missing.mtl")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open() error = %v, want fs.ErrNotExist", err)
	}
}

func TestManagerCache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wall.mtl", "first")

	m := NewManager(dir)
	if _, err := m.Open("wall.mtl"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "wall.mtl", "second")

	data, err := m.Open("WALL.mtl")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "first" {
		t.Errorf("expected cached content, got %q", data)
	}
	if hits, misses := m.Stats(); hits != 1 || misses != 1 {
		t.Errorf("Stats() = %d hits, %d misses; want 1, 1", hits, misses)
	}

	m.Close()
	if data, _ := m.Open("wall.mtl"); string(data) != "second" {
		t.Errorf("after Close got %q, want fresh content", data)
	}
}

func TestAddDirErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file.txt", "x")

	m := NewManager()
	if err := m.AddDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for a missing directory")
	}
	if err := m.AddDir(filepath.Join(dir, "file.txt")); err == nil {
		t.Error("expected error for a regular file")
	}
}
