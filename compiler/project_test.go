package compiler

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[project]
name = "blink"
version = "0.1.0"

[source]
dirs = ["src"]
entry = "blink.clv"

[image]
stack-words = 96
`
	if err := os.WriteFile(filepath.Join(dir, "clover.toml"), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Project.Name != "blink" {
		t.Errorf("Project.Name = %q, want blink", m.Project.Name)
	}
	if m.Project.Version != "0.1.0" {
		t.Errorf("Project.Version = %q, want 0.1.0", m.Project.Version)
	}
	if len(m.Source.Dirs) != 1 || m.Source.Dirs[0] != "src" {
		t.Errorf("Source.Dirs = %v, want [src]", m.Source.Dirs)
	}
	if m.Source.Entry != "blink.clv" {
		t.Errorf("Source.Entry = %q, want blink.clv", m.Source.Entry)
	}
	if m.Image.StackWords != 96 {
		t.Errorf("Image.StackWords = %d, want 96", m.Image.StackWords)
	}

	wantDir, err := filepath.Abs(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.Dir != wantDir {
		t.Errorf("Dir = %q, want %q", m.Dir, wantDir)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "clover.toml"), []byte("[project]\nname = \"x\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Source.Dirs) != 1 || m.Source.Dirs[0] != "src" {
		t.Errorf("Source.Dirs default = %v, want [src]", m.Source.Dirs)
	}
	if m.Source.Entry != "main.clv" {
		t.Errorf("Source.Entry default = %q, want main.clv", m.Source.Entry)
	}
	if m.Image.StackWords != DefaultStackWords {
		t.Errorf("Image.StackWords default = %d, want %d", m.Image.StackWords, DefaultStackWords)
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Fatalf("Load() succeeded, want error for missing clover.toml")
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "clover.toml"), []byte("[project]\nname = \"x\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad: %v", err)
	}
	if m == nil {
		t.Fatalf("FindAndLoad returned nil, want a manifest found at %s", root)
	}
	if m.Project.Name != "x" {
		t.Errorf("Project.Name = %q, want x", m.Project.Name)
	}
}

func TestFindAndLoadNoneFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad: %v", err)
	}
	if m != nil {
		t.Fatalf("FindAndLoad found a manifest where none exists: %+v", m)
	}
}
