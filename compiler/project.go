package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest describes a clover.toml project file: where sources live,
// which file is the entry point, and the image-layout budget to
// compile against.
type Manifest struct {
	Project Project `toml:"project"`
	Source  Source  `toml:"source"`
	Image   Image   `toml:"image"`

	// Dir is the directory containing clover.toml (set at load time).
	Dir string `toml:"-"`
}

// Project carries project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures where Clover source files live.
type Source struct {
	Dirs  []string `toml:"dirs"`
	Entry string   `toml:"entry"`
}

// Image configures the budget a compiled image must fit, mirroring the
// header fields ImageWriter accepts.
type Image struct {
	StackWords uint16 `toml:"stack-words"`
}

// Load parses a clover.toml file from dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "clover.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"src"}
	}
	if m.Source.Entry == "" {
		m.Source.Entry = "main.clv"
	}
	if m.Image.StackWords == 0 {
		m.Image.StackWords = DefaultStackWords
	}

	return &m, nil
}

// FindAndLoad walks up from startDir looking for a clover.toml file,
// returning nil (no error) if none is found before the filesystem root.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "clover.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// SourceDirPaths returns absolute paths for the configured source
// directories.
func (m *Manifest) SourceDirPaths() []string {
	paths := make([]string, 0, len(m.Source.Dirs))
	for _, d := range m.Source.Dirs {
		paths = append(paths, filepath.Join(m.Dir, d))
	}
	return paths
}

// EntryPath returns the absolute path to the configured entry source file.
func (m *Manifest) EntryPath() string {
	return filepath.Join(m.Dir, m.Source.Entry)
}
