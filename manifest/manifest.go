// Package manifest handles intcode.toml run configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents an intcode.toml run configuration.
type Manifest struct {
	Program Program `toml:"program"`
	Run     Run     `toml:"run"`
	Patches []Patch `toml:"patch"`
	History History `toml:"history"`

	// Dir is the directory containing the intcode.toml file (set at load time).
	Dir string `toml:"-"`
}

// Program names the program image file.
type Program struct {
	Path string `toml:"path"`
	Name string `toml:"name"`
}

// Run configures how the program is driven.
type Run struct {
	Inputs   []int64 `toml:"inputs"`
	Phases   []int64 `toml:"phases"`
	Feedback bool    `toml:"feedback"`
}

// Patch overwrites one memory cell before execution starts.
type Patch struct {
	Address int64 `toml:"address"`
	Value   int64 `toml:"value"`
}

// History configures run history recording.
type History struct {
	Path string `toml:"path"`
}

// Load parses an intcode.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "intcode.toml")
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

	// Defaults
	if m.Program.Path == "" {
		m.Program.Path = "program.txt"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find an intcode.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "intcode.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// ProgramPath returns the absolute path of the program image file.
func (m *Manifest) ProgramPath() string {
	if filepath.IsAbs(m.Program.Path) {
		return m.Program.Path
	}
	return filepath.Join(m.Dir, m.Program.Path)
}

// HistoryPath returns the absolute path of the run history database, or
// empty when history recording is off.
func (m *Manifest) HistoryPath() string {
	if m.History.Path == "" {
		return ""
	}
	if filepath.IsAbs(m.History.Path) {
		return m.History.Path
	}
	return filepath.Join(m.Dir, m.History.Path)
}
