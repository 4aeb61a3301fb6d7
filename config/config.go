// Package config loads project-level defaults for the emberc CLI from an
// optional .emberc.yaml file. CLI flags always win over values loaded
// here — this package only supplies defaults before flag parsing runs.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the project config file emberc looks for in the current
// working directory.
const FileName = ".emberc.yaml"

// Project is the shape of .emberc.yaml. Every field is optional; a
// missing field leaves the corresponding flag at its built-in default.
type Project struct {
	Disassemble  *bool `yaml:"disassemble"`
	DumpBytecode *bool `yaml:"dumpBytecode"`
	MaxConstants *int  `yaml:"maxConstants"`
}

// Load reads and parses path, returning a zero-value Project (all
// fields nil) if the file does not exist. A present-but-malformed file
// is still an error — silently ignoring a typo'd config would be more
// surprising than failing the command.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Project{}, nil
	}
	if err != nil {
		return nil, err
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// BoolDefault returns the config value for a bool flag, falling back to
// fallback when the config file didn't set it.
func (p *Project) BoolDefault(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

// IntDefault returns the config value for an int flag, falling back to
// fallback when the config file didn't set it.
func (p *Project) IntDefault(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
