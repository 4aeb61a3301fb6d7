package main

import (
	"os"
	"path/filepath"

	"github.com/emberlang/emberc/config"
)

// projectConfig holds the parsed .emberc.yaml (if any), loaded once in
// main() before subcommand flags are registered so each subcommand's
// SetFlags can use it for flag defaults. CLI flags always override it.
var projectConfig *config.Project

func loadProjectConfig() (*config.Project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.Load(filepath.Join(cwd, config.FileName))
}
