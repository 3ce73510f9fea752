package pipeline

import (
	"os"
	"path/filepath"
)

// NewLoader returns a Loader backed by the real filesystem rooted at
// configDir.
func NewLoader(configDir string) *Loader {
	return &Loader{
		ConfigDir: configDir,
		Glob:      filepath.Glob,
		ReadFile:  os.ReadFile,
	}
}
