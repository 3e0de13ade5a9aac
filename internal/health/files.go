package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// InputChecker verifies that the video file exists, is a regular file and
// can be opened for reading.
type InputChecker struct {
	path string
}

// NewInputChecker creates a checker for path.
func NewInputChecker(path string) *InputChecker {
	return &InputChecker{path: path}
}

// Name returns the name of the checker.
func (c *InputChecker) Name() string {
	return "input"
}

// Check performs the input file check.
func (c *InputChecker) Check(ctx context.Context) error {
	if c.path == "" {
		return fmt.Errorf("no input file given")
	}
	info, err := os.Stat(c.path)
	if err != nil {
		return fmt.Errorf("input file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("input %s is not a regular file", c.path)
	}
	f, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("input file not readable: %w", err)
	}
	return f.Close()
}

// ArtifactDirChecker verifies that the directory of the diagnostic bitmap
// exists and accepts new files.
type ArtifactDirChecker struct {
	path string
}

// NewArtifactDirChecker creates a checker for the directory holding path.
func NewArtifactDirChecker(path string) *ArtifactDirChecker {
	return &ArtifactDirChecker{path: path}
}

// Name returns the name of the checker.
func (c *ArtifactDirChecker) Name() string {
	return "artifact_dir"
}

// Check creates and removes a probe file next to the artifact.
func (c *ArtifactDirChecker) Check(ctx context.Context) error {
	dir := filepath.Dir(c.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("artifact directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("artifact directory %s is not a directory", dir)
	}
	probe, err := os.CreateTemp(dir, ".termvid-probe-*")
	if err != nil {
		return fmt.Errorf("artifact directory not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}
