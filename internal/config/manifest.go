package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/quantarax/netcanv/internal/validation"
	"github.com/quantarax/netcanv/internal/wire"
)

// CurrentManifestVersion is this implementation's canvas.toml version.
const CurrentManifestVersion = 1

// ErrFutureVersion is returned when a manifest declares a version
// newer than this implementation understands.
var ErrFutureVersion = errors.New("config: canvas.toml version is newer than this build supports")

// ProjectManifest is the canvas.toml found at the root of a
// .netcanv project directory.
type ProjectManifest struct {
	Version int `toml:"version"`
}

// manifestFileName is the manifest's fixed name within a project
// directory.
const manifestFileName = "canvas.toml"

// ChunkFileName returns the conventional on-disk name for a chunk's
// PNG file, {x},{y}.png, per spec.md §6.
func ChunkFileName(coord wire.Coord) string {
	return fmt.Sprintf("%d,%d.png", coord.X, coord.Y)
}

// OpenProject reads and validates a project directory's canvas.toml,
// rejecting manifests from a future, incompatible version.
func OpenProject(dir string) (*ProjectManifest, error) {
	if err := validation.ValidateFilePath(dir, true); err != nil {
		return nil, fmt.Errorf("config: project directory: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, manifestFileName))
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", manifestFileName, err)
	}

	var m ProjectManifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", manifestFileName, err)
	}
	if m.Version > CurrentManifestVersion {
		return nil, fmt.Errorf("%w: file version %d, supported up to %d", ErrFutureVersion, m.Version, CurrentManifestVersion)
	}
	return &m, nil
}

// CreateProject writes a fresh canvas.toml at CurrentManifestVersion
// into dir, creating the directory if needed.
func CreateProject(dir string) (*ProjectManifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("config: create project dir: %w", err)
	}

	m := &ProjectManifest{Version: CurrentManifestVersion}
	f, err := os.Create(filepath.Join(dir, manifestFileName))
	if err != nil {
		return nil, fmt.Errorf("config: create %s: %w", manifestFileName, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(m); err != nil {
		return nil, fmt.Errorf("config: encode %s: %w", manifestFileName, err)
	}
	return m, nil
}

// ChunkPath returns the full path to a chunk's PNG file within a
// project directory.
func ChunkPath(dir string, coord wire.Coord) string {
	return filepath.Join(dir, ChunkFileName(coord))
}
